// internal/app/churn_monitor.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"troubadour_scheduler/internal/domain/audit"
	"troubadour_scheduler/internal/domain/retention"
	"troubadour_scheduler/internal/domain/schedule"
)

// ChurnMonitor compares the global retention rate against a runtime threshold
// and alerts the owner when it drops below.
type ChurnMonitor struct {
	metrics     retention.MetricsRepository
	owner       retention.OwnerNotifier
	chat        retention.ChatAlerter
	auditLog    audit.Log
	threshold   *retention.Threshold
	callTimeout time.Duration
	logger      *logrus.Entry
	now         func() time.Time
}

func NewChurnMonitor(
	mr retention.MetricsRepository,
	owner retention.OwnerNotifier,
	chat retention.ChatAlerter,
	auditLog audit.Log,
	threshold *retention.Threshold,
	callTimeout time.Duration,
	logger *logrus.Entry,
) *ChurnMonitor {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &ChurnMonitor{
		metrics:     mr,
		owner:       owner,
		chat:        chat,
		auditLog:    auditLog,
		threshold:   threshold,
		callTimeout: callTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

func (m *ChurnMonitor) Threshold() float64 {
	return m.threshold.Value()
}

// SetThreshold clamps v to [0,100] and returns the value in effect.
func (m *ChurnMonitor) SetThreshold(v float64) float64 {
	return m.threshold.Set(v)
}

// Run performs one check. Only a failure to compute the metrics is returned;
// alert channel failures are logged and counted.
func (m *ChurnMonitor) Run(ctx context.Context, _ time.Time, period schedule.PeriodKey, forced bool) (*retention.CheckResult, error) {
	metricsCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
	snapshot, err := m.metrics.GlobalRetention(metricsCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to compute retention metrics: %w", err)
	}

	threshold := m.threshold.Value()
	result := &retention.CheckResult{
		PeriodKey: period,
		Forced:    forced,
		CheckedAt: m.now().UTC(),
		Metrics:   snapshot,
		Threshold: threshold,
		Breached:  retention.Breached(snapshot.RetentionRate, threshold),
	}
	checkLogger := m.logger.WithFields(logrus.Fields{
		"period_key":     period,
		"forced":         forced,
		"retention_rate": snapshot.RetentionRate,
		"threshold":      threshold,
		"active_users":   snapshot.ActiveUsers,
		"inactive_users": snapshot.InactiveUsers,
		"total_users":    snapshot.TotalUsers,
	})

	if result.Breached {
		result.ChannelErrors = m.alert(ctx, result, checkLogger)
		checkLogger.WithField("channel_errors", result.ChannelErrors).Warn("Retention below threshold, owner alerted")
	} else {
		checkLogger.Info("Retention healthy")
	}

	m.reportCheck(ctx, result, checkLogger)
	return result, nil
}

func (m *ChurnMonitor) reportCheck(ctx context.Context, result *retention.CheckResult, logger *logrus.Entry) {
	if m.auditLog == nil {
		return
	}
	auditCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()
	if err := m.auditLog.WriteAuditEntry(auditCtx, audit.ActionChurnCheck, result.Details()); err != nil {
		logger.WithError(err).Warn("Failed to write churn check summary to audit log")
	}
}

// alert fans out to three independent channels and returns how many failed.
func (m *ChurnMonitor) alert(ctx context.Context, result *retention.CheckResult, logger *logrus.Entry) int {
	s := result.Metrics
	title := fmt.Sprintf("Churn alert: retention %.1f%% is below %.1f%%", s.RetentionRate, result.Threshold)
	content := fmt.Sprintf(
		"Retention rate: %.1f%% (threshold %.1f%%)\nActive users: %d\nInactive users: %d\nTotal users: %d\nAverage days since last login: %.1f",
		s.RetentionRate, result.Threshold, s.ActiveUsers, s.InactiveUsers, s.TotalUsers, s.AvgDaysSinceLogin,
	)

	channels := []struct {
		name string
		send func(context.Context) error
	}{
		{"owner", func(ctx context.Context) error {
			if m.owner == nil {
				return nil
			}
			return m.owner.NotifyOwner(ctx, title, content)
		}},
		{"chat", func(ctx context.Context) error {
			if m.chat == nil {
				return nil
			}
			return m.chat.SendChatAlert(ctx, retention.ChatAlert{Title: title, Message: content, Metrics: s, Limit: result.Threshold})
		}},
		{"audit", func(ctx context.Context) error {
			if m.auditLog == nil {
				return nil
			}
			return m.auditLog.WriteAuditEntry(ctx, audit.ActionChurnThreshold, map[string]any{
				"period_key":           string(result.PeriodKey),
				"forced":               result.Forced,
				"retention_rate":       s.RetentionRate,
				"threshold":            result.Threshold,
				"active_users":         s.ActiveUsers,
				"inactive_users":       s.InactiveUsers,
				"total_users":          s.TotalUsers,
				"avg_days_since_login": s.AvgDaysSinceLogin,
			})
		}},
	}

	failed := 0
	for _, ch := range channels {
		if err := m.sendChannel(ctx, ch.send); err != nil {
			failed++
			logger.WithError(err).WithField("channel", ch.name).Warn("Churn alert channel failed")
		}
	}
	return failed
}

// sendChannel runs one alert channel under its own timeout. A panic counts as
// that channel's failure.
func (m *ChurnMonitor) sendChannel(ctx context.Context, send func(context.Context) error) (err error) {
	chCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in alert channel: %v", rec)
		}
	}()
	return send(chCtx)
}
