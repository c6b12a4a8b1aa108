// internal/domain/retention/metrics.go
package retention

import (
	"time"

	"troubadour_scheduler/internal/domain/schedule"
)

// Metrics is the global retention snapshot the churn monitor checks.
type Metrics struct {
	RetentionRate     float64 // percent, 0-100
	ActiveUsers       int
	InactiveUsers     int
	TotalUsers        int
	AvgDaysSinceLogin float64
}

// CheckResult is the outcome of one threshold check.
type CheckResult struct {
	PeriodKey     schedule.PeriodKey
	Forced        bool
	CheckedAt     time.Time
	Metrics       Metrics
	Threshold     float64
	Breached      bool
	ChannelErrors int // failed best-effort alert channels
}

// Details is the audit log payload for one check.
func (r *CheckResult) Details() map[string]any {
	return map[string]any{
		"period_key":           string(r.PeriodKey),
		"forced":               r.Forced,
		"checked_at":           r.CheckedAt.Format(time.RFC3339),
		"retention_rate":       r.Metrics.RetentionRate,
		"threshold":            r.Threshold,
		"breached":             r.Breached,
		"channel_errors":       r.ChannelErrors,
		"active_users":         r.Metrics.ActiveUsers,
		"inactive_users":       r.Metrics.InactiveUsers,
		"total_users":          r.Metrics.TotalUsers,
		"avg_days_since_login": r.Metrics.AvgDaysSinceLogin,
	}
}

// ChatAlert is the payload posted to the team chat when retention drops.
type ChatAlert struct {
	Title   string
	Message string
	Metrics Metrics
	Limit   float64
}
