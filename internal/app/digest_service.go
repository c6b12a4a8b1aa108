// internal/app/digest_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"troubadour_scheduler/internal/domain/audit"
	"troubadour_scheduler/internal/domain/digest"
	"troubadour_scheduler/internal/domain/schedule"
)

const (
	defaultCallTimeout       = 30 * time.Second
	defaultSummaryRatePerSec = 2
)

// DeliveryLedger remembers which recipients already got the digest for a
// period, so a retried run does not deliver twice.
type DeliveryLedger interface {
	Delivered(key schedule.PeriodKey, recipientID int64) bool
	MarkDelivered(key schedule.PeriodKey, recipientID int64)
}

type DigestConfig struct {
	CallTimeout       time.Duration // per external call
	SummaryRatePerSec int
	DashboardLink     string
}

// DigestService runs one digest batch over all eligible recipients.
type DigestService struct {
	recipients  digest.RecipientRepository
	metrics     digest.MetricsRepository
	generator   digest.SummaryGenerator
	inApp       digest.InAppNotifier
	mailer      digest.Mailer
	auditLog    audit.Log
	ledger      DeliveryLedger
	limiter     *rate.Limiter
	callTimeout time.Duration
	link        string
	logger      *logrus.Entry
	now         func() time.Time
}

func NewDigestService(
	rr digest.RecipientRepository,
	mr digest.MetricsRepository,
	gen digest.SummaryGenerator,
	inApp digest.InAppNotifier,
	mailer digest.Mailer,
	auditLog audit.Log,
	ledger DeliveryLedger,
	cfg DigestConfig,
	logger *logrus.Entry,
) *DigestService {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	rps := cfg.SummaryRatePerSec
	if rps <= 0 {
		rps = defaultSummaryRatePerSec
	}
	if cfg.DashboardLink == "" {
		cfg.DashboardLink = "/dashboard"
	}
	return &DigestService{
		recipients:  rr,
		metrics:     mr,
		generator:   gen,
		inApp:       inApp,
		mailer:      mailer,
		auditLog:    auditLog,
		ledger:      ledger,
		limiter:     rate.NewLimiter(rate.Limit(rps), rps),
		callTimeout: cfg.CallTimeout,
		link:        cfg.DashboardLink,
		logger:      logger,
		now:         time.Now,
	}
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeSkippedCadence
	outcomeSkippedNoActivity
	outcomeSkippedDelivered
)

// Run processes every eligible recipient for the trigger at now. Per-recipient
// failures are counted and never abort the batch; only a failure to list
// recipients is returned. Forced runs ignore the delivery ledger.
func (s *DigestService) Run(ctx context.Context, now time.Time, period schedule.PeriodKey, forced bool) (*digest.RunResult, error) {
	result := &digest.RunResult{
		RunID:     uuid.NewString(),
		PeriodKey: period,
		Forced:    forced,
		StartedAt: s.now().UTC(),
	}
	runLogger := s.logger.WithFields(logrus.Fields{
		"run_id":     result.RunID,
		"period_key": period,
		"forced":     forced,
	})
	runLogger.Info("Digest run started")

	listCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	recipients, err := s.recipients.ListEligible(listCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible recipients: %w", err)
	}
	runLogger.WithField("recipients", len(recipients)).Info("Eligible recipients loaded")

	for _, r := range recipients {
		result.Attempted++
		out, err := s.isolateRecipient(ctx, now, period, forced, r, runLogger)
		if err != nil {
			result.Failed++
			runLogger.WithError(err).WithField("recipient_id", r.ID).Warn("Digest failed for recipient")
			continue
		}
		switch out {
		case outcomeSent:
			result.Sent++
		case outcomeSkippedCadence:
			result.SkippedCadence++
		case outcomeSkippedNoActivity:
			result.SkippedNoActivity++
		case outcomeSkippedDelivered:
			result.SkippedDelivered++
		}
	}

	result.FinishedAt = s.now().UTC()
	runLogger.WithFields(logrus.Fields{
		"attempted":           result.Attempted,
		"sent":                result.Sent,
		"skipped_no_activity": result.SkippedNoActivity,
		"skipped_cadence":     result.SkippedCadence,
		"skipped_delivered":   result.SkippedDelivered,
		"failed":              result.Failed,
	}).Info("Digest run finished")

	s.reportRun(ctx, result, runLogger)
	return result, nil
}

// isolateRecipient turns a panic in any port into an ordinary recipient failure
// so the rest of the batch still runs.
func (s *DigestService) isolateRecipient(ctx context.Context, now time.Time, period schedule.PeriodKey, forced bool, r digest.Recipient, logger *logrus.Entry) (out outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.WithFields(logrus.Fields{
				"recipient_id": r.ID,
				"panic":        rec,
				"stack":        string(debug.Stack()),
			}).Error("Panic while processing recipient")
			out, err = 0, fmt.Errorf("panic while processing recipient %d: %v", r.ID, rec)
		}
	}()
	return s.processRecipient(ctx, now, period, forced, r, logger)
}

func (s *DigestService) processRecipient(ctx context.Context, now time.Time, period schedule.PeriodKey, forced bool, r digest.Recipient, logger *logrus.Entry) (outcome, error) {
	if !digest.Includes(r.Cadence, now) {
		return outcomeSkippedCadence, nil
	}
	if !forced && s.ledger != nil && s.ledger.Delivered(period, r.ID) {
		return outcomeSkippedDelivered, nil
	}

	days := r.Cadence.LookbackDays()
	metricsCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	m, err := s.metrics.RecipientMetrics(metricsCtx, r.ID, days)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("failed to get metrics for recipient %d: %w", r.ID, err)
	}
	if !m.HasActivity() {
		return outcomeSkippedNoActivity, nil
	}
	m.LookbackDays = days

	summary := s.summarize(ctx, r, m, logger)
	title := DigestTitle(r.Cadence)

	inAppCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	err = s.inApp.WriteInAppRecord(inAppCtx, r.ID, title, summary, s.link)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("failed to write in-app digest for recipient %d: %w", r.ID, err)
	}
	if !forced && s.ledger != nil {
		s.ledger.MarkDelivered(period, r.ID)
	}

	if r.Email != "" && s.mailer != nil {
		mailCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		err = s.mailer.SendEmail(mailCtx, r.Email, title, emailBody(r, summary, s.link))
		cancel()
		if err != nil {
			logger.WithError(err).WithField("recipient_id", r.ID).Warn("Digest email failed, in-app record kept")
		}
	}
	return outcomeSent, nil
}

// summarize prefers generated prose and falls back to the template on any error.
func (s *DigestService) summarize(ctx context.Context, r digest.Recipient, m digest.MetricsSnapshot, logger *logrus.Entry) string {
	fallback := FallbackSummary(r.Cadence, m)
	if s.generator == nil {
		return fallback
	}
	if err := s.limiter.Wait(ctx); err != nil {
		logger.WithError(err).WithField("recipient_id", r.ID).Warn("Summary rate limiter aborted, using template")
		return fallback
	}

	genCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	text, err := s.generator.GenerateSummary(genCtx, digest.SummaryContext{
		RecipientName: r.Name,
		Cadence:       r.Cadence,
		Metrics:       m,
	})
	if err == nil {
		err = validateSummary(text)
	}
	if err != nil {
		logger.WithError(err).WithField("recipient_id", r.ID).Warn("Summary generation failed, using template")
		return fallback
	}
	return strings.TrimSpace(text)
}

var errEmptySummary = errors.New("generated summary is empty")

func validateSummary(text string) error {
	if strings.TrimSpace(text) == "" {
		return errEmptySummary
	}
	return nil
}

func (s *DigestService) reportRun(ctx context.Context, result *digest.RunResult, logger *logrus.Entry) {
	if s.auditLog == nil {
		return
	}
	auditCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	if err := s.auditLog.WriteAuditEntry(auditCtx, audit.ActionDigestRunCompleted, result.Details()); err != nil {
		logger.WithError(err).Warn("Failed to write digest run summary to audit log")
	}
}
