package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"troubadour_scheduler/internal/domain/audit"
	"troubadour_scheduler/internal/domain/digest"
	"troubadour_scheduler/internal/domain/retention"
	"troubadour_scheduler/internal/domain/schedule"
)

var ErrAdminNotAuthorized = errors.New("performing user is not authorized as an admin")

// DigestRunner is the digest scheduler as seen by operators.
type DigestRunner interface {
	ForceRun(ctx context.Context) (*digest.RunResult, error)
	Status() schedule.Status
}

// ChurnRunner is the churn monitor scheduler as seen by operators. Exclusive
// runs fn while holding the scheduler's running flag.
type ChurnRunner interface {
	ForceRun(ctx context.Context) (*retention.CheckResult, error)
	Exclusive(fn func()) error
	Status() schedule.Status
}

// AdminService backs the owner's bot commands.
type AdminService struct {
	digests         DigestRunner
	churn           ChurnRunner
	monitor         *ChurnMonitor
	auditLog        audit.Log
	ownerTelegramID int64
	logger          *logrus.Entry
}

func NewAdminService(digests DigestRunner, churn ChurnRunner, monitor *ChurnMonitor, auditLog audit.Log, ownerID int64, logger *logrus.Entry) *AdminService {
	return &AdminService{
		digests:         digests,
		churn:           churn,
		monitor:         monitor,
		auditLog:        auditLog,
		ownerTelegramID: ownerID,
		logger:          logger,
	}
}

func (s *AdminService) authorize(performingID int64) error {
	if s.ownerTelegramID == 0 || performingID != s.ownerTelegramID {
		return ErrAdminNotAuthorized
	}
	return nil
}

// ForceDigest runs a digest batch now, bypassing the window and dedup checks.
func (s *AdminService) ForceDigest(ctx context.Context, performingID int64) (*digest.RunResult, error) {
	if err := s.authorize(performingID); err != nil {
		return nil, err
	}
	return s.digests.ForceRun(ctx)
}

func (s *AdminService) ForceChurnCheck(ctx context.Context, performingID int64) (*retention.CheckResult, error) {
	if err := s.authorize(performingID); err != nil {
		return nil, err
	}
	return s.churn.ForceRun(ctx)
}

func (s *AdminService) Threshold(performingID int64) (float64, error) {
	if err := s.authorize(performingID); err != nil {
		return 0, err
	}
	return s.monitor.Threshold(), nil
}

// SetThreshold updates the churn threshold while no check is running. The
// change is recorded in the audit log on a best-effort basis.
func (s *AdminService) SetThreshold(ctx context.Context, performingID int64, v float64) (float64, error) {
	if err := s.authorize(performingID); err != nil {
		return 0, err
	}
	var previous, applied float64
	err := s.churn.Exclusive(func() {
		previous = s.monitor.Threshold()
		applied = s.monitor.SetThreshold(v)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to set churn threshold: %w", err)
	}

	if s.auditLog != nil {
		details := map[string]any{"previous": previous, "requested": v, "applied": applied, "performed_by": performingID}
		if err := s.auditLog.WriteAuditEntry(ctx, audit.ActionThresholdChanged, details); err != nil {
			s.logger.WithError(err).Warn("Failed to audit threshold change")
		}
	}
	return applied, nil
}

func (s *AdminService) Status(performingID int64) ([]schedule.Status, error) {
	if err := s.authorize(performingID); err != nil {
		return nil, err
	}
	return []schedule.Status{s.digests.Status(), s.churn.Status()}, nil
}
