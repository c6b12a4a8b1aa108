package audit

import "context"

// Log is the operator-facing audit sink.
type Log interface {
	WriteAuditEntry(ctx context.Context, action string, details map[string]any) error
}

const (
	ActionDigestRunCompleted = "digest.run_completed"
	ActionChurnThreshold     = "churn.threshold_breached"
	ActionChurnCheck         = "churn.check_completed"
	ActionThresholdChanged   = "churn.threshold_changed"
)
