// internal/domain/digest/run.go
package digest

import (
	"time"

	"troubadour_scheduler/internal/domain/schedule"
)

// RunResult summarises one digest batch. It is produced fresh for every run.
type RunResult struct {
	RunID             string
	PeriodKey         schedule.PeriodKey
	Forced            bool
	StartedAt         time.Time
	FinishedAt        time.Time
	Attempted         int // every listed recipient, including skipped ones
	Sent              int
	SkippedNoActivity int
	SkippedCadence    int
	SkippedDelivered  int // already delivered earlier in the same period
	Failed            int
}

// Details flattens the result for the audit log.
func (r *RunResult) Details() map[string]any {
	return map[string]any{
		"run_id":              r.RunID,
		"period_key":          string(r.PeriodKey),
		"forced":              r.Forced,
		"started_at":          r.StartedAt.UTC().Format(time.RFC3339),
		"finished_at":         r.FinishedAt.UTC().Format(time.RFC3339),
		"attempted":           r.Attempted,
		"sent":                r.Sent,
		"skipped_no_activity": r.SkippedNoActivity,
		"skipped_cadence":     r.SkippedCadence,
		"skipped_delivered":   r.SkippedDelivered,
		"failed":              r.Failed,
	}
}
