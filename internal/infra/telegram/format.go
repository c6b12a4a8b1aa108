package telegram

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"troubadour_scheduler/internal/domain/digest"
	"troubadour_scheduler/internal/domain/retention"
	"troubadour_scheduler/internal/domain/schedule"
)

func escapeHTML(s string) string {
	return html.EscapeString(s)
}

func formatRunResult(r *digest.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Digest run %s (period %s)\n", r.RunID, r.PeriodKey)
	fmt.Fprintf(&b, "Attempted: %d\n", r.Attempted)
	fmt.Fprintf(&b, "Sent: %d\n", r.Sent)
	fmt.Fprintf(&b, "Skipped (no activity): %d\n", r.SkippedNoActivity)
	fmt.Fprintf(&b, "Skipped (cadence): %d\n", r.SkippedCadence)
	if r.SkippedDelivered > 0 {
		fmt.Fprintf(&b, "Skipped (already delivered): %d\n", r.SkippedDelivered)
	}
	fmt.Fprintf(&b, "Failed: %d", r.Failed)
	return b.String()
}

func formatCheckResult(r *retention.CheckResult) string {
	state := "healthy"
	if r.Breached {
		state = "BELOW THRESHOLD"
	}
	m := r.Metrics
	return fmt.Sprintf("Retention %s: %.1f%% (threshold %.1f%%)\nActive: %d, inactive: %d, total: %d\nAverage days since login: %.1f",
		state, m.RetentionRate, r.Threshold, m.ActiveUsers, m.InactiveUsers, m.TotalUsers, m.AvgDaysSinceLogin)
}

func formatStatus(statuses []schedule.Status) string {
	var b strings.Builder
	for i, s := range statuses {
		if i > 0 {
			b.WriteString("\n")
		}
		state := "stopped"
		switch {
		case s.Running:
			state = "running"
		case s.Started:
			state = "idle"
		}
		last := "never"
		if s.HasCompleted {
			last = string(s.LastCompleted)
		}
		fmt.Fprintf(&b, "%s: %s, last completed period: %s", s.Name, state, last)
	}
	return b.String()
}

func parseThresholdArg(arg string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(arg), "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("threshold must be a number: %w", err)
	}
	return v, nil
}
