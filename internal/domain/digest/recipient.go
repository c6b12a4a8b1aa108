// internal/domain/digest/recipient.go
package digest

// Recipient is an account eligible for digest emails. Read-only to the scheduler.
type Recipient struct {
	ID      int64
	Name    string
	Email   string
	Cadence Cadence
}

// MetricsSnapshot is a recipient's activity over a lookback window.
type MetricsSnapshot struct {
	LookbackDays    int
	ReviewsReceived int
	NewProjects     int
	AverageScore    float64 // 0-10, zero when there were no reviews
	TopGenre        string
	StreakDays      int
}

// HasActivity is false for a window with no reviews, no new projects and no
// standing streak. Such recipients get no digest.
func (m MetricsSnapshot) HasActivity() bool {
	return m.ReviewsReceived > 0 || m.NewProjects > 0 || m.StreakDays > 0
}

// SummaryContext is what the content generator gets to write a digest blurb from.
type SummaryContext struct {
	RecipientName string
	Cadence       Cadence
	Metrics       MetricsSnapshot
}
