// internal/app/summary.go
package app

import (
	"fmt"
	"strings"

	"troubadour_scheduler/internal/domain/digest"
)

// DigestTitle is used for both the in-app record and the email subject.
func DigestTitle(c digest.Cadence) string {
	switch c {
	case digest.CadenceBiweekly:
		return "Your biweekly Troubadour digest"
	case digest.CadenceMonthly:
		return "Your monthly Troubadour digest"
	default:
		return "Your weekly Troubadour digest"
	}
}

func periodPhrase(c digest.Cadence) string {
	switch c {
	case digest.CadenceBiweekly:
		return "In the last two weeks"
	case digest.CadenceMonthly:
		return "This month"
	default:
		return "This week"
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// FallbackSummary builds the digest text from the numbers alone. It is used
// whenever content generation fails and must never fail itself.
func FallbackSummary(c digest.Cadence, m digest.MetricsSnapshot) string {
	var b strings.Builder
	b.WriteString(periodPhrase(c))
	b.WriteString(" you received ")
	b.WriteString(plural(m.ReviewsReceived, "review", "reviews"))
	b.WriteString(" and started ")
	b.WriteString(plural(m.NewProjects, "new project", "new projects"))
	b.WriteString(".")
	if m.ReviewsReceived > 0 {
		fmt.Fprintf(&b, " Your average score was %.1f/10.", m.AverageScore)
	}
	if m.TopGenre != "" {
		fmt.Fprintf(&b, " Most of your activity was in %s.", m.TopGenre)
	}
	if m.StreakDays > 0 {
		fmt.Fprintf(&b, " You're on a %d-day streak, keep it going!", m.StreakDays)
	}
	return b.String()
}

// emailBody wraps the summary with a link back to the dashboard.
func emailBody(r digest.Recipient, summary, link string) string {
	name := r.Name
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s,\n\n%s\n\nSee the details on your dashboard: %s\n\nYou can change how often you get this email in your account settings.\n", name, summary, link)
}
