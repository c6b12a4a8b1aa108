// internal/domain/digest/repository.go
package digest

import "context"

// RecipientRepository lists accounts that may receive a digest, with their
// cadence preference. Disabled recipients are included.
type RecipientRepository interface {
	ListEligible(ctx context.Context) ([]Recipient, error)
}

// MetricsRepository computes per-recipient activity metrics.
type MetricsRepository interface {
	RecipientMetrics(ctx context.Context, recipientID int64, lookbackDays int) (MetricsSnapshot, error)
}

// SummaryGenerator writes a short natural-language digest. It may fail; callers
// fall back to FallbackSummary.
type SummaryGenerator interface {
	GenerateSummary(ctx context.Context, sc SummaryContext) (string, error)
}

// InAppNotifier writes the dashboard notification. A digest only counts as
// sent once this succeeds.
type InAppNotifier interface {
	WriteInAppRecord(ctx context.Context, recipientID int64, title, message, link string) error
}

// Mailer delivers the digest email. Delivery is best effort.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}
