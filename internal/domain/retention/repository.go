// internal/domain/retention/repository.go
package retention

import "context"

type MetricsRepository interface {
	GlobalRetention(ctx context.Context) (Metrics, error)
}

// OwnerNotifier reaches the product owner directly.
type OwnerNotifier interface {
	NotifyOwner(ctx context.Context, title, content string) error
}

type ChatAlerter interface {
	SendChatAlert(ctx context.Context, alert ChatAlert) error
}
