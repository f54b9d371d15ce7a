package out

import (
	"context"

	"draft_worker/core/domain"
)

// Notifier delivers a drafted-item notification over one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n *domain.Notification) error
}
