package notification

import (
	"context"
	"time"

	"github.com/finpak/go-wallet-core/pkg/events"
	"github.com/finpak/go-wallet-core/pkg/logger"
)

type Queue interface {
	PublishNotification(ctx context.Context, event events.Notification) error
}

// Dispatcher hands committed ledger events off to the notification queue.
// Errors are logged and swallowed here: a failed enqueue must never surface
// into a ledger operation that has already committed.
type Dispatcher struct {
	queue Queue
}

func NewDispatcher(queue Queue) *Dispatcher {
	return &Dispatcher{queue: queue}
}

func (d *Dispatcher) Notify(ctx context.Context, ownerID, kind string, payload map[string]interface{}) {
	event := events.Notification{
		OwnerID:   ownerID,
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	if err := d.queue.PublishNotification(ctx, event); err != nil {
		logger.Error("Failed to enqueue notification", logger.Fields{
			logger.UserIdKey: ownerID,
			"kind":           kind,
			"error":          err.Error(),
		})
	}
}
