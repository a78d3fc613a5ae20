package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finpak/go-wallet-core/pkg/events"
)

type fakeQueue struct {
	published []events.Notification
	err       error
}

func (q *fakeQueue) PublishNotification(ctx context.Context, event events.Notification) error {
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, event)
	return nil
}

func TestDispatcherNotify(t *testing.T) {
	queue := &fakeQueue{}
	d := NewDispatcher(queue)

	d.Notify(context.Background(), "owner-1", "wallet.credited", map[string]interface{}{
		"amount": "50.00",
	})

	assert.Len(t, queue.published, 1)
	event := queue.published[0]
	assert.Equal(t, "owner-1", event.OwnerID)
	assert.Equal(t, "wallet.credited", event.Kind)
	assert.Equal(t, "50.00", event.Payload["amount"])
	assert.False(t, event.Timestamp.IsZero())
}

func TestDispatcherSwallowsEnqueueFailure(t *testing.T) {
	queue := &fakeQueue{err: errors.New("redis down")}
	d := NewDispatcher(queue)

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), "owner-1", "transfer.sent", nil)
	})
	assert.Empty(t, queue.published)
}
