package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/finpak/go-wallet-core/pkg/events"
)

type fakeSender struct {
	failures int
	sent     []events.Notification
}

func (s *fakeSender) Send(ctx context.Context, event events.Notification) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("gateway unavailable")
	}
	s.sent = append(s.sent, event)
	return nil
}

type fakeSource struct {
	dlq [][]byte
}

func (s *fakeSource) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	return nil, errors.New("empty")
}

func (s *fakeSource) PushToDLQ(ctx context.Context, data []byte) error {
	s.dlq = append(s.dlq, data)
	return nil
}

func TestHandleEventDelivers(t *testing.T) {
	sender := &fakeSender{}
	source := &fakeSource{}
	w := NewWorker(sender, source)

	event := events.Notification{OwnerID: "owner-1", Kind: "transfer.sent"}
	w.handleEvent(event, []byte(`{}`))

	assert.Len(t, sender.sent, 1)
	assert.Equal(t, "owner-1", sender.sent[0].OwnerID)
	assert.Empty(t, source.dlq)
}

func TestHandleEventRetriesThenDelivers(t *testing.T) {
	sender := &fakeSender{failures: 2}
	source := &fakeSource{}
	w := NewWorker(sender, source)

	w.handleEvent(events.Notification{OwnerID: "owner-1"}, []byte(`{}`))

	assert.Len(t, sender.sent, 1)
	assert.Empty(t, source.dlq)
}

func TestHandleEventExhaustedMovesToDLQ(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff makes this test slow")
	}

	sender := &fakeSender{failures: 3}
	source := &fakeSource{}
	w := NewWorker(sender, source)

	raw := []byte(`{"owner_id":"owner-1"}`)
	w.handleEvent(events.Notification{OwnerID: "owner-1"}, raw)

	assert.Empty(t, sender.sent)
	assert.Len(t, source.dlq, 1)
	assert.Equal(t, raw, source.dlq[0])
}

func TestLogSenderNeverFails(t *testing.T) {
	err := LogSender{}.Send(context.Background(), events.Notification{OwnerID: "owner-1"})
	assert.NoError(t, err)
}
