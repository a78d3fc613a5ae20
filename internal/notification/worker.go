package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/finpak/go-wallet-core/pkg/events"
	"github.com/finpak/go-wallet-core/pkg/logger"
)

// Sender delivers one notification to the owner's device. The push gateway
// behind it is an external collaborator.
type Sender interface {
	Send(ctx context.Context, event events.Notification) error
}

type Source interface {
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
	PushToDLQ(ctx context.Context, data []byte) error
}

type Worker struct {
	Sender Sender
	Queue  Source
}

func NewWorker(sender Sender, queue Source) *Worker {
	return &Worker{Sender: sender, Queue: queue}
}

func (w *Worker) Start() {
	logger.Info("Starting notification worker...")
	go w.processEvents()
}

func (w *Worker) processEvents() {
	for {

		data, err := w.Queue.Pop(context.Background(), 5*time.Second)
		if err != nil {

			continue
		}

		var event events.Notification
		if err := json.Unmarshal(data, &event); err != nil {
			logger.Error("Worker: Failed to unmarshal notification", logger.Fields{"error": err.Error(), "data": string(data)})
			w.moveToDLQ(data)
			continue
		}

		w.handleEvent(event, data)
	}
}

func (w *Worker) handleEvent(event events.Notification, rawData []byte) {
	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		err := w.Sender.Send(context.Background(), event)
		if err == nil {
			logger.Info("Worker: Notification delivered", logger.Fields{
				logger.UserIdKey: event.OwnerID,
				"kind":           event.Kind,
			})
			return
		}

		logger.Warn("Worker: Failed to deliver notification, retrying", logger.Fields{
			logger.UserIdKey: event.OwnerID,
			"kind":           event.Kind,
			"attempt":        i + 1,
			"error":          err.Error(),
		})
		time.Sleep(time.Duration(i+1) * time.Second)
	}

	logger.Error("Worker: Max retries exhausted, moving to DLQ", logger.Fields{logger.UserIdKey: event.OwnerID})
	w.moveToDLQ(rawData)
}

func (w *Worker) moveToDLQ(data []byte) {
	if err := w.Queue.PushToDLQ(context.Background(), data); err != nil {
		logger.Error("Worker: Failed to push to DLQ", logger.Fields{"error": err.Error()})
	}
}

// LogSender stands in for the push gateway; it only records the delivery.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, event events.Notification) error {
	logger.Info("Notification", logger.Fields{
		logger.UserIdKey: event.OwnerID,
		"kind":           event.Kind,
		"payload":        event.Payload,
	})
	return nil
}
