package worker

import (
	"context"

	"orderdesk/internal/broker"
	"orderdesk/internal/models"
	"orderdesk/internal/notifier"
	"orderdesk/internal/util"

	"go.uber.org/zap"
)

// EventStore records which change events the listener already consumed.
type EventStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// NotificationWorker is the long-lived server-side listener on the order
// change feed. It filters status-change updates and hands them to the
// dispatcher, skipping event ids it has seen before so a redelivery does not
// reach the relay twice.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotificationWorker wires the consumer to the dispatcher.
func NewNotificationWorker(consumer *broker.Consumer, events EventStore, dispatcher *notifier.Dispatcher) *NotificationWorker {
	logger := util.NamedLogger("notification-worker")

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderChanged(func(ctx context.Context, evt *models.OrderChangedEvent) error {
		processed, err := events.IsEventProcessed(ctx, evt.EventID)
		if err != nil {
			return err
		}
		if processed {
			logger.Debug("Skipping already processed event",
				zap.String("event_id", evt.EventID))
			return nil
		}

		if err := dispatcher.HandleOrderChanged(ctx, evt); err != nil {
			return err
		}

		return events.MarkEventProcessed(ctx, evt.EventID, evt.EventType)
	})

	return &NotificationWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       logger,
	}
}

// Start consumes change events until ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop closes the underlying consumer.
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}
