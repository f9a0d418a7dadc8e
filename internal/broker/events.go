package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"orderdesk/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes order change events for the server-side
// notification listener. The key is the order id so every update to one
// order stays on one partition, in sequence.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderChanged publishes an order insert or status update.
func (ep *EventPublisher) PublishOrderChanged(ctx context.Context, event *models.OrderChangedEvent) error {
	key := fmt.Sprintf("order-%s", event.Order.ID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes consumed change events to registered callbacks.
type EventHandler struct {
	onOrderChanged func(context.Context, *models.OrderChangedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnOrderChanged registers a handler for order change events.
func (eh *EventHandler) OnOrderChanged(handler func(context.Context, *models.OrderChangedEvent) error) {
	eh.onOrderChanged = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeOrderInserted, models.EventTypeOrderUpdated:
		if eh.onOrderChanged != nil {
			var event models.OrderChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderChanged event: %w", err)
			}
			return eh.onOrderChanged(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
