package models

import "time"

// Event types
const (
	EventTypeOrderInserted = "ORDER_INSERTED"
	EventTypeOrderUpdated  = "ORDER_UPDATED"
)

// Feed event kinds, mirrored on the SSE wire.
const (
	ChangeKindInsert = "insert"
	ChangeKindUpdate = "update"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderChangedEvent is emitted exactly once per order insert or status
// transition. For updates PreviousStatus carries the pre-transition status so
// listeners can tell what changed; it is nil for inserts.
type OrderChangedEvent struct {
	BaseEvent
	Kind           string  `json:"event"`
	Order          Order   `json:"order"`
	PreviousStatus *string `json:"previous_status,omitempty"`
}

// StatusChanged reports whether the event is an update that moved the order
// to a different status.
func (e *OrderChangedEvent) StatusChanged() bool {
	return e.Kind == ChangeKindUpdate &&
		e.PreviousStatus != nil &&
		*e.PreviousStatus != e.Order.Status
}
