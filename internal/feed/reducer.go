package feed

import (
	"sync"

	"orderdesk/internal/models"

	"github.com/google/uuid"
)

// Reducer is the session-side order state, keyed by order id. A dashboard
// session feeds it both the result of its own transition requests and the
// change feed; the two race, so Apply is idempotent on (order id, status) and
// the second arrival of the same transition is a no-op. The reducer drives
// the session's PendingCounter from its own last-known statuses, which keeps
// the counter from double-applying a delta.
type Reducer struct {
	mu       sync.Mutex
	statuses map[uuid.UUID]string
	counter  *PendingCounter
}

// NewReducer creates a reducer wired to the session's counter.
func NewReducer(counter *PendingCounter) *Reducer {
	return &Reducer{
		statuses: make(map[uuid.UUID]string),
		counter:  counter,
	}
}

// Apply records an order's new status and reports whether it changed
// anything. Duplicate deliveries of the same (order id, status) return false
// and leave the counter alone.
func (r *Reducer) Apply(orderID uuid.UUID, newStatus string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apply(orderID, newStatus)
}

// ApplyEvent folds a feed event into the reducer. An update for an order the
// session has never seen is the normal case after seeding the counter from a
// full count: the order was already pending before the session connected. The
// event's previous status fills that gap, so the leave-pending decrement is
// not lost.
func (r *Reducer) ApplyEvent(evt models.OrderChangedEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, known := r.statuses[evt.Order.ID]; !known && evt.PreviousStatus != nil {
		r.statuses[evt.Order.ID] = *evt.PreviousStatus
	}
	return r.apply(evt.Order.ID, evt.Order.Status)
}

// apply assumes r.mu is held.
func (r *Reducer) apply(orderID uuid.UUID, newStatus string) bool {
	prev, known := r.statuses[orderID]
	if known && prev == newStatus {
		return false
	}
	r.statuses[orderID] = newStatus

	wasPending := known && prev == models.OrderStatusPending
	isPending := newStatus == models.OrderStatusPending

	if r.counter != nil {
		switch {
		case !wasPending && isPending:
			r.counter.add(1)
		case wasPending && !isPending:
			r.counter.add(-1)
		}
	}
	return true
}

// Status returns the last known status for an order, if any.
func (r *Reducer) Status(orderID uuid.UUID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.statuses[orderID]
	return s, ok
}
