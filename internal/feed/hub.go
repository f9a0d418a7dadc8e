// Package feed is the realtime change feed: a tenant-scoped pub/sub hub that
// pushes order inserts and status updates to every subscribed dashboard
// session, plus the derived pending-counter and reducer helpers those
// sessions use to consume it.
package feed

import (
	"context"
	"sync"

	"orderdesk/internal/models"

	"github.com/google/uuid"
)

const subscriberBuffer = 16

// Hub fans order change events out to subscribers of the owning tenant.
// There is no replay: a subscriber that joins after a transition will not see
// it and must fetch current state on connect. Per-order ordering is preserved
// because each subscriber has a FIFO channel and events for one order are
// published from the request goroutine that applied the transition.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]chan models.OrderChangedEvent
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[uuid.UUID][]chan models.OrderChangedEvent),
	}
}

// Subscribe registers a new subscriber for the tenant's events. The
// subscription is removed and the channel closed when ctx is cancelled.
func (h *Hub) Subscribe(ctx context.Context, restaurantID uuid.UUID) <-chan models.OrderChangedEvent {
	ch := make(chan models.OrderChangedEvent, subscriberBuffer)

	h.mu.Lock()
	h.clients[restaurantID] = append(h.clients[restaurantID], ch)
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(restaurantID, ch)
	}()

	return ch
}

// Publish delivers the event to every subscriber of the event's tenant. A
// subscriber whose buffer is full misses the event; that gap mirrors a
// disconnect and clients recover by re-counting on resync.
//
// The sends stay under the read lock: remove closes channels under the write
// lock, so a subscriber can never be closed mid-send. The sends are
// non-blocking, so the lock is held only for as long as the buffer copies take.
func (h *Hub) Publish(evt models.OrderChangedEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients[evt.Order.RestaurantID] {
		select {
		case ch <- evt:
		default:
		}
	}
}

// SubscriberCount returns the number of live subscriptions for a tenant.
func (h *Hub) SubscriberCount(restaurantID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[restaurantID])
}

func (h *Hub) remove(restaurantID uuid.UUID, ch chan models.OrderChangedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.clients[restaurantID]
	for i, c := range subs {
		if c == ch {
			h.clients[restaurantID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(h.clients[restaurantID]) == 0 {
		delete(h.clients, restaurantID)
	}
}
