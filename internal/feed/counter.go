package feed

import (
	"sync"

	"orderdesk/internal/models"
)

// PendingCounter tracks one tenant's number of pending orders for a single
// session. It is a cache over countByStatus: seeded with a full count, then
// adjusted per feed event, and re-derivable at any time via Resync.
type PendingCounter struct {
	mu sync.Mutex
	n  int
}

// NewPendingCounter seeds the counter with a full count result.
func NewPendingCounter(initial int) *PendingCounter {
	if initial < 0 {
		initial = 0
	}
	return &PendingCounter{n: initial}
}

// Apply adjusts the counter for one feed event: +1 when an order enters
// pending (inserts included), -1 when it leaves, floored at zero. A pending
// to pending update is a no-op. Re-entering pending is unreachable through
// the legal transitions but handled anyway.
func (c *PendingCounter) Apply(evt models.OrderChangedEvent) {
	wasPending := false
	if evt.Kind == models.ChangeKindUpdate && evt.PreviousStatus != nil {
		wasPending = *evt.PreviousStatus == models.OrderStatusPending
	}
	isPending := evt.Order.Status == models.OrderStatusPending

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case !wasPending && isPending:
		c.n++
	case wasPending && !isPending:
		if c.n > 0 {
			c.n--
		}
	}
}

// Value returns the current count.
func (c *PendingCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func (c *PendingCounter) add(delta int) {
	c.mu.Lock()
	c.n += delta
	if c.n < 0 {
		c.n = 0
	}
	c.mu.Unlock()
}

// Resync replaces the counter with a fresh full count, discarding any drift
// accumulated from lost events.
func (c *PendingCounter) Resync(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	c.n = n
	c.mu.Unlock()
}
