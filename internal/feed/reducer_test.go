package feed

import (
	"testing"

	"orderdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestReducerDoubleApplyIsNoop(t *testing.T) {
	// The HTTP action result and the feed event deliver the same transition;
	// the second arrival must change nothing.
	counter := NewPendingCounter(1)
	r := NewReducer(counter)
	orderID := uuid.New()

	r.Apply(orderID, models.OrderStatusPending)
	assert.Equal(t, 2, counter.Value())

	applied := r.Apply(orderID, models.OrderStatusPreparing)
	assert.True(t, applied)
	assert.Equal(t, 1, counter.Value())

	applied = r.Apply(orderID, models.OrderStatusPreparing)
	assert.False(t, applied)
	assert.Equal(t, 1, counter.Value())
}

func TestReducerTracksStatus(t *testing.T) {
	r := NewReducer(nil)
	orderID := uuid.New()

	_, known := r.Status(orderID)
	assert.False(t, known)

	r.Apply(orderID, models.OrderStatusPending)
	status, known := r.Status(orderID)
	assert.True(t, known)
	assert.Equal(t, models.OrderStatusPending, status)
}

func TestReducerApplyEvent(t *testing.T) {
	counter := NewPendingCounter(0)
	r := NewReducer(counter)

	evt := insertEvent(models.OrderStatusPending)
	assert.True(t, r.ApplyEvent(evt))
	assert.Equal(t, 1, counter.Value())

	// Redelivery of the same row state.
	assert.False(t, r.ApplyEvent(evt))
	assert.Equal(t, 1, counter.Value())
}

func TestReducerUnknownOrderLeavingPending(t *testing.T) {
	// Raw Apply carries no previous status; an order the session never saw
	// as pending must not decrement.
	counter := NewPendingCounter(2)
	r := NewReducer(counter)

	r.Apply(uuid.New(), models.OrderStatusCompleted)
	assert.Equal(t, 2, counter.Value())
}

func TestReducerSeededCounterDecrementsForUnseenOrder(t *testing.T) {
	// A session seeds its counter from a full count, then receives the
	// transition of an order that was already pending before it connected.
	// The counter must drop to match a fresh count.
	counter := NewPendingCounter(1)
	r := NewReducer(counter)

	evt := updateEvent(models.OrderStatusPending, models.OrderStatusPreparing)
	assert.True(t, r.ApplyEvent(evt))
	assert.Equal(t, 0, counter.Value())

	// Redelivery stays a no-op.
	assert.False(t, r.ApplyEvent(evt))
	assert.Equal(t, 0, counter.Value())
}

func TestReducerSeededOrderNonPendingPrevious(t *testing.T) {
	// Previous status from the event only matters when it was pending.
	counter := NewPendingCounter(1)
	r := NewReducer(counter)

	evt := updateEvent(models.OrderStatusPreparing, models.OrderStatusCompleted)
	assert.True(t, r.ApplyEvent(evt))
	assert.Equal(t, 1, counter.Value())
}
