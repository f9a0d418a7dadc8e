package feed

import (
	"context"
	"testing"
	"time"

	"orderdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventFor(tenant uuid.UUID, orderID uuid.UUID, status string) models.OrderChangedEvent {
	return models.OrderChangedEvent{
		Kind:  models.ChangeKindUpdate,
		Order: models.Order{ID: orderID, RestaurantID: tenant, Status: status},
	}
}

func TestHubDeliversToSubscriber(t *testing.T) {
	hub := NewHub()
	tenant := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := hub.Subscribe(ctx, tenant)
	hub.Publish(eventFor(tenant, uuid.New(), models.OrderStatusPreparing))

	select {
	case evt := <-events:
		assert.Equal(t, models.OrderStatusPreparing, evt.Order.Status)
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestHubTenantIsolation(t *testing.T) {
	hub := NewHub()
	tenantA := uuid.New()
	tenantB := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventsB := hub.Subscribe(ctx, tenantB)
	hub.Publish(eventFor(tenantA, uuid.New(), models.OrderStatusPreparing))

	select {
	case evt := <-eventsB:
		t.Fatalf("tenant B received tenant A's event: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubFanOut(t *testing.T) {
	hub := NewHub()
	tenant := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := hub.Subscribe(ctx, tenant)
	second := hub.Subscribe(ctx, tenant)
	require.Equal(t, 2, hub.SubscriberCount(tenant))

	hub.Publish(eventFor(tenant, uuid.New(), models.OrderStatusCancelled))

	for _, events := range []<-chan models.OrderChangedEvent{first, second} {
		select {
		case evt := <-events:
			assert.Equal(t, models.OrderStatusCancelled, evt.Order.Status)
		case <-time.After(time.Second):
			t.Fatal("subscriber missed the event")
		}
	}
}

func TestHubPerOrderOrdering(t *testing.T) {
	hub := NewHub()
	tenant := uuid.New()
	orderID := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := hub.Subscribe(ctx, tenant)

	hub.Publish(eventFor(tenant, orderID, models.OrderStatusPreparing))
	hub.Publish(eventFor(tenant, orderID, models.OrderStatusCompleted))

	assert.Equal(t, models.OrderStatusPreparing, (<-events).Order.Status)
	assert.Equal(t, models.OrderStatusCompleted, (<-events).Order.Status)
}

func TestHubUnsubscribeOnContextCancel(t *testing.T) {
	hub := NewHub()
	tenant := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	events := hub.Subscribe(ctx, tenant)
	require.Equal(t, 1, hub.SubscriberCount(tenant))

	cancel()

	// The removal goroutine closes the channel once it observes the cancel.
	select {
	case _, open := <-events:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("channel was not closed after cancel")
	}
	assert.Equal(t, 0, hub.SubscriberCount(tenant))
}

func TestHubSlowSubscriberDropsNotBlocks(t *testing.T) {
	hub := NewHub()
	tenant := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub.Subscribe(ctx, tenant)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish(eventFor(tenant, uuid.New(), models.OrderStatusPending))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

// Publishing must never hit a channel that a concurrent unsubscribe is
// closing; a staff transition racing a dashboard disconnect would otherwise
// panic the request goroutine. Run with -race.
func TestHubPublishDuringUnsubscribe(t *testing.T) {
	hub := NewHub()
	tenant := uuid.New()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			hub.Publish(eventFor(tenant, uuid.New(), models.OrderStatusPreparing))
		}
	}()

	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		events := hub.Subscribe(ctx, tenant)
		cancel()
		for range events {
			// Drain until the unsubscribe goroutine closes the channel.
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publisher did not finish")
	}
	require.Equal(t, 0, hub.SubscriberCount(tenant))
}
