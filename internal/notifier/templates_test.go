package notifier

import (
	"testing"

	"orderdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageForPreparingDelivery(t *testing.T) {
	order := &models.Order{
		Status:       models.OrderStatusPreparing,
		DeliveryType: models.DeliveryTypeDelivery,
		Address:      "Rua Augusta 123",
		TotalAmount:  4550,
	}

	msg, ok := MessageFor(order)
	require.True(t, ok)
	assert.Contains(t, msg, "accepted")
	assert.Contains(t, msg, "45.50")
	assert.Contains(t, msg, "Rua Augusta 123")
}

func TestMessageForPreparingPickup(t *testing.T) {
	order := &models.Order{
		Status:       models.OrderStatusPreparing,
		DeliveryType: models.DeliveryTypePickup,
		TotalAmount:  1000,
	}

	msg, ok := MessageFor(order)
	require.True(t, ok)
	assert.Contains(t, msg, "pickup")
	assert.NotContains(t, msg, "delivered")
}

func TestMessageForCompleted(t *testing.T) {
	delivery := &models.Order{Status: models.OrderStatusCompleted, DeliveryType: models.DeliveryTypeDelivery}
	msg, ok := MessageFor(delivery)
	require.True(t, ok)
	assert.Contains(t, msg, "on its way")

	pickup := &models.Order{Status: models.OrderStatusCompleted, DeliveryType: models.DeliveryTypePickup}
	msg, ok = MessageFor(pickup)
	require.True(t, ok)
	assert.Contains(t, msg, "ready for pickup")
}

func TestMessageForCancelledWithReason(t *testing.T) {
	reason := "kitchen closed"
	order := &models.Order{
		Status:             models.OrderStatusCancelled,
		CancellationReason: &reason,
	}

	msg, ok := MessageFor(order)
	require.True(t, ok)
	assert.Contains(t, msg, "cancelled")
	assert.Contains(t, msg, "kitchen closed")
}

func TestMessageForCancelledWithoutReason(t *testing.T) {
	order := &models.Order{Status: models.OrderStatusCancelled}

	msg, ok := MessageFor(order)
	require.True(t, ok)
	assert.Contains(t, msg, "cancelled")
	assert.NotContains(t, msg, "Reason:")
}

func TestMessageForPendingIsNoop(t *testing.T) {
	order := &models.Order{Status: models.OrderStatusPending}

	msg, ok := MessageFor(order)
	assert.False(t, ok)
	assert.Empty(t, msg)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", formatAmount(0))
	assert.Equal(t, "0.05", formatAmount(5))
	assert.Equal(t, "12.34", formatAmount(1234))
	assert.Equal(t, "100.00", formatAmount(10000))
}
