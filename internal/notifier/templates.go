package notifier

import (
	"fmt"

	"orderdesk/internal/models"
)

// MessageFor renders the customer-facing message for an order's current
// status. It is a pure function of the row: preparing, completed and
// cancelled each have a template, every other status (pending included)
// produces no message.
func MessageFor(order *models.Order) (string, bool) {
	switch order.Status {
	case models.OrderStatusPreparing:
		detail := "It will be ready for pickup soon."
		if order.DeliveryType == models.DeliveryTypeDelivery {
			detail = fmt.Sprintf("It will be delivered to %s.", order.Address)
		}
		return fmt.Sprintf(
			"Your order has been accepted and is being prepared! Total: %s. %s",
			formatAmount(order.TotalAmount), detail), true

	case models.OrderStatusCompleted:
		if order.DeliveryType == models.DeliveryTypeDelivery {
			return "Your order is on its way!", true
		}
		return "Your order is ready for pickup!", true

	case models.OrderStatusCancelled:
		msg := "Unfortunately your order has been cancelled."
		if order.CancellationReason != nil && *order.CancellationReason != "" {
			msg = fmt.Sprintf("%s Reason: %s", msg, *order.CancellationReason)
		}
		return msg, true
	}

	return "", false
}

// formatAmount renders minor currency units with two decimal places.
func formatAmount(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}
