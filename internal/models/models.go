package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Delivery types
const (
	DeliveryTypeDelivery = "delivery"
	DeliveryTypePickup   = "pickup"
)

// Tenant channel states
const (
	ChannelStatusConnected    = "connected"
	ChannelStatusDisconnected = "disconnected"
)

// DefaultRejectReason is recorded when staff reject an order without giving one.
const DefaultRejectReason = "rejected by restaurant"

// AllStatuses lists every legal order status.
var AllStatuses = []string{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// IsTerminalStatus reports whether no further transition may leave the status.
func IsTerminalStatus(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}

// Order represents one customer purchase attempt, scoped to a restaurant.
type Order struct {
	ID           uuid.UUID `db:"id" json:"id"`
	RestaurantID uuid.UUID `db:"restaurant_id" json:"restaurant_id"`
	Status       string    `db:"status" json:"status"`

	CustomerName  string `db:"customer_name" json:"customer_name,omitempty"`
	CustomerPhone string `db:"customer_phone" json:"customer_phone"`
	DeliveryType  string `db:"delivery_type" json:"delivery_type"`
	Address       string `db:"address" json:"address,omitempty"`
	Notes         string `db:"notes" json:"notes,omitempty"`

	// TotalAmount is in minor currency units, fixed at creation from the
	// line-item snapshots.
	TotalAmount int64 `db:"total_amount" json:"total_amount"`

	CancellationReason *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	AcceptedAt         *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	AcceptedBy         *uuid.UUID `db:"accepted_by" json:"accepted_by,omitempty"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CompletedBy        *uuid.UUID `db:"completed_by" json:"completed_by,omitempty"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelledBy        *uuid.UUID `db:"cancelled_by" json:"cancelled_by,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem is a line item with prices snapshotted at order time. Unit price
// and subtotal are never re-derived from the current catalog.
type OrderItem struct {
	ID          int64     `db:"id" json:"id"`
	OrderID     uuid.UUID `db:"order_id" json:"order_id"`
	ProductID   uuid.UUID `db:"product_id" json:"product_id"`
	ProductName string    `db:"product_name" json:"product_name"`
	Variation   string    `db:"variation" json:"variation,omitempty"`
	Extras      string    `db:"extras" json:"extras,omitempty"`
	Quantity    int       `db:"quantity" json:"quantity"`
	UnitPrice   int64     `db:"unit_price" json:"unit_price"`
	Subtotal    int64     `db:"subtotal" json:"subtotal"`
}

// TenantChannel is a restaurant's messaging-relay identity, written by the
// provisioning flow. Notifications are only sent while it is connected.
type TenantChannel struct {
	RestaurantID uuid.UUID `db:"restaurant_id" json:"restaurant_id"`
	ChannelID    string    `db:"channel_id" json:"channel_id"`
	ChannelToken string    `db:"channel_token" json:"-"`
	Status       string    `db:"status" json:"status"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Connected reports whether the channel can carry outbound messages.
func (c *TenantChannel) Connected() bool {
	return c != nil && c.Status == ChannelStatusConnected
}

// StatusCounts is the per-tenant order count per status, zero-filled.
type StatusCounts struct {
	Pending   int `db:"pending" json:"pending"`
	Preparing int `db:"preparing" json:"preparing"`
	Completed int `db:"completed" json:"completed"`
	Cancelled int `db:"cancelled" json:"cancelled"`
}

// OrderFilter narrows ListOrders. Zero values mean "no constraint".
type OrderFilter struct {
	Status    string
	From      *time.Time
	To        *time.Time
	MinAmount *int64
	MaxAmount *int64
	// Search matches customer name or phone, case-insensitively.
	Search   string
	Page     int
	PageSize int
}

// OrderPage is one page of a tenant's orders, newest first.
type OrderPage struct {
	Orders   []Order `json:"orders"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// ProcessedEvent records a consumed change event for listener idempotency.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
