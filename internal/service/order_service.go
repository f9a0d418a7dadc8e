package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderdesk/internal/apperr"
	"orderdesk/internal/broker"
	"orderdesk/internal/feed"
	"orderdesk/internal/models"
	"orderdesk/internal/redisclient"
	"orderdesk/internal/store"
	"orderdesk/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const countsCacheTTL = 5 * time.Second

// OrderService owns the order lifecycle: creation, the transition authority,
// and the single change-event emission per write.
type OrderService struct {
	store     *store.Store
	redis     *redisclient.Client
	publisher *broker.EventPublisher
	hub       *feed.Hub
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store *store.Store,
	redis *redisclient.Client,
	publisher *broker.EventPublisher,
	hub *feed.Hub,
) *OrderService {
	return &OrderService{
		store:     store,
		redis:     redis,
		publisher: publisher,
		hub:       hub,
		logger:    util.NamedLogger("orders"),
	}
}

// CreateOrderRequest is an incoming order from the chat capture flow. Item
// prices are snapshots taken by the capture flow against the menu; the core
// never re-derives them.
type CreateOrderRequest struct {
	CustomerName  string             `json:"customer_name"`
	CustomerPhone string             `json:"customer_phone" binding:"required"`
	DeliveryType  string             `json:"delivery_type" binding:"required"`
	Address       string             `json:"address"`
	Notes         string             `json:"notes"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1"`
}

// OrderItemRequest represents an item in an order
type OrderItemRequest struct {
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	ProductName string    `json:"product_name" binding:"required"`
	Variation   string    `json:"variation"`
	Extras      string    `json:"extras"`
	Quantity    int       `json:"quantity" binding:"required,min=1"`
	UnitPrice   int64     `json:"unit_price"`
}

// validateCreateOrder enforces the creation invariants that gin bindings
// cannot express.
func validateCreateOrder(req *CreateOrderRequest) error {
	if req.CustomerPhone == "" {
		return apperr.Invalidf("customer phone is required")
	}
	switch req.DeliveryType {
	case models.DeliveryTypeDelivery:
		if req.Address == "" {
			return apperr.Invalidf("address is required for delivery orders")
		}
	case models.DeliveryTypePickup:
	default:
		return apperr.Invalidf("unknown delivery type %q", req.DeliveryType)
	}
	if len(req.Items) == 0 {
		return apperr.Invalidf("order needs at least one item")
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return apperr.Invalidf("item quantity must be at least 1")
		}
		if item.UnitPrice < 0 {
			return apperr.Invalidf("item unit price cannot be negative")
		}
	}
	return nil
}

// orderTotal sums the line-item snapshots.
func orderTotal(items []OrderItemRequest) int64 {
	var total int64
	for _, item := range items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// CreateOrder validates and persists a new pending order and emits its
// insert event.
func (s *OrderService) CreateOrder(ctx context.Context, restaurantID uuid.UUID, req *CreateOrderRequest) (*models.Order, []models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if err := validateCreateOrder(req); err != nil {
		return nil, nil, err
	}

	order := &models.Order{
		ID:            uuid.New(),
		RestaurantID:  restaurantID,
		Status:        models.OrderStatusPending,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		DeliveryType:  req.DeliveryType,
		Address:       req.Address,
		Notes:         req.Notes,
		TotalAmount:   orderTotal(req.Items),
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, models.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Variation:   it.Variation,
			Extras:      it.Extras,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.UnitPrice * int64(it.Quantity),
		})
	}

	if err := s.store.CreateOrder(ctx, order, items); err != nil {
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("restaurant_id", restaurantID.String()))

	s.publishChange(ctx, models.ChangeKindInsert, *order, nil)
	s.invalidateCounts(ctx, restaurantID)

	return order, items, nil
}

// Accept moves a pending order to preparing.
func (s *OrderService) Accept(ctx context.Context, restaurantID, orderID, actor uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, restaurantID, orderID, actor, ActionAccept, "")
}

// Reject cancels a pending or preparing order. An empty reason records the
// default staff-initiated one.
func (s *OrderService) Reject(ctx context.Context, restaurantID, orderID, actor uuid.UUID, reason string) (*models.Order, error) {
	return s.transition(ctx, restaurantID, orderID, actor, ActionReject, reason)
}

// Complete moves a preparing order to completed.
func (s *OrderService) Complete(ctx context.Context, restaurantID, orderID, actor uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, restaurantID, orderID, actor, ActionComplete, "")
}

func (s *OrderService) transition(ctx context.Context, restaurantID, orderID, actor uuid.UUID, action, reason string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Transition")
	defer span.End()

	start := time.Now()
	defer func() {
		util.TransitionLatency.Observe(time.Since(start).Seconds())
	}()

	current, err := s.store.GetOrderStatus(ctx, restaurantID, orderID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			util.TransitionsFailedTotal.WithLabelValues(action, "not_found").Inc()
		}
		return nil, err
	}

	if !allowedFrom(action, current) {
		util.TransitionsFailedTotal.WithLabelValues(action, "invalid_transition").Inc()
		return nil, &apperr.TransitionError{Action: action, CurrentStatus: current}
	}

	patch := buildPatch(action, actor, reason, time.Now().UTC())

	order, err := s.store.ApplyTransition(ctx, restaurantID, orderID, current, patch)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			util.TransitionsFailedTotal.WithLabelValues(action, "conflict").Inc()
			s.logger.Warn("Transition lost race",
				zap.String("order_id", orderID.String()),
				zap.String("action", action))
		}
		return nil, err
	}

	util.TransitionsTotal.WithLabelValues(action).Inc()
	s.logger.Info("Order transitioned",
		zap.String("order_id", orderID.String()),
		zap.String("action", action),
		zap.String("from", current),
		zap.String("to", order.Status))

	s.publishChange(ctx, models.ChangeKindUpdate, *order, &current)
	s.invalidateCounts(ctx, restaurantID)

	return order, nil
}

// publishChange emits the single change event for a successful write: to the
// in-process hub for dashboard sessions, and to Kafka for the notification
// listener. Notification dispatch itself never happens here.
func (s *OrderService) publishChange(ctx context.Context, kind string, order models.Order, previousStatus *string) {
	eventType := models.EventTypeOrderInserted
	if kind == models.ChangeKindUpdate {
		eventType = models.EventTypeOrderUpdated
	}

	event := models.OrderChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now().UTC(),
		},
		Kind:           kind,
		Order:          order,
		PreviousStatus: previousStatus,
	}

	if s.hub != nil {
		s.hub.Publish(event)
	}
	util.FeedEventsTotal.WithLabelValues(kind).Inc()

	if s.publisher != nil {
		if err := s.publisher.PublishOrderChanged(ctx, &event); err != nil {
			// The staff action already succeeded; a lost broker event only
			// costs the customer notification.
			s.logger.Error("Failed to publish order change event",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
		}
	}
}

func (s *OrderService) invalidateCounts(ctx context.Context, restaurantID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.InvalidateStatusCounts(ctx, restaurantID); err != nil {
		s.logger.Warn("Failed to invalidate cached counts", zap.Error(err))
	}
}

// GetOrder retrieves an order with its items.
func (s *OrderService) GetOrder(ctx context.Context, restaurantID, orderID uuid.UUID) (*models.Order, []models.OrderItem, error) {
	return s.store.GetOrder(ctx, restaurantID, orderID)
}

// ListOrders returns one page of the tenant's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, restaurantID uuid.UUID, filter models.OrderFilter) (*models.OrderPage, error) {
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	return s.store.ListOrders(ctx, restaurantID, filter)
}

// CountByStatus returns the tenant's per-status counts, through a short
// redis cache. Dashboard badges seed their pending counter from this.
func (s *OrderService) CountByStatus(ctx context.Context, restaurantID uuid.UUID) (*models.StatusCounts, error) {
	if s.redis != nil {
		if cached, err := s.redis.GetStatusCounts(ctx, restaurantID); err == nil && cached != nil {
			return cached, nil
		}
	}

	counts, err := s.store.CountByStatus(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.redis.CacheStatusCounts(ctx, restaurantID, counts, countsCacheTTL); err != nil {
			s.logger.Warn("Failed to cache counts", zap.Error(err))
		}
	}
	return counts, nil
}
