package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"orderdesk/internal/apperr"
	"orderdesk/internal/models"
	"orderdesk/internal/service"
	"orderdesk/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OrderService is the surface the handlers consume.
type OrderService interface {
	CreateOrder(ctx context.Context, restaurantID uuid.UUID, req *service.CreateOrderRequest) (*models.Order, []models.OrderItem, error)
	GetOrder(ctx context.Context, restaurantID, orderID uuid.UUID) (*models.Order, []models.OrderItem, error)
	ListOrders(ctx context.Context, restaurantID uuid.UUID, filter models.OrderFilter) (*models.OrderPage, error)
	CountByStatus(ctx context.Context, restaurantID uuid.UUID) (*models.StatusCounts, error)
	Accept(ctx context.Context, restaurantID, orderID, actor uuid.UUID) (*models.Order, error)
	Reject(ctx context.Context, restaurantID, orderID, actor uuid.UUID, reason string) (*models.Order, error)
	Complete(ctx context.Context, restaurantID, orderID, actor uuid.UUID) (*models.Order, error)
}

// FeedSource is the change feed the stream endpoint subscribes to.
type FeedSource interface {
	Subscribe(ctx context.Context, restaurantID uuid.UUID) <-chan models.OrderChangedEvent
}

// Handler contains HTTP handlers
type Handler struct {
	orders OrderService
	feed   FeedSource
}

// NewHandler creates a new HTTP handler
func NewHandler(orders OrderService, feed FeedSource) *Handler {
	return &Handler{orders: orders, feed: feed}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(tenantMiddleware())
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/counts", h.countByStatus)
		v1.GET("/orders/stream", h.streamOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/accept", h.acceptOrder)
		v1.POST("/orders/:id/reject", h.rejectOrder)
		v1.POST("/orders/:id/complete", h.completeOrder)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// tenantMiddleware resolves the acting tenant. Authentication happens
// upstream; this service only trusts the already-resolved tenant header.
func tenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := uuid.Parse(c.GetHeader("X-Tenant-ID"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Missing or invalid X-Tenant-ID header",
			})
			return
		}
		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

func tenantID(c *gin.Context) uuid.UUID {
	return c.MustGet("tenant_id").(uuid.UUID)
}

// actorID resolves the staff member performing a transition.
func actorID(c *gin.Context) (uuid.UUID, bool) {
	actor, err := uuid.Parse(c.GetHeader("X-Staff-ID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing or invalid X-Staff-ID header",
		})
		return uuid.Nil, false
	}
	return actor, true
}

func orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps the error taxonomy onto HTTP statuses with short
// user-facing messages. Foreign-tenant ids surface as a plain not-found.
func respondError(c *gin.Context, action string, err error) {
	var te *apperr.TransitionError
	switch {
	case errors.As(err, &te):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Cannot " + te.Action + " an order that is " + te.CurrentStatus,
		})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Order not found",
		})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Order was updated by someone else, refresh and try again",
			"retryable": true,
		})
	case errors.Is(err, apperr.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to " + action,
		})
	}
}

// createOrder handles order creation from the capture flow.
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, items, err := h.orders.CreateOrder(c.Request.Context(), tenantID(c), &req)
	if err != nil {
		respondError(c, "create order", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order": order,
		"items": items,
	})
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	order, items, err := h.orders.GetOrder(c.Request.Context(), tenantID(c), id)
	if err != nil {
		respondError(c, "get order", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

// listOrders returns one page of the tenant's orders.
func (h *Handler) listOrders(c *gin.Context) {
	filter := models.OrderFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = &t
		}
	}
	if v := c.Query("min_amount"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MinAmount = &n
		}
	}
	if v := c.Query("max_amount"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MaxAmount = &n
		}
	}

	page, err := h.orders.ListOrders(c.Request.Context(), tenantID(c), filter)
	if err != nil {
		respondError(c, "list orders", err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// countByStatus serves badge and filter-tab counts.
func (h *Handler) countByStatus(c *gin.Context) {
	counts, err := h.orders.CountByStatus(c.Request.Context(), tenantID(c))
	if err != nil {
		respondError(c, "count orders", err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) acceptOrder(c *gin.Context) {
	h.transition(c, service.ActionAccept, func(ctx context.Context, tenant, id, actor uuid.UUID, _ string) (*models.Order, error) {
		return h.orders.Accept(ctx, tenant, id, actor)
	})
}

func (h *Handler) rejectOrder(c *gin.Context) {
	h.transition(c, service.ActionReject, func(ctx context.Context, tenant, id, actor uuid.UUID, reason string) (*models.Order, error) {
		return h.orders.Reject(ctx, tenant, id, actor, reason)
	})
}

func (h *Handler) completeOrder(c *gin.Context) {
	h.transition(c, service.ActionComplete, func(ctx context.Context, tenant, id, actor uuid.UUID, _ string) (*models.Order, error) {
		return h.orders.Complete(ctx, tenant, id, actor)
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) transition(c *gin.Context, action string, apply func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, string) (*models.Order, error)) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var reason string
	if action == service.ActionReject {
		var body rejectRequest
		// Body is optional: an empty reject records the default reason.
		_ = c.ShouldBindJSON(&body)
		reason = body.Reason
	}

	order, err := apply(c.Request.Context(), tenantID(c), id, actor, reason)
	if err != nil {
		respondError(c, action+" order", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": order.ID,
		"status":   order.Status,
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
