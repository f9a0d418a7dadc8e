// Package notifier turns order status transitions into outbound customer
// messages via the external messaging relay. Dispatch is best-effort by
// decision: a relay failure is logged and counted, never surfaced to the
// staff actor and never rolled back into the order store.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"orderdesk/internal/apperr"
	"orderdesk/internal/models"
	"orderdesk/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChannelStore looks up a tenant's messaging channel identity.
type ChannelStore interface {
	GetTenantChannel(ctx context.Context, restaurantID uuid.UUID) (*models.TenantChannel, error)
}

// Deduper claims a notification slot at most once per (order, status).
type Deduper interface {
	MarkNotified(ctx context.Context, orderID uuid.UUID, status string, ttl time.Duration) (bool, error)
}

// RelayPayload is the single HTTP call made per dispatched notification.
type RelayPayload struct {
	ChannelID      string    `json:"channel_id"`
	Phone          string    `json:"phone"`
	Message        string    `json:"message"`
	OrderID        uuid.UUID `json:"order_id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	OldStatus      string    `json:"old_status"`
	NewStatus      string    `json:"new_status"`
	IdempotencyKey string    `json:"idempotency_key"`
}

// Dispatcher sends one customer message per status transition into a
// customer-facing state.
type Dispatcher struct {
	channels ChannelStore
	dedup    Deduper
	client   *http.Client
	relayURL string
	dedupTTL time.Duration
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher against the given relay endpoint.
func NewDispatcher(channels ChannelStore, dedup Deduper, client *http.Client, relayURL string, dedupTTL time.Duration) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Dispatcher{
		channels: channels,
		dedup:    dedup,
		client:   client,
		relayURL: relayURL,
		dedupTTL: dedupTTL,
		logger:   util.NamedLogger("notifier"),
	}
}

// HandleOrderChanged processes one change event. Only update events whose
// status actually changed are eligible; everything that stops a dispatch
// short of a relay error is a logged skip, not a failure. The returned error
// is reserved for infrastructure faults worth redelivering the event for.
func (d *Dispatcher) HandleOrderChanged(ctx context.Context, evt *models.OrderChangedEvent) error {
	if !evt.StatusChanged() {
		return nil
	}

	order := &evt.Order

	message, ok := MessageFor(order)
	if !ok {
		// Transition into a non-customer-facing status: explicit no-op.
		return nil
	}

	if order.CustomerPhone == "" {
		util.NotificationsSkippedTotal.WithLabelValues("missing_phone").Inc()
		d.logger.Warn("Notification skipped: order has no phone",
			zap.String("order_id", order.ID.String()))
		return nil
	}

	channel, err := d.channels.GetTenantChannel(ctx, order.RestaurantID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			util.NotificationsSkippedTotal.WithLabelValues("no_channel").Inc()
			d.logger.Info("Notification skipped: no channel provisioned",
				zap.String("restaurant_id", order.RestaurantID.String()))
			return nil
		}
		return fmt.Errorf("failed to load tenant channel: %w", err)
	}
	if !channel.Connected() {
		util.NotificationsSkippedTotal.WithLabelValues("disconnected").Inc()
		d.logger.Info("Notification skipped: channel disconnected",
			zap.String("restaurant_id", order.RestaurantID.String()))
		return nil
	}

	if d.dedup != nil {
		fresh, err := d.dedup.MarkNotified(ctx, order.ID, order.Status, d.dedupTTL)
		if err != nil {
			// Dedup store down: keep sending, at-least-once beats silence.
			d.logger.Warn("Notification dedup check failed", zap.Error(err))
		} else if !fresh {
			util.NotificationsSkippedTotal.WithLabelValues("duplicate").Inc()
			return nil
		}
	}

	payload := RelayPayload{
		ChannelID:      channel.ChannelID,
		Phone:          order.CustomerPhone,
		Message:        message,
		OrderID:        order.ID,
		TenantID:       order.RestaurantID,
		OldStatus:      *evt.PreviousStatus,
		NewStatus:      order.Status,
		IdempotencyKey: fmt.Sprintf("%s:%s", order.ID, order.Status),
	}

	d.send(ctx, channel, payload)
	return nil
}

// send performs the relay call. Failures are terminal here: logged, counted,
// never retried.
func (d *Dispatcher) send(ctx context.Context, channel *models.TenantChannel, payload RelayPayload) {
	start := time.Now()
	defer func() {
		util.NotificationLatency.Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("Failed to marshal relay payload", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.relayURL, bytes.NewReader(body))
	if err != nil {
		d.logger.Error("Failed to build relay request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+channel.ChannelToken)

	resp, err := d.client.Do(req)
	if err != nil {
		util.NotificationsFailedTotal.Inc()
		d.logger.Error("Notification delivery failed",
			zap.String("order_id", payload.OrderID.String()),
			zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		util.NotificationsFailedTotal.Inc()
		d.logger.Error("Relay rejected notification",
			zap.String("order_id", payload.OrderID.String()),
			zap.Int("status_code", resp.StatusCode))
		return
	}

	util.NotificationsSentTotal.Inc()
	d.logger.Info("Notification delivered",
		zap.String("order_id", payload.OrderID.String()),
		zap.String("new_status", payload.NewStatus))
}
