package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"orderdesk/internal/apperr"
	"orderdesk/internal/models"

	"github.com/google/uuid"
)

// TransitionPatch carries the field group written by one status transition.
// Only the group matching the transition is populated; nil fields are left
// untouched on the row.
type TransitionPatch struct {
	NewStatus string

	AcceptedAt *time.Time
	AcceptedBy *uuid.UUID

	CompletedAt *time.Time
	CompletedBy *uuid.UUID

	CancelledAt        *time.Time
	CancelledBy        *uuid.UUID
	CancellationReason *string
}

// CreateOrder inserts an order and its line items in one transaction.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (
			id, restaurant_id, status, customer_name, customer_phone,
			delivery_type, address, notes, total_amount
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		order.ID, order.RestaurantID, order.Status, order.CustomerName,
		order.CustomerPhone, order.DeliveryType, order.Address, order.Notes,
		order.TotalAmount,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, product_name, variation, extras, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.QueryRowxContext(ctx, itemQuery,
			items[i].OrderID, items[i].ProductID, items[i].ProductName,
			items[i].Variation, items[i].Extras, items[i].Quantity,
			items[i].UnitPrice, items[i].Subtotal,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrder retrieves an order with its items. A foreign-tenant id yields the
// same apperr.ErrNotFound as an unknown one.
func (s *Store) GetOrder(ctx context.Context, restaurantID, orderID uuid.UUID) (*models.Order, []models.OrderItem, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE id = $1 AND restaurant_id = $2", orderID, restaurantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("order %s: %w", orderID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	var items []models.OrderItem
	err = s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	if err != nil {
		return nil, nil, err
	}

	return &order, items, nil
}

// GetOrderStatus reads just the current status, used to pick the expected
// status for the conditional update. The update itself re-checks it.
func (s *Store) GetOrderStatus(ctx context.Context, restaurantID, orderID uuid.UUID) (string, error) {
	var status string
	err := s.db.GetContext(ctx, &status,
		"SELECT status FROM orders WHERE id = $1 AND restaurant_id = $2", orderID, restaurantID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("order %s: %w", orderID, apperr.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// buildListFilter renders the WHERE conditions for ListOrders. Split out so
// the SQL shape is testable without a database.
func buildListFilter(restaurantID uuid.UUID, f models.OrderFilter) (string, []interface{}) {
	conds := []string{"restaurant_id = $1"}
	args := []interface{}{restaurantID}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	if f.MinAmount != nil {
		add("total_amount >= $%d", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		add("total_amount <= $%d", *f.MaxAmount)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(customer_name ILIKE $%d OR customer_phone ILIKE $%d)", n, n))
	}

	return strings.Join(conds, " AND "), args
}

// ListOrders returns one page of a tenant's orders, newest first.
func (s *Store) ListOrders(ctx context.Context, restaurantID uuid.UUID, f models.OrderFilter) (*models.OrderPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}

	where, args := buildListFilter(restaurantID, f)

	var total int
	countQuery := "SELECT COUNT(*) FROM orders WHERE " + where
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT * FROM orders WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	orders := []models.Order{}
	if err := s.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &models.OrderPage{
		Orders:   orders,
		Total:    total,
		Page:     f.Page,
		PageSize: f.PageSize,
	}, nil
}

// CountByStatus returns the tenant's order count per status, zero-filled.
func (s *Store) CountByStatus(ctx context.Context, restaurantID uuid.UUID) (*models.StatusCounts, error) {
	var counts models.StatusCounts
	err := s.db.GetContext(ctx, &counts, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending')   AS pending,
			COUNT(*) FILTER (WHERE status = 'preparing') AS preparing,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed,
			COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled
		FROM orders WHERE restaurant_id = $1`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	return &counts, nil
}

// ApplyTransition performs the conditional status update. The expected-status
// predicate lives in the UPDATE itself, so two racing actors can never both
// succeed: the loser's statement matches zero rows and is reported as a
// conflict (or not-found if the order does not belong to the tenant).
func (s *Store) ApplyTransition(ctx context.Context, restaurantID, orderID uuid.UUID, expectedStatus string, patch TransitionPatch) (*models.Order, error) {
	query := `
		UPDATE orders SET
			status              = $1,
			accepted_at         = COALESCE($2, accepted_at),
			accepted_by         = COALESCE($3, accepted_by),
			completed_at        = COALESCE($4, completed_at),
			completed_by        = COALESCE($5, completed_by),
			cancelled_at        = COALESCE($6, cancelled_at),
			cancelled_by        = COALESCE($7, cancelled_by),
			cancellation_reason = COALESCE($8, cancellation_reason),
			updated_at          = NOW()
		WHERE id = $9 AND restaurant_id = $10 AND status = $11
		RETURNING *`

	var order models.Order
	err := s.db.GetContext(ctx, &order, query,
		patch.NewStatus,
		patch.AcceptedAt, patch.AcceptedBy,
		patch.CompletedAt, patch.CompletedBy,
		patch.CancelledAt, patch.CancelledBy, patch.CancellationReason,
		orderID, restaurantID, expectedStatus)
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to apply transition: %w", err)
	}

	// Zero rows: distinguish a lost race from a foreign or unknown id.
	var current string
	err = s.db.GetContext(ctx, &current,
		"SELECT status FROM orders WHERE id = $1 AND restaurant_id = $2", orderID, restaurantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", orderID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("order %s is %s, expected %s: %w",
		orderID, current, expectedStatus, apperr.ErrConflict)
}
