package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"orderdesk/internal/apperr"
	"orderdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetTenantChannel retrieves a restaurant's messaging channel identity. A
// missing row maps to apperr.ErrNotFound; callers treat that as "no channel
// provisioned" and skip dispatch.
func (s *Store) GetTenantChannel(ctx context.Context, restaurantID uuid.UUID) (*models.TenantChannel, error) {
	var ch models.TenantChannel
	err := s.db.GetContext(ctx, &ch,
		"SELECT * FROM tenant_channels WHERE restaurant_id = $1", restaurantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("channel for restaurant %s: %w", restaurantID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// UpsertTenantChannel writes a restaurant's channel identity. Owned by the
// provisioning collaborator; kept here so tests and tooling can seed state.
func (s *Store) UpsertTenantChannel(ctx context.Context, ch *models.TenantChannel) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenant_channels (restaurant_id, channel_id, channel_token, status, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (restaurant_id)
		DO UPDATE SET channel_id = $2, channel_token = $3, status = $4, updated_at = NOW()`,
		ch.RestaurantID, ch.ChannelID, ch.ChannelToken, ch.Status)
	return err
}

// IsEventProcessed checks if a change event has already been consumed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks a change event as consumed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
