package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"orderdesk/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func notifyKey(orderID uuid.UUID, status string) string {
	return fmt.Sprintf("notify:%s:%s", orderID, status)
}

// MarkNotified claims the (order, status) notification slot. It returns true
// exactly once per slot within the TTL, so a redelivered change event does
// not produce a second customer message.
func (c *Client) MarkNotified(ctx context.Context, orderID uuid.UUID, status string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, notifyKey(orderID, status), "1", ttl).Result()
}

// ClearNotified drops the dedup slot, used by tests and manual resends.
func (c *Client) ClearNotified(ctx context.Context, orderID uuid.UUID, status string) error {
	return c.rdb.Del(ctx, notifyKey(orderID, status)).Err()
}

func countsKey(restaurantID uuid.UUID) string {
	return fmt.Sprintf("counts:%s", restaurantID)
}

// CacheStatusCounts stores a tenant's status counts for badge reads.
func (c *Client) CacheStatusCounts(ctx context.Context, restaurantID uuid.UUID, counts *models.StatusCounts, ttl time.Duration) error {
	data, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, countsKey(restaurantID), data, ttl).Err()
}

// GetStatusCounts reads the cached counts. A cache miss returns (nil, nil).
func (c *Client) GetStatusCounts(ctx context.Context, restaurantID uuid.UUID) (*models.StatusCounts, error) {
	data, err := c.rdb.Get(ctx, countsKey(restaurantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var counts models.StatusCounts
	if err := json.Unmarshal(data, &counts); err != nil {
		return nil, err
	}
	return &counts, nil
}

// InvalidateStatusCounts drops the cached counts after a write.
func (c *Client) InvalidateStatusCounts(ctx context.Context, restaurantID uuid.UUID) error {
	return c.rdb.Del(ctx, countsKey(restaurantID)).Err()
}
