package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/parking-service/internal/domain"
)

// ErrCacheMiss signals the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

const slotCatalogKey = "parking:slots:catalog"

// SlotCache keeps the slot catalog in Redis so listing endpoints avoid
// hitting Postgres on every request. Invalidated on every administrative
// slot write; bookings never touch it (availability is always computed
// against the store).
type SlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSlotCache builds the cache wrapper.
func NewSlotCache(client *redis.Client, ttl time.Duration) *SlotCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SlotCache{client: client, ttl: ttl}
}

// GetCatalog returns the cached slot list.
func (c *SlotCache) GetCatalog(ctx context.Context) ([]domain.ParkingSlot, error) {
	if c == nil || c.client == nil {
		return nil, ErrCacheMiss
	}
	data, err := c.client.Get(ctx, slotCatalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var slots []domain.ParkingSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("unmarshal slots failed: %w", err)
	}
	return slots, nil
}

// SetCatalog stores the slot list.
func (c *SlotCache) SetCatalog(ctx context.Context, slots []domain.ParkingSlot) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("marshal slots failed: %w", err)
	}
	if err := c.client.Set(ctx, slotCatalogKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate drops the cached catalog.
func (c *SlotCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, slotCatalogKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
