package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds assembled service lists in Redis per tenant, so the booking
// UI does not hit the Square catalog on every page load.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a catalog cache with the given TTL.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func cacheKey(tenantID string) string {
	return "catalog:services:" + tenantID
}

// Get returns the cached service list, or ok=false on a miss. Redis errors
// are reported so callers can decide whether to fall through to Square.
func (c *Cache) Get(ctx context.Context, tenantID string) ([]Service, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	raw, err := c.rdb.Get(ctx, cacheKey(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("catalog: cache read: %w", err)
	}
	var services []Service
	if err := json.Unmarshal(raw, &services); err != nil {
		return nil, false, fmt.Errorf("catalog: cache decode: %w", err)
	}
	return services, true, nil
}

// Set stores the service list under the configured TTL.
func (c *Cache) Set(ctx context.Context, tenantID string, services []Service) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(services)
	if err != nil {
		return fmt.Errorf("catalog: cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey(tenantID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("catalog: cache write: %w", err)
	}
	return nil
}

// Invalidate drops the cached list, e.g. after a manual re-sync.
func (c *Cache) Invalidate(ctx context.Context, tenantID string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, cacheKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("catalog: cache invalidate: %w", err)
	}
	return nil
}
