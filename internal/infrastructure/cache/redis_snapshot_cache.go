package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appalloc "github.com/stockalloc/engine/internal/application/allocation"
)

// RedisSnapshotCache implements the stock snapshot cache on Redis.
// Suitable for distributed deployments where multiple instances need
// to share cached snapshots.
type RedisSnapshotCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisSnapshotCache creates a new Redis-backed snapshot cache
func NewRedisSnapshotCache(cfg RedisConfig, ttl time.Duration) (*RedisSnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisSnapshotCacheWithClient(client, "stock:snapshot:", ttl), nil
}

// NewRedisSnapshotCacheWithClient creates a cache with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisSnapshotCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisSnapshotCache {
	if keyPrefix == "" {
		keyPrefix = "stock:snapshot:"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisSnapshotCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisSnapshotCache) key(itemID uuid.UUID) string {
	return c.keyPrefix + itemID.String()
}

// GetStocks returns the cached snapshot for an item, or ok=false.
// Redis errors are treated as cache misses.
func (c *RedisSnapshotCache) GetStocks(ctx context.Context, itemID uuid.UUID) ([]appalloc.StockResponse, bool) {
	payload, err := c.client.Get(ctx, c.key(itemID)).Bytes()
	if err != nil {
		return nil, false
	}

	var stocks []appalloc.StockResponse
	if err := json.Unmarshal(payload, &stocks); err != nil {
		// Corrupt entry, drop it
		c.client.Del(ctx, c.key(itemID))
		return nil, false
	}
	return stocks, true
}

// SetStocks stores the snapshot for an item with the configured TTL.
// Failures are silent: a cold cache only costs a database read.
func (c *RedisSnapshotCache) SetStocks(ctx context.Context, itemID uuid.UUID, stocks []appalloc.StockResponse) {
	payload, err := json.Marshal(stocks)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(itemID), payload, c.ttl)
}

// Invalidate drops the item's snapshot
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, itemID uuid.UUID) {
	c.client.Del(ctx, c.key(itemID))
}

// Close closes the Redis client
func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}

var _ appalloc.SnapshotCache = (*RedisSnapshotCache)(nil)
