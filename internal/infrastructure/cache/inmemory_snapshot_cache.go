package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	appalloc "github.com/stockalloc/engine/internal/application/allocation"
)

// InMemorySnapshotCache implements the stock snapshot cache with a
// process-local map. Suitable for single-instance deployments and testing.
// Entries expire lazily on read.
type InMemorySnapshotCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]snapshotEntry
	ttl     time.Duration
}

type snapshotEntry struct {
	stocks    []appalloc.StockResponse
	expiresAt time.Time
}

// NewInMemorySnapshotCache creates a new in-memory snapshot cache
func NewInMemorySnapshotCache(ttl time.Duration) *InMemorySnapshotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &InMemorySnapshotCache{
		entries: make(map[uuid.UUID]snapshotEntry),
		ttl:     ttl,
	}
}

// GetStocks returns the cached snapshot for an item, or ok=false
func (c *InMemorySnapshotCache) GetStocks(_ context.Context, itemID uuid.UUID) ([]appalloc.StockResponse, bool) {
	c.mu.RLock()
	entry, ok := c.entries[itemID]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, itemID)
		c.mu.Unlock()
		return nil, false
	}

	// Copy to keep callers from mutating the cached slice
	stocks := make([]appalloc.StockResponse, len(entry.stocks))
	copy(stocks, entry.stocks)
	return stocks, true
}

// SetStocks stores the snapshot for an item
func (c *InMemorySnapshotCache) SetStocks(_ context.Context, itemID uuid.UUID, stocks []appalloc.StockResponse) {
	copied := make([]appalloc.StockResponse, len(stocks))
	copy(copied, stocks)

	c.mu.Lock()
	c.entries[itemID] = snapshotEntry{
		stocks:    copied,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Invalidate drops the item's snapshot
func (c *InMemorySnapshotCache) Invalidate(_ context.Context, itemID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, itemID)
	c.mu.Unlock()
}

// Len returns the number of cached entries (for testing/monitoring)
func (c *InMemorySnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ appalloc.SnapshotCache = (*InMemorySnapshotCache)(nil)
