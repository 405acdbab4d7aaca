package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appalloc "github.com/stockalloc/engine/internal/application/allocation"
)

func TestInMemorySnapshotCache(t *testing.T) {
	ctx := context.Background()

	snapshot := []appalloc.StockResponse{
		{Location: "sakar", Total: 100, Allocated: 40, Available: 60},
		{Location: "bhiwandi", Total: 50, Allocated: 0, Available: 50},
	}

	t.Run("miss on empty cache", func(t *testing.T) {
		c := NewInMemorySnapshotCache(time.Minute)
		_, ok := c.GetStocks(ctx, uuid.New())
		assert.False(t, ok)
	})

	t.Run("set then get returns snapshot", func(t *testing.T) {
		c := NewInMemorySnapshotCache(time.Minute)
		itemID := uuid.New()

		c.SetStocks(ctx, itemID, snapshot)

		got, ok := c.GetStocks(ctx, itemID)
		require.True(t, ok)
		assert.Equal(t, snapshot, got)
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		c := NewInMemorySnapshotCache(time.Minute)
		itemID := uuid.New()
		c.SetStocks(ctx, itemID, snapshot)

		got, ok := c.GetStocks(ctx, itemID)
		require.True(t, ok)
		got[0].Total = 999

		again, ok := c.GetStocks(ctx, itemID)
		require.True(t, ok)
		assert.Equal(t, int64(100), again[0].Total)
	})

	t.Run("invalidate drops entry", func(t *testing.T) {
		c := NewInMemorySnapshotCache(time.Minute)
		itemID := uuid.New()
		c.SetStocks(ctx, itemID, snapshot)

		c.Invalidate(ctx, itemID)

		_, ok := c.GetStocks(ctx, itemID)
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		c := NewInMemorySnapshotCache(time.Millisecond)
		itemID := uuid.New()
		c.SetStocks(ctx, itemID, snapshot)

		time.Sleep(5 * time.Millisecond)

		_, ok := c.GetStocks(ctx, itemID)
		assert.False(t, ok)
	})

	t.Run("invalidate on unknown item is a no-op", func(t *testing.T) {
		c := NewInMemorySnapshotCache(time.Minute)
		c.Invalidate(ctx, uuid.New())
	})
}
