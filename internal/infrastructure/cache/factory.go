package cache

import (
	"fmt"

	"go.uber.org/zap"

	appalloc "github.com/stockalloc/engine/internal/application/allocation"
	"github.com/stockalloc/engine/internal/infrastructure/config"
)

// SnapshotCacheFactory creates snapshot caches based on configuration
type SnapshotCacheFactory struct {
	redisConfig           config.RedisConfig
	cacheConfig           config.CacheConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SnapshotCacheFactoryOption is a functional option for configuring the factory
type SnapshotCacheFactoryOption func(*SnapshotCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SnapshotCacheFactoryOption {
	return func(f *SnapshotCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) SnapshotCacheFactoryOption {
	return func(f *SnapshotCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSnapshotCacheFactory creates a new factory
func NewSnapshotCacheFactory(redisCfg config.RedisConfig, cacheCfg config.CacheConfig, opts ...SnapshotCacheFactoryOption) *SnapshotCacheFactory {
	f := &SnapshotCacheFactory{
		redisConfig:           redisCfg,
		cacheConfig:           cacheCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateCache creates a snapshot cache based on configuration. When caching
// is disabled it returns nil, which callers treat as no caching. It tries
// Redis first and falls back to in-memory when allowed.
func (f *SnapshotCacheFactory) CreateCache() (appalloc.SnapshotCache, error) {
	if !f.cacheConfig.Enabled {
		f.logger.Info("Snapshot cache disabled")
		return nil, nil
	}

	cache, err := NewRedisSnapshotCache(RedisConfig{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.cacheConfig.TTL)
	if err == nil {
		f.logger.Info("Using Redis snapshot cache",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Duration("ttl", f.cacheConfig.TTL))
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("failed to create Redis snapshot cache: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory snapshot cache",
		zap.Error(err))
	return NewInMemorySnapshotCache(f.cacheConfig.TTL), nil
}
