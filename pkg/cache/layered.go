package cache

import (
	"context"
	"time"
)

// LayeredCache puts an in-process layer in front of redis. Backtest run
// status is polled repeatedly while a run executes, so most reads never
// leave the process. Writes go through to redis first; locks are always
// redis-only so they hold across instances.
type LayeredCache struct {
	mem *MemoryCache
	rds *RedisCache
}

func NewLayeredCache(rds *RedisCache, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{MemoryMaxSize: 1000}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredCache{
		mem: NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		rds: rds,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.rds.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, value, expiration)
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.mem.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := lc.rds.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, dest, 0)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.rds.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	return lc.rds.Exists(ctx, keys...)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.rds.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.rds.Unlock(ctx, key)
}

func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.rds.Close()
}
