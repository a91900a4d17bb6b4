package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memItem struct {
	value    interface{}
	expireAt time.Time
}

func (it *memItem) expired() bool {
	return time.Now().After(it.expireAt)
}

// MemoryCache is the in-process Service used when redis is disabled and as
// the L1 layer of LayeredCache. Least-recently-read entries are evicted
// once maxSize is reached; a background ticker sweeps expired keys.
type MemoryCache struct {
	mu      sync.Mutex
	data    map[string]*memItem
	access  map[string]time.Time
	maxSize int
	sweeper *time.Ticker
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		data:    make(map[string]*memItem),
		access:  make(map[string]time.Time),
		maxSize: cfg.MaxSize,
		sweeper: time.NewTicker(cfg.CleanupInterval),
	}
	go mc.sweep()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if len(mc.data) >= mc.maxSize {
		mc.evictOldest()
	}

	expireAt := time.Now().Add(expiration)
	if expiration <= 0 {
		expireAt = time.Now().Add(7 * 24 * time.Hour)
	}
	mc.data[key] = &memItem{value: value, expireAt: expireAt}
	mc.access[key] = time.Now()
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, ok := mc.data[key]
	if !ok || item.expired() {
		if ok {
			delete(mc.data, key)
			delete(mc.access, key)
		}
		return ErrCacheMiss
	}
	mc.access[key] = time.Now()

	if strPtr, ok := dest.(*string); ok {
		if str, ok := item.value.(string); ok {
			*strPtr = str
			return nil
		}
	}

	// Values are stored as-is; round-trip through JSON to honor the same
	// contract as the redis implementation.
	b, err := json.Marshal(item.value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		delete(mc.data, key)
		delete(mc.access, key)
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		if item, ok := mc.data[key]; ok && !item.expired() {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if item, ok := mc.data[key]; ok && !item.expired() {
		return false, nil
	}
	mc.data[key] = &memItem{value: "locked", expireAt: time.Now().Add(ttl)}
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

func (mc *MemoryCache) evictOldest() {
	var oldestKey string
	oldest := time.Now()
	for key, at := range mc.access {
		if at.Before(oldest) {
			oldest = at
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(mc.data, oldestKey)
		delete(mc.access, oldestKey)
	}
}

func (mc *MemoryCache) sweep() {
	for range mc.sweeper.C {
		mc.mu.Lock()
		now := time.Now()
		for key, item := range mc.data {
			if now.After(item.expireAt) {
				delete(mc.data, key)
				delete(mc.access, key)
			}
		}
		mc.mu.Unlock()
	}
}

// Close stops the background sweeper.
func (mc *MemoryCache) Close() error {
	if mc.sweeper != nil {
		mc.sweeper.Stop()
	}
	return nil
}
