package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BtcEdge/internal/domain/models"
	"BtcEdge/internal/domain/repository"
	"BtcEdge/pkg/cache"
)

const (
	runKeyPrefix = "backtest:run"
	runTTL       = 24 * time.Hour
)

func runKey(id string) string { return cache.GenerateKey(runKeyPrefix, id) }

func runLockKey(id string) string { return cache.GenerateKey(runKeyPrefix+":lock", id) }

// CacheRunStore keeps backtest run records in a cache (redis in production,
// in-memory in tests). Runs expire after a day.
type CacheRunStore struct {
	cache cache.Service
}

func NewCacheRunStore(c cache.Service) repository.BacktestRunStore {
	return &CacheRunStore{cache: c}
}

func (s *CacheRunStore) SaveRun(ctx context.Context, run *models.BacktestRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run id required")
	}
	if err := s.cache.Set(ctx, runKey(run.ID), run, runTTL); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (s *CacheRunStore) GetRun(ctx context.Context, id string) (*models.BacktestRun, bool, error) {
	var run models.BacktestRun
	if err := s.cache.Get(ctx, runKey(id), &run); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get run: %w", err)
	}
	return &run, true, nil
}

func (s *CacheRunStore) TryLockRun(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	return s.cache.TryLock(ctx, runLockKey(id), ttl)
}

func (s *CacheRunStore) UnlockRun(ctx context.Context, id string) error {
	return s.cache.Unlock(ctx, runLockKey(id))
}
