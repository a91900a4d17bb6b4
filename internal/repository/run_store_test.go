package repository

import (
	"context"
	"testing"
	"time"

	"BtcEdge/internal/domain/models"
	"BtcEdge/pkg/cache"
)

func TestCacheRunStoreRoundTrip(t *testing.T) {
	store := NewCacheRunStore(cache.NewMemoryCache())

	run := &models.BacktestRun{
		ID:     "run-1",
		Status: models.RunStatusDone,
		Result: &models.BacktestResult{
			EquityCurve:   []float64{100, 110},
			DrawdownCurve: []float64{0, 0},
			Stats:         models.BacktestStats{TotalTrades: 1, Wins: 1, FinalBalance: 110},
		},
	}
	if err := store.SaveRun(context.Background(), run); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := store.GetRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected run found")
	}
	if got.Status != models.RunStatusDone || got.Result == nil || got.Result.Stats.FinalBalance != 110 {
		t.Fatalf("unexpected run: %+v", got)
	}
}

func TestCacheRunStoreMissing(t *testing.T) {
	store := NewCacheRunStore(cache.NewMemoryCache())

	_, ok, err := store.GetRun(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected not found")
	}
}

func TestCacheRunStoreRejectsEmptyID(t *testing.T) {
	store := NewCacheRunStore(cache.NewMemoryCache())
	if err := store.SaveRun(context.Background(), &models.BacktestRun{}); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestRunStoreLock(t *testing.T) {
	store := NewCacheRunStore(cache.NewMemoryCache())

	locked, err := store.TryLockRun(context.Background(), "run-9", time.Minute)
	if err != nil || !locked {
		t.Fatalf("first lock: locked=%v err=%v", locked, err)
	}
	locked, err = store.TryLockRun(context.Background(), "run-9", time.Minute)
	if err != nil || locked {
		t.Fatalf("second lock should fail: locked=%v err=%v", locked, err)
	}
	if err := store.UnlockRun(context.Background(), "run-9"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	locked, err = store.TryLockRun(context.Background(), "run-9", time.Minute)
	if err != nil || !locked {
		t.Fatalf("relock after unlock: locked=%v err=%v", locked, err)
	}
}
