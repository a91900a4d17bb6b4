package usecase

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"BtcEdge/internal/domain/models"
	"BtcEdge/internal/services/features"
	"BtcEdge/internal/services/risk"
)

type fakeRunStore struct {
	runs   map[string]models.BacktestRun
	locked map[string]bool
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{
		runs:   make(map[string]models.BacktestRun),
		locked: make(map[string]bool),
	}
}

func (f *fakeRunStore) SaveRun(_ context.Context, run *models.BacktestRun) error {
	f.runs[run.ID] = *run
	return nil
}

func (f *fakeRunStore) GetRun(_ context.Context, id string) (*models.BacktestRun, bool, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, false, nil
	}
	return &run, true, nil
}

func (f *fakeRunStore) TryLockRun(_ context.Context, id string, _ time.Duration) (bool, error) {
	if f.locked[id] {
		return false, nil
	}
	f.locked[id] = true
	return true, nil
}

func (f *fakeRunStore) UnlockRun(_ context.Context, id string) error {
	delete(f.locked, id)
	return nil
}

func TestBacktestJobWritesSummary(t *testing.T) {
	store := &fakeCandleStore{candles: testCandles(60)}
	backtests := NewBacktestUseCase(store, &fakeProbStore{}, fixedPredictor(0.9), risk.DefaultParams(), features.DefaultParams(), testLogger(t))
	runs := newFakeRunStore()

	var out bytes.Buffer
	job := NewBacktestJob(backtests, runs, testLogger(t), &out)

	err := job.Handle(context.Background(), &BacktestRunPayload{
		ID:             "run-1",
		Symbol:         "BTCUSDT",
		Limit:          60,
		InitialBalance: 1000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	run, ok, _ := runs.GetRun(context.Background(), "run-1")
	if !ok || run.Status != models.RunStatusDone {
		t.Fatalf("expected done run, got %+v", run)
	}

	summary := out.String()
	if !strings.Contains(summary, "=== Backtest Summary ===") {
		t.Fatalf("summary block not written: %q", summary)
	}
	if !strings.Contains(summary, "final balance:") {
		t.Fatalf("summary missing final balance: %q", summary)
	}
	if runs.locked["run-1"] {
		t.Fatalf("run lock not released")
	}
}

func TestBacktestJobSkipsLockedRun(t *testing.T) {
	store := &fakeCandleStore{candles: testCandles(60)}
	backtests := NewBacktestUseCase(store, &fakeProbStore{}, fixedPredictor(0.9), risk.DefaultParams(), features.DefaultParams(), testLogger(t))
	runs := newFakeRunStore()
	runs.locked["run-1"] = true

	var out bytes.Buffer
	job := NewBacktestJob(backtests, runs, testLogger(t), &out)

	err := job.Handle(context.Background(), &BacktestRunPayload{ID: "run-1", Symbol: "BTCUSDT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs.runs) != 0 {
		t.Fatalf("locked run must not execute, saved %d states", len(runs.runs))
	}
	if out.Len() != 0 {
		t.Fatalf("locked run must not write a summary")
	}
}
