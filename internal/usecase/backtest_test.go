package usecase

import (
	"context"
	"testing"
	"time"

	"BtcEdge/internal/domain/models"
	domrepo "BtcEdge/internal/domain/repository"
	domsvc "BtcEdge/internal/domain/service"
	"BtcEdge/internal/services/features"
	"BtcEdge/internal/services/risk"
	"BtcEdge/pkg/logger"
)

type fakeCandleStore struct {
	candles []models.Candle
}

func (f *fakeCandleStore) GetCandles(_ context.Context, _ string, _, _ time.Time, _ domrepo.Timeframe) ([]models.Candle, error) {
	return f.candles, nil
}

func (f *fakeCandleStore) GetLatestNCandles(_ context.Context, _ string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	if len(f.candles) > n {
		return f.candles[len(f.candles)-n:], nil
	}
	return f.candles, nil
}

type fakeProbStore struct {
	probs map[int64]float64
}

func (f *fakeProbStore) GetProbAt(_ context.Context, openTime int64) (float64, bool, error) {
	p, ok := f.probs[openTime]
	return p, ok, nil
}

func (f *fakeProbStore) GetProbsRange(_ context.Context, _, _ int64) (map[int64]float64, error) {
	if f.probs == nil {
		return map[int64]float64{}, nil
	}
	return f.probs, nil
}

func (f *fakeProbStore) StoreProb(_ context.Context, p *models.MarketProb) error {
	if f.probs == nil {
		f.probs = make(map[int64]float64)
	}
	f.probs[p.OpenTime] = p.YesPrice
	return nil
}

type fakeTradeStore struct {
	trades []models.PaperTrade
}

func (f *fakeTradeStore) StorePaperTrade(_ context.Context, t *models.PaperTrade) error {
	f.trades = append(f.trades, *t)
	return nil
}

func (f *fakeTradeStore) GetPaperTrades(_ context.Context, _, _ time.Time, _ int) ([]models.PaperTrade, error) {
	return f.trades, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string)   {}
func (nopMetrics) RecordError(string)                 {}
func (nopMetrics) RecordLastPrice(string, float64)    {}
func (nopMetrics) RecordLatency(string, float64)      {}
func (nopMetrics) RecordDecision(string, string)      {}
func (nopMetrics) RecordProbFallback()                {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// zig-zag closes: every third candle falls, the rest rise, so labels mix
// wins and losses without ever producing two losses in a row.
func testCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	price := 50000.0
	for i := 0; i < n; i++ {
		delta := 25.0
		if i%3 == 0 {
			delta = -40.0
		}
		price += delta
		out[i] = models.Candle{
			OpenTime: int64(1700000000000 + i*300000),
			Symbol:   "BTCUSDT",
			Open:     price - delta,
			High:     price + 50,
			Low:      price - 50,
			Close:    price,
			Volume:   1000 + float64(i%7)*50,
		}
	}
	return out
}

func fixedPredictor(p float64) domsvc.PredictorFunc {
	return func(context.Context, domsvc.FeatureRow) (float64, error) { return p, nil }
}

func TestBacktestRunEmptyStore(t *testing.T) {
	uc := NewBacktestUseCase(&fakeCandleStore{}, &fakeProbStore{}, fixedPredictor(0.9), risk.DefaultParams(), features.DefaultParams(), testLogger(t))

	res, err := uc.Run(context.Background(), RunBacktestParams{Symbol: "BTCUSDT", InitialBalance: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Trades) != 0 {
		t.Fatalf("expected empty ledger, got %d trades", len(res.Trades))
	}
	if len(res.EquityCurve) != 1 || res.EquityCurve[0] != 100 {
		t.Fatalf("expected singleton equity curve at 100, got %v", res.EquityCurve)
	}
}

func TestBacktestRunFullLedger(t *testing.T) {
	// 60 candles give 24 feature rows: 16 winning labels, 8 losing, losses
	// isolated so neither stop fires at a 1000 starting balance.
	store := &fakeCandleStore{candles: testCandles(60)}
	uc := NewBacktestUseCase(store, &fakeProbStore{}, fixedPredictor(0.9), risk.DefaultParams(), features.DefaultParams(), testLogger(t))

	res, err := uc.Run(context.Background(), RunBacktestParams{Symbol: "BTCUSDT", Limit: 60, InitialBalance: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := res.Stats
	if st.TotalTrades != 24 {
		t.Fatalf("expected 24 trades, got %d", st.TotalTrades)
	}
	if st.Wins != 16 || st.Losses != 8 {
		t.Fatalf("expected 16 wins / 8 losses, got %d / %d", st.Wins, st.Losses)
	}
	if st.FinalBalance != 1080 {
		t.Fatalf("expected final balance 1080, got %v", st.FinalBalance)
	}
	if st.StopReason != "" {
		t.Fatalf("expected no stop, got %q", st.StopReason)
	}
	if st.ProbFallbacks != 24 {
		t.Fatalf("expected every row to fall back to 0.5, got %d", st.ProbFallbacks)
	}
	if len(res.EquityCurve) != 25 || res.EquityCurve[0] != 1000 {
		t.Fatalf("unexpected equity curve: len=%d first=%v", len(res.EquityCurve), res.EquityCurve[0])
	}
}

func TestBacktestRunNoEdge(t *testing.T) {
	store := &fakeCandleStore{candles: testCandles(60)}
	uc := NewBacktestUseCase(store, &fakeProbStore{}, fixedPredictor(0.5), risk.DefaultParams(), features.DefaultParams(), testLogger(t))

	res, err := uc.Run(context.Background(), RunBacktestParams{Symbol: "BTCUSDT", Limit: 60, InitialBalance: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stats.TotalTrades != 0 {
		t.Fatalf("expected no trades at zero edge, got %d", res.Stats.TotalTrades)
	}
}

func TestBacktestRunUsesStoredProbs(t *testing.T) {
	candles := testCandles(60)
	probs := &fakeProbStore{probs: make(map[int64]float64)}
	for _, c := range candles {
		probs.probs[c.OpenTime] = 0.5
	}
	store := &fakeCandleStore{candles: candles}
	uc := NewBacktestUseCase(store, probs, fixedPredictor(0.9), risk.DefaultParams(), features.DefaultParams(), testLogger(t))

	res, err := uc.Run(context.Background(), RunBacktestParams{Symbol: "BTCUSDT", Limit: 60, InitialBalance: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stats.ProbFallbacks != 0 {
		t.Fatalf("expected no fallbacks with stored probs, got %d", res.Stats.ProbFallbacks)
	}
	if res.Stats.TotalTrades != 24 {
		t.Fatalf("expected 24 trades, got %d", res.Stats.TotalTrades)
	}
}
