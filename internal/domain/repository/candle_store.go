package repository

import (
	"context"
	"time"

	"BtcEdge/internal/domain/models"
)

// CandleStore provides read access to persisted candles.
type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
}

// MarketProbStore resolves the market-implied up probability for a candle
// open time. found=false means no market snapshot covers that window; the
// caller decides the fallback.
type MarketProbStore interface {
	GetProbAt(ctx context.Context, openTime int64) (prob float64, found bool, err error)
	GetProbsRange(ctx context.Context, fromMs, toMs int64) (map[int64]float64, error)
	StoreProb(ctx context.Context, p *models.MarketProb) error
}

// BacktestRunStore tracks asynchronous backtest runs by id. TryLockRun
// gives the worker that wins the lock exclusive execution of a run until
// the ttl expires or UnlockRun is called.
type BacktestRunStore interface {
	SaveRun(ctx context.Context, run *models.BacktestRun) error
	GetRun(ctx context.Context, id string) (*models.BacktestRun, bool, error)
	TryLockRun(ctx context.Context, id string, ttl time.Duration) (bool, error)
	UnlockRun(ctx context.Context, id string) error
}

// PaperTradeStore persists simulated live decisions for later review.
type PaperTradeStore interface {
	StorePaperTrade(ctx context.Context, t *models.PaperTrade) error
	GetPaperTrades(ctx context.Context, from, to time.Time, limit int) ([]models.PaperTrade, error)
}
