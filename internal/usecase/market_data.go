package usecase

import (
	"context"
	"time"

	"BtcEdge/internal/domain/models"
	domrepo "BtcEdge/internal/domain/repository"
	"BtcEdge/internal/service/binance"
	"BtcEdge/internal/service/polymarket"
	"BtcEdge/pkg/logger"
)

const candleIntervalMs = 5 * 60 * 1000

// HistoryBackfill seeds storage with recent klines so the feature window is
// warm before the live stream contributes its first candle.
type HistoryBackfill struct {
	rest    *binance.RESTClient
	storage domrepo.Storage
	log     *logger.Logger
}

func NewHistoryBackfill(rest *binance.RESTClient, storage domrepo.Storage, log *logger.Logger) *HistoryBackfill {
	return &HistoryBackfill{rest: rest, storage: storage, log: log}
}

// Backfill fetches the last `hours` hours of klines and stores them in one
// batch. Duplicate open times are deduplicated by the MergeTree sort key.
func (b *HistoryBackfill) Backfill(ctx context.Context, hours int) error {
	if hours <= 0 {
		hours = 48
	}
	now := time.Now().UnixMilli()
	from := now - int64(hours)*int64(time.Hour/time.Millisecond)

	candles, err := b.rest.FetchKlinesRange(ctx, from, now)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		b.log.Warn("backfill returned no candles")
		return nil
	}

	batch := make([]*models.Candle, len(candles))
	for i := range candles {
		batch[i] = &candles[i]
	}
	if err := b.storage.StoreBatch(ctx, batch); err != nil {
		return err
	}
	b.log.Info("history backfill complete",
		logger.Int("candles", len(batch)),
		logger.Int64("from_ms", from),
	)
	return nil
}

// ProbPoller periodically snapshots the prediction market's yes-price for the
// current 5-minute window and persists it for signal and backtest lookups.
type ProbPoller struct {
	client   *polymarket.Client
	store    domrepo.MarketProbStore
	log      *logger.Logger
	interval time.Duration
}

func NewProbPoller(client *polymarket.Client, store domrepo.MarketProbStore, log *logger.Logger) *ProbPoller {
	return &ProbPoller{client: client, store: store, log: log, interval: time.Minute}
}

// Run polls until the context is cancelled.
func (p *ProbPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *ProbPoller) poll(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	markets, err := p.client.FetchBTC5mMarkets(cctx)
	if err != nil {
		p.log.Warn("polymarket markets fetch failed", logger.Error(err))
		return
	}
	if len(markets) == 0 {
		return
	}

	for _, m := range markets {
		prices, ok := p.client.FetchMarketPrices(cctx, m)
		if !ok {
			continue
		}
		prob := &models.MarketProb{
			OpenTime: windowOpenTime(m.StartDate),
			MarketID: prices.MarketID,
			Slug:     prices.Slug,
			YesPrice: prices.YesPrice,
			NoPrice:  prices.NoPrice,
		}
		if err := p.store.StoreProb(cctx, prob); err != nil {
			p.log.Warn("store market prob failed", logger.Error(err), logger.String("slug", prices.Slug))
			continue
		}
		p.log.Debug("market prob stored",
			logger.String("slug", prices.Slug),
			logger.Int64("open_time_ms", prob.OpenTime),
		)
	}
}

// windowOpenTime maps a market to its candle window. Markets carry a start
// date; when it is absent or unparseable the current window is used.
func windowOpenTime(startDate string) int64 {
	if startDate != "" {
		if t, err := time.Parse(time.RFC3339, startDate); err == nil {
			return t.UnixMilli() / candleIntervalMs * candleIntervalMs
		}
	}
	return time.Now().UnixMilli() / candleIntervalMs * candleIntervalMs
}
