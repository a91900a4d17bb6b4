package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"BtcEdge/internal/domain/models"
	pkgch "BtcEdge/pkg/clickhouse"
	applogger "BtcEdge/pkg/logger"
)

// CHMarketProbStore persists and resolves market-implied probabilities
// keyed by candle open time.
type CHMarketProbStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHMarketProbStore(ch *pkgch.Client) *CHMarketProbStore {
	return &CHMarketProbStore{db: ch.DB()}
}

func (s *CHMarketProbStore) SetLogger(l *applogger.Logger) { s.l = l }

// GetProbAt returns the yes price recorded for the candle window. found is
// false when no market snapshot covers that open time.
func (s *CHMarketProbStore) GetProbAt(ctx context.Context, openTime int64) (float64, bool, error) {
	const q = `
        SELECT yes_price
        FROM btcedge.market_probs
        WHERE open_time_ms = ?
        ORDER BY created_at DESC
        LIMIT 1
    `
	var prob float64
	err := s.db.QueryRowContext(ctx, q, openTime).Scan(&prob)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_prob query error",
				applogger.Int64("open_time_ms", openTime),
				applogger.Error(err),
			)
		}
		return 0, false, fmt.Errorf("get prob: %w", err)
	}
	return prob, true, nil
}

// GetProbsRange loads all probabilities for open times in [from, to] into a
// lookup map, one round-trip for a whole backtest window.
func (s *CHMarketProbStore) GetProbsRange(ctx context.Context, fromMs, toMs int64) (map[int64]float64, error) {
	const q = `
        SELECT open_time_ms, yes_price
        FROM btcedge.market_probs
        WHERE open_time_ms >= ? AND open_time_ms <= ?
        ORDER BY open_time_ms ASC
    `
	rows, err := s.db.QueryContext(ctx, q, fromMs, toMs)
	if err != nil {
		return nil, fmt.Errorf("get probs range: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]float64)
	for rows.Next() {
		var ts int64
		var prob float64
		if err := rows.Scan(&ts, &prob); err != nil {
			return nil, fmt.Errorf("scan prob: %w", err)
		}
		out[ts] = prob
	}
	return out, rows.Err()
}

func (s *CHMarketProbStore) StoreProb(ctx context.Context, p *models.MarketProb) error {
	const q = `
        INSERT INTO btcedge.market_probs (open_time_ms, market_id, slug, yes_price, no_price, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q, p.OpenTime, p.MarketID, p.Slug, p.YesPrice, p.NoPrice, time.Now().UTC())
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store_prob error",
				applogger.Int64("open_time_ms", p.OpenTime),
				applogger.String("market_id", p.MarketID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store prob: %w", err)
	}
	return nil
}

// CHPaperTradeStore persists simulated live decisions.
type CHPaperTradeStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHPaperTradeStore(ch *pkgch.Client) *CHPaperTradeStore {
	return &CHPaperTradeStore{db: ch.DB()}
}

func (s *CHPaperTradeStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPaperTradeStore) StorePaperTrade(ctx context.Context, t *models.PaperTrade) error {
	const q = `
        INSERT INTO btcedge.paper_trades (ts, open_time_ms, signal, model_prob, market_prob, edge, position_usd, reason)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q, t.TimestampUTC, t.OpenTime, t.Signal, t.ModelProb, t.MarketProb, t.Edge, t.Position, t.Reason)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store_paper_trade error",
				applogger.Int64("open_time_ms", t.OpenTime),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store paper trade: %w", err)
	}
	return nil
}

func (s *CHPaperTradeStore) GetPaperTrades(ctx context.Context, from, to time.Time, limit int) ([]models.PaperTrade, error) {
	const q = `
        SELECT ts, open_time_ms, signal, model_prob, market_prob, edge, position_usd, reason
        FROM btcedge.paper_trades
        WHERE open_time_ms >= ? AND open_time_ms <= ?
        ORDER BY open_time_ms DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, from.UnixMilli(), to.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("get paper trades: %w", err)
	}
	defer rows.Close()

	var out []models.PaperTrade
	for rows.Next() {
		var t models.PaperTrade
		if err := rows.Scan(&t.TimestampUTC, &t.OpenTime, &t.Signal, &t.ModelProb, &t.MarketProb, &t.Edge, &t.Position, &t.Reason); err != nil {
			return nil, fmt.Errorf("scan paper trade: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
