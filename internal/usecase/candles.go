package usecase

import (
	"context"
	"fmt"
	"time"

	"BtcEdge/internal/domain/models"
	domrepo "BtcEdge/internal/domain/repository"
	"BtcEdge/pkg/util"
)

const (
	defaultCandleLimit = 10000
	maxCandleLimit     = 50000
)

// CandlesUseCase serves historical candle queries for the API.
type CandlesUseCase struct {
	store domrepo.CandleStore
}

func NewCandlesUseCase(store domrepo.CandleStore) *CandlesUseCase {
	return &CandlesUseCase{store: store}
}

type GetCandlesParams struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Timeframe domrepo.Timeframe
	Limit     int
}

type GetCandlesResult struct {
	Symbol    string
	Timeframe string
	From      time.Time
	To        time.Time
	Count     int
	Candles   []models.Candle
}

// GetCandles returns candles in [from, to], aligned to timeframe
// boundaries and capped at the row limit.
func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}

	switch {
	case p.Limit <= 0:
		p.Limit = defaultCandleLimit
	case p.Limit > maxCandleLimit:
		p.Limit = maxCandleLimit
	}

	p.From, p.To = util.AlignFromTo(p.From, p.To, string(p.Timeframe))

	candles, err := uc.store.GetCandles(ctx, p.Symbol, p.From, p.To, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	if len(candles) > p.Limit {
		candles = candles[:p.Limit]
	}

	return &GetCandlesResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		From:      p.From,
		To:        p.To,
		Count:     len(candles),
		Candles:   candles,
	}, nil
}
