package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"BtcEdge/internal/domain/models"
	domrepo "BtcEdge/internal/domain/repository"
	domsvc "BtcEdge/internal/domain/service"
	"BtcEdge/internal/services/features"
	"BtcEdge/internal/services/risk"
)

// SignalUseCase produces one live trade-or-skip decision from the latest
// candle history: features for the newest complete row, the model
// probability and the market-implied probability, combined through the
// same risk engine the backtester uses.
type SignalUseCase struct {
	store     domrepo.CandleStore
	probs     domrepo.MarketProbStore
	predictor domsvc.Predictor
	engine    *risk.Engine
	feats     features.Params
	state     *PaperState
	metrics   domrepo.Metrics
	timeout   time.Duration
}

func NewSignalUseCase(
	store domrepo.CandleStore,
	probs domrepo.MarketProbStore,
	predictor domsvc.Predictor,
	engine *risk.Engine,
	feats features.Params,
	state *PaperState,
	metrics domrepo.Metrics,
) *SignalUseCase {
	return &SignalUseCase{
		store:     store,
		probs:     probs,
		predictor: predictor,
		engine:    engine,
		feats:     feats,
		state:     state,
		metrics:   metrics,
		timeout:   10 * time.Second,
	}
}

type GetSignalParams struct {
	Symbol string
	N      int
}

// SignalResult is the live decision plus the inputs that produced it.
type SignalResult struct {
	Symbol       string          `json:"symbol"`
	OpenTime     int64           `json:"open_time_ms"`
	ModelProb    float64         `json:"model_prob"`
	MarketProb   float64         `json:"market_prob"`
	ProbFallback bool            `json:"prob_fallback"`
	Edge         float64         `json:"edge"`
	Decision     models.Decision `json:"decision"`
}

func (uc *SignalUseCase) GetSignal(ctx context.Context, p GetSignalParams) (*SignalResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.N <= 0 {
		p.N = 500
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	candles, err := uc.store.GetLatestNCandles(ctx, p.Symbol, p.N, domrepo.TF5m)
	if err != nil {
		return nil, fmt.Errorf("latest candles: %w", err)
	}
	m := uc.feats.Build(candles)
	if len(m.Rows) == 0 {
		return nil, fmt.Errorf("insufficient history for features: %d candles", len(candles))
	}
	lastRow := m.Rows[len(m.Rows)-1]
	openTime := m.Timestamps[len(m.Timestamps)-1]

	// model and market probabilities are independent lookups
	var (
		wg         sync.WaitGroup
		modelProb  float64
		modelErr   error
		marketProb = 0.5
		found      bool
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		modelProb, modelErr = uc.predictor.PredictUp(ctx, domsvc.FeatureRow(lastRow))
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		p, ok, err := uc.probs.GetProbAt(ctx, openTime)
		if err == nil && ok {
			marketProb = p
			found = true
		}
	}()
	wg.Wait()

	if modelErr != nil {
		uc.metrics.RecordError("predict")
		return nil, fmt.Errorf("predict: %w", modelErr)
	}
	if !found {
		uc.metrics.RecordProbFallback()
	}

	balance, losses, dayStart := uc.state.Snapshot(openTime)
	decision := uc.engine.GenerateSignal(modelProb, marketProb, balance, losses, dayStart)
	uc.metrics.RecordDecision(decision.Signal, decision.Reason)

	return &SignalResult{
		Symbol:       p.Symbol,
		OpenTime:     openTime,
		ModelProb:    modelProb,
		MarketProb:   marketProb,
		ProbFallback: !found,
		Edge:         uc.engine.Edge(modelProb, marketProb),
		Decision:     decision,
	}, nil
}
