package usecase

import (
	"context"
	"fmt"
	"time"

	"BtcEdge/internal/domain/models"
	domrepo "BtcEdge/internal/domain/repository"
	domsvc "BtcEdge/internal/domain/service"
	"BtcEdge/internal/services/backtest"
	"BtcEdge/internal/services/features"
	"BtcEdge/internal/services/risk"
	"BtcEdge/pkg/logger"
)

// BacktestUseCase assembles a simulation from stored candles and market
// probabilities, scores the feature rows through the model, and replays
// them through the simulator.
type BacktestUseCase struct {
	store     domrepo.CandleStore
	probs     domrepo.MarketProbStore
	predictor domsvc.Predictor
	params    risk.Params
	feats     features.Params
	log       *logger.Logger
}

func NewBacktestUseCase(
	store domrepo.CandleStore,
	probs domrepo.MarketProbStore,
	predictor domsvc.Predictor,
	params risk.Params,
	feats features.Params,
	log *logger.Logger,
) *BacktestUseCase {
	return &BacktestUseCase{
		store:     store,
		probs:     probs,
		predictor: predictor,
		params:    params,
		feats:     feats,
		log:       log,
	}
}

type RunBacktestParams struct {
	Symbol         string
	Limit          int
	InitialBalance float64
}

// Run executes one full backtest. Too little history is not an error: the
// result simply has an empty ledger.
func (uc *BacktestUseCase) Run(ctx context.Context, p RunBacktestParams) (*models.BacktestResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.Limit <= 0 {
		p.Limit = 5000
	}
	if p.InitialBalance <= 0 {
		p.InitialBalance = 100
	}
	start := time.Now()

	candles, err := uc.store.GetLatestNCandles(ctx, p.Symbol, p.Limit, domrepo.TF5m)
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}

	sim := backtest.NewSimulator(risk.NewEngine(uc.params), p.InitialBalance)

	m := uc.feats.Build(candles)
	if len(m.Rows) == 0 {
		uc.log.Warn("backtest has no feature rows",
			logger.String("symbol", p.Symbol),
			logger.Int("candles", len(candles)),
		)
		return sim.Run(backtest.Input{}), nil
	}

	modelProbs := make([]float64, len(m.Rows))
	for i, row := range m.Rows {
		prob, err := uc.predictor.PredictUp(ctx, domsvc.FeatureRow(row))
		if err != nil {
			return nil, fmt.Errorf("predict row %d: %w", i, err)
		}
		modelProbs[i] = prob
	}

	probMap, err := uc.probs.GetProbsRange(ctx, m.Timestamps[0], m.Timestamps[len(m.Timestamps)-1])
	if err != nil {
		return nil, fmt.Errorf("load market probs: %w", err)
	}

	result := sim.Run(backtest.Input{
		Timestamps: m.Timestamps,
		ModelProbs: modelProbs,
		Labels:     m.Labels,
		MarketProb: func(openTime int64) (float64, bool) {
			p, ok := probMap[openTime]
			return p, ok
		},
	})

	uc.log.Info("backtest finished",
		logger.String("symbol", p.Symbol),
		logger.Int("rows", len(m.Rows)),
		logger.Int("trades", result.Stats.TotalTrades),
		logger.String("stop_reason", result.Stats.StopReason),
		logger.Any("final_balance", result.Stats.FinalBalance),
		logger.Duration("duration_ms", time.Since(start)),
	)
	return result, nil
}
