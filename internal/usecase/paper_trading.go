package usecase

import (
	"context"
	"sync"
	"time"

	"BtcEdge/internal/domain/models"
	domrepo "BtcEdge/internal/domain/repository"
	"BtcEdge/pkg/logger"
	"BtcEdge/pkg/util"
)

// PaperState tracks hypothetical live trading state: balance, loss streak
// and per-day opening balances. It is the live counterpart of a backtest
// run's state, constructed once at startup and mutated only through its
// methods. No real execution happens anywhere.
type PaperState struct {
	mu                sync.Mutex
	balance           float64
	consecutiveLosses int
	dayStart          map[string]float64
	signals           int
	tradeSignals      int
}

func NewPaperState(initialBalance float64) *PaperState {
	return &PaperState{
		balance:  initialBalance,
		dayStart: make(map[string]float64),
	}
}

// Snapshot returns the risk inputs for a decision at the given open time:
// the current balance, loss streak and the day's opening balance (0 when
// no trade has been recorded for that day).
func (s *PaperState) Snapshot(openTimeMs int64) (balance float64, losses int, dayStart float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance, s.consecutiveLosses, s.dayStart[util.UTCDateKey(openTimeMs)]
}

// RecordDecision counts a generated signal and, for a trade, anchors the
// day's opening balance on the day's first trade.
func (s *PaperState) RecordDecision(openTimeMs int64, d models.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals++
	if d.Signal != models.SignalTrade {
		return
	}
	s.tradeSignals++
	day := util.UTCDateKey(openTimeMs)
	if _, seen := s.dayStart[day]; !seen {
		s.dayStart[day] = s.balance
	}
}

// Settle applies the outcome of a previously signaled trade: win credits
// the position, loss debits it and advances the loss streak.
func (s *PaperState) Settle(position float64, win bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if win {
		s.balance += position
		s.consecutiveLosses = 0
		return
	}
	s.balance -= position
	s.consecutiveLosses++
}

// Stats reports the current paper trading counters.
func (s *PaperState) Stats() PaperStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PaperStats{
		Balance:           s.balance,
		ConsecutiveLosses: s.consecutiveLosses,
		TotalSignals:      s.signals,
		TradeSignals:      s.tradeSignals,
	}
}

type PaperStats struct {
	Balance           float64 `json:"balance"`
	ConsecutiveLosses int     `json:"consecutive_losses"`
	TotalSignals      int     `json:"total_signals"`
	TradeSignals      int     `json:"trade_signals"`
}

// PaperTradingUseCase runs the live decision loop: one signal per closed
// 5-minute candle, settled against the following candle's close.
type PaperTradingUseCase struct {
	signals *SignalUseCase
	trades  domrepo.PaperTradeStore
	state   *PaperState
	log     *logger.Logger

	mu   sync.Mutex
	open *openPosition
}

type openPosition struct {
	openTimeMs int64
	position   float64
	closePrice float64
}

func NewPaperTradingUseCase(signals *SignalUseCase, trades domrepo.PaperTradeStore, state *PaperState, log *logger.Logger) *PaperTradingUseCase {
	return &PaperTradingUseCase{signals: signals, trades: trades, state: state, log: log}
}

// OnCandleClosed is invoked once per closed candle: it settles any pending
// hypothetical position against the new close, then generates and persists
// the next decision.
func (uc *PaperTradingUseCase) OnCandleClosed(ctx context.Context, c *models.Candle) error {
	uc.settle(c)

	res, err := uc.signals.GetSignal(ctx, GetSignalParams{Symbol: c.Symbol, N: 500})
	if err != nil {
		return err
	}

	uc.state.RecordDecision(res.OpenTime, res.Decision)
	if res.Decision.Signal == models.SignalTrade {
		uc.mu.Lock()
		uc.open = &openPosition{
			openTimeMs: res.OpenTime,
			position:   res.Decision.Position,
			closePrice: c.Close,
		}
		uc.mu.Unlock()
	}

	trade := &models.PaperTrade{
		TimestampUTC: time.Now().UTC().Format(time.RFC3339),
		OpenTime:     res.OpenTime,
		Signal:       res.Decision.Signal,
		ModelProb:    res.ModelProb,
		MarketProb:   res.MarketProb,
		Edge:         res.Edge,
		Position:     res.Decision.Position,
		Reason:       res.Decision.Reason,
	}
	if err := uc.trades.StorePaperTrade(ctx, trade); err != nil {
		uc.log.Error("store paper trade", logger.Error(err))
	}
	uc.log.Info("paper decision",
		logger.String("signal", trade.Signal),
		logger.String("reason", trade.Reason),
		logger.Any("model_prob", trade.ModelProb),
		logger.Any("market_prob", trade.MarketProb),
		logger.Any("position_usd", trade.Position),
	)
	return nil
}

func (uc *PaperTradingUseCase) settle(c *models.Candle) {
	uc.mu.Lock()
	open := uc.open
	uc.open = nil
	uc.mu.Unlock()
	if open == nil || c.OpenTime <= open.openTimeMs {
		return
	}
	win := c.Close > open.closePrice
	uc.state.Settle(open.position, win)
	uc.log.Info("paper settle",
		logger.Int64("open_time_ms", open.openTimeMs),
		logger.Bool("win", win),
		logger.Any("position_usd", open.position),
	)
}

// Stats exposes the live counters for the API layer.
func (uc *PaperTradingUseCase) Stats() PaperStats { return uc.state.Stats() }
