package backtest

import (
	"BtcEdge/internal/domain/models"
	"BtcEdge/internal/services/risk"
	"BtcEdge/pkg/util"
)

// ProbLookup resolves the market-implied up probability for a bar open time.
// found=false means the market collaborator had a gap for that window.
type ProbLookup func(openTime int64) (prob float64, found bool)

// FallbackProb substitutes for missing market quotes.
const FallbackProb = 0.5

// Input is one simulation's aligned per-bar series. Timestamps, ModelProbs
// and Labels must have equal length and ascending time order.
type Input struct {
	Timestamps []int64
	ModelProbs []float64
	Labels     []int
	MarketProb ProbLookup
}

// RunState is the mutable state of a single simulation run. Construct one
// per run via NewRunState and discard it afterwards; it is never shared
// across runs.
type RunState struct {
	Balance           float64
	Peak              float64
	DayStart          map[string]float64
	ConsecutiveLosses int
	Stopped           bool
	StopReason        string
}

func NewRunState(initialBalance float64) *RunState {
	return &RunState{
		Balance:  initialBalance,
		Peak:     initialBalance,
		DayStart: make(map[string]float64),
	}
}

// stop transitions to the terminal state. Both stop conditions are checked
// on every traded bar; when both fire, the later check's reason wins.
func (s *RunState) stop(reason string) {
	s.Stopped = true
	s.StopReason = reason
}

// Simulator replays bars through the risk engine sequentially. It performs
// no I/O and never fails; the only terminal outcome besides exhausting the
// input is the deliberate stop transition.
type Simulator struct {
	engine         *risk.Engine
	initialBalance float64
}

func NewSimulator(engine *risk.Engine, initialBalance float64) *Simulator {
	return &Simulator{engine: engine, initialBalance: initialBalance}
}

// Run replays the input bar-by-bar and returns the ledger, curves and
// summary stats. Empty input yields singleton curves and zeroed stats.
func (s *Simulator) Run(in Input) *models.BacktestResult {
	state := NewRunState(s.initialBalance)
	trades := make([]models.Trade, 0)
	fallbacks := 0

	for i := range in.Timestamps {
		if state.Stopped {
			break
		}
		marketProb := FallbackProb
		if in.MarketProb != nil {
			if p, found := in.MarketProb(in.Timestamps[i]); found {
				marketProb = p
			} else {
				fallbacks++
			}
		} else {
			fallbacks++
		}
		modelProb := in.ModelProbs[i]

		dayKey := util.UTCDateKey(in.Timestamps[i])
		decision := s.engine.GenerateSignal(modelProb, marketProb, state.Balance, state.ConsecutiveLosses, state.DayStart[dayKey])
		if decision.Signal != models.SignalTrade {
			continue
		}
		position := decision.Position

		outcome := in.Labels[i]
		pnl := position
		if outcome != 1 {
			pnl = -position
		}
		state.Balance += pnl
		if state.Balance > state.Peak {
			state.Peak = state.Balance
		}

		trades = append(trades, models.Trade{
			OpenTime:     in.Timestamps[i],
			ModelProb:    modelProb,
			MarketProb:   marketProb,
			Edge:         s.engine.Edge(modelProb, marketProb),
			Position:     position,
			Outcome:      outcome,
			PnL:          pnl,
			BalanceAfter: state.Balance,
			LossesBefore: state.ConsecutiveLosses,
		})

		if outcome == 0 {
			state.ConsecutiveLosses++
			if s.engine.ShouldStopOnLossStreak(state.ConsecutiveLosses) {
				state.stop(risk.ReasonLossStreak)
			}
		} else {
			state.ConsecutiveLosses = 0
		}

		// the day's opening balance is the balance before this trade's PnL
		if _, seen := state.DayStart[dayKey]; !seen {
			state.DayStart[dayKey] = state.Balance - pnl
		}
		if s.engine.ShouldStopOnDailyDrawdown(state.DayStart[dayKey], state.Balance) {
			state.stop(risk.ReasonDailyDrawdown)
		}
	}

	equity, drawdown := buildCurves(s.initialBalance, trades)
	stats := Summarize(trades, s.initialBalance, equity, drawdown)
	stats.StopReason = state.StopReason
	stats.ProbFallbacks = fallbacks

	return &models.BacktestResult{
		Trades:        trades,
		EquityCurve:   equity,
		DrawdownCurve: drawdown,
		Stats:         stats,
	}
}

// buildCurves produces the equity curve (initial balance followed by each
// trade's post-trade balance) and the running-peak drawdown curve.
func buildCurves(initialBalance float64, trades []models.Trade) (equity, drawdown []float64) {
	equity = make([]float64, 0, len(trades)+1)
	equity = append(equity, initialBalance)
	for _, t := range trades {
		equity = append(equity, t.BalanceAfter)
	}

	drawdown = make([]float64, 0, len(equity))
	drawdown = append(drawdown, 0)
	peak := initialBalance
	for _, b := range equity[1:] {
		if b > peak {
			peak = b
		}
		dd := 0.0
		if peak > 0 {
			dd = (peak - b) / peak
		}
		drawdown = append(drawdown, dd)
	}
	return equity, drawdown
}

// Summarize reduces a ledger and curves to aggregate statistics. The stop
// reason and fallback count are attached by the caller.
func Summarize(trades []models.Trade, initialBalance float64, equity, drawdown []float64) models.BacktestStats {
	stats := models.BacktestStats{FinalBalance: initialBalance}
	if len(trades) == 0 {
		return stats
	}
	for _, t := range trades {
		if t.Outcome == 1 {
			stats.Wins++
		}
		stats.TotalPnL += t.PnL
	}
	stats.TotalTrades = len(trades)
	stats.Losses = stats.TotalTrades - stats.Wins
	stats.WinRate = float64(stats.Wins) / float64(stats.TotalTrades)
	if len(equity) > 0 {
		stats.FinalBalance = equity[len(equity)-1]
	}
	for _, dd := range drawdown {
		if dd > stats.MaxDrawdown {
			stats.MaxDrawdown = dd
		}
	}
	return stats
}
