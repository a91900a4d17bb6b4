package risk

import (
	"BtcEdge/internal/domain/models"
)

// Reason strings shared by the backtester and the live decision path.
const (
	ReasonOK                  = "ok"
	ReasonNoEdge              = "no edge"
	ReasonInsufficientBalance = "insufficient balance"
	ReasonPositionTooSmall    = "position size too small"
	ReasonLossStreak          = "2 consecutive losses"
	ReasonDailyDrawdown       = "daily drawdown >= 10%"
)

// Dust is the minimum tradable balance and position size in currency units.
const Dust = 0.01

// Params holds the risk limits. The zero value is unusable, construct via
// DefaultParams and override fields as needed.
type Params struct {
	RiskFraction     float64
	MaxTradeCap      float64
	EdgeThreshold    float64
	LossStreakLimit  int
	DailyDrawdownCap float64
}

func DefaultParams() Params {
	return Params{
		RiskFraction:     0.10,
		MaxTradeCap:      10.0,
		EdgeThreshold:    0.06,
		LossStreakLimit:  2,
		DailyDrawdownCap: 0.10,
	}
}

// Engine is the pure decision core. It holds no mutable state; every method
// maps its arguments to a result deterministically.
type Engine struct {
	params Params
}

func NewEngine(params Params) *Engine { return &Engine{params: params} }

func (e *Engine) Params() Params { return e.params }

// PositionSize returns min(riskFraction*balance, maxTradeCap).
func (e *Engine) PositionSize(balance float64) float64 {
	size := e.params.RiskFraction * balance
	if size > e.params.MaxTradeCap {
		size = e.params.MaxTradeCap
	}
	return size
}

// HasEdge reports whether the model beats the market by at least the
// configured threshold.
func (e *Engine) HasEdge(modelProb, marketProb float64) bool {
	return (modelProb - marketProb) >= e.params.EdgeThreshold
}

// Edge returns modelProb - marketProb.
func (e *Engine) Edge(modelProb, marketProb float64) float64 {
	return modelProb - marketProb
}

// ShouldStopOnLossStreak reports whether the consecutive-loss circuit
// breaker has tripped.
func (e *Engine) ShouldStopOnLossStreak(consecutiveLosses int) bool {
	return consecutiveLosses >= e.params.LossStreakLimit
}

// ShouldStopOnDailyDrawdown reports whether the balance has fallen from the
// day's opening balance by at least the drawdown cap. A non-positive day
// start never trips the stop.
func (e *Engine) ShouldStopOnDailyDrawdown(dayStartBalance, currentBalance float64) bool {
	if dayStartBalance <= 0 {
		return false
	}
	dd := (dayStartBalance - currentBalance) / dayStartBalance
	return dd >= e.params.DailyDrawdownCap
}

// CanTrade combines the refusal conditions in fixed precedence order and
// returns the first matching reason: dust balance, loss streak, daily
// drawdown, dust position size. dayStartBalance <= 0 means no trade has been
// recorded today and the drawdown guard is skipped.
func (e *Engine) CanTrade(balance float64, consecutiveLosses int, dayStartBalance float64) (bool, string) {
	if balance < Dust {
		return false, ReasonInsufficientBalance
	}
	if e.ShouldStopOnLossStreak(consecutiveLosses) {
		return false, ReasonLossStreak
	}
	if e.ShouldStopOnDailyDrawdown(dayStartBalance, balance) {
		return false, ReasonDailyDrawdown
	}
	if e.PositionSize(balance) < Dust {
		return false, ReasonPositionTooSmall
	}
	return true, ReasonOK
}

// GenerateSignal is the single decision entry point for both the backtester
// and the paper-trading path: stop checks first via CanTrade, then the edge
// check, then sizing. Returns TRADE with a nonzero position only when every
// guard passes.
func (e *Engine) GenerateSignal(modelProb, marketProb, balance float64, consecutiveLosses int, dayStartBalance float64) models.Decision {
	if ok, reason := e.CanTrade(balance, consecutiveLosses, dayStartBalance); !ok {
		return models.Decision{Signal: models.SignalSkip, Reason: reason}
	}
	if !e.HasEdge(modelProb, marketProb) {
		return models.Decision{Signal: models.SignalSkip, Reason: ReasonNoEdge}
	}
	return models.Decision{
		Signal:   models.SignalTrade,
		Position: e.PositionSize(balance),
		Reason:   ReasonOK,
	}
}
