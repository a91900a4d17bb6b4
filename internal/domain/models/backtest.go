package models

// BacktestStats summarizes a finished backtest run.
type BacktestStats struct {
	TotalTrades   int     `json:"total_trades"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"`
	TotalPnL      float64 `json:"total_pnl"`
	FinalBalance  float64 `json:"final_balance"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	StopReason    string  `json:"stop_reason"` // empty when the run completed without stopping
	ProbFallbacks int     `json:"prob_fallbacks"`
}

// BacktestResult carries the full output of one run: the trade ledger
// plus equity/drawdown curves (one point per trade, with a leading entry
// for the initial balance) and aggregate stats.
type BacktestResult struct {
	Trades        []Trade       `json:"trades"`
	EquityCurve   []float64     `json:"equity_curve"`
	DrawdownCurve []float64     `json:"drawdown_curve"`
	Stats         BacktestStats `json:"stats"`
}

// Backtest run lifecycle states for async runs.
const (
	RunStatusPending = "pending"
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
)

// BacktestRun tracks an asynchronous backtest job.
type BacktestRun struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Result  *BacktestResult `json:"result,omitempty"`
}
