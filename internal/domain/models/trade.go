package models

// Trade is a single simulated trade in a backtest ledger. Records are
// append-only; a trade is never mutated after it is written.
type Trade struct {
	OpenTime     int64   `json:"open_time_ms"`
	ModelProb    float64 `json:"model_prob"`
	MarketProb   float64 `json:"market_prob"`
	Edge         float64 `json:"edge"`
	Position     float64 `json:"position_usd"`
	Outcome      int     `json:"outcome"` // 1 = win (up), 0 = loss (down)
	PnL          float64 `json:"pnl"`
	BalanceAfter float64 `json:"balance_after"`
	LossesBefore int     `json:"consecutive_losses_before"`
}

// PaperTrade is a hypothetical live trade or skip decision logged by the
// paper trading engine. No real execution happens anywhere.
type PaperTrade struct {
	TimestampUTC string  `json:"timestamp_utc"`
	OpenTime     int64   `json:"open_time_ms"`
	Signal       string  `json:"signal"` // TRADE or SKIP
	ModelProb    float64 `json:"model_prob"`
	MarketProb   float64 `json:"market_prob"`
	Edge         float64 `json:"edge"`
	Position     float64 `json:"position_usd"`
	Reason       string  `json:"reason"`
}
