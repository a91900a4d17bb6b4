package models

// Signal values emitted by the decision engine.
const (
	SignalTrade = "TRADE"
	SignalSkip  = "SKIP"
)

// Decision is the output of the risk engine for one bar: trade or skip,
// how much, and a machine-checkable reason. The reason vocabulary is
// shared between the backtest stop reasons and the live path.
type Decision struct {
	Signal   string  `json:"signal"`
	Position float64 `json:"position_usd"`
	Reason   string  `json:"reason"`
}
