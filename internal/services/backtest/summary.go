package backtest

import (
	"fmt"
	"strings"
	"time"

	"BtcEdge/internal/domain/models"
)

// RenderSummary formats a run's stats and most recent trades as a plain
// multi-line report for the console.
func RenderSummary(result *models.BacktestResult, lastN int) string {
	s := result.Stats
	var b strings.Builder
	b.WriteString("=== Backtest Summary ===\n")
	fmt.Fprintf(&b, "trades: %d (wins %d / losses %d, win rate %.2f%%)\n",
		s.TotalTrades, s.Wins, s.Losses, s.WinRate*100)
	fmt.Fprintf(&b, "total pnl: %+.2f, final balance: %.2f\n", s.TotalPnL, s.FinalBalance)
	fmt.Fprintf(&b, "max drawdown: %.2f%%\n", s.MaxDrawdown*100)
	if s.StopReason != "" {
		fmt.Fprintf(&b, "stopped: %s\n", s.StopReason)
	}
	if s.ProbFallbacks > 0 {
		fmt.Fprintf(&b, "market prob fallbacks: %d\n", s.ProbFallbacks)
	}

	trades := result.Trades
	if lastN > 0 && len(trades) > lastN {
		trades = trades[len(trades)-lastN:]
	}
	if len(trades) > 0 {
		fmt.Fprintf(&b, "last %d trades:\n", len(trades))
		for _, t := range trades {
			ts := time.UnixMilli(t.OpenTime).UTC().Format("2006-01-02 15:04")
			outcome := "LOSS"
			if t.Outcome == 1 {
				outcome = "WIN"
			}
			fmt.Fprintf(&b, "  %s  edge %+.3f  pos %.2f  %s  pnl %+.2f  bal %.2f\n",
				ts, t.Edge, t.Position, outcome, t.PnL, t.BalanceAfter)
		}
	}
	return b.String()
}
