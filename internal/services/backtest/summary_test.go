package backtest

import (
	"strings"
	"testing"

	"BtcEdge/internal/domain/models"
)

func TestRenderSummary(t *testing.T) {
	result := &models.BacktestResult{
		Trades: []models.Trade{
			{OpenTime: 1700000000000, Edge: 0.08, Position: 10, Outcome: 1, PnL: 10, BalanceAfter: 110},
			{OpenTime: 1700000300000, Edge: 0.07, Position: 11, Outcome: 0, PnL: -11, BalanceAfter: 99},
		},
		Stats: models.BacktestStats{
			TotalTrades:  2,
			Wins:         1,
			Losses:       1,
			WinRate:      0.5,
			TotalPnL:     -1,
			FinalBalance: 99,
			MaxDrawdown:  0.1,
			StopReason:   "2 consecutive losses",
		},
	}
	out := RenderSummary(result, 10)
	for _, want := range []string{
		"trades: 2 (wins 1 / losses 1, win rate 50.00%)",
		"final balance: 99.00",
		"max drawdown: 10.00%",
		"stopped: 2 consecutive losses",
		"WIN",
		"LOSS",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummaryTruncatesLedger(t *testing.T) {
	trades := make([]models.Trade, 30)
	for i := range trades {
		trades[i] = models.Trade{OpenTime: int64(1700000000000 + i*300000), Outcome: 1, PnL: 1}
	}
	result := &models.BacktestResult{
		Trades: trades,
		Stats:  models.BacktestStats{TotalTrades: 30, Wins: 30, WinRate: 1},
	}
	out := RenderSummary(result, 5)
	if !strings.Contains(out, "last 5 trades:") {
		t.Fatalf("expected truncated ledger header:\n%s", out)
	}
	if got := strings.Count(out, "WIN"); got != 5 {
		t.Fatalf("expected 5 trade lines, got %d", got)
	}
}
