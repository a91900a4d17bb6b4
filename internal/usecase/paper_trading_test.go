package usecase

import (
	"context"
	"testing"

	"BtcEdge/internal/domain/models"
	"BtcEdge/internal/services/features"
	"BtcEdge/internal/services/risk"
)

func TestPaperStateDayStartAnchor(t *testing.T) {
	s := NewPaperState(100)
	ts := int64(1700000000000)

	s.RecordDecision(ts, models.Decision{Signal: models.SignalSkip, Reason: risk.ReasonNoEdge})
	if _, _, dayStart := s.Snapshot(ts); dayStart != 0 {
		t.Fatalf("skip must not anchor the day, got %v", dayStart)
	}

	s.RecordDecision(ts, models.Decision{Signal: models.SignalTrade, Position: 10, Reason: risk.ReasonOK})
	if _, _, dayStart := s.Snapshot(ts); dayStart != 100 {
		t.Fatalf("expected day anchored at 100, got %v", dayStart)
	}

	// a later trade the same day must not move the anchor
	s.Settle(10, true)
	s.RecordDecision(ts+300000, models.Decision{Signal: models.SignalTrade, Position: 10, Reason: risk.ReasonOK})
	if _, _, dayStart := s.Snapshot(ts); dayStart != 100 {
		t.Fatalf("anchor moved to %v", dayStart)
	}
}

func TestPaperStateSettle(t *testing.T) {
	s := NewPaperState(100)

	s.Settle(10, false)
	s.Settle(10, false)
	balance, losses, _ := s.Snapshot(1700000000000)
	if balance != 80 || losses != 2 {
		t.Fatalf("expected 80 balance / 2 losses, got %v / %d", balance, losses)
	}

	s.Settle(10, true)
	balance, losses, _ = s.Snapshot(1700000000000)
	if balance != 90 || losses != 0 {
		t.Fatalf("win must reset the streak, got %v / %d", balance, losses)
	}
}

func TestPaperStateStats(t *testing.T) {
	s := NewPaperState(100)
	ts := int64(1700000000000)
	s.RecordDecision(ts, models.Decision{Signal: models.SignalSkip})
	s.RecordDecision(ts, models.Decision{Signal: models.SignalTrade, Position: 10})

	st := s.Stats()
	if st.TotalSignals != 2 || st.TradeSignals != 1 {
		t.Fatalf("unexpected counters: %+v", st)
	}
	if st.Balance != 100 {
		t.Fatalf("unexpected balance %v", st.Balance)
	}
}

func TestOnCandleClosedTradeAndSettle(t *testing.T) {
	candles := testCandles(60)
	store := &fakeCandleStore{candles: candles[:59]}
	state := NewPaperState(1000)
	engine := risk.NewEngine(risk.DefaultParams())
	signals := NewSignalUseCase(store, &fakeProbStore{}, fixedPredictor(0.9), engine, features.DefaultParams(), state, nopMetrics{})
	trades := &fakeTradeStore{}
	uc := NewPaperTradingUseCase(signals, trades, state, testLogger(t))

	if err := uc.OnCandleClosed(context.Background(), &candles[58]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades.trades) != 1 {
		t.Fatalf("expected one stored decision, got %d", len(trades.trades))
	}
	first := trades.trades[0]
	if first.Signal != models.SignalTrade {
		t.Fatalf("expected TRADE at 0.4 edge, got %s (%s)", first.Signal, first.Reason)
	}
	if first.Position != 10 {
		t.Fatalf("expected capped position 10, got %v", first.Position)
	}

	// the next close settles the open position; candle 59 closes higher
	// than candle 58, so the trade wins
	store.candles = candles
	if err := uc.OnCandleClosed(context.Background(), &candles[59]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := state.Stats()
	if st.Balance != 1010 {
		t.Fatalf("expected settled balance 1010, got %v", st.Balance)
	}
	if st.TradeSignals != 2 {
		t.Fatalf("expected two trade signals, got %d", st.TradeSignals)
	}
}
