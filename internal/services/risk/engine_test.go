package risk

import (
	"testing"

	"BtcEdge/internal/domain/models"
)

func TestPositionSizeCapped(t *testing.T) {
	e := NewEngine(DefaultParams())
	if got := e.PositionSize(50); got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
	if got := e.PositionSize(1000); got != 10 {
		t.Fatalf("expected cap 10, got %v", got)
	}
}

func TestHasEdgeThreshold(t *testing.T) {
	e := NewEngine(DefaultParams())
	if !e.HasEdge(0.56, 0.50) {
		t.Fatalf("edge exactly at threshold must pass")
	}
	if e.HasEdge(0.5599, 0.50) {
		t.Fatalf("edge below threshold must fail")
	}
}

func TestShouldStopOnDailyDrawdown(t *testing.T) {
	e := NewEngine(DefaultParams())
	if e.ShouldStopOnDailyDrawdown(0, 50) {
		t.Fatalf("non-positive day start never stops")
	}
	if !e.ShouldStopOnDailyDrawdown(100, 90) {
		t.Fatalf("10%% drawdown must stop")
	}
	if e.ShouldStopOnDailyDrawdown(100, 91) {
		t.Fatalf("9%% drawdown must not stop")
	}
}

func TestCanTradePrecedence(t *testing.T) {
	e := NewEngine(DefaultParams())

	// dust balance wins even with streak and drawdown both tripped
	ok, reason := e.CanTrade(0.005, 5, 100)
	if ok || reason != ReasonInsufficientBalance {
		t.Fatalf("expected insufficient balance, got %v %q", ok, reason)
	}

	// loss streak wins over drawdown with a healthy balance
	ok, reason = e.CanTrade(80, 2, 100)
	if ok || reason != ReasonLossStreak {
		t.Fatalf("expected loss streak, got %v %q", ok, reason)
	}

	ok, reason = e.CanTrade(85, 0, 100)
	if ok || reason != ReasonDailyDrawdown {
		t.Fatalf("expected daily drawdown, got %v %q", ok, reason)
	}

	// tiny but non-dust balance sizes below dust
	ok, reason = e.CanTrade(0.05, 0, 0)
	if ok || reason != ReasonPositionTooSmall {
		t.Fatalf("expected position too small, got %v %q", ok, reason)
	}

	ok, reason = e.CanTrade(100, 0, 100)
	if !ok || reason != ReasonOK {
		t.Fatalf("expected ok, got %v %q", ok, reason)
	}
}

func TestGenerateSignal(t *testing.T) {
	e := NewEngine(DefaultParams())

	d := e.GenerateSignal(0.70, 0.50, 100, 0, 0)
	if d.Signal != models.SignalTrade || d.Position != 10 || d.Reason != ReasonOK {
		t.Fatalf("unexpected decision %+v", d)
	}

	d = e.GenerateSignal(0.52, 0.50, 100, 0, 0)
	if d.Signal != models.SignalSkip || d.Reason != ReasonNoEdge || d.Position != 0 {
		t.Fatalf("expected no-edge skip, got %+v", d)
	}

	// stop checks run before the edge check
	d = e.GenerateSignal(0.90, 0.50, 100, 2, 0)
	if d.Signal != models.SignalSkip || d.Reason != ReasonLossStreak {
		t.Fatalf("expected loss-streak skip, got %+v", d)
	}
}
