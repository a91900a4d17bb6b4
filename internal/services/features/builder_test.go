package features

import (
	"math"
	"testing"

	"BtcEdge/internal/domain/models"
)

func syntheticCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	price := 50000.0
	for i := 0; i < n; i++ {
		// deterministic zig-zag so labels alternate and deltas are nonzero
		delta := 25.0
		if i%3 == 0 {
			delta = -40.0
		}
		price += delta
		out[i] = models.Candle{
			OpenTime: int64(1700000000000 + i*300000),
			Symbol:   "BTCUSDT",
			Open:     price - delta,
			High:     price + 10,
			Low:      price - delta - 10,
			Close:    price,
			Volume:   1000 + float64(i%7)*50,
		}
	}
	return out
}

func TestBuildTooFewCandles(t *testing.T) {
	m := DefaultParams().Build(syntheticCandles(1))
	if len(m.Rows) != 0 || len(m.Labels) != 0 || len(m.Timestamps) != 0 {
		t.Fatalf("expected empty matrix, got %d rows", len(m.Rows))
	}
}

func TestBuildWarmupAlignment(t *testing.T) {
	n := 60
	p := DefaultParams()
	candles := syntheticCandles(n)
	m := p.Build(candles)
	want := (n - 1) - p.Warmup()
	if len(m.Rows) != want {
		t.Fatalf("expected %d rows, got %d", want, len(m.Rows))
	}
	if len(m.Labels) != len(m.Rows) || len(m.Timestamps) != len(m.Rows) {
		t.Fatalf("misaligned outputs: %d rows, %d labels, %d timestamps",
			len(m.Rows), len(m.Labels), len(m.Timestamps))
	}
	for i, ts := range m.Timestamps {
		if ts != candles[p.Warmup()+i].OpenTime {
			t.Fatalf("timestamp mismatch at %d: %d", i, ts)
		}
	}
}

func TestBuildLabelCausality(t *testing.T) {
	candles := syntheticCandles(80)
	m := DefaultParams().Build(candles)
	for i, ts := range m.Timestamps {
		var cur, next float64
		for j, c := range candles {
			if c.OpenTime == ts {
				cur = c.Close
				next = candles[j+1].Close
				break
			}
		}
		want := 0
		if next > cur {
			want = 1
		}
		if m.Labels[i] != want {
			t.Fatalf("label mismatch at %d: got %d want %d", i, m.Labels[i], want)
		}
	}
}

func TestBuildRowWidthAndFiniteness(t *testing.T) {
	m := DefaultParams().Build(syntheticCandles(100))
	if len(m.Rows) == 0 {
		t.Fatalf("expected rows")
	}
	for i, row := range m.Rows {
		if len(row) != NumFeatures {
			t.Fatalf("row %d width %d", i, len(row))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("non-finite value at row %d col %d", i, j)
			}
		}
	}
}

func TestBuildEqualClosesLabelZero(t *testing.T) {
	p := DefaultParams()
	candles := syntheticCandles(60)
	// flatten a pair of closes past warm-up; equal closes must label 0
	idx := p.Warmup() + 2
	candles[idx+1].Close = candles[idx].Close
	m := p.Build(candles)
	for i, ts := range m.Timestamps {
		if ts == candles[idx].OpenTime {
			if m.Labels[i] != 0 {
				t.Fatalf("equal closes must label 0, got %d", m.Labels[i])
			}
			return
		}
	}
	t.Fatalf("target row not found")
}

func TestBuildCustomPeriods(t *testing.T) {
	p := Params{
		EMAFast:    5,
		EMASlow:    10,
		RSIPeriod:  7,
		MACDFast:   5,
		MACDSlow:   10,
		MACDSignal: 3,
		ATRPeriod:  7,
	}
	if got := p.Warmup(); got != 13 {
		t.Fatalf("warmup with custom periods: got %d want 13", got)
	}

	n := 40
	candles := syntheticCandles(n)
	m := p.Build(candles)
	want := (n - 1) - p.Warmup()
	if len(m.Rows) != want {
		t.Fatalf("expected %d rows, got %d", want, len(m.Rows))
	}

	// shorter periods must change the indicator columns
	def := DefaultParams().Build(syntheticCandles(60))
	if len(def.Rows) == 0 {
		t.Fatalf("expected default rows")
	}
	lastCustom := m.Rows[len(m.Rows)-1]
	lastDefault := def.Rows[len(def.Rows)-1]
	if lastCustom[1] == lastDefault[1] && lastCustom[2] == lastDefault[2] {
		t.Fatalf("EMA columns unchanged by custom periods")
	}
}

func TestNamesFollowPeriods(t *testing.T) {
	p := DefaultParams()
	names := p.Names()
	if len(names) != NumFeatures {
		t.Fatalf("expected %d names, got %d", NumFeatures, len(names))
	}
	if names[1] != "ema_9" || names[2] != "ema_21" {
		t.Fatalf("default EMA names: got %q %q", names[1], names[2])
	}

	p.EMAFast, p.EMASlow = 5, 34
	names = p.Names()
	if names[1] != "ema_5" || names[2] != "ema_34" {
		t.Fatalf("custom EMA names: got %q %q", names[1], names[2])
	}
}
