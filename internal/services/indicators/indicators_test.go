package indicators

import (
	"math"
	"testing"
)

func TestEMASeed(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	out := EMA(values, 3)
	for i := 0; i < 2; i++ {
		if !math.IsNaN(out[i]) {
			t.Fatalf("expected NaN at %d, got %v", i, out[i])
		}
	}
	if out[2] != 2 {
		t.Fatalf("expected seed 2, got %v", out[2])
	}
	// k = 2/(3+1) = 0.5
	want := (4.0-2.0)*0.5 + 2.0
	if out[3] != want {
		t.Fatalf("expected %v, got %v", want, out[3])
	}
}

func TestEMAShortSeries(t *testing.T) {
	out := EMA([]float64{1, 2}, 5)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Fatalf("expected NaN at %d, got %v", i, v)
		}
	}
}

func TestRSIAllGains(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	out := RSI(values, 3)
	for i := 0; i < 3; i++ {
		if !math.IsNaN(out[i]) {
			t.Fatalf("expected NaN at %d, got %v", i, out[i])
		}
	}
	for i := 3; i < len(out); i++ {
		if out[i] != 100 {
			t.Fatalf("expected 100 at %d, got %v", i, out[i])
		}
	}
}

func TestRSIBounds(t *testing.T) {
	values := []float64{44, 47, 45, 50, 43, 48, 46, 52, 41, 49, 45, 47, 44, 50, 46, 48}
	out := RSI(values, 14)
	for i, v := range out {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("rsi out of bounds at %d: %v", i, v)
		}
	}
	if math.IsNaN(out[14]) {
		t.Fatalf("expected defined rsi at seed index")
	}
}

func TestMACDSignalFillsNaN(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	line, sig, hist := MACD(values, 12, 26, 9)
	if !math.IsNaN(line[24]) {
		t.Fatalf("expected NaN macd line before slow period")
	}
	if math.IsNaN(line[25]) {
		t.Fatalf("expected defined macd line at slow seed")
	}
	// signal EMA smooths over the zero-filled line, defined from index 8
	if math.IsNaN(sig[8]) {
		t.Fatalf("expected defined signal at index 8")
	}
	for i := 26; i < len(values); i++ {
		want := line[i] - sig[i]
		if math.Abs(hist[i]-want) > 1e-12 {
			t.Fatalf("hist mismatch at %d: %v != %v", i, hist[i], want)
		}
	}
}

func TestATRSeedAndSmoothing(t *testing.T) {
	high := []float64{12, 13, 14, 15, 16}
	low := []float64{10, 11, 12, 13, 14}
	close := []float64{11, 12, 13, 14, 15}
	out := ATR(high, low, close, 3)
	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Fatalf("expected NaN before seed")
	}
	// tr[0] = max(2, |12-11|, |10-11|) = 2; tr[1] = max(2, |13-11|, |11-11|) = 2; same for the rest
	if out[2] != 2 {
		t.Fatalf("expected seed 2, got %v", out[2])
	}
	if out[3] != 2 {
		t.Fatalf("expected smoothed 2, got %v", out[3])
	}
}

func TestReturnsEpsilonGuard(t *testing.T) {
	out := Returns([]float64{0, 5, 10})
	if out[0] != 0 {
		t.Fatalf("expected leading 0, got %v", out[0])
	}
	if math.IsInf(out[1], 0) || math.IsNaN(out[1]) {
		t.Fatalf("expected finite return with zero denominator, got %v", out[1])
	}
	if out[2] != 1 {
		t.Fatalf("expected 1, got %v", out[2])
	}
}

func TestDiffLeadingZero(t *testing.T) {
	out := Diff([]float64{3, 5, 4})
	if out[0] != 0 || out[1] != 2 || out[2] != -1 {
		t.Fatalf("unexpected diff %v", out)
	}
}
