package indicators

import "math"

const epsilon = 1e-10

// EMA computes the exponential moving average with the given period.
// Entries before index period-1 are NaN; the seed at index period-1 is the
// simple mean of the first period values, then ema[i] = (x[i]-ema[i-1])*k + ema[i-1]
// with k = 2/(period+1). Returns all-NaN when the series is shorter than period.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[period-1] = sum / float64(period)
	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// RSI computes the relative strength index using Wilder smoothing.
// The seed averages at index period are simple means of the first period
// gains/losses; RSI is 100 when the average loss is zero.
func RSI(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period+1 {
		return out
	}
	gains := make([]float64, len(values)-1)
	losses := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		if d > 0 {
			gains[i-1] = d
		} else {
			losses[i-1] = -d
		}
	}
	avgGain := 0.0
	avgLoss := 0.0
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)
	for i := period + 1; i < len(values); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i-1]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i-1]) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD computes the MACD line (fast EMA - slow EMA), the signal line (EMA of
// the MACD line with NaN treated as 0 before smoothing) and the histogram
// (line - signal).
func MACD(values []float64, fast, slow, signal int) (line, sig, hist []float64) {
	emaFast := EMA(values, fast)
	emaSlow := EMA(values, slow)
	line = nanSlice(len(values))
	for i := range values {
		line[i] = emaFast[i] - emaSlow[i]
	}
	filled := make([]float64, len(line))
	for i, v := range line {
		if math.IsNaN(v) {
			filled[i] = 0
		} else {
			filled[i] = v
		}
	}
	sig = EMA(filled, signal)
	hist = nanSlice(len(values))
	for i := range values {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}

// ATR computes the average true range over high/low/close series using
// Wilder smoothing. The previous close for the first bar is the first close,
// the seed at index period-1 is the simple mean of the first period true
// ranges.
func ATR(high, low, close []float64, period int) []float64 {
	n := len(close)
	out := nanSlice(n)
	if period <= 0 || n < period {
		return out
	}
	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		prevClose := close[0]
		if i > 0 {
			prevClose = close[i-1]
		}
		tr[i] = math.Max(high[i]-low[i], math.Max(math.Abs(high[i]-prevClose), math.Abs(low[i]-prevClose)))
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	out[period-1] = sum / float64(period)
	for i := period; i < n; i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}

// Returns computes simple fractional returns (x[i]-x[i-1])/x[i-1] with the
// first element 0 and an epsilon guard against zero denominators.
func Returns(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			prev = epsilon
		}
		out[i] = (values[i] - values[i-1]) / prev
	}
	return out
}

// Diff computes the first difference with a leading 0. NaN inputs propagate.
func Diff(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		out[i] = values[i] - values[i-1]
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
