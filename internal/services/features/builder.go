package features

import (
	"fmt"
	"math"

	"BtcEdge/internal/domain/models"
	"BtcEdge/internal/services/indicators"
)

// NumFeatures is the width of every feature row.
const NumFeatures = 10

// Params holds the indicator periods of the feature set. The zero value is
// unusable, construct via DefaultParams and override fields as needed.
type Params struct {
	EMAFast    int
	EMASlow    int
	RSIPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	ATRPeriod  int
}

func DefaultParams() Params {
	return Params{
		EMAFast:    9,
		EMASlow:    21,
		RSIPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		ATRPeriod:  14,
	}
}

// Warmup is the number of leading bars that cannot produce a valid feature
// row: the slowest indicator chain wins, usually the MACD signal line.
func (p Params) Warmup() int {
	w := p.EMASlow
	if p.RSIPeriod > w {
		w = p.RSIPeriod
	}
	if p.MACDSlow+p.MACDSignal > w {
		w = p.MACDSlow + p.MACDSignal
	}
	if p.ATRPeriod > w {
		w = p.ATRPeriod
	}
	return w
}

// Names returns the ordered column names of the feature matrix. The EMA
// columns carry their periods so the model contract follows the config.
func (p Params) Names() []string {
	return []string{
		"return_5m",
		fmt.Sprintf("ema_%d", p.EMAFast),
		fmt.Sprintf("ema_%d", p.EMASlow),
		"ema_slope",
		"rsi",
		"macd_line",
		"macd_signal",
		"macd_hist",
		"atr",
		"vol_change",
	}
}

// Matrix holds aligned feature rows, labels and bar open times. All three
// slices always have equal length and ascending time order.
type Matrix struct {
	Rows       [][]float64
	Labels     []int
	Timestamps []int64
}

// Build assembles the feature matrix and causal labels from an ordered
// candle sequence. The label for bar i is 1 when close[i+1] > close[i].
// Rows before warm-up, the final bar (no label) and any row containing a
// non-finite value are dropped; labels and timestamps are filtered in
// lockstep. Fewer than two candles yields an empty matrix.
func (p Params) Build(candles []models.Candle) Matrix {
	if len(candles) < 2 {
		return Matrix{}
	}
	n := len(candles)
	high := make([]float64, n)
	low := make([]float64, n)
	close := make([]float64, n)
	volume := make([]float64, n)
	for i, c := range candles {
		high[i] = c.High
		low[i] = c.Low
		close[i] = c.Close
		volume[i] = c.Volume
	}

	returns := indicators.Returns(close)
	emaFast := indicators.EMA(close, p.EMAFast)
	emaSlow := indicators.EMA(close, p.EMASlow)
	emaSlope := indicators.Diff(emaFast)
	rsi := indicators.RSI(close, p.RSIPeriod)
	macdLine, macdSig, macdHist := indicators.MACD(close, p.MACDFast, p.MACDSlow, p.MACDSignal)
	atr := indicators.ATR(high, low, close, p.ATRPeriod)
	volChange := indicators.Returns(volume)

	start := p.Warmup()
	end := n - 1 // the last bar has no next close to label against
	if start >= end {
		return Matrix{}
	}

	m := Matrix{
		Rows:       make([][]float64, 0, end-start),
		Labels:     make([]int, 0, end-start),
		Timestamps: make([]int64, 0, end-start),
	}
	for i := start; i < end; i++ {
		row := []float64{
			returns[i],
			emaFast[i],
			emaSlow[i],
			emaSlope[i],
			rsi[i],
			macdLine[i],
			macdSig[i],
			macdHist[i],
			atr[i],
			volChange[i],
		}
		if !rowFinite(row) {
			continue
		}
		label := 0
		if close[i+1] > close[i] {
			label = 1
		}
		m.Rows = append(m.Rows, row)
		m.Labels = append(m.Labels, label)
		m.Timestamps = append(m.Timestamps, candles[i].OpenTime)
	}
	return m
}

func rowFinite(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
