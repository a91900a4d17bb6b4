package models

// Candle represents one 5-minute OHLCV kline keyed by its open time in
// milliseconds since epoch. Candles are immutable once collected.
type Candle struct {
	OpenTime int64 // ms since epoch, unique, ascending
	Symbol   string
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// MarketProb is the market-implied "up" probability for the 5-minute
// window opening at OpenTime, taken from the prediction market's yes-price.
type MarketProb struct {
	OpenTime int64
	MarketID string
	Slug     string
	YesPrice float64
	NoPrice  float64
}

// Tick is a single trade print from the live kline stream before it is
// bucketed into candles.
type Tick struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}
