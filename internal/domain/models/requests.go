package models

// Requests for the HTTP API. Defined in domain for consistency and reuse.

type SignalRequest struct {
	Symbol string `query:"symbol" json:"symbol" default:"BTCUSDT"`
	N      int    `query:"n" json:"n" default:"600" validate:"gte=40,lte=5000"`
}

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" default:"BTCUSDT"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	TF     string `query:"tf" json:"tf" default:"5m"`
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=50000"`
}

type BacktestRequest struct {
	Symbol         string  `query:"symbol" json:"symbol" default:"BTCUSDT"`
	Limit          int     `query:"limit" json:"limit" default:"5000" validate:"gte=2,lte=50000"`
	InitialBalance float64 `query:"initial_balance" json:"initial_balance" default:"100" validate:"gt=0"`
}

type BacktestStatusRequest struct {
	ID string `param:"id" json:"id" validate:"required"`
}

type PaperTradesRequest struct {
	From  string `query:"from" json:"from"`
	To    string `query:"to" json:"to"`
	Limit int    `query:"limit" json:"limit" default:"200" validate:"gte=1,lte=5000"`
}
