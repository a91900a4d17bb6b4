package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"BtcEdge/internal/domain/models"
	"BtcEdge/pkg/config"
	xhttp "BtcEdge/pkg/http"
)

// RESTClient fetches historical klines from the public Binance REST API.
// No API key is required for klines.
type RESTClient struct {
	baseURL  string
	symbol   string
	interval string
	limit    int
	client   *xhttp.Client
}

func NewRESTClient(cfg *config.Config) *RESTClient {
	return &RESTClient{
		baseURL:  cfg.Binance.BaseURL,
		symbol:   cfg.Binance.Symbol,
		interval: cfg.Binance.Interval,
		limit:    cfg.Binance.KlinesLimit,
		client:   xhttp.NewClient(),
	}
}

// FetchKlines fetches up to `limit` klines, optionally bounded by
// startTimeMs/endTimeMs (0 means unbounded). Binance kline array indices:
// 0 open_time, 1 open, 2 high, 3 low, 4 close, 5 volume, 6 close_time.
func (c *RESTClient) FetchKlines(ctx context.Context, startTimeMs, endTimeMs int64, limit int) ([]models.Candle, error) {
	if limit <= 0 || limit > c.limit {
		limit = c.limit
	}
	params := map[string][]string{
		"symbol":   {c.symbol},
		"interval": {c.interval},
		"limit":    {strconv.Itoa(limit)},
	}
	if startTimeMs > 0 {
		params["startTime"] = []string{strconv.FormatInt(startTimeMs, 10)}
	}
	if endTimeMs > 0 {
		params["endTime"] = []string{strconv.FormatInt(endTimeMs, 10)}
	}

	var raw []json.RawMessage
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/api/v3/klines",
		QueryParams: params,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("fetch klines: %w", err)
	}

	out := make([]models.Candle, 0, len(raw))
	for _, entry := range raw {
		var fields []json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil || len(fields) < 7 {
			continue
		}
		candle, err := parseKline(fields)
		if err != nil {
			continue
		}
		candle.Symbol = c.symbol
		out = append(out, candle)
	}
	return out, nil
}

// FetchKlinesRange pages through [startTimeMs, endTimeMs) in batches of the
// configured limit until the range is exhausted.
func (c *RESTClient) FetchKlinesRange(ctx context.Context, startTimeMs, endTimeMs int64) ([]models.Candle, error) {
	var all []models.Candle
	current := startTimeMs
	for current < endTimeMs {
		batch, err := c.FetchKlines(ctx, current, endTimeMs, c.limit)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		last := batch[len(batch)-1].OpenTime
		if last >= endTimeMs {
			break
		}
		current = last + 1
	}
	return all, nil
}

func parseKline(fields []json.RawMessage) (models.Candle, error) {
	var c models.Candle
	if err := json.Unmarshal(fields[0], &c.OpenTime); err != nil {
		return c, err
	}
	targets := []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
	for i, dst := range targets {
		var s string
		if err := json.Unmarshal(fields[i+1], &s); err != nil {
			return c, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return c, err
		}
		*dst = v
	}
	return c, nil
}
