package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"BtcEdge/pkg/config"
	xhttp "BtcEdge/pkg/http"
	"BtcEdge/pkg/logger"
)

// Market is one active BTC up/down market discovered via the Gamma API.
type Market struct {
	MarketID   string
	Slug       string
	Question   string
	YesTokenID string
	NoTokenID  string
	YesPrice   float64
	NoPrice    float64
	StartDate  string
	EndDate    string
}

// Prices is a live price snapshot for one market, CLOB first with a Gamma
// outcome-price fallback.
type Prices struct {
	MarketID   string
	Slug       string
	YesTokenID string
	NoTokenID  string
	YesPrice   float64
	NoPrice    float64
}

// Client discovers markets via the Gamma API and reads live prices from the
// CLOB.
type Client struct {
	gammaURL    string
	clobURL     string
	slugPattern *regexp.Regexp
	client      *xhttp.Client
	log         *logger.Logger
}

func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	timeout := cfg.Polymarket.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		gammaURL:    cfg.Polymarket.GammaURL,
		clobURL:     cfg.Polymarket.ClobURL,
		slugPattern: regexp.MustCompile(`(?i)btc[-_]?updown[-_]?5m|btc[-_]?5m`),
		client:      xhttp.NewClient(xhttp.WithTimeout(timeout)),
		log:         log,
	}
}

type gammaEvent struct {
	Slug    string        `json:"slug"`
	Title   string        `json:"title"`
	Markets []gammaMarket `json:"markets"`
}

type gammaMarket struct {
	ID            json.Number `json:"id"`
	Slug          string      `json:"slug"`
	Question      string      `json:"question"`
	Active        bool        `json:"active"`
	Closed        bool        `json:"closed"`
	ClobTokenIDs  string      `json:"clobTokenIds"`
	OutcomePrices string      `json:"outcomePrices"`
	StartDate     string      `json:"startDate"`
	EndDate       string      `json:"endDate"`
}

// FetchBTC5mMarkets lists active BTC 5-minute up/down markets.
func (c *Client) FetchBTC5mMarkets(ctx context.Context) ([]Market, error) {
	var events []gammaEvent
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.gammaURL + "/events",
		QueryParams: map[string][]string{
			"active": {"true"},
			"closed": {"false"},
			"limit":  {"200"},
		},
	}, &events)
	if err != nil {
		return nil, fmt.Errorf("gamma events: %w", err)
	}

	var markets []Market
	for _, ev := range events {
		title := strings.ToLower(ev.Title)
		if !c.slugPattern.MatchString(ev.Slug) &&
			!(strings.Contains(title, "bitcoin") && strings.Contains(title, "5") && strings.Contains(title, "min")) {
			continue
		}
		for _, m := range ev.Markets {
			if !m.Active || m.Closed {
				continue
			}
			slug := m.Slug
			if slug == "" {
				slug = ev.Slug
			}
			yesID, noID := parseTokenIDs(m.ClobTokenIDs)
			yesPrice, noPrice := parsePrices(m.OutcomePrices)
			markets = append(markets, Market{
				MarketID:   m.ID.String(),
				Slug:       slug,
				Question:   m.Question,
				YesTokenID: yesID,
				NoTokenID:  noID,
				YesPrice:   yesPrice,
				NoPrice:    noPrice,
				StartDate:  m.StartDate,
				EndDate:    m.EndDate,
			})
		}
	}
	c.log.Debug("polymarket markets discovered", logger.Int("count", len(markets)))
	return markets, nil
}

type clobPriceResp struct {
	Price string `json:"price"`
}

// FetchClobPrice reads the current buy price for a token from the CLOB.
func (c *Client) FetchClobPrice(ctx context.Context, tokenID string) (float64, error) {
	var resp clobPriceResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.clobURL + "/price",
		QueryParams: map[string][]string{
			"token_id": {tokenID},
			"side":     {"buy"},
		},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("clob price: %w", err)
	}
	p, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("clob price parse: %w", err)
	}
	return p, nil
}

// FetchMarketPrices resolves live prices for a market, preferring CLOB and
// falling back to the Gamma outcome prices. A missing side is derived as the
// complement of the other.
func (c *Client) FetchMarketPrices(ctx context.Context, m Market) (Prices, bool) {
	yesPrice, noPrice := m.YesPrice, m.NoPrice

	if m.YesTokenID != "" {
		if p, err := c.FetchClobPrice(ctx, m.YesTokenID); err == nil {
			yesPrice = p
		} else {
			c.log.Warn("clob yes price failed", logger.String("market", m.MarketID), logger.Error(err))
		}
	}
	if m.NoTokenID != "" {
		if p, err := c.FetchClobPrice(ctx, m.NoTokenID); err == nil {
			noPrice = p
		} else {
			c.log.Warn("clob no price failed", logger.String("market", m.MarketID), logger.Error(err))
		}
	}

	if yesPrice == 0 && noPrice == 0 {
		return Prices{}, false
	}
	if yesPrice == 0 {
		yesPrice = 1 - noPrice
	}
	if noPrice == 0 {
		noPrice = 1 - yesPrice
	}

	return Prices{
		MarketID:   m.MarketID,
		Slug:       m.Slug,
		YesTokenID: m.YesTokenID,
		NoTokenID:  m.NoTokenID,
		YesPrice:   yesPrice,
		NoPrice:    noPrice,
	}, true
}

func parseTokenIDs(raw string) (yes, no string) {
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil || len(ids) < 2 {
		return "", ""
	}
	return ids[0], ids[1]
}

func parsePrices(raw string) (yes, no float64) {
	var prices []string
	if err := json.Unmarshal([]byte(raw), &prices); err != nil || len(prices) < 2 {
		return 0, 0
	}
	y, errY := strconv.ParseFloat(prices[0], 64)
	n, errN := strconv.ParseFloat(prices[1], 64)
	if errY != nil || errN != nil {
		return 0, 0
	}
	return y, n
}
