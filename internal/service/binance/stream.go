package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"BtcEdge/internal/domain/models"
	drepo "BtcEdge/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Stream implements a MarketStream backed by the Binance kline WebSocket.
// It emits one Candle per closed kline.
type Stream struct {
	websocketURL   string
	symbol         string
	interval       string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new Binance kline MarketStream.
func New(websocketURL, symbol, interval string, reconnectDelay, pingInterval time.Duration) drepo.MarketStream {
	return &Stream{
		websocketURL:   websocketURL,
		symbol:         symbol,
		interval:       interval,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	log.Printf("binance: connected")
	return nil
}

// Subscribe subscribes to the configured kline stream.
func (s *Stream) Subscribe(ctx context.Context) error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("binance not connected")
	}
	stream := fmt.Sprintf("%s@kline_%s", strings.ToLower(s.symbol), s.interval)
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": []string{stream},
		"id":     1,
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe %s: %w", stream, err)
	}
	log.Printf("binance: subscribed %s", stream)
	return nil
}

type wsKline struct {
	OpenTime int64  `json:"t"`
	Symbol   string `json:"s"`
	Open     string `json:"o"`
	High     string `json:"h"`
	Low      string `json:"l"`
	Close    string `json:"c"`
	Volume   string `json:"v"`
	IsClosed bool   `json:"x"`
}

type wsMessage struct {
	EventType string  `json:"e"`
	Kline     wsKline `json:"k"`
}

// Read streams closed candles and errors.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Candle, <-chan error) {
	candles := make(chan *models.Candle, 256)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(candles)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("binance conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-kline frames (subscribe acks etc.)
					continue
				}
				if m.EventType != "kline" || !m.Kline.IsClosed {
					continue
				}
				c, err := m.Kline.toCandle()
				if err != nil {
					continue
				}
				select {
				case candles <- c:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return candles, errs
}

func (k wsKline) toCandle() (*models.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return nil, err
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return nil, err
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return nil, err
	}
	closeP, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return nil, err
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return nil, err
	}
	return &models.Candle{
		OpenTime: k.OpenTime,
		Symbol:   k.Symbol,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closeP,
		Volume:   volume,
	}, nil
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected }
