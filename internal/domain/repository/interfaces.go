package repository

import (
	"context"
	"time"

	"BtcEdge/internal/domain/models"
)

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Candle, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Publisher interface {
	Publish(ctx context.Context, c *models.Candle) error
	PublishBatch(ctx context.Context, candles []*models.Candle) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, c *models.Candle) error
	StoreBatch(ctx context.Context, candles []*models.Candle) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Candle, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordDecision(signal, reason string)
	RecordProbFallback()
}
