package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"BtcEdge/internal/domain/models"
	"BtcEdge/internal/domain/repository"
	pkgkafka "BtcEdge/pkg/kafka"
)

// ClickHouseStorage implements candle Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse candle storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, c *models.Candle) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, open_time_ms, symbol, open, high, low, close, volume, source) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		time.UnixMilli(c.OpenTime),
		c.OpenTime,
		c.Symbol,
		c.Open,
		c.High,
		c.Low,
		c.Close,
		c.Volume,
		"binance",
	)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, candles []*models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	// Chunk size tuned to 2000 rows per batch.
	const chunkSize = 2000
	for start := 0; start < len(candles); start += chunkSize {
		end := start + chunkSize
		if end > len(candles) {
			end = len(candles)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for _, c := range candles[start:end] {
			if c == nil || c.Symbol == "" || c.OpenTime == 0 {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				time.UnixMilli(c.OpenTime),
				c.OpenTime,
				c.Symbol,
				c.Open,
				c.High,
				c.Low,
				c.Close,
				c.Volume,
				"binance",
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, open_time_ms, symbol, open, high, low, close, volume, source) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Candle, error) {
	q := fmt.Sprintf("SELECT open_time_ms, symbol, open, high, low, close, volume FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []*models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.OpenTime, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		candles = append(candles, &c)
	}
	return candles, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func candlePayload(c *models.Candle) map[string]interface{} {
	return map[string]interface{}{
		"symbol": c.Symbol,
		"t":      c.OpenTime,
		"o":      c.Open,
		"h":      c.High,
		"l":      c.Low,
		"c":      c.Close,
		"v":      c.Volume,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, c *models.Candle) error {
	return p.producer.Publish(ctx, p.topic, []byte(c.Symbol), candlePayload(c))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, candles []*models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(candles))
	for i, c := range candles {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(c.Symbol),
			Value: candlePayload(c),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
