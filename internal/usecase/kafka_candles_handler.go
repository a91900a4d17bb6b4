package usecase

import (
	"context"
	"encoding/json"
	"time"

	"BtcEdge/internal/domain/models"
	domrepo "BtcEdge/internal/domain/repository"
	pkgkafka "BtcEdge/pkg/kafka"
)

// KafkaCandlesHandler consumes candle messages and writes to storage.
type KafkaCandlesHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaCandlesHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaCandlesHandler {
	return &KafkaCandlesHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaCandlesHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, o, h, l, c, v} with t in ms
func (h *KafkaCandlesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		O      float64 `json:"o"`
		H      float64 `json:"h"`
		L      float64 `json:"l"`
		C      float64 `json:"c"`
		V      float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	// E2E latency from candle open to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.UnixMilli(m.T)).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &models.Candle{
		OpenTime: m.T,
		Symbol:   m.Symbol,
		Open:     m.O,
		High:     m.H,
		Low:      m.L,
		Close:    m.C,
		Volume:   m.V,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", m.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaCandlesHandler)(nil)
