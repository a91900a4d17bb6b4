package middleware

import (
	"context"
	"errors"
	"testing"

	"BtcEdge/internal/domain/models"
)

type recordingProc struct {
	got  []*models.Candle
	fail bool
}

func (p *recordingProc) Process(_ context.Context, c *models.Candle) error {
	if p.fail {
		return errors.New("downstream unavailable")
	}
	p.got = append(p.got, c)
	return nil
}

type countingMetrics struct {
	errors map[string]int
}

func (m *countingMetrics) RecordMessageSent(string, string) {}
func (m *countingMetrics) RecordError(kind string) {
	if m.errors == nil {
		m.errors = make(map[string]int)
	}
	m.errors[kind]++
}
func (m *countingMetrics) RecordLastPrice(string, float64) {}
func (m *countingMetrics) RecordLatency(string, float64)   {}
func (m *countingMetrics) RecordDecision(string, string)   {}
func (m *countingMetrics) RecordProbFallback()             {}

func validTestCandle(openTime int64) *models.Candle {
	return &models.Candle{
		OpenTime: openTime,
		Symbol:   "BTCUSDT",
		Open:     50000,
		High:     50100,
		Low:      49900,
		Close:    50050,
		Volume:   12,
	}
}

func TestPipelineRejectsInvalidCandle(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, &countingMetrics{})

	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil candle")
	}
	bad := validTestCandle(1700000000000)
	bad.High, bad.Low = bad.Low, bad.High
	if err := p.Process(context.Background(), bad); err == nil {
		t.Fatalf("expected error for high below low")
	}
	if len(proc.got) != 0 {
		t.Fatalf("invalid candles must not reach downstream")
	}
}

func TestPipelineDeduplicatesByOpenTime(t *testing.T) {
	proc := &recordingProc{}
	m := &countingMetrics{}
	p := NewRealtimePipeline(proc, m)

	c := validTestCandle(1700000000000)
	if err := p.Process(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// same open time again: dropped without error
	if err := p.Process(context.Background(), validTestCandle(1700000000000)); err != nil {
		t.Fatalf("duplicate must be dropped silently, got %v", err)
	}
	// older frame: also dropped
	if err := p.Process(context.Background(), validTestCandle(1699999700000)); err != nil {
		t.Fatalf("stale frame must be dropped silently, got %v", err)
	}
	if len(proc.got) != 1 {
		t.Fatalf("expected 1 accepted candle, got %d", len(proc.got))
	}
	if m.errors["pipeline_duplicate"] != 2 {
		t.Fatalf("expected 2 duplicate drops, got %d", m.errors["pipeline_duplicate"])
	}
}

func TestPipelineFanOut(t *testing.T) {
	proc := &recordingProc{}
	var seen []*models.Candle
	p := NewRealtimePipeline(proc, &countingMetrics{},
		WithOnCandle(func(_ context.Context, c *models.Candle) { seen = append(seen, c) }),
	)

	if err := p.Process(context.Background(), validTestCandle(1700000000000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("expected fan-out to fire once, got %d", len(seen))
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &recordingProc{fail: true}
	p := NewRealtimePipeline(proc, &countingMetrics{}, WithBufferSize(4))

	if err := p.Process(context.Background(), validTestCandle(1700000000000)); err == nil {
		t.Fatalf("expected downstream error to surface")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("expected candle buffered for retry, got %d", len(p.bufCh))
	}
}

func TestPipelineTransform(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, &countingMetrics{},
		WithTransform(func(c *models.Candle) *models.Candle {
			c.Symbol = "BTCUSDT"
			return c
		}),
	)

	c := validTestCandle(1700000000000)
	c.Symbol = "btcusdt"
	if err := p.Process(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proc.got) != 1 || proc.got[0].Symbol != "BTCUSDT" {
		t.Fatalf("transform not applied")
	}
}
