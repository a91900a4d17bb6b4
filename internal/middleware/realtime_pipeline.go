package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"BtcEdge/internal/domain/models"
	domrepo "BtcEdge/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, c *models.Candle) error
}

// RealtimePipeline sits between the kline stream and the storage backend.
// It validates, deduplicates, optionally transforms, buffers when downstream
// is unavailable, and fans out closed candles to subscribers.
type RealtimePipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	bufSize  int
	bufCh    chan *models.Candle
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]int64 // per-symbol last accepted open time
	// simple format transform hook (optional)
	transform func(*models.Candle) *models.Candle
	// fan-out hook for the live decision path (optional)
	onCandle func(ctx context.Context, c *models.Candle)
	// metrics
	bufDepthGauge func(int)
}

type PipelineOption func(*RealtimePipeline)

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a transformation hook to modify candle format.
func WithTransform(fn func(*models.Candle) *models.Candle) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

// WithOnCandle registers a subscriber invoked after a candle is accepted.
func WithOnCandle(fn func(ctx context.Context, c *models.Candle)) PipelineOption {
	return func(p *RealtimePipeline) { p.onCandle = fn }
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:     proc,
		metrics:  metrics,
		bufSize:  1000, // default buffer
		bufCh:    make(chan *models.Candle, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.Candle, p.bufSize)
	}
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	return p
}

// Start launches background flushing of buffered candles.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case c := <-p.bufCh:
				if c == nil {
					continue
				}
				if err := p.proc.Process(ctx, c); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- c:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, deduplicates, and forwards the candle downstream,
// buffering on errors.
func (p *RealtimePipeline) Process(ctx context.Context, c *models.Candle) error {
	start := time.Now()
	if err := validateCandle(c); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		c = p.transform(c)
		if err := validateCandle(c); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.accept(c.Symbol, c.OpenTime) {
		// duplicate or out-of-order kline frame; drop silently
		p.metrics.RecordError("pipeline_duplicate")
		return nil
	}

	if err := p.proc.Process(ctx, c); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- c:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	if p.onCandle != nil {
		p.onCandle(ctx, c)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateCandle(c *models.Candle) error {
	if c == nil {
		return fmt.Errorf("candle nil")
	}
	if c.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if c.OpenTime <= 0 {
		return fmt.Errorf("open time invalid")
	}
	if c.Volume < 0 || c.Open < 0 || c.High < 0 || c.Low < 0 || c.Close < 0 {
		return fmt.Errorf("negative price/volume")
	}
	if c.High < c.Low {
		return fmt.Errorf("high below low")
	}
	return nil
}

// accept admits only candles strictly newer than the last accepted open
// time for the symbol.
func (p *RealtimePipeline) accept(symbol string, openTime int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if openTime <= p.lastSeen[symbol] {
		return false
	}
	p.lastSeen[symbol] = openTime
	return true
}
