package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	messagesSent  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	decisions     *prometheus.CounterVec
	probFallbacks prometheus.Counter
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "btcedge_messages_sent_total",
				Help: "Total number of candles sent to backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "btcedge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "btcedge_last_close",
				Help: "Last recorded close price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "btcedge_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "btcedge_decisions_total",
				Help: "Live decisions by signal and reason",
			},
			[]string{"signal", "reason"},
		),
		probFallbacks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "btcedge_market_prob_fallbacks_total",
				Help: "Bars decided with the 0.5 fallback market probability",
			},
		),
	}
}

// RecordMessageSent records a candle sent to a backend.
func (r *Recorder) RecordMessageSent(backend, symbol string) {
	r.messagesSent.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last close price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordDecision counts a live decision by signal and reason.
func (r *Recorder) RecordDecision(signal, reason string) {
	r.decisions.WithLabelValues(signal, reason).Inc()
}

// RecordProbFallback counts a missing market quote substituted with 0.5.
func (r *Recorder) RecordProbFallback() {
	r.probFallbacks.Inc()
}
