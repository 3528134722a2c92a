package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the assistant.
type Metrics struct {
	RequestTotal           *prometheus.CounterVec
	RequestDurationMs      *prometheus.HistogramVec
	TokensTotal            *prometheus.CounterVec
	FilterActionTotal      *prometheus.CounterVec
	GenerationAttemptTotal *prometheus.CounterVec
	FallbackTotal          *prometheus.CounterVec
	RateLimitHitTotal      prometheus.Counter
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shipsense_request_total",
			Help: "Total number of requests handled, by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),

		RequestDurationMs: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shipsense_request_duration_ms",
			Help:    "Request duration in milliseconds, including model latency.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
		}, []string{"endpoint"}),

		TokensTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shipsense_tokens_total",
			Help: "Tokens counted for chat requests.",
		}, []string{"model", "direction"}),

		FilterActionTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shipsense_filter_action_total",
			Help: "Total filter actions taken.",
		}, []string{"filter", "action"}),

		GenerationAttemptTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shipsense_generation_attempt_total",
			Help: "Calls to the generation API, by endpoint and result (text, empty, error).",
		}, []string{"endpoint", "result"}),

		FallbackTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shipsense_fallback_total",
			Help: "Replies that used a canned fallback artifact.",
		}, []string{"endpoint"}),

		RateLimitHitTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "shipsense_rate_limit_hit_total",
			Help: "Requests rejected by the per-client rate limit.",
		}),
	}
}

// RecordRequest records metrics for a completed request.
func (m *Metrics) RecordRequest(labels RequestLabels) {
	m.RequestTotal.WithLabelValues(labels.Endpoint, labels.Outcome).Inc()
	m.RequestDurationMs.WithLabelValues(labels.Endpoint).Observe(labels.DurationMs)

	if labels.InputTokens > 0 {
		m.TokensTotal.WithLabelValues(labels.Model, "input").Add(float64(labels.InputTokens))
	}
	if labels.OutputTokens > 0 {
		m.TokensTotal.WithLabelValues(labels.Model, "output").Add(float64(labels.OutputTokens))
	}
}

// RecordFilterAction records a filter action metric.
func (m *Metrics) RecordFilterAction(filter, action string) {
	m.FilterActionTotal.WithLabelValues(filter, action).Inc()
}

// RecordAttempt records one call to the generation API.
func (m *Metrics) RecordAttempt(endpoint, result string) {
	m.GenerationAttemptTotal.WithLabelValues(endpoint, result).Inc()
}

// RecordFallback records a reply built from a canned artifact.
func (m *Metrics) RecordFallback(endpoint string) {
	m.FallbackTotal.WithLabelValues(endpoint).Inc()
}

// RecordRateLimitHit records a rejected request.
func (m *Metrics) RecordRateLimitHit() {
	m.RateLimitHitTotal.Inc()
}

// RequestLabels holds the label values for recording a request.
type RequestLabels struct {
	Endpoint     string
	Model        string
	Outcome      string
	DurationMs   float64
	InputTokens  int
	OutputTokens int
}
