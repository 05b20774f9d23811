// Package observability wires metrics and tracing for the retrieval engine.
package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics Metrics = NoopMetrics{}
	metricsMu     sync.RWMutex
)

// Metrics records the engine's operational counters.
type Metrics interface {
	RecordQuery(mode string, duration time.Duration, err error)
	RecordVerticalSearch(vertical string, resultCount int, degraded bool)
	RecordLLMCall(model string, duration time.Duration, inputTokens, outputTokens int, err error)
	RecordCacheLookup(cache string, hit bool)
}

// PrometheusMetrics implements Metrics on prometheus collectors.
type PrometheusMetrics struct {
	queryDuration   *prometheus.HistogramVec
	queryTotal      *prometheus.CounterVec
	queryErrors     *prometheus.CounterVec
	verticalResults *prometheus.CounterVec
	verticalDegrade *prometheus.CounterVec
	llmDuration     *prometheus.HistogramVec
	llmTokens       *prometheus.CounterVec
	llmErrors       *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

// NewPrometheusMetrics registers the engine collectors on the given
// registerer (nil means the default registry).
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		queryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "policyengine_query_duration_seconds",
			Help:    "End-to-end query duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		queryTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policyengine_queries_total",
			Help: "Total queries processed",
		}, []string{"mode"}),
		queryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policyengine_query_errors_total",
			Help: "Total query failures",
		}, []string{"mode"}),
		verticalResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policyengine_vertical_results_total",
			Help: "Raw results returned per vertical",
		}, []string{"vertical"}),
		verticalDegrade: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policyengine_vertical_degraded_total",
			Help: "Vertical searches that degraded to an empty result set",
		}, []string{"vertical"}),
		llmDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "policyengine_llm_request_duration_seconds",
			Help:    "LLM request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"model"}),
		llmTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policyengine_llm_tokens_total",
			Help: "Tokens exchanged with the LLM",
		}, []string{"model", "direction"}),
		llmErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policyengine_llm_errors_total",
			Help: "LLM call failures",
		}, []string{"model"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policyengine_cache_lookups_total",
			Help: "Cache lookups by cache name and outcome",
		}, []string{"cache", "outcome"}),
	}
}

func (m *PrometheusMetrics) RecordQuery(mode string, duration time.Duration, err error) {
	m.queryDuration.WithLabelValues(mode).Observe(duration.Seconds())
	m.queryTotal.WithLabelValues(mode).Inc()
	if err != nil {
		m.queryErrors.WithLabelValues(mode).Inc()
	}
}

func (m *PrometheusMetrics) RecordVerticalSearch(vertical string, resultCount int, degraded bool) {
	m.verticalResults.WithLabelValues(vertical).Add(float64(resultCount))
	if degraded {
		m.verticalDegrade.WithLabelValues(vertical).Inc()
	}
}

func (m *PrometheusMetrics) RecordLLMCall(model string, duration time.Duration, inputTokens, outputTokens int, err error) {
	m.llmDuration.WithLabelValues(model).Observe(duration.Seconds())
	m.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	m.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	if err != nil {
		m.llmErrors.WithLabelValues(model).Inc()
	}
}

func (m *PrometheusMetrics) RecordCacheLookup(cache string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, outcome).Inc()
}

// NoopMetrics discards all recordings.
type NoopMetrics struct{}

func (NoopMetrics) RecordQuery(string, time.Duration, error)             {}
func (NoopMetrics) RecordVerticalSearch(string, int, bool)               {}
func (NoopMetrics) RecordLLMCall(string, time.Duration, int, int, error) {}
func (NoopMetrics) RecordCacheLookup(string, bool)                       {}

// SetGlobalMetrics installs the process-wide metrics sink.
func SetGlobalMetrics(m Metrics) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	globalMetrics = m
}

// GetGlobalMetrics returns the process-wide metrics sink, never nil.
func GetGlobalMetrics() Metrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return globalMetrics
}

// Ensure implementations satisfy Metrics.
var (
	_ Metrics = (*PrometheusMetrics)(nil)
	_ Metrics = NoopMetrics{}
)
