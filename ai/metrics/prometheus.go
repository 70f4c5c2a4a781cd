// Package metrics provides Prometheus metrics export for the ticket pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/ticketsense/ai/core/llm"
)

const (
	namespace = "ticketsense"
	subsystem = "ai"
)

// PrometheusExporter exports pipeline metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// LLM metrics
	llmCalls   *prometheus.CounterVec
	llmLatency *prometheus.HistogramVec
	llmTokens  *prometheus.CounterVec

	// Pipeline metrics
	ingestTotal   *prometheus.CounterVec
	ingestLatency prometheus.Histogram
	ingestChunks  prometheus.Histogram
	searchTotal   *prometheus.CounterVec
	searchLatency prometheus.Histogram
	sentiments    *prometheus.CounterVec
	indexSize     prometheus.Gauge

	// Cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.llmCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "llm_calls_total",
			Help:      "Total number of chat model calls",
		},
		[]string{"provider", "model", "status"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "llm_latency_seconds",
			Help:      "Chat model call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"provider", "model"},
	)

	e.llmTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "llm_tokens_total",
			Help:      "Total chat model tokens consumed",
		},
		[]string{"model", "token_type"},
	)

	e.ingestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ingest_total",
			Help:      "Tickets summarized and indexed",
		},
		[]string{"status"},
	)

	e.ingestLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ingest_latency_seconds",
			Help:      "End to end summarize-and-store latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.ingestChunks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ingest_chunks",
			Help:      "Chunks per ingested ticket",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	e.searchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "search_total",
			Help:      "Similar-ticket searches by outcome",
		},
		[]string{"status"},
	)

	e.searchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "search_latency_seconds",
			Help:      "Similar-ticket search latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.sentiments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sentiment_total",
			Help:      "Sentiment labels assigned to incoming messages",
		},
		[]string{"label"},
	)

	e.indexSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "index_records",
			Help:      "Records held by the embedding index",
		},
	)

	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	registry.MustRegister(
		e.llmCalls,
		e.llmLatency,
		e.llmTokens,
		e.ingestTotal,
		e.ingestLatency,
		e.ingestChunks,
		e.searchTotal,
		e.searchLatency,
		e.sentiments,
		e.indexSize,
		e.cacheHits,
		e.cacheMisses,
	)

	return e
}

// ObserveLLMCall records one chat model call. Its signature matches llm.CallObserver.
func (e *PrometheusExporter) ObserveLLMCall(provider, model string, latency time.Duration, stats *llm.LLMCallStats, err error) {
	e.llmCalls.WithLabelValues(provider, model, status(err)).Inc()
	e.llmLatency.WithLabelValues(provider, model).Observe(latency.Seconds())
	if stats == nil {
		return
	}
	e.llmTokens.WithLabelValues(model, "prompt").Add(float64(stats.PromptTokens))
	e.llmTokens.WithLabelValues(model, "completion").Add(float64(stats.CompletionTokens))
	if stats.CacheReadTokens > 0 {
		e.llmTokens.WithLabelValues(model, "cached").Add(float64(stats.CacheReadTokens))
	}
}

// RecordIngest records a summarize-and-store attempt.
func (e *PrometheusExporter) RecordIngest(latency time.Duration, chunks int, err error) {
	e.ingestTotal.WithLabelValues(status(err)).Inc()
	e.ingestLatency.Observe(latency.Seconds())
	if err == nil {
		e.ingestChunks.Observe(float64(chunks))
	}
}

// RecordSearch records a search. fallback marks a search that matched nothing.
func (e *PrometheusExporter) RecordSearch(latency time.Duration, fallback bool, err error) {
	s := status(err)
	if err == nil && fallback {
		s = "fallback"
	}
	e.searchTotal.WithLabelValues(s).Inc()
	e.searchLatency.Observe(latency.Seconds())
}

// RecordSentiment counts an assigned sentiment label.
func (e *PrometheusExporter) RecordSentiment(label string) {
	e.sentiments.WithLabelValues(label).Inc()
}

// SetIndexSize sets the number of indexed records.
func (e *PrometheusExporter) SetIndexSize(n int) {
	e.indexSize.Set(float64(n))
}

// RecordCacheHit records a cache hit.
func (e *PrometheusExporter) RecordCacheHit(cacheType string) {
	e.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (e *PrometheusExporter) RecordCacheMiss(cacheType string) {
	e.cacheMisses.WithLabelValues(cacheType).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Handler().ServeHTTP(w, r)
}

// Registry returns the Prometheus registry.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ llm.CallObserver = (*PrometheusExporter)(nil).ObserveLLMCall
