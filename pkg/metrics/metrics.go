// Package metrics defines the Prometheus metric collectors used by the
// snippet services and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the snippet services.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SnippetQueriesTotal  *prometheus.CounterVec
	SnippetLatency       *prometheus.HistogramVec
	CandidateSentences   prometheus.Histogram
	SnippetSentences     prometheus.Histogram
	QueryTermsDropped    prometheus.Counter
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	IndexSentences       prometheus.Gauge
	IndexTerms           prometheus.Gauge
	IndexCharacters      prometheus.Gauge
	IndexBuildSeconds    prometheus.Gauge
	AnalyticsEvents      *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates all metrics and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SnippetQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snippet_queries_total",
				Help: "Total snippet queries by result type (snippet, no_match, empty_query, error).",
			},
			[]string{"result_type"},
		),
		SnippetLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "snippet_latency_seconds",
				Help:    "Snippet query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"cache_status"},
		),
		CandidateSentences: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "snippet_candidate_sentences",
				Help:    "Number of candidate sentences scored per query.",
				Buckets: []float64{0, 1, 2, 3, 6, 10, 15, 30},
			},
		),
		SnippetSentences: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "snippet_sentences",
				Help:    "Number of sentences joined into each snippet.",
				Buckets: []float64{0, 1, 2, 3, 5, 10},
			},
		),
		QueryTermsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "snippet_query_terms_dropped_total",
				Help: "Query terms dropped because they are unknown to the document or over the term limit.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses.",
			},
		),
		IndexSentences: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_sentences",
				Help: "Number of sentences in the indexed document.",
			},
		),
		IndexTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_terms",
				Help: "Number of distinct terms in the indexed document.",
			},
		),
		IndexCharacters: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_characters",
				Help: "Number of characters in the indexed document.",
			},
		),
		IndexBuildSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_build_seconds",
				Help: "Time spent segmenting and indexing the document.",
			},
		),
		AnalyticsEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_events_total",
				Help: "Analytics events by outcome (published, dropped, failed).",
			},
			[]string{"outcome"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SnippetQueriesTotal,
		m.SnippetLatency,
		m.CandidateSentences,
		m.SnippetSentences,
		m.QueryTermsDropped,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.IndexSentences,
		m.IndexTerms,
		m.IndexCharacters,
		m.IndexBuildSeconds,
		m.AnalyticsEvents,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
