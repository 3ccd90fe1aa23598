package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tendex",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"mode", "status"}, // mode: "hybrid" / "lexical_only"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tendex",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	ParseDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tendex",
			Name:      "query_parse_degraded_total",
			Help:      "Queries that failed structured parsing and fell back to plain terms",
		},
	)

	SemanticFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tendex",
			Name:      "semantic_fallback_total",
			Help:      "Searches answered lexical-only because the embedding provider failed",
		},
	)

	IndexedDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tendex",
			Name:      "indexed_documents",
			Help:      "Number of tenders in the lexical index",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(ParseDegradedTotal)
	prometheus.MustRegister(SemanticFallbackTotal)
	prometheus.MustRegister(IndexedDocuments)
	searchMetricsRegistered = true
}
