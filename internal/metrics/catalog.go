package metrics

import "github.com/prometheus/client_golang/prometheus"

// Catalog Prometheus metrics.
var (
	CatalogQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "equipcat",
			Name:      "catalog_queries_total",
			Help:      "Total number of catalog queries",
		},
		[]string{"kind", "status"}, // kind: list / filter / summary
	)

	CatalogQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "equipcat",
			Name:      "catalog_query_duration_seconds",
			Help:      "Catalog query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"kind"},
	)

	SimilarityRankingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "equipcat",
			Name:      "similarity_rankings_total",
			Help:      "Total number of similarity ranking requests",
		},
		[]string{"status"},
	)

	SimilarityMatchesReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "equipcat",
			Name:      "similarity_matches_returned",
			Help:      "Number of matches returned per ranking request",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)
)

var catalogMetricsRegistered bool

// RegisterCatalogMetrics registers Prometheus catalog metrics. Must be called once from main.
func RegisterCatalogMetrics() {
	if catalogMetricsRegistered {
		return
	}
	prometheus.MustRegister(CatalogQueriesTotal)
	prometheus.MustRegister(CatalogQueryDuration)
	prometheus.MustRegister(SimilarityRankingsTotal)
	prometheus.MustRegister(SimilarityMatchesReturned)
	catalogMetricsRegistered = true
}
