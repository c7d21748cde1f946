package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding and enrichment Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rolodex",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rolodex",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rolodex",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rolodex",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rolodex",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	EnrichmentJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rolodex",
			Name:      "enrichment_jobs_total",
			Help:      "Enrichment jobs by outcome",
		},
		[]string{"outcome"}, // "ok" / "provider_error" / "storage_error" / "dropped" / "skipped"
	)

	EnrichmentQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rolodex",
			Name:      "enrichment_queue_depth",
			Help:      "Items waiting for enrichment",
		},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rolodex",
			Name:      "search_requests_total",
			Help:      "Search requests by the path that produced the result",
		},
		[]string{"search_type"}, // "semantic" / "keyword"
	)

	SearchFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rolodex",
			Name:      "search_fallbacks_total",
			Help:      "Semantic-to-keyword fallbacks by reason",
		},
		[]string{"reason"}, // "provider_error" / "below_threshold" / "dimension_mismatch"
	)
)

var registered bool

// Register registers embedding, enrichment and search metrics.
// Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingErrorsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(EnrichmentJobsTotal)
	prometheus.MustRegister(EnrichmentQueueDepth)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchFallbacksTotal)
	registered = true
}
