package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding provider and cache metrics. Provider calls are labelled by
// provider and model so a switch of embedding model shows up as new series.
var (
	EmbeddingRequestsTotal = counterVec("embedding_requests_total",
		"Embedding provider calls by outcome", "provider", "model", "status")

	EmbeddingRequestDuration = histogramVec("embedding_request_duration_seconds",
		"Embedding provider call latency",
		[]float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		"provider", "model")

	// type: prompt, total
	EmbeddingTokensTotal = counterVec("embedding_tokens_total",
		"Tokens billed by the embedding provider", "provider", "model", "type")

	EmbeddingErrorsTotal = counterVec("embedding_errors_total",
		"Embedding failures by kind", "provider", "model", "error_type")

	EmbeddingCacheTotal = counterVec("embedding_cache_total",
		"Embedding cache lookups", "result")

	EmbeddingTruncationsTotal = counterVec("embedding_truncations_total",
		"Log chunks tail-truncated to the model's max input length", "model")
)

var embeddingGroup = group{collectors: []prometheus.Collector{
	EmbeddingRequestsTotal, EmbeddingRequestDuration, EmbeddingTokensTotal,
	EmbeddingErrorsTotal, EmbeddingCacheTotal, EmbeddingTruncationsTotal,
}}

// RegisterEmbeddingMetrics registers the embedding collectors. Safe to call repeatedly.
func RegisterEmbeddingMetrics() { embeddingGroup.register() }
