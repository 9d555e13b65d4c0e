package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query pipeline and indexing metrics.
var (
	RAGStageDuration = histogramVec("rag_stage_duration_seconds",
		"Time spent in each RAG pipeline stage",
		[]float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		"stage")

	// outcome: answered, no_evidence, partial, failed
	RAGQueriesTotal = counterVec("rag_queries_total", "RAG queries by outcome", "outcome")

	AnswererRetriesTotal = counterVec("answerer_retries_total",
		"Answerer calls retried after a transient failure", "reason")

	RetrievedResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "retrieval_results",
		Help:      "Number of results returned per retrieval",
		Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
	})

	IndexedChunksTotal = counterVec("indexed_chunks_total",
		"Chunks written to the vector store by detected format", "format")
)

var ragGroup = group{collectors: []prometheus.Collector{
	RAGStageDuration, RAGQueriesTotal, AnswererRetriesTotal, RetrievedResults, IndexedChunksTotal,
}}

// RegisterRAGMetrics registers pipeline metrics. Safe to call repeatedly.
func RegisterRAGMetrics() { ragGroup.register() }
