package chi

import "time"

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeInvalidDocument        ErrorCode = "invalid_document"
	ErrorCodeInvalidQuery           ErrorCode = "invalid_query"
	ErrorCodeDimensionMismatch      ErrorCode = "dimension_mismatch"
	ErrorCodeTenantIsolation        ErrorCode = "tenant_isolation_violation"
	ErrorCodeDocumentNotFound       ErrorCode = "document_not_found"
	ErrorCodeRateLimited            ErrorCode = "rate_limited"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeEmbeddingUnavailable   ErrorCode = "embedding_unavailable"
	ErrorCodeAnswererUnavailable    ErrorCode = "answerer_unavailable"
	ErrorCodeAnswererTimeout        ErrorCode = "answerer_timeout"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// IndexDocumentRequest is the body of PUT /v1/documents/{id} and
// POST /v1/documents/{id}/append.
type IndexDocumentRequest struct {
	Text   string `json:"text"`
	Format string `json:"format,omitempty"`
}

// IndexDocumentResponse acknowledges an indexed document.
type IndexDocumentResponse struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
	Replaced   int    `json:"replaced"`
	Format     string `json:"format"`
	DryRun     bool   `json:"dry_run,omitempty"`
}

// BatchDocument is one document of a batch request.
type BatchDocument struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Format string `json:"format,omitempty"`
}

// BatchIndexRequest is the body of POST /v1/documents/batch.
type BatchIndexRequest struct {
	Documents []BatchDocument `json:"documents"`
}

// Batch item statuses.
const (
	BatchItemOK    = "ok"
	BatchItemError = "error"
)

// BatchItemResult is the outcome of one batch document.
type BatchItemResult struct {
	ID       string         `json:"id"`
	Status   string         `json:"status"`
	Chunks   int            `json:"chunks,omitempty"`
	Replaced int            `json:"replaced,omitempty"`
	Format   string         `json:"format,omitempty"`
	Error    *ErrorResponse `json:"error,omitempty"`
}

// BatchIndexResponse lists per-document results in request order.
type BatchIndexResponse struct {
	Items     []BatchItemResult `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// QueryFilters narrows retrieval.
type QueryFilters struct {
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
	Level  string     `json:"level,omitempty"`
	Source string     `json:"source,omitempty"`
}

// QueryRequest is the body of POST /v1/query and POST /v1/search.
type QueryRequest struct {
	Question            string        `json:"question"`
	Filters             *QueryFilters `json:"filters,omitempty"`
	MaxChunks           *int          `json:"max_chunks,omitempty"`
	SimilarityThreshold *float64      `json:"similarity_threshold,omitempty"`
	Mode                string        `json:"mode,omitempty"`
}

// Source is a retrieved chunk with its scores.
type Source struct {
	RecordID    string     `json:"record_id"`
	DocumentID  string     `json:"document_id"`
	Content     string     `json:"content"`
	StartLine   int        `json:"start_line"`
	EndLine     int        `json:"end_line"`
	Format      string     `json:"format,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Level       string     `json:"level,omitempty"`
	Origin      string     `json:"source,omitempty"`
	Similarity  float64    `json:"similarity"`
	RerankScore *float64   `json:"rerank_score,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// QueryResponse is the RAG answer.
type QueryResponse struct {
	Answer        string   `json:"answer"`
	Sources       []Source `json:"sources"`
	Confidence    float64  `json:"confidence"`
	ModelUsed     string   `json:"model_used,omitempty"`
	Stage         string   `json:"stage"`
	FailureReason string   `json:"failure_reason,omitempty"`
	TokensUsed    int      `json:"tokens_used"`
	LatencyMs     int64    `json:"latency_ms"`
}

// SearchResponse lists retrieval results without an answer.
type SearchResponse struct {
	Results []Source `json:"results"`
}

// DeleteResponse reports how many records were removed.
type DeleteResponse struct {
	Deleted int `json:"deleted"`
}

// StatsResponse describes a tenant's index.
type StatsResponse struct {
	RecordCount   int        `json:"record_count"`
	DocumentCount int        `json:"document_count"`
	Oldest        *time.Time `json:"oldest,omitempty"`
	Newest        *time.Time `json:"newest,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
