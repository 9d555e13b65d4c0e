package client

import "time"

// Document is one document of a batch.
type Document struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Format string `json:"format,omitempty"`
}

// IndexAck acknowledges an indexed document.
type IndexAck struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
	Replaced   int    `json:"replaced"`
	Format     string `json:"format"`
	DryRun     bool   `json:"dry_run,omitempty"`
}

// BatchItem is the outcome of one batch document.
type BatchItem struct {
	ID       string    `json:"id"`
	Status   string    `json:"status"`
	Chunks   int       `json:"chunks,omitempty"`
	Replaced int       `json:"replaced,omitempty"`
	Format   string    `json:"format,omitempty"`
	Error    *APIError `json:"error,omitempty"`
}

// BatchResult lists per-document results in request order.
type BatchResult struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// Filters narrows retrieval. Zero values are omitted.
type Filters struct {
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
	Level  string     `json:"level,omitempty"`
	Source string     `json:"source,omitempty"`
}

// Query is a question with retrieval options. Nil pointers take server defaults.
type Query struct {
	Question            string   `json:"question"`
	Filters             *Filters `json:"filters,omitempty"`
	MaxChunks           *int     `json:"max_chunks,omitempty"`
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty"`
	Mode                string   `json:"mode,omitempty"` // vector, hybrid
}

// Source is a retrieved log chunk.
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

// Answer is the RAG response. A non-empty FailureReason marks a partial answer:
// sources are present but the answerer did not reply.
type Answer struct {
	Answer        string   `json:"answer"`
	Sources       []Source `json:"sources"`
	Confidence    float64  `json:"confidence"`
	ModelUsed     string   `json:"model_used,omitempty"`
	Stage         string   `json:"stage"`
	FailureReason string   `json:"failure_reason,omitempty"`
	TokensUsed    int      `json:"tokens_used"`
	LatencyMs     int64    `json:"latency_ms"`
}

// Partial reports whether the answerer failed after retrieval succeeded.
func (a Answer) Partial() bool { return a.FailureReason != "" }

// Stats describes a tenant's index.
type Stats struct {
	RecordCount   int        `json:"record_count"`
	DocumentCount int        `json:"document_count"`
	Oldest        *time.Time `json:"oldest,omitempty"`
	Newest        *time.Time `json:"newest,omitempty"`
}

// Health is the server health report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type deleteResponse struct {
	Deleted int `json:"deleted"`
}

type searchResponse struct {
	Results []Source `json:"results"`
}

type indexRequest struct {
	Text   string `json:"text"`
	Format string `json:"format,omitempty"`
}

type batchRequest struct {
	Documents []Document `json:"documents"`
}
