package result

import (
	"time"

	"github.com/kailas-cloud/lograg/internal/domain/chunk"
)

// Result is a single retrieved chunk. Never persisted.
type Result struct {
	recordID   string
	documentID string
	chunk      chunk.Chunk
	similarity float64
	rerank     *float64
	createdAt  time.Time
}

// New creates a retrieval result. similarity is in [0,1].
func New(recordID, documentID string, c chunk.Chunk, similarity float64, createdAt time.Time) Result {
	return Result{
		recordID:   recordID,
		documentID: documentID,
		chunk:      c,
		similarity: similarity,
		createdAt:  createdAt,
	}
}

// RecordID returns the stored record identifier.
func (r Result) RecordID() string { return r.recordID }

// DocumentID returns the source document identifier.
func (r Result) DocumentID() string { return r.documentID }

// Chunk returns the retrieved chunk.
func (r Result) Chunk() chunk.Chunk { return r.chunk }

// Similarity returns the normalized vector similarity.
func (r Result) Similarity() float64 { return r.similarity }

// RerankScore returns the hybrid score or nil when the result was not reranked.
func (r Result) RerankScore() *float64 { return r.rerank }

// CreatedAt returns when the record was indexed.
func (r Result) CreatedAt() time.Time { return r.createdAt }

// Score is the ranking key: the rerank score when present, else similarity.
func (r Result) Score() float64 {
	if r.rerank != nil {
		return *r.rerank
	}
	return r.similarity
}

// WithRerank returns a copy carrying the rerank score.
func (r Result) WithRerank(score float64) Result {
	r.rerank = &score
	return r
}

// Less orders results by Score descending, then created_at descending.
func Less(a, b Result) bool {
	if a.Score() != b.Score() {
		return a.Score() > b.Score()
	}
	return a.createdAt.After(b.createdAt)
}
