package retrieval

import (
	"github.com/kailas-cloud/lograg/internal/domain/keyword"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/result"
)

// Weights blend vector similarity with lexical overlap in hybrid mode.
type Weights struct {
	Vector  float64
	Lexical float64
}

// DefaultWeights returns 0.7 vector / 0.3 lexical.
func DefaultWeights() Weights { return Weights{Vector: 0.7, Lexical: 0.3} }

// rerank scores every result as w.Vector*similarity + w.Lexical*overlap,
// where overlap is the share of question keywords found in the chunk.
func rerank(question string, results []result.Result, w Weights) []result.Result {
	q := keyword.Extract(question)
	out := make([]result.Result, len(results))
	for i, r := range results {
		overlap := keyword.Overlap(q, keyword.Extract(r.Chunk().Content()))
		out[i] = r.WithRerank(w.Vector*r.Similarity() + w.Lexical*overlap)
	}
	return out
}
