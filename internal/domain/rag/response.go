// Package rag holds the pipeline stage machine, the Answerer contract and the response.
package rag

import (
	"time"

	"github.com/kailas-cloud/lograg/internal/domain/retrieval/result"
)

// NoEvidenceAnswer is returned when retrieval finds nothing for the tenant.
const NoEvidenceAnswer = "No relevant information was found in your indexed logs for this question."

// NoEvidenceFactor scales confidence of answers given without sources.
const NoEvidenceFactor = 0.3

// Response is the pipeline output. Transient.
type Response struct {
	Answer        string
	Sources       []result.Result
	Confidence    float64
	ModelUsed     string
	Stage         Stage
	FailureReason FailureReason
	TokensUsed    int
	Latency       time.Duration
}

// IsPartial reports whether the answer is missing but citations are kept.
func (r *Response) IsPartial() bool {
	return r.Stage == StageFailed && r.FailureReason != ReasonNone
}

// Confidence computes mean similarity of sources, scaled down when there is no evidence.
func Confidence(meanSimilarity float64, sources int) float64 {
	if sources > 0 {
		return meanSimilarity
	}
	return meanSimilarity * NoEvidenceFactor
}

// MeanSimilarity returns the mean vector similarity of rs, 0 for none.
func MeanSimilarity(rs []result.Result) float64 {
	if len(rs) == 0 {
		return 0
	}
	var sum float64
	for i := range rs {
		sum += rs[i].Similarity()
	}
	return sum / float64(len(rs))
}
