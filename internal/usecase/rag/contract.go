package rag

import (
	"context"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/query"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/result"
)

// QueryEmbedder vectorizes the question.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Retriever finds evidence for an embedded question.
type Retriever interface {
	RetrieveByVector(ctx context.Context, q query.Query, vec []float32) ([]result.Result, error)
}
