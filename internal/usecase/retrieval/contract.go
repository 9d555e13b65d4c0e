package retrieval

import (
	"context"

	"github.com/kailas-cloud/lograg/internal/domain"
	domrec "github.com/kailas-cloud/lograg/internal/domain/record"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/result"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

// Searcher runs tenant-scoped nearest-neighbor queries.
type Searcher interface {
	Search(ctx context.Context, t tenant.Key, q domrec.SearchQuery) ([]result.Result, error)
}

// QueryEmbedder vectorizes a single question.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
