// Package retrieval finds the chunks most relevant to a question.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	domrec "github.com/kailas-cloud/lograg/internal/domain/record"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/mode"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/query"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/result"
	"github.com/kailas-cloud/lograg/internal/logger"
	"github.com/kailas-cloud/lograg/internal/metrics"
)

// DefaultOverfetch multiplies the store limit when results are filtered or
// reranked after the store query.
const DefaultOverfetch = 3

// Config tunes retrieval.
type Config struct {
	Weights   Weights
	Overfetch int
}

// Service embeds questions and queries the vector store.
type Service struct {
	store  Searcher
	embed  QueryEmbedder
	cfg    Config
	logger *zap.Logger
}

// New creates a retrieval service.
func New(store Searcher, embed QueryEmbedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.Weights.Vector == 0 && cfg.Weights.Lexical == 0 {
		cfg.Weights = DefaultWeights()
	}
	if cfg.Overfetch < 1 {
		cfg.Overfetch = DefaultOverfetch
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, embed: embed, cfg: cfg, logger: logger}
}

// Retrieve embeds the question and returns up to MaxChunks results above the
// threshold. No matches is an empty slice, not an error.
func (s *Service) Retrieve(ctx context.Context, q query.Query) ([]result.Result, error) {
	emb, err := s.embed.EmbedOne(ctx, q.Question())
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	return s.RetrieveByVector(ctx, q, emb.Embedding)
}

// RetrieveByVector runs retrieval for an already embedded question.
func (s *Service) RetrieveByVector(ctx context.Context, q query.Query, vec []float32) ([]result.Result, error) {
	f := q.Filters()
	limit := q.MaxChunks()
	fetch := limit
	if f.Source() != "" || q.Mode() == mode.Hybrid {
		fetch = limit * s.cfg.Overfetch
	}

	hits, err := s.store.Search(ctx, q.Tenant(), domrec.NewSearchQuery(vec, fetch, q.Threshold(), f))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	if f.Source() != "" {
		kept := hits[:0]
		for _, h := range hits {
			if f.MatchSource(h.Chunk()) {
				kept = append(kept, h)
			}
		}
		hits = kept
	}

	if q.Mode() == mode.Hybrid {
		hits = rerank(q.Question(), hits, s.cfg.Weights)
		sort.SliceStable(hits, func(i, j int) bool { return result.Less(hits[i], hits[j]) })
	}

	if len(hits) > limit {
		hits = hits[:limit]
	}
	if hits == nil {
		hits = []result.Result{}
	}
	metrics.RetrievedResults.Observe(float64(len(hits)))

	logger.FromContext(ctx, s.logger).Debug("Retrieval done",
		zap.String("mode", string(q.Mode())),
		zap.Int("fetched", fetch),
		zap.Int("results", len(hits)),
	)
	return hits, nil
}
