// Package embedding is the embedding service: truncation, bounded batching and
// the dimension invariant on top of a provider decorator chain.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/domain/vector"
	"github.com/kailas-cloud/lograg/internal/metrics"
)

// Defaults.
const (
	DefaultBatchSize = 64
	DefaultWorkers   = 4
)

// Config holds service settings.
type Config struct {
	Model         string
	Dimensions    int
	MaxInputChars int // rune limit, 0 disables truncation
	BatchSize     int
	Workers       int
}

// Service turns chunk texts and questions into vectors. It holds no tenant state.
type Service struct {
	docs    domain.Embedder
	queries domain.Embedder
	cfg     Config
	sem     *semaphore.Weighted
	logger  *zap.Logger
}

// NewService creates the embedding service. docs embeds log chunks, queries
// embeds questions; both may be the same embedder.
func NewService(docs, queries domain.Embedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if queries == nil {
		queries = docs
	}
	return &Service{
		docs:    docs,
		queries: queries,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(int64(cfg.Workers)),
		logger:  logger,
	}
}

// Model returns the model identifier stored with every vector.
func (s *Service) Model() string { return s.cfg.Model }

// Dimensions returns the store-wide vector dimension.
func (s *Service) Dimensions() int { return s.cfg.Dimensions }

// Similarity returns the [0,1] cosine similarity used for every threshold.
func (s *Service) Similarity(a, b []float32) float64 { return vector.Similarity(a, b) }

// EmbedOne embeds a single question.
func (s *Service) EmbedOne(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("acquire embedding slot: %w", err)
	}
	defer s.sem.Release(1)

	res, err := s.queries.Embed(ctx, s.truncate(text))
	if err != nil {
		return domain.EmbeddingResult{}, unavailable(err)
	}
	if err := s.checkDims(res.Embedding); err != nil {
		return domain.EmbeddingResult{}, err
	}
	return res, nil
}

// Embed embeds texts in order. Texts are split into BatchSize groups that run
// concurrently, at most Workers provider calls at a time.
func (s *Service) Embed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	out := make([][]float32, len(texts))
	var (
		mu            sync.Mutex
		prompt, total int
	)

	g, gctx := errgroup.WithContext(ctx)
	for offset := 0; offset < len(texts); offset += s.cfg.BatchSize {
		end := min(offset+s.cfg.BatchSize, len(texts))
		batch := make([]string, end-offset)
		for i, t := range texts[offset:end] {
			batch[i] = s.truncate(t)
		}

		g.Go(func() error {
			if err := s.sem.Acquire(gctx, 1); err != nil {
				return fmt.Errorf("acquire embedding slot: %w", err)
			}
			defer s.sem.Release(1)

			res, err := domain.BatchOf(gctx, s.docs, batch)
			if err != nil {
				return unavailable(err)
			}
			if len(res.Embeddings) != len(batch) {
				return fmt.Errorf("got %d vectors for %d texts: %w",
					len(res.Embeddings), len(batch), domain.ErrEmbeddingUnavailable)
			}
			for i, vec := range res.Embeddings {
				if err := s.checkDims(vec); err != nil {
					return err
				}
				out[offset+i] = vec
			}

			mu.Lock()
			prompt += res.PromptTokens
			total += res.TotalTokens
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.BatchEmbeddingResult{}, err //nolint:wrapcheck // wrapped inside the group
	}

	return domain.BatchEmbeddingResult{Embeddings: out, PromptTokens: prompt, TotalTokens: total}, nil
}

// HealthCheck checks the document embedder chain.
func (s *Service) HealthCheck(ctx context.Context) error {
	if hc, ok := s.docs.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return unavailable(err)
		}
	}
	return nil
}

// truncate drops the tail of text beyond MaxInputChars runes.
func (s *Service) truncate(text string) string {
	limit := s.cfg.MaxInputChars
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	cut := 0
	for i := range text {
		if limit == 0 {
			cut = i
			break
		}
		limit--
	}
	metrics.EmbeddingTruncationsTotal.WithLabelValues(s.cfg.Model).Inc()
	s.logger.Warn("Embedding input truncated",
		zap.String("model", s.cfg.Model),
		zap.Int("input_bytes", len(text)),
		zap.Int("kept_bytes", cut),
		zap.Int("max_chars", s.cfg.MaxInputChars),
	)
	return text[:cut]
}

func (s *Service) checkDims(vec []float32) error {
	if s.cfg.Dimensions > 0 && len(vec) != s.cfg.Dimensions {
		return fmt.Errorf("model %q returned %d dims, store expects %d: %w",
			s.cfg.Model, len(vec), s.cfg.Dimensions, domain.ErrDimensionMismatch)
	}
	return nil
}

func unavailable(err error) error {
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
}
