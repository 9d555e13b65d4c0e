package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/logger"
)

// InstrumentedEmbedder logs every embedding call with the request logger and
// adds its tokens to the request's usage collector. Provider-level metrics
// live in transport/openai.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps inner.
func NewInstrumentedEmbedder(inner domain.Embedder, provider, model string, logger *zap.Logger) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{inner: inner, provider: provider, model: model, logger: logger}
}

// Embed is used for questions.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	if err = p.observe(ctx, start, 1, result.TotalTokens, err); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return result, nil
}

// BatchEmbed is used for document chunks.
func (p *InstrumentedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	start := time.Now()
	result, err := domain.BatchOf(ctx, p.inner, texts)
	if err = p.observe(ctx, start, len(texts), result.TotalTokens, err); err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	return result, nil
}

func (p *InstrumentedEmbedder) observe(ctx context.Context, start time.Time, n, tokens int, err error) error {
	log := logger.FromContext(ctx, p.logger).With(
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Int("texts", n),
		zap.Duration("duration", time.Since(start)),
	)
	if err != nil {
		log.Error("Embedding failed", zap.Error(err))
		return err
	}
	domain.UsageFromContext(ctx).AddTokens(tokens)
	log.Debug("Embedding done", zap.Int("total_tokens", tokens))
	return nil
}

// HealthCheck delegates to inner when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
