// Package rag runs the question answering pipeline: embed the question,
// retrieve evidence, build a numbered context and ask the Answerer.
package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lograg/internal/domain"
	domrag "github.com/kailas-cloud/lograg/internal/domain/rag"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/query"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/result"
	"github.com/kailas-cloud/lograg/internal/logger"
	"github.com/kailas-cloud/lograg/internal/metrics"
)

// Defaults.
const (
	DefaultMaxContextChars = 6000
	DefaultAnswererTimeout = 30 * time.Second
	DefaultRetryBackoff    = 500 * time.Millisecond
)

// Query outcomes for metrics.
const (
	outcomeAnswered   = "answered"
	outcomeNoEvidence = "no_evidence"
	outcomePartial    = "partial"
	outcomeFailed     = "failed"
)

// Config tunes the pipeline.
type Config struct {
	MaxContextChars int
	AnswererTimeout time.Duration
	// RetryBackoff is the wait before the single retry. Zero retries immediately.
	RetryBackoff time.Duration
	// AnswerWithoutEvidence consults the Answerer even when nothing was retrieved.
	AnswerWithoutEvidence bool
}

// Pipeline answers questions over a tenant's logs. Safe for concurrent use.
type Pipeline struct {
	embed    QueryEmbedder
	retrieve Retriever
	answerer domrag.Answerer
	cfg      Config
	logger   *zap.Logger
}

// New creates a pipeline.
func New(embed QueryEmbedder, retrieve Retriever, answerer domrag.Answerer, cfg Config, logger *zap.Logger) *Pipeline {
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = DefaultMaxContextChars
	}
	if cfg.AnswererTimeout <= 0 {
		cfg.AnswererTimeout = DefaultAnswererTimeout
	}
	if cfg.RetryBackoff < 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{embed: embed, retrieve: retrieve, answerer: answerer, cfg: cfg, logger: logger}
}

// Query runs the pipeline. An error is returned only when the question could
// not be embedded or retrieval failed; an Answerer failure yields a partial
// response with the sources kept.
func (p *Pipeline) Query(ctx context.Context, q query.Query) (domrag.Response, error) {
	r := p.start(ctx, q)

	r.advance(domrag.StageEmbeddingQuery)
	emb, err := p.embed.EmbedOne(ctx, q.Question())
	if err != nil {
		return r.fail(domrag.ReasonEmbeddingUnavailable, err), fmt.Errorf("embed question: %w", err)
	}
	r.tokens += emb.TotalTokens

	r.advance(domrag.StageRetrieving)
	hits, err := p.retrieve.RetrieveByVector(ctx, q, emb.Embedding)
	if err != nil {
		return r.fail(domrag.ReasonRetrievalFailed, err), fmt.Errorf("retrieve: %w", err)
	}

	r.advance(domrag.StageBuildingContext)
	text, sources := buildContext(hits, p.cfg.MaxContextChars)
	mean := domrag.MeanSimilarity(sources)
	r.log.Debug("Context built",
		zap.Int("retrieved", len(hits)),
		zap.Int("included", len(sources)),
		zap.Int("context_chars", len(text)),
		zap.Float64("mean_similarity", mean),
	)

	if len(sources) == 0 && !p.cfg.AnswerWithoutEvidence {
		r.advance(domrag.StageFormatting)
		return r.done(outcomeNoEvidence, domrag.Response{
			Answer:     domrag.NoEvidenceAnswer,
			Sources:    []result.Result{},
			Confidence: 0,
		}), nil
	}

	r.advance(domrag.StageAwaitingAnswerer)
	ans, err := p.answer(ctx, domrag.AnswerRequest{Question: q.Question(), Context: text, Tenant: q.Tenant()})
	if err != nil {
		if ctx.Err() != nil {
			return r.fail(domrag.ReasonCanceled, err), fmt.Errorf("answer: %w", ctx.Err())
		}
		reason := domrag.ReasonAnswererUnavailable
		if errors.Is(err, domain.ErrAnswererTimeout) {
			reason = domrag.ReasonAnswererTimeout
		}
		resp := r.fail(reason, err)
		resp.Sources = sources
		resp.Confidence = domrag.Confidence(mean, len(sources))
		return resp, nil
	}
	r.tokens += ans.TokensUsed

	r.advance(domrag.StageFormatting)
	outcome := outcomeAnswered
	if len(sources) == 0 {
		outcome = outcomeNoEvidence
	}
	return r.done(outcome, domrag.Response{
		Answer:     ans.Text,
		Sources:    sources,
		Confidence: domrag.Confidence(mean, len(sources)),
		ModelUsed:  ans.Model,
	}), nil
}

// answer calls the Answerer with a per-call timeout and retries once after
// RetryBackoff unless the failure is permanent or the caller gave up.
func (p *Pipeline) answer(ctx context.Context, req domrag.AnswerRequest) (domrag.AnswerResult, error) {
	const attempts = 2
	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			metrics.AnswererRetriesTotal.WithLabelValues(retryReason(lastErr)).Inc()
			select {
			case <-ctx.Done():
				return domrag.AnswerResult{}, fmt.Errorf("retry wait: %w", ctx.Err())
			case <-time.After(p.cfg.RetryBackoff):
			}
		}

		actx, cancel := context.WithTimeout(ctx, p.cfg.AnswererTimeout)
		res, err := p.answerer.Answer(actx, req)
		timedOut := errors.Is(actx.Err(), context.DeadlineExceeded)
		cancel()
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return domrag.AnswerResult{}, err
		}
		if timedOut && !errors.Is(err, domain.ErrAnswererTimeout) {
			err = fmt.Errorf("%w: %w", domain.ErrAnswererTimeout, err)
		}
		lastErr = err
		if errors.Is(err, domrag.ErrPermanent) {
			break
		}
	}
	return domrag.AnswerResult{}, lastErr
}

func retryReason(err error) string {
	if errors.Is(err, domain.ErrAnswererTimeout) {
		return "timeout"
	}
	return "unavailable"
}

// run tracks one pass through the stage machine.
type run struct {
	stage      domrag.Stage
	started    time.Time
	stageStart time.Time
	tokens     int
	log        *zap.Logger
}

func (p *Pipeline) start(ctx context.Context, q query.Query) *run {
	now := time.Now()
	l := logger.FromContext(ctx, p.logger).
		With(logger.TenantFields(q.Tenant())...).
		With(zap.String("mode", string(q.Mode())))
	l.Debug("Query received", zap.Int("max_chunks", q.MaxChunks()), zap.Float64("threshold", q.Threshold()))
	return &run{stage: domrag.StageReceived, started: now, stageStart: now, log: l}
}

// advance leaves the current stage, recording how long it took.
func (r *run) advance(to domrag.Stage) {
	if !domrag.CanTransition(r.stage, to) {
		r.log.Error("Illegal stage transition", zap.String("from", string(r.stage)), zap.String("to", string(to)))
		return
	}
	now := time.Now()
	metrics.RAGStageDuration.WithLabelValues(string(r.stage)).Observe(now.Sub(r.stageStart).Seconds())
	r.log.Debug("Stage transition", zap.String("from", string(r.stage)), zap.String("to", string(to)))
	r.stage, r.stageStart = to, now
}

func (r *run) fail(reason domrag.FailureReason, err error) domrag.Response {
	failedAt := r.stage
	r.advance(domrag.StageFailed)
	outcome := outcomeFailed
	if failedAt == domrag.StageAwaitingAnswerer && reason != domrag.ReasonCanceled {
		outcome = outcomePartial
	}
	metrics.RAGQueriesTotal.WithLabelValues(outcome).Inc()
	r.log.Warn("Query failed",
		zap.String("stage", string(failedAt)),
		zap.String("reason", string(reason)),
		zap.Error(err),
	)
	return domrag.Response{
		Stage:         domrag.StageFailed,
		FailureReason: reason,
		Sources:       []result.Result{},
		TokensUsed:    r.tokens,
		Latency:       time.Since(r.started),
	}
}

func (r *run) done(outcome string, resp domrag.Response) domrag.Response {
	r.advance(domrag.StageDone)
	metrics.RAGQueriesTotal.WithLabelValues(outcome).Inc()
	resp.Stage = domrag.StageDone
	resp.TokensUsed = r.tokens
	resp.Latency = time.Since(r.started)
	r.log.Info("Query answered",
		zap.String("outcome", outcome),
		zap.Int("sources", len(resp.Sources)),
		zap.Float64("confidence", resp.Confidence),
		zap.Duration("latency", resp.Latency),
	)
	return resp
}
