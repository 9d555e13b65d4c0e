package rag

import (
	"context"
	"errors"
	"time"

	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

// ErrPermanent marks an answerer failure that a retry cannot fix
// (bad credentials, rejected request). It is joined with the domain sentinel.
var ErrPermanent = errors.New("permanent answerer failure")

// Answerer is the external text-completion collaborator. Implementations
// return errors wrapping domain.ErrAnswererTimeout or domain.ErrAnswererUnavailable.
type Answerer interface {
	Answer(ctx context.Context, req AnswerRequest) (AnswerResult, error)
}

// AnswerRequest is what the pipeline sends to the Answerer.
type AnswerRequest struct {
	Question string
	Context  string
	Tenant   tenant.Key
}

// AnswerResult is the Answerer reply.
type AnswerResult struct {
	Text       string
	TokensUsed int
	Latency    time.Duration
	Model      string
}
