package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/domain/rag"
)

// DefaultSystemPrompt instructs the model to stay within the numbered context.
const DefaultSystemPrompt = `You answer questions about application logs.
Use only the numbered log excerpts in the context. Cite the excerpts you rely on as [n].
If the excerpts do not contain the answer, say so plainly. Do not invent log lines.`

// AnswererConfig holds the chat-completion settings.
type AnswererConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	Logger       *zap.Logger
}

// Answerer is a rag.Answerer backed by an OpenAI-compatible chat completion API.
type Answerer struct {
	client       *openai.Client
	model        string
	systemPrompt string
	maxTokens    int
	temperature  float32
	logger       *zap.Logger
}

// NewAnswerer creates a chat-completion answerer.
func NewAnswerer(cfg *AnswererConfig) *Answerer {
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Answerer{
		client:       newClient(cfg.APIKey, cfg.BaseURL),
		model:        cfg.Model,
		systemPrompt: prompt,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		logger:       logger,
	}
}

// Answer sends the question with its context and returns the completion.
// Deadline errors wrap domain.ErrAnswererTimeout, everything else
// domain.ErrAnswererUnavailable; non-retryable failures also carry rag.ErrPermanent.
func (a *Answerer) Answer(ctx context.Context, req rag.AnswerRequest) (rag.AnswerResult, error) {
	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: a.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(req)},
		},
	})
	latency := time.Since(start)

	if err != nil {
		a.logger.Warn("Answerer call failed",
			zap.String("model", a.model),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return rag.AnswerResult{}, classifyAnswerError(err)
	}
	if len(resp.Choices) == 0 {
		return rag.AnswerResult{}, fmt.Errorf("empty completion: %w", domain.ErrAnswererUnavailable)
	}

	model := resp.Model
	if model == "" {
		model = a.model
	}
	return rag.AnswerResult{
		Text:       strings.TrimSpace(resp.Choices[0].Message.Content),
		TokensUsed: resp.Usage.TotalTokens,
		Latency:    latency,
		Model:      model,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (a *Answerer) HealthCheck(ctx context.Context) error {
	if _, err := a.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func classifyAnswerError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("chat completion: %w: %w", domain.ErrAnswererTimeout, err)
	}
	wrapped := parseAPIError("chat completion", err, domain.ErrAnswererUnavailable, nil)
	if !isTransient(err) {
		return fmt.Errorf("%w: %w", wrapped, rag.ErrPermanent)
	}
	return wrapped
}

func userPrompt(req rag.AnswerRequest) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(req.Context)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(req.Question)
	return b.String()
}
