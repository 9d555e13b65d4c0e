// Package hashing is a deterministic local embedder based on feature hashing.
// It needs no model files or network and is used for offline deployments and tests.
package hashing

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/domain/vector"
)

// Feature weights.
const (
	tokenWeight   = 1.0
	trigramWeight = 0.5
)

// Embedder hashes token unigrams and character trigrams into a fixed number
// of signed buckets and L2-normalizes the result.
type Embedder struct {
	dims  int
	model string
}

// New creates a hashing embedder producing dims-dimensional vectors.
func New(dims int, model string) (*Embedder, error) {
	if dims <= 0 {
		return nil, errors.New("dimensions must be positive")
	}
	if model == "" {
		model = fmt.Sprintf("hashing-%d", dims)
	}
	return &Embedder{dims: dims, model: model}, nil
}

// Model returns the model identifier stored next to every vector.
func (e *Embedder) Model() string { return e.model }

// Dimensions returns the vector length.
func (e *Embedder) Dimensions() int { return e.dims }

// Embed vectorizes a single text. TotalTokens counts hashed tokens.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("hashing embed: %w", err)
	}
	vec, tokens := e.vectorize(text)
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: tokens, TotalTokens: tokens}, nil
}

// BatchEmbed vectorizes texts in order.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("hashing batch embed: %w", err)
		}
		vec, tokens := e.vectorize(t)
		out.Embeddings[i] = vec
		out.PromptTokens += tokens
		out.TotalTokens += tokens
	}
	return out, nil
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

func (e *Embedder) vectorize(text string) ([]float32, int) {
	vec := make([]float32, e.dims)
	tokens := tokenize(text)
	for _, tok := range tokens {
		e.add(vec, "w:"+tok, tokenWeight)
		r := []rune(" " + tok + " ")
		for i := 0; i+3 <= len(r); i++ {
			e.add(vec, "c:"+string(r[i:i+3]), trigramWeight)
		}
	}
	vector.L2Normalize(vec)
	return vec, len(tokens)
}

// add hashes feature into a bucket; one hash bit picks the sign so that
// collisions cancel out on average.
func (e *Embedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dims))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
