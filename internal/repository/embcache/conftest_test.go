package embcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lograg/internal/db"
	"github.com/kailas-cloud/lograg/internal/domain"
)

// fakeProvider returns vector {len(text)} for every text and charges
// tokensPer tokens each. It records what reached it.
type fakeProvider struct {
	tokensPer int
	err       error

	embedded   []string
	batchCalls int
}

func (p *fakeProvider) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if p.err != nil {
		return domain.EmbeddingResult{}, p.err
	}
	p.embedded = append(p.embedded, text)
	return domain.EmbeddingResult{Embedding: vecOf(text), PromptTokens: p.tokensPer, TotalTokens: p.tokensPer}, nil
}

func (p *fakeProvider) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	p.batchCalls++
	if p.err != nil {
		return domain.BatchEmbeddingResult{}, p.err
	}
	p.embedded = append(p.embedded, texts...)
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		out.Embeddings[i] = vecOf(t)
	}
	out.PromptTokens = p.tokensPer * len(texts)
	out.TotalTokens = out.PromptTokens
	return out, nil
}

func vecOf(text string) []float32 { return []float32{float32(len(text)), 1} }

// memKV is a map-backed KV store. failGet and failSet simulate an
// unreachable or read-only Valkey.
type memKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
	failSet bool
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errors.New("connection reset")
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("READONLY replica")
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func newCache(t *testing.T, p *fakeProvider, kv *memKV) *CachedEmbedder {
	t.Helper()
	return New(p, kv, "text-embedding-3-small", time.Hour, nil, zap.NewNop())
}
