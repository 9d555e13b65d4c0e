// Package embcache caches embeddings in Valkey, keyed by model and text.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lograg/internal/db"
	"github.com/kailas-cloud/lograg/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "emb_cache:"

// store is the slice of db.KVStore the cache needs.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder is a domain.Embedder decorator backed by a key-value store.
// Re-indexing an unchanged log document costs no provider calls.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	model      string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New wraps inner. The model id is hashed into every key, so vectors of
// different models never mix. ttl <= 0 keeps entries forever. cacheTotal is
// optional and is labelled by "result" (hit, miss).
func New(
	inner domain.Embedder,
	s store,
	model string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		model:      model,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed serves a chunk or question vector from the cache, embedding and
// storing it on a miss. Hits report zero tokens.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	vecs, keys, misses := c.lookup(ctx, []string{text})
	if len(misses) == 0 {
		return domain.EmbeddingResult{Embedding: vecs[0]}, nil
	}

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	c.put(ctx, keys[0], result.Embedding)
	return result, nil
}

// BatchEmbed embeds only the cache misses, in one inner batch call, and
// merges them back in input order.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	vecs, keys, misses := c.lookup(ctx, texts)
	if len(misses) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: vecs}, nil
	}

	pending := make([]string, len(misses))
	for j, i := range misses {
		pending[j] = texts[i]
	}
	res, err := domain.BatchOf(ctx, c.inner, pending)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed misses: %w", err)
	}
	if len(res.Embeddings) != len(pending) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"batch embed: got %d vectors for %d texts: %w",
			len(res.Embeddings), len(pending), domain.ErrEmbeddingProviderError)
	}

	for j, i := range misses {
		vecs[i] = res.Embeddings[j]
		c.put(ctx, keys[i], res.Embeddings[j])
	}
	res.Embeddings = vecs
	return res, nil
}

// lookup resolves every text against the cache. misses holds the input
// indexes that still need embedding; their slots in vecs stay nil.
func (c *CachedEmbedder) lookup(ctx context.Context, texts []string) (vecs [][]float32, keys []string, misses []int) {
	vecs = make([][]float32, len(texts))
	keys = make([]string, len(texts))
	for i, text := range texts {
		keys[i] = c.cacheKey(text)
		if vec, ok := c.get(ctx, keys[i]); ok {
			vecs[i] = vec
			c.incCache("hit")
			continue
		}
		c.incCache("miss")
		misses = append(misses, i)
	}
	return vecs, keys, misses
}

// HealthCheck delegates to inner when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.New()
	h.Write([]byte(c.model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedEmbedder) get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := decodeVector(data)
	if err != nil {
		c.logger.Warn("Corrupt embedding cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return vec, true
}

func (c *CachedEmbedder) put(ctx context.Context, key string, vec []float32) {
	if err := c.store.SetWithTTL(ctx, key, encodeVector(vec), c.ttl); err != nil {
		c.logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// encodeVector stores float32 little-endian, the layout FT.SEARCH expects too.
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("cached vector has %d bytes, not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
