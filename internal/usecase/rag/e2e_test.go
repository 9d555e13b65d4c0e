package rag_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lograg/internal/answerer/extractive"
	"github.com/kailas-cloud/lograg/internal/chunker"
	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
	domrag "github.com/kailas-cloud/lograg/internal/domain/rag"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/query"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
	"github.com/kailas-cloud/lograg/internal/embedder/hashing"
	"github.com/kailas-cloud/lograg/internal/repository/memory"
	"github.com/kailas-cloud/lograg/internal/usecase/embedding"
	"github.com/kailas-cloud/lograg/internal/usecase/indexing"
	"github.com/kailas-cloud/lograg/internal/usecase/rag"
	"github.com/kailas-cloud/lograg/internal/usecase/retrieval"
)

const threeLines = "2024-01-15T10:30:45Z ERROR Database connection failed\n" +
	"2024-01-15T10:31:12Z WARN High memory usage\n" +
	"2024-01-15T10:32:00Z INFO Request completed"

type stack struct {
	index    *indexing.Service
	retrieve *retrieval.Service
	pipeline *rag.Pipeline
}

func newStack(t *testing.T) stack {
	t.Helper()
	const dims = 256
	h, err := hashing.New(dims, "")
	require.NoError(t, err)

	log := zap.NewNop()
	emb := embedding.NewService(h, nil, embedding.Config{Model: h.Model(), Dimensions: dims}, log)
	store := memory.New(dims)
	ret := retrieval.New(store, emb, retrieval.Config{}, log)
	return stack{
		index:    indexing.New(store, chunker.New(chunker.DefaultConfig()), emb, indexing.Config{}, log),
		retrieve: ret,
		pipeline: rag.New(emb, ret, extractive.New(0), rag.Config{}, log),
	}
}

func ask(t *testing.T, s stack, tk tenant.Key, question string) domrag.Response {
	t.Helper()
	th := 0.3
	q, err := query.New(question, tk, query.Options{Threshold: &th})
	require.NoError(t, err)
	resp, err := s.pipeline.Query(context.Background(), q)
	require.NoError(t, err)
	return resp
}

func TestEndToEnd_ThreeLineScenario(t *testing.T) {
	s := newStack(t)
	p1 := tenant.MustNew("p1", "u1")
	p2 := tenant.MustNew("p2", "u1")

	doc, err := logdoc.New("app.log", p1, threeLines, logdoc.Auto)
	require.NoError(t, err)
	ack, err := s.index.Index(context.Background(), doc, false)
	require.NoError(t, err)
	assert.Equal(t, 1, ack.Chunks)
	assert.Equal(t, logdoc.Standard, ack.Format)

	resp := ask(t, s, p1, "What errors occurred?")
	assert.Equal(t, domrag.StageDone, resp.Stage)
	require.NotEmpty(t, resp.Sources)
	found := false
	for _, src := range resp.Sources {
		if strings.Contains(src.Chunk().Content(), "ERROR Database connection failed") {
			found = true
		}
	}
	assert.True(t, found, "expected the ERROR line among sources")
	assert.Positive(t, resp.Confidence)
	assert.Contains(t, resp.Answer, "[1]")

	other := ask(t, s, p2, "What errors occurred?")
	assert.Empty(t, other.Sources, "tenant p2 must see nothing")
	assert.Zero(t, other.Confidence)
}

func TestEndToEnd_EmptyCorpus(t *testing.T) {
	s := newStack(t)
	resp := ask(t, s, tenant.MustNew("empty", "u"), "anything broken?")
	assert.NotNil(t, resp.Sources)
	assert.Empty(t, resp.Sources)
	assert.Zero(t, resp.Confidence)
	assert.Equal(t, domrag.NoEvidenceAnswer, resp.Answer)
}

func TestEndToEnd_ReindexGivesSameResults(t *testing.T) {
	s := newStack(t)
	tk := tenant.MustNew("p1", "u1")
	ctx := context.Background()
	doc, err := logdoc.New("app.log", tk, threeLines, logdoc.Auto)
	require.NoError(t, err)

	th := 0.0
	q, err := query.New("database connection", tk, query.Options{Threshold: &th})
	require.NoError(t, err)

	_, err = s.index.Index(ctx, doc, false)
	require.NoError(t, err)
	first, err := s.retrieve.Retrieve(ctx, q)
	require.NoError(t, err)

	_, err = s.index.Index(ctx, doc, false)
	require.NoError(t, err)
	second, err := s.retrieve.Retrieve(ctx, q)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Chunk().Content(), second[i].Chunk().Content())
		assert.InDelta(t, first[i].Similarity(), second[i].Similarity(), 1e-9)
	}
}
