package rag

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/lograg/internal/domain/chunk"
	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/result"
)

func passage(id, content string, start, end int, meta *chunk.Metadata, sim float64) result.Result {
	c := chunk.Reconstruct(content, start, end, logdoc.Standard, meta)
	return result.New(id, "app.log", c, sim, time.Unix(0, 0))
}

func TestBuildContext_Headers(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)
	text, included := buildContext([]result.Result{
		passage("a", "ERROR boom", 1, 3, &chunk.Metadata{Timestamp: &ts, Level: "ERROR"}, 0.9),
		passage("b", "plain text", 4, 4, nil, 0.8),
	}, 1000)

	require.Len(t, included, 2)
	assert.Equal(t,
		"[1] (app.log, lines 1-3, 2024-01-15T10:30:45Z, ERROR)\nERROR boom\n\n[2] (app.log, lines 4-4)\nplain text",
		text)
}

func TestBuildContext_Budget(t *testing.T) {
	long := strings.Repeat("x", 80)
	results := []result.Result{
		passage("a", long, 1, 1, nil, 0.9),
		passage("b", long, 2, 2, nil, 0.8),
		passage("c", long, 3, 3, nil, 0.7),
	}

	text, included := buildContext(results, 250)
	assert.LessOrEqual(t, utf8.RuneCountInString(text), 250)
	require.Len(t, included, 2)
	assert.Equal(t, "a", included[0].RecordID())
	assert.NotContains(t, text, "[3]")
}

func TestBuildContext_OversizedFirstPassageIsCut(t *testing.T) {
	text, included := buildContext([]result.Result{passage("a", strings.Repeat("é", 500), 1, 1, nil, 0.9)}, 100)
	require.Len(t, included, 1)
	assert.Equal(t, 100, utf8.RuneCountInString(text))
	assert.True(t, strings.HasSuffix(text, truncationMark))
	assert.True(t, utf8.ValidString(text))
}

func TestBuildContext_Empty(t *testing.T) {
	text, included := buildContext(nil, 100)
	assert.Empty(t, text)
	assert.Empty(t, included)
}
