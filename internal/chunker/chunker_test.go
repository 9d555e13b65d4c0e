package chunker

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/lograg/internal/domain/chunk"
	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

func newDoc(t *testing.T, text string, format logdoc.Format) logdoc.Document {
	t.Helper()
	d, err := logdoc.New("doc-1", tenant.MustNew("p1", "u1"), text, format)
	require.NoError(t, err)
	return d
}

func standardLines(n int) []string {
	lines := make([]string, n)
	levels := []string{"INFO", "WARN", "ERROR", "DEBUG"}
	for i := range lines {
		lines[i] = fmt.Sprintf("2024-01-15T10:%02d:%02dZ %s request %d handled in %dms%s",
			i/60, i%60, levels[i%len(levels)], i, 10+i*7%300, strings.Repeat(".", i%25))
	}
	return lines
}

func TestChunk_EmptyDocument(t *testing.T) {
	c := New(DefaultConfig())
	for _, text := range []string{"", "\n\n", "   \n\t\n"} {
		res := c.Split(newDoc(t, text, logdoc.Auto))
		assert.Empty(t, res.Chunks, "text %q", text)
	}
}

func TestChunk_ThreeLineScenario(t *testing.T) {
	text := "2024-01-15T10:30:45Z ERROR Database connection failed\n" +
		"2024-01-15T10:31:12Z WARN High memory usage\n" +
		"2024-01-15T10:32:00Z INFO Request completed\n"

	res := New(DefaultConfig()).Split(newDoc(t, text, logdoc.Auto))

	assert.Equal(t, logdoc.Standard, res.Format)
	require.Len(t, res.Chunks, 1)
	ch := res.Chunks[0]
	assert.Contains(t, ch.Content(), "ERROR Database connection failed")
	assert.Equal(t, 1, ch.StartLine())
	assert.Equal(t, 3, ch.EndLine())
	assert.Equal(t, chunk.LevelError, ch.Level())
	require.NotNil(t, ch.Timestamp())
	assert.True(t, ch.Timestamp().Equal(time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)))
	assert.Equal(t, logdoc.Standard, ch.Format())
}

func TestChunk_BoundaryPreservation(t *testing.T) {
	lines := standardLines(200)
	res := New(DefaultConfig()).Split(newDoc(t, strings.Join(lines, "\n"), logdoc.Standard))
	require.Greater(t, len(res.Chunks), 5)

	for i, ch := range res.Chunks {
		// a chunk is exactly a run of whole source lines
		want := strings.Join(lines[ch.StartLine()-1:ch.EndLine()], "\n")
		assert.Equal(t, want, ch.Content(), "chunk %d", i)
		assert.LessOrEqual(t, runeLen(ch.Content()), DefaultMaxSize, "chunk %d", i)

		if i > 0 {
			prev := res.Chunks[i-1]
			assert.Greater(t, ch.StartLine(), prev.StartLine(), "chunk %d must advance", i)
			assert.LessOrEqual(t, ch.StartLine(), prev.EndLine(), "chunk %d must overlap its predecessor", i)
		}
	}
	assert.Equal(t, 1, res.Chunks[0].StartLine())
	assert.Equal(t, len(lines), res.Chunks[len(res.Chunks)-1].EndLine())
}

func TestChunk_OverlapWithinBudget(t *testing.T) {
	lines := standardLines(120)
	cfg := DefaultConfig()
	res := New(cfg).Split(newDoc(t, strings.Join(lines, "\n"), logdoc.Standard))

	// the final chunk may borrow extra context, so it is left out
	for i := 1; i < len(res.Chunks)-1; i++ {
		prev, cur := res.Chunks[i-1], res.Chunks[i]
		if cur.StartLine() > prev.EndLine() {
			continue
		}
		shared := strings.Join(lines[cur.StartLine()-1:prev.EndLine()], "\n")
		assert.LessOrEqual(t, runeLen(shared), cfg.Overlap)
	}
}

func TestChunk_OversizedEntryIsOwnChunk(t *testing.T) {
	big := "2024-01-15T10:30:46Z ERROR " + strings.Repeat("x", 2500)
	text := strings.Join([]string{
		"2024-01-15T10:30:45Z INFO before",
		big,
		"2024-01-15T10:30:47Z INFO after",
	}, "\n")

	res := New(DefaultConfig()).Split(newDoc(t, text, logdoc.Standard))

	var found bool
	for _, ch := range res.Chunks {
		if strings.Contains(ch.Content(), "xxxx") {
			found = true
			assert.Equal(t, big, ch.Content(), "oversized entry must not be truncated or merged")
			assert.Equal(t, 2, ch.StartLine())
			assert.Equal(t, 2, ch.EndLine())
		}
	}
	assert.True(t, found)
}

func TestBuildChunk_MetadataFromFirstEntry(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)
	tagged := &chunk.Metadata{Timestamp: &ts, Level: chunk.LevelError, Source: "db"}

	c := buildChunk([]entry{
		{text: "continuation without header", startLine: 1, endLine: 1},
		{text: "2024-01-15T10:30:45Z ERROR db down", startLine: 2, endLine: 2, meta: tagged},
	}, logdoc.Standard)
	assert.Nil(t, c.Metadata(), "later entries must not lend their metadata")
	assert.Equal(t, 1, c.StartLine())
	assert.Equal(t, 2, c.EndLine())

	c = buildChunk([]entry{
		{text: "2024-01-15T10:30:45Z ERROR db down", startLine: 3, endLine: 3, meta: tagged},
		{text: "2024-01-15T10:30:46Z INFO recovered", startLine: 4, endLine: 4,
			meta: &chunk.Metadata{Level: chunk.LevelInfo}},
	}, logdoc.Standard)
	assert.Equal(t, chunk.LevelError, c.Level())
	assert.Equal(t, "db", c.Source())
}

func TestChunk_StackTraceStaysWithEntry(t *testing.T) {
	text := strings.Join([]string{
		"2024-01-15 10:30:45,120 [worker-3] ERROR job failed",
		"java.lang.IllegalStateException: boom",
		"    at com.acme.Job.run(Job.java:42)",
		"    at java.lang.Thread.run(Thread.java:750)",
		"2024-01-15 10:30:46,001 [worker-3] INFO retry scheduled",
	}, "\n")

	entries := parseEntries(splitLines(text), logdoc.Standard, time.Now())
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].startLine)
	assert.Equal(t, 4, entries[0].endLine)
	assert.Contains(t, entries[0].text, "Thread.run")
	assert.Equal(t, chunk.LevelError, entries[0].meta.Level)
	assert.Equal(t, "worker-3", entries[0].meta.Source)

	// tight limits force one entry per chunk; the trace is never split
	res := New(Config{MinSize: 10, MaxSize: 60, Overlap: 5, SampleLines: 20}).Split(newDoc(t, text, logdoc.Standard))
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, 4, res.Chunks[0].EndLine())
}

func TestChunk_UnknownFormatSlidingWindow(t *testing.T) {
	var lines []string
	for i := 0; i < 60; i++ {
		lines = append(lines, fmt.Sprintf("free form note number %d about the deployment pipeline", i))
	}
	lines = append(lines, strings.Repeat("é", 2500))

	res := New(DefaultConfig()).Split(newDoc(t, strings.Join(lines, "\n"), logdoc.Auto))

	assert.Equal(t, logdoc.Unknown, res.Format)
	require.Greater(t, len(res.Chunks), 2)
	for i, ch := range res.Chunks {
		assert.LessOrEqual(t, runeLen(ch.Content()), DefaultMaxSize, "chunk %d", i)
		assert.Nil(t, ch.Metadata(), "unknown format has no parsed entries")
		if i > 0 && ch.EndLine() < len(lines) {
			assert.LessOrEqual(t, ch.StartLine(), res.Chunks[i-1].EndLine(), "window %d must overlap", i)
		}
	}
	last := res.Chunks[len(res.Chunks)-1]
	assert.Equal(t, len(lines), last.EndLine())
}

func TestChunk_DeclaredFormatSkipsDetection(t *testing.T) {
	text := `{"ts":"2024-01-15T10:30:45Z","level":"warning","service":"checkout","msg":"slow"}`
	res := New(DefaultConfig()).Split(newDoc(t, text, logdoc.Unknown))
	assert.Equal(t, logdoc.Unknown, res.Format)
	require.Len(t, res.Chunks, 1)
	assert.Nil(t, res.Chunks[0].Metadata())
}

func TestChunk_SmallTailGetsMoreContext(t *testing.T) {
	lines := []string{
		"2024-01-15T10:00:00Z INFO " + strings.Repeat("a", 60),
		"2024-01-15T10:00:01Z INFO " + strings.Repeat("b", 60),
		"2024-01-15T10:00:02Z INFO " + strings.Repeat("c", 60),
	}
	// max fits two lines, overlap fits none; the tail borrows the second line
	cfg := Config{MinSize: 100, MaxSize: 180, Overlap: 10, SampleLines: 20}
	res := New(cfg).Split(newDoc(t, strings.Join(lines, "\n"), logdoc.Standard))
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, 1, res.Chunks[0].StartLine())
	assert.Equal(t, 2, res.Chunks[0].EndLine())
	assert.Equal(t, 2, res.Chunks[1].StartLine())
	assert.Equal(t, 3, res.Chunks[1].EndLine())
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	bad := []Config{
		{MinSize: 1, MaxSize: 0, Overlap: 0, SampleLines: 1},
		{MinSize: 2000, MaxSize: 1000, Overlap: 0, SampleLines: 1},
		{MinSize: 1, MaxSize: 100, Overlap: 100, SampleLines: 1},
		{MinSize: 1, MaxSize: 100, Overlap: 10, SampleLines: 0},
	}
	for i, cfg := range bad {
		assert.Error(t, cfg.Validate(), "config %d", i)
	}
}

func TestNew_FallsBackToDefaults(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, DefaultConfig(), c.Config())

	// neighbors share trailing entries under the zero-value config
	res := c.Split(newDoc(t, strings.Join(standardLines(60), "\n"), logdoc.Standard))
	require.Greater(t, len(res.Chunks), 1)
	for i := 1; i < len(res.Chunks); i++ {
		assert.LessOrEqual(t, res.Chunks[i].StartLine(), res.Chunks[i-1].EndLine(), "chunk %d has no overlap", i)
	}
}

func TestNew_ExplicitZeroOverlapKept(t *testing.T) {
	c := New(Config{MinSize: 500, MaxSize: 1000, Overlap: 0, SampleLines: 20})
	assert.Equal(t, 0, c.Config().Overlap)
}
