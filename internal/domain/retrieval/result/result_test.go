package result

import (
	"sort"
	"testing"
	"time"

	"github.com/kailas-cloud/lograg/internal/domain/chunk"
	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
)

func TestNew(t *testing.T) {
	c := chunk.Reconstruct("ERROR db down", 1, 1, logdoc.Standard, nil)
	at := time.Unix(1700000000, 0)
	r := New("rec-1", "doc-1", c, 0.82, at)

	if r.RecordID() != "rec-1" || r.DocumentID() != "doc-1" {
		t.Errorf("ids = %q, %q", r.RecordID(), r.DocumentID())
	}
	if r.Chunk().Content() != "ERROR db down" {
		t.Errorf("Content() = %q", r.Chunk().Content())
	}
	if r.Score() != 0.82 {
		t.Errorf("Score() = %f, want similarity", r.Score())
	}
	if r.RerankScore() != nil {
		t.Error("RerankScore() should be nil")
	}
	if !r.CreatedAt().Equal(at) {
		t.Errorf("CreatedAt() = %v", r.CreatedAt())
	}
}

func TestWithRerank(t *testing.T) {
	r := New("a", "d", chunk.Chunk{}, 0.5, time.Time{})
	rr := r.WithRerank(0.9)
	if rr.Score() != 0.9 || rr.Similarity() != 0.5 {
		t.Errorf("Score() = %f, Similarity() = %f", rr.Score(), rr.Similarity())
	}
	if r.RerankScore() != nil {
		t.Error("WithRerank must not mutate the receiver")
	}
}

func TestLess_TieBrokenByRecency(t *testing.T) {
	old := time.Unix(100, 0)
	recent := time.Unix(200, 0)
	rs := []Result{
		New("low", "d", chunk.Chunk{}, 0.6, recent),
		New("old", "d", chunk.Chunk{}, 0.8, old),
		New("new", "d", chunk.Chunk{}, 0.8, recent),
	}
	sort.SliceStable(rs, func(i, j int) bool { return Less(rs[i], rs[j]) })

	want := []string{"new", "old", "low"}
	for i, id := range want {
		if rs[i].RecordID() != id {
			t.Errorf("position %d = %q, want %q", i, rs[i].RecordID(), id)
		}
	}
}
