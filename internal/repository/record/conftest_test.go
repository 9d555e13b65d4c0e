package record

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/kailas-cloud/lograg/internal/db"
	"github.com/kailas-cloud/lograg/internal/domain/chunk"
	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
	domrec "github.com/kailas-cloud/lograg/internal/domain/record"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

const testDims = 3

// fakeStore keeps hashes, sets and sorted sets in maps and applies Tx ops
// in order, so repository bookkeeping can be checked end to end.
type fakeStore struct {
	hashes map[string]map[string]string
	sets   map[string]map[string]struct{}
	zsets  map[string]map[string]float64

	execs    int
	execErr  error
	createFn func(def *db.IndexDefinition) error
	searchFn func(q *db.KNNQuery) (*db.SearchResult, error)
	// afterSMembers runs once a listing has been taken, standing in for a
	// writer that commits between a read and the next transaction.
	afterSMembers func(key string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hashes: map[string]map[string]string{},
		sets:   map[string]map[string]struct{}{},
		zsets:  map[string]map[string]float64{},
	}
}

func (f *fakeStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = f.hashes[k]
	}
	return out, nil
}

func (f *fakeStore) SMembers(_ context.Context, key string) ([]string, error) {
	var out []string
	for m := range f.sets[key] {
		out = append(out, m)
	}
	sort.Strings(out)
	if f.afterSMembers != nil {
		f.afterSMembers(key)
	}
	return out, nil
}

func (f *fakeStore) SCard(_ context.Context, key string) (int64, error) {
	return int64(len(f.sets[key])), nil
}

func (f *fakeStore) ZCard(_ context.Context, key string) (int64, error) {
	return int64(len(f.zsets[key])), nil
}

func (f *fakeStore) sortedZ(key string) []db.ZEntry {
	out := make([]db.ZEntry, 0, len(f.zsets[key]))
	for m, s := range f.zsets[key] {
		out = append(out, db.ZEntry{Member: m, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Member < out[j].Member
	})
	return out
}

func (f *fakeStore) ZRangeWithScores(_ context.Context, key string, start, stop int64) ([]db.ZEntry, error) {
	all := f.sortedZ(key)
	n := int64(len(all))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return nil, nil
	}
	return all[start : stop+1], nil
}

func (f *fakeStore) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	entries, _ := f.ZRangeWithScores(ctx, key, start, stop)
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Member
	}
	return out, nil
}

func (f *fakeStore) Exec(_ context.Context, tx *db.Tx) error {
	f.execs++
	if f.execErr != nil {
		return f.execErr
	}
	for _, op := range tx.Ops() {
		switch op.Kind {
		case db.TxHSet:
			h := f.hashes[op.Key]
			if h == nil {
				h = map[string]string{}
				f.hashes[op.Key] = h
			}
			for k, v := range op.Fields {
				h[k] = v
			}
		case db.TxDel:
			for _, k := range op.Members {
				delete(f.hashes, k)
				delete(f.sets, k)
				delete(f.zsets, k)
			}
		case db.TxSAdd:
			s := f.sets[op.Key]
			if s == nil {
				s = map[string]struct{}{}
				f.sets[op.Key] = s
			}
			for _, m := range op.Members {
				s[m] = struct{}{}
			}
		case db.TxSRem:
			for _, m := range op.Members {
				delete(f.sets[op.Key], m)
			}
			if len(f.sets[op.Key]) == 0 {
				delete(f.sets, op.Key)
			}
		case db.TxZAdd:
			z := f.zsets[op.Key]
			if z == nil {
				z = map[string]float64{}
				f.zsets[op.Key] = z
			}
			z[op.Members[0]] = op.Score
		case db.TxZRem:
			for _, m := range op.Members {
				delete(f.zsets[op.Key], m)
			}
			if len(f.zsets[op.Key]) == 0 {
				delete(f.zsets, op.Key)
			}
		}
	}
	return nil
}

func (f *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if f.createFn != nil {
		return f.createFn(def)
	}
	return nil
}

func (f *fakeStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if f.searchFn != nil {
		return f.searchFn(q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *fakeStore) {
	t.Helper()
	fs := newFakeStore()
	return New(fs, testDims, HNSWConfig{M: 16, EFConstruct: 200, EFRuntime: 10}), fs
}

func testRecord(t *testing.T, tk tenant.Key, docID string, line int, created time.Time) domrec.Record {
	t.Helper()
	ts := time.Date(2024, 1, 15, 10, 30, line, 0, time.UTC)
	c, err := chunk.New("INFO line", line, line, logdoc.Standard,
		&chunk.Metadata{Timestamp: &ts, Level: chunk.LevelInfo})
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	r, err := domrec.New(tk, docID, c, []float32{1, 0, 0}, "test-model", created)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return r
}
