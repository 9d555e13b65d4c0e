// Package record is the Valkey/Redis vector store for log chunk records.
package record

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/kailas-cloud/lograg/internal/db"
	"github.com/kailas-cloud/lograg/internal/domain"
	domrec "github.com/kailas-cloud/lograg/internal/domain/record"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/result"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
	"github.com/kailas-cloud/lograg/internal/domain/vector"
)

// deleteBatch caps keys per DEL transaction when clearing a tenant.
const deleteBatch = 500

// knnTieMargin extra neighbors are fetched so equal scores at the cut are
// ordered by created_at rather than by index order.
const knnTieMargin = 4

// maxClearRounds bounds DeleteByTenant against a tenant that never stops writing.
const maxClearRounds = 8

// store is the consumer interface for records (ISP).
type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	SCard(ctx context.Context, key string) (int64, error)
	ZCard(ctx context.Context, key string) (int64, error)
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]db.ZEntry, error)
	Exec(ctx context.Context, tx *db.Tx) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements the indexing and retrieval store contracts on Valkey.
type Repo struct {
	store store
	dims  int
	hnsw  HNSWConfig
	locks [64]sync.Mutex
}

// New creates a record repository for vectors of dims dimensions.
func New(s store, dims int, hnsw HNSWConfig) *Repo {
	return &Repo{store: s, dims: dims, hnsw: hnsw}
}

// Dimensions returns the configured vector dimension.
func (r *Repo) Dimensions() int { return r.dims }

// EnsureIndex creates the record index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def, err := buildIndex(r.dims, r.hnsw)
	if err != nil {
		return err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", IndexName, err)
	}
	return nil
}

// Store inserts records atomically. A foreign or mis-sized record fails the
// whole batch before anything is written.
func (r *Repo) Store(ctx context.Context, t tenant.Key, records []domrec.Record) ([]string, error) {
	if err := domrec.CheckBatch(t, records, r.dims); err != nil {
		return nil, err //nolint:wrapcheck // domain sentinel
	}
	if len(records) == 0 {
		return nil, nil
	}

	tx := db.NewTx()
	ids := r.queueInsert(tx, t, records)
	if err := r.store.Exec(ctx, tx); err != nil {
		return nil, fmt.Errorf("store %d records: %w", len(records), err)
	}
	return ids, nil
}

// Replace swaps every record of documentID for records in one transaction and
// reports how many were removed. Readers see either the old or the new set.
func (r *Repo) Replace(
	ctx context.Context, t tenant.Key, documentID string, records []domrec.Record,
) ([]string, int, error) {
	if err := domrec.CheckBatch(t, records, r.dims); err != nil {
		return nil, 0, err //nolint:wrapcheck // domain sentinel
	}
	for i := range records {
		if records[i].DocumentID() != documentID {
			return nil, 0, fmt.Errorf("record %d belongs to document %q: %w",
				i, records[i].DocumentID(), domain.ErrInvalidDocument)
		}
	}

	mu := r.lock(t, documentID)
	mu.Lock()
	defer mu.Unlock()

	oldIDs, err := r.store.SMembers(ctx, documentKey(t, documentID))
	if err != nil {
		return nil, 0, fmt.Errorf("list records of %s: %w", documentID, err)
	}

	tx := db.NewTx()
	r.queueDelete(tx, t, documentID, oldIDs)
	if len(records) == 0 {
		tx.SRem(documentsKey(t), documentID)
	}
	ids := r.queueInsert(tx, t, records)

	if tx.Len() == 0 {
		return nil, 0, nil
	}
	if err := r.store.Exec(ctx, tx); err != nil {
		return nil, 0, fmt.Errorf("replace document %s: %w", documentID, err)
	}
	return ids, len(oldIDs), nil
}

// DeleteByDocument removes every record of one document.
func (r *Repo) DeleteByDocument(ctx context.Context, t tenant.Key, documentID string) (int, error) {
	if err := t.Validate(); err != nil {
		return 0, err //nolint:wrapcheck // domain sentinel
	}

	mu := r.lock(t, documentID)
	mu.Lock()
	defer mu.Unlock()

	ids, err := r.store.SMembers(ctx, documentKey(t, documentID))
	if err != nil {
		return 0, fmt.Errorf("list records of %s: %w", documentID, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tx := db.NewTx()
	r.queueDelete(tx, t, documentID, ids)
	tx.SRem(documentsKey(t), documentID)
	if err := r.store.Exec(ctx, tx); err != nil {
		return 0, fmt.Errorf("delete document %s: %w", documentID, err)
	}
	return len(ids), nil
}

// DeleteByTenant removes all records and bookkeeping of a tenant in rounds.
// Each round removes only the records it listed, then re-lists; a record
// committed mid-clear is caught by the next round, and one committed after
// the last round keeps complete bookkeeping.
func (r *Repo) DeleteByTenant(ctx context.Context, t tenant.Key) (int, error) {
	if err := t.Validate(); err != nil {
		return 0, err //nolint:wrapcheck // domain sentinel
	}

	deleted := 0
	docs := map[string]struct{}{}
	for round := 0; ; round++ {
		ids, err := r.store.ZRange(ctx, recordsKey(t), 0, -1)
		if err != nil {
			return deleted, fmt.Errorf("list tenant records: %w", err)
		}
		if len(ids) == 0 {
			return deleted, nil
		}
		if round == maxClearRounds {
			return deleted, fmt.Errorf("clear tenant: %d records still arriving after %d rounds", len(ids), round)
		}
		listed, err := r.store.SMembers(ctx, documentsKey(t))
		if err != nil {
			return deleted, fmt.Errorf("list tenant documents: %w", err)
		}
		for _, d := range listed {
			docs[d] = struct{}{}
		}

		for start := 0; start < len(ids); start += deleteBatch {
			batch := ids[start:min(start+deleteBatch, len(ids))]
			tx := db.NewTx().
				Del(recordKeys(t, batch)...).
				ZRem(recordsKey(t), batch...)
			if err := r.store.Exec(ctx, tx); err != nil {
				return deleted, fmt.Errorf("delete tenant records: %w", err)
			}
			deleted += len(batch)
		}
		if err := r.forgetDeleted(ctx, t, docs, ids); err != nil {
			return deleted, err
		}
	}
}

// forgetDeleted drops deleted ids from the per-document sets, and drops a
// document from the tenant set once none of its records remain. docs holds
// every document seen so far, since a document may leave the tenant set
// while a late record still points at it.
func (r *Repo) forgetDeleted(ctx context.Context, t tenant.Key, docs map[string]struct{}, ids []string) error {
	gone := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}
	tx := db.NewTx()
	for d := range docs {
		members, err := r.store.SMembers(ctx, documentKey(t, d))
		if err != nil {
			return fmt.Errorf("list document %s records: %w", d, err)
		}
		var drop []string
		for _, m := range members {
			if _, ok := gone[m]; ok {
				drop = append(drop, m)
			}
		}
		tx.SRem(documentKey(t, d), drop...)
		if len(drop) == len(members) {
			tx.SRem(documentsKey(t), d)
		}
	}
	if err := r.store.Exec(ctx, tx); err != nil {
		return fmt.Errorf("delete tenant bookkeeping: %w", err)
	}
	return nil
}

// Stats returns counts and the created_at range of the tenant's records.
func (r *Repo) Stats(ctx context.Context, t tenant.Key) (domrec.Stats, error) {
	if err := t.Validate(); err != nil {
		return domrec.Stats{}, err //nolint:wrapcheck // domain sentinel
	}

	records, err := r.store.ZCard(ctx, recordsKey(t))
	if err != nil {
		return domrec.Stats{}, fmt.Errorf("count records: %w", err)
	}
	docs, err := r.store.SCard(ctx, documentsKey(t))
	if err != nil {
		return domrec.Stats{}, fmt.Errorf("count documents: %w", err)
	}

	st := domrec.Stats{RecordCount: int(records), DocumentCount: int(docs)}
	if records == 0 {
		return st, nil
	}

	if st.Oldest, err = r.edge(ctx, t, 0); err != nil {
		return domrec.Stats{}, err
	}
	if st.Newest, err = r.edge(ctx, t, -1); err != nil {
		return domrec.Stats{}, err
	}
	return st, nil
}

// Records returns every stored record of a document, ordered by start line.
func (r *Repo) Records(ctx context.Context, t tenant.Key, documentID string) ([]domrec.Record, error) {
	if err := t.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // domain sentinel
	}
	ids, err := r.store.SMembers(ctx, documentKey(t, documentID))
	if err != nil {
		return nil, fmt.Errorf("list records of %s: %w", documentID, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, recordKeys(t, ids))
	if err != nil {
		return nil, fmt.Errorf("load records of %s: %w", documentID, err)
	}

	out := make([]domrec.Record, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		if m[fieldTenant] != t.Tag() {
			return nil, fmt.Errorf("record %s: %w", ids[i], domain.ErrTenantIsolation)
		}
		rec, err := parseRecord(t, ids[i], m)
		if err != nil {
			return nil, fmt.Errorf("parse record %s: %w", ids[i], err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chunk().StartLine() < out[j].Chunk().StartLine() })
	return out, nil
}

// Search runs a tenant-scoped KNN query. Level and date range are
// pushed into the index pre-filter; the threshold is applied to the
// normalized similarity.
func (r *Repo) Search(ctx context.Context, t tenant.Key, q domrec.SearchQuery) ([]result.Result, error) {
	if err := t.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // domain sentinel
	}
	if len(q.Vector) != r.dims {
		return nil, fmt.Errorf("query vector has %d dims, store expects %d: %w",
			len(q.Vector), r.dims, domain.ErrDimensionMismatch)
	}
	if q.Limit <= 0 {
		return nil, nil
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		Filter:       buildFilter(t, q),
		Vector:       q.Vector,
		K:            q.Limit + knnTieMargin,
		ReturnFields: returnFields,
		EFRuntime:    r.hnsw.EFRuntime,
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	out := make([]result.Result, 0, len(res.Entries))
	for _, e := range res.Entries {
		if e.Fields[fieldTenant] != t.Tag() {
			return nil, fmt.Errorf("index returned %s: %w", e.Key, domain.ErrTenantIsolation)
		}
		sim := vector.Normalize(e.Score)
		if sim < q.Threshold {
			continue
		}
		c, err := parseChunk(e.Fields)
		if err != nil {
			return nil, fmt.Errorf("parse hit %s: %w", e.Key, err)
		}
		out = append(out, result.New(idFromKey(e.Key), e.Fields[fieldDocument], c, sim, parseCreatedAt(e.Fields)))
	}

	sort.SliceStable(out, func(i, j int) bool { return result.Less(out[i], out[j]) })
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func buildFilter(t tenant.Key, q domrec.SearchQuery) db.Filter {
	f := db.Filter{Tags: []db.TagMatch{{Field: fieldTenant, Values: []string{t.Tag()}}}}
	if q.Level != "" {
		f.Tags = append(f.Tags, db.TagMatch{Field: fieldLevel, Values: []string{q.Level}})
	}
	if q.From != nil || q.To != nil {
		nr := db.NumericRange{Field: fieldTS}
		if q.From != nil {
			v := float64(q.From.UnixMilli())
			nr.Min = &v
		}
		if q.To != nil {
			v := float64(q.To.UnixMilli())
			nr.Max = &v
		}
		f.Ranges = append(f.Ranges, nr)
	}
	return f
}

func (r *Repo) queueInsert(tx *db.Tx, t tenant.Key, records []domrec.Record) []string {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, len(records))
	docs := make(map[string]struct{})
	for i := range records {
		rec := &records[i]
		ids[i] = rec.ID()
		tx.HSet(recordKey(t, rec.ID()), buildHashFields(rec))
		tx.SAdd(documentKey(t, rec.DocumentID()), rec.ID())
		tx.ZAdd(recordsKey(t), float64(rec.CreatedAt().UnixMilli()), rec.ID())
		docs[rec.DocumentID()] = struct{}{}
	}
	for d := range docs {
		tx.SAdd(documentsKey(t), d)
	}
	return ids
}

func (r *Repo) queueDelete(tx *db.Tx, t tenant.Key, documentID string, ids []string) {
	if len(ids) == 0 {
		return
	}
	tx.Del(recordKeys(t, ids)...)
	tx.Del(documentKey(t, documentID))
	tx.ZRem(recordsKey(t), ids...)
}

func (r *Repo) edge(ctx context.Context, t tenant.Key, rank int64) (*time.Time, error) {
	entries, err := r.store.ZRangeWithScores(ctx, recordsKey(t), rank, rank)
	if err != nil {
		return nil, fmt.Errorf("read created_at range: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	ts := time.UnixMilli(int64(entries[0].Score)).UTC()
	return &ts, nil
}

// lock serializes Replace/Delete of one document within this process.
func (r *Repo) lock(t tenant.Key, documentID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(t.Tag()))
	_, _ = h.Write([]byte(documentID))
	return &r.locks[h.Sum32()%uint32(len(r.locks))]
}
