// Package memory is an in-process vector store partitioned by tenant.
// Every partition has its own lock: writes for one tenant never block
// reads of another.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/lograg/internal/domain"
	domrec "github.com/kailas-cloud/lograg/internal/domain/record"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/result"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
	"github.com/kailas-cloud/lograg/internal/domain/vector"
)

type partition struct {
	mu      sync.RWMutex
	records map[string]domrec.Record
	docs    map[string][]string // document id -> record ids
}

func newPartition() *partition {
	return &partition{records: map[string]domrec.Record{}, docs: map[string][]string{}}
}

// Store keeps records in memory. The zero value is not usable; use New.
type Store struct {
	dims int

	mu         sync.RWMutex // guards partitions map only
	partitions map[string]*partition
}

// New creates an empty store for vectors of dims dimensions.
func New(dims int) *Store {
	return &Store{dims: dims, partitions: map[string]*partition{}}
}

// Dimensions returns the configured vector dimension.
func (s *Store) Dimensions() int { return s.dims }

// EnsureIndex is a no-op; search is brute force.
func (s *Store) EnsureIndex(context.Context) error { return nil }

func (s *Store) get(t tenant.Key) *partition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.partitions[t.Tag()]
}

func (s *Store) getOrCreate(t tenant.Key) *partition {
	if p := s.get(t); p != nil {
		return p
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partitions[t.Tag()]
	if !ok {
		p = newPartition()
		s.partitions[t.Tag()] = p
	}
	return p
}

// Store inserts records. The whole batch is rejected on any foreign or
// mis-sized record.
func (s *Store) Store(ctx context.Context, t tenant.Key, records []domrec.Record) ([]string, error) {
	if err := domrec.CheckBatch(t, records, s.dims); err != nil {
		return nil, err //nolint:wrapcheck // domain sentinel
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	p := s.getOrCreate(t)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.insert(records), nil
}

// Replace swaps every record of documentID for records under the partition lock.
func (s *Store) Replace(
	ctx context.Context, t tenant.Key, documentID string, records []domrec.Record,
) ([]string, int, error) {
	if err := domrec.CheckBatch(t, records, s.dims); err != nil {
		return nil, 0, err //nolint:wrapcheck // domain sentinel
	}
	for i := range records {
		if records[i].DocumentID() != documentID {
			return nil, 0, fmt.Errorf("record %d belongs to document %q: %w",
				i, records[i].DocumentID(), domain.ErrInvalidDocument)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("replace: %w", err)
	}

	p := s.getOrCreate(t)
	p.mu.Lock()
	defer p.mu.Unlock()
	removed := p.removeDocument(documentID)
	return p.insert(records), removed, nil
}

// DeleteByDocument removes every record of one document.
func (s *Store) DeleteByDocument(_ context.Context, t tenant.Key, documentID string) (int, error) {
	if err := t.Validate(); err != nil {
		return 0, err //nolint:wrapcheck // domain sentinel
	}
	p := s.get(t)
	if p == nil {
		return 0, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeDocument(documentID), nil
}

// DeleteByTenant empties the tenant partition. The partition itself stays
// registered so a concurrent Store never writes into a detached one.
func (s *Store) DeleteByTenant(_ context.Context, t tenant.Key) (int, error) {
	if err := t.Validate(); err != nil {
		return 0, err //nolint:wrapcheck // domain sentinel
	}
	p := s.get(t)
	if p == nil {
		return 0, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.records)
	p.records = map[string]domrec.Record{}
	p.docs = map[string][]string{}
	return n, nil
}

// Stats returns counts and the created_at range of the tenant's records.
func (s *Store) Stats(_ context.Context, t tenant.Key) (domrec.Stats, error) {
	if err := t.Validate(); err != nil {
		return domrec.Stats{}, err //nolint:wrapcheck // domain sentinel
	}
	p := s.get(t)
	if p == nil {
		return domrec.Stats{}, nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := domrec.Stats{RecordCount: len(p.records), DocumentCount: len(p.docs)}
	for _, r := range p.records {
		c := r.CreatedAt()
		if st.Oldest == nil || c.Before(*st.Oldest) {
			st.Oldest = &c
		}
		if st.Newest == nil || c.After(*st.Newest) {
			n := c
			st.Newest = &n
		}
	}
	return st, nil
}

// Records returns the stored records of a document ordered by start line.
func (s *Store) Records(_ context.Context, t tenant.Key, documentID string) ([]domrec.Record, error) {
	if err := t.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // domain sentinel
	}
	p := s.get(t)
	if p == nil {
		return nil, nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := p.docs[documentID]
	out := make([]domrec.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, p.records[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chunk().StartLine() < out[j].Chunk().StartLine() })
	return out, nil
}

// Search scores every record of the tenant by cosine similarity.
func (s *Store) Search(ctx context.Context, t tenant.Key, q domrec.SearchQuery) ([]result.Result, error) {
	if err := t.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // domain sentinel
	}
	if len(q.Vector) != s.dims {
		return nil, fmt.Errorf("query vector has %d dims, store expects %d: %w",
			len(q.Vector), s.dims, domain.ErrDimensionMismatch)
	}
	if q.Limit <= 0 {
		return nil, nil
	}
	p := s.get(t)
	if p == nil {
		return nil, nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []result.Result
	for _, r := range p.records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		if !matches(r, q) {
			continue
		}
		sim := vector.Similarity(q.Vector, r.Embedding())
		if sim < q.Threshold {
			continue
		}
		out = append(out, result.New(r.ID(), r.DocumentID(), r.Chunk(), sim, r.CreatedAt()))
	}

	sort.SliceStable(out, func(i, j int) bool { return result.Less(out[i], out[j]) })
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// matches applies the filters the Valkey index applies as a pre-filter.
// Level is compared case-insensitively like a default TAG field; date
// bounds are inclusive and never match undated chunks.
func matches(r domrec.Record, q domrec.SearchQuery) bool {
	c := r.Chunk()
	if q.Level != "" && !strings.EqualFold(c.Level(), q.Level) {
		return false
	}
	if q.From == nil && q.To == nil {
		return true
	}
	ts := c.Timestamp()
	if ts == nil {
		return false
	}
	if q.From != nil && truncMillis(*ts).Before(truncMillis(*q.From)) {
		return false
	}
	if q.To != nil && truncMillis(*ts).After(truncMillis(*q.To)) {
		return false
	}
	return true
}

func truncMillis(t time.Time) time.Time { return t.Truncate(time.Millisecond) }

// caller holds p.mu
func (p *partition) insert(records []domrec.Record) []string {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID()
		if _, dup := p.records[r.ID()]; !dup {
			p.docs[r.DocumentID()] = append(p.docs[r.DocumentID()], r.ID())
		}
		p.records[r.ID()] = r
	}
	return ids
}

// caller holds p.mu
func (p *partition) removeDocument(documentID string) int {
	ids := p.docs[documentID]
	for _, id := range ids {
		delete(p.records, id)
	}
	delete(p.docs, documentID)
	return len(ids)
}
