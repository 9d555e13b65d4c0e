package record

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/domain/chunk"
	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/filter"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

func testChunk() chunk.Chunk {
	return chunk.Reconstruct("INFO ok", 1, 1, logdoc.Standard, nil)
}

func TestNew_AssignsUUID(t *testing.T) {
	r, err := New(tenant.MustNew("p", "u"), "doc", testChunk(), []float32{1, 0}, "m", time.Unix(1, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(r.ID()); err != nil {
		t.Errorf("ID() = %q is not a uuid: %v", r.ID(), err)
	}
	if r.DocumentID() != "doc" || r.Model() != "m" {
		t.Errorf("unexpected record: %+v", r)
	}
}

func TestNew_Invalid(t *testing.T) {
	tk := tenant.MustNew("p", "u")
	tests := []struct {
		name  string
		tk    tenant.Key
		docID string
		vec   []float32
		want  error
	}{
		{"no tenant", tenant.Key{}, "d", []float32{1}, domain.ErrTenantIsolation},
		{"no document", tk, "", []float32{1}, domain.ErrInvalidDocument},
		{"empty vector", tk, "d", nil, domain.ErrDimensionMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.tk, tc.docID, testChunk(), tc.vec, "m", time.Now())
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCheckBatch(t *testing.T) {
	t1 := tenant.MustNew("p1", "u1")
	t2 := tenant.MustNew("p2", "u1")
	ok := Reconstruct("a", t1, "d", testChunk(), []float32{1, 0, 0}, "m", time.Now())
	short := Reconstruct("b", t1, "d", testChunk(), []float32{1, 0}, "m", time.Now())
	foreign := Reconstruct("c", t2, "d", testChunk(), []float32{1, 0, 0}, "m", time.Now())

	if err := CheckBatch(t1, []Record{ok}, 3); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckBatch(t1, []Record{ok, short}, 3); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if err := CheckBatch(t1, []Record{ok, foreign}, 3); !errors.Is(err, domain.ErrTenantIsolation) {
		t.Errorf("expected ErrTenantIsolation, got %v", err)
	}
	if err := CheckBatch(tenant.Key{}, nil, 3); !errors.Is(err, domain.ErrTenantIsolation) {
		t.Errorf("expected ErrTenantIsolation for zero tenant, got %v", err)
	}
}

func TestNewSearchQuery_PushesStoreFilters(t *testing.T) {
	from := time.Unix(100, 0)
	f, err := filter.New(&from, nil, "error", "api")
	if err != nil {
		t.Fatal(err)
	}
	q := NewSearchQuery([]float32{1}, 5, 0.7, f)
	if q.Level != chunk.LevelError || q.From == nil || !q.From.Equal(from) || q.To != nil {
		t.Errorf("unexpected query: %+v", q)
	}
	if q.Limit != 5 || q.Threshold != 0.7 {
		t.Errorf("limit/threshold = %d/%f", q.Limit, q.Threshold)
	}
}
