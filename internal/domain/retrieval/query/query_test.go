package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/mode"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

func f64(v float64) *float64 { return &v }

func TestNew_Defaults(t *testing.T) {
	q, err := New("  What errors occurred? ", tenant.MustNew("p1", "u1"), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Question() != "What errors occurred?" {
		t.Errorf("Question() = %q", q.Question())
	}
	if q.MaxChunks() != DefaultMaxChunks {
		t.Errorf("MaxChunks() = %d", q.MaxChunks())
	}
	if q.Threshold() != DefaultThreshold {
		t.Errorf("Threshold() = %f", q.Threshold())
	}
	if q.Mode() != mode.Vector {
		t.Errorf("Mode() = %q", q.Mode())
	}
	if !q.Filters().IsEmpty() {
		t.Error("expected empty filters")
	}
}

func TestNew_ExplicitValues(t *testing.T) {
	q, err := New("q", tenant.MustNew("p", "u"), Options{MaxChunks: 500, Threshold: f64(0), Mode: mode.Hybrid})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.MaxChunks() != MaxMaxChunks {
		t.Errorf("MaxChunks() = %d, want clamp to %d", q.MaxChunks(), MaxMaxChunks)
	}
	if q.Threshold() != 0 {
		t.Errorf("explicit zero threshold must be kept, got %f", q.Threshold())
	}
	if q.Mode() != mode.Hybrid {
		t.Errorf("Mode() = %q", q.Mode())
	}
}

func TestNew_Invalid(t *testing.T) {
	tk := tenant.MustNew("p", "u")
	tests := []struct {
		name     string
		question string
		tk       tenant.Key
		opts     Options
		want     error
	}{
		{"no tenant", "q", tenant.Key{}, Options{}, domain.ErrTenantIsolation},
		{"empty question", "   ", tk, Options{}, domain.ErrInvalidQuery},
		{"too long", strings.Repeat("x", MaxQuestionLength+1), tk, Options{}, domain.ErrInvalidQuery},
		{"negative max", "q", tk, Options{MaxChunks: -1}, domain.ErrInvalidQuery},
		{"threshold above 1", "q", tk, Options{Threshold: f64(1.5)}, domain.ErrInvalidQuery},
		{"threshold below 0", "q", tk, Options{Threshold: f64(-0.1)}, domain.ErrInvalidQuery},
		{"bad mode", "q", tk, Options{Mode: "keyword"}, domain.ErrInvalidQuery},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.question, tc.tk, tc.opts)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
