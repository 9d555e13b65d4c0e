// Package query holds the validated retrieval/RAG query.
package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/filter"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/mode"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

// Query parameter limits.
const (
	// MaxQuestionLength is the maximum allowed question length.
	MaxQuestionLength = 4096
	DefaultMaxChunks  = 5
	MaxMaxChunks      = 50
	DefaultThreshold  = 0.7
)

// Query is a validated question scoped to a tenant.
type Query struct {
	question  string
	tenant    tenant.Key
	filters   filter.Filters
	maxChunks int
	threshold float64
	mode      mode.Mode
}

// Options are the optional parts of a query. Nil pointers and empty values take defaults.
type Options struct {
	Filters   filter.Filters
	MaxChunks int
	Threshold *float64
	Mode      mode.Mode
}

// New validates and normalizes a query.
// Defaults: max_chunks=5, threshold=0.7, mode=vector. max_chunks is clamped to 50.
func New(question string, t tenant.Key, opts Options) (Query, error) {
	if err := t.Validate(); err != nil {
		return Query{}, err //nolint:wrapcheck // already carries ErrTenantIsolation
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return Query{}, fmt.Errorf("question is required: %w", domain.ErrInvalidQuery)
	}
	if len(question) > MaxQuestionLength {
		return Query{}, fmt.Errorf("question too long (max %d chars): %w", MaxQuestionLength, domain.ErrInvalidQuery)
	}

	maxChunks := opts.MaxChunks
	if maxChunks < 0 {
		return Query{}, fmt.Errorf("max_chunks must be positive: %w", domain.ErrInvalidQuery)
	}
	if maxChunks == 0 {
		maxChunks = DefaultMaxChunks
	}
	if maxChunks > MaxMaxChunks {
		maxChunks = MaxMaxChunks
	}

	threshold := DefaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return Query{}, fmt.Errorf("similarity_threshold must be between 0 and 1: %w", domain.ErrInvalidQuery)
	}

	m := opts.Mode
	if m == "" {
		m = mode.Vector
	}
	if !m.IsValid() {
		return Query{}, fmt.Errorf("invalid retrieval mode %q: %w", m, domain.ErrInvalidQuery)
	}

	return Query{
		question:  question,
		tenant:    t,
		filters:   opts.Filters,
		maxChunks: maxChunks,
		threshold: threshold,
		mode:      m,
	}, nil
}

// Question returns the trimmed question text.
func (q Query) Question() string { return q.question }

// Tenant returns the tenant the query is scoped to.
func (q Query) Tenant() tenant.Key { return q.tenant }

// Filters returns the metadata filters.
func (q Query) Filters() filter.Filters { return q.filters }

// MaxChunks returns the maximum number of results.
func (q Query) MaxChunks() int { return q.maxChunks }

// Threshold returns the minimum similarity in [0,1].
func (q Query) Threshold() float64 { return q.threshold }

// Mode returns the retrieval strategy.
func (q Query) Mode() mode.Mode { return q.mode }
