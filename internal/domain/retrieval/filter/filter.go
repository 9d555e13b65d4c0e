// Package filter holds optional metadata predicates of a retrieval query.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/domain/chunk"
)

// MaxSourceLength bounds the source substring.
const MaxSourceLength = 256

// Filters narrow retrieval by chunk metadata. The zero value matches everything.
type Filters struct {
	from   *time.Time
	to     *time.Time
	level  string
	source string
}

// New validates and creates Filters. level is normalized; an unknown level is rejected.
func New(from, to *time.Time, level, source string) (Filters, error) {
	if from != nil && to != nil && from.After(*to) {
		return Filters{}, fmt.Errorf("date range: from is after to: %w", domain.ErrInvalidQuery)
	}
	var lvl string
	if level != "" {
		lvl = chunk.NormalizeLevel(level)
		if lvl == "" {
			return Filters{}, fmt.Errorf("unknown level %q: %w", level, domain.ErrInvalidQuery)
		}
	}
	source = strings.TrimSpace(source)
	if len(source) > MaxSourceLength {
		return Filters{}, fmt.Errorf("source too long (max %d): %w", MaxSourceLength, domain.ErrInvalidQuery)
	}
	return Filters{from: from, to: to, level: lvl, source: source}, nil
}

// From returns the inclusive lower time bound or nil.
func (f Filters) From() *time.Time { return f.from }

// To returns the inclusive upper time bound or nil.
func (f Filters) To() *time.Time { return f.to }

// Level returns the canonical level or "".
func (f Filters) Level() string { return f.level }

// Source returns the source substring or "".
func (f Filters) Source() string { return f.source }

// IsEmpty reports whether no predicate is set.
func (f Filters) IsEmpty() bool {
	return f.from == nil && f.to == nil && f.level == "" && f.source == ""
}

// MatchSource checks the case-insensitive source substring. Level and date
// range are pushed into the store query instead. The source
// predicate is matched against chunk metadata and falls back to content when
// the chunk has no extracted source.
func (f Filters) MatchSource(c chunk.Chunk) bool {
	if f.source == "" {
		return true
	}
	needle := strings.ToLower(f.source)
	if src := c.Source(); src != "" {
		return strings.Contains(strings.ToLower(src), needle)
	}
	return strings.Contains(strings.ToLower(c.Content()), needle)
}
