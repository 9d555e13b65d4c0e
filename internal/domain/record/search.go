package record

import (
	"time"

	"github.com/kailas-cloud/lograg/internal/domain/retrieval/filter"
)

// SearchQuery is what a store needs to answer a nearest-neighbor query.
// The tenant is passed separately and is never optional.
type SearchQuery struct {
	Vector    []float32
	Limit     int
	Threshold float64
	Level     string
	From      *time.Time
	To        *time.Time
}

// NewSearchQuery pushes the store-side filters (level, date range) into the query.
// The source filter stays with the caller.
func NewSearchQuery(vec []float32, limit int, threshold float64, f filter.Filters) SearchQuery {
	return SearchQuery{
		Vector:    vec,
		Limit:     limit,
		Threshold: threshold,
		Level:     f.Level(),
		From:      f.From(),
		To:        f.To(),
	}
}
