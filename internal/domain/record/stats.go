package record

import "time"

// Stats summarizes a tenant's indexed corpus.
type Stats struct {
	RecordCount   int
	DocumentCount int
	Oldest        *time.Time
	Newest        *time.Time
}

// IsEmpty reports whether the tenant has nothing indexed.
func (s Stats) IsEmpty() bool { return s.RecordCount == 0 }
