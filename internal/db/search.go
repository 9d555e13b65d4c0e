package db

// TagMatch matches a TAG field against any of Values.
type TagMatch struct {
	Field  string
	Values []string
}

// NumericRange bounds a NUMERIC field, both ends inclusive. Nil means unbounded.
type NumericRange struct {
	Field string
	Min   *float64
	Max   *float64
}

// Filter is a conjunction of tag matches and numeric ranges used as a KNN pre-filter.
type Filter struct {
	Tags   []TagMatch
	Ranges []NumericRange
}

// IsEmpty reports whether the filter has no clauses.
func (f Filter) IsEmpty() bool { return len(f.Tags) == 0 && len(f.Ranges) == 0 }

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filter       Filter
	Vector       []float32
	K            int
	ReturnFields []string
	// EFRuntime overrides the HNSW search breadth when positive.
	EFRuntime int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit. Score is 1 - cosine distance, i.e. the cosine in [-1,1].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
