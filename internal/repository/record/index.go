package record

import (
	"fmt"

	"github.com/kailas-cloud/lograg/internal/db"
)

// HNSWConfig holds HNSW index parameters. Zero values use server defaults.
type HNSWConfig struct {
	M           int
	EFConstruct int
	EFRuntime   int
}

// buildIndex describes the shared record index. tenant is the mandatory
// pre-filter of every KNN query; document ids are case-sensitive.
func buildIndex(dims int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	def, err := db.NewIndex(IndexName).
		Prefix(RecordPrefix).
		CaseSensitiveTag(fieldTenant).
		CaseSensitiveTag(fieldDocument).
		Tag(fieldLevel).
		Numeric(fieldTS).
		Numeric(fieldCreatedAt).
		Vector(fieldVector, dims, db.HNSWParams(hnsw)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build record index: %w", err)
	}
	return def, nil
}
