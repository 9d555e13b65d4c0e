// Package record holds the VectorRecord, the only entity the core persists.
package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/domain/chunk"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

// Record is an embedded chunk owned by one tenant.
type Record struct {
	id         string
	tenant     tenant.Key
	documentID string
	chunk      chunk.Chunk
	embedding  []float32
	model      string
	createdAt  time.Time
}

// New validates and creates a Record with a fresh uuid.
func New(
	t tenant.Key, documentID string, c chunk.Chunk,
	embedding []float32, model string, createdAt time.Time,
) (Record, error) {
	if err := t.Validate(); err != nil {
		return Record{}, err //nolint:wrapcheck // already carries ErrTenantIsolation
	}
	if documentID == "" {
		return Record{}, fmt.Errorf("document id is required: %w", domain.ErrInvalidDocument)
	}
	if len(embedding) == 0 {
		return Record{}, fmt.Errorf("empty embedding: %w", domain.ErrDimensionMismatch)
	}
	return Record{
		id:         uuid.NewString(),
		tenant:     t,
		documentID: documentID,
		chunk:      c,
		embedding:  embedding,
		model:      model,
		createdAt:  createdAt,
	}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(
	id string, t tenant.Key, documentID string, c chunk.Chunk,
	embedding []float32, model string, createdAt time.Time,
) Record {
	return Record{
		id: id, tenant: t, documentID: documentID, chunk: c,
		embedding: embedding, model: model, createdAt: createdAt,
	}
}

// ID returns the record identifier.
func (r Record) ID() string { return r.id }

// Tenant returns the owning tenant.
func (r Record) Tenant() tenant.Key { return r.tenant }

// DocumentID returns the source document identifier.
func (r Record) DocumentID() string { return r.documentID }

// Chunk returns the embedded chunk.
func (r Record) Chunk() chunk.Chunk { return r.chunk }

// Embedding returns the vector.
func (r Record) Embedding() []float32 { return r.embedding }

// Model returns the embedding model id.
func (r Record) Model() string { return r.model }

// CreatedAt returns the indexing time.
func (r Record) CreatedAt() time.Time { return r.createdAt }

// CheckBatch verifies every record belongs to t and has the configured dimension.
// Stores call it before touching storage so a bad batch writes nothing.
func CheckBatch(t tenant.Key, records []Record, dimensions int) error {
	if err := t.Validate(); err != nil {
		return err //nolint:wrapcheck // already carries ErrTenantIsolation
	}
	for i := range records {
		if records[i].tenant != t {
			return fmt.Errorf("record %d belongs to another tenant: %w", i, domain.ErrTenantIsolation)
		}
		if len(records[i].embedding) != dimensions {
			return fmt.Errorf("record %d: got %d, want %d: %w",
				i, len(records[i].embedding), dimensions, domain.ErrDimensionMismatch)
		}
	}
	return nil
}
