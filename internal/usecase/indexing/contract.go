package indexing

import (
	"context"

	"github.com/kailas-cloud/lograg/internal/chunker"
	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
	domrec "github.com/kailas-cloud/lograg/internal/domain/record"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

// RecordStore persists tenant records.
type RecordStore interface {
	Store(ctx context.Context, t tenant.Key, records []domrec.Record) ([]string, error)
	Replace(ctx context.Context, t tenant.Key, documentID string, records []domrec.Record) ([]string, int, error)
	DeleteByDocument(ctx context.Context, t tenant.Key, documentID string) (int, error)
	DeleteByTenant(ctx context.Context, t tenant.Key) (int, error)
	Stats(ctx context.Context, t tenant.Key) (domrec.Stats, error)
	Records(ctx context.Context, t tenant.Key, documentID string) ([]domrec.Record, error)
}

// Splitter turns a log document into chunks.
type Splitter interface {
	Split(doc logdoc.Document) chunker.Result
}

// Embedder vectorizes chunk contents in batch.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
	Model() string
}
