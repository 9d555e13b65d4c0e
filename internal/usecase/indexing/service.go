// Package indexing is the write path: chunk, embed, store.
package indexing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/lograg/internal/domain"
	dombatch "github.com/kailas-cloud/lograg/internal/domain/batch"
	"github.com/kailas-cloud/lograg/internal/domain/chunk"
	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
	domrec "github.com/kailas-cloud/lograg/internal/domain/record"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
	"github.com/kailas-cloud/lograg/internal/logger"
	"github.com/kailas-cloud/lograg/internal/metrics"
)

// Defaults.
const (
	DefaultWorkers      = 4
	DefaultMaxBatchSize = 100
)

// Config tunes batch indexing.
type Config struct {
	// Workers bounds documents indexed concurrently by IndexBatch.
	Workers int
	// MaxBatchSize bounds documents per IndexBatch call.
	MaxBatchSize int
}

// Ack reports the outcome of indexing one document.
type Ack struct {
	DocumentID string
	Chunks     int
	Replaced   int
	Format     logdoc.Format
	Tokens     int
	DryRun     bool
}

// Item is one document of a batch request.
type Item struct {
	ID     string
	Text   string
	Format logdoc.Format
}

// Service indexes log documents for a tenant.
type Service struct {
	store  RecordStore
	split  Splitter
	embed  Embedder
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

// New creates an indexing service.
func New(store RecordStore, split Splitter, embed Embedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	return &Service{store: store, split: split, embed: embed, cfg: cfg, now: time.Now, logger: logger}
}

// WithClock overrides the record creation clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Index chunks, embeds and stores doc, replacing any previous version of the
// same document atomically. Re-indexing identical text is idempotent.
// With dryRun only chunking runs.
func (s *Service) Index(ctx context.Context, doc logdoc.Document, dryRun bool) (Ack, error) {
	res := s.split.Split(doc)
	ack := Ack{DocumentID: doc.ID(), Chunks: len(res.Chunks), Format: res.Format, DryRun: dryRun}
	if dryRun {
		return ack, nil
	}

	records, tokens, err := s.buildRecords(ctx, doc, res.Chunks)
	if err != nil {
		return Ack{}, err
	}
	ack.Tokens = tokens

	_, replaced, err := s.store.Replace(ctx, doc.Tenant(), doc.ID(), records)
	if err != nil {
		return Ack{}, fmt.Errorf("replace %s: %w", doc.ID(), err)
	}
	ack.Replaced = replaced
	metrics.IndexedChunksTotal.WithLabelValues(string(res.Format)).Add(float64(len(records)))

	s.log(ctx, doc.Tenant()).Info("Document indexed",
		zap.String("document_id", doc.ID()),
		zap.String("format", string(res.Format)),
		zap.Int("chunks", ack.Chunks),
		zap.Int("replaced", replaced),
	)
	return ack, nil
}

// Append indexes text that continues an already indexed document. lineOffset
// is the number of lines the document had before, so stored line ranges stay
// global; nil continues after the last stored line. Existing records are kept.
func (s *Service) Append(ctx context.Context, doc logdoc.Document, lineOffset *int) (Ack, error) {
	var offset int
	if lineOffset != nil {
		offset = *lineOffset
	} else {
		last, err := s.lastLine(ctx, doc.Tenant(), doc.ID())
		if err != nil {
			return Ack{}, err
		}
		offset = last
	}
	if offset < 0 {
		return Ack{}, fmt.Errorf("negative line offset %d: %w", offset, domain.ErrInvalidDocument)
	}
	res := s.split.Split(doc)
	ack := Ack{DocumentID: doc.ID(), Chunks: len(res.Chunks), Format: res.Format}
	if len(res.Chunks) == 0 {
		return ack, nil
	}

	shifted := make([]chunk.Chunk, len(res.Chunks))
	for i, c := range res.Chunks {
		shifted[i] = c.Shift(offset)
	}
	records, tokens, err := s.buildRecords(ctx, doc, shifted)
	if err != nil {
		return Ack{}, err
	}
	ack.Tokens = tokens

	if _, err := s.store.Store(ctx, doc.Tenant(), records); err != nil {
		return Ack{}, fmt.Errorf("append %s: %w", doc.ID(), err)
	}
	metrics.IndexedChunksTotal.WithLabelValues(string(res.Format)).Add(float64(len(records)))

	s.log(ctx, doc.Tenant()).Info("Document appended",
		zap.String("document_id", doc.ID()),
		zap.Int("chunks", ack.Chunks),
		zap.Int("line_offset", offset),
	)
	return ack, nil
}

// IndexBatch indexes several documents of one tenant with at most
// Config.Workers in flight. Every item gets its own result.
func (s *Service) IndexBatch(ctx context.Context, t tenant.Key, items []Item, dryRun bool) []dombatch.Result[Ack] {
	results := make([]dombatch.Result[Ack], len(items))

	if len(items) > s.cfg.MaxBatchSize {
		err := fmt.Errorf("batch size exceeds %d: %w", s.cfg.MaxBatchSize, domain.ErrInvalidDocument)
		for i, it := range items {
			results[i] = dombatch.NewError[Ack](it.ID, err)
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, it := range items {
		g.Go(func() error {
			doc, err := logdoc.New(it.ID, t, it.Text, it.Format)
			if err != nil {
				results[i] = dombatch.NewError[Ack](it.ID, err)
				return nil
			}
			ack, err := s.Index(gctx, doc, dryRun)
			if err != nil {
				results[i] = dombatch.NewError[Ack](it.ID, err)
				return nil
			}
			results[i] = dombatch.NewOK(it.ID, ack)
			return nil
		})
	}
	_ = g.Wait() // items never fail the group

	if failed := dombatch.Failed(results); failed > 0 {
		s.log(ctx, t).Warn("Batch indexing finished with failures",
			zap.Int("items", len(items)), zap.Int("failed", failed))
	}
	return results
}

// DeleteDocument removes a document's records.
func (s *Service) DeleteDocument(ctx context.Context, t tenant.Key, documentID string) (int, error) {
	n, err := s.store.DeleteByDocument(ctx, t, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", documentID, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("document %q: %w", documentID, domain.ErrDocumentNotFound)
	}
	return n, nil
}

// Clear removes everything a tenant has indexed.
func (s *Service) Clear(ctx context.Context, t tenant.Key) (int, error) {
	n, err := s.store.DeleteByTenant(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("clear tenant: %w", err)
	}
	s.log(ctx, t).Info("Tenant cleared", zap.Int("records", n))
	return n, nil
}

// Stats summarizes the tenant's corpus.
func (s *Service) Stats(ctx context.Context, t tenant.Key) (domrec.Stats, error) {
	st, err := s.store.Stats(ctx, t)
	if err != nil {
		return domrec.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// lastLine is the highest end line stored for a document, 0 when none.
func (s *Service) lastLine(ctx context.Context, t tenant.Key, documentID string) (int, error) {
	recs, err := s.store.Records(ctx, t, documentID)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", documentID, err)
	}
	last := 0
	for _, r := range recs {
		last = max(last, r.Chunk().EndLine())
	}
	return last, nil
}

func (s *Service) buildRecords(ctx context.Context, doc logdoc.Document, chunks []chunk.Chunk) ([]domrec.Record, int, error) {
	if len(chunks) == 0 {
		return nil, 0, nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content()
	}

	emb, err := s.embed.Embed(ctx, texts)
	if err != nil {
		return nil, 0, fmt.Errorf("embed %s: %w", doc.ID(), err)
	}
	if len(emb.Embeddings) != len(chunks) {
		return nil, 0, fmt.Errorf("embed %s: got %d vectors for %d chunks: %w",
			doc.ID(), len(emb.Embeddings), len(chunks), domain.ErrEmbeddingUnavailable)
	}

	created := s.now().UTC()
	model := s.embed.Model()
	records := make([]domrec.Record, len(chunks))
	for i, c := range chunks {
		r, err := domrec.New(doc.Tenant(), doc.ID(), c, emb.Embeddings[i], model, created)
		if err != nil {
			return nil, 0, fmt.Errorf("record %d of %s: %w", i, doc.ID(), err)
		}
		records[i] = r
	}
	return records, emb.TotalTokens, nil
}

func (s *Service) log(ctx context.Context, t tenant.Key) *zap.Logger {
	return logger.FromContext(ctx, s.logger).With(logger.TenantFields(t)...)
}
