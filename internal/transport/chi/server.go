package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lograg/internal/domain"
	dombatch "github.com/kailas-cloud/lograg/internal/domain/batch"
	"github.com/kailas-cloud/lograg/internal/domain/logdoc"
	domrag "github.com/kailas-cloud/lograg/internal/domain/rag"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/filter"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/mode"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/query"
	"github.com/kailas-cloud/lograg/internal/domain/retrieval/result"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
	healthuc "github.com/kailas-cloud/lograg/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/lograg/internal/usecase/indexing"
	raguc "github.com/kailas-cloud/lograg/internal/usecase/rag"
	retrievaluc "github.com/kailas-cloud/lograg/internal/usecase/retrieval"
)

// DefaultMaxBodyBytes bounds request bodies: one 10 MiB document plus JSON overhead.
const DefaultMaxBodyBytes = 16 << 20

// Server is the lograg HTTP API.
type Server struct {
	indexing     *indexinguc.Service
	retrieval    *retrievaluc.Service
	pipeline     *raguc.Pipeline
	health       *healthuc.Service
	defaultMode  mode.Mode
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	indexing *indexinguc.Service,
	retrieval *retrievaluc.Service,
	pipeline *raguc.Pipeline,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		indexing:     indexing,
		retrieval:    retrieval,
		pipeline:     pipeline,
		health:       health,
		defaultMode:  mode.Vector,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       logger,
	}
}

// WithDefaultMode sets the retrieval mode for queries that do not name one.
func (s *Server) WithDefaultMode(m mode.Mode) *Server {
	if m.IsValid() {
		s.defaultMode = m
	}
	return s
}

// WithMaxBodyBytes overrides the request body limit.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// Routes registers the API on r. Everything under /v1 requires tenant headers.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Use(RequireTenant)

		r.Post("/documents/batch", s.BatchIndex)
		r.Put("/documents/{id}", s.IndexDocument)
		r.Post("/documents/{id}/append", s.AppendDocument)
		r.Delete("/documents/{id}", s.DeleteDocument)
		r.Post("/query", s.Query)
		r.Post("/search", s.Search)
		r.Delete("/tenant", s.ClearTenant)
		r.Get("/stats", s.Stats)
	})
}

// IndexDocument handles PUT /v1/documents/{id}. Re-indexing replaces the document.
func (s *Server) IndexDocument(w http.ResponseWriter, r *http.Request) {
	id, err := bindDocumentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	params, err := bindIndexParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	var req IndexDocumentRequest
	if !s.decode(w, r, &req) {
		return
	}

	doc, err := logdoc.New(id, tenantFrom(r.Context()), req.Text, parseFormat(req.Format))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ack, err := s.indexing.Index(ctx, doc, params.DryRun != nil && *params.DryRun)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, ackToDTO(ack))
}

// AppendDocument handles POST /v1/documents/{id}/append: chunks are numbered
// from line_offset+1, or after the last stored line when line_offset is
// absent, and added without touching existing records.
func (s *Server) AppendDocument(w http.ResponseWriter, r *http.Request) {
	id, err := bindDocumentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	params, err := bindAppendParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	var req IndexDocumentRequest
	if !s.decode(w, r, &req) {
		return
	}

	doc, err := logdoc.New(id, tenantFrom(r.Context()), req.Text, parseFormat(req.Format))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ack, err := s.indexing.Append(ctx, doc, params.LineOffset)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, ackToDTO(ack))
}

// BatchIndex handles POST /v1/documents/batch. A failing document never fails its siblings.
func (s *Server) BatchIndex(w http.ResponseWriter, r *http.Request) {
	params, err := bindIndexParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	var req BatchIndexRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidDocument, "documents must not be empty")
		return
	}

	items := make([]indexinguc.Item, len(req.Documents))
	for i, d := range req.Documents {
		items[i] = indexinguc.Item{ID: d.ID, Text: d.Text, Format: parseFormat(d.Format)}
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results := s.indexing.IndexBatch(ctx, tenantFrom(r.Context()), items, params.DryRun != nil && *params.DryRun)

	resp := BatchIndexResponse{Items: make([]BatchItemResult, len(results))}
	for i, res := range results {
		resp.Items[i] = batchItemToDTO(res)
	}
	resp.Failed = dombatch.Failed(results)
	resp.Succeeded = len(results) - resp.Failed

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, resp)
}

// DeleteDocument handles DELETE /v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := bindDocumentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	n, err := s.indexing.DeleteDocument(r.Context(), tenantFrom(r.Context()), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: n})
}

// Query handles POST /v1/query. An answerer failure is a 200 with
// failure_reason set and the sources kept.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !s.decode(w, r, &req) {
		return
	}

	q, err := s.buildQuery(tenantFrom(r.Context()), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.pipeline.Query(ctx, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, responseToDTO(resp))
}

// Search handles POST /v1/search: retrieval without an answer.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	var req QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	if params.Limit != nil {
		req.MaxChunks = params.Limit
	}

	q, err := s.buildQuery(tenantFrom(r.Context()), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	hits, err := s.retrieval.Retrieve(ctx, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SearchResponse{Results: sourcesToDTO(hits)})
}

// ClearTenant handles DELETE /v1/tenant.
func (s *Server) ClearTenant(w http.ResponseWriter, r *http.Request) {
	n, err := s.indexing.Clear(r.Context(), tenantFrom(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: n})
}

// Stats handles GET /v1/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.indexing.Stats(r.Context(), tenantFrom(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		RecordCount:   st.RecordCount,
		DocumentCount: st.DocumentCount,
		Oldest:        st.Oldest,
		Newest:        st.Newest,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decode reads a JSON body into v. On failure it writes the response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodeInvalidDocument,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) buildQuery(t tenant.Key, req *QueryRequest) (query.Query, error) {
	m, ok := mode.Parse(req.Mode)
	if !ok {
		return query.Query{}, fmt.Errorf("unknown mode %q: %w", req.Mode, domain.ErrInvalidQuery)
	}
	if m == "" {
		m = s.defaultMode
	}

	var f filter.Filters
	if req.Filters != nil {
		var err error
		f, err = filter.New(req.Filters.From, req.Filters.To, req.Filters.Level, req.Filters.Source)
		if err != nil {
			return query.Query{}, fmt.Errorf("filters: %w", err)
		}
	}

	opts := query.Options{Filters: f, Threshold: req.SimilarityThreshold, Mode: m}
	if req.MaxChunks != nil {
		if *req.MaxChunks <= 0 {
			return query.Query{}, fmt.Errorf("max_chunks must be positive: %w", domain.ErrInvalidQuery)
		}
		opts.MaxChunks = *req.MaxChunks
	}
	return query.New(req.Question, t, opts) //nolint:wrapcheck // domain errors carry their sentinel
}

// parseFormat maps client aliases; unknown values pass through so document
// validation rejects them with ErrInvalidDocument.
func parseFormat(s string) logdoc.Format {
	if f, ok := logdoc.ParseFormat(s); ok {
		return f
	}
	return logdoc.Format(s)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if tokens, used := usage.Snapshot(); used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(tokens))
	}
}

func ackToDTO(a indexinguc.Ack) IndexDocumentResponse {
	return IndexDocumentResponse{
		DocumentID: a.DocumentID,
		Chunks:     a.Chunks,
		Replaced:   a.Replaced,
		Format:     string(a.Format),
		DryRun:     a.DryRun,
	}
}

func batchItemToDTO(res dombatch.Result[indexinguc.Ack]) BatchItemResult {
	if res.Err() != nil {
		_, body, _ := classify(res.Err())
		return BatchItemResult{ID: res.ID(), Status: BatchItemError, Error: &body}
	}
	ack := res.Value()
	return BatchItemResult{
		ID:       res.ID(),
		Status:   BatchItemOK,
		Chunks:   ack.Chunks,
		Replaced: ack.Replaced,
		Format:   string(ack.Format),
	}
}

func responseToDTO(r domrag.Response) QueryResponse {
	return QueryResponse{
		Answer:        r.Answer,
		Sources:       sourcesToDTO(r.Sources),
		Confidence:    r.Confidence,
		ModelUsed:     r.ModelUsed,
		Stage:         string(r.Stage),
		FailureReason: string(r.FailureReason),
		TokensUsed:    r.TokensUsed,
		LatencyMs:     r.Latency.Milliseconds(),
	}
}

func sourcesToDTO(rs []result.Result) []Source {
	out := make([]Source, len(rs))
	for i, r := range rs {
		c := r.Chunk()
		out[i] = Source{
			RecordID:    r.RecordID(),
			DocumentID:  r.DocumentID(),
			Content:     c.Content(),
			StartLine:   c.StartLine(),
			EndLine:     c.EndLine(),
			Format:      string(c.Format()),
			Timestamp:   c.Timestamp(),
			Level:       c.Level(),
			Origin:      c.Source(),
			Similarity:  r.Similarity(),
			RerankScore: r.RerankScore(),
			CreatedAt:   r.CreatedAt(),
		}
	}
	return out
}
