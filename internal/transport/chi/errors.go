package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lograg/internal/domain"
)

// sentinelStatus maps a domain sentinel to its HTTP status and code.
type sentinelStatus struct {
	err    error
	status int
	code   ErrorCode
	// detail keeps the wrapped message; validation errors only.
	detail bool
}

// sentinelTable is checked in order; the first match wins.
var sentinelTable = []sentinelStatus{
	{domain.ErrTenantIsolation, http.StatusBadRequest, ErrorCodeTenantIsolation, true},
	{domain.ErrInvalidDocument, http.StatusBadRequest, ErrorCodeInvalidDocument, true},
	{domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeInvalidQuery, true},
	{domain.ErrDimensionMismatch, http.StatusBadRequest, ErrorCodeDimensionMismatch, true},
	{domain.ErrDocumentNotFound, http.StatusNotFound, ErrorCodeDocumentNotFound, true},
	{domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited, false},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderError, false},
	{domain.ErrAnswererUnavailable, http.StatusBadGateway, ErrorCodeAnswererUnavailable, false},
	{domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, ErrorCodeEmbeddingUnavailable, false},
	{domain.ErrAnswererTimeout, http.StatusGatewayTimeout, ErrorCodeAnswererTimeout, false},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// classify returns the status and client-safe body for err.
// Validation errors keep their detail ("question is required: invalid query"),
// upstream failures collapse to the sentinel text, anything else is internal.
func classify(err error) (int, ErrorResponse, bool) {
	for _, s := range sentinelTable {
		if !errors.Is(err, s.err) {
			continue
		}
		msg := s.err.Error()
		if s.detail {
			msg = err.Error()
		}
		return s.status, ErrorResponse{Code: s.code, Message: msg}, true
	}
	return http.StatusInternalServerError, ErrorResponse{Code: ErrorCodeInternalError, Message: "internal error"}, false
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, body, known := classify(err)
	log := s.logger.With(zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
	if known {
		log.Warn("domain error", zap.Error(err), zap.Int("status", status))
	} else {
		log.Error("internal error", zap.Error(err))
	}
	writeJSON(w, status, body)
}
