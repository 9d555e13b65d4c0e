package client

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by APIError codes. Use errors.Is() to check.
var (
	ErrTenantIsolation      = errors.New("tenant isolation violation")
	ErrInvalidDocument      = errors.New("invalid document")
	ErrInvalidQuery         = errors.New("invalid query")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrRateLimited          = errors.New("rate limited")
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	ErrAnswererTimeout      = errors.New("answerer timeout")
)

var codeSentinels = map[string]error{
	"tenant_isolation_violation": ErrTenantIsolation,
	"invalid_document":           ErrInvalidDocument,
	"invalid_query":              ErrInvalidQuery,
	"document_not_found":         ErrDocumentNotFound,
	"unauthorized":               ErrUnauthorized,
	"rate_limited":               ErrRateLimited,
	"embedding_unavailable":      ErrEmbeddingUnavailable,
	"embedding_provider_error":   ErrEmbeddingUnavailable,
	"answerer_timeout":           ErrAnswererTimeout,
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("lograg: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Is matches the sentinel for the error code.
func (e *APIError) Is(target error) bool {
	s, ok := codeSentinels[e.Code]
	return ok && s == target
}
