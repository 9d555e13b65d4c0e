package domain

import "errors"

var (
	// ErrEmbeddingUnavailable signals that the embedding model is not loaded or not reachable.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrEmbeddingProviderError signals a failed call to a remote embedding provider.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrDimensionMismatch signals a vector whose length disagrees with the configured dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrTenantIsolation signals a read or write without a tenant key or against another tenant.
	ErrTenantIsolation = errors.New("tenant isolation violation")
	// ErrAnswererTimeout signals that the answerer did not respond in time.
	ErrAnswererTimeout = errors.New("answerer timeout")
	// ErrAnswererUnavailable signals an answerer failure other than a timeout.
	ErrAnswererUnavailable = errors.New("answerer unavailable")
	// ErrInvalidDocument signals a log document that failed validation.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidQuery signals a query that failed validation.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrRateLimited signals a rate limit hit on an upstream provider.
	ErrRateLimited = errors.New("rate limited")
)
