package health

import "context"

// Pinger checks vector store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker checks a remote provider (embedding model, answerer).
type Checker interface {
	HealthCheck(ctx context.Context) error
}
