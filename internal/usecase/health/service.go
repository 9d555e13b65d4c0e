package health

import (
	"context"
	"sort"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in reports.
const (
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
	ComponentAnswerer  = "answerer"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db       Pinger
	checkers map[string]Checker
}

// New creates a Service. db is nil for the in-memory store; nil checkers are skipped.
func New(db Pinger, embedding, answerer Checker) *Service {
	s := &Service{db: db, checkers: map[string]Checker{}}
	if embedding != nil {
		s.checkers[ComponentEmbedding] = embedding
	}
	if answerer != nil {
		s.checkers[ComponentAnswerer] = answerer
	}
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.db != nil {
		checks[ComponentDatabase] = result(s.db.Ping(ctx))
	}

	names := make([]string, 0, len(s.checkers))
	for name := range s.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		checks[name] = result(s.checkers[name].HealthCheck(ctx))
	}

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
