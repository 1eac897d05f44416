// Package health aggregates component checks for the /health endpoint.
package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a non-critical component (cache, embedding) failed.
	Degraded Status = "degraded"
	// Unhealthy indicates the datasets cannot be read.
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

const checkTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	datasets  DatasetChecker
	files     []string
	cache     CachePinger
	embedding EmbeddingChecker
}

// New creates a Service. cache and embedding can be nil.
func New(datasets DatasetChecker, files []string, cache CachePinger, embedding EmbeddingChecker) *Service {
	return &Service{datasets: datasets, files: files, cache: cache, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	checks := make(map[string]CheckResult)

	datasetsOK := s.datasets.Check(ctx, s.files) == nil
	checks["datasets"] = result(datasetsOK)

	if s.cache != nil {
		checks["cache"] = result(s.cache.Ping(ctx) == nil)
	}
	if s.embedding != nil {
		checks["embedding"] = result(s.embedding.HealthCheck(ctx) == nil)
	}

	status := Healthy
	switch {
	case !datasetsOK:
		status = Unhealthy
	default:
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Checks: checks}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
