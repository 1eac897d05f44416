package health

import "context"

// DatasetChecker verifies that the configured workbooks are readable.
type DatasetChecker interface {
	Check(ctx context.Context, files []string) error
}

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
