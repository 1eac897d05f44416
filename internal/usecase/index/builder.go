package index

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/domain"
	"github.com/kailas-cloud/tripmate/internal/metrics"
)

// Builder embeds search texts and assembles a SearchIndex.
type Builder struct {
	embedder domain.Embedder
	logger   *zap.Logger
}

// NewBuilder creates a Builder around the document embedder.
func NewBuilder(embedder domain.Embedder, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{embedder: embedder, logger: logger}
}

// Build embeds texts in order and indexes the vectors by input position.
func (b *Builder) Build(ctx context.Context, label string, texts []string) (*SearchIndex, error) {
	start := time.Now()

	res, err := domain.EmbedAll(ctx, b.embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d search texts: %w", len(texts), err)
	}

	idx, err := New(res.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	duration := time.Since(start)
	metrics.IndexBuildDuration.WithLabelValues(label).Observe(duration.Seconds())
	b.logger.Debug("Search index built",
		zap.String("dataset", label),
		zap.Int("records", idx.Len()),
		zap.Int("dimensions", idx.Dims()),
		zap.Int("total_tokens", res.TotalTokens),
		zap.Duration("duration", duration),
	)
	return idx, nil
}
