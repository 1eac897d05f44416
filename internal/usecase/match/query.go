package match

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/tripmate/internal/domain"
)

// Query is one user query. Its vector is embedded at most once, on first use,
// and shared by the semantic stage and relevance scoring.
type Query struct {
	raw      string
	text     string
	embedder domain.Embedder

	embedded bool
	vector   []float32
	err      error
}

// NewQuery wraps raw query text. embedder may be nil when no stage needs vectors.
func NewQuery(raw string, embedder domain.Embedder) *Query {
	return &Query{
		raw:      raw,
		text:     strings.ToLower(strings.TrimSpace(raw)),
		embedder: embedder,
	}
}

// Raw returns the query as received.
func (q *Query) Raw() string { return q.raw }

// Text returns the lowercased, trimmed query.
func (q *Query) Text() string { return q.text }

// Vector returns the query embedding, computing it on first call.
// A failure is remembered and returned again on later calls.
func (q *Query) Vector(ctx context.Context) ([]float32, error) {
	if q.embedded {
		return q.vector, q.err
	}
	q.embedded = true
	if q.embedder == nil {
		q.err = fmt.Errorf("no query embedder: %w", domain.ErrEmbeddingProviderError)
		return nil, q.err
	}
	res, err := q.embedder.Embed(ctx, q.text)
	if err != nil {
		q.err = fmt.Errorf("embed query: %w", err)
		return nil, q.err
	}
	q.vector = res.Embedding
	return q.vector, nil
}
