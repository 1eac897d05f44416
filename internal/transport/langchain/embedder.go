// Package langchain serves embeddings from local OpenAI-compatible runtimes
// (Ollama, LM Studio, llama.cpp server) through langchaingo.
package langchain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/domain"
	"github.com/kailas-cloud/tripmate/internal/metrics"
)

const provider = "local"

// Config holds the local embedding runtime settings.
type Config struct {
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// Embedder implements domain.Embedder and domain.BatchEmbedder over a
// langchaingo embeddings.Embedder.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *zap.Logger
}

// NewEmbedder creates a local embedder. Local runtimes don't need a token,
// but the client requires one, so "none" is sent.
func NewEmbedder(cfg *Config) (*Embedder, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("langchain embedder: base url is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("langchain embedder: model is required")
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	emb, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		embedder: emb,
		model:    cfg.Model,
		logger:   logger.Named("local-embedder"),
	}, nil
}

// Embed implements domain.Embedder. Local runtimes report no token usage.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	vecs, err := e.embed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: vecs[0]}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	vecs, err := e.embed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	return domain.BatchEmbeddingResult{Embeddings: vecs}, nil
}

// HealthCheck embeds a short probe; local runtimes have no free endpoint.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.embed(ctx, []string{"ping"}); err != nil {
		return fmt.Errorf("probe embedding: %w", err)
	}
	return nil
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.model, "api_error").Inc()
		e.logger.Warn("local embedding failed", zap.Int("count", len(texts)), zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("local embedding: %w", domain.ErrEmbeddingTimeout)
		}
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("local embedding: %w", err)
		}
		return nil, fmt.Errorf("local embedding: %v: %w", err, domain.ErrEmbeddingProviderError)
	}
	if len(vecs) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.model, "count_mismatch").Inc()
		return nil, fmt.Errorf("local embedding returned %d vectors for %d texts: %w",
			len(vecs), len(texts), domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, e.model).Observe(duration.Seconds())
	e.logger.Debug("local embedding done", zap.Int("count", len(texts)), zap.Duration("duration", duration))

	return vecs, nil
}
