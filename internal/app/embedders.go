package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/config"
	"github.com/kailas-cloud/tripmate/internal/db"
	"github.com/kailas-cloud/tripmate/internal/domain"
	"github.com/kailas-cloud/tripmate/internal/metrics"
	"github.com/kailas-cloud/tripmate/internal/repository/embcache"
	langchainEmb "github.com/kailas-cloud/tripmate/internal/transport/langchain"
	openaiEmb "github.com/kailas-cloud/tripmate/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/tripmate/internal/usecase/embedding"
)

// Embedders are the two views of one provider chain: documents are indexed
// with the document instruction, queries with the query instruction.
type Embedders struct {
	Document domain.Embedder
	Query    domain.Embedder
}

// HealthCheck probes the provider, bypassing the circuit breaker.
func (e Embedders) HealthCheck(ctx context.Context) error {
	if hc, ok := e.Document.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// BuildEmbedders assembles the decorator chain:
// provider -> resilient (timeout + breaker) -> cached -> instrumented -> instruction.
// kv may be nil, in which case nothing is cached.
func BuildEmbedders(cfg config.EmbeddingConfig, kv db.KVStore, logger *zap.Logger) (Embedders, error) {
	base, err := buildProvider(cfg, logger)
	if err != nil {
		return Embedders{}, err
	}

	b := cfg.Breaker
	resilient := embeddinguc.NewResilientEmbedder(
		base,
		"embedding-"+cfg.Provider,
		time.Duration(cfg.TimeoutSec)*time.Second,
		embeddinguc.BreakerConfig{
			MaxRequests:  b.MaxRequests,
			Interval:     time.Duration(b.IntervalSec) * time.Second,
			OpenTimeout:  time.Duration(b.TimeoutSec) * time.Second,
			MinRequests:  b.MinRequests,
			FailureRatio: b.FailureRatio,
		},
		logger,
	)

	var chain domain.Embedder = resilient
	if kv != nil {
		// модель в неймспейсе: смена модели не отдаёт чужие векторы
		chain = embcache.New(chain, kv, cfg.Provider+":"+cfg.Model, metrics.EmbeddingCacheTotal, logger)
	}
	chain = embeddinguc.NewInstrumentedEmbedder(chain, cfg.Provider, cfg.Model, cfg.MaxBatchSize, logger)

	return Embedders{
		Document: withInstruction(chain, cfg.DocumentInstruction),
		Query:    withInstruction(chain, cfg.QueryInstruction),
	}, nil
}

func buildProvider(cfg config.EmbeddingConfig, logger *zap.Logger) (domain.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		}), nil
	case "local":
		emb, err := langchainEmb.NewEmbedder(&langchainEmb.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("local embedder: %w", err)
		}
		return emb, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// Instruction prefix is outermost, so the cache key includes it.
func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}
