// Package app wires configuration into the running engine. Both the HTTP
// server and tripmatectl build on it.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/config"
	"github.com/kailas-cloud/tripmate/internal/db"
	"github.com/kailas-cloud/tripmate/internal/domain/profile"
	"github.com/kailas-cloud/tripmate/internal/metrics"
	"github.com/kailas-cloud/tripmate/internal/repository/workbook"
	healthuc "github.com/kailas-cloud/tripmate/internal/usecase/health"
	"github.com/kailas-cloud/tripmate/internal/usecase/index"
	"github.com/kailas-cloud/tripmate/internal/usecase/likes"
	"github.com/kailas-cloud/tripmate/internal/usecase/match"
	"github.com/kailas-cloud/tripmate/internal/usecase/recommend"
)

// App holds the assembled components.
type App struct {
	Config    config.Config
	Store     db.Store // nil when the embedding cache is disabled
	Workbooks *workbook.Store
	Catalog   *recommend.Catalog
	Embedders Embedders
	Builder   *index.Builder
	Recommend *recommend.Service
	Health    *healthuc.Service
}

// New builds the whole engine from configuration.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterEngineMetrics()

	catalog, err := BuildCatalog(cfg.Datasets)
	if err != nil {
		return nil, err
	}

	store, err := BuildKV(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	var kv db.KVStore
	if store != nil {
		kv = store
	}
	embedders, err := BuildEmbedders(cfg.Embedding, kv, logger)
	if err != nil {
		closeStore(store)
		return nil, err
	}

	workbooks := workbook.New(cfg.DataDir, logger)
	builder := index.NewBuilder(embedders.Document, logger)
	ledger := likes.New(workbooks, logger)

	svc, err := recommend.New(catalog, workbooks, ledger, builder, embedders.Query, match.Params{
		AttributeCap:    cfg.Engine.AttributeCap,
		SemanticTopK:    cfg.Engine.SemanticTopK,
		SimilarityFloor: cfg.Engine.SimilarityFloor,
		FuzzyTopN:       cfg.Engine.FuzzyTopN,
	}, logger)
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("build recommend service: %w", err)
	}

	// Pass nil interface (not typed nil pointer!) if the cache is disabled.
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	health := healthuc.New(workbooks, catalog.Files(), cachePinger, embedders)

	return &App{
		Config:    cfg,
		Store:     store,
		Workbooks: workbooks,
		Catalog:   catalog,
		Embedders: embedders,
		Builder:   builder,
		Recommend: svc,
		Health:    health,
	}, nil
}

// Close releases the cache backend.
func (a *App) Close() {
	closeStore(a.Store)
}

// BuildCatalog maps the datasets section onto domain profiles.
func BuildCatalog(datasets map[string]config.DatasetConfig) (*recommend.Catalog, error) {
	sources := make(map[profile.Domain]recommend.DatasetSource, len(datasets))
	for name, ds := range datasets {
		d, err := profile.ParseDomain(name)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", name, err)
		}
		sources[d] = recommend.DatasetSource{
			File:       ds.File,
			NameColumn: ds.NameColumn,
			Cities:     ds.Cities,
		}
	}
	catalog, err := recommend.NewCatalog(sources)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return catalog, nil
}

func closeStore(s db.Store) {
	if s != nil {
		s.Close()
	}
}
