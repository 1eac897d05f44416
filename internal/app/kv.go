package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/config"
	"github.com/kailas-cloud/tripmate/internal/db"
	dbBadger "github.com/kailas-cloud/tripmate/internal/db/badger"
	dbMemory "github.com/kailas-cloud/tripmate/internal/db/memory"
	dbRedis "github.com/kailas-cloud/tripmate/internal/db/redis"
)

// BuildKV opens the embedding cache backend and waits until it answers.
// Returns nil for driver "none".
func BuildKV(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "", "memory":
		store = dbMemory.New()
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	case "badger":
		store, err = dbBadger.Open(dbBadger.Config{
			Path:   cfg.Path,
			Logger: logger,
		})
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Driver, err)
	}

	timeout := time.Duration(cfg.ReadinessTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("%s cache not ready: %w", cfg.Driver, err)
	}
	return store, nil
}
