package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/app"
	"github.com/kailas-cloud/tripmate/internal/config"
	logpkg "github.com/kailas-cloud/tripmate/internal/logger"
	chiTransport "github.com/kailas-cloud/tripmate/internal/transport/chi"
	"github.com/kailas-cloud/tripmate/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tripmate API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("data_dir", cfg.DataDir),
	)

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build engine", zap.Error(err))
	}
	defer a.Close()

	if err := a.Workbooks.Check(context.Background(), a.Catalog.Files()); err != nil {
		// сервер всё равно стартует: /health покажет datasets=error
		logger.Warn("Some workbooks are not readable", zap.Error(err))
	}
	logger.Info("Engine ready",
		zap.Strings("workbooks", a.Catalog.Files()),
		zap.Int("sheets", len(a.Catalog.Entries())),
	)

	server := chiTransport.NewServer(a.Recommend, a.Catalog, a.Health, chiTransport.Limits{
		Chat:     cfg.Engine.DefaultLimit,
		ShowMore: cfg.Engine.ShowMoreLimit,
	}, logger)

	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:            cfg.Auth.APIKeys,
		CORSOrigins:        cfg.HTTP.CORSOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		Logger:             logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
