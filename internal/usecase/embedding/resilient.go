package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/domain"
	"github.com/kailas-cloud/tripmate/internal/metrics"
)

// BreakerConfig tunes the provider circuit breaker.
type BreakerConfig struct {
	MaxRequests  uint32        // probes allowed while half-open
	Interval     time.Duration // closed-state count reset period
	OpenTimeout  time.Duration // time spent open before probing
	MinRequests  uint32        // requests needed before the ratio is considered
	FailureRatio float64
}

// DefaultBreakerConfig returns the production breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  3,
		Interval:     time.Minute,
		OpenTimeout:  30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// ResilientEmbedder bounds every provider call with a timeout and stops
// calling a failing provider until the breaker lets probes through.
type ResilientEmbedder struct {
	inner   domain.Embedder
	timeout time.Duration
	single  *gobreaker.CircuitBreaker[domain.EmbeddingResult]
	batch   *gobreaker.CircuitBreaker[domain.BatchEmbeddingResult]
	logger  *zap.Logger
}

// NewResilientEmbedder wraps inner. timeout <= 0 disables the per-call limit.
func NewResilientEmbedder(
	inner domain.Embedder, name string, timeout time.Duration, cfg BreakerConfig, logger *zap.Logger,
) *ResilientEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ResilientEmbedder{inner: inner, timeout: timeout, logger: logger}
	r.single = gobreaker.NewCircuitBreaker[domain.EmbeddingResult](r.settings(name, cfg))
	r.batch = gobreaker.NewCircuitBreaker[domain.BatchEmbeddingResult](r.settings(name+"-batch", cfg))
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerState.WithLabelValues(name + "-batch").Set(0)
	return r
}

func (r *ResilientEmbedder) settings(name string, cfg BreakerConfig) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn("Embedding circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitionsTotal.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		// Caller cancellations say nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
}

// Embed runs one provider call under the breaker.
func (r *ResilientEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := r.single.Execute(func() (domain.EmbeddingResult, error) {
		ctx, cancel := r.withTimeout(ctx)
		defer cancel()
		res, err := r.inner.Embed(ctx, text)
		return res, classify(ctx, err)
	})
	if err != nil {
		return domain.EmbeddingResult{}, r.mapBreakerErr(err)
	}
	return res, nil
}

// BatchEmbed runs one batch call under the breaker.
func (r *ResilientEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	res, err := r.batch.Execute(func() (domain.BatchEmbeddingResult, error) {
		ctx, cancel := r.withTimeout(ctx)
		defer cancel()
		res, err := domain.EmbedAll(ctx, r.inner, texts)
		return res, classify(ctx, err)
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, r.mapBreakerErr(err)
	}
	return res, nil
}

// HealthCheck bypasses the breaker so probes see the provider directly.
func (r *ResilientEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := r.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

// State reports the single-call breaker state.
func (r *ResilientEmbedder) State() gobreaker.State {
	return r.single.State()
}

func (r *ResilientEmbedder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// classify maps a deadline hit into ErrEmbeddingTimeout.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingTimeout, err)
	}
	return err
}

func (r *ResilientEmbedder) mapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("embedding provider unavailable: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
