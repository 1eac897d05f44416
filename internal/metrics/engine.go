package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation engine metrics.
var (
	MatchStageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "match_stage_total",
			Help:      "Requests resolved per cascade stage",
		},
		[]string{"domain", "stage"},
	)

	IndexBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Time to embed and index one dataset",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"dataset"},
	)

	DatasetLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time to read (and credit) a dataset sheet",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"domain"},
	)

	LikesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "likes_total",
			Help:      "Like credits by outcome",
		},
		[]string{"sheet", "result"}, // "matched" / "unmatched"
	)

	LikesPersistFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "likes_persist_failures_total",
			Help:      "Like credits that could not be written back",
		},
		[]string{"sheet"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "circuit_breaker_transitions_total",
			Help:      "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		MatchStageTotal,
		IndexBuildDuration,
		DatasetLoadDuration,
		LikesTotal,
		LikesPersistFailuresTotal,
		CircuitBreakerState,
		CircuitBreakerTransitionsTotal,
	)
	engineMetricsRegistered = true
}
