package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterEngineMetrics_Idempotent(t *testing.T) {
	RegisterEngineMetrics()
	RegisterEngineMetrics()

	MatchStageTotal.WithLabelValues("restaurants", "exact").Inc()
	if v := testutil.ToFloat64(MatchStageTotal.WithLabelValues("restaurants", "exact")); v < 1 {
		t.Errorf("expected counter >= 1, got %f", v)
	}
}

func TestRegisterEmbeddingMetrics_Idempotent(t *testing.T) {
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()

	EmbeddingCacheTotal.WithLabelValues("hit").Inc()
	if v := testutil.ToFloat64(EmbeddingCacheTotal.WithLabelValues("hit")); v < 1 {
		t.Errorf("expected counter >= 1, got %f", v)
	}
}
