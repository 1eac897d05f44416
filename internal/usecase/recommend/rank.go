package recommend

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/domain/record"
	"github.com/kailas-cloud/tripmate/internal/textsim"
	"github.com/kailas-cloud/tripmate/internal/usecase/index"
	"github.com/kailas-cloud/tripmate/internal/usecase/match"
)

// rankByPopularity orders candidate positions by popularity, highest first.
// Equal popularity keeps resolver order.
func rankByPopularity(records []record.Record, positions []int) []int {
	out := append([]int(nil), positions...)
	sort.SliceStable(out, func(i, j int) bool {
		return records[out[i]].Popularity > records[out[j]].Popularity
	})
	return out
}

// paginate returns the [offset, offset+limit) window, empty when out of range.
func paginate(ranked []int, offset, limit int) []int {
	if offset >= len(ranked) || limit <= 0 {
		return nil
	}
	end := offset + limit
	if end > len(ranked) || end < offset {
		end = len(ranked)
	}
	return ranked[offset:end]
}

// relevance blends semantic similarity with name similarity:
// round((semantic + name) / 2, 2). The semantic term is clamped to [0, 1].
func relevance(semantic, name float64) float64 {
	if math.IsNaN(semantic) {
		semantic = 0
	}
	semantic = math.Max(0, math.Min(1, semantic))
	return math.Round((semantic+name)/2*100) / 100
}

// scorer computes relevance for page candidates, reusing index vectors.
type scorer struct {
	query  *match.Query
	index  *index.SearchIndex
	logger *zap.Logger
}

// score never fails: any error degrades the candidate to 0.
func (s *scorer) score(ctx context.Context, r *record.Record) float64 {
	vec, err := s.query.Vector(ctx)
	if err != nil {
		s.logger.Warn("Relevance scoring degraded", zap.String("name", r.Name), zap.Error(err))
		return 0
	}
	semantic, err := s.index.Similarity(vec, r.Position)
	if err != nil {
		s.logger.Warn("Relevance scoring degraded", zap.String("name", r.Name), zap.Error(err))
		return 0
	}
	return relevance(semantic, textsim.Ratio(s.query.Text(), r.Name))
}
