// Package match resolves a query against a loaded dataset through an ordered
// cascade of strategies; the first stage with a non-empty result wins.
package match

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/domain/profile"
	"github.com/kailas-cloud/tripmate/internal/domain/record"
	"github.com/kailas-cloud/tripmate/internal/metrics"
	"github.com/kailas-cloud/tripmate/internal/usecase/index"
)

// Params holds the cascade limits.
type Params struct {
	AttributeCap    int
	SemanticTopK    int
	SimilarityFloor float64
	FuzzyTopN       int
}

// DefaultParams returns the stock cascade limits.
func DefaultParams() Params {
	return Params{
		AttributeCap:    3,
		SemanticTopK:    5,
		SimilarityFloor: 0.3,
		FuzzyTopN:       3,
	}
}

// Result is the winning stage and its candidate positions in stage order.
type Result struct {
	Stage     profile.Stage
	Positions []int
}

// Resolver runs strategies in order.
type Resolver struct {
	label      string
	strategies []Strategy
	logger     *zap.Logger
}

// NewResolver creates a Resolver. label is used for metrics and logs.
func NewResolver(label string, logger *zap.Logger, strategies ...Strategy) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{label: label, strategies: strategies, logger: logger}
}

// ForProfile assembles the cascade declared by a domain profile.
func ForProfile(p profile.Profile, params Params, logger *zap.Logger) (*Resolver, error) {
	strategies := make([]Strategy, 0, len(p.Stages))
	for _, st := range p.Stages {
		switch st {
		case profile.StageExact:
			strategies = append(strategies, Exact{})
		case profile.StageAttribute:
			strategies = append(strategies, Substring{
				StageName: st,
				Columns:   p.AttributeColumns,
				Families:  p.AttributeFamilies,
				Cap:       params.AttributeCap,
			})
		case profile.StageName:
			strategies = append(strategies, Substring{StageName: st, Name: true, Cap: params.AttributeCap})
		case profile.StageKeyword:
			strategies = append(strategies, KeywordFilter{Vocabulary: p.Vocabulary})
		case profile.StageLocation:
			strategies = append(strategies, LocationPhrase{Phrases: p.LocationPhrases, Columns: p.LocationColumns})
		case profile.StageCategory:
			strategies = append(strategies, Substring{StageName: st, Columns: []string{profile.ColumnCategory}})
		case profile.StageSemantic:
			strategies = append(strategies, Semantic{K: params.SemanticTopK, Floor: params.SimilarityFloor})
		case profile.StageFuzzy:
			strategies = append(strategies, Fuzzy{TopN: params.FuzzyTopN})
		default:
			return nil, fmt.Errorf("unknown match stage %q", st)
		}
	}
	return NewResolver(string(p.Domain), logger, strategies...), nil
}

// Stages lists the configured stages in order.
func (r *Resolver) Stages() []profile.Stage {
	out := make([]profile.Stage, len(r.strategies))
	for i, s := range r.strategies {
		out[i] = s.Stage()
	}
	return out
}

// Resolve returns the first non-empty stage result. An empty Result means the
// dataset had no records.
func (r *Resolver) Resolve(
	ctx context.Context, q *Query, ds *record.Dataset, idx *index.SearchIndex,
) (Result, error) {
	for _, s := range r.strategies {
		positions, err := s.Try(ctx, q, ds, idx)
		if err != nil {
			return Result{}, fmt.Errorf("match stage %s: %w", s.Stage(), err)
		}
		if len(positions) == 0 {
			continue
		}
		metrics.MatchStageTotal.WithLabelValues(r.label, string(s.Stage())).Inc()
		r.logger.Debug("Match stage selected",
			zap.String("domain", r.label),
			zap.String("stage", string(s.Stage())),
			zap.Int("candidates", len(positions)),
		)
		return Result{Stage: s.Stage(), Positions: positions}, nil
	}
	metrics.MatchStageTotal.WithLabelValues(r.label, "none").Inc()
	return Result{}, nil
}
