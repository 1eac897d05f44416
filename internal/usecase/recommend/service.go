// Package recommend is the engine entry point: it resolves the dataset for a
// request, runs the match cascade, credits likes and shapes the ranked page.
package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/domain"
	"github.com/kailas-cloud/tripmate/internal/domain/profile"
	"github.com/kailas-cloud/tripmate/internal/domain/record"
	"github.com/kailas-cloud/tripmate/internal/metrics"
	"github.com/kailas-cloud/tripmate/internal/textsim"
	"github.com/kailas-cloud/tripmate/internal/usecase/likes"
	"github.com/kailas-cloud/tripmate/internal/usecase/match"
	"github.com/kailas-cloud/tripmate/internal/usecase/normalize"
)

// Request is one chat or show-more query.
type Request struct {
	City     string
	Category string
	Query    string
	Liked    []string
	Offset   int
	Limit    int
}

// Response is a ranked page. Reply is set instead of suggestions for
// greetings, farewells and empty datasets.
type Response struct {
	Reply        string        `json:"response,omitempty"`
	Suggestions  []Suggestion  `json:"suggestions"`
	TotalResults int           `json:"total_results"`
	Offset       int           `json:"offset"`
	Limit        int           `json:"limit"`
	Stage        profile.Stage `json:"stage,omitempty"`
}

// LikeRequest credits a single record by name.
type LikeRequest struct {
	City     string
	Category string
	Name     string
}

// LikeResponse reports the outcome of a like.
type LikeResponse struct {
	Message   string
	Matched   int
	Persisted bool
}

type domainEngine struct {
	profile    profile.Profile
	normalizer *normalize.Normalizer
	resolver   *match.Resolver
}

// Service handles recommendation requests.
type Service struct {
	catalog       *Catalog
	tables        TableLoader
	ledger        LikeCrediter
	builder       IndexBuilder
	queryEmbedder domain.Embedder
	engines       map[profile.Domain]domainEngine
	logger        *zap.Logger
}

// New creates a Service with one engine per catalog domain.
func New(
	catalog *Catalog,
	tables TableLoader,
	ledger LikeCrediter,
	builder IndexBuilder,
	queryEmbedder domain.Embedder,
	params match.Params,
	logger *zap.Logger,
) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		catalog:       catalog,
		tables:        tables,
		ledger:        ledger,
		builder:       builder,
		queryEmbedder: queryEmbedder,
		engines:       make(map[profile.Domain]domainEngine),
		logger:        logger,
	}
	for _, d := range profile.Domains() {
		p, ok := catalog.Profile(d)
		if !ok {
			continue
		}
		r, err := match.ForProfile(p, params, logger)
		if err != nil {
			return nil, fmt.Errorf("resolver for %s: %w", d, err)
		}
		s.engines[d] = domainEngine{profile: p, normalizer: normalize.New(p), resolver: r}
	}
	return s, nil
}

// HandleRequest answers one query with a ranked, paginated page.
func (s *Service) HandleRequest(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.City) == "" || strings.TrimSpace(req.Category) == "" ||
		strings.TrimSpace(req.Query) == "" {
		return Response{}, domain.NewInputError(domain.ErrInvalidInput, "Please provide city, category, and query.")
	}
	if req.Offset < 0 || req.Limit < 0 {
		return Response{}, domain.NewInputError(domain.ErrInvalidInput, "offset and limit must be non-negative.")
	}

	eng, ref, err := s.resolve(req.Category, req.City)
	if err != nil {
		return Response{}, err
	}

	resp := Response{Offset: req.Offset, Limit: req.Limit}
	if reply, ok := conversationalReply(eng.profile, req.Query); ok {
		resp.Reply = reply
		return resp, nil
	}

	liked := nonBlank(req.Liked)
	table, err := s.loadTable(ctx, ref, eng.profile, liked)
	if err != nil {
		return Response{}, err
	}

	ds, err := eng.normalizer.Normalize(ref, table)
	if err != nil {
		return Response{}, fmt.Errorf("normalize %s: %w", ref, err)
	}
	if ds.Len() == 0 {
		resp.Reply = profile.NoResults
		return resp, nil
	}

	texts := make([]string, ds.Len())
	for i := range ds.Records {
		texts[i] = ds.Records[i].SearchText
	}
	idx, err := s.builder.Build(ctx, ref.String(), texts)
	if err != nil {
		return Response{}, fmt.Errorf("index %s: %w", ref, err)
	}

	q := match.NewQuery(req.Query, s.queryEmbedder)
	res, err := eng.resolver.Resolve(ctx, q, ds, idx)
	if err != nil {
		return Response{}, err
	}
	if len(liked) > 0 {
		s.commitLikes(ctx, ref, eng.profile, liked)
	}
	if len(res.Positions) == 0 {
		resp.Reply = profile.NoResults
		return resp, nil
	}

	ranked := rankByPopularity(ds.Records, res.Positions)
	page := paginate(ranked, req.Offset, req.Limit)

	sc := &scorer{query: q, index: idx, logger: s.logger}
	resp.Suggestions = make([]Suggestion, 0, len(page))
	for _, pos := range page {
		r := &ds.Records[pos]
		resp.Suggestions = append(resp.Suggestions, shapeSuggestion(eng.profile, r, sc.score(ctx, r)))
	}
	resp.TotalResults = len(ranked)
	resp.Stage = res.Stage

	s.logger.Debug("Recommendation served",
		zap.String("dataset", ref.String()),
		zap.String("stage", string(res.Stage)),
		zap.Int("total_results", resp.TotalResults),
		zap.Int("page", len(resp.Suggestions)),
	)
	return resp, nil
}

// Like credits one record by name.
func (s *Service) Like(ctx context.Context, req LikeRequest) (LikeResponse, error) {
	name := strings.TrimSpace(req.Name)
	if strings.TrimSpace(req.City) == "" || strings.TrimSpace(req.Category) == "" || name == "" {
		return LikeResponse{}, domain.NewInputError(domain.ErrInvalidInput,
			"Please provide city, category, and item name.")
	}

	eng, ref, err := s.resolve(req.Category, req.City)
	if err != nil {
		return LikeResponse{}, err
	}

	out, err := s.ledger.Credit(ctx, ref, eng.profile.NameColumn, []string{name})
	if err != nil {
		return LikeResponse{}, err
	}
	return LikeResponse{
		Message:   "Successfully liked " + textsim.Title(strings.ToLower(name)),
		Matched:   out.Matched,
		Persisted: out.Persisted,
	}, nil
}

// Warm loads one sheet and embeds its search texts, filling the embedding
// cache ahead of the first query. Returns the number of records indexed.
func (s *Service) Warm(ctx context.Context, category, city string) (int, error) {
	eng, ref, err := s.resolve(category, city)
	if err != nil {
		return 0, err
	}
	t, err := s.tables.Load(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", ref, err)
	}
	ds, err := eng.normalizer.Normalize(ref, t)
	if err != nil {
		return 0, fmt.Errorf("normalize %s: %w", ref, err)
	}
	if ds.Len() == 0 {
		return 0, nil
	}

	texts := make([]string, ds.Len())
	for i := range ds.Records {
		texts[i] = ds.Records[i].SearchText
	}
	if _, err := s.builder.Build(ctx, ref.String(), texts); err != nil {
		return 0, fmt.Errorf("index %s: %w", ref, err)
	}
	return ds.Len(), nil
}

// Catalog exposes the configured datasets.
func (s *Service) Catalog() *Catalog { return s.catalog }

func (s *Service) resolve(category, city string) (domainEngine, record.DatasetRef, error) {
	d, err := profile.ParseDomain(category)
	if err != nil {
		return domainEngine{}, record.DatasetRef{}, err
	}
	ref, err := s.catalog.Resolve(d, city)
	if err != nil {
		return domainEngine{}, record.DatasetRef{}, err
	}
	eng, ok := s.engines[d]
	if !ok {
		return domainEngine{}, record.DatasetRef{}, fmt.Errorf("no engine for %s: %w", d, domain.ErrUnsupportedDomain)
	}
	return eng, ref, nil
}

// loadTable reads the sheet and applies liked names in memory so the
// ranking already reflects them. Nothing is written here; see commitLikes.
func (s *Service) loadTable(
	ctx context.Context, ref record.DatasetRef, p profile.Profile, liked []string,
) (*record.Table, error) {
	start := time.Now()
	defer func() {
		metrics.DatasetLoadDuration.WithLabelValues(string(p.Domain)).Observe(time.Since(start).Seconds())
	}()

	t, err := s.tables.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ref, err)
	}
	if len(liked) > 0 {
		if _, err := likes.Apply(t, p.NameColumn, liked); err != nil {
			return nil, fmt.Errorf("credit likes on %s: %w", ref, err)
		}
	}
	return t, nil
}

// commitLikes makes the likes of a successful request durable. Best effort:
// failures are logged, the response already shows the new counts.
func (s *Service) commitLikes(ctx context.Context, ref record.DatasetRef, p profile.Profile, liked []string) {
	out, err := s.ledger.Credit(ctx, ref, p.NameColumn, liked)
	if err != nil {
		s.logger.Warn("Failed to credit likes", zap.String("dataset", ref.String()), zap.Error(err))
		return
	}
	if out.Matched > 0 && !out.Persisted {
		s.logger.Warn("Likes applied but not persisted", zap.String("dataset", ref.String()))
	}
}

func nonBlank(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) != "" {
			out = append(out, n)
		}
	}
	return out
}
