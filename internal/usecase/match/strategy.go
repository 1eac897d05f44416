package match

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/tripmate/internal/domain/profile"
	"github.com/kailas-cloud/tripmate/internal/domain/record"
	"github.com/kailas-cloud/tripmate/internal/textsim"
	"github.com/kailas-cloud/tripmate/internal/usecase/index"
)

// Strategy is one stage of the cascade. An empty result means "no opinion";
// the resolver then moves on to the next stage.
type Strategy interface {
	Stage() profile.Stage
	Try(ctx context.Context, q *Query, ds *record.Dataset, idx *index.SearchIndex) ([]int, error)
}

// Exact matches records whose name equals the query, ignoring case.
type Exact struct{}

// Stage implements Strategy.
func (Exact) Stage() profile.Stage { return profile.StageExact }

// Try implements Strategy.
func (Exact) Try(_ context.Context, q *Query, ds *record.Dataset, _ *index.SearchIndex) ([]int, error) {
	var out []int
	for i := range ds.Records {
		if ds.Records[i].Name == q.Text() {
			out = append(out, i)
		}
	}
	return out, nil
}

// Substring matches records where any of the configured fields contains the
// query text. Cap > 0 keeps only the first Cap matches in source order.
type Substring struct {
	StageName profile.Stage
	Name      bool
	Columns   []string
	Families  []string
	Cap       int
}

// Stage implements Strategy.
func (s Substring) Stage() profile.Stage { return s.StageName }

// Try implements Strategy.
func (s Substring) Try(_ context.Context, q *Query, ds *record.Dataset, _ *index.SearchIndex) ([]int, error) {
	if q.Text() == "" {
		return nil, nil
	}
	var out []int
	for i := range ds.Records {
		if s.Cap > 0 && len(out) >= s.Cap {
			break
		}
		if s.matches(&ds.Records[i], q.Text()) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (s Substring) matches(r *record.Record, text string) bool {
	if s.Name && strings.Contains(r.Name, text) {
		return true
	}
	for _, c := range s.Columns {
		if strings.Contains(strings.ToLower(r.Attr(c)), text) {
			return true
		}
	}
	for _, f := range s.Families {
		if familyContains(r, f, text) {
			return true
		}
	}
	return false
}

// KeywordFilter applies the curated dietary and cuisine filters. Dietary
// filtering runs first; then either a "non-<cuisine>" exclusion or, when no
// exclusion was asked for, a cuisine inclusion.
type KeywordFilter struct {
	Vocabulary profile.Vocabulary
}

// Stage implements Strategy.
func (KeywordFilter) Stage() profile.Stage { return profile.StageKeyword }

// Try implements Strategy.
func (k KeywordFilter) Try(_ context.Context, q *Query, ds *record.Dataset, _ *index.SearchIndex) ([]int, error) {
	text := q.Text()
	v := k.Vocabulary

	negative := ""
	if strings.Contains(text, "non-") {
		for _, c := range v.NegativeCuisines {
			if strings.Contains(text, "non-"+c) {
				negative = c
				break
			}
		}
	}
	diet := firstContained(text, v.Diets)
	cuisine := firstContained(text, v.Cuisines)

	if negative == "" && diet == "" && cuisine == "" {
		return nil, nil
	}

	var out []int
	for i := range ds.Records {
		r := &ds.Records[i]
		if diet != "" && !familyContains(r, v.DietFamily, diet) {
			continue
		}
		switch {
		case negative != "":
			if familyContains(r, v.CuisineFamily, negative) {
				continue
			}
		case cuisine != "":
			if !familyContains(r, v.CuisineFamily, cuisine) {
				continue
			}
		}
		out = append(out, i)
	}
	return out, nil
}

// LocationPhrase matches "restaurants in <place>" style queries against
// location columns. Only the first trigger phrase found is considered.
type LocationPhrase struct {
	Phrases []string
	Columns []string
}

// Stage implements Strategy.
func (LocationPhrase) Stage() profile.Stage { return profile.StageLocation }

// Try implements Strategy.
func (l LocationPhrase) Try(_ context.Context, q *Query, ds *record.Dataset, _ *index.SearchIndex) ([]int, error) {
	place, ok := l.place(q.Text())
	if !ok {
		return nil, nil
	}
	var out []int
	for i := range ds.Records {
		for _, c := range l.Columns {
			if strings.Contains(strings.ToLower(ds.Records[i].Attr(c)), place) {
				out = append(out, i)
				break
			}
		}
	}
	return out, nil
}

func (l LocationPhrase) place(text string) (string, bool) {
	for _, p := range l.Phrases {
		i := strings.LastIndex(text, p)
		if i < 0 {
			continue
		}
		place := strings.TrimSpace(text[i+len(p):])
		return place, place != ""
	}
	return "", false
}

// Semantic returns the top K index hits scoring strictly above Floor.
type Semantic struct {
	K     int
	Floor float64
}

// Stage implements Strategy.
func (Semantic) Stage() profile.Stage { return profile.StageSemantic }

// Try implements Strategy.
func (s Semantic) Try(ctx context.Context, q *Query, _ *record.Dataset, idx *index.SearchIndex) ([]int, error) {
	if idx == nil || idx.Len() == 0 {
		return nil, nil
	}
	vec, err := q.Vector(ctx)
	if err != nil {
		return nil, err
	}
	hits, err := idx.TopK(vec, s.K)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	var out []int
	for _, h := range hits {
		if h.Score > s.Floor {
			out = append(out, h.Position)
		}
	}
	return out, nil
}

// Fuzzy ranks every record by name similarity and keeps the best TopN.
// It returns nothing only for an empty dataset.
type Fuzzy struct {
	TopN int
}

// Stage implements Strategy.
func (Fuzzy) Stage() profile.Stage { return profile.StageFuzzy }

// Try implements Strategy.
func (f Fuzzy) Try(_ context.Context, q *Query, ds *record.Dataset, _ *index.SearchIndex) ([]int, error) {
	type scored struct {
		pos   int
		ratio float64
	}
	all := make([]scored, len(ds.Records))
	for i := range ds.Records {
		all[i] = scored{pos: i, ratio: textsim.Ratio(q.Text(), ds.Records[i].Name)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].ratio > all[j].ratio })

	n := f.TopN
	if n <= 0 || n > len(all) {
		n = len(all)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = all[i].pos
	}
	return out, nil
}

func familyContains(r *record.Record, family, term string) bool {
	for _, v := range r.Families[family] {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

func firstContained(text string, terms []string) string {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return t
		}
	}
	return ""
}
