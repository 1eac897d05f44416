package match

import (
	"context"
	"testing"

	"github.com/kailas-cloud/tripmate/internal/domain"
	"github.com/kailas-cloud/tripmate/internal/domain/profile"
	"github.com/kailas-cloud/tripmate/internal/domain/record"
	"github.com/kailas-cloud/tripmate/internal/usecase/index"
	"github.com/kailas-cloud/tripmate/internal/usecase/normalize"
)

type mockEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return domain.EmbeddingResult{Embedding: v}, nil
	}
	return domain.EmbeddingResult{Embedding: []float32{0, 0, 1}}, nil
}

func loadDataset(t *testing.T, d profile.Domain, tbl *record.Table) (*record.Dataset, profile.Profile) {
	t.Helper()
	p, err := profile.For(d)
	if err != nil {
		t.Fatal(err)
	}
	ds, err := normalize.New(p).Normalize(record.DatasetRef{File: "f.xlsx", Sheet: "s"}, tbl)
	if err != nil {
		t.Fatal(err)
	}
	return ds, p
}

func restaurantTable(rows ...[]string) *record.Table {
	return &record.Table{
		Columns: []string{
			"Restaurant Name", "Address", "State", "Category",
			"Cuisines 0", "Cuisines 1", "Dietary Restrictions 0", "Dietary Restrictions 1",
		},
		Rows: rows,
	}
}

func resolver(t *testing.T, p profile.Profile) *Resolver {
	t.Helper()
	r, err := ForProfile(p, DefaultParams(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func flatIndex(t *testing.T, vectors ...[]float32) *index.SearchIndex {
	t.Helper()
	idx, err := index.New(vectors)
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func names(ds *record.Dataset, positions []int) []string {
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = ds.Records[p].Name
	}
	return out
}
