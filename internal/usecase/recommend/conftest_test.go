package recommend

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/tripmate/internal/domain"
	"github.com/kailas-cloud/tripmate/internal/domain/profile"
	"github.com/kailas-cloud/tripmate/internal/domain/record"
	"github.com/kailas-cloud/tripmate/internal/usecase/index"
	"github.com/kailas-cloud/tripmate/internal/usecase/likes"
	"github.com/kailas-cloud/tripmate/internal/usecase/match"
)

const restaurantsFile = "final_restaurants.xlsx"

// keywordEmbedder maps texts onto axis vectors by the first keyword they contain.
type keywordEmbedder struct {
	mu    sync.Mutex
	axes  []string
	err   error
	calls int
}

func (k *keywordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.calls++
	if k.err != nil {
		return domain.EmbeddingResult{}, k.err
	}
	v := make([]float32, len(k.axes)+1)
	v[len(k.axes)] = 1
	for i, a := range k.axes {
		if strings.Contains(text, a) {
			v = make([]float32, len(k.axes)+1)
			v[i] = 1
			break
		}
	}
	return domain.EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
}

// sheetStore is an in-memory workbook keyed by DatasetRef.
type sheetStore struct {
	mu       sync.Mutex
	sheets   map[record.DatasetRef]*record.Table
	persists int
}

func (s *sheetStore) Load(_ context.Context, ref record.DatasetRef) (*record.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.sheets[ref]
	if !ok {
		return nil, domain.ErrDatasetUnavailable
	}
	return t.Clone(), nil
}

func (s *sheetStore) Persist(_ context.Context, ref record.DatasetRef, t *record.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persists++
	s.sheets[ref] = t.Clone()
	return nil
}

type fixture struct {
	svc      *Service
	store    *sheetStore
	embedder *keywordEmbedder
}

func newFixture(t *testing.T, sheets map[string]*record.Table) *fixture {
	t.Helper()

	cat, err := NewCatalog(map[profile.Domain]DatasetSource{
		profile.Restaurants: {File: restaurantsFile, Cities: map[string]string{
			"kl":       "kl_restaurants",
			"langkawi": "Langkawi_restaurants",
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	st := &sheetStore{sheets: map[record.DatasetRef]*record.Table{}}
	for sheet, tbl := range sheets {
		st.sheets[record.DatasetRef{File: restaurantsFile, Sheet: sheet}] = tbl
	}

	emb := &keywordEmbedder{axes: []string{"sunset", "noodle", "pizza"}}
	svc, err := New(cat, st, likes.New(st, nil), index.NewBuilder(emb, nil), emb, match.DefaultParams(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{svc: svc, store: st, embedder: emb}
}

func restaurants(rows ...[]string) *record.Table {
	return &record.Table{
		Columns: []string{
			"Restaurant Name", "Description", "Address", "State", "Country", "Category",
			"Cuisines 0", "Dietary Restrictions 0", "Number of Likes",
		},
		Rows: rows,
	}
}
