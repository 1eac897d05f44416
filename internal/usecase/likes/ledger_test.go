package likes

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kailas-cloud/tripmate/internal/domain"
	"github.com/kailas-cloud/tripmate/internal/domain/record"
)

var ref = record.DatasetRef{File: "final_restaurants.xlsx", Sheet: "kl_restaurants"}

// memStore is an in-memory TableStore that hands out copies, like a file would.
type memStore struct {
	mu         sync.Mutex
	table      *record.Table
	loadErr    error
	persistErr error
	persists   int
}

func (m *memStore) Load(_ context.Context, _ record.DatasetRef) (*record.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.table.Clone(), nil
}

func (m *memStore) Persist(_ context.Context, _ record.DatasetRef, t *record.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.persistErr != nil {
		return m.persistErr
	}
	m.persists++
	m.table = t.Clone()
	return nil
}

func (m *memStore) likes(row int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return record.ParsePopularity(m.table.Cell(row, m.table.ColumnIndex(record.PopularityColumn)))
}

func newStore() *memStore {
	return &memStore{table: &record.Table{
		Columns: []string{"Restaurant Name", "Number of Likes"},
		Rows: [][]string{
			{"Sunset Cafe", "0"},
			{"Roma", "2.0"},
			{"sunset cafe", ""},
		},
	}}
}

func TestCredit_CaseInsensitiveAllDuplicates(t *testing.T) {
	st := newStore()
	l := New(st, nil)

	out, err := l.Credit(context.Background(), ref, "Restaurant Name", []string{"SUNSET CAFE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Matched != 2 || !out.Persisted {
		t.Errorf("unexpected outcome %+v", out)
	}
	if st.likes(0) != 1 || st.likes(2) != 1 || st.likes(1) != 2 {
		t.Errorf("unexpected persisted likes: %d %d %d", st.likes(0), st.likes(1), st.likes(2))
	}
}

func TestCredit_NoPartialMatch(t *testing.T) {
	st := newStore()
	out, err := New(st, nil).Credit(context.Background(), ref, "Restaurant Name", []string{"sunset"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Matched != 0 || out.Persisted || st.persists != 0 {
		t.Errorf("expected no match and no persist, got %+v (persists=%d)", out, st.persists)
	}
}

func TestCredit_SerializedTwiceAddsTwo(t *testing.T) {
	st := newStore()
	l := New(st, nil)

	for i := 0; i < 2; i++ {
		if _, err := l.Credit(context.Background(), ref, "Restaurant Name", []string{"roma"}); err != nil {
			t.Fatal(err)
		}
	}
	if got := st.likes(1); got != 4 {
		t.Errorf("expected 2+2=4, got %d", got)
	}
}

func TestCredit_ConcurrentCreditsAreSerialized(t *testing.T) {
	st := newStore()
	l := New(st, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.Credit(context.Background(), ref, "Restaurant Name", []string{"roma"})
		}()
	}
	wg.Wait()

	if got := st.likes(1); got != 22 {
		t.Errorf("expected 22 likes, got %d", got)
	}
}

func TestCredit_RepeatedNameCountsEachOccurrence(t *testing.T) {
	st := newStore()
	_, err := New(st, nil).Credit(context.Background(), ref, "Restaurant Name", []string{"roma", "Roma "})
	if err != nil {
		t.Fatal(err)
	}
	if got := st.likes(1); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
}

func TestCredit_AddsMissingLikesColumn(t *testing.T) {
	st := &memStore{table: &record.Table{
		Columns: []string{"Hotel Name"},
		Rows:    [][]string{{"Grand"}},
	}}

	out, err := New(st, nil).Credit(context.Background(), ref, "Hotel Name", []string{"grand"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Table.ColumnIndex(record.PopularityColumn) != 1 {
		t.Fatalf("expected likes column appended, got %v", out.Table.Columns)
	}
	if st.likes(0) != 1 {
		t.Errorf("expected 1 like, got %d", st.likes(0))
	}
}

func TestCredit_PersistFailureIsBestEffort(t *testing.T) {
	st := newStore()
	st.persistErr = errors.New("disk full")

	out, err := New(st, nil).Credit(context.Background(), ref, "Restaurant Name", []string{"roma"})
	if err != nil {
		t.Fatalf("persist failure must not be returned, got %v", err)
	}
	if out.Persisted {
		t.Error("expected Persisted=false")
	}
	likesCol := out.Table.ColumnIndex(record.PopularityColumn)
	if got := out.Table.Cell(1, likesCol); got != "3" {
		t.Errorf("in-memory table must carry the increment, got %q", got)
	}
}

func TestCredit_LoadErrorFails(t *testing.T) {
	st := newStore()
	st.loadErr = domain.ErrDatasetUnavailable

	_, err := New(st, nil).Credit(context.Background(), ref, "Restaurant Name", []string{"roma"})
	if !errors.Is(err, domain.ErrDatasetUnavailable) {
		t.Fatalf("expected ErrDatasetUnavailable, got %v", err)
	}
}

func TestCredit_MissingNameColumn(t *testing.T) {
	st := newStore()
	_, err := New(st, nil).Credit(context.Background(), ref, "Hotel Name", []string{"roma"})
	if !errors.Is(err, domain.ErrDatasetUnavailable) {
		t.Fatalf("expected ErrDatasetUnavailable, got %v", err)
	}
}

func TestApply_InMemoryOnly(t *testing.T) {
	st := newStore()
	tbl, err := st.Load(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}

	matched, err := Apply(tbl, "Restaurant Name", []string{"SUNSET CAFE"})
	if err != nil {
		t.Fatal(err)
	}
	if matched != 2 {
		t.Errorf("expected 2 rows credited, got %d", matched)
	}
	if got := tbl.Cell(0, 1); got != "1" {
		t.Errorf("expected 1 like in memory, got %q", got)
	}
	if st.persists != 0 || st.likes(0) != 0 {
		t.Errorf("apply must not touch the store: persists=%d likes=%d", st.persists, st.likes(0))
	}
}
