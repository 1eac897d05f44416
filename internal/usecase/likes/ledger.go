// Package likes maintains the per-record popularity counter.
package likes

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/domain"
	"github.com/kailas-cloud/tripmate/internal/domain/record"
	"github.com/kailas-cloud/tripmate/internal/metrics"
)

// TableStore reads and writes one sheet of a workbook.
type TableStore interface {
	Load(ctx context.Context, ref record.DatasetRef) (*record.Table, error)
	Persist(ctx context.Context, ref record.DatasetRef, t *record.Table) error
}

// Outcome is the result of a credit. Table always reflects the increments,
// whether or not they were persisted.
type Outcome struct {
	Table     *record.Table
	Matched   int
	Persisted bool
}

// Ledger credits likes. The load, increment and persist sequence for one
// workbook file runs under that file's lock, so serialized credits never
// lose increments.
type Ledger struct {
	store  TableStore
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Ledger.
func New(store TableStore, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, logger: logger, locks: make(map[string]*sync.Mutex)}
}

func (l *Ledger) lockFor(file string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[file]
	if !ok {
		m = &sync.Mutex{}
		l.locks[file] = m
	}
	return m
}

// Credit adds one like per occurrence of each name (case-insensitive exact
// match on nameColumn) to every matching row. Duplicated record names are all
// credited. A persist failure is logged and reported through Outcome only.
func (l *Ledger) Credit(
	ctx context.Context, ref record.DatasetRef, nameColumn string, names []string,
) (Outcome, error) {
	lock := l.lockFor(ref.File)
	lock.Lock()
	defer lock.Unlock()

	t, err := l.store.Load(ctx, ref)
	if err != nil {
		return Outcome{}, fmt.Errorf("load %s: %w", ref, err)
	}

	matched, err := Apply(t, nameColumn, names)
	if err != nil {
		return Outcome{}, fmt.Errorf("sheet %s: %w", ref, err)
	}

	out := Outcome{Table: t, Matched: matched}
	if matched == 0 {
		metrics.LikesTotal.WithLabelValues(ref.Sheet, "unmatched").Inc()
		l.logger.Info("Like matched no record", zap.String("dataset", ref.String()), zap.Strings("names", names))
		return out, nil
	}
	metrics.LikesTotal.WithLabelValues(ref.Sheet, "matched").Inc()

	if err := l.store.Persist(ctx, ref, t); err != nil {
		metrics.LikesPersistFailuresTotal.WithLabelValues(ref.Sheet).Inc()
		l.logger.Warn("Failed to persist likes",
			zap.String("dataset", ref.String()),
			zap.Int("matched", matched),
			zap.Error(err),
		)
		return out, nil
	}
	out.Persisted = true

	l.logger.Info("Likes credited",
		zap.String("dataset", ref.String()),
		zap.Int("matched", matched),
	)
	return out, nil
}

// Apply adds the likes to t in memory only. It returns the number of rows
// credited.
func Apply(t *record.Table, nameColumn string, names []string) (int, error) {
	nameCol := t.ColumnIndex(nameColumn)
	if nameCol < 0 {
		return 0, fmt.Errorf("no %q column: %w", nameColumn, domain.ErrDatasetUnavailable)
	}

	wanted := make(map[string]int, len(names))
	for _, n := range names {
		if k := key(n); k != "" {
			wanted[k]++
		}
	}
	if len(wanted) == 0 {
		return 0, nil
	}

	likesCol := t.EnsureColumn(record.PopularityColumn)
	matched := 0
	for row := range t.Rows {
		n := wanted[key(t.Cell(row, nameCol))]
		if n == 0 {
			continue
		}
		next := record.ParsePopularity(t.Cell(row, likesCol)) + n
		t.SetCell(row, likesCol, strconv.Itoa(next))
		matched++
	}
	return matched, nil
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
