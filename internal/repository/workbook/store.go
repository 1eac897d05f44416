// Package workbook stores datasets as Excel workbooks, one sheet per
// domain/city, with the first row holding column headers.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/domain"
	"github.com/kailas-cloud/tripmate/internal/domain/record"
)

// Store reads and writes sheets of workbooks under a base directory.
type Store struct {
	baseDir string
	logger  *zap.Logger
}

// New creates a workbook Store rooted at baseDir.
func New(baseDir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{baseDir: baseDir, logger: logger}
}

func (s *Store) path(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(s.baseDir, file)
}

// Load reads one sheet. A missing file or sheet is ErrDatasetUnavailable.
func (s *Store) Load(_ context.Context, ref record.DatasetRef) (*record.Table, error) {
	f, err := s.open(ref.File)
	if err != nil {
		return nil, err
	}
	defer s.closeFile(f, ref.File)

	rows, err := readSheet(f, ref.Sheet)
	if err != nil {
		return nil, err
	}

	t := &record.Table{}
	if len(rows) == 0 {
		return t, nil
	}
	t.Columns = rows[0]
	t.Rows = rows[1:]
	return t, nil
}

// Persist writes t into its sheet, touching only cells whose value changed.
// Other sheets are preserved. The file is replaced atomically.
func (s *Store) Persist(_ context.Context, ref record.DatasetRef, t *record.Table) error {
	f, err := s.open(ref.File)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistFailed, err)
	}
	defer s.closeFile(f, ref.File)

	current, err := readSheet(f, ref.Sheet)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistFailed, err)
	}

	want := make([][]string, 0, len(t.Rows)+1)
	want = append(want, t.Columns)
	want = append(want, t.Rows...)

	changed := 0
	for r, row := range want {
		for c, v := range row {
			if cellAt(current, r, c) == v {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("%w: %w", domain.ErrPersistFailed, err)
			}
			if err := f.SetCellValue(ref.Sheet, cell, cellValue(v)); err != nil {
				return fmt.Errorf("%w: set %s!%s: %w", domain.ErrPersistFailed, ref.Sheet, cell, err)
			}
			changed++
		}
	}
	// Drop rows the table no longer has, bottom-up so indices stay valid.
	for r := len(current); r > len(want); r-- {
		if err := f.RemoveRow(ref.Sheet, r); err != nil {
			return fmt.Errorf("%w: remove row %d: %w", domain.ErrPersistFailed, r, err)
		}
		changed++
	}

	if changed == 0 {
		return nil
	}
	if err := s.replace(f, ref.File); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistFailed, err)
	}

	s.logger.Debug("Sheet persisted",
		zap.String("dataset", ref.String()),
		zap.Int("cells_changed", changed),
	)
	return nil
}

// Check verifies that every workbook exists and opens.
func (s *Store) Check(_ context.Context, files []string) error {
	for _, file := range files {
		f, err := s.open(file)
		if err != nil {
			return err
		}
		s.closeFile(f, file)
	}
	return nil
}

// Sheets lists the sheet names of a workbook.
func (s *Store) Sheets(_ context.Context, file string) ([]string, error) {
	f, err := s.open(file)
	if err != nil {
		return nil, err
	}
	defer s.closeFile(f, file)
	return f.GetSheetList(), nil
}

func (s *Store) open(file string) (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path(file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workbook %s not found: %w", file, domain.ErrDatasetUnavailable)
		}
		return nil, fmt.Errorf("open workbook %s: %w: %w", file, domain.ErrDatasetUnavailable, err)
	}
	return f, nil
}

func (s *Store) closeFile(f *excelize.File, file string) {
	if err := f.Close(); err != nil {
		s.logger.Warn("Failed to close workbook", zap.String("file", file), zap.Error(err))
	}
}

// replace writes f to a temp file in the same directory and renames it over
// the original.
func (s *Store) replace(f *excelize.File, file string) error {
	dst := s.path(file)
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tripmate-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("replace workbook: %w", err)
	}
	return nil
}

func readSheet(f *excelize.File, sheet string) ([][]string, error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found: %w", sheet, domain.ErrDatasetUnavailable)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w: %w", sheet, domain.ErrDatasetUnavailable, err)
	}
	return rows, nil
}

func cellAt(rows [][]string, r, c int) string {
	if r >= len(rows) || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}

// cellValue keeps counters numeric in the sheet.
func cellValue(v string) any {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return v
}
