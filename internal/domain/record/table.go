// Package record holds the tabular dataset model: raw sheet tables, the
// records derived from them, and numbered attribute families.
package record

import "strings"

// DatasetRef locates one sheet inside a workbook file.
type DatasetRef struct {
	File  string
	Sheet string
}

func (r DatasetRef) String() string { return r.File + "#" + r.Sheet }

// Table is one sheet: a header row plus data rows of raw cell text.
// Rows may be shorter than Columns; missing cells read as "".
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the named column (case-insensitive,
// surrounding space ignored) or -1.
func (t *Table) ColumnIndex(name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, c := range t.Columns {
		if strings.ToLower(strings.TrimSpace(c)) == want {
			return i
		}
	}
	return -1
}

// Cell returns the raw value at row/col, "" when out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// SetCell writes a value, growing the row as needed.
func (t *Table) SetCell(row, col int, value string) {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return
	}
	r := t.Rows[row]
	for len(r) <= col {
		r = append(r, "")
	}
	r[col] = value
	t.Rows[row] = r
}

// EnsureColumn returns the index of the named column, appending it when absent.
func (t *Table) EnsureColumn(name string) int {
	if i := t.ColumnIndex(name); i >= 0 {
		return i
	}
	t.Columns = append(t.Columns, name)
	return len(t.Columns) - 1
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}
