package record

import (
	"fmt"
	"strings"
)

// Family is a repeated numbered column group ("Cuisines 0", "Cuisines 1", ...)
// collapsed into one multi-valued attribute. Columns holds the indices that
// are present in a particular table, resolved once per load.
type Family struct {
	Name     string
	Prefix   string
	MaxWidth int
	Columns  []int
}

// ResolveFamily finds the present "<prefix> <n>" columns for n in [0, maxWidth).
func ResolveFamily(t *Table, name, prefix string, maxWidth int) Family {
	f := Family{Name: name, Prefix: prefix, MaxWidth: maxWidth}
	for n := 0; n < maxWidth; n++ {
		if i := t.ColumnIndex(fmt.Sprintf("%s %d", prefix, n)); i >= 0 {
			f.Columns = append(f.Columns, i)
		}
	}
	return f
}

// Cells returns the trimmed cell of every present column, empty ones included.
func (f Family) Cells(t *Table, row int) []string {
	out := make([]string, len(f.Columns))
	for i, col := range f.Columns {
		out[i] = strings.TrimSpace(t.Cell(row, col))
	}
	return out
}

// Values returns only the non-empty cells.
func (f Family) Values(t *Table, row int) []string {
	var out []string
	for _, col := range f.Columns {
		if v := strings.TrimSpace(t.Cell(row, col)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
