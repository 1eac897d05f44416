package record

import (
	"math"
	"strconv"
	"strings"
)

// PopularityColumn is the sheet column holding the like counter.
const PopularityColumn = "Number of Likes"

// Record is one row of a dataset after normalization.
type Record struct {
	// Position is the row index in the source table and in the search index.
	Position int
	// Name is the lowercased lookup key. Names are not unique.
	Name       string
	Attrs      map[string]string
	Families   map[string][]string
	SearchText string
	Popularity int
}

// Attr returns the trimmed value of a column, "" when absent.
func (r *Record) Attr(column string) string {
	return r.Attrs[strings.ToLower(column)]
}

// Dataset is one loaded sheet: the raw table plus derived records.
type Dataset struct {
	Ref      DatasetRef
	Table    *Table
	Records  []Record
	Families []Family
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Records) }

// ParsePopularity coerces a stored like counter into a non-negative integer.
// Blank, unparsable, negative and non-finite values map to 0; fractions truncate.
func ParsePopularity(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
