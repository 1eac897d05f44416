// Package normalize turns a raw sheet table into records with a stable,
// lowercase search text per row.
package normalize

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/tripmate/internal/domain"
	"github.com/kailas-cloud/tripmate/internal/domain/profile"
	"github.com/kailas-cloud/tripmate/internal/domain/record"
)

// Normalizer builds records for one domain profile.
type Normalizer struct {
	profile profile.Profile
}

// New creates a Normalizer.
func New(p profile.Profile) *Normalizer {
	return &Normalizer{profile: p}
}

// Normalize derives records from the table. The table itself is not modified.
func (n *Normalizer) Normalize(ref record.DatasetRef, t *record.Table) (*record.Dataset, error) {
	nameCol := t.ColumnIndex(n.profile.NameColumn)
	if nameCol < 0 {
		return nil, fmt.Errorf("sheet %s has no %q column: %w",
			ref, n.profile.NameColumn, domain.ErrDatasetUnavailable)
	}
	likesCol := t.ColumnIndex(record.PopularityColumn)

	families := make([]record.Family, len(n.profile.Families))
	byName := make(map[string]record.Family, len(families))
	for i, fs := range n.profile.Families {
		families[i] = record.ResolveFamily(t, fs.Name, fs.Prefix, fs.MaxWidth)
		byName[fs.Name] = families[i]
	}

	fieldCols := make([]int, len(n.profile.TextFields))
	for i, tf := range n.profile.TextFields {
		fieldCols[i] = -1
		if tf.Column != "" {
			fieldCols[i] = t.ColumnIndex(tf.Column)
		}
	}

	records := make([]record.Record, len(t.Rows))
	for row := range t.Rows {
		attrs := make(map[string]string, len(t.Columns))
		for col, c := range t.Columns {
			attrs[strings.ToLower(strings.TrimSpace(c))] = strings.TrimSpace(t.Cell(row, col))
		}

		fams := make(map[string][]string, len(families))
		for _, f := range families {
			fams[f.Name] = f.Values(t, row)
		}

		parts := make([]string, 0, len(n.profile.TextFields))
		for i, tf := range n.profile.TextFields {
			if tf.Family != "" {
				parts = append(parts, byName[tf.Family].Cells(t, row)...)
				continue
			}
			parts = append(parts, strings.TrimSpace(t.Cell(row, fieldCols[i])))
		}

		popularity := 0
		if likesCol >= 0 {
			popularity = record.ParsePopularity(t.Cell(row, likesCol))
		}

		records[row] = record.Record{
			Position:   row,
			Name:       strings.ToLower(strings.TrimSpace(t.Cell(row, nameCol))),
			Attrs:      attrs,
			Families:   fams,
			SearchText: strings.ToLower(strings.Join(parts, n.profile.Separator)),
			Popularity: popularity,
		}
	}

	return &record.Dataset{
		Ref:      ref,
		Table:    t,
		Records:  records,
		Families: families,
	}, nil
}
