package record

import "testing"

func TestParsePopularity(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"0", 0},
		{"7", 7},
		{" 12 ", 12},
		{"3.0", 3},
		{"3.9", 3},
		{"-4", 0},
		{"NaN", 0},
		{"inf", 0},
		{"many", 0},
		{"1,234", 0},
		{"1e3", 1000},
	}
	for _, tc := range tests {
		if got := ParsePopularity(tc.raw); got != tc.want {
			t.Errorf("ParsePopularity(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestTable_ColumnIndex_CaseInsensitive(t *testing.T) {
	tbl := &Table{Columns: []string{"Restaurant Name", " Address ", "number of likes"}}

	if got := tbl.ColumnIndex("restaurant name"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := tbl.ColumnIndex("Address"); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if got := tbl.ColumnIndex(PopularityColumn); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := tbl.ColumnIndex("Website"); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
}

func TestTable_SetCell_GrowsShortRow(t *testing.T) {
	tbl := &Table{
		Columns: []string{"Name", "City", "Likes"},
		Rows:    [][]string{{"a"}},
	}

	tbl.SetCell(0, 2, "5")

	if got := tbl.Cell(0, 2); got != "5" {
		t.Errorf("expected 5, got %q", got)
	}
	if got := tbl.Cell(0, 1); got != "" {
		t.Errorf("expected empty filler, got %q", got)
	}
	if got := tbl.Cell(3, 0); got != "" {
		t.Errorf("out-of-range row should read empty, got %q", got)
	}
}

func TestTable_EnsureColumn(t *testing.T) {
	tbl := &Table{Columns: []string{"Name"}}

	i := tbl.EnsureColumn(PopularityColumn)
	if i != 1 || len(tbl.Columns) != 2 {
		t.Fatalf("expected appended column at 1, got %d (%v)", i, tbl.Columns)
	}
	if again := tbl.EnsureColumn("NUMBER OF LIKES"); again != 1 {
		t.Errorf("expected existing column, got %d", again)
	}
}

func TestTable_CloneIsDeep(t *testing.T) {
	tbl := &Table{Columns: []string{"Name"}, Rows: [][]string{{"a"}}}
	cp := tbl.Clone()
	cp.SetCell(0, 0, "b")

	if tbl.Cell(0, 0) != "a" {
		t.Error("clone mutation leaked into original")
	}
}

func TestResolveFamily(t *testing.T) {
	tbl := &Table{
		Columns: []string{"Restaurant Name", "Cuisines 0", "Cuisines 2", "Cuisines 10", "Dietary Restrictions 0"},
		Rows: [][]string{
			{"x", "Chinese", " Thai ", "ignored", "Vegan"},
			{"y", "", "Malay"},
		},
	}

	f := ResolveFamily(tbl, "cuisines", "Cuisines", 9)
	if len(f.Columns) != 2 || f.Columns[0] != 1 || f.Columns[1] != 2 {
		t.Fatalf("unexpected columns: %v", f.Columns)
	}

	vals := f.Values(tbl, 0)
	if len(vals) != 2 || vals[0] != "Chinese" || vals[1] != "Thai" {
		t.Errorf("unexpected values: %v", vals)
	}

	cells := f.Cells(tbl, 1)
	if len(cells) != 2 || cells[0] != "" || cells[1] != "Malay" {
		t.Errorf("unexpected cells: %v", cells)
	}
}
