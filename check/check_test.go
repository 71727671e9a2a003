package check

import (
	"strings"
	"testing"

	"github.com/brunobiangulo/bankparse/table"
)

func target(t *testing.T) (table.Table, []table.ColumnType) {
	t.Helper()
	tab, err := table.FromRows([][]string{
		{"Date", "Description", "Balance"},
		{"01-02-2025", "UPI Payment", "1,234.00"},
		{"02-02-2025", "ATM Withdrawal", "734.00"},
	})
	if err != nil {
		t.Fatalf("building target: %v", err)
	}
	return tab, table.InferTypes(tab)
}

func TestCompareExactMatch(t *testing.T) {
	want, types := target(t)
	v := Compare(want, want, types)
	if !v.OK {
		t.Fatalf("identical tables should pass, got: %s", v.Mismatch)
	}
	if v.String() != "PASS" {
		t.Errorf("String() = %q", v.String())
	}
}

func TestCompareNormalizedCells(t *testing.T) {
	want, types := target(t)
	got := table.Table{
		Columns: []string{"Date", "Description", "Balance"},
		Rows: [][]string{
			{"2025-02-01", " UPI Payment ", "1234"},
			{"02/02/2025", "ATM Withdrawal", "734.00"},
		},
	}
	if v := Compare(got, want, types); !v.OK {
		t.Errorf("normalized-equal tables should pass, got: %s", v.Mismatch)
	}
}

func TestCompareColumnOrderMatters(t *testing.T) {
	want, types := target(t)
	got := table.Table{
		Columns: []string{"Description", "Date", "Balance"},
		Rows: [][]string{
			{"UPI Payment", "01-02-2025", "1,234.00"},
			{"ATM Withdrawal", "02-02-2025", "734.00"},
		},
	}
	v := Compare(got, want, types)
	if v.OK {
		t.Fatal("column order difference must fail even when names match")
	}
	if !strings.Contains(v.Mismatch, "column order mismatch") {
		t.Errorf("mismatch should call out ordering: %s", v.Mismatch)
	}
}

func TestCompareColumnNameMismatch(t *testing.T) {
	want, types := target(t)
	got := table.Table{
		Columns: []string{"Date", "Narration", "Balance"},
		Rows:    want.Rows,
	}
	v := Compare(got, want, types)
	if v.OK {
		t.Fatal("expected failure")
	}
	if !strings.Contains(v.Mismatch, `"Narration"`) || !strings.Contains(v.Mismatch, `"Description"`) {
		t.Errorf("mismatch should name both columns: %s", v.Mismatch)
	}
}

func TestCompareRowCount(t *testing.T) {
	want, types := target(t)
	got := table.Table{Columns: want.Columns, Rows: want.Rows[:1]}
	v := Compare(got, want, types)
	if v.OK {
		t.Fatal("expected failure")
	}
	if !strings.Contains(v.Mismatch, "row count mismatch") {
		t.Errorf("mismatch = %s", v.Mismatch)
	}
}

func TestCompareCellMismatchNamesCell(t *testing.T) {
	want, types := target(t)
	got := table.Table{
		Columns: want.Columns,
		Rows: [][]string{
			{"01-02-2025", "UPI Payment", "1,234.00"},
			{"02-02-2025", "Cash Withdrawal", "734.00"},
		},
	}
	v := Compare(got, want, types)
	if v.OK {
		t.Fatal("expected failure")
	}
	for _, frag := range []string{"row 2", `column "Description"`, `"Cash Withdrawal"`, `"ATM Withdrawal"`} {
		if !strings.Contains(v.Mismatch, frag) {
			t.Errorf("mismatch missing %q:\n%s", frag, v.Mismatch)
		}
	}
	if !strings.Contains(v.Mismatch, "full diff") {
		t.Errorf("mismatch should append a diff:\n%s", v.Mismatch)
	}
}

func TestCompareEmptyOnlyEqualsEmpty(t *testing.T) {
	want, _ := table.FromRows([][]string{
		{"Debit Amt"},
		{""},
	})
	types := table.InferTypes(want)
	got := table.Table{Columns: []string{"Debit Amt"}, Rows: [][]string{{"0"}}}
	if v := Compare(got, want, types); v.OK {
		t.Error("non-empty cell must not equal empty target cell")
	}
}

func TestCompareShortRowTreatedAsEmptyCells(t *testing.T) {
	want, _ := table.FromRows([][]string{
		{"A", "B"},
		{"1", ""},
	})
	types := table.InferTypes(want)
	got := table.Table{Columns: []string{"A", "B"}, Rows: [][]string{{"1"}}}
	if v := Compare(got, want, types); !v.OK {
		t.Errorf("missing trailing cell should compare as empty: %s", v.Mismatch)
	}
}
