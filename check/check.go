// Package check compares a generated parser's output against the target
// table and produces the verdict that drives the correction loop.
//
// Comparison policy: column names and order must match exactly; row counts
// must match; cells compare after normalization — whitespace is trimmed,
// number-typed columns compare by parsed value (so "1,234.00" equals
// "1234"), date-typed columns compare by parsed date across the accepted
// statement layouts, and empty cells only equal empty cells.
package check

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/brunobiangulo/bankparse/table"
)

// Verdict is the pass/fail outcome of one comparison. On failure, Mismatch
// names the offending column or cell precisely enough to feed back into the
// next generation prompt.
type Verdict struct {
	OK       bool
	Mismatch string
}

// String renders the verdict for logs: "PASS" or "FAIL: <mismatch>".
func (v Verdict) String() string {
	if v.OK {
		return "PASS"
	}
	return "FAIL: " + v.Mismatch
}

// maxDiffChars bounds the go-cmp diff appended to a cell mismatch so
// feedback prompts stay readable.
const maxDiffChars = 1500

// Compare evaluates got against want. types carries want's per-column
// classification; len(types) must equal len(want.Columns).
func Compare(got, want table.Table, types []table.ColumnType) Verdict {
	if v := compareColumns(got.Columns, want.Columns); !v.OK {
		return v
	}

	if got.NumRows() != want.NumRows() {
		return fail("row count mismatch: parser produced %d rows, target has %d",
			got.NumRows(), want.NumRows())
	}

	for i := range want.Rows {
		for j, col := range want.Columns {
			wantCell := want.Rows[i][j]
			gotCell := cellAt(got.Rows[i], j)
			if !cellsEqual(gotCell, wantCell, types[j]) {
				msg := fmt.Sprintf("cell mismatch at row %d, column %q: got %q, want %q",
					i+1, col, gotCell, wantCell)
				if d := boundedDiff(got, want, types); d != "" {
					msg += "\nfull diff (normalized, -want +got):\n" + d
				}
				return Verdict{Mismatch: msg}
			}
		}
	}

	return Verdict{OK: true}
}

func compareColumns(got, want []string) Verdict {
	if len(got) != len(want) {
		return fail("column count mismatch: got %d columns %v, want %d columns %v",
			len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			if sameColumnSet(got, want) {
				return fail("column order mismatch: got %v, want %v", got, want)
			}
			return fail("column %d mismatch: got %q, want %q (want columns %v)",
				i+1, got[i], want[i], want)
		}
	}
	return Verdict{OK: true}
}

func sameColumnSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, c := range a {
		seen[c]++
	}
	for _, c := range b {
		seen[c]--
		if seen[c] < 0 {
			return false
		}
	}
	return true
}

func cellAt(row []string, j int) string {
	if j < len(row) {
		return row[j]
	}
	return ""
}

// cellsEqual compares two cells under the column's type. Typed comparison
// only applies when the target cell itself parses as that type; otherwise
// the cells fall back to trimmed-text equality.
func cellsEqual(got, want string, typ table.ColumnType) bool {
	got = strings.TrimSpace(got)
	want = strings.TrimSpace(want)
	if got == want {
		return true
	}
	if got == "" || want == "" {
		return false
	}

	switch typ {
	case table.TypeNumber:
		gn, gok := table.ParseNumber(got)
		wn, wok := table.ParseNumber(want)
		return gok && wok && gn == wn
	case table.TypeDate:
		gd, gok := table.ParseDate(got)
		wd, wok := table.ParseDate(want)
		return gok && wok && gd.Equal(wd)
	default:
		return false
	}
}

// boundedDiff renders a normalized go-cmp diff of the two tables, truncated
// for prompt feedback.
func boundedDiff(got, want table.Table, types []table.ColumnType) string {
	d := cmp.Diff(normalize(want, types), normalize(got, types))
	if len(d) > maxDiffChars {
		d = d[:maxDiffChars] + "\n... (diff truncated)"
	}
	return strings.TrimSpace(d)
}

// normalize maps every cell to its canonical comparison form so the diff
// reflects the policy above rather than raw formatting differences.
func normalize(t table.Table, types []table.ColumnType) [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Columns)
	for _, row := range t.Rows {
		norm := make([]string, len(t.Columns))
		for j := range t.Columns {
			norm[j] = normalizeCell(cellAt(row, j), types[j])
		}
		out = append(out, norm)
	}
	return out
}

func normalizeCell(cell string, typ table.ColumnType) string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return ""
	}
	switch typ {
	case table.TypeNumber:
		if n, ok := table.ParseNumber(cell); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	case table.TypeDate:
		if d, ok := table.ParseDate(cell); ok {
			return d.Format("2006-01-02")
		}
	}
	return cell
}

func fail(format string, args ...interface{}) Verdict {
	return Verdict{Mismatch: fmt.Sprintf(format, args...)}
}
