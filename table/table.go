// Package table holds the tabular value exchanged between the sample loader,
// the generated parser, and the contract checker. Column order is significant.
package table

import (
	"fmt"
	"strings"
)

// Table is an ordered set of columns plus data rows. Rows hold raw cell text;
// normalization happens at comparison time, not at load time.
type Table struct {
	Columns []string
	Rows    [][]string
}

// FromRows builds a Table from raw rows where row 0 is the header.
// This is the shape the generated parser contract returns.
func FromRows(rows [][]string) (Table, error) {
	if len(rows) == 0 {
		return Table{}, fmt.Errorf("no rows: expected a header row")
	}
	header := rows[0]
	if len(header) == 0 {
		return Table{}, fmt.Errorf("empty header row")
	}
	t := Table{Columns: header}
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return Table{}, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(row), len(header))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// NumRows returns the number of data rows (header excluded).
func (t Table) NumRows() int { return len(t.Rows) }

// Head returns up to n data rows, for prompt examples.
func (t Table) Head(n int) [][]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// String renders the table as pipe-separated lines, the same layout the
// XLSX sheets are flattened into. Used for prompt text and diagnostics.
func (t Table) String() string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
	for _, row := range t.Rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}
