package table

import (
	"strconv"
	"strings"
	"time"
)

// ColumnType classifies a column for comparison purposes.
type ColumnType string

const (
	TypeText   ColumnType = "text"
	TypeNumber ColumnType = "number"
	TypeDate   ColumnType = "date"
)

// dateLayouts are the statement date formats accepted for comparison.
// Bank exports in the sample corpus use day-first layouts; ISO is included
// for generated parsers that normalise dates themselves.
var dateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// ParseNumber parses a cell as a number, tolerating thousands separators and
// surrounding whitespace. Returns false for empty or non-numeric cells.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseDate parses a cell against the accepted date layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InferTypes classifies each column from the target table's data rows.
// A column is a number (or date) column only if every non-empty cell parses
// as one; anything else is text. Columns with no non-empty cells are text.
func InferTypes(t Table) []ColumnType {
	types := make([]ColumnType, len(t.Columns))
	for col := range t.Columns {
		types[col] = inferColumn(t, col)
	}
	return types
}

func inferColumn(t Table, col int) ColumnType {
	nonEmpty := 0
	numbers := 0
	dates := 0
	for _, row := range t.Rows {
		if col >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			continue
		}
		nonEmpty++
		if _, ok := ParseNumber(cell); ok {
			numbers++
		}
		if _, ok := ParseDate(cell); ok {
			dates++
		}
	}
	if nonEmpty == 0 {
		return TypeText
	}
	// Dates win over numbers: "02-01-2006" should not be read as arithmetic.
	if dates == nonEmpty {
		return TypeDate
	}
	if numbers == nonEmpty {
		return TypeNumber
	}
	return TypeText
}
