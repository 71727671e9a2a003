package sample

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/bankparse/table"
)

// loadXLSX reads the first sheet as the expected table: header row first,
// data rows after. Trailing short rows are padded to header width, which is
// how spreadsheet exports represent empty tail cells.
func loadXLSX(path string) (table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return table.Table{}, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return table.Table{}, fmt.Errorf("no sheets in %s", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return table.Table{}, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return table.Table{}, fmt.Errorf("empty sheet %s in %s", sheets[0], path)
	}

	width := len(rows[0])
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row[:width]
	}

	t, err := table.FromRows(rows)
	if err != nil {
		return table.Table{}, fmt.Errorf("malformed sheet %s: %w", sheets[0], err)
	}
	return t, nil
}
