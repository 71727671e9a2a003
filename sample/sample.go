// Package sample loads the per-target sample pair: a statement PDF and the
// expected parse output as CSV or XLSX. A Sample is read once per run and
// never mutated.
package sample

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brunobiangulo/bankparse/pdftext"
	"github.com/brunobiangulo/bankparse/table"
)

// ErrMissing is returned when a target's PDF or expected-output file is
// absent from the data directory.
var ErrMissing = errors.New("sample: file missing")

// Sample is one target's input/output pair.
type Sample struct {
	Target   string
	PDFPath  string
	Text     string             // extracted PDF plain text
	Expected table.Table        // target table the parser must reproduce
	Types    []table.ColumnType // inferred from Expected's data rows
}

// Load reads the sample for a target from the conventional layout
// <dataDir>/<target>/<target>_sample.pdf plus _sample.csv or _sample.xlsx.
func Load(ctx context.Context, dataDir, target string) (*Sample, error) {
	dir := filepath.Join(dataDir, target)

	pdfPath := filepath.Join(dir, target+"_sample.pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissing, pdfPath)
	}

	expected, err := loadExpected(dir, target)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := pdftext.Extract(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("extracting sample PDF: %w", err)
	}

	return &Sample{
		Target:   target,
		PDFPath:  pdfPath,
		Text:     text,
		Expected: expected,
		Types:    table.InferTypes(expected),
	}, nil
}

// loadExpected prefers CSV, falling back to XLSX when no CSV exists.
func loadExpected(dir, target string) (table.Table, error) {
	csvPath := filepath.Join(dir, target+"_sample.csv")
	if _, err := os.Stat(csvPath); err == nil {
		return loadCSV(csvPath)
	}

	xlsxPath := filepath.Join(dir, target+"_sample.xlsx")
	if _, err := os.Stat(xlsxPath); err == nil {
		return loadXLSX(xlsxPath)
	}

	return table.Table{}, fmt.Errorf("%w: %s (no .csv or .xlsx)", ErrMissing,
		filepath.Join(dir, target+"_sample.csv"))
}

func loadCSV(path string) (table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table.Table{}, fmt.Errorf("opening CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return table.Table{}, fmt.Errorf("reading CSV %s: %w", path, err)
	}

	t, err := table.FromRows(rows)
	if err != nil {
		return table.Table{}, fmt.Errorf("malformed CSV %s: %w", path, err)
	}
	return t, nil
}
