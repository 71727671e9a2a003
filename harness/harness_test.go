package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const goodSource = `package main

func ParseStatement(pdfPath string) ([][]string, error) {
	return [][]string{
		{"Date", "Description", "Balance"},
		{"01-02-2025", "UPI Payment", "1234.00"},
	}, nil
}
`

func runnerPaths(t *testing.T) (pdfPath, parserPath string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "sample.pdf"), filepath.Join(dir, "out", "test_parser.go")
}

func TestRunGoodSource(t *testing.T) {
	pdfPath, parserPath := runnerPaths(t)
	r := New(10 * time.Second)

	got, err := r.Run(context.Background(), goodSource, pdfPath, parserPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got.Columns) != 3 || got.Columns[0] != "Date" {
		t.Errorf("Columns = %v", got.Columns)
	}
	if got.NumRows() != 1 {
		t.Errorf("NumRows = %d, want 1", got.NumRows())
	}
}

func TestRunPersistsSource(t *testing.T) {
	pdfPath, parserPath := runnerPaths(t)
	r := New(10 * time.Second)

	// Persisted even when execution fails.
	broken := "package main\n\nfunc ParseStatement(" // syntax error
	if _, err := r.Run(context.Background(), broken, pdfPath, parserPath); err == nil {
		t.Fatal("expected error for broken source")
	}

	data, err := os.ReadFile(parserPath)
	if err != nil {
		t.Fatalf("parser file should exist after a failed attempt: %v", err)
	}
	if string(data) != broken {
		t.Error("parser file should hold the attempt's source verbatim")
	}

	// A later attempt overwrites it.
	if _, err := r.Run(context.Background(), goodSource, pdfPath, parserPath); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, _ = os.ReadFile(parserPath)
	if string(data) != goodSource {
		t.Error("parser file should be overwritten by the newest attempt")
	}
}

func TestRunSyntaxError(t *testing.T) {
	pdfPath, parserPath := runnerPaths(t)
	r := New(10 * time.Second)

	_, err := r.Run(context.Background(), "package main\n\nfunc ParseStatement( {", pdfPath, parserPath)
	if err == nil {
		t.Fatal("expected evaluation error")
	}
	if !strings.Contains(err.Error(), "evaluating generated code") {
		t.Errorf("error = %v", err)
	}
}

func TestRunForbiddenImport(t *testing.T) {
	pdfPath, parserPath := runnerPaths(t)
	r := New(10 * time.Second)

	src := `package main

import "os"

func ParseStatement(pdfPath string) ([][]string, error) {
	os.Remove(pdfPath)
	return nil, nil
}
`
	_, err := r.Run(context.Background(), src, pdfPath, parserPath)
	if err == nil {
		t.Fatal("expected import rejection")
	}
	if !strings.Contains(err.Error(), "forbidden imports") || !strings.Contains(err.Error(), "os") {
		t.Errorf("error = %v", err)
	}
}

func TestRunAllowedImports(t *testing.T) {
	pdfPath, parserPath := runnerPaths(t)
	r := New(10 * time.Second)

	src := `package main

import (
	"strings"
	"strconv"
)

func ParseStatement(pdfPath string) ([][]string, error) {
	n := strconv.Itoa(len(strings.TrimSpace(" x ")))
	return [][]string{{"N"}, {n}}, nil
}
`
	got, err := r.Run(context.Background(), src, pdfPath, parserPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.Rows[0][0] != "1" {
		t.Errorf("Rows[0][0] = %q, want \"1\"", got.Rows[0][0])
	}
}

func TestRunMissingFunction(t *testing.T) {
	pdfPath, parserPath := runnerPaths(t)
	r := New(10 * time.Second)

	_, err := r.Run(context.Background(), "package main\n\nfunc Parse(p string) {}\n", pdfPath, parserPath)
	if err == nil {
		t.Fatal("expected missing-function error")
	}
	if !strings.Contains(err.Error(), "ParseStatement") {
		t.Errorf("error = %v", err)
	}
}

func TestRunWrongSignature(t *testing.T) {
	pdfPath, parserPath := runnerPaths(t)
	r := New(10 * time.Second)

	_, err := r.Run(context.Background(), "package main\n\nfunc ParseStatement(n int) int { return n }\n", pdfPath, parserPath)
	if err == nil {
		t.Fatal("expected signature error")
	}
	if !strings.Contains(err.Error(), "signature") {
		t.Errorf("error = %v", err)
	}
}

func TestRunParserError(t *testing.T) {
	pdfPath, parserPath := runnerPaths(t)
	r := New(10 * time.Second)

	src := `package main

import "errors"

func ParseStatement(pdfPath string) ([][]string, error) {
	return nil, errors.New("no transactions found")
}
`
	_, err := r.Run(context.Background(), src, pdfPath, parserPath)
	if err == nil {
		t.Fatal("expected parser error")
	}
	if !strings.Contains(err.Error(), "no transactions found") {
		t.Errorf("error must carry the raised message verbatim: %v", err)
	}
}

func TestRunPanicRecovered(t *testing.T) {
	pdfPath, parserPath := runnerPaths(t)
	r := New(10 * time.Second)

	src := `package main

func ParseStatement(pdfPath string) ([][]string, error) {
	var rows [][]string
	return [][]string{rows[5]}, nil
}
`
	_, err := r.Run(context.Background(), src, pdfPath, parserPath)
	if err == nil {
		t.Fatal("expected panic to surface as an error")
	}
	if !strings.Contains(err.Error(), "panic") {
		t.Errorf("error = %v", err)
	}
}

func TestRunTimeout(t *testing.T) {
	pdfPath, parserPath := runnerPaths(t)
	r := New(200 * time.Millisecond)

	src := `package main

import "time"

func ParseStatement(pdfPath string) ([][]string, error) {
	time.Sleep(10 * time.Second)
	return nil, nil
}
`
	start := time.Now()
	_, err := r.Run(context.Background(), src, pdfPath, parserPath)
	if err == nil {
		t.Fatal("expected timeout")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error = %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout did not bound execution time")
	}
}

func TestRunNoHeader(t *testing.T) {
	pdfPath, parserPath := runnerPaths(t)
	r := New(10 * time.Second)

	src := `package main

func ParseStatement(pdfPath string) ([][]string, error) {
	return [][]string{}, nil
}
`
	_, err := r.Run(context.Background(), src, pdfPath, parserPath)
	if err == nil {
		t.Fatal("expected malformed-table error")
	}
	if !strings.Contains(err.Error(), "malformed table") {
		t.Errorf("error = %v", err)
	}
}

func TestWrapCode(t *testing.T) {
	src := "func ParseStatement(p string) ([][]string, error) { return nil, nil }"
	wrapped := wrapCode(src)
	if !strings.HasPrefix(wrapped, "package main") {
		t.Errorf("wrapCode should add a package clause:\n%s", wrapped)
	}
	if wrapCode(goodSource) != goodSource {
		t.Error("wrapCode should leave complete files alone")
	}
}

func TestScanImports(t *testing.T) {
	src := `package main

import (
	"strings"
	rex "regexp"
)

import "strconv"
`
	got := scanImports(src)
	want := []string{"strings", "regexp", "strconv"}
	if len(got) != len(want) {
		t.Fatalf("scanImports = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("scanImports[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
