// Package harness persists generated parser source and executes it in an
// embedded interpreter. Interpreting the code instead of shelling out to the
// Go toolchain keeps execution in-process, sandboxable, and immune to
// compilation environment drift, while still surfacing syntax errors,
// runtime errors, and panics from the generated code as ordinary attempt
// failures.
package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/brunobiangulo/bankparse/pdftext"
	"github.com/brunobiangulo/bankparse/table"
)

// pdftextSymbols exposes the host's PDF text extraction to interpreted code
// under the import path "pdftext".
var pdftextSymbols = interp.Exports{
	"pdftext/pdftext": {
		"Extract": reflect.ValueOf(pdftext.Extract),
	},
}

// allowedImports is the whitelist for generated code. Filesystem, network,
// and exec access stay blocked; PDF input goes through pdftext only.
var allowedImports = map[string]bool{
	"bytes":        true,
	"errors":       true,
	"fmt":          true,
	"math":         true,
	"regexp":       true,
	"sort":         true,
	"strconv":      true,
	"strings":      true,
	"time":         true,
	"unicode":      true,
	"unicode/utf8": true,
	"pdftext":      true,
}

// parseFunc is the contract every generated parser must satisfy: row 0 of
// the result is the header, in target column order.
type parseFunc = func(pdfPath string) ([][]string, error)

// Runner executes generated parser source against a sample PDF.
type Runner struct {
	// Timeout bounds a single parser execution so runaway generated code
	// cannot hang the host.
	Timeout time.Duration
}

// New creates a Runner with the given execution timeout.
func New(timeout time.Duration) *Runner {
	return &Runner{Timeout: timeout}
}

// Run persists source to parserPath, then evaluates and invokes
// ParseStatement against pdfPath. The file is written before execution and
// left in place whatever the outcome; callers must rely on the returned
// error, not on file presence, to know whether the attempt passed.
func (r *Runner) Run(ctx context.Context, source, pdfPath, parserPath string) (table.Table, error) {
	if err := persist(source, parserPath); err != nil {
		return table.Table{}, err
	}

	if err := validateImports(source); err != nil {
		return table.Table{}, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return table.Table{}, fmt.Errorf("loading stdlib symbols: %w", err)
	}
	if err := i.Use(pdftextSymbols); err != nil {
		return table.Table{}, fmt.Errorf("loading pdftext symbols: %w", err)
	}

	if _, err := i.Eval(wrapCode(source)); err != nil {
		return table.Table{}, fmt.Errorf("evaluating generated code: %w", err)
	}

	v, err := i.Eval("main.ParseStatement")
	if err != nil {
		return table.Table{}, fmt.Errorf("ParseStatement not found in generated code: %w", err)
	}
	fn, ok := v.Interface().(parseFunc)
	if !ok {
		return table.Table{}, fmt.Errorf("ParseStatement has wrong signature: want func(string) ([][]string, error)")
	}

	rows, err := r.invoke(ctx, fn, pdfPath)
	if err != nil {
		return table.Table{}, err
	}

	t, err := table.FromRows(rows)
	if err != nil {
		return table.Table{}, fmt.Errorf("parser returned malformed table: %w", err)
	}
	return t, nil
}

// invoke calls the interpreted function in a goroutine so the host can
// recover panics and enforce the timeout.
func (r *Runner) invoke(ctx context.Context, fn parseFunc, pdfPath string) ([][]string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	type outcome struct {
		rows [][]string
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("generated parser panicked: %v", rec)}
			}
		}()
		rows, err := fn(pdfPath)
		done <- outcome{rows: rows, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, fmt.Errorf("parser execution failed: %w", out.err)
		}
		return out.rows, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("parser execution timed out: %w", ctx.Err())
	}
}

// persist writes the attempt's source, overwriting any prior attempt.
func persist(source, parserPath string) error {
	if err := os.MkdirAll(filepath.Dir(parserPath), 0o755); err != nil {
		return fmt.Errorf("creating parser directory: %w", err)
	}
	if err := os.WriteFile(parserPath, []byte(source), 0o644); err != nil {
		return fmt.Errorf("writing parser source: %w", err)
	}
	return nil
}

// validateImports checks the source against the import whitelist before any
// evaluation happens.
func validateImports(source string) error {
	var forbidden []string
	for _, pkg := range scanImports(source) {
		if !allowedImports[pkg] {
			forbidden = append(forbidden, pkg)
		}
	}
	if len(forbidden) > 0 {
		return fmt.Errorf("forbidden imports in generated code: %v", forbidden)
	}
	return nil
}

// scanImports extracts import paths with a line scan. The source has not
// been parsed yet at this point, so this stays tolerant of syntax errors;
// anything unscannable fails later at evaluation with a better message.
func scanImports(source string) []string {
	var imports []string
	inBlock := false
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "import ("):
			inBlock = true
		case inBlock && strings.HasPrefix(trimmed, ")"):
			inBlock = false
		case inBlock:
			if pkg := unquoteImport(trimmed); pkg != "" {
				imports = append(imports, pkg)
			}
		case strings.HasPrefix(trimmed, "import "):
			if pkg := unquoteImport(strings.TrimPrefix(trimmed, "import ")); pkg != "" {
				imports = append(imports, pkg)
			}
		}
	}
	return imports
}

// unquoteImport pulls the quoted path out of an import line, dropping any
// alias prefix.
func unquoteImport(line string) string {
	start := strings.IndexByte(line, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(line[start+1:], '"')
	if end < 0 {
		return ""
	}
	return line[start+1 : start+1+end]
}

// wrapCode ensures the source carries a package clause so it evaluates as a
// complete file.
func wrapCode(source string) string {
	if strings.Contains(source, "package main") {
		return source
	}
	return "package main\n\n" + source
}
