// Package codegen builds code-generation prompts and turns LLM replies into
// clean Go source for the parser harness.
package codegen

import (
	"fmt"
	"strings"

	"github.com/brunobiangulo/bankparse/sample"
)

// SystemPrompt fixes the generated function's external contract. It is sent
// unchanged on every attempt.
const SystemPrompt = `You are an expert Go developer specializing in data extraction from PDFs.
Your task is to write a Go parsing function for a bank statement PDF that reproduces a specific, sometimes unusual, CSV format.
You must only output raw Go source code. No explanations, no markdown formatting, no text other than the code.
The code must contain a function with the exact signature:

	func ParseStatement(pdfPath string) ([][]string, error)

The returned slice's first row is the CSV header, in exact target column order; every following row is one transaction.
Extract the statement text with the provided pdftext package:

	import "pdftext"
	text, err := pdftext.Extract(pdfPath)

Only the Go standard library (strings, strconv, regexp, fmt, sort, time, bytes, unicode) and pdftext may be imported.`

// Builder composes the per-attempt user prompt. Identical inputs always
// produce identical prompts.
type Builder struct {
	// SnippetChars caps how much extracted PDF text is embedded.
	SnippetChars int
	// ExampleRows is how many target rows to show.
	ExampleRows int
}

// Build renders the user prompt for one attempt. feedback is empty on the
// first attempt and carries the previous verdict's error text on retries.
func (b Builder) Build(s *sample.Sample, feedback string) string {
	snippet := s.Text
	if b.SnippetChars > 0 && len(snippet) > b.SnippetChars {
		snippet = snippet[:b.SnippetChars]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Target Bank: %s\n\n", s.Target)

	sb.WriteString("--- RAW PDF TEXT SNIPPET (FOR STRUCTURE ANALYSIS ONLY) ---\n")
	sb.WriteString(snippet)
	sb.WriteString("\n--- END SNIPPET ---\n\n")

	sb.WriteString("--- TARGET CSV FORMAT (THIS IS THE GOAL) ---\n")
	fmt.Fprintf(&sb, "CSV Schema: %v\n", s.Expected.Columns)
	fmt.Fprintf(&sb, "Column types: %v\n", s.Types)
	sb.WriteString("Example CSV rows to match:\n")
	sb.WriteString("| " + strings.Join(s.Expected.Columns, " | ") + " |\n")
	for _, row := range s.Expected.Head(b.ExampleRows) {
		sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	sb.WriteString("\n")

	if feedback != "" {
		sb.WriteString("Previous attempt failed. Feedback:\n")
		sb.WriteString(feedback)
		sb.WriteString("\n\n")
	}

	sb.WriteString(`CRITICAL INSTRUCTIONS:
1. The data in the PDF snippet may not match the target CSV data. Use the snippet only to understand the text layout and column structure.
2. Your parser's output must exactly match the TARGET CSV FORMAT: same columns, same order, same formatting of every cell.
3. If an example column is always empty, your parser must emit it as an empty string for every row.
4. Parsing strategy: match transaction lines with a regular expression capturing each target column; skip any line that does not start with a date.
5. Return the header as the first row, then one row per transaction, in document order.
`)

	return sb.String()
}
