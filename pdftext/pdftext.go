// Package pdftext extracts plain text from PDF files. It is used by the
// host to build prompts and is also exported into the harness interpreter
// so generated parsers can read statement text themselves.
package pdftext

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extract returns the concatenated plain text of all pages. Pages that fail
// extraction are skipped rather than failing the whole document.
func Extract(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return "", fmt.Errorf("no extractable text in %s", path)
	}
	return strings.Join(pages, "\n"), nil
}
