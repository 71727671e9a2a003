package codegen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brunobiangulo/bankparse/llm"
	"github.com/brunobiangulo/bankparse/sample"
	"github.com/brunobiangulo/bankparse/table"
)

func testSample() *sample.Sample {
	expected, _ := table.FromRows([][]string{
		{"Date", "Description", "Balance"},
		{"01-02-2025", "UPI Payment", "1234.00"},
		{"02-02-2025", "ATM Withdrawal", "734.00"},
	})
	return &sample.Sample{
		Target:   "icici",
		PDFPath:  "data/icici/icici_sample.pdf",
		Text:     strings.Repeat("01-02-2025 UPI Payment 1234.00\n", 50),
		Expected: expected,
		Types:    table.InferTypes(expected),
	}
}

func TestBuildDeterministic(t *testing.T) {
	b := Builder{SnippetChars: 4000, ExampleRows: 4}
	s := testSample()
	if b.Build(s, "") != b.Build(s, "") {
		t.Error("identical inputs must produce identical prompts")
	}
}

func TestBuildContents(t *testing.T) {
	b := Builder{SnippetChars: 4000, ExampleRows: 4}
	p := b.Build(testSample(), "")

	for _, frag := range []string{
		"Target Bank: icici",
		"UPI Payment",
		"[Date Description Balance]",
		"| Date | Description | Balance |",
	} {
		if !strings.Contains(p, frag) {
			t.Errorf("prompt missing %q", frag)
		}
	}
	if strings.Contains(p, "Previous attempt failed") {
		t.Error("first-attempt prompt must not carry feedback")
	}
}

func TestBuildSnippetCap(t *testing.T) {
	b := Builder{SnippetChars: 100, ExampleRows: 4}
	s := testSample()
	p := b.Build(s, "")
	if strings.Contains(p, s.Text) {
		t.Error("snippet should be capped below the full PDF text")
	}
	if !strings.Contains(p, s.Text[:100]) {
		t.Error("capped snippet should be a prefix of the PDF text")
	}
}

func TestBuildEmbedsFeedbackLiterally(t *testing.T) {
	b := Builder{SnippetChars: 4000, ExampleRows: 4}
	feedback := `cell mismatch at row 2, column "Balance": got "734", want "734.00"`
	p := b.Build(testSample(), feedback)
	if !strings.Contains(p, feedback) {
		t.Error("retry prompt must contain the previous verdict's error text verbatim")
	}
	if !strings.Contains(p, "Previous attempt failed") {
		t.Error("retry prompt should flag the feedback section")
	}
}

func TestCleanSource(t *testing.T) {
	code := "package main\n\nfunc ParseStatement(pdfPath string) ([][]string, error) {\n\treturn nil, nil\n}"

	cases := []struct {
		name string
		in   string
	}{
		{"plain", code},
		{"fenced", "```go\n" + code + "\n```"},
		{"fenced no tag", "```\n" + code + "\n```"},
		{"prose before code", "Here is the parser you asked for:\n\n" + code},
		{"prose and fence", "Sure! Here you go:\n\n```go\n" + code + "\n```\nLet me know if it works."},
	}
	for _, c := range cases {
		if got := CleanSource(c.in); got != code {
			t.Errorf("%s: CleanSource = %q, want %q", c.name, got, code)
		}
	}
}

// fakeProvider returns queued replies or errors.
type fakeProvider struct {
	replies []string
	errs    []error
	calls   int
}

func (f *fakeProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return &llm.ChatResponse{Content: f.replies[i]}, nil
}

func TestGenerateCleansReply(t *testing.T) {
	code := "func ParseStatement(pdfPath string) ([][]string, error) { return nil, nil }"
	p := &fakeProvider{replies: []string{"```go\n" + code + "\n```"}}
	g := NewGenerator(p, "test-model")

	got, err := g.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != code {
		t.Errorf("Generate = %q, want %q", got, code)
	}
}

func TestGenerateTransportError(t *testing.T) {
	p := &fakeProvider{errs: []error{errors.New("connection refused")}, replies: []string{""}}
	g := NewGenerator(p, "test-model")

	_, err := g.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error should carry the transport failure: %v", err)
	}
}

func TestGenerateEmptyReply(t *testing.T) {
	p := &fakeProvider{replies: []string{"```go\n```"}}
	g := NewGenerator(p, "test-model")
	if _, err := g.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for empty source")
	}
}
