package bankparse

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brunobiangulo/bankparse/check"
)

// attemptLog is the per-target append-only generation log. It exists for
// humans debugging a run; nothing reads it back. A nil log is safe to use
// so a failed open never blocks the loop.
type attemptLog struct {
	f *os.File
}

func openAttemptLog(path string) (*attemptLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening attempt log: %w", err)
	}
	return &attemptLog{f: f}, nil
}

// Record appends one attempt: its prompt, the feedback it carried, the
// generated source, and the outcome.
func (l *attemptLog) Record(attempt int, prompt, feedback, source string, v check.Verdict) {
	if l == nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n--- Attempt %d ---\n", attempt)
	if feedback != "" {
		fmt.Fprintf(&b, "Feedback from previous attempt:\n%s\n\n", feedback)
	}
	fmt.Fprintf(&b, "Prompt:\n%s\n", prompt)
	fmt.Fprintf(&b, "Generated code:\n%s\n\n", source)
	fmt.Fprintf(&b, "Result: %s\n%s\n", v, strings.Repeat("=", 80))
	// Logging is best-effort; a failed write drops the entry.
	l.f.WriteString(b.String())
}

func (l *attemptLog) Close() error {
	if l == nil {
		return nil
	}
	return l.f.Close()
}
