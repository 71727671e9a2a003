// Package bankparse generates bank-statement parsers with a self-correcting
// LLM loop: build a prompt from a sample PDF and its expected output table,
// ask the model for parser source, execute that source in an embedded
// interpreter, compare the result to the target, and feed any mismatch back
// into the next prompt. The loop is strictly sequential and bounded by an
// attempt budget.
package bankparse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brunobiangulo/bankparse/check"
	"github.com/brunobiangulo/bankparse/codegen"
	"github.com/brunobiangulo/bankparse/harness"
	"github.com/brunobiangulo/bankparse/llm"
	"github.com/brunobiangulo/bankparse/sample"
	"github.com/brunobiangulo/bankparse/store"
)

// Agent is the main entry point for parser generation.
type Agent interface {
	// Generate runs the correction loop for one target. It returns a
	// Result on success and on exhaustion; exhaustion additionally
	// returns an error wrapping ErrAttemptsExhausted.
	Generate(ctx context.Context, target string) (*Result, error)

	// Close cleanly shuts down the agent.
	Close() error
}

// Result reports the outcome of a generation run.
type Result struct {
	Target     string `json:"target"`
	Success    bool   `json:"success"`
	Attempts   int    `json:"attempts"`
	ParserPath string `json:"parser_path"` // last attempt's persisted source
	Source     string `json:"source"`      // last generated source text
	LastError  string `json:"last_error,omitempty"`
}

// Option configures an Agent beyond its Config.
type Option func(*agent)

// WithProvider overrides the LLM provider built from Config.Chat. Used to
// inject fakes in tests and custom transports in embedding applications.
func WithProvider(p llm.Provider) Option {
	return func(a *agent) { a.provider = p }
}

// agent is the concrete implementation of Agent.
type agent struct {
	cfg      Config
	provider llm.Provider
	gen      *codegen.Generator
	builder  codegen.Builder
	runner   *harness.Runner
	runs     *store.Store // nil when run persistence is disabled
}

// New creates an Agent from the given configuration.
func New(cfg Config, opts ...Option) (Agent, error) {
	cfg.applyDefaults()

	a := &agent{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	if a.provider == nil {
		p, err := llm.NewProvider(llm.Config{
			Provider: cfg.Chat.Provider,
			Model:    cfg.Chat.Model,
			BaseURL:  cfg.Chat.BaseURL,
			APIKey:   cfg.Chat.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		a.provider = p
	}

	a.gen = codegen.NewGenerator(a.provider, cfg.Chat.Model)
	a.builder = codegen.Builder{
		SnippetChars: cfg.PDFSnippetChars,
		ExampleRows:  cfg.ExampleRows,
	}
	a.runner = harness.New(time.Duration(cfg.ExecTimeoutSeconds) * time.Second)

	if cfg.DBPath != "" {
		s, err := store.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening run store: %w", err)
		}
		a.runs = s
	}

	return a, nil
}

// Generate loads the target's sample and runs the correction loop.
func (a *agent) Generate(ctx context.Context, target string) (*Result, error) {
	s, err := sample.Load(ctx, a.cfg.DataDir, target)
	if err != nil {
		if errors.Is(err, sample.ErrMissing) {
			return nil, fmt.Errorf("%w: %v", ErrSampleMissing, err)
		}
		return nil, fmt.Errorf("loading sample: %w", err)
	}

	slog.Info("sample loaded",
		"target", target,
		"pdf_chars", len(s.Text),
		"columns", s.Expected.Columns,
		"rows", s.Expected.NumRows())

	return a.run(ctx, s)
}

// run is the PLAN → GENERATE → TEST loop. Every non-fatal failure becomes
// the next attempt's feedback; only context cancellation and exhaustion
// leave the loop early.
func (a *agent) run(ctx context.Context, s *sample.Sample) (*Result, error) {
	parserPath := a.cfg.parserPath(s.Target)

	alog, err := openAttemptLog(a.cfg.logPath(s.Target))
	if err != nil {
		slog.Warn("attempt log unavailable", "target", s.Target, "error", err)
		alog = nil
	}
	defer alog.Close()

	var runID int64
	if a.runs != nil {
		if runID, err = a.runs.BeginRun(ctx, s.Target, a.cfg.Chat.Model); err != nil {
			slog.Warn("run store unavailable", "error", err)
			runID = 0
		}
	}

	result := &Result{Target: s.Target, ParserPath: parserPath}
	feedback := ""

	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slog.Info("attempt starting",
			"target", s.Target, "attempt", attempt, "max_attempts", a.cfg.MaxAttempts)
		start := time.Now()

		prompt := a.builder.Build(s, feedback)
		verdict, source := a.attempt(ctx, s, prompt, parserPath)
		elapsed := time.Since(start)
		if source != "" {
			result.Source = source
		}

		alog.Record(attempt, prompt, feedback, source, verdict)
		if a.runs != nil && runID != 0 {
			if err := a.runs.RecordAttempt(ctx, store.Attempt{
				RunID:     runID,
				Ordinal:   attempt,
				Prompt:    prompt,
				Source:    source,
				OK:        verdict.OK,
				ErrorText: verdict.Mismatch,
				ElapsedMS: elapsed.Milliseconds(),
			}); err != nil {
				slog.Warn("recording attempt failed", "error", err)
			}
		}

		result.Attempts = attempt

		if verdict.OK {
			result.Success = true
			slog.Info("parser accepted",
				"target", s.Target, "attempt", attempt,
				"parser", parserPath, "elapsed", elapsed.Round(time.Millisecond))
			a.finishRun(ctx, runID, true, attempt)
			return result, nil
		}

		feedback = verdict.Mismatch
		slog.Warn("attempt failed",
			"target", s.Target, "attempt", attempt,
			"elapsed", elapsed.Round(time.Millisecond), "error", feedback)
	}

	result.LastError = feedback
	a.finishRun(ctx, runID, false, a.cfg.MaxAttempts)
	return result, fmt.Errorf("%w: %d attempts for %s, last error: %s",
		ErrAttemptsExhausted, a.cfg.MaxAttempts, s.Target, feedback)
}

// attempt performs one GENERATE → TEST cycle and folds every failure mode
// (transport, execution, mismatch) into a failing Verdict. The returned
// source is empty when generation itself failed.
func (a *agent) attempt(ctx context.Context, s *sample.Sample, prompt, parserPath string) (check.Verdict, string) {
	source, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return check.Verdict{Mismatch: fmt.Sprintf("code generation failed: %v", err)}, ""
	}

	got, err := a.runner.Run(ctx, source, s.PDFPath, parserPath)
	if err != nil {
		return check.Verdict{Mismatch: err.Error()}, source
	}

	return check.Compare(got, s.Expected, s.Types), source
}

func (a *agent) finishRun(ctx context.Context, runID int64, success bool, attempts int) {
	if a.runs == nil || runID == 0 {
		return
	}
	if err := a.runs.FinishRun(ctx, runID, success, attempts); err != nil {
		slog.Warn("finishing run failed", "error", err)
	}
}

// Close shuts down the agent.
func (a *agent) Close() error {
	if a.runs != nil {
		return a.runs.Close()
	}
	return nil
}
