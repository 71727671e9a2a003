package bankparse

import "path/filepath"

// Config holds all configuration for a bankparse agent.
type Config struct {
	// DataDir is the directory holding per-target sample files:
	// <DataDir>/<target>/<target>_sample.pdf and _sample.csv (or .xlsx).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// OutDir is where generated parser source files are written, one
	// <target>_parser.go per target, overwritten across attempts.
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// LogDir is where per-target generation logs are appended.
	LogDir string `json:"log_dir" yaml:"log_dir"`

	// DBPath is the SQLite run store. Empty disables run persistence.
	DBPath string `json:"db_path" yaml:"db_path"`

	// Chat configures the code-generation LLM endpoint.
	Chat LLMConfig `json:"chat" yaml:"chat"`

	// MaxAttempts is the generate/test attempt budget. Defaults to 3.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// PDFSnippetChars caps how much extracted PDF text is embedded in the
	// prompt. Defaults to 4000.
	PDFSnippetChars int `json:"pdf_snippet_chars" yaml:"pdf_snippet_chars"`

	// ExampleRows is how many target rows the prompt shows. Defaults to 4.
	ExampleRows int `json:"example_rows" yaml:"example_rows"`

	// ExecTimeoutSeconds bounds a single generated-parser execution.
	// Defaults to 30.
	ExecTimeoutSeconds int `json:"exec_timeout_seconds" yaml:"exec_timeout_seconds"`
}

// LLMConfig configures a single LLM provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"` // gemini, openai, groq, ollama, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// DefaultConfig returns a Config with the conventional directory layout and
// a Gemini chat endpoint.
func DefaultConfig() Config {
	return Config{
		DataDir: "data",
		OutDir:  "custom_parsers",
		LogDir:  "logs",
		Chat: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-pro",
		},
		MaxAttempts:        3,
		PDFSnippetChars:    4000,
		ExampleRows:        4,
		ExecTimeoutSeconds: 30,
	}
}

// applyDefaults fills zero values so a partially specified Config works.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.OutDir == "" {
		c.OutDir = d.OutDir
	}
	if c.LogDir == "" {
		c.LogDir = d.LogDir
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.PDFSnippetChars == 0 {
		c.PDFSnippetChars = d.PDFSnippetChars
	}
	if c.ExampleRows == 0 {
		c.ExampleRows = d.ExampleRows
	}
	if c.ExecTimeoutSeconds == 0 {
		c.ExecTimeoutSeconds = d.ExecTimeoutSeconds
	}
}

// parserPath returns the generated parser location for a target.
func (c *Config) parserPath(target string) string {
	return filepath.Join(c.OutDir, target+"_parser.go")
}

// logPath returns the generation log location for a target.
func (c *Config) logPath(target string) string {
	return filepath.Join(c.LogDir, target+"_generation.log")
}
