// Command bankparse generates and tests a bank-statement parser for one
// target, self-correcting on failure for up to the attempt budget.
//
// Usage:
//
//	go run ./cmd/bankparse --target icici
//
//	go run ./cmd/bankparse \
//	  --target icici \
//	  --chat-provider groq \
//	  --chat-model openai/gpt-oss-120b \
//	  --max-attempts 3
//
// Sample files are expected at data/<target>/<target>_sample.pdf plus
// <target>_sample.csv (or .xlsx). The accepted parser lands in
// custom_parsers/<target>_parser.go; each attempt is appended to
// logs/<target>_generation.log.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/bankparse"
)

func main() {
	var (
		target       = flag.String("target", "", "Target bank identifier (e.g. 'icici')")
		dataDir      = flag.String("data-dir", "", "Directory holding per-target sample files")
		outDir       = flag.String("out-dir", "", "Directory for generated parser source")
		logDir       = flag.String("log-dir", "", "Directory for generation logs")
		dbPath       = flag.String("db", "", "SQLite run store path (empty disables persistence)")
		configPath   = flag.String("config", "", "YAML config file (flags override its values)")
		chatProvider = flag.String("chat-provider", "", "Chat LLM provider: gemini, openai, groq, ollama, custom")
		chatModel    = flag.String("chat-model", "", "Chat model name")
		chatBaseURL  = flag.String("chat-base-url", "", "Chat provider base URL override")
		chatAPIKey   = flag.String("chat-api-key", "", "Chat provider API key (default: from env)")
		maxAttempts  = flag.Int("max-attempts", 0, "Generate/test attempt budget (default 3)")
		execTimeout  = flag.Int("exec-timeout", 0, "Generated parser execution timeout in seconds (default 30)")
		jsonOut      = flag.Bool("json", false, "Print the result as JSON")
		verbose      = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *target == "" {
		log.Fatal("--target flag is required")
	}

	cfg := bankparse.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatalf("reading config: %v", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("parsing config: %v", err)
		}
	}

	// Flags override config file values.
	applyFlag(dataDir, &cfg.DataDir)
	applyFlag(outDir, &cfg.OutDir)
	applyFlag(logDir, &cfg.LogDir)
	applyFlag(dbPath, &cfg.DBPath)
	applyFlag(chatProvider, &cfg.Chat.Provider)
	applyFlag(chatModel, &cfg.Chat.Model)
	applyFlag(chatBaseURL, &cfg.Chat.BaseURL)
	applyFlag(chatAPIKey, &cfg.Chat.APIKey)
	if *maxAttempts > 0 {
		cfg.MaxAttempts = *maxAttempts
	}
	if *execTimeout > 0 {
		cfg.ExecTimeoutSeconds = *execTimeout
	}

	if cfg.Chat.APIKey == "" {
		cfg.Chat.APIKey = apiKeyFromEnv(cfg.Chat.Provider)
	}
	if cfg.Chat.APIKey == "" && needsAPIKey(cfg.Chat.Provider) {
		log.Fatalf("no API key for provider %s: pass --chat-api-key or set %s",
			cfg.Chat.Provider, envVarFor(cfg.Chat.Provider))
	}

	agent, err := bankparse.New(cfg)
	if err != nil {
		log.Fatalf("creating agent: %v", err)
	}
	defer agent.Close()

	result, err := agent.Generate(context.Background(), *target)
	switch {
	case errors.Is(err, bankparse.ErrSampleMissing):
		log.Fatalf("sample files missing for target %q: %v", *target, err)
	case errors.Is(err, bankparse.ErrAttemptsExhausted):
		report(result, *jsonOut)
		log.Fatalf("no working parser after %d attempts, last error: %s",
			result.Attempts, result.LastError)
	case err != nil:
		log.Fatalf("generation failed: %v", err)
	}

	report(result, *jsonOut)
	fmt.Printf("parser accepted on attempt %d: %s\n", result.Attempts, result.ParserPath)
}

func applyFlag(flagValue, dst *string) {
	if *flagValue != "" {
		*dst = *flagValue
	}
}

func report(result *bankparse.Result, asJSON bool) {
	if result == nil || !asJSON {
		return
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(out))
}

func envVarFor(provider string) string {
	switch provider {
	case "gemini":
		return "GEMINI_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	default:
		return "LLM_API_KEY"
	}
}

func apiKeyFromEnv(provider string) string {
	return os.Getenv(envVarFor(provider))
}

// needsAPIKey reports whether a provider refuses anonymous requests. Local
// providers (ollama) and custom endpoints may not need one.
func needsAPIKey(provider string) bool {
	switch provider {
	case "gemini", "openai", "groq":
		return true
	}
	return false
}
