package codegen

import (
	"context"
	"fmt"
	"strings"

	"github.com/brunobiangulo/bankparse/llm"
)

// Generator asks the LLM for parser source text. The call is treated as
// opaque and possibly non-deterministic: identical prompts may yield
// different code, and nothing here memoizes responses.
type Generator struct {
	provider llm.Provider
	model    string
}

// NewGenerator creates a Generator on top of an LLM provider.
func NewGenerator(provider llm.Provider, model string) *Generator {
	return &Generator{provider: provider, model: model}
}

// Generate requests parser source for the given user prompt and normalizes
// the reply into plain Go source. A transport failure is returned as-is; the
// correction loop treats it like any other failed attempt.
func (g *Generator) Generate(ctx context.Context, userPrompt string) (string, error) {
	resp, err := g.provider.Chat(ctx, llm.ChatRequest{
		Model: g.model,
		Messages: []llm.Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	source := CleanSource(resp.Content)
	if source == "" {
		return "", fmt.Errorf("empty source in completion (finish_reason=%s)", resp.FinishReason)
	}
	return source, nil
}

// CleanSource strips markdown fences and surrounding prose from an LLM
// reply. Models often wrap code in ```go fences despite instructions not to.
func CleanSource(reply string) string {
	reply = strings.TrimSpace(reply)

	// Prefer the first fenced block when one exists.
	if idx := strings.Index(reply, "```"); idx >= 0 {
		rest := reply[idx+3:]
		// Drop a language tag on the fence line.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			tag := strings.TrimSpace(rest[:nl])
			if tag == "" || isFenceTag(tag) {
				rest = rest[nl+1:]
			}
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		reply = strings.TrimSpace(rest)
	}

	// Drop any prose before the first Go token.
	for _, anchor := range []string{"package ", "import ", "func "} {
		if idx := strings.Index(reply, anchor); idx > 0 {
			reply = reply[idx:]
			break
		} else if idx == 0 {
			break
		}
	}

	return strings.TrimSpace(reply)
}

func isFenceTag(tag string) bool {
	switch strings.ToLower(tag) {
	case "go", "golang":
		return true
	}
	return false
}
