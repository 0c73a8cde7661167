package insight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// httpClient backstops provider calls; the analyzer puts its own deadline
// on the request context.
var httpClient = &http.Client{Timeout: 2 * time.Minute}

// maxAnswerTokens bounds the completion. Pattern summaries are short.
const maxAnswerTokens = 2048

// Request carries the prompts for one analysis call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
}

// Response is the provider's raw text output.
type Response struct {
	Content string
}

// Provider is a text-completion backend for the analyzer.
type Provider interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// NewProvider builds a Provider from a "provider:model" spec, for example
// "anthropic:claude-sonnet-4-20250514" or "openai:gpt-4o". The matching API
// key must be set in the environment.
func NewProvider(spec string) (Provider, error) {
	name, model, ok := strings.Cut(spec, ":")
	if !ok || name == "" || model == "" {
		return nil, fmt.Errorf("invalid insight provider %q: want provider:model", spec)
	}
	switch name {
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}
		return &anthropicProvider{model: model, apiKey: key}, nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return &openaiProvider{model: model, apiKey: key}, nil
	default:
		return nil, fmt.Errorf("unknown insight provider %q (anthropic and openai are supported)", name)
	}
}

// truncate limits a string to maxLen runes, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
