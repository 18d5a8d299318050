package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Client abstracts LLM providers that return a single chat completion.
type Client interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// Request is one system + user exchange. JSON asks the provider for a
// JSON object reply when it supports a structured response mode.
type Request struct {
	System string
	User   string
	JSON   bool
}

// Completion is the provider reply plus token usage when reported.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("LLM provider not configured")

// ErrEmptyReply is returned when the provider answers without content.
var ErrEmptyReply = errors.New("LLM reply was empty")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, req Request) (Completion, error) {
	_ = ctx
	_ = req
	return Completion{}, ErrNotConfigured
}

// StatusError is an HTTP-level failure reported by a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// StripCodeFence removes a surrounding ``` or ```json fence from a model reply.
func StripCodeFence(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
		if nl := strings.IndexAny(clean, "\r\n"); nl >= 0 && !strings.ContainsAny(clean[:nl], "{[") {
			clean = clean[nl:]
		}
		clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
	}
	return strings.TrimSpace(clean)
}
