package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"execsummary-backend/internal/llm"
	"execsummary-backend/internal/shared/telemetry"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Options configures the Gemini client. BaseURL is only set in tests.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client implements llm.Client with the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient constructs a Gemini client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Complete sends one GenerateContent call.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.User), buildConfig(req))
	if err != nil {
		return llm.Completion{}, wrapError(err)
	}
	if resp == nil {
		return llm.Completion{}, fmt.Errorf("gemini: %w", llm.ErrEmptyReply)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return llm.Completion{}, fmt.Errorf("gemini: %w", llm.ErrEmptyReply)
	}

	out := llm.Completion{Text: text, Model: c.model}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	telemetry.Info("llm.response", map[string]any{
		"provider":          "gemini",
		"model":             c.model,
		"prompt_tokens":     out.PromptTokens,
		"completion_tokens": out.CompletionTokens,
	})
	return out, nil
}

func buildConfig(req llm.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0)),
	}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

func wrapError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.StatusError{Provider: "gemini", StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	return fmt.Errorf("gemini generate: %w", err)
}

var _ llm.Client = (*Client)(nil)
