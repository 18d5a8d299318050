package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"execsummary-backend/internal/llm"
	"execsummary-backend/internal/shared/telemetry"
)

// DefaultBaseURL is the OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// Options configures a chat-completions client. The same wire format
// serves OpenAI and OpenRouter; only BaseURL and APIKey differ.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// Client implements llm.Client using the Chat Completions API.
type Client struct {
	provider string
	model    string
	baseURL  string
	http     *resty.Client
}

// NewClient constructs a chat-completions client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for %s", providerName(opts.Provider))
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("API key is required for %s", providerName(opts.Provider))
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetAuthToken(opts.APIKey).
		SetHeader("Content-Type", "application/json")
	if providerName(opts.Provider) == "openrouter" {
		httpClient.SetHeader("X-Title", "executive-summary")
	}

	return &Client{
		provider: providerName(opts.Provider),
		model:    strings.TrimSpace(opts.Model),
		baseURL:  baseURL,
		http:     httpClient,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// Complete sends one chat completion. Models that reject temperature 0
// are retried once without it.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	body := c.buildRequest(req, !isGPT5(c.model))
	out, err := c.send(ctx, body)
	if err != nil && body.Temperature != nil && isTemperatureUnsupported(err) {
		body.Temperature = nil
		out, err = c.send(ctx, body)
	}
	if err != nil {
		return llm.Completion{}, err
	}

	fields := map[string]any{
		"provider": c.provider,
		"model":    out.Model,
	}
	if out.PromptTokens > 0 || out.CompletionTokens > 0 {
		fields["prompt_tokens"] = out.PromptTokens
		fields["completion_tokens"] = out.CompletionTokens
	}
	telemetry.Info("llm.response", fields)
	return out, nil
}

func (c *Client) buildRequest(req llm.Request, withTemperature bool) chatRequest {
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	body := chatRequest{
		Model:    c.model,
		Messages: messages,
	}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	if withTemperature {
		temp := float32(0)
		body.Temperature = &temp
	}
	return body
}

func (c *Client) send(ctx context.Context, body chatRequest) (llm.Completion, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return llm.Completion{}, fmt.Errorf("%s request timeout: %w", c.provider, err)
		}
		return llm.Completion{}, fmt.Errorf("%s request: %w", c.provider, err)
	}

	raw := resp.Body()
	if msg := gjson.GetBytes(raw, "error.message"); msg.Exists() {
		return llm.Completion{}, &llm.StatusError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode(),
			Message:    msg.String(),
		}
	}
	if resp.StatusCode() >= 400 {
		return llm.Completion{}, &llm.StatusError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode(),
			Message:    strings.TrimSpace(string(raw)),
		}
	}
	if !gjson.ValidBytes(raw) {
		return llm.Completion{}, fmt.Errorf("%s response parse: invalid JSON", c.provider)
	}

	content := strings.TrimSpace(gjson.GetBytes(raw, "choices.0.message.content").String())
	if content == "" {
		return llm.Completion{}, fmt.Errorf("%s: %w", c.provider, llm.ErrEmptyReply)
	}
	model := gjson.GetBytes(raw, "model").String()
	if model == "" {
		model = c.model
	}
	return llm.Completion{
		Text:             content,
		Model:            model,
		PromptTokens:     int(gjson.GetBytes(raw, "usage.prompt_tokens").Int()),
		CompletionTokens: int(gjson.GetBytes(raw, "usage.completion_tokens").Int()),
	}, nil
}

func isGPT5(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	m = strings.TrimPrefix(m, "openai/")
	return strings.HasPrefix(m, "gpt-5")
}

func isTemperatureUnsupported(err error) bool {
	var statusErr *llm.StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	msg := strings.ToLower(statusErr.Message)
	return strings.Contains(msg, "temperature") && strings.Contains(msg, "unsupported")
}

func providerName(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return "openai"
	}
	return p
}

var _ llm.Client = (*Client)(nil)
