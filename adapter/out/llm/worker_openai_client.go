// Package llm adapts the OpenAI chat completion API to out.TextGenerator.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"draft_worker/core/port/out"
	"draft_worker/pkg/resilience"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultModel = "gpt-4o-mini"

// ClientConfig configures the OpenAI client.
type ClientConfig struct {
	APIKey      string
	Model       string
	BaseURL     string // optional, for compatible gateways
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
}

// Client is a JSON-mode chat completion client.
type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	cb          *resilience.Breaker
}

var _ out.TextGenerator = (*Client)(nil)

// NewClient creates a client from cfg, filling defaults.
func NewClient(cfg ClientConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}

	return &Client{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
		cb:          resilience.NewBreaker("openai"),
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// CompleteJSON returns the model's reply to prompt in JSON mode.
func (c *Client) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	var content string
	err := c.cb.Execute("CompleteJSON", func() error {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return wrapError(err)
		}
		if len(resp.Choices) > 0 {
			content = resp.Choices[0].Message.Content
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func wrapError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return out.NewProviderError("openai", out.ProviderErrNetwork, "request failed", err, true)
	}
	switch apiErr.HTTPStatusCode {
	case http.StatusUnauthorized:
		return out.NewProviderError("openai", out.ProviderErrAuth, "invalid API key", err, false)
	case http.StatusTooManyRequests:
		return out.NewProviderError("openai", out.ProviderErrRateLimit, "rate limited", err, true)
	case http.StatusBadRequest:
		return out.NewProviderError("openai", out.ProviderErrInvalidInput, "bad request", err, false)
	}
	return out.NewProviderError("openai", out.ProviderErrServer, "completion failed", err, apiErr.HTTPStatusCode >= 500)
}
