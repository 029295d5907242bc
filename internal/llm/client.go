// Package llm wraps the hosted chat-completion API using langchaingo.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/aisha-chat/aisha-go/internal/config"
)

// ErrUpstream marks any completion-API failure: timeout, rate limit,
// model unavailable. The chat engine recovers from it via the
// primary/fallback chain; the raw detail is logged, never shown to
// users.
var ErrUpstream = errors.New("completion API error")

// CompleteParams select the model and sampling knobs of one call.
type CompleteParams struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client sends completion requests. One client serves both the primary
// and fallback model; the model id is a per-call option.
type Client struct {
	model llms.Model
}

// NewClient creates a completion client based on configuration.
func NewClient(cfg config.Config) (*Client, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("API key required for provider %s", cfg.LLMProvider)
		}
		model, err = openai.New(
			openai.WithToken(cfg.APIKey),
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithModel(cfg.PrimaryModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}

	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.PrimaryModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Client{model: model}, nil
}

// NewClientWithModel wraps an existing llms.Model (used by tests).
func NewClientWithModel(model llms.Model) *Client {
	return &Client{model: model}
}

// Complete sends messages to the API and returns the raw reply text.
// Callers bound the call with a context deadline; a deadline hit is an
// ErrUpstream like any other failure.
func (c *Client) Complete(ctx context.Context, messages []llms.MessageContent, p CompleteParams) (string, error) {
	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithModel(p.Model),
		llms.WithTemperature(p.Temperature),
		llms.WithMaxTokens(p.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%w: model %s: %v", ErrUpstream, p.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: model %s returned no choices", ErrUpstream, p.Model)
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
