package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/logging"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/retry"
)

// Client talks to an OpenAI-compatible LLM endpoint (a LiteLLM proxy in the
// default deployment). When endpoint or API key is missing the client is
// disabled: Ask fails fast with ErrDisabled and SafeAsk degrades.
type Client struct {
	api      *openai.Client
	endpoint string
	model    string
	enabled  bool
	timeout  time.Duration
	retryCfg *retry.Config
	logger   *zap.Logger
}

// Config holds configuration for creating an LLM client.
type Config struct {
	Endpoint   string // Base URL, e.g. "http://litellm.internal/v1"
	Model      string // Model name, e.g. "gemini-2.5-flash"
	APIKey     string
	Timeout    time.Duration // Per-request timeout, defaults to 10s
	MaxRetries int           // Bounded retries on transient errors, defaults to 2
}

// NewClient creates a new OpenAI-compatible LLM client. A client with no
// endpoint or API key is returned in disabled mode rather than failing, so
// the service can still serve deterministic fallbacks.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	endpoint := strings.TrimSuffix(strings.TrimSpace(cfg.Endpoint), "/")
	apiKey := strings.TrimSpace(cfg.APIKey)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	retryCfg := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}

	c := &Client{
		endpoint: endpoint,
		model:    cfg.Model,
		enabled:  endpoint != "" && apiKey != "",
		timeout:  timeout,
		retryCfg: retryCfg,
		logger:   logger.Named("llm"),
	}

	if c.enabled {
		clientConfig := openai.DefaultConfig(apiKey)
		clientConfig.BaseURL = endpoint
		c.api = openai.NewClientWithConfig(clientConfig)
	}

	return c
}

// Ask sends a single-turn prompt and returns the completion text. Transient
// failures (rate limits, connection errors) are retried with backoff.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	if !c.enabled {
		return "", ErrDisabled
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	content, err := retry.DoWithResult(ctx, c.retryCfg, func() (string, error) {
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.api.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0,
		})
		if err != nil {
			return "", ClassifyError(err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no choices in response")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", logging.SanitizeError(err)))
		return "", err
	}

	c.logger.Info("LLM request completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_len", len(content)))

	return content, nil
}

// Enabled reports whether the client is configured to make network calls.
func (c *Client) Enabled() bool {
	return c.enabled
}

// GetModel returns the configured model name.
func (c *Client) GetModel() string {
	return c.model
}

// GetEndpoint returns the configured endpoint.
func (c *Client) GetEndpoint() string {
	return c.endpoint
}
