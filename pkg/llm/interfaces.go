// Package llm provides OpenAI-compatible LLM client functionality.
package llm

import (
	"context"
	"fmt"
)

// LLMClient is the capability interface consumed by the agents.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// Ask sends a single-turn prompt and returns the completion text.
	Ask(ctx context.Context, prompt string) (string, error)

	// Enabled reports whether the client is configured to make network calls.
	Enabled() bool

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// SafeAsk asks the LLM and degrades to a deterministic fallback string on any
// failure. It never returns an error; callers that must always produce a
// summary use this instead of Ask.
func SafeAsk(ctx context.Context, c LLMClient, prompt string) string {
	out, err := c.Ask(ctx, prompt)
	if err != nil {
		return fmt.Sprintf("[llm_unavailable] %v", err)
	}
	return out
}

// Ensure Client implements LLMClient at compile time.
var _ LLMClient = (*Client)(nil)
