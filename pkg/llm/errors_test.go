package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{
			name:     "401 unauthorized",
			err:      errors.New("status code 401: invalid api key"),
			wantType: ErrorTypeAuth,
		},
		{
			name:     "model not found",
			err:      errors.New("model gemini-2.5-flash does not exist"),
			wantType: ErrorTypeModel,
		},
		{
			name:     "404 endpoint",
			err:      errors.New("status code 404: page not found"),
			wantType: ErrorTypeEndpoint,
		},
		{
			name:      "429 rate limited",
			err:       errors.New("status code 429: too many requests"),
			wantType:  ErrorTypeRateLimit,
			retryable: true,
		},
		{
			name:      "connection refused",
			err:       errors.New("dial tcp 127.0.0.1:4000: connection refused"),
			wantType:  ErrorTypeEndpoint,
			retryable: true,
		},
		{
			name:      "timeout",
			err:       errors.New("context deadline exceeded"),
			wantType:  ErrorTypeEndpoint,
			retryable: true,
		},
		{
			name:      "503 server error",
			err:       errors.New("status code 503: service unavailable"),
			wantType:  ErrorTypeEndpoint,
			retryable: true,
		},
		{
			name:     "unclassified",
			err:      errors.New("something odd happened"),
			wantType: ErrorTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			if got.Type != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, got.Type)
			}
			if got.IsRetryable() != tt.retryable {
				t.Errorf("expected retryable=%v, got %v", tt.retryable, got.IsRetryable())
			}
			if !errors.Is(got, tt.err) {
				t.Error("expected classified error to wrap the cause")
			}
		})
	}
}

func TestClassifyError_PassesThroughStructuredError(t *testing.T) {
	got := ClassifyError(fmt.Errorf("wrapped: %w", ErrDisabled))
	if got != ErrDisabled {
		t.Errorf("expected ErrDisabled passthrough, got %v", got)
	}
}

func TestSafeAsk_ReturnsCompletion(t *testing.T) {
	mock := NewMockLLMClient()
	mock.AskFunc = func(ctx context.Context, prompt string) (string, error) {
		return "a concise answer", nil
	}

	out := SafeAsk(context.Background(), mock, "summarize this")
	if out != "a concise answer" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestSafeAsk_DegradesOnFailure(t *testing.T) {
	mock := NewMockLLMClient()
	mock.EnabledValue = false

	out := SafeAsk(context.Background(), mock, "summarize this")
	if !strings.HasPrefix(out, "[llm_unavailable]") {
		t.Errorf("expected llm_unavailable fallback, got %q", out)
	}
}

func TestNewClient_DisabledWithoutCredentials(t *testing.T) {
	c := NewClient(&Config{Model: "gemini-2.5-flash"}, testLogger())
	if c.Enabled() {
		t.Error("expected client without endpoint and key to be disabled")
	}

	if _, err := c.Ask(context.Background(), "hello"); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
}

func TestNewClient_TrimsEndpointSlash(t *testing.T) {
	c := NewClient(&Config{
		Endpoint: "http://litellm.internal/v1/",
		APIKey:   "test-key",
		Model:    "gemini-2.5-flash",
	}, testLogger())

	if !c.Enabled() {
		t.Error("expected configured client to be enabled")
	}
	if got := c.GetEndpoint(); got != "http://litellm.internal/v1" {
		t.Errorf("expected trimmed endpoint, got %q", got)
	}
}
