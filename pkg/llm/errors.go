package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies LLM failures.
type ErrorType string

const (
	ErrorTypeAuth      ErrorType = "auth"
	ErrorTypeModel     ErrorType = "model"
	ErrorTypeEndpoint  ErrorType = "endpoint"
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeDisabled  ErrorType = "disabled"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// ErrDisabled is returned when the client has no endpoint or API key
// configured. It is never retryable.
var ErrDisabled = &Error{
	Type:    ErrorTypeDisabled,
	Message: "llm is disabled (missing LLM_API_KEY / LLM_BASE_URL)",
}

// Error represents a structured LLM error with classification.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := []string{string(e.Type)}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// ClassifyError categorizes an error into a structured *Error so the retry
// layer can distinguish transient failures from permanent ones.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	switch {
	case strings.Contains(errStr, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key"):
		return &Error{Type: ErrorTypeAuth, Message: "authentication failed", Cause: err, StatusCode: statusCode}

	case strings.Contains(lower, "model") && (strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist")):
		return &Error{Type: ErrorTypeModel, Message: "model not found", Cause: err, StatusCode: statusCode}

	case strings.Contains(errStr, "404"):
		return &Error{Type: ErrorTypeEndpoint, Message: "endpoint not found", Cause: err, StatusCode: statusCode}

	case strings.Contains(errStr, "429") || strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests"):
		return &Error{Type: ErrorTypeRateLimit, Message: "rate limited", Retryable: true, Cause: err, StatusCode: statusCode}

	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return &Error{Type: ErrorTypeEndpoint, Message: "connection failed", Retryable: true, Cause: err, StatusCode: statusCode}

	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return &Error{Type: ErrorTypeEndpoint, Message: "request timeout", Retryable: true, Cause: err, StatusCode: statusCode}

	case strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "504"):
		return &Error{Type: ErrorTypeEndpoint, Message: "server error", Retryable: true, Cause: err, StatusCode: statusCode}
	}

	return &Error{Type: ErrorTypeUnknown, Message: "llm error", Cause: err, StatusCode: statusCode}
}
