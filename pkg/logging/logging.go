// Package logging builds the service logger and scrubs credentials from
// values before they are logged.
package logging

import (
	"regexp"

	"go.uber.org/zap"
)

// RedactedText is the replacement text for sensitive data
const RedactedText = "[REDACTED]"

var (
	// Pattern to match bearer tokens in error strings from upstream APIs
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_.]+`)

	// Pattern to match API keys passed as query or form parameters
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// Pattern to match URL-embedded credentials (user:pass@host format)
	credentialURLPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// NewLogger builds the service logger: human-readable in development,
// JSON in production.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "development" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// SanitizeError scrubs credentials from an error message before logging.
// Upstream API errors can embed tokens, key parameters, or credentialed URLs.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := bearerPattern.ReplaceAllString(err.Error(), "Bearer "+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = credentialURLPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}
