package llm

import "context"

// MockLLMClient is a configurable mock for testing LLM-dependent logic.
// Set the function fields to control behavior in tests.
type MockLLMClient struct {
	// AskFunc is called when Ask is invoked. If nil, returns "" and nil error.
	AskFunc func(ctx context.Context, prompt string) (string, error)

	// EnabledValue is returned by Enabled. Defaults to true via NewMockLLMClient.
	EnabledValue bool

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	// Call tracking for verification
	AskCalls   int
	LastPrompt string
}

// NewMockLLMClient creates a new mock with sensible defaults.
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{
		EnabledValue: true,
		Model:        "mock-model",
		Endpoint:     "http://mock-endpoint",
	}
}

// Ask implements LLMClient.
func (m *MockLLMClient) Ask(ctx context.Context, prompt string) (string, error) {
	m.AskCalls++
	m.LastPrompt = prompt
	if !m.EnabledValue {
		return "", ErrDisabled
	}
	if m.AskFunc != nil {
		return m.AskFunc(ctx, prompt)
	}
	return "", nil
}

// Enabled implements LLMClient.
func (m *MockLLMClient) Enabled() bool {
	return m.EnabledValue
}

// GetModel implements LLMClient.
func (m *MockLLMClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// GetEndpoint implements LLMClient.
func (m *MockLLMClient) GetEndpoint() string {
	if m.Endpoint == "" {
		return "http://mock-endpoint"
	}
	return m.Endpoint
}

// Reset clears call tracking counters.
func (m *MockLLMClient) Reset() {
	m.AskCalls = 0
	m.LastPrompt = ""
}

// Ensure MockLLMClient implements LLMClient at compile time.
var _ LLMClient = (*MockLLMClient)(nil)
