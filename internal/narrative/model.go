// Package narrative turns a diagnosis report into explanatory text using
// an external language model. It sits outside the diagnosis engine: the
// report is finished before any model is contacted, and nothing here feeds
// back into the numbers.
package narrative

import (
	"context"
	"fmt"
	"strings"
)

// Provider identifies a language model vendor.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Default model per provider, used when none is configured.
var defaultModels = map[Provider]string{
	ProviderGoogle:    "gemini-2.5-flash",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
}

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := defaultModels[p]; !ok {
		return "", fmt.Errorf("unknown provider %q (want google, openai or anthropic)", s)
	}
	return p, nil
}

// DefaultModel returns the model used for p when none is configured.
func DefaultModel(p Provider) string {
	return defaultModels[p]
}

// Message is one turn of a conversation. Role is "system", "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response is a model completion.
type Response struct {
	Content      string   `json:"content"`
	Provider     Provider `json:"provider"`
	InputTokens  int      `json:"input_tokens"`
	OutputTokens int      `json:"output_tokens"`
	Model        string   `json:"model"`
}

// Model completes a conversation.
type Model interface {
	Complete(ctx context.Context, messages []Message) (*Response, error)
	Provider() Provider
	Model() string
}

// NewModel creates a client for provider. An empty model selects the
// provider's default.
func NewModel(provider Provider, apiKey, model string) (Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: API key required", provider)
	}
	if model == "" {
		model = DefaultModel(provider)
	}

	switch provider {
	case ProviderGoogle:
		return NewGoogleClient(apiKey, model), nil
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, model), nil
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}
