package ai

import (
	"context"
	"time"
)

// Provider is the minimal interface implemented by model backends such as
// OpenRouter, the native OpenAI SDK, and local runtimes (Ollama).
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// StreamProvider is an optional extension that supports streaming output.
// Implementors invoke onDelta with each partial content chunk, in arrival
// order.
type StreamProvider interface {
	GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error
}

// Embedder produces embedding vectors, used by history recall.
type Embedder interface {
	Embed(ctx context.Context, model string, inputs []string) ([][]float32, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderOllama     = "ollama"
)

// ProviderFactory builds a Provider from the generic config below.
type ProviderFactory func(ProviderConfig) Provider

// ProviderConfig carries common knobs used by providers.
type ProviderConfig struct {
	// Common
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Hosted APIs
	APIKey  string
	BaseURL string
	// Ollama
	Host string
}

var registry = map[string]ProviderFactory{}

// RegisterProvider registers a provider name with its factory.
func RegisterProvider(name string, f ProviderFactory) { registry[name] = f }

// GetProvider creates a Provider for the given name if registered.
func GetProvider(name string, cfg ProviderConfig) (Provider, bool) {
	if f, ok := registry[name]; ok {
		return f(cfg), true
	}
	return nil, false
}

func init() {
	RegisterProvider(ProviderOpenRouter, func(c ProviderConfig) Provider {
		return NewClient(c.APIKey, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay)
	})
	RegisterProvider(ProviderOpenAI, func(c ProviderConfig) Provider {
		return NewOpenAIClient(c.APIKey, c.BaseURL)
	})
	RegisterProvider(ProviderOllama, func(c ProviderConfig) Provider {
		return NewOllamaClient(c.Host, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay)
	})
}
