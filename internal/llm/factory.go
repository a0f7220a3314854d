package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Providers selectable through the LLM_PROVIDER setting.
const (
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
)

// ErrProviderUnavailable is returned for a provider this process was not
// started with.
var ErrProviderUnavailable = errors.New("llm: provider not available")

// Factory hands out model clients. Gemini keys live in the editable settings
// bag, so Gemini clients are built lazily and cached per key. Bedrock uses the
// process AWS credentials and is fixed at startup.
type Factory struct {
	modelID string
	bedrock Client

	mu      sync.Mutex
	clients map[string]*GeminiClient
}

// FactoryOption customizes a Factory.
type FactoryOption func(*Factory)

// WithBedrock makes the Bedrock provider available.
func WithBedrock(c *BedrockClient) FactoryOption {
	return func(f *Factory) {
		if c != nil {
			f.bedrock = c
		}
	}
}

func NewFactory(modelID string, opts ...FactoryOption) *Factory {
	f := &Factory{modelID: modelID, clients: map[string]*GeminiClient{}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// BedrockEnabled reports whether the Bedrock provider was configured.
func (f *Factory) BedrockEnabled() bool { return f != nil && f.bedrock != nil }

// Client returns the client for provider. Gemini returns nil when apiKey is
// empty; an empty provider means Gemini.
func (f *Factory) Client(ctx context.Context, provider, apiKey string) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderGemini:
		return f.gemini(ctx, apiKey)
	case ProviderBedrock:
		if f.bedrock == nil {
			return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, ProviderBedrock)
		}
		return f.bedrock, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrProviderUnavailable, provider)
	}
}

func (f *Factory) gemini(ctx context.Context, apiKey string) (Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clients[apiKey]; ok {
		return c, nil
	}
	c, err := NewGeminiClient(ctx, apiKey, f.modelID)
	if err != nil {
		return nil, err
	}
	f.clients[apiKey] = c
	return c, nil
}

// Close releases every cached Gemini client.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var errs []error
	for key, c := range f.clients {
		errs = append(errs, c.Close())
		delete(f.clients, key)
	}
	return errors.Join(errs...)
}
