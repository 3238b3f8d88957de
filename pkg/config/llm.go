package config

import (
	"fmt"
	"sync"
	"time"
)

// LLMProviderType identifies the transport used to reach an LLM provider.
type LLMProviderType string

const (
	// LLMProviderTypeGoogle is the Google Gemini API (HTTP/JSON).
	LLMProviderTypeGoogle LLMProviderType = "google"
	// LLMProviderTypeOpenAI is the OpenAI API (HTTP/JSON).
	LLMProviderTypeOpenAI LLMProviderType = "openai"
	// LLMProviderTypeAnthropic is the Anthropic Claude API (HTTP/JSON).
	LLMProviderTypeAnthropic LLMProviderType = "anthropic"
	// LLMProviderTypeLocalGRPC is a locally hosted model reachable over gRPC.
	LLMProviderTypeLocalGRPC LLMProviderType = "local_grpc"
)

// LLMProviderConfig defines one entry in the ordered fallback chain C9 walks.
type LLMProviderConfig struct {
	// Name is the key this provider is registered and referenced under
	// (e.g. by a generation request's model override).
	Name string

	// Type selects the transport/SDK used to reach this provider.
	Type LLMProviderType

	// Model is the model name/identifier passed to the provider.
	Model string

	// APIKeyEnv names the environment variable holding the API key.
	// Empty for providers that need no key (e.g. a local gRPC backend).
	APIKeyEnv string

	// BaseURL optionally overrides the provider's default endpoint.
	BaseURL string

	// Timeout bounds a single call to this provider before the adapter
	// falls through to the next one in the chain.
	Timeout time.Duration
}

// LLMProviderRegistry stores the ordered provider fallback chain in memory
// with thread-safe access.
type LLMProviderRegistry struct {
	order     []string
	providers map[string]*LLMProviderConfig
	mu        sync.RWMutex
}

// NewLLMProviderRegistry creates a registry from an ordered provider list.
// The order of providers is the fallback order C9 tries on each call.
func NewLLMProviderRegistry(providers []*LLMProviderConfig) *LLMProviderRegistry {
	order := make([]string, 0, len(providers))
	copied := make(map[string]*LLMProviderConfig, len(providers))
	for _, p := range providers {
		order = append(order, p.Name)
		copied[p.Name] = p
	}
	return &LLMProviderRegistry{order: order, providers: copied}
}

// Get retrieves a provider configuration by name (thread-safe).
func (r *LLMProviderRegistry) Get(name string) (*LLMProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, name)
	}
	return provider, nil
}

// Ordered returns the fallback chain in configured order (thread-safe,
// returns a copy so callers cannot mutate registry state).
func (r *LLMProviderRegistry) Ordered() []*LLMProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*LLMProviderConfig, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.providers[name])
	}
	return result
}

// Has checks if a provider exists in the registry (thread-safe).
func (r *LLMProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.providers[name]
	return exists
}

// Len returns the number of providers in the registry (thread-safe).
func (r *LLMProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
