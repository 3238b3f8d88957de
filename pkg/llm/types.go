// Package llm implements the LLM Adapter (C9): a provider-fallback client
// that asks an ordered list of backends to fill a JSON schema, returning
// the first success.
package llm

import (
	"context"
	"errors"
	"time"
)

// AllProvidersFailed is returned by Adapter.GenerateStructured when every
// configured provider failed or timed out.
var AllProvidersFailed = errors.New("llm: all providers failed")

// Options configures one generation call.
type Options struct {
	Temperature   float64
	Timeout       time.Duration
	TaskType      string // tag for metrics/logging, e.g. "sentence_generation"
	ModelOverride string // if set, bypasses fallback and targets one named provider
}

// Provider is a single LLM backend capable of schema-constrained
// generation. Implementations: grpcProvider (local_grpc) and httpProvider
// (google/openai/anthropic REST backends).
type Provider interface {
	Name() string
	GenerateStructured(ctx context.Context, prompt, systemPrompt string, schema map[string]any, opts Options) (map[string]any, error)
}
