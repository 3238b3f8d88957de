package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/alif-engine/core/pkg/config"
)

// Adapter tries an ordered list of providers, returning the first success.
// Each failure is logged with its duration before falling through.
type Adapter struct {
	providers map[string]Provider
	order     []string
}

// NewAdapter builds an Adapter from a configured provider registry,
// constructing one Provider implementation per entry keyed by its
// LLMProviderType.
func NewAdapter(registry *config.LLMProviderRegistry) *Adapter {
	a := &Adapter{providers: make(map[string]Provider)}
	for _, cfg := range registry.Ordered() {
		if cfg == nil {
			continue
		}
		var p Provider
		switch cfg.Type {
		case config.LLMProviderTypeLocalGRPC:
			p = newGRPCProvider(cfg)
		default:
			p = newHTTPProvider(cfg)
		}
		a.providers[cfg.Name] = p
		a.order = append(a.order, cfg.Name)
	}
	return a
}

// NewAdapterWithProviders builds an Adapter directly from a set of providers
// and their fallback order, bypassing registry/config construction. Exported
// so other packages can exercise fallback behavior against fakes in their
// own tests.
func NewAdapterWithProviders(providers map[string]Provider, order []string) *Adapter {
	return &Adapter{providers: providers, order: order}
}

// GenerateStructured asks each provider in order to fill schema, returning
// the first success. If opts.ModelOverride names a configured provider,
// fallback is bypassed and only that provider is tried.
func (a *Adapter) GenerateStructured(ctx context.Context, prompt, systemPrompt string, schema map[string]any, opts Options) (map[string]any, error) {
	names := a.order
	if opts.ModelOverride != "" {
		if _, ok := a.providers[opts.ModelOverride]; ok {
			names = []string{opts.ModelOverride}
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	for _, name := range names {
		p := a.providers[name]
		start := time.Now()
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		result, err := p.GenerateStructured(callCtx, prompt, systemPrompt, schema, opts)
		cancel()
		duration := time.Since(start)

		if err != nil {
			slog.Warn("llm provider failed",
				"provider", name, "task_type", opts.TaskType,
				"duration_ms", duration.Milliseconds(), "error", err)
			continue
		}

		slog.Info("llm provider succeeded",
			"provider", name, "task_type", opts.TaskType, "duration_ms", duration.Milliseconds())
		return result, nil
	}

	return nil, AllProvidersFailed
}
