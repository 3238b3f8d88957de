package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// LoadLLMProviderRegistryFromEnv builds the provider fallback chain from
// environment variables, mirroring database's env-driven configuration
// style rather than a YAML file. LLM_PROVIDER_ORDER is a comma-separated
// list of provider names (e.g. "primary,backup"); each name NAME has its
// own LLM_<NAME>_TYPE/_MODEL/_API_KEY_ENV/_BASE_URL/_TIMEOUT variables.
func LoadLLMProviderRegistryFromEnv() (*LLMProviderRegistry, error) {
	orderRaw := os.Getenv("LLM_PROVIDER_ORDER")
	if orderRaw == "" {
		return NewLLMProviderRegistry(nil), nil
	}

	seen := make(map[string]bool)
	var providers []*LLMProviderConfig
	for _, name := range strings.Split(orderRaw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, NewValidationError("llm_provider", name, "", fmt.Errorf("%w: duplicate name in LLM_PROVIDER_ORDER", ErrValidationFailed))
		}
		seen[name] = true
		prefix := "LLM_" + strings.ToUpper(name) + "_"

		typ := os.Getenv(prefix + "TYPE")
		if typ == "" {
			return nil, NewValidationError("llm_provider", name, "type", ErrMissingRequiredField)
		}
		model := os.Getenv(prefix + "MODEL")
		if model == "" {
			return nil, NewValidationError("llm_provider", name, "model", ErrMissingRequiredField)
		}

		timeout := 60 * time.Second
		if raw := os.Getenv(prefix + "TIMEOUT"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return nil, NewValidationError("llm_provider", name, "timeout", fmt.Errorf("%w: %v", ErrInvalidValue, err))
			}
			timeout = d
		}

		providers = append(providers, &LLMProviderConfig{
			Name:      name,
			Type:      LLMProviderType(typ),
			Model:     model,
			APIKeyEnv: os.Getenv(prefix + "API_KEY_ENV"),
			BaseURL:   os.Getenv(prefix + "BASE_URL"),
			Timeout:   timeout,
		})
	}
	return NewLLMProviderRegistry(providers), nil
}
