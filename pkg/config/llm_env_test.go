package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadLLMProviderRegistryFromEnv_Empty(t *testing.T) {
	t.Setenv("LLM_PROVIDER_ORDER", "")

	reg, err := LoadLLMProviderRegistryFromEnv()

	assert.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestLoadLLMProviderRegistryFromEnv_OrderedChain(t *testing.T) {
	t.Setenv("LLM_PROVIDER_ORDER", "primary, backup")
	t.Setenv("LLM_PRIMARY_TYPE", "google")
	t.Setenv("LLM_PRIMARY_MODEL", "gemini-2.0-flash")
	t.Setenv("LLM_PRIMARY_API_KEY_ENV", "GOOGLE_API_KEY")
	t.Setenv("LLM_BACKUP_TYPE", "local_grpc")
	t.Setenv("LLM_BACKUP_MODEL", "qwen2.5-7b")
	t.Setenv("LLM_BACKUP_TIMEOUT", "30s")

	reg, err := LoadLLMProviderRegistryFromEnv()

	assert.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	ordered := reg.Ordered()
	assert.Equal(t, "primary", ordered[0].Name)
	assert.Equal(t, LLMProviderTypeGoogle, ordered[0].Type)
	assert.Equal(t, "GOOGLE_API_KEY", ordered[0].APIKeyEnv)
	assert.Equal(t, 60*time.Second, ordered[0].Timeout, "default timeout applies when LLM_<NAME>_TIMEOUT unset")

	assert.Equal(t, "backup", ordered[1].Name)
	assert.Equal(t, 30*time.Second, ordered[1].Timeout)
}

func TestLoadLLMProviderRegistryFromEnv_MissingType(t *testing.T) {
	t.Setenv("LLM_PROVIDER_ORDER", "primary")
	t.Setenv("LLM_PRIMARY_MODEL", "gemini-2.0-flash")

	_, err := LoadLLMProviderRegistryFromEnv()

	var valErr *ValidationError
	assert.True(t, errors.As(err, &valErr))
	assert.Equal(t, "type", valErr.Field)
}

func TestLoadLLMProviderRegistryFromEnv_InvalidTimeout(t *testing.T) {
	t.Setenv("LLM_PROVIDER_ORDER", "primary")
	t.Setenv("LLM_PRIMARY_TYPE", "openai")
	t.Setenv("LLM_PRIMARY_MODEL", "gpt-4o")
	t.Setenv("LLM_PRIMARY_TIMEOUT", "not-a-duration")

	_, err := LoadLLMProviderRegistryFromEnv()

	var valErr *ValidationError
	assert.True(t, errors.As(err, &valErr))
	assert.Equal(t, "timeout", valErr.Field)
}

func TestLoadLLMProviderRegistryFromEnv_DuplicateName(t *testing.T) {
	t.Setenv("LLM_PROVIDER_ORDER", "primary,primary")
	t.Setenv("LLM_PRIMARY_TYPE", "openai")
	t.Setenv("LLM_PRIMARY_MODEL", "gpt-4o")

	_, err := LoadLLMProviderRegistryFromEnv()

	assert.True(t, errors.Is(err, ErrValidationFailed))
}
