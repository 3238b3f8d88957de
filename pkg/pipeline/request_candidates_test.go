package pipeline

import (
	"context"
	"testing"

	"github.com/alif-engine/core/pkg/llm"
	"github.com/alif-engine/core/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLMProvider struct {
	name   string
	result map[string]any
	err    error
}

func (f *fakeLLMProvider) Name() string { return f.name }

func (f *fakeLLMProvider) GenerateStructured(ctx context.Context, prompt, systemPrompt string, schema map[string]any, opts llm.Options) (map[string]any, error) {
	return f.result, f.err
}

func TestRequestCandidates_ParsesProviderResponse(t *testing.T) {
	adapter := llm.NewAdapterWithProviders(map[string]llm.Provider{
		"fake": &fakeLLMProvider{name: "fake", result: map[string]any{
			"sentences": []any{
				map[string]any{"arabic": "هذا كتاب", "english": "This is a book", "transliteration": "hadha kitab"},
				map[string]any{"arabic": "", "english": "dropped: missing arabic"},
				map[string]any{"arabic": "ذهب الولد", "english": ""},
			},
		}},
	}, []string{"fake"})

	p := NewPipeline(nil, adapter, nil, nil)
	group := []models.Lemma{{LemmaID: "l1", Bare: "كتاب", Gloss: "book", POS: "noun"}}
	known := map[string]struct{}{"كتاب": {}}

	out, err := p.requestCandidates(context.Background(), group, known, nil)

	require.NoError(t, err)
	require.Len(t, out, 1, "candidates missing arabic or english must be dropped")
	assert.Equal(t, "هذا كتاب", out[0].Arabic)
	assert.Equal(t, "This is a book", out[0].English)
	assert.Equal(t, "hadha kitab", out[0].Transliteration)
}

func TestRequestCandidates_AllProvidersFailedSurfacesError(t *testing.T) {
	adapter := llm.NewAdapterWithProviders(map[string]llm.Provider{
		"fake": &fakeLLMProvider{name: "fake", err: assert.AnError},
	}, []string{"fake"})

	p := NewPipeline(nil, adapter, nil, nil)
	group := []models.Lemma{{LemmaID: "l1", Bare: "كتاب", Gloss: "book", POS: "noun"}}

	_, err := p.requestCandidates(context.Background(), group, nil, nil)

	assert.Error(t, err)
}
