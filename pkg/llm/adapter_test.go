package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name   string
	result map[string]any
	err    error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) GenerateStructured(ctx context.Context, prompt, systemPrompt string, schema map[string]any, opts Options) (map[string]any, error) {
	return f.result, f.err
}

func TestAdapter_FallsThroughOnFailure(t *testing.T) {
	a := &Adapter{providers: map[string]Provider{
		"first":  &fakeProvider{name: "first", err: errors.New("boom")},
		"second": &fakeProvider{name: "second", result: map[string]any{"ok": true}},
	}, order: []string{"first", "second"}}

	result, err := a.GenerateStructured(context.Background(), "p", "s", nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, result)
}

func TestAdapter_AllProvidersFailed(t *testing.T) {
	a := &Adapter{providers: map[string]Provider{
		"only": &fakeProvider{name: "only", err: errors.New("boom")},
	}, order: []string{"only"}}

	_, err := a.GenerateStructured(context.Background(), "p", "s", nil, Options{})
	assert.ErrorIs(t, err, AllProvidersFailed)
}

func TestAdapter_ModelOverrideBypassesFallback(t *testing.T) {
	a := &Adapter{providers: map[string]Provider{
		"first":  &fakeProvider{name: "first", result: map[string]any{"from": "first"}},
		"second": &fakeProvider{name: "second", result: map[string]any{"from": "second"}},
	}, order: []string{"first", "second"}}

	result, err := a.GenerateStructured(context.Background(), "p", "s", nil, Options{ModelOverride: "second"})
	require.NoError(t, err)
	assert.Equal(t, "second", result["from"])
}

func TestUnwrapJSONFence(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                       `{"a":1}`,
		"```json\n{\"a\":1}\n```":         `{"a":1}`,
		"```\n{\"a\":1}\n```":             `{"a":1}`,
		"  {\"a\":1}  ":                   `{"a":1}`,
	}
	for input, want := range cases {
		assert.Equal(t, want, unwrapJSONFence(input))
	}
}
