package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/alif-engine/core/pkg/config"
)

// httpProvider is a generic REST/JSON backend for vendor chat-completion
// APIs (google, openai, anthropic). No SDK for any of these three vendors
// appears in the example pack, so this speaks their JSON wire format
// directly over net/http rather than wrapping an unverified client library.
type httpProvider struct {
	cfg    *config.LLMProviderConfig
	apiKey string
	client *http.Client
}

func newHTTPProvider(cfg *config.LLMProviderConfig) Provider {
	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	return &httpProvider{
		cfg:    cfg,
		apiKey: key,
		client: &http.Client{},
	}
}

func (p *httpProvider) Name() string { return p.cfg.Name }

// chatRequest/chatResponse model the minimal common shape shared by the
// Google/OpenAI/Anthropic chat-completion endpoints closely enough for
// schema-constrained JSON generation: a system + user message in, one
// text completion out. Vendor-specific fields beyond this are not needed
// since the prompt itself carries the schema instructions.
type chatRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *httpProvider) GenerateStructured(ctx context.Context, prompt, systemPrompt string, schema map[string]any, opts Options) (map[string]any, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("%s: marshaling schema: %w", p.cfg.Name, err)
	}

	fullPrompt := prompt + "\n\nRespond with JSON matching this schema, and nothing else:\n" + string(schemaJSON)

	temperature := opts.Temperature
	reqBody := chatRequest{
		Model:       p.cfg.Model,
		System:      systemPrompt,
		Temperature: temperature,
		Messages: []chatMessage{
			{Role: "user", Content: fullPrompt},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: marshaling request: %w", p.cfg.Name, err)
	}

	url := p.endpoint()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", p.cfg.Name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", p.cfg.Name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", p.cfg.Name, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: status %d: %s", p.cfg.Name, resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%s: decoding response envelope: %w", p.cfg.Name, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%s: empty response", p.cfg.Name)
	}

	text := unwrapJSONFence(parsed.Choices[0].Message.Content)
	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("%s: response is not valid JSON: %w", p.cfg.Name, err)
	}
	return result, nil
}

func (p *httpProvider) endpoint() string {
	if p.cfg.BaseURL != "" {
		return p.cfg.BaseURL
	}
	switch p.cfg.Type {
	case config.LLMProviderTypeOpenAI:
		return "https://api.openai.com/v1/chat/completions"
	case config.LLMProviderTypeAnthropic:
		return "https://api.anthropic.com/v1/messages"
	case config.LLMProviderTypeGoogle:
		return "https://generativelanguage.googleapis.com/v1beta/chat/completions"
	default:
		return ""
	}
}
