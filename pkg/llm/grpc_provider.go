package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alif-engine/core/pkg/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// grpcProvider talks to a locally hosted model over a plain gRPC method
// invocation, exchanging a google.protobuf.Struct request/response rather
// than a generated service stub. The generated proto package this was
// originally built against is not part of this workspace, and nothing in
// it can be regenerated here, so the call is made directly against the
// channel with a pre-compiled protobuf message type instead.
type grpcProvider struct {
	cfg  *config.LLMProviderConfig
	addr string
}

func newGRPCProvider(cfg *config.LLMProviderConfig) Provider {
	addr := cfg.BaseURL
	if addr == "" {
		addr = "localhost:50051"
	}
	return &grpcProvider{cfg: cfg, addr: addr}
}

func (p *grpcProvider) Name() string { return p.cfg.Name }

const generateMethod = "/llm.LocalModel/GenerateStructured"

func (p *grpcProvider) GenerateStructured(ctx context.Context, prompt, systemPrompt string, schema map[string]any, opts Options) (map[string]any, error) {
	conn, err := grpc.NewClient(p.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%s: dialing %s: %w", p.cfg.Name, p.addr, err)
	}
	defer conn.Close()

	schemaStruct, err := structpb.NewStruct(schema)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding schema: %w", p.cfg.Name, err)
	}

	req, err := structpb.NewStruct(map[string]any{
		"model":         p.cfg.Model,
		"prompt":        prompt,
		"system_prompt": systemPrompt,
		"schema":        schemaStruct.AsMap(),
		"temperature":   opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: encoding request: %w", p.cfg.Name, err)
	}

	resp := &structpb.Struct{}
	if err := conn.Invoke(ctx, generateMethod, req, resp); err != nil {
		return nil, fmt.Errorf("%s: invoking %s: %w", p.cfg.Name, generateMethod, err)
	}

	raw, ok := resp.AsMap()["completion"].(string)
	if !ok {
		return nil, fmt.Errorf("%s: response missing completion field", p.cfg.Name)
	}

	text := unwrapJSONFence(raw)
	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("%s: response is not valid JSON: %w", p.cfg.Name, err)
	}
	return result, nil
}
