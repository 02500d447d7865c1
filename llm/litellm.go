package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/voocel/litellm"

	"github.com/wardenhq/warden/schema"
)

// LiteLLMProvider implements Provider on top of the litellm client,
// speaking the OpenAI-compatible chat protocol. Pointing BaseURL at a
// local Ollama runtime's /v1 endpoint is the expected deployment.
type LiteLLMProvider struct {
	client *litellm.Client
	config ProviderConfig
}

// NewLiteLLMProvider creates a provider for an OpenAI-compatible endpoint.
func NewLiteLLMProvider(config ProviderConfig) *LiteLLMProvider {
	if config.Model == "" {
		config.Model = "qwen3:8b"
	}
	if config.Temperature == 0 {
		config.Temperature = 0.1
	}
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}
	if config.APIKey == "" {
		// Local runtimes ignore the key but the client requires one.
		config.APIKey = "local"
	}

	var client *litellm.Client
	if config.BaseURL != "" {
		client = litellm.New(
			litellm.WithOpenAI(config.APIKey, config.BaseURL),
			litellm.WithDefaults(config.MaxTokens, config.Temperature),
		)
	} else {
		client = litellm.New(
			litellm.WithOpenAI(config.APIKey),
			litellm.WithDefaults(config.MaxTokens, config.Temperature),
		)
	}

	return &LiteLLMProvider{client: client, config: config}
}

// Chat implements the chat completion call.
func (p *LiteLLMProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Model == "" {
		req.Model = p.config.Model
	}
	if req.Temperature == 0 {
		req.Temperature = p.config.Temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = p.config.MaxTokens
	}

	callCtx := ctx
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	litellmReq := &litellm.Request{
		Model:    req.Model,
		Messages: convertMessages(req.Messages),
	}
	if req.Temperature != 0 {
		litellmReq.Temperature = litellm.Float64Ptr(req.Temperature)
	}
	if req.MaxTokens != 0 {
		litellmReq.MaxTokens = litellm.IntPtr(req.MaxTokens)
	}

	resp, err := p.client.Chat(callCtx, litellmReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrModelUnreachable, err)
	}

	return &ChatResponse{
		ID:      fmt.Sprintf("chatcmpl-%d", time.Now().UnixNano()),
		Model:   req.Model,
		Created: time.Now().Unix(),
		Choices: []Choice{
			{
				Index:        0,
				Message:      Message{Role: "assistant", Content: resp.Content},
				FinishReason: "stop",
			},
		},
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.PromptTokens + resp.Usage.CompletionTokens,
		},
	}, nil
}

// Model returns the configured model name.
func (p *LiteLLMProvider) Model() string {
	return p.config.Model
}

// Close closes the provider connection.
func (p *LiteLLMProvider) Close() error {
	return nil
}
