package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// MistralClient implements the Client interface against Mistral's chat
// completion API. Mistral's API is OpenAI-compatible, so we reuse the same
// client library with a custom base URL instead of pulling in a second SDK.
type MistralClient struct {
	client *openai.Client // nil when no API key was configured
	model  string
}

// NewMistralClient creates a Mistral-backed analyzer. baseURL is normally
// https://api.mistral.ai/v1; tests point it at an httptest server.
// An empty apiKey yields a disabled client, same as the other providers.
func NewMistralClient(apiKey, model, baseURL string) *MistralClient {
	c := &MistralClient{model: model}
	if apiKey != "" {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = baseURL
		c.client = openai.NewClientWithConfig(cfg)
	}
	return c
}

func (m *MistralClient) ProviderName() string { return "mistral" }
func (m *MistralClient) ModelName() string    { return m.model }

func (m *MistralClient) Analyze(ctx context.Context, text string) (string, error) {
	if m.client == nil {
		return "", fmt.Errorf("mistral: %w", ErrNotConfigured)
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("mistral API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("mistral returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
