package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements the Client interface against OpenAI's chat
// completion API. A single system + user turn, no tools, no streaming.
type OpenAIClient struct {
	client *openai.Client // nil when no API key was configured
	model  string
}

// NewOpenAIClient creates an OpenAI-backed analyzer. An empty apiKey yields
// a disabled client whose Analyze always fails with ErrNotConfigured —
// missing credentials degrade the provider, they never fail startup.
func NewOpenAIClient(apiKey string, model string) *OpenAIClient {
	c := &OpenAIClient{model: model}
	if apiKey != "" {
		c.client = openai.NewClient(apiKey)
	}
	return c
}

func (o *OpenAIClient) ProviderName() string { return "openai" }
func (o *OpenAIClient) ModelName() string    { return o.model }

func (o *OpenAIClient) Analyze(ctx context.Context, text string) (string, error) {
	if o.client == nil {
		return "", fmt.Errorf("openai: %w", ErrNotConfigured)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
