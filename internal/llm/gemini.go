package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GeminiClient reaches Gemini through an intermediary HTTP flow endpoint
// rather than a vendor SDK — the flow URL comes from configuration and
// hosts the prompt chain. The endpoint takes our chat-style request and is
// expected to answer with a JSON body carrying an `output` field; when
// that field is absent we fall back to the whole body as the result.
type GeminiClient struct {
	flowURL    string // empty when not configured
	httpClient *http.Client
}

// NewGeminiClient creates a flow-backed analyzer. An empty flowURL yields
// a disabled client, same as the other providers.
func NewGeminiClient(flowURL string) *GeminiClient {
	return &GeminiClient{
		flowURL: flowURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (g *GeminiClient) ProviderName() string { return "gemini" }
func (g *GeminiClient) ModelName() string    { return "flow" }

// flowRequest mirrors the chat-completion message shape the other
// providers use, so the flow receives the same system + user pairing.
type flowRequest struct {
	Messages []flowMessage `json:"messages"`
}

type flowMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (g *GeminiClient) Analyze(ctx context.Context, text string) (string, error) {
	if g.flowURL == "" {
		return "", fmt.Errorf("gemini: %w", ErrNotConfigured)
	}

	payload, err := json.Marshal(flowRequest{
		Messages: []flowMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encoding flow request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.flowURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating flow request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini flow call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1MB limit
	if err != nil {
		return "", fmt.Errorf("reading flow response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini flow returned HTTP %d", resp.StatusCode)
	}

	// The flow should answer {"output": "..."}. Anything else — a different
	// JSON shape or plain text — is used verbatim as the analysis result.
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err == nil {
		if out, ok := decoded["output"].(string); ok {
			return out, nil
		}
	}

	return strings.TrimSpace(string(body)), nil
}
