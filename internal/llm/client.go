// Package llm provides a provider-agnostic interface for submitting free
// text to LLMs for financial analysis. Three providers are supported:
// OpenAI, Mistral (via its OpenAI-compatible API) and Gemini behind an
// intermediary flow endpoint. The three are called independently per
// request — one provider failing never blocks the others.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by a client whose credential (or flow URL)
// was absent at startup. Such a client never attempts a network call —
// the failure is deterministic and immediate.
var ErrNotConfigured = errors.New("client not configured")

// Client is the interface every analysis provider implements.
//
// Go interface design tip: keep interfaces small. One method of substance —
// that's ideal. Go proverb: "The bigger the interface, the weaker the
// abstraction."
type Client interface {
	Analyze(ctx context.Context, text string) (string, error)
	ProviderName() string
	ModelName() string
}

// systemPrompt frames every analysis request. All providers receive the
// same chat-style pairing: this system role plus the user's text.
const systemPrompt = `You are a financial analyst. Analyze the following text about markets, ` +
	`companies or economic events. Summarize the key facts, note likely market impact ` +
	`and flag any risks. Be concise and neutral.`
