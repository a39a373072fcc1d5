// Package llm provides the reply-drafting clients used by the bot responder.
package llm

import (
	"context"
)

// ChatMessage is one turn of conversation context handed to the provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DraftRequest asks a provider to draft one reply given conversation history.
type DraftRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// DraftResponse is the drafted reply plus provider accounting.
type DraftResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for reply-drafting providers.
type Client interface {
	// Draft produces one reply for the given request.
	Draft(ctx context.Context, req *DraftRequest) (*DraftResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider selects a reply-drafting backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClient creates a client for the given provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	default:
		return NewAnthropicClient(apiKey)
	}
}
