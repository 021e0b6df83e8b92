// Package llm defines the Provider interface for Large Language Model backends.
//
// The advising pipeline uses an LLM in exactly one shape: a single blocking
// completion over a short message list that must come back as strict JSON.
// A provider wraps a remote model API (OpenAI, or anything any-llm-go can
// reach) behind that one call so the extraction fallback never couples to a
// specific SDK.
//
// Implementors must be safe for concurrent use and must return promptly when
// the supplied context is cancelled.
package llm

import "context"

// Message is a single message in the conversation sent to the model.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting returned by the backend. Counts are in the
// model's native token unit and differ between providers for the same text.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// CompletionRequest carries everything the model needs to produce a
// response. A zero-value request is invalid; Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation. The last message drives the
	// response.
	Messages []Message

	// Temperature controls output randomness in [0.0, 2.0]. The extraction
	// fallback runs near-deterministic, at 0.1.
	Temperature float64

	// MaxTokens caps the completion length. Zero means the provider default.
	MaxTokens int

	// SystemPrompt is an optional instruction injected before the
	// conversation. Providers without a dedicated system channel prepend it
	// as a "system"-role message.
	SystemPrompt string

	// JSONOnly asks the backend to constrain output to a single JSON value.
	// Providers without a native JSON response mode should reinforce the
	// constraint through the system prompt instead; callers must still
	// validate the payload either way.
	JSONOnly bool
}

// CompletionResponse is the full, non-streamed model reply.
type CompletionResponse struct {
	// Content is the text of the reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
//
// Implementations must be safe for concurrent use. Complete returns an error
// when the request fails or ctx is cancelled before the reply arrives.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
