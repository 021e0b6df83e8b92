package resilience

import (
	"context"

	llm "github.com/studyvoice/advisor/pkg/provider/llm"
)

// LLMFallback implements [llm.Provider] with automatic failover across
// several LLM backends. Each backend sits behind its own circuit breaker;
// when the primary fails or its breaker is open, the next healthy fallback
// is tried. The fallback extractor uses this so a rate-limited primary does
// not cost the analysis pass its remote stage.
type LLMFallback struct {
	group *FallbackGroup[llm.Provider]
}

// Compile-time interface assertion.
var _ llm.Provider = (*LLMFallback)(nil)

// NewLLMFallback creates an [LLMFallback] with primary as the preferred
// backend.
func NewLLMFallback(primary llm.Provider, primaryName string, cfg FallbackConfig) *LLMFallback {
	return &LLMFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional backend, tried after all earlier ones.
func (f *LLMFallback) AddFallback(name string, provider llm.Provider) {
	f.group.AddFallback(name, provider)
}

// Complete sends the request to the first healthy backend and returns its
// response.
func (f *LLMFallback) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return ExecuteWithResult(f.group, func(p llm.Provider) (*llm.CompletionResponse, error) {
		return p.Complete(ctx, req)
	})
}
