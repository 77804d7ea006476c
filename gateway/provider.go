package gateway

import "context"

// Usage reports actual token consumption for one provider call.
type Usage struct {
	PromptTokens   int
	ResponseTokens int
}

// Provider is one remote translation service. Implementations return the raw
// completion text; the gateway owns prompt construction and response parsing.
type Provider interface {
	Name() string
	// Probe issues a cheap call verifying the credentials work at all.
	Probe(ctx context.Context) error
	// Complete sends a prompt and returns the raw response text.
	Complete(ctx context.Context, prompt string) (string, Usage, error)
}
