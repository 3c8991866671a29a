// Package models wraps the supported LLM providers behind a single Provider
// interface. Each adapter flattens the rendered conversation prompt into the
// provider's native request shape and reports token usage for cost tracking.
package models

import "context"

// TokenUsage counts the tokens consumed by a single completion. Providers
// that do not report usage leave the fields zero.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
}

// Total returns the combined token count.
func (u TokenUsage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// Completion is the result of one LLM round-trip.
type Completion struct {
	Text  string
	Usage TokenUsage
}

// Provider is a language model backend.
type Provider interface {
	// Name identifies the backend, e.g. "anthropic" or "ollama".
	Name() string
	// Model returns the configured model identifier.
	Model() string
	// Generate performs a single round-trip for the rendered prompt.
	Generate(ctx context.Context, prompt string) (Completion, error)
}
