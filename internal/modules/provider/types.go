// Package provider normalizes the summary backends behind one
// incremental-text contract: a cumulative callback stream plus a final
// text and optional usage metrics.
package provider

import "context"

// Kind identifies one backend protocol variant.
type Kind string

const (
	KindWebhook Kind = "webhook"
	KindClaude  Kind = "claude"
	KindOpenAI  Kind = "openai"
	KindGeneric Kind = "generic"
)

// Usage carries the token counts reported by a streaming backend.
// Batch backends report no usage.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Request is the material interpolated into the provider's prompt
// template. Text holds either the abstract or the full paper body
// depending on which template the caller supplies.
type Request struct {
	Title    string
	URL      string
	Text     string
	Language string
	Template string
}

// Result is the terminal output of one provider call.
type Result struct {
	Text    string `json:"text"`
	Usage   *Usage `json:"usage,omitempty"`
	ModelID string `json:"modelId,omitempty"`
}

// UpdateFunc receives the cumulative text so far, never a bare delta.
// Successive invocations are prefix extensions of each other.
type UpdateFunc func(cumulative string)

// Provider is one configured summary backend. Summarize blocks until
// the backend completes, invoking onUpdate zero or more times along the
// way. A nil onUpdate selects batch behavior where the backend offers it.
type Provider interface {
	Kind() Kind
	Name() string
	Summarize(ctx context.Context, req Request, onUpdate UpdateFunc) (*Result, error)
}
