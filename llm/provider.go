// Package llm normalizes chat-completion providers behind a single
// interface. Adding a provider means adding an adapter, not touching the
// wake engine.
package llm

import "context"

// Message roles mirror the common chat-completion shape.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one turn of a chat-completion prompt.
type Message struct {
	Role    string
	Content string
}

// Request is a provider-neutral completion request.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
	JSONMode    bool // request a JSON-object response where supported
}

// Usage is the token accounting reported by a provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the normalized completion result.
type Response struct {
	Content string
	Usage   Usage
}

// Provider is one LLM backend adapter.
type Provider interface {
	Name() string
	DefaultModel() string
	// CostPerMillionTokens is a flat blended $/1M-token rate used to estimate
	// spend. It is an approximation, not provider-billed truth.
	CostPerMillionTokens() float64
	Complete(ctx context.Context, req Request, apiKey string) (*Response, error)
}

// EstimateCost converts usage into an approximate dollar cost for the
// provider.
func EstimateCost(p Provider, usage Usage) float64 {
	return float64(usage.TotalTokens) * p.CostPerMillionTokens() / 1_000_000
}
