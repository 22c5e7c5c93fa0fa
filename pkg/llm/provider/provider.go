// Package provider defines how chat completion wire formats are encoded and
// parsed into the llm package's provider-agnostic shapes.
package provider

import (
	"github.com/papercomputeco/relay/pkg/llm"
)

// Provider knows one chat completion wire format.
type Provider interface {
	// Name returns the canonical provider name (e.g., "openai").
	Name() string

	// EncodeRequest converts an internal request into the provider's
	// request body.
	EncodeRequest(req *llm.ChatRequest) ([]byte, error)

	// ParseResponse converts a provider-specific, non-streaming response into
	// the internal format.
	ParseResponse(payload []byte) (*llm.ChatResponse, error)

	// ParseStreamChunk converts a single streaming chunk into the internal
	// format. Returns (nil, nil) if the chunk should be skipped (e.g. the
	// "[DONE]" sentinel or an empty keep-alive).
	ParseStreamChunk(payload []byte) (*llm.StreamChunk, error)
}
