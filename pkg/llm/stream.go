package llm

import "time"

// StreamChunk represents a single chunk in a streaming response after the
// provider-specific delta format has been parsed.
type StreamChunk struct {
	// Model that generated the chunk
	Model string `json:"model"`

	// Chunk timestamp
	CreatedAt time.Time `json:"created_at,omitzero"`

	// The partial message carried by this chunk
	Message Message `json:"message"`

	// Whether this is the final chunk
	Done bool `json:"done"`

	// Stop reason (only present on the final chunk)
	StopReason string `json:"stop_reason,omitempty"`
}
