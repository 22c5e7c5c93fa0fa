package llm

// ChatRequest represents a provider-agnostic chat completion request.
type ChatRequest struct {
	// Model name. Deployment endpoints pin the model and leave it empty.
	Model string `json:"model,omitempty"`

	// Conversation messages
	Messages []Message `json:"messages"`

	// Whether to stream the response
	Stream *bool `json:"stream,omitempty"`

	// Generation parameters
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// NewPromptRequest builds a single-turn request carrying one user prompt.
func NewPromptRequest(prompt string, stream bool) *ChatRequest {
	return &ChatRequest{
		Messages: []Message{NewTextMessage("user", prompt)},
		Stream:   &stream,
	}
}
