package openai

import "encoding/json"

// openaiRequest represents the request format of OpenAI-compatible chat
// endpoints (watsonx deployments included).
type openaiRequest struct {
	Model       string          `json:"model,omitempty"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	Stream      *bool           `json:"stream,omitempty"`
}

// openaiMessage represents a message in OpenAI's format.
type openaiMessage struct {
	Role       string           `json:"role"`
	Content    json.RawMessage  `json:"content"` // string, content parts or null
	Name       string           `json:"name,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolCalls  []openaiToolCall `json:"tool_calls,omitempty"`
}

// openaiToolCall is a complete tool call in a response message, or a
// fragment of one in a streaming delta.
type openaiToolCall struct {
	Index    *int   `json:"index,omitempty"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Function struct {
		Name string `json:"name,omitempty"`

		// Arguments is a JSON-encoded string per the API, but some
		// deployments send the object itself.
		Arguments json.RawMessage `json:"arguments,omitempty"`
	} `json:"function"`
}

// openaiToolResult is a tool output echoed on a streaming delta by agent
// deployments.
type openaiToolResult struct {
	ID         string          `json:"id,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Name       string          `json:"name,omitempty"`
	Content    json.RawMessage `json:"content"`
}

// openaiResponse represents OpenAI's response format.
type openaiResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      openaiMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage *openaiUsage `json:"usage,omitempty"`
}

// openaiStreamChunk represents one "chat.completion.chunk" event.
type openaiStreamChunk struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Delta        openaiDelta `json:"delta"`
		FinishReason *string     `json:"finish_reason"`
	} `json:"choices"`
}

// openaiDelta is the incremental message carried by a stream chunk. A delta
// with both Name and Content is a tool reporting its output.
type openaiDelta struct {
	Role        string             `json:"role,omitempty"`
	Content     json.RawMessage    `json:"content,omitempty"`
	Name        string             `json:"name,omitempty"`
	ToolCalls   []openaiToolCall   `json:"tool_calls,omitempty"`
	ToolResults []openaiToolResult `json:"tool_results,omitempty"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
