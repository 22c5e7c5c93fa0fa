// Package openai implements the Chat Completions wire format spoken by OpenAI
// and by OpenAI-compatible deployments such as watsonx.ai.
package openai

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/papercomputeco/relay/pkg/llm"
)

// Name is the canonical name of this provider.
const Name = "openai"

// provider implements the Provider interface for the Chat Completions API.
type provider struct{}

func New() *provider { return &provider{} }

func (o *provider) Name() string {
	return Name
}

func (o *provider) EncodeRequest(req *llm.ChatRequest) ([]byte, error) {
	messages := make([]openaiMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		content, err := json.Marshal(msg.GetText())
		if err != nil {
			return nil, err
		}
		messages = append(messages, openaiMessage{Role: msg.Role, Content: content})
	}

	return json.Marshal(openaiRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      req.Stream,
	})
}

func (o *provider) ParseResponse(payload []byte) (*llm.ChatResponse, error) {
	var resp openaiResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}

	result := &llm.ChatResponse{
		Model:       resp.Model,
		RawResponse: payload,
	}
	if resp.Created > 0 {
		result.CreatedAt = time.Unix(resp.Created, 0)
	}
	if resp.Usage != nil {
		result.Usage = &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	if len(resp.Choices) == 0 {
		return result, nil
	}

	choice := resp.Choices[0]
	msg := choice.Message

	content := []llm.ContentBlock{}
	if text := contentText(msg.Content); text != "" {
		content = append(content, llm.ContentBlock{Type: llm.BlockText, Text: text})
	}
	for _, tc := range msg.ToolCalls {
		content = append(content, toolUseBlock(tc))
	}

	result.Message = llm.Message{Role: msg.Role, Content: content}
	result.StopReason = choice.FinishReason

	return result, nil
}

func (o *provider) ParseStreamChunk(payload []byte) (*llm.StreamChunk, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || string(trimmed) == "[DONE]" {
		return nil, nil
	}

	var chunk openaiStreamChunk
	if err := json.Unmarshal(trimmed, &chunk); err != nil {
		return nil, err
	}

	result := &llm.StreamChunk{
		Model:   chunk.Model,
		Message: llm.Message{Role: "assistant"},
	}
	if chunk.Created > 0 {
		result.CreatedAt = time.Unix(chunk.Created, 0)
	}

	if len(chunk.Choices) == 0 {
		return result, nil
	}

	choice := chunk.Choices[0]
	delta := choice.Delta
	if delta.Role != "" {
		result.Message.Role = delta.Role
	}

	text := contentText(delta.Content)
	switch {
	case delta.Name != "" && text != "":
		result.Message.Content = append(result.Message.Content, llm.ContentBlock{
			Type:       llm.BlockToolResult,
			ToolName:   delta.Name,
			ToolOutput: text,
		})
	case text != "":
		result.Message.Content = append(result.Message.Content, llm.ContentBlock{
			Type: llm.BlockText,
			Text: text,
		})
	}

	for _, tc := range delta.ToolCalls {
		result.Message.Content = append(result.Message.Content, toolUseBlock(tc))
	}

	for _, tr := range delta.ToolResults {
		id := tr.ToolCallID
		if id == "" {
			id = tr.ID
		}
		result.Message.Content = append(result.Message.Content, llm.ContentBlock{
			Type:         llm.BlockToolResult,
			ToolResultID: id,
			ToolName:     tr.Name,
			ToolOutput:   contentText(tr.Content),
		})
	}

	if choice.FinishReason != nil {
		result.Done = true
		result.StopReason = *choice.FinishReason
	}

	return result, nil
}

func toolUseBlock(tc openaiToolCall) llm.ContentBlock {
	args := rawArguments(tc.Function.Arguments)
	block := llm.ContentBlock{
		Type:          llm.BlockToolUse,
		ToolUseID:     tc.ID,
		ToolName:      tc.Function.Name,
		ToolInputRaw:  args,
		ToolCallIndex: tc.Index,
	}

	// Streamed fragments are partial JSON and stay raw.
	var input map[string]any
	if args != "" && json.Unmarshal([]byte(args), &input) == nil {
		block.ToolInput = input
	}

	return block
}

// contentText flattens a message content field: a plain string, the text of
// "text" content parts, or the compact JSON of anything else.
func contentText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		var b strings.Builder
		found := false
		for _, part := range parts {
			if part.Type == "text" {
				b.WriteString(part.Text)
				found = true
			}
		}
		if found {
			return b.String()
		}
	}

	return compact(raw)
}

// rawArguments returns tool call arguments as text. The API sends a
// JSON-encoded string; a bare object is kept as its compact JSON.
func rawArguments(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}

	return compact(raw)
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
