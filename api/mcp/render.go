package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/relay/pkg/render"
)

var (
	renderToolName    = "render_response"
	renderDescription = "Render raw LLM provider output (SSE stream, escaped JSON or a JSON object) into the ordered chat lines relay would send: tool calls, result headers, JSON blocks and prose."
)

// RenderInput represents the input arguments for the render tool.
type RenderInput struct {
	Raw string `json:"raw" jsonschema:"the raw provider output to render"`
}

// RenderOutput represents the output of the render tool.
type RenderOutput struct {
	Lines []string `json:"lines"`
	Count int      `json:"count"`
}

// handleRender processes a render request.
func (s *Server) handleRender(_ context.Context, _ *mcp.CallToolRequest, input RenderInput) (*mcp.CallToolResult, RenderOutput, error) {
	output := renderOutput(input.Raw)
	s.config.Metrics.ObserveRender(output.Count)

	s.config.Logger.Debug("MCP render request",
		"bytes", len(input.Raw),
		"lines", output.Count,
	)

	// Structured output is mirrored as serialized JSON in a TextContent block
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		s.config.Logger.Error("failed to marshal render output", "error", err)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize lines: %v", err)},
			},
		}, RenderOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func renderOutput(raw string) RenderOutput {
	lines := render.Body([]byte(raw))
	if lines == nil {
		lines = []string{}
	}
	return RenderOutput{Lines: lines, Count: len(lines)}
}
