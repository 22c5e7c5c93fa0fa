// Package decode turns raw provider output into the ordered raw steps the
// normalizer consumes.
package decode

import (
	"encoding/json"
	"strings"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/llm/provider"
	"github.com/papercomputeco/relay/pkg/llm/provider/openai"
	"github.com/papercomputeco/relay/pkg/sse"
	"github.com/papercomputeco/relay/pkg/steps"
)

var chat provider.Provider = openai.New()

// Decode extracts raw steps from a provider chunk. It never fails: malformed
// input degrades to a single text step, or to nothing when the input is
// blank.
func Decode(raw steps.RawChunk) []steps.RawStep {
	switch raw.Kind() {
	case steps.ChunkSSE:
		return decodeEvents(Events(raw.Text()))
	case steps.ChunkEscaped:
		return decodeString(raw.Text())
	case steps.ChunkObject:
		return decodeObject(raw.Object())
	default:
		return nil
	}
}

// Events frames an SSE blob into its records.
func Events(text string) []sse.Event {
	return sse.Parse(text)
}

func decodeString(text string) []steps.RawStep {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	v, _ := steps.Unescape(text)
	switch t := v.(type) {
	case map[string]any:
		return decodeObject(t)
	case string:
		if steps.LooksLikeSSE(t) {
			return decodeEvents(Events(t))
		}
		return []steps.RawStep{steps.TextStep(t)}
	default:
		return []steps.RawStep{steps.TextStep(steps.Compact(t))}
	}
}

func decodeObject(obj map[string]any) []steps.RawStep {
	if obj == nil {
		return nil
	}

	if choice, ok := firstChoice(obj); ok {
		if _, isDelta := choice["delta"].(map[string]any); isDelta {
			return decodeEvents([]sse.Event{{Data: steps.Compact(obj), Value: obj}})
		}

		if out, ok := decodeMessage(obj); ok {
			return out
		}
	}

	if text, ok := soleString(obj); ok {
		return []steps.RawStep{steps.TextStep(text)}
	}

	return []steps.RawStep{steps.TextStep(steps.Compact(obj))}
}

// decodeMessage short-circuits a complete chat response: its message text
// becomes one text step, followed by the tool calls it requested.
func decodeMessage(obj map[string]any) ([]steps.RawStep, bool) {
	payload, err := json.Marshal(obj)
	if err != nil {
		return nil, false
	}

	resp, err := chat.ParseResponse(payload)
	if err != nil {
		return nil, false
	}

	var out []steps.RawStep
	if text := resp.Message.GetText(); strings.TrimSpace(text) != "" {
		out = append(out, steps.TextStep(text))
	}
	for _, block := range resp.Message.Content {
		if block.Type == llm.BlockToolUse {
			out = append(out, steps.ToolCallStep(block.ToolName, parseArgs(block.ToolInputRaw)))
		}
	}

	return out, len(out) > 0
}

func firstChoice(obj map[string]any) (map[string]any, bool) {
	choices, ok := obj["choices"].([]any)
	if !ok || len(choices) == 0 {
		return nil, false
	}
	choice, ok := choices[0].(map[string]any)
	return choice, ok
}

// soleString returns the value of an object whose only field is a string,
// such as {"generated_text": "..."}.
func soleString(obj map[string]any) (string, bool) {
	if len(obj) != 1 {
		return "", false
	}
	for _, v := range obj {
		s, ok := v.(string)
		return s, ok
	}
	return "", false
}

// parseArgs decodes tool call arguments, keeping the raw text when it is not
// valid JSON. Empty arguments decode to nil.
func parseArgs(raw string) any {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if v, err := steps.ParseJSON(raw); err == nil {
		return v
	}
	return raw
}
