// Package layout renders typed steps as chat display lines.
package layout

import (
	"github.com/papercomputeco/relay/pkg/steps"
)

const (
	toolIcon   = "🛠️"
	resultIcon = "✅"
)

// Class is the presentation class of a display line. Lines are emitted
// grouped by class in declaration order.
type Class int

const (
	ClassTool Class = iota
	ClassResultHeader
	ClassJSONBlock
	ClassText

	numClasses
)

func (c Class) String() string {
	switch c {
	case ClassTool:
		return "tool"
	case ClassResultHeader:
		return "result-header"
	case ClassJSONBlock:
		return "json-block"
	case ClassText:
		return "text"
	default:
		return "unknown"
	}
}

// Line is one display string and its class.
type Line struct {
	Class Class  `json:"class"`
	Text  string `json:"text"`
}

// Lines renders steps into display lines: every tool line, then every result
// header, then every JSON block, then every text line. Within a class the
// order of the steps is kept.
func Lines(in []steps.Step) []Line {
	var groups [numClasses][]Line
	add := func(c Class, text string) {
		groups[c] = append(groups[c], Line{Class: c, Text: text})
	}

	for _, s := range in {
		switch s.Kind {
		case steps.KindToolCall:
			text := toolIcon + " Tool: " + s.Name
			if s.HasArgs() {
				text += "\n" + fence(s.Args)
			}
			add(ClassTool, text)

		case steps.KindToolResult:
			add(ClassResultHeader, resultHeader(s.Name))
			switch p := s.Payload.(type) {
			case nil:
			case string:
				if p != "" {
					add(ClassText, p)
				}
			default:
				add(ClassJSONBlock, fence(p))
			}

		case steps.KindJSONBlock:
			add(ClassJSONBlock, fence(s.Value))

		case steps.KindText:
			if s.Content != "" {
				add(ClassText, s.Content)
			}
		}
	}

	var out []Line
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Format renders steps into the display strings sent to the chat, in order.
func Format(in []steps.Step) []string {
	lines := Lines(in)
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func resultHeader(tool string) string {
	if tool == "" {
		return resultIcon + " Resultado:"
	}
	return resultIcon + " Resultado de " + tool + ":"
}

// fence wraps a value in a code fence: pretty JSON in a json fence, raw text
// in a plain one.
func fence(v any) string {
	if s, ok := v.(string); ok {
		return "```\n" + s + "\n```"
	}
	return "```json\n" + steps.Pretty(v) + "\n```"
}
