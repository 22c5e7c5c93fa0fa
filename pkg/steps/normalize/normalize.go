// Package normalize classifies raw steps into typed steps, deduplicates them
// and bounds the size of tool payloads.
package normalize

import (
	"regexp"
	"strings"

	"github.com/papercomputeco/relay/pkg/steps"
)

var blankRuns = regexp.MustCompile(`\n{2,}`)

type normalizer struct {
	out  []steps.Step
	seen map[string]struct{}

	// lastTool names the most recent tool call or result header. JSON found
	// while it is set is that tool's output.
	lastTool string
}

// Normalize turns raw steps into typed steps, in extraction order. A step
// whose fingerprint was already accepted is dropped, as is a tool result or
// JSON block repeating the body of the step accepted just before it.
func Normalize(raw []steps.RawStep) []steps.Step {
	n := &normalizer{seen: make(map[string]struct{})}

	for i := 0; i < len(raw); i++ {
		r := raw[i]

		switch r.Kind {
		case steps.RawToolCall:
			n.lastTool = r.Name
			n.accept(steps.ToolCall(r.Name, bound(r.Args)))

		case steps.RawToolResult:
			n.result(r.Name, r.Payload)

		case steps.RawText:
			text := r.Text

			// A header without a body absorbs the step after it.
			if h, ok := parseResultHeader(firstLine(text)); ok && headerOnly(h, text) && i+1 < len(raw) {
				next := raw[i+1]
				switch next.Kind {
				case steps.RawText:
					if !startsStep(next.Text) {
						text = strings.TrimSpace(text) + "\n" + next.Text
						i++
					}
				case steps.RawToolResult:
					name := next.Name
					if name == "" {
						name = h.tool
					}
					n.result(name, next.Payload)
					i++
					continue
				}
			}

			n.text(text)
		}
	}

	return n.out
}

func (n *normalizer) accept(s steps.Step) {
	fp := s.Fingerprint()
	if _, dup := n.seen[fp]; dup {
		return
	}

	if s.Kind == steps.KindToolResult || s.Kind == steps.KindJSONBlock {
		if len(n.out) > 0 && n.out[len(n.out)-1].BodyDigest() == s.BodyDigest() {
			return
		}
	}

	n.seen[fp] = struct{}{}
	n.out = append(n.out, s)
}

func (n *normalizer) result(name string, payload any) {
	if name == "" {
		name = n.lastTool
	} else {
		n.lastTool = name
	}

	if text, ok := payload.(string); ok {
		n.resultText(name, text)
		return
	}
	n.accept(steps.ToolResult(name, bound(payload)))
}

// resultText classifies a string tool payload. A leading result header is
// consumed. A payload that is JSON as a whole is kept as that value;
// otherwise prose around its JSON span is split off as for text steps.
func (n *normalizer) resultText(name, text string) {
	text = strings.TrimSpace(text)
	if h, ok := parseResultHeader(firstLine(text)); ok {
		_, rest, _ := strings.Cut(text, "\n")
		text = strings.TrimSpace(h.body + "\n" + rest)
		if h.tool != "" {
			name = h.tool
			n.lastTool = name
		}
	}
	if v, ok := parseSpan(text); ok && v != nil {
		s, isString := v.(string)
		if !isString {
			n.accept(steps.ToolResult(name, steps.TruncateFields(v)))
			return
		}
		text = strings.TrimSpace(s)
	}
	n.content(text, true, name)
}

// text classifies one free-form fragment. It is cut into segments at every
// tool line and result header; each segment is classified on its own.
func (n *normalizer) text(text string) {
	for _, seg := range segments(text) {
		n.segment(seg)
	}
}

func (n *normalizer) segment(seg string) {
	first, rest, _ := strings.Cut(seg, "\n")

	if name, args, ok := parseToolLine(first); ok {
		n.lastTool = name
		n.accept(steps.ToolCall(name, args))
		if rest = strings.TrimSpace(rest); rest != "" {
			n.content(rest, false, "")
		}
		return
	}

	if h, ok := parseResultHeader(first); ok {
		if h.tool != "" {
			n.lastTool = h.tool
		}
		body := strings.TrimSpace(h.body + "\n" + rest)
		if body == "" {
			return
		}
		n.content(body, true, n.lastTool)
		return
	}

	n.content(seg, false, "")
}

// segments splits text before every line that opens a step of its own.
// Blank segments are dropped.
func segments(text string) []string {
	var (
		out []string
		cur []string
	)
	flush := func() {
		if seg := strings.TrimSpace(strings.Join(cur, "\n")); seg != "" {
			out = append(out, seg)
		}
		cur = cur[:0]
	}

	for line := range strings.SplitSeq(text, "\n") {
		if len(cur) > 0 && startsStep(line) {
			flush()
		}
		cur = append(cur, line)
	}
	flush()

	return out
}

// content splits text around its JSON span. Leading prose, the span and
// trailing prose become separate steps, in that order.
func (n *normalizer) content(text string, inResult bool, tool string) {
	sp, ok := findSpan(text)
	if !ok {
		if inResult {
			n.accept(steps.ToolResult(tool, steps.TruncateWords(text)))
			return
		}
		n.plain(text)
		return
	}

	before := strings.TrimSpace(text[:sp.start])
	after := strings.TrimSpace(text[sp.end:])

	before = dropTrailingDecorator(before)
	if isDecorator(before) {
		before = ""
	}
	after = strings.TrimSpace(strings.TrimPrefix(after, "```"))

	if !inResult && n.lastTool != "" {
		inResult = true
		tool = n.lastTool
	}

	n.plain(before)
	n.span(sp.inner, inResult, tool)

	// Trailing prose is the model's own explanation and is never cut.
	if after != "" {
		n.accept(steps.Text(collapse(after)))
	}
}

func (n *normalizer) span(inner string, inResult bool, tool string) {
	if v, ok := parseSpan(inner); ok {
		v = steps.TruncateFields(v)
		if inResult {
			n.accept(steps.ToolResult(tool, v))
			return
		}
		n.accept(steps.JSONBlock(v))
		return
	}

	opaque := steps.TruncateWords(inner)
	if inResult {
		n.accept(steps.ToolResult(tool, opaque))
		return
	}
	n.accept(steps.Text(opaque))
}

// plain accepts prose as a text step with blank-line runs collapsed.
func (n *normalizer) plain(text string) {
	clean := collapse(text)
	if clean == "" {
		return
	}
	n.accept(steps.Text(clean))
}

func collapse(text string) string {
	return strings.TrimSpace(blankRuns.ReplaceAllString(text, "\n"))
}

// startsStep reports whether text opens with its own tool line or result
// header, and so cannot be the body of a preceding header.
func startsStep(text string) bool {
	line := firstLine(text)
	if _, _, ok := parseToolLine(line); ok {
		return true
	}
	_, ok := parseResultHeader(line)
	return ok
}

func firstLine(text string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return first
}

func cutLastLine(text string) (string, string, bool) {
	if text == "" {
		return "", "", false
	}
	idx := strings.LastIndex(text, "\n")
	if idx < 0 {
		return "", text, true
	}
	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+1:]), true
}
