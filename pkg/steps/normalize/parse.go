package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/papercomputeco/relay/pkg/steps"
)

const (
	toolIcon   = "🛠️"
	resultIcon = "✅"
)

var decorator = regexp.MustCompile("(?i)^`*json`*$")

// header is a parsed "Resultado de <tool>:" line.
type header struct {
	tool string
	body string
}

// parseToolLine recognizes "Tool: <name>", optionally prefixed by the tool
// icon and optionally followed by a JSON span with the call arguments.
func parseToolLine(line string) (string, any, bool) {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, toolIcon)
	s = strings.TrimPrefix(s, "🛠")
	s = strings.TrimSpace(s)

	rest, ok := strings.CutPrefix(s, "Tool:")
	if !ok {
		return "", nil, false
	}

	var args any
	if idx := strings.IndexByte(rest, '{'); idx >= 0 {
		args = bound(rest[idx:])
		rest = rest[:idx]
	}

	// A name followed by more words is prose about a tool, not a tool line.
	fields := strings.Fields(rest)
	if len(fields) != 1 {
		return "", nil, false
	}

	return strings.Trim(fields[0], "`*:"), args, true
}

// parseResultHeader recognizes "Resultado de <tool>:" (or a bare
// "Resultado:"), optionally prefixed by the result icon. Text after the colon
// on the same line is returned as the body.
func parseResultHeader(line string) (header, bool) {
	s := strings.TrimSpace(line)
	s = strings.TrimSpace(strings.TrimPrefix(s, resultIcon))

	rest, ok := strings.CutPrefix(s, "Resultado")
	if !ok {
		return header{}, false
	}
	rest = strings.TrimLeft(rest, " ")

	if r, ok := strings.CutPrefix(rest, "de "); ok {
		rest = r
	} else if rest != "" && rest[0] != ':' {
		return header{}, false
	}

	name, body, hasColon := strings.Cut(rest, ":")
	if !hasColon {
		if idx := strings.IndexByte(name, '{'); idx >= 0 {
			name, body = name[:idx], name[idx:]
		}
	}

	return header{
		tool: strings.Trim(strings.TrimSpace(name), "`*"),
		body: strings.TrimSpace(body),
	}, true
}

// headerOnly reports whether text holds nothing but the header h.
func headerOnly(h header, text string) bool {
	_, rest, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return h.body == "" && strings.TrimSpace(rest) == ""
}

// isDecorator reports whether s is a bare language tag such as "json",
// "`json`" or "```json".
func isDecorator(s string) bool {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return s != "" && decorator.MatchString(s)
}

func dropTrailingDecorator(s string) string {
	lead, last, ok := cutLastLine(s)
	if ok && isDecorator(last) {
		return lead
	}
	return s
}

// span locates the JSON candidate in a text: from the first '{' to the last
// '}', widened by one wrapping quote on each side.
type span struct {
	start, end int
	inner      string
}

func findSpan(text string) (span, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return span{}, false
	}

	sp := span{start: start, end: end + 1, inner: text[start : end+1]}
	if sp.start > 0 && isQuote(text[sp.start-1]) {
		sp.start--
	}
	if sp.end < len(text) && isQuote(text[sp.end]) {
		sp.end++
	}

	return sp, true
}

func isQuote(b byte) bool {
	return b == '"' || b == '\''
}

// parseSpan unescapes a JSON span. A span still carrying escaped quotes is
// retried as the body of a JSON string.
func parseSpan(inner string) (any, bool) {
	if v, ok := steps.Unescape(inner); ok {
		return v, true
	}
	if strings.Contains(inner, `\"`) {
		if v, ok := steps.Unescape(`"` + inner + `"`); ok {
			return v, true
		}
	}
	return nil, false
}

// bound limits the size of a tool payload or argument value: JSON is field
// truncated, opaque text is word truncated. A literal "null" stays text.
func bound(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		t = strings.TrimSpace(t)
		if parsed, ok := parseSpan(t); ok && parsed != nil {
			return steps.TruncateFields(parsed)
		}
		return steps.TruncateWords(t)
	default:
		return steps.TruncateFields(t)
	}
}
