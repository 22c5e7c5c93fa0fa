package steps

import (
	"strings"
	"unicode/utf8"
)

// TruncateFields returns a deep copy of v in which every string longer than
// MaxFieldChars characters is cut to MaxFieldChars and suffixed with Ellipsis.
// Structure (keys, nesting, non-string values) is preserved.
func TruncateFields(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = TruncateFields(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = TruncateFields(val)
		}
		return out
	case string:
		return truncateChars(t, MaxFieldChars)
	default:
		return v
	}
}

func truncateChars(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + Ellipsis
}

// TruncateWords cuts text to its first MaxRawWords whitespace-separated words
// followed by Ellipsis. Text within the budget is returned unchanged.
func TruncateWords(text string) string {
	words := strings.Fields(text)
	if len(words) <= MaxRawWords {
		return text
	}
	return strings.Join(words[:MaxRawWords], " ") + Ellipsis
}
