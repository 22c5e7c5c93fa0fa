package steps

import (
	"bytes"
	"strings"
)

// ChunkKind identifies which variant a RawChunk holds.
type ChunkKind int

const (
	// ChunkSSE is a Server-Sent Events text blob.
	ChunkSSE ChunkKind = iota + 1

	// ChunkEscaped is a string that may hold JSON escaped one or more times,
	// or plain prose.
	ChunkEscaped

	// ChunkObject is an already decoded JSON object.
	ChunkObject
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkSSE:
		return "sse"
	case ChunkEscaped:
		return "escaped"
	case ChunkObject:
		return "object"
	default:
		return "unknown"
	}
}

// RawChunk is the untyped provider output handed to the decoder. It is a
// closed union: exactly one of its variants is set, decided once by the
// constructor (or by Classify) so that no later stage needs to sniff shapes.
type RawChunk struct {
	kind   ChunkKind
	text   string
	object map[string]any
}

// SSEText wraps a Server-Sent Events text blob.
func SSEText(s string) RawChunk {
	return RawChunk{kind: ChunkSSE, text: s}
}

// EscapedJSON wraps a string that may be JSON escaped several times.
func EscapedJSON(s string) RawChunk {
	return RawChunk{kind: ChunkEscaped, text: s}
}

// PlainObject wraps an already decoded JSON object.
func PlainObject(m map[string]any) RawChunk {
	return RawChunk{kind: ChunkObject, object: m}
}

// Kind returns the variant held by the chunk.
func (c RawChunk) Kind() ChunkKind { return c.kind }

// Text returns the text of an SSEText or EscapedJSON chunk.
func (c RawChunk) Text() string { return c.text }

// Object returns the object of a PlainObject chunk.
func (c RawChunk) Object() map[string]any { return c.object }

// Classify decides the RawChunk variant of a provider response body.
// A body that decodes as a JSON object is a PlainObject, a body carrying SSE
// "data:" or "event:" field lines is SSEText, and anything else is treated as
// a possibly escaped JSON string.
func Classify(body []byte) RawChunk {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if v, err := ParseJSON(string(trimmed)); err == nil {
			if obj, ok := v.(map[string]any); ok {
				return PlainObject(obj)
			}
		}
	}

	text := string(body)
	if LooksLikeSSE(text) {
		return SSEText(text)
	}

	return EscapedJSON(text)
}

// LooksLikeSSE reports whether text holds at least one SSE "data:" or
// "event:" field line.
func LooksLikeSSE(text string) bool {
	for line := range strings.Lines(text) {
		line = strings.TrimLeft(line, " \t")
		if strings.HasPrefix(line, "data:") || strings.HasPrefix(line, "event:") {
			return true
		}
	}
	return false
}
