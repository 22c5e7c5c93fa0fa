// Package sse parses the Server-Sent Events blobs returned by chat completion
// deployments into discrete records.
//
// Framing is line oriented and tolerant of providers that omit the blank-line
// terminator between records: blank lines are dropped, and a record ends when
// a field that it already carries shows up again ("id:" always starts a new
// record). Comment lines (":" prefix) and unknown fields are ignored.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Event is one decoded SSE record.
type Event struct {
	// ID is the value of the "id:" field, if present.
	ID string

	// Type is the value of the "event:" field. Empty means the default
	// "message" type.
	Type string

	// Data is the trimmed value of the "data:" field.
	Data string

	// Value is Data decoded as JSON, or Data itself when it is not valid
	// JSON. It is nil for records without a "data:" field.
	Value any
}

// Object returns Value as a JSON object, if it is one.
func (e Event) Object() (map[string]any, bool) {
	m, ok := e.Value.(map[string]any)
	return m, ok
}
