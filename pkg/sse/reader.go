package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/papercomputeco/relay/pkg/steps"
)

const maxLineBytes = 4 * 1024 * 1024

// Reader reads SSE records from a source io.Reader.
type Reader struct {
	src *bufio.Reader
	err error

	// current accumulates fields for the record being built.
	current Event
	started bool
	hasData bool
}

// NewReader returns a Reader that parses SSE records from src.
func NewReader(src io.Reader) *Reader {
	return &Reader{src: bufio.NewReaderSize(src, 64*1024)}
}

// Next returns the next complete record. A record is complete when a field
// that starts a new one is read, or at the end of the source. Lines longer
// than maxLineBytes are skipped. A read error first flushes the record in
// progress and is returned by the following call.
// Next returns nil, nil when the source is exhausted.
func (r *Reader) Next() (*Event, error) {
	if r.err != nil {
		return nil, r.err
	}

	for {
		line, tooLong, err := r.readLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
			break
		}
		if tooLong {
			continue
		}

		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		// Lines starting with ':' are comments.
		if strings.HasPrefix(line, ":") {
			continue
		}

		if ev := r.parseLine(line); ev != nil {
			return ev, nil
		}
	}

	if r.started {
		return r.flush(), nil
	}

	return nil, r.err
}

// readLine returns the next line without its terminator. A line longer than
// maxLineBytes is consumed and reported as too long instead of returned.
func (r *Reader) readLine() (string, bool, error) {
	var (
		buf     []byte
		tooLong bool
	)

	for {
		frag, more, err := r.src.ReadLine()
		if err != nil {
			return "", false, err
		}

		if !tooLong {
			if len(buf)+len(frag) > maxLineBytes {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, frag...)
			}
		}

		if !more {
			return string(buf), tooLong, nil
		}
	}
}

// parseLine accumulates one field line into the current record. When the
// field begins a new record, the finished one is returned.
func (r *Reader) parseLine(line string) *Event {
	field, value, ok := strings.Cut(line, ":")
	if !ok {
		return nil
	}
	field = strings.TrimSpace(field)
	value = strings.TrimSpace(value)

	var done *Event
	switch field {
	case "id":
		if r.started {
			done = r.flush()
		}
		r.current.ID = value
	case "event":
		if r.current.Type != "" || r.hasData {
			done = r.flush()
		}
		r.current.Type = value
	case "data":
		if r.hasData {
			done = r.flush()
		}
		r.current.Data = value
		r.hasData = true
	default:
		// "retry" and unknown fields are ignored.
		return nil
	}

	r.started = true
	return done
}

func (r *Reader) flush() *Event {
	ev := r.current
	if r.hasData {
		ev.Value = decodeData(ev.Data)
	}

	r.current = Event{}
	r.started = false
	r.hasData = false

	return &ev
}

func decodeData(data string) any {
	v, err := steps.ParseJSON(data)
	if err != nil {
		return data
	}
	return v
}

// Parse frames text into records. Oversized lines are skipped.
func Parse(text string) []Event {
	r := NewReader(strings.NewReader(text))

	var events []Event
	for {
		ev, err := r.Next()
		if err != nil || ev == nil {
			return events
		}
		events = append(events, *ev)
	}
}
