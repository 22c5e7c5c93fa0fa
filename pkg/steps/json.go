package steps

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errTrailingData = errors.New("trailing data after JSON value")

// ParseJSON decodes exactly one JSON value from s. Numbers are kept as
// json.Number so integers survive a round trip untouched.
func ParseJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}

	return v, nil
}

// Unescape re-parses s as JSON for as long as the result is itself a string,
// at most MaxUnescapeDepth times. It stops at the first non-string value or
// the first failed parse and returns the last value it obtained. The boolean
// reports whether that value is structured (anything but a string).
func Unescape(s string) (any, bool) {
	var v any = s
	for range MaxUnescapeDepth {
		str, ok := v.(string)
		if !ok {
			break
		}

		parsed, err := ParseJSON(str)
		if err != nil {
			break
		}
		v = parsed
	}

	_, isString := v.(string)
	return v, !isString
}

// Pretty renders v as 2-space indented JSON without HTML escaping.
func Pretty(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Compact renders v as single-line JSON without HTML escaping.
func Compact(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
