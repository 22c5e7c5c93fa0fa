// Package render runs the response normalization pipeline end to end:
// decode, normalize, layout.
package render

import (
	"github.com/papercomputeco/relay/pkg/steps"
	"github.com/papercomputeco/relay/pkg/steps/decode"
	"github.com/papercomputeco/relay/pkg/steps/layout"
	"github.com/papercomputeco/relay/pkg/steps/normalize"
)

// Render turns raw provider output into the display strings to send, one
// chat message each, in order.
func Render(raw steps.RawChunk) []string {
	return layout.Format(Steps(raw))
}

// Lines is Render with the presentation class of every line.
func Lines(raw steps.RawChunk) []layout.Line {
	return layout.Lines(Steps(raw))
}

// Steps returns the typed steps of raw provider output.
func Steps(raw steps.RawChunk) []steps.Step {
	return normalize.Normalize(decode.Decode(raw))
}

// Body classifies a provider response body and renders it.
func Body(body []byte) []string {
	return Render(steps.Classify(body))
}
