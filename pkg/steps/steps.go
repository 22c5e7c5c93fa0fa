// Package steps holds the data model of the response normalization pipeline:
// raw provider chunks, the raw steps extracted from them, and the typed steps
// that are finally laid out as chat display lines.
//
// The pipeline runs in three pure stages, each in its own sub-package:
//
//	decode    RawChunk  -> []RawStep
//	normalize []RawStep -> []Step
//	layout    []Step    -> []string
//
// Nothing in this package, or its stages, performs I/O or holds state across
// calls. It is safe to run independent inputs concurrently.
package steps

const (
	// MaxFieldChars is the longest a string field inside a JSON payload may
	// be (in characters) before it is cut and suffixed with Ellipsis.
	MaxFieldChars = 400

	// MaxRawWords is the longest an opaque, unparseable tool payload may be
	// (in words) before it is cut and suffixed with Ellipsis.
	MaxRawWords = 60

	// MaxUnescapeDepth bounds how many times a string is re-parsed as JSON
	// while unwrapping multiply escaped provider payloads.
	MaxUnescapeDepth = 5

	// Ellipsis marks a truncated field or text.
	Ellipsis = "…"
)
