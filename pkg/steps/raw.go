package steps

// RawKind identifies what a RawStep carries.
type RawKind int

const (
	// RawText is a free-form string fragment: narrative, a "Tool: x" notice,
	// a "Resultado de x:" header, JSON, or any mix of them.
	RawText RawKind = iota + 1

	// RawToolCall is a structured tool invocation decoded from the provider.
	RawToolCall

	// RawToolResult is a structured tool output decoded from the provider.
	RawToolResult
)

// RawStep is an unclassified fragment extracted by the decoder, in the order
// it was extracted.
type RawStep struct {
	Kind RawKind

	// Text is set for RawText.
	Text string

	// Name is the tool name for RawToolCall and RawToolResult.
	Name string

	// Args holds the decoded arguments of a RawToolCall: a JSON value, or the
	// raw argument string when it did not parse.
	Args any

	// Payload holds the output of a RawToolResult.
	Payload any
}

// TextStep returns a RawText step.
func TextStep(text string) RawStep {
	return RawStep{Kind: RawText, Text: text}
}

// ToolCallStep returns a RawToolCall step.
func ToolCallStep(name string, args any) RawStep {
	return RawStep{Kind: RawToolCall, Name: name, Args: args}
}

// ToolResultStep returns a RawToolResult step.
func ToolResultStep(name string, payload any) RawStep {
	return RawStep{Kind: RawToolResult, Name: name, Payload: payload}
}
