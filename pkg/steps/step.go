package steps

// Kind is the class of a typed Step.
type Kind int

const (
	KindToolCall Kind = iota + 1
	KindToolResult
	KindJSONBlock
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindToolCall:
		return "tool_call"
	case KindToolResult:
		return "tool_result"
	case KindJSONBlock:
		return "json_block"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Step is a classified unit of display content. Which fields are meaningful
// depends on Kind:
//
//	KindToolCall    Name, Args
//	KindToolResult  Name (tool name, may be empty), Payload
//	KindJSONBlock   Value
//	KindText        Content
type Step struct {
	Kind    Kind
	Name    string
	Args    any
	Payload any
	Value   any
	Content string
}

// ToolCall returns a KindToolCall step. A nil args means no arguments.
func ToolCall(name string, args any) Step {
	return Step{Kind: KindToolCall, Name: name, Args: args}
}

// ToolResult returns a KindToolResult step. The payload is either a decoded
// JSON value or a plain string.
func ToolResult(toolName string, payload any) Step {
	return Step{Kind: KindToolResult, Name: toolName, Payload: payload}
}

// JSONBlock returns a KindJSONBlock step.
func JSONBlock(value any) Step {
	return Step{Kind: KindJSONBlock, Value: value}
}

// Text returns a KindText step.
func Text(content string) Step {
	return Step{Kind: KindText, Content: content}
}

// HasArgs reports whether a tool call carries arguments worth displaying.
func (s Step) HasArgs() bool {
	switch a := s.Args.(type) {
	case nil:
		return false
	case string:
		return a != ""
	case map[string]any:
		return len(a) > 0
	case []any:
		return len(a) > 0
	default:
		return true
	}
}

// PayloadIsJSON reports whether a tool result payload is structured JSON
// rather than plain text.
func (s Step) PayloadIsJSON() bool {
	_, isString := s.Payload.(string)
	return s.Payload != nil && !isString
}

// Body renders the content of the step that identifies it for duplicate
// detection: tool name and arguments, the result payload, the JSON value or
// the text.
func (s Step) Body() string {
	switch s.Kind {
	case KindToolCall:
		if !s.HasArgs() {
			return "Tool: " + s.Name
		}
		return "Tool: " + s.Name + "\n" + renderValue(s.Args)
	case KindToolResult:
		return renderValue(s.Payload)
	case KindJSONBlock:
		return renderValue(s.Value)
	case KindText:
		return s.Content
	default:
		return ""
	}
}

// Fingerprint is the duplicate identity of the step: a digest over its kind,
// tool name and normalized body. Two steps with equal fingerprints are the
// same observation.
func (s Step) Fingerprint() string {
	return Digest(s.Kind.String(), s.Name, NormalizeText(s.Body()))
}

// BodyDigest is a digest over the normalized body only, ignoring kind and
// tool name. It detects a payload echoed under a different classification.
func (s Step) BodyDigest() string {
	return Digest(NormalizeText(s.Body()))
}

func renderValue(v any) string {
	if str, ok := v.(string); ok {
		return str
	}
	if v == nil {
		return ""
	}
	return Pretty(v)
}
