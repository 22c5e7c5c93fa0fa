package merkle

import "strings"

// Bucket is the hashable content of one rendered chat turn: the prompt a
// sender asked in a chat and the display lines produced for it.
type Bucket struct {
	// ChatID identifies the conversation the turn belongs to.
	ChatID string `json:"chat_id"`

	// Sender identifies who asked.
	Sender string `json:"sender,omitempty"`

	// Prompt is the query text without the command prefix.
	Prompt string `json:"prompt"`

	// Lines are the display lines sent back, in order.
	Lines []string `json:"lines"`
}

// Text returns the lines joined the way they are shown in chat.
func (b *Bucket) Text() string {
	return strings.Join(b.Lines, "\n\n")
}
