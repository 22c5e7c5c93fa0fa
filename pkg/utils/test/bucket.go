package testutils

import (
	"github.com/papercomputeco/relay/pkg/merkle"
)

// NewTestBucket creates a simple bucket for testing
func NewTestBucket(chatID, prompt string, lines ...string) merkle.Bucket {
	if len(lines) == 0 {
		lines = []string{"answer to " + prompt}
	}
	return merkle.Bucket{
		ChatID: chatID,
		Sender: "tester",
		Prompt: prompt,
		Lines:  lines,
	}
}
