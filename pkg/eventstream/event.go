// Package eventstream defines the transport-neutral events relay emits after
// a chat turn has been rendered and stored.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/relay/pkg/merkle"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnRendered is emitted after a chat turn is rendered and stored.
	EventTypeTurnRendered = "relay.turn.rendered"
)

// TurnRenderedEvent is the payload published for a stored turn.
type TurnRenderedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	ChatID        string    `json:"chat_id"`
	Sender        string    `json:"sender,omitempty"`
	Hash          string    `json:"hash"`
	ParentHash    *string   `json:"parent_hash,omitempty"`
	LineCount     int       `json:"line_count"`
	Lines         []string  `json:"lines"`
}

// NewTurnRenderedEvent builds the event for node with a fresh id.
func NewTurnRenderedEvent(node *merkle.Node) *TurnRenderedEvent {
	return &TurnRenderedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnRendered,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		ChatID:        node.Bucket.ChatID,
		Sender:        node.Bucket.Sender,
		Hash:          node.Hash,
		ParentHash:    node.ParentHash,
		LineCount:     len(node.Bucket.Lines),
		Lines:         node.Bucket.Lines,
	}
}
