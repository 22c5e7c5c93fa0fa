// Package storage persists rendered chat turns as merkle nodes.
package storage

import (
	"context"

	"github.com/papercomputeco/relay/pkg/merkle"
)

// Driver defines the interface for persisting and retrieving turns in a
// storage backend. Turns of one chat form a chain through their parent hashes.
type Driver interface {
	// Put stores a node. Returns true if the node was newly inserted,
	// false if it already exists. If the node already exists, this is a no-op.
	Put(ctx context.Context, node *merkle.Node) (bool, error)

	// Get retrieves a node by its hash.
	Get(ctx context.Context, hash string) (*merkle.Node, error)

	// Head returns the latest turn of a chat: the newest node of the chat that
	// no other node names as its parent. Returns NotFoundError for unknown chats.
	Head(ctx context.Context, chatID string) (*merkle.Node, error)

	// List returns the chain ending at the chat's head, oldest first.
	// Unknown chats yield an empty slice.
	List(ctx context.Context, chatID string) ([]*merkle.Node, error)

	// Ancestry returns the path from a node back to its root (node first, root last).
	Ancestry(ctx context.Context, hash string) ([]*merkle.Node, error)

	// Close closes the store and releases any resources.
	Close() error
}
