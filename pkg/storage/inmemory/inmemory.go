// Package inmemory provides a map-backed storage driver. Turns are lost when
// the process exits.
package inmemory

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/relay/pkg/merkle"
	"github.com/papercomputeco/relay/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of nodes
	mu sync.RWMutex

	// nodes is the in memory map of nodes where the key is the content-addressed
	// hash for the node
	nodes map[string]*merkle.Node

	// chats holds each chat's node hashes in insertion order
	chats map[string][]string

	// children counts how many nodes name a hash as their parent
	children map[string]int
}

// NewDriver creates a new in-memory storer.
func NewDriver() *Driver {
	return &Driver{
		nodes:    make(map[string]*merkle.Node),
		chats:    make(map[string][]string),
		children: make(map[string]int),
	}
}

// Put stores a node. Returns true if the node was newly inserted,
// false if it already existed (no-op due to content-addressing).
func (s *Driver) Put(_ context.Context, node *merkle.Node) (bool, error) {
	if node == nil {
		return false, errors.New("cannot store nil node")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[node.Hash]; ok {
		return false, nil
	}

	s.nodes[node.Hash] = node
	s.chats[node.Bucket.ChatID] = append(s.chats[node.Bucket.ChatID], node.Hash)
	if node.ParentHash != nil {
		s.children[*node.ParentHash]++
	}
	return true, nil
}

// Get retrieves a node by its hash.
func (s *Driver) Get(_ context.Context, hash string) (*merkle.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[hash]
	if !ok {
		return nil, storage.NotFoundError{Hash: hash}
	}

	return node, nil
}

// Head returns the most recently inserted childless node of the chat.
func (s *Driver) Head(_ context.Context, chatID string) (*merkle.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashes := s.chats[chatID]
	for i := len(hashes) - 1; i >= 0; i-- {
		if s.children[hashes[i]] == 0 {
			return s.nodes[hashes[i]], nil
		}
	}

	return nil, storage.NotFoundError{ChatID: chatID}
}

func (s *Driver) List(ctx context.Context, chatID string) ([]*merkle.Node, error) {
	head, err := s.Head(ctx, chatID)
	if err != nil {
		if storage.IsNotFound(err) {
			return []*merkle.Node{}, nil
		}
		return nil, err
	}
	return storage.Chain(ctx, s, head)
}

func (s *Driver) Ancestry(ctx context.Context, hash string) ([]*merkle.Node, error) {
	return storage.Ancestry(ctx, s.Get, hash)
}

// Close is a no-op for the in-memory storer.
func (s *Driver) Close() error {
	return nil
}

var _ storage.Driver = (*Driver)(nil)
