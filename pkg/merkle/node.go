// Package merkle content-addresses rendered chat turns. Each turn's hash
// covers its parent's hash, so the turns of a chat form a verifiable chain.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Node is a single content-addressed turn.
type Node struct {
	// Hash is the content-addressed identifier (SHA-256, hex-encoded)
	Hash string `json:"hash"`

	// ParentHash links to the previous turn of the same chat.
	// This will be nil for the first turn.
	ParentHash *string `json:"parent_hash"`

	Bucket Bucket `json:"bucket"`

	// CreatedAt is stored alongside the node but is not part of the hash.
	CreatedAt time.Time `json:"created_at"`
}

// NewNode creates a new node with the computed hash for the provided bucket,
// chained onto parent when it is non-nil.
func NewNode(bucket Bucket, parent *Node) *Node {
	n := &Node{
		Bucket:    bucket,
		CreatedAt: time.Now().UTC(),
	}

	if parent != nil {
		hash := parent.Hash
		n.ParentHash = &hash
	}

	n.Hash = n.computeHash()
	return n
}

// Verify reports whether the node's hash matches its content.
func (n *Node) Verify() bool {
	return n.Hash == n.computeHash()
}

// computeHash hashes the parent hash and the bucket. encoding/json emits
// struct fields in declaration order, so the input is deterministic.
func (n *Node) computeHash() string {
	parent := ""
	if n.ParentHash != nil {
		parent = *n.ParentHash
	}

	data, err := json.Marshal(struct {
		Parent  string `json:"parent"`
		Content Bucket `json:"content"`
	}{
		Parent:  parent,
		Content: n.Bucket,
	})
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
