package storage

import (
	"context"
	"fmt"
	"slices"

	"github.com/papercomputeco/relay/pkg/merkle"
)

// Ancestry walks parent links from hash back to the root using get
// (node first, root last). Drivers without a recursive query share it.
func Ancestry(ctx context.Context, get func(context.Context, string) (*merkle.Node, error), hash string) ([]*merkle.Node, error) {
	var path []*merkle.Node
	current := hash

	for {
		node, err := get(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("getting node %s: %w", current, err)
		}
		path = append(path, node)

		if node.ParentHash == nil {
			break
		}
		current = *node.ParentHash
	}

	return path, nil
}

// Chain returns the nodes from the root down to head (root first).
func Chain(ctx context.Context, d Driver, head *merkle.Node) ([]*merkle.Node, error) {
	path, err := d.Ancestry(ctx, head.Hash)
	if err != nil {
		return nil, err
	}
	slices.Reverse(path)
	return path, nil
}
