// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package semantics

import (
	"sync"

	"github.com/gogpu/overlay/geom"
)

// Tree holds the latest semantics snapshot for one overlay surface.
//
// The producer replaces the whole snapshot on every update; readers never
// observe a partially built tree. Tree is safe for concurrent use: the
// producer goroutine calls Update while the input router calls HitTest.
type Tree struct {
	mu    sync.RWMutex
	nodes map[int32]Node
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Update replaces the stored snapshot with the given nodes.
// An empty update clears the tree, signalling that the surface currently
// has nothing interactive.
func (t *Tree) Update(nodes []Node) {
	if len(nodes) == 0 {
		t.mu.Lock()
		t.nodes = nil
		t.mu.Unlock()
		return
	}

	snapshot := make(map[int32]Node, len(nodes))
	for _, n := range nodes {
		snapshot[n.ID] = n
	}

	t.mu.Lock()
	t.nodes = snapshot
	t.mu.Unlock()
}

// Len returns the number of nodes in the current snapshot.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Node returns the node with the given id from the current snapshot.
func (t *Tree) Node(id int32) (Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[id]
	return n, ok
}

// HitTest returns the id of the topmost interactive node under p, where p
// is in the surface's local coordinate space. The second result is false
// when nothing interactive is under the point, including when the tree is
// empty.
func (t *Tree) HitTest(p geom.Point) (int32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.nodes) == 0 {
		return 0, false
	}
	return hitTestNode(RootID, p, t.nodes)
}

// hitTestNode recursively searches node id and its subtree. The point is
// given in the node's parent space; it is mapped into local space through
// the inverse of the node's transform. A singular transform leaves the
// point unchanged instead of failing the whole query.
func hitTestNode(id int32, p geom.Point, nodes map[int32]Node) (int32, bool) {
	node, ok := nodes[id]
	if !ok {
		return 0, false
	}

	local := p
	if inv, ok := node.Transform.Invert(); ok {
		local = inv.Apply(p)
	}

	// Last-listed child is topmost-drawn; first hit short-circuits.
	for i := len(node.Children) - 1; i >= 0; i-- {
		if hit, ok := hitTestNode(node.Children[i], local, nodes); ok {
			return hit, true
		}
	}

	if node.Rect.Contains(local) && node.Flags.Interactive() {
		return node.ID, true
	}
	return 0, false
}
