// Package tree provides an observable in-memory structural tree. The node
// tracker subscribes to its mutation batches; applications that maintain a
// hierarchical structure (a scene graph, a widget tree, a document model) can
// use it directly or adapt their own tree behind the same observer shape.
package tree

import (
	"sync"

	"github.com/google/uuid"
)

// Node represents one element of the structural tree.
type Node struct {
	// Name labels the node for diagnostics.
	Name string

	// parent is nil for the root and for nodes detached from the tree.
	parent *Node

	children []*Node
}

// NewNode creates a free-standing node with the given name.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// Parent returns the node's current parent, nil if detached or root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node's children in insertion order.
func (n *Node) Children() []*Node {
	return n.children
}

// Mutation is one batch of structural changes delivered to observers.
type Mutation struct {
	// Added holds nodes attached during the batch, including descendants of
	// an attached subtree.
	Added []*Node

	// Removed holds nodes detached during the batch, including descendants
	// of a detached subtree.
	Removed []*Node
}

// Tree is a mutable structural tree that notifies observers about node
// attachment and detachment.
type Tree struct {
	mu        sync.RWMutex
	root      *Node
	liveCount int
	observers map[string]func(Mutation)
}

// New creates a tree with a root node of the given name.
func New(rootName string) *Tree {
	return &Tree{
		root:      NewNode(rootName),
		liveCount: 1,
		observers: make(map[string]func(Mutation)),
	}
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node {
	return t.root
}

// LiveCount returns the number of nodes currently attached to the tree.
func (t *Tree) LiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.liveCount
}

// Attach adds child, with its whole subtree, under parent. It is a no-op if
// the child is already attached somewhere or the parent is not in the tree.
func (t *Tree) Attach(parent, child *Node) {
	t.mu.Lock()

	if child.parent != nil || child == t.root || !t.containsLocked(parent) {
		t.mu.Unlock()
		return
	}

	child.parent = parent
	parent.children = append(parent.children, child)

	added := collect(child)
	t.liveCount += len(added)
	observers := t.observersLocked()
	t.mu.Unlock()

	notify(observers, Mutation{Added: added})
}

// Detach removes node, with its whole subtree, from the tree. Detached nodes
// keep their internal structure; whether they stay referenced elsewhere is
// what the node tracker is interested in. Detaching the root or an already
// detached node is a no-op.
func (t *Tree) Detach(node *Node) {
	t.mu.Lock()

	if node == t.root || node.parent == nil {
		t.mu.Unlock()
		return
	}

	parent := node.parent
	for i, c := range parent.children {
		if c == node {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	node.parent = nil

	removed := collect(node)
	t.liveCount -= len(removed)
	observers := t.observersLocked()
	t.mu.Unlock()

	notify(observers, Mutation{Removed: removed})
}

// Contains reports whether the node is currently reachable from the root.
func (t *Tree) Contains(node *Node) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.containsLocked(node)
}

// containsLocked walks up the parent chain looking for the root.
// Must be called with t.mu held.
func (t *Tree) containsLocked(node *Node) bool {
	for n := node; n != nil; n = n.parent {
		if n == t.root {
			return true
		}
	}
	return false
}

// Observe registers a mutation observer over the whole tree and returns a
// cancel function. Observers are invoked synchronously after each mutation
// batch, outside the tree lock.
func (t *Tree) Observe(fn func(Mutation)) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := uuid.New().String()
	t.observers[id] = fn

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.observers, id)
	}
}

// observersLocked snapshots the current observer set.
// Must be called with t.mu held.
func (t *Tree) observersLocked() []func(Mutation) {
	out := make([]func(Mutation), 0, len(t.observers))
	for _, fn := range t.observers {
		out = append(out, fn)
	}
	return out
}

// notify delivers a mutation batch to each observer.
func notify(observers []func(Mutation), m Mutation) {
	for _, fn := range observers {
		fn(m)
	}
}

// collect returns the node and all its descendants.
func collect(node *Node) []*Node {
	out := []*Node{node}
	for _, c := range node.children {
		out = append(out, collect(c)...)
	}
	return out
}
