package track

import (
	"fmt"
	"sync"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/logging"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/tree"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// Structural-tree thresholds. The bloat rule and the detached-node rule are
// independent.
const (
	nodeBloatWarnCount = 10000
	nodeBloatCritCount = 50000

	nodeDetachedWarnCount = 100
	nodeDetachedCritCount = 1000
)

// TreeObserver is the structural-tree facility the node tracker works with.
// A *tree.Tree satisfies it; hosts with their own tree adapt it behind this
// shape.
type TreeObserver interface {
	// Observe registers a mutation observer and returns a cancel function.
	Observe(fn func(tree.Mutation)) (cancel func())

	// LiveCount returns the number of nodes currently attached to the tree.
	LiveCount() int

	// Contains reports whether a node is reachable from the tree root.
	Contains(n *tree.Node) bool
}

// NodeTracker counts structural-tree churn and collects removed-but-retained
// nodes. A node removed from the tree that has no parent and is not reachable
// from the root goes into the detached set: it left the visible tree but is
// still referenced by whatever holds the *Node.
//
// A nil observer degrades to zero tracked nodes rather than failing
// construction; the mutation facility is treated as optional.
type NodeTracker struct {
	obs TreeObserver
	log *logging.Logger

	mu       sync.Mutex
	cancel   func()
	created  int64
	detached map[*tree.Node]struct{}
}

// NewNodeTracker subscribes to the observer's mutation batches.
func NewNodeTracker(obs TreeObserver) *NodeTracker {
	t := &NodeTracker{
		obs:      obs,
		log:      logging.Get("node"),
		detached: make(map[*tree.Node]struct{}),
	}
	if obs != nil {
		t.cancel = obs.Observe(t.onMutation)
	}
	return t
}

// Name implements Tracker.
func (t *NodeTracker) Name() string { return "node" }

// onMutation processes one batch of structural changes.
func (t *NodeTracker) onMutation(m tree.Mutation) {
	guard(t.log, func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		t.created += int64(len(m.Added))
		for _, n := range m.Added {
			// A re-attached node is no longer leak evidence.
			delete(t.detached, n)
		}

		for _, n := range m.Removed {
			if n.Parent() == nil && !t.obs.Contains(n) {
				t.detached[n] = struct{}{}
			}
		}
	})
}

// ActiveCount implements Tracker. It reports the live node count of the
// observed tree, zero when no tree facility is available.
func (t *NodeTracker) ActiveCount() int {
	if t.obs == nil {
		return 0
	}
	return t.obs.LiveCount()
}

// DetachedCount returns the size of the removed-but-retained set.
func (t *NodeTracker) DetachedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.detached)
}

// CreatedCount returns the running total of node additions observed.
func (t *NodeTracker) CreatedCount() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.created
}

// DetectLeaks implements Tracker.
func (t *NodeTracker) DetectLeaks() []types.LeakSuspect {
	var suspects []types.LeakSuspect

	live := t.ActiveCount()
	if live > nodeBloatWarnCount {
		severity := types.SeverityHigh
		if live > nodeBloatCritCount {
			severity = types.SeverityCritical
		}
		suspects = append(suspects, types.LeakSuspect{
			Category:    types.CategoryNodeBloat,
			Severity:    severity,
			Description: fmt.Sprintf("structural tree holds %d live nodes", live),
			Magnitude:   int64(live),
		})
	}

	detached := t.DetachedCount()
	if detached > nodeDetachedWarnCount {
		severity := types.SeverityMedium
		if detached > nodeDetachedCritCount {
			severity = types.SeverityCritical
		}
		suspects = append(suspects, types.LeakSuspect{
			Category:    types.CategoryDetachedNode,
			Severity:    severity,
			Description: fmt.Sprintf("%d removed nodes are still retained", detached),
			Magnitude:   int64(detached),
		})
	}

	return suspects
}

// Cleanup implements Tracker. It cancels the mutation subscription and drops
// the detached set. Safe to call twice.
func (t *NodeTracker) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.detached = make(map[*tree.Node]struct{})
}
