package track

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/tree"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

func TestNodeTracker_NilObserver(t *testing.T) {
	tr := NewNodeTracker(nil)
	defer tr.Cleanup()

	assert.Equal(t, 0, tr.ActiveCount())
	assert.Equal(t, 0, tr.DetachedCount())
	assert.Empty(t, tr.DetectLeaks())
}

func TestNodeTracker_CountsMutations(t *testing.T) {
	tm := tree.New("root")
	tr := NewNodeTracker(tm)
	defer tr.Cleanup()

	parent := tree.NewNode("parent")
	child := tree.NewNode("child")
	tm.Attach(tm.Root(), parent)
	tm.Attach(parent, child)

	assert.Equal(t, 3, tr.ActiveCount())
	assert.Equal(t, int64(2), tr.CreatedCount())
}

func TestNodeTracker_DetachedNodes(t *testing.T) {
	tm := tree.New("root")
	tr := NewNodeTracker(tm)
	defer tr.Cleanup()

	node := tree.NewNode("panel")
	tm.Attach(tm.Root(), node)
	require.Equal(t, 0, tr.DetachedCount())

	// The test still holds node, so after detach it is removed but retained.
	tm.Detach(node)
	assert.Equal(t, 1, tr.DetachedCount())
}

func TestNodeTracker_ReattachClearsDetached(t *testing.T) {
	tm := tree.New("root")
	tr := NewNodeTracker(tm)
	defer tr.Cleanup()

	node := tree.NewNode("panel")
	tm.Attach(tm.Root(), node)
	tm.Detach(node)
	require.Equal(t, 1, tr.DetachedCount())

	tm.Attach(tm.Root(), node)
	assert.Equal(t, 0, tr.DetachedCount())
}

func TestNodeTracker_DetectLeaks_Detached(t *testing.T) {
	tm := tree.New("root")
	tr := NewNodeTracker(tm)
	defer tr.Cleanup()

	// Keep references so the nodes stay retained after detach.
	nodes := make([]*tree.Node, 0, 101)
	for i := 0; i < 101; i++ {
		n := tree.NewNode(fmt.Sprintf("n%d", i))
		nodes = append(nodes, n)
		tm.Attach(tm.Root(), n)
		tm.Detach(n)
	}
	require.Equal(t, 101, tr.DetachedCount())

	suspects := tr.DetectLeaks()
	require.Len(t, suspects, 1)
	assert.Equal(t, types.CategoryDetachedNode, suspects[0].Category)
	assert.Equal(t, types.SeverityMedium, suspects[0].Severity)
	assert.Equal(t, int64(101), suspects[0].Magnitude)

	_ = nodes
}

// bulkTree is a TreeObserver with a fixed live count, standing in for a host
// tree too large to build node by node in a test.
type bulkTree struct {
	live int
}

func (b bulkTree) Observe(func(tree.Mutation)) (cancel func()) { return func() {} }
func (b bulkTree) LiveCount() int                              { return b.live }
func (b bulkTree) Contains(*tree.Node) bool                    { return false }

func TestNodeTracker_DetectLeaks_Bloat(t *testing.T) {
	tests := []struct {
		name         string
		live         int
		wantSeverity types.Severity
		wantSuspects int
	}{
		{"at threshold", 10000, 0, 0},
		{"above warn", 20000, types.SeverityHigh, 1},
		{"at crit boundary", 50000, types.SeverityHigh, 1},
		{"above crit", 50001, types.SeverityCritical, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewNodeTracker(bulkTree{live: tt.live})
			defer tr.Cleanup()

			suspects := tr.DetectLeaks()
			require.Len(t, suspects, tt.wantSuspects)
			if tt.wantSuspects == 0 {
				return
			}

			s := suspects[0]
			assert.Equal(t, types.CategoryNodeBloat, s.Category)
			assert.Equal(t, tt.wantSeverity, s.Severity)
			assert.Equal(t, int64(tt.live), s.Magnitude)
		})
	}
}

func TestNodeTracker_DetectLeaks_BelowThresholds(t *testing.T) {
	tm := tree.New("root")
	tr := NewNodeTracker(tm)
	defer tr.Cleanup()

	for i := 0; i < 50; i++ {
		tm.Attach(tm.Root(), tree.NewNode(fmt.Sprintf("n%d", i)))
	}

	assert.Empty(t, tr.DetectLeaks())
}

func TestNodeTracker_Cleanup(t *testing.T) {
	tm := tree.New("root")
	tr := NewNodeTracker(tm)

	node := tree.NewNode("panel")
	tm.Attach(tm.Root(), node)
	tm.Detach(node)
	require.Equal(t, 1, tr.DetachedCount())

	tr.Cleanup()
	assert.Equal(t, 0, tr.DetachedCount())

	// The mutation subscription is gone; further churn is not observed.
	other := tree.NewNode("other")
	tm.Attach(tm.Root(), other)
	tm.Detach(other)
	assert.Equal(t, 0, tr.DetachedCount())

	tr.Cleanup()
}
