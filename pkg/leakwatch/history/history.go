// Package history keeps the bounded sliding window of periodic snapshots the
// growth rule works from.
package history

import (
	"sync"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// Capacity is the maximum number of snapshots retained. Insertion is append;
// the oldest snapshot is evicted when capacity is exceeded.
const Capacity = 100

// History is a fixed-capacity ordered buffer of snapshots, oldest first.
type History struct {
	mu    sync.RWMutex
	snaps []types.Snapshot
}

// New creates an empty history.
func New() *History {
	return &History{
		snaps: make([]types.Snapshot, 0, Capacity),
	}
}

// Append adds a snapshot, evicting the oldest entries beyond Capacity.
func (h *History) Append(s types.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.snaps = append(h.snaps, s)
	if len(h.snaps) > Capacity {
		// Copy down rather than re-slice so evicted entries do not pin the
		// backing array.
		n := copy(h.snaps, h.snaps[len(h.snaps)-Capacity:])
		h.snaps = h.snaps[:n]
	}
}

// Len returns the number of retained snapshots.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.snaps)
}

// Snapshots returns a defensive copy of the retained snapshots in order.
// Caller mutation does not affect internal history.
func (h *History) Snapshots() []types.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]types.Snapshot, len(h.snaps))
	copy(out, h.snaps)
	return out
}

// Last returns up to n most recent snapshots in order, oldest first.
func (h *History) Last(n int) []types.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n > len(h.snaps) {
		n = len(h.snaps)
	}
	out := make([]types.Snapshot, n)
	copy(out, h.snaps[len(h.snaps)-n:])
	return out
}

// Clear drops every retained snapshot.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snaps = h.snaps[:0]
}
