package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// snapshotWithHeap builds a snapshot whose heap-used counter doubles as a
// sequence marker.
func snapshotWithHeap(heap uint64) types.Snapshot {
	return types.Snapshot{
		Time:   time.Now(),
		Memory: types.MemoryCounters{HeapUsed: heap},
	}
}

func TestHistory_Append(t *testing.T) {
	h := New()
	assert.Equal(t, 0, h.Len())

	h.Append(snapshotWithHeap(1))
	h.Append(snapshotWithHeap(2))
	assert.Equal(t, 2, h.Len())
}

func TestHistory_Append_EvictsOldest(t *testing.T) {
	h := New()

	for i := 1; i <= Capacity+50; i++ {
		h.Append(snapshotWithHeap(uint64(i)))
	}

	require.Equal(t, Capacity, h.Len())

	snaps := h.Snapshots()
	// The oldest 50 are gone; the newest Capacity remain in order.
	assert.Equal(t, uint64(51), snaps[0].Memory.HeapUsed)
	assert.Equal(t, uint64(Capacity+50), snaps[len(snaps)-1].Memory.HeapUsed)
}

func TestHistory_Snapshots_Copy(t *testing.T) {
	h := New()
	h.Append(snapshotWithHeap(1))

	snaps := h.Snapshots()
	snaps[0].Memory.HeapUsed = 999

	assert.Equal(t, uint64(1), h.Snapshots()[0].Memory.HeapUsed)
}

func TestHistory_Last(t *testing.T) {
	h := New()
	for i := 1; i <= 5; i++ {
		h.Append(snapshotWithHeap(uint64(i)))
	}

	last := h.Last(2)
	require.Len(t, last, 2)
	assert.Equal(t, uint64(4), last[0].Memory.HeapUsed)
	assert.Equal(t, uint64(5), last[1].Memory.HeapUsed)

	// Asking for more than exists returns everything.
	assert.Len(t, h.Last(10), 5)
	assert.Empty(t, New().Last(2))
}

func TestHistory_Clear(t *testing.T) {
	h := New()
	h.Append(snapshotWithHeap(1))
	h.Append(snapshotWithHeap(2))

	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Snapshots())
}
