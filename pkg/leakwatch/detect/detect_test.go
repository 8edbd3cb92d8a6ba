package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

func snapshotMB(mb uint64) types.Snapshot {
	return types.Snapshot{
		Time:   time.Now(),
		Memory: types.MemoryCounters{HeapUsed: mb * 1024 * 1024},
	}
}

func TestGrowth(t *testing.T) {
	tests := []struct {
		name          string
		heapMB        []uint64
		wantSuspect   bool
		wantSeverity  types.Severity
		wantMagnitude int64
	}{
		{"no snapshots", nil, false, 0, 0},
		{"one snapshot", []uint64{100}, false, 0, 0},
		{"flat", []uint64{100, 100}, false, 0, 0},
		{"shrinking", []uint64{100, 80}, false, 0, 0},
		{"small growth", []uint64{100, 105}, false, 0, 0},
		{"at warn boundary", []uint64{100, 110}, false, 0, 0},
		{"above warn", []uint64{100, 112}, true, types.SeverityHigh, 12},
		{"at crit boundary", []uint64{100, 150}, true, types.SeverityHigh, 50},
		{"above crit", []uint64{100, 160}, true, types.SeverityCritical, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snaps := make([]types.Snapshot, 0, len(tt.heapMB))
			for _, mb := range tt.heapMB {
				snaps = append(snaps, snapshotMB(mb))
			}

			s, ok := Growth(snaps)
			require.Equal(t, tt.wantSuspect, ok)
			if !ok {
				return
			}

			assert.Equal(t, types.CategoryHeapGrowth, s.Category)
			assert.Equal(t, tt.wantSeverity, s.Severity)
			assert.Equal(t, tt.wantMagnitude, s.Magnitude)
		})
	}
}

func TestGrowth_ComparesOnlyLastTwo(t *testing.T) {
	// Earlier growth is irrelevant; only the two newest snapshots count.
	snaps := []types.Snapshot{snapshotMB(10), snapshotMB(200), snapshotMB(201)}

	_, ok := Growth(snaps)
	assert.False(t, ok)
}

func TestRecommendations(t *testing.T) {
	suspects := []types.LeakSuspect{
		{Category: types.CategoryListener},
		{Category: types.CategoryTimer},
	}

	recs := Recommendations(suspects)
	require.Len(t, recs, 2)
	assert.Contains(t, recs[0], "listeners")
	assert.Contains(t, recs[1], "timers")
}

func TestRecommendations_Dedup(t *testing.T) {
	// Two suspects in the same category yield one recommendation.
	suspects := []types.LeakSuspect{
		{Category: types.CategoryListener, Severity: types.SeverityHigh},
		{Category: types.CategoryListener, Severity: types.SeverityCritical},
		{Category: types.CategoryHeapGrowth},
	}

	recs := Recommendations(suspects)
	assert.Len(t, recs, 2)
}

func TestRecommendations_Empty(t *testing.T) {
	assert.Empty(t, Recommendations(nil))
}

func TestRecommendations_EveryCategoryCovered(t *testing.T) {
	categories := []types.Category{
		types.CategoryListener,
		types.CategoryTimer,
		types.CategoryNodeBloat,
		types.CategoryDetachedNode,
		types.CategoryHeapGrowth,
		types.CategoryStoreSubscription,
		types.CategoryStoreSelector,
	}

	for _, c := range categories {
		recs := Recommendations([]types.LeakSuspect{{Category: c}})
		assert.Len(t, recs, 1, "category %s has no advice", c)
	}
}
