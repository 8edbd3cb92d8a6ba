// Package detect holds the cross-snapshot growth rule and the recommendation
// generator. The per-category rules live with their trackers; what is here is
// everything that works over snapshots or over the combined suspect list.
package detect

import (
	"fmt"
	"math"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// Growth-rule thresholds in MB of heap-used delta between the two most
// recent snapshots.
const (
	growthWarnMB = 10
	growthCritMB = 50
)

// Growth compares the two most recent snapshots' heap-used counters and
// returns a growth suspect when the increase exceeds the warn threshold.
// With fewer than two snapshots the rule is skipped, not an error.
func Growth(snaps []types.Snapshot) (types.LeakSuspect, bool) {
	if len(snaps) < 2 {
		return types.LeakSuspect{}, false
	}

	prev := snaps[len(snaps)-2]
	curr := snaps[len(snaps)-1]

	deltaMB := curr.Memory.HeapUsedMB() - prev.Memory.HeapUsedMB()
	if deltaMB <= growthWarnMB {
		return types.LeakSuspect{}, false
	}

	severity := types.SeverityHigh
	if deltaMB > growthCritMB {
		severity = types.SeverityCritical
	}

	rounded := int64(math.Round(deltaMB))
	return types.LeakSuspect{
		Category:    types.CategoryHeapGrowth,
		Severity:    severity,
		Description: fmt.Sprintf("heap grew by %d MB since the previous snapshot", rounded),
		Magnitude:   rounded,
	}, true
}
