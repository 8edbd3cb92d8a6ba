package detect

import (
	"github.com/samber/lo"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// advice maps each suspect category to its remediation hint.
var advice = map[types.Category]string{
	types.CategoryListener:          "remove event listeners when their owner is torn down",
	types.CategoryTimer:             "cancel timers on teardown; prefer one-shot timers that clean up after themselves",
	types.CategoryNodeBloat:         "prune or virtualize large structural subtrees instead of keeping every node attached",
	types.CategoryDetachedNode:      "drop references to removed nodes so they can be collected",
	types.CategoryHeapGrowth:        "profile recent allocations; steady heap growth usually means a collection that only ever grows",
	types.CategoryStoreSubscription: "call the unsubscribe function returned by the store when the consumer goes away",
	types.CategoryStoreSelector:     "memoize hot selectors or move their computation out of the notification path",
}

// Recommendations maps the set of suspect categories present to a
// deduplicated advice list, in suspect order.
func Recommendations(suspects []types.LeakSuspect) []string {
	recs := make([]string, 0, len(suspects))
	for _, s := range suspects {
		if r, ok := advice[s.Category]; ok {
			recs = append(recs, r)
		}
	}
	return lo.Uniq(recs)
}
