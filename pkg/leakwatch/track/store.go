package track

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/boundary"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/logging"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/registry"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// External-store thresholds. The subscription-count rule and the stale rule
// are independent; the selector rule is evaluated per named selector.
const (
	storeSubWarnCount = 50
	storeSubCritCount = 200

	storeStaleAge       = 10 * time.Minute
	storeStaleWarnCount = 10
	storeStaleCritCount = 50

	selectorWarnCalls  = 1000
	selectorCritCalls  = 5000
	selectorRecentness = 60 * time.Second
)

// Store is the subscribe-shaped interface an external publish/subscribe
// store exposes. Subscribe registers a listener and returns the matching
// unsubscribe function.
type Store interface {
	Subscribe(fn func()) (unsubscribe func())
}

// selectorStat counts calls to one named derived-value function.
type selectorStat struct {
	calls    int64
	lastCall time.Time
}

// StoreTracker observes subscriptions on externally supplied stores plus the
// call frequency of named selectors. Stores are registered explicitly via
// Patch; the engine never probes for them.
type StoreTracker struct {
	reg   *registry.Registry[string]
	trace boundary.TraceFunc
	log   *logging.Logger

	mu        sync.Mutex
	closed    bool
	patched   map[Store]*patchedStore
	selectors map[string]*selectorStat
}

// NewStoreTracker creates an empty store tracker.
func NewStoreTracker(trace boundary.TraceFunc) *StoreTracker {
	return &StoreTracker{
		reg:       registry.New[string](),
		trace:     trace,
		log:       logging.Get("store"),
		patched:   make(map[Store]*patchedStore),
		selectors: make(map[string]*selectorStat),
	}
}

// Name implements Tracker.
func (t *StoreTracker) Name() string { return "store" }

// Patch wraps the store's subscribe operation so that subscriptions are
// tracked. It is idempotent: patching an already-patched store instance, or a
// wrapper returned by an earlier Patch, yields the existing wrapper. Store
// implementations must be comparable (pointers are).
func (t *StoreTracker) Patch(s Store) Store {
	if s == nil {
		return nil
	}
	if ps, ok := s.(*patchedStore); ok {
		return ps
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if ps, ok := t.patched[s]; ok {
		return ps
	}

	ps := &patchedStore{
		id:      uuid.New().String(),
		inner:   s,
		tracker: t,
	}
	t.patched[s] = ps
	t.log.Debug("store patched", "store", ps.id)
	return ps
}

// patchedStore forwards Subscribe to the wrapped store while recording a
// subscription entry, and returns an unsubscribe that removes the entry
// before delegating to the original.
type patchedStore struct {
	id      string
	inner   Store
	tracker *StoreTracker
}

// Subscribe implements Store.
func (p *patchedStore) Subscribe(fn func()) (unsubscribe func()) {
	real := p.inner.Subscribe(fn)

	subID := uuid.New().String()
	guard(p.tracker.log, func() { p.tracker.record(p.id, subID) })

	return func() {
		guard(p.tracker.log, func() { p.tracker.reg.Release(p.id, subID) })
		if real != nil {
			real()
		}
	}
}

// record books a live subscription entry under the patched store's key. The
// closed check and the registry write share one critical section with Cleanup
// so a racing record cannot land after the registry is cleared.
func (t *StoreTracker) record(storeID, subID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	e := registry.Entry{
		ID:         subID,
		AcquiredAt: time.Now(),
	}
	if t.trace != nil {
		e.Trace = t.trace()
	}
	t.reg.Acquire(storeID, e)
}

// TrackSelector counts one invocation of the named derived-value function.
// Selector computation cannot be observed automatically, so collaborators
// call this once per computation.
func (t *StoreTracker) TrackSelector(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	stat, ok := t.selectors[name]
	if !ok {
		stat = &selectorStat{}
		t.selectors[name] = stat
	}
	stat.calls++
	stat.lastCall = time.Now()
}

// SelectorCalls returns the call count recorded for a selector.
func (t *StoreTracker) SelectorCalls(name string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if stat, ok := t.selectors[name]; ok {
		return stat.calls
	}
	return 0
}

// ActiveCount implements Tracker.
func (t *StoreTracker) ActiveCount() int {
	return t.reg.ActiveCount()
}

// DetectLeaks implements Tracker.
func (t *StoreTracker) DetectLeaks() []types.LeakSuspect {
	var suspects []types.LeakSuspect

	subs := t.reg.ActiveCount()
	if subs > storeSubWarnCount {
		severity := types.SeverityHigh
		if subs > storeSubCritCount {
			severity = types.SeverityCritical
		}
		suspects = append(suspects, types.LeakSuspect{
			Category:    types.CategoryStoreSubscription,
			Severity:    severity,
			Description: fmt.Sprintf("%d store subscriptions are live", subs),
			Magnitude:   int64(subs),
		})
	}

	stale := t.reg.OlderThan(time.Now().Add(-storeStaleAge))
	if stale > storeStaleWarnCount {
		severity := types.SeverityMedium
		if stale > storeStaleCritCount {
			severity = types.SeverityCritical
		}
		suspects = append(suspects, types.LeakSuspect{
			Category: types.CategoryStoreSubscription,
			Severity: severity,
			Description: fmt.Sprintf("%d store subscriptions have been live for over %s",
				stale, storeStaleAge),
			Magnitude: int64(stale),
		})
	}

	suspects = append(suspects, t.detectSelectors()...)
	return suspects
}

// detectSelectors flags runaway recomputation: a high call count alone is
// fine over a long session, it only becomes a suspect while calls are still
// arriving.
func (t *StoreTracker) detectSelectors() []types.LeakSuspect {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.selectors))
	for name := range t.selectors {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now()
	var suspects []types.LeakSuspect
	for _, name := range names {
		stat := t.selectors[name]
		if stat.calls <= selectorWarnCalls || now.Sub(stat.lastCall) > selectorRecentness {
			continue
		}

		severity := types.SeverityHigh
		if stat.calls > selectorCritCalls {
			severity = types.SeverityCritical
		}
		suspects = append(suspects, types.LeakSuspect{
			Category: types.CategoryStoreSelector,
			Severity: severity,
			Description: fmt.Sprintf("selector %q called %d times and still hot",
				name, stat.calls),
			Magnitude: stat.calls,
		})
	}

	return suspects
}

// Cleanup implements Tracker. Wrappers handed out earlier keep forwarding to
// their stores; they just stop recording. Safe to call twice.
func (t *StoreTracker) Cleanup() {
	t.mu.Lock()
	t.closed = true
	t.patched = make(map[Store]*patchedStore)
	t.selectors = make(map[string]*selectorStat)
	t.reg.Clear()
	t.mu.Unlock()
}
