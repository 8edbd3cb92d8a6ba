// Package track implements the per-resource-type trackers: event listeners,
// scheduled timers, structural-tree nodes, and external-store subscriptions.
// Each tracker wraps its category's acquire/release entry points through an
// instrumentation boundary slot, records live handles in a registry, and
// turns counts into severity-ranked leak suspects on demand.
package track

import (
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/logging"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// Tracker is the contract every resource tracker satisfies.
type Tracker interface {
	// Name identifies the tracker in logs and reports.
	Name() string

	// ActiveCount returns the number of currently live handles.
	ActiveCount() int

	// DetectLeaks classifies the tracker's current state into zero or more
	// leak suspects. It reads tracker state but never mutates it.
	DetectLeaks() []types.LeakSuspect

	// Cleanup restores the wrapped entry points and clears tracker state.
	// It is idempotent.
	Cleanup()
}

// Every tracker satisfies the contract.
var (
	_ Tracker = (*ListenerTracker)(nil)
	_ Tracker = (*TimerTracker)(nil)
	_ Tracker = (*NodeTracker)(nil)
	_ Tracker = (*StoreTracker)(nil)
)

// guard runs bookkeeping that must never propagate a failure into the host's
// call path: the shim forwards the real operation regardless of what the
// tracking side does.
func guard(log *logging.Logger, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("tracking bookkeeping failed", "panic", r)
		}
	}()
	fn()
}
