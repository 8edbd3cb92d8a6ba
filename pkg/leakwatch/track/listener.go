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

// Listener thresholds, evaluated independently per (target, event) key.
const (
	listenerWarnCount = 50
	listenerCritCount = 100
)

// Handler is an event callback registered with a target.
type Handler func(payload any)

// ListenerKey identifies one subscription point: a named target plus an
// event kind.
type ListenerKey struct {
	// Target names the emitter the handler is attached to.
	Target string

	// Event is the event kind subscribed to.
	Event string
}

// ListenerOps is the pair of platform entry points for event subscriptions.
// Add attaches a handler and returns its handle token; Remove detaches the
// handler identified by the token. Hosts route their registrations through
// the wrapped pair obtained from the engine.
type ListenerOps struct {
	Add    func(target, event string, h Handler) string
	Remove func(target, event, token string)
}

// ListenerTracker observes event-subscription churn. The wrapped Add records
// a live handle keyed by (target, event); the wrapped Remove releases exactly
// that handle. The real operations are forwarded unchanged either way.
type ListenerTracker struct {
	slot  *boundary.Slot[ListenerOps]
	reg   *registry.Registry[ListenerKey]
	trace boundary.TraceFunc
	log   *logging.Logger

	mu     sync.Mutex
	closed bool
}

// NewListenerTracker wraps the host-supplied real listener operations.
// Either function of the real pair may be nil; the shim then only tracks.
func NewListenerTracker(real ListenerOps, trace boundary.TraceFunc) *ListenerTracker {
	t := &ListenerTracker{
		slot:  boundary.NewSlot(real),
		reg:   registry.New[ListenerKey](),
		trace: trace,
		log:   logging.Get("listener"),
	}
	t.slot.Wrap(t.wrap)
	return t
}

// Name implements Tracker.
func (t *ListenerTracker) Name() string { return "listener" }

// Ops returns the current entry-point pair the host should call. While the
// tracker is active this is the observing shim; after Cleanup it is the
// original pair.
func (t *ListenerTracker) Ops() ListenerOps {
	return t.slot.Get()
}

// wrap builds the observing shim around the real operations.
func (t *ListenerTracker) wrap(real ListenerOps) ListenerOps {
	return ListenerOps{
		Add: func(target, event string, h Handler) string {
			var token string
			if real.Add != nil {
				token = real.Add(target, event, h)
			}
			if token == "" {
				token = uuid.New().String()
			}

			guard(t.log, func() { t.record(target, event, token) })
			return token
		},
		Remove: func(target, event, token string) {
			if real.Remove != nil {
				real.Remove(target, event, token)
			}

			guard(t.log, func() {
				t.reg.Release(ListenerKey{Target: target, Event: event}, token)
			})
		},
	}
}

// record books a live handle for the given subscription point. The closed
// check and the registry write share one critical section with Cleanup so a
// racing record cannot land after the registry is cleared.
func (t *ListenerTracker) record(target, event, token string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	e := registry.Entry{
		ID:         token,
		AcquiredAt: time.Now(),
	}
	if t.trace != nil {
		e.Trace = t.trace()
	}
	t.reg.Acquire(ListenerKey{Target: target, Event: event}, e)
}

// ActiveCount implements Tracker.
func (t *ListenerTracker) ActiveCount() int {
	return t.reg.ActiveCount()
}

// CountFor returns the live handle count for one subscription point.
func (t *ListenerTracker) CountFor(target, event string) int {
	return t.reg.CountFor(ListenerKey{Target: target, Event: event})
}

// DetectLeaks implements Tracker. A suspect fires for each (target, event)
// key whose live count exceeds the warn threshold.
func (t *ListenerTracker) DetectLeaks() []types.LeakSuspect {
	var suspects []types.LeakSuspect

	keys := t.reg.Keys()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Target != keys[j].Target {
			return keys[i].Target < keys[j].Target
		}
		return keys[i].Event < keys[j].Event
	})

	for _, key := range keys {
		count := t.reg.CountFor(key)
		if count <= listenerWarnCount {
			continue
		}

		severity := types.SeverityHigh
		if count > listenerCritCount {
			severity = types.SeverityCritical
		}

		suspects = append(suspects, types.LeakSuspect{
			Category: types.CategoryListener,
			Severity: severity,
			Description: fmt.Sprintf("target %q has %d live %q listeners",
				key.Target, count, key.Event),
			Magnitude: int64(count),
			Trace:     t.reg.OldestTrace(key),
		})
	}

	return suspects
}

// Cleanup implements Tracker. It restores the original entry points and
// clears the registry. Calling it twice is safe.
func (t *ListenerTracker) Cleanup() {
	t.mu.Lock()
	t.closed = true
	t.reg.Clear()
	t.mu.Unlock()

	t.slot.Restore()
}
