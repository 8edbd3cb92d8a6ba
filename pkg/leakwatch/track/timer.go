package track

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/boundary"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/logging"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/registry"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// Timer thresholds. The stale rule and the repeating rule are independent
// and may both fire in the same cycle.
const (
	timerStaleAge       = 5 * time.Minute
	timerStaleWarnCount = 10
	timerStaleCritCount = 50

	timerRepeatingWarnCount = 20
	timerRepeatingCritCount = 100
)

// TimerKind distinguishes one-shot from repeating timers.
type TimerKind int

// Timer kinds.
const (
	TimerOneShot TimerKind = iota
	TimerRepeating
)

// String returns the string representation of the kind.
func (k TimerKind) String() string {
	switch k {
	case TimerOneShot:
		return "one-shot"
	case TimerRepeating:
		return "repeating"
	default:
		return "unknown"
	}
}

// CancelFunc cancels a scheduled callback. Calling it more than once is safe.
type CancelFunc func()

// TimerOps is the pair of platform entry points for scheduled callbacks.
// After schedules a one-shot callback, Every a repeating one; both return a
// cancel function.
type TimerOps struct {
	After func(d time.Duration, fn func()) CancelFunc
	Every func(interval time.Duration, fn func()) CancelFunc
}

// RealTimerOps returns timer operations backed by the Go runtime:
// time.AfterFunc for one-shots and a ticker goroutine for repeats.
func RealTimerOps() TimerOps {
	return TimerOps{
		After: func(d time.Duration, fn func()) CancelFunc {
			timer := time.AfterFunc(d, fn)
			return func() { timer.Stop() }
		},
		Every: func(interval time.Duration, fn func()) CancelFunc {
			ticker := time.NewTicker(interval)
			done := make(chan struct{})
			go func() {
				for {
					select {
					case <-done:
						return
					case <-ticker.C:
						fn()
					}
				}
			}()

			var once sync.Once
			return func() {
				once.Do(func() {
					ticker.Stop()
					close(done)
				})
			}
		},
	}
}

// TimerTracker observes scheduled-callback churn. Live handles are recorded
// at schedule time and released on cancel; one-shot timers also release
// themselves when they fire.
type TimerTracker struct {
	slot  *boundary.Slot[TimerOps]
	reg   *registry.Registry[TimerKind]
	trace boundary.TraceFunc
	log   *logging.Logger

	mu     sync.Mutex
	closed bool
}

// NewTimerTracker wraps the given real timer operations. Pass RealTimerOps()
// unless the host schedules through its own facility.
func NewTimerTracker(real TimerOps, trace boundary.TraceFunc) *TimerTracker {
	t := &TimerTracker{
		slot:  boundary.NewSlot(real),
		reg:   registry.New[TimerKind](),
		trace: trace,
		log:   logging.Get("timer"),
	}
	t.slot.Wrap(t.wrap)
	return t
}

// Name implements Tracker.
func (t *TimerTracker) Name() string { return "timer" }

// Ops returns the current entry-point pair the host should schedule through.
func (t *TimerTracker) Ops() TimerOps {
	return t.slot.Get()
}

// wrap builds the observing shim around the real operations.
func (t *TimerTracker) wrap(real TimerOps) TimerOps {
	return TimerOps{
		After: func(d time.Duration, fn func()) CancelFunc {
			id := uuid.New().String()

			fired := func() {
				guard(t.log, func() { t.reg.Release(TimerOneShot, id) })
				fn()
			}

			var cancel CancelFunc
			if real.After != nil {
				cancel = real.After(d, fired)
			}

			guard(t.log, func() { t.record(TimerOneShot, id) })

			return func() {
				if cancel != nil {
					cancel()
				}
				guard(t.log, func() { t.reg.Release(TimerOneShot, id) })
			}
		},
		Every: func(interval time.Duration, fn func()) CancelFunc {
			id := uuid.New().String()

			var cancel CancelFunc
			if real.Every != nil {
				cancel = real.Every(interval, fn)
			}

			guard(t.log, func() { t.record(TimerRepeating, id) })

			return func() {
				if cancel != nil {
					cancel()
				}
				guard(t.log, func() { t.reg.Release(TimerRepeating, id) })
			}
		},
	}
}

// record books a live timer handle. The closed check and the registry write
// share one critical section with Cleanup so a racing record cannot land
// after the registry is cleared.
func (t *TimerTracker) record(kind TimerKind, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	e := registry.Entry{
		ID:         id,
		AcquiredAt: time.Now(),
	}
	if t.trace != nil {
		e.Trace = t.trace()
	}
	t.reg.Acquire(kind, e)
}

// ActiveCount implements Tracker.
func (t *TimerTracker) ActiveCount() int {
	return t.reg.ActiveCount()
}

// RepeatingCount returns the number of live repeating timers.
func (t *TimerTracker) RepeatingCount() int {
	return t.reg.CountFor(TimerRepeating)
}

// DetectLeaks implements Tracker. Two independent aggregate rules: timers
// outliving the stale age, and repeating timers piling up.
func (t *TimerTracker) DetectLeaks() []types.LeakSuspect {
	var suspects []types.LeakSuspect

	stale := t.reg.OlderThan(time.Now().Add(-timerStaleAge))
	if stale > timerStaleWarnCount {
		severity := types.SeverityHigh
		if stale > timerStaleCritCount {
			severity = types.SeverityCritical
		}
		suspects = append(suspects, types.LeakSuspect{
			Category: types.CategoryTimer,
			Severity: severity,
			Description: fmt.Sprintf("%d timers have been live for over %s",
				stale, timerStaleAge),
			Magnitude: int64(stale),
		})
	}

	repeating := t.reg.CountFor(TimerRepeating)
	if repeating > timerRepeatingWarnCount {
		severity := types.SeverityMedium
		if repeating > timerRepeatingCritCount {
			severity = types.SeverityCritical
		}
		suspects = append(suspects, types.LeakSuspect{
			Category:    types.CategoryTimer,
			Severity:    severity,
			Description: fmt.Sprintf("%d repeating timers are live", repeating),
			Magnitude:   int64(repeating),
		})
	}

	return suspects
}

// Cleanup implements Tracker. Restoring the slot does not cancel timers the
// host still holds; it only stops observing new ones.
func (t *TimerTracker) Cleanup() {
	t.mu.Lock()
	t.closed = true
	t.reg.Clear()
	t.mu.Unlock()

	t.slot.Restore()
}
