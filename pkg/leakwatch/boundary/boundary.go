// Package boundary provides the instrumentation boundary between the engine
// and the hosting application. Each tracker observes a resource category by
// wrapping the host's acquire/release entry points; the boundary makes that
// wrapping explicit: a Slot holds "the current real operation" and the
// capability to install and restore a wrapper, so install/restore order is
// testable instead of implicit global mutation.
package boundary

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// Slot holds a swappable entry-point value for one resource category.
// At most one wrapper is installed at a time; installing a second wrapper is
// a no-op, and Restore puts back the original value exactly.
type Slot[T any] struct {
	mu       sync.Mutex
	original T
	current  T
	wrapped  bool
}

// NewSlot creates a slot around the real entry-point value.
func NewSlot[T any](real T) *Slot[T] {
	return &Slot[T]{original: real, current: real}
}

// Get returns the current entry-point value. Callers of the platform
// operation go through this so an installed wrapper observes the call.
func (s *Slot[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Wrap installs a wrapper built from the original value. It returns false
// without installing if a wrapper is already in place.
func (s *Slot[T]) Wrap(wrap func(real T) T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wrapped {
		return false
	}

	s.current = wrap(s.original)
	s.wrapped = true
	return true
}

// Restore puts back the original entry-point value. It is idempotent:
// restoring an unwrapped slot is a no-op.
func (s *Slot[T]) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.wrapped {
		return
	}

	s.current = s.original
	s.wrapped = false
}

// Wrapped reports whether a wrapper is currently installed.
func (s *Slot[T]) Wrapped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrapped
}

// TraceFunc captures an opaque diagnostic-context string at acquisition time.
// The engine stores and surfaces the string for leak attribution but never
// parses it. A nil TraceFunc disables capture.
type TraceFunc func() string

// callerTraceDepth is how many frames CallerTrace records.
const callerTraceDepth = 8

// CallerTrace is the default TraceFunc. It records a short caller stack,
// skipping the tracker's own frames. Capture cost is accepted as a tradeoff
// for attribution.
func CallerTrace() string {
	pcs := make([]uintptr, callerTraceDepth)
	// Skip runtime.Callers, CallerTrace, and the tracker's wrapper frame.
	n := runtime.Callers(3, pcs)
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			fmt.Fprintf(&sb, "%s (%s:%d)\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
