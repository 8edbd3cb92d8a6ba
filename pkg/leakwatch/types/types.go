// Package types provides core data types for the leakwatch retention monitor.
// It includes leak suspect categories and severities, memory counters,
// point-in-time snapshots, and the report delivered to consumers after each
// detection cycle.
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Severity ranks how strongly a suspect indicates a retention problem.
// Severities are ordered: Low < Medium < High < Critical.
type Severity int

// Severity levels from least to most alarming.
const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ErrInvalidSeverity is returned when an invalid severity string is provided.
var ErrInvalidSeverity = errors.New("invalid severity")

// ParseSeverity parses a string into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return SeverityLow, fmt.Errorf("%w: %s", ErrInvalidSeverity, s)
	}
}

// Category identifies the resource class a leak suspect belongs to.
type Category string

// Suspect categories, one per tracked resource class plus the cross-snapshot
// growth rule.
const (
	// CategoryListener covers event-subscription handles that pile up on a
	// single (target, event) key.
	CategoryListener Category = "listener"

	// CategoryTimer covers scheduled callbacks that were never cancelled.
	CategoryTimer Category = "timer"

	// CategoryNodeBloat covers an oversized live structural tree.
	CategoryNodeBloat Category = "node-bloat"

	// CategoryDetachedNode covers tree nodes removed from the tree but still
	// referenced somewhere, so never collected.
	CategoryDetachedNode Category = "detached-node"

	// CategoryHeapGrowth covers sustained heap growth between snapshots.
	CategoryHeapGrowth Category = "heap-growth"

	// CategoryStoreSubscription covers external-store subscriptions that were
	// never unsubscribed.
	CategoryStoreSubscription Category = "store-subscription"

	// CategoryStoreSelector covers runaway recomputation of named store
	// selectors.
	CategoryStoreSelector Category = "store-selector"
)

// LeakSuspect is a severity-ranked indication that a resource category may be
// leaking. Suspects are produced fresh on every detection cycle and never
// persisted.
type LeakSuspect struct {
	// Category is the resource class this suspect belongs to.
	Category Category `json:"category" yaml:"category"`

	// Severity ranks how alarming the observation is.
	Severity Severity `json:"severity" yaml:"severity"`

	// Description is a human-readable summary of the observation.
	Description string `json:"description" yaml:"description"`

	// Magnitude is the count or MB value behind the suspect, depending on
	// the category.
	Magnitude int64 `json:"magnitude" yaml:"magnitude"`

	// Trace is an optional diagnostic context captured at acquisition time.
	// The engine stores and surfaces it but never parses it.
	Trace string `json:"trace,omitempty" yaml:"trace,omitempty"`
}

// MemoryCounters holds approximate memory usage read from the host runtime.
// All values are bytes and zero-filled when the host does not expose them.
type MemoryCounters struct {
	// HeapUsed is the number of bytes of live heap objects.
	HeapUsed uint64 `json:"heap_used" yaml:"heap_used"`

	// HeapTotal is the number of bytes obtained from the OS for the heap.
	HeapTotal uint64 `json:"heap_total" yaml:"heap_total"`

	// External is memory held outside the heap (stacks, runtime structures).
	External uint64 `json:"external" yaml:"external"`

	// Buffers is memory held by buffer-like allocations.
	Buffers uint64 `json:"buffers" yaml:"buffers"`
}

// HeapUsedMB returns the heap-used counter in whole megabytes.
func (m MemoryCounters) HeapUsedMB() float64 {
	return float64(m.HeapUsed) / (1024 * 1024)
}

// HumanHeapUsed returns the heap-used counter as a human-readable string.
func (m MemoryCounters) HumanHeapUsed() string {
	return humanize.IBytes(m.HeapUsed)
}

// ResourceCounts holds the live count of every tracked resource category at a
// point in time.
type ResourceCounts struct {
	// Listeners is the number of live event-subscription handles.
	Listeners int `json:"listeners" yaml:"listeners"`

	// Timers is the number of live scheduled callbacks.
	Timers int `json:"timers" yaml:"timers"`

	// Nodes is the number of live structural-tree nodes.
	Nodes int `json:"nodes" yaml:"nodes"`

	// DetachedNodes is the number of removed-but-retained tree nodes.
	DetachedNodes int `json:"detached_nodes" yaml:"detached_nodes"`

	// StoreSubscriptions is the number of live external-store subscriptions.
	StoreSubscriptions int `json:"store_subscriptions" yaml:"store_subscriptions"`
}

// Snapshot is an immutable point-in-time measurement of memory counters and
// live resource counts. Snapshots are created only by the engine's cycle or an
// on-demand report request and never mutated afterwards.
type Snapshot struct {
	// Time is when the snapshot was taken.
	Time time.Time `json:"time" yaml:"time"`

	// Memory holds the memory counters at snapshot time.
	Memory MemoryCounters `json:"memory" yaml:"memory"`

	// Counts holds the live resource counts at snapshot time.
	Counts ResourceCounts `json:"counts" yaml:"counts"`
}

// Report is the combined result of one detection cycle. It is delivered to
// the consumer's callback and not retained by the engine.
type Report struct {
	// Time is when the cycle ran.
	Time time.Time `json:"time" yaml:"time"`

	// Memory holds the memory counters observed during the cycle.
	Memory MemoryCounters `json:"memory" yaml:"memory"`

	// Counts holds the live resource counts observed during the cycle.
	Counts ResourceCounts `json:"counts" yaml:"counts"`

	// Suspects lists the leak suspects in detection order: listener, timer,
	// structural, store, then growth.
	Suspects []LeakSuspect `json:"suspects" yaml:"suspects"`

	// Recommendations is the deduplicated remediation advice derived from the
	// suspect categories present.
	Recommendations []string `json:"recommendations" yaml:"recommendations"`
}

// HasCritical reports whether any suspect in the report is critical.
func (r *Report) HasCritical() bool {
	for _, s := range r.Suspects {
		if s.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
