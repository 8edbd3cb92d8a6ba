package leakwatch

import (
	"time"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/boundary"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/track"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// Default cycle settings.
const (
	// DefaultInterval is the default detection cycle period.
	DefaultInterval = 30 * time.Second

	// DefaultMemoryAlertMB is the default memory alert threshold. The value
	// is advisory: no detector rule compares absolute heap usage against it,
	// it is carried for consumers that want to.
	DefaultMemoryAlertMB = 300
)

// Config configures an Engine. It is immutable after construction. The zero
// value enables every tracker; the Disable flags switch categories off.
type Config struct {
	// DisableListeners turns off event-listener tracking.
	DisableListeners bool

	// DisableTimers turns off timer tracking.
	DisableTimers bool

	// DisableNodes turns off structural-tree tracking.
	DisableNodes bool

	// DisableStore turns off external-store tracking.
	DisableStore bool

	// Interval is the detection cycle period. Zero or negative means
	// DefaultInterval.
	Interval time.Duration

	// MemoryAlertMB is the advisory memory alert threshold in MB. Zero or
	// negative means DefaultMemoryAlertMB. Accepted as given otherwise:
	// thresholds are heuristics, not safety constraints.
	MemoryAlertMB int

	// OnReport receives the combined report of each detection cycle.
	OnReport func(types.Report)

	// OnLeak receives each individual suspect, in detection order, before
	// OnReport fires.
	OnLeak func(types.LeakSuspect)

	// ListenerOps is the host's real listener entry-point pair. May be zero;
	// the engine's wrapped pair then only tracks.
	ListenerOps track.ListenerOps

	// TimerOps is the host's real timer entry-point pair. Zero means
	// track.RealTimerOps().
	TimerOps track.TimerOps

	// Tree is the structural-tree facility to observe. Nil degrades to zero
	// tracked nodes.
	Tree track.TreeObserver

	// Memory reads the host's memory counters. Nil means the runtime-backed
	// source.
	Memory boundary.MemorySource

	// Trace captures a diagnostic context at acquisition time. Nil means
	// boundary.CallerTrace. Use NoTrace to disable capture.
	Trace boundary.TraceFunc

	// Discover is an optional convenience hook supplied by the collaborator
	// layer: called once at construction, a non-nil result is patched as if
	// passed to PatchStore.
	Discover func() track.Store
}

// NoTrace is a TraceFunc that disables diagnostic capture.
func NoTrace() string { return "" }

// DefaultConfig returns a configuration with all trackers enabled and
// default cycle settings.
func DefaultConfig() Config {
	return Config{
		Interval:      DefaultInterval,
		MemoryAlertMB: DefaultMemoryAlertMB,
	}
}

// normalize fills zero-valued fields with their defaults.
func (c Config) normalize() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MemoryAlertMB <= 0 {
		c.MemoryAlertMB = DefaultMemoryAlertMB
	}
	if c.Memory == nil {
		c.Memory = boundary.RuntimeSource{}
	}
	if c.Trace == nil {
		c.Trace = boundary.CallerTrace
	}
	if c.TimerOps.After == nil && c.TimerOps.Every == nil {
		c.TimerOps = track.RealTimerOps()
	}
	return c
}
