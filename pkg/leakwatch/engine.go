// Package leakwatch monitors a running application for suspected
// memory-retention problems without heap snapshots: per-category resource
// trackers observe lifecycle events, a bounded history records periodic
// snapshots, and a rule-based detector turns counts and growth trends into
// severity-ranked suspects with remediation advice.
//
// The engine raises statistically-motivated suspicion only; it never proves
// a leak, and none of its failure modes surface as errors to the host.
package leakwatch

import (
	"context"
	"sync"
	"time"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/detect"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/history"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/logging"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/track"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// State is the engine lifecycle state.
type State int

// Engine lifecycle states. StateInert is terminal: a cleaned-up engine must
// be reconstructed, not restarted.
const (
	StateIdle State = iota
	StateRunning
	StateInert
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateInert:
		return "inert"
	default:
		return "unknown"
	}
}

// Engine owns the trackers and the snapshot history and drives the periodic
// detection cycle. All methods are safe for concurrent use.
type Engine struct {
	cfg Config
	log *logging.Logger

	listeners *track.ListenerTracker
	timers    *track.TimerTracker
	nodes     *track.NodeTracker
	store     *track.StoreTracker

	hist *history.History

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs an engine from the given configuration. Construction wraps
// the entry points of every enabled tracker; nothing runs until Start.
func New(cfg Config) *Engine {
	cfg = cfg.normalize()

	e := &Engine{
		cfg:   cfg,
		log:   logging.Get("engine"),
		hist:  history.New(),
		state: StateIdle,
	}

	if !cfg.DisableListeners {
		e.listeners = track.NewListenerTracker(cfg.ListenerOps, cfg.Trace)
	}
	if !cfg.DisableTimers {
		e.timers = track.NewTimerTracker(cfg.TimerOps, cfg.Trace)
	}
	if !cfg.DisableNodes {
		e.nodes = track.NewNodeTracker(cfg.Tree)
	}
	if !cfg.DisableStore {
		e.store = track.NewStoreTracker(cfg.Trace)
		if cfg.Discover != nil {
			if s := cfg.Discover(); s != nil {
				e.store.Patch(s)
			}
		}
	}

	e.log.Debug("engine constructed",
		"interval", cfg.Interval,
		"listeners", !cfg.DisableListeners,
		"timers", !cfg.DisableTimers,
		"nodes", !cfg.DisableNodes,
		"store", !cfg.DisableStore)

	return e
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start takes an immediate baseline snapshot and begins the periodic
// detection cycle. Starting a running engine is a no-op; starting a
// cleaned-up engine is a no-op with a warning.
func (e *Engine) Start() {
	e.mu.Lock()
	switch e.state {
	case StateRunning:
		e.mu.Unlock()
		return
	case StateInert:
		e.mu.Unlock()
		e.log.Warn("start ignored: engine has been cleaned up")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.state = StateRunning
	e.mu.Unlock()

	// Baseline snapshot so the first cycle's growth rule has something to
	// compare against.
	e.takeSnapshot()

	go e.run(ctx)
	e.log.Info("monitoring started", "interval", e.cfg.Interval)
}

// run is the periodic cycle loop. Cycles run to completion and never
// overlap; cancellation prevents future firings.
func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runCycle()
		}
	}
}

// Stop halts the periodic cycle. Trackers keep observing; Start resumes the
// cycle. Stopping a non-running engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	done := e.done
	e.state = StateIdle
	e.mu.Unlock()

	cancel()
	<-done
	e.log.Info("monitoring stopped")
}

// GenerateReport runs one detection cycle immediately and returns its
// report. It works with or without the periodic schedule running. On an
// inert engine it returns an empty report.
func (e *Engine) GenerateReport() types.Report {
	e.mu.Lock()
	inert := e.state == StateInert
	e.mu.Unlock()

	if inert {
		return types.Report{Time: time.Now()}
	}
	return e.runCycle()
}

// runCycle performs one snapshot → detect → recommend → notify pass.
func (e *Engine) runCycle() types.Report {
	snap := e.takeSnapshot()
	suspects := e.detectAll()

	report := types.Report{
		Time:            snap.Time,
		Memory:          snap.Memory,
		Counts:          snap.Counts,
		Suspects:        suspects,
		Recommendations: detect.Recommendations(suspects),
	}

	if len(suspects) > 0 {
		e.log.Warn("cycle found suspects",
			"suspects", len(suspects), "heap", snap.Memory.HumanHeapUsed())
	} else {
		e.log.Debug("cycle clean", "heap", snap.Memory.HumanHeapUsed())
	}

	for _, s := range suspects {
		if e.cfg.OnLeak != nil {
			e.cfg.OnLeak(s)
		}
	}
	if e.cfg.OnReport != nil {
		e.cfg.OnReport(report)
	}

	return report
}

// takeSnapshot reads memory counters and live counts, appends the snapshot
// to history, and returns it. Reading never mutates tracker state.
func (e *Engine) takeSnapshot() types.Snapshot {
	snap := types.Snapshot{
		Time:   time.Now(),
		Memory: e.cfg.Memory.Read(),
		Counts: e.ActiveCounts(),
	}
	e.hist.Append(snap)
	return snap
}

// detectAll runs every enabled tracker's rules plus the growth rule, in
// fixed order: listener, timer, structural, store, then growth.
func (e *Engine) detectAll() []types.LeakSuspect {
	var suspects []types.LeakSuspect

	if e.listeners != nil {
		suspects = append(suspects, e.listeners.DetectLeaks()...)
	}
	if e.timers != nil {
		suspects = append(suspects, e.timers.DetectLeaks()...)
	}
	if e.nodes != nil {
		suspects = append(suspects, e.nodes.DetectLeaks()...)
	}
	if e.store != nil {
		suspects = append(suspects, e.store.DetectLeaks()...)
	}
	if growth, ok := detect.Growth(e.hist.Last(2)); ok {
		suspects = append(suspects, growth)
	}

	return suspects
}

// ActiveCounts returns the current live count per tracked category. Disabled
// categories report zero.
func (e *Engine) ActiveCounts() types.ResourceCounts {
	var counts types.ResourceCounts
	if e.listeners != nil {
		counts.Listeners = e.listeners.ActiveCount()
	}
	if e.timers != nil {
		counts.Timers = e.timers.ActiveCount()
	}
	if e.nodes != nil {
		counts.Nodes = e.nodes.ActiveCount()
		counts.DetachedNodes = e.nodes.DetachedCount()
	}
	if e.store != nil {
		counts.StoreSubscriptions = e.store.ActiveCount()
	}
	return counts
}

// Snapshots returns a defensive copy of the snapshot history, oldest first.
func (e *Engine) Snapshots() []types.Snapshot {
	return e.hist.Snapshots()
}

// Listeners returns the listener entry-point pair the host should register
// through. With listener tracking disabled it returns the configured real
// pair unchanged.
func (e *Engine) Listeners() track.ListenerOps {
	if e.listeners == nil {
		return e.cfg.ListenerOps
	}
	return e.listeners.Ops()
}

// Timers returns the timer entry-point pair the host should schedule
// through. With timer tracking disabled it returns the configured real pair
// unchanged.
func (e *Engine) Timers() track.TimerOps {
	if e.timers == nil {
		return e.cfg.TimerOps
	}
	return e.timers.Ops()
}

// PatchStore wraps the store's subscribe operation for tracking and returns
// the wrapped store. Patching the same store twice yields the same wrapper.
// With store tracking disabled the store is returned unchanged.
func (e *Engine) PatchStore(s track.Store) track.Store {
	if e.store == nil {
		return s
	}
	return e.store.Patch(s)
}

// TrackSelectorUsage counts one invocation of the named derived-value
// function. A no-op with store tracking disabled.
func (e *Engine) TrackSelectorUsage(name string) {
	if e.store == nil {
		return
	}
	e.store.TrackSelector(name)
}

// Cleanup stops the cycle if running, restores every wrapped entry point,
// clears the snapshot history, and leaves the engine inert. Calling it twice
// is safe.
func (e *Engine) Cleanup() {
	e.mu.Lock()
	if e.state == StateInert {
		e.mu.Unlock()
		return
	}
	running := e.state == StateRunning
	cancel := e.cancel
	done := e.done
	e.state = StateInert
	e.mu.Unlock()

	if running {
		cancel()
		<-done
	}

	if e.listeners != nil {
		e.listeners.Cleanup()
	}
	if e.timers != nil {
		e.timers.Cleanup()
	}
	if e.nodes != nil {
		e.nodes.Cleanup()
	}
	if e.store != nil {
		e.store.Cleanup()
	}
	e.hist.Clear()

	e.log.Info("engine cleaned up")
}
