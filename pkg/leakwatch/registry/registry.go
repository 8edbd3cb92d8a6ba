// Package registry provides the live-handle ledger shared by the resource
// trackers. A registry maps a category-specific key to the set of currently
// live handles acquired under that key, and its footprint stays proportional
// to live resources: a key entry is destroyed as soon as its handle set
// becomes empty.
package registry

import (
	"sync"
	"time"
)

// Entry records one live acquisition.
type Entry struct {
	// ID is the opaque handle identity. Identity equality only.
	ID string

	// AcquiredAt is when the resource was acquired.
	AcquiredAt time.Time

	// Trace is an optional diagnostic context captured at acquisition time.
	Trace string
}

// Registry is a mutable, in-memory ledger of currently live resource handles
// for one resource category, keyed by K. Handles may be acquired and released
// from any goroutine.
type Registry[K comparable] struct {
	mu      sync.RWMutex
	entries map[K]map[string]Entry
}

// New creates an empty registry.
func New[K comparable]() *Registry[K] {
	return &Registry[K]{
		entries: make(map[K]map[string]Entry),
	}
}

// Acquire records a live handle under the given key.
func (r *Registry[K]) Acquire(key K, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.entries[key]
	if !ok {
		set = make(map[string]Entry)
		r.entries[key] = set
	}
	set[e.ID] = e
}

// Release removes the handle with the given ID from the key's set. Releasing
// a handle that is not tracked is a no-op, never an error: real-world cleanup
// calls may race or double-fire. If the key's set becomes empty the key entry
// itself is removed.
func (r *Registry[K]) Release(key K, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.entries[key]
	if !ok {
		return false
	}
	if _, ok := set[id]; !ok {
		return false
	}

	delete(set, id)
	if len(set) == 0 {
		delete(r.entries, key)
	}
	return true
}

// ActiveCount returns the number of live handles across all keys.
func (r *Registry[K]) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, set := range r.entries {
		total += len(set)
	}
	return total
}

// CountFor returns the number of live handles under one key.
func (r *Registry[K]) CountFor(key K) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries[key])
}

// Keys returns the keys that currently have live handles.
func (r *Registry[K]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]K, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	return keys
}

// OlderThan returns the number of live handles acquired before the cutoff.
func (r *Registry[K]) OlderThan(cutoff time.Time) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, set := range r.entries {
		for _, e := range set {
			if e.AcquiredAt.Before(cutoff) {
				count++
			}
		}
	}
	return count
}

// Each calls fn for every live handle. Iteration order is unspecified.
func (r *Registry[K]) Each(fn func(key K, e Entry)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for k, set := range r.entries {
		for _, e := range set {
			fn(k, e)
		}
	}
}

// OldestTrace returns the diagnostic trace of the oldest live handle under
// the given key, or empty if none carries one.
func (r *Registry[K]) OldestTrace(key K) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var oldest Entry
	found := false
	for _, e := range r.entries[key] {
		if !found || e.AcquiredAt.Before(oldest.AcquiredAt) {
			oldest = e
			found = true
		}
	}
	if !found {
		return ""
	}
	return oldest.Trace
}

// Clear removes every entry.
func (r *Registry[K]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[K]map[string]Entry)
}
