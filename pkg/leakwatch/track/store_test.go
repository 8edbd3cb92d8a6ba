package track

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/registry"
	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// fakeStore is a minimal subscribable store.
type fakeStore struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{subs: make(map[int]func())}
}

func (s *fakeStore) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *fakeStore) subCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func TestStoreTracker_Patch_SubscribeUnsubscribe(t *testing.T) {
	tr := NewStoreTracker(nil)
	defer tr.Cleanup()

	store := newFakeStore()
	patched := tr.Patch(store)
	require.NotNil(t, patched)

	unsub := patched.Subscribe(func() {})
	assert.Equal(t, 1, tr.ActiveCount())
	assert.Equal(t, 1, store.subCount())

	// Unsubscribe releases the tracked handle and reaches the real store.
	unsub()
	assert.Equal(t, 0, tr.ActiveCount())
	assert.Equal(t, 0, store.subCount())
}

func TestStoreTracker_Patch_Idempotent(t *testing.T) {
	tr := NewStoreTracker(nil)
	defer tr.Cleanup()

	store := newFakeStore()
	first := tr.Patch(store)
	second := tr.Patch(store)
	assert.Same(t, first, second)

	// Patching the wrapper itself is a passthrough, not double wrapping.
	assert.Same(t, first, tr.Patch(first))
}

func TestStoreTracker_MultipleStores(t *testing.T) {
	tr := NewStoreTracker(nil)
	defer tr.Cleanup()

	a := tr.Patch(newFakeStore())
	b := tr.Patch(newFakeStore())

	a.Subscribe(func() {})
	a.Subscribe(func() {})
	b.Subscribe(func() {})

	assert.Equal(t, 3, tr.ActiveCount())
}

func TestStoreTracker_DetectLeaks_Subscriptions(t *testing.T) {
	tests := []struct {
		name         string
		subs         int
		wantSeverity types.Severity
		wantSuspects int
	}{
		{"below threshold", 50, 0, 0},
		{"above warn", 60, types.SeverityHigh, 1},
		{"above crit", 201, types.SeverityCritical, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewStoreTracker(nil)
			defer tr.Cleanup()

			patched := tr.Patch(newFakeStore())
			for i := 0; i < tt.subs; i++ {
				patched.Subscribe(func() {})
			}

			suspects := tr.DetectLeaks()
			require.Len(t, suspects, tt.wantSuspects)
			if tt.wantSuspects == 0 {
				return
			}

			s := suspects[0]
			assert.Equal(t, types.CategoryStoreSubscription, s.Category)
			assert.Equal(t, tt.wantSeverity, s.Severity)
			assert.Equal(t, int64(tt.subs), s.Magnitude)
		})
	}
}

func TestStoreTracker_DetectLeaks_Stale(t *testing.T) {
	tests := []struct {
		name         string
		stale        int
		wantSeverity types.Severity
		wantSuspects int
	}{
		{"at threshold", 10, 0, 0},
		{"above warn", 11, types.SeverityMedium, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewStoreTracker(nil)
			defer tr.Cleanup()

			// Seed subscriptions old enough to trip the stale rule while
			// staying under the count rule.
			acquired := time.Now().Add(-storeStaleAge - time.Minute)
			for i := 0; i < tt.stale; i++ {
				tr.reg.Acquire("store", registry.Entry{
					ID:         fmt.Sprintf("s%d", i),
					AcquiredAt: acquired,
				})
			}

			suspects := tr.DetectLeaks()
			require.Len(t, suspects, tt.wantSuspects)
			if tt.wantSuspects == 0 {
				return
			}

			s := suspects[0]
			assert.Equal(t, types.CategoryStoreSubscription, s.Category)
			assert.Equal(t, tt.wantSeverity, s.Severity)
			assert.Equal(t, int64(tt.stale), s.Magnitude)
		})
	}
}

func TestStoreTracker_DetectLeaks_StaleCritical(t *testing.T) {
	tr := NewStoreTracker(nil)
	defer tr.Cleanup()

	// 51 subscriptions older than the stale age trip both independent
	// rules: the count rule at high and the stale rule at critical.
	acquired := time.Now().Add(-storeStaleAge - time.Minute)
	for i := 0; i < 51; i++ {
		tr.reg.Acquire("store", registry.Entry{
			ID:         fmt.Sprintf("s%d", i),
			AcquiredAt: acquired,
		})
	}

	suspects := tr.DetectLeaks()
	require.Len(t, suspects, 2)
	assert.Equal(t, types.SeverityHigh, suspects[0].Severity)
	assert.Equal(t, types.SeverityCritical, suspects[1].Severity)
	assert.Equal(t, int64(51), suspects[0].Magnitude)
	assert.Equal(t, int64(51), suspects[1].Magnitude)
}

func TestStoreTracker_Selectors(t *testing.T) {
	tr := NewStoreTracker(nil)
	defer tr.Cleanup()

	for i := 0; i < 5; i++ {
		tr.TrackSelector("selectItems")
	}
	assert.Equal(t, int64(5), tr.SelectorCalls("selectItems"))
	assert.Equal(t, int64(0), tr.SelectorCalls("unknown"))
}

func TestStoreTracker_DetectLeaks_HotSelector(t *testing.T) {
	tr := NewStoreTracker(nil)
	defer tr.Cleanup()

	// Calls just made are within the recentness window.
	for i := 0; i < 1001; i++ {
		tr.TrackSelector("selectVisible")
	}

	suspects := tr.DetectLeaks()
	require.Len(t, suspects, 1)
	s := suspects[0]
	assert.Equal(t, types.CategoryStoreSelector, s.Category)
	assert.Equal(t, types.SeverityHigh, s.Severity)
	assert.Equal(t, int64(1001), s.Magnitude)
	assert.Contains(t, s.Description, "selectVisible")
}

func TestStoreTracker_DetectLeaks_SelectorBelowThreshold(t *testing.T) {
	tr := NewStoreTracker(nil)
	defer tr.Cleanup()

	for i := 0; i < 1000; i++ {
		tr.TrackSelector("selectVisible")
	}
	assert.Empty(t, tr.DetectLeaks())
}

func TestStoreTracker_Cleanup(t *testing.T) {
	tr := NewStoreTracker(nil)

	store := newFakeStore()
	patched := tr.Patch(store)
	patched.Subscribe(func() {})
	require.Equal(t, 1, tr.ActiveCount())

	tr.Cleanup()
	assert.Equal(t, 0, tr.ActiveCount())

	// Earlier wrappers keep forwarding to the real store but no longer
	// record anything.
	patched.Subscribe(func() {})
	assert.Equal(t, 2, store.subCount())
	assert.Equal(t, 0, tr.ActiveCount())

	tr.Cleanup()
}
