package boundary

import (
	"runtime"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// MemorySource reads approximate memory counters from the hosting runtime.
// A source that cannot provide a counter zero-fills it rather than failing.
type MemorySource interface {
	Read() types.MemoryCounters
}

// RuntimeSource reads counters from the Go runtime via runtime.ReadMemStats.
type RuntimeSource struct{}

// Read returns the current runtime memory counters.
func (RuntimeSource) Read() types.MemoryCounters {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return types.MemoryCounters{
		HeapUsed:  m.HeapAlloc,
		HeapTotal: m.HeapSys,
		External:  m.Sys - m.HeapSys,
		Buffers:   m.StackInuse,
	}
}

// ZeroSource stands in when the host exposes no memory counters. All reads
// return zero-filled counters.
type ZeroSource struct{}

// Read returns zero-filled counters.
func (ZeroSource) Read() types.MemoryCounters {
	return types.MemoryCounters{}
}
