// Package stats keeps process-wide counters for the low-level intersection
// routines so tests can verify how much work a query actually performed.
//
// The counters are write-shared without synchronization and are only
// meaningful in a single-threaded harness. Concurrent callers should rely on
// the per-query DebugStats of the kdtracer package instead.
package stats

// Counters tracks how many times each intersection routine ran since the
// last Reset.
type Counters struct {
	RayVsAabb     uint64
	RayVsTriangle uint64
}

// Global is incremented by the collision and mollertrumbore packages.
var Global Counters

// Reset zeroes all counters. Callers reset at the start of each query.
func Reset() {
	Global = Counters{}
}
