// Package stats holds the optional ray-tracing counters the core
// reports to callers (spec.md §6, "RayTracingCounters"), recovered from
// Core/Rendering/Counters.h in the original source.
package stats

// Counters tallies ray/box and ray/triangle test counts. It is cheap
// enough to always update (plain int64 additions on a per-thread
// value); the scheduler merges per-worker Counters after each tile the
// same way RenderingContext.counters.Append worked in the original.
type Counters struct {
	NumPrimaryRays            int64
	NumRayBoxTests            int64
	NumPassedRayBoxTests      int64
	NumRayTriangleTests       int64
	NumPassedRayTriangleTests int64
}

// Reset zeroes all counters.
func (c *Counters) Reset() {
	*c = Counters{}
}

// Append adds other's counts into c, used to fold a per-tile local
// counter block into the worker's running totals.
func (c *Counters) Append(other Counters) {
	c.NumPrimaryRays += other.NumPrimaryRays
	c.NumRayBoxTests += other.NumRayBoxTests
	c.NumPassedRayBoxTests += other.NumPassedRayBoxTests
	c.NumRayTriangleTests += other.NumRayTriangleTests
	c.NumPassedRayTriangleTests += other.NumPassedRayTriangleTests
}
