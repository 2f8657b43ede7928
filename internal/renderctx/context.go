package renderctx

import (
	"sync"

	"github.com/kazvorn/goray/internal/bvh"
	"github.com/kazvorn/goray/internal/geom"
	"github.com/kazvorn/goray/internal/spectrum"
	"github.com/kazvorn/goray/internal/stats"
)

// PathDebugEntry records one vertex of a traced path, kept only when
// a Context's DebugPath slice is non-nil, recovered as a supplemental
// feature from the original's PathDebugging.h.
type PathDebugEntry struct {
	Origin    geom.Vec3
	Direction geom.Vec3
	Throughput spectrum.Color
	Event     uint32
}

// Context is the per-worker scratch state threaded through a tile's
// rendering: RNG, traversal stacks, the active wavelength sample, and
// running counters. Exactly one Context is live per scheduler worker
// at a time, acquired from a pool rather than allocated per ray.
type Context struct {
	RNG *RNG

	Stack       bvh.Stack
	SceneStack  bvh.Stack // second stack for the two-level scene/object traversal
	RayPacket   geom.RayPacket

	Wavelength spectrum.Wavelength

	Counters      stats.Counters
	LocalCounters stats.Counters

	// DebugPath, when non-nil, accumulates PathDebugEntry values for
	// the single ray currently being traced in debug mode.
	DebugPath []PathDebugEntry
}

// Reset clears per-pixel-sample state (wavelength, local counters, and
// debug path) without discarding the RNG stream or reallocating
// scratch buffers, mirroring RenderingContext::Reset in the original.
func (c *Context) Reset() {
	c.LocalCounters.Reset()
	c.Wavelength = spectrum.Wavelength{}
	if c.DebugPath != nil {
		c.DebugPath = c.DebugPath[:0]
	}
}

// pool recycles Context values across tiles and workers the same way
// lixenwraith-vi-fighter/event/pool.go's sync.Pool-backed
// Acquire/Release helpers recycle request structs: reset before
// reuse, reset again before returning, never leak state between
// borrowers.
var pool = sync.Pool{
	New: func() any {
		return &Context{RNG: NewRNG(1)}
	},
}

// Acquire borrows a Context seeded with seed, resetting all transient
// state before returning it.
func Acquire(seed uint64) *Context {
	ctx := pool.Get().(*Context)
	ctx.RNG.Reseed(seed)
	ctx.Stack.Reset()
	ctx.SceneStack.Reset()
	ctx.RayPacket.Clear()
	ctx.Counters.Reset()
	ctx.Reset()
	return ctx
}

// Release returns ctx to the pool after clearing anything a future
// borrower must not see.
func Release(ctx *Context) {
	ctx.DebugPath = nil
	pool.Put(ctx)
}
