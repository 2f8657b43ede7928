// Package scheduler partitions a framebuffer into tiles and dispatches
// them across a fixed-size worker pool, per spec.md §4.7 and §5
// ("Concurrency & Resource Model"). The stop/drain shape is grounded
// on lixenwraith-vi-fighter/engine/clock_scheduler.go's stopChan +
// sync.Once + sync.WaitGroup pattern, the nearest concurrency
// primitive in the retrieved corpus; the per-tile Morton iteration is
// a hand-rolled bit-deinterleave grounded on the original's
// DecodeMorton (Viewport.cpp), a software fallback for the original's
// _pext_u32 intrinsic.
package scheduler

import (
	"runtime"
	"sync"

	"github.com/kazvorn/goray/internal/camera"
	"github.com/kazvorn/goray/internal/framebuffer"
	"github.com/kazvorn/goray/internal/geom"
	"github.com/kazvorn/goray/internal/integrator"
	"github.com/kazvorn/goray/internal/renderctx"
	"github.com/kazvorn/goray/internal/scene"
	"github.com/kazvorn/goray/internal/spectrum"
	"github.com/kazvorn/goray/internal/stats"
)

// TraversalMode selects how primary rays for one pixel are generated
// and traced, per spec.md §6's rendering-parameters enumeration.
type TraversalMode uint8

const (
	Single TraversalMode = iota
	Simd
	Packet
)

// Params is the enumerated set of per-render parameters from
// spec.md §6, with defaults from DefaultParams. Values are used as
// given; nothing validates or clamps them.
type Params struct {
	Integrator integrator.Params

	SamplesPerPixel    int
	AntiAliasingSpread float32
	TileOrder          int
	Traversal          TraversalMode
	Time               float32 // fixed shutter time in [0,1] for this render; 0 disables motion blur sampling
}

// DefaultParams returns spec.md §6's default rendering parameters.
func DefaultParams() Params {
	return Params{
		Integrator:         integrator.DefaultParams(),
		SamplesPerPixel:    1,
		AntiAliasingSpread: 1.5,
		TileOrder:          4,
		Traversal:          Single,
	}
}

// Scheduler owns a fixed-size worker pool that consumes tile jobs off
// a buffered channel; a Render call is a barrier, blocking until every
// tile of that render completes (spec.md §5).
type Scheduler struct {
	numWorkers int

	jobs chan tileJob
	wg   sync.WaitGroup

	stopChan chan struct{}
	stopOnce sync.Once
}

type tileJob struct {
	x0, y0, size int
	scene        *scene.Scene
	cam          camera.Camera
	fb           *framebuffer.Framebuffer
	params       Params
	seed         uint64
	counters     *stats.Counters
}

// New creates a scheduler with numWorkers goroutines; numWorkers <= 0
// defaults to runtime.GOMAXPROCS(0), matching the original's
// "sized to hardware concurrency" rule (spec.md §5).
func New(numWorkers int) *Scheduler {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	s := &Scheduler{
		numWorkers: numWorkers,
		jobs:       make(chan tileJob, numWorkers*4),
		stopChan:   make(chan struct{}),
	}
	for i := 0; i < numWorkers; i++ {
		go s.worker()
	}
	return s
}

// Stop halts every worker goroutine. The scheduler must not be used
// again afterwards.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Scheduler) worker() {
	for {
		select {
		case <-s.stopChan:
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			renderTile(job)
			s.wg.Done()
		}
	}
}

// Render partitions fb into tileOrder-sized tiles and submits one job
// per tile, blocking until all tiles finish, per spec.md §4.7's
// Render() steps 1-4. The caller's per-render seed lets repeated
// renders of the same frame draw independent sample streams.
func (s *Scheduler) Render(sc *scene.Scene, cam camera.Camera, fb *framebuffer.Framebuffer, params Params, seed uint64) stats.Counters {
	tileSize := 1 << uint(params.TileOrder)
	cols := 1 + (fb.Width-1)/tileSize
	rows := 1 + (fb.Height-1)/tileSize

	tileCounters := make([]stats.Counters, rows*cols)

	s.wg.Add(rows * cols)
	idx := 0
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			s.jobs <- tileJob{
				x0: tx * tileSize, y0: ty * tileSize, size: tileSize,
				scene: sc, cam: cam, fb: fb, params: params,
				seed:     seed ^ uint64(idx)*0x9E3779B97F4A7C15,
				counters: &tileCounters[idx],
			}
			idx++
		}
	}
	s.wg.Wait()

	var merged stats.Counters
	for i := range tileCounters {
		merged.Append(tileCounters[i])
	}
	fb.SamplesAccumulated += uint32(params.SamplesPerPixel)
	return merged
}

// renderTile draws every pixel of one tile, per spec.md §4.7 step 3,
// dispatching to the scalar, SIMD-8, or packet front end named by
// job.params.Traversal.
func renderTile(job tileJob) {
	switch job.params.Traversal {
	case Simd, Packet:
		renderTileBatched(job)
	default:
		renderTileSingle(job)
	}
}

// renderTileSingle draws every pixel of one tile in Morton order,
// tracing one scalar primary ray per sample.
func renderTileSingle(job tileJob) {
	ctx := renderctx.Acquire(job.seed)
	defer renderctx.Release(ctx)

	maxX := job.x0 + job.size
	if maxX > job.fb.Width {
		maxX = job.fb.Width
	}
	maxY := job.y0 + job.size
	if maxY > job.fb.Height {
		maxY = job.fb.Height
	}

	invW := 2 / float32(job.fb.Width)
	invH := 2 / float32(job.fb.Height)

	for i := uint32(0); i < uint32(job.size*job.size); i++ {
		lx, ly := decodeMorton(i)
		x := job.x0 + int(lx)
		y := job.y0 + int(ly)
		if x >= maxX || y >= maxY {
			continue
		}

		for sample := 0; sample < job.params.SamplesPerPixel; sample++ {
			jx, jy := ctx.RNG.Float2()
			ox := (jx - 0.5) * job.params.AntiAliasingSpread
			oy := (jy - 0.5) * job.params.AntiAliasingSpread

			// NDC is in [-1, 1], y up; framebuffer rows run top-down.
			ndc := geom.Vec2{
				(float32(x)+0.5+ox)*invW - 1,
				1 - (float32(y)+0.5+oy)*invH,
			}

			ctx.Wavelength = spectrum.NewHeroWavelength(ctx.RNG.Float())
			ctx.Counters.NumPrimaryRays++

			ray := job.cam.GenerateRay(ndc, ctx.RNG)
			color := integrator.TraceRay(job.scene, ctx, job.params.Integrator, ray, job.params.Time)
			rgb := color.ToRGB(ctx.Wavelength)
			job.fb.Accumulate(x, y, rgb.R, rgb.G, rgb.B)
		}

		job.counters.Append(ctx.Counters)
		ctx.Counters.Reset()
	}
}

// tilePixel is one framebuffer pixel awaiting a batched primary ray.
type tilePixel struct{ x, y int }

// renderTileBatched draws a tile under the SIMD-8 or packet traversal
// modes: primary rays are gathered 8 at a time (in Morton order, so
// each batch stays spatially coherent) and their first hit is resolved
// with one call into scene.TraverseSIMD8 or scene.TraversePacket,
// which tests each top-level BVH node against all 8 lanes at once.
// Shading and the rest of each path's bounces remain per-lane scalar
// work, handed off to integrator.TraceRayFromHit.
func renderTileBatched(job tileJob) {
	ctx := renderctx.Acquire(job.seed)
	defer renderctx.Release(ctx)

	maxX := job.x0 + job.size
	if maxX > job.fb.Width {
		maxX = job.fb.Width
	}
	maxY := job.y0 + job.size
	if maxY > job.fb.Height {
		maxY = job.fb.Height
	}

	invW := 2 / float32(job.fb.Width)
	invH := 2 / float32(job.fb.Height)

	pixels := make([]tilePixel, 0, job.size*job.size)
	for i := uint32(0); i < uint32(job.size*job.size); i++ {
		lx, ly := decodeMorton(i)
		x := job.x0 + int(lx)
		y := job.y0 + int(ly)
		if x < maxX && y < maxY {
			pixels = append(pixels, tilePixel{x, y})
		}
	}

	for sample := 0; sample < job.params.SamplesPerPixel; sample++ {
		for base := 0; base < len(pixels); base += geom.LaneCount {
			n := geom.LaneCount
			if base+n > len(pixels) {
				n = len(pixels) - base
			}

			var ndc8 [geom.LaneCount]geom.Vec2
			var px, py [geom.LaneCount]int
			for lane := 0; lane < n; lane++ {
				p := pixels[base+lane]
				jx, jy := ctx.RNG.Float2()
				ox := (jx - 0.5) * job.params.AntiAliasingSpread
				oy := (jy - 0.5) * job.params.AntiAliasingSpread
				ndc8[lane] = geom.Vec2{
					(float32(p.x)+0.5+ox)*invW - 1,
					1 - (float32(p.y)+0.5+oy)*invH,
				}
				px[lane], py[lane] = p.x, p.y
			}
			// Pad a partial tail batch by repeating the last real lane so
			// the box-test math over all 8 lanes stays finite; padded
			// lanes are never read back (loop below only runs to n).
			for lane := n; lane < geom.LaneCount; lane++ {
				ndc8[lane] = ndc8[n-1]
			}

			r8 := job.cam.GenerateRay8(ndc8, ctx.RNG)

			var hits [geom.LaneCount]scene.HitRecord
			var found [geom.LaneCount]bool
			if job.params.Traversal == Simd {
				hits, found = job.scene.TraverseSIMD8(ctx, job.params.Time, r8)
			} else {
				var packet geom.RayPacket
				packet.PushGroup(geom.RayGroup{Rays: r8})
				batches := job.scene.TraversePacket(ctx, job.params.Time, &packet)
				hits, found = batches[0].Hits, batches[0].Found
			}

			for lane := 0; lane < n; lane++ {
				ctx.Wavelength = spectrum.NewHeroWavelength(ctx.RNG.Float())
				ctx.Counters.NumPrimaryRays++

				ray := r8.Ray(lane)
				color := integrator.TraceRayFromHit(job.scene, ctx, job.params.Integrator, ray, job.params.Time, hits[lane], found[lane])
				rgb := color.ToRGB(ctx.Wavelength)
				job.fb.Accumulate(px[lane], py[lane], rgb.R, rgb.G, rgb.B)
			}
		}
	}

	job.counters.Append(ctx.Counters)
}

// decodeMorton deinterleaves a Z-curve index into its (x, y)
// coordinates, a software fallback for the original's _pext_u32-based
// DecodeMorton.
func decodeMorton(index uint32) (x, y uint32) {
	return compact1By1(index), compact1By1(index >> 1)
}

// compact1By1 extracts every other bit starting at bit 0, the inverse
// of the usual bit-spread interleave.
func compact1By1(v uint32) uint32 {
	v &= 0x55555555
	v = (v ^ (v >> 1)) & 0x33333333
	v = (v ^ (v >> 2)) & 0x0f0f0f0f
	v = (v ^ (v >> 4)) & 0x00ff00ff
	v = (v ^ (v >> 8)) & 0x0000ffff
	return v
}
