// Package integrator implements the unidirectional path tracer: next
// event estimation against every light plus power-heuristic MIS
// against the BSDF-sampled path, Russian roulette past a configurable
// depth, per spec.md §4.6 and grounded on
// _examples/original_source/RaytracerLib/Rendering/PathTracer.cpp's
// TraceRay_Single/SampleLight/SampleLights.
package integrator

import (
	"github.com/kazvorn/goray/internal/geom"
	"github.com/kazvorn/goray/internal/light"
	"github.com/kazvorn/goray/internal/material"
	"github.com/kazvorn/goray/internal/renderctx"
	"github.com/kazvorn/goray/internal/scene"
	"github.com/kazvorn/goray/internal/spectrum"
)

// Params bounds the integrator's per-sample work, per spec.md §4.6's
// depth/Russian-roulette/NEE toggles.
type Params struct {
	MaxRayDepth             int
	MinRussianRouletteDepth int
	SampleLights            bool
}

// DefaultParams returns the original's shipped depth/RR defaults.
func DefaultParams() Params {
	return Params{MaxRayDepth: 8, MinRussianRouletteDepth: 5, SampleLights: true}
}

const shadowBias = 1e-3

// TraceRay runs one primary ray through the scene at the given render
// time and returns its estimated radiance, per spec.md §4.6's
// iterative path-tracing loop.
func TraceRay(s *scene.Scene, ctx *renderctx.Context, params Params, primaryRay geom.Ray, time float32) spectrum.Color {
	ctx.LocalCounters.Reset()
	hit, found := s.Traverse(ctx, time, primaryRay)
	ctx.Counters.Append(ctx.LocalCounters)

	return TraceRayFromHit(s, ctx, params, primaryRay, time, hit, found)
}

// TraceRayFromHit continues path tracing from a primary-ray
// intersection already resolved by a batched SIMD-8 or packet
// traversal front end (scheduler.renderTile's Simd/Packet modes),
// avoiding a redundant scalar re-traversal of the first hit. TraceRay
// is this function with that first Traverse call folded back in.
func TraceRayFromHit(s *scene.Scene, ctx *renderctx.Context, params Params, primaryRay geom.Ray, time float32, primaryHit scene.HitRecord, primaryFound bool) spectrum.Color {
	ray := primaryRay
	hit, found := primaryHit, primaryFound

	result := spectrum.Zero()
	throughput := spectrum.One()

	lastSpecular := true
	lastPdfW := float32(1)

	for depth := 0; ; depth++ {
		if depth > 0 {
			ctx.LocalCounters.Reset()
			hit, found = s.Traverse(ctx, time, ray)
			ctx.Counters.Append(ctx.LocalCounters)
		}

		if !found {
			result = result.Add(throughput.Mul(missRadiance(s, ctx, ray, depth, lastSpecular, lastPdfW, params)))
			break
		}

		obj := &s.Objects[hit.ObjectIndex]
		sd := s.Extract(time, ray, hit)
		sd.Material.EvaluateShadingData(&sd)

		if li := obj.ObjectLight(); li >= 0 {
			result = result.Add(throughput.Mul(surfaceLightRadiance(s, ctx, &s.Lights[li], ray, hit, &sd, depth, lastSpecular, lastPdfW, params)))
			break
		}

		emission := spectrum.SampleRGB(ctx.Wavelength, sd.Material.Emission)
		result = result.Add(throughput.Mul(emission))

		if params.SampleLights {
			result = result.Add(throughput.Mul(sampleLights(s, ctx, &sd, time)))
		}

		if depth >= params.MaxRayDepth {
			break
		}

		if depth >= params.MinRussianRouletteDepth {
			threshold := throughput.Max()
			if ctx.RNG.Float() > threshold {
				break
			}
			throughput = throughput.Scale(1 / threshold)
		}

		wl := ctx.Wavelength
		bsdfColor, wi, pdf, event := sd.Material.Sample(&wl, &sd, ctx.RNG)
		ctx.Wavelength = wl

		throughput = throughput.Mul(bsdfColor)
		if throughput.AlmostZero() || event == material.NullEvent {
			break
		}

		throughput = throughput.Scale(1 / pdf)
		lastSpecular = event.IsDelta()
		lastPdfW = pdf

		if ctx.DebugPath != nil {
			ctx.DebugPath = append(ctx.DebugPath, renderctx.PathDebugEntry{
				Origin: ray.Origin, Direction: ray.Dir, Throughput: throughput, Event: uint32(event),
			})
		}

		ray = geom.NewRay(sd.Position.Add(wi.Mul(shadowBias)), wi)
	}

	return result
}

// missRadiance evaluates the background light's contribution when a
// ray leaves the scene, MIS-weighted against the BSDF pdf that
// produced this ray (unless it's the primary ray or the last bounce
// was a delta event).
func missRadiance(s *scene.Scene, ctx *renderctx.Context, ray geom.Ray, depth int, lastSpecular bool, lastPdfW float32, params Params) spectrum.Color {
	bg := backgroundLight(s)
	if bg == nil {
		return spectrum.Zero()
	}
	radiance, directPdfW := bg.Radiance(ctx.Wavelength, ray.Dir, geom.Vec3{})
	if radiance.AlmostZero() {
		return spectrum.Zero()
	}
	weight := float32(1)
	if params.SampleLights && depth > 0 && !lastSpecular {
		weight = geom.PowerHeuristic(1, lastPdfW, 1, directPdfW)
	}
	return radiance.Scale(weight)
}

// surfaceLightRadiance evaluates an area light's emitted radiance when
// a path ray directly hits its surface.
func surfaceLightRadiance(s *scene.Scene, ctx *renderctx.Context, l *light.Light, ray geom.Ray, hit scene.HitRecord, sd *material.ShadingData, depth int, lastSpecular bool, lastPdfW float32, params Params) spectrum.Color {
	radiance, directPdfA := l.Radiance(ctx.Wavelength, ray.Dir, sd.Position)
	if radiance.AlmostZero() {
		return spectrum.Zero()
	}
	weight := float32(1)
	if params.SampleLights && depth > 0 && !lastSpecular {
		cosTheta := geom.Abs32(ray.Dir.Dot(sd.Normal))
		directPdfW := geom.PdfAtoW(directPdfA, hit.Distance, cosTheta)
		weight = geom.PowerHeuristic(1, lastPdfW, 1, directPdfW)
	}
	return radiance.Scale(weight)
}

// sampleLights performs next-event estimation against every light in
// the scene, per spec.md §4.6's "sample lights directly" step,
// grounded on SampleLights/SampleLight.
func sampleLights(s *scene.Scene, ctx *renderctx.Context, sd *material.ShadingData, time float32) spectrum.Color {
	accum := spectrum.Zero()
	for i := range s.Lights {
		accum = accum.Add(sampleOneLight(s, ctx, &s.Lights[i], sd, time))
	}
	return accum
}

func sampleOneLight(s *scene.Scene, ctx *renderctx.Context, l *light.Light, sd *material.ShadingData, time float32) spectrum.Color {
	dir, dist, radiance, directPdfW := l.Illuminate(ctx.Wavelength, sd.Position, ctx.RNG)
	if radiance.AlmostZero() || directPdfW <= 0 {
		return spectrum.Zero()
	}

	bsdfColor, bsdfPdfW := sd.Material.Evaluate(ctx.Wavelength, sd, dir)
	if bsdfColor.AlmostZero() {
		return spectrum.Zero()
	}

	shadowRay := geom.NewRay(sd.Position.Add(dir.Mul(shadowBias)), dir)
	if s.TraverseShadow(ctx, time, shadowRay, dist-2*shadowBias) {
		return spectrum.Zero()
	}

	weight := float32(1)
	if !l.IsDelta() {
		weight = geom.PowerHeuristic(1, directPdfW, 1, bsdfPdfW)
	}
	return radiance.Mul(bsdfColor).Scale(weight / directPdfW)
}

// backgroundLight returns the scene's environment light, if any
// (spec.md §3's Scene owns at most one background light).
func backgroundLight(s *scene.Scene) *light.Light {
	for i := range s.Lights {
		if s.Lights[i].Kind == light.KindBackground {
			return &s.Lights[i]
		}
	}
	return nil
}
