// Package renderctx holds the per-worker rendering state threaded
// through every traversal and shading call: the RNG, scratch BVH
// stacks and ray packets, running counters, the active hero
// wavelength, and an optional path-debug recorder (spec.md §6,
// "RenderingContext").
package renderctx

import (
	"math"

	"github.com/kazvorn/goray/internal/geom"
)

// RNG is a seeded linear-congruential generator, adapted from
// voxelgame/pkg/math/rng.go's SeededRNG and extended with the 2D
// jitter and cosine-weighted hemisphere sampling primitives the
// integrator and BSDFs need.
type RNG struct {
	state uint64
	m     uint64
	a     uint64
	c     uint64
}

// NewRNG seeds a generator the same way SeededRNG does: a 48-bit LCG
// with the drand48 multiplier/increment constants.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		state: seed,
		m:     1 << 48,
		a:     0x5DEECE66D,
		c:     0xB,
	}
}

// Reseed resets the generator's state without reallocating it.
func (r *RNG) Reseed(seed uint64) { r.state = seed }

// Next returns the next raw state word, advancing the LCG.
func (r *RNG) next() uint64 {
	r.state = (r.a*r.state + r.c) % r.m
	return r.state
}

// Float returns a uniform float32 in [0, 1).
func (r *RNG) Float() float32 {
	return float32(r.next()>>24) / (1 << 24)
}

// Float64 returns a uniform float64 in [0, 1), used where an extra
// few bits of precision matter (e.g. seeding a Wavelength hero draw).
func (r *RNG) Float64() float64 {
	return float64(r.next()) / float64(r.m)
}

// Float2 returns a pair of independent uniform floats in [0, 1), used
// for pixel jitter and 2D hemisphere sampling.
func (r *RNG) Float2() (float32, float32) {
	return r.Float(), r.Float()
}

// Float8 fills all 8 lanes of a Vec8 with independent uniform samples,
// used to seed SIMD-8 and packet-mode batches in one call.
func (r *RNG) Float8() geom.Vec8 {
	var v geom.Vec8
	for i := range v {
		v[i] = r.Float()
	}
	return v
}

// CosineSampleHemisphere draws a direction distributed proportionally
// to cos(theta) about +Z using a polar (square-root radius) disk mapping,
// returning the direction and its PDF (cos(theta)/pi). The diffuse
// BSDF transforms the result into its local shading frame.
func (r *RNG) CosineSampleHemisphere() (dir geom.Vec3, pdf float32) {
	u1, u2 := r.Float2()
	r1 := float32(math.Sqrt(float64(u1)))
	theta := 2 * math.Pi * float64(u2)
	x := r1 * float32(math.Cos(theta))
	y := r1 * float32(math.Sin(theta))
	z := float32(math.Sqrt(math.Max(0, float64(1-u1))))
	dir = geom.Vec3{x, y, z}
	pdf = z * invPi
	return dir, pdf
}

const invPi = 1.0 / math.Pi
