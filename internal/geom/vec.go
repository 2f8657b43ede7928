// Package geom provides the math primitives shared by the ray-tracing
// core: 4-lane and 8-lane float bundles, axis-aligned boxes, rays and
// ray packets, and the small numeric helpers the rest of the module
// leans on.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is a 3-component float32 vector. It wraps mgl32.Vec3 rather than
// reinventing vector math, matching how the teacher package always
// reaches for mathgl instead of hand-rolling arithmetic.
type Vec3 = mgl32.Vec3

// Vec4 is a 4-component float32 vector, used for positions/boxes where
// a padding lane keeps values naturally aligned.
type Vec4 = mgl32.Vec4

// Vec2 is a 2-component float32 vector, used for UVs and NDC coordinates.
type Vec2 = mgl32.Vec2

// Zero3 is the zero vector, spelled out because mgl32.Vec3{} already
// means this but call sites read clearer with a name.
var Zero3 = Vec3{0, 0, 0}

// MinComponent returns the smallest of the vector's three lanes.
func MinComponent(v Vec3) float32 {
	m := v[0]
	if v[1] < m {
		m = v[1]
	}
	if v[2] < m {
		m = v[2]
	}
	return m
}

// MaxComponent returns the largest of the vector's three lanes.
func MaxComponent(v Vec3) float32 {
	m := v[0]
	if v[1] > m {
		m = v[1]
	}
	if v[2] > m {
		m = v[2]
	}
	return m
}

// MinVec3 returns the component-wise minimum of a and b.
func MinVec3(a, b Vec3) Vec3 {
	return Vec3{
		float32(math.Min(float64(a[0]), float64(b[0]))),
		float32(math.Min(float64(a[1]), float64(b[1]))),
		float32(math.Min(float64(a[2]), float64(b[2]))),
	}
}

// MaxVec3 returns the component-wise maximum of a and b.
func MaxVec3(a, b Vec3) Vec3 {
	return Vec3{
		float32(math.Max(float64(a[0]), float64(b[0]))),
		float32(math.Max(float64(a[1]), float64(b[1]))),
		float32(math.Max(float64(a[2]), float64(b[2]))),
	}
}

// SignMask returns a 3-bit mask with bit i set when lane i of v is negative.
func SignMask(v Vec3) uint8 {
	var m uint8
	if v[0] < 0 {
		m |= 1
	}
	if v[1] < 0 {
		m |= 2
	}
	if v[2] < 0 {
		m |= 4
	}
	return m
}

// Axis identifies one of the three coordinate axes, used by the BVH
// builder's split-axis bookkeeping and the traversal order heuristic.
type Axis uint8

const (
	AxisX Axis = 0
	AxisY Axis = 1
	AxisZ Axis = 2
)

// Component returns the value of v along the given axis.
func Component(v Vec3, a Axis) float32 {
	return v[a]
}

// OrthonormalBasis builds a right-handed tangent/bitangent frame around
// the unit normal n using the Duff et al. branchless construction, so
// that z maps to n in the resulting local frame.
func OrthonormalBasis(n Vec3) (tangent, bitangent Vec3) {
	sign := float32(1)
	if n[2] < 0 {
		sign = -1
	}
	a := -1 / (sign + n[2])
	b := n[0] * n[1] * a
	tangent = Vec3{1 + sign*n[0]*n[0]*a, sign * b, -sign * n[0]}
	bitangent = Vec3{b, sign + n[1]*n[1]*a, -n[1]}
	return tangent, bitangent
}
