package geom

import "math"

// Box is an axis-aligned bounding box stored as two corners, mirroring
// the BVH node's own min/max layout so builder code can copy between
// the two without reshaping data.
type Box struct {
	Min, Max Vec3
}

// EmptyBox returns the identity element of Union: an inverted box whose
// min is +inf and max is -inf, so unioning it with anything yields that
// thing unchanged.
func EmptyBox() Box {
	inf := float32(math.Inf(1))
	return Box{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether b is the empty box (or degenerate in the same way).
func (b Box) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Union returns the smallest box containing both a and b.
func Union(a, b Box) Box {
	return Box{
		Min: MinVec3(a.Min, b.Min),
		Max: MaxVec3(a.Max, b.Max),
	}
}

// Union is the method form of the package-level Union, used by builder
// code that folds boxes one at a time (b.Union(other)).
func (b Box) Union(other Box) Box {
	return Union(b, other)
}

// UnionPoint returns the smallest box containing b and the point p.
func UnionPoint(b Box, p Vec3) Box {
	return Box{Min: MinVec3(b.Min, p), Max: MaxVec3(b.Max, p)}
}

// UnionTriangle returns the smallest box containing b and the triangle
// with the given three vertices.
func UnionTriangle(b Box, v0, v1, v2 Vec3) Box {
	b = UnionPoint(b, v0)
	b = UnionPoint(b, v1)
	b = UnionPoint(b, v2)
	return b
}

// Extent returns Max - Min.
func (b Box) Extent() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b Box) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// SurfaceArea returns the total area of the box's six faces. Used by
// the SAH split-cost heuristic (heuristic = SurfaceArea, the default).
func (b Box) SurfaceArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	e := b.Extent()
	return 2 * (e[0]*e[1] + e[1]*e[2] + e[2]*e[0])
}

// Volume returns the box's volume. Used by the SAH heuristic when
// configured to Volume instead of SurfaceArea.
func (b Box) Volume() float32 {
	if b.IsEmpty() {
		return 0
	}
	e := b.Extent()
	return e[0] * e[1] * e[2]
}

// Contains reports whether other is fully contained within b, within a
// small epsilon to absorb float rounding from repeated unions.
func (b Box) Contains(other Box) bool {
	const eps = 1e-4
	return other.Min[0] >= b.Min[0]-eps && other.Min[1] >= b.Min[1]-eps && other.Min[2] >= b.Min[2]-eps &&
		other.Max[0] <= b.Max[0]+eps && other.Max[1] <= b.Max[1]+eps && other.Max[2] <= b.Max[2]+eps
}

// Transform applies an affine transform to the box's eight corners and
// returns the new axis-aligned bounds, used when promoting an object's
// local-space box into world space (scene top-level BVH, motion blur).
func (b Box) Transform(m [16]float32) Box {
	corners := [8]Vec3{
		{b.Min[0], b.Min[1], b.Min[2]}, {b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]}, {b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]}, {b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]}, {b.Max[0], b.Max[1], b.Max[2]},
	}
	out := EmptyBox()
	for _, c := range corners {
		x := m[0]*c[0] + m[4]*c[1] + m[8]*c[2] + m[12]
		y := m[1]*c[0] + m[5]*c[1] + m[9]*c[2] + m[13]
		z := m[2]*c[0] + m[6]*c[1] + m[10]*c[2] + m[14]
		out = UnionPoint(out, Vec3{x, y, z})
	}
	return out
}
