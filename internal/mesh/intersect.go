package mesh

import "github.com/kazvorn/goray/internal/geom"

// detEpsilon rejects near-edge-on rays whose determinant is too small
// to invert stably, per spec.md §4.3's "epsilon only on the
// determinant (≈ 1e-7f)".
const detEpsilon = 1e-7

// Hit is the result of a successful triangle intersection: the
// distance along the ray and the hit's barycentric (u, v) coordinates.
type Hit struct {
	T       float32
	U, V    float32
	TriIdx  uint32
}

// Intersect runs the Möller–Trumbore test against a single
// precomputed triangle, returning the nearest hit closer than tMax.
// Accepts barycentrics in [0,1] with u+v <= 1 and strictly positive t,
// matching spec.md §4.3's edge rules.
func Intersect(r geom.Ray, tri ProcessedTriangle, tMax float32) (Hit, bool) {
	pvec := r.Dir.Cross(tri.Edge2)
	det := tri.Edge1.Dot(pvec)
	if det > -detEpsilon && det < detEpsilon {
		return Hit{}, false
	}
	invDet := 1 / det

	tvec := r.Origin.Sub(tri.V0)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return Hit{}, false
	}

	qvec := tvec.Cross(tri.Edge1)
	v := r.Dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return Hit{}, false
	}

	t := tri.Edge2.Dot(qvec) * invDet
	if t <= 0 || t >= tMax {
		return Hit{}, false
	}

	return Hit{T: t, U: u, V: v}, true
}

// IntersectNearest scans triangles [first, first+count) of a
// VertexBuffer's processed cache and returns the closest hit under
// tMax, tagging the result with the winning triangle's index, the
// spec's tie-break rule ("lower primitive index wins" is upheld
// automatically since only strictly-closer hits replace the best).
func (vb *VertexBuffer) IntersectNearest(r geom.Ray, first uint32, count uint16, tMax float32) (Hit, bool) {
	best := Hit{}
	found := false
	for i := uint32(0); i < uint32(count); i++ {
		idx := first + i
		if h, ok := Intersect(r, vb.Processed[idx], tMax); ok {
			h.TriIdx = idx
			best = h
			found = true
			tMax = h.T
		}
	}
	return best, found
}

// IntersectAny is the shadow/any-hit variant: it returns as soon as
// any triangle in range blocks the ray, without finding the nearest.
func (vb *VertexBuffer) IntersectAny(r geom.Ray, first uint32, count uint16, tMax float32) bool {
	for i := uint32(0); i < uint32(count); i++ {
		if _, ok := Intersect(r, vb.Processed[first+i], tMax); ok {
			return true
		}
	}
	return false
}
