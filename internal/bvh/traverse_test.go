package bvh

import (
	"testing"

	"github.com/kazvorn/goray/internal/geom"
)

func buildGrid(n int) Result {
	prims := make([]Primitive, n)
	for i := 0; i < n; i++ {
		x := float32(i)
		prims[i] = Primitive{Box: boxAt(x, 0, 0), Centroid: geom.Vec3{x, 0, 0}, Index: uint32(i)}
	}
	return Build(prims, DefaultBuildParams())
}

func TestTraverseScalarFindsNearestLeaf(t *testing.T) {
	res := buildGrid(10)
	var stk Stack

	r := geom.NewRay(geom.Vec3{-5, 0, 0}, geom.Vec3{1, 0, 0})

	var hitIndices []uint32
	tMax := float32(1e30)
	TraverseScalar(&res.BVH, &stk, r, 1e-4, tMax, func(first uint32, count uint16, tm float32) float32 {
		for i := uint32(0); i < uint32(count); i++ {
			hitIndices = append(hitIndices, res.LeafIndices[first+i])
		}
		return tm
	})

	if len(hitIndices) == 0 {
		t.Fatalf("expected at least one leaf hit along the grid")
	}
	// Primitive 0 (the box at x=0) is the first one the ray meets.
	foundNearest := false
	for _, idx := range hitIndices {
		if idx == 0 {
			foundNearest = true
		}
	}
	if !foundNearest {
		t.Fatalf("expected the nearest primitive 0 among the visited leaves, got %v", hitIndices)
	}
}

func TestTraverseScalarMissesParallelRay(t *testing.T) {
	res := buildGrid(10)
	var stk Stack

	// A ray parallel to the grid's extent, offset far away on Y, must
	// hit nothing.
	r := geom.NewRay(geom.Vec3{-5, 1000, 0}, geom.Vec3{1, 0, 0})

	visited := false
	TraverseScalar(&res.BVH, &stk, r, 1e-4, 1e30, func(first uint32, count uint16, tm float32) float32 {
		visited = true
		return tm
	})
	if visited {
		t.Fatalf("expected no leaf visits for a ray that misses every box")
	}
}

func TestTraverseSIMD8MatchesScalar(t *testing.T) {
	res := buildGrid(24)

	var rays [8]geom.Ray
	for i := range rays {
		rays[i] = geom.NewRay(geom.Vec3{-5, float32(i) * 0.001, 0}, geom.Vec3{1, 0, 0})
	}
	r8 := geom.NewRay8(rays)

	var stkScalar, stk8 Stack
	scalarHits := make([][]uint32, 8)
	for lane := 0; lane < 8; lane++ {
		tMax := float32(1e30)
		TraverseScalar(&res.BVH, &stkScalar, rays[lane], 1e-4, tMax, func(first uint32, count uint16, tm float32) float32 {
			for i := uint32(0); i < uint32(count); i++ {
				scalarHits[lane] = append(scalarHits[lane], res.LeafIndices[first+i])
			}
			return tm
		})
	}

	simdHits := make([][]uint32, 8)
	tMax8 := geom.Splat8(1e30)
	TraverseSIMD8(&res.BVH, &stk8, r8, geom.Splat8(1e-4), tMax8, func(first uint32, count uint16, mask uint8, tm geom.Vec8) geom.Vec8 {
		for lane := 0; lane < 8; lane++ {
			if mask&(1<<uint(lane)) == 0 {
				continue
			}
			for i := uint32(0); i < uint32(count); i++ {
				simdHits[lane] = append(simdHits[lane], res.LeafIndices[first+i])
			}
		}
		return tm
	})

	for lane := 0; lane < 8; lane++ {
		if len(scalarHits[lane]) != len(simdHits[lane]) {
			t.Fatalf("lane %d: scalar visited %d leaves, simd8 visited %d", lane, len(scalarHits[lane]), len(simdHits[lane]))
		}
	}
}
