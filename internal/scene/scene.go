package scene

import (
	"fmt"

	"github.com/kazvorn/goray/internal/bvh"
	"github.com/kazvorn/goray/internal/geom"
	"github.com/kazvorn/goray/internal/light"
	"github.com/kazvorn/goray/internal/material"
	"github.com/kazvorn/goray/internal/renderctx"
)

// HitRecord is the nearest-hit result of a top-level Traverse call:
// which object and (for meshes) which triangle the ray struck, the
// hit distance, and the triangle's barycentric coordinates.
type HitRecord struct {
	Distance     float32
	ObjectIndex  int32
	TriIndex     uint32
	U, V         float32
	LocalPoint   geom.Vec3 // hit point in the object's local space, for Extract's normal lookup
}

// Scene is the frozen, immutable scene: an arena of materials, the
// flat object list, the light list, and the top-level BVH over object
// world-space boxes, per spec.md §3 "Scene" and "Lifetimes and
// ownership". Once Build returns, nothing in this package mutates a
// Scene.
type Scene struct {
	Materials []material.Material
	Objects   []Object
	Lights    []light.Light

	topBVH      bvh.BVH
	leafIndices []uint32 // permutation: leaf i refers to Objects[leafIndices[i]]
}

// Build freezes a scene from its materials, objects, and lights,
// compiling every material and constructing the top-level BVH over
// object world-space boxes (spec.md §3 "Scene owns a top-level BVH
// built over world-space object AABBs").
func Build(materials []material.Material, objects []Object, lights []light.Light) (*Scene, error) {
	for i := range materials {
		materials[i].Compile()
	}
	for i, o := range objects {
		if o.Kind == KindMesh && o.Mesh == nil {
			return nil, fmt.Errorf("scene: object %d is KindMesh with nil Mesh", i)
		}
	}

	s := &Scene{Materials: materials, Objects: objects, Lights: lights}

	prims := make([]bvh.Primitive, len(objects))
	for i := range objects {
		b := objects[i].WorldBox()
		prims[i] = bvh.Primitive{Box: b, Centroid: b.Center(), Index: uint32(i)}
	}
	result := bvh.Build(prims, bvh.BuildParams{MaxLeafNodeSize: 1})
	s.topBVH = result.BVH
	s.leafIndices = result.LeafIndices
	return s, nil
}

// Traverse finds the nearest hit along ray at the given render time
// (in [0,1], used to interpolate motion-blur transforms), per
// spec.md §4.4: transform the ray into each candidate object's local
// space, run that object's local intersection, and keep the closest.
func (s *Scene) Traverse(ctx *renderctx.Context, time float32, ray geom.Ray) (HitRecord, bool) {
	best := HitRecord{Distance: maxFloat}
	found := false

	bvh.TraverseScalar(&s.topBVH, &ctx.SceneStack, ray, 1e-4, best.Distance, func(first uint32, count uint16, tMax float32) float32 {
		for i := uint32(0); i < uint32(count); i++ {
			objIdx := s.leafIndices[first+i]
			obj := &s.Objects[objIdx]
			t := obj.TransformAt(time)
			localRay := geom.NewRay(t.InverseTransformPoint(ray.Origin), t.InverseTransformDirection(ray.Dir))

			if hit, ok := s.intersectObjectLocal(ctx, obj, localRay, best.Distance); ok {
				hit.ObjectIndex = int32(objIdx)
				best = hit
				found = true
			}
		}
		return best.Distance
	})

	return best, found
}

// TraverseShadow reports whether any object occludes ray within
// [tMin, tMax], stopping at the first hit without finding the
// nearest, per spec.md §4.3's shadow variant and §8's shadow
// consistency invariant.
func (s *Scene) TraverseShadow(ctx *renderctx.Context, time float32, ray geom.Ray, tMax float32) bool {
	occluded := false
	bvh.TraverseScalar(&s.topBVH, &ctx.SceneStack, ray, 1e-4, tMax, func(first uint32, count uint16, currentMax float32) float32 {
		if occluded {
			return 0
		}
		for i := uint32(0); i < uint32(count); i++ {
			obj := &s.Objects[s.leafIndices[first+i]]
			t := obj.TransformAt(time)
			localRay := geom.NewRay(t.InverseTransformPoint(ray.Origin), t.InverseTransformDirection(ray.Dir))
			if s.objectOccludesLocal(obj, localRay, currentMax) {
				occluded = true
				return 0
			}
		}
		return currentMax
	})
	return occluded
}

// TraverseSIMD8 finds the nearest hit for 8 coherent primary rays at
// once, per spec.md §4.7's SIMD-8 traversal mode: the top-level BVH's
// node boxes are tested 8-lanes-wide via bvh.TraverseSIMD8, while each
// active lane's per-object local intersection (mesh BVH descent or
// analytic sphere/box test) still runs scalar, since object kinds
// within one leaf can differ per lane.
func (s *Scene) TraverseSIMD8(ctx *renderctx.Context, time float32, r8 geom.Ray8) (hits [geom.LaneCount]HitRecord, found [geom.LaneCount]bool) {
	for lane := range hits {
		hits[lane] = HitRecord{Distance: maxFloat}
	}
	tMax := geom.Splat8(maxFloat)

	bvh.TraverseSIMD8(&s.topBVH, &ctx.SceneStack, r8, geom.Splat8(1e-4), tMax, func(first uint32, count uint16, activeMask uint8, laneTMax geom.Vec8) geom.Vec8 {
		for lane := 0; lane < geom.LaneCount; lane++ {
			if activeMask&(1<<uint(lane)) == 0 {
				continue
			}
			ray := r8.Ray(lane)
			for i := uint32(0); i < uint32(count); i++ {
				objIdx := s.leafIndices[first+i]
				obj := &s.Objects[objIdx]
				ot := obj.TransformAt(time)
				localRay := geom.NewRay(ot.InverseTransformPoint(ray.Origin), ot.InverseTransformDirection(ray.Dir))
				if hit, ok := s.intersectObjectLocal(ctx, obj, localRay, laneTMax[lane]); ok {
					hit.ObjectIndex = int32(objIdx)
					hits[lane] = hit
					found[lane] = true
					laneTMax[lane] = hit.Distance
				}
			}
		}
		return laneTMax
	})

	return hits, found
}

// HitBatch is the per-group result of TraversePacket: one HitRecord
// and found flag per lane of the corresponding geom.RayPacket group.
type HitBatch struct {
	Hits  [geom.LaneCount]HitRecord
	Found [geom.LaneCount]bool
}

// TraversePacket finds the nearest hit for every ray in p, per
// spec.md §4.7's packet traversal mode: groups that have already
// resolved against a subtree (all lanes missed) stop being tested
// against it, per bvh.TraversePacket's active-group bookkeeping. As in
// TraverseSIMD8, only the top-level box tests run batched; per-object
// local intersection remains scalar per lane.
func (s *Scene) TraversePacket(ctx *renderctx.Context, time float32, p *geom.RayPacket) []HitBatch {
	batches := make([]HitBatch, len(p.Groups))
	tMax := make([]geom.Vec8, len(p.Groups))
	for i := range batches {
		for lane := range batches[i].Hits {
			batches[i].Hits[lane] = HitRecord{Distance: maxFloat}
		}
		tMax[i] = geom.Splat8(maxFloat)
	}

	bvh.TraversePacket(&s.topBVH, p, 1e-4, tMax, func(first uint32, count uint16, activeGroups []int, activeMasks []uint8, groupTMax []geom.Vec8) {
		for gi, groupIdx := range activeGroups {
			mask := activeMasks[gi]
			r8 := p.Groups[groupIdx].Rays
			for lane := 0; lane < geom.LaneCount; lane++ {
				if mask&(1<<uint(lane)) == 0 {
					continue
				}
				ray := r8.Ray(lane)
				for i := uint32(0); i < uint32(count); i++ {
					objIdx := s.leafIndices[first+i]
					obj := &s.Objects[objIdx]
					ot := obj.TransformAt(time)
					localRay := geom.NewRay(ot.InverseTransformPoint(ray.Origin), ot.InverseTransformDirection(ray.Dir))
					if hit, ok := s.intersectObjectLocal(ctx, obj, localRay, groupTMax[gi][lane]); ok {
						hit.ObjectIndex = int32(objIdx)
						batches[groupIdx].Hits[lane] = hit
						batches[groupIdx].Found[lane] = true
						groupTMax[gi][lane] = hit.Distance
					}
				}
			}
		}
	})

	return batches
}

const maxFloat = 3.402823466e+38

func (s *Scene) intersectObjectLocal(ctx *renderctx.Context, obj *Object, r geom.Ray, tMax float32) (HitRecord, bool) {
	switch obj.Kind {
	case KindMesh:
		best := HitRecord{Distance: maxFloat}
		found := false
		bvh.TraverseScalar(&obj.Mesh.BVH, &ctx.Stack, r, 1e-4, tMax, func(first uint32, count uint16, localTMax float32) float32 {
			ctx.LocalCounters.NumRayTriangleTests += int64(count)
			if h, ok := obj.Mesh.VB.IntersectNearest(r, first, count, localTMax); ok {
				ctx.LocalCounters.NumPassedRayTriangleTests++
				best = HitRecord{Distance: h.T, TriIndex: h.TriIdx, U: h.U, V: h.V, LocalPoint: r.At(h.T)}
				found = true
				return h.T
			}
			return localTMax
		})
		return best, found

	case KindSphere:
		if t, ok := intersectSphereLocal(r, obj.Sphere.Radius); ok && t < tMax {
			return HitRecord{Distance: t, LocalPoint: r.At(t)}, true
		}
		return HitRecord{}, false

	case KindBox:
		e := obj.Box.HalfExtents
		localBox := geom.Box{Min: geom.Vec3{-e[0], -e[1], -e[2]}, Max: e}
		if hit, t := geom.HitBox(r, localBox, 1e-4, tMax); hit {
			return HitRecord{Distance: t, LocalPoint: r.At(t)}, true
		}
		return HitRecord{}, false
	}
	return HitRecord{}, false
}

func (s *Scene) objectOccludesLocal(obj *Object, r geom.Ray, tMax float32) bool {
	switch obj.Kind {
	case KindMesh:
		var stk bvh.Stack
		occluded := false
		bvh.TraverseScalar(&obj.Mesh.BVH, &stk, r, 1e-4, tMax, func(first uint32, count uint16, localTMax float32) float32 {
			if occluded {
				return 0
			}
			if obj.Mesh.VB.IntersectAny(r, first, count, localTMax) {
				occluded = true
				return 0
			}
			return localTMax
		})
		return occluded
	case KindSphere:
		t, ok := intersectSphereLocal(r, obj.Sphere.Radius)
		return ok && t < tMax
	case KindBox:
		e := obj.Box.HalfExtents
		localBox := geom.Box{Min: geom.Vec3{-e[0], -e[1], -e[2]}, Max: e}
		hit, t := geom.HitBox(r, localBox, 1e-4, tMax)
		return hit && t < tMax
	}
	return false
}

// Extract builds the ShadingData for a hit previously returned by
// Traverse, resolving the object's material and interpolated normal/UV
// (mesh) or analytic normal (sphere/box), per spec.md §4.4 step 3 and
// §3 "ShadingData". The tangent frame is not set here; it is filled in
// by Material.EvaluateShadingData.
func (s *Scene) Extract(time float32, ray geom.Ray, hit HitRecord) material.ShadingData {
	obj := &s.Objects[hit.ObjectIndex]
	t := obj.TransformAt(time)

	sd := material.ShadingData{
		Position:      ray.At(hit.Distance),
		OutgoingWorld: ray.Dir.Mul(-1),
	}

	switch obj.Kind {
	case KindMesh:
		vb := obj.Mesh.VB
		tri := vb.Indices[hit.TriIndex]
		w := 1 - hit.U - hit.V
		sh0, sh1, sh2 := vb.Shading[tri.I0], vb.Shading[tri.I1], vb.Shading[tri.I2]
		localNormal := sh0.Normal.Mul(w).Add(sh1.Normal.Mul(hit.U)).Add(sh2.Normal.Mul(hit.V))
		uv := geom.Vec2{
			sh0.TexCoord[0]*w + sh1.TexCoord[0]*hit.U + sh2.TexCoord[0]*hit.V,
			sh0.TexCoord[1]*w + sh1.TexCoord[1]*hit.U + sh2.TexCoord[1]*hit.V,
		}
		sd.Normal = t.TransformDirection(localNormal).Normalize()
		sd.UV = uv
		sd.Material = &s.Materials[vb.Materials[tri.MaterialIndex]]

	case KindSphere:
		n := sphereNormalLocal(hit.LocalPoint, obj.Sphere.Radius)
		sd.Normal = t.TransformDirection(n).Normalize()
		sd.Material = &s.Materials[obj.Sphere.MaterialIdx]

	case KindBox:
		n := boxNormalLocal(hit.LocalPoint, obj.Box.HalfExtents)
		sd.Normal = t.TransformDirection(n).Normalize()
		sd.Material = &s.Materials[obj.Box.MaterialIdx]
	}

	return sd
}

// ObjectLight returns the Light index an object emits as, or -1.
func (o *Object) ObjectLight() int32 { return o.LightIndex }
