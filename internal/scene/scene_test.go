package scene

import (
	"testing"

	"github.com/kazvorn/goray/internal/bvh"
	"github.com/kazvorn/goray/internal/geom"
	"github.com/kazvorn/goray/internal/light"
	"github.com/kazvorn/goray/internal/material"
	"github.com/kazvorn/goray/internal/mesh"
	"github.com/kazvorn/goray/internal/renderctx"
	"github.com/kazvorn/goray/internal/spectrum"
)

func twoTriangleVB(t *testing.T) *mesh.VertexBuffer {
	t.Helper()
	desc := mesh.MeshDesc{
		Path:         "test/two-triangles",
		NumTriangles: 2,
		NumVertices:  6,
		NumMaterials: 1,
		Positions: []geom.Vec3{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
			{100, 0, 0}, {101, 0, 0}, {100, 1, 0},
		},
		VertexIndexBuffer:   [][3]uint32{{0, 1, 2}, {3, 4, 5}},
		MaterialIndexBuffer: []uint32{0, 0},
		Materials:           []mesh.MaterialRef{0},
	}
	vb, err := mesh.Build(desc)
	if err != nil {
		t.Fatalf("mesh.Build: %v", err)
	}
	return vb
}

func singleSphereScene(t *testing.T, radius float32, pos geom.Vec3) *Scene {
	t.Helper()
	objects := []Object{
		{
			Kind:       KindSphere,
			Sphere:     SphereData{Radius: radius, MaterialIdx: 0},
			Transform:  geom.Transform{Translation: pos, Rotation: geom.Identity().Rotation},
			LightIndex: -1,
		},
	}
	materials := []material.Material{material.Default()}
	lights := []light.Light{light.NewBackground(spectrum.RGB{R: 0.1, G: 0.1, B: 0.1})}

	s, err := Build(materials, objects, lights)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s
}

func TestTraverseHitsSphere(t *testing.T) {
	s := singleSphereScene(t, 1, geom.Vec3{0, 0, -5})
	ctx := renderctx.Acquire(1)
	defer renderctx.Release(ctx)

	ray := geom.NewRay(geom.Vec3{0, 0, 0}, geom.Vec3{0, 0, -1})
	hit, found := s.Traverse(ctx, 0, ray)
	if !found {
		t.Fatalf("expected a hit on the sphere")
	}
	if hit.Distance < 3.9 || hit.Distance > 4.1 {
		t.Fatalf("expected hit distance ~4, got %v", hit.Distance)
	}
}

func TestTraverseMissesWhenRayPointsAway(t *testing.T) {
	s := singleSphereScene(t, 1, geom.Vec3{0, 0, -5})
	ctx := renderctx.Acquire(1)
	defer renderctx.Release(ctx)

	ray := geom.NewRay(geom.Vec3{0, 0, 0}, geom.Vec3{0, 0, 1})
	_, found := s.Traverse(ctx, 0, ray)
	if found {
		t.Fatalf("expected no hit when facing away from every object")
	}
}

func TestTraverseShadowConsistentWithTraverse(t *testing.T) {
	s := singleSphereScene(t, 1, geom.Vec3{0, 0, -5})
	ctx := renderctx.Acquire(1)
	defer renderctx.Release(ctx)

	ray := geom.NewRay(geom.Vec3{0, 0, 0}, geom.Vec3{0, 0, -1})
	hit, found := s.Traverse(ctx, 0, ray)
	if !found {
		t.Fatalf("expected a hit to compare against")
	}

	occludedBeforeHit := s.TraverseShadow(ctx, 0, ray, hit.Distance-0.5)
	if occludedBeforeHit {
		t.Fatalf("shadow query with tMax short of the hit should report unoccluded")
	}

	occludedPastHit := s.TraverseShadow(ctx, 0, ray, hit.Distance+0.5)
	if !occludedPastHit {
		t.Fatalf("shadow query with tMax past the hit should report occluded")
	}
}

func TestExtractSphereNormalPointsOutward(t *testing.T) {
	s := singleSphereScene(t, 1, geom.Vec3{0, 0, -5})
	ctx := renderctx.Acquire(1)
	defer renderctx.Release(ctx)

	ray := geom.NewRay(geom.Vec3{0, 0, 0}, geom.Vec3{0, 0, -1})
	hit, found := s.Traverse(ctx, 0, ray)
	if !found {
		t.Fatalf("expected a hit")
	}
	sd := s.Extract(0, ray, hit)
	if sd.Normal.Dot(geom.Vec3{0, 0, 1}) < 0.99 {
		t.Fatalf("expected the near-side normal to point back at the camera, got %v", sd.Normal)
	}
}

func TestBuildRejectsMeshObjectWithNilMesh(t *testing.T) {
	objects := []Object{{Kind: KindMesh, Mesh: nil}}
	_, err := Build(nil, objects, nil)
	if err == nil {
		t.Fatalf("expected an error for a KindMesh object with nil Mesh")
	}
}

func TestWorldBoxExpandsWithVelocity(t *testing.T) {
	obj := Object{
		Kind:      KindSphere,
		Sphere:    SphereData{Radius: 1},
		Transform: geom.Identity(),
		Velocity:  geom.Velocity{Linear: geom.Vec3{5, 0, 0}},
	}
	static := Object{Kind: KindSphere, Sphere: SphereData{Radius: 1}, Transform: geom.Identity()}

	movingBox := obj.WorldBox()
	staticBox := static.WorldBox()

	if movingBox.Max[0] <= staticBox.Max[0] {
		t.Fatalf("a moving object's world box should extend further than its static box")
	}
}

func eightRayBundle(origin geom.Vec3, dirs [geom.LaneCount]geom.Vec3) geom.Ray8 {
	var rays [geom.LaneCount]geom.Ray
	for i, d := range dirs {
		rays[i] = geom.NewRay(origin, d)
	}
	return geom.NewRay8(rays)
}

func TestTraverseSIMD8MatchesScalarTraverse(t *testing.T) {
	s := singleSphereScene(t, 1, geom.Vec3{0, 0, -5})
	ctx := renderctx.Acquire(1)
	defer renderctx.Release(ctx)

	var dirs [geom.LaneCount]geom.Vec3
	for i := range dirs {
		if i%2 == 0 {
			dirs[i] = geom.Vec3{0, 0, -1}
		} else {
			dirs[i] = geom.Vec3{0, 0, 1}
		}
	}
	r8 := eightRayBundle(geom.Vec3{0, 0, 0}, dirs)

	hits, found := s.TraverseSIMD8(ctx, 0, r8)

	for lane := 0; lane < geom.LaneCount; lane++ {
		scalarHit, scalarFound := s.Traverse(ctx, 0, r8.Ray(lane))
		if found[lane] != scalarFound {
			t.Fatalf("lane %d: SIMD8 found=%v, scalar found=%v", lane, found[lane], scalarFound)
		}
		if scalarFound && (hits[lane].Distance < scalarHit.Distance-1e-3 || hits[lane].Distance > scalarHit.Distance+1e-3) {
			t.Fatalf("lane %d: SIMD8 distance %v diverges from scalar %v", lane, hits[lane].Distance, scalarHit.Distance)
		}
	}
}

func TestTraversePacketMatchesScalarTraverse(t *testing.T) {
	s := singleSphereScene(t, 1, geom.Vec3{0, 0, -5})
	ctx := renderctx.Acquire(1)
	defer renderctx.Release(ctx)

	var dirs [geom.LaneCount]geom.Vec3
	for i := range dirs {
		dirs[i] = geom.Vec3{0, 0, -1}
	}
	r8 := eightRayBundle(geom.Vec3{0, 0, 0}, dirs)

	var packet geom.RayPacket
	packet.PushGroup(geom.RayGroup{Rays: r8})

	batches := s.TraversePacket(ctx, 0, &packet)
	if len(batches) != 1 {
		t.Fatalf("expected one batch for one group, got %d", len(batches))
	}

	for lane := 0; lane < geom.LaneCount; lane++ {
		scalarHit, scalarFound := s.Traverse(ctx, 0, r8.Ray(lane))
		if batches[0].Found[lane] != scalarFound {
			t.Fatalf("lane %d: packet found=%v, scalar found=%v", lane, batches[0].Found[lane], scalarFound)
		}
		if scalarFound && (batches[0].Hits[lane].Distance < scalarHit.Distance-1e-3 || batches[0].Hits[lane].Distance > scalarHit.Distance+1e-3) {
			t.Fatalf("lane %d: packet distance %v diverges from scalar %v", lane, batches[0].Hits[lane].Distance, scalarHit.Distance)
		}
	}
}

func TestBuildMeshReordersVertexBufferToMatchBVH(t *testing.T) {
	// Two triangles far apart on the X axis; the builder should split
	// them into separate leaves.
	vb := twoTriangleVB(t)
	data := BuildMesh(vb, bvh.BuildParams{MaxLeafNodeSize: 1})
	if len(data.BVH.Nodes) == 0 {
		t.Fatalf("expected a non-empty BVH")
	}
	for i, node := range data.BVH.Nodes {
		if !node.IsLeaf() {
			continue
		}
		box := node.Box()
		for j := uint32(0); j < uint32(node.NumLeaves); j++ {
			tri := data.VB.Processed[node.ChildIndex+j]
			triBox := geom.UnionTriangle(geom.EmptyBox(), tri.V0, tri.V0.Add(tri.Edge1), tri.V0.Add(tri.Edge2))
			if !box.Contains(triBox) {
				t.Fatalf("leaf node %d: triangle %d lies outside the leaf's box %v", i, node.ChildIndex+j, box)
			}
		}
	}
}
