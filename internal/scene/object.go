// Package scene implements the top-level scene object model and its
// BVH, per spec.md §3 ("Scene") and §4.4: a flat list of objects (mesh,
// sphere, box, or light-emitting surface), each with a world transform
// and optional motion-blur velocity, traversed through a top-level BVH
// over their world-space bounding boxes.
package scene

import (
	"math"

	"github.com/kazvorn/goray/internal/bvh"
	"github.com/kazvorn/goray/internal/geom"
	"github.com/kazvorn/goray/internal/mesh"
)

// Kind discriminates the three object shapes (mesh, sphere, box),
// grounded on the original's SceneObject_Mesh/Sphere/Box split (spec.md
// §9's tagged-variant redesign note: one switchable struct instead of
// vtable classes). There is no light shape: an emitting surface is one
// of these shapes with LightIndex set, and lights live in light.Light.
type Kind uint8

const (
	KindMesh Kind = iota
	KindSphere
	KindBox
)

// Object is one scene object: its shape data, material arena indices,
// placement, and optional motion blur velocity. LightIndex names the
// Scene.Lights entry this object's surface emits as, or -1 if the
// object is not independently lit (it may still carry material
// emission evaluated straight off ShadingData, per spec.md §4.6's
// "L += β · material.emission(uv)").
type Object struct {
	Kind Kind

	Mesh   *MeshData
	Sphere SphereData
	Box    BoxData

	Transform Transform
	Velocity  geom.Velocity

	LightIndex int32 // -1 if this object is not also a Light
}

// Transform is the alias used by scene objects; kept local to this
// package so scene.go doesn't need to re-import geom.Transform at
// every call site.
type Transform = geom.Transform

// MeshData is a mesh object's local-space geometry: its preprocessed
// vertex buffer plus the BVH built over its triangles.
type MeshData struct {
	VB  *mesh.VertexBuffer
	BVH bvh.BVH
}

// SphereData is a sphere object's local-space geometry: centered at
// the object's local origin with the given radius, grounded on
// SceneObject_Sphere.cpp.
type SphereData struct {
	Radius       float32
	MaterialIdx  uint32
}

// BoxData is a box object's local-space geometry: an axis-aligned box
// centered at the object's local origin, grounded on
// SceneObject_Box.cpp.
type BoxData struct {
	HalfExtents geom.Vec3
	MaterialIdx uint32
}

// BuildMesh constructs a MeshData by running the BVH builder over the
// mesh's processed triangles and reordering the vertex buffer to
// match, per spec.md §4.1's builder contract.
func BuildMesh(vb *mesh.VertexBuffer, params bvh.BuildParams) *MeshData {
	prims := make([]bvh.Primitive, len(vb.Processed))
	for i, tri := range vb.Processed {
		b := geom.UnionTriangle(geom.EmptyBox(), tri.V0, tri.V0.Add(tri.Edge1), tri.V0.Add(tri.Edge2))
		prims[i] = bvh.Primitive{Box: b, Centroid: b.Center(), Index: uint32(i)}
	}
	result := bvh.Build(prims, params)
	vb.Reorder(result.LeafIndices)
	return &MeshData{VB: vb, BVH: result.BVH}
}

// localBox returns the object's bounding box in its own local space.
func (o *Object) localBox() geom.Box {
	switch o.Kind {
	case KindMesh:
		return o.Mesh.BVH.Root()
	case KindSphere:
		r := o.Sphere.Radius
		return geom.Box{Min: geom.Vec3{-r, -r, -r}, Max: geom.Vec3{r, r, r}}
	case KindBox:
		e := o.Box.HalfExtents
		return geom.Box{Min: geom.Vec3{-e[0], -e[1], -e[2]}, Max: e}
	}
	return geom.EmptyBox()
}

// WorldBox returns the object's world-space bounding box, unioning the
// box at transform time 0 and time 1 when it carries a non-zero
// velocity, per spec.md §4.4's motion-blur AABB rule.
func (o *Object) WorldBox() geom.Box {
	lb := o.localBox()
	box0 := worldBoxAt(lb, o.Transform)
	if o.Velocity.Linear.Len() == 0 && o.Velocity.Angular.Len() == 0 {
		return box0
	}
	t1 := geom.Advance(o.Transform, o.Velocity, 1)
	box1 := worldBoxAt(lb, t1)
	return geom.Union(box0, box1)
}

func worldBoxAt(local geom.Box, t Transform) geom.Box {
	m := t.Matrix()
	return local.Transform([16]float32(m))
}

// TransformAt returns the object's interpolated transform at the given
// render time in [0, 1], lerping translation and slerping rotation
// between the base transform and the velocity-advanced one, per
// spec.md §4.4.
func (o *Object) TransformAt(time float32) Transform {
	if o.Velocity.Linear.Len() == 0 && o.Velocity.Angular.Len() == 0 {
		return o.Transform
	}
	t1 := geom.Advance(o.Transform, o.Velocity, 1)
	return geom.Interpolate(o.Transform, t1, time)
}

// intersectSphereLocal runs the analytic ray/sphere test in local
// space, grounded on Intersect_RaySphere (Geometry.cpp): solves
// |o + t*d|^2 = r^2 for the nearest positive root.
func intersectSphereLocal(r geom.Ray, radius float32) (t float32, ok bool) {
	oc := r.Origin
	a := r.Dir.Dot(r.Dir)
	b := 2 * oc.Dot(r.Dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := float32(math.Sqrt(float64(disc)))
	t0 := (-b - sq) / (2 * a)
	if t0 > 1e-5 {
		return t0, true
	}
	t1 := (-b + sq) / (2 * a)
	if t1 > 1e-5 {
		return t1, true
	}
	return 0, false
}

// sphereNormalLocal returns the local-space outward normal at a point
// on the sphere's surface.
func sphereNormalLocal(p geom.Vec3, radius float32) geom.Vec3 {
	return p.Mul(1 / radius)
}

// boxNormalLocal returns the local-space outward normal at a point on
// the box's surface, chosen as the axis whose distance to p is
// closest to the corresponding half-extent.
func boxNormalLocal(p geom.Vec3, e geom.Vec3) geom.Vec3 {
	best := 0
	bestDist := float32(math.MaxFloat32)
	for axis := 0; axis < 3; axis++ {
		d := geom.Abs32(geom.Abs32(p[axis]) - e[axis])
		if d < bestDist {
			bestDist = d
			best = axis
		}
	}
	n := geom.Vec3{}
	if p[best] < 0 {
		n[best] = -1
	} else {
		n[best] = 1
	}
	return n
}
