// Package mesh implements the preprocessed triangle mesh storage and
// ray/triangle intersection, per spec.md §3 ("VertexBuffer",
// "ProcessedTriangle") and §4.3.
package mesh

import (
	"fmt"

	"github.com/kazvorn/goray/internal/geom"
)

// MaterialRef is an opaque handle a loader resolves to an
// internal/material.Material; kept external to this package so mesh
// never needs to import material.
type MaterialRef uint32

// MeshDesc is the external, contractual shape a loader must produce
// to build a VertexBuffer. Nothing in this module parses OBJ or any
// other file format; MeshDesc is the boundary (spec.md §1, §8).
type MeshDesc struct {
	Path                string
	NumTriangles        int
	NumVertices         int
	NumMaterials        int
	Positions           []geom.Vec3 // len == NumVertices
	Normals             []geom.Vec3 // len == NumVertices, or empty (auto-computed)
	Tangents            []geom.Vec3 // len == NumVertices, or empty (left zero; not auto-computed)
	TexCoords           []geom.Vec2 // len == NumVertices, or empty
	VertexIndexBuffer   [][3]uint32 // len == NumTriangles
	MaterialIndexBuffer []uint32    // len == NumTriangles
	Materials           []MaterialRef
}

// TriangleIndex is the index+material table entry for one triangle.
type TriangleIndex struct {
	I0, I1, I2    uint32
	MaterialIndex uint32
}

// Shading is the per-vertex shading-data table entry.
type Shading struct {
	Normal   geom.Vec3
	Tangent  geom.Vec3
	TexCoord geom.Vec2
}

// ProcessedTriangle is the precomputed Möller–Trumbore form of a
// triangle: one vertex plus the two edges from it.
type ProcessedTriangle struct {
	V0    geom.Vec3
	Edge1 geom.Vec3
	Edge2 geom.Vec3
}

// VertexBuffer is the immutable, once-built mesh storage: positions,
// the index+material table, per-vertex shading data, the material
// handle table, and the parallel ProcessedTriangle cache the BVH
// builder reorders in place (spec.md §3 "VertexBuffer").
type VertexBuffer struct {
	Positions  []geom.Vec3
	Indices    []TriangleIndex
	Shading    []Shading
	Materials  []MaterialRef
	Processed  []ProcessedTriangle
}

// Build validates desc and constructs a VertexBuffer, auto-computing
// per-face flat normals for any vertex with no authored normal
// (MeshDesc's contract: "normals ... unit-length or empty
// (auto-computed per-face if absent)").
func Build(desc MeshDesc) (*VertexBuffer, error) {
	if err := validate(desc); err != nil {
		return nil, fmt.Errorf("mesh: invalid MeshDesc %q: %w", desc.Path, err)
	}

	vb := &VertexBuffer{
		Positions: append([]geom.Vec3(nil), desc.Positions...),
		Indices:   make([]TriangleIndex, desc.NumTriangles),
		Shading:   make([]Shading, desc.NumVertices),
		Materials: append([]MaterialRef(nil), desc.Materials...),
		Processed: make([]ProcessedTriangle, desc.NumTriangles),
	}

	haveNormals := len(desc.Normals) == desc.NumVertices
	haveTangents := len(desc.Tangents) == desc.NumVertices
	haveUVs := len(desc.TexCoords) == desc.NumVertices

	for i := 0; i < desc.NumVertices; i++ {
		if haveNormals {
			vb.Shading[i].Normal = desc.Normals[i]
		}
		if haveTangents {
			vb.Shading[i].Tangent = desc.Tangents[i]
		}
		if haveUVs {
			vb.Shading[i].TexCoord = desc.TexCoords[i]
		}
	}

	for t := 0; t < desc.NumTriangles; t++ {
		idx := desc.VertexIndexBuffer[t]
		vb.Indices[t] = TriangleIndex{I0: idx[0], I1: idx[1], I2: idx[2], MaterialIndex: desc.MaterialIndexBuffer[t]}

		v0 := desc.Positions[idx[0]]
		v1 := desc.Positions[idx[1]]
		v2 := desc.Positions[idx[2]]
		vb.Processed[t] = ProcessedTriangle{
			V0:    v0,
			Edge1: v1.Sub(v0),
			Edge2: v2.Sub(v0),
		}
	}

	if !haveNormals {
		vb.computeFaceNormals(desc)
	}

	return vb, nil
}

// computeFaceNormals assigns each vertex the normal of the last
// triangle that references it, a cheap per-face fallback for meshes
// that arrive with no authored normals.
func (vb *VertexBuffer) computeFaceNormals(desc MeshDesc) {
	for t := range vb.Processed {
		n := vb.Processed[t].Edge1.Cross(vb.Processed[t].Edge2).Normalize()
		idx := desc.VertexIndexBuffer[t]
		vb.Shading[idx[0]].Normal = n
		vb.Shading[idx[1]].Normal = n
		vb.Shading[idx[2]].Normal = n
	}
}

// Reorder permutes the index table, shading-referencing triangle
// table, and processed-triangle cache into newOrder, the primitive
// permutation the BVH builder returns. Positions and per-vertex
// shading data are untouched: only triangle-indexed arrays move.
func (vb *VertexBuffer) Reorder(newOrder []uint32) {
	indices := make([]TriangleIndex, len(newOrder))
	processed := make([]ProcessedTriangle, len(newOrder))
	for i, orig := range newOrder {
		indices[i] = vb.Indices[orig]
		processed[i] = vb.Processed[orig]
	}
	vb.Indices = indices
	vb.Processed = processed
}

func validate(desc MeshDesc) error {
	if desc.NumVertices != len(desc.Positions) {
		return fmt.Errorf("positions length %d != numVertices %d", len(desc.Positions), desc.NumVertices)
	}
	if desc.NumTriangles != len(desc.VertexIndexBuffer) {
		return fmt.Errorf("vertexIndexBuffer length %d != numTriangles %d", len(desc.VertexIndexBuffer), desc.NumTriangles)
	}
	if desc.NumTriangles != len(desc.MaterialIndexBuffer) {
		return fmt.Errorf("materialIndexBuffer length %d != numTriangles %d", len(desc.MaterialIndexBuffer), desc.NumTriangles)
	}
	for t, idx := range desc.VertexIndexBuffer {
		for _, v := range idx {
			if int(v) >= desc.NumVertices {
				return fmt.Errorf("triangle %d references out-of-range vertex %d", t, v)
			}
		}
	}
	for t, m := range desc.MaterialIndexBuffer {
		if int(m) >= desc.NumMaterials {
			return fmt.Errorf("triangle %d references out-of-range material %d", t, m)
		}
	}
	return nil
}
