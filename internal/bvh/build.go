package bvh

import (
	"sort"

	"github.com/kazvorn/goray/internal/geom"
)

// Primitive is one leaf-level item the builder indexes: its world
// bounding box plus an opaque index the caller resolves back to a
// triangle, sphere, object, or whatever the tree is built over.
type Primitive struct {
	Box      geom.Box
	Centroid geom.Vec3
	Index    uint32
}

// BuildParams configures SAH construction, grounded on the original's
// BuildingParams (BVHBuilder.h).
type BuildParams struct {
	// MaxLeafNodeSize bounds how many primitives a leaf may hold
	// before the builder is forced to stop splitting. The original
	// default is 2.
	MaxLeafNodeSize int
}

// DefaultBuildParams returns the original's defaults.
func DefaultBuildParams() BuildParams {
	return BuildParams{MaxLeafNodeSize: 2}
}

// Result is a built hierarchy plus the permutation of primitive
// indices leaves reference: LeafIndices[node.ChildIndex:][:node.NumLeaves]
// gives the original Primitive.Index values a leaf covers.
type Result struct {
	BVH         BVH
	LeafIndices []uint32
}

// context holds the builder's working-set scratch: per-axis boxes
// sorted by that axis's centroid, and prefix/suffix area caches reused
// across the recursion, mirroring BVHBuilder.cpp's Context.
type context struct {
	params BuildParams
	prims  []Primitive

	// sortedByAxis[axis] is a permutation of prims indices sorted by
	// centroid along that axis, built once up front.
	sortedByAxis [3][]uint32

	leftBoxCache  []geom.Box
	rightBoxCache []geom.Box

	nodes       []Node
	leafIndices []uint32
}

// workSet is one call frame of the recursive builder: the box to
// split, the set of primitive indices (into ctx.prims) it contains,
// which axis (if any) is already sorted from the parent split, and
// the current depth.
type workSet struct {
	box        geom.Box
	indices    []uint32
	sortedBy   int // axis already sorted, or -1
	depth      int
	nodeIndex  int // index into ctx.nodes this call frame will fill in
}

// Build constructs a full (non-binned) SAH bounding-volume hierarchy
// over prims. It allocates the tight 2*N-1 node bound up front rather
// than the original's generous-then-unused over-allocation, per the
// REDESIGN FLAG resolving the original's own "too big, should
// reallocate at the end" TODO.
func Build(prims []Primitive, params BuildParams) Result {
	n := len(prims)
	if n == 0 {
		return Result{}
	}
	if params.MaxLeafNodeSize < 1 {
		params.MaxLeafNodeSize = 1
	}

	ctx := &context{
		params:        params,
		prims:         prims,
		leftBoxCache:  make([]geom.Box, n+1),
		rightBoxCache: make([]geom.Box, n+1),
		nodes:         make([]Node, 1, 2*n-1),
		leafIndices:   make([]uint32, 0, n),
	}

	for axis := 0; axis < 3; axis++ {
		idx := make([]uint32, n)
		for i := range idx {
			idx[i] = uint32(i)
		}
		a := axis
		sort.Slice(idx, func(i, j int) bool {
			return component(prims[idx[i]].Centroid, a) < component(prims[idx[j]].Centroid, a)
		})
		ctx.sortedByAxis[axis] = idx
	}

	root := geom.EmptyBox()
	allIndices := make([]uint32, n)
	for i := range allIndices {
		allIndices[i] = uint32(i)
		root = root.Union(prims[i].Box)
	}

	ctx.buildNode(workSet{box: root, indices: allIndices, sortedBy: -1, depth: 0, nodeIndex: 0})

	return Result{BVH: BVH{Nodes: ctx.nodes}, LeafIndices: ctx.leafIndices}
}

func component(v geom.Vec3, axis int) float32 { return v[axis] }

// buildNode fills in ctx.nodes[ws.nodeIndex] and recurses, mirroring
// BVHBuilder.cpp's BuildNode: try every axis's pre-sorted order, pick
// the split with the lowest SAH cost. A leaf is made only when the set
// is at most MaxLeafNodeSize or MaxDepth is reached; otherwise the node
// is always split, without comparing the split's cost to a leaf's.
func (ctx *context) buildNode(ws workSet) {
	n := len(ws.indices)

	if n <= ctx.params.MaxLeafNodeSize || ws.depth >= MaxDepth {
		ctx.generateLeaf(ws)
		return
	}

	bestAxis := -1
	bestSplit := 0
	bestCost := float32(-1)

	var bestSorted []uint32

	for axis := 0; axis < 3; axis++ {
		sorted := ctx.sortLeaves(ws, axis)

		// Prefix (left) and suffix (right) running bounding boxes over
		// the primitives in this axis's sorted order.
		left := geom.EmptyBox()
		for i, idx := range sorted {
			left = left.Union(ctx.prims[idx].Box)
			ctx.leftBoxCache[i] = left
		}
		right := geom.EmptyBox()
		for i := n - 1; i >= 0; i-- {
			right = right.Union(ctx.prims[sorted[i]].Box)
			ctx.rightBoxCache[i] = right
		}

		for split := 1; split < n; split++ {
			leftCount := split
			rightCount := n - split
			leftArea := ctx.leftBoxCache[split-1].SurfaceArea()
			rightArea := ctx.rightBoxCache[split].SurfaceArea()
			cost := leftArea*float32(leftCount) + rightArea*float32(rightCount)
			if bestCost < 0 || cost < bestCost {
				bestCost = cost
				bestAxis = axis
				bestSplit = split
				bestSorted = sorted
			}
		}
	}

	if bestAxis < 0 {
		ctx.generateLeaf(ws)
		return
	}

	leftIndices := append([]uint32(nil), bestSorted[:bestSplit]...)
	rightIndices := append([]uint32(nil), bestSorted[bestSplit:]...)

	leftBox := geom.EmptyBox()
	for _, idx := range leftIndices {
		leftBox = leftBox.Union(ctx.prims[idx].Box)
	}
	rightBox := geom.EmptyBox()
	for _, idx := range rightIndices {
		rightBox = rightBox.Union(ctx.prims[idx].Box)
	}

	leftNodeIndex := len(ctx.nodes)
	ctx.nodes = append(ctx.nodes, Node{}, Node{})
	rightNodeIndex := leftNodeIndex + 1

	ctx.nodes[ws.nodeIndex].SetBox(ws.box)
	ctx.nodes[ws.nodeIndex].ChildIndex = uint32(leftNodeIndex)
	ctx.nodes[ws.nodeIndex].NumLeaves = 0
	ctx.nodes[ws.nodeIndex].SplitAxis = uint8(bestAxis)

	ctx.buildNode(workSet{box: leftBox, indices: leftIndices, sortedBy: bestAxis, depth: ws.depth + 1, nodeIndex: leftNodeIndex})
	ctx.buildNode(workSet{box: rightBox, indices: rightIndices, sortedBy: bestAxis, depth: ws.depth + 1, nodeIndex: rightNodeIndex})
}

// sortLeaves returns ws.indices sorted by axis's centroid order,
// reusing the parent's order unchanged when it already matches the
// requested axis (SortLeaves' "skip re-sort along sortedBy" shortcut).
func (ctx *context) sortLeaves(ws workSet, axis int) []uint32 {
	if axis == ws.sortedBy {
		return ws.indices
	}
	set := make(map[uint32]bool, len(ws.indices))
	for _, idx := range ws.indices {
		set[idx] = true
	}
	out := make([]uint32, 0, len(ws.indices))
	for _, idx := range ctx.sortedByAxis[axis] {
		if set[idx] {
			out = append(out, idx)
		}
	}
	return out
}

// generateLeaf appends ws.indices' primitive indices to the leaf
// index array and records the leaf node.
func (ctx *context) generateLeaf(ws workSet) {
	first := uint32(len(ctx.leafIndices))
	for _, idx := range ws.indices {
		ctx.leafIndices = append(ctx.leafIndices, ctx.prims[idx].Index)
	}
	ctx.nodes[ws.nodeIndex].SetBox(ws.box)
	ctx.nodes[ws.nodeIndex].ChildIndex = first
	ctx.nodes[ws.nodeIndex].NumLeaves = uint16(len(ws.indices))
	ctx.nodes[ws.nodeIndex].SplitAxis = 0
}
