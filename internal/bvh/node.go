// Package bvh implements the bounding-volume hierarchy: the packed
// 32-byte node format, its on-disk container, SAH construction, and
// the three shared-skeleton traversal modes (single ray, SIMD-8, and
// packet), per spec.md §4.1 and §4.2.
package bvh

import "github.com/kazvorn/goray/internal/geom"

// MaxDepth bounds BVH depth; exceeding it is a fatal invariant
// violation the builder must never produce (spec.md §4.1).
const MaxDepth = 64

// Node is the on-disk and in-memory BVH node: exactly 32 bytes so a
// cached BVH file is a flat array of these with no padding surprises.
//
//	Min        [3]float32  12
//	ChildIndex uint32       4  (child-pair index, or first-leaf index)
//	Max        [3]float32  12
//	NumLeaves  uint16       2  (0 => internal node)
//	SplitAxis  uint8        1  (0/1/2, meaningful for internal nodes)
//	Pad        uint8        1
type Node struct {
	Min        [3]float32
	ChildIndex uint32
	Max        [3]float32
	NumLeaves  uint16
	SplitAxis  uint8
	Pad        uint8
}

const NodeSize = 32

// IsLeaf reports whether the node is a leaf (NumLeaves > 0).
func (n Node) IsLeaf() bool { return n.NumLeaves > 0 }

// Box returns the node's bounding box.
func (n Node) Box() geom.Box {
	return geom.Box{
		Min: geom.Vec3{n.Min[0], n.Min[1], n.Min[2]},
		Max: geom.Vec3{n.Max[0], n.Max[1], n.Max[2]},
	}
}

// SetBox writes b into the node's min/max fields.
func (n *Node) SetBox(b geom.Box) {
	n.Min = [3]float32{b.Min[0], b.Min[1], b.Min[2]}
	n.Max = [3]float32{b.Max[0], b.Max[1], b.Max[2]}
}

// LeftChild and RightChild return the child node indices of an
// internal node; callers must check IsLeaf first.
func (n Node) LeftChild() uint32  { return n.ChildIndex }
func (n Node) RightChild() uint32 { return n.ChildIndex + 1 }

// BVH is a built hierarchy: a flat node array rooted at index 0.
type BVH struct {
	Nodes []Node
}

// Empty reports whether the hierarchy has no nodes (N == 0 was built).
func (b *BVH) Empty() bool { return len(b.Nodes) == 0 }

// Root returns the root node's bounding box, or an empty box if the
// hierarchy has no nodes.
func (b *BVH) Root() geom.Box {
	if b.Empty() {
		return geom.EmptyBox()
	}
	return b.Nodes[0].Box()
}
