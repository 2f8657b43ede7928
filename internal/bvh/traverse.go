package bvh

import "github.com/kazvorn/goray/internal/geom"

// LeafVisitor is called once per leaf node a traversal descends into.
// It receives the leaf's first-leaf-index and count into the
// Result.LeafIndices permutation and returns the updated tMax (a
// tighter tMax short-circuits further descent, as in shadow/any-hit
// queries where the visitor can return 0 to stop immediately).
type LeafVisitor func(firstLeaf uint32, numLeaves uint16, tMax float32) float32

// Stack is a fixed-capacity node-index stack sized to MaxDepth, reused
// across traversals via RenderingContext scratch to avoid per-ray
// allocation.
type Stack struct {
	indices [MaxDepth]uint32
	n       int
}

func (s *Stack) Reset()          { s.n = 0 }
func (s *Stack) Push(i uint32)   { s.indices[s.n] = i; s.n++ }
func (s *Stack) Pop() uint32     { s.n--; return s.indices[s.n] }
func (s *Stack) Empty() bool     { return s.n == 0 }

// TraverseScalar walks the hierarchy depth-first with an explicit
// stack, testing a single ray's box intersection at each node and
// invoking visit at each leaf. tMax shrinks as visit reports closer
// hits, pruning subsequent subtree tests the same way the original's
// Traverse_Single does.
func TraverseScalar(b *BVH, stk *Stack, r geom.Ray, tMin, tMax float32, visit LeafVisitor) {
	if b.Empty() {
		return
	}
	stk.Reset()
	stk.Push(0)

	for !stk.Empty() {
		idx := stk.Pop()
		node := b.Nodes[idx]

		hit, _ := geom.HitBox(r, node.Box(), tMin, tMax)
		if !hit {
			continue
		}

		if node.IsLeaf() {
			tMax = visit(node.ChildIndex, node.NumLeaves, tMax)
			continue
		}

		stk.Push(node.LeftChild())
		stk.Push(node.RightChild())
	}
}

// LeafVisitor8 is the SIMD-8 counterpart of LeafVisitor: it receives
// the active-lane mask (bit i set => lane i still needs testing) and
// returns the updated per-lane tMax.
type LeafVisitor8 func(firstLeaf uint32, numLeaves uint16, activeMask uint8, tMax geom.Vec8) geom.Vec8

// TraverseSIMD8 walks the hierarchy once for 8 coherent rays packed
// into r8, testing all 8 lanes against each node's box in parallel and
// skipping the subtree entirely when every lane misses.
func TraverseSIMD8(b *BVH, stk *Stack, r8 geom.Ray8, tMin, tMax geom.Vec8, visit LeafVisitor8) {
	if b.Empty() {
		return
	}
	stk.Reset()
	stk.Push(0)

	for !stk.Empty() {
		idx := stk.Pop()
		node := b.Nodes[idx]

		mask, _ := geom.HitBox8(r8, node.Box(), tMin, tMax)
		if mask == 0 {
			continue
		}

		if node.IsLeaf() {
			tMax = visit(node.ChildIndex, node.NumLeaves, mask, tMax)
			continue
		}

		stk.Push(node.LeftChild())
		stk.Push(node.RightChild())
	}
}

// PacketVisitor is the ray-packet counterpart: it receives the
// subset of group indices (into p.Groups) still active for this leaf,
// and the subset of lanes within each group still active, and writes
// the updated group-local tMax values into tMax in place.
type PacketVisitor func(firstLeaf uint32, numLeaves uint16, activeGroups []int, activeMasks []uint8, tMax []geom.Vec8)

// packetFrame is one stack entry for packet traversal: a node index
// plus the list of group indices still active when that node was
// pushed (a node reached by a coherent packet need not re-test groups
// that already missed it higher up the tree).
type packetFrame struct {
	node   uint32
	groups []int
}

// TraversePacket walks the hierarchy for a RayPacket, maintaining a
// stack of (node, active-group-list) frames so that divergent rays
// within the packet stop being tested against subtrees their lane
// already resolved, mirroring the original's Traverse_Packet.
func TraversePacket(b *BVH, p *geom.RayPacket, tMin float32, tMax []geom.Vec8, visit PacketVisitor) {
	if b.Empty() || len(p.Groups) == 0 {
		return
	}

	rootGroups := make([]int, len(p.Groups))
	for i := range rootGroups {
		rootGroups[i] = i
	}

	frames := []packetFrame{{node: 0, groups: rootGroups}}
	tMinVec := geom.Splat8(tMin)

	for len(frames) > 0 {
		f := frames[len(frames)-1]
		frames = frames[:len(frames)-1]

		node := b.Nodes[f.node]
		box := node.Box()

		activeGroups := make([]int, 0, len(f.groups))
		activeMasks := make([]uint8, 0, len(f.groups))
		for _, gi := range f.groups {
			mask, _ := geom.HitBox8(p.Groups[gi].Rays, box, tMinVec, tMax[gi])
			if mask != 0 {
				activeGroups = append(activeGroups, gi)
				activeMasks = append(activeMasks, mask)
			}
		}
		if len(activeGroups) == 0 {
			continue
		}

		if node.IsLeaf() {
			activeTMax := make([]geom.Vec8, len(activeGroups))
			for i, gi := range activeGroups {
				activeTMax[i] = tMax[gi]
			}
			visit(node.ChildIndex, node.NumLeaves, activeGroups, activeMasks, activeTMax)
			for i, gi := range activeGroups {
				tMax[gi] = activeTMax[i]
			}
			continue
		}

		frames = append(frames, packetFrame{node: node.LeftChild(), groups: activeGroups})
		frames = append(frames, packetFrame{node: node.RightChild(), groups: activeGroups})
	}
}
