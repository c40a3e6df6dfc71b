package kdtracer

import (
	"sort"

	"github.com/saiko-tech/kdtree-tracer/pkg/kdtracer/collision"
)

// Build constructs a k-d tree over triangles using the surface-area
// heuristic. The triangle array is borrowed: the tree stores only indices
// into it, and the same array must be passed to GetClosest later.
//
// An empty input produces an empty tree. Build never fails for ordinary
// inputs; degenerate geometry simply stops splitting early.
func Build(triangles []Triangle, cfg Config) *Tree {
	t := &Tree{cfg: cfg.withDefaults()}

	if len(triangles) == 0 {
		return t
	}

	b := builder{
		tree:    t,
		cfg:     t.cfg,
		bounds:  make([]collision.AABB, len(triangles)),
		rootBox: triangles[0].Bounds(),
	}

	for i, tri := range triangles {
		b.bounds[i] = tri.Bounds()
		b.rootBox = b.rootBox.Union(b.bounds[i])
	}

	worklist := make([]uint32, len(triangles))
	for i := range worklist {
		worklist[i] = uint32(i)
	}

	b.buildNode(worklist, b.rootBox, 1)

	return t
}

type builder struct {
	tree    *Tree
	cfg     Config
	bounds  []collision.AABB // per-triangle AABBs, indexed like the input
	rootBox collision.AABB
}

// buildNode emits the subtree for tris in pre-order and returns the index of
// its root node.
func (b *builder) buildNode(tris []uint32, box collision.AABB, depth int) int {
	nodeIndex := len(b.tree.nodes)
	b.tree.nodes = append(b.tree.nodes, Node{})
	b.tree.aabbs = append(b.tree.aabbs, box)

	if len(tris) <= b.cfg.MinTriangles || (b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth) {
		b.tree.nodes[nodeIndex] = b.makeLeafNode(tris)
		return nodeIndex
	}

	split, ok := b.findBestSplit(tris, box)
	if !ok || split.cost >= b.cfg.CostIntersection*float32(len(tris)) {
		b.tree.nodes[nodeIndex] = b.makeLeafNode(tris)
		return nodeIndex
	}

	left, right := b.partition(tris, split.axis, split.pos)

	leftBox, rightBox := box, box
	leftBox.Max[split.axis] = split.pos
	rightBox.Min[split.axis] = split.pos

	b.buildNode(left, leftBox, depth+1)

	node := makeInternal(split.axis, split.pos)
	node.setRightChild(len(b.tree.nodes))
	b.tree.nodes[nodeIndex] = node

	b.buildNode(right, rightBox, depth+1)

	return nodeIndex
}

func (b *builder) makeLeafNode(tris []uint32) Node {
	start := len(b.tree.indices)

	sorted := make([]uint32, len(tris))
	copy(sorted, tris)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for i, idx := range sorted {
		if i > 0 && sorted[i-1] == idx {
			continue
		}
		b.tree.indices = append(b.tree.indices, idx)
	}

	return makeLeaf(start, len(b.tree.indices)-start)
}

type splitCandidate struct {
	axis       int
	pos        float32
	cost       float32
	countLeft  int
	countRight int
}

// findBestSplit evaluates the SAH cost of every candidate split plane and
// returns the cheapest one. Candidates are the per-triangle bound extents
// strictly inside the node box; ties resolve to the lowest axis, then the
// lowest coordinate. A candidate that leaves a side empty or puts the whole
// set into one child is degenerate and never selected.
func (b *builder) findBestSplit(tris []uint32, box collision.AABB) (splitCandidate, bool) {
	saParent := box.SurfaceArea()
	if saParent <= 0 {
		return splitCandidate{}, false
	}

	var (
		best  splitCandidate
		found bool
	)

	for axis := 0; axis < 3; axis++ {
		for _, pos := range b.splitCandidates(tris, box, axis) {
			countLeft, countRight := b.countSides(tris, axis, pos)
			if countLeft == 0 || countRight == 0 ||
				countLeft == len(tris) || countRight == len(tris) {
				continue
			}

			leftBox, rightBox := box, box
			leftBox.Max[axis] = pos
			rightBox.Min[axis] = pos

			cost := b.cfg.CostTraversal + b.cfg.CostIntersection*
				(leftBox.SurfaceArea()/saParent*float32(countLeft)+
					rightBox.SurfaceArea()/saParent*float32(countRight))

			if !found || cost < best.cost {
				best = splitCandidate{
					axis:       axis,
					pos:        pos,
					cost:       cost,
					countLeft:  countLeft,
					countRight: countRight,
				}
				found = true
			}
		}
	}

	return best, found
}

// splitCandidates returns the minimum and maximum of each triangle's bounds
// on axis that lie strictly inside box, sorted ascending without duplicates.
// A vertex strictly between a triangle's extremes is not a candidate. NaN
// coordinates fail the interval comparison and drop out.
func (b *builder) splitCandidates(tris []uint32, box collision.AABB, axis int) []float32 {
	lo, hi := box.Min[axis], box.Max[axis]

	candidates := make([]float32, 0, 2*len(tris))
	for _, ti := range tris {
		tb := b.bounds[ti]
		if tb.Min[axis] > lo && tb.Min[axis] < hi {
			candidates = append(candidates, tb.Min[axis])
		}
		if tb.Max[axis] > lo && tb.Max[axis] < hi {
			candidates = append(candidates, tb.Max[axis])
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	dedup := candidates[:0]
	for _, c := range candidates {
		if len(dedup) > 0 && dedup[len(dedup)-1] == c {
			continue
		}
		dedup = append(dedup, c)
	}

	return dedup
}

// countSides counts how many triangles fall on each side of the plane
// axis=pos. A triangle whose extent straddles the plane counts on both
// sides; one lying exactly on the plane counts on the left.
func (b *builder) countSides(tris []uint32, axis int, pos float32) (left, right int) {
	for _, ti := range tris {
		tb := b.bounds[ti]
		inLeft := tb.Min[axis] < pos
		inRight := tb.Max[axis] > pos
		if !inLeft && !inRight {
			inLeft = true
		}

		if inLeft {
			left++
		}
		if inRight {
			right++
		}
	}

	return left, right
}

// partition splits tris by the plane axis=pos using the same side rule as
// countSides, so straddling triangles land in both halves.
func (b *builder) partition(tris []uint32, axis int, pos float32) (left, right []uint32) {
	for _, ti := range tris {
		tb := b.bounds[ti]
		inLeft := tb.Min[axis] < pos
		inRight := tb.Max[axis] > pos
		if !inLeft && !inRight {
			inLeft = true
		}

		if inLeft {
			left = append(left, ti)
		}
		if inRight {
			right = append(right, ti)
		}
	}

	return left, right
}
