package kdtracer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/saiko-tech/kdtree-tracer/pkg/kdtracer/collision"
	"github.com/saiko-tech/kdtree-tracer/pkg/kdtracer/mollertrumbore"
)

// GetClosest returns the closest intersection of r with the triangles the
// tree was built over, or an Intersection with T == -1 if nothing is hit.
// triangles must be the same array that was passed to Build.
//
// When stats is non-nil it records every node entered and every triangle
// tested, in visitation order.
func (t *Tree) GetClosest(triangles []Triangle, r Ray, stats *DebugStats) Intersection {
	miss := Intersection{T: -1}

	if t.Empty() {
		return miss
	}

	root := t.aabbs[0]
	tNear, tFar, hit := collision.RayIntersectsAxisAlignedBoundingBox(r.Origin, r.Direction, root.Min, root.Max)
	if !hit {
		return miss
	}
	if tNear < 0 {
		tNear = 0
	}

	q := query{tree: t, triangles: triangles, ray: r, stats: stats}
	for i := 0; i < 3; i++ {
		q.invDir[i] = 1 / r.Direction[i]
	}

	return q.traverse(0, tNear, tFar)
}

type query struct {
	tree      *Tree
	triangles []Triangle
	ray       Ray
	invDir    mgl32.Vec3
	stats     *DebugStats
}

// traverse descends front-to-back through the subtree at nodeIndex within
// the ray-parametric window [tNear, tFar].
func (q *query) traverse(nodeIndex int, tNear, tFar float32) Intersection {
	if q.stats != nil {
		q.stats.TraversedNodes = append(q.stats.TraversedNodes, nodeIndex)
	}

	node := q.tree.nodes[nodeIndex]
	if node.IsLeaf() {
		return q.testLeaf(node)
	}

	axis := node.Axis()
	split := node.Split()
	origin := q.ray.Origin[axis]
	dir := q.ray.Direction[axis]

	// The near child holds the ray for t < tSplit, the far child for
	// t > tSplit. An origin exactly on the plane crosses at t = 0, so the
	// direction side is the far child.
	near, far := nodeIndex+1, node.RightChild()
	if origin > split || (origin == split && dir < 0) {
		near, far = far, near
	}

	if dir == 0 {
		// Parallel to the split plane: the ray never leaves the side the
		// origin is on.
		return q.traverse(near, tNear, tFar)
	}

	tSplit := (split - origin) * q.invDir[axis]

	switch {
	case tSplit > tFar || tSplit < 0:
		return q.traverse(near, tNear, tFar)
	case tSplit < tNear:
		return q.traverse(far, tNear, tFar)
	default:
		best := q.traverse(near, tNear, tSplit)
		if best.Hit() && best.T <= tSplit {
			return best
		}

		if other := q.traverse(far, tSplit, tFar); other.Hit() && (!best.Hit() || other.T < best.T) {
			return other
		}

		return best
	}
}

func (q *query) testLeaf(node Node) Intersection {
	best := Intersection{T: -1}

	start, count := node.PrimitiveStart(), node.PrimitiveCount()
	for _, idx := range q.tree.indices[start : start+count] {
		if q.stats != nil {
			q.stats.TestedTriangles = append(q.stats.TestedTriangles, int(idx))
		}

		res := mollertrumbore.RayIntersectsTriangle(q.ray.Origin, q.ray.Direction, q.triangles[idx])
		if res.Hit && (!best.Hit() || res.T < best.T) {
			best = Intersection{TriangleIndex: int(idx), T: res.T}
		}
	}

	return best
}
