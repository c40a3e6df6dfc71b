package kdtracer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiko-tech/kdtree-tracer/pkg/kdtracer/mollertrumbore"
)

const testEpsilon = float32(0.001)

// sphereMesh generates a UV-sphere triangle soup centered at the origin.
// Degenerate pole triangles are skipped.
func sphereMesh(stacks, slices int, radius float32) []Triangle {
	pos := func(i, j int) mgl32.Vec3 {
		theta := math.Pi * float64(i) / float64(stacks)
		phi := 2 * math.Pi * float64(j%slices) / float64(slices)
		return mgl32.Vec3{
			radius * float32(math.Sin(theta)*math.Cos(phi)),
			radius * float32(math.Cos(theta)),
			radius * float32(math.Sin(theta)*math.Sin(phi)),
		}
	}

	var tris []Triangle
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a := pos(i, j)
			b := pos(i+1, j)
			c := pos(i+1, j+1)
			d := pos(i, j+1)

			if i < stacks-1 { // b == c at the south pole
				tris = append(tris, Triangle{a, b, c})
			}
			if i > 0 { // a == d at the north pole
				tris = append(tris, Triangle{a, c, d})
			}
		}
	}

	return tris
}

// gridMesh generates nx*ny quads (two triangles each) over [0,nx]x[0,ny] in
// the XY plane.
func gridMesh(nx, ny int) []Triangle {
	tris := make([]Triangle, 0, 2*nx*ny)
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			a := mgl32.Vec3{float32(x), float32(y), 0}
			b := mgl32.Vec3{float32(x + 1), float32(y), 0}
			c := mgl32.Vec3{float32(x + 1), float32(y + 1), 0}
			d := mgl32.Vec3{float32(x), float32(y + 1), 0}

			tris = append(tris, Triangle{a, b, c}, Triangle{a, c, d})
		}
	}

	return tris
}

// bruteForceClosest tests the ray against every triangle and keeps the
// closest hit. Reference result for traversal tests.
func bruteForceClosest(triangles []Triangle, r Ray) Intersection {
	best := Intersection{T: -1}
	for i, tri := range triangles {
		res := mollertrumbore.RayIntersectsTriangle(r.Origin, r.Direction, tri)
		if res.Hit && (!best.Hit() || res.T < best.T) {
			best = Intersection{TriangleIndex: i, T: res.T}
		}
	}

	return best
}

// randomRay aims from a random point offset from center by innerRadius to
// outerRadius on every axis (positive offsets only) roughly back at the
// center.
func randomRay(rng *rand.Rand, center mgl32.Vec3, innerRadius, outerRadius float32) Ray {
	randIn := func(lo, hi float32) float32 {
		return lo + (hi-lo)*float32(rng.Float64())
	}

	start := center.Add(mgl32.Vec3{
		randIn(innerRadius, outerRadius),
		randIn(innerRadius, outerRadius),
		randIn(innerRadius, outerRadius),
	})
	end := center.Add(mgl32.Vec3{
		randIn(0, innerRadius),
		randIn(0, innerRadius),
		randIn(0, innerRadius),
	})

	return Ray{Origin: start, Direction: end.Sub(start)}
}

// checkTreeSanity verifies the structural invariants of a built tree:
// triangles overlap their node boxes, child boxes are the parent clipped at
// the split plane, child sets shrink and differ, and leaves hold no
// duplicates.
func checkTreeSanity(t *testing.T, tree *Tree, triangles []Triangle) {
	t.Helper()

	if tree.Empty() {
		require.Empty(t, triangles)
		return
	}

	require.Equal(t, len(tree.Nodes()), len(tree.AABBs()))

	// root box holds every vertex, root set holds every triangle
	rootSet := tree.GetTriangles(0)
	require.Len(t, rootSet, len(triangles))
	for _, tri := range triangles {
		for _, v := range tri {
			assert.True(t, tree.AABBs()[0].ContainsPoint(v, testEpsilon),
				"vertex %v outside root box %v", v, tree.AABBs()[0])
		}
	}

	for i, node := range tree.Nodes() {
		box := tree.AABBs()[i]

		// every referenced triangle overlaps the node box
		for _, ti := range tree.GetTriangles(i) {
			tb := triangles[ti].Bounds()
			for axis := 0; axis < 3; axis++ {
				assert.LessOrEqual(t, tb.Min[axis], box.Max[axis]+testEpsilon,
					"triangle %d does not overlap node %d", ti, i)
				assert.GreaterOrEqual(t, tb.Max[axis], box.Min[axis]-testEpsilon,
					"triangle %d does not overlap node %d", ti, i)
			}
		}

		if node.IsLeaf() {
			start, count := node.PrimitiveStart(), node.PrimitiveCount()
			require.NotZero(t, count, "empty leaf %d", i)
			require.LessOrEqual(t, start+count, len(tree.Indices()))

			rng := tree.Indices()[start : start+count]
			for j := 1; j < len(rng); j++ {
				assert.Less(t, rng[j-1], rng[j], "leaf %d holds duplicate or unsorted indices", i)
			}

			continue
		}

		axis, split := node.Axis(), node.Split()
		right := node.RightChild()
		require.Greater(t, right, i)
		require.Less(t, right, len(tree.Nodes()))

		// children are the parent box clipped at the split plane
		assert.InDelta(t, split, tree.AABBs()[i+1].Max[axis], float64(testEpsilon))
		assert.InDelta(t, split, tree.AABBs()[right].Min[axis], float64(testEpsilon))

		parentSet := tree.GetTriangles(i)
		leftSet := tree.GetTriangles(i + 1)
		rightSet := tree.GetTriangles(right)

		assert.NotEmpty(t, leftSet)
		assert.NotEmpty(t, rightSet)
		assert.Less(t, len(leftSet), len(parentSet),
			"left child of node %d does not shrink", i)
		assert.Less(t, len(rightSet), len(parentSet),
			"right child of node %d does not shrink", i)
		assert.True(t, hasExclusiveElement(leftSet, rightSet),
			"node %d: left child is a subset of the right", i)
		assert.True(t, hasExclusiveElement(rightSet, leftSet),
			"node %d: right child is a subset of the left", i)

		// children cover exactly the parent's set
		union := make(map[int]struct{}, len(parentSet))
		for _, ti := range leftSet {
			union[ti] = struct{}{}
		}
		for _, ti := range rightSet {
			union[ti] = struct{}{}
		}
		assert.Len(t, union, len(parentSet), "children of node %d do not cover the parent set", i)
	}
}

// hasExclusiveElement reports whether a contains an element missing from b.
// Both slices are sorted.
func hasExclusiveElement(a, b []int) bool {
	j := 0
	for _, v := range a {
		for j < len(b) && b[j] < v {
			j++
		}
		if j == len(b) || b[j] != v {
			return true
		}
	}

	return false
}
