// Package kdtracer implements a static, SAH-built k-d tree over triangle
// soups together with a closest-hit ray query.
//
// The tree is built once over a borrowed triangle array and is immutable
// afterwards. Nodes are stored in pre-order: the left child of node i is
// always node i+1, so only the right child index is recorded.
package kdtracer

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/saiko-tech/kdtree-tracer/pkg/kdtracer/collision"
)

// Triangle is a triple of 3D points. Triangles are referenced by their index
// in the caller's array; the tree never copies the geometry.
type Triangle [3]mgl32.Vec3

// Bounds returns the tight bounding box of the triangle.
func (t Triangle) Bounds() collision.AABB {
	b := collision.AABB{Min: t[0], Max: t[0]}
	b = b.Extend(t[1])
	return b.Extend(t[2])
}

// Ray is a half-infinite line from Origin along Direction. Direction must be
// nonzero but need not be normalized.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// Config holds the build parameters. The zero value of a field selects its
// default.
type Config struct {
	// CostTraversal is the SAH constant Kt. Default 1.
	CostTraversal float32
	// CostIntersection is the SAH constant Ki. Default 80.
	CostIntersection float32
	// MaxDepth limits the tree depth. 0 means unlimited.
	MaxDepth int
	// MinTriangles makes any node holding this many or fewer triangles a
	// leaf. Default 1.
	MinTriangles int
}

// DefaultConfig returns the default build parameters.
func DefaultConfig() Config {
	return Config{
		CostTraversal:    1,
		CostIntersection: 80,
		MaxDepth:         0,
		MinTriangles:     1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CostTraversal == 0 {
		c.CostTraversal = d.CostTraversal
	}
	if c.CostIntersection == 0 {
		c.CostIntersection = d.CostIntersection
	}
	if c.MinTriangles == 0 {
		c.MinTriangles = d.MinTriangles
	}
	return c
}

// DebugStats captures what a single query visited, in visitation order.
type DebugStats struct {
	TraversedNodes  []int
	TestedTriangles []int
}

// Intersection is the result of a closest-hit query. T < 0 means no hit.
type Intersection struct {
	TriangleIndex int
	T             float32
}

// Hit reports whether the query intersected a triangle.
func (i Intersection) Hit() bool {
	return i.T >= 0
}

// Node is a packed k-d tree node.
//
// header: [leaf flag (1 bit) | split axis (2 bits) | payload (29 bits)]
// where the payload is the right-child index for internal nodes and the
// primitive count for leaves.
// word: float32 split position (internal) or primitive start (leaf).
type Node struct {
	header uint32
	word   uint32
}

const (
	nodeLeafBit     = uint32(1) << 31
	nodeAxisShift   = 29
	nodePayloadMask = uint32(1)<<nodeAxisShift - 1
)

func makeLeaf(primitiveStart, primitiveCount int) Node {
	return Node{
		header: nodeLeafBit | uint32(primitiveCount)&nodePayloadMask,
		word:   uint32(primitiveStart),
	}
}

func makeInternal(axis int, split float32) Node {
	return Node{
		header: uint32(axis) << nodeAxisShift,
		word:   math.Float32bits(split),
	}
}

func (n *Node) setRightChild(idx int) {
	n.header = n.header&^nodePayloadMask | uint32(idx)&nodePayloadMask
}

// IsLeaf reports whether the node holds a primitive range.
func (n Node) IsLeaf() bool {
	return n.header&nodeLeafBit != 0
}

// IsInternal reports whether the node holds a split plane.
func (n Node) IsInternal() bool {
	return !n.IsLeaf()
}

// Axis returns the split axis (0, 1 or 2) of an internal node.
func (n Node) Axis() int {
	return int(n.header >> nodeAxisShift & 3)
}

// Split returns the world-space split position of an internal node.
func (n Node) Split() float32 {
	return math.Float32frombits(n.word)
}

// RightChild returns the node index of an internal node's right child. The
// left child is the node immediately following the parent.
func (n Node) RightChild() int {
	return int(n.header & nodePayloadMask)
}

// PrimitiveStart returns the first index-pool slot owned by a leaf.
func (n Node) PrimitiveStart() int {
	return int(n.word)
}

// PrimitiveCount returns the number of index-pool slots owned by a leaf.
func (n Node) PrimitiveCount() int {
	return int(n.header & nodePayloadMask)
}

// Tree is a built k-d tree. It owns its node, bounding-box and index arrays
// and borrows the triangle array at build and query time.
type Tree struct {
	nodes   []Node
	aabbs   []collision.AABB
	indices []uint32
	cfg     Config
}

// Nodes returns the pre-order node array. Node 0 is the root.
func (t *Tree) Nodes() []Node {
	return t.nodes
}

// AABBs returns the per-node bounding boxes, parallel to Nodes.
func (t *Tree) AABBs() []collision.AABB {
	return t.aabbs
}

// Indices returns the flat triangle-index pool leaves draw their ranges
// from. A triangle straddling a split plane appears once per leaf that
// references it.
func (t *Tree) Indices() []uint32 {
	return t.indices
}

// Config returns the parameters the tree was built with.
func (t *Tree) Config() Config {
	return t.cfg
}

// Empty reports whether the tree holds no nodes.
func (t *Tree) Empty() bool {
	return len(t.nodes) == 0
}

// Height returns the longest root-to-leaf path in edges, or -1 for an empty
// tree.
func (t *Tree) Height() int {
	if t.Empty() {
		return -1
	}
	return t.HeightOf(0)
}

// HeightOf returns the height of the subtree rooted at nodeIndex.
func (t *Tree) HeightOf(nodeIndex int) int {
	node := t.nodes[nodeIndex]
	if node.IsLeaf() {
		return 0
	}

	left := t.HeightOf(nodeIndex + 1)
	right := t.HeightOf(node.RightChild())

	if left > right {
		return left + 1
	}
	return right + 1
}

// GetTriangles returns all triangle indices reachable from nodeIndex,
// de-duplicated and sorted ascending. Intended for debugging and tests.
func (t *Tree) GetTriangles(nodeIndex int) []int {
	if nodeIndex < 0 || nodeIndex >= len(t.nodes) {
		panic(fmt.Sprintf("kdtracer: node index %d out of range [0, %d)", nodeIndex, len(t.nodes)))
	}

	seen := make(map[int]struct{})
	t.collectTriangles(nodeIndex, seen)

	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)

	return out
}

func (t *Tree) collectTriangles(nodeIndex int, seen map[int]struct{}) {
	node := t.nodes[nodeIndex]
	if node.IsLeaf() {
		start, count := node.PrimitiveStart(), node.PrimitiveCount()
		for _, idx := range t.indices[start : start+count] {
			seen[int(idx)] = struct{}{}
		}

		return
	}

	t.collectTriangles(nodeIndex+1, seen)
	t.collectTriangles(node.RightChild(), seen)
}
