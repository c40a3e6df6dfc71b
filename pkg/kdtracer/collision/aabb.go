package collision

import (
	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box with Min <= Max componentwise.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// SurfaceArea returns the total surface area of the box.
func (b AABB) SurfaceArea() float32 {
	d := b.Max.Sub(b.Min)
	return 2 * (d.X()*d.Y() + d.Y()*d.Z() + d.Z()*d.X())
}

// Union returns the smallest box enclosing both b and other.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{
			min32(b.Min.X(), other.Min.X()),
			min32(b.Min.Y(), other.Min.Y()),
			min32(b.Min.Z(), other.Min.Z()),
		},
		Max: mgl32.Vec3{
			max32(b.Max.X(), other.Max.X()),
			max32(b.Max.Y(), other.Max.Y()),
			max32(b.Max.Z(), other.Max.Z()),
		},
	}
}

// Extend grows the box to enclose p.
func (b AABB) Extend(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

// ContainsPoint reports whether p lies inside or on the boundary of the box,
// within eps on each axis.
func (b AABB) ContainsPoint(p mgl32.Vec3, eps float32) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i]-eps || p[i] > b.Max[i]+eps {
			return false
		}
	}
	return true
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
