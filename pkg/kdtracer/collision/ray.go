package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/saiko-tech/kdtree-tracer/pkg/kdtracer/stats"
)

// RayIntersectsAxisAlignedBoundingBox intersects a ray against an
// axis-aligned bounding box using the slab method and returns the entry and
// exit times. hit is false when the ray misses the box or the box lies
// entirely behind the ray origin.
func RayIntersectsAxisAlignedBoundingBox(origin, direction, min, max mgl32.Vec3) (tNear, tFar float32, hit bool) {
	stats.Global.RayVsAabb++

	tNear = float32(math.Inf(-1))
	tFar = float32(math.Inf(1))

	for i := 0; i < 3; i++ {
		if direction[i] == 0 {
			// Parallel to the slab: either always inside it or never.
			if origin[i] < min[i] || origin[i] > max[i] {
				return 0, 0, false
			}

			continue
		}

		inv := 1 / direction[i]
		t1 := (min[i] - origin[i]) * inv
		t2 := (max[i] - origin[i]) * inv

		if t1 > t2 {
			t1, t2 = t2, t1
		}

		if t1 > tNear {
			tNear = t1
		}
		if t2 < tFar {
			tFar = t2
		}
	}

	if tFar < 0 || tNear > tFar {
		return 0, 0, false
	}

	return tNear, tFar, true
}
