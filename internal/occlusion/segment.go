package occlusion

import (
	gomath "math"

	"github.com/Faultbox/occlubake/pkg/math"
)

// parallelEpsilon rejects triangles nearly parallel to the segment.
const parallelEpsilon = 1e-12

// Segment is a finite line segment in world space.
type Segment struct {
	From math.Vec3
	To   math.Vec3
}

// Finite reports whether both endpoints are finite numbers.
func (s Segment) Finite() bool {
	for _, v := range [6]float32{s.From.X, s.From.Y, s.From.Z, s.To.X, s.To.Y, s.To.Z} {
		f := float64(v)
		if gomath.IsNaN(f) || gomath.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Box returns the axis-aligned box enclosing the segment.
func (s Segment) Box() (lo, hi math.Vec3) {
	return s.From.Min(s.To), s.From.Max(s.To)
}

// IntersectTriangle reports whether the segment touches triangle (a, b, c).
// Both faces count. The test is Möller-Trumbore restricted to t in [0, 1],
// evaluated in float64.
func (s Segment) IntersectTriangle(a, b, c math.Vec3) bool {
	ox, oy, oz := float64(s.From.X), float64(s.From.Y), float64(s.From.Z)
	dx := float64(s.To.X) - ox
	dy := float64(s.To.Y) - oy
	dz := float64(s.To.Z) - oz

	ax, ay, az := float64(a.X), float64(a.Y), float64(a.Z)
	e1x, e1y, e1z := float64(b.X)-ax, float64(b.Y)-ay, float64(b.Z)-az
	e2x, e2y, e2z := float64(c.X)-ax, float64(c.Y)-ay, float64(c.Z)-az

	// p = d x e2
	px := dy*e2z - dz*e2y
	py := dz*e2x - dx*e2z
	pz := dx*e2y - dy*e2x

	det := e1x*px + e1y*py + e1z*pz
	if gomath.Abs(det) < parallelEpsilon {
		return false
	}
	inv := 1 / det

	tx, ty, tz := ox-ax, oy-ay, oz-az
	u := (tx*px + ty*py + tz*pz) * inv
	if u < 0 || u > 1 {
		return false
	}

	// q = t x e1
	qx := ty*e1z - tz*e1y
	qy := tz*e1x - tx*e1z
	qz := tx*e1y - ty*e1x

	v := (dx*qx + dy*qy + dz*qz) * inv
	if v < 0 || u+v > 1 {
		return false
	}

	t := (e2x*qx + e2y*qy + e2z*qz) * inv
	return t >= 0 && t <= 1
}
