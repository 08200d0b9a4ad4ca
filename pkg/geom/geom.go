// Package geom provides the small amount of planar geometry the unfolder
// needs on top of the sdfx vector types: 2x2 matrices, rigid transforms,
// the projection that lays a 3D face flat, pseudo-angles for ordering
// directions without atan2, and a minimum-area bounding box fit.
package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vec is a 2D point or direction.
type Vec = v2.Vec

// Vec3 is a 3D point or direction.
type Vec3 = v3.Vec

// Box is an axis-aligned 2D bounding box.
type Box = sdf.Box2

// Less orders points lexicographically by (X, Y). The sweep-line and the
// segment min/max endpoints rely on exactly this ordering.
func Less(a, b Vec) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// LessEq is Less or equal.
func LessEq(a, b Vec) bool {
	return !Less(b, a)
}

// Cross returns the z component of the 3D cross product of a and b.
func Cross(a, b Vec) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Finite reports whether every component of v is a finite number.
func Finite(v Vec3) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Normalize3 returns v scaled to unit length, or the zero vector when v has
// no length. sdfx returns NaN components for the latter.
func Normalize3(v Vec3) Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.MulScalar(1 / l)
}

// Angle3 returns the unsigned angle between a and b in radians.
func Angle3(a, b Vec3) float64 {
	la, lb := a.Length(), b.Length()
	if la == 0 || lb == 0 {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// Bounds returns the bounding box of the given points. The zero Box is
// returned for an empty slice.
func Bounds(points []Vec) Box {
	if len(points) == 0 {
		return Box{}
	}
	b := Box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = b.Include(p)
	}
	return b
}
