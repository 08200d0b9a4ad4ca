package kernel

import (
	"math"

	"github.com/chazu/papercut/pkg/geom"
)

// Triangle is one facet of a tessellated solid, counter-clockwise seen
// from outside.
type Triangle [3]geom.Vec3

// Mesh is an unindexed triangle soup: neighbouring triangles repeat the
// positions of their shared corners.
type Mesh struct {
	Triangles []Triangle
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Triangles) == 0
}

// Bounds returns the axis-aligned bounds of all corners. An empty mesh has
// inverted infinite bounds.
func (m *Mesh) Bounds() (min, max geom.Vec3) {
	min = geom.Vec3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = geom.Vec3{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, t := range m.Triangles {
		for _, v := range t {
			min = geom.Vec3{X: math.Min(min.X, v.X), Y: math.Min(min.Y, v.Y), Z: math.Min(min.Z, v.Z)}
			max = geom.Vec3{X: math.Max(max.X, v.X), Y: math.Max(max.Y, v.Y), Z: math.Max(max.Z, v.Z)}
		}
	}
	return min, max
}
