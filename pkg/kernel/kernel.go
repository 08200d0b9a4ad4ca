// Package kernel defines the solid-modelling interface the model language
// uses to generate closed surfaces. A kernel turns solids into triangle
// soups; pkg/tessellate welds those into indexed meshes that can be
// unfolded.
package kernel

import "github.com/chazu/papercut/pkg/geom"

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max geom.Vec3)
}

// Kernel builds and tessellates solids. Lengths are in model units.
type Kernel interface {
	// Box has its minimum corner at the origin.
	Box(size geom.Vec3) Solid
	// Cylinder stands on the XY plane around the Z axis, centered on it.
	Cylinder(height, radius float64) Solid

	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	Translate(s Solid, v geom.Vec3) Solid
	// Rotate turns s by Euler angles in degrees, X first.
	Rotate(s Solid, x, y, z float64) Solid

	// ToMesh tessellates s on a grid of cells along its longest side.
	ToMesh(s Solid, cells int) (*Mesh, error)
}
