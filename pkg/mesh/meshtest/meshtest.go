// Package meshtest provides small meshes shared by the tests of the unfold,
// export and engine packages.
package meshtest

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chazu/papercut/pkg/geom"
	"github.com/chazu/papercut/pkg/mesh"
)

// Build builds in and fails the test on error.
func Build(t testing.TB, in mesh.Input) *mesh.Mesh {
	t.Helper()
	m, err := mesh.Build(context.Background(), in)
	require.NoError(t, err)
	return m
}

// Cube returns an axis-aligned cube with one corner at the origin and
// outward-facing quads.
func Cube(size float64) mesh.Input {
	verts := make([]geom.Vec3, 8)
	for i := range verts {
		verts[i] = geom.Vec3{
			X: float64(i&1) * size,
			Y: float64(i>>1&1) * size,
			Z: float64(i>>2&1) * size,
		}
	}
	return mesh.Input{
		Vertices: verts,
		Faces: [][]int{
			{0, 2, 3, 1}, // bottom
			{4, 5, 7, 6}, // top
			{0, 1, 5, 4}, // front
			{2, 6, 7, 3}, // back
			{0, 4, 6, 2}, // left
			{1, 3, 7, 5}, // right
		},
	}
}

// Tetrahedron returns the corner tetrahedron spanned by the unit axes.
func Tetrahedron() mesh.Input {
	return mesh.Input{
		Vertices: []geom.Vec3{{}, {X: 1}, {Y: 1}, {Z: 1}},
		Faces: [][]int{
			{0, 2, 1},
			{0, 1, 3},
			{0, 3, 2},
			{1, 2, 3},
		},
	}
}

// Strip returns n coplanar quads of size w x h in a row along +X, facing +Z.
// The edge between quad i and quad i+1 joins vertices 2i+2 and 2i+3.
func Strip(n int, w, h float64) mesh.Input {
	in := mesh.Input{Vertices: make([]geom.Vec3, 0, 2*n+2)}
	for i := 0; i <= n; i++ {
		x := float64(i) * w
		in.Vertices = append(in.Vertices, geom.Vec3{X: x}, geom.Vec3{X: x, Y: h})
	}
	for i := 0; i < n; i++ {
		in.Faces = append(in.Faces, []int{2 * i, 2*i + 2, 2*i + 3, 2*i + 1})
	}
	return in
}

// SplitStrip returns a strip of four quads whose middle edge is a forced
// cut, so it unfolds into two islands of two faces.
func SplitStrip(w, h float64) mesh.Input {
	in := Strip(4, w, h)
	in.Edges = []mesh.EdgeSpec{{A: 4, B: 5, ForceCut: true}}
	return in
}

// Square returns a single quad face of the given side length.
func Square(size float64) mesh.Input {
	return mesh.Input{
		Vertices: []geom.Vec3{{}, {X: size}, {X: size, Y: size}, {Y: size}},
		Faces:    [][]int{{0, 1, 2, 3}},
	}
}

// Saddle returns a fan of eight triangles around a central vertex whose rim
// zigzags up and down. The apex angles add up to far more than a full turn,
// so the fan cannot be laid flat in one piece.
func Saddle() mesh.Input {
	in := mesh.Input{Vertices: []geom.Vec3{{}}}
	for k := 0; k < 8; k++ {
		a := float64(k) * math.Pi / 4
		z := 0.8
		if k%2 == 1 {
			z = -0.8
		}
		in.Vertices = append(in.Vertices, geom.Vec3{X: math.Cos(a), Y: math.Sin(a), Z: z})
	}
	for k := 0; k < 8; k++ {
		in.Faces = append(in.Faces, []int{0, 1 + k, 1 + (k+1)%8})
	}
	return in
}

// Valley returns two quads meeting at a concave fold of 45 degrees along
// the edge between vertices 1 and 2.
func Valley() mesh.Input {
	return mesh.Input{
		Vertices: []geom.Vec3{
			{}, {X: 1}, {X: 1, Y: 1}, {Y: 1},
			{X: 2, Z: 1}, {X: 2, Y: 1, Z: 1},
		},
		Faces: [][]int{{0, 1, 2, 3}, {1, 4, 5, 2}},
	}
}

// DegeneratePair returns a triangle sharing its edge 0-1 with a
// zero-area triangle.
func DegeneratePair() mesh.Input {
	return mesh.Input{
		Vertices: []geom.Vec3{{}, {X: 1}, {Y: 1}, {X: 0.5}},
		Faces:    [][]int{{0, 1, 2}, {1, 0, 3}},
	}
}
