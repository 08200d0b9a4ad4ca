// Package tessellate turns kernel solids into indexed meshes the unfolder
// can work on: it runs the kernel's tessellator and welds the resulting
// triangle soup so that neighbouring triangles share vertices.
package tessellate

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/chazu/papercut/pkg/geom"
	"github.com/chazu/papercut/pkg/kernel"
	"github.com/chazu/papercut/pkg/mesh"
)

// RelativeTolerance is the welding distance as a fraction of the diagonal of
// the soup's bounding box.
const RelativeTolerance = 1e-6

// welder merges points closer than tol using a hash grid with cells of
// size tol; candidates are searched in the 27 surrounding cells.
type welder struct {
	tol   float64
	grid  map[[3]int64][]int
	verts []geom.Vec3
}

func newWelder(tol float64) *welder {
	return &welder{tol: tol, grid: make(map[[3]int64][]int)}
}

func (w *welder) cell(v geom.Vec3) [3]int64 {
	return [3]int64{
		int64(math.Floor(v.X / w.tol)),
		int64(math.Floor(v.Y / w.tol)),
		int64(math.Floor(v.Z / w.tol)),
	}
}

func (w *welder) index(v geom.Vec3) int {
	c := w.cell(v)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, i := range w.grid[[3]int64{c[0] + dx, c[1] + dy, c[2] + dz}] {
					if w.verts[i].Sub(v).Length() <= w.tol {
						return i
					}
				}
			}
		}
	}
	i := len(w.verts)
	w.verts = append(w.verts, v)
	w.grid[c] = append(w.grid[c], i)
	return i
}

// Weld indexes a triangle soup. Corners closer than tol are merged; a zero
// tol is derived from RelativeTolerance. Triangles that collapse onto an
// edge or a point are dropped.
func Weld(m *kernel.Mesh, tol float64) mesh.Input {
	if m.IsEmpty() {
		return mesh.Input{}
	}
	if tol <= 0 {
		min, max := m.Bounds()
		tol = max.Sub(min).Length() * RelativeTolerance
		if tol == 0 {
			tol = RelativeTolerance
		}
	}
	w := newWelder(tol)
	var in mesh.Input
	for _, t := range m.Triangles {
		face := []int{w.index(t[0]), w.index(t[1]), w.index(t[2])}
		if len(lo.Uniq(face)) < 3 {
			continue
		}
		in.Faces = append(in.Faces, face)
	}
	in.Vertices = w.verts
	return in
}

// Append adds src to dst, renumbering its vertices, and returns the index
// of the first face added.
func Append(dst *mesh.Input, src mesh.Input) int {
	offset, first := len(dst.Vertices), len(dst.Faces)
	dst.Vertices = append(dst.Vertices, src.Vertices...)
	for _, f := range src.Faces {
		dst.Faces = append(dst.Faces, lo.Map(f, func(v int, _ int) int { return v + offset }))
	}
	for _, e := range src.Edges {
		e.A += offset
		e.B += offset
		dst.Edges = append(dst.Edges, e)
	}
	return first
}

// Solid tessellates s with the kernel and welds the result.
func Solid(ctx context.Context, k kernel.Kernel, s kernel.Solid, cells int) (mesh.Input, error) {
	if err := ctx.Err(); err != nil {
		return mesh.Input{}, err
	}
	soup, err := k.ToMesh(s, cells)
	if err != nil {
		return mesh.Input{}, errors.Wrap(err, "tessellate")
	}
	if soup.IsEmpty() {
		return mesh.Input{}, errors.New("tessellate: the solid produced no triangles")
	}
	return Weld(soup, 0), nil
}
