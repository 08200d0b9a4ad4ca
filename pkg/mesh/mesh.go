// Package mesh holds the immutable topology the unfolder works on: vertices,
// edges with their adjacent faces, and faces with normals and areas. A Mesh
// is built once from an Input and never changes afterwards; all per-run
// state lives in the unfold package.
package mesh

import (
	"context"
	"math"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/papercut/pkg/geom"
)

// DegenerateAngle is the dihedral angle reported for an edge next to a face
// without a usable normal. It sorts below every real concave angle so such
// edges are the last ones considered for folding.
const DegenerateAngle = -3.0

// EdgeSpec is an optional explicit edge of the Input.
type EdgeSpec struct {
	A         int  `json:"a"`
	B         int  `json:"b"`
	ForceCut  bool `json:"forceCut,omitempty"`
	Highlight bool `json:"highlight,omitempty"`
}

// Input is the mesh as handed over by the host: world-space vertex
// positions, faces as loops of vertex indices with consistent winding, and
// an optional edge list. Edges missing from the list are derived from the
// faces.
type Input struct {
	Vertices []geom.Vec3 `json:"vertices"`
	Faces    [][]int     `json:"faces"`
	Edges    []EdgeSpec  `json:"edges,omitempty"`
}

// Vertex is a mesh vertex.
type Vertex struct {
	Index int
	Co    geom.Vec3
}

// Edge is an undirected mesh edge between vertices A and B.
type Edge struct {
	Index  int
	A, B   int
	Vector geom.Vec3 // B - A
	Length float64

	// Faces lists the adjacent faces in input order.
	Faces []int
	// MainFaces are the two faces that may be folded together across this
	// edge. Valid only if HasMain.
	MainFaces [2]int
	HasMain   bool
	// Angle is the signed dihedral angle between the main faces: positive
	// for convex folds, negative for concave ones, DegenerateAngle when a
	// main face has no normal.
	Angle float64

	ForceCut  bool
	Highlight bool
}

// Face is a polygon of the mesh.
type Face struct {
	Index int
	Verts []int
	// Edges[i] joins Verts[i] and Verts[(i+1)%len(Verts)].
	Edges  []int
	Normal geom.Vec3 // unit length, or zero for a degenerate face
	Area   float64
}

// Mesh is the built topology.
type Mesh struct {
	Vertices []Vertex
	Edges    []Edge
	Faces    []Face
	Warnings []ValidationError

	edgeIndex map[[2]int]int
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Build validates in and builds the mesh topology. Structural problems are
// reported as a single *InvalidInputError; geometric oddities become
// Warnings. Normals, areas and dihedral angles are computed concurrently.
func Build(ctx context.Context, in Input) (*Mesh, error) {
	result := Validate(in)
	if !result.OK() {
		return nil, errors.WithStack(&InvalidInputError{Errors: result.Errors})
	}

	m := &Mesh{
		Vertices:  make([]Vertex, len(in.Vertices)),
		Faces:     make([]Face, len(in.Faces)),
		Warnings:  result.Warnings,
		edgeIndex: make(map[[2]int]int, len(in.Edges)+len(in.Faces)*2),
	}
	for i, co := range in.Vertices {
		m.Vertices[i] = Vertex{Index: i, Co: co}
	}
	for _, spec := range in.Edges {
		m.addEdge(spec.A, spec.B, spec.ForceCut, spec.Highlight)
	}
	for i, loop := range in.Faces {
		f := Face{Index: i, Verts: append([]int(nil), loop...), Edges: make([]int, len(loop))}
		for j, a := range loop {
			b := loop[(j+1)%len(loop)]
			e, ok := m.edgeIndex[edgeKey(a, b)]
			if !ok {
				e = m.addEdge(a, b, false, false)
			}
			f.Edges[j] = e
			if !containsInt(m.Edges[e].Faces, i) {
				m.Edges[e].Faces = append(m.Edges[e].Faces, i)
			}
		}
		m.Faces[i] = f
	}

	if err := parallelFor(ctx, len(m.Faces), func(i int) {
		m.computeFace(&m.Faces[i])
	}); err != nil {
		return nil, errors.Wrap(err, "mesh: face normals")
	}
	if err := parallelFor(ctx, len(m.Edges), func(i int) {
		e := &m.Edges[i]
		e.MainFaces, e.HasMain = m.chooseMainFaces(e)
		if e.HasMain {
			e.Angle = m.CalculateAngle(i, e.MainFaces, false, false)
		}
	}); err != nil {
		return nil, errors.Wrap(err, "mesh: dihedral angles")
	}
	return m, nil
}

func (m *Mesh) addEdge(a, b int, forceCut, highlight bool) int {
	va, vb := m.Vertices[a].Co, m.Vertices[b].Co
	vec := vb.Sub(va)
	idx := len(m.Edges)
	m.Edges = append(m.Edges, Edge{
		Index:     idx,
		A:         a,
		B:         b,
		Vector:    vec,
		Length:    vec.Length(),
		ForceCut:  forceCut,
		Highlight: highlight,
	})
	m.edgeIndex[edgeKey(a, b)] = idx
	return idx
}

// EdgeBetween returns the index of the edge joining vertices a and b.
func (m *Mesh) EdgeBetween(a, b int) (int, bool) {
	e, ok := m.edgeIndex[edgeKey(a, b)]
	return e, ok
}

// IsTwisted reports whether face f is an n-gon noticeably out of plane.
func (m *Mesh) IsTwisted(f int) bool {
	face := &m.Faces[f]
	return isTwisted(m.faceCoords(face), face.Normal)
}

func (m *Mesh) faceCoords(f *Face) []geom.Vec3 {
	co := make([]geom.Vec3, len(f.Verts))
	for i, v := range f.Verts {
		co[i] = m.Vertices[v].Co
	}
	return co
}

func (m *Mesh) computeFace(f *Face) {
	co := m.faceCoords(f)
	if len(co) == 3 {
		n := co[1].Sub(co[0]).Cross(co[2].Sub(co[0]))
		f.Area = n.Length() / 2
		f.Normal = geom.Normalize3(n)
		return
	}
	n, area := newellNormal(co)
	f.Area = area
	f.Normal = geom.Normalize3(n)
}

// newellNormal returns the (unnormalized) Newell normal of a polygon and
// the polygon's area, which is half the normal's length.
func newellNormal(co []geom.Vec3) (geom.Vec3, float64) {
	var n geom.Vec3
	for i, a := range co {
		b := co[(i+1)%len(co)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n, n.Length() / 2
}

// chooseMainFaces picks the two faces that may be folded across e. For a
// non-manifold edge this is the pair whose normals are the most parallel.
func (m *Mesh) chooseMainFaces(e *Edge) ([2]int, bool) {
	switch {
	case len(e.Faces) < 2:
		return [2]int{}, false
	case len(e.Faces) == 2:
		return [2]int{e.Faces[0], e.Faces[1]}, true
	}
	best, bestDot := [2]int{}, -1.0
	for i, a := range e.Faces {
		for _, b := range e.Faces[i+1:] {
			d := math.Abs(m.Faces[a].Normal.Dot(m.Faces[b].Normal))
			if d > bestDot {
				best, bestDot = [2]int{a, b}, d
			}
		}
	}
	return best, true
}

// CalculateAngle returns the signed dihedral angle of edge e between the
// faces main[0] and main[1]. flipA and flipB tell whether the faces have
// been laid out mirrored; before unfolding both are false.
func (m *Mesh) CalculateAngle(e int, main [2]int, flipA, flipB bool) float64 {
	edge := &m.Edges[e]
	fa, fb := &m.Faces[main[0]], &m.Faces[main[1]]
	if fa.Normal.Length() == 0 || fb.Normal.Length() == 0 {
		return DegenerateAngle
	}
	aCW := traversesBackwards(fa, edge) != flipA
	bCW := traversesBackwards(fb, edge) != flipB
	equalFlip := flipA == flipB
	if aCW != bCW {
		angle := geom.Angle3(fa.Normal, fb.Normal)
		upwards := fb.Normal.Cross(fa.Normal).Dot(edge.Vector) > 0
		if (aCW == upwards) == equalFlip {
			return angle
		}
		return -angle
	}
	// Inconsistent winding between the two faces.
	return geom.Angle3(fa.Normal, fb.Normal.MulScalar(-1))
}

// traversesBackwards reports whether face f walks e from B to A.
func traversesBackwards(f *Face, e *Edge) bool {
	n := len(f.Verts)
	ia, ib := indexOf(f.Verts, e.A), indexOf(f.Verts, e.B)
	return ((ia-ib)%n+n)%n == 1
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func containsInt(s []int, v int) bool {
	return indexOf(s, v) >= 0
}

// parallelFor runs fn for 0 <= i < n split into chunks across the available
// CPUs. fn must only touch state owned by index i.
func parallelFor(ctx context.Context, n int, fn func(i int)) error {
	if n == 0 {
		return ctx.Err()
	}
	workers := runtime.GOMAXPROCS(0)
	chunk := (n + workers - 1) / workers
	if chunk < 64 {
		chunk = 64
	}
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		start, end := start, min(start+chunk, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}
