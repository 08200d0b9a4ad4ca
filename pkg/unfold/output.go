package unfold

import (
	"github.com/samber/lo"

	"github.com/chazu/papercut/pkg/geom"
)

// Polygon is a face as laid out in its island, in island coordinates.
type Polygon struct {
	Face   int
	Points []geom.Vec
}

// Polygons returns the faces of the island.
func (isl *Island) Polygons() []Polygon {
	n := isl.net
	out := make([]Polygon, len(isl.faces))
	for i, f := range isl.faces {
		pts := make([]geom.Vec, len(n.faces[f].verts))
		for j, v := range n.faces[f].verts {
			pts[j] = n.co(v)
		}
		out[i] = Polygon{Face: f, Points: pts}
	}
	return out
}

// Loops returns the outline of the island as closed point sequences in
// island coordinates. With stickers set, the outline runs around the glue
// tabs.
func (isl *Island) Loops(stickers bool) [][]geom.Vec {
	n := isl.net
	visited := make(map[int]bool, len(isl.boundary))
	var loops [][]geom.Vec
	for _, first := range isl.boundary {
		if visited[first] {
			continue
		}
		var loop []geom.Vec
		for u := first; u != none && !visited[u]; u = n.uvEdges[u].right {
			visited[u] = true
			ue := &n.uvEdges[u]
			if stickers && ue.sticker != none {
				loop = append(loop, isl.Markers[ue.sticker].Vertices[1:]...)
			} else {
				loop = append(loop, n.co(n.start(u)))
			}
		}
		loops = append(loops, loop)
	}
	return loops
}

// LineKind classifies a line drawn inside an island.
type LineKind int

const (
	LineConvex LineKind = iota
	LineConcave
	LineHighlight
	LineCut
)

func (k LineKind) String() string {
	switch k {
	case LineConvex:
		return "convex"
	case LineConcave:
		return "concave"
	case LineHighlight:
		return "highlight"
	case LineCut:
		return "cut"
	}
	return "unknown"
}

// Line is a fold, cut or highlighted edge in island coordinates.
type Line struct {
	A, B geom.Vec
	Kind LineKind
	Edge int // mesh edge
}

// Lines returns the fold lines of the island, the edges glue tabs are
// folded along, the cut edges without a tab and highlighted edges. Each
// fold is reported once; nearly flat folds are left out. Convex and concave
// are swapped on inside-out islands.
func (isl *Island) Lines() []Line {
	n := isl.net
	var lines []Line
	for _, u := range isl.edges {
		ue := &n.uvEdges[u]
		a, b := n.co(ue.va), n.co(ue.vb)
		cut := n.IsCut(ue.edge, ue.face) && ue.sticker == none
		if cut {
			lines = append(lines, Line{A: a, B: b, Kind: LineCut, Edge: ue.edge})
		}
		if n.mesh.Edges[ue.edge].Highlight {
			lines = append(lines, Line{A: a, B: b, Kind: LineHighlight, Edge: ue.edge})
		}
		if cut {
			continue
		}
		once := n.faces[ue.face].flipped != (n.verts[ue.va].vertex > n.verts[ue.vb].vertex)
		if ue.sticker == none && !once {
			continue
		}
		angle := n.edges[ue.edge].angle
		var kind LineKind
		switch {
		case angle > 0.01:
			kind = lo.Ternary(isl.InsideOut, LineConcave, LineConvex)
		case angle < -0.01:
			kind = lo.Ternary(isl.InsideOut, LineConvex, LineConcave)
		default:
			continue
		}
		lines = append(lines, Line{A: a, B: b, Kind: kind, Edge: ue.edge})
	}
	return lines
}

// FaceUV holds the texture coordinates of one face loop.
type FaceUV struct {
	Face int
	Page int
	UV   []geom.Vec
}

// UVs returns texture coordinates of every face, normalized to the
// printable area of its page. Without packing the coordinates are the raw
// island coordinates.
func (n *Net) UVs() []FaceUV {
	var out []FaceUV
	for _, isl := range n.islands {
		for _, poly := range isl.Polygons() {
			uv := FaceUV{Face: poly.Face, Page: isl.Page, UV: poly.Points}
			for i, p := range uv.UV {
				p = p.Add(isl.Pos)
				if n.page != nil {
					p = geom.Vec{X: p.X / n.page.X, Y: p.Y / n.page.Y}
				}
				uv.UV[i] = p
			}
			out = append(out, uv)
		}
	}
	return out
}
