package unfold

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/chazu/papercut/pkg/geom"
)

// MarkerKind tells what a Marker draws.
type MarkerKind int

const (
	// StickerMarker is a glue tab along a cut edge.
	StickerMarker MarkerKind = iota
	// ArrowMarker points at the edge a numbered tab has to be glued to.
	ArrowMarker
	// NumberMarker labels a cut edge when tabs are disabled.
	NumberMarker
)

func (k MarkerKind) String() string {
	switch k {
	case StickerMarker:
		return "sticker"
	case ArrowMarker:
		return "arrow"
	case NumberMarker:
		return "number"
	}
	return "unknown"
}

// Marker is an annotation drawn on an island. Text is oriented by Rot and
// centered on Center; Size is the text height. Bounds are the points that
// have to fit on the page with the island.
type Marker struct {
	Kind   MarkerKind
	Center geom.Vec
	Rot    geom.Mat2
	Text   string
	Size   float64
	Bounds []geom.Vec
	// Vertices is the tab outline for stickers: it starts and ends on the
	// edge the tab is attached to.
	Vertices []geom.Vec
	Edge     int // mesh edge
}

func (m *Marker) transform(a geom.Affine) {
	m.Center = a.Apply(m.Center)
	m.Rot = a.M.Mul(m.Rot)
	for i := range m.Bounds {
		m.Bounds[i] = a.Apply(m.Bounds[i])
	}
	for i := range m.Vertices {
		m.Vertices[i] = a.Apply(m.Vertices[i])
	}
}

func (m *Marker) scale(k float64) {
	m.Center = m.Center.MulScalar(k)
	m.Size *= k
	for i := range m.Bounds {
		m.Bounds[i] = m.Bounds[i].MulScalar(k)
	}
	for i := range m.Vertices {
		m.Vertices[i] = m.Vertices[i].MulScalar(k)
	}
}

// upsideDownWrong reports whether text reads as something else when turned
// by 180 degrees, like "6" and "9".
func upsideDownWrong(text string) bool {
	const mistakable = "69NZMWpbqd"
	const rotatable = "80oOxXIl" + mistakable
	return text != "" &&
		lo.EveryBy([]rune(text), func(r rune) bool { return strings.ContainsRune(rotatable, r) }) &&
		strings.ContainsAny(text, mistakable)
}

func markIndex(i int) string {
	s := strconv.Itoa(i)
	if upsideDownWrong(s) {
		s += "."
	}
	return s
}

// facePriority is high for compact faces, which make better tab carriers.
func (n *Net) facePriority(u int) float64 {
	f := n.faces[n.uvEdges[u].face]
	perimeter := 0.0
	for i, v := range f.verts {
		perimeter += n.co(f.verts[(i+1)%len(f.verts)]).Sub(n.co(v)).Length()
	}
	if perimeter == 0 {
		return 0
	}
	return n.mesh.Faces[n.uvEdges[u].face].Area / perimeter
}

func (n *Net) length2D(u int) float64 {
	return n.co(n.uvEdges[u].vb).Sub(n.co(n.uvEdges[u].va)).Length()
}

// generateStickers puts a glue tab on one side of every cut. With numbers
// set, tabs whose partner is hard to find are numbered and an arrow marks
// the edge they belong to.
func (n *Net) generateStickers(width float64, numbers bool) {
	for e := range n.edges {
		st := &n.edges[e]
		var index string
		var target *Island
		switch {
		case st.isMainCut && len(st.uvedges) >= 2 && n.mesh.Edges[e].Length > 0:
			a, b := st.uvedges[0], st.uvedges[1]
			if n.facePriority(a) < n.facePriority(b) {
				a, b = b, a
			}
			target = n.islandOf(a)
			if numbers && n.needsNumber(a, b, st.uvedges[2:]) {
				target.stickerNumbering++
				index = markIndex(target.stickerNumbering)
				target.addMarker(n.arrow(a, width, index))
			}
			n.addSticker(b, width, index, target)
		case len(st.uvedges) > 2:
			target = n.islandOf(st.uvedges[0])
		}
		if len(st.uvedges) > 2 {
			for _, u := range st.uvedges[2:] {
				n.addSticker(u, width, index, target)
			}
		}
	}
}

// needsNumber reports whether some tab for the cut at a would not be
// obvious to match, because it is not adjacent to a along the same
// neighbours.
func (n *Net) needsNumber(a, b int, extra []int) bool {
	ae := &n.uvEdges[a]
	leftEdge, rightEdge := n.edgeOf(ae.left), n.edgeOf(ae.right)
	return lo.SomeBy(append([]int{b}, extra...), func(u int) bool {
		ue := &n.uvEdges[u]
		return (n.edgeOf(ue.left) != rightEdge || n.edgeOf(ue.right) != leftEdge) &&
			u != ae.left && u != ae.right
	})
}

func (n *Net) addSticker(u int, width float64, index string, target *Island) {
	if n.length2D(u) == 0 {
		return
	}
	isl := n.islandOf(u)
	m := n.sticker(u, width)
	m.Text = index
	if index != "" && target != isl {
		m.Text = fmt.Sprintf("%s:%s", target.Abbreviation, index)
	}
	n.uvEdges[u].sticker = isl.addMarker(m)
}

// sticker builds a trapezoidal tab on u. Its slanted sides are at most 60
// degrees from the edge and are trimmed so the tab stays clear of the tab
// area of the neighbouring partner edge.
func (n *Net) sticker(u int, width float64) Marker {
	ue := &n.uvEdges[u]
	first, second := n.co(ue.va), n.co(ue.vb)
	if n.flipped(u) {
		first, second = second, first
	}
	edge := first.Sub(second)
	l := edge.Length()
	w := math.Min(width, l/2)

	other := n.otherUVEdge(u)
	oe := &n.uvEdges[other]
	ofirst, osecond := n.co(oe.va), n.co(oe.vb)
	if n.flipped(other) {
		ofirst, osecond = osecond, ofirst
	}
	otherEdge := osecond.Sub(ofirst)

	cosA, cosB := 0.5, 0.5
	sinA, sinB := math.Sqrt(0.75), math.Sqrt(0.75)
	lenA := w / sinA
	lenB := lenA
	switch {
	case first == osecond:
		cosA = math.Max(cosA, edge.Dot(otherEdge)/(l*l))
		sinA = math.Sqrt(math.Abs(1 - cosA*cosA))
		lenB = math.Min(lenA, l*sinA/(sinA*cosB+sinB*cosA))
		if sinA == 0 {
			lenA = 0
		} else {
			lenA = math.Min(w/sinA, (l-lenB*cosB)/cosA)
		}
	case second == ofirst:
		cosB = math.Max(cosB, edge.Dot(otherEdge)/(l*l))
		sinB = math.Sqrt(math.Abs(1 - cosB*cosB))
		lenA = math.Min(lenA, l*sinB/(sinA*cosB+sinB*cosA))
		if sinB == 0 {
			lenB = 0
		} else {
			lenB = math.Min(w/sinB, (l-lenA*cosA)/cosB)
		}
	}
	v3 := second.Add(geom.Mat2{A: cosB, B: -sinB, C: sinB, D: cosB}.Apply(edge).MulScalar(lenB / l))
	v4 := first.Add(geom.Mat2{A: -cosA, B: -sinA, C: sinA, D: -cosA}.Apply(edge).MulScalar(lenA / l))

	rot := geom.RotationTo(edge)
	size := 0.9 * w
	mid := n.co(ue.va).Add(n.co(ue.vb)).MulScalar(0.5)
	m := Marker{
		Kind:   StickerMarker,
		Rot:    rot,
		Size:   size,
		Center: mid.Add(rot.Apply(geom.Vec{Y: 0.2 * size})),
		Edge:   ue.edge,
	}
	if v3 != v4 {
		m.Vertices = []geom.Vec{second, v3, v4, first}
		m.Bounds = []geom.Vec{v3, v4, m.Center}
	} else {
		m.Vertices = []geom.Vec{second, v3, first}
		m.Bounds = []geom.Vec{v3, m.Center}
	}
	return m
}

// arrow points from inside the island at edge u.
func (n *Net) arrow(u int, size float64, index string) Marker {
	ue := &n.uvEdges[u]
	edge := n.co(ue.vb).Sub(n.co(ue.va))
	if n.flipped(u) {
		edge = edge.MulScalar(-1)
	}
	center := n.co(ue.va).Add(n.co(ue.vb)).MulScalar(0.5)
	t := edge.MulScalar(1 / edge.Length())
	normal := geom.Vec{X: t.Y, Y: -t.X}
	return Marker{
		Kind:   ArrowMarker,
		Center: center,
		Rot:    geom.RotationTo(edge),
		Text:   index,
		Size:   size,
		Bounds: []geom.Vec{
			center,
			center.Add(normal.MulScalar(1.2).Add(t).MulScalar(size)),
			center.Add(normal.MulScalar(1.2).Sub(t).MulScalar(size)),
		},
		Edge: ue.edge,
	}
}

// generateNumbersAlone numbers every cut on both sides instead of adding
// tabs.
func (n *Net) generateNumbersAlone(size float64) {
	numbering := 0
	for e := range n.edges {
		st := &n.edges[e]
		if !st.isMainCut || len(st.uvedges) < 2 {
			continue
		}
		numbering++
		index := markIndex(numbering)
		for _, u := range st.uvedges {
			if n.length2D(u) == 0 {
				continue
			}
			n.islandOf(u).addMarker(n.numberAlone(u, index, size))
		}
	}
}

func (n *Net) numberAlone(u int, index string, size float64) Marker {
	ue := &n.uvEdges[u]
	edge := n.co(ue.va).Sub(n.co(ue.vb))
	if n.flipped(u) {
		edge = edge.MulScalar(-1)
	}
	rot := geom.RotationTo(edge)
	mid := n.co(ue.va).Add(n.co(ue.vb)).MulScalar(0.5)
	center := mid.Sub(rot.Apply(geom.Vec{Y: 1.2 * size}))
	return Marker{
		Kind:   NumberMarker,
		Center: center,
		Rot:    rot,
		Text:   index,
		Size:   size,
		Bounds: []geom.Vec{center},
		Edge:   ue.edge,
	}
}
