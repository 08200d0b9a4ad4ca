package unfold

import (
	"math"

	"github.com/samber/lo"

	"github.com/chazu/papercut/pkg/geom"
)

// Island is a connected group of faces laid out in one 2D frame.
type Island struct {
	Number       int // 1-based, largest island first
	Label        string
	Abbreviation string
	Title        string // drawn above the island when set

	// Pos is the bottom-left corner on the page and BoundingBox the size of
	// the island, including markers and title.
	Pos         geom.Vec
	BoundingBox geom.Vec
	Page        int // index into Net.Pages, or -1 when not packed

	// InsideOut swaps convex and concave folds when drawing.
	InsideOut bool
	// DegenerateBoundary is set when boundary edges met at a point in a way
	// that could not be paired into loops.
	DegenerateBoundary bool

	Markers []Marker

	net      *Net
	faces    []int // mesh faces
	edges    []int // uv edges
	verts    []int // uv vertices
	byVertex map[int][]int
	boundary []int // uv edges on the boundary
	safe     bool  // the quick sweep-line has never failed on this island

	stickerNumbering int
	titleHeight      float64
	turn             float64 // total angle applied by normalize
}

// Faces returns the indices of the mesh faces in the island.
func (isl *Island) Faces() []int {
	return isl.faces
}

// TitleHeight returns the height of the strip reserved for the title at the
// bottom of the bounding box.
func (isl *Island) TitleHeight() float64 {
	return isl.titleHeight
}

func (isl *Island) points() []geom.Vec {
	pts := lo.Map(isl.verts, func(v int, _ int) geom.Vec { return isl.net.co(v) })
	for _, m := range isl.Markers {
		pts = append(pts, m.Bounds...)
	}
	return pts
}

// transform moves every vertex and marker of the island through a.
func (isl *Island) transform(a geom.Affine) {
	n := isl.net
	for _, v := range isl.verts {
		n.verts[v].co = a.Apply(n.verts[v].co)
	}
	for i := range isl.Markers {
		isl.Markers[i].transform(a)
	}
}

// normalize turns the island by angle and moves it so that its bounding
// box, together with the title space below it, starts at the origin.
func (isl *Island) normalize(angle float64) {
	isl.turn += angle
	isl.transform(geom.Affine{M: geom.Rotation(angle)})
	b := geom.Bounds(isl.points())
	isl.transform(geom.Translation(geom.Vec{X: -b.Min.X, Y: isl.titleHeight - b.Min.Y}))
	isl.BoundingBox = geom.Vec{X: b.Max.X - b.Min.X, Y: b.Max.Y - b.Min.Y + isl.titleHeight}
}

// orient turns isl so that its bounding box fits area, possibly turned by a
// right angle. The current orientation is tried first, then each edge of the
// convex hull and last the frame the island was joined in, which the page
// limit was checked against. When nothing fits, isl is left as it was.
func (isl *Island) orient(area geom.Vec) bool {
	base := isl.turn
	targets := []float64{base}
	for _, a := range geom.BoxFitAngles(isl.points()) {
		targets = append(targets, base+a)
	}
	targets = append(targets, 0)
	for _, target := range targets {
		isl.normalize(target - isl.turn)
		if isl.fits(area) {
			return true
		}
		isl.normalize(math.Pi / 2)
		if isl.fits(area) {
			return true
		}
	}
	isl.normalize(base - isl.turn)
	return false
}

func (isl *Island) fits(area geom.Vec) bool {
	return isl.BoundingBox.X <= area.X && isl.BoundingBox.Y <= area.Y
}

func (isl *Island) addMarker(m Marker) int {
	isl.Markers = append(isl.Markers, m)
	return len(isl.Markers) - 1
}
