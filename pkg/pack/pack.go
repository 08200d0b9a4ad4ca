// Package pack places rectangles onto fixed-size pages. Candidate positions
// are the combinations of a set of x and y "stops" which grow as boxes are
// placed; boxes already on a page are kept in an R-tree for collision
// queries.
package pack

import (
	"context"
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/chazu/papercut/pkg/geom"
)

// Placement is the position of one input box on a page.
type Placement struct {
	Index int      // index into the sizes passed to Fit
	Pos   geom.Vec // bottom-left corner
}

// Page lists the boxes placed on one page in placement order.
type Page struct {
	Items []Placement
}

// OversizedError reports a box that does not fit on an empty page.
type OversizedError struct {
	Index int
	Size  geom.Vec
	Area  geom.Vec
}

func (e *OversizedError) Error() string {
	return fmt.Sprintf("box %d (%.4g x %.4g) does not fit the page (%.4g x %.4g)",
		e.Index, e.Size.X, e.Size.Y, e.Area.X, e.Area.Y)
}

// Fit distributes boxes of the given sizes over as many pages of the given
// area as needed. Larger boxes (by diagonal) are placed first. A box larger
// than the area in either dimension is an *OversizedError.
func Fit(ctx context.Context, sizes []geom.Vec, area geom.Vec) ([]Page, error) {
	for i, s := range sizes {
		if !(s.X <= area.X && s.Y <= area.Y) {
			return nil, errors.WithStack(&OversizedError{Index: i, Size: s, Area: area})
		}
	}

	remaining := lo.Range(len(sizes))
	sort.SliceStable(remaining, func(i, j int) bool {
		return sizes[remaining[i]].Length2() > sizes[remaining[j]].Length2()
	})
	budget := 4*len(sizes) + 100

	var pages []Page
	for len(remaining) > 0 {
		p := newSheet(area)
		for _, idx := range remaining {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, "pack")
			}
			p.tryEmplace(idx, sizes[idx])
			if len(p.stopsX)*len(p.stopsX) > budget {
				p.stopsX = dropPortion(p.stopsX, area.X, 4)
				p.stopsY = dropPortion(p.stopsY, area.Y, 4)
			}
		}
		if len(p.items) == 0 {
			return nil, errors.Errorf("pack: no box fits on an empty page, %d left", len(remaining))
		}
		placed := lo.SliceToMap(p.items, func(item Placement) (int, bool) { return item.Index, true })
		remaining = lo.Reject(remaining, func(idx int, _ int) bool { return placed[idx] })
		pages = append(pages, Page{Items: p.items})
	}
	return pages, nil
}

type obstacle struct {
	pos, size geom.Vec
	rect      rtreego.Rect
}

func (o *obstacle) Bounds() rtreego.Rect {
	return o.rect
}

type sheet struct {
	area     geom.Vec
	stopsX   []float64
	stopsY   []float64
	occupied map[[2]float64]bool
	tree     *rtreego.Rtree
	items    []Placement
}

func newSheet(area geom.Vec) *sheet {
	return &sheet{
		area:     area,
		stopsX:   []float64{0},
		stopsY:   []float64{0},
		occupied: make(map[[2]float64]bool),
		tree:     rtreego.NewTree(2, 4, 16),
	}
}

func boxRect(pos, size geom.Vec) rtreego.Rect {
	r, err := rtreego.NewRectFromPoints(
		rtreego.Point{pos.X, pos.Y},
		rtreego.Point{pos.X + size.X, pos.Y + size.Y},
	)
	if err != nil {
		// Both points are always two-dimensional.
		panic(err)
	}
	return r
}

// tryEmplace puts the box at the first free stop combination and reports
// whether it succeeded. Positions found to lie inside an obstacle are
// remembered so later boxes skip them.
func (s *sheet) tryEmplace(idx int, size geom.Vec) bool {
	for _, x := range s.stopsX {
		if x+size.X > s.area.X {
			continue
		}
		for _, y := range s.stopsY {
			if y+size.Y > s.area.Y || s.occupied[[2]float64{x, y}] {
				continue
			}
			pos := geom.Vec{X: x, Y: y}
			hits := s.tree.SearchIntersect(boxRect(pos, size))
			if len(hits) > 0 {
				for _, h := range hits {
					o := h.(*obstacle)
					if x >= o.pos.X && y >= o.pos.Y {
						s.occupied[[2]float64{x, y}] = true
						break
					}
				}
				continue
			}
			s.tree.Insert(&obstacle{pos: pos, size: size, rect: boxRect(pos, size)})
			s.items = append(s.items, Placement{Index: idx, Pos: pos})
			s.stopsX = append(s.stopsX, x+size.X)
			s.stopsY = append(s.stopsY, y+size.Y)
			return true
		}
	}
	return false
}

// dropPortion sorts stops and keeps the first one plus those followed by a
// gap at least as wide as the 1/divisor quantile of all gaps. The gap of a
// stop is measured to the stop after its successor, or to border.
func dropPortion(stops []float64, border float64, divisor int) []float64 {
	sort.Float64s(stops)
	if len(stops) < 2 {
		return stops
	}
	distances := make([]float64, len(stops)-1)
	for i := range distances {
		right := border
		if i+2 < len(stops) {
			right = stops[i+2]
		}
		distances[i] = right - stops[i]
	}
	sorted := append([]float64(nil), distances...)
	sort.Float64s(sorted)
	quantile := sorted[len(sorted)/divisor]

	kept := []float64{stops[0]}
	for i, d := range distances {
		if d >= quantile {
			kept = append(kept, stops[i+1])
		}
	}
	return kept
}
