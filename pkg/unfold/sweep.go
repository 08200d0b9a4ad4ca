package unfold

import (
	"sort"

	"github.com/chazu/papercut/pkg/geom"
)

// sweepResult is the outcome of an overlap test. Neither outcome other than
// sweepOK is an error: sweepOverlap rejects a join, sweepInconsistent makes
// the caller retry with the exhaustive sweep-line.
type sweepResult int

const (
	sweepOK sweepResult = iota
	sweepOverlap
	sweepInconsistent
)

func (r sweepResult) String() string {
	switch r {
	case sweepOK:
		return "ok"
	case sweepOverlap:
		return "overlap"
	case sweepInconsistent:
		return "inconsistent"
	}
	return "unknown"
}

// segment is a boundary edge as seen by the overlap test. Vertex ids are
// only compared for identity.
type segment struct {
	uvedge       int
	va, vb       int
	min, max     geom.Vec
	minID, maxID int
	bottom, top  float64
	// upwards is set when the face lies on the left of min->max.
	upwards bool
	phantom bool // belongs to the island being joined
}

func newSegment(uvedge, va, vb int, a, b geom.Vec, flipped, phantom bool) *segment {
	s := &segment{uvedge: uvedge, va: va, vb: vb, phantom: phantom}
	if geom.Less(a, b) {
		s.min, s.max, s.minID, s.maxID = a, b, va, vb
	} else {
		s.min, s.max, s.minID, s.maxID = b, a, vb, va
	}
	s.bottom, s.top = a.Y, b.Y
	if s.top < s.bottom {
		s.bottom, s.top = s.top, s.bottom
	}
	s.upwards = geom.Less(a, b) != flipped
	return s
}

// isBelow orders two segments that are both crossed by a vertical sweep
// line. With strict set, collinear overlapping segments are reported as an
// inconsistency instead of being resolved by face orientation.
func isBelow(s, o *segment, strict bool) (bool, sweepResult) {
	if s == o {
		return false, sweepOK
	}
	if s.top < o.bottom {
		return true, sweepOK
	}
	if o.top < s.bottom {
		return false, sweepOK
	}
	if geom.LessEq(s.max, o.min) {
		return true, sweepOK
	}
	if geom.LessEq(o.max, s.min) {
		return false, sweepOK
	}

	sv := s.max.Sub(s.min)
	minToMin := o.min.Sub(s.min)
	b1, b2 := geom.Cross(sv, minToMin), geom.Cross(sv, o.max.Sub(s.min))
	if b2 < b1 {
		b1, b2 = b2, b1
	}
	if b2 > 0 && (b1 > 0 || (b1 == 0 && !s.upwards)) {
		return true, sweepOK
	}
	if b1 < 0 && (b2 < 0 || (b2 == 0 && s.upwards)) {
		return false, sweepOK
	}

	ov := o.max.Sub(o.min)
	a1, a2 := geom.Cross(ov, s.min.Sub(o.min)), geom.Cross(ov, s.max.Sub(o.min))
	if a2 < a1 {
		a1, a2 = a2, a1
	}
	if a2 > 0 && (a1 > 0 || (a1 == 0 && !o.upwards)) {
		return false, sweepOK
	}
	if a1 < 0 && (a2 < 0 || (a2 == 0 && o.upwards)) {
		return true, sweepOK
	}

	if a1 == 0 && a2 == 0 && b1 == 0 && b2 == 0 {
		switch {
		case strict:
			return false, sweepInconsistent
		case s.upwards == o.upwards:
			return false, sweepOverlap
		}
		return false, sweepOK
	}
	if s.min == o.min || s.max == o.max {
		return a2 > b2, sweepOK
	}
	return false, sweepOverlap
}

type sweepline interface {
	add(s *segment) sweepResult
	remove(s *segment) sweepResult
}

// quickSweep keeps the active segments ordered bottom to top and compares
// only neighbours. It assumes the boundary has no collinear overlaps.
type quickSweep struct {
	children []*segment
}

func (q *quickSweep) add(s *segment) sweepResult {
	low, high := 0, len(q.children)
	for low < high {
		mid := (low + high) / 2
		below, res := isBelow(q.children[mid], s, true)
		if res != sweepOK {
			return res
		}
		if below {
			low = mid + 1
		} else {
			high = mid
		}
	}
	q.children = append(q.children, nil)
	copy(q.children[low+1:], q.children[low:])
	q.children[low] = s
	return sweepOK
}

func (q *quickSweep) remove(s *segment) sweepResult {
	index := indexOfSegment(q.children, s)
	q.children = append(q.children[:index], q.children[index+1:]...)
	if index > 0 && index < len(q.children) {
		below, res := isBelow(q.children[index], q.children[index-1], true)
		if res != sweepOK {
			return res
		}
		if below {
			return sweepInconsistent
		}
	}
	return sweepOK
}

// bruteSweep compares every added segment with all active ones.
type bruteSweep struct {
	children []*segment
}

func (b *bruteSweep) add(s *segment) sweepResult {
	for _, c := range b.children {
		if c.minID == s.minID || c.maxID == s.maxID {
			continue
		}
		if _, res := isBelow(s, c, false); res != sweepOK {
			return res
		}
	}
	b.children = append(b.children, s)
	return sweepOK
}

func (b *bruteSweep) remove(s *segment) sweepResult {
	index := indexOfSegment(b.children, s)
	b.children = append(b.children[:index], b.children[index+1:]...)
	return sweepOK
}

func indexOfSegment(list []*segment, s *segment) int {
	for i, c := range list {
		if c == s {
			return i
		}
	}
	panic("unfold: segment is not on the sweep line")
}

// sweep moves a vertical line across the segments from left to right,
// adding each one at its min endpoint and removing it at its max endpoint.
func sweep(sl sweepline, segments []*segment) sweepResult {
	add := append([]*segment(nil), segments...)
	sort.SliceStable(add, func(i, j int) bool { return geom.Less(add[j].min, add[i].min) })
	rem := append([]*segment(nil), add...)
	sort.SliceStable(rem, func(i, j int) bool { return geom.Less(rem[j].max, rem[i].max) })

	for len(rem) > 0 {
		next := rem[len(rem)-1]
		for len(add) > 0 && geom.LessEq(add[len(add)-1].min, next.max) {
			if res := sl.add(add[len(add)-1]); res != sweepOK {
				return res
			}
			add = add[:len(add)-1]
		}
		if res := sl.remove(next); res != sweepOK {
			return res
		}
		rem = rem[:len(rem)-1]
	}
	return sweepOK
}
