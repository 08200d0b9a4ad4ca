package unfold

import (
	"math"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/chazu/papercut/pkg/geom"
)

// joinPlan is everything a join attempt computes before it commits.
type joinPlan struct {
	other      *Island
	flipped    bool             // other is laid out mirrored
	phantom    map[int]geom.Vec // other's vertices moved into isl's frame
	redirect   map[int]int      // welded vertex -> surviving vertex
	mergedMine bool
	merged     map[int]bool // uv edges glued by the join
	pairs      [][2]int
	safe       bool
}

// join tries to attach other to isl along mesh edge e. It reports false,
// leaving both islands untouched, when the result would overlap itself,
// exceed limit, or the edge is not on both boundaries.
func (isl *Island) join(other *Island, e int, limit *geom.Vec, epsilon float64) bool {
	n := isl.net
	reject := func(reason string) bool {
		Logger().Debug("join rejected",
			zap.Int("edge", e), zap.Int("faces", len(isl.faces)),
			zap.Int("otherFaces", len(other.faces)), zap.String("reason", reason))
		return false
	}

	st := &n.edges[e]
	if !st.hasMain {
		return reject("edge has no main faces")
	}
	ua, ub := none, none
	for _, u := range st.uvedges {
		ue := &n.uvEdges[u]
		if ue.face != st.mainFaces[0] && ue.face != st.mainFaces[1] {
			continue
		}
		switch owner := n.islandOf(u); {
		case owner == isl && ue.boundary:
			ua = u
		case owner == other && ue.boundary:
			ub = u
		default:
			return reject("edge is not on the boundary")
		}
	}
	if ua == none || ub == none {
		return reject("edge is not shared by the islands")
	}

	p := joinPlan{other: other}
	a, b := n.uvEdges[ua], n.uvEdges[ub]
	vertsFlipped := n.verts[b.va].vertex == n.verts[a.va].vertex
	p.flipped = vertsFlipped != n.faces[a.face].flipped != n.faces[b.face].flipped

	// The matrix scales uniformly if the two copies of the edge differ in
	// length, which happens with twisted n-gons.
	firstB, secondB := b.va, b.vb
	if vertsFlipped {
		firstB, secondB = secondB, firstB
	}
	from := n.co(firstB).Sub(n.co(secondB))
	to := n.co(a.vb).Sub(n.co(a.va))
	if from.Length2() == 0 || to.Length2() == 0 {
		return reject("shared edge has no length in 2D")
	}
	var rot geom.Mat2
	if p.flipped {
		rot = geom.FittingMatrix(geom.FlipX.Apply(from), to).Mul(geom.FlipX)
	} else {
		rot = geom.FittingMatrix(from, to)
	}
	tr := geom.Affine{M: rot, T: n.co(a.vb).Sub(rot.Apply(n.co(firstB)))}

	p.phantom = make(map[int]geom.Vec, len(other.verts))
	for _, v := range other.verts {
		p.phantom[v] = tr.Apply(n.co(v))
	}
	pos := func(v int) geom.Vec {
		if c, ok := p.phantom[v]; ok {
			return c
		}
		return n.co(v)
	}

	if limit != nil && !isl.fitsLimit(p.phantom, *limit) {
		return reject("too big for the page")
	}

	length := n.mesh.Edges[e].Length
	p.weld(isl, pos, length*length*epsilon)
	resolve := p.resolve

	// Gluing one pair of edges may close others, typically around a vertex
	// shared by three or more faces.
	p.merged = make(map[int]bool)
	effFlipped := func(u int) bool {
		return n.flipped(u) != (p.flipped && n.islandOf(u) == other)
	}
	candidates := other.boundary
	if p.mergedMine {
		candidates = append(append([]int(nil), isl.boundary...), other.boundary...)
	}
	for _, u := range candidates {
		if p.merged[u] {
			continue
		}
		ue := &n.uvEdges[u]
		for _, q := range n.edges[ue.edge].uvedges {
			if q == u || p.merged[q] || !n.uvEdges[q].boundary {
				continue
			}
			if owner := n.islandOf(q); owner != isl && owner != other {
				continue
			}
			qe := &n.uvEdges[q]
			pa, pb := resolve(qe.vb), resolve(qe.va)
			if effFlipped(q) != effFlipped(u) {
				pa, pb = pb, pa
			}
			if resolve(ue.va) == pa && resolve(ue.vb) == pb {
				p.merged[u], p.merged[q] = true, true
				p.pairs = append(p.pairs, [2]int{u, q})
				break
			}
		}
	}
	if !p.merged[ub] {
		Logger().Warn("shared edge did not weld, keeping it cut", zap.Int("edge", e))
		return false
	}

	segments := make([]*segment, 0, len(other.boundary)+len(isl.boundary))
	for _, u := range other.boundary {
		if p.merged[u] {
			continue
		}
		ue := &n.uvEdges[u]
		va, vb := resolve(ue.va), resolve(ue.vb)
		if p.flipped != n.faces[ue.face].flipped {
			va, vb = vb, va
		}
		segments = append(segments, newSegment(u, va, vb, pos(va), pos(vb), false, true))
	}
	for _, u := range isl.boundary {
		ue := &n.uvEdges[u]
		segments = append(segments, newSegment(u, ue.va, ue.vb, n.co(ue.va), n.co(ue.vb), n.faces[ue.face].flipped, false))
	}

	if !isl.incidenceOK(&p, segments) {
		return reject("boundaries cross at a shared vertex")
	}

	p.safe = isl.safe && other.safe
	var res sweepResult
	if p.safe {
		res = sweep(&quickSweep{}, segments)
		if res == sweepInconsistent {
			Logger().Debug("falling back to exhaustive sweep-line", zap.Int("edge", e))
			res = sweep(&bruteSweep{}, segments)
			p.safe = false
		}
	} else {
		res = sweep(&bruteSweep{}, segments)
	}
	if res != sweepOK {
		return reject(res.String())
	}

	isl.commit(&p)
	return true
}

// fitsLimit reports whether isl together with the moved vertices of the
// other island could still fit a page of the given size, possibly turned.
func (isl *Island) fitsLimit(phantom map[int]geom.Vec, limit geom.Vec) bool {
	n := isl.net
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	include := func(c geom.Vec) {
		minX, maxX = math.Min(minX, c.X), math.Max(maxX, c.X)
		minY, maxY = math.Min(minY, c.Y), math.Max(maxY, c.Y)
	}
	for _, u := range isl.boundary {
		include(n.co(n.uvEdges[u].va))
		include(n.co(n.uvEdges[u].vb))
	}
	for _, c := range phantom {
		include(c)
	}
	w, h := maxX-minX, maxY-minY
	if m := math.Min(w, h); m*m > limit.Length2() {
		return false
	}
	return !((w > limit.X || h > limit.Y) && (h > limit.X || w > limit.Y))
}

// weld merges coincident copies of each mesh vertex shared by both
// islands. Every group of welded copies collapses onto a vertex of the
// receiving island.
func (p *joinPlan) weld(isl *Island, pos func(int) geom.Vec, limit float64) {
	other := p.other
	shared := lo.Filter(lo.Keys(isl.byVertex), func(v int, _ int) bool {
		_, ok := other.byVertex[v]
		return ok
	})
	sort.Ints(shared)

	p.redirect = make(map[int]int)
	var ds disjointSet
	for _, mv := range shared {
		mine := isl.byVertex[mv]
		uvs := append(append([]int(nil), mine...), other.byVertex[mv]...)
		ds.reset(len(uvs))
		for x := range mine {
			for y := x + 1; y < len(uvs); y++ {
				if ds.find(x) == ds.find(y) {
					continue
				}
				if pos(uvs[x]).Sub(pos(uvs[y])).Length2() < limit {
					ds.union(x, y)
				}
			}
		}
		for x := range uvs {
			if r := ds.find(x); r != x {
				p.redirect[uvs[x]] = uvs[r]
				if x < len(mine) {
					p.mergedMine = true
				}
			}
		}
	}
}

func (p *joinPlan) resolve(v int) int {
	if r, ok := p.redirect[v]; ok {
		return r
	}
	return v
}

// incidenceOK checks every point where more than two boundary segments
// meet after the join: walking around the point, the segments have to
// alternate between entering and leaving the surface.
func (isl *Island) incidenceOK(p *joinPlan, segments []*segment) bool {
	n := isl.net
	mine := make(map[geom.Vec]bool, len(isl.verts))
	for _, v := range isl.verts {
		mine[n.co(v)] = true
	}
	sites := make(map[geom.Vec][]*segment)
	for _, v := range p.other.verts {
		r := p.resolve(v)
		c, ok := p.phantom[r]
		if !ok {
			c = n.co(r)
		}
		if mine[c] {
			sites[c] = nil
		}
	}
	for _, r := range p.redirect {
		if _, theirs := p.phantom[r]; !theirs {
			sites[n.co(r)] = nil
		}
	}
	for _, s := range segments {
		if s.min == s.max {
			continue
		}
		for _, c := range [2]geom.Vec{s.min, s.max} {
			if list, ok := sites[c]; ok {
				sites[c] = append(list, s)
			}
		}
	}

	mergedSeg := func(s *segment) bool { return !s.phantom && p.merged[s.uvedge] }
	for at, list := range sites {
		if len(list) <= 2 {
			continue
		}
		away := func(s *segment) geom.Vec {
			if s.min == at {
				return s.max.Sub(s.min)
			}
			return s.min.Sub(s.max)
		}
		sort.SliceStable(list, func(i, j int) bool {
			return geom.Slope(away(list[i])) < geom.Slope(away(list[j]))
		})
		for i, right := range list {
			left := list[(i+1)%len(list)]
			leftCCW := left.upwards != (left.max == at)
			rightCCW := right.upwards != (right.max == at)
			if rightCCW && !leftCCW && right.phantom != left.phantom && !mergedSeg(right) && !mergedSeg(left) {
				return false
			}
			if (!rightCCW && !mergedSeg(right)) != (leftCCW && !mergedSeg(left)) {
				return false
			}
		}
	}
	return true
}

// commit applies a successful join plan: other's faces move into isl and
// other is left empty.
func (isl *Island) commit(p *joinPlan) {
	n := isl.net
	other := p.other

	for u := range p.merged {
		n.edges[n.uvEdges[u].edge].isMainCut = false
		n.uvEdges[u].boundary = false
	}
	for _, v := range other.verts {
		n.verts[v].co = p.phantom[v]
	}

	if p.mergedMine {
		for _, v := range isl.verts {
			if _, ok := p.redirect[v]; !ok {
				continue
			}
			mv := n.verts[v].vertex
			isl.byVertex[mv] = lo.Without(isl.byVertex[mv], v)
		}
		isl.verts = lo.Reject(isl.verts, func(v int, _ int) bool {
			_, ok := p.redirect[v]
			return ok
		})
	}
	for _, v := range other.verts {
		if _, ok := p.redirect[v]; ok {
			continue
		}
		mv := n.verts[v].vertex
		isl.byVertex[mv] = append(isl.byVertex[mv], v)
		isl.verts = append(isl.verts, v)
	}

	relink := func(edges []int) {
		for _, u := range edges {
			ue := &n.uvEdges[u]
			ue.va, ue.vb = p.resolve(ue.va), p.resolve(ue.vb)
		}
	}
	relinkFaces := func(faces []int) {
		for _, f := range faces {
			uf := &n.faces[f]
			for i, v := range uf.verts {
				uf.verts[i] = p.resolve(v)
			}
		}
	}
	relink(other.edges)
	relinkFaces(other.faces)
	if p.mergedMine {
		relink(isl.edges)
		relinkFaces(isl.faces)
	}
	for _, f := range other.faces {
		n.faces[f].island = isl
		n.faces[f].flipped = n.faces[f].flipped != p.flipped
	}

	isl.faces = append(isl.faces, other.faces...)
	isl.edges = append(isl.edges, other.edges...)
	isl.boundary = lo.Reject(append(isl.boundary, other.boundary...), func(u int, _ int) bool {
		return p.merged[u]
	})
	for _, pair := range p.pairs {
		st := &n.edges[n.uvEdges[pair[0]].edge]
		st.mainFaces = [2]int{n.uvEdges[pair[0]].face, n.uvEdges[pair[1]].face}
		st.hasMain = true
	}
	isl.safe = p.safe

	other.faces, other.edges, other.verts, other.boundary = nil, nil, nil, nil
	other.byVertex = nil
}
