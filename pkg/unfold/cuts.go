package unfold

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/chazu/papercut/pkg/geom"
)

// priority is the cost of cutting an edge; cheap edges are folded first.
func priority(w Weights, angle, length, average float64) float64 {
	var p float64
	if angle > 0 {
		p = w.Convex * angle / math.Pi
	} else {
		p = w.Concave * (-angle) / math.Pi
	}
	return p + w.Length*length/average
}

// generateCuts greedily joins islands across edges in order of priority.
// limit, if set, is the largest island size allowed.
func (n *Net) generateCuts(ctx context.Context, w Weights, limit *geom.Vec, epsilon float64) error {
	m := n.mesh
	candidates := lo.Filter(lo.Range(len(m.Edges)), func(e int, _ int) bool {
		return !m.Edges[e].ForceCut && len(m.Edges[e].Faces) > 1
	})
	joins := 0
	if len(candidates) > 0 {
		average := lo.SumBy(candidates, func(e int) float64 { return m.Edges[e].Length }) / float64(len(candidates))
		for _, e := range candidates {
			n.edges[e].priority = priority(w, n.edges[e].angle, m.Edges[e].Length, average)
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return n.edges[candidates[i]].priority < n.edges[candidates[j]].priority
		})

		for i, e := range candidates {
			if i%64 == 0 {
				if err := ctx.Err(); err != nil {
					return errors.Wrap(err, "unfold: cutting")
				}
			}
			st := &n.edges[e]
			if m.Edges[e].Length == 0 || !st.hasMain {
				continue
			}
			a, b := n.faces[st.mainFaces[0]].island, n.faces[st.mainFaces[1]].island
			if a == b {
				continue
			}
			if len(b.faces) > len(a.faces) {
				a, b = b, a
			}
			if a.join(b, e, limit, epsilon) {
				joins++
			}
		}
	}

	n.islands = lo.Filter(n.islands, func(isl *Island, _ int) bool { return len(isl.faces) > 0 })
	sort.SliceStable(n.islands, func(i, j int) bool {
		return len(n.islands[i].faces) > len(n.islands[j].faces)
	})
	Logger().Debug("cuts generated",
		zap.Int("candidates", len(candidates)), zap.Int("joins", joins), zap.Int("islands", len(n.islands)))

	n.settleEdges()
	for _, isl := range n.islands {
		isl.voteOrientation()
		isl.linkBoundary()
	}
	return nil
}

// settleEdges recomputes the angles that depended on face orientation and
// puts each edge's uv edges in the order of its main faces.
func (n *Net) settleEdges() {
	for e := range n.edges {
		st := &n.edges[e]
		if !st.hasMain {
			continue
		}
		fa, fb := n.faces[st.mainFaces[0]].flipped, n.faces[st.mainFaces[1]].flipped
		if fa || fb {
			st.angle = n.mesh.CalculateAngle(e, st.mainFaces, fa, fb)
		}
		ordered := make([]int, 2, len(st.uvedges))
		ordered[0], ordered[1] = none, none
		for _, u := range st.uvedges {
			switch n.uvEdges[u].face {
			case st.mainFaces[0]:
				ordered[0] = u
			case st.mainFaces[1]:
				ordered[1] = u
			default:
				ordered = append(ordered, u)
			}
		}
		st.uvedges = ordered
	}
}

// voteOrientation decides whether an island containing mirrored faces is
// seen from the inside: that is the case when its folds are mostly
// concave.
func (isl *Island) voteOrientation() {
	n := isl.net
	if !lo.SomeBy(isl.faces, func(f int) bool { return n.faces[f].flipped }) {
		return
	}
	folds := lo.Uniq(lo.FilterMap(isl.edges, func(u int, _ int) (int, bool) {
		ue := &n.uvEdges[u]
		return ue.edge, !n.IsCut(ue.edge, ue.face)
	}))
	balance := lo.SumBy(folds, func(e int) int {
		return lo.Ternary(n.edges[e].angle > 0, 1, -1)
	})
	isl.InsideOut = balance < 0
}

// linkBoundary connects the boundary edges into closed loops. Where more
// than two boundary edges meet at one vertex, they are paired going
// counter-clockwise around it: each incoming edge continues with the next
// free outgoing one.
func (isl *Island) linkBoundary() {
	n := isl.net
	ends := make(map[int][]int)
	starts := make(map[int][]int)
	var order []int
	for _, u := range isl.boundary {
		n.uvEdges[u].left, n.uvEdges[u].right = none, none
		for _, v := range [2]int{n.start(u), n.end(u)} {
			if _, ok := ends[v]; !ok {
				if _, ok := starts[v]; !ok {
					order = append(order, v)
				}
			}
		}
		ends[n.end(u)] = append(ends[n.end(u)], u)
		starts[n.start(u)] = append(starts[n.start(u)], u)
	}

	for _, v := range order {
		in, out := ends[v], starts[v]
		switch {
		case len(in) == 1 && len(out) == 1:
			n.uvEdges[out[0]].right = in[0]
			n.uvEdges[in[0]].left = out[0]
		case len(in) == 0 && len(out) == 1:
			n.uvEdges[out[0]].right = out[0]
		case len(out) == 0 && len(in) == 1:
			n.uvEdges[in[0]].left = in[0]
		default:
			isl.resolveConflict(v, in, out)
		}
	}
}

func (isl *Island) resolveConflict(v int, in, out []int) {
	n := isl.net
	at := n.co(v)
	away := func(u int) float64 {
		far := n.uvEdges[u].va
		if far == v {
			far = n.uvEdges[u].vb
		}
		return geom.DirectionToFloat(n.co(far).Sub(at))
	}
	incoming := lo.SliceToMap(in, func(u int) (int, bool) { return u, true })
	all := append(append([]int(nil), in...), out...)
	sort.SliceStable(all, func(i, j int) bool { return away(all[i]) < away(all[j]) })

	paired := make(map[int]bool, len(all))
	var pending []int
	for i := 0; i < 2*len(all); i++ {
		u := all[i%len(all)]
		if paired[u] {
			continue
		}
		if incoming[u] {
			if i < len(all) {
				pending = append(pending, u)
			}
			continue
		}
		if len(pending) > 0 {
			r := pending[0]
			pending = pending[1:]
			n.uvEdges[u].right = r
			n.uvEdges[r].left = u
			paired[u], paired[r] = true, true
		}
	}

	leftover := 0
	for _, u := range all {
		if paired[u] {
			continue
		}
		leftover++
		if incoming[u] {
			n.uvEdges[u].left = u
		} else {
			n.uvEdges[u].right = u
		}
	}
	if leftover > 0 {
		isl.DegenerateBoundary = true
		Logger().Warn("boundary edges meeting at a vertex could not be paired",
			zap.Int("vertex", n.verts[v].vertex), zap.Int("edges", len(all)), zap.Int("unpaired", leftover))
	}
}
