// Package unfold cuts a mesh into islands that lie flat without overlapping,
// decorates them with glue tabs and labels, and packs them onto pages.
//
// All 2D state lives in arenas owned by a Net: UV vertices, UV edges (one
// per face side) and UV faces (one per mesh face) refer to each other by
// index. Islands own index lists into those arenas.
package unfold

import (
	"github.com/chazu/papercut/pkg/geom"
	"github.com/chazu/papercut/pkg/mesh"
)

const none = -1

type uvVertex struct {
	co     geom.Vec
	vertex int // mesh vertex
}

type uvEdge struct {
	va, vb int // uv vertices, in face loop order
	face   int // mesh face, also the uv face index
	edge   int // mesh edge

	// left and right link boundary edges into loops: right is the edge
	// ending where this one starts, left the one starting where this one
	// ends (for unflipped faces).
	left, right int
	sticker     int // marker index in the owning island, or none
	boundary    bool
}

type uvFace struct {
	island  *Island
	verts   []int
	edges   []int // aligned with mesh.Face.Edges
	flipped bool  // laid out mirrored
}

// edgeState is the per-run state of a mesh edge.
type edgeState struct {
	uvedges   []int
	mainFaces [2]int
	hasMain   bool
	angle     float64
	priority  float64
	isMainCut bool
}

// Net is the result of unfolding one mesh.
type Net struct {
	mesh *mesh.Mesh

	verts   []uvVertex
	uvEdges []uvEdge
	faces   []uvFace
	edges   []edgeState

	islands []*Island
	pages   []Page
	page    *geom.Vec // printable area, if packed
}

// Page is one output sheet.
type Page struct {
	Number  int
	Islands []*Island
}

// newNet lays every face flat as an island of its own.
func newNet(m *mesh.Mesh) *Net {
	n := &Net{
		mesh:  m,
		faces: make([]uvFace, len(m.Faces)),
		edges: make([]edgeState, len(m.Edges)),
	}
	for i, e := range m.Edges {
		n.edges[i] = edgeState{
			mainFaces: e.MainFaces,
			hasMain:   e.HasMain,
			angle:     e.Angle,
			isMainCut: true,
		}
	}
	n.islands = make([]*Island, len(m.Faces))
	for fi := range m.Faces {
		n.islands[fi] = n.newIsland(fi)
	}
	return n
}

func (n *Net) newIsland(fi int) *Island {
	face := &n.mesh.Faces[fi]
	isl := &Island{
		net:      n,
		byVertex: make(map[int][]int, len(face.Verts)),
		safe:     true,
		faces:    []int{fi},
		Page:     none,
	}
	uf := &n.faces[fi]
	uf.island = isl
	proj := geom.ZUpMatrix(face.Normal)
	for _, v := range face.Verts {
		id := len(n.verts)
		n.verts = append(n.verts, uvVertex{co: proj.Project(n.mesh.Vertices[v].Co), vertex: v})
		uf.verts = append(uf.verts, id)
		isl.verts = append(isl.verts, id)
		isl.byVertex[v] = []int{id}
	}
	k := len(face.Verts)
	for j, e := range face.Edges {
		id := len(n.uvEdges)
		n.uvEdges = append(n.uvEdges, uvEdge{
			va:       uf.verts[j],
			vb:       uf.verts[(j+1)%k],
			face:     fi,
			edge:     e,
			left:     none,
			right:    none,
			sticker:  none,
			boundary: true,
		})
		uf.edges = append(uf.edges, id)
		isl.edges = append(isl.edges, id)
		isl.boundary = append(isl.boundary, id)
		n.edges[e].uvedges = append(n.edges[e].uvedges, id)
	}
	return isl
}

func (n *Net) co(v int) geom.Vec {
	return n.verts[v].co
}

func (n *Net) islandOf(u int) *Island {
	return n.faces[n.uvEdges[u].face].island
}

func (n *Net) flipped(u int) bool {
	return n.faces[n.uvEdges[u].face].flipped
}

// edgeOf returns the mesh edge of uv edge u, or none.
func (n *Net) edgeOf(u int) int {
	if u < 0 {
		return none
	}
	return n.uvEdges[u].edge
}

// start and end follow the boundary direction, which is reversed on
// mirrored faces.
func (n *Net) start(u int) int {
	if n.flipped(u) {
		return n.uvEdges[u].vb
	}
	return n.uvEdges[u].va
}

func (n *Net) end(u int) int {
	if n.flipped(u) {
		return n.uvEdges[u].va
	}
	return n.uvEdges[u].vb
}

// otherUVEdge returns a uv edge of the same mesh edge that is not u.
func (n *Net) otherUVEdge(u int) int {
	list := n.edges[n.uvEdges[u].edge].uvedges
	if list[0] == u {
		return list[1]
	}
	return list[0]
}

// IsCut reports whether mesh edge e separates face from its neighbour.
// Only the two main faces of an edge can be folded together.
func (n *Net) IsCut(e, face int) bool {
	st := &n.edges[e]
	if st.hasMain && (face == st.mainFaces[0] || face == st.mainFaces[1]) {
		return st.isMainCut
	}
	return true
}

// Mesh returns the unfolded mesh.
func (n *Net) Mesh() *mesh.Mesh {
	return n.mesh
}

// Islands returns the islands, largest first.
func (n *Net) Islands() []*Island {
	return n.islands
}

// Pages returns the packed pages, or nil if no page size was set.
func (n *Net) Pages() []Page {
	return n.pages
}

// Printable returns the area the islands were packed into, if any.
func (n *Net) Printable() (geom.Vec, bool) {
	if n.page == nil {
		return geom.Vec{}, false
	}
	return *n.page, true
}

// Angle returns the dihedral angle of mesh edge e as seen in the net.
func (n *Net) Angle(e int) float64 {
	return n.edges[e].angle
}

// IsFold reports whether the main faces of e ended up folded together.
func (n *Net) IsFold(e int) bool {
	return n.edges[e].hasMain && !n.edges[e].isMainCut
}

// SeamEdges returns the mesh edges that have to be cut to unfold the mesh,
// that is edges shared by several faces that are not folds.
func (n *Net) SeamEdges() []int {
	var seams []int
	for e, st := range n.edges {
		if len(st.uvedges) > 1 && st.isMainCut {
			seams = append(seams, e)
		}
	}
	return seams
}
