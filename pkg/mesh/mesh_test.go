package mesh_test

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/papercut/pkg/geom"
	"github.com/chazu/papercut/pkg/mesh"
	"github.com/chazu/papercut/pkg/mesh/meshtest"
)

func TestBuildCube(t *testing.T) {
	m := meshtest.Build(t, meshtest.Cube(2))
	require.Len(t, m.Vertices, 8)
	require.Len(t, m.Edges, 12)
	require.Len(t, m.Faces, 6)
	assert.Empty(t, m.Warnings)

	for _, f := range m.Faces {
		assert.InDelta(t, 4, f.Area, 1e-9, "face %d", f.Index)
		assert.InDelta(t, 1, f.Normal.Length(), 1e-9, "face %d", f.Index)
	}
	for _, e := range m.Edges {
		require.True(t, e.HasMain, "edge %d", e.Index)
		assert.Len(t, e.Faces, 2)
		assert.InDelta(t, 2, e.Length, 1e-9)
		assert.InDelta(t, math.Pi/2, e.Angle, 1e-9, "cube edges are convex")
	}
}

func TestBuildFaceEdges(t *testing.T) {
	m := meshtest.Build(t, meshtest.Tetrahedron())
	require.Len(t, m.Edges, 6)
	for _, f := range m.Faces {
		for i, e := range f.Edges {
			a, b := f.Verts[i], f.Verts[(i+1)%len(f.Verts)]
			want, ok := m.EdgeBetween(a, b)
			require.True(t, ok)
			assert.Equal(t, want, e)
			assert.Contains(t, m.Edges[e].Faces, f.Index)
		}
	}
	for _, e := range m.Edges {
		assert.Greater(t, e.Angle, 0.0, "tetrahedron edges are convex")
	}
}

func TestBuildConcaveAngle(t *testing.T) {
	m := meshtest.Build(t, meshtest.Valley())
	e, ok := m.EdgeBetween(1, 2)
	require.True(t, ok)
	assert.InDelta(t, -math.Pi/4, m.Edges[e].Angle, 1e-9)

	border, ok := m.EdgeBetween(0, 1)
	require.True(t, ok)
	assert.False(t, m.Edges[border].HasMain, "boundary edge has a single face")
}

func TestCalculateAngleFlipped(t *testing.T) {
	m := meshtest.Build(t, meshtest.Valley())
	e, _ := m.EdgeBetween(1, 2)
	main := m.Edges[e].MainFaces

	// Mirroring both faces turns the valley into a ridge.
	assert.InDelta(t, math.Pi/4, m.CalculateAngle(e, main, true, true), 1e-9)
	// Mirroring one face looks like inconsistent winding.
	assert.InDelta(t, 3*math.Pi/4, m.CalculateAngle(e, main, true, false), 1e-9)
}

func TestBuildDegenerateFace(t *testing.T) {
	m := meshtest.Build(t, meshtest.DegeneratePair())
	require.Len(t, m.Warnings, 1)
	assert.Contains(t, m.Warnings[0].Error(), "zero area")
	assert.Equal(t, mesh.SeverityWarning, m.Warnings[0].Severity)

	assert.Equal(t, geom.Vec3{}, m.Faces[1].Normal)
	e, ok := m.EdgeBetween(0, 1)
	require.True(t, ok)
	assert.Equal(t, mesh.DegenerateAngle, m.Edges[e].Angle)
}

func TestChooseMainFacesNonManifold(t *testing.T) {
	in := mesh.Input{
		Vertices: []geom.Vec3{
			{}, {Y: 1},
			{X: 1, Y: 0.5}, {X: -1, Y: 0.5}, {Y: 0.5, Z: 1},
		},
		Faces: [][]int{
			{0, 1, 2},
			{0, 4, 1},
			{1, 0, 3},
		},
	}
	m := meshtest.Build(t, in)
	e, ok := m.EdgeBetween(0, 1)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 2}, m.Edges[e].Faces)
	assert.Equal(t, [2]int{0, 2}, m.Edges[e].MainFaces, "the two coplanar faces")

	var found bool
	for _, w := range m.Warnings {
		if w.Vertex == 0 {
			found = true
			assert.Contains(t, w.Message, "shared by 3 faces")
		}
	}
	assert.True(t, found, "non-manifold edge warning")
}

func TestBuildKeepsEdgeFlags(t *testing.T) {
	m := meshtest.Build(t, meshtest.SplitStrip(1, 1))
	require.Equal(t, 4, m.Edges[0].A)
	require.Equal(t, 5, m.Edges[0].B)
	assert.True(t, m.Edges[0].ForceCut)
	for _, e := range m.Edges[1:] {
		assert.False(t, e.ForceCut)
	}
	assert.Len(t, m.Edges, 13)
}

func TestIsTwisted(t *testing.T) {
	in := meshtest.Square(1)
	m := meshtest.Build(t, in)
	assert.False(t, m.IsTwisted(0))

	in.Vertices[2].Z = 0.5
	m = meshtest.Build(t, in)
	assert.True(t, m.IsTwisted(0))
	require.NotEmpty(t, m.Warnings)
	assert.Contains(t, m.Warnings[0].Message, "not planar")
}

func TestBuildInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *mesh.Input)
		message string
	}{
		{
			name:    "too few vertices",
			mutate:  func(in *mesh.Input) { in.Faces = append(in.Faces, []int{0, 1}) },
			message: "need at least 3",
		},
		{
			name:    "vertex out of range",
			mutate:  func(in *mesh.Input) { in.Faces[0][2] = 42 },
			message: "references vertex 42",
		},
		{
			name:    "repeated vertex",
			mutate:  func(in *mesh.Input) { in.Faces[0] = []int{0, 1, 0, 2} },
			message: "more than once",
		},
		{
			name:    "non-finite coordinate",
			mutate:  func(in *mesh.Input) { in.Vertices[3].Y = math.NaN() },
			message: "non-finite",
		},
		{
			name:    "dangling edge",
			mutate:  func(in *mesh.Input) { in.Edges = []mesh.EdgeSpec{{A: 0, B: 9}} },
			message: "references vertices (0, 9)",
		},
		{
			name:    "self loop",
			mutate:  func(in *mesh.Input) { in.Edges = []mesh.EdgeSpec{{A: 2, B: 2}} },
			message: "to itself",
		},
		{
			name: "duplicate edge",
			mutate: func(in *mesh.Input) {
				in.Edges = []mesh.EdgeSpec{{A: 0, B: 1}, {A: 1, B: 0}}
			},
			message: "duplicates edge 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := meshtest.Tetrahedron()
			tt.mutate(&in)
			_, err := mesh.Build(context.Background(), in)
			require.Error(t, err)

			var invalid *mesh.InvalidInputError
			require.True(t, errors.As(err, &invalid))
			require.NotEmpty(t, invalid.Errors)
			assert.Contains(t, invalid.Errors[0].Error(), tt.message)
			assert.Equal(t, mesh.SeverityError, invalid.Errors[0].Severity)
		})
	}
}

func TestBuildCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mesh.Build(ctx, meshtest.Cube(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestValidateReportsAll(t *testing.T) {
	in := meshtest.Cube(1)
	in.Faces = append(in.Faces, []int{0}, []int{0, 1, 99})
	res := mesh.Validate(in)
	assert.False(t, res.OK())
	assert.Len(t, res.Errors, 2)
	assert.Empty(t, res.Warnings, "geometry is not checked on broken input")
}

func TestValidateSharedEdgesInOrder(t *testing.T) {
	var in mesh.Input
	for k := 0; k < 3; k++ {
		x := float64(3 * k)
		in.Vertices = append(in.Vertices, geom.Vec3{X: x}, geom.Vec3{X: x, Y: 1})
	}
	for k := 2; k >= 0; k-- {
		x := float64(3 * k)
		for _, apex := range []geom.Vec3{{X: x + 1, Y: 0.5}, {X: x - 1, Y: 0.5}, {X: x, Y: 0.5, Z: 1}} {
			in.Vertices = append(in.Vertices, apex)
			in.Faces = append(in.Faces, []int{2 * k, 2*k + 1, len(in.Vertices) - 1})
		}
	}

	for i := 0; i < 10; i++ {
		res := mesh.Validate(in)
		require.True(t, res.OK())
		require.Len(t, res.Warnings, 3)
		for j, w := range res.Warnings {
			assert.Equal(t, 2*j, w.Vertex)
			assert.Contains(t, w.Message, "shared by 3 faces")
		}
	}
}
