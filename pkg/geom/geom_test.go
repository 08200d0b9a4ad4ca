package geom_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/papercut/pkg/geom"
)

const tol = 1e-9

func TestFittingMatrix(t *testing.T) {
	tests := []struct {
		name     string
		from, to geom.Vec
	}{
		{"identity", geom.Vec{X: 1}, geom.Vec{X: 1}},
		{"quarter turn", geom.Vec{X: 1}, geom.Vec{Y: 1}},
		{"half turn", geom.Vec{X: 2, Y: 1}, geom.Vec{X: -2, Y: -1}},
		{"arbitrary", geom.Vec{X: 3, Y: -4}, geom.Vec{X: -4, Y: -3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := geom.FittingMatrix(tt.from, tt.to)
			got := m.Apply(tt.from)
			assert.InDelta(t, tt.to.X, got.X, tol)
			assert.InDelta(t, tt.to.Y, got.Y, tol)
			assert.InDelta(t, 1, m.Det(), tol, "equal lengths give a pure rotation")
		})
	}
}

func TestFittingMatrixScales(t *testing.T) {
	m := geom.FittingMatrix(geom.Vec{X: 1}, geom.Vec{X: 0, Y: 2})
	got := m.Apply(geom.Vec{X: 1})
	assert.InDelta(t, 0, got.X, tol)
	assert.InDelta(t, 2, got.Y, tol)
}

func TestZUpMatrixKeepsWinding(t *testing.T) {
	normals := []geom.Vec3{
		{Z: 1},
		{Z: -1},
		{X: 1},
		{Y: -1},
		{X: 1, Y: 2, Z: 3},
		{X: -0.3, Y: 0.1, Z: -0.9},
	}
	for _, n := range normals {
		p := geom.ZUpMatrix(n)
		// Build a CCW triangle around n.
		u := geom.Normalize3(perpendicular(n))
		v := geom.Normalize3(n.Cross(u))
		a, b, c := geom.Vec3{}, u, v
		pa, pb, pc := p.Project(a), p.Project(b), p.Project(c)
		area := geom.Cross(pb.Sub(pa), pc.Sub(pa))
		assert.Greater(t, area, 0.0, "normal %v", n)
		assert.InDelta(t, 1, pb.Sub(pa).Length(), tol, "projection preserves lengths")
	}
}

func perpendicular(n geom.Vec3) geom.Vec3 {
	if math.Abs(n.X) < 0.9 {
		return n.Cross(geom.Vec3{X: 1})
	}
	return n.Cross(geom.Vec3{Y: 1})
}

func TestDirectionToFloatIsMonotonic(t *testing.T) {
	prev := math.Inf(-1)
	// Counter-clockwise from just below the positive X axis, all the way
	// around to the positive X axis.
	for i := 1; i <= 360; i++ {
		angle := -math.Pi + float64(i)*math.Pi/180
		v := geom.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
		got := geom.DirectionToFloat(v)
		assert.Greater(t, got, prev, "angle %v", angle)
		prev = got
	}
}

func TestSlope(t *testing.T) {
	tests := []struct {
		name string
		v    geom.Vec
		want float64
	}{
		{"right", geom.Vec{X: 1}, 1},
		{"up", geom.Vec{Y: 1}, 2},
		{"down", geom.Vec{Y: -1}, 0},
		{"left", geom.Vec{X: -1}, -1},
		{"right down", geom.Vec{X: 1, Y: -1}, 1 - math.Sqrt2/2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, geom.Slope(tt.v), tol)
		})
	}
}

func TestLess(t *testing.T) {
	assert.True(t, geom.Less(geom.Vec{X: 0, Y: 5}, geom.Vec{X: 1, Y: 0}))
	assert.True(t, geom.Less(geom.Vec{X: 1, Y: 0}, geom.Vec{X: 1, Y: 1}))
	assert.False(t, geom.Less(geom.Vec{X: 1, Y: 1}, geom.Vec{X: 1, Y: 1}))
	assert.True(t, geom.LessEq(geom.Vec{X: 1, Y: 1}, geom.Vec{X: 1, Y: 1}))
}

func TestBoxFitAngle(t *testing.T) {
	rect := []geom.Vec{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 1}, {X: 0, Y: 1}, {X: 2, Y: 0.5}}
	tilt := geom.Rotation(0.4)
	tilted := make([]geom.Vec, len(rect))
	for i, p := range rect {
		tilted[i] = tilt.Apply(p)
	}

	rot := geom.Rotation(geom.BoxFitAngle(tilted))
	fitted := make([]geom.Vec, len(tilted))
	for i, p := range tilted {
		fitted[i] = rot.Apply(p)
	}
	size := geom.Bounds(fitted).Size()
	assert.InDelta(t, 4, size.X*size.Y, 1e-6, "minimum box has the rectangle's area")
}

func TestBoxFitAnglesOrderedByArea(t *testing.T) {
	tri := []geom.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 2, Y: 3}}
	angles := geom.BoxFitAngles(tri)
	require.Len(t, angles, 3)
	assert.Equal(t, geom.BoxFitAngle(tri), angles[0])

	area := func(angle float64) float64 {
		rot := geom.Rotation(angle)
		moved := make([]geom.Vec, len(tri))
		for i, p := range tri {
			moved[i] = rot.Apply(p)
		}
		size := geom.Bounds(moved).Size()
		return size.X * size.Y
	}
	for i := 1; i < len(angles); i++ {
		assert.LessOrEqual(t, area(angles[i-1]), area(angles[i])+tol)
	}
	assert.Equal(t, []float64{0}, geom.BoxFitAngles(nil))
}

func TestBoxFitAngleDegenerate(t *testing.T) {
	assert.Equal(t, 0.0, geom.BoxFitAngle(nil))
	assert.Equal(t, 0.0, geom.BoxFitAngle([]geom.Vec{{X: 1, Y: 1}, {X: 1, Y: 1}}))

	angle := geom.BoxFitAngle([]geom.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}})
	p := geom.Rotation(angle).Apply(geom.Vec{X: 1, Y: 1})
	assert.InDelta(t, 0, p.Y, tol)
}

func TestAffineThen(t *testing.T) {
	a := geom.Affine{M: geom.Rotation(math.Pi / 2), T: geom.Vec{X: 1}}
	b := geom.Translation(geom.Vec{Y: 2})
	v := geom.Vec{X: 1, Y: 0}
	got := a.Then(b).Apply(v)
	want := b.Apply(a.Apply(v))
	require.InDelta(t, want.X, got.X, tol)
	require.InDelta(t, want.Y, got.Y, tol)
}
