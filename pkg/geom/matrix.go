package geom

import "math"

// Mat2 is a 2x2 matrix in row-major order:
//
//	| A B |
//	| C D |
type Mat2 struct {
	A, B, C, D float64
}

// Identity returns the identity matrix.
func Identity() Mat2 {
	return Mat2{A: 1, D: 1}
}

// FlipX mirrors the X axis.
var FlipX = Mat2{A: -1, D: 1}

// Rotation returns the counter-clockwise rotation by angle radians.
func Rotation(angle float64) Mat2 {
	s, c := math.Sincos(angle)
	return Mat2{A: c, B: -s, C: s, D: c}
}

// RotationTo returns the rotation that maps the +X axis onto the direction
// of v. v must not be zero.
func RotationTo(v Vec) Mat2 {
	l := v.Length()
	c, s := v.X/l, v.Y/l
	return Mat2{A: c, B: -s, C: s, D: c}
}

// Apply returns m * v.
func (m Mat2) Apply(v Vec) Vec {
	return Vec{X: m.A*v.X + m.B*v.Y, Y: m.C*v.X + m.D*v.Y}
}

// Mul returns the product m * n.
func (m Mat2) Mul(n Mat2) Mat2 {
	return Mat2{
		A: m.A*n.A + m.B*n.C,
		B: m.A*n.B + m.B*n.D,
		C: m.C*n.A + m.D*n.C,
		D: m.C*n.B + m.D*n.D,
	}
}

// Scale returns m with every cell multiplied by k.
func (m Mat2) Scale(k float64) Mat2 {
	return Mat2{A: m.A * k, B: m.B * k, C: m.C * k, D: m.D * k}
}

// Det returns the determinant.
func (m Mat2) Det() float64 {
	return m.A*m.D - m.B*m.C
}

// FittingMatrix returns the rotation (with uniform scaling when the lengths
// differ) that turns from into the direction of to. from must not be zero.
func FittingMatrix(from, to Vec) Mat2 {
	k := 1 / from.Length2()
	return Mat2{
		A: from.X*to.X + from.Y*to.Y,
		B: from.Y*to.X - from.X*to.Y,
		C: from.X*to.Y - from.Y*to.X,
		D: from.X*to.X + from.Y*to.Y,
	}.Scale(k)
}

// Affine is a linear map followed by a translation.
type Affine struct {
	M Mat2
	T Vec
}

// Translation returns the affine map that only translates by t.
func Translation(t Vec) Affine {
	return Affine{M: Identity(), T: t}
}

// Apply returns M*v + T.
func (a Affine) Apply(v Vec) Vec {
	return a.M.Apply(v).Add(a.T)
}

// Then returns the map that applies a first and b second.
func (a Affine) Then(b Affine) Affine {
	return Affine{M: b.M.Mul(a.M), T: b.Apply(a.T)}
}

// Projector maps 3D points onto the plane perpendicular to a face normal.
// Row0 and Row1 are the first two rows of a rotation whose third row is the
// normal direction, so counter-clockwise loops around the normal stay
// counter-clockwise in 2D.
type Projector struct {
	Row0, Row1 Vec3
}

// ZUpMatrix returns the projector that rotates n onto +Z and drops Z.
func ZUpMatrix(n Vec3) Projector {
	b := math.Hypot(n.X, n.Y)
	l := n.Length()
	if b > 0 {
		return Projector{
			Row0: Vec3{X: n.X * n.Z / (b * l), Y: n.Y * n.Z / (b * l), Z: -b / l},
			Row1: Vec3{X: -n.Y / b, Y: n.X / b},
		}
	}
	sign := 1.0
	if n.Z < 0 {
		sign = -1
	}
	return Projector{Row0: Vec3{X: 1}, Row1: Vec3{Y: sign}}
}

// Project returns the 2D image of p.
func (p Projector) Project(v Vec3) Vec {
	return Vec{X: p.Row0.Dot(v), Y: p.Row1.Dot(v)}
}
