package math3d

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quat is a rotation quaternion. The zero value is not a valid rotation;
// use QuatIdentity.
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle returns the rotation of angle radians about axis.
// The axis is normalized first; a zero axis yields the identity.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	n := axis.Normalize()
	if n.LenSq() == 0 {
		return QuatIdentity()
	}
	s := math.Sin(angle / 2)
	return Quat{n.X * s, n.Y * s, n.Z * s, math.Cos(angle / 2)}
}

func (q Quat) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromNumber(n quat.Number) Quat {
	return Quat{X: n.Imag, Y: n.Jmag, Z: n.Kmag, W: n.Real}
}

// Mul returns q * r: the rotation that applies r first, then q.
func (q Quat) Mul(r Quat) Quat {
	return fromNumber(quat.Mul(q.number(), r.number()))
}

// Conj returns the conjugate, which is the inverse for unit quaternions.
func (q Quat) Conj() Quat {
	return fromNumber(quat.Conj(q.number()))
}

// Len returns the quaternion norm.
func (q Quat) Len() float64 {
	return quat.Abs(q.number())
}

// Normalize returns q scaled to unit length, or the identity if q is zero.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l == 0 || math.IsNaN(l) {
		return QuatIdentity()
	}
	return fromNumber(quat.Scale(1/l, q.number()))
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q.number(), p), quat.Conj(q.number()))
	return Vec3{r.Imag, r.Jmag, r.Kmag}
}

// Mat4 returns the rotation matrix for a unit quaternion.
func (q Quat) Mat4() Mat4 {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z
	return Mat4{
		1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy), 0,
		2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx), 0,
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// ApproxEqual reports whether q and r describe the same rotation within eps.
// q and -q are the same rotation.
func (q Quat) ApproxEqual(r Quat, eps float64) bool {
	same := math.Abs(q.X-r.X) <= eps && math.Abs(q.Y-r.Y) <= eps &&
		math.Abs(q.Z-r.Z) <= eps && math.Abs(q.W-r.W) <= eps
	flipped := math.Abs(q.X+r.X) <= eps && math.Abs(q.Y+r.Y) <= eps &&
		math.Abs(q.Z+r.Z) <= eps && math.Abs(q.W+r.W) <= eps
	return same || flipped
}
