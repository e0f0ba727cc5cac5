// Package geom holds the world-space vector and rotation helpers shared by the
// pursuit packages. The world is Y-up with +Z as the identity forward axis.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is a world-space position or displacement.
type Vec3 = r3.Vec

// Quat is a rotation quaternion. Real carries w; Imag, Jmag and Kmag carry x,
// y and z.
type Quat = quat.Number

// Epsilon is the length below which a vector is treated as zero.
const Epsilon = 1e-6

var (
	// Up is the fixed world-up reference.
	Up = Vec3{Y: 1}
	// Forward is the facing of the identity rotation.
	Forward = Vec3{Z: 1}
)

// Identity returns the rotation that leaves vectors untouched.
func Identity() Quat {
	return Quat{Real: 1}
}

// Clamp limits value to the range [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Lerp moves a toward b by fraction t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Length reports the magnitude of v.
func Length(v Vec3) float64 {
	return r3.Norm(v)
}

// Distance reports the straight-line distance between a and b.
func Distance(a, b Vec3) float64 {
	return r3.Norm(r3.Sub(b, a))
}

// Flatten drops the vertical component of v.
func Flatten(v Vec3) Vec3 {
	v.Y = 0
	return v
}

// Normalize returns v scaled to unit length. The second result is false when v
// is too short to carry a direction.
func Normalize(v Vec3) (Vec3, bool) {
	n := r3.Norm(v)
	if n < Epsilon {
		return Vec3{}, false
	}
	return r3.Scale(1/n, v), true
}

// HorizontalDelta returns to - from after lifting from onto to's height, so the
// vertical offset between the two points never contributes.
func HorizontalDelta(from, to Vec3) Vec3 {
	from.Y = to.Y
	return r3.Sub(to, from)
}

// NormalizeQuat returns q scaled to unit length, or the identity rotation when
// q is degenerate.
func NormalizeQuat(q Quat) Quat {
	n := quat.Abs(q)
	if n < Epsilon || math.IsNaN(n) {
		return Identity()
	}
	return quat.Scale(1/n, q)
}

// Dot returns the four-component dot product of a and b.
func Dot(a, b Quat) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

// Rotate applies the unit rotation q to v.
func Rotate(q Quat, v Vec3) Vec3 {
	p := Quat{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return Vec3{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// FacingOf returns the forward axis of rotation q.
func FacingOf(q Quat) Vec3 {
	return Rotate(NormalizeQuat(q), Forward)
}

// AxisAngle builds the rotation of angle radians about axis.
func AxisAngle(axis Vec3, angle float64) Quat {
	unit, ok := Normalize(axis)
	if !ok {
		return Identity()
	}
	s := math.Sin(angle / 2)
	return Quat{Real: math.Cos(angle / 2), Imag: unit.X * s, Jmag: unit.Y * s, Kmag: unit.Z * s}
}

// YawRotation returns the rotation of yaw radians about the world-up axis.
func YawRotation(yaw float64) Quat {
	return AxisAngle(Up, yaw)
}

// LookRotation returns the rotation whose forward axis points along forward
// with its up axis as close to up as possible. It reports false when forward is
// zero or parallel to up.
func LookRotation(forward, up Vec3) (Quat, bool) {
	z, ok := Normalize(forward)
	if !ok {
		return Identity(), false
	}
	if _, ok := Normalize(r3.Cross(up, z)); !ok {
		return Identity(), false
	}
	// mgl64 looks down -Z, so aim its eye away from forward.
	q := mgl64.QuatLookAtV(mgl64.Vec3{}, toMgl(r3.Scale(-1, z)), toMgl(up))
	return NormalizeQuat(fromMglQuat(q)), true
}

// Slerp interpolates between unit rotations a and b along the shortest arc.
func Slerp(a, b Quat, t float64) Quat {
	t = Clamp(t, 0, 1)
	if Dot(a, b) < 0 {
		b = quat.Scale(-1, b)
	}
	return NormalizeQuat(fromMglQuat(mgl64.QuatSlerp(toMglQuat(a), toMglQuat(b), t)))
}

func toMgl(v Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func toMglQuat(q Quat) mgl64.Quat {
	return mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}
}

func fromMglQuat(q mgl64.Quat) Quat {
	return Quat{Real: q.W, Imag: q.V[0], Jmag: q.V[1], Kmag: q.V[2]}
}
