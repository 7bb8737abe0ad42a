// Package rotation implements quaternion, axis-angle, and Euler angle
// conversions for orienting simulated bodies. Quaternions are stored
// with the scalar part first, as (w, x, y, z).
package rotation

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Identity is the identity rotation
var Identity = quat.Number{Real: 1}

// GripperDown is the orientation of an end effector pointing its
// fingers towards the floor: a quarter turn about the y-axis.
var GripperDown = FromAxisAngle(r3.Vec{Y: 1}, math.Pi/2)

// FromAxisAngle returns the quaternion rotating by angle radians about
// axis. The axis is expected to be a unit vector.
func FromAxisAngle(axis r3.Vec, angle float64) quat.Number {
	s := math.Sin(angle / 2)
	return quat.Number{
		Real: math.Cos(angle / 2),
		Imag: s * axis.X,
		Jmag: s * axis.Y,
		Kmag: s * axis.Z,
	}
}

// ToAxisAngle returns the rotation axis and angle of a unit
// quaternion. Rotations of near zero angle return the z-axis and an
// angle of zero. The angle is negative when the scalar part of q is
// negative.
func ToAxisAngle(q quat.Number) (r3.Vec, float64) {
	axis := r3.Vec{Z: 1}
	theta := 0.0

	sinTheta := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if sinTheta > 1e-4 {
		theta = 2 * math.Asin(math.Min(sinTheta, 1))
		if q.Real < 0 {
			theta = -theta
		}
		axis = r3.Scale(1/sinTheta, r3.Vec{X: q.Imag, Y: q.Jmag, Z: q.Kmag})
	}
	return axis, theta
}

// Normalize returns q scaled to unit length. The zero quaternion is
// returned as the identity.
func Normalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 {
		return Identity
	}
	return quat.Scale(1/norm, q)
}

// Rotate rotates v by the unit quaternion q
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rotated := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}

// ZAngleToQuat returns the orientation of a downward pointing gripper
// rotated by zangle radians about the world z-axis
func ZAngleToQuat(zangle float64) quat.Number {
	return quat.Mul(GripperDown, FromAxisAngle(r3.Vec{X: -1}, zangle))
}

// QuatToZAngle returns the rotation about the world z-axis of a
// downward pointing gripper with orientation q. It is the inverse of
// ZAngleToQuat for angles in (-π, π).
func QuatToZAngle(q quat.Number) float64 {
	relative := quat.Mul(quat.Inv(GripperDown), Normalize(q))
	_, angle := ToAxisAngle(relative)
	return angle
}

// EulerToQuat converts Euler angles (rotations about the x, y, and z
// axes, applied in the static frame) to a quaternion
func EulerToQuat(euler r3.Vec) quat.Number {
	ai, aj, ak := euler.Z/2, -euler.Y/2, euler.X/2
	si, sj, sk := math.Sin(ai), math.Sin(aj), math.Sin(ak)
	ci, cj, ck := math.Cos(ai), math.Cos(aj), math.Cos(ak)
	cc, cs := ci*ck, ci*sk
	sc, ss := si*ck, si*sk

	return quat.Number{
		Real: cj*cc + sj*ss,
		Imag: cj*cs - sj*sc,
		Jmag: -(cj*ss + sj*cc),
		Kmag: cj*sc - sj*cs,
	}
}
