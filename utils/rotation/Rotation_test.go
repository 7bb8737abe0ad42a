package rotation

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-9

func quatClose(a, b quat.Number) bool {
	return quat.Abs(quat.Sub(a, b)) < tol
}

func TestZAngleRoundTrip(t *testing.T) {
	for _, zangle := range []float64{0.1, 0.5, 1, 2, 3} {
		if have := QuatToZAngle(ZAngleToQuat(zangle)); math.Abs(have-zangle) > tol {
			t.Errorf("round trip %v: have(%v)", zangle, have)
		}
	}

	// Angles past π come back shifted into (-π, 0)
	zangle := 4.0
	if have := QuatToZAngle(ZAngleToQuat(zangle)); math.Abs(have-(zangle-2*math.Pi)) > tol {
		t.Errorf("round trip %v: have(%v) want(%v)", zangle, have,
			zangle-2*math.Pi)
	}
}

func TestGripperDownHasNoZAngle(t *testing.T) {
	// Unnormalized orientation used when resetting the hand
	q := quat.Number{Real: 1, Jmag: 1}
	if have := QuatToZAngle(q); math.Abs(have) > tol {
		t.Errorf("zangle: have(%v) want(0)", have)
	}
}

func TestEulerToQuat(t *testing.T) {
	if have := EulerToQuat(r3.Vec{}); !quatClose(have, Identity) {
		t.Errorf("identity: have(%v) want(%v)", have, Identity)
	}

	axes := []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}
	for _, axis := range axes {
		angle := 0.7
		have := EulerToQuat(r3.Scale(angle, axis))
		want := FromAxisAngle(axis, angle)
		if !quatClose(have, want) {
			t.Errorf("axis %v: have(%v) want(%v)", axis, have, want)
		}
	}
}

func TestAxisAngleRoundTrip(t *testing.T) {
	axis := r3.Unit(r3.Vec{X: 1, Y: 2, Z: -1})
	angle := 1.2

	haveAxis, haveAngle := ToAxisAngle(FromAxisAngle(axis, angle))
	if math.Abs(haveAngle-angle) > tol || r3.Norm(r3.Sub(haveAxis, axis)) > tol {
		t.Errorf("round trip: have(%v, %v) want(%v, %v)", haveAxis, haveAngle,
			axis, angle)
	}
}

func TestRotate(t *testing.T) {
	q := FromAxisAngle(r3.Vec{Z: 1}, math.Pi/2)
	have := Rotate(q, r3.Vec{X: 1})
	want := r3.Vec{Y: 1}
	if r3.Norm(r3.Sub(have, want)) > tol {
		t.Errorf("rotate: have(%v) want(%v)", have, want)
	}
}
