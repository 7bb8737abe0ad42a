package sawyerenv

import (
	"math"
	"testing"

	"github.com/samuelfneumann/multiworld/assets"
	"github.com/samuelfneumann/multiworld/utils/rotation"
	"gonum.org/v1/gonum/spatial/r3"
)

func newTestEnv(t *testing.T) *SawyerEnv {
	t.Helper()
	engine, err := NewEngine(Box2D, assets.SawyerWindowHorizontal)
	if err != nil {
		t.Fatal(err)
	}

	s, err := New(engine, Config{
		FrameSkip:      5,
		Discount:       1.0,
		ActionScale:    1.0 / 100,
		ActionRotScale: 1.0 / 50,
		MocapLow:       r3.Vec{X: -0.5, Y: 0.4, Z: 0.05},
		MocapHigh:      r3.Vec{X: 0.5, Y: 1, Z: 0.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewErrors(t *testing.T) {
	engine, err := NewEngine(Box2D, assets.SawyerWindowHorizontal)
	if err != nil {
		t.Fatal(err)
	}

	bad := []Config{
		{FrameSkip: 0, Discount: 1},
		{FrameSkip: 1, Discount: 2},
		{FrameSkip: 1, Discount: 1, MocapLow: r3.Vec{X: 1}},
	}
	for _, c := range bad {
		if _, err := New(engine, c); err == nil {
			t.Errorf("new: expected error for config %+v", c)
		}
	}

	if _, err := NewEngine("bullet", assets.SawyerWindowHorizontal); err == nil {
		t.Error("newEngine: expected error for unknown backend")
	}
}

func TestSetXYZAction(t *testing.T) {
	s := newTestEnv(t)

	start, _ := s.MocapPos(Mocap)
	if err := s.SetXYZAction([]float64{1, -0.5, 10}); err != nil {
		t.Fatal(err)
	}
	have, _ := s.MocapPos(Mocap)
	want := r3.Add(start, r3.Vec{X: 0.01, Y: -0.005, Z: 0.01})
	if r3.Norm(r3.Sub(have, want)) > 1e-12 {
		t.Errorf("setXYZAction: have(%v) want(%v)", have, want)
	}

	// Positions are clipped to the mocap bounds
	for i := 0; i < 100; i++ {
		if err := s.SetXYZAction([]float64{0, 0, 1}); err != nil {
			t.Fatal(err)
		}
	}
	if have, _ := s.MocapPos(Mocap); have.Z != 0.5 {
		t.Errorf("setXYZAction: z have(%v) want(0.5)", have.Z)
	}

	if err := s.SetXYZAction([]float64{0, 0}); err == nil {
		t.Error("setXYZAction: expected error for short action")
	}
}

func TestSetZRotAction(t *testing.T) {
	s := newTestEnv(t)

	if err := s.SetMocapQuat(Mocap, rotation.ZAngleToQuat(0.5)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetZRotAction(5); err != nil {
		t.Fatal(err)
	}
	q, _ := s.MocapQuat(Mocap)
	if have := rotation.QuatToZAngle(q); math.Abs(have-0.6) > 1e-9 {
		t.Errorf("setZRotAction: have(%v) want(0.6)", have)
	}
}

func TestResetHand(t *testing.T) {
	s := newTestEnv(t)

	want := r3.Vec{X: 0.1, Y: 0.785, Z: 0.15}
	if err := s.ResetHand(want, 10); err != nil {
		t.Fatal(err)
	}

	hand, err := s.HandPos()
	if err != nil {
		t.Fatal(err)
	}
	if r3.Norm(r3.Sub(hand, want)) > 1e-9 {
		t.Errorf("resetHand: hand have(%v) want(%v)", hand, want)
	}

	com, err := s.FingerCOM()
	if err != nil {
		t.Fatal(err)
	}
	if want := r3.Add(want, r3.Vec{Z: -0.06}); r3.Norm(r3.Sub(com,
		want)) > 1e-9 {
		t.Errorf("fingerCOM: have(%v) want(%v)", com, want)
	}
}

func TestDt(t *testing.T) {
	s := newTestEnv(t)
	if dt := s.Dt(); math.Abs(dt-0.0125) > 1e-12 {
		t.Errorf("dt: have(%v) want(0.0125)", dt)
	}
}
