package box2dengine

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/multiworld/assets"
	"github.com/samuelfneumann/multiworld/environment/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

const tolerance = 1e-9

func newWindowEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Load(assets.SawyerWindowHorizontal)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func near(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func TestReset(t *testing.T) {
	e := newWindowEngine(t)

	hand, err := e.BodyXPos("hand")
	if err != nil {
		t.Fatal(err)
	}
	if want := (r3.Vec{Y: 0.6, Z: 0.2}); !near(hand, want, tolerance) {
		t.Errorf("reset: hand have(%v) want(%v)", hand, want)
	}

	dims := e.Dims()
	if len(e.QPos()) != dims.NQ || len(e.QVel()) != dims.NV {
		t.Errorf("reset: state shape (%v, %v) does not match %+v",
			len(e.QPos()), len(e.QVel()), dims)
	}
	if len(e.CtrlRange()) != 2 {
		t.Errorf("ctrlRange: have(%v) want(2) actuators", len(e.CtrlRange()))
	}
}

func TestHandTracksMocap(t *testing.T) {
	e := newWindowEngine(t)

	target := r3.Vec{X: 0.1, Y: 0.7, Z: 0.15}
	if err := e.SetMocapPos("mocap", target); err != nil {
		t.Fatal(err)
	}
	if err := e.Step([]float64{-1, 1}, 5); err != nil {
		t.Fatal(err)
	}

	hand, _ := e.BodyXPos("hand")
	if !near(hand, target, tolerance) {
		t.Errorf("step: hand have(%v) want(%v)", hand, target)
	}

	// Fingers are fully open and point down
	right, _ := e.SiteXPos("rightEndEffector")
	left, _ := e.SiteXPos("leftEndEffector")
	if want := r3.Add(target, r3.Vec{X: 0.03, Z: -0.06}); !near(right, want,
		1e-9) {
		t.Errorf("rightEndEffector: have(%v) want(%v)", right, want)
	}
	if want := r3.Add(target, r3.Vec{X: -0.03, Z: -0.06}); !near(left, want,
		1e-9) {
		t.Errorf("leftEndEffector: have(%v) want(%v)", left, want)
	}
}

func TestFingersClose(t *testing.T) {
	e := newWindowEngine(t)

	if err := e.Step([]float64{1, -1}, 1); err != nil {
		t.Fatal(err)
	}
	right, _ := e.SiteXPos("rightEndEffector")
	left, _ := e.SiteXPos("leftEndEffector")
	if gap := right.X - left.X; math.Abs(gap-0.01) > 1e-9 {
		t.Errorf("step: finger gap have(%v) want(0.01)", gap)
	}

	// Controls beyond the control range are clipped
	if err := e.Step([]float64{5, -5}, 1); err != nil {
		t.Fatal(err)
	}
	qpos := e.QPos()
	if qpos[7] != 0.025 || qpos[8] != -0.025 {
		t.Errorf("step: finger positions have(%v, %v) want(0.025, -0.025)",
			qpos[7], qpos[8])
	}
}

func TestHandPushesWindow(t *testing.T) {
	e := newWindowEngine(t)

	start, _ := e.GeomXPos("handle")
	pos := r3.Vec{X: -0.2, Y: 0.755, Z: 0.2}
	for i := 0; i < 60; i++ {
		if err := e.SetMocapPos("mocap", pos); err != nil {
			t.Fatal(err)
		}
		if err := e.Step([]float64{-1, 1}, 5); err != nil {
			t.Fatal(err)
		}
		pos.X += 0.005
	}

	end, _ := e.GeomXPos("handle")
	slide := e.QPos()[9]
	if slide < 0.15 || slide > 0.25+1e-6 {
		t.Errorf("step: window slide have(%v) want in [0.15, 0.25]", slide)
	}
	if math.Abs((end.X-start.X)-slide) > 1e-6 {
		t.Errorf("step: handle moved %v but window slid %v", end.X-start.X,
			slide)
	}
	if math.Abs(end.Y-start.Y) > 1e-9 || math.Abs(end.Z-start.Z) > 1e-9 {
		t.Errorf("step: handle left its slide axis, have(%v) start(%v)",
			end, start)
	}
}

func TestHandAboveWindowDoesNotPush(t *testing.T) {
	e := newWindowEngine(t)

	pos := r3.Vec{X: -0.2, Y: 0.755, Z: 0.45}
	for i := 0; i < 60; i++ {
		if err := e.SetMocapPos("mocap", pos); err != nil {
			t.Fatal(err)
		}
		if err := e.Step([]float64{-1, 1}, 5); err != nil {
			t.Fatal(err)
		}
		pos.X += 0.005
	}

	if slide := e.QPos()[9]; math.Abs(slide) > 1e-9 {
		t.Errorf("step: window slide have(%v) want(0)", slide)
	}
}

func TestHeightFilter(t *testing.T) {
	e := newWindowEngine(t)

	fixture := func(name string) *box2d.B2Fixture {
		for _, b := range e.bodies {
			for i, g := range b.geoms {
				if g.Name == name {
					return b.fixtures[i]
				}
			}
		}
		t.Fatalf("no fixture for geom %q", name)
		return nil
	}

	tests := []struct {
		z           float64
		a, b        string
		shouldTouch bool
	}{
		{0.2, "rightpad_geom", "handle", true},
		{0.2, "leftpad_geom", "handle", true},
		{0.2, "hand_geom", "handle", false},
		{0.2, "hand_geom", "window_glass", true},
		{0.45, "rightpad_geom", "handle", false},
		{0.45, "hand_geom", "window_glass", false},
		{0.45, "rightpad_geom", "leftpad_geom", false},
	}

	for _, test := range tests {
		pos := r3.Vec{X: 0.3, Y: 0.6, Z: test.z}
		if err := e.SetMocapPos("mocap", pos); err != nil {
			t.Fatal(err)
		}
		if err := e.Step([]float64{-1, 1}, 1); err != nil {
			t.Fatal(err)
		}

		have := heightFilter{}.ShouldCollide(fixture(test.a), fixture(test.b))
		if have != test.shouldTouch {
			t.Errorf("shouldCollide(%v, %v) at height %v: have(%v) want(%v)",
				test.a, test.b, test.z, have, test.shouldTouch)
		}
	}
}

func TestSetBodyPos(t *testing.T) {
	e := newWindowEngine(t)

	want := r3.Vec{X: 0.05, Y: 0.8, Z: 0.155}
	if err := e.SetBodyPos("window", want); err != nil {
		t.Fatal(err)
	}
	have, _ := e.BodyXPos("window")
	if !near(have, want, tolerance) {
		t.Errorf("setBodyPos: have(%v) want(%v)", have, want)
	}

	handle, _ := e.GeomXPos("handle")
	if want := r3.Add(want, r3.Vec{Y: -0.03}); !near(handle, want, tolerance) {
		t.Errorf("geomXPos: have(%v) want(%v)", handle, want)
	}

	// Body positions persist across resets
	if err := e.Reset(); err != nil {
		t.Fatal(err)
	}
	if have, _ := e.BodyXPos("window"); !near(have, want, tolerance) {
		t.Errorf("reset: window have(%v) want(%v)", have, want)
	}
}

func TestSetSitePos(t *testing.T) {
	e := newWindowEngine(t)

	want := r3.Vec{X: 0.3, Y: 0.7, Z: 0.1}
	if err := e.SetSitePos("goal", want); err != nil {
		t.Fatal(err)
	}
	if have, _ := e.SiteXPos("goal"); !near(have, want, tolerance) {
		t.Errorf("setSitePos: have(%v) want(%v)", have, want)
	}
}

func TestSetState(t *testing.T) {
	e := newWindowEngine(t)

	qpos := e.QPos()
	qvel := e.QVel()
	qpos[9] = 0.1
	if err := e.SetState(qpos, qvel); err != nil {
		t.Fatal(err)
	}
	window, _ := e.BodyXPos("window")
	if math.Abs(window.X-0.0) > tolerance {
		t.Errorf("setState: window x have(%v) want(0)", window.X)
	}

	if err := e.SetState(qpos[:3], qvel); err == nil {
		t.Error("setState: expected error on invalid shape")
	}
}

func TestErrors(t *testing.T) {
	e := newWindowEngine(t)

	if err := e.Step([]float64{0}, 1); err == nil {
		t.Error("step: expected error on invalid control length")
	}
	if err := e.Step([]float64{0, 0}, 0); err == nil {
		t.Error("step: expected error on zero frames")
	}
	if err := e.Step([]float64{math.NaN(), 0}, 1); err == nil {
		t.Error("step: expected error on NaN control")
	}
	if _, err := e.MocapPos("hand"); err == nil {
		t.Error("mocapPos: expected error for non-mocap body")
	}

	if _, err := e.BodyXPos("missing"); !errors.Is(err, physics.ErrNotFound) {
		t.Errorf("bodyXPos: have(%v) want(%v)", err, physics.ErrNotFound)
	}
	if _, err := e.GeomXPos("missing"); !errors.Is(err, physics.ErrNotFound) {
		t.Errorf("geomXPos: have(%v) want(%v)", err, physics.ErrNotFound)
	}
	if err := e.SetSitePos("missing", r3.Vec{}); !errors.Is(err,
		physics.ErrNotFound) {
		t.Errorf("setSitePos: have(%v) want(%v)", err, physics.ErrNotFound)
	}
	if err := e.SetBodyPos("missing", r3.Vec{}); !errors.Is(err,
		physics.ErrNotFound) {
		t.Errorf("setBodyPos: have(%v) want(%v)", err, physics.ErrNotFound)
	}
}

func TestDynamics(t *testing.T) {
	e := newWindowEngine(t)

	if e.Dynamics() != physics.DefaultDynamics() {
		t.Errorf("dynamics: have(%+v) want(%+v)", e.Dynamics(),
			physics.DefaultDynamics())
	}

	d := physics.Dynamics{Friction: 0.5, Damping: 2, MassScale: 3}
	if err := e.SetDynamics(d); err != nil {
		t.Fatal(err)
	}
	if e.Dynamics() != d {
		t.Errorf("setDynamics: have(%+v) want(%+v)", e.Dynamics(), d)
	}

	if err := e.SetDynamics(physics.Dynamics{MassScale: -1}); err == nil {
		t.Error("setDynamics: expected error for negative mass scale")
	}
}

func TestUnsupportedScene(t *testing.T) {
	scenes := []string{
		`<mujoco><worldbody><body name="a"><joint name="j" type="hinge"/>
		</body></worldbody></mujoco>`,
		`<mujoco><worldbody><body name="a"><freejoint name="j"/></body>
		</worldbody></mujoco>`,
		`<mujoco><worldbody><body name="a"><joint name="j" type="slide"
		axis="0 0 1"/></body></worldbody></mujoco>`,
	}

	for _, scene := range scenes {
		m, err := physics.ParseModel(strings.NewReader(scene))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := New(m); err == nil {
			t.Errorf("new: expected error for scene %v", scene)
		}
	}
}

func TestRender(t *testing.T) {
	e := newWindowEngine(t)

	cam := physics.Camera{
		LookAt:    r3.Vec{X: 0.2, Y: 0.5, Z: 0.6},
		Distance:  0.4,
		Elevation: -55,
		Azimuth:   135,
	}
	img, err := physics.Render(e, cam, 64, 48)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("render: image size have(%v, %v) want(64, 48)", b.Dx(), b.Dy())
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := physics.SavePNG(e, cam, 64, 48, path); err != nil {
		t.Error(err)
	}
}

func BenchmarkStep(b *testing.B) {
	e, err := Load(assets.SawyerWindowHorizontal)
	if err != nil {
		b.Fatal(err)
	}
	ctrl := []float64{-1, 1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.Step(ctrl, 5); err != nil {
			b.Fatal(err)
		}
	}
}
