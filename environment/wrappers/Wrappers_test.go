package wrappers_test

import (
	"math"
	"testing"

	"github.com/samuelfneumann/multiworld/environment/sawyer/windowopen"
	"github.com/samuelfneumann/multiworld/environment/world"
	"github.com/samuelfneumann/multiworld/environment/wrappers"
	"gonum.org/v1/gonum/mat"
)

func newWindowOpen(t *testing.T, mode windowopen.RotMode) *windowopen.WindowOpen {
	t.Helper()
	c := windowopen.DefaultConfig()
	c.RotMode = mode
	w, _, err := windowopen.New(c)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestFlatGoal(t *testing.T) {
	w := newWindowOpen(t, windowopen.Fixed)
	f, err := wrappers.NewFlatGoal(w, wrappers.DefaultObsKeys,
		wrappers.DefaultGoalKeys)
	if err != nil {
		t.Fatal(err)
	}

	if n := f.ObservationSpec().Shape.Len(); n != 9 {
		t.Errorf("observationSpec: length have(%v) want(9)", n)
	}

	check := func(obs *mat.VecDense) {
		t.Helper()
		if obs.Len() != 9 {
			t.Fatalf("observation: length have(%v) want(9)", obs.Len())
		}
		state := obs.SliceVec(0, 6)
		goal := obs.SliceVec(6, 9)
		if !mat.Equal(state, w.CurrentTimeStep().Observation) {
			t.Errorf("observation: state have(%v) want(%v)", mat.Formatted(
				state.T()), mat.Formatted(w.CurrentTimeStep().Observation.T()))
		}
		if !mat.Equal(goal, w.DesiredGoal()) {
			t.Errorf("observation: goal have(%v) want(%v)",
				mat.Formatted(goal.T()), mat.Formatted(w.DesiredGoal().T()))
		}
	}

	check(f.CurrentTimeStep().Observation)

	step, done, err := f.Step(mat.NewVecDense(4, []float64{1, 0, 0, -1}))
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("step: episode ended after one step")
	}
	check(step.Observation)

	step, err = f.Reset()
	if err != nil {
		t.Fatal(err)
	}
	check(step.Observation)

	if _, err := wrappers.NewFlatGoal(w, []string{"missing"}, nil); err == nil {
		t.Error("newFlatGoal: expected error for missing key")
	}
	if _, err := wrappers.NewFlatGoal(w, nil, nil); err == nil {
		t.Error("newFlatGoal: expected error for no keys")
	}
}

func TestClipAction(t *testing.T) {
	clipped := newWindowOpen(t, windowopen.Euler)
	reference := newWindowOpen(t, windowopen.Euler)
	c := wrappers.NewClipAction(clipped)

	if _, _, err := c.Step(mat.NewVecDense(7, []float64{
		5, 0, -5, 10, -10, 0.5, 3,
	})); err != nil {
		t.Fatal(err)
	}
	if _, _, err := reference.Step(mat.NewVecDense(7, []float64{
		1, 0, -1, math.Pi / 2, -math.Pi / 2, 0.5, 1,
	})); err != nil {
		t.Fatal(err)
	}

	have, _ := clipped.MocapQuat("mocap")
	want, _ := reference.MocapQuat("mocap")
	if have != want {
		t.Errorf("step: orientation have(%v) want(%v)", have, want)
	}
	if !mat.EqualApprox(clipped.CurrentTimeStep().Observation,
		reference.CurrentTimeStep().Observation, 1e-9) {
		t.Errorf("step: observation have(%v) want(%v)",
			clipped.CurrentTimeStep().Observation.RawVector().Data,
			reference.CurrentTimeStep().Observation.RawVector().Data)
	}

	if _, _, err := c.Step(mat.NewVecDense(3, nil)); err == nil {
		t.Error("step: expected error for action of the wrong length")
	}
}

func TestResample(t *testing.T) {
	w := newWindowOpen(t, windowopen.Fixed)
	tasks := world.NewMultiTaskWorld(w, 1)
	dynamics, err := world.NewMutableDynamicsWorld(w,
		world.DefaultDynamicsSchema(), 2)
	if err != nil {
		t.Fatal(err)
	}
	r := wrappers.NewResample(tasks, tasks, dynamics)

	prev := w.Task()
	for i := 0; i < 3; i++ {
		step, err := r.Reset()
		if err != nil {
			t.Fatal(err)
		}
		if !step.First() {
			t.Errorf("reset: have(%v) want first step", step.StepType)
		}

		task := w.Task()
		if task.Equal(prev) {
			t.Errorf("reset: task %v was not resampled", task)
		}
		prev = task

		d := w.Dynamics()
		if !dynamics.DynamicsSchema().Contains(world.DynamicsVec(d)) {
			t.Errorf("reset: dynamics %+v outside schema", d)
		}
	}

	plain := wrappers.NewResample(w, nil, nil)
	if _, err := plain.Reset(); err != nil {
		t.Fatal(err)
	}
}
