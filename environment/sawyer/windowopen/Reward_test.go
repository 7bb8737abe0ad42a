package windowopen

import (
	"math"
	"testing"

	ts "github.com/samuelfneumann/multiworld/timestep"
	"github.com/samuelfneumann/multiworld/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestPullRewardOutsideReach(t *testing.T) {
	for reach := ReachThreshold; reach < 1; reach += 0.01 {
		for _, pull := range []float64{0, 0.1, 0.2} {
			if r := PullReward(reach, pull, MaxPullDist); r != -reach {
				t.Fatalf("pullReward(%v, %v): have(%v) want(%v)", reach, pull,
					r, -reach)
			}
		}
	}
}

func TestPullRewardMonotonic(t *testing.T) {
	const reach = 0.02

	prev := math.Inf(-1)
	for pull := 0.3; pull >= 0; pull -= 0.001 {
		r := PullReward(reach, pull, MaxPullDist)
		if r <= prev {
			t.Fatalf("pullReward: reward should increase as the pull "+
				"distance decreases, have(%v) at %v after %v", r, pull, prev)
		}
		prev = r
	}

	if max := PullReward(0, 0, MaxPullDist); math.Abs(max-2200) > 1e-9 {
		t.Errorf("pullReward: maximum have(%v) want(2200)", max)
	}
}

func TestComputeReward(t *testing.T) {
	w, _ := newTestEnv(t, DefaultConfig())

	com, err := w.FingerCOM()
	if err != nil {
		t.Fatal(err)
	}
	hand, _ := w.HandPos()
	goal := vecFrom(w.DesiredGoal())

	tests := []struct {
		name string
		obj  r3.Vec
	}{
		{"atFingers", com},
		{"nearFingers", r3.Add(com, r3.Vec{X: 0.01, Y: 0.01})},
		{"farFromFingers", r3.Vec{X: -0.11, Y: 0.755, Z: 0.15}},
	}

	for _, test := range tests {
		state := append(floatutils.Vec(hand), floatutils.Vec(test.obj)...)
		obs := ts.Dict{StateObservation: mat.NewVecDense(StateLen, state)}

		r, err := w.ComputeReward(mat.NewVecDense(4, nil), obs)
		if err != nil {
			t.Fatal(err)
		}

		reach := r3.Norm(r3.Sub(test.obj, com))
		pull := math.Abs(test.obj.X - goal.X)
		if math.Abs(r.ReachDist-reach) > 1e-12 {
			t.Errorf("%v: reach distance have(%v) want(%v)", test.name,
				r.ReachDist, reach)
		}
		if math.Abs(r.PullDist-pull) > 1e-12 {
			t.Errorf("%v: pull distance have(%v) want(%v)", test.name,
				r.PullDist, pull)
		}
		if want := PullReward(reach, pull, MaxPullDist); r.Reward != want {
			t.Errorf("%v: reward have(%v) want(%v)", test.name, r.Reward, want)
		}
		if r.PickRew != 0 {
			t.Errorf("%v: pick reward have(%v) want(0)", test.name, r.PickRew)
		}

		scalar, err := w.Reward(nil, obs)
		if err != nil || scalar != r.Reward {
			t.Errorf("%v: reward have(%v, %v) want(%v)", test.name, scalar, err,
				r.Reward)
		}
	}

	bad := ts.Dict{StateObservation: mat.NewVecDense(3, nil)}
	if _, err := w.ComputeReward(nil, bad); err == nil {
		t.Error("computeReward: expected error for short state observation")
	}
	if _, err := w.ComputeReward(nil, ts.Dict{}); err == nil {
		t.Error("computeReward: expected error for missing state observation")
	}
	if _, err := w.ComputeReward(nil, ts.Dict{StateObservation: nil}); err == nil {
		t.Error("computeReward: expected error for nil state observation")
	}
	if _, err := w.Reward(nil, ts.Dict{}); err == nil {
		t.Error("reward: expected error for missing state observation")
	}
}

func TestComputeRewards(t *testing.T) {
	w, step := newTestEnv(t, DefaultConfig())

	const k = 5
	states := mat.NewDense(k, StateLen, nil)
	actions := make([]*mat.VecDense, k)
	for i := 0; i < k; i++ {
		row := mat.VecDenseCopyOf(step.Observation)
		row.SetVec(3, row.AtVec(3)+0.02*float64(i))
		row.SetVec(5, row.AtVec(5)-0.01*float64(i))
		states.SetRow(i, row.RawVector().Data)
		actions[i] = mat.NewVecDense(4, []float64{float64(i) / k, 0, 0, 1})
	}
	batch := map[string]*mat.Dense{StateObservation: states}

	rewards, err := w.ComputeRewards(actions, batch)
	if err != nil {
		t.Fatal(err)
	}
	if len(rewards) != k {
		t.Fatalf("computeRewards: have %v rewards want %v", len(rewards), k)
	}

	var sum float64
	for i := 0; i < k; i++ {
		obs := ts.Dict{
			StateObservation: mat.VecDenseCopyOf(states.RowView(i)),
		}
		want, err := w.ComputeReward(actions[i], obs)
		if err != nil {
			t.Fatal(err)
		}
		if rewards[i] != want.Reward {
			t.Errorf("computeRewards: reward %v have(%v) want(%v)", i,
				rewards[i], want.Reward)
		}
		sum += want.Reward
	}

	mean, err := w.MeanReward(actions, batch)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(mean-sum/k) > 1e-9 {
		t.Errorf("meanReward: have(%v) want(%v)", mean, sum/k)
	}

	if _, err := w.ComputeRewards(actions[:k-1], batch); err == nil {
		t.Error("computeRewards: expected error for mismatched batch sizes")
	}
	wrongLayout := map[string]*mat.Dense{
		StateObservation: mat.NewDense(k, StateLen-1, nil),
	}
	if _, err := w.ComputeRewards(actions, wrongLayout); err == nil {
		t.Error("computeRewards: expected error for wrong state layout")
	}
	if _, err := w.ComputeRewards(actions, map[string]*mat.Dense{}); err == nil {
		t.Error("computeRewards: expected error for missing observations")
	}
}
