package windowopen

import (
	"fmt"
	"math"

	ts "github.com/samuelfneumann/multiworld/timestep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Reward shaping constants
const (
	ReachThreshold   = 0.05
	SuccessThreshold = 0.05
	MaxPullDist      = 0.2

	pullScale   = 1000.0
	bonusScale  = 1000.0
	wideBonus   = 0.01
	narrowBonus = 0.001
)

// StateLayout lists the observations concatenated, in order, to form
// state observation vectors
var StateLayout = []string{HandKey, ObjKey}

// StateLen is the length of state observation vectors
const StateLen = 6

// Reward is the reward for a transition together with its components
type Reward struct {
	Reward    float64
	ReachDist float64

	// PickRew is always zero, the window is never picked up
	PickRew  float64
	PullDist float64
}

// PullReward returns the reward for reaching the window handle and
// pulling it towards the goal. The reward is the negative distance
// between the fingers and the handle. Once the fingers are within
// ReachThreshold of the handle, the reward also increases linearly as
// the handle approaches the goal along the x-axis, with a wide and a
// narrow Gaussian bonus around the goal.
func PullReward(reachDist, pullDist, maxPullDist float64) float64 {
	reward := -reachDist
	if reachDist < ReachThreshold {
		sq := pullDist * pullDist
		reward += pullScale*(maxPullDist-pullDist) +
			bonusScale*(math.Exp(-sq/wideBonus)+math.Exp(-sq/narrowBonus))
	}
	return reward
}

// objFromState returns the object position in a state observation
func objFromState(state *mat.VecDense) (r3.Vec, error) {
	if state == nil || state.Len() != StateLen {
		length := 0
		if state != nil {
			length = state.Len()
		}
		return r3.Vec{}, fmt.Errorf("state observation should be the "+
			"concatenation of %v with length %v, have length %v", StateLayout,
			StateLen, length)
	}
	return r3.Vec{X: state.AtVec(3), Y: state.AtVec(4), Z: state.AtVec(5)},
		nil
}

// ComputeReward returns the reward for an observation given the
// current position of the fingers. The action does not affect the
// reward.
func (w *WindowOpen) ComputeReward(action *mat.VecDense, obs ts.Dict) (Reward,
	error) {
	state, ok := obs[StateObservation]
	if !ok || state == nil {
		return Reward{}, fmt.Errorf("computeReward: observation has no %q",
			StateObservation)
	}
	obj, err := objFromState(state)
	if err != nil {
		return Reward{}, fmt.Errorf("computeReward: %v", err)
	}
	return w.reward(obj)
}

func (w *WindowOpen) reward(obj r3.Vec) (Reward, error) {
	fingerCOM, err := w.FingerCOM()
	if err != nil {
		return Reward{}, fmt.Errorf("reward: %v", err)
	}

	pullDist := math.Abs(obj.X - w.goal.AtVec(0))
	reachDist := r3.Norm(r3.Sub(obj, fingerCOM))

	switch w.config.RewMode {
	case Orig:
		return Reward{
			Reward:    PullReward(reachDist, pullDist, w.maxPullDist),
			ReachDist: reachDist,
			PullDist:  pullDist,
		}, nil
	}
	return Reward{}, fmt.Errorf("reward: unknown reward mode %q",
		w.config.RewMode)
}

// Reward returns the scalar reward for an observation
func (w *WindowOpen) Reward(action *mat.VecDense, obs ts.Dict) (float64,
	error) {
	r, err := w.ComputeReward(action, obs)
	return r.Reward, err
}

// ComputeRewards returns the reward of each action and observation in
// a batch. Row i of obs[StateObservation] is the state observation
// paired with actions[i], laid out as described by StateLayout.
func (w *WindowOpen) ComputeRewards(actions []*mat.VecDense,
	obs map[string]*mat.Dense) ([]float64, error) {
	states, ok := obs[StateObservation]
	if !ok || states == nil {
		return nil, fmt.Errorf("computeRewards: batch has no %q",
			StateObservation)
	}

	rows, cols := states.Dims()
	if rows != len(actions) {
		return nil, fmt.Errorf("computeRewards: batch has %v actions but "+
			"%v observations", len(actions), rows)
	}
	if cols != StateLen {
		return nil, fmt.Errorf("computeRewards: state observations should "+
			"be the concatenation of %v with length %v, have length %v",
			StateLayout, StateLen, cols)
	}

	rewards := make([]float64, rows)
	for i := range rewards {
		state := mat.VecDenseCopyOf(states.RowView(i))
		r, err := w.ComputeReward(actions[i], ts.Dict{StateObservation: state})
		if err != nil {
			return nil, fmt.Errorf("computeRewards: %v", err)
		}
		rewards[i] = r.Reward
	}
	return rewards, nil
}

// MeanReward returns the mean reward over a batch
func (w *WindowOpen) MeanReward(actions []*mat.VecDense,
	obs map[string]*mat.Dense) (float64, error) {
	rewards, err := w.ComputeRewards(actions, obs)
	if err != nil {
		return 0, fmt.Errorf("meanReward: %v", err)
	}
	if len(rewards) == 0 {
		return 0, nil
	}
	return floats.Sum(rewards) / float64(len(rewards)), nil
}
