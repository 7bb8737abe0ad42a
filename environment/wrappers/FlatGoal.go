// Package wrappers implements environment wrappers which change how
// an agent interacts with an environment
package wrappers

import (
	"fmt"
	"math"

	env "github.com/samuelfneumann/multiworld/environment"
	ts "github.com/samuelfneumann/multiworld/timestep"
	"gonum.org/v1/gonum/mat"
)

// Default observation keys flattened by FlatGoal
var (
	DefaultObsKeys  = []string{"state_observation"}
	DefaultGoalKeys = []string{"state_desired_goal"}
)

// FlatGoal converts the dict observations of goal-conditioned
// environments to flat observations. The flat observation is the
// concatenation of the observations at each observation key followed
// by the observations at each goal key.
type FlatGoal struct {
	env.Environment
	keys   []string
	length int

	currentTimeStep ts.TimeStep
}

// NewFlatGoal returns a new FlatGoal environment wrapper. The wrapped
// environment must have been reset, and its current dict observation
// must hold each key.
func NewFlatGoal(e env.Environment, obsKeys, goalKeys []string) (*FlatGoal,
	error) {
	keys := make([]string, 0, len(obsKeys)+len(goalKeys))
	keys = append(keys, obsKeys...)
	keys = append(keys, goalKeys...)
	if len(keys) == 0 {
		return nil, fmt.Errorf("newFlatGoal: at least one key is required")
	}

	step := e.CurrentTimeStep()
	if step.Dict == nil {
		return nil, fmt.Errorf("newFlatGoal: environment has no dict " +
			"observations")
	}

	length := 0
	for _, key := range keys {
		obs, ok := step.Dict[key]
		if !ok || obs == nil {
			return nil, fmt.Errorf("newFlatGoal: no observation %q in %v", key,
				step.Dict.Keys())
		}
		length += obs.Len()
	}

	f := &FlatGoal{Environment: e, keys: keys, length: length}
	obs, err := f.getObs(step.Dict)
	if err != nil {
		return nil, fmt.Errorf("newFlatGoal: %v", err)
	}
	step.Observation = obs
	f.currentTimeStep = step

	return f, nil
}

// Reset resets the environment to some starting state
func (f *FlatGoal) Reset() (ts.TimeStep, error) {
	step, err := f.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, err
	}

	newObs, err := f.getObs(step.Dict)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not calculate "+
			"observation: %v", err)
	}

	step.Observation = newObs
	f.currentTimeStep = step

	return step, nil
}

// Step takes one environmental step given some action
func (f *FlatGoal) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	step, _, err := f.Environment.Step(action)
	if err != nil {
		return ts.TimeStep{}, true, err
	}

	newObs, err := f.getObs(step.Dict)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not calculate "+
			"observation: %v", err)
	}

	step.Observation = newObs
	f.currentTimeStep = step

	return step, step.Last(), nil
}

// CurrentTimeStep returns the current time step in the environment
func (f *FlatGoal) CurrentTimeStep() ts.TimeStep {
	return f.currentTimeStep
}

// getObs concatenates the observations of a dict observation
func (f *FlatGoal) getObs(d ts.Dict) (*mat.VecDense, error) {
	data := make([]float64, 0, f.length)
	for _, key := range f.keys {
		obs, ok := d[key]
		if !ok || obs == nil {
			return nil, fmt.Errorf("getObs: no observation %q", key)
		}
		data = append(data, obs.RawVector().Data...)
	}

	if len(data) != f.length {
		return nil, fmt.Errorf("getObs: observation should have length %v, "+
			"have(%v)", f.length, len(data))
	}
	return mat.NewVecDense(f.length, data), nil
}

// ObservationSpec returns the observation specification of the
// environment
func (f *FlatGoal) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(f.length, nil)
	low := mat.NewVecDense(f.length, nil)
	high := mat.NewVecDense(f.length, nil)
	for i := 0; i < f.length; i++ {
		low.SetVec(i, math.Inf(-1))
		high.SetVec(i, math.Inf(1))
	}

	return env.NewSpec(shape, env.Observation, low, high, env.Continuous)
}

// String returns the string representation of the environment
func (f *FlatGoal) String() string {
	return fmt.Sprintf("FlatGoal%v: %v", f.keys, f.Environment)
}
