package world

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	ts "github.com/samuelfneumann/multiworld/timestep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution is a discrete probability distribution over a finite
// support
type Distribution[T any] struct {
	Support       []T
	Probabilities []float64
}

// NewDistribution returns a new Distribution. Probabilities must be
// non-negative and sum to one.
func NewDistribution[T any](support []T, probs []float64) (Distribution[T],
	error) {
	if len(support) == 0 {
		return Distribution[T]{}, fmt.Errorf("newDistribution: support " +
			"should not be empty")
	}
	if len(support) != len(probs) {
		return Distribution[T]{}, fmt.Errorf("newDistribution: support and "+
			"probabilities should have the same length \n\thave(%v) "+
			"\n\twant(%v)", len(probs), len(support))
	}
	for i, p := range probs {
		if p < 0 || math.IsNaN(p) {
			return Distribution[T]{}, fmt.Errorf("newDistribution: "+
				"probability %v is invalid: %v", i, p)
		}
	}
	if sum := floats.Sum(probs); math.Abs(sum-1) > 1e-9 {
		return Distribution[T]{}, fmt.Errorf("newDistribution: "+
			"probabilities should sum to 1, have(%v)", sum)
	}

	return Distribution[T]{
		Support:       append([]T(nil), support...),
		Probabilities: append([]float64(nil), probs...),
	}, nil
}

// PointMass returns the distribution with all mass on value
func PointMass[T any](value T) Distribution[T] {
	return Distribution[T]{Support: []T{value}, Probabilities: []float64{1}}
}

// Sample returns an element of the support drawn according to the
// distribution
func (d Distribution[T]) Sample(src rand.Source) T {
	if len(d.Support) == 1 {
		return d.Support[0]
	}
	c := distuv.NewCategorical(d.Probabilities, src)
	return d.Support[int(c.Rand())]
}

// Mean returns the expected value of a function over the distribution
func (d Distribution[T]) Mean(f func(T) float64) float64 {
	mean := 0.0
	for i, value := range d.Support {
		mean += d.Probabilities[i] * f(value)
	}
	return mean
}

// MultiObservationWorld describes worlds which may emit one of many
// observations for the same underlying state
type MultiObservationWorld interface {
	World
	ObservationDistribution() (Distribution[*mat.VecDense], error)
}

// MultiTransitionWorld describes worlds with stochastic or aliased
// transitions. TransitionDistribution advances the world by action and
// returns the distribution over time steps the transition could have
// produced. The world continues from the time step it returned from
// the distribution's support.
type MultiTransitionWorld interface {
	World
	TransitionDistribution(action *mat.VecDense) (Distribution[ts.TimeStep],
		error)
}

// MultiRewardWorld describes worlds with stochastic rewards
type MultiRewardWorld interface {
	World
	RewardDistribution(action *mat.VecDense, obs ts.Dict) (
		Distribution[float64], error)
}

// MultiTerminationWorld describes worlds with stochastic episode
// termination
type MultiTerminationWorld interface {
	World
	TerminationProbability(t ts.TimeStep) float64
}

// GeneralizedWorld is a world with multi-valued observations,
// transitions, rewards, and terminations
type GeneralizedWorld interface {
	MultiObservationWorld
	MultiTransitionWorld
	MultiRewardWorld
	MultiTerminationWorld
}

// generalized lifts a deterministic World into a GeneralizedWorld
type generalized struct {
	World
}

// Generalize returns a GeneralizedWorld whose distributions put all
// their mass on the single value produced by w. Rewards are only
// available if w implements RewardFunction.
func Generalize(w World) GeneralizedWorld {
	return generalized{World: w}
}

func (g generalized) ObservationDistribution() (Distribution[*mat.VecDense],
	error) {
	obs := g.CurrentTimeStep().Observation
	if obs == nil {
		return Distribution[*mat.VecDense]{}, fmt.Errorf(
			"observationDistribution: world has not been reset")
	}
	return PointMass(mat.VecDenseCopyOf(obs)), nil
}

func (g generalized) TransitionDistribution(action *mat.VecDense) (
	Distribution[ts.TimeStep], error) {
	step, _, err := g.Step(action)
	if err != nil {
		return Distribution[ts.TimeStep]{}, fmt.Errorf(
			"transitionDistribution: %w", err)
	}
	return PointMass(step), nil
}

func (g generalized) RewardDistribution(action *mat.VecDense, obs ts.Dict) (
	Distribution[float64], error) {
	f, ok := g.World.(RewardFunction)
	if !ok {
		return Distribution[float64]{}, fmt.Errorf("rewardDistribution: " +
			"world has no reward function")
	}
	r, err := f.Reward(action, obs)
	if err != nil {
		return Distribution[float64]{}, fmt.Errorf("rewardDistribution: %w",
			err)
	}
	return PointMass(r), nil
}

func (g generalized) TerminationProbability(t ts.TimeStep) float64 {
	if t.Last() {
		return 1
	}
	return 0
}
