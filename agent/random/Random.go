// Package random implements an agent which selects actions uniformly
// at random from within the bounds of an environment's actions
package random

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/multiworld/agent"
	"github.com/samuelfneumann/multiworld/environment"
	ts "github.com/samuelfneumann/multiworld/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// Type is the agent.Type of the random agent
const Type agent.Type = "Random"

func init() {
	agent.Register(Type, func() agent.Config { return Config{} })
}

// Config configures a random agent
type Config struct{}

// CreateAgent creates a random agent acting in env
func (c Config) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	return New(env.ActionSpec(), seed)
}

// Validate satisfies the agent.Config interface
func (c Config) Validate() error {
	return nil
}

// Random selects actions uniformly at random
type Random struct {
	agent.NonLearner
	policy *distmv.Uniform
	eval   bool
}

// New returns a new Random agent selecting actions within the bounds
// of spec
func New(spec environment.Spec, seed uint64) (*Random, error) {
	bounds := make([]r1.Interval, spec.Shape.Len())
	for i := range bounds {
		low, high := spec.LowerBound.AtVec(i), spec.UpperBound.AtVec(i)
		if math.IsInf(low, 0) || math.IsInf(high, 0) {
			return nil, fmt.Errorf("new: action dimension %v is unbounded", i)
		}
		bounds[i] = r1.Interval{Min: low, Max: high}
	}

	return &Random{
		policy: distmv.NewUniform(bounds, rand.NewSource(seed)),
	}, nil
}

// SelectAction returns an action sampled uniformly at random
func (r *Random) SelectAction(ts.TimeStep) *mat.VecDense {
	return mat.NewVecDense(r.policy.Dim(), r.policy.Rand(nil))
}

// Eval sets the policy to evaluation mode
func (r *Random) Eval() { r.eval = true }

// Train sets the policy to training mode
func (r *Random) Train() { r.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (r *Random) IsEval() bool { return r.eval }
