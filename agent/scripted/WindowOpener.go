// Package scripted implements agents which follow hand-written
// policies
package scripted

import (
	"fmt"

	"github.com/samuelfneumann/multiworld/agent"
	"github.com/samuelfneumann/multiworld/environment"
	"github.com/samuelfneumann/multiworld/environment/sawyer/windowopen"
	ts "github.com/samuelfneumann/multiworld/timestep"
	"github.com/samuelfneumann/multiworld/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Type is the agent.Type of the window opening agent
const Type agent.Type = "ScriptedWindowOpener"

func init() {
	agent.Register(Type, func() agent.Config { return DefaultConfig() })
}

// Geometry of the fingers relative to the hand and the window handle
const (
	// approachOffset is the distance along the x-axis from the handle
	// to the hand before pushing
	approachOffset = 0.07

	// contactOffset is the distance along the x-axis from the handle
	// to the hand when the fingers touch the handle
	contactOffset = 0.045

	// fingerDrop is the height of the hand above the handle which
	// places the fingertips level with the handle
	fingerDrop = 0.05
)

// Config configures a WindowOpener
type Config struct {
	// Gain converts position errors to actions
	Gain float64 `json:"gain" yaml:"gain"`

	// Clearance is the height above the handle at which the hand moves
	// over the window
	Clearance float64 `json:"clearance" yaml:"clearance"`

	// Tolerance is the distance within which a waypoint is reached
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`
}

// DefaultConfig returns the default configuration of a WindowOpener
func DefaultConfig() Config {
	return Config{Gain: 100, Clearance: 0.15, Tolerance: 0.005}
}

// Validate returns an error if the configuration is invalid
func (c Config) Validate() error {
	if c.Gain <= 0 {
		return fmt.Errorf("validate: gain should be positive, have(%v)",
			c.Gain)
	}
	if c.Clearance <= fingerDrop {
		return fmt.Errorf("validate: clearance should be above %v, have(%v)",
			fingerDrop, c.Clearance)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("validate: tolerance should be positive, have(%v)",
			c.Tolerance)
	}
	return nil
}

// CreateAgent creates a WindowOpener acting in env
func (c Config) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	return New(c, env.ActionSpec().Shape.Len())
}

// WindowOpener is a policy which opens the window in the window
// opening environment. The hand rises above the window, moves to the
// side of the handle furthest from the goal, descends, and pushes the
// handle to the goal. Rotation action elements are always zero and the
// gripper is kept open.
//
// The policy is stateless: its waypoint is determined from the
// positions of the hand and handle alone.
type WindowOpener struct {
	agent.NonLearner
	Config

	actionDim int
	eval      bool
}

// New returns a new WindowOpener for environments with actions of the
// given dimension
func New(c Config, actionDim int) (*WindowOpener, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	switch actionDim {
	case windowopen.Fixed.ActionDim(), windowopen.RotZ.ActionDim(),
		windowopen.Quat.ActionDim():
	default:
		return nil, fmt.Errorf("new: unsupported action dimension %v",
			actionDim)
	}

	return &WindowOpener{Config: c, actionDim: actionDim}, nil
}

// Waypoint returns the position the hand should move towards given
// the hand position, the observed handle position, and the goal
func (w *WindowOpener) Waypoint(hand, obj, goal r3.Vec) r3.Vec {
	// The observed handle position is offset from the handle centre
	handle := r3.Add(obj, r3.Vec{X: 0.01})

	approach := r3.Vec{
		X: handle.X - approachOffset,
		Y: handle.Y,
		Z: handle.Z + fingerDrop,
	}
	safe := handle.Z + w.Clearance

	near := func(a, b float64) bool {
		return a-b <= w.Tolerance && b-a <= w.Tolerance
	}
	aligned := near(hand.Y, approach.Y) && near(hand.Z, approach.Z)
	behind := hand.X <= handle.X-contactOffset+w.Tolerance/5

	switch {
	case aligned && behind:
		// Push until the observed handle reaches the goal
		return r3.Vec{
			X: goal.X + 0.01 - contactOffset,
			Y: approach.Y,
			Z: approach.Z,
		}

	case near(hand.X, approach.X) && near(hand.Y, approach.Y):
		return approach

	case hand.Z >= safe-w.Tolerance:
		return r3.Vec{X: approach.X, Y: approach.Y, Z: safe}
	}
	return r3.Vec{X: hand.X, Y: hand.Y, Z: safe}
}

// SelectAction returns the action moving the hand towards its
// waypoint. Timesteps without dict observations result in a zero
// action.
func (w *WindowOpener) SelectAction(t ts.TimeStep) *mat.VecDense {
	action := mat.NewVecDense(w.actionDim, nil)
	action.SetVec(w.actionDim-1, -1)

	hand, okHand := t.Dict[windowopen.HandKey]
	obj, okObj := t.Dict[windowopen.ObjKey]
	goal, okGoal := t.Dict[windowopen.StateDesiredGoal]
	if !okHand || !okObj || !okGoal {
		return action
	}

	h := vec(hand)
	target := w.Waypoint(h, vec(obj), vec(goal))
	delta := floatutils.ClipVec(
		r3.Scale(w.Gain, r3.Sub(target, h)),
		r3.Vec{X: -1, Y: -1, Z: -1},
		r3.Vec{X: 1, Y: 1, Z: 1},
	)

	action.SetVec(0, delta.X)
	action.SetVec(1, delta.Y)
	action.SetVec(2, delta.Z)
	return action
}

// Eval sets the policy to evaluation mode
func (w *WindowOpener) Eval() { w.eval = true }

// Train sets the policy to training mode
func (w *WindowOpener) Train() { w.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (w *WindowOpener) IsEval() bool { return w.eval }

func vec(v mat.Vector) r3.Vec {
	return r3.Vec{X: v.AtVec(0), Y: v.AtVec(1), Z: v.AtVec(2)}
}
