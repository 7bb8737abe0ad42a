package wrappers

import (
	"fmt"

	env "github.com/samuelfneumann/multiworld/environment"
	ts "github.com/samuelfneumann/multiworld/timestep"
	"gonum.org/v1/gonum/mat"
)

// ClipAction clips actions to the bounds of the action specification
// of the wrapped environment before they are taken
type ClipAction struct {
	env.Environment
}

// NewClipAction returns a new ClipAction environment wrapper
func NewClipAction(e env.Environment) *ClipAction {
	return &ClipAction{e}
}

// Step takes one environmental step given some action. Actions with
// the wrong shape are passed on unchanged for the wrapped environment
// to reject.
func (c *ClipAction) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	spec := c.ActionSpec()
	if action != nil && action.Len() == spec.Shape.Len() {
		action = spec.Clip(action)
	}
	return c.Environment.Step(action)
}

// String returns the string representation of the environment
func (c *ClipAction) String() string {
	return fmt.Sprintf("ClipAction: %v", c.Environment)
}
