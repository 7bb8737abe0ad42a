package wrappers

import (
	"fmt"

	env "github.com/samuelfneumann/multiworld/environment"
	"github.com/samuelfneumann/multiworld/environment/world"
	ts "github.com/samuelfneumann/multiworld/timestep"
)

// Resample samples a new task, new dynamics, or both at the start of
// each episode. Either sampler may be nil.
type Resample struct {
	env.Environment
	tasks    world.MultiTask
	dynamics world.MutableDynamics
}

// NewResample returns a new Resample environment wrapper. The samplers
// should change the tasks and dynamics of the wrapped environment.
func NewResample(e env.Environment, tasks world.MultiTask,
	dynamics world.MutableDynamics) *Resample {
	return &Resample{Environment: e, tasks: tasks, dynamics: dynamics}
}

// Reset samples the task and dynamics of the next episode and resets
// the environment
func (r *Resample) Reset() (ts.TimeStep, error) {
	if r.tasks != nil {
		if _, err := r.tasks.SampleTask(); err != nil {
			return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
		}
	}
	if r.dynamics != nil {
		if _, err := r.dynamics.SampleDynamics(); err != nil {
			return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
		}
	}
	return r.Environment.Reset()
}

// String returns the string representation of the environment
func (r *Resample) String() string {
	return fmt.Sprintf("Resample: %v", r.Environment)
}
