// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	ts "github.com/samuelfneumann/multiworld/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes should end
type Ender interface {
	// End determines whether or not the current episode should be
	// ended, returning a boolean to indicate episode termination. If
	// the episode should be ended, End modifies the timestep so that
	// its StepType field is timestep.Last and its EndType is set.
	End(*ts.TimeStep) bool
}

// Environment implements a simulated environment.
//
// Step returns the next TimeStep, whether that TimeStep is the last in
// the episode, and an error if the environment could not be stepped.
type Environment interface {
	Reset() (ts.TimeStep, error) // Resets between episodes
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)
	CurrentTimeStep() ts.TimeStep
	RewardSpec() Spec
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}

// Closer is implemented by environments which hold resources that
// must be released once the environment is no longer needed
type Closer interface {
	Close() error
}
