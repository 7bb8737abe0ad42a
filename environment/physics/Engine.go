// Package physics defines the interface between environments and the
// physics engines which simulate them, together with the scene model
// shared by all engines.
//
// Engines expose the accessor surface of a MuJoCo-style simulator:
// generalized positions and velocities, mocap bodies, and the world
// positions of named bodies, geoms, and sites.
package physics

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNotFound is returned when a named object does not exist in a scene
var ErrNotFound = errors.New("no such object in scene")

// Dims records the sizes of the state and control vectors of an
// engine
type Dims struct {
	NQ     int // Number of generalized positions
	NV     int // Number of generalized velocities
	NU     int // Number of actuators
	NMocap int // Number of mocap bodies
}

// Dynamics are the physical parameters of the movable objects in a
// scene which may be changed between tasks. Each field multiplies the
// corresponding value of the scene as loaded.
type Dynamics struct {
	Friction  float64 // Multiplier on the sliding friction of movable geoms
	Damping   float64 // Multiplier on the damping of movable joints
	MassScale float64 // Multiplier on the masses of movable bodies
}

// DefaultDynamics returns dynamics which leave a scene as it was
// loaded
func DefaultDynamics() Dynamics {
	return Dynamics{Friction: 1.0, Damping: 1.0, MassScale: 1.0}
}

// Validate returns an error if the dynamics are not physical
func (d Dynamics) Validate() error {
	if d.Friction < 0 {
		return fmt.Errorf("validate: friction must be non-negative, have(%v)",
			d.Friction)
	}
	if d.Damping < 0 {
		return fmt.Errorf("validate: damping must be non-negative, have(%v)",
			d.Damping)
	}
	if d.MassScale <= 0 {
		return fmt.Errorf("validate: mass scale must be positive, have(%v)",
			d.MassScale)
	}
	return nil
}

// Engine simulates a scene
type Engine interface {
	// Reset resets the simulation state to the state at load time.
	// Changes to body and site positions persist across resets.
	Reset() error

	// Step sets the actuator controls and advances the simulation by
	// nFrames timesteps
	Step(ctrl []float64, nFrames int) error

	// Forward recomputes derived positions without advancing time
	Forward() error

	// Timestep returns the duration of a single simulation timestep
	Timestep() float64

	Dims() Dims
	QPos() []float64
	QVel() []float64
	SetState(qpos, qvel []float64) error
	CtrlRange() []r1.Interval

	MocapPos(body string) (r3.Vec, error)
	SetMocapPos(body string, pos r3.Vec) error
	MocapQuat(body string) (quat.Number, error)
	SetMocapQuat(body string, q quat.Number) error

	// BodyXPos, GeomXPos, and SiteXPos return world positions
	BodyXPos(body string) (r3.Vec, error)
	GeomXPos(geom string) (r3.Vec, error)
	SiteXPos(site string) (r3.Vec, error)

	// SetBodyPos and SetSitePos move objects relative to their
	// parent body
	SetBodyPos(body string, pos r3.Vec) error
	SetSitePos(site string, pos r3.Vec) error

	Dynamics() Dynamics
	SetDynamics(Dynamics) error

	// Model returns the scene being simulated
	Model() *Model

	Close() error
}

// NotFound returns an error wrapping ErrNotFound for the object with
// the given kind and name
func NotFound(kind, name string) error {
	return fmt.Errorf("%v %q: %w", kind, name, ErrNotFound)
}
