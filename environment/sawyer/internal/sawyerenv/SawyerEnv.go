// Package sawyerenv implements the functionality shared by all
// environments in which a Sawyer end effector is moved around a scene
// through a mocap body.
package sawyerenv

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/multiworld/environment"
	"github.com/samuelfneumann/multiworld/environment/physics"
	"github.com/samuelfneumann/multiworld/environment/physics/box2dengine"
	"github.com/samuelfneumann/multiworld/environment/physics/mujoco"
	"github.com/samuelfneumann/multiworld/utils/floatutils"
	"github.com/samuelfneumann/multiworld/utils/rotation"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Names of the objects of the scene which the end effector is made of
const (
	Mocap            = "mocap"
	Hand             = "hand"
	RightEndEffector = "rightEndEffector"
	LeftEndEffector  = "leftEndEffector"
)

// Backend is a physics engine which can simulate Sawyer scenes
type Backend string

const (
	Box2D  Backend = "box2d"
	MuJoCo Backend = "mujoco"
)

// NewEngine loads the scene at the asset path into a new engine of
// the given backend
func NewEngine(backend Backend, asset string) (physics.Engine, error) {
	switch backend {
	case Box2D, "":
		e, err := box2dengine.Load(asset)
		if err != nil {
			return nil, fmt.Errorf("newEngine: %v", err)
		}
		return e, nil

	case MuJoCo:
		e, err := mujoco.Load(asset)
		if err != nil {
			return nil, fmt.Errorf("newEngine: %v", err)
		}
		return e, nil
	}
	return nil, fmt.Errorf("newEngine: unknown backend %q", backend)
}

// Config describes how a SawyerEnv actuates its end effector
type Config struct {
	FrameSkip      int
	Discount       float64
	ActionScale    float64
	ActionRotScale float64

	// Bounds on the position of the mocap body
	MocapLow, MocapHigh r3.Vec
}

// SawyerEnv implements the actuation of a Sawyer end effector. The end
// effector is welded to a mocap body, so that moving the mocap body
// moves the end effector.
type SawyerEnv struct {
	physics.Engine
	Config
}

// New returns a new SawyerEnv actuating the end effector simulated by
// engine
func New(engine physics.Engine, c Config) (*SawyerEnv, error) {
	if c.FrameSkip <= 0 {
		return nil, fmt.Errorf("new: frameSkip should be positive, have(%v)",
			c.FrameSkip)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return nil, fmt.Errorf("new: discount should be in [0, 1], have(%v)",
			c.Discount)
	}
	if c.MocapLow.X > c.MocapHigh.X || c.MocapLow.Y > c.MocapHigh.Y ||
		c.MocapLow.Z > c.MocapHigh.Z {
		return nil, fmt.Errorf("new: mocap low %v above mocap high %v",
			c.MocapLow, c.MocapHigh)
	}
	if dims := engine.Dims(); dims.NU != 2 || dims.NMocap < 1 {
		return nil, fmt.Errorf("new: scene should have a mocap body and two "+
			"gripper actuators, have %+v", dims)
	}

	return &SawyerEnv{Engine: engine, Config: c}, nil
}

// Dt returns the simulated time between environment steps
func (s *SawyerEnv) Dt() float64 {
	return s.Timestep() * float64(s.FrameSkip)
}

// DoSimulation applies ctrl to the gripper for FrameSkip frames
func (s *SawyerEnv) DoSimulation(ctrl []float64) error {
	if err := s.Step(ctrl, s.FrameSkip); err != nil {
		return fmt.Errorf("doSimulation: %v", err)
	}
	return nil
}

// Grip closes the gripper by amount, negative amounts open it
func (s *SawyerEnv) Grip(amount float64) error {
	return s.DoSimulation([]float64{amount, -amount})
}

// SetXYZAction moves the mocap body by the first three elements of
// action. Each element is clipped to [-1, 1] and scaled by the action
// scale, and the new position is clipped to the mocap bounds.
func (s *SawyerEnv) SetXYZAction(action []float64) error {
	if len(action) < 3 {
		return fmt.Errorf("setXYZAction: action should have at least 3 "+
			"elements, have(%v)", len(action))
	}

	delta := r3.Scale(s.ActionScale, floatutils.ClipVec(
		floatutils.ToVec(action[:3]),
		r3.Vec{X: -1, Y: -1, Z: -1},
		r3.Vec{X: 1, Y: 1, Z: 1},
	))

	pos, err := s.MocapPos(Mocap)
	if err != nil {
		return fmt.Errorf("setXYZAction: %v", err)
	}
	pos = floatutils.ClipVec(r3.Add(pos, delta), s.MocapLow, s.MocapHigh)

	if err := s.SetMocapPos(Mocap, pos); err != nil {
		return fmt.Errorf("setXYZAction: %v", err)
	}
	return nil
}

// SetZRotAction rotates the mocap body about the world z-axis by
// delta scaled by the rotation action scale. The resulting z-angle is
// clipped to [-3, 3] and wrapped into [0, 2π).
func (s *SawyerEnv) SetZRotAction(delta float64) error {
	q, err := s.MocapQuat(Mocap)
	if err != nil {
		return fmt.Errorf("setZRotAction: %v", err)
	}

	zangle := rotation.QuatToZAngle(q) + delta*s.ActionRotScale
	zangle = floatutils.Clip(zangle, -3, 3)
	if zangle < 0 {
		zangle += 2 * math.Pi
	}

	if err := s.SetMocapQuat(Mocap, rotation.ZAngleToQuat(zangle)); err != nil {
		return fmt.Errorf("setZRotAction: %v", err)
	}
	return nil
}

// SetAxisAngleAction orients the mocap body by a rotation of angle,
// scaled by the rotation action scale, about axis. A zero axis leaves
// the orientation unchanged.
func (s *SawyerEnv) SetAxisAngleAction(angle float64, axis r3.Vec) error {
	norm := r3.Norm(axis)
	if norm == 0 {
		return nil
	}
	q := rotation.FromAxisAngle(r3.Scale(1/norm, axis), angle*s.ActionRotScale)

	if err := s.SetMocapQuat(Mocap, q); err != nil {
		return fmt.Errorf("setAxisAngleAction: %v", err)
	}
	return nil
}

// SetEulerAction orients the mocap body by Euler angles
func (s *SawyerEnv) SetEulerAction(euler r3.Vec) error {
	if err := s.SetMocapQuat(Mocap, rotation.EulerToQuat(euler)); err != nil {
		return fmt.Errorf("setEulerAction: %v", err)
	}
	return nil
}

// ResetHand moves the end effector to pos with the gripper pointing
// down and open. The mocap body is repeatedly placed at pos while the
// simulation settles.
func (s *SawyerEnv) ResetHand(pos r3.Vec, iterations int) error {
	for i := 0; i < iterations; i++ {
		if err := s.SetMocapPos(Mocap, pos); err != nil {
			return fmt.Errorf("resetHand: %v", err)
		}
		if err := s.SetMocapQuat(Mocap, quat.Number{Real: 1, Jmag: 1}); err != nil {
			return fmt.Errorf("resetHand: %v", err)
		}
		if err := s.Grip(-1); err != nil {
			return fmt.Errorf("resetHand: %v", err)
		}
	}
	return nil
}

// HandPos returns the position of the end effector
func (s *SawyerEnv) HandPos() (r3.Vec, error) {
	return s.BodyXPos(Hand)
}

// FingerCOM returns the point halfway between the two fingertips
func (s *SawyerEnv) FingerCOM() (r3.Vec, error) {
	right, err := s.SiteXPos(RightEndEffector)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("fingerCOM: %v", err)
	}
	left, err := s.SiteXPos(LeftEndEffector)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("fingerCOM: %v", err)
	}
	return r3.Scale(0.5, r3.Add(right, left)), nil
}

// DiscountSpec returns the discount specification of the environment
func (s *SawyerEnv) DiscountSpec() environment.Spec {
	bounds := mat.NewVecDense(1, []float64{s.Discount})

	return environment.NewSpec(mat.NewVecDense(1, nil), environment.Discount,
		bounds, bounds, environment.Continuous)
}

// ViewerCamera returns the default camera for viewing Sawyer scenes
func ViewerCamera() physics.Camera {
	return physics.Camera{
		LookAt:    r3.Vec{X: 0.2, Y: 0.5, Z: 0.6},
		Distance:  0.4,
		Elevation: -55,
		Azimuth:   135,
	}
}
