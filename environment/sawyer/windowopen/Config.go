package windowopen

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/multiworld/assets"
)

// RotMode determines how actions orient the end effector
type RotMode string

const (
	// Fixed keeps the gripper pointing down. Actions are (dx, dy, dz,
	// grip).
	Fixed RotMode = "fixed"

	// RotZ rotates the gripper about the world z-axis. Actions are
	// (dx, dy, dz, dθ, grip).
	RotZ RotMode = "rotz"

	// Quat sets the gripper orientation to a rotation about an axis.
	// Actions are (dx, dy, dz, θ, axis x, axis y, axis z, grip).
	Quat RotMode = "quat"

	// Euler sets the gripper orientation from Euler angles. Actions
	// are (dx, dy, dz, roll, pitch, yaw, grip).
	Euler RotMode = "euler"
)

// ActionDim returns the dimension of actions in the rotation mode
func (r RotMode) ActionDim() int {
	switch r {
	case RotZ:
		return 5
	case Quat:
		return 8
	case Euler:
		return 7
	}
	return 4
}

// ActionBounds returns the bounds on actions in the rotation mode
func (r RotMode) ActionBounds() (low, high []float64) {
	switch r {
	case RotZ:
		return []float64{-1, -1, -1, -math.Pi, -1},
			[]float64{1, 1, 1, math.Pi, 1}
	case Quat:
		return []float64{-1, -1, -1, 0, -1, -1, -1, -1},
			[]float64{1, 1, 1, 2 * math.Pi, 1, 1, 1, 1}
	case Euler:
		return []float64{-1, -1, -1, -math.Pi / 2, -math.Pi / 2, 0, -1},
			[]float64{1, 1, 1, math.Pi / 2, math.Pi / 2, 2 * math.Pi, 1}
	}
	return []float64{-1, -1, -1, -1}, []float64{1, 1, 1, 1}
}

// ActionRotScale returns the scale applied to rotation actions
func (r RotMode) ActionRotScale() float64 {
	if r == RotZ {
		return 1.0 / 50
	}
	return 1.0
}

// Valid returns whether r is a known rotation mode
func (r RotMode) Valid() bool {
	switch r {
	case Fixed, RotZ, Quat, Euler:
		return true
	}
	return false
}

// RewMode selects the reward function
type RewMode string

// Orig is the shaped reach-then-pull reward
const Orig RewMode = "orig"

// Physics backends
const (
	Box2D  = "box2d"
	MuJoCo = "mujoco"
)

// Config configures a WindowOpen environment
type Config struct {
	RotMode       RotMode `json:"rot_mode" yaml:"rot_mode"`
	RewMode       RewMode `json:"rew_mode" yaml:"rew_mode"`
	MaxPathLength int     `json:"max_path_length" yaml:"max_path_length"`
	FrameSkip     int     `json:"frame_skip" yaml:"frame_skip"`
	Discount      float64 `json:"discount" yaml:"discount"`
	LiftThresh    float64 `json:"lift_thresh" yaml:"lift_thresh"`

	// Backend is the physics engine, either Box2D or MuJoCo
	Backend string `json:"backend" yaml:"backend"`

	// Asset is the scene file, see assets.Open
	Asset string `json:"asset" yaml:"asset"`

	// RenderDir, if set, is the directory that a frame is rendered to
	// at each step
	RenderDir string `json:"render_dir,omitempty" yaml:"render_dir,omitempty"`

	// EndOnSuccess ends episodes as soon as the window is open
	EndOnSuccess bool `json:"end_on_success" yaml:"end_on_success"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		RotMode:       Fixed,
		RewMode:       Orig,
		MaxPathLength: 150,
		FrameSkip:     5,
		Discount:      1.0,
		LiftThresh:    0.02,
		Backend:       Box2D,
		Asset:         assets.SawyerWindowHorizontal,
	}
}

// Validate returns an error if the configuration is invalid
func (c Config) Validate() error {
	if !c.RotMode.Valid() {
		return fmt.Errorf("validate: unknown rotation mode %q", c.RotMode)
	}
	if c.RewMode != Orig {
		return fmt.Errorf("validate: unknown reward mode %q", c.RewMode)
	}
	if c.MaxPathLength <= 0 {
		return fmt.Errorf("validate: max path length should be positive, "+
			"have(%v)", c.MaxPathLength)
	}
	if c.FrameSkip <= 0 {
		return fmt.Errorf("validate: frame skip should be positive, have(%v)",
			c.FrameSkip)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount should be in [0, 1], have(%v)",
			c.Discount)
	}
	return nil
}
