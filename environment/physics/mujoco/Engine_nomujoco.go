//go:build !mujoco

// Package mujoco implements a physics engine backed by the MuJoCo
// simulator. The package requires cgo and a MuJoCo installation and
// is only built with the mujoco build tag.
package mujoco

import (
	"errors"

	"github.com/samuelfneumann/multiworld/environment/physics"
)

// Available reports whether MuJoCo support was compiled in
const Available = false

// ErrUnavailable is returned by Load when MuJoCo support was not
// compiled in
var ErrUnavailable = errors.New("MuJoCo unavailable in this build; " +
	"rebuild with -tags mujoco")

// Load returns ErrUnavailable
func Load(path string) (physics.Engine, error) {
	return nil, ErrUnavailable
}
