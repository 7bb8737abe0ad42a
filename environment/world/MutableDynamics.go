package world

import (
	"fmt"

	"github.com/samuelfneumann/multiworld/environment/physics"
	"github.com/samuelfneumann/multiworld/environment/spaces"
	"gonum.org/v1/gonum/mat"
)

// DynamicWorld is a World whose physical parameters can be changed
type DynamicWorld interface {
	World
	Dynamics() physics.Dynamics
	SetDynamics(physics.Dynamics) error
}

// MutableDynamics describes worlds whose physical parameters can be
// changed within declared bounds
type MutableDynamics interface {
	// DynamicsSchema returns the space of valid dynamics, ordered as
	// friction, damping, and mass scale
	DynamicsSchema() *spaces.Box
	SetDynamics(physics.Dynamics) error
	SampleDynamics() (physics.Dynamics, error)
}

// MutableDynamicsWorld restricts the dynamics of a DynamicWorld to a
// schema and adds dynamics sampling
type MutableDynamicsWorld struct {
	DynamicWorld
	schema *spaces.Box
}

// NewMutableDynamicsWorld returns a new MutableDynamicsWorld. The
// schema must be three-dimensional, see MutableDynamics.
func NewMutableDynamicsWorld(w DynamicWorld, schema *spaces.Box,
	seed uint64) (*MutableDynamicsWorld, error) {
	if schema.Len() != 3 {
		return nil, fmt.Errorf("newMutableDynamicsWorld: schema should be "+
			"3-dimensional, have(%v)", schema.Len())
	}
	if !schema.Bounded() {
		return nil, fmt.Errorf("newMutableDynamicsWorld: schema should be " +
			"bounded")
	}
	schema.Seed(seed)
	return &MutableDynamicsWorld{DynamicWorld: w, schema: schema}, nil
}

// DefaultDynamicsSchema returns bounds on dynamics from half to twice
// the dynamics of a scene as loaded
func DefaultDynamicsSchema() *spaces.Box {
	return spaces.MustBox([]float64{0.5, 0.5, 0.5}, []float64{2, 2, 2})
}

// DynamicsSchema returns the space of valid dynamics
func (m *MutableDynamicsWorld) DynamicsSchema() *spaces.Box {
	return m.schema
}

// SetDynamics sets the dynamics of the world. Dynamics outside the
// schema result in an error wrapping spaces.ErrNotContained.
func (m *MutableDynamicsWorld) SetDynamics(d physics.Dynamics) error {
	if err := m.schema.Validate(DynamicsVec(d)); err != nil {
		return fmt.Errorf("setDynamics: %w", err)
	}
	if err := m.DynamicWorld.SetDynamics(d); err != nil {
		return fmt.Errorf("setDynamics: %w", err)
	}
	return nil
}

// SampleDynamics samples dynamics uniformly from the schema and sets
// them
func (m *MutableDynamicsWorld) SampleDynamics() (physics.Dynamics, error) {
	d := DynamicsFromVec(m.schema.Sample())
	if err := m.SetDynamics(d); err != nil {
		return physics.Dynamics{}, fmt.Errorf("sampleDynamics: %w", err)
	}
	return d, nil
}

// DynamicsVec returns dynamics as a vector of friction, damping, and
// mass scale
func DynamicsVec(d physics.Dynamics) *mat.VecDense {
	return mat.NewVecDense(3, []float64{d.Friction, d.Damping, d.MassScale})
}

// DynamicsFromVec is the inverse of DynamicsVec
func DynamicsFromVec(v mat.Vector) physics.Dynamics {
	return physics.Dynamics{
		Friction:  v.AtVec(0),
		Damping:   v.AtVec(1),
		MassScale: v.AtVec(2),
	}
}

var _ MutableDynamics = (*MutableDynamicsWorld)(nil)
