// Package agent defines an agent interface
package agent

import (
	"fmt"
	"sort"

	"github.com/samuelfneumann/multiworld/environment"
	"github.com/samuelfneumann/multiworld/timestep"
	"gonum.org/v1/gonum/mat"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns from experience, and
// a Policy which chooses actions in each state.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm
type Learner interface {
	// Step performs a single update to the learner
	Step() error

	// Observe records that an action lead to some timestep
	Observe(action mat.Vector, nextObs timestep.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// Type represents a type of an agent
type Type string

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes
	CreateAgent(env environment.Environment, seed uint64) (Agent, error)

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error
}

// Registered types with the package. Each package implementing an
// agent registers its own Type to avoid circular imports.
var registeredTypes = make(map[Type]func() Config)

// Register registers an agent's Type with a function returning its
// default Config
func Register(agentType Type, defaultConfig func() Config) {
	registeredTypes[agentType] = defaultConfig
}

// NewConfig returns the default Config of a registered agent Type
func NewConfig(agentType Type) (Config, error) {
	defaultConfig, ok := registeredTypes[agentType]
	if !ok {
		return nil, fmt.Errorf("newConfig: no such agent type %q, "+
			"registered types are %v", agentType, Types())
	}
	return defaultConfig(), nil
}

// Types returns the sorted registered agent Types
func Types() []Type {
	types := make([]Type, 0, len(registeredTypes))
	for t := range registeredTypes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// NonLearner implements the Learner interface for agents which do not
// learn
type NonLearner struct{}

// Step satisfies the Learner interface
func (NonLearner) Step() error { return nil }

// Observe satisfies the Learner interface
func (NonLearner) Observe(mat.Vector, timestep.TimeStep) error { return nil }

// ObserveFirst satisfies the Learner interface
func (NonLearner) ObserveFirst(timestep.TimeStep) error { return nil }

// EndEpisode satisfies the Learner interface
func (NonLearner) EndEpisode() {}
