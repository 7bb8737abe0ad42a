// Package world implements capabilities which can be composed with
// environments: goal conditioning, task parameterization, multi-task
// sampling, mutable dynamics, and multi-valued observations,
// transitions, rewards, and terminations.
//
// Capabilities are expressed as interfaces which concrete environments
// implement, together with wrappers which add a capability to any
// environment implementing its prerequisites. Composition is decided
// when an environment is constructed.
package world

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samuelfneumann/multiworld/environment"
	"github.com/samuelfneumann/multiworld/environment/spaces"
	ts "github.com/samuelfneumann/multiworld/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Task is a set of named parameters which determine the initial
// conditions of episodes
type Task map[string]*mat.VecDense

// Clone returns a deep copy of the task
func (t Task) Clone() Task {
	if t == nil {
		return nil
	}
	c := make(Task, len(t))
	for key, value := range t {
		if value != nil {
			c[key] = mat.VecDenseCopyOf(value)
		} else {
			c[key] = nil
		}
	}
	return c
}

// Equal returns whether two tasks have the same parameters
func (t Task) Equal(other Task) bool {
	if len(t) != len(other) {
		return false
	}
	for key, value := range t {
		o, ok := other[key]
		if !ok || (value == nil) != (o == nil) {
			return false
		}
		if value != nil && !mat.Equal(value, o) {
			return false
		}
	}
	return true
}

func (t Task) String() string {
	keys := make([]string, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, key := range keys {
		var data []float64
		if t[key] != nil {
			data = t[key].RawVector().Data
		}
		parts[i] = fmt.Sprintf("%v: %v", key, data)
	}
	return fmt.Sprintf("Task{%v}", strings.Join(parts, ", "))
}

// POMDPDescriptor is a static description of a world
type POMDPDescriptor struct {
	ObservationSpace *spaces.Dict
	ActionSpec       environment.Spec
	RewardRange      r1.Interval
	Discount         float64
}

// World is an environment which can describe itself
type World interface {
	environment.Environment
	Descriptor() POMDPDescriptor
}

// ParametricWorld is a World whose initial conditions are determined
// by a Task
type ParametricWorld interface {
	World

	// TaskSchema returns the space of valid tasks
	TaskSchema() *spaces.Dict

	// SetTask validates and sets the current task. Invalid tasks
	// result in an error wrapping spaces.ErrNotContained and leave the
	// current task unchanged.
	SetTask(Task) error

	// Task returns a copy of the current task
	Task() Task
}

// GoalConditioned describes worlds with an explicit goal
type GoalConditioned interface {
	GoalSpace() *spaces.Box
	DesiredGoal() *mat.VecDense
	AchievedGoal() (*mat.VecDense, error)
}

// GoalConditionedWorld is a World with an explicit goal
type GoalConditionedWorld interface {
	World
	GoalConditioned
}

// RewardFunction describes worlds whose reward can be computed for
// arbitrary observations without stepping the world
type RewardFunction interface {
	Reward(action *mat.VecDense, obs ts.Dict) (float64, error)
}
