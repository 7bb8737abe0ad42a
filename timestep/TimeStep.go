// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType describes why an episode ended
type EndType int

const (
	// Unended denotes a TimeStep that has not ended an episode
	Unended EndType = iota
	TerminalStateReached
	Timeout
)

func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case Timeout:
		return "Timeout"
	default:
		return "Unended"
	}
}

// Dict is a named collection of observation vectors, such as the
// observation of a goal-conditioned environment which holds the
// observed state as well as the desired and achieved goals.
type Dict map[string]*mat.VecDense

// Clone returns a deep copy of the Dict
func (d Dict) Clone() Dict {
	if d == nil {
		return nil
	}
	clone := make(Dict, len(d))
	for key, value := range d {
		if value == nil {
			clone[key] = nil
			continue
		}
		clone[key] = mat.VecDenseCopyOf(value)
	}
	return clone
}

// Keys returns the sorted keys of the Dict
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for key := range d {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Info holds auxiliary diagnostic values produced on a TimeStep
type Info map[string]float64

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType
	Reward   float64
	Discount float64

	// Observation is the flat state observation
	Observation *mat.VecDense

	// Dict holds named observation components. It is nil for
	// environments which only produce flat observations.
	Dict Dict

	Info   Info
	Number int

	endType EndType
}

// New returns a new TimeStep
func New(t StepType, r, d float64, o *mat.VecDense, n int) TimeStep {
	return TimeStep{StepType: t, Reward: r, Discount: d, Observation: o,
		Number: n}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// SetEnd sets the reason the episode ended on this TimeStep
func (t *TimeStep) SetEnd(e EndType) {
	t.endType = e
}

// EndType returns the reason the episode ended on this TimeStep
func (t *TimeStep) EndType() EndType {
	return t.endType
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	var b strings.Builder
	b.WriteString(fmt.Sprintf(str, t.StepType, t.Reward, t.Discount, t.Number))

	if len(t.Info) > 0 {
		keys := make([]string, 0, len(t.Info))
		for key := range t.Info {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			b.WriteString(fmt.Sprintf("  |  %v: %.4f", key, t.Info[key]))
		}
	}
	return b.String()
}
