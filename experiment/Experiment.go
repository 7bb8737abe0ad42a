// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/multiworld/agent"
	"github.com/samuelfneumann/multiworld/environment/envconfig"
	"github.com/samuelfneumann/multiworld/experiment/trackers"
)

// Experiment outlines structs that can run experiments. Experiments
// send each environment TimeStep to their Trackers, which cache the
// data they need in RAM until Save is called. Run runs all episodes
// until the step or episode limit is reached. RunEpisode runs a
// single episode.
type Experiment interface {
	Run() error

	// RunEpisode returns whether the experiment has finished
	RunEpisode() (bool, error)

	// Save saves all tracked data to disk
	Save() error

	// Register adds a new Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t trackers.Tracker)
}

// Type is a type of experiment
type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment
type Config struct {
	Type        Type             `json:"type" yaml:"type"`
	MaxSteps    uint             `json:"max_steps" yaml:"max_steps"`
	MaxEpisodes uint             `json:"max_episodes" yaml:"max_episodes"`
	EnvConf     envconfig.Config `json:"env" yaml:"env"`
	AgentType   agent.Type       `json:"agent" yaml:"agent"`
}

// CreateExp creates the experiment described by the Config. The
// created environment is returned so that it can be inspected and
// closed once the experiment is done.
func (c Config) CreateExp(seed uint64, t ...trackers.Tracker) (Experiment,
	*envconfig.Env, error) {
	env, _, err := c.EnvConf.Create(seed)
	if err != nil {
		return nil, nil, fmt.Errorf("createExp: could not create "+
			"environment: %v", err)
	}

	agentConf, err := agent.NewConfig(c.AgentType)
	if err != nil {
		env.Close()
		return nil, nil, fmt.Errorf("createExp: %v", err)
	}
	a, err := agentConf.CreateAgent(env, seed)
	if err != nil {
		env.Close()
		return nil, nil, fmt.Errorf("createExp: could not create agent: %v",
			err)
	}

	switch c.Type {
	case OnlineExp, "":
		return NewOnline(env, a, c.MaxSteps, c.MaxEpisodes, t...), env, nil
	}

	env.Close()
	return nil, nil, fmt.Errorf("createExp: no such experiment type %v",
		c.Type)
}
