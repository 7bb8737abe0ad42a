package experiment

import (
	"fmt"

	"github.com/samuelfneumann/multiworld/agent"
	env "github.com/samuelfneumann/multiworld/environment"
	"github.com/samuelfneumann/multiworld/experiment/trackers"
	ts "github.com/samuelfneumann/multiworld/timestep"
)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed.
type Online struct {
	env.Environment
	agent.Agent
	maxSteps        uint
	maxEpisodes     uint
	currentSteps    uint
	currentEpisodes uint
	trackers        []trackers.Tracker
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The experiment runs until steps
// timesteps or episodes episodes have been run, whichever comes
// first. A limit of zero is no limit, but at least one limit must be
// set for Run to return. The t parameter determines which data is
// saved.
func NewOnline(e env.Environment, a agent.Agent, steps, episodes uint,
	t ...trackers.Tracker) *Online {
	return &Online{
		Environment: e,
		Agent:       a,
		maxSteps:    steps,
		maxEpisodes: episodes,
		trackers:    t,
	}
}

// Register registers a Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t trackers.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode() (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return true, fmt.Errorf("runEpisode: %v", err)
	}
	if err := o.Agent.ObserveFirst(step); err != nil {
		return true, fmt.Errorf("runEpisode: %v", err)
	}
	o.track(step)

	for !step.Last() && !o.stepsDone() {
		o.currentSteps++

		// Select action, step in environment
		action := o.Agent.SelectAction(step)
		step, _, err = o.Environment.Step(action)
		if err != nil {
			return true, fmt.Errorf("runEpisode: %v", err)
		}

		// Cache the environment step in each Tracker
		o.track(step)

		// Observe the timestep and step the agent
		if err := o.Agent.Observe(action, step); err != nil {
			return true, fmt.Errorf("runEpisode: %v", err)
		}
		if err := o.Agent.Step(); err != nil {
			return true, fmt.Errorf("runEpisode: %v", err)
		}
	}
	o.Agent.EndEpisode()

	if step.Last() {
		o.currentEpisodes++
	}
	return o.Done(), nil
}

// Run runs the entire experiment
func (o *Online) Run() error {
	if o.maxSteps == 0 && o.maxEpisodes == 0 {
		return fmt.Errorf("run: experiment has no step or episode limit")
	}

	for ended := o.Done(); !ended; {
		var err error
		if ended, err = o.RunEpisode(); err != nil {
			return fmt.Errorf("run: %v", err)
		}
	}
	return nil
}

// Done returns whether the step or episode limit has been reached
func (o *Online) Done() bool {
	episodesDone := o.maxEpisodes > 0 && o.currentEpisodes >= o.maxEpisodes
	return o.stepsDone() || episodesDone
}

func (o *Online) stepsDone() bool {
	return o.maxSteps > 0 && o.currentSteps >= o.maxSteps
}

// Steps returns the number of timesteps run
func (o *Online) Steps() uint {
	return o.currentSteps
}

// Episodes returns the number of episodes completed
func (o *Online) Episodes() uint {
	return o.currentEpisodes
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each
// Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}
