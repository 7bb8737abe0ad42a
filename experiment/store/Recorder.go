package store

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/samuelfneumann/multiworld/environment/sawyer/windowopen"
	"github.com/samuelfneumann/multiworld/environment/world"
	ts "github.com/samuelfneumann/multiworld/timestep"
)

// Tasker returns the task of the current episode
type Tasker interface {
	Task() world.Task
}

// Recorder is a Tracker which saves a summary of each finished
// episode to a Store. Episodes are written as they finish. The first
// error encountered is kept and returned by Save.
type Recorder struct {
	ctx    context.Context
	store  *Store
	runID  uuid.UUID
	tasker Tasker

	episode  int
	ret      float64
	task     string
	goalDist float64
	err      error
}

// NewRecorder returns a Recorder saving episodes of a new run to s.
// If tasker is not nil, the task of each episode is recorded when the
// episode starts.
func NewRecorder(ctx context.Context, s *Store, tasker Tasker) *Recorder {
	return &Recorder{
		ctx:      ctx,
		store:    s,
		runID:    uuid.New(),
		tasker:   tasker,
		goalDist: math.NaN(),
	}
}

// RunID returns the ID of the run being recorded
func (r *Recorder) RunID() uuid.UUID {
	return r.runID
}

// Track caches the reward of the timestep and saves the episode
// summary once the episode ends
func (r *Recorder) Track(step ts.TimeStep) {
	if step.First() {
		r.ret = 0
		r.goalDist = math.NaN()
		if r.tasker != nil {
			r.task = r.tasker.Task().String()
		}
		return
	}

	r.ret += step.Reward
	if d, ok := step.Info[windowopen.GoalDistInfo]; ok {
		r.goalDist = d
	}
	if !step.Last() {
		return
	}

	e := Episode{
		RunID:    r.runID,
		Episode:  r.episode,
		Return:   r.ret,
		Length:   step.Number,
		Success:  r.goalDist < windowopen.SuccessThreshold,
		GoalDist: r.goalDist,
		Task:     r.task,
	}
	if math.IsNaN(e.GoalDist) {
		e.GoalDist = -1
	}
	r.episode++

	if err := r.store.SaveEpisode(r.ctx, e); err != nil && r.err == nil {
		r.err = fmt.Errorf("track: episode %v: %v", e.Episode, err)
	}
}

// Save returns the first error encountered while saving episodes
func (r *Recorder) Save() error {
	return r.err
}
