// Package windowopen implements an environment in which a Sawyer end
// effector must slide a window open along its track.
//
// The gripper is moved around the scene by a mocap body. Episodes
// start with the end effector and window placed according to the
// current task, and the goal is for the window handle to be moved
// GoalOffset along the x-axis. Observations consist of the position of
// the end effector and the window handle.
package windowopen

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/multiworld/environment"
	"github.com/samuelfneumann/multiworld/environment/physics"
	"github.com/samuelfneumann/multiworld/environment/sawyer/internal/sawyerenv"
	"github.com/samuelfneumann/multiworld/environment/spaces"
	"github.com/samuelfneumann/multiworld/environment/world"
	ts "github.com/samuelfneumann/multiworld/timestep"
	"github.com/samuelfneumann/multiworld/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

// Names of the observations in observation dicts
const (
	HandKey           = "hand"
	ObjKey            = "obj"
	StateObservation  = "state_observation"
	StateDesiredGoal  = "state_desired_goal"
	StateAchievedGoal = "state_achieved_goal"
)

// Keys of the diagnostics in the Info of each TimeStep
const (
	ReachDistInfo = "reachDist"
	GoalDistInfo  = "goalDist"
	EpRewInfo     = "epRew"
	PickRewInfo   = "pickRew"
)

// Names of the objects in the scene
const (
	Window        = "window"
	WindowAnother = "window_another"
	Wall          = "wall"
	Handle        = "handle"
	GoalSite      = "goal"
	ObjSite       = "objSite"
)

const (
	// ResetIterations is the number of times the mocap body is placed
	// at the initial hand position while the hand settles on reset
	ResetIterations = 10

	// handleOffset is the offset along the x-axis from the handle to
	// the observed object position
	handleOffset = -0.01

	renderWidth  = 640
	renderHeight = 480
)

var (
	handLow  = r3.Vec{X: -0.5, Y: 0.40, Z: 0.05}
	handHigh = r3.Vec{X: 0.5, Y: 1, Z: 0.5}

	// Offsets from the window to the other objects placed on reset
	wallOffset          = r3.Vec{X: -0.1, Y: 0, Z: 0.12}
	windowAnotherOffset = r3.Vec{X: 0.2, Y: 0.03, Z: 0}
)

var (
	_ world.GoalConditionedWorld = (*WindowOpen)(nil)
	_ world.ParametricWorld      = (*WindowOpen)(nil)
	_ world.DynamicWorld         = (*WindowOpen)(nil)
	_ world.RewardFunction       = (*WindowOpen)(nil)
	_ environment.Closer         = (*WindowOpen)(nil)
)

// WindowOpen implements the window opening environment
type WindowOpen struct {
	*sawyerenv.SawyerEnv
	environment.Ender

	config Config

	task         world.Task
	handInitPos  r3.Vec
	objInitPos   r3.Vec
	objInitAngle float64
	goal         *mat.VecDense

	initFingerCOM r3.Vec
	pickCompleted bool
	objHeight     float64
	heightTarget  float64
	maxPullDist   float64
	targetReward  float64

	episode         int
	currentTimeStep ts.TimeStep
}

// New returns a new WindowOpen environment and the first timestep of
// its first episode. The engine is created from the configured backend
// and scene.
func New(c Config) (*WindowOpen, ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}

	engine, err := sawyerenv.NewEngine(sawyerenv.Backend(c.Backend), c.Asset)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}

	w, step, err := NewWithEngine(engine, c)
	if err != nil {
		engine.Close()
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	return w, step, nil
}

// NewWithEngine returns a new WindowOpen environment simulated by
// engine and the first timestep of its first episode. The Backend and
// Asset of c are ignored.
func NewWithEngine(engine physics.Engine, c Config) (*WindowOpen,
	ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newWithEngine: %v", err)
	}

	sawyer, err := sawyerenv.New(engine, sawyerenv.Config{
		FrameSkip:      c.FrameSkip,
		Discount:       c.Discount,
		ActionScale:    1.0 / 100,
		ActionRotScale: c.RotMode.ActionRotScale(),
		MocapLow:       handLow,
		MocapHigh:      handHigh,
	})
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newWithEngine: %v", err)
	}

	w := &WindowOpen{
		SawyerEnv: sawyer,
		config:    c,
	}
	enders := environment.MultiEnder{}
	if c.EndOnSuccess {
		enders = append(enders, environment.NewFunctionEnder(w.succeeded,
			ts.TerminalStateReached))
	}
	enders = append(enders, environment.NewStepLimit(c.MaxPathLength))
	w.Ender = enders

	if err := w.SetTask(DefaultTask()); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newWithEngine: %v", err)
	}

	step, err := w.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newWithEngine: %v", err)
	}
	return w, step, nil
}

// succeeded returns whether the object in a state observation is
// within SuccessThreshold of the goal along the x-axis
func (w *WindowOpen) succeeded(state *mat.VecDense) bool {
	obj, err := objFromState(state)
	if err != nil {
		return false
	}
	return math.Abs(obj.X-w.goal.AtVec(0)) < SuccessThreshold
}

// TaskSchema returns the space of valid tasks
func (w *WindowOpen) TaskSchema() *spaces.Dict {
	return TaskSchema()
}

// SetTask sets the task which determines the initial conditions of the
// following episodes. The goal is updated immediately.
func (w *WindowOpen) SetTask(t world.Task) error {
	if err := TaskSchema().Validate(t); err != nil {
		return fmt.Errorf("setTask: %w", err)
	}

	goal, err := GoalFromTask(t)
	if err != nil {
		return fmt.Errorf("setTask: %v", err)
	}

	w.task = t.Clone()
	w.handInitPos = vecFrom(w.task[HandInitPos])
	w.objInitPos = vecFrom(w.task[ObjInitPos])
	w.objInitAngle = w.task[ObjInitAngle].AtVec(0)
	w.goal = goal
	return nil
}

// Task returns a copy of the current task
func (w *WindowOpen) Task() world.Task {
	return w.task.Clone()
}

// Reset resets the environment to the initial conditions of the
// current task and returns the first timestep of a new episode
func (w *WindowOpen) Reset() (ts.TimeStep, error) {
	if err := w.Engine.Reset(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	if err := w.ResetHand(w.handInitPos, ResetIterations); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}
	com, err := w.FingerCOM()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}
	w.initFingerCOM = com
	w.pickCompleted = false

	placements := []struct {
		body string
		pos  r3.Vec
	}{
		{Window, w.objInitPos},
		{WindowAnother, r3.Add(w.objInitPos, windowAnotherOffset)},
		{Wall, r3.Sub(w.objInitPos, wallOffset)},
	}
	for _, p := range placements {
		if err := w.SetBodyPos(p.body, p.pos); err != nil {
			return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
		}
	}
	if err := w.setMarkers(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	handle, err := w.GeomXPos(Handle)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}
	w.objHeight = handle.Z
	w.heightTarget = w.objHeight + w.config.LiftThresh
	w.maxPullDist = MaxPullDist
	w.targetReward = pullScale*w.maxPullDist + bonusScale*2

	obs, err := w.observe()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	w.episode++
	step := ts.New(ts.First, 0, w.Discount,
		mat.VecDenseCopyOf(obs[StateObservation]), 0)
	step.Dict = obs
	w.currentTimeStep = step

	return step, nil
}

// Step takes one environmental step given some action and returns the
// next timestep, whether the episode has ended, and an error if the
// action is invalid or the simulation failed
func (w *WindowOpen) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if action == nil || action.Len() != w.config.RotMode.ActionDim() {
		length := 0
		if action != nil {
			length = action.Len()
		}
		return ts.TimeStep{}, false, fmt.Errorf("step: action should have "+
			"%v elements in rotation mode %q, have(%v)",
			w.config.RotMode.ActionDim(), w.config.RotMode, length)
	}
	a := mat.VecDenseCopyOf(action).RawVector().Data
	for i, v := range a {
		if math.IsNaN(v) {
			return ts.TimeStep{}, false, fmt.Errorf("step: action element "+
				"%v is NaN", i)
		}
	}

	if w.config.RenderDir != "" {
		path := filepath.Join(w.config.RenderDir, fmt.Sprintf(
			"episode%04d-step%04d.png", w.episode, w.currentTimeStep.Number))
		if err := w.Render(path); err != nil {
			return ts.TimeStep{}, false, fmt.Errorf("step: %v", err)
		}
	}

	if err := w.act(a); err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %v", err)
	}
	if err := w.setMarkers(); err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %v", err)
	}

	obs, err := w.observe()
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %v", err)
	}
	r, err := w.ComputeReward(action, obs)
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %v", err)
	}

	step := ts.New(ts.Mid, r.Reward, w.Discount,
		mat.VecDenseCopyOf(obs[StateObservation]),
		w.currentTimeStep.Number+1)
	step.Dict = obs
	step.Info = ts.Info{
		ReachDistInfo: r.ReachDist,
		GoalDistInfo:  r.PullDist,
		EpRewInfo:     r.Reward,
		PickRewInfo:   r.PickRew,
	}
	done := w.End(&step)
	w.currentTimeStep = step

	return step, done, nil
}

// act moves the end effector according to the rotation mode and then
// actuates the gripper with the last element of a
func (w *WindowOpen) act(a []float64) error {
	if err := w.SetXYZAction(a[:3]); err != nil {
		return err
	}

	var err error
	switch w.config.RotMode {
	case RotZ:
		err = w.SetZRotAction(a[3])
	case Quat:
		err = w.SetAxisAngleAction(a[3], floatutils.ToVec(a[4:7]))
	case Euler:
		err = w.SetEulerAction(floatutils.ToVec(a[3:6]))
	}
	if err != nil {
		return err
	}

	return w.Grip(a[len(a)-1])
}

// setMarkers places the goal and object markers
func (w *WindowOpen) setMarkers() error {
	if err := w.SetSitePos(GoalSite, vecFrom(w.goal)); err != nil {
		return err
	}
	handle, err := w.GeomXPos(Handle)
	if err != nil {
		return err
	}
	return w.SetSitePos(ObjSite, handle)
}

// observe returns the current observation dict
func (w *WindowOpen) observe() (ts.Dict, error) {
	hand, err := w.HandPos()
	if err != nil {
		return nil, fmt.Errorf("observe: %v", err)
	}
	obj, err := w.objPos()
	if err != nil {
		return nil, fmt.Errorf("observe: %v", err)
	}

	state := append(floatutils.Vec(hand), floatutils.Vec(obj)...)
	return ts.Dict{
		HandKey:           mat.NewVecDense(3, floatutils.Vec(hand)),
		ObjKey:            mat.NewVecDense(3, floatutils.Vec(obj)),
		StateObservation:  mat.NewVecDense(StateLen, state),
		StateDesiredGoal:  mat.VecDenseCopyOf(w.goal),
		StateAchievedGoal: mat.NewVecDense(3, floatutils.Vec(obj)),
	}, nil
}

// objPos returns the observed position of the window handle
func (w *WindowOpen) objPos() (r3.Vec, error) {
	handle, err := w.GeomXPos(Handle)
	if err != nil {
		return r3.Vec{}, err
	}
	handle.X += handleOffset
	return handle, nil
}

// CurrentTimeStep returns the current timestep
func (w *WindowOpen) CurrentTimeStep() ts.TimeStep {
	return w.currentTimeStep
}

// ObservationSpec returns the specification of state observations
func (w *WindowOpen) ObservationSpec() environment.Spec {
	low := mat.NewVecDense(StateLen, nil)
	high := mat.NewVecDense(StateLen, nil)
	for i := 0; i < StateLen; i++ {
		low.SetVec(i, math.Inf(-1))
		high.SetVec(i, math.Inf(1))
	}

	return environment.NewSpec(mat.NewVecDense(StateLen, nil),
		environment.Observation, low, high, environment.Continuous)
}

// ActionSpec returns the action specification of the environment
func (w *WindowOpen) ActionSpec() environment.Spec {
	return w.ActionSpace().Spec(environment.Action)
}

// ActionSpace returns the space of actions in the rotation mode
func (w *WindowOpen) ActionSpace() *spaces.Box {
	return spaces.MustBox(w.config.RotMode.ActionBounds())
}

// RewardSpec returns the reward specification of the environment
func (w *WindowOpen) RewardSpec() environment.Spec {
	low := mat.NewVecDense(1, []float64{math.Inf(-1)})
	high := mat.NewVecDense(1, []float64{w.TargetReward()})

	return environment.NewSpec(mat.NewVecDense(1, nil), environment.Reward,
		low, high, environment.Continuous)
}

// TargetReward returns the highest reward attainable in an episode
// step
func (w *WindowOpen) TargetReward() float64 {
	return pullScale*MaxPullDist + bonusScale*2
}

// ObservationSpace returns the space of the hand and object
// observations
func (w *WindowOpen) ObservationSpace() *spaces.Dict {
	schema := TaskSchema()
	hand, _ := schema.Space(HandInitPos)
	obj, _ := schema.Space(ObjInitPos)

	return spaces.MustDict(map[string]*spaces.Box{
		HandKey: hand,
		ObjKey:  obj,
	})
}

// Descriptor returns a static description of the environment
func (w *WindowOpen) Descriptor() world.POMDPDescriptor {
	return world.POMDPDescriptor{
		ObservationSpace: w.ObservationSpace(),
		ActionSpec:       w.ActionSpec(),
		RewardRange:      r1.Interval{Min: math.Inf(-1), Max: w.TargetReward()},
		Discount:         w.Discount,
	}
}

// GoalSpace returns the space of goals: the space of initial window
// positions moved GoalOffset along the x-axis
func (w *WindowOpen) GoalSpace() *spaces.Box {
	obj, _ := TaskSchema().Space(ObjInitPos)
	low, high := obj.Low(), obj.High()
	low.SetVec(0, low.AtVec(0)+GoalOffset)
	high.SetVec(0, high.AtVec(0)+GoalOffset)
	return spaces.MustBox(low.RawVector().Data, high.RawVector().Data)
}

// DesiredGoal returns a copy of the current goal
func (w *WindowOpen) DesiredGoal() *mat.VecDense {
	return mat.VecDenseCopyOf(w.goal)
}

// AchievedGoal returns the current observed position of the window
// handle
func (w *WindowOpen) AchievedGoal() (*mat.VecDense, error) {
	obj, err := w.objPos()
	if err != nil {
		return nil, fmt.Errorf("achievedGoal: %v", err)
	}
	return mat.NewVecDense(3, floatutils.Vec(obj)), nil
}

// AtGoal returns whether the window handle is within SuccessThreshold
// of the goal along the x-axis
func (w *WindowOpen) AtGoal() (bool, error) {
	obj, err := w.objPos()
	if err != nil {
		return false, fmt.Errorf("atGoal: %v", err)
	}
	return math.Abs(obj.X-w.goal.AtVec(0)) < SuccessThreshold, nil
}

// Episode returns the number of episodes started
func (w *WindowOpen) Episode() int {
	return w.episode
}

// Config returns the configuration of the environment
func (w *WindowOpen) Config() Config {
	return w.config
}

// Render renders the scene from the viewer camera to a PNG file at
// path, creating its directory if needed
func (w *WindowOpen) Render(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("render: %v", err)
	}
	err := physics.SavePNG(w.Engine, sawyerenv.ViewerCamera(), renderWidth,
		renderHeight, path)
	if err != nil {
		return fmt.Errorf("render: %v", err)
	}
	return nil
}

// Close releases the resources held by the physics engine
func (w *WindowOpen) Close() error {
	return w.Engine.Close()
}

func vecFrom(v mat.Vector) r3.Vec {
	return r3.Vec{X: v.AtVec(0), Y: v.AtVec(1), Z: v.AtVec(2)}
}

// String returns the string representation of the environment
func (w *WindowOpen) String() string {
	return fmt.Sprintf("WindowOpen(rot: %v, task: %v)", w.config.RotMode,
		w.task)
}
