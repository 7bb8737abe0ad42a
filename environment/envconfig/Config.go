// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON and YAML serializable.
package envconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	env "github.com/samuelfneumann/multiworld/environment"
	"github.com/samuelfneumann/multiworld/environment/physics"
	"github.com/samuelfneumann/multiworld/environment/sawyer/windowopen"
	"github.com/samuelfneumann/multiworld/environment/spaces"
	"github.com/samuelfneumann/multiworld/environment/world"
	"github.com/samuelfneumann/multiworld/environment/wrappers"
	ts "github.com/samuelfneumann/multiworld/timestep"
	"gonum.org/v1/gonum/mat"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	SawyerWindowOpen EnvName = "SawyerWindowOpen"
)

// TaskSampling determines how tasks are chosen at the start of each
// episode
type TaskSampling string

const (
	// Fixed uses the same task for every episode
	Fixed TaskSampling = "fixed"

	// Uniform samples tasks uniformly from the task schema
	Uniform TaskSampling = "uniform"

	// Discrete samples tasks uniformly from a fixed set of tasks
	Discrete TaskSampling = "discrete"
)

// Task is a serializable world.Task
type Task map[string][]float64

// World returns the task as a world.Task
func (t Task) World() world.Task {
	task := make(world.Task, len(t))
	for key, value := range t {
		data := make([]float64, len(value))
		copy(data, value)
		task[key] = mat.NewVecDense(len(data), data)
	}
	return task
}

// TaskFromWorld returns the serializable version of a world.Task
func TaskFromWorld(t world.Task) Task {
	task := make(Task, len(t))
	for key, value := range t {
		task[key] = mat.VecDenseCopyOf(value).RawVector().Data
	}
	return task
}

// Dynamics is a serializable physics.Dynamics
type Dynamics struct {
	Friction  float64 `json:"friction" yaml:"friction"`
	Damping   float64 `json:"damping" yaml:"damping"`
	MassScale float64 `json:"mass_scale" yaml:"mass_scale"`
}

// Physics returns the dynamics as a physics.Dynamics
func (d Dynamics) Physics() physics.Dynamics {
	return physics.Dynamics{
		Friction:  d.Friction,
		Damping:   d.Damping,
		MassScale: d.MassScale,
	}
}

// Config implements a specific configuration of a specific environment
// together with how its tasks and dynamics are chosen and how it is
// wrapped
type Config struct {
	Environment EnvName           `json:"environment" yaml:"environment"`
	WindowOpen  windowopen.Config `json:"window_open" yaml:"window_open"`

	// Task is the task used by Fixed task sampling. If nil, the
	// environment's default task is used.
	Task Task `json:"task,omitempty" yaml:"task,omitempty"`

	// Tasks is the set of tasks used by Discrete task sampling
	Tasks        []Task       `json:"tasks,omitempty" yaml:"tasks,omitempty"`
	TaskSampling TaskSampling `json:"task_sampling" yaml:"task_sampling"`

	// Dynamics are the initial dynamics, if nil the dynamics of the
	// scene as loaded are used
	Dynamics *Dynamics `json:"dynamics,omitempty" yaml:"dynamics,omitempty"`

	// RandomDynamics samples dynamics from within DynamicsLow and
	// DynamicsHigh at the start of each episode. If the bounds are
	// empty, world.DefaultDynamicsSchema is used.
	RandomDynamics bool      `json:"random_dynamics" yaml:"random_dynamics"`
	DynamicsLow    []float64 `json:"dynamics_low,omitempty" yaml:"dynamics_low,omitempty"`
	DynamicsHigh   []float64 `json:"dynamics_high,omitempty" yaml:"dynamics_high,omitempty"`

	FlatGoal    bool `json:"flat_goal" yaml:"flat_goal"`
	ClipActions bool `json:"clip_actions" yaml:"clip_actions"`
}

// Default returns the default configuration of the window opening
// environment with a fixed task
func Default() Config {
	return Config{
		Environment:  SawyerWindowOpen,
		WindowOpen:   windowopen.DefaultConfig(),
		TaskSampling: Fixed,
	}
}

// Env is an environment created from a Config. The embedded
// Environment includes all configured wrappers.
type Env struct {
	env.Environment

	// WindowOpen is the unwrapped environment
	WindowOpen *windowopen.WindowOpen
}

// Close releases the resources held by the environment
func (e *Env) Close() error {
	return e.WindowOpen.Close()
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment
func (c Config) Create(seed uint64) (*Env, ts.TimeStep, error) {
	if c.Environment != SawyerWindowOpen {
		return nil, ts.TimeStep{}, fmt.Errorf("create: cannot create "+
			"environment %v, no such environment", c.Environment)
	}

	w, _, err := windowopen.New(c.WindowOpen)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %v", err)
	}

	e, step, err := c.wrap(w, seed)
	if err != nil {
		w.Close()
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}
	return &Env{Environment: e, WindowOpen: w}, step, nil
}

// wrap composes the configured capabilities and wrappers around w and
// resets the result
func (c Config) wrap(w *windowopen.WindowOpen, seed uint64) (env.Environment,
	ts.TimeStep, error) {
	if c.Task != nil {
		if err := w.SetTask(c.Task.World()); err != nil {
			return nil, ts.TimeStep{}, err
		}
	}
	if c.Dynamics != nil {
		if err := w.SetDynamics(c.Dynamics.Physics()); err != nil {
			return nil, ts.TimeStep{}, err
		}
	}

	var e env.Environment = w
	var tasks world.MultiTask
	switch c.TaskSampling {
	case Fixed, "":

	case Uniform:
		m := world.NewMultiTaskWorld(w, seed)
		tasks, e = m, m

	case Discrete:
		set := make([]world.Task, len(c.Tasks))
		for i := range c.Tasks {
			set[i] = c.Tasks[i].World()
		}
		d, err := world.NewDiscreteMultiTaskWorld(w, set, seed)
		if err != nil {
			return nil, ts.TimeStep{}, err
		}
		tasks, e = d, d

	default:
		return nil, ts.TimeStep{}, fmt.Errorf("no such task sampling %q",
			c.TaskSampling)
	}

	var dynamics world.MutableDynamics
	if c.RandomDynamics {
		schema := world.DefaultDynamicsSchema()
		if len(c.DynamicsLow) > 0 || len(c.DynamicsHigh) > 0 {
			var err error
			schema, err = spaces.NewBox(c.DynamicsLow, c.DynamicsHigh)
			if err != nil {
				return nil, ts.TimeStep{}, err
			}
		}
		m, err := world.NewMutableDynamicsWorld(w, schema, seed+1)
		if err != nil {
			return nil, ts.TimeStep{}, err
		}
		dynamics = m
	}

	if tasks != nil || dynamics != nil {
		e = wrappers.NewResample(e, tasks, dynamics)
	}
	step, err := e.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, err
	}

	if c.ClipActions {
		e = wrappers.NewClipAction(e)
	}
	if c.FlatGoal {
		f, err := wrappers.NewFlatGoal(e, wrappers.DefaultObsKeys,
			wrappers.DefaultGoalKeys)
		if err != nil {
			return nil, ts.TimeStep{}, err
		}
		e, step = f, f.CurrentTimeStep()
	}

	return e, step, nil
}

// Load loads a Config from a JSON or YAML file. Fields missing from
// the file keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}

	c := Default()
	switch ext := filepath.Ext(path); ext {
	case ".json":
		err = json.Unmarshal(data, &c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	default:
		return Config{}, fmt.Errorf("load: unknown config file extension %q",
			ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}
	return c, nil
}

// Save saves the Config to a JSON or YAML file, depending on the
// extension of path
func (c Config) Save(path string) error {
	var data []byte
	var err error
	switch ext := filepath.Ext(path); ext {
	case ".json":
		data, err = json.MarshalIndent(c, "", "\t")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return fmt.Errorf("save: unknown config file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
