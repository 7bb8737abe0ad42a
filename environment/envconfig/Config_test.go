package envconfig

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/samuelfneumann/multiworld/environment/sawyer/windowopen"
	"github.com/samuelfneumann/multiworld/environment/spaces"
	"gonum.org/v1/gonum/mat"
)

func testTask() Task {
	return Task{
		windowopen.HandInitPos:  {0, 0.6, 0.2},
		windowopen.ObjInitPos:   {0.05, 0.8, 0.155},
		windowopen.ObjInitAngle: {0.1},
	}
}

func TestSaveLoad(t *testing.T) {
	c := Default()
	c.WindowOpen.RotMode = windowopen.RotZ
	c.WindowOpen.MaxPathLength = 50
	c.Task = testTask()
	c.Dynamics = &Dynamics{Friction: 1.5, Damping: 0.5, MassScale: 2}
	c.TaskSampling = Discrete
	c.Tasks = []Task{testTask()}
	c.FlatGoal = true

	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		path := filepath.Join(t.TempDir(), name)
		if err := c.Save(path); err != nil {
			t.Fatal(err)
		}

		loaded, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(loaded, c) {
			t.Errorf("%v: have(%+v) want(%+v)", name, loaded, c)
		}
	}

	if err := c.Save(filepath.Join(t.TempDir(), "config.toml")); err == nil {
		t.Error("save: expected error for unknown extension")
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("window_open:\n  rot_mode: quat\nflat_goal: true\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	want := Default()
	want.WindowOpen.RotMode = windowopen.Quat
	want.FlatGoal = true
	if !reflect.DeepEqual(c, want) {
		t.Errorf("load: have(%+v) want(%+v)", c, want)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("load: expected error for missing file")
	}
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		obsLen int
	}{
		{"default", func(*Config) {}, 6},
		{"flatGoal", func(c *Config) { c.FlatGoal = true }, 9},
		{"uniform", func(c *Config) { c.TaskSampling = Uniform }, 6},
		{"discrete", func(c *Config) {
			c.TaskSampling = Discrete
			c.Tasks = []Task{testTask()}
		}, 6},
		{"dynamics", func(c *Config) {
			c.RandomDynamics = true
			c.DynamicsLow = []float64{0.9, 0.9, 0.9}
			c.DynamicsHigh = []float64{1.1, 1.1, 1.1}
			c.ClipActions = true
		}, 6},
	}

	for _, test := range tests {
		c := Default()
		test.modify(&c)

		e, step, err := c.Create(1)
		if err != nil {
			t.Fatalf("%v: %v", test.name, err)
		}

		if step.Observation.Len() != test.obsLen {
			t.Errorf("%v: observation length have(%v) want(%v)", test.name,
				step.Observation.Len(), test.obsLen)
		}
		if e.ObservationSpec().Shape.Len() != test.obsLen {
			t.Errorf("%v: observation spec length have(%v) want(%v)",
				test.name, e.ObservationSpec().Shape.Len(), test.obsLen)
		}

		next, _, err := e.Step(mat.NewVecDense(e.ActionSpec().Shape.Len(), nil))
		if err != nil {
			t.Fatalf("%v: %v", test.name, err)
		}
		if next.Number != 1 {
			t.Errorf("%v: step number have(%v) want(1)", test.name, next.Number)
		}

		if test.name == "discrete" {
			want := testTask().World()
			if !e.WindowOpen.Task().Equal(want) {
				t.Errorf("%v: task have(%v) want(%v)", test.name,
					e.WindowOpen.Task(), want)
			}
		}

		if err := e.Close(); err != nil {
			t.Error(err)
		}
	}
}

func TestCreateErrors(t *testing.T) {
	c := Default()
	c.Environment = "SawyerDoorOpen"
	if _, _, err := c.Create(0); err == nil {
		t.Error("create: expected error for unknown environment")
	}

	c = Default()
	c.TaskSampling = "weighted"
	if _, _, err := c.Create(0); err == nil {
		t.Error("create: expected error for unknown task sampling")
	}

	c = Default()
	c.Task = testTask()
	c.Task[windowopen.ObjInitPos] = []float64{1, 1, 1}
	if _, _, err := c.Create(0); !errors.Is(err, spaces.ErrNotContained) {
		t.Errorf("create: have(%v) want(%v)", err, spaces.ErrNotContained)
	}

	c = Default()
	c.TaskSampling = Discrete
	if _, _, err := c.Create(0); err == nil {
		t.Error("create: expected error for discrete sampling without tasks")
	}
}
