package world

import (
	"fmt"

	"github.com/samuelfneumann/multiworld/environment"
	"github.com/samuelfneumann/multiworld/environment/spaces"
)

// MultiTask describes worlds which can sample their own tasks
type MultiTask interface {
	// SampleTask samples a task and sets it as the current task
	SampleTask() (Task, error)

	// Seed seeds the task sampler
	Seed(uint64)
}

// MultiTaskWorld adds uniform task sampling to a ParametricWorld.
// Tasks are sampled uniformly within the bounds of the task schema.
type MultiTaskWorld struct {
	ParametricWorld
	schema *spaces.Dict
}

// NewMultiTaskWorld returns a new MultiTaskWorld
func NewMultiTaskWorld(w ParametricWorld, seed uint64) *MultiTaskWorld {
	m := &MultiTaskWorld{ParametricWorld: w, schema: w.TaskSchema()}
	m.Seed(seed)
	return m
}

// Seed seeds the task sampler
func (m *MultiTaskWorld) Seed(seed uint64) {
	m.schema.Seed(seed)
}

// SampleTask samples a task and sets it as the current task
func (m *MultiTaskWorld) SampleTask() (Task, error) {
	t := Task(m.schema.Sample())
	if err := m.SetTask(t); err != nil {
		return nil, fmt.Errorf("sampleTask: %w", err)
	}
	return t.Clone(), nil
}

// DiscreteMultiTaskWorld adds sampling from a fixed set of tasks to a
// ParametricWorld. Tasks are sampled uniformly from the set.
type DiscreteMultiTaskWorld struct {
	ParametricWorld
	tasks   []Task
	current int
	starter *environment.CategoricalStarter
}

// NewDiscreteMultiTaskWorld returns a new DiscreteMultiTaskWorld. Each
// task must be valid for w, otherwise an error wrapping
// spaces.ErrNotContained is returned. The first task is set as the
// current task.
func NewDiscreteMultiTaskWorld(w ParametricWorld, tasks []Task,
	seed uint64) (*DiscreteMultiTaskWorld, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("newDiscreteMultiTaskWorld: at least one " +
			"task is required")
	}

	schema := w.TaskSchema()
	copied := make([]Task, len(tasks))
	for i, t := range tasks {
		if err := schema.Validate(t); err != nil {
			return nil, fmt.Errorf("newDiscreteMultiTaskWorld: task %v: %w",
				i, err)
		}
		copied[i] = t.Clone()
	}

	d := &DiscreteMultiTaskWorld{ParametricWorld: w, tasks: copied}
	d.Seed(seed)
	if err := d.SetTaskIndex(0); err != nil {
		return nil, fmt.Errorf("newDiscreteMultiTaskWorld: %w", err)
	}
	return d, nil
}

// Seed seeds the task sampler
func (d *DiscreteMultiTaskWorld) Seed(seed uint64) {
	d.starter = environment.NewCategoricalStarter([]int{len(d.tasks)}, seed)
}

// NumTasks returns the number of tasks in the set
func (d *DiscreteMultiTaskWorld) NumTasks() int {
	return len(d.tasks)
}

// TaskIndex returns the index of the current task
func (d *DiscreteMultiTaskWorld) TaskIndex() int {
	return d.current
}

// SetTaskIndex sets the current task to the task at index i
func (d *DiscreteMultiTaskWorld) SetTaskIndex(i int) error {
	if i < 0 || i >= len(d.tasks) {
		return fmt.Errorf("setTaskIndex: index %v out of range [0, %v)", i,
			len(d.tasks))
	}
	if err := d.SetTask(d.tasks[i]); err != nil {
		return fmt.Errorf("setTaskIndex: %w", err)
	}
	d.current = i
	return nil
}

// SampleTask samples a task from the set and sets it as the current
// task
func (d *DiscreteMultiTaskWorld) SampleTask() (Task, error) {
	i := int(d.starter.Start().AtVec(0))
	if err := d.SetTaskIndex(i); err != nil {
		return nil, fmt.Errorf("sampleTask: %w", err)
	}
	return d.tasks[i].Clone(), nil
}

var (
	_ MultiTask = (*MultiTaskWorld)(nil)
	_ MultiTask = (*DiscreteMultiTaskWorld)(nil)
)
