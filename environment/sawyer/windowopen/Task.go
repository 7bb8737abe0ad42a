package windowopen

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/multiworld/environment/spaces"
	"github.com/samuelfneumann/multiworld/environment/world"
	"gonum.org/v1/gonum/mat"
)

// Task parameters
const (
	HandInitPos  = "hand_init_pos"
	ObjInitPos   = "obj_init_pos"
	ObjInitAngle = "obj_init_angle"
)

// GoalOffset is the distance along the x-axis from the window's
// initial position to the goal
const GoalOffset = 0.2

// TaskSchema returns the space of valid tasks
func TaskSchema() *spaces.Dict {
	return spaces.MustDict(map[string]*spaces.Box{
		HandInitPos: spaces.MustBox([]float64{-0.5, 0.40, 0.05},
			[]float64{0.5, 1, 0.5}),
		ObjInitPos: spaces.MustBox([]float64{-0.1, 0.7, 0.15},
			[]float64{0.1, 0.9, 0.16}),
		ObjInitAngle: spaces.MustBox([]float64{-math.Pi / 4},
			[]float64{math.Pi / 4}),
	})
}

// DefaultTask returns the task environments start with
func DefaultTask() world.Task {
	return world.Task{
		HandInitPos:  mat.NewVecDense(3, []float64{0.1, 0.785, 0.15}),
		ObjInitPos:   mat.NewVecDense(3, []float64{-0.1, 0.785, 0.15}),
		ObjInitAngle: mat.NewVecDense(1, []float64{0.3}),
	}
}

// GoalFromTask returns the goal of a task: the window's initial
// position moved GoalOffset along the x-axis
func GoalFromTask(t world.Task) (*mat.VecDense, error) {
	obj, ok := t[ObjInitPos]
	if !ok || obj == nil || obj.Len() != 3 {
		return nil, fmt.Errorf("goalFromTask: task should have a "+
			"3-dimensional %q", ObjInitPos)
	}

	goal := mat.VecDenseCopyOf(obj)
	goal.SetVec(0, goal.AtVec(0)+GoalOffset)
	return goal, nil
}
