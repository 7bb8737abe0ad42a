// Package spaces describes the sets that actions, observations, and
// task parameters of an environment are drawn from. Each space can
// check membership of a value and sample values from within itself.
package spaces

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrNotContained is returned when a value does not lie within a space
var ErrNotContained = errors.New("value not contained in space")

// Space describes a set of values
type Space interface {
	// Contains returns whether x is in the space
	Contains(x interface{}) bool

	// Seed seeds the sampler for the space
	Seed(uint64)

	fmt.Stringer
}

// toVec converts the supported vector representations to a mat.Vector
func toVec(x interface{}) (mat.Vector, bool) {
	switch v := x.(type) {
	case *mat.VecDense:
		if v == nil {
			return nil, false
		}
		return v, true
	case mat.Vector:
		return v, true
	case []float64:
		if len(v) == 0 {
			return nil, false
		}
		return mat.NewVecDense(len(v), v), true
	case float64:
		return mat.NewVecDense(1, []float64{v}), true
	}
	return nil, false
}
