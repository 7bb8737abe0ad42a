package spaces

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/multiworld/environment"
	"gonum.org/v1/gonum/mat"
)

// Discrete is the set {0, 1, ..., N-1}
type Discrete struct {
	n       int
	starter *environment.CategoricalStarter
}

// NewDiscrete returns a new Discrete space with n elements
func NewDiscrete(n int) (*Discrete, error) {
	if n <= 0 {
		return nil, fmt.Errorf("newDiscrete: n should be positive, have(%v)",
			n)
	}
	d := &Discrete{n: n}
	d.Seed(0)
	return d, nil
}

// N returns the number of elements in the space
func (d *Discrete) N() int {
	return d.n
}

// Seed seeds the sampler for the space
func (d *Discrete) Seed(seed uint64) {
	d.starter = environment.NewCategoricalStarter([]int{d.n}, seed)
}

// Sample returns an element sampled uniformly from the space
func (d *Discrete) Sample() int {
	return int(d.starter.Start().AtVec(0))
}

// Contains returns whether x is in the space. The argument x may be
// an int, a float64 with an integral value, or a one-dimensional
// mat.Vector holding such a float64.
func (d *Discrete) Contains(x interface{}) bool {
	var value float64
	switch v := x.(type) {
	case int:
		value = float64(v)
	case float64:
		value = v
	case mat.Vector:
		if v.Len() != 1 {
			return false
		}
		value = v.AtVec(0)
	default:
		return false
	}
	return value == math.Trunc(value) && value >= 0 && value < float64(d.n)
}

func (d *Discrete) String() string {
	return fmt.Sprintf("Discrete(%v)", d.n)
}
