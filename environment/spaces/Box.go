package spaces

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/multiworld/environment"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"
)

// Box is a (possibly unbounded) box in R^n. Each dimension i of a
// value in the Box lies in [Low()[i], High()[i]].
//
// Bounded dimensions are sampled uniformly. Dimensions unbounded on
// both sides are sampled from a standard normal, and dimensions
// bounded on one side are sampled from a shifted exponential.
type Box struct {
	low, high *mat.VecDense

	seed    uint64
	uniform *environment.UniformStarter
	normal  distuv.Normal
	exp     distuv.Exponential
}

// NewBox returns a new Box with the given lower and upper bounds
func NewBox(low, high []float64) (*Box, error) {
	if len(low) != len(high) {
		return nil, fmt.Errorf("newBox: low and high should have the same "+
			"length \n\thave(%v) \n\twant(%v)", len(high), len(low))
	}
	if len(low) == 0 {
		return nil, fmt.Errorf("newBox: box must have at least one dimension")
	}
	for i := range low {
		if low[i] > high[i] {
			return nil, fmt.Errorf("newBox: low bound %v greater than high "+
				"bound %v in dimension %v", low[i], high[i], i)
		}
	}

	lowCopy := make([]float64, len(low))
	highCopy := make([]float64, len(high))
	copy(lowCopy, low)
	copy(highCopy, high)

	b := &Box{
		low:  mat.NewVecDense(len(lowCopy), lowCopy),
		high: mat.NewVecDense(len(highCopy), highCopy),
	}
	b.Seed(0)
	return b, nil
}

// NewUniformBox returns a Box of n dimensions, each in [low, high]
func NewUniformBox(low, high float64, n int) (*Box, error) {
	lows := make([]float64, n)
	highs := make([]float64, n)
	for i := 0; i < n; i++ {
		lows[i] = low
		highs[i] = high
	}
	return NewBox(lows, highs)
}

// MustBox is like NewBox but panics on error. It is intended for
// declaring fixed schemas.
func MustBox(low, high []float64) *Box {
	b, err := NewBox(low, high)
	if err != nil {
		panic(err)
	}
	return b
}

// Len returns the dimensionality of the Box
func (b *Box) Len() int {
	return b.low.Len()
}

// Low returns a copy of the lower bounds of the Box
func (b *Box) Low() *mat.VecDense {
	return mat.VecDenseCopyOf(b.low)
}

// High returns a copy of the upper bounds of the Box
func (b *Box) High() *mat.VecDense {
	return mat.VecDenseCopyOf(b.high)
}

// Intervals returns the bounds of the box as one interval per
// dimension
func (b *Box) Intervals() []r1.Interval {
	intervals := make([]r1.Interval, b.Len())
	for i := range intervals {
		intervals[i] = r1.Interval{Min: b.low.AtVec(i), Max: b.high.AtVec(i)}
	}
	return intervals
}

// Bounded returns whether every dimension of the Box is bounded both
// above and below
func (b *Box) Bounded() bool {
	for i := 0; i < b.Len(); i++ {
		if math.IsInf(b.low.AtVec(i), 0) || math.IsInf(b.high.AtVec(i), 0) {
			return false
		}
	}
	return true
}

// Seed seeds the sampler for the Box
func (b *Box) Seed(seed uint64) {
	b.seed = seed

	// Unbounded dimensions are sampled separately, use placeholder
	// bounds for the uniform distribution over them
	intervals := b.Intervals()
	for i := range intervals {
		if math.IsInf(intervals[i].Min, 0) || math.IsInf(intervals[i].Max, 0) {
			intervals[i] = r1.Interval{Min: 0, Max: 0}
		}
	}
	b.uniform = environment.NewUniformStarter(intervals, seed)

	src := rand.NewSource(seed + 1)
	b.normal = distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	b.exp = distuv.Exponential{Rate: 1, Src: src}
}

// Sample returns a value sampled from within the Box
func (b *Box) Sample() *mat.VecDense {
	sample := b.uniform.Start()

	for i := 0; i < b.Len(); i++ {
		low, high := b.low.AtVec(i), b.high.AtVec(i)
		lowInf, highInf := math.IsInf(low, 0), math.IsInf(high, 0)

		switch {
		case lowInf && highInf:
			sample.SetVec(i, b.normal.Rand())
		case lowInf:
			sample.SetVec(i, high-b.exp.Rand())
		case highInf:
			sample.SetVec(i, low+b.exp.Rand())
		}
	}
	return sample
}

// Contains returns whether x is in the Box. The argument x may be a
// mat.Vector, a []float64, or a float64 for one-dimensional boxes.
func (b *Box) Contains(x interface{}) bool {
	v, ok := toVec(x)
	if !ok {
		return false
	}
	return b.Validate(v) == nil
}

// Validate returns an error wrapping ErrNotContained if v does not
// have the shape of the Box or lies outside its bounds
func (b *Box) Validate(v mat.Vector) error {
	if v == nil {
		return fmt.Errorf("validate: nil value: %w", ErrNotContained)
	}
	if v.Len() != b.Len() {
		return fmt.Errorf("validate: invalid shape \n\thave(%v) \n\twant(%v)"+
			": %w", v.Len(), b.Len(), ErrNotContained)
	}
	for i := 0; i < v.Len(); i++ {
		value := v.AtVec(i)
		if math.IsNaN(value) || value < b.low.AtVec(i) ||
			value > b.high.AtVec(i) {
			return fmt.Errorf("validate: dimension %v value %v outside "+
				"[%v, %v]: %w", i, value, b.low.AtVec(i), b.high.AtVec(i),
				ErrNotContained)
		}
	}
	return nil
}

// Clip returns a copy of v clipped to the bounds of the Box
func (b *Box) Clip(v mat.Vector) *mat.VecDense {
	return b.Spec(environment.Observation).Clip(v)
}

// Spec returns the Box as an environment specification of type t
func (b *Box) Spec(t environment.SpecType) environment.Spec {
	return environment.NewSpec(mat.NewVecDense(b.Len(), nil), t, b.Low(),
		b.High(), environment.Continuous)
}

// BoxFromSpec returns a Box with the bounds of an environment
// specification
func BoxFromSpec(s environment.Spec) (*Box, error) {
	return NewBox(s.LowerBound.RawVector().Data, s.UpperBound.RawVector().Data)
}

func (b *Box) String() string {
	return fmt.Sprintf("Box(low: %v, high: %v)", b.low.RawVector().Data,
		b.high.RawVector().Data)
}
