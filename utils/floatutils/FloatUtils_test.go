package floatutils

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestClip(t *testing.T) {
	tests := []struct {
		value, min, max, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
	}
	for _, test := range tests {
		if have := Clip(test.value, test.min, test.max); have != test.want {
			t.Errorf("clip(%v, %v, %v): have(%v) want(%v)", test.value,
				test.min, test.max, have, test.want)
		}
	}
}

func TestClipVec(t *testing.T) {
	low := r3.Vec{X: -0.5, Y: 0.4, Z: 0.05}
	high := r3.Vec{X: 0.5, Y: 1, Z: 0.5}

	have := ClipVec(r3.Vec{X: 1, Y: 0, Z: 0.1}, low, high)
	want := r3.Vec{X: 0.5, Y: 0.4, Z: 0.1}
	if have != want {
		t.Errorf("clipVec: have(%v) want(%v)", have, want)
	}
}

func TestMinMax(t *testing.T) {
	if Min(3, 1, 2) != 1 || Max(3, 1, 2) != 3 {
		t.Error("min/max: incorrect extremum")
	}
}
