package spaces

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestBoxContains(t *testing.T) {
	box := MustBox([]float64{-0.1, 0.7, 0.15}, []float64{0.1, 0.9, 0.16})

	tests := []struct {
		name string
		x    interface{}
		in   bool
	}{
		{"vec", mat.NewVecDense(3, []float64{0, 0.8, 0.15}), true},
		{"slice", []float64{0.1, 0.9, 0.16}, true},
		{"aboveHigh", []float64{0.2, 0.8, 0.15}, false},
		{"belowLow", []float64{0, 0.8, 0.1}, false},
		{"nan", []float64{math.NaN(), 0.8, 0.15}, false},
		{"shape", []float64{0, 0.8}, false},
		{"type", "not a vector", false},
	}

	for _, test := range tests {
		if have := box.Contains(test.x); have != test.in {
			t.Errorf("%v: have(%v) want(%v)", test.name, have, test.in)
		}
	}
}

func TestBoxValidateWrapsErrNotContained(t *testing.T) {
	box := MustBox([]float64{0}, []float64{1})
	err := box.Validate(mat.NewVecDense(1, []float64{2}))
	if !errors.Is(err, ErrNotContained) {
		t.Errorf("validate: have(%v) want(%v)", err, ErrNotContained)
	}
}

func TestNewBoxErrors(t *testing.T) {
	if _, err := NewBox([]float64{0, 0}, []float64{1}); err == nil {
		t.Error("newBox: expected error on length mismatch")
	}
	if _, err := NewBox([]float64{1}, []float64{0}); err == nil {
		t.Error("newBox: expected error when low > high")
	}
	if _, err := NewBox(nil, nil); err == nil {
		t.Error("newBox: expected error on empty box")
	}
}

func TestBoxSample(t *testing.T) {
	box := MustBox([]float64{-1, 0, math.Inf(-1), 2},
		[]float64{1, 0, math.Inf(1), math.Inf(1)})
	box.Seed(7)

	for i := 0; i < 500; i++ {
		s := box.Sample()
		if s.AtVec(0) < -1 || s.AtVec(0) > 1 {
			t.Fatalf("sample: dimension 0 value %v outside [-1, 1]", s.AtVec(0))
		}
		if s.AtVec(1) != 0 {
			t.Fatalf("sample: degenerate dimension should be 0, have(%v)",
				s.AtVec(1))
		}
		if s.AtVec(3) < 2 {
			t.Fatalf("sample: dimension 3 value %v below 2", s.AtVec(3))
		}
		if !box.Contains(s) {
			t.Fatalf("sample: %v not contained in %v", s.RawVector().Data, box)
		}
	}
}

func TestBoxSeedReproducible(t *testing.T) {
	a := MustBox([]float64{-1, -1}, []float64{1, 1})
	b := MustBox([]float64{-1, -1}, []float64{1, 1})
	a.Seed(42)
	b.Seed(42)

	for i := 0; i < 10; i++ {
		if !mat.Equal(a.Sample(), b.Sample()) {
			t.Fatal("seed: equal seeds should produce equal samples")
		}
	}
}

func TestDiscrete(t *testing.T) {
	d, err := NewDiscrete(4)
	if err != nil {
		t.Fatal(err)
	}
	d.Seed(3)

	for i := 0; i < 100; i++ {
		if s := d.Sample(); !d.Contains(s) {
			t.Fatalf("sample: %v not in %v", s, d)
		}
	}
	if d.Contains(4) || d.Contains(-1) || d.Contains(1.5) {
		t.Error("contains: out of range values reported as contained")
	}
	if _, err := NewDiscrete(0); err == nil {
		t.Error("newDiscrete: expected error for empty space")
	}
}

func TestDict(t *testing.T) {
	d := MustDict(map[string]*Box{
		"hand": MustBox([]float64{-0.5, 0.4, 0.05}, []float64{0.5, 1, 0.5}),
		"obj":  MustBox([]float64{-0.1, 0.7, 0.15}, []float64{0.1, 0.9, 0.16}),
	})
	d.Seed(11)

	for i := 0; i < 50; i++ {
		if err := d.Validate(d.Sample()); err != nil {
			t.Fatalf("sample: %v", err)
		}
	}

	valid := map[string]*mat.VecDense{
		"hand": mat.NewVecDense(3, []float64{0, 0.6, 0.2}),
		"obj":  mat.NewVecDense(3, []float64{0, 0.8, 0.15}),
	}
	if !d.Contains(valid) {
		t.Error("contains: valid value reported as not contained")
	}

	missing := map[string]*mat.VecDense{"hand": valid["hand"]}
	if err := d.Validate(missing); !errors.Is(err, ErrNotContained) {
		t.Errorf("validate missing: have(%v) want(%v)", err, ErrNotContained)
	}

	extra := map[string]*mat.VecDense{
		"hand":  valid["hand"],
		"obj":   valid["obj"],
		"other": mat.NewVecDense(1, nil),
	}
	if err := d.Validate(extra); !errors.Is(err, ErrNotContained) {
		t.Errorf("validate extra: have(%v) want(%v)", err, ErrNotContained)
	}

	if keys := d.Keys(); len(keys) != 2 || keys[0] != "hand" {
		t.Errorf("keys: have(%v) want([hand obj])", keys)
	}
}
