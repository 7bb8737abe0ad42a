package mujoco

import (
	"testing"

	"github.com/samuelfneumann/multiworld/assets"
)

func TestLoad(t *testing.T) {
	e, err := Load(assets.SawyerWindowHorizontal)
	if !Available {
		if err == nil {
			t.Error("load: expected error when MuJoCo is unavailable")
		}
		return
	}
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if dims := e.Dims(); dims.NQ != 10 || dims.NU != 2 || dims.NMocap != 1 {
		t.Errorf("dims: have(%+v) want(NQ: 10, NU: 2, NMocap: 1)", dims)
	}
	if err := e.Step([]float64{-1, 1}, 5); err != nil {
		t.Error(err)
	}
}
