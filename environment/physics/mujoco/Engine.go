//go:build mujoco

// Package mujoco implements a physics engine backed by the MuJoCo
// simulator. The package requires cgo and a MuJoCo installation and
// is only built with the mujoco build tag.
package mujoco

// #cgo CFLAGS: -O2 -pthread
// #cgo LDFLAGS: -lmujoco
// #include <mujoco/mujoco.h>
// #include <stdlib.h>
import "C"

import (
	"fmt"
	"slices"
	"unsafe"

	"github.com/samuelfneumann/multiworld/assets"
	"github.com/samuelfneumann/multiworld/environment/physics"
	"github.com/samuelfneumann/multiworld/utils/rotation"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

// Available reports whether MuJoCo support was compiled in
const Available = true

// Engine simulates a scene with MuJoCo
type Engine struct {
	cModel *C.mjModel
	cData  *C.mjData
	model  *physics.Model

	dims     physics.Dims
	dynamics physics.Dynamics

	// Physical parameters as loaded, which dynamics are applied to
	friction []float64
	damping  []float64
	mass     []float64
}

// Load returns a new Engine simulating the scene at the asset path
func Load(path string) (physics.Engine, error) {
	model, err := physics.LoadModel(path)
	if err != nil {
		return nil, fmt.Errorf("load: %v", err)
	}

	fullPath, err := assets.FullPath(path)
	if err != nil {
		return nil, fmt.Errorf("load: %v", err)
	}
	cModel, cData, err := loadXML(fullPath)
	if err != nil {
		return nil, fmt.Errorf("load: could not load XML: %v", err)
	}

	e := &Engine{
		cModel: cModel,
		cData:  cData,
		model:  model,
		dims: physics.Dims{
			NQ:     int(cModel.nq),
			NV:     int(cModel.nv),
			NU:     int(cModel.nu),
			NMocap: int(cModel.nmocap),
		},
		dynamics: physics.DefaultDynamics(),
	}
	e.friction = slices.Clone(e.f64s(cModel.geom_friction, 3*int(cModel.ngeom)))
	e.damping = slices.Clone(e.f64s(cModel.dof_damping, int(cModel.nv)))
	e.mass = slices.Clone(e.f64s(cModel.body_mass, int(cModel.nbody)))

	C.mj_forward(cModel, cData)
	return e, nil
}

func loadXML(file string) (*C.mjModel, *C.mjData, error) {
	modelName := C.CString(file)
	defer C.free(unsafe.Pointer(modelName))

	var err [1000]C.char
	model := C.mj_loadXML(modelName, nil, &err[0], C.int(len(err)))
	goErr := C.GoString(&err[0])
	if model == nil {
		return nil, nil, fmt.Errorf("could not construct model: %v", goErr)
	}

	data := C.mj_makeData(model)
	if data == nil {
		C.mj_deleteModel(model)
		return nil, nil, fmt.Errorf("could not construct mjData")
	}
	return model, data, nil
}

// f64s returns a Go view of a C array of n doubles. Writes to the
// view modify the simulation.
func (e *Engine) f64s(array *C.mjtNum, n int) []float64 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(array)), n)
}

func (e *Engine) id(objType C.int, kind, name string) (int, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	id := int(C.mj_name2id(e.cModel, objType, cName))
	if id < 0 {
		return -1, physics.NotFound(kind, name)
	}
	return id, nil
}

func vec(s []float64, id int) r3.Vec {
	return r3.Vec{X: s[3*id], Y: s[3*id+1], Z: s[3*id+2]}
}

func setVec(s []float64, id int, v r3.Vec) {
	s[3*id], s[3*id+1], s[3*id+2] = v.X, v.Y, v.Z
}

// Reset resets the simulation state. Changes to body and site
// positions persist across resets.
func (e *Engine) Reset() error {
	C.mj_resetData(e.cModel, e.cData)
	C.mj_forward(e.cModel, e.cData)
	return nil
}

// Step sets the actuator controls and advances the simulation
func (e *Engine) Step(ctrl []float64, nFrames int) error {
	if len(ctrl) != e.dims.NU {
		return fmt.Errorf("step: invalid control dimensions \n\thave(%v) "+
			"\n\twant(%v)", len(ctrl), e.dims.NU)
	}
	if nFrames < 1 {
		return fmt.Errorf("step: number of frames must be positive, have(%v)",
			nFrames)
	}

	copy(e.f64s(e.cData.ctrl, e.dims.NU), ctrl)
	for i := 0; i < nFrames; i++ {
		C.mj_step(e.cModel, e.cData)
	}
	return nil
}

// Forward recomputes derived positions without advancing time
func (e *Engine) Forward() error {
	C.mj_forward(e.cModel, e.cData)
	return nil
}

// Timestep returns the duration of a single simulation timestep
func (e *Engine) Timestep() float64 {
	return float64(e.cModel.opt.timestep)
}

// Dims returns the dimensions of the state and control vectors
func (e *Engine) Dims() physics.Dims {
	return e.dims
}

// QPos returns a copy of the generalized positions
func (e *Engine) QPos() []float64 {
	return append([]float64(nil), e.f64s(e.cData.qpos, e.dims.NQ)...)
}

// QVel returns a copy of the generalized velocities
func (e *Engine) QVel() []float64 {
	return append([]float64(nil), e.f64s(e.cData.qvel, e.dims.NV)...)
}

// SetState sets the generalized positions and velocities
func (e *Engine) SetState(qpos, qvel []float64) error {
	if len(qpos) != e.dims.NQ {
		return fmt.Errorf("setState: invalid position dimensions \n\t"+
			"have(%v) \n\twant(%v)", len(qpos), e.dims.NQ)
	}
	if len(qvel) != e.dims.NV {
		return fmt.Errorf("setState: invalid velocity dimensions \n\t"+
			"have(%v) \n\twant(%v)", len(qvel), e.dims.NV)
	}

	copy(e.f64s(e.cData.qpos, e.dims.NQ), qpos)
	copy(e.f64s(e.cData.qvel, e.dims.NV), qvel)
	C.mj_forward(e.cModel, e.cData)
	return nil
}

// CtrlRange returns the control range of each actuator
func (e *Engine) CtrlRange() []r1.Interval {
	bounds := e.f64s(e.cModel.actuator_ctrlrange, 2*e.dims.NU)
	ranges := make([]r1.Interval, e.dims.NU)
	for i := range ranges {
		ranges[i] = r1.Interval{Min: bounds[2*i], Max: bounds[2*i+1]}
	}
	return ranges
}

func (e *Engine) mocapID(name string) (int, error) {
	id, err := e.id(C.mjOBJ_BODY, "body", name)
	if err != nil {
		return -1, err
	}
	mocapIDs := unsafe.Slice((*C.int)(unsafe.Pointer(e.cModel.body_mocapid)),
		int(e.cModel.nbody))
	if mocapIDs[id] < 0 {
		return -1, fmt.Errorf("body %q is not a mocap body", name)
	}
	return int(mocapIDs[id]), nil
}

// MocapPos returns the position of a mocap body
func (e *Engine) MocapPos(name string) (r3.Vec, error) {
	id, err := e.mocapID(name)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("mocapPos: %w", err)
	}
	return vec(e.f64s(e.cData.mocap_pos, 3*e.dims.NMocap), id), nil
}

// SetMocapPos sets the position of a mocap body
func (e *Engine) SetMocapPos(name string, pos r3.Vec) error {
	id, err := e.mocapID(name)
	if err != nil {
		return fmt.Errorf("setMocapPos: %w", err)
	}
	setVec(e.f64s(e.cData.mocap_pos, 3*e.dims.NMocap), id, pos)
	return nil
}

// MocapQuat returns the orientation of a mocap body
func (e *Engine) MocapQuat(name string) (quat.Number, error) {
	id, err := e.mocapID(name)
	if err != nil {
		return quat.Number{}, fmt.Errorf("mocapQuat: %w", err)
	}
	q := e.f64s(e.cData.mocap_quat, 4*e.dims.NMocap)[4*id:]
	return quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]}, nil
}

// SetMocapQuat sets the orientation of a mocap body
func (e *Engine) SetMocapQuat(name string, q quat.Number) error {
	id, err := e.mocapID(name)
	if err != nil {
		return fmt.Errorf("setMocapQuat: %w", err)
	}
	q = rotation.Normalize(q)
	copy(e.f64s(e.cData.mocap_quat, 4*e.dims.NMocap)[4*id:],
		[]float64{q.Real, q.Imag, q.Jmag, q.Kmag})
	return nil
}

// BodyXPos returns the world position of a body
func (e *Engine) BodyXPos(name string) (r3.Vec, error) {
	id, err := e.id(C.mjOBJ_BODY, "body", name)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("bodyXPos: %w", err)
	}
	return vec(e.f64s(e.cData.xpos, 3*int(e.cModel.nbody)), id), nil
}

// GeomXPos returns the world position of a geom
func (e *Engine) GeomXPos(name string) (r3.Vec, error) {
	id, err := e.id(C.mjOBJ_GEOM, "geom", name)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("geomXPos: %w", err)
	}
	return vec(e.f64s(e.cData.geom_xpos, 3*int(e.cModel.ngeom)), id), nil
}

// SiteXPos returns the world position of a site
func (e *Engine) SiteXPos(name string) (r3.Vec, error) {
	id, err := e.id(C.mjOBJ_SITE, "site", name)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("siteXPos: %w", err)
	}
	return vec(e.f64s(e.cData.site_xpos, 3*int(e.cModel.nsite)), id), nil
}

// SetBodyPos moves a body relative to its parent
func (e *Engine) SetBodyPos(name string, pos r3.Vec) error {
	id, err := e.id(C.mjOBJ_BODY, "body", name)
	if err != nil {
		return fmt.Errorf("setBodyPos: %w", err)
	}
	setVec(e.f64s(e.cModel.body_pos, 3*int(e.cModel.nbody)), id, pos)
	if b, err := e.model.Body(name); err == nil {
		b.Pos = pos
	}
	C.mj_forward(e.cModel, e.cData)
	return nil
}

// SetSitePos moves a site relative to its body
func (e *Engine) SetSitePos(name string, pos r3.Vec) error {
	id, err := e.id(C.mjOBJ_SITE, "site", name)
	if err != nil {
		return fmt.Errorf("setSitePos: %w", err)
	}
	setVec(e.f64s(e.cModel.site_pos, 3*int(e.cModel.nsite)), id, pos)
	if s, _, err := e.model.Site(name); err == nil {
		s.Pos = pos
	}
	C.mj_forward(e.cModel, e.cData)
	return nil
}

// Dynamics returns the physical parameters of the movable bodies
func (e *Engine) Dynamics() physics.Dynamics {
	return e.dynamics
}

// SetDynamics scales the physical parameters of the movable bodies
// relative to their values at load time
func (e *Engine) SetDynamics(d physics.Dynamics) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("setDynamics: %v", err)
	}

	movable := make([]bool, int(e.cModel.nbody))
	for i := range movable {
		name := C.GoString(C.mj_id2name(e.cModel, C.mjOBJ_BODY, C.int(i)))
		if id, err := e.model.BodyID(name); err == nil {
			movable[i] = e.model.Movable(id)
		}
	}

	geomBody := unsafe.Slice((*C.int)(unsafe.Pointer(e.cModel.geom_bodyid)),
		int(e.cModel.ngeom))
	friction := e.f64s(e.cModel.geom_friction, 3*int(e.cModel.ngeom))
	for i, b := range geomBody {
		if movable[b] {
			friction[3*i] = e.friction[3*i] * d.Friction
		}
	}

	dofBody := unsafe.Slice((*C.int)(unsafe.Pointer(e.cModel.dof_bodyid)),
		e.dims.NV)
	damping := e.f64s(e.cModel.dof_damping, e.dims.NV)
	for i, b := range dofBody {
		if movable[b] {
			damping[i] = e.damping[i] * d.Damping
		}
	}

	mass := e.f64s(e.cModel.body_mass, int(e.cModel.nbody))
	for i := range mass {
		if movable[i] {
			mass[i] = e.mass[i] * d.MassScale
		}
	}

	e.dynamics = d
	C.mj_setConst(e.cModel, e.cData)
	return nil
}

// Model returns the scene being simulated
func (e *Engine) Model() *physics.Model {
	return e.model
}

// Close frees the MuJoCo model and data
func (e *Engine) Close() error {
	if e.cData != nil {
		C.mj_deleteData(e.cData)
		e.cData = nil
	}
	if e.cModel != nil {
		C.mj_deleteModel(e.cModel)
		e.cModel = nil
	}
	return nil
}

var _ physics.Engine = (*Engine)(nil)
