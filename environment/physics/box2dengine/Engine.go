// Package box2dengine implements a physics engine for tabletop scenes
// on top of the Box2D rigid body simulator.
//
// The scene is simulated in the horizontal x-y plane as seen from
// above. Heights are handled kinematically: bodies never move along
// the z-axis and two geoms only collide if their vertical extents
// overlap. The engine supports the following kinds of bodies:
//
//   - Bodies without joints, which are fixed in place
//   - Mocap bodies, which are moved by the caller
//   - Bodies with a free joint welded to a mocap body, which track
//     their mocap body exactly
//   - Descendants of welded bodies, which may have a slide joint driven
//     by an ideal position servo
//   - Top-level bodies with a single horizontal slide joint, which are
//     pushed around by the other bodies
//
// Hinge and ball joints are not supported.
package box2dengine

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/samuelfneumann/multiworld/environment/physics"
	"github.com/samuelfneumann/multiworld/utils/floatutils"
	"github.com/samuelfneumann/multiworld/utils/rotation"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// Scale is the number of Box2D units per metre. Box2D is tuned for
	// objects between 0.1 and 10 units in size.
	Scale = 20.0

	velocityIterations = 8
	positionIterations = 3

	// Kinematic bodies which should move further than this in a single
	// timestep are teleported rather than swept
	maxSweep = 1.5
)

// Box2D body types
const (
	staticBody    uint8 = 0
	kinematicBody uint8 = 1
	dynamicBody   uint8 = 2
)

// Collision categories
const (
	categoryFixed uint16 = 1 << iota
	categoryDriven
	categoryMovable
)

type kind int

const (
	fixedBody kind = iota
	mocapBody
	drivenBody
	attachedBody
	slidingBody
)

// body is the simulation state of a body of the scene
type body struct {
	kind  kind
	model *physics.Body
	joint *physics.Joint
	weld  int // mocap ID that a driven body tracks

	pos  r3.Vec
	quat quat.Number

	b2       *box2d.B2Body
	fixtures []*box2d.B2Fixture
	geoms    []*physics.Geom

	// Orientation at which the fixtures of a driven or attached body
	// were last built, and height at which their contacts were last
	// filtered
	footprint quat.Number
	height    float64

	// Position at zero joint displacement and unit joint axis in the
	// world frame, for sliding bodies
	anchor r3.Vec
	axis   r3.Vec
}

// fixtureGeom is the user data of a fixture
type fixtureGeom struct {
	body *body
	geom *physics.Geom
}

// heightFilter lets two fixtures collide if their collision categories
// match and the vertical extents of their geoms overlap. Box2D leaves
// the contact filter of a new world unset, so categories are ignored
// unless a filter is installed.
type heightFilter struct{}

func (heightFilter) ShouldCollide(a, b *box2d.B2Fixture) bool {
	fa, fb := a.GetFilterData(), b.GetFilterData()
	if fa.MaskBits&fb.CategoryBits == 0 || fa.CategoryBits&fb.MaskBits == 0 {
		return false
	}

	ga, okA := a.GetUserData().(*fixtureGeom)
	gb, okB := b.GetUserData().(*fixtureGeom)
	if !okA || !okB {
		return true
	}
	loA, hiA := zExtent(ga.body, ga.geom)
	loB, hiB := zExtent(gb.body, gb.geom)
	return loA < hiB && loB < hiA
}

// Engine simulates a scene in the plane using Box2D
type Engine struct {
	model  *physics.Model
	world  box2d.B2World
	ground *box2d.B2Body
	bodies []*body

	qpos, qvel []float64
	ctrl       []float64
	actuators  []*physics.Joint

	mocapPos  []r3.Vec
	mocapQuat []quat.Number

	dynamics physics.Dynamics
	time     float64
}

// New returns a new Engine simulating the scene described by model.
// The model is copied, so later changes to it do not affect the
// Engine.
func New(model *physics.Model) (*Engine, error) {
	e := &Engine{
		model:    model.Clone(),
		dynamics: physics.DefaultDynamics(),
	}

	if err := e.classify(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	for _, a := range e.model.Actuators {
		j, err := e.model.Joint(a.Joint)
		if err != nil {
			return nil, fmt.Errorf("new: actuator %q: %v", a.Name, err)
		}
		if j.Type != physics.Slide {
			return nil, fmt.Errorf("new: actuator %q: only slide joints "+
				"can be actuated", a.Name)
		}
		e.actuators = append(e.actuators, j)
	}

	if err := e.Reset(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	return e, nil
}

// Load returns a new Engine simulating the scene at the asset path
func Load(path string) (*Engine, error) {
	model, err := physics.LoadModel(path)
	if err != nil {
		return nil, fmt.Errorf("load: %v", err)
	}
	return New(model)
}

// classify determines how each body of the scene is simulated
func (e *Engine) classify() error {
	m := e.model
	e.bodies = make([]*body, len(m.Bodies))

	for i, mb := range m.Bodies {
		b := &body{model: mb, quat: rotation.Identity}
		e.bodies[i] = b

		for _, j := range mb.Joints {
			if j.Type == physics.Hinge || j.Type == physics.Ball {
				return fmt.Errorf("classify: %v joint %q not supported",
					j.Type, j.Name)
			}
		}
		if len(mb.Joints) > 1 {
			return fmt.Errorf("classify: body %q has more than one joint",
				mb.Name)
		}
		if len(mb.Joints) == 1 {
			b.joint = mb.Joints[0]
		}

		if i == 0 {
			b.kind = fixedBody
			continue
		}
		parent := e.bodies[mb.Parent]

		switch {
		case mb.Mocap:
			if b.joint != nil {
				return fmt.Errorf("classify: mocap body %q cannot have "+
					"joints", mb.Name)
			}
			b.kind = mocapBody

		case parent.kind == mocapBody || parent.kind == slidingBody:
			return fmt.Errorf("classify: body %q cannot be attached to "+
				"a moving body", mb.Name)

		case b.joint != nil && b.joint.Type == physics.Free:
			if parent.kind != fixedBody {
				return fmt.Errorf("classify: free body %q must be a "+
					"child of a fixed body", mb.Name)
			}
			to, ok := m.WeldedTo(mb.Name)
			if !ok {
				return fmt.Errorf("classify: free body %q must be welded "+
					"to a mocap body", mb.Name)
			}
			target, err := m.Body(to)
			if err != nil || !target.Mocap {
				return fmt.Errorf("classify: free body %q must be welded "+
					"to a mocap body", mb.Name)
			}
			b.kind = drivenBody
			b.weld = target.MocapID

		case parent.kind == drivenBody || parent.kind == attachedBody:
			b.kind = attachedBody

		case b.joint != nil:
			axis := b.joint.Axis
			if r3.Norm(axis) == 0 || math.Abs(axis.Z) > 1e-9 {
				return fmt.Errorf("classify: slide joint %q must have a "+
					"horizontal axis", b.joint.Name)
			}
			b.kind = slidingBody

		default:
			b.kind = fixedBody
		}
	}
	return nil
}

// Reset resets the state of the simulation to the scene as loaded
func (e *Engine) Reset() error {
	dims := e.model.Dims()
	e.qpos = e.model.InitQPos()
	e.qvel = make([]float64, dims.NV)
	e.ctrl = make([]float64, dims.NU)
	e.time = 0

	e.mocapPos = make([]r3.Vec, dims.NMocap)
	e.mocapQuat = make([]quat.Number, dims.NMocap)
	for i, b := range e.model.Bodies {
		if b.Mocap {
			e.mocapPos[b.MocapID] = e.model.WorldPos(i)
			e.mocapQuat[b.MocapID] = b.Quat
		}
	}

	e.rebuild()
	return nil
}

// forward computes the world poses of all bodies from the generalized
// positions and mocap state
func (e *Engine) forward() {
	for _, b := range e.bodies {
		mb := b.model
		switch b.kind {
		case mocapBody:
			b.pos = e.mocapPos[mb.MocapID]
			b.quat = e.mocapQuat[mb.MocapID]
			continue

		case drivenBody:
			adr := b.joint.QPosAdr
			b.pos = r3.Vec{X: e.qpos[adr], Y: e.qpos[adr+1], Z: e.qpos[adr+2]}
			b.quat = rotation.Normalize(quat.Number{
				Real: e.qpos[adr+3],
				Imag: e.qpos[adr+4],
				Jmag: e.qpos[adr+5],
				Kmag: e.qpos[adr+6],
			})
			continue
		}

		parentPos, parentQuat := r3.Vec{}, rotation.Identity
		if mb.Parent >= 0 {
			parent := e.bodies[mb.Parent]
			parentPos, parentQuat = parent.pos, parent.quat
		}

		local := mb.Pos
		if b.joint != nil {
			slide := r3.Scale(e.qpos[b.joint.QPosAdr], b.joint.Axis)
			local = r3.Add(local, rotation.Rotate(mb.Quat, slide))
		}
		b.pos = r3.Add(parentPos, rotation.Rotate(parentQuat, local))
		b.quat = quat.Mul(parentQuat, mb.Quat)

		if b.kind == slidingBody {
			b.anchor = r3.Add(parentPos, rotation.Rotate(parentQuat, mb.Pos))
			b.axis = r3.Unit(rotation.Rotate(b.quat, b.joint.Axis))
		}
	}
}

// rebuild recreates the Box2D world from the current state
func (e *Engine) rebuild() {
	e.forward()

	e.world = box2d.MakeB2World(box2d.MakeB2Vec2(0, 0))
	e.world.SetContactFilter(heightFilter{})
	groundDef := box2d.MakeB2BodyDef()
	groundDef.Type = staticBody
	e.ground = e.world.CreateBody(&groundDef)

	for _, b := range e.bodies {
		b.b2 = nil
		b.fixtures = nil
		b.geoms = nil
		if !collides(b.model) && b.kind != slidingBody {
			continue
		}

		switch b.kind {
		case fixedBody:
			b.b2 = e.createBody(b.pos, staticBody)
			e.addFixtures(b, categoryFixed, categoryMovable)

		case drivenBody, attachedBody:
			b.b2 = e.createBody(b.pos, kinematicBody)
			e.addFixtures(b, categoryDriven, categoryMovable)
			b.height = b.pos.Z

		case slidingBody:
			e.addSlidingBody(b)
		}
	}
}

func (e *Engine) createBody(pos r3.Vec, bodyType uint8) *box2d.B2Body {
	def := box2d.MakeB2BodyDef()
	def.Type = bodyType
	def.Position = toB2(pos)
	def.FixedRotation = true
	def.AllowSleep = false
	return e.world.CreateBody(&def)
}

// addSlidingBody adds a dynamic body attached to the ground by a
// prismatic joint
func (e *Engine) addSlidingBody(b *body) {
	// The joint measures translation from the body's position at
	// creation, so create the body at zero joint displacement
	b.b2 = e.createBody(b.anchor, dynamicBody)
	e.addFixtures(b, categoryMovable,
		categoryFixed|categoryDriven|categoryMovable)

	jd := box2d.MakeB2PrismaticJointDef()
	jd.Initialize(e.ground, b.b2, toB2(b.anchor),
		box2d.MakeB2Vec2(b.axis.X, b.axis.Y))
	if b.joint.Limited {
		jd.EnableLimit = true
		jd.LowerTranslation = b.joint.Range.Min * Scale
		jd.UpperTranslation = b.joint.Range.Max * Scale
	}
	e.world.CreateJoint(&jd)

	// Box2D damping is a rate, joint damping is a force per unit
	// velocity
	if mass := e.mass(b); mass > 0 {
		b.b2.SetLinearDamping(b.joint.Damping * e.dynamics.Damping / mass)
	}

	b.b2.SetTransform(toB2(b.pos), 0)
	vel := r3.Scale(e.qvel[b.joint.QVelAdr]*Scale, b.axis)
	b.b2.SetLinearVelocity(box2d.MakeB2Vec2(vel.X, vel.Y))
}

// mass returns the mass of a movable body in kilograms
func (e *Engine) mass(b *body) float64 {
	mass := 0.0
	for _, g := range b.model.Geoms {
		h := g.HalfExtents()
		mass += g.Density * 8 * h.X * h.Y * h.Z
	}
	return mass * e.dynamics.MassScale
}

// addFixtures attaches a fixture for each colliding box geom of b
func (e *Engine) addFixtures(b *body, category, mask uint16) {
	movable := b.kind == slidingBody

	for _, g := range b.model.Geoms {
		if !g.Collides() || g.Type != "box" {
			continue
		}

		centre, half := footprint(b.quat, g)
		shape := box2d.NewB2PolygonShape()
		vertices := []box2d.B2Vec2{
			box2d.MakeB2Vec2((centre.X-half.X)*Scale, (centre.Y-half.Y)*Scale),
			box2d.MakeB2Vec2((centre.X+half.X)*Scale, (centre.Y-half.Y)*Scale),
			box2d.MakeB2Vec2((centre.X+half.X)*Scale, (centre.Y+half.Y)*Scale),
			box2d.MakeB2Vec2((centre.X-half.X)*Scale, (centre.Y+half.Y)*Scale),
		}
		shape.Set(vertices, len(vertices))

		fd := box2d.MakeB2FixtureDef()
		fd.Shape = shape
		fd.Friction = g.Friction
		fd.Restitution = 0.0
		if movable {
			fd.Density = g.Density * e.dynamics.MassScale
			fd.Friction *= e.dynamics.Friction
		}
		filter := box2d.MakeB2Filter()
		filter.CategoryBits = category
		filter.MaskBits = mask
		fd.Filter = filter
		fd.UserData = &fixtureGeom{body: b, geom: g}

		b.fixtures = append(b.fixtures, b.b2.CreateFixtureFromDef(&fd))
		b.geoms = append(b.geoms, g)
	}
	b.footprint = b.quat
}

// refreshFootprint rebuilds the fixtures of a driven or attached body
// if its orientation changed since they were built
func (e *Engine) refreshFootprint(b *body) {
	if quat.Abs(quat.Sub(b.quat, b.footprint)) < 1e-9 {
		return
	}
	for _, f := range b.fixtures {
		b.b2.DestroyFixture(f)
	}
	b.fixtures = nil
	b.geoms = nil
	e.addFixtures(b, categoryDriven, categoryMovable)
}

// refilter reevaluates the contacts of a driven or attached body if
// its height changed since they were last filtered. Contacts which no
// longer overlap vertically are dropped before the next step, new ones
// are found during it.
func (e *Engine) refilter(b *body) {
	if b.pos.Z == b.height {
		return
	}
	for _, f := range b.fixtures {
		f.Refilter()
	}
	b.height = b.pos.Z
}

// Step sets the actuator controls and advances the simulation
func (e *Engine) Step(ctrl []float64, nFrames int) error {
	if len(ctrl) != len(e.actuators) {
		return fmt.Errorf("step: invalid control length \n\thave(%v) "+
			"\n\twant(%v)", len(ctrl), len(e.actuators))
	}
	if nFrames < 1 {
		return fmt.Errorf("step: number of frames must be positive, have(%v)",
			nFrames)
	}

	for i, c := range ctrl {
		if math.IsNaN(c) {
			return fmt.Errorf("step: control %v is NaN", i)
		}
		e.ctrl[i] = floatutils.ClipInterval(c, e.model.Actuators[i].CtrlRange)
	}

	for i := 0; i < nFrames; i++ {
		e.frame()
	}
	return nil
}

// frame advances the simulation by a single timestep
func (e *Engine) frame() {
	dt := e.model.Timestep

	// Ideal position servos
	for i, j := range e.actuators {
		target := e.ctrl[i]
		if j.Limited {
			target = floatutils.ClipInterval(target, j.Range)
		}
		e.qvel[j.QVelAdr] = (target - e.qpos[j.QPosAdr]) / dt
		e.qpos[j.QPosAdr] = target
	}

	// Welded bodies track their mocap body
	for _, b := range e.bodies {
		if b.kind != drivenBody {
			continue
		}
		adr, vadr := b.joint.QPosAdr, b.joint.QVelAdr
		pos, q := e.mocapPos[b.weld], e.mocapQuat[b.weld]
		target := []float64{pos.X, pos.Y, pos.Z, q.Real, q.Imag, q.Jmag, q.Kmag}
		for k := 0; k < 3; k++ {
			e.qvel[vadr+k] = (target[k] - e.qpos[adr+k]) / dt
			e.qvel[vadr+3+k] = 0
		}
		copy(e.qpos[adr:adr+7], target)
	}
	e.forward()

	for _, b := range e.bodies {
		if b.b2 == nil || (b.kind != drivenBody && b.kind != attachedBody) {
			continue
		}
		e.refreshFootprint(b)
		e.refilter(b)

		target := toB2(b.pos)
		current := b.b2.GetPosition()
		dx, dy := target.X-current.X, target.Y-current.Y
		if math.Hypot(dx, dy) > maxSweep {
			b.b2.SetTransform(target, 0)
			b.b2.SetLinearVelocity(box2d.MakeB2Vec2(0, 0))
		} else {
			b.b2.SetLinearVelocity(box2d.MakeB2Vec2(dx/dt, dy/dt))
		}
	}

	e.world.Step(dt, velocityIterations, positionIterations)

	for _, b := range e.bodies {
		if b.kind != slidingBody {
			continue
		}
		p := b.b2.GetPosition()
		v := b.b2.GetLinearVelocity()
		offset := r3.Vec{X: p.X/Scale - b.anchor.X, Y: p.Y/Scale - b.anchor.Y}
		q := r3.Dot(offset, b.axis)
		if b.joint.Limited {
			q = floatutils.ClipInterval(q, b.joint.Range)
		}
		e.qpos[b.joint.QPosAdr] = q
		e.qvel[b.joint.QVelAdr] = r3.Dot(r3.Vec{X: v.X, Y: v.Y}, b.axis) / Scale
	}
	e.forward()
	e.time += dt
}

// Forward recomputes the world poses of all bodies
func (e *Engine) Forward() error {
	e.forward()
	return nil
}

// Timestep returns the duration of a single simulation timestep
func (e *Engine) Timestep() float64 {
	return e.model.Timestep
}

// Time returns the simulated time since the last reset
func (e *Engine) Time() float64 {
	return e.time
}

// Dims returns the dimensions of the state and control vectors
func (e *Engine) Dims() physics.Dims {
	return e.model.Dims()
}

// QPos returns a copy of the generalized positions
func (e *Engine) QPos() []float64 {
	return append([]float64(nil), e.qpos...)
}

// QVel returns a copy of the generalized velocities
func (e *Engine) QVel() []float64 {
	return append([]float64(nil), e.qvel...)
}

// SetState sets the generalized positions and velocities
func (e *Engine) SetState(qpos, qvel []float64) error {
	if len(qpos) != len(e.qpos) || len(qvel) != len(e.qvel) {
		return fmt.Errorf("setState: invalid state shape \n\thave(%v, %v) "+
			"\n\twant(%v, %v)", len(qpos), len(qvel), len(e.qpos), len(e.qvel))
	}
	copy(e.qpos, qpos)
	copy(e.qvel, qvel)
	e.forward()

	for _, b := range e.bodies {
		if b.b2 == nil {
			continue
		}
		switch b.kind {
		case drivenBody, attachedBody:
			e.refreshFootprint(b)
			e.refilter(b)
			b.b2.SetTransform(toB2(b.pos), 0)
			b.b2.SetLinearVelocity(box2d.MakeB2Vec2(0, 0))

		case slidingBody:
			b.b2.SetTransform(toB2(b.pos), 0)
			vel := r3.Scale(e.qvel[b.joint.QVelAdr]*Scale, b.axis)
			b.b2.SetLinearVelocity(box2d.MakeB2Vec2(vel.X, vel.Y))
		}
	}
	return nil
}

// CtrlRange returns the control range of each actuator
func (e *Engine) CtrlRange() []r1.Interval {
	ranges := make([]r1.Interval, len(e.model.Actuators))
	for i, a := range e.model.Actuators {
		ranges[i] = a.CtrlRange
	}
	return ranges
}

func (e *Engine) mocapID(name string) (int, error) {
	b, err := e.model.Body(name)
	if err != nil {
		return -1, err
	}
	if !b.Mocap {
		return -1, fmt.Errorf("body %q is not a mocap body", name)
	}
	return b.MocapID, nil
}

// MocapPos returns the position of a mocap body
func (e *Engine) MocapPos(name string) (r3.Vec, error) {
	id, err := e.mocapID(name)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("mocapPos: %w", err)
	}
	return e.mocapPos[id], nil
}

// SetMocapPos sets the position of a mocap body
func (e *Engine) SetMocapPos(name string, pos r3.Vec) error {
	id, err := e.mocapID(name)
	if err != nil {
		return fmt.Errorf("setMocapPos: %w", err)
	}
	e.mocapPos[id] = pos
	e.forward()
	return nil
}

// MocapQuat returns the orientation of a mocap body
func (e *Engine) MocapQuat(name string) (quat.Number, error) {
	id, err := e.mocapID(name)
	if err != nil {
		return quat.Number{}, fmt.Errorf("mocapQuat: %w", err)
	}
	return e.mocapQuat[id], nil
}

// SetMocapQuat sets the orientation of a mocap body
func (e *Engine) SetMocapQuat(name string, q quat.Number) error {
	id, err := e.mocapID(name)
	if err != nil {
		return fmt.Errorf("setMocapQuat: %w", err)
	}
	e.mocapQuat[id] = rotation.Normalize(q)
	e.forward()
	return nil
}

// BodyXPos returns the world position of a body
func (e *Engine) BodyXPos(name string) (r3.Vec, error) {
	id, err := e.model.BodyID(name)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("bodyXPos: %w", err)
	}
	return e.bodies[id].pos, nil
}

// GeomXPos returns the world position of a geom
func (e *Engine) GeomXPos(name string) (r3.Vec, error) {
	g, id, err := e.model.Geom(name)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("geomXPos: %w", err)
	}
	b := e.bodies[id]
	return r3.Add(b.pos, rotation.Rotate(b.quat, g.Pos)), nil
}

// SiteXPos returns the world position of a site
func (e *Engine) SiteXPos(name string) (r3.Vec, error) {
	s, id, err := e.model.Site(name)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("siteXPos: %w", err)
	}
	b := e.bodies[id]
	return r3.Add(b.pos, rotation.Rotate(b.quat, s.Pos)), nil
}

// SetBodyPos moves a body relative to its parent. The position of a
// mocap body only takes effect on the next reset.
func (e *Engine) SetBodyPos(name string, pos r3.Vec) error {
	b, err := e.model.Body(name)
	if err != nil {
		return fmt.Errorf("setBodyPos: %w", err)
	}
	b.Pos = pos
	e.rebuild()
	return nil
}

// SetSitePos moves a site relative to its body
func (e *Engine) SetSitePos(name string, pos r3.Vec) error {
	s, _, err := e.model.Site(name)
	if err != nil {
		return fmt.Errorf("setSitePos: %w", err)
	}
	s.Pos = pos
	return nil
}

// Dynamics returns the physical parameters of the movable bodies
func (e *Engine) Dynamics() physics.Dynamics {
	return e.dynamics
}

// SetDynamics sets the physical parameters of the movable bodies
func (e *Engine) SetDynamics(d physics.Dynamics) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("setDynamics: %v", err)
	}
	e.dynamics = d
	e.rebuild()
	return nil
}

// Model returns the scene being simulated
func (e *Engine) Model() *physics.Model {
	return e.model
}

// Close releases the Box2D world
func (e *Engine) Close() error {
	e.world = box2d.MakeB2World(box2d.MakeB2Vec2(0, 0))
	for _, b := range e.bodies {
		b.b2 = nil
		b.fixtures = nil
	}
	return nil
}

// collides returns whether a body has geoms which take part in
// collisions
func collides(b *physics.Body) bool {
	for _, g := range b.Geoms {
		if g.Collides() && g.Type == "box" {
			return true
		}
	}
	return false
}

// footprint returns the offset of a geom's centre from its body's
// origin and the half extents of the geom's world-aligned bounding box
func footprint(q quat.Number, g *physics.Geom) (r3.Vec, r3.Vec) {
	centre := rotation.Rotate(q, g.Pos)
	h := g.HalfExtents()

	var half r3.Vec
	for _, edge := range []r3.Vec{{X: h.X}, {Y: h.Y}, {Z: h.Z}} {
		e := rotation.Rotate(q, edge)
		half = r3.Add(half, r3.Vec{X: math.Abs(e.X), Y: math.Abs(e.Y),
			Z: math.Abs(e.Z)})
	}
	return centre, half
}

// zExtent returns the vertical extent of a geom
func zExtent(b *body, g *physics.Geom) (float64, float64) {
	centre, half := footprint(b.quat, g)
	z := b.pos.Z + centre.Z
	return z - half.Z, z + half.Z
}

func toB2(v r3.Vec) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(v.X*Scale, v.Y*Scale)
}

var _ physics.Engine = (*Engine)(nil)
