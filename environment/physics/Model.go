package physics

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samuelfneumann/multiworld/assets"
	"github.com/samuelfneumann/multiworld/utils/rotation"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

// JointType is the type of a joint
type JointType string

const (
	Free  JointType = "free"
	Slide JointType = "slide"
	Hinge JointType = "hinge"
	Ball  JointType = "ball"
)

// QPosLen returns the number of generalized positions of the joint
func (j JointType) QPosLen() int {
	switch j {
	case Free:
		return 7
	case Ball:
		return 4
	}
	return 1
}

// QVelLen returns the number of generalized velocities of the joint
func (j JointType) QVelLen() int {
	switch j {
	case Free:
		return 6
	case Ball:
		return 3
	}
	return 1
}

// Joint is a degree of freedom of a body
type Joint struct {
	Name    string
	Type    JointType
	Axis    r3.Vec
	Range   r1.Interval
	Limited bool
	Damping float64

	// Addresses of the joint in the generalized position and velocity
	// vectors
	QPosAdr, QVelAdr int
}

// Geom is a piece of geometry attached to a body. Only boxes are
// simulated by the planar engine, other geom types are drawn but do
// not collide.
type Geom struct {
	Name     string
	Type     string
	Pos      r3.Vec
	Size     []float64
	Friction float64
	Density  float64
	Contype  int
	RGBA     [4]float64
}

// HalfExtents returns the half extents of the geom's bounding box
func (g *Geom) HalfExtents() r3.Vec {
	switch {
	case g.Type == "box" && len(g.Size) >= 3:
		return r3.Vec{X: g.Size[0], Y: g.Size[1], Z: g.Size[2]}
	case len(g.Size) >= 1:
		return r3.Vec{X: g.Size[0], Y: g.Size[0], Z: g.Size[0]}
	}
	return r3.Vec{}
}

// Collides returns whether the geom takes part in collisions
func (g *Geom) Collides() bool {
	return g.Contype != 0
}

// Site is a named point attached to a body
type Site struct {
	Name string
	Pos  r3.Vec
	Size float64
	RGBA [4]float64
}

// Body is a node of the kinematic tree of a scene. Body frames are
// axis-aligned: orientations given in the scene file are not applied
// to children.
type Body struct {
	Name   string
	Parent int
	Pos    r3.Vec
	Quat   quat.Number
	Mocap  bool

	// MocapID is the index of the body among mocap bodies, or -1
	MocapID int

	Joints []*Joint
	Geoms  []*Geom
	Sites  []*Site
}

// Actuator is a position servo on a joint
type Actuator struct {
	Name      string
	Joint     string
	CtrlRange r1.Interval
	Kp        float64
}

// Weld attaches Body2 rigidly to Body1
type Weld struct {
	Body1, Body2 string
}

// Model is a scene description. Bodies are stored in depth-first
// order with the world body at index 0.
type Model struct {
	Name      string
	Timestep  float64
	Gravity   r3.Vec
	Bodies    []*Body
	Actuators []Actuator
	Welds     []Weld

	nq, nv, nmocap int
}

// LoadModel loads a scene from an asset path, see assets.Open
func LoadModel(path string) (*Model, error) {
	f, err := assets.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loadModel: %v", err)
	}
	defer f.Close()

	m, err := ParseModel(f)
	if err != nil {
		return nil, fmt.Errorf("loadModel: %v", err)
	}
	return m, nil
}

// ParseModel parses a scene in the MJCF format
func ParseModel(r io.Reader) (*Model, error) {
	var doc xmlMujoco
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parseModel: could not decode scene: %v", err)
	}

	m := &Model{
		Name:     doc.Model,
		Timestep: 0.002,
		Gravity:  r3.Vec{Z: -9.81},
	}
	var err error
	if doc.Option.Timestep != "" {
		if m.Timestep, err = strconv.ParseFloat(doc.Option.Timestep, 64); err != nil {
			return nil, fmt.Errorf("parseModel: timestep: %v", err)
		}
	}
	if doc.Option.Gravity != "" {
		if m.Gravity, err = parseVec(doc.Option.Gravity); err != nil {
			return nil, fmt.Errorf("parseModel: gravity: %v", err)
		}
	}

	defaults := jointDefaults{damping: 0}
	if doc.Default.Joint.Damping != "" {
		if defaults.damping, err = strconv.ParseFloat(doc.Default.Joint.Damping,
			64); err != nil {
			return nil, fmt.Errorf("parseModel: default damping: %v", err)
		}
	}
	defaults.limited = doc.Default.Joint.Limited == "true"
	defaults.contype = 1
	if doc.Default.Geom.Contype != "" {
		if defaults.contype, err = strconv.Atoi(doc.Default.Geom.Contype); err != nil {
			return nil, fmt.Errorf("parseModel: default contype: %v", err)
		}
	}

	world := doc.Worldbody
	world.Name = "world"
	if err := m.addBody(world, -1, defaults); err != nil {
		return nil, fmt.Errorf("parseModel: %v", err)
	}

	for _, w := range doc.Equality.Welds {
		if _, err := m.BodyID(w.Body1); err != nil {
			return nil, fmt.Errorf("parseModel: weld: %v", err)
		}
		if _, err := m.BodyID(w.Body2); err != nil {
			return nil, fmt.Errorf("parseModel: weld: %v", err)
		}
		m.Welds = append(m.Welds, Weld{Body1: w.Body1, Body2: w.Body2})
	}

	for _, a := range doc.Actuator.Position {
		if _, err := m.Joint(a.Joint); err != nil {
			return nil, fmt.Errorf("parseModel: actuator %q: %v", a.Name, err)
		}
		act := Actuator{
			Name:      a.Name,
			Joint:     a.Joint,
			CtrlRange: r1.Interval{Min: -1, Max: 1},
			Kp:        1,
		}
		if a.Ctrlrange != "" {
			if act.CtrlRange, err = parseInterval(a.Ctrlrange); err != nil {
				return nil, fmt.Errorf("parseModel: actuator %q: %v", a.Name, err)
			}
		}
		if a.Kp != "" {
			if act.Kp, err = strconv.ParseFloat(a.Kp, 64); err != nil {
				return nil, fmt.Errorf("parseModel: actuator %q: %v", a.Name, err)
			}
		}
		m.Actuators = append(m.Actuators, act)
	}

	return m, nil
}

type jointDefaults struct {
	damping float64
	limited bool
	contype int
}

func (m *Model) addBody(b xmlBody, parent int, defaults jointDefaults) error {
	if b.Name != "" {
		if _, err := m.BodyID(b.Name); err == nil {
			return fmt.Errorf("addBody: duplicate body %q", b.Name)
		}
	}

	body := &Body{
		Name:    b.Name,
		Parent:  parent,
		Quat:    quat.Number{Real: 1},
		Mocap:   b.Mocap == "true",
		MocapID: -1,
	}
	var err error
	if b.Pos != "" {
		if body.Pos, err = parseVec(b.Pos); err != nil {
			return fmt.Errorf("addBody: body %q: %v", b.Name, err)
		}
	}
	if b.Quat != "" {
		q, err := parseFloats(b.Quat, 4)
		if err != nil {
			return fmt.Errorf("addBody: body %q: %v", b.Name, err)
		}
		body.Quat = rotation.Normalize(quat.Number{Real: q[0], Imag: q[1],
			Jmag: q[2], Kmag: q[3]})
	}
	if body.Mocap {
		body.MocapID = m.nmocap
		m.nmocap++
	}

	for _, f := range b.FreeJoints {
		body.Joints = append(body.Joints, m.newJoint(&Joint{Name: f.Name,
			Type: Free}))
	}
	for _, j := range b.Joints {
		joint := &Joint{
			Name:    j.Name,
			Type:    JointType(j.Type),
			Axis:    r3.Vec{Z: 1},
			Damping: defaults.damping,
			Limited: defaults.limited,
		}
		if joint.Type == "" {
			joint.Type = Hinge
		}
		if j.Axis != "" {
			if joint.Axis, err = parseVec(j.Axis); err != nil {
				return fmt.Errorf("addBody: joint %q: %v", j.Name, err)
			}
		}
		if j.Range != "" {
			if joint.Range, err = parseInterval(j.Range); err != nil {
				return fmt.Errorf("addBody: joint %q: %v", j.Name, err)
			}
		}
		if j.Limited != "" {
			joint.Limited = j.Limited == "true"
		}
		if j.Damping != "" {
			if joint.Damping, err = strconv.ParseFloat(j.Damping, 64); err != nil {
				return fmt.Errorf("addBody: joint %q: %v", j.Name, err)
			}
		}
		body.Joints = append(body.Joints, m.newJoint(joint))
	}

	for _, g := range b.Geoms {
		geom, err := parseGeom(g, defaults.contype)
		if err != nil {
			return fmt.Errorf("addBody: body %q: %v", b.Name, err)
		}
		body.Geoms = append(body.Geoms, geom)
	}

	for _, s := range b.Sites {
		site := &Site{Name: s.Name, Size: 0.005, RGBA: [4]float64{1, 0, 0, 1}}
		if s.Pos != "" {
			if site.Pos, err = parseVec(s.Pos); err != nil {
				return fmt.Errorf("addBody: site %q: %v", s.Name, err)
			}
		}
		if s.Size != "" {
			size, err := parseFloats(s.Size, -1)
			if err != nil || len(size) == 0 {
				return fmt.Errorf("addBody: site %q: invalid size", s.Name)
			}
			site.Size = size[0]
		}
		if s.RGBA != "" {
			if site.RGBA, err = parseRGBA(s.RGBA); err != nil {
				return fmt.Errorf("addBody: site %q: %v", s.Name, err)
			}
		}
		body.Sites = append(body.Sites, site)
	}

	id := len(m.Bodies)
	m.Bodies = append(m.Bodies, body)
	for _, child := range b.Bodies {
		if err := m.addBody(child, id, defaults); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) newJoint(j *Joint) *Joint {
	j.QPosAdr, j.QVelAdr = m.nq, m.nv
	m.nq += j.Type.QPosLen()
	m.nv += j.Type.QVelLen()
	return j
}

func parseGeom(g xmlGeom, contype int) (*Geom, error) {
	geom := &Geom{
		Name:     g.Name,
		Type:     g.Type,
		Friction: 1,
		Density:  1000,
		Contype:  contype,
		RGBA:     [4]float64{0.5, 0.5, 0.5, 1},
	}
	if geom.Type == "" {
		geom.Type = "sphere"
	}

	var err error
	if g.Pos != "" {
		if geom.Pos, err = parseVec(g.Pos); err != nil {
			return nil, fmt.Errorf("geom %q: %v", g.Name, err)
		}
	}
	if g.Size != "" {
		if geom.Size, err = parseFloats(g.Size, -1); err != nil {
			return nil, fmt.Errorf("geom %q: %v", g.Name, err)
		}
	}
	if g.Friction != "" {
		f, err := parseFloats(g.Friction, -1)
		if err != nil || len(f) == 0 {
			return nil, fmt.Errorf("geom %q: invalid friction", g.Name)
		}
		geom.Friction = f[0]
	}
	if g.Density != "" {
		if geom.Density, err = strconv.ParseFloat(g.Density, 64); err != nil {
			return nil, fmt.Errorf("geom %q: %v", g.Name, err)
		}
	}
	if g.Contype != "" {
		if geom.Contype, err = strconv.Atoi(g.Contype); err != nil {
			return nil, fmt.Errorf("geom %q: %v", g.Name, err)
		}
	}
	if g.RGBA != "" {
		if geom.RGBA, err = parseRGBA(g.RGBA); err != nil {
			return nil, fmt.Errorf("geom %q: %v", g.Name, err)
		}
	}
	return geom, nil
}

// Clone returns a deep copy of the model
func (m *Model) Clone() *Model {
	c := *m
	c.Bodies = make([]*Body, len(m.Bodies))
	for i, b := range m.Bodies {
		body := *b
		body.Joints = make([]*Joint, len(b.Joints))
		for j := range b.Joints {
			joint := *b.Joints[j]
			body.Joints[j] = &joint
		}
		body.Geoms = make([]*Geom, len(b.Geoms))
		for j := range b.Geoms {
			geom := *b.Geoms[j]
			geom.Size = append([]float64(nil), b.Geoms[j].Size...)
			body.Geoms[j] = &geom
		}
		body.Sites = make([]*Site, len(b.Sites))
		for j := range b.Sites {
			site := *b.Sites[j]
			body.Sites[j] = &site
		}
		c.Bodies[i] = &body
	}
	c.Actuators = append([]Actuator(nil), m.Actuators...)
	c.Welds = append([]Weld(nil), m.Welds...)
	return &c
}

// Dims returns the dimensions of the state and control vectors
func (m *Model) Dims() Dims {
	return Dims{NQ: m.nq, NV: m.nv, NU: len(m.Actuators), NMocap: m.nmocap}
}

// BodyID returns the index of the named body
func (m *Model) BodyID(name string) (int, error) {
	for i, b := range m.Bodies {
		if b.Name == name {
			return i, nil
		}
	}
	return -1, NotFound("body", name)
}

// Body returns the named body
func (m *Model) Body(name string) (*Body, error) {
	id, err := m.BodyID(name)
	if err != nil {
		return nil, err
	}
	return m.Bodies[id], nil
}

// Geom returns the named geom and the index of the body it is
// attached to
func (m *Model) Geom(name string) (*Geom, int, error) {
	for i, b := range m.Bodies {
		for _, g := range b.Geoms {
			if g.Name == name {
				return g, i, nil
			}
		}
	}
	return nil, -1, NotFound("geom", name)
}

// Site returns the named site and the index of the body it is
// attached to
func (m *Model) Site(name string) (*Site, int, error) {
	for i, b := range m.Bodies {
		for _, s := range b.Sites {
			if s.Name == name {
				return s, i, nil
			}
		}
	}
	return nil, -1, NotFound("site", name)
}

// Joint returns the named joint
func (m *Model) Joint(name string) (*Joint, error) {
	for _, b := range m.Bodies {
		for _, j := range b.Joints {
			if j.Name == name {
				return j, nil
			}
		}
	}
	return nil, NotFound("joint", name)
}

// InitQPos returns the generalized positions of the scene as loaded
func (m *Model) InitQPos() []float64 {
	qpos := make([]float64, m.nq)
	for i, b := range m.Bodies {
		for _, j := range b.Joints {
			switch j.Type {
			case Free:
				pos := m.WorldPos(i)
				q := b.Quat
				copy(qpos[j.QPosAdr:], []float64{pos.X, pos.Y, pos.Z, q.Real,
					q.Imag, q.Jmag, q.Kmag})
			case Ball:
				qpos[j.QPosAdr] = 1
			}
		}
	}
	return qpos
}

// WorldPos returns the world position of a body's frame in the scene
// as loaded, ignoring the orientations of its ancestors
func (m *Model) WorldPos(id int) r3.Vec {
	var pos r3.Vec
	for id >= 0 {
		pos = r3.Add(pos, m.Bodies[id].Pos)
		id = m.Bodies[id].Parent
	}
	return pos
}

// WeldedTo returns the name of the body that the named body is welded
// to, if any
func (m *Model) WeldedTo(body string) (string, bool) {
	for _, w := range m.Welds {
		if w.Body2 == body {
			return w.Body1, true
		}
	}
	return "", false
}

// IsDescendant returns whether body id descends from body ancestor
func (m *Model) IsDescendant(id, ancestor int) bool {
	for id >= 0 {
		if id == ancestor {
			return true
		}
		id = m.Bodies[id].Parent
	}
	return false
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if n >= 0 && len(fields) != n {
		return nil, fmt.Errorf("expected %v values, have(%v)", n, len(fields))
	}
	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func parseVec(s string) (r3.Vec, error) {
	v, err := parseFloats(s, 3)
	if err != nil {
		return r3.Vec{}, err
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

func parseInterval(s string) (r1.Interval, error) {
	v, err := parseFloats(s, 2)
	if err != nil {
		return r1.Interval{}, err
	}
	if v[0] > v[1] {
		return r1.Interval{}, fmt.Errorf("invalid range [%v, %v]", v[0], v[1])
	}
	return r1.Interval{Min: v[0], Max: v[1]}, nil
}

func parseRGBA(s string) ([4]float64, error) {
	var rgba [4]float64
	v, err := parseFloats(s, 4)
	if err != nil {
		return rgba, err
	}
	copy(rgba[:], v)
	return rgba, nil
}

// MJCF document structure, only the elements used by the engines are
// decoded
type xmlMujoco struct {
	XMLName xml.Name `xml:"mujoco"`
	Model   string   `xml:"model,attr"`
	Option  struct {
		Timestep string `xml:"timestep,attr"`
		Gravity  string `xml:"gravity,attr"`
	} `xml:"option"`
	Default struct {
		Joint struct {
			Limited string `xml:"limited,attr"`
			Damping string `xml:"damping,attr"`
		} `xml:"joint"`
		Geom struct {
			Contype string `xml:"contype,attr"`
		} `xml:"geom"`
	} `xml:"default"`
	Worldbody xmlBody `xml:"worldbody"`
	Equality  struct {
		Welds []struct {
			Body1 string `xml:"body1,attr"`
			Body2 string `xml:"body2,attr"`
		} `xml:"weld"`
	} `xml:"equality"`
	Actuator struct {
		Position []struct {
			Name      string `xml:"name,attr"`
			Joint     string `xml:"joint,attr"`
			Ctrlrange string `xml:"ctrlrange,attr"`
			Kp        string `xml:"kp,attr"`
		} `xml:"position"`
	} `xml:"actuator"`
}

type xmlBody struct {
	Name       string `xml:"name,attr"`
	Pos        string `xml:"pos,attr"`
	Quat       string `xml:"quat,attr"`
	Mocap      string `xml:"mocap,attr"`
	FreeJoints []struct {
		Name string `xml:"name,attr"`
	} `xml:"freejoint"`
	Joints []struct {
		Name    string `xml:"name,attr"`
		Type    string `xml:"type,attr"`
		Axis    string `xml:"axis,attr"`
		Range   string `xml:"range,attr"`
		Limited string `xml:"limited,attr"`
		Damping string `xml:"damping,attr"`
	} `xml:"joint"`
	Geoms []xmlGeom `xml:"geom"`
	Sites []struct {
		Name string `xml:"name,attr"`
		Pos  string `xml:"pos,attr"`
		Size string `xml:"size,attr"`
		RGBA string `xml:"rgba,attr"`
	} `xml:"site"`
	Bodies []xmlBody `xml:"body"`
}

type xmlGeom struct {
	Name     string `xml:"name,attr"`
	Type     string `xml:"type,attr"`
	Pos      string `xml:"pos,attr"`
	Size     string `xml:"size,attr"`
	Friction string `xml:"friction,attr"`
	Density  string `xml:"density,attr"`
	Contype  string `xml:"contype,attr"`
	RGBA     string `xml:"rgba,attr"`
}

// Movable returns whether a body is moved by the simulation rather
// than by the caller, that is whether it has a joint other than a
// free joint and no ancestor with a free joint
func (m *Model) Movable(id int) bool {
	b := m.Bodies[id]
	hasJoint := false
	for _, j := range b.Joints {
		if j.Type != Free {
			hasJoint = true
		}
	}
	if !hasJoint {
		return false
	}

	for id >= 0 {
		for _, j := range m.Bodies[id].Joints {
			if j.Type == Free {
				return false
			}
		}
		id = m.Bodies[id].Parent
	}
	return true
}
