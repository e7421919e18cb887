package engine

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimestep         = 0.002
	DefaultGravity          = -9.81
	DefaultSolverIterations = 10
	DefaultGear             = 1.0

	// minInertia keeps the effective dof inertia away from zero for
	// massless or zero-offset bodies.
	minInertia = 1e-9
)

// JointType selects the single degree of freedom a body moves in.
type JointType int

const (
	Hinge JointType = iota // rotation about axis
	Slide                  // translation along axis
)

func (t JointType) String() string {
	switch t {
	case Hinge:
		return "hinge"
	case Slide:
		return "slide"
	}
	return "unknown"
}

// ModelSpec is the YAML-facing description of a model. Compile it with
// [New].
type ModelSpec struct {
	Name             string         `yaml:"name"`
	Timestep         float64        `yaml:"timestep"`
	Gravity          float64        `yaml:"gravity"`
	SolverIterations int            `yaml:"solver_iterations"`
	Bodies           []BodySpec     `yaml:"bodies"`
	Actuators        []ActuatorSpec `yaml:"actuators"`
}

type BodySpec struct {
	Name   string    `yaml:"name"`
	Parent string    `yaml:"parent"` // empty = world
	Mass   float64   `yaml:"mass"`
	Pos    []float64 `yaml:"pos"`  // frame origin in parent frame
	IPos   []float64 `yaml:"ipos"` // center of mass in body frame
	Joint  JointSpec `yaml:"joint"`
}

type JointSpec struct {
	Name      string    `yaml:"name"`
	Type      string    `yaml:"type"` // "hinge" or "slide"
	Axis      []float64 `yaml:"axis"`
	Damping   float64   `yaml:"damping"`
	Stiffness float64   `yaml:"stiffness"`
	Armature  float64   `yaml:"armature"`
	Ref       float64   `yaml:"ref"` // default joint position
}

type ActuatorSpec struct {
	Name  string  `yaml:"name"`
	Joint string  `yaml:"joint"`
	Gear  float64 `yaml:"gear"`
}

// Info reports the dimensionality constants of a compiled model.
type Info struct {
	Nq    int
	Nv    int
	Nu    int
	Nbody int
	Njnt  int
}

// Model is a compiled, immutable topology shared by all environments
// of a batch. The solver iteration count is the one field that may be
// overridden, once, before any stepping starts.
type Model struct {
	name     string
	timestep float64
	gravity  float64
	solIters int

	nq, nv, nu, nbody, njnt int

	// per body; index 0 is the fixed world body
	bodyName []string
	parent   []int
	mass     []float64
	bodyPos  []mgl64.Vec3
	ipos     []mgl64.Vec3
	inertia  []float64 // effective dof inertia incl. armature

	// per joint; joint j belongs to body j+1
	jntName   []string
	jntType   []JointType
	axis      []mgl64.Vec3
	damping   []float64
	stiffness []float64
	qpos0     []float64

	// per actuator
	actName  []string
	actJoint []int
	gear     []float64

	bodyID map[string]int
	jntID  map[string]int
	actID  map[string]int
}

// Load reads a YAML model spec from disk and compiles it.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadString(string(data))
}

// LoadString compiles a model from YAML text.
func LoadString(text string) (*Model, error) {
	var spec ModelSpec
	if err := yaml.Unmarshal([]byte(text), &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return New(spec)
}

// New compiles and validates a spec into an immutable Model.
func New(spec ModelSpec) (*Model, error) {
	if len(spec.Bodies) == 0 {
		return nil, fmt.Errorf("%w: no bodies", ErrInvalidSpec)
	}

	njnt := len(spec.Bodies)
	m := &Model{
		name:     spec.Name,
		timestep: spec.Timestep,
		gravity:  spec.Gravity,
		solIters: spec.SolverIterations,
		nq:       njnt,
		nv:       njnt,
		nu:       len(spec.Actuators),
		nbody:    njnt + 1,
		njnt:     njnt,
		bodyID:   make(map[string]int),
		jntID:    make(map[string]int),
		actID:    make(map[string]int),
	}
	if m.timestep <= 0 {
		m.timestep = DefaultTimestep
	}
	if m.gravity == 0 {
		m.gravity = DefaultGravity
	}
	if m.solIters <= 0 {
		m.solIters = DefaultSolverIterations
	}

	m.bodyName = make([]string, m.nbody)
	m.parent = make([]int, m.nbody)
	m.mass = make([]float64, m.nbody)
	m.bodyPos = make([]mgl64.Vec3, m.nbody)
	m.ipos = make([]mgl64.Vec3, m.nbody)
	m.inertia = make([]float64, m.nbody)
	m.bodyName[0] = "world"
	m.bodyID["world"] = 0

	m.jntName = make([]string, njnt)
	m.jntType = make([]JointType, njnt)
	m.axis = make([]mgl64.Vec3, njnt)
	m.damping = make([]float64, njnt)
	m.stiffness = make([]float64, njnt)
	m.qpos0 = make([]float64, njnt)

	for i, bs := range spec.Bodies {
		b := i + 1
		if bs.Name == "" {
			return nil, fmt.Errorf("%w: body %d has no name", ErrInvalidSpec, i)
		}
		if _, ok := m.bodyID[bs.Name]; ok {
			return nil, fmt.Errorf("%w: body %q", ErrDuplicateName, bs.Name)
		}
		if bs.Mass <= 0 {
			return nil, fmt.Errorf("%w: body %q mass must be positive", ErrInvalidSpec, bs.Name)
		}
		m.bodyID[bs.Name] = b
		m.bodyName[b] = bs.Name
		m.mass[b] = bs.Mass

		var err error
		if m.bodyPos[b], err = vec3(bs.Pos, mgl64.Vec3{}); err != nil {
			return nil, fmt.Errorf("%w: body %q pos: %v", ErrInvalidSpec, bs.Name, err)
		}
		if m.ipos[b], err = vec3(bs.IPos, mgl64.Vec3{}); err != nil {
			return nil, fmt.Errorf("%w: body %q ipos: %v", ErrInvalidSpec, bs.Name, err)
		}

		js := bs.Joint
		jname := js.Name
		if jname == "" {
			jname = bs.Name + "_joint"
		}
		if _, ok := m.jntID[jname]; ok {
			return nil, fmt.Errorf("%w: joint %q", ErrDuplicateName, jname)
		}
		m.jntID[jname] = i
		m.jntName[i] = jname

		switch js.Type {
		case "", "hinge":
			m.jntType[i] = Hinge
		case "slide":
			m.jntType[i] = Slide
		default:
			return nil, fmt.Errorf("%w: %q on joint %q", ErrUnknownJointType, js.Type, jname)
		}

		ax, err := vec3(js.Axis, mgl64.Vec3{0, 0, 1})
		if err != nil {
			return nil, fmt.Errorf("%w: joint %q axis: %v", ErrInvalidSpec, jname, err)
		}
		if ax.Len() == 0 {
			return nil, fmt.Errorf("%w: joint %q axis is zero", ErrInvalidSpec, jname)
		}
		m.axis[i] = ax.Normalize()

		if js.Damping < 0 || js.Stiffness < 0 || js.Armature < 0 {
			return nil, fmt.Errorf("%w: joint %q has negative parameter", ErrInvalidSpec, jname)
		}
		m.damping[i] = js.Damping
		m.stiffness[i] = js.Stiffness
		m.qpos0[i] = js.Ref

		switch m.jntType[i] {
		case Hinge:
			r2 := m.ipos[b].LenSqr()
			m.inertia[b] = js.Armature + bs.Mass*r2
		case Slide:
			m.inertia[b] = js.Armature + bs.Mass
		}
		if m.inertia[b] < minInertia {
			m.inertia[b] = minInertia
		}
	}

	// Resolve parents after all bodies are named so order in the spec
	// does not matter, then reject non-tree links.
	for i, bs := range spec.Bodies {
		b := i + 1
		if bs.Parent == "" {
			m.parent[b] = 0
			continue
		}
		p, ok := m.bodyID[bs.Parent]
		if !ok {
			return nil, fmt.Errorf("%w: body %q parent %q", ErrUnknownName, bs.Name, bs.Parent)
		}
		if p >= b {
			return nil, fmt.Errorf("%w: body %q must be declared after parent %q", ErrInvalidSpec, bs.Name, bs.Parent)
		}
		m.parent[b] = p
	}

	m.actName = make([]string, m.nu)
	m.actJoint = make([]int, m.nu)
	m.gear = make([]float64, m.nu)
	for i, as := range spec.Actuators {
		name := as.Name
		if name == "" {
			name = fmt.Sprintf("actuator%d", i)
		}
		if _, ok := m.actID[name]; ok {
			return nil, fmt.Errorf("%w: actuator %q", ErrDuplicateName, name)
		}
		j, ok := m.jntID[as.Joint]
		if !ok {
			return nil, fmt.Errorf("%w: actuator %q joint %q", ErrUnknownName, name, as.Joint)
		}
		m.actID[name] = i
		m.actName[i] = name
		m.actJoint[i] = j
		m.gear[i] = as.Gear
		if m.gear[i] == 0 {
			m.gear[i] = DefaultGear
		}
	}

	return m, nil
}

func vec3(v []float64, def mgl64.Vec3) (mgl64.Vec3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return mgl64.Vec3{v[0], v[1], v[2]}, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("want 3 elements, got %d", len(v))
}

func (m *Model) Name() string { return m.name }

func (m *Model) Info() Info {
	return Info{Nq: m.nq, Nv: m.nv, Nu: m.nu, Nbody: m.nbody, Njnt: m.njnt}
}

func (m *Model) Nq() int    { return m.nq }
func (m *Model) Nv() int    { return m.nv }
func (m *Model) Nu() int    { return m.nu }
func (m *Model) Nbody() int { return m.nbody }
func (m *Model) Njnt() int  { return m.njnt }

func (m *Model) Timestep() float64 { return m.timestep }

// SetTimestep changes the integration timestep. Must not be called
// while any environment bound to this model is stepping.
func (m *Model) SetTimestep(dt float64) {
	if dt > 0 {
		m.timestep = dt
	}
}

func (m *Model) SolverIterations() int { return m.solIters }

// SetSolverIterations overrides the solver iteration count. Intended
// as a one-time configuration override before the first step.
func (m *Model) SetSolverIterations(n int) {
	if n > 0 {
		m.solIters = n
	}
}

func (m *Model) Gravity() float64 { return m.gravity }

// BodyMass returns the mass of body id, or 0 if id is out of range.
func (m *Model) BodyMass(id int) float64 {
	if id < 0 || id >= m.nbody {
		return 0
	}
	return m.mass[id]
}

// DefaultQpos returns a copy of the default joint configuration.
func (m *Model) DefaultQpos() []float64 {
	q := make([]float64, m.nq)
	copy(q, m.qpos0)
	return q
}

func (m *Model) BodyID(name string) (int, bool) {
	id, ok := m.bodyID[name]
	return id, ok
}

func (m *Model) JointID(name string) (int, bool) {
	id, ok := m.jntID[name]
	return id, ok
}

func (m *Model) ActuatorID(name string) (int, bool) {
	id, ok := m.actID[name]
	return id, ok
}

// BodyName returns the name of body id, or "" if out of range.
func (m *Model) BodyName(id int) string {
	if id < 0 || id >= m.nbody {
		return ""
	}
	return m.bodyName[id]
}

// JointName returns the name of joint id, or "" if out of range.
func (m *Model) JointName(id int) string {
	if id < 0 || id >= m.njnt {
		return ""
	}
	return m.jntName[id]
}
