package engine

// Warning indices tracked per environment. Counters accumulate across
// steps and reset with the state.
const (
	WarnBadQpos = iota // non-finite position after a step
	WarnBadQvel        // non-finite velocity after a step
	WarnBadCtrl        // non-finite control seen by a step
	numWarnings
)

// Data holds the complete mutable state of one environment. All field
// slices are live views: writes are visible to the next Step, and
// Step/Reset rewrite them in place. A Data is bound to its model for
// life and must outlive no model.
type Data struct {
	model *Model

	Time float64

	Qpos []float64 // nq
	Qvel []float64 // nv
	Ctrl []float64 // nu

	QfrcActuator  []float64 // nv, actuation force in joint space
	ActuatorForce []float64 // nu, per-actuator scalar force
	XfrcApplied   []float64 // nbody*6, caller-applied [force, torque]

	// derived by forward kinematics
	Xpos       []float64 // nbody*3, body frame origins
	Xquat      []float64 // nbody*4, body orientations [w,x,y,z]
	Xipos      []float64 // nbody*3, body centers of mass
	SubtreeCom []float64 // nbody*3, mass-weighted subtree COM
	Cvel       []float64 // nbody*6, spatial velocity [angular, linear]
	Cinert     []float64 // nbody*10, packed inertial row
	CfrcExt    []float64 // nbody*6, external [torque, force]

	warnings [numWarnings]int

	// forward-pass scratch, reused every step
	subMass []float64
	subMom  []float64
}

// MakeData allocates a fresh environment initialized to the model's
// default configuration, with derived quantities already computed.
func (m *Model) MakeData() *Data {
	d := &Data{
		model:         m,
		Qpos:          make([]float64, m.nq),
		Qvel:          make([]float64, m.nv),
		Ctrl:          make([]float64, m.nu),
		QfrcActuator:  make([]float64, m.nv),
		ActuatorForce: make([]float64, m.nu),
		XfrcApplied:   make([]float64, m.nbody*6),
		Xpos:          make([]float64, m.nbody*3),
		Xquat:         make([]float64, m.nbody*4),
		Xipos:         make([]float64, m.nbody*3),
		SubtreeCom:    make([]float64, m.nbody*3),
		Cvel:          make([]float64, m.nbody*6),
		Cinert:        make([]float64, m.nbody*10),
		CfrcExt:       make([]float64, m.nbody*6),
		subMass:       make([]float64, m.nbody),
		subMom:        make([]float64, m.nbody*3),
	}
	d.Reset()
	return d
}

// Model returns the shared model this environment is bound to.
func (d *Data) Model() *Model { return d.model }

// Reset restores the default state: qpos at the model reference
// configuration, everything else zero, derived fields recomputed.
func (d *Data) Reset() {
	copy(d.Qpos, d.model.qpos0)
	zero(d.Qvel)
	zero(d.Ctrl)
	zero(d.QfrcActuator)
	zero(d.ActuatorForce)
	zero(d.XfrcApplied)
	d.Time = 0
	for i := range d.warnings {
		d.warnings[i] = 0
	}
	d.forward()
}

// WarningCount reports how many times warning w fired since the last
// reset. Out-of-range w reports 0.
func (d *Data) WarningCount(w int) int {
	if w < 0 || w >= numWarnings {
		return 0
	}
	return d.warnings[w]
}

// SetQpos copies min(len(values), nq) elements into the position
// vector. The remainder is left untouched.
func (d *Data) SetQpos(values []float64) { truncCopy(d.Qpos, values) }

// SetQvel copies min(len(values), nv) elements into the velocity
// vector.
func (d *Data) SetQvel(values []float64) { truncCopy(d.Qvel, values) }

// SetCtrl copies min(len(values), nu) elements into the control
// vector.
func (d *Data) SetCtrl(values []float64) { truncCopy(d.Ctrl, values) }

// SetXfrcApplied copies min(len(values), nbody*6) elements into the
// applied-force array.
func (d *Data) SetXfrcApplied(values []float64) { truncCopy(d.XfrcApplied, values) }

// SetQposAt writes one position element. Out-of-range index is a
// no-op.
func (d *Data) SetQposAt(index int, value float64) {
	if index >= 0 && index < len(d.Qpos) {
		d.Qpos[index] = value
	}
}

// SetQvelAt writes one velocity element. Out-of-range index is a
// no-op.
func (d *Data) SetQvelAt(index int, value float64) {
	if index >= 0 && index < len(d.Qvel) {
		d.Qvel[index] = value
	}
}

// SetCtrlAt writes one control element. Out-of-range index is a
// no-op.
func (d *Data) SetCtrlAt(index int, value float64) {
	if index >= 0 && index < len(d.Ctrl) {
		d.Ctrl[index] = value
	}
}

func truncCopy(dst, src []float64) {
	n := len(src)
	if n > len(dst) {
		n = len(dst)
	}
	copy(dst[:n], src[:n])
}

func zero(s []float64) {
	for i := range s {
		s[i] = 0
	}
}
