package engine

// Field identifies one exported state array. Every field has a fixed
// per-environment dimension derived from model constants, looked up
// through a single table rather than one accessor per field.
type Field int

const (
	FieldQpos Field = iota
	FieldQvel
	FieldCtrl
	FieldXpos
	FieldXipos
	FieldSubtreeCom
	FieldXquat
	FieldCvel
	FieldCfrcExt
	FieldXfrcApplied
	FieldCinert
	FieldQfrcActuator
	FieldActuatorForce
	numFields
)

type fieldSpec struct {
	name string
	dim  func(*Model) int
	view func(*Data) []float64
}

var fieldTable = [numFields]fieldSpec{
	FieldQpos:          {"qpos", func(m *Model) int { return m.nq }, func(d *Data) []float64 { return d.Qpos }},
	FieldQvel:          {"qvel", func(m *Model) int { return m.nv }, func(d *Data) []float64 { return d.Qvel }},
	FieldCtrl:          {"ctrl", func(m *Model) int { return m.nu }, func(d *Data) []float64 { return d.Ctrl }},
	FieldXpos:          {"xpos", func(m *Model) int { return m.nbody * 3 }, func(d *Data) []float64 { return d.Xpos }},
	FieldXipos:         {"xipos", func(m *Model) int { return m.nbody * 3 }, func(d *Data) []float64 { return d.Xipos }},
	FieldSubtreeCom:    {"subtree_com", func(m *Model) int { return m.nbody * 3 }, func(d *Data) []float64 { return d.SubtreeCom }},
	FieldXquat:         {"xquat", func(m *Model) int { return m.nbody * 4 }, func(d *Data) []float64 { return d.Xquat }},
	FieldCvel:          {"cvel", func(m *Model) int { return m.nbody * 6 }, func(d *Data) []float64 { return d.Cvel }},
	FieldCfrcExt:       {"cfrc_ext", func(m *Model) int { return m.nbody * 6 }, func(d *Data) []float64 { return d.CfrcExt }},
	FieldXfrcApplied:   {"xfrc_applied", func(m *Model) int { return m.nbody * 6 }, func(d *Data) []float64 { return d.XfrcApplied }},
	FieldCinert:        {"cinert", func(m *Model) int { return m.nbody * 10 }, func(d *Data) []float64 { return d.Cinert }},
	FieldQfrcActuator:  {"qfrc_actuator", func(m *Model) int { return m.nv }, func(d *Data) []float64 { return d.QfrcActuator }},
	FieldActuatorForce: {"actuator_force", func(m *Model) int { return m.nu }, func(d *Data) []float64 { return d.ActuatorForce }},
}

// Fields returns every registered field in declaration order.
func Fields() []Field {
	fs := make([]Field, numFields)
	for i := range fs {
		fs[i] = Field(i)
	}
	return fs
}

// Valid reports whether f names a registered field.
func (f Field) Valid() bool {
	return f >= 0 && f < numFields
}

func (f Field) String() string {
	if !f.Valid() {
		return "invalid"
	}
	return fieldTable[f].name
}

// Dim returns the per-environment dimension of f for model m.
func (f Field) Dim(m *Model) int {
	if !f.Valid() {
		return 0
	}
	return fieldTable[f].dim(m)
}

// FieldByName resolves a field name such as "qpos" or "cfrc_ext".
func FieldByName(name string) (Field, bool) {
	for f, spec := range fieldTable {
		if spec.name == name {
			return Field(f), true
		}
	}
	return Field(-1), false
}

// FieldView returns the live slice backing field f. The view aliases
// the environment's state: it is rewritten by Step and Reset, and
// writes through it feed the next step. Invalid f returns nil.
func (d *Data) FieldView(f Field) []float64 {
	if !f.Valid() {
		return nil
	}
	return fieldTable[f].view(d)
}
