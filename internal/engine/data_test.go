package engine

import (
	"math"
	"testing"
)

func TestMakeDataDefaultState(t *testing.T) {
	spec := pendulumSpec()
	spec.Bodies[0].Joint.Ref = 0.3
	m, err := New(spec)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	d := m.MakeData()
	if d.Qpos[0] != 0.3 {
		t.Errorf("expected qpos at reference 0.3, got %v", d.Qpos[0])
	}
	if d.Qvel[0] != 0 || d.Ctrl[0] != 0 {
		t.Errorf("expected zero qvel/ctrl, got %v, %v", d.Qvel[0], d.Ctrl[0])
	}
	if d.Time != 0 {
		t.Errorf("expected zero time, got %v", d.Time)
	}
	for _, f := range Fields() {
		view := d.FieldView(f)
		if len(view) != f.Dim(m) {
			t.Errorf("field %s: view length %d, want %d", f, len(view), f.Dim(m))
		}
		if !allFinite(view) {
			t.Errorf("field %s: non-finite default values", f)
		}
	}
}

func TestResetRestoresDefault(t *testing.T) {
	m, err := New(cartpoleSpec())
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	d := m.MakeData()
	want := m.MakeData()

	d.SetQpos([]float64{1.5, -0.7})
	d.SetQvel([]float64{2.0, 3.0})
	d.SetCtrl([]float64{0.5})
	for i := 0; i < 20; i++ {
		d.Step()
	}

	d.Reset()

	for _, f := range Fields() {
		got, ref := d.FieldView(f), want.FieldView(f)
		for i := range got {
			if got[i] != ref[i] {
				t.Fatalf("field %s[%d]: got %v, want %v after reset", f, i, got[i], ref[i])
			}
		}
	}
	if d.Time != 0 {
		t.Errorf("expected zero time after reset, got %v", d.Time)
	}
}

func TestTruncatingSetters(t *testing.T) {
	m, err := New(cartpoleSpec())
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	d := m.MakeData()

	// short source: only leading elements copied
	d.Qpos[0], d.Qpos[1] = 9, 9
	d.SetQpos([]float64{1.0})
	if d.Qpos[0] != 1.0 || d.Qpos[1] != 9 {
		t.Errorf("short copy: got %v", d.Qpos)
	}

	// long source: extra elements ignored, no out-of-bounds write
	d.SetQvel([]float64{1, 2, 3, 4, 5})
	if d.Qvel[0] != 1 || d.Qvel[1] != 2 {
		t.Errorf("long copy: got %v", d.Qvel)
	}

	// empty source: no-op
	before := d.Qpos[0]
	d.SetQpos(nil)
	if d.Qpos[0] != before {
		t.Error("nil copy modified state")
	}
}

func TestScalarSetters(t *testing.T) {
	m, err := New(cartpoleSpec())
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	d := m.MakeData()

	d.SetQposAt(1, 0.25)
	if d.Qpos[1] != 0.25 {
		t.Errorf("SetQposAt: got %v", d.Qpos[1])
	}

	d.SetQvelAt(0, -1.5)
	if d.Qvel[0] != -1.5 {
		t.Errorf("SetQvelAt: got %v", d.Qvel[0])
	}

	d.SetCtrlAt(0, 0.8)
	if d.Ctrl[0] != 0.8 {
		t.Errorf("SetCtrlAt: got %v", d.Ctrl[0])
	}

	// out-of-range indices are no-ops
	d.SetQposAt(-1, 99)
	d.SetQposAt(2, 99)
	d.SetCtrlAt(1, 99)
	for _, v := range d.Qpos {
		if v == 99 {
			t.Error("out-of-range SetQposAt wrote")
		}
	}
}

func TestWarningsOnDivergence(t *testing.T) {
	m, err := New(pendulumSpec())
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	d := m.MakeData()

	d.SetCtrl([]float64{math.NaN()})
	d.Step()

	if d.WarningCount(WarnBadCtrl) == 0 {
		t.Error("expected a bad-ctrl warning")
	}
	if d.WarningCount(WarnBadQvel) == 0 {
		t.Error("expected NaN control to poison qvel")
	}

	// divergence is state, not an error: stepping continues
	d.Step()

	d.Reset()
	if d.WarningCount(WarnBadCtrl) != 0 || d.WarningCount(WarnBadQvel) != 0 {
		t.Error("reset should clear warnings")
	}
	if !allFinite(d.Qpos) {
		t.Error("reset should restore finite state")
	}

	if d.WarningCount(-1) != 0 || d.WarningCount(numWarnings) != 0 {
		t.Error("out-of-range warning index should report 0")
	}
}
