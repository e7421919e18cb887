package metrics

import (
	"math"
	"testing"
)

func TestDivergence(t *testing.T) {
	d := NewDivergence(3, 2)

	d.Observe([]float64{1, 2, 3, 4, 5, 6})
	if d.Value() != 0 {
		t.Errorf("clean buffer: value = %v", d.Value())
	}

	d.Observe([]float64{1, 2, math.NaN(), 4, 5, 6})
	if d.Value() != 1 {
		t.Errorf("one bad env: value = %v", d.Value())
	}
	if !d.Diverged(1) || d.Diverged(0) || d.Diverged(2) {
		t.Error("wrong env flagged")
	}

	// divergence is sticky across observations
	d.Observe([]float64{1, 2, 3, 4, 5, 6})
	if d.Value() != 1 {
		t.Errorf("sticky: value = %v", d.Value())
	}

	d.Observe([]float64{math.Inf(1), 2, 3, 4, 5, math.Inf(-1)})
	if d.Value() != 3 {
		t.Errorf("all bad: value = %v", d.Value())
	}

	d.Reset()
	if d.Value() != 0 {
		t.Errorf("after reset: value = %v", d.Value())
	}

	if d.Diverged(-1) || d.Diverged(99) {
		t.Error("out-of-range Diverged should be false")
	}
}

func TestControlEffort(t *testing.T) {
	c := NewControlEffort()

	if c.Value() != 0 {
		t.Errorf("no samples: value = %v", c.Value())
	}

	c.Observe([]float64{3, 4})
	if c.Value() != 25 {
		t.Errorf("value = %v, want 25", c.Value())
	}

	c.Observe([]float64{0, 0})
	if c.Value() != 12.5 {
		t.Errorf("value = %v, want 12.5", c.Value())
	}

	c.Reset()
	if c.Value() != 0 {
		t.Errorf("after reset: value = %v", c.Value())
	}
}

func TestSpread(t *testing.T) {
	s := NewSpread(2)

	s.Observe([]float64{1, 1, 1, 1})
	if s.Value() != 0 {
		t.Errorf("lockstep: value = %v", s.Value())
	}

	s.Observe([]float64{0, 0, 2, 2})
	if s.Value() != 2 {
		t.Errorf("value = %v, want 2", s.Value())
	}

	// keeps the maximum, not the latest
	s.Observe([]float64{0, 0, 1, 1})
	if s.Value() != 2 {
		t.Errorf("value = %v, want max 2", s.Value())
	}

	s.Reset()
	if s.Value() != 0 {
		t.Errorf("after reset: value = %v", s.Value())
	}
}

func TestMetricNames(t *testing.T) {
	tests := []struct {
		m    Metric
		want string
	}{
		{NewDivergence(1, 1), "divergence"},
		{NewControlEffort(), "control_effort"},
		{NewSpread(1), "spread"},
	}

	for _, tt := range tests {
		if got := tt.m.Name(); got != tt.want {
			t.Errorf("name = %q, want %q", got, tt.want)
		}
	}
}
