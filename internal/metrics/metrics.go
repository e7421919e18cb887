// Package metrics provides rollout metrics computed from gathered
// batch buffers. Each metric observes one environment-major buffer per
// step and accumulates a scalar summary.
package metrics

import "math"

type Metric interface {
	Name() string
	Observe(buf []float64)
	Value() float64
	Reset()
}

// Divergence counts environments that have ever produced a non-finite
// value in the observed field.
type Divergence struct {
	name      string
	perEnvDim int
	diverged  []bool
}

func NewDivergence(numEnvs, perEnvDim int) *Divergence {
	return &Divergence{
		name:      "divergence",
		perEnvDim: perEnvDim,
		diverged:  make([]bool, numEnvs),
	}
}

func (d *Divergence) Name() string { return d.name }

func (d *Divergence) Observe(buf []float64) {
	for i := range d.diverged {
		if d.diverged[i] {
			continue
		}
		lo := i * d.perEnvDim
		hi := lo + d.perEnvDim
		if hi > len(buf) {
			break
		}
		for _, v := range buf[lo:hi] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				d.diverged[i] = true
				break
			}
		}
	}
}

func (d *Divergence) Value() float64 {
	n := 0
	for _, bad := range d.diverged {
		if bad {
			n++
		}
	}
	return float64(n)
}

func (d *Divergence) Reset() {
	for i := range d.diverged {
		d.diverged[i] = false
	}
}

// Diverged reports whether environment i has diverged so far, e.g. to
// build a reset mask.
func (d *Divergence) Diverged(i int) bool {
	if i < 0 || i >= len(d.diverged) {
		return false
	}
	return d.diverged[i]
}

// ControlEffort accumulates the mean squared magnitude of observed
// control buffers.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{name: "control_effort"}
}

func (c *ControlEffort) Name() string { return c.name }

func (c *ControlEffort) Observe(buf []float64) {
	for _, v := range buf {
		c.sum += v * v
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// Spread tracks the largest gap seen between per-environment means of
// the observed field: zero for a batch in lockstep, growing as
// environments drift apart.
type Spread struct {
	name      string
	perEnvDim int
	max       float64
}

func NewSpread(perEnvDim int) *Spread {
	return &Spread{name: "spread", perEnvDim: perEnvDim}
}

func (s *Spread) Name() string { return s.name }

func (s *Spread) Observe(buf []float64) {
	if s.perEnvDim <= 0 {
		return
	}
	n := len(buf) / s.perEnvDim
	if n == 0 {
		return
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		sum := 0.0
		for _, v := range buf[i*s.perEnvDim : (i+1)*s.perEnvDim] {
			sum += v
		}
		mean := sum / float64(s.perEnvDim)
		lo = math.Min(lo, mean)
		hi = math.Max(hi, mean)
	}
	if gap := hi - lo; gap > s.max {
		s.max = gap
	}
}

func (s *Spread) Value() float64 { return s.max }

func (s *Spread) Reset() { s.max = 0 }
