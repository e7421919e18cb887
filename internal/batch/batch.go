package batch

import (
	"fmt"
	"runtime"

	"github.com/arghyasur1991/mujoco-unity/internal/engine"
)

// Config sizes and tunes a batch at creation time. NumEnvs is fixed
// for the batch's lifetime.
type Config struct {
	// NumEnvs is the number of independent environments. Must be > 0.
	NumEnvs int

	// SolverIterations, when positive, overrides the model's solver
	// iteration count once at creation, before any step.
	SolverIterations int

	// Workers bounds the Step fan-out. 0 means GOMAXPROCS.
	Workers int

	// Strict surfaces contract violations (short buffers, bad masks,
	// out-of-range indices) as errors instead of silently truncating.
	Strict bool
}

// Batch owns N environment slots bound to one shared model, plus one
// preallocated gather buffer per exported field.
type Batch struct {
	model   *engine.Model
	envs    []*engine.Data
	buffers [][]float64 // indexed by engine.Field
	workers int
	strict  bool
}

// New allocates a batch of cfg.NumEnvs environments, each initialized
// to the model's default state. On any failure the partially built
// batch is released before the error is returned.
func New(m *engine.Model, cfg Config) (*Batch, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	if cfg.NumEnvs <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidEnvCount, cfg.NumEnvs)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	b := &Batch{
		model:   m,
		envs:    make([]*engine.Data, 0, cfg.NumEnvs),
		workers: workers,
		strict:  cfg.Strict,
	}
	for i := 0; i < cfg.NumEnvs; i++ {
		d := m.MakeData()
		if d == nil {
			b.Close()
			return nil, fmt.Errorf("batch: allocating environment %d failed", i)
		}
		b.envs = append(b.envs, d)
	}

	// One-time configuration override, strictly before the first step.
	if cfg.SolverIterations > 0 {
		m.SetSolverIterations(cfg.SolverIterations)
	}

	b.buffers = make([][]float64, len(engine.Fields()))
	for _, f := range engine.Fields() {
		b.buffers[f] = make([]float64, cfg.NumEnvs*f.Dim(m))
	}

	return b, nil
}

// Close releases every environment slot and all gather buffers. Safe
// to call on a nil or already-closed batch; must not overlap an
// in-flight Step.
func (b *Batch) Close() {
	if b == nil {
		return
	}
	b.envs = nil
	b.buffers = nil
}

func (b *Batch) closed() bool { return b.envs == nil }

// NumEnvs returns the environment count, 0 after Close.
func (b *Batch) NumEnvs() int { return len(b.envs) }

// Model returns the shared model handle.
func (b *Batch) Model() *engine.Model { return b.model }

// Env returns the live state of environment i for out-of-band access,
// or nil if i is out of range or the batch is closed.
func (b *Batch) Env(i int) *engine.Data {
	if i < 0 || i >= len(b.envs) {
		return nil
	}
	return b.envs[i]
}

// Reset reinitializes every environment i with mask[i] true to the
// model's default state; all other slots are left untouched. Entries
// beyond the environment count are ignored. In strict mode the mask
// length must equal NumEnvs.
func (b *Batch) Reset(mask []bool) error {
	if b.closed() {
		return ErrClosed
	}
	if b.strict && len(mask) != len(b.envs) {
		return fmt.Errorf("%w: got %d, want %d", ErrBadMask, len(mask), len(b.envs))
	}
	n := len(mask)
	if n > len(b.envs) {
		n = len(b.envs)
	}
	for i := 0; i < n; i++ {
		if mask[i] {
			b.envs[i].Reset()
		}
	}
	return nil
}

// Gather copies field f from every environment into the field's
// scratch buffer, environment-major, and returns it. The buffer has
// length NumEnvs * f.Dim(model) and is fully overwritten on every
// call; it stays valid only until the next Step, Reset or Gather of
// the same field.
func (b *Batch) Gather(f engine.Field) ([]float64, error) {
	if b.closed() {
		return nil, ErrClosed
	}
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrBadField, f)
	}
	dim := f.Dim(b.model)
	buf := b.buffers[f]
	for i, d := range b.envs {
		copy(buf[i*dim:(i+1)*dim], d.FieldView(f))
	}
	return buf, nil
}

// SetEnvField scatters values into field f of environment i only,
// bypassing the batched path. The copy truncates to
// min(len(values), f.Dim(model)) and an out-of-range i is a no-op. In
// strict mode both become errors.
func (b *Batch) SetEnvField(i int, f engine.Field, values []float64) error {
	if b.closed() {
		return ErrClosed
	}
	if !f.Valid() {
		return fmt.Errorf("%w: %d", ErrBadField, f)
	}
	if i < 0 || i >= len(b.envs) {
		if b.strict {
			return fmt.Errorf("%w: %d of %d", ErrBadEnvIndex, i, len(b.envs))
		}
		return nil
	}
	dst := b.envs[i].FieldView(f)
	if b.strict && len(values) < len(dst) {
		return fmt.Errorf("%w: field %s wants %d values, got %d", ErrShortValues, f, len(dst), len(values))
	}
	n := len(values)
	if n > len(dst) {
		n = len(dst)
	}
	copy(dst[:n], values[:n])
	return nil
}
