package batch

import (
	"fmt"
	"sync"
)

// Step advances all environments by one timestep. controls is flat and
// environment-major with length NumEnvs * nu: environment i's control
// slice is controls[i*nu : (i+1)*nu]. A shorter buffer fails the whole
// call before any environment advances; in strict mode a longer buffer
// fails too.
//
// The N advances run as independent units of work over a bounded
// worker fan-out with no shared mutable state besides the read-only
// model. Step returns only after every environment has completed, so
// scheduling order can never be observed.
func (b *Batch) Step(controls []float64) error {
	if b.closed() {
		return ErrClosed
	}
	nu := b.model.Nu()
	need := len(b.envs) * nu
	if len(controls) < need {
		return fmt.Errorf("%w: got %d, want %d", ErrShortControls, len(controls), need)
	}
	if b.strict && len(controls) != need {
		return fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(controls), need)
	}

	parallelFor(len(b.envs), b.workers, func(i int) {
		d := b.envs[i]
		d.SetCtrl(controls[i*nu : (i+1)*nu])
		d.Step()
	})
	return nil
}

// parallelFor runs fn(i) for i in [0, n) across at most workers
// goroutines, each owning a contiguous chunk, and joins before
// returning.
func parallelFor(n, workers int, fn func(i int)) {
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
