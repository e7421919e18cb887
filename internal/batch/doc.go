// Package batch steps many independent environments of one model in
// parallel and flattens their state into contiguous, environment-major
// buffers.
//
// A [Batch] owns N [engine.Data] slots bound to a shared, read-only
// [engine.Model]. Step fans the N advances out over a bounded set of
// workers and returns only after every environment has completed, so a
// Gather immediately after a Step always observes post-step state for
// all environments.
//
// # Example
//
//	b, _ := batch.New(m, batch.Config{NumEnvs: 64})
//	defer b.Close()
//	b.Step(controls)              // len(controls) == 64*nu
//	qpos, _ := b.Gather(engine.FieldQpos)
//
// # Thread Safety
//
// Step, Reset, Gather and SetEnvField must not overlap on the same
// Batch; the caller serializes them. The batch takes no internal locks
// by design. Gather results are scratch: valid only until the next
// Step, Reset or Gather of the same field.
package batch
