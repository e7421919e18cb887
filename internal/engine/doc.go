// Package engine implements a compact articulated-chain physics engine.
//
// The package defines the two core resources of a simulation:
//
//   - [Model]: immutable topology and parameters, compiled once from a
//     [ModelSpec] and shared by any number of environments
//   - [Data]: one environment's mutable state (positions, velocities,
//     controls and derived kinematic quantities)
//
// A model is built from YAML via [Load] or [LoadString], or directly
// from a [ModelSpec] via [New]. Each body carries exactly one 1-dof
// joint (hinge or slide), so nq == nv == njnt.
//
// # Example
//
//	m, _ := engine.Load("pendulum.yaml")
//	d := m.MakeData()
//	d.SetCtrl([]float64{0.5})
//	d.Step()
//
// # Thread Safety
//
// A Model is read-only after compilation and safe for concurrent use,
// with one exception: SetTimestep and SetSolverIterations must not be
// called while any Data bound to the model is stepping. A Data is NOT
// safe for concurrent use; each Data must be driven by one goroutine
// at a time.
package engine
