package batch

import "errors"

// Domain errors for batch lifecycle and strict-mode contract checks.
var (
	// ErrNilModel indicates batch creation without a model.
	ErrNilModel = errors.New("batch: nil model")

	// ErrInvalidEnvCount indicates a non-positive environment count.
	ErrInvalidEnvCount = errors.New("batch: environment count must be positive")

	// ErrClosed indicates use of a batch after Close.
	ErrClosed = errors.New("batch: closed")

	// ErrShortControls indicates a control buffer shorter than
	// numEnvs * nu.
	ErrShortControls = errors.New("batch: control buffer too short")

	// ErrBadMask indicates a reset mask whose length differs from the
	// environment count (strict mode only).
	ErrBadMask = errors.New("batch: mask length mismatch")

	// ErrBadEnvIndex indicates an out-of-range environment index
	// (strict mode only).
	ErrBadEnvIndex = errors.New("batch: environment index out of range")

	// ErrBadField indicates an unregistered field identifier.
	ErrBadField = errors.New("batch: unknown field")

	// ErrShortValues indicates a scatter value buffer shorter than the
	// field's per-environment dimension (strict mode only).
	ErrShortValues = errors.New("batch: value buffer too short")

	// ErrLengthMismatch indicates a buffer longer than the contract
	// requires (strict mode only).
	ErrLengthMismatch = errors.New("batch: buffer length mismatch")
)
