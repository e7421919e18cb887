package engine

import "errors"

// Domain errors for model compilation and state access.
var (
	// ErrInvalidSpec indicates a model spec that cannot be compiled.
	ErrInvalidSpec = errors.New("engine: invalid model spec")

	// ErrDuplicateName indicates two bodies, joints or actuators
	// sharing a name.
	ErrDuplicateName = errors.New("engine: duplicate name")

	// ErrUnknownName indicates a name lookup that matched nothing.
	ErrUnknownName = errors.New("engine: unknown name")

	// ErrUnknownJointType indicates a joint type other than hinge or
	// slide.
	ErrUnknownJointType = errors.New("engine: unknown joint type")
)
