package ocp

import "errors"

// Domain errors for problem construction and transcription.
var (
	// ErrInvalidMesh indicates a mesh that is not strictly increasing or
	// does not span [0, 1] exactly.
	ErrInvalidMesh = errors.New("ocp: invalid mesh")

	// ErrUnsupported indicates a solver setting the chosen transcription
	// scheme cannot honor.
	ErrUnsupported = errors.New("ocp: unsupported configuration")

	// ErrInvalidProblem indicates an ill-formed problem definition.
	ErrInvalidProblem = errors.New("ocp: invalid problem")

	// ErrInternal indicates a violated internal invariant, such as a
	// mismatched flattened vector length. It is a bug, not user input.
	ErrInternal = errors.New("ocp: internal invariant violated")
)
