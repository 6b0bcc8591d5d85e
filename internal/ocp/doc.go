// Package ocp defines the continuous-time optimal control problem and
// solver settings consumed by the transcription engine.
//
// The two collaborator types are plain value types:
//
//   - [Problem]: variable descriptors, dynamics callback, constraint and
//     cost descriptors
//   - [Solver]: mesh, transcription scheme, and discretization toggles
//
// A [Problem] describes what to solve; it performs no discretization
// itself. The transcribe package turns a Problem/Solver pair into a
// finite-dimensional nonlinear program.
//
// # Error classes
//
// Configuration errors (bad mesh, unsupported scheme features) wrap
// [ErrInvalidMesh] or [ErrUnsupported] and are raised at construction.
// Violated internal invariants wrap [ErrInternal]; these indicate an
// implementation bug and are never recoverable.
package ocp
