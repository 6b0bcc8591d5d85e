// Package transcribe converts a continuous-time optimal control problem
// into a finite-dimensional nonlinear program by direct collocation.
//
// A [Transcription] is built once from an [ocp.Problem] and an
// [ocp.Solver] and is immutable afterward. It owns the collocation grid,
// the canonical variable and constraint layouts, the bound scaling
// factors, and the quadrature rule of the selected scheme:
//
//   - trapezoidal: two-point defects, controls defined from the second
//     grid point on
//   - radau: Radau IIA collocation with the right interval endpoint as a
//     collocation node
//   - gauss: Legendre-Gauss collocation with strictly interior nodes and
//     an end-state interpolation defect
//
// The flat decision vector follows a scheme-defined time-local column
// order, and the flat constraint vector the matching block order, so the
// constraint Jacobian stays near-banded; [Transcription.JacobianSparsity]
// exposes the structural pattern.
//
// # Solving
//
// The transcription is solver-agnostic: [Transcription.NLP] packages it
// as an [nlp.Problem], and [Transcription.Solve] runs an [nlp.Optimizer]
// from a structured [Iterate] and expands the result:
//
//	engine, err := transcribe.New(problem, solver)
//	if err != nil {
//	    return err
//	}
//	sol, err := engine.Solve(ctx, nil, nlp.NewPenalty())
//
// All variable values crossing the NLP boundary are scaled by the
// variable bounds when the solver asks for it; [Solution] is always
// reported unscaled.
package transcribe
