// Package models provides benchmark optimal control problems for the
// transcription engine.
//
// Each model builds a self-contained [ocp.Problem]:
//
//   - [DoubleIntegrator]: rest-to-rest translation with a closed-form
//     optimum, useful as a correctness reference
//   - [Pendulum]: torque-limited swing-up of a damped pendulum
//   - [CartPole]: under-actuated cart-pole swing-up and balance
//
// The [Registry] maps model names to builders for the command line:
//
//	problem, err := models.NewRegistry().Get("pendulum")
package models
