// Package nlp defines the flat nonlinear-program interface produced by
// the transcription engine and consumed by an optimizer, plus a bundled
// quadratic-penalty optimizer for problems without an external solver.
package nlp

import (
	"context"
	"fmt"
)

// Problem is a general NLP over a flat decision vector:
//
//	minimize   f(x)
//	subject to cl <= g(x) <= cu,  xl <= x <= xu
//
// Objective and Constraints must be pure functions of x.
type Problem struct {
	NumVariables   int
	NumConstraints int

	VariableLower   []float64
	VariableUpper   []float64
	ConstraintLower []float64
	ConstraintUpper []float64

	Objective   func(x []float64) float64
	Constraints func(x []float64, out []float64)
}

// Validate checks the problem shapes.
func (p *Problem) Validate() error {
	if p.NumVariables <= 0 || p.Objective == nil {
		return fmt.Errorf("nlp: problem needs variables and an objective")
	}
	if len(p.VariableLower) != p.NumVariables || len(p.VariableUpper) != p.NumVariables {
		return fmt.Errorf("nlp: variable bounds must have %d entries", p.NumVariables)
	}
	if p.NumConstraints > 0 && p.Constraints == nil {
		return fmt.Errorf("nlp: %d constraints declared but no evaluator", p.NumConstraints)
	}
	if len(p.ConstraintLower) != p.NumConstraints || len(p.ConstraintUpper) != p.NumConstraints {
		return fmt.Errorf("nlp: constraint bounds must have %d entries", p.NumConstraints)
	}
	return nil
}

// Result is the optimizer's answer in the problem's flat ordering.
type Result struct {
	X          []float64
	Objective  float64
	Violation  float64
	Iterations int
	Status     string
	Success    bool
}

// Optimizer solves a flat NLP from a starting point. Implementations
// must not retain the problem after returning.
type Optimizer interface {
	Minimize(ctx context.Context, p *Problem, x0 []float64) (*Result, error)
}
