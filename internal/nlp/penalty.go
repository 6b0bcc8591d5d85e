package nlp

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// Penalty minimizes a constrained NLP as a sequence of unconstrained
// subproblems: constraint and bound violations enter the merit function
// quadratically, and the penalty weight grows until the iterate is
// feasible to tolerance. Each subproblem runs L-BFGS with
// finite-difference gradients.
type Penalty struct {
	MaxOuter        int
	InnerIterations int
	InitialWeight   float64
	WeightGrowth    float64
	Tolerance       float64
}

// NewPenalty returns an optimizer with defaults suitable for the
// benchmark problems.
func NewPenalty() *Penalty {
	return &Penalty{
		MaxOuter:        12,
		InnerIterations: 400,
		InitialWeight:   10,
		WeightGrowth:    8,
		Tolerance:       1e-5,
	}
}

func (o *Penalty) Minimize(ctx context.Context, p *Problem, x0 []float64) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != p.NumVariables {
		return nil, fmt.Errorf("nlp: starting point has %d entries, want %d",
			len(x0), p.NumVariables)
	}

	x := make([]float64, len(x0))
	copy(x, x0)
	clampToBounds(x, p.VariableLower, p.VariableUpper)

	weight := o.InitialWeight
	iterations := 0
	for outer := 0; outer < o.MaxOuter; outer++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		merit := func(xs []float64) float64 {
			f := p.Objective(xs)
			return f + 0.5*weight*o.violationSq(p, xs)
		}
		problem := optimize.Problem{
			Func: merit,
			Grad: func(grad, xs []float64) {
				fd.Gradient(grad, merit, xs, nil)
			},
		}
		settings := &optimize.Settings{
			MajorIterations:   o.InnerIterations,
			GradientThreshold: 1e-8,
		}
		result, err := optimize.Minimize(problem, x, settings, &optimize.LBFGS{})
		if result == nil {
			return nil, fmt.Errorf("nlp: penalty subproblem failed: %w", err)
		}
		// Linesearch breakdowns near a solution are expected; keep the
		// best iterate and continue.
		copy(x, result.X)
		iterations += result.Stats.MajorIterations

		if viol := o.maxViolation(p, x); viol < o.Tolerance {
			return &Result{
				X:          x,
				Objective:  p.Objective(x),
				Violation:  viol,
				Iterations: iterations,
				Status:     "converged",
				Success:    true,
			}, nil
		}
		weight *= o.WeightGrowth
	}
	viol := o.maxViolation(p, x)
	return &Result{
		X:          x,
		Objective:  p.Objective(x),
		Violation:  viol,
		Iterations: iterations,
		Status:     fmt.Sprintf("max penalty rounds reached (violation %.3g)", viol),
	}, nil
}

func (o *Penalty) violationSq(p *Problem, x []float64) float64 {
	sum := 0.0
	for i, xi := range x {
		v := intervalViolation(xi, p.VariableLower[i], p.VariableUpper[i])
		sum += v * v
	}
	if p.NumConstraints > 0 {
		g := make([]float64, p.NumConstraints)
		p.Constraints(x, g)
		for j, gj := range g {
			v := intervalViolation(gj, p.ConstraintLower[j], p.ConstraintUpper[j])
			sum += v * v
		}
	}
	return sum
}

func (o *Penalty) maxViolation(p *Problem, x []float64) float64 {
	worst := 0.0
	for i, xi := range x {
		worst = math.Max(worst, intervalViolation(xi, p.VariableLower[i], p.VariableUpper[i]))
	}
	if p.NumConstraints > 0 {
		g := make([]float64, p.NumConstraints)
		p.Constraints(x, g)
		for j, gj := range g {
			worst = math.Max(worst, intervalViolation(gj, p.ConstraintLower[j], p.ConstraintUpper[j]))
		}
	}
	return worst
}

// intervalViolation returns how far v lies outside [lower, upper].
func intervalViolation(v, lower, upper float64) float64 {
	switch {
	case v < lower:
		return lower - v
	case v > upper:
		return v - upper
	default:
		return 0
	}
}

func clampToBounds(x, lower, upper []float64) {
	for i := range x {
		if x[i] < lower[i] {
			x[i] = lower[i]
		}
		if x[i] > upper[i] {
			x[i] = upper[i]
		}
	}
}
