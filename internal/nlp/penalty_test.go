package nlp

import (
	"context"
	"math"
	"testing"
)

func TestPenaltyUnconstrainedQuadratic(t *testing.T) {
	p := &Problem{
		NumVariables:  2,
		VariableLower: []float64{math.Inf(-1), math.Inf(-1)},
		VariableUpper: []float64{math.Inf(1), math.Inf(1)},
		Objective: func(x []float64) float64 {
			return (x[0]-3)*(x[0]-3) + (x[1]+1)*(x[1]+1)
		},
	}
	result, err := NewPenalty().Minimize(context.Background(), p, []float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success {
		t.Fatalf("expected success, got status %q", result.Status)
	}
	if math.Abs(result.X[0]-3) > 1e-4 || math.Abs(result.X[1]+1) > 1e-4 {
		t.Errorf("minimizer = %v, want (3, -1)", result.X)
	}
}

func TestPenaltyEqualityConstraint(t *testing.T) {
	// minimize x^2 + y^2 subject to x + y = 1; minimizer (0.5, 0.5).
	p := &Problem{
		NumVariables:    2,
		NumConstraints:  1,
		VariableLower:   []float64{math.Inf(-1), math.Inf(-1)},
		VariableUpper:   []float64{math.Inf(1), math.Inf(1)},
		ConstraintLower: []float64{1},
		ConstraintUpper: []float64{1},
		Objective: func(x []float64) float64 {
			return x[0]*x[0] + x[1]*x[1]
		},
		Constraints: func(x, out []float64) {
			out[0] = x[0] + x[1]
		},
	}
	result, err := NewPenalty().Minimize(context.Background(), p, []float64{2, -3})
	if err != nil {
		t.Fatal(err)
	}
	if result.Violation > 1e-4 {
		t.Fatalf("constraint violation %g too large (status %q)",
			result.Violation, result.Status)
	}
	if math.Abs(result.X[0]-0.5) > 1e-2 || math.Abs(result.X[1]-0.5) > 1e-2 {
		t.Errorf("minimizer = %v, want (0.5, 0.5)", result.X)
	}
}

func TestPenaltyRespectsVariableBounds(t *testing.T) {
	// minimize (x-2)^2 with x <= 1; minimizer at the bound.
	p := &Problem{
		NumVariables:  1,
		VariableLower: []float64{math.Inf(-1)},
		VariableUpper: []float64{1},
		Objective: func(x []float64) float64 {
			return (x[0] - 2) * (x[0] - 2)
		},
	}
	result, err := NewPenalty().Minimize(context.Background(), p, []float64{0})
	if err != nil {
		t.Fatal(err)
	}
	if result.X[0] > 1+1e-3 {
		t.Errorf("minimizer %g exceeds the upper bound", result.X[0])
	}
	if math.Abs(result.X[0]-1) > 1e-2 {
		t.Errorf("minimizer = %g, want 1", result.X[0])
	}
}

func TestPenaltyHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Problem{
		NumVariables:  1,
		VariableLower: []float64{math.Inf(-1)},
		VariableUpper: []float64{math.Inf(1)},
		Objective:     func(x []float64) float64 { return x[0] * x[0] },
	}
	if _, err := NewPenalty().Minimize(ctx, p, []float64{5}); err == nil {
		t.Error("expected a context error")
	}
}

func TestValidateRejectsShapeMismatches(t *testing.T) {
	p := &Problem{
		NumVariables:  2,
		VariableLower: []float64{0},
		VariableUpper: []float64{1, 1},
		Objective:     func(x []float64) float64 { return 0 },
	}
	if err := p.Validate(); err == nil {
		t.Error("expected a validation error for short bounds")
	}
}
