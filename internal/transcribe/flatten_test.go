package transcribe

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ocp"
)

// constrainedDoubleIntegrator adds an endpoint target and a path
// constraint so every constraint block kind appears in the layout.
func constrainedDoubleIntegrator() *ocp.Problem {
	p := doubleIntegrator()
	p.EndpointConstraints = []ocp.EndpointConstraintInfo{{
		Name:  "target",
		Size:  2,
		Lower: []float64{1, 0},
		Upper: []float64{1, 0},
		Eval: func(in ocp.EndpointInput, out []float64) {
			out[0] = in.FinalStates[0]
			out[1] = in.FinalStates[1]
		},
	}}
	p.PathConstraints = []ocp.PathConstraintInfo{{
		Name:  "speed",
		Size:  1,
		Lower: []float64{-8},
		Upper: []float64{8},
		Eval: func(_ float64, x, _, _, out []float64) {
			out[0] = x[1]
		},
	}}
	return p
}

// kinematicFixture is a DAE-style problem with one kinematic equation,
// a multiplier, and constraint-derivative enforcement, so the slack and
// projection-state machinery is active. The dynamics are identically
// zero, making the all-zero trajectory feasible.
func kinematicFixture() *ocp.Problem {
	return &ocp.Problem{
		Name:              "kinematic",
		InitialTimeBounds: ocp.Fixed(0),
		FinalTimeBounds:   ocp.Fixed(1),
		States: []ocp.VariableInfo{
			{Name: "q", Bounds: ocp.Range(-1, 1)},
			{Name: "u", Bounds: ocp.Range(-1, 1)},
		},
		Controls:    []ocp.VariableInfo{{Name: "tau", Bounds: ocp.Range(-1, 1)}},
		Multipliers: []ocp.VariableInfo{{Name: "lambda", Bounds: ocp.Range(-1, 1)}},

		NumKinematicEquations:        1,
		EnforceConstraintDerivatives: true,

		Dynamics: func(in ocp.DynamicsInput) ocp.DynamicsOutput {
			return ocp.DynamicsOutput{
				StateDerivatives: []float64{0, 0},
				KinematicErrors:  []float64{0},
			}
		},
		Costs: []ocp.CostInfo{{
			Name: "effort",
			Integrand: func(_ float64, _, u, _ []float64) float64 {
				return u[0] * u[0]
			},
		}},
	}
}

func TestConstraintFlattenExpandRoundTrip(t *testing.T) {
	solver := &ocp.Solver{Mesh: []float64{0, 0.5, 1}, Scheme: ocp.SchemeRadau, Degree: 2}
	engine, err := New(constrainedDoubleIntegrator(), solver)
	if err != nil {
		t.Fatal(err)
	}

	cs := engine.newConstraintSet()
	i := 0
	engine.walkConstraints(cs, func(_ conBlock, _ int, m *mat.Dense, col int) {
		for r := 0; r < rows(m); r++ {
			m.Set(r, col, float64(i))
			i++
		}
	})
	if i != engine.NumConstraints() {
		t.Fatalf("walk visited %d entries, layout has %d", i, engine.NumConstraints())
	}

	flat, err := engine.flattenConstraints(cs)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range flat {
		if v != float64(k) {
			t.Fatalf("flat[%d] = %g, flattening order disagrees with the walk", k, v)
		}
	}

	back, err := engine.expandConstraints(flat)
	if err != nil {
		t.Fatal(err)
	}
	again, err := engine.flattenConstraints(back)
	if err != nil {
		t.Fatal(err)
	}
	for k := range flat {
		if flat[k] != again[k] {
			t.Fatalf("round trip changed entry %d: %g != %g", k, flat[k], again[k])
		}
	}
}

func TestFlattenConstraintsRejectsMismatchedBlocks(t *testing.T) {
	solver := &ocp.Solver{Mesh: []float64{0, 1}, Scheme: ocp.SchemeTrapezoidal}
	engine, err := New(doubleIntegrator(), solver)
	if err != nil {
		t.Fatal(err)
	}

	cs := engine.newConstraintSet()
	cs.defects = newDense(engine.numDefectsPerMeshInterval+1, engine.numMeshIntervals)
	if _, err := engine.flattenConstraints(cs); !errors.Is(err, ocp.ErrInternal) {
		t.Errorf("expected ErrInternal for a resized defect block, got %v", err)
	}

	cs = engine.newConstraintSet()
	cs.multibody = newDense(1, engine.numGridPoints)
	if _, err := engine.flattenConstraints(cs); !errors.Is(err, ocp.ErrInternal) {
		t.Errorf("expected ErrInternal for a spurious multibody block, got %v", err)
	}
}

func TestFlattenAcceptsEmptyResidualBlocks(t *testing.T) {
	// A problem with no multibody or auxiliary residuals leaves those
	// blocks nil; construction and flattening must still succeed.
	for _, scheme := range []ocp.Scheme{ocp.SchemeTrapezoidal, ocp.SchemeRadau, ocp.SchemeGauss} {
		solver := &ocp.Solver{Mesh: []float64{0, 0.5, 1}, Scheme: scheme, Degree: 2}
		engine, err := New(doubleIntegrator(), solver)
		if err != nil {
			t.Fatalf("%s: %v", scheme, err)
		}
		if _, err := engine.flattenConstraints(engine.newConstraintSet()); err != nil {
			t.Errorf("%s: flattening empty residual blocks: %v", scheme, err)
		}
	}
}

func TestRadauKinematicSlacksInLayout(t *testing.T) {
	solver := &ocp.Solver{
		Mesh:        []float64{0, 0.5, 1},
		Scheme:      ocp.SchemeRadau,
		Degree:      2,
		SlackBounds: ocp.Range(-1e-3, 1e-3),
	}
	engine, err := New(kinematicFixture(), solver)
	if err != nil {
		t.Fatal(err)
	}
	if got := rows(engine.lowerBounds[Slacks]); got != 1 {
		t.Errorf("expected 1 slack row, got %d", got)
	}
	if got := cols(engine.lowerBounds[Slacks]); got != engine.NumMeshIntervals() {
		t.Errorf("expected one slack column per interval, got %d", got)
	}
	if got := rows(engine.lowerBounds[ProjectionStates]); got != 0 {
		t.Errorf("radau must not allocate projection states, got %d rows", got)
	}
	if engine.NumVariables() != engine.lowerBounds.numel() {
		t.Errorf("variable order covers %d entries, layout holds %d",
			engine.NumVariables(), engine.lowerBounds.numel())
	}

	x, err := engine.InitialGuessFromBounds()
	if err != nil {
		t.Fatal(err)
	}
	g, err := engine.EvalConstraints(x)
	if err != nil {
		t.Fatal(err)
	}
	if len(g) != engine.NumConstraints() {
		t.Fatalf("expected %d constraint values, got %d", engine.NumConstraints(), len(g))
	}
	for i, v := range g {
		if math.Abs(v) > 1e-12 {
			t.Errorf("constraint %d = %g on the feasible zero trajectory", i, v)
		}
	}
}

func TestGaussKinematicProjectionStatesInLayout(t *testing.T) {
	problem := kinematicFixture()
	solver := &ocp.Solver{
		Mesh:        []float64{0, 0.5, 1},
		Scheme:      ocp.SchemeGauss,
		Degree:      2,
		SlackBounds: ocp.Range(-1e-3, 1e-3),
	}
	engine, err := New(problem, solver)
	if err != nil {
		t.Fatal(err)
	}
	if got := rows(engine.lowerBounds[ProjectionStates]); got != problem.NumStates() {
		t.Errorf("expected %d projection-state rows, got %d", problem.NumStates(), got)
	}
	if got := cols(engine.lowerBounds[ProjectionStates]); got != engine.NumMeshIntervals() {
		t.Errorf("expected one projection column per interval, got %d", got)
	}
	if engine.NumVariables() != engine.lowerBounds.numel() {
		t.Errorf("variable order covers %d entries, layout holds %d",
			engine.NumVariables(), engine.lowerBounds.numel())
	}

	// Projection splits the end-state defect in two, adding one row
	// block of NumStates per interval over the plain gauss layout.
	plain := kinematicFixture()
	plain.EnforceConstraintDerivatives = false
	plainEngine, err := New(plain, &ocp.Solver{
		Mesh: []float64{0, 0.5, 1}, Scheme: ocp.SchemeGauss, Degree: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	extra := engine.numDefectsPerMeshInterval - plainEngine.numDefectsPerMeshInterval
	if extra != problem.NumStates() {
		t.Errorf("projection added %d defect rows per interval, want %d",
			extra, problem.NumStates())
	}

	x, err := engine.InitialGuessFromBounds()
	if err != nil {
		t.Fatal(err)
	}
	g, err := engine.EvalConstraints(x)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range g {
		if math.Abs(v) > 1e-12 {
			t.Errorf("constraint %d = %g on the feasible zero trajectory", i, v)
		}
	}
}
