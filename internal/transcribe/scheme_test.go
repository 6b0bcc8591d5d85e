package transcribe

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ocp"
)

// exactTrajectoryFixture builds the double integrator driven along
// x(t) = 3t^2 - 2t^3, a cubic the degree-2 collocation polynomial can
// represent exactly, so every defect must vanish at machine precision.
func exactTrajectoryFixture(t *testing.T, scheme ocp.Scheme, interpolate bool) (*Transcription, []float64) {
	t.Helper()
	pos := func(tt float64) float64 { return 3*tt*tt - 2*tt*tt*tt }
	vel := func(tt float64) float64 { return 6*tt - 6*tt*tt }
	force := func(tt float64) float64 { return 6 - 12*tt }

	solver := &ocp.Solver{
		Mesh:                                 []float64{0, 0.5, 1},
		Scheme:                               scheme,
		Degree:                               2,
		InterpolateControlMeshInteriorPoints: interpolate,
	}
	engine, err := New(doubleIntegrator(), solver)
	if err != nil {
		t.Fatal(err)
	}

	n := engine.NumGridPoints()
	states := mat.NewDense(2, n, nil)
	controls := mat.NewDense(1, n, nil)
	for i, g := range engine.Grid() {
		states.Set(0, i, pos(g))
		states.Set(1, i, vel(g))
		controls.Set(0, i, force(g))
	}
	vs, err := engine.iterateVars(&Iterate{
		HasTimes: true, InitialTime: 0, FinalTime: 1,
		States: states, Controls: controls,
	})
	if err != nil {
		t.Fatal(err)
	}
	x, err := engine.flattenVariables(engine.scaleVars(vs))
	if err != nil {
		t.Fatal(err)
	}
	return engine, x
}

func TestRadauDefectsVanishOnCubicTrajectory(t *testing.T) {
	engine, x := exactTrajectoryFixture(t, ocp.SchemeRadau, false)
	g, err := engine.EvalConstraints(x)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range g {
		if math.Abs(v) > 1e-10 {
			t.Errorf("constraint %d = %g, want 0", i, v)
		}
	}
}

func TestGaussDefectsVanishOnCubicTrajectory(t *testing.T) {
	engine, x := exactTrajectoryFixture(t, ocp.SchemeGauss, false)
	g, err := engine.EvalConstraints(x)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range g {
		if math.Abs(v) > 1e-10 {
			t.Errorf("constraint %d = %g, want 0", i, v)
		}
	}
}

// The fixture's control is linear in time, so the interior-point
// interpolation residuals vanish as well.
func TestRadauInterpolatingControlsVanishOnLinearControl(t *testing.T) {
	engine, x := exactTrajectoryFixture(t, ocp.SchemeRadau, true)
	g, err := engine.EvalConstraints(x)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range g {
		if math.Abs(v) > 1e-10 {
			t.Errorf("constraint %d = %g, want 0", i, v)
		}
	}
	if len(engine.interpPoints) == 0 {
		t.Error("expected interpolation points with interior controls enabled")
	}
}

func TestControlIndicesMatchSchemeContract(t *testing.T) {
	cases := []struct {
		scheme ocp.Scheme
		// wantFirst is the expected indicator at grid point 0.
		wantFirst float64
	}{
		{ocp.SchemeTrapezoidal, 0},
		{ocp.SchemeRadau, 0},
		{ocp.SchemeGauss, 0},
	}
	for _, tc := range cases {
		solver := &ocp.Solver{Mesh: []float64{0, 0.5, 1}, Scheme: tc.scheme, Degree: 2}
		engine, err := New(doubleIntegrator(), solver)
		if err != nil {
			t.Fatal(err)
		}
		indices := engine.ControlIndices()
		if indices[0] != tc.wantFirst {
			t.Errorf("%s: control indicator at grid point 0 = %g, want %g",
				tc.scheme, indices[0], tc.wantFirst)
		}
		if tc.scheme == ocp.SchemeGauss {
			// Gauss mesh points carry no control of their own.
			for _, g := range engine.meshGridIndex {
				if indices[g] != 0 {
					t.Errorf("gauss: mesh grid point %d must have indicator 0", g)
				}
			}
		}
	}
}

func TestVariableOrderCoversEveryColumnOnce(t *testing.T) {
	for _, scheme := range []ocp.Scheme{ocp.SchemeTrapezoidal, ocp.SchemeRadau, ocp.SchemeGauss} {
		solver := &ocp.Solver{Mesh: []float64{0, 0.3, 0.7, 1}, Scheme: scheme, Degree: 2}
		engine, err := New(doubleIntegrator(), solver)
		if err != nil {
			t.Fatal(err)
		}
		total := 0
		for v := Var(0); v < numVars; v++ {
			total += rows(engine.lowerBounds[v]) * cols(engine.lowerBounds[v])
		}
		if engine.NumVariables() != total {
			t.Errorf("%s: layout covers %d entries, categories hold %d",
				scheme, engine.NumVariables(), total)
		}
	}
}
