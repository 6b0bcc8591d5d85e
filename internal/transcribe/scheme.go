package transcribe

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ocp"
)

// varEntry is one (category, column) pair in a scheme's canonical
// variable order.
type varEntry struct {
	v   Var
	col int
}

// scheme is the closed capability interface the three transcription
// variants implement. Implementations embed *Transcription for access
// to the grid and problem counts.
type scheme interface {
	name() ocp.Scheme

	// interiorNodes are the strictly interior grid nodes each mesh
	// interval contributes, as fractions of the interval.
	interiorNodes() []float64

	// numDefectRows is the defect row count per mesh interval, including
	// the leading time- and parameter-continuity rows.
	numDefectRows() int

	// createQuadratureCoefficients returns per-grid-point weights in
	// mesh-fraction units; they sum to one so the integral of a constant
	// over the horizon is the constant times (tf - t0).
	createQuadratureCoefficients() []float64

	// createMeshIndices returns a 0/1 vector of length N marking the M
	// mesh points.
	createMeshIndices() []float64

	// createControlIndices returns a 0/1 vector of length N marking the
	// grid points at which the control is a meaningful decision.
	createControlIndices() []float64

	// calcDefects fills the defect matrix column by mesh interval. Each
	// column carries time-initial continuity, time-final continuity,
	// parameter continuity, then the scheme residual rows.
	calcDefects(vs *varSet, traj *trajectoryEval, defects *mat.Dense)

	// calcInterpolatingControls fills the interpolation-consistency
	// residuals for the interior control points, one column per point in
	// interpControlPoints order.
	calcInterpolatingControls(controls *mat.Dense, out *mat.Dense) error

	// interpControlPoints lists the grid indices whose controls are tied
	// to the interpolant; empty unless the solver requests interpolation.
	interpControlPoints() ([]int, error)

	// variableOrder is the canonical per-interval interleaving used for
	// the decision vector, its bounds, and the initial guess. The order
	// produces a banded constraint Jacobian; it is a layout contract,
	// not a style choice.
	variableOrder() []varEntry
}

func newScheme(t *Transcription) (scheme, error) {
	switch t.solver.Scheme {
	case ocp.SchemeTrapezoidal:
		return newTrapezoidal(t)
	case ocp.SchemeRadau:
		return newRadau(t)
	case ocp.SchemeGauss:
		return newGauss(t)
	default:
		return nil, fmt.Errorf("%w: unknown transcription scheme %q",
			ocp.ErrUnsupported, t.solver.Scheme)
	}
}

// timeAndParameterContinuity writes the leading defect rows shared by
// every scheme: mesh-point copies of the time endpoints and parameters
// must agree across interval boundaries.
func (t *Transcription) timeAndParameterContinuity(vs *varSet, imesh int, defects *mat.Dense) {
	defects.Set(0, imesh, vs[InitialTime].At(0, imesh+1)-vs[InitialTime].At(0, imesh))
	defects.Set(1, imesh, vs[FinalTime].At(0, imesh+1)-vs[FinalTime].At(0, imesh))
	for r := 0; r < t.problem.NumParameters(); r++ {
		defects.Set(2+r, imesh, vs[Parameters].At(r, imesh+1)-vs[Parameters].At(r, imesh))
	}
}

// continuityRows is the number of leading defect rows per interval.
func (t *Transcription) continuityRows() int {
	return 2 + t.problem.NumParameters()
}

// linearControlResidual writes u[k] - lerp(u[a], u[b]; tau) into column
// out[:, outCol].
func linearControlResidual(controls *mat.Dense, k, a, b int, tau float64, out *mat.Dense, outCol int) {
	nc, _ := controls.Dims()
	for r := 0; r < nc; r++ {
		ua, ub := controls.At(r, a), controls.At(r, b)
		out.Set(r, outCol, controls.At(r, k)-(ua+tau*(ub-ua)))
	}
}
