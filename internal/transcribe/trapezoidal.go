package transcribe

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ocp"
)

// trapezoidal enforces the dynamics with a two-point, second-order
// approximation; the integral cost uses trapezoidal quadrature.
type trapezoidal struct {
	*Transcription
}

func newTrapezoidal(t *Transcription) (*trapezoidal, error) {
	if t.problem.EnforceConstraintDerivatives {
		return nil, fmt.Errorf("%w: enforcing kinematic constraint derivatives "+
			"is not supported with trapezoidal transcription", ocp.ErrUnsupported)
	}
	if t.solver.InterpolateControlMeshInteriorPoints {
		return nil, fmt.Errorf("%w: trapezoidal transcription has no mesh "+
			"interior points to interpolate controls at", ocp.ErrUnsupported)
	}
	return &trapezoidal{t}, nil
}

func (s *trapezoidal) name() ocp.Scheme { return ocp.SchemeTrapezoidal }

func (s *trapezoidal) interiorNodes() []float64 { return nil }

func (s *trapezoidal) numDefectRows() int {
	return s.continuityRows() + s.problem.NumStates()
}

func (s *trapezoidal) createQuadratureCoefficients() []float64 {
	coeffs := make([]float64, s.numGridPoints)
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		h := s.mesh.Interval(imesh)
		coeffs[imesh] += 0.5 * h
		coeffs[imesh+1] += 0.5 * h
	}
	return coeffs
}

func (s *trapezoidal) createMeshIndices() []float64 {
	indices := make([]float64, s.numGridPoints)
	for i := range indices {
		indices[i] = 1
	}
	return indices
}

func (s *trapezoidal) createControlIndices() []float64 {
	// The control at the very first grid point is undefined.
	indices := make([]float64, s.numGridPoints)
	for i := 1; i < s.numGridPoints; i++ {
		indices[i] = 1
	}
	return indices
}

func (s *trapezoidal) calcDefects(vs *varSet, traj *trajectoryEval, defects *mat.Dense) {
	ns := s.problem.NumStates()
	base := s.continuityRows()
	x, xdot := (*vs)[States], traj.xdot
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		s.timeAndParameterContinuity(vs, imesh, defects)
		h := traj.times[imesh+1] - traj.times[imesh]
		for r := 0; r < ns; r++ {
			residual := x.At(r, imesh+1) - x.At(r, imesh) -
				0.5*h*(xdot.At(r, imesh)+xdot.At(r, imesh+1))
			defects.Set(base+r, imesh, residual)
		}
	}
}

func (s *trapezoidal) interpControlPoints() ([]int, error) { return nil, nil }

func (s *trapezoidal) calcInterpolatingControls(controls *mat.Dense, out *mat.Dense) error {
	if out != nil {
		return fmt.Errorf("%w: trapezoidal transcription provides no control "+
			"interpolation", ocp.ErrInternal)
	}
	return nil
}

func (s *trapezoidal) variableOrder() []varEntry {
	var order []varEntry
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		order = append(order,
			varEntry{States, imesh},
			varEntry{InitialTime, imesh},
			varEntry{FinalTime, imesh},
			varEntry{Parameters, imesh},
			varEntry{Controls, imesh},
			varEntry{Multipliers, imesh},
			varEntry{Derivatives, imesh},
		)
	}
	last := s.numGridPoints - 1
	return append(order,
		varEntry{States, last},
		varEntry{InitialTime, s.numMeshPoints - 1},
		varEntry{FinalTime, s.numMeshPoints - 1},
		varEntry{Parameters, s.numMeshPoints - 1},
		varEntry{Controls, last},
		varEntry{Multipliers, last},
		varEntry{Derivatives, last},
	)
}
