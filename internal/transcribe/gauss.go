package transcribe

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ocp"
)

// gauss collocates each mesh interval at Legendre-Gauss points, all
// strictly interior. The state at an interval's right edge is not a
// shared decision variable, so every interval emits an end-state
// interpolation defect tying the collocation polynomial evaluated at
// the right edge to the next interval's starting state.
type gauss struct {
	*Transcription
	nodes         []float64  // collocation nodes in (0, 1)
	diffMatrix    *mat.Dense // (s+1) x s over {0} + nodes
	interpWeights []float64  // length s+1, basis evaluated at 1
	quadWeights   []float64  // length s
}

func newGauss(t *Transcription) (*gauss, error) {
	if t.solver.Degree < 1 {
		return nil, fmt.Errorf("%w: gauss transcription needs degree >= 1, got %d",
			ocp.ErrUnsupported, t.solver.Degree)
	}
	nodes, err := gaussNodes(t.solver.Degree + 1)
	if err != nil {
		return nil, err
	}
	full := append([]float64{0}, nodes...)
	return &gauss{
		Transcription: t,
		nodes:         nodes,
		diffMatrix:    differentiationMatrix(full, nodes),
		interpWeights: interpolationWeights(full, 1),
		quadWeights:   quadratureWeights(nodes),
	}, nil
}

func (s *gauss) name() ocp.Scheme { return ocp.SchemeGauss }

func (s *gauss) interiorNodes() []float64 { return s.nodes }

// projectionActive reports whether mesh-boundary states are projected
// through dedicated projection-state variables.
func (s *gauss) projectionActive() bool {
	return s.problem.EnforceConstraintDerivatives && s.problem.NumKinematicEquations > 0
}

func (s *gauss) numDefectRows() int {
	ns := s.problem.NumStates()
	n := s.continuityRows() + ns + len(s.nodes)*ns
	if s.projectionActive() {
		n += ns
	}
	return n
}

func (s *gauss) createQuadratureCoefficients() []float64 {
	stride := len(s.nodes) + 1
	coeffs := make([]float64, s.numGridPoints)
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		igrid := imesh * stride
		h := s.mesh.Interval(imesh)
		// Mesh points accrue no coefficient of their own.
		for k, w := range s.quadWeights {
			coeffs[igrid+1+k] += w * h
		}
	}
	return coeffs
}

func (s *gauss) createMeshIndices() []float64 {
	stride := len(s.nodes) + 1
	indices := make([]float64, s.numGridPoints)
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		indices[imesh*stride] = 1
	}
	indices[s.numGridPoints-1] = 1
	return indices
}

func (s *gauss) createControlIndices() []float64 {
	stride := len(s.nodes) + 1
	indices := make([]float64, s.numGridPoints)
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		igrid := imesh * stride
		for k := 1; k < stride; k++ {
			indices[igrid+k] = 1
		}
	}
	return indices
}

func (s *gauss) calcDefects(vs *varSet, traj *trajectoryEval, defects *mat.Dense) {
	ns := s.problem.NumStates()
	stride := len(s.nodes) + 1
	base := s.continuityRows()
	x, xdot := (*vs)[States], traj.xdot
	projection := s.projectionActive()
	var residual mat.Dense
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		igrid := imesh * stride
		s.timeAndParameterContinuity(vs, imesh, defects)
		h := traj.times[igrid+stride] - traj.times[igrid]

		row := base
		// End-state interpolation: the polynomial through the interval's
		// points, evaluated at the right edge, must match the next
		// interval's starting state (or the projection state).
		for r := 0; r < ns; r++ {
			interp := 0.0
			for j, w := range s.interpWeights {
				interp += w * x.At(r, igrid+j)
			}
			if projection {
				defects.Set(row+r, imesh, (*vs)[ProjectionStates].At(r, imesh)-interp)
			} else {
				defects.Set(row+r, imesh, x.At(r, igrid+stride)-interp)
			}
		}
		row += ns
		if projection {
			for r := 0; r < ns; r++ {
				defects.Set(row+r, imesh,
					x.At(r, igrid+stride)-(*vs)[ProjectionStates].At(r, imesh))
			}
			row += ns
		}

		// residual = h*xdot_colloc - X*D over the interval's s+1 points.
		xi := x.Slice(0, ns, igrid, igrid+stride)
		residual.Mul(xi, s.diffMatrix)
		for k := range s.nodes {
			for r := 0; r < ns; r++ {
				value := h*xdot.At(r, igrid+1+k) - residual.At(r, k)
				defects.Set(row+k*ns+r, imesh, value)
			}
		}
		residual.Reset()
	}
}

func (s *gauss) interpControlPoints() ([]int, error) {
	if !s.solver.InterpolateControlMeshInteriorPoints {
		return nil, nil
	}
	stride := len(s.nodes) + 1
	points := make([]int, 0, s.numMeshIntervals*len(s.nodes))
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		igrid := imesh * stride
		for k := 1; k < stride; k++ {
			points = append(points, igrid+k)
		}
	}
	return points, nil
}

func (s *gauss) calcInterpolatingControls(controls *mat.Dense, out *mat.Dense) error {
	if out == nil {
		return nil
	}
	stride := len(s.nodes) + 1
	col := 0
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		igrid := imesh * stride
		for k := 1; k < stride; k++ {
			linearControlResidual(controls, igrid+k, igrid, igrid+stride,
				s.nodes[k-1], out, col)
			col++
		}
	}
	return nil
}

func (s *gauss) variableOrder() []varEntry {
	stride := len(s.nodes) + 1
	projection := rows(s.lowerBounds[ProjectionStates]) > 0
	hasSlacks := rows(s.lowerBounds[Slacks]) > 0
	var order []varEntry
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		igrid := imesh * stride
		order = append(order,
			varEntry{InitialTime, imesh},
			varEntry{FinalTime, imesh},
			varEntry{Parameters, imesh},
		)
		if imesh > 0 {
			if projection {
				order = append(order, varEntry{ProjectionStates, imesh - 1})
			}
			if hasSlacks {
				order = append(order, varEntry{Slacks, imesh - 1})
			}
		}
		for i := 0; i < stride; i++ {
			order = append(order, varEntry{States, igrid + i})
		}
		for i := 0; i < stride; i++ {
			order = append(order, varEntry{Controls, igrid + i})
		}
		for i := 0; i < stride; i++ {
			order = append(order, varEntry{Multipliers, igrid + i})
		}
		for i := 0; i < stride; i++ {
			order = append(order, varEntry{Derivatives, igrid + i})
		}
	}
	last := s.numGridPoints - 1
	order = append(order,
		varEntry{InitialTime, s.numMeshPoints - 1},
		varEntry{FinalTime, s.numMeshPoints - 1},
		varEntry{Parameters, s.numMeshPoints - 1},
	)
	if projection {
		order = append(order, varEntry{ProjectionStates, s.numMeshIntervals - 1})
	}
	if hasSlacks {
		order = append(order, varEntry{Slacks, s.numMeshIntervals - 1})
	}
	return append(order,
		varEntry{States, last},
		varEntry{Controls, last},
		varEntry{Multipliers, last},
		varEntry{Derivatives, last},
	)
}
