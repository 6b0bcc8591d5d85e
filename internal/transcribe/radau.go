package transcribe

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ocp"
)

// radau collocates each mesh interval at flipped Legendre-Gauss-Radau
// points. The last collocation point of an interval coincides with the
// next mesh point, so state continuity needs no extra defect.
type radau struct {
	*Transcription
	nodes       []float64  // collocation nodes on (0, 1], last is 1
	diffMatrix  *mat.Dense // (s+1) x s over {0} + nodes
	quadWeights []float64  // length s
}

func newRadau(t *Transcription) (*radau, error) {
	if t.solver.Degree < 1 {
		return nil, fmt.Errorf("%w: radau transcription needs degree >= 1, got %d",
			ocp.ErrUnsupported, t.solver.Degree)
	}
	nodes, err := radauNodes(t.solver.Degree + 1)
	if err != nil {
		return nil, err
	}
	full := append([]float64{0}, nodes...)
	return &radau{
		Transcription: t,
		nodes:         nodes,
		diffMatrix:    differentiationMatrix(full, nodes),
		quadWeights:   quadratureWeights(nodes),
	}, nil
}

func (s *radau) name() ocp.Scheme { return ocp.SchemeRadau }

// interiorNodes drops the trailing node at 1; that point belongs to the
// next mesh interval.
func (s *radau) interiorNodes() []float64 { return s.nodes[:len(s.nodes)-1] }

func (s *radau) numDefectRows() int {
	return s.continuityRows() + len(s.nodes)*s.problem.NumStates()
}

func (s *radau) createQuadratureCoefficients() []float64 {
	stride := len(s.nodes)
	coeffs := make([]float64, s.numGridPoints)
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		igrid := imesh * stride
		h := s.mesh.Interval(imesh)
		for k, w := range s.quadWeights {
			coeffs[igrid+1+k] += w * h
		}
	}
	return coeffs
}

func (s *radau) createMeshIndices() []float64 {
	stride := len(s.nodes)
	indices := make([]float64, s.numGridPoints)
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		indices[imesh*stride] = 1
	}
	indices[s.numGridPoints-1] = 1
	return indices
}

func (s *radau) createControlIndices() []float64 {
	indices := make([]float64, s.numGridPoints)
	for i := 1; i < s.numGridPoints; i++ {
		indices[i] = 1
	}
	return indices
}

func (s *radau) calcDefects(vs *varSet, traj *trajectoryEval, defects *mat.Dense) {
	ns := s.problem.NumStates()
	stride := len(s.nodes)
	base := s.continuityRows()
	x, xdot := (*vs)[States], traj.xdot
	var residual mat.Dense
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		igrid := imesh * stride
		s.timeAndParameterContinuity(vs, imesh, defects)
		h := traj.times[igrid+stride] - traj.times[igrid]

		// residual = h*xdot_colloc - X*D over the interval's s+1 points.
		xi := x.Slice(0, ns, igrid, igrid+stride+1)
		residual.Mul(xi, s.diffMatrix)
		for k := 0; k < stride; k++ {
			for r := 0; r < ns; r++ {
				value := h*xdot.At(r, igrid+1+k) - residual.At(r, k)
				defects.Set(base+k*ns+r, imesh, value)
			}
		}
		residual.Reset()
	}
}

func (s *radau) interpControlPoints() ([]int, error) {
	if !s.solver.InterpolateControlMeshInteriorPoints {
		return nil, nil
	}
	stride := len(s.nodes)
	points := make([]int, 0, s.numMeshIntervals*(stride-1))
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		igrid := imesh * stride
		for k := 1; k < stride; k++ {
			points = append(points, igrid+k)
		}
	}
	return points, nil
}

func (s *radau) calcInterpolatingControls(controls *mat.Dense, out *mat.Dense) error {
	if out == nil {
		return nil
	}
	stride := len(s.nodes)
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

func (s *radau) variableOrder() []varEntry {
	stride := len(s.nodes)
	hasSlacks := rows(s.lowerBounds[Slacks]) > 0
	var order []varEntry
	for imesh := 0; imesh < s.numMeshIntervals; imesh++ {
		igrid := imesh * stride
		order = append(order,
			varEntry{States, igrid},
			varEntry{InitialTime, imesh},
			varEntry{FinalTime, imesh},
			varEntry{Parameters, imesh},
		)
		for i := 1; i < stride; i++ {
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
		if hasSlacks {
			order = append(order, varEntry{Slacks, imesh})
		}
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
