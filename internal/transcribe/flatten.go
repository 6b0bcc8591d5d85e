package transcribe

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ocp"
)

// constraintSet groups the heterogeneous constraint blocks. Matrices may
// be nil when the corresponding count is zero.
type constraintSet struct {
	defects        *mat.Dense   // defect rows x (M-1)
	multibody      *mat.Dense   // residuals x N
	auxiliary      *mat.Dense   // residuals x N
	kinematic      *mat.Dense   // equations x M
	endpoint       []*mat.Dense // size x 1 each
	path           []*mat.Dense // size x path points each
	interpControls *mat.Dense   // controls x interpolation points
}

func (t *Transcription) newConstraintSet() *constraintSet {
	p := t.problem
	cs := &constraintSet{
		defects:   newDense(t.numDefectsPerMeshInterval, t.numMeshIntervals),
		multibody: newDense(p.NumMultibodyResiduals, t.numGridPoints),
		auxiliary: newDense(p.NumAuxiliaryResiduals, t.numGridPoints),
		kinematic: newDense(p.NumKinematicEquations, t.numMeshPoints),
		endpoint:  make([]*mat.Dense, len(p.EndpointConstraints)),
		path:      make([]*mat.Dense, len(p.PathConstraints)),
		interpControls: newDense(p.NumControls(),
			len(t.interpPoints)),
	}
	for i, info := range p.EndpointConstraints {
		cs.endpoint[i] = newDense(info.Size, 1)
	}
	for i, info := range p.PathConstraints {
		cs.path[i] = newDense(info.Size, len(t.pathGridIndex))
	}
	return cs
}

// checkShapes verifies a constraint set matches the precomputed layout.
func (t *Transcription) checkShapes(cs *constraintSet) error {
	check := func(name string, m *mat.Dense, r, c int) error {
		// Empty blocks are nil (newDense), so a 0xN or Nx0 expectation
		// must compare as 0x0.
		if r == 0 || c == 0 {
			r, c = 0, 0
		}
		if rows(m) != r || cols(m) != c {
			return fmt.Errorf("%w: %s block is %dx%d, layout expects %dx%d",
				ocp.ErrInternal, name, rows(m), cols(m), r, c)
		}
		return nil
	}
	p := t.problem
	if err := check("defects", cs.defects, t.numDefectsPerMeshInterval, t.numMeshIntervals); err != nil {
		return err
	}
	if err := check("multibody residuals", cs.multibody, p.NumMultibodyResiduals, t.numGridPoints); err != nil {
		return err
	}
	if err := check("auxiliary residuals", cs.auxiliary, p.NumAuxiliaryResiduals, t.numGridPoints); err != nil {
		return err
	}
	if err := check("kinematic", cs.kinematic, p.NumKinematicEquations, t.numMeshPoints); err != nil {
		return err
	}
	if len(cs.endpoint) != len(p.EndpointConstraints) || len(cs.path) != len(p.PathConstraints) {
		return fmt.Errorf("%w: endpoint/path block count mismatch", ocp.ErrInternal)
	}
	for i, info := range p.EndpointConstraints {
		if err := check("endpoint "+info.Name, cs.endpoint[i], info.Size, 1); err != nil {
			return err
		}
	}
	for i, info := range p.PathConstraints {
		if err := check("path "+info.Name, cs.path[i], info.Size, len(t.pathGridIndex)); err != nil {
			return err
		}
	}
	return check("interpolating controls", cs.interpControls,
		p.NumControls(), len(t.interpPoints))
}

// conBlock tags a constraint block during a walk.
type conBlock int

const (
	conEndpoint conBlock = iota
	conDefect
	conMultibody
	conAuxiliary
	conKinematic
	conPath
	conInterp
)

// walkConstraints visits every (block, column) pair of a constraint set
// in the canonical time-local order: endpoint constraints first, then
// per mesh interval the defect column (time continuity, parameter
// continuity, dynamics defects), the per-point residuals, the kinematic
// and path constraints, and the interval's interpolation-consistency
// columns; finally the trailing blocks at the last grid point. The order
// clusters constraints sharing variables into nearby rows, keeping the
// Jacobian near-banded; it must match the variable order contract.
func (t *Transcription) walkConstraints(cs *constraintSet,
	visit func(block conBlock, sub int, m *mat.Dense, col int)) {

	for i, ep := range cs.endpoint {
		visit(conEndpoint, i, ep, 0)
	}
	stride := t.pointsPerMeshInterval - 1
	midpoints := t.solver.EnforcePathConstraintMeshInteriorPoints
	interpPerInterval := 0
	if t.numMeshIntervals > 0 {
		interpPerInterval = len(t.interpPoints) / t.numMeshIntervals
	}
	for imesh := 0; imesh < t.numMeshIntervals; imesh++ {
		igrid := imesh * stride
		visit(conDefect, 0, cs.defects, imesh)
		for i := 0; i < stride; i++ {
			visit(conMultibody, 0, cs.multibody, igrid+i)
			visit(conAuxiliary, 0, cs.auxiliary, igrid+i)
		}
		visit(conKinematic, 0, cs.kinematic, imesh)
		if midpoints {
			for i := 0; i < stride; i++ {
				for p, path := range cs.path {
					visit(conPath, p, path, igrid+i)
				}
			}
		} else {
			for p, path := range cs.path {
				visit(conPath, p, path, imesh)
			}
		}
		for i := 0; i < interpPerInterval; i++ {
			visit(conInterp, 0, cs.interpControls, imesh*interpPerInterval+i)
		}
	}
	visit(conMultibody, 0, cs.multibody, t.numGridPoints-1)
	visit(conAuxiliary, 0, cs.auxiliary, t.numGridPoints-1)
	visit(conKinematic, 0, cs.kinematic, t.numMeshPoints-1)
	if midpoints {
		for p, path := range cs.path {
			visit(conPath, p, path, t.numGridPoints-1)
		}
	} else {
		for p, path := range cs.path {
			visit(conPath, p, path, t.numMeshPoints-1)
		}
	}
}

func (t *Transcription) countConstraints() int {
	n := 0
	cs := t.newConstraintSet()
	t.walkConstraints(cs, func(_ conBlock, _ int, m *mat.Dense, _ int) {
		n += rows(m)
	})
	return n
}

// flattenConstraints serializes the blocks into one column vector. The
// running index must land exactly on the precomputed total.
func (t *Transcription) flattenConstraints(cs *constraintSet) ([]float64, error) {
	if err := t.checkShapes(cs); err != nil {
		return nil, err
	}
	flat := make([]float64, t.numConstraints)
	iflat := 0
	t.walkConstraints(cs, func(_ conBlock, _ int, m *mat.Dense, col int) {
		for r := 0; r < rows(m); r++ {
			flat[iflat] = m.At(r, col)
			iflat++
		}
	})
	if iflat != t.numConstraints {
		return nil, fmt.Errorf("%w: flattened %d constraint entries, layout expects %d",
			ocp.ErrInternal, iflat, t.numConstraints)
	}
	return flat, nil
}

// expandConstraints inverts flattenConstraints.
func (t *Transcription) expandConstraints(flat []float64) (*constraintSet, error) {
	if len(flat) != t.numConstraints {
		return nil, fmt.Errorf("%w: flat constraint vector has %d entries, layout expects %d",
			ocp.ErrInternal, len(flat), t.numConstraints)
	}
	cs := t.newConstraintSet()
	iflat := 0
	t.walkConstraints(cs, func(_ conBlock, _ int, m *mat.Dense, col int) {
		for r := 0; r < rows(m); r++ {
			m.Set(r, col, flat[iflat])
			iflat++
		}
	})
	if iflat != t.numConstraints {
		return nil, fmt.Errorf("%w: expanded %d constraint entries, layout expects %d",
			ocp.ErrInternal, iflat, t.numConstraints)
	}
	return cs, nil
}

// flattenVariables serializes a variable set into the canonical flat
// decision vector.
func (t *Transcription) flattenVariables(vs varSet) ([]float64, error) {
	for v := Var(0); v < numVars; v++ {
		if rows(vs[v]) != rows(t.lowerBounds[v]) || cols(vs[v]) != cols(t.lowerBounds[v]) {
			return nil, fmt.Errorf("%w: %s is %dx%d, layout expects %dx%d",
				ocp.ErrInternal, v, rows(vs[v]), cols(vs[v]),
				rows(t.lowerBounds[v]), cols(t.lowerBounds[v]))
		}
	}
	flat := make([]float64, t.numDecision)
	iflat := 0
	for _, e := range t.order {
		m := vs[e.v]
		for r := 0; r < rows(m); r++ {
			flat[iflat] = m.At(r, e.col)
			iflat++
		}
	}
	if iflat != t.numDecision {
		return nil, fmt.Errorf("%w: flattened %d variable entries, layout expects %d",
			ocp.ErrInternal, iflat, t.numDecision)
	}
	return flat, nil
}

// expandVariables inverts flattenVariables.
func (t *Transcription) expandVariables(flat []float64) (varSet, error) {
	if len(flat) != t.numDecision {
		return varSet{}, fmt.Errorf("%w: flat decision vector has %d entries, layout expects %d",
			ocp.ErrInternal, len(flat), t.numDecision)
	}
	vs := t.lowerBounds.cloneShape()
	iflat := 0
	for _, e := range t.order {
		m := vs[e.v]
		for r := 0; r < rows(m); r++ {
			m.Set(r, e.col, flat[iflat])
			iflat++
		}
	}
	return vs, nil
}
