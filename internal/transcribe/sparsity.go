package transcribe

import (
	"gonum.org/v1/gonum/mat"
)

// Pattern is a structural nonzero pattern of the constraint Jacobian:
// rows follow the flat constraint order, columns the flat decision
// order.
type Pattern struct {
	Rows int
	Cols int
	set  []bool
	nnz  int
}

func newPattern(rows, cols int) *Pattern {
	return &Pattern{Rows: rows, Cols: cols, set: make([]bool, rows*cols)}
}

func (p *Pattern) mark(r, c int) {
	if r < 0 || r >= p.Rows || c < 0 || c >= p.Cols {
		return
	}
	if !p.set[r*p.Cols+c] {
		p.set[r*p.Cols+c] = true
		p.nnz++
	}
}

// At reports whether entry (r, c) is structurally nonzero.
func (p *Pattern) At(r, c int) bool { return p.set[r*p.Cols+c] }

// NNZ returns the number of structural nonzeros.
func (p *Pattern) NNZ() int { return p.nnz }

// Density returns the nonzero fraction.
func (p *Pattern) Density() float64 {
	if p.Rows == 0 || p.Cols == 0 {
		return 0
	}
	return float64(p.nnz) / float64(p.Rows*p.Cols)
}

// Bandwidth returns the widest |col - row-proportional center| over the
// nonzeros, a rough measure of how banded the pattern is.
func (p *Pattern) Bandwidth() int {
	if p.Rows == 0 || p.Cols == 0 {
		return 0
	}
	worst := 0
	for r := 0; r < p.Rows; r++ {
		center := r * p.Cols / p.Rows
		for c := 0; c < p.Cols; c++ {
			if !p.set[r*p.Cols+c] {
				continue
			}
			d := c - center
			if d < 0 {
				d = -d
			}
			if d > worst {
				worst = d
			}
		}
	}
	return worst
}

// markVarColumn marks every flat-decision entry of category v's column
// col on constraint rows [row, row+height).
func (t *Transcription) markVarColumn(p *Pattern, row, height int, v Var, col int) {
	if col < 0 || col >= len(t.varColOffset[v]) {
		return
	}
	start := t.varColOffset[v][col]
	n := rows(t.lowerBounds[v])
	for r := row; r < row+height; r++ {
		for c := start; c < start+n; c++ {
			p.mark(r, c)
		}
	}
}

// markGridPoint marks the per-point dynamics variables at grid point i.
func (t *Transcription) markGridPoint(p *Pattern, row, height, i int) {
	t.markVarColumn(p, row, height, States, i)
	t.markVarColumn(p, row, height, Controls, i)
	t.markVarColumn(p, row, height, Multipliers, i)
	t.markVarColumn(p, row, height, Derivatives, i)
}

// markTimeAndParameters marks the horizon endpoints and parameters, on
// which every evaluated time depends.
func (t *Transcription) markTimeAndParameters(p *Pattern, row, height int) {
	t.markVarColumn(p, row, height, InitialTime, 0)
	t.markVarColumn(p, row, height, FinalTime, t.numMeshPoints-1)
	t.markVarColumn(p, row, height, Parameters, 0)
}

// JacobianSparsity derives the structural constraint Jacobian pattern
// from the layout alone. It is conservative: every entry that can be
// nonzero for some problem instance is marked.
func (t *Transcription) JacobianSparsity() *Pattern {
	p := newPattern(t.numConstraints, t.numDecision)
	stride := t.pointsPerMeshInterval - 1
	midpoints := t.solver.EnforcePathConstraintMeshInteriorPoints

	row := 0
	cs := t.newConstraintSet()
	t.walkConstraints(cs, func(block conBlock, sub int, m *mat.Dense, col int) {
		height := rows(m)
		switch block {
		case conEndpoint:
			// Initial and final point plus, through the integrand, the
			// whole trajectory.
			t.markTimeAndParameters(p, row, height)
			if t.problem.EndpointConstraints[sub].Integrand != nil {
				for i := 0; i < t.numGridPoints; i++ {
					t.markVarColumn(p, row, height, States, i)
					t.markVarColumn(p, row, height, Controls, i)
				}
			} else {
				t.markGridPoint(p, row, height, 0)
				t.markGridPoint(p, row, height, t.numGridPoints-1)
			}
		case conDefect:
			imesh := col
			igrid := imesh * stride
			t.markTimeAndParameters(p, row, height)
			t.markVarColumn(p, row, height, InitialTime, imesh)
			t.markVarColumn(p, row, height, InitialTime, imesh+1)
			t.markVarColumn(p, row, height, FinalTime, imesh)
			t.markVarColumn(p, row, height, FinalTime, imesh+1)
			t.markVarColumn(p, row, height, Parameters, imesh)
			t.markVarColumn(p, row, height, Parameters, imesh+1)
			for i := igrid; i <= igrid+stride; i++ {
				t.markGridPoint(p, row, height, i)
			}
			t.markVarColumn(p, row, height, Slacks, imesh)
			t.markVarColumn(p, row, height, ProjectionStates, imesh)
		case conMultibody, conAuxiliary:
			t.markTimeAndParameters(p, row, height)
			t.markGridPoint(p, row, height, col)
			if t.meshIndices[col] == 0 {
				t.markVarColumn(p, row, height, Slacks, t.intervalOf(col))
			}
		case conKinematic:
			t.markTimeAndParameters(p, row, height)
			t.markGridPoint(p, row, height, t.meshGridIndex[col])
		case conPath:
			g := col
			if !midpoints {
				g = t.meshGridIndex[col]
			}
			t.markTimeAndParameters(p, row, height)
			t.markVarColumn(p, row, height, States, g)
			t.markVarColumn(p, row, height, Controls, g)
		case conInterp:
			g := t.interpPoints[col]
			imesh := t.intervalOf(g)
			t.markVarColumn(p, row, height, Controls, g)
			t.markVarColumn(p, row, height, Controls, imesh*stride)
			t.markVarColumn(p, row, height, Controls, imesh*stride+stride)
		}
		row += height
	})
	return p
}
