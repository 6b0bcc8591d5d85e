package transcribe

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ocp"
)

// Var names a decision-variable category.
type Var int

const (
	InitialTime Var = iota
	FinalTime
	States
	Controls
	Multipliers
	Derivatives
	Parameters
	Slacks
	ProjectionStates
	numVars
)

var varNames = [numVars]string{
	"initial_time", "final_time", "states", "controls",
	"multipliers", "derivatives", "parameters", "slacks",
	"projection_states",
}

func (v Var) String() string {
	if v < 0 || v >= numVars {
		return fmt.Sprintf("Var(%d)", int(v))
	}
	return varNames[v]
}

// varSet holds one dense matrix per category. A nil entry means the
// category is empty (zero rows) for this problem.
type varSet [numVars]*mat.Dense

func rows(m *mat.Dense) int {
	if m == nil {
		return 0
	}
	r, _ := m.Dims()
	return r
}

func cols(m *mat.Dense) int {
	if m == nil {
		return 0
	}
	_, c := m.Dims()
	return c
}

// newDense returns nil for degenerate shapes so empty categories stay
// representable.
func newDense(r, c int) *mat.Dense {
	if r <= 0 || c <= 0 {
		return nil
	}
	return mat.NewDense(r, c, nil)
}

func fillDense(m *mat.Dense, v float64) {
	if m == nil {
		return
	}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, v)
		}
	}
}

// cloneShape allocates a varSet with the same shapes as src.
func (vs *varSet) cloneShape() varSet {
	var out varSet
	for v := range vs {
		out[v] = newDense(rows(vs[v]), cols(vs[v]))
	}
	return out
}

func (vs *varSet) numel() int {
	n := 0
	for v := range vs {
		n += rows(vs[v]) * cols(vs[v])
	}
	return n
}

// column copies column j of category v into dst (len == rows).
func column(m *mat.Dense, j int, dst []float64) []float64 {
	if m == nil {
		return dst[:0]
	}
	r, _ := m.Dims()
	if cap(dst) < r {
		dst = make([]float64, r)
	}
	dst = dst[:r]
	for i := 0; i < r; i++ {
		dst[i] = m.At(i, j)
	}
	return dst
}

// setBounds writes lower/upper bound entries for one row of a category
// over a column range. An unset bound means the entries are free.
func (t *Transcription) setBounds(v Var, row, colStart, colEnd int, b ocp.Bounds) error {
	lo, up := t.lowerBounds[v], t.upperBounds[v]
	if lo == nil || up == nil || row >= rows(lo) || colEnd > cols(lo) {
		return fmt.Errorf("%w: bounds requested for unallocated %s[%d, %d:%d]",
			ocp.ErrInternal, v, row, colStart, colEnd)
	}
	lower, upper := b.LowerOrInf(), b.UpperOrInf()
	for j := colStart; j < colEnd; j++ {
		lo.Set(row, j, lower)
		up.Set(row, j, upper)
	}
	return nil
}

// setScaling records the shift/dilate pair for one row of a category.
// With scaling disabled the pair is the identity. Unbounded rows are
// left unscaled; zero-width bounds pin the row to its value instead of
// dividing by zero.
func (t *Transcription) setScaling(v Var, row int, b ocp.Bounds) error {
	if t.shift[v] == nil || t.dilate[v] == nil || row >= t.shift[v].Len() {
		return fmt.Errorf("%w: scaling requested for unallocated %s[%d]",
			ocp.ErrInternal, v, row)
	}
	dilate, shift := 1.0, 0.0
	if t.solver.ScaleVariablesUsingBounds {
		lower, upper := b.LowerOrInf(), b.UpperOrInf()
		width := upper - lower
		switch {
		case math.IsInf(width, 0) || math.IsNaN(width):
			dilate, shift = 1, 0
		case width == 0:
			dilate, shift = 1, upper
		default:
			dilate = width
			shift = -0.5 * (upper + lower)
		}
	}
	t.dilate[v].SetVec(row, dilate)
	t.shift[v].SetVec(row, shift)
	return nil
}

// scaleVars applies scaled = (unscaled - shift) / dilate, broadcasting
// the per-row factors across columns.
func (t *Transcription) scaleVars(vs varSet) varSet {
	out := vs.cloneShape()
	for v := range vs {
		if vs[v] == nil {
			continue
		}
		r, c := vs[v].Dims()
		for i := 0; i < r; i++ {
			sh, di := t.shift[v].AtVec(i), t.dilate[v].AtVec(i)
			for j := 0; j < c; j++ {
				out[v].Set(i, j, (vs[v].At(i, j)-sh)/di)
			}
		}
	}
	return out
}

// unscaleVars inverts scaleVars: unscaled = scaled*dilate + shift.
func (t *Transcription) unscaleVars(vs varSet) varSet {
	out := vs.cloneShape()
	for v := range vs {
		if vs[v] == nil {
			continue
		}
		r, c := vs[v].Dims()
		for i := 0; i < r; i++ {
			sh, di := t.shift[v].AtVec(i), t.dilate[v].AtVec(i)
			for j := 0; j < c; j++ {
				out[v].Set(i, j, vs[v].At(i, j)*di+sh)
			}
		}
	}
	return out
}
