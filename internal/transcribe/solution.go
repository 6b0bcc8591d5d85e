package transcribe

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/nlp"
	"github.com/san-kum/trajopt/internal/ocp"
)

// Iterate is a structured, unscaled assignment of the decision
// variables, used for initial guesses. Nil matrices fall back to the
// bounds-derived guess.
type Iterate struct {
	InitialTime float64
	FinalTime   float64
	Parameters  []float64
	States      *mat.Dense
	Controls    *mat.Dense
	Multipliers *mat.Dense
	Derivatives *mat.Dense
	HasTimes    bool
}

// Solution is the expanded, unscaled result of a solve.
type Solution struct {
	Times        []float64
	InitialTime  float64
	FinalTime    float64
	States       *mat.Dense
	Controls     *mat.Dense
	Multipliers  *mat.Dense
	Derivatives  *mat.Dense
	Parameters   []float64
	StateNames   []string
	ControlNames []string

	Objective float64
	Terms     []ObjectiveTerm
	Status    string
	Success   bool

	// X is the flat scaled optimizer point the solution was expanded
	// from, usable with EvalConstraints and ConstraintReport.
	X []float64
}

// guessValue picks a representative value inside possibly unbounded
// bounds: the midpoint when finite, the finite side when one-sided,
// zero otherwise.
func guessValue(lower, upper float64) float64 {
	lf, uf := !math.IsInf(lower, 0), !math.IsInf(upper, 0)
	switch {
	case lf && uf:
		return 0.5 * (lower + upper)
	case lf:
		return lower
	case uf:
		return upper
	default:
		return 0
	}
}

// initialGuessVars builds the bounds-derived unscaled guess.
func (t *Transcription) initialGuessVars() varSet {
	vs := t.lowerBounds.cloneShape()
	for v := Var(0); v < numVars; v++ {
		if vs[v] == nil {
			continue
		}
		r, c := vs[v].Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				vs[v].Set(i, j, guessValue(t.lowerBounds[v].At(i, j), t.upperBounds[v].At(i, j)))
			}
		}
	}
	return vs
}

// InitialGuessFromBounds returns the flat, scaled bounds-derived guess.
func (t *Transcription) InitialGuessFromBounds() ([]float64, error) {
	return t.flattenVariables(t.scaleVars(t.initialGuessVars()))
}

// RandomIterateWithinBounds draws every bounded entry uniformly within
// its bounds; unbounded entries are drawn from [-1, 1] around the
// bounds-derived guess.
func (t *Transcription) RandomIterateWithinBounds(rng *rand.Rand) ([]float64, error) {
	vs := t.initialGuessVars()
	for v := Var(0); v < numVars; v++ {
		if vs[v] == nil {
			continue
		}
		r, c := vs[v].Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				lower, upper := t.lowerBounds[v].At(i, j), t.upperBounds[v].At(i, j)
				u := 2*rng.Float64() - 1
				if math.IsInf(lower, 0) || math.IsInf(upper, 0) {
					vs[v].Set(i, j, vs[v].At(i, j)+u)
				} else {
					vs[v].Set(i, j, 0.5*(lower+upper)+0.5*u*(upper-lower))
				}
			}
		}
	}
	return t.flattenVariables(t.scaleVars(vs))
}

// iterateVars overlays a structured guess onto the bounds-derived one.
func (t *Transcription) iterateVars(guess *Iterate) (varSet, error) {
	vs := t.initialGuessVars()
	if guess == nil {
		return vs, nil
	}
	if guess.HasTimes {
		for j := 0; j < t.numMeshPoints; j++ {
			vs[InitialTime].Set(0, j, guess.InitialTime)
			vs[FinalTime].Set(0, j, guess.FinalTime)
		}
	}
	overlay := func(v Var, m *mat.Dense) error {
		if m == nil {
			return nil
		}
		if rows(m) != rows(vs[v]) || cols(m) != cols(vs[v]) {
			return fmt.Errorf("%w: guess %s is %dx%d, layout expects %dx%d",
				ocp.ErrInternal, v, rows(m), cols(m), rows(vs[v]), cols(vs[v]))
		}
		vs[v].Copy(m)
		return nil
	}
	if err := overlay(States, guess.States); err != nil {
		return varSet{}, err
	}
	if err := overlay(Controls, guess.Controls); err != nil {
		return varSet{}, err
	}
	if err := overlay(Multipliers, guess.Multipliers); err != nil {
		return varSet{}, err
	}
	if err := overlay(Derivatives, guess.Derivatives); err != nil {
		return varSet{}, err
	}
	if guess.Parameters != nil {
		if len(guess.Parameters) != t.problem.NumParameters() {
			return varSet{}, fmt.Errorf("%w: guess has %d parameters, problem has %d",
				ocp.ErrInternal, len(guess.Parameters), t.problem.NumParameters())
		}
		for j := 0; j < t.numMeshPoints; j++ {
			for r, v := range guess.Parameters {
				vs[Parameters].Set(r, j, v)
			}
		}
	}
	return vs, nil
}

// NLP exposes the transcription as a flat nonlinear program in the
// canonical ordering.
func (t *Transcription) NLP() (*nlp.Problem, error) {
	lower, upper, err := t.VariableBounds()
	if err != nil {
		return nil, err
	}
	conLower, conUpper := t.ConstraintBounds()
	return &nlp.Problem{
		NumVariables:    t.numDecision,
		NumConstraints:  t.numConstraints,
		VariableLower:   lower,
		VariableUpper:   upper,
		ConstraintLower: conLower,
		ConstraintUpper: conUpper,
		Objective: func(x []float64) float64 {
			f, err := t.Objective(x)
			if err != nil {
				return math.Inf(1)
			}
			return f
		},
		Constraints: func(x, out []float64) {
			g, err := t.EvalConstraints(x)
			if err != nil {
				for i := range out {
					out[i] = math.Inf(1)
				}
				return
			}
			copy(out, g)
		},
	}, nil
}

// Solve hands the flat program to the optimizer and expands the result.
// An engine instance solves at most once.
func (t *Transcription) Solve(ctx context.Context, guess *Iterate, opt nlp.Optimizer) (*Solution, error) {
	if t.solved {
		return nil, fmt.Errorf("%w: transcription already solved; build a new engine",
			ocp.ErrUnsupported)
	}
	t.solved = true

	vs, err := t.iterateVars(guess)
	if err != nil {
		return nil, err
	}
	x0, err := t.flattenVariables(t.scaleVars(vs))
	if err != nil {
		return nil, err
	}
	problem, err := t.NLP()
	if err != nil {
		return nil, err
	}
	result, err := opt.Minimize(ctx, problem, x0)
	if err != nil {
		return nil, fmt.Errorf("transcribe: optimizer failed: %w", err)
	}
	return t.ExpandSolution(result)
}

// ExpandSolution unpacks a flat optimizer result into an unscaled
// trajectory with the objective breakdown.
func (t *Transcription) ExpandSolution(result *nlp.Result) (*Solution, error) {
	scaled, err := t.expandVariables(result.X)
	if err != nil {
		return nil, err
	}
	vs := t.unscaleVars(scaled)
	terms := t.objectiveTerms(&vs)
	total := 0.0
	for _, term := range terms {
		total += term.Value
	}
	sol := &Solution{
		Times:        t.times(&vs),
		InitialTime:  vs[InitialTime].At(0, 0),
		FinalTime:    vs[FinalTime].At(0, t.numMeshPoints-1),
		States:       vs[States],
		Controls:     vs[Controls],
		Multipliers:  vs[Multipliers],
		Derivatives:  vs[Derivatives],
		Parameters:   column(vs[Parameters], 0, nil),
		StateNames:   ocp.VariableNames(t.problem.States),
		ControlNames: ocp.VariableNames(t.problem.Controls),
		Objective:    total,
		Terms:        terms,
		Status:       result.Status,
		Success:      result.Success,
		X:            append([]float64(nil), result.X...),
	}
	return sol, nil
}

// BlockViolation summarizes one constraint block's worst residual
// violation for diagnostics.
type BlockViolation struct {
	Name      string
	Rows      int
	Worst     float64
	WorstFlat int
}

var conBlockNames = map[conBlock]string{
	conDefect:    "defects",
	conMultibody: "multibody residuals",
	conAuxiliary: "auxiliary residuals",
	conKinematic: "kinematic",
	conInterp:    "interpolating controls",
}

// ConstraintReport evaluates the constraints at x and aggregates the
// worst violation per block, in flattening order.
func (t *Transcription) ConstraintReport(x []float64) ([]BlockViolation, error) {
	flat, err := t.EvalConstraints(x)
	if err != nil {
		return nil, err
	}
	cs, err := t.expandConstraints(flat)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*BlockViolation)
	var names []string
	iflat := 0
	t.walkConstraints(cs, func(block conBlock, sub int, m *mat.Dense, col int) {
		name := conBlockNames[block]
		switch block {
		case conEndpoint:
			name = "endpoint " + t.problem.EndpointConstraints[sub].Name
		case conPath:
			name = "path " + t.problem.PathConstraints[sub].Name
		}
		bv, ok := byName[name]
		if !ok {
			bv = &BlockViolation{Name: name, WorstFlat: -1}
			byName[name] = bv
			names = append(names, name)
		}
		for r := 0; r < rows(m); r++ {
			v := intervalViolation(flat[iflat], t.conLower[iflat], t.conUpper[iflat])
			bv.Rows++
			if v > bv.Worst {
				bv.Worst = v
				bv.WorstFlat = iflat
			}
			iflat++
		}
	})
	report := make([]BlockViolation, 0, len(names))
	for _, name := range names {
		report = append(report, *byName[name])
	}
	return report, nil
}

// intervalViolation returns how far v lies outside [lower, upper].
func intervalViolation(v, lower, upper float64) float64 {
	switch {
	case v < lower:
		return lower - v
	case v > upper:
		return v - upper
	default:
		return 0
	}
}
