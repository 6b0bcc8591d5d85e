package transcribe

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/mesh"
	"github.com/san-kum/trajopt/internal/ocp"
)

// Transcription converts a continuous optimal control problem into a
// finite-dimensional nonlinear program. It is built once, immutable
// afterward, and holds non-owning references to its collaborators.
type Transcription struct {
	problem *ocp.Problem
	solver  *ocp.Solver
	mesh    *mesh.Mesh
	scheme  scheme

	grid             []float64
	numGridPoints    int
	numMeshPoints    int
	numMeshIntervals int
	// pointsPerMeshInterval counts both interval endpoints.
	pointsPerMeshInterval int

	lowerBounds varSet
	upperBounds varSet
	shift       [numVars]*mat.VecDense
	dilate      [numVars]*mat.VecDense

	quadCoeffs     []float64
	meshIndices    []float64
	controlIndices []float64
	meshGridIndex  []int

	order        []varEntry
	varColOffset [numVars][]int
	numDecision  int

	interpPoints  []int
	pathGridIndex []int

	numDefectsPerMeshInterval int
	numConstraints            int
	conLower                  []float64
	conUpper                  []float64

	solved bool
}

// New builds the full transcription: grid, variable layout, bounds,
// scaling, quadrature, indicator vectors, and the flattened layout.
// Configuration errors surface here; the instance is immutable after.
func New(problem *ocp.Problem, solver *ocp.Solver) (*Transcription, error) {
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	m, err := mesh.New(solver.Mesh)
	if err != nil {
		return nil, err
	}
	t := &Transcription{problem: problem, solver: solver, mesh: m}
	if t.scheme, err = newScheme(t); err != nil {
		return nil, err
	}
	if err := t.transcribe(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Transcription) transcribe() error {
	interior := t.scheme.interiorNodes()
	t.grid = t.mesh.Grid(interior)
	t.numGridPoints = len(t.grid)
	t.numMeshPoints = t.mesh.NumPoints()
	t.numMeshIntervals = t.mesh.NumIntervals()
	t.pointsPerMeshInterval = len(interior) + 2

	if err := t.allocate(); err != nil {
		return err
	}
	if err := t.buildIndicators(); err != nil {
		return err
	}
	if err := t.buildVariableLayout(); err != nil {
		return err
	}
	return t.buildConstraintLayout()
}

// allocate creates every variable category with its shape, bounds, and
// scaling factors.
func (t *Transcription) allocate() error {
	p := t.problem
	n, m, mi := t.numGridPoints, t.numMeshPoints, t.numMeshIntervals

	slackRows, projRows := 0, 0
	if p.EnforceConstraintDerivatives && p.NumKinematicEquations > 0 {
		slackRows = p.NumKinematicEquations
		if t.scheme.name() == ocp.SchemeGauss {
			projRows = p.NumStates()
		}
	}

	shapes := [numVars][2]int{
		InitialTime:      {1, m},
		FinalTime:        {1, m},
		States:           {p.NumStates(), n},
		Controls:         {p.NumControls(), n},
		Multipliers:      {p.NumMultipliers(), n},
		Derivatives:      {p.NumDerivatives(), n},
		Parameters:       {p.NumParameters(), m},
		Slacks:           {slackRows, mi},
		ProjectionStates: {projRows, mi},
	}
	for v := Var(0); v < numVars; v++ {
		t.lowerBounds[v] = newDense(shapes[v][0], shapes[v][1])
		t.upperBounds[v] = newDense(shapes[v][0], shapes[v][1])
		if shapes[v][0] > 0 {
			t.shift[v] = mat.NewVecDense(shapes[v][0], nil)
			t.dilate[v] = mat.NewVecDense(shapes[v][0], nil)
		}
	}

	set := func(v Var, row int, b, initial, final ocp.Bounds) error {
		c := cols(t.lowerBounds[v])
		if err := t.setBounds(v, row, 0, c, b); err != nil {
			return err
		}
		if initial.IsSet() {
			if err := t.setBounds(v, row, 0, 1, initial); err != nil {
				return err
			}
		}
		if final.IsSet() {
			if err := t.setBounds(v, row, c-1, c, final); err != nil {
				return err
			}
		}
		return t.setScaling(v, row, b)
	}

	if err := set(InitialTime, 0, p.InitialTimeBounds, ocp.Free(), ocp.Free()); err != nil {
		return err
	}
	if err := set(FinalTime, 0, p.FinalTimeBounds, ocp.Free(), ocp.Free()); err != nil {
		return err
	}
	for r, info := range p.States {
		if err := set(States, r, info.Bounds, info.InitialBounds, info.FinalBounds); err != nil {
			return err
		}
	}
	for r, info := range p.Controls {
		if err := set(Controls, r, info.Bounds, info.InitialBounds, info.FinalBounds); err != nil {
			return err
		}
	}
	for r, info := range p.Multipliers {
		if err := set(Multipliers, r, info.Bounds, info.InitialBounds, info.FinalBounds); err != nil {
			return err
		}
	}
	for r, info := range p.Derivatives {
		if err := set(Derivatives, r, info.Bounds, ocp.Free(), ocp.Free()); err != nil {
			return err
		}
	}
	for r, info := range p.Parameters {
		if err := set(Parameters, r, info.Bounds, ocp.Free(), ocp.Free()); err != nil {
			return err
		}
	}
	for r := 0; r < slackRows; r++ {
		if err := set(Slacks, r, t.solver.SlackBounds, ocp.Free(), ocp.Free()); err != nil {
			return err
		}
	}
	for r := 0; r < projRows; r++ {
		if err := set(ProjectionStates, r, p.States[r].Bounds, ocp.Free(), ocp.Free()); err != nil {
			return err
		}
	}
	return nil
}

// buildIndicators computes and validates the per-scheme quadrature and
// indicator vectors.
func (t *Transcription) buildIndicators() error {
	t.quadCoeffs = t.scheme.createQuadratureCoefficients()
	if len(t.quadCoeffs) != t.numGridPoints {
		return fmt.Errorf("%w: quadrature coefficients must have %d columns, got %d",
			ocp.ErrInternal, t.numGridPoints, len(t.quadCoeffs))
	}

	t.meshIndices = t.scheme.createMeshIndices()
	if len(t.meshIndices) != t.numGridPoints {
		return fmt.Errorf("%w: mesh indices must have %d columns, got %d",
			ocp.ErrInternal, t.numGridPoints, len(t.meshIndices))
	}
	sum := 0.0
	for _, v := range t.meshIndices {
		sum += v
	}
	if sum != float64(t.numMeshPoints) {
		return fmt.Errorf("%w: sum of mesh indices (%g) must equal the number of mesh points (%d)",
			ocp.ErrInternal, sum, t.numMeshPoints)
	}
	t.meshGridIndex = t.meshGridIndex[:0]
	for i, v := range t.meshIndices {
		if v != 0 {
			t.meshGridIndex = append(t.meshGridIndex, i)
		}
	}

	t.controlIndices = t.scheme.createControlIndices()
	if len(t.controlIndices) != t.numGridPoints {
		return fmt.Errorf("%w: control indices must have %d columns, got %d",
			ocp.ErrInternal, t.numGridPoints, len(t.controlIndices))
	}
	return nil
}

// buildVariableLayout fixes the canonical variable order and verifies it
// covers every column of every category exactly once.
func (t *Transcription) buildVariableLayout() error {
	t.order = t.scheme.variableOrder()
	for v := Var(0); v < numVars; v++ {
		t.varColOffset[v] = make([]int, cols(t.lowerBounds[v]))
		for i := range t.varColOffset[v] {
			t.varColOffset[v][i] = -1
		}
	}
	offset := 0
	for _, e := range t.order {
		nc := cols(t.lowerBounds[e.v])
		if nc == 0 {
			// Empty category; the order lists it unconditionally.
			continue
		}
		if e.col < 0 || e.col >= nc {
			return fmt.Errorf("%w: variable order references %s column %d of %d",
				ocp.ErrInternal, e.v, e.col, nc)
		}
		if t.varColOffset[e.v][e.col] != -1 {
			return fmt.Errorf("%w: variable order lists %s column %d twice",
				ocp.ErrInternal, e.v, e.col)
		}
		t.varColOffset[e.v][e.col] = offset
		offset += rows(t.lowerBounds[e.v])
	}
	for v := Var(0); v < numVars; v++ {
		if rows(t.lowerBounds[v]) == 0 {
			continue
		}
		for col, off := range t.varColOffset[v] {
			if off == -1 {
				return fmt.Errorf("%w: variable order misses %s column %d",
					ocp.ErrInternal, v, col)
			}
		}
	}
	t.numDecision = offset
	return nil
}

// buildConstraintLayout fixes the interpolation points, the path
// evaluation points, the defect shape, and the flat constraint bounds.
func (t *Transcription) buildConstraintLayout() error {
	points, err := t.scheme.interpControlPoints()
	if err != nil {
		return err
	}
	t.interpPoints = points

	if t.solver.EnforcePathConstraintMeshInteriorPoints {
		t.pathGridIndex = make([]int, t.numGridPoints)
		for i := range t.pathGridIndex {
			t.pathGridIndex[i] = i
		}
	} else {
		t.pathGridIndex = append([]int(nil), t.meshGridIndex...)
	}

	t.numDefectsPerMeshInterval = t.scheme.numDefectRows()

	lower := t.newConstraintSet()
	upper := t.newConstraintSet()
	for i, info := range t.problem.EndpointConstraints {
		for r := 0; r < info.Size; r++ {
			lower.endpoint[i].Set(r, 0, info.Lower[r])
			upper.endpoint[i].Set(r, 0, info.Upper[r])
		}
	}
	for i, info := range t.problem.PathConstraints {
		for r := 0; r < info.Size; r++ {
			for j := 0; j < len(t.pathGridIndex); j++ {
				lower.path[i].Set(r, j, info.Lower[r])
				upper.path[i].Set(r, j, info.Upper[r])
			}
		}
	}

	t.numConstraints = t.countConstraints()
	if expected := t.expectedConstraintCount(); expected != t.numConstraints {
		return fmt.Errorf("%w: flattened constraint count %d disagrees with layout total %d",
			ocp.ErrInternal, t.numConstraints, expected)
	}
	if t.conLower, err = t.flattenConstraints(lower); err != nil {
		return err
	}
	if t.conUpper, err = t.flattenConstraints(upper); err != nil {
		return err
	}
	return nil
}

func (t *Transcription) expectedConstraintCount() int {
	p := t.problem
	n := 0
	for _, ec := range p.EndpointConstraints {
		n += ec.Size
	}
	n += t.numMeshIntervals * t.numDefectsPerMeshInterval
	n += (p.NumMultibodyResiduals + p.NumAuxiliaryResiduals) * t.numGridPoints
	n += p.NumKinematicEquations * t.numMeshPoints
	for _, pc := range p.PathConstraints {
		n += pc.Size * len(t.pathGridIndex)
	}
	n += p.NumControls() * len(t.interpPoints)
	return n
}

// intervalOf returns the mesh interval owning grid point i; shared mesh
// points belong to the interval on their left.
func (t *Transcription) intervalOf(i int) int {
	stride := t.pointsPerMeshInterval - 1
	imesh := i / stride
	if imesh >= t.numMeshIntervals {
		imesh = t.numMeshIntervals - 1
	}
	return imesh
}

// trajectoryEval holds the dynamics evaluated over the whole grid.
type trajectoryEval struct {
	times     []float64
	xdot      *mat.Dense
	multibody *mat.Dense
	auxiliary *mat.Dense
	kinematic *mat.Dense
}

// times derives the absolute time grid from the unscaled variables.
func (t *Transcription) times(vs *varSet) []float64 {
	ti := (*vs)[InitialTime].At(0, 0)
	tf := (*vs)[FinalTime].At(0, t.numMeshPoints-1)
	return mesh.CreateTimes(t.grid, ti, tf)
}

// evalDynamics calls the problem dynamics at every grid point.
func (t *Transcription) evalDynamics(vs *varSet) (*trajectoryEval, error) {
	p := t.problem
	traj := &trajectoryEval{
		times:     t.times(vs),
		xdot:      newDense(p.NumStates(), t.numGridPoints),
		multibody: newDense(p.NumMultibodyResiduals, t.numGridPoints),
		auxiliary: newDense(p.NumAuxiliaryResiduals, t.numGridPoints),
		kinematic: newDense(p.NumKinematicEquations, t.numMeshPoints),
	}
	kinSeen := 0
	for i := 0; i < t.numGridPoints; i++ {
		in := ocp.DynamicsInput{
			Time:        traj.times[i],
			States:      column((*vs)[States], i, nil),
			Controls:    column((*vs)[Controls], i, nil),
			Parameters:  column((*vs)[Parameters], 0, nil),
			Multipliers: column((*vs)[Multipliers], i, nil),
			Derivatives: column((*vs)[Derivatives], i, nil),
		}
		if (*vs)[Slacks] != nil && t.meshIndices[i] == 0 {
			in.Slacks = column((*vs)[Slacks], t.intervalOf(i), nil)
		}
		out := p.Dynamics(in)
		if len(out.StateDerivatives) != p.NumStates() {
			return nil, fmt.Errorf("%w: dynamics returned %d state derivatives, want %d",
				ocp.ErrInternal, len(out.StateDerivatives), p.NumStates())
		}
		if len(out.MultibodyResiduals) != p.NumMultibodyResiduals {
			return nil, fmt.Errorf("%w: dynamics returned %d multibody residuals, want %d",
				ocp.ErrInternal, len(out.MultibodyResiduals), p.NumMultibodyResiduals)
		}
		if len(out.AuxiliaryResiduals) != p.NumAuxiliaryResiduals {
			return nil, fmt.Errorf("%w: dynamics returned %d auxiliary residuals, want %d",
				ocp.ErrInternal, len(out.AuxiliaryResiduals), p.NumAuxiliaryResiduals)
		}
		if len(out.KinematicErrors) != p.NumKinematicEquations {
			return nil, fmt.Errorf("%w: dynamics returned %d kinematic errors, want %d",
				ocp.ErrInternal, len(out.KinematicErrors), p.NumKinematicEquations)
		}
		for r, v := range out.StateDerivatives {
			traj.xdot.Set(r, i, v)
		}
		for r := 0; r < p.NumMultibodyResiduals; r++ {
			traj.multibody.Set(r, i, out.MultibodyResiduals[r])
		}
		for r := 0; r < p.NumAuxiliaryResiduals; r++ {
			traj.auxiliary.Set(r, i, out.AuxiliaryResiduals[r])
		}
		if t.meshIndices[i] != 0 {
			for r := 0; r < p.NumKinematicEquations; r++ {
				traj.kinematic.Set(r, kinSeen, out.KinematicErrors[r])
			}
			kinSeen++
		}
	}
	return traj, nil
}

// evalConstraintSet computes every residual block from unscaled
// variables.
func (t *Transcription) evalConstraintSet(vs varSet) (*constraintSet, error) {
	traj, err := t.evalDynamics(&vs)
	if err != nil {
		return nil, err
	}
	cs := t.newConstraintSet()
	t.scheme.calcDefects(&vs, traj, cs.defects)
	cs.multibody = traj.multibody
	cs.auxiliary = traj.auxiliary
	cs.kinematic = traj.kinematic

	p := t.problem
	for i, info := range p.EndpointConstraints {
		in := t.endpointInput(&vs, traj.times, info.Integrand)
		out := make([]float64, info.Size)
		info.Eval(in, out)
		for r, v := range out {
			cs.endpoint[i].Set(r, 0, v)
		}
	}
	for i, info := range p.PathConstraints {
		out := make([]float64, info.Size)
		for j, g := range t.pathGridIndex {
			info.Eval(traj.times[g],
				column(vs[States], g, nil),
				column(vs[Controls], g, nil),
				column(vs[Parameters], 0, nil), out)
			for r, v := range out {
				cs.path[i].Set(r, j, v)
			}
		}
	}
	if cs.interpControls != nil {
		if err := t.scheme.calcInterpolatingControls(vs[Controls], cs.interpControls); err != nil {
			return nil, err
		}
	}
	return cs, nil
}

func (t *Transcription) endpointInput(vs *varSet, times []float64,
	integrand func(t float64, x, u, p []float64) float64) ocp.EndpointInput {

	in := ocp.EndpointInput{
		InitialTime:   times[0],
		FinalTime:     times[len(times)-1],
		InitialStates: column((*vs)[States], 0, nil),
		FinalStates:   column((*vs)[States], t.numGridPoints-1, nil),
		Parameters:    column((*vs)[Parameters], 0, nil),
	}
	if integrand != nil {
		in.Integral = t.integrate(vs, times, integrand)
	}
	return in
}

// integrate approximates the integral of fn over the horizon with the
// scheme's quadrature coefficients.
func (t *Transcription) integrate(vs *varSet, times []float64,
	fn func(t float64, x, u, p []float64) float64) float64 {

	duration := times[len(times)-1] - times[0]
	params := column((*vs)[Parameters], 0, nil)
	sum := 0.0
	var xbuf, ubuf []float64
	for i, w := range t.quadCoeffs {
		if w == 0 {
			continue
		}
		xbuf = column((*vs)[States], i, xbuf)
		ubuf = column((*vs)[Controls], i, ubuf)
		sum += w * fn(times[i], xbuf, ubuf, params)
	}
	return duration * sum
}

// ObjectiveTerm is one named contribution to the objective.
type ObjectiveTerm struct {
	Name  string
	Value float64
}

func (t *Transcription) objectiveTerms(vs *varSet) []ObjectiveTerm {
	times := t.times(vs)
	terms := make([]ObjectiveTerm, 0, len(t.problem.Costs))
	for _, cost := range t.problem.Costs {
		integral := 0.0
		if cost.Integrand != nil {
			integral = t.integrate(vs, times, cost.Integrand)
		}
		value := integral
		if cost.Endpoint != nil {
			in := t.endpointInput(vs, times, nil)
			in.Integral = integral
			value = cost.Endpoint(in)
		}
		terms = append(terms, ObjectiveTerm{Name: cost.Name, Value: value})
	}
	return terms
}

// Accessors. Returned slices are copies and safe to mutate.

func (t *Transcription) Problem() *ocp.Problem { return t.problem }
func (t *Transcription) SchemeName() ocp.Scheme {
	return t.scheme.name()
}
func (t *Transcription) Grid() []float64 {
	return append([]float64(nil), t.grid...)
}
func (t *Transcription) NumGridPoints() int    { return t.numGridPoints }
func (t *Transcription) NumMeshPoints() int    { return t.numMeshPoints }
func (t *Transcription) NumMeshIntervals() int { return t.numMeshIntervals }
func (t *Transcription) NumVariables() int     { return t.numDecision }
func (t *Transcription) NumConstraints() int   { return t.numConstraints }

func (t *Transcription) QuadratureCoefficients() []float64 {
	return append([]float64(nil), t.quadCoeffs...)
}
func (t *Transcription) MeshIndices() []float64 {
	return append([]float64(nil), t.meshIndices...)
}
func (t *Transcription) ControlIndices() []float64 {
	return append([]float64(nil), t.controlIndices...)
}

// VariableBounds returns the flat, scaled decision-vector bounds in the
// canonical order.
func (t *Transcription) VariableBounds() (lower, upper []float64, err error) {
	lo, err := t.flattenVariables(t.scaleVars(t.lowerBounds))
	if err != nil {
		return nil, nil, err
	}
	up, err := t.flattenVariables(t.scaleVars(t.upperBounds))
	if err != nil {
		return nil, nil, err
	}
	return lo, up, nil
}

// ConstraintBounds returns the flat constraint bounds in the canonical
// block order.
func (t *Transcription) ConstraintBounds() (lower, upper []float64) {
	return append([]float64(nil), t.conLower...), append([]float64(nil), t.conUpper...)
}

// EvalConstraints evaluates the flat constraint residual vector for a
// flat scaled decision vector.
func (t *Transcription) EvalConstraints(x []float64) ([]float64, error) {
	scaled, err := t.expandVariables(x)
	if err != nil {
		return nil, err
	}
	cs, err := t.evalConstraintSet(t.unscaleVars(scaled))
	if err != nil {
		return nil, err
	}
	return t.flattenConstraints(cs)
}

// Objective evaluates the total objective for a flat scaled decision
// vector.
func (t *Transcription) Objective(x []float64) (float64, error) {
	terms, err := t.ObjectiveBreakdown(x)
	if err != nil {
		return math.NaN(), err
	}
	total := 0.0
	for _, term := range terms {
		total += term.Value
	}
	return total, nil
}

// ObjectiveBreakdown evaluates every named objective term for a flat
// scaled decision vector.
func (t *Transcription) ObjectiveBreakdown(x []float64) ([]ObjectiveTerm, error) {
	scaled, err := t.expandVariables(x)
	if err != nil {
		return nil, err
	}
	vs := t.unscaleVars(scaled)
	return t.objectiveTerms(&vs), nil
}
