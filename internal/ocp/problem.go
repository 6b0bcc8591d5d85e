package ocp

import "fmt"

// VariableInfo describes one row of a variable category: its name, the
// bounds holding over the whole trajectory, and optional tighter bounds
// at the initial and final grid points.
type VariableInfo struct {
	Name          string
	Bounds        Bounds
	InitialBounds Bounds
	FinalBounds   Bounds
}

// DynamicsInput carries the values at one evaluation point.
type DynamicsInput struct {
	Time        float64
	States      []float64
	Controls    []float64
	Parameters  []float64
	Multipliers []float64
	Derivatives []float64
	Slacks      []float64
}

// DynamicsOutput carries the model evaluation at one point. Slices may
// be nil when the corresponding count on the Problem is zero.
type DynamicsOutput struct {
	StateDerivatives   []float64
	MultibodyResiduals []float64
	AuxiliaryResiduals []float64
	KinematicErrors    []float64
}

// EndpointInput is handed to endpoint constraints and cost terms.
type EndpointInput struct {
	InitialTime   float64
	FinalTime     float64
	InitialStates []float64
	FinalStates   []float64
	Parameters    []float64
	Integral      float64
}

// PathConstraintInfo describes an algebraic constraint enforced at every
// path-constraint point of the grid.
type PathConstraintInfo struct {
	Name  string
	Size  int
	Lower []float64
	Upper []float64
	Eval  func(t float64, states, controls, parameters, out []float64)
}

// EndpointConstraintInfo describes a constraint on the trajectory
// endpoints, optionally depending on an integral over the trajectory.
type EndpointConstraintInfo struct {
	Name      string
	Size      int
	Lower     []float64
	Upper     []float64
	Integrand func(t float64, states, controls, parameters []float64) float64
	Eval      func(in EndpointInput, out []float64)
}

// CostInfo describes one objective term. If Endpoint is nil the term
// value is the integral of Integrand over the horizon.
type CostInfo struct {
	Name      string
	Integrand func(t float64, states, controls, parameters []float64) float64
	Endpoint  func(in EndpointInput) float64
}

// Problem is the continuous-time optimal control problem handed to the
// transcription engine. The engine references it without owning it; the
// problem must not be mutated for the engine's lifetime.
type Problem struct {
	Name string

	InitialTimeBounds Bounds
	FinalTimeBounds   Bounds

	States      []VariableInfo
	Controls    []VariableInfo
	Parameters  []VariableInfo
	Multipliers []VariableInfo
	Derivatives []VariableInfo

	NumMultibodyResiduals int
	NumAuxiliaryResiduals int
	NumKinematicEquations int

	// EnforceConstraintDerivatives requests enforcement of kinematic
	// constraint derivatives; the two-point scheme rejects it.
	EnforceConstraintDerivatives bool

	Dynamics func(in DynamicsInput) DynamicsOutput

	EndpointConstraints []EndpointConstraintInfo
	PathConstraints     []PathConstraintInfo
	Costs               []CostInfo
}

func (p *Problem) NumStates() int      { return len(p.States) }
func (p *Problem) NumControls() int    { return len(p.Controls) }
func (p *Problem) NumParameters() int  { return len(p.Parameters) }
func (p *Problem) NumMultipliers() int { return len(p.Multipliers) }
func (p *Problem) NumDerivatives() int { return len(p.Derivatives) }

// VariableNames returns the names of the given descriptor list.
func VariableNames(infos []VariableInfo) []string {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}

// checkOrdered rejects set bounds with Lower > Upper; inverted bounds
// would flip the sign of the bounds-based scaling.
func checkOrdered(context string, b Bounds) error {
	if b.Defined && b.Lower > b.Upper {
		return fmt.Errorf("%w: %s bounds are inverted [%g, %g]",
			ErrInvalidProblem, context, b.Lower, b.Upper)
	}
	return nil
}

func checkVariableBounds(category string, infos []VariableInfo) error {
	for _, info := range infos {
		name := category + " " + info.Name
		if err := checkOrdered(name, info.Bounds); err != nil {
			return err
		}
		if err := checkOrdered("initial "+name, info.InitialBounds); err != nil {
			return err
		}
		if err := checkOrdered("final "+name, info.FinalBounds); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the problem definition for internal consistency.
func (p *Problem) Validate() error {
	if p.Dynamics == nil && p.NumStates() > 0 {
		return fmt.Errorf("%w: problem %q has states but no dynamics", ErrInvalidProblem, p.Name)
	}
	if p.NumStates() == 0 {
		return fmt.Errorf("%w: problem %q has no states", ErrInvalidProblem, p.Name)
	}
	if err := checkOrdered("initial time", p.InitialTimeBounds); err != nil {
		return err
	}
	if err := checkOrdered("final time", p.FinalTimeBounds); err != nil {
		return err
	}
	for _, group := range []struct {
		category string
		infos    []VariableInfo
	}{
		{"state", p.States},
		{"control", p.Controls},
		{"parameter", p.Parameters},
		{"multiplier", p.Multipliers},
		{"derivative", p.Derivatives},
	} {
		if err := checkVariableBounds(group.category, group.infos); err != nil {
			return err
		}
	}
	for _, pc := range p.PathConstraints {
		if pc.Size <= 0 || pc.Eval == nil {
			return fmt.Errorf("%w: path constraint %q is incomplete", ErrInvalidProblem, pc.Name)
		}
		if len(pc.Lower) != pc.Size || len(pc.Upper) != pc.Size {
			return fmt.Errorf("%w: path constraint %q bounds must have %d entries",
				ErrInvalidProblem, pc.Name, pc.Size)
		}
		for r := 0; r < pc.Size; r++ {
			if pc.Lower[r] > pc.Upper[r] {
				return fmt.Errorf("%w: path constraint %q row %d bounds are inverted",
					ErrInvalidProblem, pc.Name, r)
			}
		}
	}
	for _, ec := range p.EndpointConstraints {
		if ec.Size <= 0 || ec.Eval == nil {
			return fmt.Errorf("%w: endpoint constraint %q is incomplete", ErrInvalidProblem, ec.Name)
		}
		if len(ec.Lower) != ec.Size || len(ec.Upper) != ec.Size {
			return fmt.Errorf("%w: endpoint constraint %q bounds must have %d entries",
				ErrInvalidProblem, ec.Name, ec.Size)
		}
		for r := 0; r < ec.Size; r++ {
			if ec.Lower[r] > ec.Upper[r] {
				return fmt.Errorf("%w: endpoint constraint %q row %d bounds are inverted",
					ErrInvalidProblem, ec.Name, r)
			}
		}
	}
	if len(p.Costs) == 0 {
		return fmt.Errorf("%w: problem %q has no cost terms", ErrInvalidProblem, p.Name)
	}
	for _, c := range p.Costs {
		if c.Integrand == nil && c.Endpoint == nil {
			return fmt.Errorf("%w: cost %q has neither integrand nor endpoint", ErrInvalidProblem, c.Name)
		}
	}
	if p.NumKinematicEquations > 0 && p.NumMultipliers() == 0 {
		return fmt.Errorf("%w: kinematic equations require multiplier variables", ErrInvalidProblem)
	}
	return nil
}
