package models

import (
	"math"

	"github.com/san-kum/trajopt/internal/ocp"
)

// Pendulum is the torque-limited swing-up: drive a damped pendulum from
// hanging rest to the inverted position with minimum control effort.
type Pendulum struct {
	Mass      float64
	Length    float64
	Damping   float64
	Gravity   float64
	MaxTorque float64
	Horizon   float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:      1.0,
		Length:    1.0,
		Damping:   0.1,
		Gravity:   9.81,
		MaxTorque: 8.0,
		Horizon:   3.0,
	}
}

// Derivative evaluates the pendulum dynamics; theta is measured from the
// hanging position.
func (p *Pendulum) Derivative(theta, omega, torque float64) (dtheta, domega float64) {
	alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta) + torque) /
		(p.Mass * p.Length * p.Length)
	return omega, alpha
}

func (p *Pendulum) Problem() *ocp.Problem {
	return &ocp.Problem{
		Name:              "pendulum",
		InitialTimeBounds: ocp.Fixed(0),
		FinalTimeBounds:   ocp.Fixed(p.Horizon),
		States: []ocp.VariableInfo{
			{
				Name:          "theta",
				Bounds:        ocp.Range(-2*math.Pi, 2*math.Pi),
				InitialBounds: ocp.Fixed(0),
			},
			{
				Name:          "omega",
				Bounds:        ocp.Range(-15, 15),
				InitialBounds: ocp.Fixed(0),
			},
		},
		Controls: []ocp.VariableInfo{
			{Name: "torque", Bounds: ocp.Range(-p.MaxTorque, p.MaxTorque)},
		},
		Dynamics: func(in ocp.DynamicsInput) ocp.DynamicsOutput {
			dtheta, domega := p.Derivative(in.States[0], in.States[1], in.Controls[0])
			return ocp.DynamicsOutput{StateDerivatives: []float64{dtheta, domega}}
		},
		EndpointConstraints: []ocp.EndpointConstraintInfo{{
			Name:  "inverted",
			Size:  2,
			Lower: []float64{math.Pi, 0},
			Upper: []float64{math.Pi, 0},
			Eval: func(in ocp.EndpointInput, out []float64) {
				out[0] = in.FinalStates[0]
				out[1] = in.FinalStates[1]
			},
		}},
		Costs: []ocp.CostInfo{{
			Name: "effort",
			Integrand: func(_ float64, _, u, _ []float64) float64 {
				return u[0] * u[0]
			},
		}},
	}
}
