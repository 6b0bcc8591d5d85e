package models

import (
	"github.com/san-kum/trajopt/internal/ocp"
)

// DoubleIntegrator is the minimum-effort rest-to-rest translation of a
// unit point mass over a unit horizon. The optimum is known in closed
// form: u(t) = 6 - 12t, x(t) = 3t^2 - 2t^3, with effort integral 12.
type DoubleIntegrator struct {
	MaxForce float64
	Distance float64
}

func NewDoubleIntegrator() *DoubleIntegrator {
	return &DoubleIntegrator{
		MaxForce: 20,
		Distance: 1,
	}
}

func (m *DoubleIntegrator) Problem() *ocp.Problem {
	return &ocp.Problem{
		Name:              "doubleintegrator",
		InitialTimeBounds: ocp.Fixed(0),
		FinalTimeBounds:   ocp.Fixed(1),
		States: []ocp.VariableInfo{
			{
				Name:          "pos",
				Bounds:        ocp.Range(-5, 5),
				InitialBounds: ocp.Fixed(0),
				FinalBounds:   ocp.Fixed(m.Distance),
			},
			{
				Name:          "vel",
				Bounds:        ocp.Range(-10, 10),
				InitialBounds: ocp.Fixed(0),
				FinalBounds:   ocp.Fixed(0),
			},
		},
		Controls: []ocp.VariableInfo{
			{Name: "force", Bounds: ocp.Range(-m.MaxForce, m.MaxForce)},
		},
		Dynamics: func(in ocp.DynamicsInput) ocp.DynamicsOutput {
			return ocp.DynamicsOutput{
				StateDerivatives: []float64{in.States[1], in.Controls[0]},
			}
		},
		Costs: []ocp.CostInfo{{
			Name: "effort",
			Integrand: func(_ float64, _, u, _ []float64) float64 {
				return u[0] * u[0]
			},
		}},
	}
}
