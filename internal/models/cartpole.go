package models

import (
	"math"

	"github.com/san-kum/trajopt/internal/ocp"
)

// CartPole is the under-actuated swing-up: a pole hinged on a driven
// cart starts hanging down and must end balanced upright over the
// origin. Theta is measured from upright.
type CartPole struct {
	CartMass   float64
	PoleMass   float64
	PoleLength float64
	Gravity    float64
	MaxForce   float64
	TrackLimit float64
	Horizon    float64
}

func NewCartPole() *CartPole {
	return &CartPole{
		CartMass:   1.0,
		PoleMass:   0.1,
		PoleLength: 1.0,
		Gravity:    9.81,
		MaxForce:   15.0,
		TrackLimit: 2.0,
		Horizon:    2.5,
	}
}

// Derivative evaluates the cart-pole dynamics for state
// (pos, vel, theta, omega) and the applied horizontal force.
func (c *CartPole) Derivative(x [4]float64, force float64) [4]float64 {
	vel, theta, omega := x[1], x[2], x[3]

	mc, mp, l, g := c.CartMass, c.PoleMass, c.PoleLength, c.Gravity
	sint, cost := math.Sin(theta), math.Cos(theta)

	temp := (force + mp*l*omega*omega*sint) / (mc + mp)
	alpha := (g*sint - cost*temp) / (l * (4.0/3.0 - mp*cost*cost/(mc+mp)))
	acc := temp - mp*l*alpha*cost/(mc+mp)

	return [4]float64{vel, acc, omega, alpha}
}

func (c *CartPole) Problem() *ocp.Problem {
	return &ocp.Problem{
		Name:              "cartpole",
		InitialTimeBounds: ocp.Fixed(0),
		FinalTimeBounds:   ocp.Fixed(c.Horizon),
		States: []ocp.VariableInfo{
			{
				Name:          "pos",
				Bounds:        ocp.Range(-c.TrackLimit, c.TrackLimit),
				InitialBounds: ocp.Fixed(0),
			},
			{
				Name:          "vel",
				Bounds:        ocp.Range(-10, 10),
				InitialBounds: ocp.Fixed(0),
			},
			{
				Name:          "theta",
				Bounds:        ocp.Range(-2*math.Pi, 2*math.Pi),
				InitialBounds: ocp.Fixed(math.Pi),
			},
			{
				Name:          "omega",
				Bounds:        ocp.Range(-20, 20),
				InitialBounds: ocp.Fixed(0),
			},
		},
		Controls: []ocp.VariableInfo{
			{Name: "force", Bounds: ocp.Range(-c.MaxForce, c.MaxForce)},
		},
		Dynamics: func(in ocp.DynamicsInput) ocp.DynamicsOutput {
			dx := c.Derivative(
				[4]float64{in.States[0], in.States[1], in.States[2], in.States[3]},
				in.Controls[0])
			return ocp.DynamicsOutput{StateDerivatives: dx[:]}
		},
		EndpointConstraints: []ocp.EndpointConstraintInfo{{
			Name:  "balanced",
			Size:  4,
			Lower: []float64{0, 0, 0, 0},
			Upper: []float64{0, 0, 0, 0},
			Eval: func(in ocp.EndpointInput, out []float64) {
				copy(out, in.FinalStates)
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
