package models

import (
	"math"
	"testing"

	"github.com/san-kum/trajopt/internal/ocp"
)

func dynIn(t float64, x, u []float64) ocp.DynamicsInput {
	return ocp.DynamicsInput{Time: t, States: x, Controls: u}
}

func TestRegistryListsAllModels(t *testing.T) {
	r := NewRegistry()
	names := r.List()
	want := []string{"cartpole", "doubleintegrator", "pendulum"}
	if len(names) != len(want) {
		t.Fatalf("expected %d models, got %v", len(want), names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("List()[%d] = %q, want %q", i, names[i], name)
		}
	}
}

func TestRegistryRejectsUnknownModel(t *testing.T) {
	if _, err := NewRegistry().Get("rocket"); err == nil {
		t.Error("expected an error for an unknown model")
	}
}

func TestEveryModelValidates(t *testing.T) {
	r := NewRegistry()
	for _, name := range r.List() {
		problem, err := r.Get(name)
		if err != nil {
			t.Fatal(err)
		}
		if err := problem.Validate(); err != nil {
			t.Errorf("model %q does not validate: %v", name, err)
		}
	}
}

func TestPendulumEquilibrium(t *testing.T) {
	p := NewPendulum()
	p.Damping = 0
	dtheta, domega := p.Derivative(0, 0, 0)
	if dtheta != 0 || domega != 0 {
		t.Errorf("hanging rest must be an equilibrium, got (%g, %g)", dtheta, domega)
	}
}

func TestPendulumGravityTorque(t *testing.T) {
	p := NewPendulum()
	p.Damping = 0
	_, domega := p.Derivative(math.Pi/2, 0, 0)
	want := -p.Gravity / p.Length
	if math.Abs(domega-want) > 1e-10 {
		t.Errorf("acceleration at horizontal = %g, want %g", domega, want)
	}
}

func TestCartPoleUprightEquilibrium(t *testing.T) {
	c := NewCartPole()
	dx := c.Derivative([4]float64{0, 0, 0, 0}, 0)
	for i, v := range dx {
		if math.Abs(v) > 1e-12 {
			t.Errorf("upright rest must be an equilibrium, dx[%d] = %g", i, v)
		}
	}
}

func TestCartPoleFallsFromTilt(t *testing.T) {
	c := NewCartPole()
	dx := c.Derivative([4]float64{0, 0, 0.1, 0}, 0)
	if dx[3] <= 0 {
		t.Errorf("a tilted pole must accelerate away from upright, got %g", dx[3])
	}
}

func TestDoubleIntegratorDynamics(t *testing.T) {
	problem := NewDoubleIntegrator().Problem()
	out := problem.Dynamics(dynIn(0, []float64{0.5, 2}, []float64{-3}))
	if out.StateDerivatives[0] != 2 || out.StateDerivatives[1] != -3 {
		t.Errorf("expected derivatives (2, -3), got %v", out.StateDerivatives)
	}
}
