package models

import (
	"fmt"
	"sort"

	"github.com/san-kum/trajopt/internal/ocp"
)

// Builder constructs a fresh problem instance with default parameters.
type Builder func() *ocp.Problem

type Registry struct {
	builders map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}

	r.builders["doubleintegrator"] = func() *ocp.Problem { return NewDoubleIntegrator().Problem() }
	r.builders["pendulum"] = func() *ocp.Problem { return NewPendulum().Problem() }
	r.builders["cartpole"] = func() *ocp.Problem { return NewCartPole().Problem() }

	return r
}

func (r *Registry) Get(name string) (*ocp.Problem, error) {
	fn, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
