// Package mesh builds the discretization grid for a transcription scheme
// from a monotone sequence of normalized knot fractions.
package mesh

import (
	"fmt"

	"github.com/san-kum/trajopt/internal/ocp"
)

// Mesh is a validated, immutable sequence of knot fractions in [0, 1].
type Mesh struct {
	fractions []float64
	intervals []float64
}

// New validates the fractions: strictly increasing, first exactly 0,
// last exactly 1, at least two points.
func New(fractions []float64) (*Mesh, error) {
	if len(fractions) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 mesh points, got %d",
			ocp.ErrInvalidMesh, len(fractions))
	}
	if fractions[0] != 0 {
		return nil, fmt.Errorf("%w: first mesh point must be 0, got %g",
			ocp.ErrInvalidMesh, fractions[0])
	}
	if fractions[len(fractions)-1] != 1 {
		return nil, fmt.Errorf("%w: last mesh point must be 1, got %g",
			ocp.ErrInvalidMesh, fractions[len(fractions)-1])
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] <= fractions[i-1] {
			return nil, fmt.Errorf("%w: mesh must be strictly increasing at index %d (%g <= %g)",
				ocp.ErrInvalidMesh, i, fractions[i], fractions[i-1])
		}
	}
	m := &Mesh{
		fractions: append([]float64(nil), fractions...),
		intervals: make([]float64, len(fractions)-1),
	}
	for i := range m.intervals {
		m.intervals[i] = m.fractions[i+1] - m.fractions[i]
	}
	return m, nil
}

// NumPoints returns M, the number of mesh points.
func (m *Mesh) NumPoints() int { return len(m.fractions) }

// NumIntervals returns M-1.
func (m *Mesh) NumIntervals() int { return len(m.intervals) }

// Fractions returns the knot fractions. The slice must not be mutated.
func (m *Mesh) Fractions() []float64 { return m.fractions }

// Interval returns the width of mesh interval i, in fraction units.
func (m *Mesh) Interval(i int) float64 { return m.intervals[i] }

// Intervals returns all interval widths. The slice must not be mutated.
func (m *Mesh) Intervals() []float64 { return m.intervals }

// Grid returns the full evaluation grid: every mesh point plus, for each
// interval, the given strictly interior nodes (fractions of the interval
// in (0, 1), ascending). With no interior nodes the grid is the mesh.
func (m *Mesh) Grid(interior []float64) []float64 {
	grid := make([]float64, 0, m.NumPoints()+m.NumIntervals()*len(interior))
	for i := 0; i < m.NumIntervals(); i++ {
		grid = append(grid, m.fractions[i])
		for _, tau := range interior {
			grid = append(grid, m.fractions[i]+tau*m.intervals[i])
		}
	}
	return append(grid, m.fractions[m.NumPoints()-1])
}

// CreateTimes maps grid fractions to absolute times on [t0, tf].
func CreateTimes(grid []float64, t0, tf float64) []float64 {
	times := make([]float64, len(grid))
	for i, g := range grid {
		times[i] = t0 + g*(tf-t0)
	}
	return times
}
