package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/trajopt/internal/ocp"
)

func TestNewRejectsBadMeshes(t *testing.T) {
	cases := []struct {
		name      string
		fractions []float64
	}{
		{"too few points", []float64{0}},
		{"first not zero", []float64{0.1, 1}},
		{"last not one", []float64{0, 0.9}},
		{"not increasing", []float64{0, 0.5, 0.5, 1}},
		{"decreasing", []float64{0, 0.7, 0.3, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.fractions); !errors.Is(err, ocp.ErrInvalidMesh) {
				t.Errorf("expected ErrInvalidMesh, got %v", err)
			}
		})
	}
}

func TestIntervalsSumToOne(t *testing.T) {
	m, err := New([]float64{0, 0.1, 0.45, 0.8, 1})
	if err != nil {
		t.Fatal(err)
	}
	if m.NumPoints() != 5 || m.NumIntervals() != 4 {
		t.Fatalf("expected 5 points and 4 intervals, got %d and %d",
			m.NumPoints(), m.NumIntervals())
	}
	sum := 0.0
	for i := 0; i < m.NumIntervals(); i++ {
		sum += m.Interval(i)
	}
	if math.Abs(sum-1) > 1e-15 {
		t.Errorf("interval widths sum to %g, want 1", sum)
	}
}

func TestGridWithoutInteriorNodesIsTheMesh(t *testing.T) {
	fractions := []float64{0, 0.25, 0.5, 1}
	m, err := New(fractions)
	if err != nil {
		t.Fatal(err)
	}
	grid := m.Grid(nil)
	if len(grid) != len(fractions) {
		t.Fatalf("expected %d grid points, got %d", len(fractions), len(grid))
	}
	for i := range grid {
		if grid[i] != fractions[i] {
			t.Errorf("grid[%d] = %g, want %g", i, grid[i], fractions[i])
		}
	}
}

func TestGridInsertsInteriorNodesPerInterval(t *testing.T) {
	m, err := New([]float64{0, 0.5, 1})
	if err != nil {
		t.Fatal(err)
	}
	grid := m.Grid([]float64{0.25, 0.75})
	want := []float64{0, 0.125, 0.375, 0.5, 0.625, 0.875, 1}
	if len(grid) != len(want) {
		t.Fatalf("expected %d grid points, got %d", len(want), len(grid))
	}
	for i := range want {
		if math.Abs(grid[i]-want[i]) > 1e-15 {
			t.Errorf("grid[%d] = %g, want %g", i, grid[i], want[i])
		}
	}
}

func TestCreateTimesMapsEndpointsExactly(t *testing.T) {
	grid := []float64{0, 0.3, 1}
	times := CreateTimes(grid, 2, 6)
	if times[0] != 2 || times[len(times)-1] != 6 {
		t.Errorf("expected times spanning [2, 6], got [%g, %g]",
			times[0], times[len(times)-1])
	}
	if math.Abs(times[1]-3.2) > 1e-15 {
		t.Errorf("times[1] = %g, want 3.2", times[1])
	}
}
