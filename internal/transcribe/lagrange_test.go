package transcribe

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/trajopt/internal/ocp"
)

func TestNodeTablesRejectUnsupportedCounts(t *testing.T) {
	if _, err := radauNodes(6); !errors.Is(err, ocp.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for 6 radau points, got %v", err)
	}
	if _, err := gaussNodes(0); !errors.Is(err, ocp.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for 0 gauss points, got %v", err)
	}
}

func TestRadauNodesEndAtOne(t *testing.T) {
	for points := 1; points <= 5; points++ {
		nodes, err := radauNodes(points)
		if err != nil {
			t.Fatal(err)
		}
		if nodes[len(nodes)-1] != 1 {
			t.Errorf("%d-point radau nodes must end at 1, got %g",
				points, nodes[len(nodes)-1])
		}
	}
}

func TestGaussNodesAreInteriorAndSymmetric(t *testing.T) {
	for points := 1; points <= 5; points++ {
		nodes, err := gaussNodes(points)
		if err != nil {
			t.Fatal(err)
		}
		for i, tau := range nodes {
			if tau <= 0 || tau >= 1 {
				t.Errorf("%d-point gauss node %d = %g is not interior", points, i, tau)
			}
			mirror := nodes[len(nodes)-1-i]
			if math.Abs(tau+mirror-1) > 1e-14 {
				t.Errorf("%d-point gauss nodes not symmetric: %g and %g", points, tau, mirror)
			}
		}
	}
}

func TestQuadratureWeightsSumToOne(t *testing.T) {
	for points := 1; points <= 5; points++ {
		for _, family := range []struct {
			name  string
			nodes func(int) ([]float64, error)
		}{
			{"radau", radauNodes},
			{"gauss", gaussNodes},
		} {
			nodes, err := family.nodes(points)
			if err != nil {
				t.Fatal(err)
			}
			sum := 0.0
			for _, w := range quadratureWeights(nodes) {
				sum += w
			}
			if math.Abs(sum-1) > 1e-12 {
				t.Errorf("%d-point %s weights sum to %g, want 1", points, family.name, sum)
			}
		}
	}
}

// Gauss quadrature with s points is exact for polynomials up to degree
// 2s-1; Radau with s points up to 2s-2.
func TestQuadratureExactness(t *testing.T) {
	for points := 2; points <= 5; points++ {
		nodes, err := gaussNodes(points)
		if err != nil {
			t.Fatal(err)
		}
		weights := quadratureWeights(nodes)
		degree := 2*points - 1
		// integral of x^degree over [0,1]
		want := 1.0 / float64(degree+1)
		got := 0.0
		for k, tau := range nodes {
			got += weights[k] * math.Pow(tau, float64(degree))
		}
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("%d-point gauss rule integrates x^%d to %g, want %g",
				points, degree, got, want)
		}
	}
}

// The differentiation matrix must recover exact derivatives of any
// polynomial the node set can represent.
func TestDifferentiationMatrixExactOnPolynomials(t *testing.T) {
	nodes, err := radauNodes(3)
	if err != nil {
		t.Fatal(err)
	}
	full := append([]float64{0}, nodes...)
	d := differentiationMatrix(full, nodes)

	// p(x) = 2x^3 - x^2 + 4, p'(x) = 6x^2 - 2x; degree 3 with 4 nodes.
	p := func(x float64) float64 { return 2*x*x*x - x*x + 4 }
	dp := func(x float64) float64 { return 6*x*x - 2*x }

	for k, tau := range nodes {
		got := 0.0
		for j, xj := range full {
			got += p(xj) * d.At(j, k)
		}
		if math.Abs(got-dp(tau)) > 1e-10 {
			t.Errorf("derivative at node %d: got %g, want %g", k, got, dp(tau))
		}
	}
}

func TestInterpolationWeightsArePartitionOfUnity(t *testing.T) {
	nodes := append([]float64{0}, gaussNodeTable[3]...)
	for _, x := range []float64{0, 0.3, 0.5, 1} {
		sum := 0.0
		for _, w := range interpolationWeights(nodes, x) {
			sum += w
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("interpolation weights at %g sum to %g, want 1", x, sum)
		}
	}
}

func TestInterpolationWeightsReproduceNodeValues(t *testing.T) {
	nodes := append([]float64{0}, radauNodeTable[2]...)
	for j, xj := range nodes {
		w := interpolationWeights(nodes, xj)
		for k := range nodes {
			want := 0.0
			if k == j {
				want = 1
			}
			if math.Abs(w[k]-want) > 1e-12 {
				t.Errorf("basis %d at node %d = %g, want %g", k, j, w[k], want)
			}
		}
	}
}
