package transcribe

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ocp"
)

// Collocation node tables on the unit interval, indexed by the number of
// collocation points. Radau nodes include the right endpoint; Gauss
// nodes are strictly interior.
var radauNodeTable = map[int][]float64{
	1: {1.0},
	2: {1.0 / 3.0, 1.0},
	3: {0.1550510257216822, 0.6449489742783178, 1.0},
	4: {0.0885879595127039, 0.4094668644407347, 0.7876594617608471, 1.0},
	5: {0.0571041961145177, 0.2768430136381238, 0.5835904323689168, 0.8602401356562195, 1.0},
}

var gaussNodeTable = map[int][]float64{
	1: {0.5},
	2: {0.2113248654051871, 0.7886751345948129},
	3: {0.1127016653792583, 0.5, 0.8872983346207417},
	4: {0.0694318442029737, 0.3300094782075719, 0.6699905217924281, 0.9305681557970263},
	5: {0.0469100770306680, 0.2307653449471585, 0.5, 0.7692346550528415, 0.9530899229693320},
}

func radauNodes(points int) ([]float64, error) {
	nodes, ok := radauNodeTable[points]
	if !ok {
		return nil, fmt.Errorf("%w: radau scheme supports 1..%d collocation points, got %d",
			ocp.ErrUnsupported, len(radauNodeTable), points)
	}
	return nodes, nil
}

func gaussNodes(points int) ([]float64, error) {
	nodes, ok := gaussNodeTable[points]
	if !ok {
		return nil, fmt.Errorf("%w: gauss scheme supports 1..%d collocation points, got %d",
			ocp.ErrUnsupported, len(gaussNodeTable), points)
	}
	return nodes, nil
}

// polynomial holds coefficients in ascending powers.
type polynomial []float64

func (p polynomial) eval(x float64) float64 {
	v := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		v = v*x + p[i]
	}
	return v
}

func (p polynomial) derivative() polynomial {
	if len(p) <= 1 {
		return polynomial{0}
	}
	d := make(polynomial, len(p)-1)
	for i := 1; i < len(p); i++ {
		d[i-1] = float64(i) * p[i]
	}
	return d
}

// integral01 integrates the polynomial over [0, 1].
func (p polynomial) integral01() float64 {
	v := 0.0
	for i, c := range p {
		v += c / float64(i+1)
	}
	return v
}

// lagrangeBasis constructs the Lagrange interpolating polynomials for
// the given nodes: basis j is 1 at nodes[j] and 0 at every other node.
func lagrangeBasis(nodes []float64) []polynomial {
	basis := make([]polynomial, len(nodes))
	for j := range nodes {
		p := polynomial{1}
		for m := range nodes {
			if m == j {
				continue
			}
			// Multiply by (x - nodes[m]) / (nodes[j] - nodes[m]).
			den := nodes[j] - nodes[m]
			next := make(polynomial, len(p)+1)
			for i, c := range p {
				next[i] += c * (-nodes[m]) / den
				next[i+1] += c / den
			}
			p = next
		}
		basis[j] = p
	}
	return basis
}

// differentiationMatrix maps function values at all interval nodes to
// derivative values at the collocation nodes: D[j][k] = l_j'(tau_k).
// The defect residual is then h*xdot - X*D for X holding node values
// column-wise.
func differentiationMatrix(nodes, collocation []float64) *mat.Dense {
	basis := lagrangeBasis(nodes)
	d := mat.NewDense(len(nodes), len(collocation), nil)
	for j, b := range basis {
		db := b.derivative()
		for k, tau := range collocation {
			d.Set(j, k, db.eval(tau))
		}
	}
	return d
}

// interpolationWeights evaluates every basis polynomial at x, giving the
// weights that interpolate node values to x.
func interpolationWeights(nodes []float64, x float64) []float64 {
	basis := lagrangeBasis(nodes)
	w := make([]float64, len(basis))
	for j, b := range basis {
		w[j] = b.eval(x)
	}
	return w
}

// quadratureWeights integrates the Lagrange basis over the collocation
// nodes on [0, 1]. The weights of both node families sum to one.
func quadratureWeights(collocation []float64) []float64 {
	basis := lagrangeBasis(collocation)
	w := make([]float64, len(basis))
	for j, b := range basis {
		w[j] = b.integral01()
	}
	return w
}
