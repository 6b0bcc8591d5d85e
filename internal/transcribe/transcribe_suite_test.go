package transcribe

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/trajopt/internal/ocp"
)

func TestTranscribeSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transcribe Suite")
}

// Cross-scheme contracts: every scheme must agree on these regardless
// of mesh or degree.
var _ = Describe("scheme family contracts", func() {
	build := func(scheme ocp.Scheme, meshFractions []float64, degree int) *Transcription {
		solver := &ocp.Solver{Mesh: meshFractions, Scheme: scheme, Degree: degree}
		engine, err := New(doubleIntegrator(), solver)
		Expect(err).NotTo(HaveOccurred())
		return engine
	}

	DescribeTable("indicator and quadrature invariants",
		func(scheme ocp.Scheme, degree int) {
			for _, fractions := range [][]float64{
				{0, 1},
				{0, 0.5, 1},
				{0, 0.1, 0.4, 0.9, 1},
			} {
				engine := build(scheme, fractions, degree)

				meshSum := 0.0
				for _, v := range engine.MeshIndices() {
					meshSum += v
				}
				Expect(meshSum).To(Equal(float64(engine.NumMeshPoints())),
					"mesh indicators must mark exactly the mesh points")

				quadSum := 0.0
				for _, w := range engine.QuadratureCoefficients() {
					quadSum += w
				}
				Expect(quadSum).To(BeNumerically("~", 1, 1e-12),
					"quadrature coefficients must sum to one")

				grid := engine.Grid()
				Expect(grid[0]).To(Equal(0.0))
				Expect(grid[len(grid)-1]).To(Equal(1.0))
				for i := 1; i < len(grid); i++ {
					Expect(grid[i]).To(BeNumerically(">", grid[i-1]),
						"grid must be strictly increasing")
				}
			}
		},
		Entry("trapezoidal", ocp.SchemeTrapezoidal, 0),
		Entry("radau degree 1", ocp.SchemeRadau, 1),
		Entry("radau degree 3", ocp.SchemeRadau, 3),
		Entry("gauss degree 1", ocp.SchemeGauss, 1),
		Entry("gauss degree 3", ocp.SchemeGauss, 3),
	)

	DescribeTable("grid point count",
		func(scheme ocp.Scheme, degree, wantPerInterval int) {
			engine := build(scheme, []float64{0, 0.5, 1}, degree)
			want := engine.NumMeshPoints() + engine.NumMeshIntervals()*wantPerInterval
			Expect(engine.NumGridPoints()).To(Equal(want))
		},
		Entry("trapezoidal adds no interior points", ocp.SchemeTrapezoidal, 0, 0),
		Entry("radau adds degree interior points", ocp.SchemeRadau, 2, 2),
		Entry("gauss adds degree+1 interior points", ocp.SchemeGauss, 2, 3),
	)

	It("rejects degrees beyond the node tables", func() {
		solver := &ocp.Solver{Mesh: []float64{0, 1}, Scheme: ocp.SchemeRadau, Degree: 9}
		_, err := New(doubleIntegrator(), solver)
		Expect(err).To(MatchError(ocp.ErrUnsupported))
	})

	It("keeps the flat layouts consistent between schemes", func() {
		for _, scheme := range []ocp.Scheme{ocp.SchemeTrapezoidal, ocp.SchemeRadau, ocp.SchemeGauss} {
			engine := build(scheme, []float64{0, 0.5, 1}, 2)
			lower, upper, err := engine.VariableBounds()
			Expect(err).NotTo(HaveOccurred())
			Expect(lower).To(HaveLen(engine.NumVariables()))
			Expect(upper).To(HaveLen(engine.NumVariables()))
			for i := range lower {
				Expect(lower[i]).To(BeNumerically("<=", upper[i]))
			}
		}
	})
})
