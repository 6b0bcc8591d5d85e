package ocp

// Scheme names a transcription scheme.
type Scheme string

const (
	// SchemeTrapezoidal is the two-point, second-order scheme.
	SchemeTrapezoidal Scheme = "trapezoidal"
	// SchemeRadau collocates at Radau points; the last collocation point
	// of each interval coincides with the next mesh point.
	SchemeRadau Scheme = "radau"
	// SchemeGauss collocates at Legendre-Gauss points, all strictly
	// interior to the mesh interval.
	SchemeGauss Scheme = "gauss"
)

// Solver holds the discretization settings consumed by the transcription
// engine. It is referenced, not owned, by the engine.
type Solver struct {
	// Mesh is a strictly increasing sequence of fractions spanning [0, 1].
	Mesh []float64

	Scheme Scheme

	// Degree is the number of strictly interior collocation points per
	// mesh interval for the radau scheme; the gauss scheme places one
	// additional interior point since none coincides with a mesh point.
	// Ignored by the trapezoidal scheme.
	Degree int

	// ScaleVariablesUsingBounds normalizes each variable by its bound
	// width before handing it to the optimizer.
	ScaleVariablesUsingBounds bool

	// InterpolateControlMeshInteriorPoints constrains interior-point
	// controls to the linear interpolant of the surrounding mesh-point
	// controls instead of leaving them free.
	InterpolateControlMeshInteriorPoints bool

	// EnforcePathConstraintMeshInteriorPoints evaluates path constraints
	// at every grid point rather than only at mesh points.
	EnforcePathConstraintMeshInteriorPoints bool

	// SlackBounds bound the velocity-correction slack variables used when
	// kinematic constraint derivatives are enforced.
	SlackBounds Bounds
}

// DefaultSolver returns trapezoidal settings on a uniform mesh with the
// given number of intervals.
func DefaultSolver(numIntervals int) Solver {
	return Solver{
		Mesh:        UniformMesh(numIntervals),
		Scheme:      SchemeTrapezoidal,
		Degree:      2,
		SlackBounds: Range(-1e-3, 1e-3),
	}
}

// UniformMesh returns numIntervals+1 evenly spaced fractions over [0, 1].
func UniformMesh(numIntervals int) []float64 {
	if numIntervals < 1 {
		numIntervals = 1
	}
	mesh := make([]float64, numIntervals+1)
	for i := range mesh {
		mesh[i] = float64(i) / float64(numIntervals)
	}
	mesh[numIntervals] = 1
	return mesh
}
