package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/trajopt/internal/storage"
	"github.com/san-kum/trajopt/internal/transcribe"
)

// PlotSolution renders every state and control of a solution as
// stacked terminal graphs.
func PlotSolution(sol *transcribe.Solution, width int) string {
	var b strings.Builder
	for r, name := range sol.StateNames {
		data := make([]float64, len(sol.Times))
		for i := range data {
			data[i] = sol.States.At(r, i)
		}
		b.WriteString(plotSeries(data, name, width))
		b.WriteString("\n")
	}
	for r, name := range sol.ControlNames {
		data := make([]float64, len(sol.Times))
		for i := range data {
			data[i] = sol.Controls.At(r, i)
		}
		b.WriteString(plotSeries(data, name, width))
		b.WriteString("\n")
	}
	return b.String()
}

// PlotTrajectory renders the columns of a stored trajectory.
func PlotTrajectory(traj *storage.Trajectory, width int) string {
	var b strings.Builder
	for j, name := range traj.Columns {
		b.WriteString(plotSeries(traj.Values[j], name, width))
		b.WriteString("\n")
	}
	return b.String()
}

func plotSeries(data []float64, caption string, width int) string {
	if len(data) < 2 {
		return fmt.Sprintf("%s: not enough samples\n", caption)
	}
	if width <= 0 {
		width = 80
	}
	return asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	) + "\n"
}
