// Package viz renders trajectories and transcription structure in the
// terminal.
//
//   - [Canvas]: Braille-based pixel canvas
//   - [RenderSparsity]: structural Jacobian pattern as a braille bitmap
//   - [PlotSolution], [PlotTrajectory]: stacked line graphs of states
//     and controls
package viz
