// Package viz renders run results and progress in the terminal.
//
//   - [Summary]: lipgloss panel of the derived stratification scalars
//   - [RunSummary]: the scalars plus frame counts and output paths
//   - [ProfilePlot]: asciigraph plot of one scalar over all timesteps
//   - [Progress]: Bubble Tea model following a pipeline run
//
// # Key Bindings
//
//	q / Ctrl+C - cancel the run and quit
package viz
