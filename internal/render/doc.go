// Package render rasterizes cross-sections of the temperature field.
//
//   - [Section]: selects a 2-D slice and describes its axes
//   - [Horizontal]: field[t, depth, :, :] plotted over x and y
//   - [Vertical]: field[t, :, :, x] plotted over y and z
//   - [Frames]: the ordered frame identifiers of one section
//   - [Renderer]: draws a slice as a heat map and writes a PNG
//
// Frame files are named prefix + three-digit, one-based frame number +
// ".png", so lexicographic order equals timestep order.
package render
