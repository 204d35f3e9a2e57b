package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/rossby/internal/config"
	"github.com/san-kum/rossby/internal/dataset"
)

var ErrAxisMismatch = errors.New("render: axis length does not match slice")

// Section picks one 2-D slice per timestep out of a field.
type Section interface {
	Prefix() string
	Title() string
	XLabel() string
	YLabel() string
	// Axes returns the coordinates of the slice columns and rows.
	Axes() (cols, rows []float64)
	Slice(f *dataset.Field, t int) (*dataset.Grid, error)
}

// Horizontal is the x-y plane at a fixed depth index.
type Horizontal struct {
	Depth int
	X, Y  []float64
	Z     []float64
}

func (h Horizontal) Prefix() string { return "Txy" }
func (h Horizontal) XLabel() string { return "x [m]" }
func (h Horizontal) YLabel() string { return "y [m]" }

func (h Horizontal) Title() string {
	return fmt.Sprintf("temperature in x-y plane at z = %s", centimetres(h.Z, h.Depth))
}

func (h Horizontal) Axes() ([]float64, []float64) { return h.X, h.Y }

func (h Horizontal) Slice(f *dataset.Field, t int) (*dataset.Grid, error) {
	g, err := f.HorizontalSlice(t, h.Depth)
	if err != nil {
		return nil, err
	}
	return g, checkAxes(h, g)
}

// Vertical is the y-z plane at a fixed x index.
type Vertical struct {
	XIndex int
	X      []float64
	Y, Z   []float64
}

func (v Vertical) Prefix() string { return "Tyz" }
func (v Vertical) XLabel() string { return "y [m]" }
func (v Vertical) YLabel() string { return "z [m]" }

func (v Vertical) Title() string {
	return fmt.Sprintf("temperature in y-z plane at x = %s", centimetres(v.X, v.XIndex))
}

func (v Vertical) Axes() ([]float64, []float64) { return v.Y, v.Z }

func (v Vertical) Slice(f *dataset.Field, t int) (*dataset.Grid, error) {
	g, err := f.VerticalSlice(t, v.XIndex)
	if err != nil {
		return nil, err
	}
	return g, checkAxes(v, g)
}

// Sections returns the horizontal and vertical sections for cfg, in
// rendering order.
func Sections(cfg *config.Config) []Section {
	x, y, z := cfg.Grid.X(), cfg.Grid.Y(), cfg.Grid.Z()
	return []Section{
		Horizontal{Depth: cfg.Sections.DepthIndex, X: x, Y: y, Z: z},
		Vertical{XIndex: cfg.Sections.XIndex, X: x, Y: y, Z: z},
	}
}

func checkAxes(s Section, g *dataset.Grid) error {
	cols, rows := s.Axes()
	if len(cols) != g.Cols || len(rows) != g.Rows {
		return fmt.Errorf("%w: %s axes %dx%d, slice %dx%d",
			ErrAxisMismatch, s.Prefix(), len(cols), len(rows), g.Cols, g.Rows)
	}
	return nil
}

func centimetres(axis []float64, i int) string {
	if i < 0 || i >= len(axis) {
		return "?"
	}
	return fmt.Sprintf("%gcm", math.Round(axis[i]*100*1000)/1000)
}
