package dataset

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrVariableNotFound indicates the requested variable is absent from the file.
	ErrVariableNotFound = errors.New("dataset: variable not in file")

	// ErrShape indicates a variable that is not indexed by (time, depth, y, x).
	ErrShape = errors.New("dataset: variable must have 4 dimensions (time, depth, y, x)")

	// ErrIndex indicates an index outside the field bounds.
	ErrIndex = errors.New("dataset: index out of range")

	// ErrType indicates a NetCDF storage type the loader cannot decode.
	ErrType = errors.New("dataset: unsupported variable type")

	// ErrNoFiniteData indicates a slice made entirely of missing values.
	ErrNoFiniteData = errors.New("dataset: no finite values")
)

// Field is a temperature field indexed by (t, z, y, x).
type Field struct {
	data *sparse.DenseArray
}

func NewField(nt, nz, ny, nx int) *Field {
	return &Field{data: sparse.ZerosDense(nt, nz, ny, nx)}
}

func (f *Field) Shape() (nt, nz, ny, nx int) {
	s := f.data.Shape
	return s[0], s[1], s[2], s[3]
}

func (f *Field) At(t, z, y, x int) float64 {
	return f.data.Get(t, z, y, x)
}

func (f *Field) Set(v float64, t, z, y, x int) {
	f.data.Set(v, t, z, y, x)
}

// Elements exposes the row-major backing store.
func (f *Field) Elements() []float64 {
	return f.data.Elements
}

// Grid is a row-major 2-D cross-section.
type Grid struct {
	Rows   int
	Cols   int
	Values []float64
}

func (g *Grid) At(r, c int) float64 {
	return g.Values[r*g.Cols+c]
}

// Range returns the finite min and max of the grid. ok is false when the
// grid has no finite sample.
func (g *Grid) Range() (lo, hi float64, ok bool) {
	finite := make([]float64, 0, len(g.Values))
	for _, v := range g.Values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, 0, false
	}
	return floats.Min(finite), floats.Max(finite), true
}

func (f *Field) checkTime(t int) error {
	nt, _, _, _ := f.Shape()
	if t < 0 || t >= nt {
		return fmt.Errorf("%w: timestep %d not in [0, %d)", ErrIndex, t, nt)
	}
	return nil
}

// HorizontalSlice returns field[t, z, :, :] with y as rows and x as columns.
func (f *Field) HorizontalSlice(t, z int) (*Grid, error) {
	if err := f.checkTime(t); err != nil {
		return nil, err
	}
	_, nz, ny, nx := f.Shape()
	if z < 0 || z >= nz {
		return nil, fmt.Errorf("%w: depth index %d not in [0, %d)", ErrIndex, z, nz)
	}
	g := &Grid{Rows: ny, Cols: nx, Values: make([]float64, ny*nx)}
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			g.Values[y*nx+x] = f.At(t, z, y, x)
		}
	}
	return g, nil
}

// VerticalSlice returns field[t, :, :, x] with z as rows and y as columns.
func (f *Field) VerticalSlice(t, x int) (*Grid, error) {
	if err := f.checkTime(t); err != nil {
		return nil, err
	}
	_, nz, ny, nx := f.Shape()
	if x < 0 || x >= nx {
		return nil, fmt.Errorf("%w: x index %d not in [0, %d)", ErrIndex, x, nx)
	}
	g := &Grid{Rows: nz, Cols: ny, Values: make([]float64, nz*ny)}
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			g.Values[z*ny+y] = f.At(t, z, y, x)
		}
	}
	return g, nil
}

// MeanDifference is the mean over y and x of field[t, zTop] - field[t, zBottom].
// Negative depth indices count from the bottom, so -1 is the last level.
// Cells where either level is missing (NaN) are left out of the mean.
func (f *Field) MeanDifference(t, zTop, zBottom int) (float64, error) {
	if err := f.checkTime(t); err != nil {
		return 0, err
	}
	_, nz, ny, nx := f.Shape()
	if zTop < 0 {
		zTop += nz
	}
	if zBottom < 0 {
		zBottom += nz
	}
	if zTop < 0 || zTop >= nz || zBottom < 0 || zBottom >= nz {
		return 0, fmt.Errorf("%w: depth levels %d, %d not in [0, %d)", ErrIndex, zTop, zBottom, nz)
	}
	diff := make([]float64, 0, ny*nx)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			d := f.At(t, zTop, y, x) - f.At(t, zBottom, y, x)
			if math.IsNaN(d) {
				continue
			}
			diff = append(diff, d)
		}
	}
	if len(diff) == 0 {
		return 0, fmt.Errorf("%w: levels %d and %d at t = %d", ErrNoFiniteData, zTop, zBottom, t)
	}
	return floats.Sum(diff) / float64(len(diff)), nil
}
