package dataset

import (
	"fmt"
	"math"
	"os"

	"github.com/ctessum/cdf"
)

// Load opens the NetCDF file at path and reads variable into a Field.
func Load(path, variable string) (*Field, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("dataset: stat %s: %w", path, err)
	}
	return Open(f, fi.Size(), variable)
}

// Open reads variable from an already opened NetCDF file of the given size.
// The size determines the record count of an unlimited time dimension.
func Open(rw cdf.ReaderWriterAt, size int64, variable string) (*Field, error) {
	ff, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("dataset: read netcdf header: %w", err)
	}
	dims := ff.Header.Lengths(variable)
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVariableNotFound, variable)
	}
	if len(dims) != 4 {
		return nil, fmt.Errorf("%w: %s has dimensions %v", ErrShape, variable, ff.Header.Dimensions(variable))
	}

	// A zero leading length marks the unlimited record dimension.
	record := dims[0] == 0
	if record {
		dims[0] = int(ff.Header.NumRecs(size))
		if dims[0] <= 0 {
			return nil, fmt.Errorf("%w: %s has no complete records", ErrShape, variable)
		}
	}

	pack := packingOf(ff.Header, variable)
	field := NewField(dims[0], dims[1], dims[2], dims[3])
	out := field.Elements()
	perRecord := dims[1] * dims[2] * dims[3]

	if record {
		for t := 0; t < dims[0]; t++ {
			start, end := make([]int, 4), make([]int, 4)
			start[0], end[0] = t, t+1
			r := ff.Reader(variable, start, end)
			buf := r.Zero(perRecord)
			if _, err := r.Read(buf); err != nil {
				return nil, fmt.Errorf("dataset: read %s record %d: %w", variable, t, err)
			}
			if err := pack.decode(buf, out[t*perRecord:(t+1)*perRecord]); err != nil {
				return nil, err
			}
		}
		return field, nil
	}

	r := ff.Reader(variable, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", variable, err)
	}
	if err := pack.decode(buf, out); err != nil {
		return nil, err
	}
	return field, nil
}

type packing struct {
	scale   float64
	offset  float64
	fill    float64
	hasFill bool
}

func packingOf(h *cdf.Header, variable string) packing {
	p := packing{scale: 1}
	if v, ok := firstFloat(h.GetAttribute(variable, "scale_factor")); ok {
		p.scale = v
	}
	if v, ok := firstFloat(h.GetAttribute(variable, "add_offset")); ok {
		p.offset = v
	}
	if v, ok := firstFloat(h.GetAttribute(variable, "_FillValue")); ok {
		p.fill, p.hasFill = v, true
	}
	return p
}

func firstFloat(attr interface{}) (float64, bool) {
	switch a := attr.(type) {
	case []float64:
		if len(a) > 0 {
			return a[0], true
		}
	case []float32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []int32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []int16:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	}
	return 0, false
}

func (p packing) value(raw float64) float64 {
	if p.hasFill && raw == p.fill {
		return math.NaN()
	}
	return raw*p.scale + p.offset
}

func (p packing) decode(buf interface{}, out []float64) error {
	switch b := buf.(type) {
	case []float64:
		for i, v := range b {
			out[i] = p.value(v)
		}
	case []float32:
		for i, v := range b {
			out[i] = p.value(float64(v))
		}
	case []int32:
		for i, v := range b {
			out[i] = p.value(float64(v))
		}
	case []int16:
		for i, v := range b {
			out[i] = p.value(float64(v))
		}
	default:
		return fmt.Errorf("%w: %T", ErrType, buf)
	}
	return nil
}

// Write stores field as variable in a new NetCDF classic file with
// dimensions (time, depth, y, x).
func Write(w cdf.ReaderWriterAt, variable string, field *Field) error {
	nt, nz, ny, nx := field.Shape()
	h := cdf.NewHeader(
		[]string{"time", "depth", "y", "x"},
		[]int{nt, nz, ny, nx})
	h.AddAttribute("", "comment", "rotating tank temperature field")
	h.AddVariable(variable, []string{"time", "depth", "y", "x"}, []float32{0})
	h.AddAttribute(variable, "units", "degC")
	h.AddAttribute(variable, "description", "temperature(t,z,y,x)")
	h.Define()

	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("dataset: netcdf header: %w", errs[0])
	}

	ff, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("dataset: create netcdf: %w", err)
	}

	data32 := make([]float32, len(field.Elements()))
	for i, e := range field.Elements() {
		data32[i] = float32(e)
	}
	end := ff.Header.Lengths(variable)
	start := make([]int, len(end))
	if _, err := ff.Writer(variable, start, end).Write(data32); err != nil {
		return fmt.Errorf("dataset: write %s: %w", variable, err)
	}
	return nil
}

// WriteFile is Write to a newly created file at path.
func WriteFile(path, variable string, field *Field) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, variable, field); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
