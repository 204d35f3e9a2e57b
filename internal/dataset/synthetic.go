package dataset

import (
	"fmt"
	"math"
	"sort"
)

const (
	topTemp    = 20.0
	bottomTemp = 18.0
)

var synthetic = map[string]func(t, z, y, x, nt, nz, ny, nx int) float64{
	"zero": func(t, z, y, x, nt, nz, ny, nx int) float64 { return 0 },
	// Warm layer over cold layer, with a front drifting along x.
	"warmtop": func(t, z, y, x, nt, nz, ny, nx int) float64 {
		depth := float64(z) / float64(nz-1)
		phase := 2 * math.Pi * (float64(x)/float64(nx) - float64(t)/float64(nt))
		front := 0.5 * math.Sin(phase) * (1 - depth) * math.Cos(math.Pi*float64(y)/float64(ny))
		return topTemp - (topTemp-bottomTemp)*depth + front
	},
	"coldtop": func(t, z, y, x, nt, nz, ny, nx int) float64 {
		depth := float64(z) / float64(nz-1)
		return bottomTemp + (topTemp-bottomTemp)*depth
	},
	// Only the top and bottom levels carry temperature.
	"layers": func(t, z, y, x, nt, nz, ny, nx int) float64 {
		switch z {
		case 0:
			return topTemp
		case nz - 1:
			return bottomTemp
		}
		return (topTemp + bottomTemp) / 2
	},
}

// SyntheticKinds lists the names accepted by Synthetic.
func SyntheticKinds() []string {
	kinds := make([]string, 0, len(synthetic))
	for k := range synthetic {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Synthetic builds an analytic field of the given kind.
func Synthetic(kind string, nt, nz, ny, nx int) (*Field, error) {
	fn, ok := synthetic[kind]
	if !ok {
		return nil, fmt.Errorf("dataset: unknown synthetic kind %q (available: %v)", kind, SyntheticKinds())
	}
	if nt < 1 || nz < 2 || ny < 1 || nx < 1 {
		return nil, fmt.Errorf("%w: synthetic shape %dx%dx%dx%d", ErrShape, nt, nz, ny, nx)
	}
	f := NewField(nt, nz, ny, nx)
	for t := 0; t < nt; t++ {
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					f.Set(fn(t, z, y, x, nt, nz, ny, nx), t, z, y, x)
				}
			}
		}
	}
	return f, nil
}
