package strat

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/rossby/internal/config"
	"github.com/san-kum/rossby/internal/dataset"
)

// Constants are the physical parameters of the tank.
type Constants struct {
	Depth             float64
	ThermalExpansion  float64
	Gravity           float64
	ReferenceDensity  float64
	InertialFrequency float64
}

func FromConfig(c config.ConstantsConfig) Constants {
	return Constants{
		Depth:             c.Depth,
		ThermalExpansion:  c.ThermalExpansion,
		Gravity:           c.Gravity,
		ReferenceDensity:  c.ReferenceDensity,
		InertialFrequency: c.InertialFrequency,
	}
}

func (c Constants) Validate() error {
	if c.Depth <= 0 {
		return fmt.Errorf("%w: depth %g", ErrParameterBounds, c.Depth)
	}
	if c.ReferenceDensity <= 0 {
		return fmt.Errorf("%w: reference density %g", ErrParameterBounds, c.ReferenceDensity)
	}
	if c.InertialFrequency == 0 {
		return fmt.Errorf("%w: inertial frequency is zero", ErrParameterBounds)
	}
	return nil
}

// Levels are the depth indices differenced for dtemp. Negative values
// count from the last level.
type Levels struct {
	Top    int
	Bottom int
}

// SurfaceFirst treats depth index 0 as the top of the tank.
var SurfaceFirst = Levels{Top: 0, Bottom: -1}

func LevelsFromConfig(c config.StratConfig) Levels {
	return Levels{Top: c.TopLevel, Bottom: c.BottomLevel}
}

// Result holds the derived scalars of one evaluation.
type Result struct {
	Timestep int     `json:"timestep" yaml:"timestep"`
	DTemp    float64 `json:"dtemp" yaml:"dtemp"`
	DTdz     float64 `json:"dTdz" yaml:"dTdz"`
	DRhodz   float64 `json:"drhodz" yaml:"drhodz"`
	N2       float64 `json:"N2" yaml:"N2"`
	N        float64 `json:"N" yaml:"N"`
	R        float64 `json:"R" yaml:"R"`
}

func (r Result) Stable() bool {
	return r.N2 >= 0
}

// FromDifference evaluates the stratification chain for a given mean
// top-minus-bottom temperature difference.
func FromDifference(dtemp float64, c Constants) (Result, error) {
	r := Result{DTemp: dtemp}
	r.DTdz = dtemp / c.Depth
	r.DRhodz = c.ThermalExpansion * r.DTdz
	r.N2 = -c.Gravity / c.ReferenceDensity * r.DRhodz
	if r.N2 < 0 || math.IsNaN(r.N2) {
		r.N = math.NaN()
		r.R = math.NaN()
		return r, fmt.Errorf("%w: N2 = %g", ErrUnstableStratification, r.N2)
	}
	r.N = math.Sqrt(r.N2)
	r.R = r.N * c.Depth / math.Abs(c.InertialFrequency)
	return r, nil
}

// Compute evaluates the stratification of field at timestep t between the
// given depth levels. On negative N2 the result is still returned
// alongside ErrUnstableStratification.
func Compute(field *dataset.Field, t int, lv Levels, c Constants) (Result, error) {
	if err := c.Validate(); err != nil {
		return Result{}, err
	}
	if _, nz, _, _ := field.Shape(); nz < 2 {
		return Result{}, ErrTooShallow
	}
	dtemp, err := field.MeanDifference(t, lv.Top, lv.Bottom)
	if err != nil {
		return Result{}, err
	}
	r, err := FromDifference(dtemp, c)
	r.Timestep = t
	return r, err
}

// Profile evaluates the stratification at every timestep. Unstable
// timesteps carry NaN N and R and do not stop the sweep.
func Profile(field *dataset.Field, lv Levels, c Constants) ([]Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	nt, _, _, _ := field.Shape()
	out := make([]Result, 0, nt)
	for t := 0; t < nt; t++ {
		r, err := Compute(field, t, lv, c)
		if err != nil && !errors.Is(err, ErrUnstableStratification) {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
