package viz

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rossby/internal/strat"
)

var (
	ErrUnknownQuantity = errors.New("viz: unknown profile quantity")
	ErrEmptyProfile    = errors.New("viz: empty profile")
	ErrNoFiniteValues  = errors.New("viz: quantity is undefined at every timestep")
)

var quantities = map[string]func(strat.Result) float64{
	"dtemp":  func(r strat.Result) float64 { return r.DTemp },
	"dTdz":   func(r strat.Result) float64 { return r.DTdz },
	"drhodz": func(r strat.Result) float64 { return r.DRhodz },
	"N2":     func(r strat.Result) float64 { return r.N2 },
	"N":      func(r strat.Result) float64 { return r.N },
	"R":      func(r strat.Result) float64 { return r.R },
}

func Quantities() []string {
	names := make([]string, 0, len(quantities))
	for name := range quantities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Series extracts one quantity from every timestep of a profile.
func Series(profile []strat.Result, quantity string) ([]float64, error) {
	get, ok := quantities[quantity]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownQuantity, quantity, Quantities())
	}
	data := make([]float64, len(profile))
	for i, r := range profile {
		data[i] = get(r)
	}
	return data, nil
}

// ProfilePlot draws quantity over time. Unstable timesteps leave gaps in
// N and R.
func ProfilePlot(profile []strat.Result, quantity string, width, height int) (string, error) {
	if len(profile) == 0 {
		return "", ErrEmptyProfile
	}
	data, err := Series(profile, quantity)
	if err != nil {
		return "", err
	}
	if !anyFinite(data) {
		return "", fmt.Errorf("%w: %s", ErrNoFiniteValues, quantity)
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%s over %d timesteps", quantity, len(profile))),
	), nil
}

func anyFinite(data []float64) bool {
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
