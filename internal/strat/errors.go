package strat

import "errors"

// Domain errors for stratification operations.
var (
	// ErrUnstableStratification indicates a negative squared buoyancy frequency.
	ErrUnstableStratification = errors.New("strat: unstable stratification (N2 < 0)")

	// ErrParameterBounds indicates a physical constant outside its valid range.
	ErrParameterBounds = errors.New("strat: parameter out of valid bounds")

	// ErrTooShallow indicates a field with fewer than two depth levels.
	ErrTooShallow = errors.New("strat: field needs at least two depth levels")
)
