// Package strat derives the stratification of the tank from its
// temperature field.
//
// From the mean top-to-bottom temperature difference at one timestep it
// computes, in order:
//
//	dTdz   = dtemp / H
//	drhodz = alpha * dTdz
//	N2     = -g / rho0 * drhodz
//	N      = sqrt(N2)
//	R      = N * H / |f|
//
// where R is the barotropic Rossby radius of deformation.
//
// # Unstable stratification
//
// A negative N2 has no real buoyancy frequency. [Compute] then returns the
// full [Result] with N and R set to NaN together with
// [ErrUnstableStratification], so callers can decide whether to stop.
package strat
