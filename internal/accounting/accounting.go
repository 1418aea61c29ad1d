// Package accounting encodes the energy accounting identities and the
// proportional-rescaling rule used to force child values to sum to an
// authoritative parent total.
package accounting

import (
	"errors"
	"math"
)

// Tolerance is the absolute tolerance within which sums must close.
const Tolerance = 1e-5

// ErrIrreconcilableZeroBasis is returned when a nonzero parent total would
// have to be distributed over an all-zero child set. Callers flag the
// affected row for review instead of guessing a split.
var ErrIrreconcilableZeroBasis = errors.New("accounting: nonzero parent total over all-zero children")

// Rescale multiplies every child by parentTotal / sum(children) so the
// result sums to parentTotal. A zero child sum against a zero parent total
// is returned unchanged with factor 1.
func Rescale[K comparable](children map[K]float64, parentTotal float64) (map[K]float64, float64, error) {
	var sum float64
	for _, v := range children {
		sum += v
	}

	if sum == 0 {
		if math.Abs(parentTotal) <= Tolerance {
			out := make(map[K]float64, len(children))
			for k, v := range children {
				out[k] = v
			}
			return out, 1, nil
		}
		return nil, 0, ErrIrreconcilableZeroBasis
	}

	factor := parentTotal / sum
	out := make(map[K]float64, len(children))
	for k, v := range children {
		out[k] = v * factor
	}
	return out, factor, nil
}

// DeriveGeneration applies the inverse accounting identity
// Demand = Total Generation + Net Imports to recover generation.
func DeriveGeneration(demand, netImports float64) float64 {
	return demand - netImports
}

// DeriveDemand applies the identity forward: Demand = Generation + Imports.
func DeriveDemand(totalGeneration, netImports float64) float64 {
	return totalGeneration + netImports
}

// Closes reports whether the child values sum to the parent total within Tolerance.
func Closes[K comparable](children map[K]float64, parentTotal float64) bool {
	var sum float64
	for _, v := range children {
		sum += v
	}
	return math.Abs(sum-parentTotal) <= Tolerance
}
