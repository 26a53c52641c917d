// Package jitter draws the randomized delays and offsets used throughout the
// input simulation. The functions are stateless and safe for concurrent use;
// they draw from the runtime's automatically seeded source.
package jitter

import (
	"math/rand/v2"
	"time"
)

// Duration returns a uniformly distributed duration in [min, max].
// Swapped bounds are tolerated; equal bounds return that value.
func Duration(min, max time.Duration) time.Duration {
	if max < min {
		min, max = max, min
	}
	if max == min {
		return min
	}
	return min + rand.N(max-min+1)
}

// Int returns a uniformly distributed integer in [min, max].
func Int(min, max int) int {
	if max < min {
		min, max = max, min
	}
	if max == min {
		return min
	}
	return min + rand.IntN(max-min+1)
}

// Float returns a uniformly distributed float in [min, max).
func Float(min, max float64) float64 {
	if max < min {
		min, max = max, min
	}
	return min + rand.Float64()*(max-min)
}

// Chance reports true with probability p. p <= 0 never fires, p >= 1 always does.
func Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return rand.Float64() < p
}

// Sign returns -1 or +1 with equal probability.
func Sign() float64 {
	if rand.IntN(2) == 0 {
		return -1
	}
	return 1
}
