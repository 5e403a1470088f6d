// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// DecibelsToLinear converts a gain in dB into an amplitude factor.
func DecibelsToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LogVolume maps a linear slider value in [0, 1] onto the engine's
// logarithmic curve 1/2^((1-v)*8). Values at or below zero are silent.
func LogVolume(v float32) float32 {
	if v <= 0 {
		return 0
	}

	return float32(1 / math.Pow(2, float64(1-v)*8))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}

// PanGains returns constant-power left/right gains for pan in [-1, 1].
func PanGains(pan float32) (left, right float32) {
	pan = Clamp(pan, -1, 1)
	angle := float64(pan+1) * math.Pi / 4

	return float32(math.Cos(angle)), float32(math.Sin(angle))
}
