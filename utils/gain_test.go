// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestDecibelsToLinear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		db   float64
		want float64
	}{
		{0, 1},
		{20, 10},
		{-20, 0.1},
		{6.0206, 2},
	}

	for _, tt := range tests {
		if got := DecibelsToLinear(tt.db); math.Abs(got-tt.want) > 1e-3 {
			t.Errorf("DecibelsToLinear(%v) = %v, want %v", tt.db, got, tt.want)
		}
	}
}

func TestLogVolume(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    float32
		want float32
	}{
		{"full", 1, 1},
		{"half", 0.5, 1.0 / 16},
		{"zero is silent", 0, 0},
		{"negative is silent", -0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := LogVolume(tt.v); math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("LogVolume(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestPanGains_ConstantPower(t *testing.T) {
	t.Parallel()

	for _, pan := range []float32{-1, -0.5, 0, 0.3, 1} {
		l, r := PanGains(pan)
		if p := l*l + r*r; math.Abs(float64(p-1)) > 1e-5 {
			t.Errorf("PanGains(%v) power = %v, want 1", pan, p)
		}
	}

	l, r := PanGains(-1)
	if l < 0.999 || r > 0.001 {
		t.Errorf("PanGains(-1) = %v, %v; want hard left", l, r)
	}
}

func TestIntToFloat32_Ranges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v, depth int
		want     float32
	}{
		{32767, 16, 32767.0 / 32768.0},
		{-32768, 16, -1},
		{-8388608, 24, -1},
		{64, 8, 0.5},
		{1 << 30, 32, 0.5},
		{5, 0, 0},
	}

	for _, tt := range tests {
		if got := IntToFloat32(tt.v, tt.depth); got != tt.want {
			t.Errorf("IntToFloat32(%d, %d) = %v, want %v", tt.v, tt.depth, got, tt.want)
		}
	}
}
