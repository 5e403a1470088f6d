// SPDX-License-Identifier: EPL-2.0

package replaygain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ik5/audvox/utils"
)

const (
	TagTrackGain = "REPLAYGAIN_TRACK_GAIN"
	TagTrackPeak = "REPLAYGAIN_TRACK_PEAK"

	knee = 0.5
)

// Params describes the normalization of one track. The zero value disables the filter.
type Params struct {
	GainDB  float64
	Peak    float64 // 0 means unknown, treated as 1.0
	HasGain bool
}

// Enabled reports whether Apply changes samples.
func (p Params) Enabled() bool {
	return p.HasGain
}

// Scale is the linear factor derived from GainDB.
func (p Params) Scale() float64 {
	return utils.DecibelsToLinear(p.GainDB)
}

// MaxScale is the largest factor that keeps the peak at full scale.
func (p Params) MaxScale() float64 {
	peak := p.Peak
	if peak <= 0 {
		peak = 1
	}

	return 1 / peak
}

// Apply normalizes samples in place.
func Apply(samples []float32, p Params) {
	if !p.HasGain {
		return
	}

	scale := float32(p.Scale())

	if p.Scale() <= p.MaxScale() {
		for i := range samples {
			samples[i] *= scale
		}

		return
	}

	for i, s := range samples {
		samples[i] = limit(s * scale)
	}
}

func limit(s float32) float32 {
	switch {
	case s > knee:
		return float32(math.Tanh(float64(s-knee)/(1-knee))*(1-knee) + knee)
	case s < -knee:
		return float32(math.Tanh(float64(s+knee)/(1-knee))*(1-knee) - knee)
	default:
		return s
	}
}

// ParseValue reads tag values such as "+3.14 dB", "-7.2dB" or "0.4728732849".
// Anything after the first space is ignored, as is a trailing "dB" unit.
func ParseValue(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, ErrEmptyValue
	}

	if i := strings.IndexByte(v, ' '); i >= 0 {
		v = v[:i]
	}

	if len(v) > 2 && strings.EqualFold(v[len(v)-2:], "db") {
		v = v[:len(v)-2]
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, v)
	}

	return f, nil
}

// FromTags extracts track gain and peak. Key matching is case-insensitive.
// A malformed tag is skipped and reported in the joined error while the
// remaining tags still apply.
func FromTags(tags map[string]string) (Params, error) {
	var (
		p    Params
		errs []error
	)

	for k, v := range tags {
		switch strings.ToUpper(k) {
		case TagTrackGain:
			g, err := ParseValue(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", TagTrackGain, err))
				continue
			}
			p.GainDB = g
			p.HasGain = true

		case TagTrackPeak:
			pk, err := ParseValue(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", TagTrackPeak, err))
				continue
			}
			p.Peak = pk
		}
	}

	return p, errors.Join(errs...)
}
