// SPDX-License-Identifier: EPL-2.0

// Package replaygain normalizes decoded PCM using ReplayGain track tags.
//
// When the requested gain would push the track peak past full scale the
// filter switches to a soft-knee limiter: samples whose scaled magnitude
// exceeds 0.5 are folded back through tanh so the output never leaves [-1, 1].
//
//	params, err := replaygain.FromTags(src.(audio.Tagger).Tags())
//	replaygain.Apply(samples, params)
package replaygain
