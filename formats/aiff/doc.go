// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF (Audio Interchange File Format) decoding.
//
// This package uses github.com/go-audio/aiff to decode AIFF files with
// 8, 16, 24 or 32-bit samples, any channel count and any sample rate.
//
//	src, err := aiff.Decoder{}.Decode(file)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    // not a FORM/AIFF container
//	}
//
// Seeking re-reads the container header and skips forward, so it costs
// a decode of everything before the target frame.
package aiff
