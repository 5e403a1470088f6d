// SPDX-License-Identifier: EPL-2.0

// Package flac provides FLAC decoding on top of github.com/mewkiz/flac.
//
// All metadata blocks are parsed up front so the VORBIS_COMMENT block is
// available through Tags. Seeking restarts the stream and decodes forward.
package flac
