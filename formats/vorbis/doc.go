// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides Ogg Vorbis decoding.
//
// This package uses github.com/jfreymuth/oggvorbis. Besides PCM the source
// exposes the stream's comment header as tags (keys upper-cased), which is
// where ReplayGain values live:
//
//	src, _ := vorbis.Decoder{}.Decode(file)
//	gain := src.(audio.Tagger).Tags()["REPLAYGAIN_TRACK_GAIN"]
package vorbis
