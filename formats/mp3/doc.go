// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides MP3 audio file decoding.
//
// This package uses github.com/hajimehoshi/go-mp3, which always produces
// 16-bit stereo at the stream's native rate; mono files come out duplicated
// on both channels.
//
//	src, err := mp3.Decoder{}.Decode(file)
//
// When the input implements io.Seeker the source reports its length and
// supports SeekFrame. Otherwise SeekFrame returns audio.ErrNotSeekable.
package mp3
