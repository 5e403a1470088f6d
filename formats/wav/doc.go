// SPDX-License-Identifier: EPL-2.0

// Package wav provides WAV audio file decoding and encoding.
//
// Decoding is built on github.com/go-audio/wav and supports integer PCM at
// 8, 16, 24 and 32 bits, any channel count and any sample rate. The returned
// source is seekable and reports its length in frames.
//
//	src, err := wav.Decoder{}.Decode(file)
//	if errors.Is(err, wav.ErrNotWavFile) {
//	    // not a RIFF/WAVE container
//	}
//
// # Writing WAV Files
//
// WriteWAV16 writes interleaved 16-bit PCM with a canonical 44 byte header.
// WriteFloat32 clamps float samples first:
//
//	err := wav.WriteFloat32(out, 48000, 2, mixed)
package wav
