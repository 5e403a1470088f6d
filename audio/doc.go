// SPDX-License-Identifier: EPL-2.0

// Package audio provides the codec level primitives shared by every decoder.
//
// # Source Interface
//
// The Source interface is the foundation of audio decoding:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Decoders may additionally implement Seeker, Tagger, Lengther and Padder.
// Callers check for them with a type assertion:
//
//	if s, ok := src.(audio.Seeker); ok {
//	    err = s.SeekFrame(0)
//	}
//
// # Format Registry
//
// The registry maps file extensions to decoders:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	decoder, ok := registry.Lookup("sfx/boom.wav")
//
// # Sample Format
//
// Audio samples are represented as interleaved float32 in the range [-1.0, 1.0].
//
// # End of Stream
//
// ReadSamples returns io.EOF once the data is exhausted, possibly together
// with the last samples. ReadAll drains a source into one slice and also
// treats a (0, nil) read as the end:
//
//	samples, err := audio.ReadAll(src)
package audio
