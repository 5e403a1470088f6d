// SPDX-License-Identifier: EPL-2.0

// Package formats wires every bundled decoder into an audio.Registry.
package formats

import (
	"github.com/ik5/audvox/audio"
	"github.com/ik5/audvox/formats/aiff"
	"github.com/ik5/audvox/formats/flac"
	"github.com/ik5/audvox/formats/mp3"
	"github.com/ik5/audvox/formats/vorbis"
	"github.com/ik5/audvox/formats/wav"
)

// SearchOrder is the extension order tried for paths given without one.
var SearchOrder = []string{"ogg", "flac", "wav", "mp3", "aiff"}

// Default returns a registry with every bundled decoder.
func Default() *audio.Registry {
	r := audio.NewRegistry()

	r.Register("ogg", vorbis.Decoder{})
	r.Register("oga", vorbis.Decoder{})
	r.Register("flac", flac.Decoder{})
	r.Register("wav", wav.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("aif", aiff.Decoder{})

	return r
}
