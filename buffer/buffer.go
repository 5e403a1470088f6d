// SPDX-License-Identifier: EPL-2.0

package buffer

import (
	"time"

	"github.com/ik5/audvox/backend"
	"github.com/ik5/audvox/replaygain"
)

// Buffer is decoded PCM resident in the backend. It is immutable.
type Buffer struct {
	path       string
	channels   int
	sampleRate int
	samples    []float32
	gain       replaygain.Params
	id         backend.BufferID
}

// Path is the resolved path the buffer was loaded from.
func (b *Buffer) Path() string { return b.path }

func (b *Buffer) Channels() int   { return b.channels }
func (b *Buffer) SampleRate() int { return b.sampleRate }
func (b *Buffer) Stereo() bool    { return b.channels == 2 }

// ID is the backend buffer holding the uploaded copy.
func (b *Buffer) ID() backend.BufferID { return b.id }

// ReplayGain reports the parameters that were applied to the samples.
func (b *Buffer) ReplayGain() replaygain.Params { return b.gain }

// Samples returns the interleaved samples. The slice must not be modified.
func (b *Buffer) Samples() []float32 { return b.samples }

func (b *Buffer) Frames() int {
	return len(b.samples) / b.channels
}

func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.sampleRate)
}
