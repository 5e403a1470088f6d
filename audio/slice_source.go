// SPDX-License-Identifier: EPL-2.0

package audio

import "io"

// SliceSource serves already decoded interleaved PCM as a Source.
// It is seekable and reports its length.
type SliceSource struct {
	data       []float32
	sampleRate int
	channels   int
	pos        int // in samples, always frame aligned
}

func NewSliceSource(data []float32, sampleRate, channels int) *SliceSource {
	return &SliceSource{
		data:       data,
		sampleRate: sampleRate,
		channels:   channels,
	}
}

func (s *SliceSource) SampleRate() int { return s.sampleRate }
func (s *SliceSource) Channels() int   { return s.channels }
func (s *SliceSource) BufSize() int    { return 4096 }
func (s *SliceSource) Close() error    { return nil }
func (s *SliceSource) Frames() int64   { return int64(len(s.data) / s.channels) }

func (s *SliceSource) ReadSamples(dst []float32) (int, error) {
	if len(dst)%s.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if s.pos >= len(s.data) {
		return 0, io.EOF
	}

	n := copy(dst, s.data[s.pos:])
	s.pos += n

	if s.pos >= len(s.data) {
		return n, io.EOF
	}

	return n, nil
}

func (s *SliceSource) SeekFrame(frame int64) error {
	if frame < 0 || frame > s.Frames() {
		return ErrSeekRange
	}

	s.pos = int(frame) * s.channels

	return nil
}
