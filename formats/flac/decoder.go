// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"

	"github.com/ik5/audvox/audio"
	"github.com/ik5/audvox/utils"
)

// frameReader is the part of flac.Stream the source needs, to allow testing
type frameReader interface {
	ParseNext() (*frame.Frame, error)
}

type source struct {
	stream     frameReader
	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
	tags       map[string]string

	// decoded samples of the current FLAC frame not yet handed out
	pending []float32
	buf     []float32

	reopen func() (frameReader, error)
}

func (s *source) SampleRate() int         { return s.sampleRate }
func (s *source) Channels() int           { return s.channels }
func (s *source) BufSize() int            { return 4096 }
func (s *source) Close() error            { return nil }
func (s *source) Frames() int64           { return s.frames }
func (s *source) Tags() map[string]string { return s.tags }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	n := 0
	for n < len(dst) {
		if len(s.pending) == 0 {
			if err := s.next(); err != nil {
				if n > 0 && err == io.EOF {
					return n, nil
				}
				return n, err
			}
		}

		c := copy(dst[n:], s.pending)
		s.pending = s.pending[c:]
		n += c
	}

	return n, nil
}

// next decodes one FLAC frame into pending.
func (s *source) next() error {
	f, err := s.stream.ParseNext()
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("%w", err)
	}

	if len(f.Subframes) != s.channels {
		return fmt.Errorf("%w: frame has %d channels, stream %d", ErrUnsupportedLayout, len(f.Subframes), s.channels)
	}

	block := int(f.BlockSize)
	out := s.buf[:0]
	if cap(out) < block*s.channels {
		out = make([]float32, 0, block*s.channels)
	}

	for i := range block {
		for ch := range s.channels {
			out = append(out, utils.IntToFloat32(int(f.Subframes[ch].Samples[i]), s.bitDepth))
		}
	}

	s.buf = out
	s.pending = out

	return nil
}

// SeekFrame restarts the stream and decodes forward to frame.
func (s *source) SeekFrame(frame int64) error {
	if s.reopen == nil {
		return audio.ErrNotSeekable
	}

	if frame < 0 || (s.frames > 0 && frame > s.frames) {
		return audio.ErrSeekRange
	}

	stream, err := s.reopen()
	if err != nil {
		return err
	}

	s.stream = stream
	s.pending = nil

	skip := frame * int64(s.channels)
	for skip > 0 {
		if len(s.pending) == 0 {
			if err := s.next(); err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
		}

		c := min(skip, int64(len(s.pending)))
		s.pending = s.pending[c:]
		skip -= c
	}

	return nil
}

func vorbisTags(blocks []*meta.Block) map[string]string {
	tags := make(map[string]string)

	for _, b := range blocks {
		vc, ok := b.Body.(*meta.VorbisComment)
		if !ok {
			continue
		}

		for _, kv := range vc.Tags {
			tags[strings.ToUpper(kv[0])] = kv[1]
		}
	}

	return tags
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading flac data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	stream, err := flac.Parse(rs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFlacFile, err)
	}

	info := stream.Info
	if info == nil || info.NChannels == 0 || info.BitsPerSample == 0 {
		return nil, ErrUnsupportedLayout
	}

	return &source{
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
		frames:     int64(info.NSamples),
		tags:       vorbisTags(stream.Blocks),
		reopen: func() (frameReader, error) {
			if _, err := rs.Seek(0, io.SeekStart); err != nil {
				return nil, fmt.Errorf("%w", err)
			}

			return flac.New(rs)
		},
	}, nil
}
