// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"
	"strings"

	"github.com/jfreymuth/oggvorbis"
	"github.com/jfreymuth/vorbis"

	"github.com/ik5/audvox/audio"
)

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
	Length() int64
	SetPosition(pos int64) error
	CommentHeader() vorbis.CommentHeader
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
	tags       map[string]string
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 }

// Frames is 0 when the length is unknown (unseekable input).
func (s *source) Frames() int64 { return s.dec.Length() }

func (s *source) Tags() map[string]string { return s.tags }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if len(dst)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	// Read returns a count of values, always a multiple of Channels()
	n, err := s.dec.Read(dst)
	if n == 0 && err == nil {
		return 0, io.EOF
	}

	return n, err
}

func (s *source) SeekFrame(frame int64) error {
	if frame < 0 {
		return audio.ErrSeekRange
	}

	if l := s.dec.Length(); l > 0 && frame > l {
		return audio.ErrSeekRange
	}

	if err := s.dec.SetPosition(frame); err != nil {
		return fmt.Errorf("%w: %w", audio.ErrNotSeekable, err)
	}

	return nil
}

// parseComments turns "KEY=value" Vorbis comments into a map with upper-case keys.
// Later duplicates win.
func parseComments(comments []string) map[string]string {
	tags := make(map[string]string, len(comments))

	for _, c := range comments {
		k, v, ok := strings.Cut(c, "=")
		if !ok || k == "" {
			continue
		}
		tags[strings.ToUpper(k)] = v
	}

	return tags
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return newSource(dec), nil
}

func newSource(dec oggReader) *source {
	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
		tags:       parseComments(dec.CommentHeader().Comments),
	}
}
