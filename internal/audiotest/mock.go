// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds fakes shared by the engine tests.
package audiotest

import (
	"bytes"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ik5/audvox/audio"
	"github.com/ik5/audvox/formats/wav"
)

// MockSource generates frames from a waveform function. It is seekable, knows
// its length, and can report tags and codec padding.
type MockSource struct {
	mu sync.Mutex

	sampleRate  int
	channels    int
	totalFrames int
	pos         int // in frames
	waveform    func(frame int, channel int) float32

	tags     map[string]string
	preRoll  int
	trailing int

	failAt  int
	readErr error

	seeks  int
	closed bool
}

func NewMockSource(sampleRate, channels, totalFrames int, waveform func(frame int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:  sampleRate,
		channels:    channels,
		totalFrames: totalFrames,
		waveform:    waveform,
	}
}

func NewSilentSource(sampleRate, channels, totalFrames int) *MockSource {
	return NewConstantSource(sampleRate, channels, totalFrames, 0)
}

func NewSineSource(sampleRate, channels, totalFrames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(frame int, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

func NewConstantSource(sampleRate, channels, totalFrames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(int, int) float32 {
		return value
	})
}

// WithTags sets the tags reported through Tags.
func (m *MockSource) WithTags(tags map[string]string) *MockSource {
	m.tags = tags
	return m
}

// WithReadError makes every read at or past frame fail with err.
func (m *MockSource) WithReadError(frame int, err error) *MockSource {
	m.failAt, m.readErr = frame, err
	return m
}

// WithPadding sets the padding reported through Padding.
func (m *MockSource) WithPadding(preRoll, trailing int) *MockSource {
	m.preRoll, m.trailing = preRoll, trailing
	return m
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }
func (m *MockSource) Frames() int64   { return int64(m.totalFrames) }

func (m *MockSource) Tags() map[string]string {
	return m.tags
}

func (m *MockSource) Padding() (preRoll, trailing int) {
	return m.preRoll, m.trailing
}

func (m *MockSource) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

// Seeks reports how many times SeekFrame was called.
func (m *MockSource) Seeks() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.seeks
}

func (m *MockSource) SeekFrame(frame int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame < 0 || frame > int64(m.totalFrames) {
		return audio.ErrSeekRange
	}

	m.seeks++
	m.pos = int(frame)

	return nil
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if len(dst)%m.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readErr != nil && m.pos >= m.failAt {
		return 0, m.readErr
	}

	if m.pos >= m.totalFrames {
		return 0, io.EOF
	}

	frames := min(len(dst)/m.channels, m.totalFrames-m.pos)
	if m.readErr != nil {
		frames = min(frames, m.failAt-m.pos)
	}
	for f := range frames {
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.waveform(m.pos+f, ch)
		}
	}
	m.pos += frames

	if m.pos >= m.totalFrames {
		return frames * m.channels, io.EOF
	}

	return frames * m.channels, nil
}

// Decoder hands out sources built by New and counts Decode calls.
type Decoder struct {
	New func() audio.Source

	calls atomic.Int64
}

func (d *Decoder) Decode(r io.Reader) (audio.Source, error) {
	d.calls.Add(1)

	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}

	return d.New(), nil
}

// Calls reports how many times Decode ran.
func (d *Decoder) Calls() int {
	return int(d.calls.Load())
}

// CountingDecoder wraps a real decoder and counts Decode calls.
type CountingDecoder struct {
	Inner audio.Decoder

	calls atomic.Int64
}

func (d *CountingDecoder) Decode(r io.Reader) (audio.Source, error) {
	d.calls.Add(1)
	return d.Inner.Decode(r)
}

func (d *CountingDecoder) Calls() int {
	return int(d.calls.Load())
}

// WAV returns an in-memory 16 bit PCM WAV file.
func WAV(sampleRate, channels int, samples []int16) []byte {
	var buf bytes.Buffer
	if err := wav.WriteWAV16(&buf, sampleRate, channels, samples); err != nil {
		panic(err)
	}

	return buf.Bytes()
}

// Ramp returns n interleaved samples rising from 0 by step.
func Ramp(n int, step int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(i) * step
	}

	return out
}
