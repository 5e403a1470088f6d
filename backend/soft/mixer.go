// SPDX-License-Identifier: EPL-2.0

// Package soft is a pure Go implementation of backend.Backend.
//
// The Mixer keeps every source and buffer in memory and renders them on
// demand into interleaved float32 frames at the device rate. Pitch and
// sample-rate differences are handled with cubic interpolation; mono buffers
// are panned with constant power when spatialized and stereo buffers are
// averaged down when the device is mono.
//
// Nothing runs in the background: Read (or Advance) drives time forward,
// which makes the mixer usable both behind a real output and in tests.
package soft

import (
	"slices"
	"sync"

	"github.com/ik5/audvox/backend"
)

const (
	defaultMaxSources    = 256
	defaultUnitsPerMeter = 1
)

type Option func(*Mixer)

// WithMaxSources caps GenSource.
func WithMaxSources(n int) Option {
	return func(m *Mixer) {
		if n > 0 {
			m.maxSources = n
		}
	}
}

// WithUnitsPerMeter scales distances before air absorption is applied.
func WithUnitsPerMeter(u float32) Option {
	return func(m *Mixer) {
		if u > 0 {
			m.unitsPerMeter = u
		}
	}
}

type Mixer struct {
	mu sync.Mutex

	sampleRate int
	channels   int

	maxSources    int
	unitsPerMeter float32

	sources    map[backend.SourceID]*source
	buffers    map[backend.BufferID]*buffer
	nextSource backend.SourceID
	nextBuffer backend.BufferID

	listener backend.Listener
	onState  func(backend.SourceID, backend.State)
}

var (
	_ backend.Backend  = (*Mixer)(nil)
	_ backend.Notifier = (*Mixer)(nil)
)

// New creates a mixer rendering at sampleRate with 1 or 2 output channels.
func New(sampleRate, channels int, opts ...Option) (*Mixer, error) {
	if sampleRate <= 0 {
		return nil, backend.ErrInvalidSampleRate
	}

	if channels != 1 && channels != 2 {
		return nil, backend.ErrUnsupportedFormat
	}

	m := &Mixer{
		sampleRate:    sampleRate,
		channels:      channels,
		maxSources:    defaultMaxSources,
		unitsPerMeter: defaultUnitsPerMeter,
		sources:       make(map[backend.SourceID]*source),
		buffers:       make(map[backend.BufferID]*buffer),
		listener:      backend.DefaultListener(),
	}

	for _, o := range opts {
		o(m)
	}

	return m, nil
}

func (m *Mixer) SampleRate() int { return m.sampleRate }
func (m *Mixer) Channels() int   { return m.channels }

func (m *Mixer) SetStateCallback(fn func(backend.SourceID, backend.State)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onState = fn
}

// notify runs outside the lock.
func (m *Mixer) notify(fn func(backend.SourceID, backend.State), stopped []backend.SourceID) {
	if fn == nil {
		return
	}

	for _, id := range stopped {
		fn(id, backend.StateStopped)
	}
}

func (m *Mixer) GenSource() (backend.SourceID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sources) >= m.maxSources {
		return 0, backend.ErrOutOfSources
	}

	m.nextSource++
	m.sources[m.nextSource] = newSource()

	return m.nextSource, nil
}

func (m *Mixer) DeleteSource(id backend.SourceID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sources, id)
}

// Sources reports how many sources are allocated.
func (m *Mixer) Sources() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sources)
}

func (m *Mixer) GenBuffer() (backend.BufferID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextBuffer++
	m.buffers[m.nextBuffer] = &buffer{channels: 1, rate: m.sampleRate}

	return m.nextBuffer, nil
}

func (m *Mixer) DeleteBuffer(id backend.BufferID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.buffers, id)
}

// Buffers reports how many buffers are allocated.
func (m *Mixer) Buffers() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.buffers)
}

func (m *Mixer) BufferData(id backend.BufferID, channels, sampleRate int, samples []float32) error {
	if channels != 1 && channels != 2 {
		return backend.ErrUnsupportedFormat
	}

	if sampleRate <= 0 {
		return backend.ErrInvalidSampleRate
	}

	data := slices.Clone(samples[:len(samples)-len(samples)%channels])

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buffers[id]
	if !ok {
		return backend.ErrUnknownBuffer
	}

	b.channels = channels
	b.rate = sampleRate
	b.data = data

	return nil
}

// with runs fn on a known source under the lock.
func (m *Mixer) with(id backend.SourceID, fn func(s *source)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sources[id]; ok {
		fn(s)
	}
}

func (m *Mixer) SetBuffer(id backend.SourceID, buf backend.BufferID) {
	m.with(id, func(s *source) {
		s.static = true
		s.queue = s.queue[:0]
		if buf != 0 {
			s.queue = append(s.queue, buf)
		}
		s.cur, s.pos, s.seeked = 0, 0, false
		s.state = backend.StateInitial
	})
}

func (m *Mixer) QueueBuffers(id backend.SourceID, bufs ...backend.BufferID) {
	m.with(id, func(s *source) {
		if s.static {
			s.static = false
			s.queue = s.queue[:0]
			s.cur, s.pos = 0, 0
		}
		s.queue = append(s.queue, bufs...)
	})
}

func (m *Mixer) UnqueueBuffers(id backend.SourceID, n int) []backend.BufferID {
	var out []backend.BufferID

	m.with(id, func(s *source) {
		k := min(n, s.processed())
		if k <= 0 {
			return
		}

		out = slices.Clone(s.queue[:k])
		s.queue = slices.Delete(s.queue, 0, k)
		s.cur -= k
	})

	return out
}

func (m *Mixer) BuffersProcessed(id backend.SourceID) int {
	n := 0
	m.with(id, func(s *source) { n = s.processed() })

	return n
}

func (m *Mixer) BuffersQueued(id backend.SourceID) int {
	n := 0
	m.with(id, func(s *source) { n = len(s.queue) })

	return n
}

func (m *Mixer) Play(id backend.SourceID) {
	var stopped []backend.SourceID

	m.mu.Lock()
	s, ok := m.sources[id]
	if ok {
		if s.state != backend.StatePaused {
			if !s.seeked {
				s.cur, s.pos = 0, 0
			}
			s.seeked = false
		}

		s.state = backend.StatePlaying

		if !m.hasAudio(s) {
			s.stop()
			stopped = append(stopped, id)
		}
	}
	fn := m.onState
	m.mu.Unlock()

	m.notify(fn, stopped)
}

func (m *Mixer) Pause(id backend.SourceID) {
	m.with(id, func(s *source) {
		if s.state == backend.StatePlaying {
			s.state = backend.StatePaused
		}
	})
}

func (m *Mixer) Stop(id backend.SourceID) {
	var stopped []backend.SourceID

	m.mu.Lock()
	if s, ok := m.sources[id]; ok && s.state != backend.StateStopped {
		s.stop()
		stopped = append(stopped, id)
	}
	fn := m.onState
	m.mu.Unlock()

	m.notify(fn, stopped)
}

func (m *Mixer) Rewind(id backend.SourceID) {
	m.with(id, func(s *source) {
		s.cur, s.pos, s.seeked = 0, 0, false
		s.state = backend.StateInitial
	})
}

func (m *Mixer) State(id backend.SourceID) backend.State {
	st := backend.StateInitial
	m.with(id, func(s *source) { st = s.state })

	return st
}

func (m *Mixer) SetOffset(id backend.SourceID, unit backend.OffsetUnit, v float64) {
	m.with(id, func(s *source) {
		if len(s.queue) == 0 || v < 0 {
			return
		}

		frames := v
		if unit == backend.OffsetSeconds {
			frames = v * float64(m.bufferRate(s.queue[0]))
		}

		cur := 0
		for cur < len(s.queue)-1 {
			n := float64(m.frames(s.queue[cur]))
			if frames < n {
				break
			}
			frames -= n
			cur++
		}

		s.cur, s.pos = cur, frames

		if s.state != backend.StatePlaying && s.state != backend.StatePaused {
			s.seeked = true
		}
	})
}

func (m *Mixer) Offset(id backend.SourceID, unit backend.OffsetUnit) float64 {
	var off float64

	m.with(id, func(s *source) {
		if s.state != backend.StatePlaying && s.state != backend.StatePaused && !s.seeked {
			return
		}

		if s.cur >= len(s.queue) {
			return
		}

		frames := s.pos
		for _, b := range s.queue[:s.cur] {
			frames += float64(m.frames(b))
		}

		if unit == backend.OffsetSeconds {
			off = frames / float64(m.bufferRate(s.queue[s.cur]))
			return
		}

		off = float64(int64(frames))
	})

	return off
}

func (m *Mixer) frames(id backend.BufferID) int {
	if b, ok := m.buffers[id]; ok {
		return b.frames()
	}
	return 0
}

func (m *Mixer) bufferRate(id backend.BufferID) int {
	if b, ok := m.buffers[id]; ok && b.rate > 0 {
		return b.rate
	}
	return m.sampleRate
}

func (m *Mixer) hasAudio(s *source) bool {
	for _, id := range s.queue[min(s.cur, len(s.queue)):] {
		if m.frames(id) > 0 {
			return true
		}
	}
	return false
}

func (m *Mixer) SetListener(l backend.Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listener = l
}

func (m *Mixer) Listener() backend.Listener {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.listener
}
