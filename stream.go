// SPDX-License-Identifier: EPL-2.0

package audvox

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ik5/audvox/backend"
	"github.com/ik5/audvox/buffer"
	"github.com/ik5/audvox/replaygain"
)

// StreamConfig tunes the background decoder of streaming voices.
type StreamConfig struct {
	// BufferFrames is the size of each of the two alternating buffers.
	BufferFrames int
	// PollInterval is how long the decoder sleeps between checks.
	PollInterval time.Duration
}

func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		BufferFrames: 32768,
		PollInterval: 50 * time.Millisecond,
	}
}

// segment is the span of the track held by one queued buffer.
type segment struct {
	start  int64
	frames int64
}

// streamVoice plays a track through two backend buffers that a goroutine
// refills as the source drains them.
type streamVoice struct {
	voice

	cfg    StreamConfig
	parent *slog.Logger
	logger *slog.Logger

	mu       sync.Mutex
	track    *buffer.Track
	gain     replaygain.Params
	bufs     [2]backend.BufferID
	queued   []segment // FIFO matching the backend queue
	pos      int64     // next frame the decoder produces
	scratch  []float32
	looping  bool
	eos      bool
	started  bool
	playing  bool // Play was called and not undone by Pause, Stop or Rewind
	primed   bool // the queue was rebuilt while stopped and is ready to play
	shutdown bool
	done     chan struct{}
}

func newStreamVoice(be backend.Backend, track *buffer.Track, cfg StreamConfig, logger *slog.Logger) (*streamVoice, error) {
	base, err := newVoice(be, KindScriptStream, track.Channels() == 2)
	if err != nil {
		return nil, err
	}

	s := &streamVoice{
		voice:  base,
		cfg:    cfg,
		parent: logger,
		logger: logger.With("path", track.Path(), "source", base.src),
		track:  track,
		gain:   track.ReplayGain(),
		done:   make(chan struct{}),
	}

	for i := range s.bufs {
		id, err := be.GenBuffer()
		if err != nil {
			s.freeBackend()
			return nil, err
		}
		s.bufs[i] = id
	}

	return s, nil
}

func (s *streamVoice) freeBackend() {
	s.be.DeleteSource(s.src)
	for _, id := range s.bufs {
		if id != 0 {
			s.be.DeleteBuffer(id)
		}
	}
}

// release frees the backend objects and the track. s.mu must be held.
func (s *streamVoice) release() {
	s.freeBackend()

	if err := s.track.Close(); err != nil {
		s.logger.Debug("closing track", "error", err)
	}
}

func (s *streamVoice) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return
	}

	s.shutdown = true
	close(s.done)
	s.release()
}

// fill decodes up to BufferFrames frames into id and returns how many it wrote.
// s.mu must be held.
func (s *streamVoice) fill(id backend.BufferID) (int64, error) {
	ch := s.track.Channels()
	want := s.cfg.BufferFrames * ch

	if cap(s.scratch) < want {
		s.scratch = make([]float32, want)
	}
	buf := s.scratch[:want]

	filled := 0
	// set by a seek to 0 until a read produces audio again, so an empty
	// track ends instead of spinning
	rewound := false

	for filled < want && !s.eos {
		n, err := s.track.ReadSamples(buf[filled:])
		filled += n
		s.pos += int64(n / ch)

		if n > 0 {
			rewound = false
		}

		if err == nil && n > 0 {
			continue
		}

		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: %w", ErrStreamIO, err)
		}

		// end of stream, possibly reported as (0, nil)
		if s.looping && !rewound {
			if err := s.track.SeekFrame(0); err == nil {
				rewound = true
				s.pos = 0
				continue
			}
		}

		s.eos = true
	}

	if filled == 0 {
		return 0, nil
	}

	samples := buf[:filled]
	replaygain.Apply(samples, s.gain)

	if err := s.be.BufferData(id, ch, s.track.SampleRate(), samples); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStreamIO, err)
	}

	return int64(filled / ch), nil
}

// enqueue fills id and queues it when it got any audio. s.mu must be held.
func (s *streamVoice) enqueue(id backend.BufferID) error {
	start := s.pos

	n, err := s.fill(id)
	if err != nil || n == 0 {
		return err
	}

	s.be.QueueBuffers(s.src, id)
	s.queued = append(s.queued, segment{start: start, frames: n})

	return nil
}

// requeue drops the whole backend queue and refills both buffers from the
// decoder position. The source is left stopped. s.mu must be held.
func (s *streamVoice) requeue() error {
	s.be.Stop(s.src)
	s.be.UnqueueBuffers(s.src, s.be.BuffersQueued(s.src))
	s.queued = s.queued[:0]

	for _, id := range s.bufs {
		if err := s.enqueue(id); err != nil {
			return err
		}
	}
	s.primed = true

	return nil
}

// reload moves the decoder to frame and requeues. s.mu must be held.
func (s *streamVoice) reload(frame int64) bool {
	if err := s.track.SeekFrame(frame); err != nil {
		s.logger.Debug("stream seek ignored", "frame", frame, "error", err)
		return false
	}

	s.pos = frame
	s.eos = false

	if err := s.requeue(); err != nil {
		s.logger.Error("stream refill failed", "error", err)
	}

	return true
}

func (s *streamVoice) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return
	}
	s.playing = true

	if !s.started {
		s.started = true

		if err := s.requeue(); err != nil {
			s.logger.Error("stream prefill failed", "error", err)
			return
		}

		s.primed = false
		s.be.Play(s.src)
		go s.run()

		return
	}

	switch s.be.State(s.src) {
	case backend.StatePlaying:
		return
	case backend.StateStopped:
		if !s.primed {
			s.reload(0)
		}
	}

	s.primed = false
	s.be.Play(s.src)
}

func (s *streamVoice) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.shutdown {
		s.playing = false
		s.be.Pause(s.src)
	}
}

func (s *streamVoice) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.shutdown {
		s.playing = false
		s.primed = false
		s.be.Stop(s.src)
	}
}

func (s *streamVoice) Rewind() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return
	}
	s.playing = false

	if !s.started {
		s.rewindDecoder(0)
		return
	}

	if s.reload(0) {
		s.be.Rewind(s.src)
	}
}

// rewindDecoder positions a decoder that has not started playing. s.mu must be held.
func (s *streamVoice) rewindDecoder(frame int64) {
	if err := s.track.SeekFrame(frame); err != nil {
		s.logger.Debug("stream seek ignored", "frame", frame, "error", err)
		return
	}

	s.pos = frame
	s.eos = false
}

func (s *streamVoice) State() backend.State {
	return s.be.State(s.src)
}

func (s *streamVoice) Seek(offset float64, unit SeekUnit) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown || offset < 0 {
		return
	}

	frame := int64(offset)
	if unit == SeekSeconds {
		frame = int64(offset * float64(s.track.SampleRate()))
	}

	if !s.started {
		s.rewindDecoder(frame)
		return
	}

	playing := s.be.State(s.src) == backend.StatePlaying
	if s.reload(frame) && playing {
		s.primed = false
		s.be.Play(s.src)
	}
}

func (s *streamVoice) Tell(unit SeekUnit) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return 0
	}

	frame := s.pos
	if len(s.queued) > 0 {
		p := s.be.BuffersProcessed(s.src)
		if p >= len(s.queued) {
			return 0
		}

		off := int64(s.be.Offset(s.src, backend.OffsetSamples))
		for _, seg := range s.queued[:p] {
			off -= seg.frames
		}
		frame = s.queued[p].start + max(off, 0)
	}

	if n := s.track.Frames(); n > 0 {
		frame %= n
	}

	if unit == SeekSamples {
		return float64(frame)
	}

	return float64(frame) / float64(s.track.SampleRate())
}

func (s *streamVoice) Duration(unit SeekUnit) float64 {
	n := s.track.Frames()
	if unit == SeekSamples {
		return float64(n)
	}

	return float64(n) / float64(s.track.SampleRate())
}

// SetLooping loops in the decoder; the backend queue itself never loops.
func (s *streamVoice) SetLooping(looping bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.looping = looping
}

func (s *streamVoice) Looping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.looping
}

// clone plays track, a fresh decoder for the same path, with this voice's
// settings. It takes ownership of track.
func (s *streamVoice) clone(track *buffer.Track) (Voice, error) {
	if track == nil {
		return nil, fmt.Errorf("%w: stream clone without a track", ErrKindMismatch)
	}

	nv, err := newStreamVoice(s.be, track, s.cfg, s.parent)
	if err != nil {
		_ = track.Close()
		return nil, err
	}

	nv.copyFrom(&s.voice)
	nv.looping = s.Looping()

	return nv, nil
}

func (s *streamVoice) run() {
	s.logger.Debug("stream started")
	defer s.logger.Debug("stream stopped")

	t := time.NewTicker(s.cfg.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-t.C:
		}

		if !s.step() {
			return
		}
	}
}

// step refills at most one drained buffer. It reports false when the
// goroutine should exit.
func (s *streamVoice) step() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return false
	}

	if s.eos {
		return true
	}

	switch s.be.State(s.src) {
	case backend.StatePlaying:
	case backend.StateStopped:
		if s.playing && !s.primed {
			s.resume()
		}
		return true
	default:
		return true
	}

	if s.be.BuffersProcessed(s.src) == 0 {
		return true
	}

	ids := s.be.UnqueueBuffers(s.src, 1)
	if len(ids) == 0 {
		return true
	}
	s.queued = s.queued[1:]

	if err := s.enqueue(ids[0]); err != nil {
		s.logger.Error("stream refill failed", "error", err)
		return false
	}

	return true
}

// resume restarts a source that drained every buffer before the decoder
// caught up. s.mu must be held.
func (s *streamVoice) resume() {
	s.logger.Warn("stream underrun", "frame", s.pos)

	if err := s.requeue(); err != nil {
		s.logger.Error("stream refill failed", "error", err)
		return
	}

	s.primed = false
	s.be.Play(s.src)
}
