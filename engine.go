// SPDX-License-Identifier: EPL-2.0

package audvox

import (
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/ik5/audvox/audio"
	"github.com/ik5/audvox/backend"
	"github.com/ik5/audvox/buffer"
	"github.com/ik5/audvox/config"
	"github.com/ik5/audvox/formats"
	"github.com/ik5/audvox/vfs"
)

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRegistry replaces the bundled decoders.
func WithRegistry(r *audio.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithLoader replaces the loader built from the filesystem and registry.
func WithLoader(l *buffer.Loader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// Engine ties the buffer cache, the voice pool, the groups and the event
// bridge to one backend. ExecuteMessages must be called regularly, usually
// once per frame, from the goroutine that drives the engine.
type Engine struct {
	id     uuid.UUID
	logger *slog.Logger
	cfg    config.Config

	be       backend.Backend
	registry *audio.Registry
	loader   *buffer.Loader
	cache    *buffer.Cache

	levels *levels
	pool   *VoicePool
	groups *GroupManager
	bridge *Bridge

	closeOnce sync.Once
}

// New builds an engine over be, loading assets from fsys.
func New(cfg config.Config, be backend.Backend, fsys vfs.FS, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		id:     uuid.New(),
		logger: slog.Default(),
		cfg:    cfg,
		be:     be,
		levels: newLevels(),
		bridge: &Bridge{},
	}

	for _, o := range opts {
		o(e)
	}

	e.logger = e.logger.With("engine", e.id.String())

	if e.registry == nil {
		e.registry = formats.Default()
	}

	if e.loader == nil {
		e.loader = buffer.NewLoader(fsys, e.registry, be,
			buffer.WithExtensions(cfg.Cache.Extensions...),
			buffer.WithLogger(e.logger),
		)
	}

	e.cache = buffer.NewCache(e.loader, cfg.Cache.SerializeMisses)

	e.pool = NewVoicePool(be, cfg.Voices.Capacity, cfg.Voices.ReservedSlots)
	e.pool.levels = e.levels
	e.pool.loader = e.loader
	e.pool.logger = e.logger
	e.pool.spatial = Spatial{
		ReferenceDistance: cfg.Spatial.ReferenceDistance,
		MaxDistance:       cfg.Spatial.MaxDistance,
		Rolloff:           cfg.Spatial.Rolloff,
	}
	e.pool.stream = StreamConfig{
		BufferFrames: cfg.Stream.BufferFrames,
		PollInterval: cfg.Stream.PollInterval(),
	}

	e.groups = NewGroupManager(e.pool)

	if n, ok := be.(backend.Notifier); ok {
		n.SetStateCallback(e.onState)
	}

	e.logger.Info("audio engine started",
		"voices", cfg.Voices.Capacity,
		"reserved", cfg.Voices.ReservedSlots,
		"extensions", cfg.Cache.Extensions,
	)

	return e, nil
}

// onState runs on the backend's goroutine; it only queues.
func (e *Engine) onState(src backend.SourceID, st backend.State) {
	if st == backend.StateStopped {
		e.bridge.Push(SourceStoppedMessage(src))
	}
}

// Close stops every voice, including stream goroutines, and detaches from
// the backend.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		if n, ok := e.be.(backend.Notifier); ok {
			n.SetStateCallback(nil)
		}

		e.pool.closeAll()
		e.bridge.Drain()

		e.logger.Info("audio engine stopped")
	})
}

func (e *Engine) ID() uuid.UUID          { return e.id }
func (e *Engine) Logger() *slog.Logger   { return e.logger }
func (e *Engine) Voices() *VoicePool     { return e.pool }
func (e *Engine) Groups() *GroupManager  { return e.groups }
func (e *Engine) Cache() *buffer.Cache   { return e.cache }
func (e *Engine) Loader() *buffer.Loader { return e.loader }
func (e *Engine) Bridge() *Bridge        { return e.bridge }

func (e *Engine) LoadBuffer(path string) (*buffer.Buffer, error) {
	return e.cache.GetOrLoad(path)
}

// PlayBuffer starts a fire-and-forget voice that is reaped once it stops.
func (e *Engine) PlayBuffer(buf *buffer.Buffer, inGame bool) (Handle, error) {
	h, err := NewVoiceBuilder(buf).InGame(inGame).Build(e.pool)
	if err != nil {
		return Handle{}, err
	}

	e.pool.Play(h)

	return h, nil
}

// PlayBufferAt starts an in-game fire-and-forget voice at pos moving with vel.
func (e *Engine) PlayBufferAt(buf *buffer.Buffer, pos, vel backend.Vec3) (Handle, error) {
	h, err := NewVoiceBuilder(buf).InGame(true).Build(e.pool)
	if err != nil {
		return Handle{}, err
	}

	e.pool.SetPosition(h, pos)
	e.pool.SetVelocity(h, vel)
	e.pool.Play(h)

	return h, nil
}

// Open creates a script-owned voice that is not playing yet. Streaming
// voices decode incrementally; others go through the cache.
func (e *Engine) Open(path string, streaming bool) (Handle, error) {
	if streaming {
		track, err := e.loader.Open(path)
		if err != nil {
			return Handle{}, err
		}

		return NewStreamBuilder(track).Build(e.pool)
	}

	buf, err := e.cache.GetOrLoad(path)
	if err != nil {
		return Handle{}, err
	}

	return NewVoiceBuilder(buf).Kind(KindScriptStatic).Build(e.pool)
}

// Release schedules h for removal on the next ExecuteMessages.
func (e *Engine) Release(h Handle) {
	e.bridge.Push(RemoveMessage(h))
}

// ExecuteMessages applies queued removals and stop events and returns how
// many messages it handled.
func (e *Engine) ExecuteMessages() int {
	e.groups.mu.Lock()
	defer e.groups.mu.Unlock()

	e.pool.mu.Lock()
	defer e.pool.mu.Unlock()

	msgs := e.bridge.Drain()

	for _, m := range msgs {
		switch m.Kind {
		case MessageRemove:
			e.pool.remove(m.Handle)

		case MessageSourceStopped:
			h, v := e.pool.findSource(m.Source)
			if v == nil {
				continue
			}

			if g := v.common().group; g.Valid() {
				e.groups.forget(g, h)
			}

			if v.Kind() == KindStatic {
				e.pool.remove(h)
			}
		}
	}

	return len(msgs)
}

// SetVolume sets the master volume from a linear slider value in [0, 1].
func (e *Engine) SetVolume(lin float32) {
	e.levels.setVolume(lin)
	e.pool.reproject()
}

// Volume is the linear master volume.
func (e *Engine) Volume() float32 {
	lin, _, _, _ := e.levels.get()
	return lin
}

// VolumeLog is the master gain actually applied.
func (e *Engine) VolumeLog() float32 {
	_, vol, _, _ := e.levels.get()
	return vol
}

// SetVolumeSpeed sets the modulator applied to in-game voices.
func (e *Engine) SetVolumeSpeed(v float32) {
	e.levels.setVolumeSpeed(v)
	e.pool.reproject()
}

func (e *Engine) VolumeSpeed() float32 {
	_, _, vs, _ := e.levels.get()
	return vs
}

// SetSpeed sets time compression. Voices that inherit pitch play faster by s.
func (e *Engine) SetSpeed(s float32) {
	e.levels.setSpeed(s)
	e.pool.reproject()
}

func (e *Engine) Speed() float32 {
	_, _, _, s := e.levels.get()
	return s
}

func (e *Engine) SetAirAbsorption(factor float32) {
	e.pool.mu.Lock()
	defer e.pool.mu.Unlock()

	e.pool.each(func(_ Handle, v Voice) {
		e.be.SetAirAbsorption(v.Source(), factor)
	})
}

// UpdateListener moves the listener. dir is the facing angle in radians in
// the XY plane; Z points up.
func (e *Engine) UpdateListener(pos, vel backend.Vec3, dir float64) {
	s, c := math.Sincos(dir)

	e.be.SetListener(backend.Listener{
		Position: pos,
		Velocity: vel,
		At:       backend.Vec3{X: float32(c), Y: float32(s)},
		Up:       backend.Vec3{Z: 1},
	})
}

// PauseAll pauses every voice.
func (e *Engine) PauseAll() {
	e.pool.mu.Lock()
	defer e.pool.mu.Unlock()

	e.pool.each(func(_ Handle, v Voice) { v.Pause() })
}

// ResumeAll plays every paused voice.
func (e *Engine) ResumeAll() {
	e.pool.mu.Lock()
	defer e.pool.mu.Unlock()

	e.pool.each(func(_ Handle, v Voice) {
		if v.State() == backend.StatePaused {
			v.Play()
		}
	})
}

// StopAll removes every in-game voice; interface and music voices stay.
func (e *Engine) StopAll() {
	e.pool.mu.Lock()
	defer e.pool.mu.Unlock()

	var doomed []Handle
	e.pool.each(func(h Handle, v Voice) {
		if v.common().inGame {
			doomed = append(doomed, h)
		}
	})

	for _, h := range doomed {
		e.pool.remove(h)
	}
}
