// SPDX-License-Identifier: EPL-2.0

package audvox

import (
	"log/slog"
	"sync"

	"github.com/ik5/audvox/backend"
	"github.com/ik5/audvox/buffer"
	"github.com/ik5/audvox/internal/arena"
)

// Spatial is the attenuation set up when a voice becomes in-game.
type Spatial struct {
	ReferenceDistance float32
	MaxDistance       float32
	Rolloff           float32
}

func DefaultSpatial() Spatial {
	return Spatial{
		ReferenceDistance: 500,
		MaxDistance:       25000,
		Rolloff:           1,
	}
}

// VoicePool owns every live voice. Admission is checked on insert against a
// per-type threshold; a full pool refuses, it never evicts.
//
// Every per-voice method accepts any Handle. Stale and sentinel handles are
// ignored and getters return the zero value.
type VoicePool struct {
	mu     sync.Mutex
	voices *arena.Arena[Voice]

	capacity int
	reserved int

	be      backend.Backend
	levels  *levels
	spatial Spatial
	stream  StreamConfig
	loader  *buffer.Loader
	logger  *slog.Logger
}

// NewVoicePool creates a pool holding at most capacity voices, of which
// reserved slots can only be taken by streams.
func NewVoicePool(be backend.Backend, capacity, reserved int) *VoicePool {
	return &VoicePool{
		voices:   arena.New[Voice](capacity),
		capacity: capacity,
		reserved: min(max(reserved, 0), max(capacity-1, 0)),
		be:       be,
		levels:   newLevels(),
		spatial:  DefaultSpatial(),
		stream:   DefaultStreamConfig(),
		logger:   slog.Default(),
	}
}

func (p *VoicePool) Capacity() int { return p.capacity }

// Threshold is the pool size at which voices of type t are refused.
func (p *VoicePool) Threshold(t AudioType) int {
	if t == TypeStream {
		return p.capacity - 1
	}

	return p.capacity - p.reserved
}

// TryInsert admits v or closes it and returns the sentinel.
func (p *VoicePool) TryInsert(v Voice, t AudioType) Handle {
	m := p.levels.snapshot()

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.insert(v, t, m)
}

// insert is TryInsert with p.mu held.
func (p *VoicePool) insert(v Voice, t AudioType, m mix) Handle {
	if p.voices.Len() >= p.Threshold(t) {
		v.Close()
		p.logger.Debug("voice refused", "kind", v.Kind(), "voices", p.voices.Len())

		return Handle{}
	}

	c := v.common()
	if c.inGame {
		c.spatial(p.spatial, true)
	}
	c.applyGain(m)
	c.applyPitch(m)

	return Handle{key: p.voices.Insert(v)}
}

func (p *VoicePool) get(h Handle) Voice {
	v, _ := p.voices.Get(h.key)
	return v
}

// with runs fn on the voice behind h under the pool lock.
func (p *VoicePool) with(h Handle, fn func(v Voice)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v := p.get(h); v != nil {
		fn(v)
	}
}

func (p *VoicePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.voices.Len()
}

func (p *VoicePool) Contains(h Handle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.voices.Contains(h.key)
}

// Remove closes and forgets the voice. Removing twice is harmless.
func (p *VoicePool) Remove(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.remove(h)
}

func (p *VoicePool) remove(h Handle) {
	if v, ok := p.voices.Remove(h.key); ok {
		v.Close()
	}
}

// Handles returns a snapshot of every live handle.
func (p *VoicePool) Handles() []Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys := p.voices.Keys()
	out := make([]Handle, len(keys))
	for i, k := range keys {
		out[i] = Handle{key: k}
	}

	return out
}

// each visits every voice. p.mu must be held.
func (p *VoicePool) each(fn func(h Handle, v Voice)) {
	p.voices.Each(func(k arena.Key, v Voice) bool {
		fn(Handle{key: k}, v)
		return true
	})
}

// findSource returns the voice playing on src. p.mu must be held.
func (p *VoicePool) findSource(src backend.SourceID) (Handle, Voice) {
	var (
		h     Handle
		found Voice
	)

	p.voices.Each(func(k arena.Key, v Voice) bool {
		if v.Source() == src {
			h, found = Handle{key: k}, v
			return false
		}
		return true
	})

	return h, found
}

// reproject pushes gain and pitch of every voice to the backend.
func (p *VoicePool) reproject() {
	m := p.levels.snapshot()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.each(func(_ Handle, v Voice) {
		c := v.common()
		c.applyGain(m)
		c.applyPitch(m)
	})
}

// closeAll closes every voice and empties the pool.
func (p *VoicePool) closeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, k := range p.voices.Keys() {
		p.remove(Handle{key: k})
	}
}

func (p *VoicePool) Kind(h Handle) Kind {
	k := KindStatic
	p.with(h, func(v Voice) { k = v.Kind() })

	return k
}

func (p *VoicePool) Play(h Handle)   { p.with(h, Voice.Play) }
func (p *VoicePool) Pause(h Handle)  { p.with(h, Voice.Pause) }
func (p *VoicePool) Stop(h Handle)   { p.with(h, Voice.Stop) }
func (p *VoicePool) Rewind(h Handle) { p.with(h, Voice.Rewind) }

func (p *VoicePool) state(h Handle) (backend.State, bool) {
	var (
		st backend.State
		ok bool
	)
	p.with(h, func(v Voice) { st, ok = v.State(), true })

	return st, ok
}

func (p *VoicePool) IsPlaying(h Handle) bool {
	st, ok := p.state(h)
	return ok && st == backend.StatePlaying
}

func (p *VoicePool) IsPaused(h Handle) bool {
	st, ok := p.state(h)
	return ok && st == backend.StatePaused
}

func (p *VoicePool) IsStopped(h Handle) bool {
	st, ok := p.state(h)
	return ok && st == backend.StateStopped
}

func (p *VoicePool) Seek(h Handle, offset float64, unit SeekUnit) {
	p.with(h, func(v Voice) { v.Seek(offset, unit) })
}

func (p *VoicePool) Tell(h Handle, unit SeekUnit) float64 {
	var t float64
	p.with(h, func(v Voice) { t = v.Tell(unit) })

	return t
}

func (p *VoicePool) Duration(h Handle, unit SeekUnit) float64 {
	var d float64
	p.with(h, func(v Voice) { d = v.Duration(unit) })

	return d
}

// SetVolume sets the voice's own volume; the backend gain also carries the
// master volume, the group volume and, in game, the speed modulator.
func (p *VoicePool) SetVolume(h Handle, vol float32) {
	m := p.levels.snapshot()

	p.with(h, func(v Voice) {
		c := v.common()
		c.volume = vol
		c.applyGain(m)
	})
}

// SetVolumeRaw writes vol straight to the backend, ignoring master volume.
func (p *VoicePool) SetVolumeRaw(h Handle, vol float32) {
	p.with(h, func(v Voice) {
		c := v.common()
		c.volume = vol
		c.be.SetGain(c.src, vol)
	})
}

// Volume is the voice's own volume.
func (p *VoicePool) Volume(h Handle) float32 {
	var vol float32
	p.with(h, func(v Voice) { vol = v.common().volume })

	return vol
}

func (p *VoicePool) SetPitch(h Handle, pitch float32) {
	m := p.levels.snapshot()

	p.with(h, func(v Voice) {
		c := v.common()
		c.pitch = pitch
		c.applyPitch(m)
	})
}

// Pitch is the voice's own pitch, before group pitch and time compression.
func (p *VoicePool) Pitch(h Handle) float32 {
	var pitch float32
	p.with(h, func(v Voice) { pitch = v.common().pitch })

	return pitch
}

func (p *VoicePool) SetPosition(h Handle, pos backend.Vec3) {
	p.with(h, func(v Voice) { p.be.SetPosition(v.Source(), pos) })
}

func (p *VoicePool) Position(h Handle) backend.Vec3 {
	var pos backend.Vec3
	p.with(h, func(v Voice) { pos = p.be.Position(v.Source()) })

	return pos
}

func (p *VoicePool) SetVelocity(h Handle, vel backend.Vec3) {
	p.with(h, func(v Voice) { p.be.SetVelocity(v.Source(), vel) })
}

func (p *VoicePool) Velocity(h Handle) backend.Vec3 {
	var vel backend.Vec3
	p.with(h, func(v Voice) { vel = p.be.Velocity(v.Source()) })

	return vel
}

func (p *VoicePool) SetLooping(h Handle, looping bool) {
	p.with(h, func(v Voice) { v.SetLooping(looping) })
}

func (p *VoicePool) IsLooping(h Handle) bool {
	var l bool
	p.with(h, func(v Voice) { l = v.Looping() })

	return l
}

func (p *VoicePool) SetRelative(h Handle, relative bool) {
	p.with(h, func(v Voice) { p.be.SetRelative(v.Source(), relative) })
}

func (p *VoicePool) IsRelative(h Handle) bool {
	var r bool
	p.with(h, func(v Voice) { r = p.be.Relative(v.Source()) })

	return r
}

func (p *VoicePool) SetAttenuation(h Handle, reference, max float32) {
	p.with(h, func(v Voice) { p.be.SetAttenuation(v.Source(), reference, max) })
}

func (p *VoicePool) Attenuation(h Handle) (reference, max float32) {
	p.with(h, func(v Voice) { reference, max = p.be.Attenuation(v.Source()) })

	return reference, max
}

func (p *VoicePool) SetRolloff(h Handle, rolloff float32) {
	p.with(h, func(v Voice) { p.be.SetRolloff(v.Source(), rolloff) })
}

func (p *VoicePool) Rolloff(h Handle) float32 {
	var r float32
	p.with(h, func(v Voice) { r = p.be.Rolloff(v.Source()) })

	return r
}

func (p *VoicePool) SetAirAbsorption(h Handle, factor float32) {
	p.with(h, func(v Voice) { p.be.SetAirAbsorption(v.Source(), factor) })
}

func (p *VoicePool) AirAbsorption(h Handle) float32 {
	var f float32
	p.with(h, func(v Voice) { f = p.be.AirAbsorption(v.Source()) })

	return f
}

// SetInGame makes the voice spatial with the in-game attenuation and puts it
// under the engine's speed volume modulator.
func (p *VoicePool) SetInGame(h Handle) {
	m := p.levels.snapshot()

	p.with(h, func(v Voice) {
		c := v.common()
		c.spatial(p.spatial, true)
		c.applyGain(m)
	})
}

func (p *VoicePool) IsInGame(h Handle) bool {
	var in bool
	p.with(h, func(v Voice) { in = v.common().inGame })

	return in
}

// Group reports the group a voice was started in, if any.
func (p *VoicePool) Group(h Handle) GroupHandle {
	var g GroupHandle
	p.with(h, func(v Voice) { g = v.common().group })

	return g
}

// TryClone starts a fresh voice on the same data. Own volume, pitch, in-game
// flag and looping carry over; group membership does not. Admission applies
// as for any new voice.
func (p *VoicePool) TryClone(h Handle) (Handle, error) {
	m := p.levels.snapshot()

	// a stream reopens its file before the pool is locked
	var track *buffer.Track
	if path, ok := p.streamPath(h); ok {
		t, err := p.loader.Open(path)
		if err != nil {
			return Handle{}, err
		}
		track = t
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	v := p.get(h)
	if v == nil {
		if track != nil {
			_ = track.Close()
		}
		return Handle{}, nil
	}

	nv, err := v.clone(track)
	if err != nil {
		return Handle{}, err
	}

	return p.insert(nv, v.Kind().audioType(), m), nil
}

// streamPath is the resolved path of the stream behind h.
func (p *VoicePool) streamPath(h Handle) (string, bool) {
	var (
		path string
		ok   bool
	)

	p.with(h, func(v Voice) {
		if s, isStream := v.(*streamVoice); isStream {
			path, ok = s.track.Path(), true
		}
	})

	return path, ok
}
