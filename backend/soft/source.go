// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"math"

	"github.com/ik5/audvox/backend"
)

type buffer struct {
	channels int
	rate     int
	data     []float32
}

func (b *buffer) frames() int {
	return len(b.data) / b.channels
}

// at returns channel ch of frame i, clamping i to the buffer.
func (b *buffer) at(i, ch int) float32 {
	n := b.frames()
	if i < 0 {
		i = 0
	} else if i >= n {
		i = n - 1
	}

	return b.data[i*b.channels+ch]
}

type source struct {
	state backend.State

	static bool
	queue  []backend.BufferID
	cur    int     // index in queue of the playing buffer
	pos    float64 // fractional frame within queue[cur]
	seeked bool    // offset set while not playing, honoured by the next Play

	gain     float32
	pitch    float32
	position backend.Vec3
	velocity backend.Vec3
	looping  bool
	relative bool
	spatial  bool
	ref      float32
	max      float32
	rolloff  float32
	air      float32
}

func newSource() *source {
	return &source{
		state:   backend.StateInitial,
		gain:    1,
		pitch:   1,
		ref:     1,
		max:     math.MaxFloat32,
		rolloff: 1,
	}
}

func (s *source) processed() int {
	if s.static {
		return 0
	}
	return min(s.cur, len(s.queue))
}

func (s *source) stop() {
	s.state = backend.StateStopped
	s.seeked = false
	s.pos = 0
	if s.static {
		s.cur = 0
		return
	}
	s.cur = len(s.queue)
}

func (m *Mixer) SetGain(id backend.SourceID, gain float32) {
	m.with(id, func(s *source) { s.gain = max(gain, 0) })
}

func (m *Mixer) Gain(id backend.SourceID) float32 {
	var v float32
	m.with(id, func(s *source) { v = s.gain })
	return v
}

func (m *Mixer) SetPitch(id backend.SourceID, pitch float32) {
	m.with(id, func(s *source) {
		if pitch > 0 {
			s.pitch = pitch
		}
	})
}

func (m *Mixer) Pitch(id backend.SourceID) float32 {
	var v float32
	m.with(id, func(s *source) { v = s.pitch })
	return v
}

func (m *Mixer) SetPosition(id backend.SourceID, pos backend.Vec3) {
	m.with(id, func(s *source) { s.position = pos })
}

func (m *Mixer) Position(id backend.SourceID) backend.Vec3 {
	var v backend.Vec3
	m.with(id, func(s *source) { v = s.position })
	return v
}

func (m *Mixer) SetVelocity(id backend.SourceID, vel backend.Vec3) {
	m.with(id, func(s *source) { s.velocity = vel })
}

func (m *Mixer) Velocity(id backend.SourceID) backend.Vec3 {
	var v backend.Vec3
	m.with(id, func(s *source) { v = s.velocity })
	return v
}

func (m *Mixer) SetLooping(id backend.SourceID, looping bool) {
	m.with(id, func(s *source) { s.looping = looping })
}

func (m *Mixer) Looping(id backend.SourceID) bool {
	var v bool
	m.with(id, func(s *source) { v = s.looping })
	return v
}

func (m *Mixer) SetRelative(id backend.SourceID, relative bool) {
	m.with(id, func(s *source) { s.relative = relative })
}

func (m *Mixer) Relative(id backend.SourceID) bool {
	var v bool
	m.with(id, func(s *source) { v = s.relative })
	return v
}

func (m *Mixer) SetAttenuation(id backend.SourceID, reference, maxDistance float32) {
	m.with(id, func(s *source) {
		s.ref = max(reference, 0)
		s.max = max(maxDistance, s.ref)
	})
}

func (m *Mixer) Attenuation(id backend.SourceID) (reference, maxDistance float32) {
	m.with(id, func(s *source) { reference, maxDistance = s.ref, s.max })
	return reference, maxDistance
}

func (m *Mixer) SetRolloff(id backend.SourceID, rolloff float32) {
	m.with(id, func(s *source) { s.rolloff = max(rolloff, 0) })
}

func (m *Mixer) Rolloff(id backend.SourceID) float32 {
	var v float32
	m.with(id, func(s *source) { v = s.rolloff })
	return v
}

func (m *Mixer) SetAirAbsorption(id backend.SourceID, factor float32) {
	m.with(id, func(s *source) { s.air = max(factor, 0) })
}

func (m *Mixer) AirAbsorption(id backend.SourceID) float32 {
	var v float32
	m.with(id, func(s *source) { v = s.air })
	return v
}

func (m *Mixer) SetSpatialize(id backend.SourceID, on bool) {
	m.with(id, func(s *source) { s.spatial = on })
}

func (m *Mixer) Spatialize(id backend.SourceID) bool {
	var v bool
	m.with(id, func(s *source) { v = s.spatial })
	return v
}
