// SPDX-License-Identifier: EPL-2.0

package audvox

import (
	"github.com/ik5/audvox/backend"
	"github.com/ik5/audvox/buffer"
)

// Voice is one playable instance bound to a backend source.
//
// Voices are owned by a VoicePool; callers address them through Handles.
type Voice interface {
	Kind() Kind
	Source() backend.SourceID

	Play()
	Pause()
	Stop()
	Rewind()
	State() backend.State

	Seek(offset float64, unit SeekUnit)
	Tell(unit SeekUnit) float64
	Duration(unit SeekUnit) float64

	SetLooping(looping bool)
	Looping() bool

	// Close releases the backend source. The voice is unusable afterwards.
	Close()

	common() *voice
	// clone creates an unadmitted copy. Streams decode track, opened by the
	// caller for the same path; buffer voices ignore it.
	clone(track *buffer.Track) (Voice, error)
}

// voice is the state every kind shares.
type voice struct {
	be   backend.Backend
	src  backend.SourceID
	kind Kind

	volume      float32
	groupVolume float32
	pitch       float32
	// nil never applies group pitch or time compression
	inheritPitch *float32

	group  GroupHandle
	inGame bool
	stereo bool
}

func newVoice(be backend.Backend, kind Kind, stereo bool) (voice, error) {
	src, err := be.GenSource()
	if err != nil {
		return voice{}, err
	}

	return voice{
		be:          be,
		src:         src,
		kind:        kind,
		volume:      1,
		groupVolume: 1,
		pitch:       1,
		stereo:      stereo,
	}, nil
}

func (v *voice) Kind() Kind               { return v.kind }
func (v *voice) Source() backend.SourceID { return v.src }
func (v *voice) common() *voice           { return v }

func (v *voice) gain(m mix) float32 {
	att := float32(1)
	if v.inGame {
		att = m.volumeSpeed
	}

	return att * m.master * v.volume * v.groupVolume
}

func (v *voice) effectivePitch(m mix) float32 {
	if v.inheritPitch == nil {
		return v.pitch
	}

	return v.pitch * *v.inheritPitch * m.speed
}

func (v *voice) applyGain(m mix) {
	v.be.SetGain(v.src, v.gain(m))
}

func (v *voice) applyPitch(m mix) {
	v.be.SetPitch(v.src, v.effectivePitch(m))
}

func (v *voice) spatial(s Spatial, on bool) {
	v.inGame = on
	v.be.SetSpatialize(v.src, on)
	if on {
		v.be.SetAttenuation(v.src, s.ReferenceDistance, s.MaxDistance)
		v.be.SetRolloff(v.src, s.Rolloff)
	}
}

// defaultInherit is the pitch inheritance of a voice outside any group: only
// in-game voices follow time compression.
func defaultInherit(inGame bool) *float32 {
	if !inGame {
		return nil
	}

	one := float32(1)
	return &one
}

// copyFrom takes the settings a clone inherits. Group membership is not one
// of them, so a group member's clone gets the default inheritance.
func (v *voice) copyFrom(o *voice) {
	v.volume = o.volume
	v.pitch = o.pitch
	v.inGame = o.inGame

	switch {
	case o.group.Valid():
		v.inheritPitch = defaultInherit(o.inGame)
	case o.inheritPitch != nil:
		p := *o.inheritPitch
		v.inheritPitch = &p
	}
}

// staticVoice plays one decoded buffer.
type staticVoice struct {
	voice

	buf *buffer.Buffer
}

func newStaticVoice(be backend.Backend, buf *buffer.Buffer, kind Kind) (*staticVoice, error) {
	base, err := newVoice(be, kind, buf.Stereo())
	if err != nil {
		return nil, err
	}

	be.SetBuffer(base.src, buf.ID())

	return &staticVoice{voice: base, buf: buf}, nil
}

func (v *staticVoice) Play()                  { v.be.Play(v.src) }
func (v *staticVoice) Pause()                 { v.be.Pause(v.src) }
func (v *staticVoice) Stop()                  { v.be.Stop(v.src) }
func (v *staticVoice) Rewind()                { v.be.Rewind(v.src) }
func (v *staticVoice) State() backend.State   { return v.be.State(v.src) }
func (v *staticVoice) SetLooping(l bool)      { v.be.SetLooping(v.src, l) }
func (v *staticVoice) Looping() bool          { return v.be.Looping(v.src) }
func (v *staticVoice) Close()                 { v.be.DeleteSource(v.src) }
func (v *staticVoice) Buffer() *buffer.Buffer { return v.buf }

func (v *staticVoice) Seek(offset float64, unit SeekUnit) {
	v.be.SetOffset(v.src, unit.offsetUnit(), offset)
}

func (v *staticVoice) Tell(unit SeekUnit) float64 {
	return v.be.Offset(v.src, unit.offsetUnit())
}

func (v *staticVoice) Duration(unit SeekUnit) float64 {
	if unit == SeekSamples {
		return float64(v.buf.Frames())
	}

	return float64(v.buf.Frames()) / float64(v.buf.SampleRate())
}

func (v *staticVoice) clone(_ *buffer.Track) (Voice, error) {
	nv, err := newStaticVoice(v.be, v.buf, v.kind)
	if err != nil {
		return nil, err
	}

	nv.copyFrom(&v.voice)
	nv.SetLooping(v.Looping())

	return nv, nil
}
