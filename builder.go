// SPDX-License-Identifier: EPL-2.0

package audvox

import (
	"fmt"

	"github.com/ik5/audvox/buffer"
)

// VoiceBuilder configures a voice before it is admitted to a pool.
type VoiceBuilder struct {
	buf   *buffer.Buffer
	track *buffer.Track

	kind         Kind
	inGame       bool
	looping      bool
	volume       float32
	pitch        float32
	speedAffects *bool

	group       GroupHandle
	groupVolume float32
	groupPitch  *float32
}

// NewVoiceBuilder builds a KindStatic voice playing buf.
func NewVoiceBuilder(buf *buffer.Buffer) *VoiceBuilder {
	return &VoiceBuilder{
		buf:         buf,
		kind:        KindStatic,
		volume:      1,
		pitch:       1,
		groupVolume: 1,
	}
}

// NewStreamBuilder builds a KindScriptStream voice decoding track. The voice
// takes ownership of track, also when it is refused.
func NewStreamBuilder(track *buffer.Track) *VoiceBuilder {
	return &VoiceBuilder{
		track:       track,
		kind:        KindScriptStream,
		volume:      1,
		pitch:       1,
		groupVolume: 1,
	}
}

func (b *VoiceBuilder) Kind(k Kind) *VoiceBuilder {
	b.kind = k
	return b
}

func (b *VoiceBuilder) InGame(inGame bool) *VoiceBuilder {
	b.inGame = inGame
	return b
}

func (b *VoiceBuilder) Looping(looping bool) *VoiceBuilder {
	b.looping = looping
	return b
}

func (b *VoiceBuilder) Volume(v float32) *VoiceBuilder {
	b.volume = v
	return b
}

func (b *VoiceBuilder) Pitch(p float32) *VoiceBuilder {
	b.pitch = p
	return b
}

// SpeedAffects decides whether time compression bends the pitch. It defaults
// to the in-game flag.
func (b *VoiceBuilder) SpeedAffects(on bool) *VoiceBuilder {
	b.speedAffects = &on
	return b
}

// inGroup ties the voice to a group's volume and pitch. pitch nil keeps the
// voice out of time compression.
func (b *VoiceBuilder) inGroup(g GroupHandle, volume float32, pitch *float32) *VoiceBuilder {
	b.group = g
	b.groupVolume = volume
	b.groupPitch = pitch
	return b
}

func (b *VoiceBuilder) voice(p *VoicePool) (Voice, error) {
	var (
		v   Voice
		err error
	)

	switch {
	case b.track != nil:
		if b.kind != KindScriptStream {
			_ = b.track.Close()
			return nil, fmt.Errorf("%w: stream built as %s", ErrKindMismatch, b.kind)
		}
		v, err = newStreamVoice(p.be, b.track, p.stream, p.logger)
		if err != nil {
			_ = b.track.Close()
		}

	case b.buf != nil:
		if b.kind == KindScriptStream {
			return nil, fmt.Errorf("%w: buffer built as %s", ErrKindMismatch, b.kind)
		}
		v, err = newStaticVoice(p.be, b.buf, b.kind)

	default:
		return nil, fmt.Errorf("%w: nothing to play", ErrKindMismatch)
	}

	if err != nil {
		return nil, err
	}

	c := v.common()
	c.volume = b.volume
	c.pitch = b.pitch
	c.inGame = b.inGame
	c.group = b.group
	c.groupVolume = b.groupVolume

	switch {
	case b.group.Valid():
		c.inheritPitch = b.groupPitch
	case b.speedAffects != nil:
		c.inheritPitch = defaultInherit(*b.speedAffects)
	default:
		c.inheritPitch = defaultInherit(b.inGame)
	}

	v.SetLooping(b.looping)

	return v, nil
}

// Build creates the voice and offers it to p. A refused voice yields the
// sentinel Handle and no error; errors come from the backend or a kind
// that does not fit the data.
func (b *VoiceBuilder) Build(p *VoicePool) (Handle, error) {
	v, err := b.voice(p)
	if err != nil {
		return Handle{}, err
	}

	return p.TryInsert(v, b.kind.audioType()), nil
}
