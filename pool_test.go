// SPDX-License-Identifier: EPL-2.0

package audvox

import (
	"testing"

	"github.com/ik5/audvox/backend"
	"github.com/ik5/audvox/config"
)

func TestVoicePool_Thresholds(t *testing.T) {
	t.Parallel()

	p := NewVoicePool(nil, 64, 8)

	if got := p.Threshold(TypeStatic); got != 56 {
		t.Errorf("Threshold(TypeStatic) = %d, want 56", got)
	}

	if got := p.Threshold(TypeStream); got != 63 {
		t.Errorf("Threshold(TypeStream) = %d, want 63", got)
	}
}

func TestVoicePool_AdmissionRefusal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(cfg *config.Config) {
		cfg.Voices.Capacity = 4
		cfg.Voices.ReservedSlots = 2
	})
	buf := f.beep(t)
	pool := f.eng.Voices()

	for i := range 2 {
		h, err := f.eng.PlayBuffer(buf, false)
		if err != nil || !h.Valid() {
			t.Fatalf("static voice %d refused: %v", i, err)
		}
	}

	h, err := f.eng.PlayBuffer(buf, false)
	if err != nil {
		t.Fatalf("PlayBuffer() error = %v", err)
	}
	if h.Valid() {
		t.Fatal("static voice admitted into reserved slots")
	}

	stream, err := f.eng.Open("music/theme", true)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !stream.Valid() {
		t.Fatal("stream refused below its threshold")
	}

	refused, err := f.eng.Open("music/theme", true)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if refused.Valid() {
		t.Fatal("stream admitted past capacity-1")
	}

	if !f.lastTrack().Closed() {
		t.Error("refused stream kept its track open")
	}

	if pool.Len() != 3 {
		t.Errorf("Len() = %d, want 3", pool.Len())
	}

	if f.mixer.Sources() != 3 {
		t.Errorf("backend holds %d sources, want 3", f.mixer.Sources())
	}
}

func TestVoicePool_SentinelDefaults(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	p := f.eng.Voices()

	var h Handle

	p.Play(h)
	p.Pause(h)
	p.Stop(h)
	p.Rewind(h)
	p.Seek(h, 1, SeekSeconds)
	p.SetVolume(h, 0.3)
	p.SetVolumeRaw(h, 0.3)
	p.SetPitch(h, 2)
	p.SetPosition(h, backend.Vec3{X: 1})
	p.SetVelocity(h, backend.Vec3{X: 1})
	p.SetLooping(h, true)
	p.SetRelative(h, true)
	p.SetAttenuation(h, 1, 2)
	p.SetRolloff(h, 3)
	p.SetAirAbsorption(h, 4)
	p.SetInGame(h)
	p.Remove(h)

	if h.Valid() || p.Contains(h) {
		t.Error("sentinel resolves")
	}

	if p.IsPlaying(h) || p.IsPaused(h) || p.IsStopped(h) || p.IsLooping(h) || p.IsRelative(h) || p.IsInGame(h) {
		t.Error("sentinel reports a state")
	}

	if p.Tell(h, SeekSamples) != 0 || p.Duration(h, SeekSeconds) != 0 {
		t.Error("sentinel reports a position")
	}

	if p.Volume(h) != 0 || p.Pitch(h) != 0 || p.Rolloff(h) != 0 || p.AirAbsorption(h) != 0 {
		t.Error("sentinel reports parameters")
	}

	if p.Position(h) != (backend.Vec3{}) || p.Velocity(h) != (backend.Vec3{}) {
		t.Error("sentinel reports vectors")
	}

	if ref, maxDist := p.Attenuation(h); ref != 0 || maxDist != 0 {
		t.Error("sentinel reports attenuation")
	}

	if p.Group(h).Valid() {
		t.Error("sentinel belongs to a group")
	}

	c, err := p.TryClone(h)
	if err != nil || c.Valid() {
		t.Errorf("TryClone(sentinel) = %v, %v", c, err)
	}

	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0", p.Len())
	}
}

func TestVoicePool_StaleHandle(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	p := f.eng.Voices()

	h, err := f.eng.Open("sfx/beep", false)
	if err != nil {
		t.Fatal(err)
	}
	p.Remove(h)

	fresh, err := f.eng.Open("sfx/beep", false)
	if err != nil {
		t.Fatal(err)
	}

	p.SetVolume(h, 0.1)

	if p.Contains(h) {
		t.Error("removed handle resolves")
	}

	if p.Volume(fresh) != 1 {
		t.Errorf("stale handle reached the new voice: volume %v", p.Volume(fresh))
	}

	if hs := p.Handles(); len(hs) != 1 || hs[0] != fresh {
		t.Errorf("Handles() = %v, want [%v]", hs, fresh)
	}
}

func TestVoicePool_Parameters(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	p := f.eng.Voices()

	h, err := f.eng.Open("sfx/beep", false)
	if err != nil {
		t.Fatal(err)
	}
	src := f.source(t, h)

	p.SetPosition(h, backend.Vec3{X: 1, Y: 2, Z: 3})
	p.SetVelocity(h, backend.Vec3{X: -1})
	p.SetRelative(h, true)
	p.SetLooping(h, true)
	p.SetRolloff(h, 0.5)
	p.SetAttenuation(h, 10, 100)
	p.SetPitch(h, 1.25)

	if p.Position(h) != (backend.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("Position() = %+v", p.Position(h))
	}

	if p.Velocity(h) != (backend.Vec3{X: -1}) {
		t.Errorf("Velocity() = %+v", p.Velocity(h))
	}

	if !p.IsRelative(h) || !p.IsLooping(h) {
		t.Error("flags not applied")
	}

	if p.Rolloff(h) != 0.5 {
		t.Errorf("Rolloff() = %v", p.Rolloff(h))
	}

	if ref, maxDist := p.Attenuation(h); ref != 10 || maxDist != 100 {
		t.Errorf("Attenuation() = %v, %v", ref, maxDist)
	}

	if p.Pitch(h) != 1.25 || f.mixer.Pitch(src) != 1.25 {
		t.Errorf("Pitch() = %v, backend %v", p.Pitch(h), f.mixer.Pitch(src))
	}

	if p.Duration(h, SeekSamples) != testBeepFrames || p.Duration(h, SeekSeconds) != 1 {
		t.Errorf("Duration() = %v samples, %v s", p.Duration(h, SeekSamples), p.Duration(h, SeekSeconds))
	}

	p.SetInGame(h)

	if !p.IsInGame(h) || !f.mixer.Spatialize(src) {
		t.Error("SetInGame() did not spatialize")
	}

	if ref, maxDist := p.Attenuation(h); ref != 500 || maxDist != 25000 {
		t.Errorf("in-game attenuation = %v, %v", ref, maxDist)
	}

	if p.Rolloff(h) != 1 {
		t.Errorf("in-game rolloff = %v", p.Rolloff(h))
	}
}

func TestVoicePool_SeekTellStatic(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	p := f.eng.Voices()

	h, err := f.eng.Open("sfx/beep", false)
	if err != nil {
		t.Fatal(err)
	}

	p.Seek(h, 250, SeekSamples)

	if got := p.Tell(h, SeekSamples); got != 250 {
		t.Errorf("Tell() before play = %v, want 250", got)
	}

	p.Play(h)
	f.mixer.Advance(100)

	if got := p.Tell(h, SeekSamples); got != 350 {
		t.Errorf("Tell() = %v, want 350", got)
	}

	if got := p.Tell(h, SeekSeconds); got != 0.35 {
		t.Errorf("Tell(seconds) = %v, want 0.35", got)
	}

	p.Pause(h)
	if !p.IsPaused(h) {
		t.Error("voice not paused")
	}

	p.Rewind(h)
	if p.IsPlaying(h) || p.Tell(h, SeekSamples) != 0 {
		t.Error("Rewind() did not reset the voice")
	}
}

func TestVoicePool_TryClone(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	p := f.eng.Voices()

	h, err := f.eng.Open("sfx/beep", false)
	if err != nil {
		t.Fatal(err)
	}

	p.SetVolume(h, 0.25)
	p.SetPitch(h, 1.5)
	p.SetLooping(h, true)
	p.SetInGame(h)

	c, err := p.TryClone(h)
	if err != nil {
		t.Fatalf("TryClone() error = %v", err)
	}
	if !c.Valid() || c == h {
		t.Fatalf("TryClone() = %v", c)
	}

	if f.source(t, c) == f.source(t, h) {
		t.Error("clone shares the backend source")
	}

	if p.Volume(c) != 0.25 || p.Pitch(c) != 1.5 {
		t.Errorf("clone volume %v pitch %v", p.Volume(c), p.Pitch(c))
	}

	if !p.IsLooping(c) || !p.IsInGame(c) {
		t.Error("clone lost looping or in-game")
	}

	if p.Kind(c) != KindScriptStatic {
		t.Errorf("clone Kind() = %s", p.Kind(c))
	}

	if p.IsPlaying(c) {
		t.Error("clone started playing")
	}
}

func TestVoicePool_TryCloneStream(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	p := f.eng.Voices()

	h, err := f.eng.Open("music/theme", true)
	if err != nil {
		t.Fatal(err)
	}
	first := f.lastTrack()
	p.SetLooping(h, true)

	c, err := p.TryClone(h)
	if err != nil {
		t.Fatalf("TryClone() error = %v", err)
	}

	if f.lastTrack() == first {
		t.Fatal("clone did not reopen the track")
	}

	if p.Kind(c) != KindScriptStream || !p.IsLooping(c) {
		t.Errorf("clone kind %s looping %v", p.Kind(c), p.IsLooping(c))
	}
}
