// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/ik5/audvox/backend"
)

func newMixer(t *testing.T, rate, channels int, opts ...Option) *Mixer {
	t.Helper()

	m, err := New(rate, channels, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return m
}

func constant(frames, channels int, v float32) []float32 {
	data := make([]float32, frames*channels)
	for i := range data {
		data[i] = v
	}
	return data
}

func newBuffer(t *testing.T, m *Mixer, channels int, data []float32) backend.BufferID {
	t.Helper()

	id, err := m.GenBuffer()
	if err != nil {
		t.Fatalf("GenBuffer() error = %v", err)
	}

	if err := m.BufferData(id, channels, m.SampleRate(), data); err != nil {
		t.Fatalf("BufferData() error = %v", err)
	}

	return id
}

type stopRecorder struct {
	mu  sync.Mutex
	ids []backend.SourceID
}

func (r *stopRecorder) record(id backend.SourceID, st backend.State) {
	if st != backend.StateStopped {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.ids = append(r.ids, id)
}

func (r *stopRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.ids)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(0, 2); !errors.Is(err, backend.ErrInvalidSampleRate) {
		t.Errorf("New(0, 2) error = %v, want ErrInvalidSampleRate", err)
	}

	if _, err := New(48000, 6); !errors.Is(err, backend.ErrUnsupportedFormat) {
		t.Errorf("New(48000, 6) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestMixer_StaticPlaysToEnd(t *testing.T) {
	t.Parallel()

	m := newMixer(t, 1000, 1)
	rec := &stopRecorder{}
	m.SetStateCallback(rec.record)

	src, _ := m.GenSource()
	m.SetBuffer(src, newBuffer(t, m, 1, constant(100, 1, 0.5)))
	m.Play(src)

	out := make([]float32, 60)
	m.Read(out)

	if out[0] != 0.5 || out[59] != 0.5 {
		t.Errorf("rendered %v .. %v, want 0.5", out[0], out[59])
	}

	if st := m.State(src); st != backend.StatePlaying {
		t.Fatalf("State() = %v after 60 frames, want playing", st)
	}

	m.Read(out)

	if st := m.State(src); st != backend.StateStopped {
		t.Fatalf("State() = %v after 120 frames, want stopped", st)
	}

	if out[39] != 0.5 || out[40] != 0 {
		t.Errorf("tail = %v, %v; want 0.5 then silence", out[39], out[40])
	}

	if rec.count() != 1 {
		t.Errorf("stop callbacks = %d, want 1", rec.count())
	}
}

func TestMixer_StaticLooping(t *testing.T) {
	t.Parallel()

	m := newMixer(t, 1000, 1)
	src, _ := m.GenSource()
	m.SetBuffer(src, newBuffer(t, m, 1, constant(100, 1, 0.25)))
	m.SetLooping(src, true)
	m.Play(src)

	m.Advance(1050)

	if st := m.State(src); st != backend.StatePlaying {
		t.Fatalf("State() = %v, want playing", st)
	}

	if got := m.Offset(src, backend.OffsetSamples); got != 50 {
		t.Errorf("Offset() = %v, want 50", got)
	}
}

func TestMixer_StopFiresOnce(t *testing.T) {
	t.Parallel()

	m := newMixer(t, 1000, 2)
	rec := &stopRecorder{}
	m.SetStateCallback(rec.record)

	src, _ := m.GenSource()
	m.SetBuffer(src, newBuffer(t, m, 2, constant(100, 2, 0.1)))
	m.Play(src)

	m.Stop(src)
	m.Stop(src)

	if rec.count() != 1 {
		t.Errorf("stop callbacks = %d, want 1", rec.count())
	}

	m.Pause(src)
	if st := m.State(src); st != backend.StateStopped {
		t.Errorf("Pause() on stopped source changed state to %v", st)
	}
}

func TestMixer_PauseResume(t *testing.T) {
	t.Parallel()

	m := newMixer(t, 1000, 1)
	src, _ := m.GenSource()
	m.SetBuffer(src, newBuffer(t, m, 1, constant(100, 1, 1)))
	m.Play(src)
	m.Advance(30)
	m.Pause(src)
	m.Advance(30)

	if got := m.Offset(src, backend.OffsetSamples); got != 30 {
		t.Fatalf("Offset() while paused = %v, want 30", got)
	}

	m.Play(src)
	m.Advance(10)

	if got := m.Offset(src, backend.OffsetSamples); got != 40 {
		t.Errorf("Offset() after resume = %v, want 40", got)
	}
}

func TestMixer_Queue(t *testing.T) {
	t.Parallel()

	m := newMixer(t, 1000, 1)
	src, _ := m.GenSource()

	a := newBuffer(t, m, 1, constant(100, 1, 0.1))
	b := newBuffer(t, m, 1, constant(100, 1, 0.2))
	m.QueueBuffers(src, a, b)
	m.Play(src)

	if got := m.BuffersProcessed(src); got != 0 {
		t.Fatalf("BuffersProcessed() = %d, want 0", got)
	}

	m.Advance(100)

	if got := m.BuffersProcessed(src); got != 1 {
		t.Fatalf("BuffersProcessed() = %d after first buffer, want 1", got)
	}

	got := m.UnqueueBuffers(src, 2)
	if len(got) != 1 || got[0] != a {
		t.Fatalf("UnqueueBuffers() = %v, want [%d]", got, a)
	}

	if err := m.BufferData(a, 1, 1000, constant(100, 1, 0.3)); err != nil {
		t.Fatalf("BufferData() error = %v", err)
	}
	m.QueueBuffers(src, a)

	out := make([]float32, 150)
	m.Read(out)

	if out[0] != 0.2 || out[100] != 0.3 {
		t.Errorf("queue order wrong: %v, %v", out[0], out[100])
	}

	if got := m.Offset(src, backend.OffsetSamples); got != 150 {
		t.Errorf("Offset() = %v, want 150", got)
	}
}

func TestMixer_QueueUnderrunStops(t *testing.T) {
	t.Parallel()

	m := newMixer(t, 1000, 1)
	rec := &stopRecorder{}
	m.SetStateCallback(rec.record)

	src, _ := m.GenSource()
	m.QueueBuffers(src, newBuffer(t, m, 1, constant(10, 1, 1)), newBuffer(t, m, 1, constant(10, 1, 1)))
	m.Play(src)
	m.Advance(25)

	if st := m.State(src); st != backend.StateStopped {
		t.Fatalf("State() = %v, want stopped", st)
	}

	if got := m.BuffersProcessed(src); got != 2 {
		t.Errorf("BuffersProcessed() = %d, want 2", got)
	}

	if rec.count() != 1 {
		t.Errorf("stop callbacks = %d, want 1", rec.count())
	}
}

func TestMixer_PlayEmptyStops(t *testing.T) {
	t.Parallel()

	m := newMixer(t, 1000, 1)
	rec := &stopRecorder{}
	m.SetStateCallback(rec.record)

	src, _ := m.GenSource()
	m.SetBuffer(src, newBuffer(t, m, 1, nil))
	m.SetLooping(src, true)
	m.Play(src)

	if st := m.State(src); st != backend.StateStopped {
		t.Errorf("State() = %v, want stopped", st)
	}

	if rec.count() != 1 {
		t.Errorf("stop callbacks = %d, want 1", rec.count())
	}
}

func TestMixer_PitchAndRate(t *testing.T) {
	t.Parallel()

	m := newMixer(t, 1000, 1)
	src, _ := m.GenSource()

	id, _ := m.GenBuffer()
	// 500 Hz buffer on a 1000 Hz device plays at half speed
	if err := m.BufferData(id, 1, 500, constant(100, 1, 1)); err != nil {
		t.Fatalf("BufferData() error = %v", err)
	}
	m.SetBuffer(src, id)
	m.SetPitch(src, 2)
	m.Play(src)

	m.Advance(50)

	if got := m.Offset(src, backend.OffsetSamples); got != 50 {
		t.Errorf("Offset() = %v, want 50", got)
	}

	if got := m.Offset(src, backend.OffsetSeconds); math.Abs(got-0.1) > 1e-9 {
		t.Errorf("Offset(seconds) = %v, want 0.1", got)
	}
}

func TestMixer_SetOffsetBeforePlay(t *testing.T) {
	t.Parallel()

	m := newMixer(t, 1000, 1)
	src, _ := m.GenSource()
	m.SetBuffer(src, newBuffer(t, m, 1, constant(100, 1, 1)))

	m.SetOffset(src, backend.OffsetSamples, 80)
	m.Play(src)
	m.Advance(10)

	if got := m.Offset(src, backend.OffsetSamples); got != 90 {
		t.Errorf("Offset() = %v, want 90", got)
	}
}

func TestMixer_DistanceAttenuation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pos      backend.Vec3
		ref, max float32
		want     float32
	}{
		{"inside reference", backend.Vec3{X: 0.5}, 1, 100, 1},
		{"twice reference", backend.Vec3{Z: -2}, 1, 100, 0.5},
		{"clamped at max", backend.Vec3{Y: 1000}, 1, 4, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newMixer(t, 1000, 1)
			src, _ := m.GenSource()
			m.SetBuffer(src, newBuffer(t, m, 1, constant(10, 1, 1)))
			m.SetSpatialize(src, true)
			m.SetAttenuation(src, tt.ref, tt.max)
			m.SetPosition(src, tt.pos)
			m.Play(src)

			out := make([]float32, 1)
			m.Read(out)

			if math.Abs(float64(out[0]-tt.want)) > 1e-6 {
				t.Errorf("gain = %v, want %v", out[0], tt.want)
			}
		})
	}
}

func TestMixer_PanRight(t *testing.T) {
	t.Parallel()

	m := newMixer(t, 1000, 2)
	src, _ := m.GenSource()
	m.SetBuffer(src, newBuffer(t, m, 1, constant(10, 1, 1)))
	m.SetSpatialize(src, true)
	m.SetPosition(src, backend.Vec3{X: 0.5})
	m.Play(src)

	out := make([]float32, 2)
	m.Read(out)

	if out[0] > 1e-6 || out[1] < 0.999 {
		t.Errorf("pan right = L %v R %v, want hard right", out[0], out[1])
	}
}

func TestMixer_StereoToMonoDevice(t *testing.T) {
	t.Parallel()

	m := newMixer(t, 1000, 1)
	src, _ := m.GenSource()
	m.SetBuffer(src, newBuffer(t, m, 2, []float32{1, 0, 1, 0, 1, 0}))
	m.SetGain(src, 0.5)
	m.Play(src)

	out := make([]float32, 1)
	m.Read(out)

	if out[0] != 0.25 {
		t.Errorf("downmix = %v, want 0.25", out[0])
	}
}

func TestMixer_MaxSources(t *testing.T) {
	t.Parallel()

	m := newMixer(t, 1000, 1, WithMaxSources(2))

	for range 2 {
		if _, err := m.GenSource(); err != nil {
			t.Fatalf("GenSource() error = %v", err)
		}
	}

	if _, err := m.GenSource(); !errors.Is(err, backend.ErrOutOfSources) {
		t.Errorf("GenSource() error = %v, want ErrOutOfSources", err)
	}
}

func TestMixer_BufferDataValidation(t *testing.T) {
	t.Parallel()

	m := newMixer(t, 1000, 2)
	id, _ := m.GenBuffer()

	if err := m.BufferData(id, 3, 1000, nil); !errors.Is(err, backend.ErrUnsupportedFormat) {
		t.Errorf("BufferData(3ch) error = %v, want ErrUnsupportedFormat", err)
	}

	if err := m.BufferData(id+100, 1, 1000, nil); !errors.Is(err, backend.ErrUnknownBuffer) {
		t.Errorf("BufferData(unknown) error = %v, want ErrUnknownBuffer", err)
	}
}

func TestReader_Float32LE(t *testing.T) {
	t.Parallel()

	m := newMixer(t, 1000, 2)
	src, _ := m.GenSource()
	m.SetBuffer(src, newBuffer(t, m, 2, constant(10, 2, 0.75)))
	m.Play(src)

	p := make([]byte, 4*2*3+3)
	n, err := m.Reader().Read(p)
	if err != nil || n != 24 {
		t.Fatalf("Read() = %d, %v; want 24, nil", n, err)
	}

	if v := math.Float32frombits(binary.LittleEndian.Uint32(p[4:])); v != 0.75 {
		t.Errorf("decoded sample = %v, want 0.75", v)
	}
}
