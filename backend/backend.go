// SPDX-License-Identifier: EPL-2.0

// Package backend describes the playback device the engine drives: sources
// that play buffers or buffer queues, their spatial parameters and a listener.
// The model follows OpenAL so any OpenAL-like device can sit behind it.
package backend

type (
	SourceID uint32
	BufferID uint32
)

type State int

const (
	StateInitial State = iota
	StatePlaying
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// OffsetUnit selects how playback offsets are expressed.
type OffsetUnit int

// OffsetSamples counts sample frames at the rate of the source's buffer.
const (
	OffsetSeconds OffsetUnit = iota
	OffsetSamples
)

type Vec3 struct {
	X, Y, Z float32
}

type Backend interface {
	GenSource() (SourceID, error)
	DeleteSource(id SourceID)

	GenBuffer() (BufferID, error)
	DeleteBuffer(id BufferID)
	// BufferData replaces the content of a buffer with interleaved PCM.
	// channels must be 1 or 2.
	BufferData(id BufferID, channels, sampleRate int, samples []float32) error

	// SetBuffer attaches a single static buffer; 0 detaches.
	SetBuffer(src SourceID, buf BufferID)
	QueueBuffers(src SourceID, bufs ...BufferID)
	// UnqueueBuffers removes up to n processed buffers from the head of the queue.
	UnqueueBuffers(src SourceID, n int) []BufferID
	BuffersProcessed(src SourceID) int
	BuffersQueued(src SourceID) int

	Play(src SourceID)
	Pause(src SourceID)
	Stop(src SourceID)
	Rewind(src SourceID)
	State(src SourceID) State

	SetGain(src SourceID, gain float32)
	Gain(src SourceID) float32
	SetPitch(src SourceID, pitch float32)
	Pitch(src SourceID) float32
	SetPosition(src SourceID, pos Vec3)
	Position(src SourceID) Vec3
	SetVelocity(src SourceID, vel Vec3)
	Velocity(src SourceID) Vec3
	SetLooping(src SourceID, looping bool)
	Looping(src SourceID) bool
	SetRelative(src SourceID, relative bool)
	Relative(src SourceID) bool
	SetAttenuation(src SourceID, reference, max float32)
	Attenuation(src SourceID) (reference, max float32)
	SetRolloff(src SourceID, rolloff float32)
	Rolloff(src SourceID) float32
	SetAirAbsorption(src SourceID, factor float32)
	AirAbsorption(src SourceID) float32
	SetSpatialize(src SourceID, on bool)
	Spatialize(src SourceID) bool

	SetOffset(src SourceID, unit OffsetUnit, v float64)
	Offset(src SourceID, unit OffsetUnit) float64

	SetListener(l Listener)
	Listener() Listener
}

// Listener is the point of view the spatial parameters are computed from.
type Listener struct {
	Position Vec3
	Velocity Vec3
	At       Vec3
	Up       Vec3
}

// DefaultListener sits at the origin looking down -Z.
func DefaultListener() Listener {
	return Listener{
		At: Vec3{Z: -1},
		Up: Vec3{Y: 1},
	}
}

// Notifier is implemented by backends that report source state changes.
// The callback may run on any goroutine and must not call back into the backend.
type Notifier interface {
	SetStateCallback(fn func(src SourceID, state State))
}
