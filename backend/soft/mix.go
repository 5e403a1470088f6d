// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"math"
	"slices"

	"github.com/ik5/audvox/backend"
	"github.com/ik5/audvox/utils"
)

// Read renders len(dst)/Channels() frames of every playing source into dst.
// It returns the number of float32 values written.
func (m *Mixer) Read(dst []float32) int {
	n := len(dst) - len(dst)%m.channels
	dst = dst[:n]
	clear(dst)

	var stopped []backend.SourceID

	m.mu.Lock()
	for id, s := range m.sources {
		if s.state != backend.StatePlaying {
			continue
		}

		if m.mixSource(s, dst) {
			stopped = append(stopped, id)
		}
	}
	fn := m.onState
	m.mu.Unlock()

	slices.Sort(stopped)
	m.notify(fn, stopped)

	return n
}

// Advance renders and discards frames, moving every playing source forward.
func (m *Mixer) Advance(frames int) {
	if frames <= 0 {
		return
	}

	m.Read(make([]float32, frames*m.channels))
}

// mixSource adds s into dst and reports whether it stopped on its own.
func (m *Mixer) mixSource(s *source, dst []float32) bool {
	att, pan := m.spatialize(s)
	panL, panR := float32(1), float32(1)
	if s.spatial {
		panL, panR = utils.PanGains(pan)
	}

	gain := s.gain

	for f := 0; f < len(dst)/m.channels; f++ {
		b := m.current(s)
		if b == nil {
			s.stop()
			return true
		}

		step := float64(s.pitch) * float64(b.rate) / float64(m.sampleRate)

		idx := int(s.pos)
		frac := float32(s.pos - float64(idx))

		out := dst[f*m.channels : (f+1)*m.channels]

		switch {
		case b.channels == 1:
			v := interp(b, idx, frac, 0) * gain
			if s.spatial {
				v *= att
			}

			if m.channels == 1 {
				out[0] += v
			} else {
				out[0] += v * panL
				out[1] += v * panR
			}

		case m.channels == 2:
			out[0] += interp(b, idx, frac, 0) * gain
			out[1] += interp(b, idx, frac, 1) * gain

		default:
			// stereo into a mono device
			out[0] += (interp(b, idx, frac, 0) + interp(b, idx, frac, 1)) / 2 * gain
		}

		s.pos += step
	}

	// settle on the next buffer so processed counts are current
	if m.current(s) == nil {
		s.stop()
		return true
	}

	return false
}

// current returns the buffer under the play cursor, stepping over finished
// buffers (and wrapping when looping). nil means the source ran out.
func (m *Mixer) current(s *source) *buffer {
	// every buffer may be visited once per call, which bounds a loop over empty buffers
	for range len(s.queue) + 1 {
		if s.cur >= len(s.queue) {
			if !s.looping || len(s.queue) == 0 {
				return nil
			}
			s.cur = 0
		}

		b := m.buffers[s.queue[s.cur]]
		n := 0
		if b != nil {
			n = b.frames()
		}

		if s.pos < float64(n) {
			return b
		}

		s.pos -= float64(n)
		if s.pos < 0 || n == 0 {
			s.pos = 0
		}

		if s.static {
			if !s.looping {
				return nil
			}
			continue
		}

		s.cur++
	}

	return nil
}

func interp(b *buffer, idx int, frac float32, ch int) float32 {
	return utils.CubicInterpolate(b.at(idx-1, ch), b.at(idx, ch), b.at(idx+1, ch), b.at(idx+2, ch), frac)
}

// spatialize returns the distance gain and the left/right pan in [-1, 1]
// using the inverse distance clamped model.
func (m *Mixer) spatialize(s *source) (float32, float32) {
	if !s.spatial {
		return 1, 0
	}

	l := m.listener

	p := s.position
	if !s.relative {
		p = sub(p, l.Position)
	}

	dist := length(p)

	d := utils.Clamp(dist, s.ref, s.max)

	att := float32(1)
	if s.ref > 0 {
		att = s.ref / (s.ref + s.rolloff*(d-s.ref))
	}

	if s.air > 0 && d > s.ref {
		// 0.05 dB per meter and unit of absorption factor
		db := -0.05 * float64(s.air) * float64(d-s.ref) / float64(m.unitsPerMeter)
		att *= float32(utils.DecibelsToLinear(db))
	}

	var pan float32
	if dist > 0 {
		right := normalize(cross(l.At, l.Up))
		pan = utils.Clamp(dot(p, right)/dist, -1, 1)
	}

	return att, pan
}

func sub(a, b backend.Vec3) backend.Vec3 {
	return backend.Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func dot(a, b backend.Vec3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func cross(a, b backend.Vec3) backend.Vec3 {
	return backend.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func length(v backend.Vec3) float32 {
	return float32(math.Sqrt(float64(dot(v, v))))
}

func normalize(v backend.Vec3) backend.Vec3 {
	l := length(v)
	if l == 0 {
		return v
	}

	return backend.Vec3{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}
