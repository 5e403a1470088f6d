// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"encoding/binary"
	"io"
	"math"
)

type reader struct {
	m   *Mixer
	buf []float32
}

// Reader streams the mix as little-endian float32 bytes, the layout
// oto.FormatFloat32LE expects. It never returns io.EOF.
func (m *Mixer) Reader() io.Reader {
	return &reader{m: m}
}

func (r *reader) Read(p []byte) (int, error) {
	frameBytes := 4 * r.m.channels

	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}

	n := frames * r.m.channels
	if cap(r.buf) < n {
		r.buf = make([]float32, n)
	}
	r.buf = r.buf[:n]

	r.m.Read(r.buf)

	for i, v := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}

	return n * 4, nil
}
