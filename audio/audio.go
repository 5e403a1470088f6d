// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"path"
	"sort"
	"strings"
	"sync"
)

type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}

// Seeker is implemented by sources that can reposition their decoder.
// frame counts interleaved frames (one sample per channel) from the start of the stream.
type Seeker interface {
	SeekFrame(frame int64) error
}

// Tagger exposes container tags (Vorbis comments, FLAC VORBIS_COMMENT, ...).
// Keys are upper-cased.
type Tagger interface {
	Tags() map[string]string
}

// Lengther reports the total length of the stream in frames when the container knows it.
type Lengther interface {
	Frames() int64
}

// Padder reports codec delay (pre-roll) and trailing padding, both in frames,
// that must be trimmed from the decoded stream.
type Padder interface {
	Padding() (preRoll, trailing int)
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry for decoders by file extension (e.g., "wav", "mp3", "ogg").
// Extensions are stored lower-case and without the leading dot.
type Registry struct {
	codecs map[string]Decoder

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.Mutex{},
	}
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func (r *Registry) Register(ext string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[normalizeExt(ext)] = d
}

func (r *Registry) Get(ext string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[normalizeExt(ext)]
	return d, ok
}

// Lookup picks the decoder for a file name by its extension.
func (r *Registry) Lookup(name string) (Decoder, bool) {
	ext := path.Ext(name)
	if ext == "" {
		return nil, false
	}

	return r.Get(ext)
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	exts := make([]string, 0, len(r.codecs))
	for ext := range r.codecs {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	return exts
}

// ReadAll drains src and returns every interleaved sample it produced.
func ReadAll(src Source) ([]float32, error) {
	size := src.BufSize()
	if size <= 0 {
		size = 4096
	}
	// keep reads frame aligned
	if ch := src.Channels(); ch > 0 {
		size -= size % ch
		if size == 0 {
			size = ch
		}
	}

	var out []float32
	buf := make([]float32, size)

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}

		if err == io.EOF {
			return out, nil
		}

		if err != nil {
			return out, err
		}

		if n == 0 {
			// decoders that report end of data as (0, nil)
			return out, nil
		}
	}
}
