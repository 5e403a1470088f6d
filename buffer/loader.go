// SPDX-License-Identifier: EPL-2.0

package buffer

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"runtime"

	"github.com/ik5/audvox/audio"
	"github.com/ik5/audvox/backend"
	"github.com/ik5/audvox/replaygain"
	"github.com/ik5/audvox/vfs"
)

// DefaultExtensions is the search order for paths given without an extension.
var DefaultExtensions = []string{"ogg", "flac", "wav", "mp3", "aiff"}

type LoaderOption func(*Loader)

// WithExtensions replaces the search order.
func WithExtensions(exts ...string) LoaderOption {
	return func(l *Loader) {
		if len(exts) > 0 {
			l.exts = exts
		}
	}
}

func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader is the decode pipeline from a path to a Buffer or a Track.
type Loader struct {
	fsys     vfs.FS
	registry *audio.Registry
	backend  backend.Backend
	exts     []string
	logger   *slog.Logger
}

func NewLoader(fsys vfs.FS, registry *audio.Registry, be backend.Backend, opts ...LoaderOption) *Loader {
	l := &Loader{
		fsys:     fsys,
		registry: registry,
		backend:  be,
		exts:     DefaultExtensions,
		logger:   slog.Default(),
	}

	for _, o := range opts {
		o(l)
	}

	return l
}

// Resolve returns the path that will actually be opened for name.
func (l *Loader) Resolve(name string) (string, error) {
	resolved, err := vfs.Resolve(l.fsys, name, l.exts)
	if err != nil {
		if errors.Is(err, vfs.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return "", err
	}

	if _, ok := l.registry.Lookup(resolved); !ok {
		return "", fmt.Errorf("%w: no decoder for %q", ErrDecode, path.Ext(resolved))
	}

	return resolved, nil
}

// open decodes an already resolved path. The caller owns both results.
func (l *Loader) open(resolved string) (audio.Source, vfs.File, error) {
	dec, ok := l.registry.Lookup(resolved)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no decoder for %q", ErrDecode, path.Ext(resolved))
	}

	f, err := l.fsys.Open(resolved)
	if err != nil {
		if errors.Is(err, vfs.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrFileNotFound, resolved)
		}
		return nil, nil, err
	}

	src, err := dec.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrDecode, resolved, err)
	}

	if ch := src.Channels(); ch != 1 && ch != 2 {
		_ = src.Close()
		_ = f.Close()
		return nil, nil, fmt.Errorf("%w: %s has %d channels", ErrUnsupportedChannelLayout, resolved, ch)
	}

	return src, f, nil
}

func (l *Loader) replayGain(resolved string, src audio.Source) replaygain.Params {
	t, ok := src.(audio.Tagger)
	if !ok {
		return replaygain.Params{}
	}

	p, err := replaygain.FromTags(t.Tags())
	if err != nil {
		l.logger.Warn("ignoring malformed replaygain tag", "path", resolved, "error", err)
	}

	return p
}

// Load decodes name completely and uploads it to the backend. It bypasses
// any cache: each call produces a new Buffer.
func (l *Loader) Load(name string) (*Buffer, error) {
	resolved, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}

	return l.load(resolved)
}

func (l *Loader) load(resolved string) (*Buffer, error) {
	src, f, err := l.open(resolved)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	defer src.Close()

	samples, err := audio.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, resolved, err)
	}

	ch := src.Channels()
	samples = trimPadding(src, samples, ch)

	gain := l.replayGain(resolved, src)
	replaygain.Apply(samples, gain)

	id, err := l.backend.GenBuffer()
	if err != nil {
		return nil, err
	}

	if err := l.backend.BufferData(id, ch, src.SampleRate(), samples); err != nil {
		l.backend.DeleteBuffer(id)
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, resolved, err)
	}

	b := &Buffer{
		path:       resolved,
		channels:   ch,
		sampleRate: src.SampleRate(),
		samples:    samples,
		gain:       gain,
		id:         id,
	}

	be := l.backend
	runtime.AddCleanup(b, func(id backend.BufferID) {
		be.DeleteBuffer(id)
	}, id)

	l.logger.Debug("decoded audio",
		"path", resolved,
		"rate", b.sampleRate,
		"channels", ch,
		"frames", b.Frames(),
		"replaygain", gain.HasGain,
	)

	return b, nil
}

func trimPadding(src audio.Source, samples []float32, channels int) []float32 {
	p, ok := src.(audio.Padder)
	if !ok {
		return samples
	}

	preRoll, trailing := p.Padding()
	frames := len(samples) / channels

	start := min(max(preRoll, 0), frames)
	end := max(frames-max(trailing, 0), start)

	return samples[start*channels : end*channels]
}

// Track is an open decoder for incremental reads.
type Track struct {
	audio.Source

	file vfs.File
	path string
	gain replaygain.Params
}

// Open resolves name and opens its decoder without reading it.
func (l *Loader) Open(name string) (*Track, error) {
	resolved, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}

	src, f, err := l.open(resolved)
	if err != nil {
		return nil, err
	}

	return &Track{
		Source: src,
		file:   f,
		path:   resolved,
		gain:   l.replayGain(resolved, src),
	}, nil
}

func (t *Track) Path() string                  { return t.path }
func (t *Track) ReplayGain() replaygain.Params { return t.gain }

// SeekFrame repositions the decoder when it supports seeking.
func (t *Track) SeekFrame(frame int64) error {
	s, ok := t.Source.(audio.Seeker)
	if !ok {
		return audio.ErrNotSeekable
	}

	return s.SeekFrame(frame)
}

// Frames is the track length, 0 when unknown.
func (t *Track) Frames() int64 {
	if n, ok := t.Source.(audio.Lengther); ok {
		return n.Frames()
	}

	return 0
}

func (t *Track) Close() error {
	return errors.Join(t.Source.Close(), t.file.Close())
}
