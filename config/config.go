// SPDX-License-Identifier: EPL-2.0

// Package config holds the engine settings and their YAML form.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the full set of engine settings.
type Config struct {
	Voices  Voices  `yaml:"voices"`
	Stream  Stream  `yaml:"stream"`
	Cache   Cache   `yaml:"cache"`
	Device  Device  `yaml:"device"`
	Spatial Spatial `yaml:"spatial"`
	Log     Log     `yaml:"log"`
}

// Voices bounds the voice pool.
type Voices struct {
	// Capacity is the hard limit of live voices.
	Capacity int `yaml:"capacity"`

	// ReservedSlots are kept free of static voices so streams can still start.
	ReservedSlots int `yaml:"reserved_slots"`
}

// Stream tunes background decoding.
type Stream struct {
	// BufferFrames is the size of each of the two stream buffers.
	BufferFrames int `yaml:"buffer_frames"`

	// PollIntervalMS is how often the stream goroutine checks for a drained buffer.
	PollIntervalMS int `yaml:"poll_interval_ms"`
}

func (s Stream) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMS) * time.Millisecond
}

// Cache tunes the decoded buffer cache.
type Cache struct {
	// SerializeMisses holds the cache lock while a miss decodes.
	SerializeMisses bool `yaml:"serialize_misses"`

	// Extensions is the search order for paths given without one.
	Extensions []string `yaml:"extensions"`
}

// Device describes the output device.
type Device struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
	BufferMS   int `yaml:"buffer_ms"`
}

func (d Device) BufferDuration() time.Duration {
	return time.Duration(d.BufferMS) * time.Millisecond
}

// Spatial holds the attenuation applied to in-game voices.
type Spatial struct {
	ReferenceDistance float32 `yaml:"reference_distance"`
	MaxDistance       float32 `yaml:"max_distance"`
	Rolloff           float32 `yaml:"rolloff"`
}

type Log struct {
	Level string `yaml:"level"`
}

// SlogLevel maps Level onto slog. An empty level is Info.
func (l Log) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if strings.TrimSpace(l.Level) == "" {
		return slog.LevelInfo, nil
	}

	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}

	return lvl, nil
}

// Default returns the stock settings.
func Default() Config {
	return Config{
		Voices: Voices{
			Capacity:      64,
			ReservedSlots: 8,
		},
		Stream: Stream{
			BufferFrames:   32768,
			PollIntervalMS: 50,
		},
		Cache: Cache{
			SerializeMisses: true,
			Extensions:      []string{"ogg", "flac", "wav", "mp3", "aiff"},
		},
		Device: Device{
			SampleRate: 48000,
			Channels:   2,
			BufferMS:   100,
		},
		Spatial: Spatial{
			ReferenceDistance: 500,
			MaxDistance:       25000,
			Rolloff:           1,
		},
		Log: Log{Level: "info"},
	}
}

// Parse reads YAML on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Marshal renders cfg as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c Config) Validate() error {
	var errs []error

	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Voices.Capacity >= 2, "voices.capacity must be at least 2, got %d", c.Voices.Capacity)
	check(c.Voices.ReservedSlots >= 0 && c.Voices.ReservedSlots < c.Voices.Capacity,
		"voices.reserved_slots must be in [0, %d), got %d", c.Voices.Capacity, c.Voices.ReservedSlots)
	check(c.Stream.BufferFrames > 0, "stream.buffer_frames must be positive, got %d", c.Stream.BufferFrames)
	check(c.Stream.PollIntervalMS > 0, "stream.poll_interval_ms must be positive, got %d", c.Stream.PollIntervalMS)
	check(len(c.Cache.Extensions) > 0, "cache.extensions must not be empty")
	check(c.Device.SampleRate > 0, "device.sample_rate must be positive, got %d", c.Device.SampleRate)
	check(c.Device.Channels == 1 || c.Device.Channels == 2, "device.channels must be 1 or 2, got %d", c.Device.Channels)
	check(c.Device.BufferMS > 0, "device.buffer_ms must be positive, got %d", c.Device.BufferMS)
	check(c.Spatial.ReferenceDistance > 0, "spatial.reference_distance must be positive")
	check(c.Spatial.MaxDistance >= c.Spatial.ReferenceDistance, "spatial.max_distance must not be below reference_distance")
	check(c.Spatial.Rolloff >= 0, "spatial.rolloff must not be negative")

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
