// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"slices"
	"testing"
)

// mockDecoder is a test decoder implementation
type mockDecoder struct {
	name string
}

func (d *mockDecoder) Decode(r io.Reader) (Source, error) {
	return NewSliceSource(make([]float32, 200), 44100, 2), nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &mockDecoder{name: "wav"}

	registry.Register("wav", decoder)

	got, ok := registry.Get("wav")
	if !ok {
		t.Fatal("Registry.Get() failed to retrieve registered decoder")
	}

	if got != decoder {
		t.Error("Registry.Get() returned different decoder instance")
	}
}

func TestRegistry_ExtensionNormalization(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &mockDecoder{name: "ogg"}
	registry.Register(".OGG", decoder)

	for _, ext := range []string{"ogg", ".ogg", "OGG", ".Ogg"} {
		got, ok := registry.Get(ext)
		if !ok || got != decoder {
			t.Errorf("Registry.Get(%q) = %v, %v; want registered decoder", ext, got, ok)
		}
	}
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	wavDecoder := &mockDecoder{name: "wav"}
	mp3Decoder := &mockDecoder{name: "mp3"}
	registry.Register("wav", wavDecoder)
	registry.Register("mp3", mp3Decoder)

	tests := []struct {
		name   string
		want   Decoder
		wantOK bool
	}{
		{"sfx/boom.wav", wavDecoder, true},
		{"music/Theme.MP3", mp3Decoder, true},
		{"music/theme.flac", nil, false},
		{"music/theme", nil, false},
		{"dir.wav/theme", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := registry.Lookup(tt.name)
			if ok != tt.wantOK {
				t.Errorf("Registry.Lookup(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			}
			if tt.wantOK && got != tt.want {
				t.Errorf("Registry.Lookup(%q) returned wrong decoder", tt.name)
			}
		})
	}
}

func TestRegistry_Extensions(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	for _, ext := range []string{"wav", "ogg", "flac"} {
		registry.Register(ext, &mockDecoder{name: ext})
	}

	want := []string{"flac", "ogg", "wav"}
	if got := registry.Extensions(); !slices.Equal(got, want) {
		t.Errorf("Registry.Extensions() = %v, want %v", got, want)
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder1 := &mockDecoder{name: "first"}
	decoder2 := &mockDecoder{name: "second"}

	registry.Register("wav", decoder1)
	registry.Register("wav", decoder2)

	got, ok := registry.Get("wav")
	if !ok {
		t.Fatal("Registry.Get() failed after overwrite")
	}

	if got != decoder2 {
		t.Error("Registry.Get() did not return the overwritten decoder")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &mockDecoder{name: "test"}

	done := make(chan bool)
	for range 10 {
		go func() {
			registry.Register("format", decoder)
			done <- true
		}()
	}

	for range 10 {
		go func() {
			_, _ = registry.Lookup("a.format")
			done <- true
		}()
	}

	for range 20 {
		<-done
	}

	got, ok := registry.Get("format")
	if !ok {
		t.Error("Registry.Get() failed after concurrent operations")
	}
	if got != decoder {
		t.Error("Registry returned wrong decoder after concurrent operations")
	}
}

func TestSliceSource_ReadAndSeek(t *testing.T) {
	t.Parallel()

	data := []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}
	src := NewSliceSource(data, 8000, 2)

	if got := src.Frames(); got != 3 {
		t.Fatalf("Frames() = %d, want 3", got)
	}

	buf := make([]float32, 4)
	n, err := src.ReadSamples(buf)
	if err != nil || n != 4 {
		t.Fatalf("ReadSamples() = %d, %v; want 4, nil", n, err)
	}

	n, err = src.ReadSamples(buf)
	if n != 2 || err != io.EOF {
		t.Fatalf("ReadSamples() = %d, %v; want 2, EOF", n, err)
	}

	if err := src.SeekFrame(1); err != nil {
		t.Fatalf("SeekFrame(1) error = %v", err)
	}

	n, _ = src.ReadSamples(buf)
	if n != 4 || buf[0] != 0.2 {
		t.Errorf("after SeekFrame(1) got n=%d first=%v, want 4, 0.2", n, buf[0])
	}

	if err := src.SeekFrame(4); !errors.Is(err, ErrSeekRange) {
		t.Errorf("SeekFrame(4) error = %v, want ErrSeekRange", err)
	}
}

func TestSliceSource_InvalidDst(t *testing.T) {
	t.Parallel()

	src := NewSliceSource(make([]float32, 4), 8000, 2)
	if _, err := src.ReadSamples(make([]float32, 3)); !errors.Is(err, ErrInvalidDstSize) {
		t.Errorf("ReadSamples(3) error = %v, want ErrInvalidDstSize", err)
	}
}

func TestReadAll(t *testing.T) {
	t.Parallel()

	data := make([]float32, 10001*2)
	for i := range data {
		data[i] = float32(i%100) / 100
	}

	got, err := ReadAll(NewSliceSource(data, 44100, 2))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	if !slices.Equal(got, data) {
		t.Errorf("ReadAll() returned %d samples, want %d", len(got), len(data))
	}
}

// BenchmarkRegistry_Lookup benchmarks resolving a decoder by file name
func BenchmarkRegistry_Lookup(b *testing.B) {
	registry := NewRegistry()
	registry.Register("wav", &mockDecoder{})

	b.ReportAllocs()

	for b.Loop() {
		_, _ = registry.Lookup("sfx/explosion.wav")
	}
}
