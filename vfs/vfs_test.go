// SPDX-License-Identifier: EPL-2.0

package vfs

import (
	"errors"
	"io"
	"io/fs"
	"testing"
	"testing/fstest"
)

func testFS() FS {
	return Dir(fstest.MapFS{
		"snd/hit.wav":    {Data: []byte("wav")},
		"snd/hit.ogg":    {Data: []byte("ogg")},
		"snd/theme.flac": {Data: []byte("flac")},
		"snd/dir.wav":    {Mode: fs.ModeDir | 0o755},
	})
}

func TestResolve(t *testing.T) {
	t.Parallel()

	exts := []string{"ogg", "flac", "wav", "mp3"}

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"snd/hit", "snd/hit.ogg", false},
		{"snd/theme", "snd/theme.flac", false},
		{"snd/hit.wav", "snd/hit.wav", false},
		{"snd/missing", "", true},
		{"snd/missing.wav", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(testFS(), tt.name, exts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrNotFound) {
				t.Errorf("Resolve(%q) error = %v, want ErrNotFound", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestDir_OpenSeekable(t *testing.T) {
	t.Parallel()

	f, err := testFS().Open("/snd/../snd/hit.wav")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	if _, err := f.Seek(1, io.SeekStart); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}

	rest, _ := io.ReadAll(f)
	if string(rest) != "av" {
		t.Errorf("read after seek = %q, want %q", rest, "av")
	}
}

func TestDir_OpenMissing(t *testing.T) {
	t.Parallel()

	if _, err := testFS().Open("nope.wav"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open() error = %v, want ErrNotFound", err)
	}
}

func TestDir_ExistsIgnoresDirectories(t *testing.T) {
	t.Parallel()

	if testFS().Exists("snd/dir.wav") {
		t.Error("Exists() reported a directory as a file")
	}
	if !testFS().Exists("snd/hit.wav") {
		t.Error("Exists() missed a file")
	}
}
