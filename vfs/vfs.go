// SPDX-License-Identifier: EPL-2.0

// Package vfs is the read-only file view the engine loads assets through.
package vfs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
)

var ErrNotFound = errors.New("file not found")

type File interface {
	io.ReadSeekCloser
}

type FS interface {
	Open(name string) (File, error)
	Exists(name string) bool
}

type dirFS struct {
	fsys fs.FS
}

// Dir adapts any fs.FS. Files that cannot seek are read into memory on open.
func Dir(fsys fs.FS) FS {
	return dirFS{fsys: fsys}
}

// OS serves files below root on the host filesystem.
func OS(root string) FS {
	return Dir(os.DirFS(root))
}

func clean(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

func (d dirFS) Open(name string) (File, error) {
	f, err := d.fsys.Open(clean(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}

	if rs, ok := f.(File); ok {
		return rs, nil
	}

	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		return nil, err
	}

	return nopCloser{bytes.NewReader(data)}, nil
}

func (d dirFS) Exists(name string) bool {
	st, err := fs.Stat(d.fsys, clean(name))
	return err == nil && !st.IsDir()
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }

// Resolve returns name unchanged when it carries an extension. Otherwise each
// extension in exts is tried in order and the first existing file wins.
func Resolve(fsys FS, name string, exts []string) (string, error) {
	if path.Ext(name) != "" {
		if !fsys.Exists(name) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return name, nil
	}

	for _, ext := range exts {
		candidate := name + "." + strings.TrimPrefix(ext, ".")
		if fsys.Exists(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s (tried %s)", ErrNotFound, name, strings.Join(exts, ", "))
}
