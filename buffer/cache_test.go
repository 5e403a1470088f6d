// SPDX-License-Identifier: EPL-2.0

package buffer

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/ik5/audvox/internal/audiotest"
)

func newTestCache(t *testing.T, serialize bool) (*Cache, *audiotest.CountingDecoder, func() int) {
	t.Helper()

	reg, dec := wavRegistry()
	files := fstest.MapFS{
		"a.wav": {Data: audiotest.WAV(8000, 1, audiotest.Ramp(400, 3))},
		"b.wav": {Data: audiotest.WAV(8000, 2, audiotest.Ramp(400, 5))},
	}

	l, m := newTestLoader(t, files, reg)

	return NewCache(l, serialize), dec, m.Buffers
}

func TestCache_ConcurrentSamePointer(t *testing.T) {
	t.Parallel()

	for _, serialize := range []bool{true, false} {
		name := "serialized"
		if !serialize {
			name = "singleflight"
		}

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, dec, _ := newTestCache(t, serialize)

			const workers = 16

			var wg sync.WaitGroup
			got := make([]*Buffer, workers)

			for i := range workers {
				wg.Go(func() {
					b, err := c.GetOrLoad("a")
					if err != nil {
						t.Errorf("GetOrLoad() error = %v", err)
						return
					}
					got[i] = b
				})
			}
			wg.Wait()

			for i, b := range got {
				if b != got[0] {
					t.Fatalf("worker %d got a different buffer", i)
				}
			}

			if dec.Calls() != 1 {
				t.Errorf("decoded %d times, want 1", dec.Calls())
			}

			if c.Len() != 1 {
				t.Errorf("Len() = %d, want 1", c.Len())
			}

			runtime.KeepAlive(got)
		})
	}
}

func TestCache_DistinctPaths(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestCache(t, false)

	a, err := c.GetOrLoad("a.wav")
	if err != nil {
		t.Fatalf("GetOrLoad(a) error = %v", err)
	}

	b, err := c.GetOrLoad("b")
	if err != nil {
		t.Fatalf("GetOrLoad(b) error = %v", err)
	}

	if a == b {
		t.Fatal("different paths share a buffer")
	}

	if again, ok := c.Get("a"); !ok || again != a {
		t.Error("Get(a) did not return the cached buffer")
	}

	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}

func TestCache_ReloadAfterRelease(t *testing.T) {
	t.Parallel()

	c, dec, buffers := newTestCache(t, true)

	b, err := c.GetOrLoad("a")
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}
	if b.Frames() != 400 {
		t.Fatalf("Frames() = %d, want 400", b.Frames())
	}
	b = nil

	deadline := time.Now().Add(2 * time.Second)
	for buffers() != 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}

	if buffers() != 0 {
		t.Fatal("backend buffer was not released")
	}

	if _, ok := c.Get("a"); ok {
		t.Fatal("Get() found a released buffer")
	}

	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}

	again, err := c.GetOrLoad("a")
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}

	if dec.Calls() != 2 {
		t.Errorf("decoded %d times, want 2", dec.Calls())
	}

	runtime.KeepAlive(again)
}

func TestCache_GetOrLoadErrors(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestCache(t, false)

	if _, err := c.GetOrLoad("missing"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("GetOrLoad(missing) error = %v, want ErrFileNotFound", err)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) reported a hit")
	}
}
