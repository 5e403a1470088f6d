// SPDX-License-Identifier: EPL-2.0

package buffer

import (
	"sync"
	"weak"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	path string
	buf  weak.Pointer[Buffer]
}

// Cache shares Buffers by resolved path while anything still references them.
//
// With serialized misses the cache lock is held for the whole decode, so
// loads never overlap. Otherwise the lock only covers the scan and concurrent
// misses for the same path share one decode.
type Cache struct {
	loader    *Loader
	serialize bool

	mu      sync.Mutex
	entries []entry
	flight  singleflight.Group
}

func NewCache(loader *Loader, serializeMisses bool) *Cache {
	return &Cache{
		loader:    loader,
		serialize: serializeMisses,
	}
}

func (c *Cache) Loader() *Loader { return c.loader }

// lookup scans for path, dropping dead entries on the way. c.mu must be held.
func (c *Cache) lookup(path string) *Buffer {
	var found *Buffer

	live := c.entries[:0]
	for _, e := range c.entries {
		b := e.buf.Value()
		if b == nil {
			continue
		}

		live = append(live, e)
		if found == nil && e.path == path {
			found = b
		}
	}

	clear(c.entries[len(live):])
	c.entries = live

	return found
}

func (c *Cache) store(b *Buffer) {
	c.entries = append(c.entries, entry{path: b.path, buf: weak.Make(b)})
}

// GetOrLoad returns the live Buffer for name or loads it.
func (c *Cache) GetOrLoad(name string) (*Buffer, error) {
	resolved, err := c.loader.Resolve(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if b := c.lookup(resolved); b != nil {
		c.mu.Unlock()
		return b, nil
	}

	if c.serialize {
		defer c.mu.Unlock()

		b, err := c.loader.load(resolved)
		if err != nil {
			return nil, err
		}
		c.store(b)

		return b, nil
	}
	c.mu.Unlock()

	v, err, _ := c.flight.Do(resolved, func() (any, error) {
		// an earlier flight for the same path may have finished after our scan
		c.mu.Lock()
		b := c.lookup(resolved)
		c.mu.Unlock()
		if b != nil {
			return b, nil
		}

		b, err := c.loader.load(resolved)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.store(b)
		c.mu.Unlock()

		return b, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Buffer), nil
}

// Get returns the live Buffer for name without loading it.
func (c *Cache) Get(name string) (*Buffer, bool) {
	resolved, err := c.loader.Resolve(name)
	if err != nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.lookup(resolved)

	return b, b != nil
}

// Len reports how many buffers are still alive.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookup("")

	return len(c.entries)
}
