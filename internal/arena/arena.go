// SPDX-License-Identifier: EPL-2.0

// Package arena is a slot allocator addressed by generational keys.
//
// A removed slot is reused by a later Insert with a bumped generation, so a
// stale Key never resolves to the new occupant. The zero Key never resolves.
// Arena is not safe for concurrent use.
package arena

type Key struct {
	Index      uint32
	Generation uint32
}

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool {
	return k.Generation == 0
}

type slot[T any] struct {
	gen  uint32
	used bool
	val  T
}

type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	n     int
}

func New[T any](capacity int) *Arena[T] {
	return &Arena[T]{slots: make([]slot[T], 0, capacity)}
}

func (a *Arena[T]) Insert(v T) Key {
	var idx uint32

	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot[T]{})
		idx = uint32(len(a.slots) - 1)
	}

	s := &a.slots[idx]
	s.gen++
	if s.gen == 0 {
		// wrapped; zero is reserved for the empty key
		s.gen = 1
	}
	s.used = true
	s.val = v
	a.n++

	return Key{Index: idx, Generation: s.gen}
}

func (a *Arena[T]) lookup(k Key) *slot[T] {
	if k.IsZero() || int(k.Index) >= len(a.slots) {
		return nil
	}

	s := &a.slots[k.Index]
	if !s.used || s.gen != k.Generation {
		return nil
	}

	return s
}

func (a *Arena[T]) Get(k Key) (T, bool) {
	if s := a.lookup(k); s != nil {
		return s.val, true
	}

	var zero T
	return zero, false
}

func (a *Arena[T]) Contains(k Key) bool {
	return a.lookup(k) != nil
}

func (a *Arena[T]) Remove(k Key) (T, bool) {
	var zero T

	s := a.lookup(k)
	if s == nil {
		return zero, false
	}

	v := s.val
	s.val = zero
	s.used = false
	a.free = append(a.free, k.Index)
	a.n--

	return v, true
}

func (a *Arena[T]) Len() int {
	return a.n
}

// Each calls fn for every live entry in slot order until fn returns false.
// fn must not insert into or remove from the arena.
func (a *Arena[T]) Each(fn func(Key, T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.used {
			continue
		}

		if !fn(Key{Index: uint32(i), Generation: s.gen}, s.val) {
			return
		}
	}
}

// Keys returns a snapshot of the live keys in slot order.
func (a *Arena[T]) Keys() []Key {
	keys := make([]Key, 0, a.n)
	a.Each(func(k Key, _ T) bool {
		keys = append(keys, k)
		return true
	})

	return keys
}
