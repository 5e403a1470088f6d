// SPDX-License-Identifier: EPL-2.0

// Package script hands voices to scripting code. A Ref owns one voice and,
// while its remove-on-drop flag is set, removes it when released explicitly
// or once the Ref is garbage collected.
package script

import (
	"runtime"
	"sync/atomic"

	"github.com/ik5/audvox"
)

// Releaser is the part of the engine a Ref reports to.
type Releaser interface {
	Release(h audvox.Handle)
}

type Ref struct {
	h       audvox.Handle
	eng     *audvox.Engine
	armed   atomic.Bool // remove on drop
	cleanup runtime.Cleanup
}

func newRef(eng *audvox.Engine, h audvox.Handle) *Ref {
	r := &Ref{h: h, eng: eng}

	if h.Valid() {
		r.armed.Store(true)
		r.cleanup = runtime.AddCleanup(r, release, releaseArg{eng: eng, h: h})
	}

	return r
}

type releaseArg struct {
	eng Releaser
	h   audvox.Handle
}

func release(a releaseArg) {
	a.eng.Release(a.h)
}

// Open creates a script owned voice for path.
func Open(eng *audvox.Engine, path string, streaming bool) (*Ref, error) {
	h, err := eng.Open(path, streaming)
	if err != nil {
		return nil, err
	}

	return newRef(eng, h), nil
}

// Handle addresses the voice in eng.Voices(). It is the sentinel when the
// pool refused the voice.
func (r *Ref) Handle() audvox.Handle { return r.h }

// Voices is a shortcut to the pool the handle belongs to.
func (r *Ref) Voices() *audvox.VoicePool { return r.eng.Voices() }

// Release queues removal of the voice. Only the first call on an armed Ref
// has an effect.
func (r *Ref) Release() {
	if r.armed.CompareAndSwap(true, false) {
		r.cleanup.Stop()
		r.eng.Release(r.h)
	}
}

// Detach clears the remove-on-drop flag and returns the handle. The voice then
// lives until the engine is asked to release it.
func (r *Ref) Detach() audvox.Handle {
	if r.armed.CompareAndSwap(true, false) {
		r.cleanup.Stop()
	}

	return r.h
}

// RemovesOnDrop reports whether releasing or dropping the Ref removes the voice.
func (r *Ref) RemovesOnDrop() bool { return r.armed.Load() }

// Clone starts an independent copy of the voice under a new Ref.
func (r *Ref) Clone() (*Ref, error) {
	h, err := r.eng.Voices().TryClone(r.h)
	if err != nil {
		return nil, err
	}

	return newRef(r.eng, h), nil
}
