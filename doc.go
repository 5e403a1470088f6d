// SPDX-License-Identifier: EPL-2.0

// Package audvox manages playing sounds: a bounded pool of voices over a
// playback backend, decoded buffers shared through a cache, streaming voices
// fed by a background decoder, and groups that scale volume and pitch of
// their members.
//
// # Voices and handles
//
// Every playing instance is a Voice owned by a VoicePool and addressed by a
// Handle. When the pool is full, a new voice is refused and the zero Handle
// is returned instead of an error; every operation on it does nothing and
// every getter returns the zero value. The same holds for a Handle whose
// voice has since been removed, so callers never need to check.
//
// The backend gain of a voice is
//
//	speedVolume (in-game voices only) * master * own volume * group volume
//
// and its pitch is the own pitch, multiplied by the group pitch and the
// engine speed unless the voice opted out of time compression.
//
// # Events
//
// The backend reports stopped sources from its own goroutine. Those reports,
// as well as script releases, are queued on a Bridge and applied by
// Engine.ExecuteMessages, which the caller runs once per frame. Engine owned
// voices (KindStatic) are reaped there; script owned voices live until
// released.
//
// # Quick Start
//
//	mixer, _ := soft.New(48000, 2)
//	out, _ := otoout.Open(mixer, 100*time.Millisecond)
//	defer out.Close()
//
//	eng, _ := audvox.New(config.Default(), mixer, vfs.OS("assets"))
//	defer eng.Close()
//
//	buf, _ := eng.LoadBuffer("sfx/laser")
//	eng.PlayBuffer(buf, false)
//
//	for running {
//		eng.ExecuteMessages()
//		// ...
//	}
package audvox
