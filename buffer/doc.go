// SPDX-License-Identifier: EPL-2.0

// Package buffer turns asset paths into decoded, backend-resident audio.
//
// A Loader resolves a path (probing extensions when none is given), decodes
// it with the decoder registered for its extension, trims codec padding,
// applies ReplayGain and uploads the samples to the backend. A Cache keeps
// weak references to loaded Buffers so that every user of a path shares one
// copy for as long as any of them holds it. Once the last reference is gone
// the backend copy is released and the next load decodes again.
//
// Streaming playback does not go through the cache: Loader.Open hands out a
// Track, an open decoder that is read incrementally.
package buffer
