// SPDX-License-Identifier: EPL-2.0

package audvox

import (
	"fmt"

	"github.com/ik5/audvox/backend"
	"github.com/ik5/audvox/internal/arena"
)

// Handle addresses a voice in a VoicePool. The zero Handle is the sentinel
// returned when admission is refused; every operation on it is a no-op.
type Handle struct {
	key arena.Key
}

func (h Handle) Valid() bool { return !h.key.IsZero() }

func (h Handle) String() string {
	if !h.Valid() {
		return "voice(none)"
	}

	return fmt.Sprintf("voice(%d.%d)", h.key.Index, h.key.Generation)
}

// GroupHandle addresses a group in a GroupManager. The zero value is invalid.
type GroupHandle struct {
	key arena.Key
}

func (g GroupHandle) Valid() bool { return !g.key.IsZero() }

func (g GroupHandle) String() string {
	if !g.Valid() {
		return "group(none)"
	}

	return fmt.Sprintf("group(%d.%d)", g.key.Index, g.key.Generation)
}

// Kind says who owns a voice and how it plays.
type Kind int

const (
	// KindStatic is an engine-owned buffer voice, removed once it stops.
	KindStatic Kind = iota
	// KindScriptStatic is a script-owned buffer voice.
	KindScriptStatic
	// KindScriptStream is a script-owned streaming voice.
	KindScriptStream
)

func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindScriptStatic:
		return "script-static"
	case KindScriptStream:
		return "script-stream"
	default:
		return "unknown"
	}
}

// AudioType selects the admission threshold a voice is checked against.
type AudioType int

const (
	TypeStatic AudioType = iota
	TypeStream
)

func (k Kind) audioType() AudioType {
	if k == KindScriptStream {
		return TypeStream
	}

	return TypeStatic
}

type SeekUnit int

const (
	SeekSeconds SeekUnit = iota
	SeekSamples
)

func (u SeekUnit) offsetUnit() backend.OffsetUnit {
	if u == SeekSamples {
		return backend.OffsetSamples
	}

	return backend.OffsetSeconds
}
