// SPDX-License-Identifier: EPL-2.0

package audvox

import (
	"sync"

	"github.com/ik5/audvox/backend"
)

type MessageKind int

const (
	// MessageRemove asks for a voice to be removed.
	MessageRemove MessageKind = iota
	// MessageSourceStopped reports a backend source that stopped.
	MessageSourceStopped
)

// Message is a deferred request for the main goroutine.
type Message struct {
	Kind   MessageKind
	Handle Handle
	Source backend.SourceID
}

func RemoveMessage(h Handle) Message {
	return Message{Kind: MessageRemove, Handle: h}
}

func SourceStoppedMessage(src backend.SourceID) Message {
	return Message{Kind: MessageSourceStopped, Source: src}
}

// Bridge queues messages from any goroutine, the backend callback included,
// until the main goroutine drains them. Pushing never touches voices or groups.
type Bridge struct {
	mu    sync.Mutex
	queue []Message
}

func (b *Bridge) Push(m Message) {
	b.mu.Lock()
	b.queue = append(b.queue, m)
	b.mu.Unlock()
}

// Drain takes every queued message in push order.
func (b *Bridge) Drain() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.queue
	b.queue = nil

	return out
}

func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.queue)
}
