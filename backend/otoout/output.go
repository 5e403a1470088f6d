// SPDX-License-Identifier: EPL-2.0

// Package otoout plays a software mix on the default audio device through
// github.com/ebitengine/oto/v3.
package otoout

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

var ErrClosed = errors.New("output closed")

// Mix is what the device pulls from: interleaved float32 little-endian frames.
type Mix interface {
	SampleRate() int
	Channels() int
	Reader() io.Reader
}

type Output struct {
	mu     sync.Mutex
	ctx    *oto.Context
	player *oto.Player
	closed bool
}

// Open creates the oto context for the mix format and starts pulling from it.
// Only one Output can exist per process; oto does not support multiple contexts.
func Open(mix Mix, bufferSize time.Duration) (*Output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   mix.SampleRate(),
		ChannelCount: mix.Channels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(mix.Reader())
	player.Play()

	return &Output{ctx: ctx, player: player}, nil
}

// Err reports a device or player failure, if any.
func (o *Output) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}

	if err := o.ctx.Err(); err != nil {
		return err
	}

	return o.player.Err()
}

func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true

	err := o.player.Close()

	return errors.Join(err, o.ctx.Suspend())
}
