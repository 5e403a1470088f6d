// SPDX-License-Identifier: EPL-2.0

package audvox

import (
	"sync"

	"github.com/ik5/audvox/utils"
)

// levels is the engine-wide volume and speed state.
type levels struct {
	mu sync.RWMutex

	volumeLin   float32
	volume      float32 // logarithmic
	volumeSpeed float32
	speed       float32
}

// mix is a copy of levels taken before any pool or group lock.
type mix struct {
	master      float32
	volumeSpeed float32
	speed       float32
}

func newLevels() *levels {
	return &levels{
		volumeLin:   1,
		volume:      1,
		volumeSpeed: 1,
		speed:       1,
	}
}

func (l *levels) snapshot() mix {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return mix{
		master:      l.volume,
		volumeSpeed: l.volumeSpeed,
		speed:       l.speed,
	}
}

func (l *levels) setVolume(lin float32) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.volumeLin = lin
	l.volume = utils.LogVolume(lin)
}

func (l *levels) setVolumeSpeed(v float32) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.volumeSpeed = v
}

func (l *levels) setSpeed(s float32) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.speed = s
}

func (l *levels) get() (lin, log, volumeSpeed, speed float32) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.volumeLin, l.volume, l.volumeSpeed, l.speed
}
