// SPDX-License-Identifier: EPL-2.0

package audvox

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ik5/audvox/buffer"
	"github.com/ik5/audvox/internal/arena"
)

type group struct {
	max          int
	volume       float32
	pitch        float32
	speedAffects bool
	inGame       bool
	members      []Handle
}

// inheritedPitch is what members multiply their own pitch by; nil keeps
// them out of time compression.
func (g *group) inheritedPitch() *float32 {
	if !g.speedAffects {
		return nil
	}

	p := g.pitch
	return &p
}

// GroupManager bounds sets of voices and applies volume and pitch to all of
// them. Its lock is always taken before the pool's.
type GroupManager struct {
	mu     sync.Mutex
	groups *arena.Arena[*group]
	pool   *VoicePool
}

func NewGroupManager(pool *VoicePool) *GroupManager {
	return &GroupManager{
		groups: arena.New[*group](0),
		pool:   pool,
	}
}

// Create makes a group of at most max voices. Time compression affects it
// until SetSpeedAffects says otherwise.
func (gm *GroupManager) Create(max int) GroupHandle {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	k := gm.groups.Insert(&group{
		max:          max,
		volume:       1,
		pitch:        1,
		speedAffects: true,
	})

	return GroupHandle{key: k}
}

// Destroy forgets the group. Its voices keep playing on their own, with the
// volume and pitch inheritance of a voice started outside any group.
func (gm *GroupManager) Destroy(gh GroupHandle) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	g, ok := gm.groups.Remove(gh.key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, gh)
	}

	m := gm.pool.levels.snapshot()

	gm.pool.mu.Lock()
	defer gm.pool.mu.Unlock()

	for _, h := range g.members {
		v := gm.pool.get(h)
		if v == nil {
			continue
		}

		c := v.common()
		c.group = GroupHandle{}
		c.groupVolume = 1
		c.inheritPitch = defaultInherit(c.inGame)
		c.applyGain(m)
		c.applyPitch(m)
	}

	return nil
}

func (gm *GroupManager) Len() int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	return gm.groups.Len()
}

func (gm *GroupManager) lookup(gh GroupHandle) (*group, error) {
	g, ok := gm.groups.Get(gh.key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, gh)
	}

	return g, nil
}

// prune drops members the pool no longer holds. Both locks must be held.
func (gm *GroupManager) prune(g *group) {
	g.members = slices.DeleteFunc(g.members, func(h Handle) bool {
		return !gm.pool.voices.Contains(h.key)
	})
}

// PlayBuffer starts buf as a KindStatic member of the group. A full group or
// a full pool yields the sentinel Handle and no error.
func (gm *GroupManager) PlayBuffer(gh GroupHandle, buf *buffer.Buffer, looping bool) (Handle, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	g, err := gm.lookup(gh)
	if err != nil {
		return Handle{}, err
	}

	m := gm.pool.levels.snapshot()

	gm.pool.mu.Lock()
	defer gm.pool.mu.Unlock()

	gm.prune(g)
	if len(g.members) >= g.max {
		return Handle{}, nil
	}

	v, err := NewVoiceBuilder(buf).
		InGame(g.inGame).
		Looping(looping).
		inGroup(gh, g.volume, g.inheritedPitch()).
		voice(gm.pool)
	if err != nil {
		return Handle{}, err
	}

	h := gm.pool.insert(v, TypeStatic, m)
	if !h.Valid() {
		return h, nil
	}

	v.Play()
	g.members = append(g.members, h)

	return h, nil
}

// each runs fn on every live member of the group under both locks.
func (gm *GroupManager) each(gh GroupHandle, fn func(g *group, v Voice)) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	g, err := gm.lookup(gh)
	if err != nil {
		return err
	}

	gm.pool.mu.Lock()
	defer gm.pool.mu.Unlock()

	for _, h := range g.members {
		if v := gm.pool.get(h); v != nil {
			fn(g, v)
		}
	}

	return nil
}

func (gm *GroupManager) Stop(gh GroupHandle) error {
	return gm.each(gh, func(_ *group, v Voice) { v.Stop() })
}

func (gm *GroupManager) Pause(gh GroupHandle) error {
	return gm.each(gh, func(_ *group, v Voice) { v.Pause() })
}

func (gm *GroupManager) Resume(gh GroupHandle) error {
	return gm.each(gh, func(_ *group, v Voice) { v.Play() })
}

// update changes group state with set and re-projects every member.
func (gm *GroupManager) update(gh GroupHandle, set func(g *group)) error {
	m := gm.pool.levels.snapshot()

	gm.mu.Lock()
	defer gm.mu.Unlock()

	g, err := gm.lookup(gh)
	if err != nil {
		return err
	}
	set(g)

	gm.pool.mu.Lock()
	defer gm.pool.mu.Unlock()

	for _, h := range g.members {
		v := gm.pool.get(h)
		if v == nil {
			continue
		}

		c := v.common()
		c.groupVolume = g.volume
		c.inheritPitch = g.inheritedPitch()
		if c.inGame != g.inGame {
			c.spatial(gm.pool.spatial, g.inGame)
		}
		c.applyGain(m)
		c.applyPitch(m)
	}

	return nil
}

func (gm *GroupManager) SetVolume(gh GroupHandle, volume float32) error {
	return gm.update(gh, func(g *group) { g.volume = volume })
}

func (gm *GroupManager) SetPitch(gh GroupHandle, pitch float32) error {
	return gm.update(gh, func(g *group) { g.pitch = pitch })
}

// SetSpeedAffects decides whether time compression bends the members' pitch.
func (gm *GroupManager) SetSpeedAffects(gh GroupHandle, on bool) error {
	return gm.update(gh, func(g *group) { g.speedAffects = on })
}

func (gm *GroupManager) SetInGame(gh GroupHandle, inGame bool) error {
	return gm.update(gh, func(g *group) { g.inGame = inGame })
}

func (gm *GroupManager) Volume(gh GroupHandle) (float32, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	g, err := gm.lookup(gh)
	if err != nil {
		return 0, err
	}

	return g.volume, nil
}

func (gm *GroupManager) Pitch(gh GroupHandle) (float32, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	g, err := gm.lookup(gh)
	if err != nil {
		return 0, err
	}

	return g.pitch, nil
}

// Members returns a copy of the member list, reaped voices included until
// the next drain.
func (gm *GroupManager) Members(gh GroupHandle) ([]Handle, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	g, err := gm.lookup(gh)
	if err != nil {
		return nil, err
	}

	return slices.Clone(g.members), nil
}

// forget drops h from the member list of gh. gm.mu must be held.
func (gm *GroupManager) forget(gh GroupHandle, h Handle) {
	g, ok := gm.groups.Get(gh.key)
	if !ok {
		return
	}

	if i := slices.Index(g.members, h); i >= 0 {
		g.members = slices.Delete(g.members, i, i+1)
	}
}
