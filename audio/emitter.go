package audio

import (
	"time"

	"github.com/lixenwraith/vi-audio/sfx"
	"github.com/lixenwraith/vi-audio/vmath"
)

// EffectPlayer triggers pooled effects
type EffectPlayer interface {
	PlayOverlay(name string) (sfx.Outcome, error)
	PlayWorld(name, origin string, pos vmath.Vec3F) (sfx.Outcome, error)
}

// SnapshotSwitcher moves the mixer between named snapshots
type SnapshotSwitcher interface {
	TransitionTo(name string, fade time.Duration) error
}

// Emitter is the per-object handle game objects hold
// World effects are keyed by origin and placed at the position reported at trigger time
type Emitter struct {
	player   EffectPlayer
	snaps    SnapshotSwitcher
	origin   string
	position func() vmath.Vec3F
}

// NewEmitter binds origin and a position source, position may be nil for the origin point
func NewEmitter(player EffectPlayer, snaps SnapshotSwitcher, origin string, position func() vmath.Vec3F) *Emitter {
	return &Emitter{
		player:   player,
		snaps:    snaps,
		origin:   origin,
		position: position,
	}
}

// Origin returns the duplicate-scope identity of this emitter
func (e *Emitter) Origin() string {
	return e.origin
}

// PlayWorld triggers a positioned effect at the emitter's current position
func (e *Emitter) PlayWorld(name string) (sfx.Outcome, error) {
	var pos vmath.Vec3F
	if e.position != nil {
		pos = e.position()
	}
	return e.player.PlayWorld(name, e.origin, pos)
}

// PlayOverlay triggers a non-positional effect
func (e *Emitter) PlayOverlay(name string) (sfx.Outcome, error) {
	return e.player.PlayOverlay(name)
}

// SwitchToSnapshot fades the mixer to the named snapshot
func (e *Emitter) SwitchToSnapshot(name string, fade time.Duration) error {
	return e.snaps.TransitionTo(name, fade)
}
