// Package device is the playback primitive used by the effect pools
// A Device renders one clip at a time with volume, pitch and a carried position
package device

import (
	"github.com/gopxl/beep"

	"github.com/lixenwraith/vi-audio/clip"
	"github.com/lixenwraith/vi-audio/core"
	"github.com/lixenwraith/vi-audio/vmath"
)

// Device is a reusable playback voice
//
// Lifecycle:
//  1. Construction (via Factory)
//  2. SetEnabled(true) on pool acquire
//  3. Configure + Start, possibly restarted in place by Start again
//  4. SetEnabled(false) on pool release, which also stops rendering
//  5. Close on pool destroy
type Device interface {
	// Configure sets what the next Start renders
	Configure(c *clip.Clip, volume, pitch float64, pos vmath.Vec3F)

	// Start renders the configured clip from its beginning, restarting if already playing
	// No-op while disabled or unconfigured
	Start()

	// Stop halts rendering immediately
	Stop()

	// IsPlaying reports whether the device is still rendering
	IsPlaying() bool

	// Position returns the world position set by the last Configure
	Position() vmath.Vec3F

	// SetEnabled activates or deactivates the device, disabling stops playback
	SetEnabled(enabled bool)

	// Close releases the device, it must not be used afterwards
	Close()
}

// Factory constructs a device for a pool category
type Factory func(cat core.Category) (Device, error)

// Output accepts streamers for mixing into a bus
// Lock/Unlock guard mutation of streamers already playing on the bus
type Output interface {
	Play(s beep.Streamer)
	Lock()
	Unlock()
}
