package device

import (
	"sync"

	"github.com/lixenwraith/vi-audio/clip"
	"github.com/lixenwraith/vi-audio/core"
	"github.com/lixenwraith/vi-audio/vmath"
)

// Fake is a scriptable Device for tests
// Playback never ends on its own, tests call Finish to simulate the clip running out
type Fake struct {
	mu sync.Mutex

	ID       int
	Category core.Category

	clip     *clip.Clip
	volume   float64
	pitch    float64
	position vmath.Vec3F
	enabled  bool
	playing  bool
	closed   bool

	Starts int
	Stops  int
}

func (f *Fake) Configure(c *clip.Clip, volume, pitch float64, pos vmath.Vec3F) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clip = c
	f.volume = volume
	f.pitch = pitch
	f.position = pos
}

func (f *Fake) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.enabled || f.closed || f.clip == nil {
		return
	}
	f.playing = true
	f.Starts++
}

func (f *Fake) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	f.Stops++
}

func (f *Fake) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *Fake) SetEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = enabled
	if !enabled {
		f.playing = false
	}
}

func (f *Fake) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	f.enabled = false
	f.closed = true
}

// Finish ends playback as if the clip ran out
func (f *Fake) Finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
}

// Position implements Device
func (f *Fake) Position() vmath.Vec3F {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

// Snapshot returns the last configured values
func (f *Fake) Snapshot() (c *clip.Clip, volume, pitch float64, pos vmath.Vec3F) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clip, f.volume, f.pitch, f.position
}

// Enabled reports the enable state
func (f *Fake) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

// Closed reports whether Close ran
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeFactory records every device it creates
type FakeFactory struct {
	mu      sync.Mutex
	Devices []*Fake
	Err     error
}

// New implements Factory
func (ff *FakeFactory) New(cat core.Category) (Device, error) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if ff.Err != nil {
		return nil, ff.Err
	}
	f := &Fake{ID: len(ff.Devices), Category: cat}
	ff.Devices = append(ff.Devices, f)
	return f, nil
}

// Created returns devices created for cat, in creation order
func (ff *FakeFactory) Created(cat core.Category) []*Fake {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	var out []*Fake
	for _, f := range ff.Devices {
		if f.Category == cat {
			out = append(out, f)
		}
	}
	return out
}

// FinishAll ends playback on every created device
func (ff *FakeFactory) FinishAll() {
	ff.mu.Lock()
	devs := append([]*Fake(nil), ff.Devices...)
	ff.mu.Unlock()
	for _, f := range devs {
		f.Finish()
	}
}
