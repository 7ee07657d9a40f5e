package device

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/lixenwraith/vi-audio/clip"
	"github.com/lixenwraith/vi-audio/constant"
	"github.com/lixenwraith/vi-audio/core"
	"github.com/lixenwraith/vi-audio/vmath"
)

// BeepDevice renders clips into an Output bus through beep
// Pitch is applied by resampling, volume by a base-2 gain stage
type BeepDevice struct {
	out Output

	mu       sync.Mutex
	clip     *clip.Clip
	volume   float64
	pitch    float64
	position vmath.Vec3F
	enabled  bool
	closed   bool
	ctrl     *beep.Ctrl

	// gen invalidates end-of-stream callbacks from earlier starts
	// Accessed from the mixing goroutine without mu
	gen     atomic.Uint64
	playing atomic.Bool
}

// NewBeepDevice creates a disabled device writing to out
func NewBeepDevice(out Output) *BeepDevice {
	return &BeepDevice{
		out:    out,
		volume: 1,
		pitch:  1,
	}
}

// BeepFactory returns a Factory that creates BeepDevices on the bus chosen per category
func BeepFactory(outputs map[core.Category]Output) Factory {
	return func(cat core.Category) (Device, error) {
		out, ok := outputs[cat]
		if !ok {
			return nil, ErrNoOutput
		}
		return NewBeepDevice(out), nil
	}
}

func (d *BeepDevice) Configure(c *clip.Clip, volume, pitch float64, pos vmath.Vec3F) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.clip = c
	d.volume = volume
	d.pitch = pitch
	d.position = pos
}

func (d *BeepDevice) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.enabled || d.closed || d.clip.Len() == 0 {
		return
	}
	d.stopLocked()

	gen := d.gen.Add(1)

	var s beep.Streamer = d.clip.Streamer(0)
	if d.pitch > 0 && d.pitch != 1 {
		s = beep.ResampleRatio(constant.ResampleQuality, d.pitch, s)
	}
	s = &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   math.Log2(math.Max(d.volume, 1e-6)),
		Silent:   d.volume <= 0,
	}

	ctrl := &beep.Ctrl{Streamer: beep.Seq(s, beep.Callback(func() {
		if d.gen.Load() == gen {
			d.playing.Store(false)
		}
	}))}
	d.ctrl = ctrl
	d.playing.Store(true)
	d.out.Play(ctrl)
}

func (d *BeepDevice) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// stopLocked detaches the current streamer, the bus drops it on its next pull
func (d *BeepDevice) stopLocked() {
	d.gen.Add(1)
	d.playing.Store(false)
	if d.ctrl == nil {
		return
	}
	d.out.Lock()
	d.ctrl.Streamer = nil
	d.out.Unlock()
	d.ctrl = nil
}

func (d *BeepDevice) IsPlaying() bool {
	return d.playing.Load()
}

func (d *BeepDevice) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.enabled = enabled
	if !enabled {
		d.stopLocked()
	}
}

func (d *BeepDevice) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.enabled = false
	d.closed = true
	d.clip = nil
}

// Position implements Device
func (d *BeepDevice) Position() vmath.Vec3F {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position
}
