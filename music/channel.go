// Package music sequences the single-stream background music and ambient players
package music

import (
	"math"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/lixenwraith/vi-audio/clip"
	"github.com/lixenwraith/vi-audio/device"
)

// channel is one clip streaming into a bus from a given offset
// Fields reached by the mixing goroutine are only touched under the bus lock
type channel struct {
	out   device.Output
	clip  *clip.Clip
	from  int
	src   beep.StreamSeeker
	gain  *effects.Volume
	ctrl  *beep.Ctrl
	ended atomic.Bool
}

// startChannel begins streaming c at sample offset from with linear volume
func startChannel(out device.Output, c *clip.Clip, from int, volume float64) *channel {
	ch := &channel{out: out, clip: c, src: c.Streamer(from)}
	ch.from = c.Len() - ch.src.Len()
	ch.gain = &effects.Volume{Streamer: ch.src, Base: 2}
	setGain(ch.gain, volume)
	ch.ctrl = &beep.Ctrl{Streamer: beep.Seq(ch.gain, beep.Callback(func() {
		ch.ended.Store(true)
	}))}
	out.Play(ch.ctrl)
	return ch
}

func setGain(v *effects.Volume, volume float64) {
	v.Volume = math.Log2(math.Max(volume, 1e-6))
	v.Silent = volume <= 0
}

func (ch *channel) setVolume(volume float64) {
	ch.out.Lock()
	setGain(ch.gain, volume)
	ch.out.Unlock()
}

func (ch *channel) setPaused(paused bool) {
	ch.out.Lock()
	ch.ctrl.Paused = paused
	ch.out.Unlock()
}

// position returns the absolute sample offset into the clip
func (ch *channel) position() int {
	ch.out.Lock()
	defer ch.out.Unlock()
	return ch.from + ch.src.Position()
}

// stop detaches the channel, the bus drops it on its next pull
func (ch *channel) stop() {
	ch.out.Lock()
	ch.ctrl.Streamer = nil
	ch.out.Unlock()
}

func (ch *channel) finished() bool {
	return ch.ended.Load()
}
