// Package mixer owns group volumes and mix snapshots
// Each group is a Bus; group buses feed the master bus, which feeds the speaker or a Drain
package mixer

import (
	"math"
	"sync"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/vi-audio/constant"
)

// Bus mixes streamers behind a decibel gain stage
// It implements device.Output and beep.Streamer
type Bus struct {
	name string

	mu       sync.Mutex
	mixer    beep.Mixer
	decibels float64
}

// NewBus creates a bus at unity gain
func NewBus(name string) *Bus {
	return &Bus{name: name}
}

// Name returns the bus label
func (b *Bus) Name() string {
	return b.name
}

// Play adds s to the bus, it is removed once drained
func (b *Bus) Play(s beep.Streamer) {
	b.mu.Lock()
	b.mixer.Add(s)
	b.mu.Unlock()
}

// Lock guards streamers already added to the bus
func (b *Bus) Lock() {
	b.mu.Lock()
}

// Unlock releases Lock
func (b *Bus) Unlock() {
	b.mu.Unlock()
}

// Stream mixes all streamers and applies the bus gain
// A bus never drains, it streams silence when empty
func (b *Bus) Stream(samples [][2]float64) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mixer.Len() == 0 {
		clear(samples)
		return len(samples), true
	}
	n, _ := b.mixer.Stream(samples)
	clear(samples[n:])

	gain := DecibelsToLinear(b.decibels)
	if gain == 1 {
		return len(samples), true
	}
	for i := range samples {
		samples[i][0] *= gain
		samples[i][1] *= gain
	}
	return len(samples), true
}

// Err implements beep.Streamer
func (b *Bus) Err() error {
	return nil
}

// SetDecibels sets the bus gain, values below the floor mute it
func (b *Bus) SetDecibels(db float64) {
	b.mu.Lock()
	b.decibels = clampDecibels(db)
	b.mu.Unlock()
}

// Decibels returns the bus gain
func (b *Bus) Decibels() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.decibels
}

// Len returns the number of streamers on the bus
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mixer.Len()
}

// Clear drops every streamer on the bus
func (b *Bus) Clear() {
	b.mu.Lock()
	b.mixer.Clear()
	b.mu.Unlock()
}

// LinearToDecibels maps a linear volume to dB with a floor at MinDecibels
func LinearToDecibels(v float64) float64 {
	if v <= 0 {
		return constant.MinDecibels
	}
	return clampDecibels(20 * math.Log10(v))
}

// DecibelsToLinear is the inverse of LinearToDecibels, the floor reads as silence
func DecibelsToLinear(db float64) float64 {
	if db <= constant.MinDecibels {
		return 0
	}
	return math.Pow(10, db/20)
}

func clampDecibels(db float64) float64 {
	if math.IsNaN(db) || db < constant.MinDecibels {
		return constant.MinDecibels
	}
	return db
}
