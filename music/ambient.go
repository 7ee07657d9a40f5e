package music

import (
	"io"
	"log/slog"
	"sync"

	"github.com/lixenwraith/vi-audio/device"
	"github.com/lixenwraith/vi-audio/registry"
)

// Ambient plays one looping background bed at a time
type Ambient struct {
	mu      sync.Mutex
	tracks  Tracks
	out     device.Output
	logger  *slog.Logger
	onStart string

	ch     *channel
	track  *registry.TrackInfo
	paused bool
}

// NewAmbient creates an idle ambient player writing to out
func NewAmbient(tracks Tracks, out device.Output, onStart string, logger *slog.Logger) *Ambient {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Ambient{
		tracks:  tracks,
		out:     out,
		logger:  logger.With("module", "ambient"),
		onStart: onStart,
	}
}

// Start plays the configured on-start bed, if any
func (a *Ambient) Start() error {
	if a.onStart == "" {
		return nil
	}
	return a.Play(a.onStart)
}

// Play switches to name, replaying the current bed is a no-op
func (a *Ambient) Play(name string) error {
	info, err := a.tracks.Lookup(name)
	if err != nil {
		a.logger.Error("unknown ambient track", "track", name, "error", err)
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.track != nil && a.track.Name == name {
		return nil
	}
	a.stopLocked()
	a.ch = startChannel(a.out, info.Clip, 0, info.Volume())
	a.track = info
	return nil
}

// Stop silences the bed
func (a *Ambient) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *Ambient) stopLocked() {
	if a.ch != nil {
		a.ch.stop()
	}
	a.ch = nil
	a.track = nil
	a.paused = false
}

// Pause holds the bed in place
func (a *Ambient) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ch == nil || a.paused {
		return
	}
	a.paused = true
	a.ch.setPaused(true)
}

// Resume continues a paused bed
func (a *Ambient) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ch == nil || !a.paused {
		return
	}
	a.paused = false
	a.ch.setPaused(false)
}

// Current returns the playing bed name, empty when idle
func (a *Ambient) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.track == nil {
		return ""
	}
	return a.track.Name
}

// Tick restarts a bed that reached its end
func (a *Ambient) Tick() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ch == nil || a.paused || !a.ch.finished() {
		return
	}
	a.ch.stop()
	a.ch = startChannel(a.out, a.track.Clip, 0, a.track.Volume())
}
