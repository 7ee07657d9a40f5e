package music

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lixenwraith/vi-audio/clock"
	"github.com/lixenwraith/vi-audio/constant"
	"github.com/lixenwraith/vi-audio/device"
	"github.com/lixenwraith/vi-audio/registry"
)

// Tracks resolves track names
type Tracks interface {
	Lookup(name string) (*registry.TrackInfo, error)
}

// Config controls background music sequencing
type Config struct {
	// Loop restarts a track that played to its end
	Loop bool
	// Interval is the silence between a track ending and its loop restart
	Interval time.Duration
	// ContinueWindow is how long after a stop replaying the same track resumes where it stopped
	// Zero always restarts from the beginning
	ContinueWindow time.Duration
	// OnStart names a track played by Start, empty for none
	OnStart string
	// StartFade fades the OnStart track in
	StartFade time.Duration
}

// resumePoint records where the last track stopped
type resumePoint struct {
	name      string
	stoppedAt time.Time
	position  int
}

// fade ramps the channel volume linearly
type fade struct {
	from, to  float64
	start     time.Time
	dur       time.Duration
	stopAfter bool
}

// Player streams one background track at a time into a bus
type Player struct {
	mu     sync.Mutex
	tracks Tracks
	out    device.Output
	clock  clock.Provider
	logger *slog.Logger
	cfg    Config

	ch        *channel
	track     *registry.TrackInfo
	paused    bool
	fade      *fade
	restartAt time.Time
	resume    resumePoint
}

// NewPlayer creates an idle player writing to out
func NewPlayer(tracks Tracks, out device.Output, cfg Config, clk clock.Provider, logger *slog.Logger) *Player {
	if clk == nil {
		clk = clock.NewTimeProvider()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Player{
		tracks: tracks,
		out:    out,
		clock:  clk,
		logger: logger.With("module", "music"),
		cfg:    cfg,
	}
}

// Start plays the configured OnStart track, if any
func (p *Player) Start() error {
	if p.cfg.OnStart == "" {
		return nil
	}
	return p.PlayFade(p.cfg.OnStart, p.cfg.StartFade)
}

// Play starts name at full volume
func (p *Player) Play(name string) error {
	return p.PlayFade(name, 0)
}

// PlayFade starts name, fading in over d
// A playing track is stopped first, so replaying the current track restarts it
// Replaying the last stopped track within the continue window resumes where it stopped
func (p *Player) PlayFade(name string, d time.Duration) error {
	info, err := p.tracks.Lookup(name)
	if err != nil {
		p.logger.Error("unknown music track", "track", name, "error", err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	p.stopLocked(now)

	from := 0
	if p.resumable(name, now) {
		from = p.resume.position
	}

	volume := info.Volume()
	start := volume
	if d > 0 {
		start = 0
		p.fade = &fade{from: 0, to: volume, start: now, dur: d}
	}
	p.ch = startChannel(p.out, info.Clip, from, start)
	p.track = info
	p.logger.Debug("music started", "track", name, "from", info.Clip.Format().SampleRate.D(from), "fade", d)
	return nil
}

// resumable reports whether name can continue from the recorded stop position
func (p *Player) resumable(name string, now time.Time) bool {
	if p.cfg.ContinueWindow <= 0 || p.resume.name != name {
		return false
	}
	return now.Sub(p.resume.stoppedAt) <= p.cfg.ContinueWindow
}

// Stop ends the current track, fading out over d
// The resume point is taken at the call, not when the fade completes
func (p *Player) Stop(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		return
	}
	now := p.clock.Now()
	if d <= 0 || p.paused {
		p.stopLocked(now)
		return
	}

	cur := p.track.Volume()
	if p.fade != nil {
		cur = p.fadeLevel(now)
	}
	p.recordLocked(now)
	p.fade = &fade{from: cur, to: 0, start: now, dur: d, stopAfter: true}
}

// stopLocked records the resume point and detaches the channel
func (p *Player) stopLocked(now time.Time) {
	if p.ch != nil {
		p.recordLocked(now)
	}
	p.detachLocked()
}

// recordLocked remembers the current track and offset for a later resume
// A track stopped within the end lead resumes from the beginning
func (p *Player) recordLocked(now time.Time) {
	pos := p.ch.position()
	lead := p.track.Clip.Format().SampleRate.N(constant.MusicEndLead)
	if p.ch.finished() || pos >= p.track.Clip.Len()-lead {
		pos = 0
	}
	p.resume = resumePoint{name: p.track.Name, stoppedAt: now, position: pos}
}

func (p *Player) detachLocked() {
	p.fade = nil
	p.restartAt = time.Time{}
	p.paused = false
	if p.ch == nil {
		return
	}
	p.ch.stop()
	p.ch = nil
	p.track = nil
}

// Pause holds the current track in place
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.paused {
		return
	}
	p.paused = true
	p.ch.setPaused(true)
}

// Resume continues a paused track
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resumeLocked()
}

func (p *Player) resumeLocked() {
	if p.ch == nil || !p.paused {
		return
	}
	p.paused = false
	p.ch.setPaused(false)
}

// Current returns the playing track name, empty when idle
func (p *Player) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track == nil {
		return ""
	}
	return p.track.Name
}

// Paused reports whether the current track is paused
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Position returns the playback offset into the current track
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return 0
	}
	return p.track.Clip.Format().SampleRate.D(p.ch.position())
}

// Tick advances fades and handles track end
func (p *Player) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.paused {
		return
	}
	now := p.clock.Now()

	if p.fade != nil {
		level := p.fadeLevel(now)
		if now.Sub(p.fade.start) >= p.fade.dur {
			stop := p.fade.stopAfter
			p.fade = nil
			if stop {
				p.detachLocked()
				return
			}
		}
		p.ch.setVolume(level)
	}

	if !p.ch.finished() {
		return
	}

	if !p.cfg.Loop {
		p.logger.Debug("music ended", "track", p.track.Name)
		p.stopLocked(now)
		return
	}
	if p.restartAt.IsZero() {
		p.restartAt = now.Add(p.cfg.Interval)
	}
	if now.Before(p.restartAt) {
		return
	}

	p.restartAt = time.Time{}
	p.ch.stop()
	p.ch = startChannel(p.out, p.track.Clip, 0, p.track.Volume())
	p.logger.Debug("music looped", "track", p.track.Name)
}

func (p *Player) fadeLevel(now time.Time) float64 {
	t := float64(now.Sub(p.fade.start)) / float64(p.fade.dur)
	t = max(0, min(1, t))
	return p.fade.from + (p.fade.to-p.fade.from)*t
}
