// Package audio wires the mixer, effect dispatcher and music players into one Service
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/vi-audio/clock"
	"github.com/lixenwraith/vi-audio/config"
	"github.com/lixenwraith/vi-audio/constant"
	"github.com/lixenwraith/vi-audio/core"
	"github.com/lixenwraith/vi-audio/device"
	"github.com/lixenwraith/vi-audio/mixer"
	"github.com/lixenwraith/vi-audio/music"
	"github.com/lixenwraith/vi-audio/registry"
	"github.com/lixenwraith/vi-audio/sfx"
	"github.com/lixenwraith/vi-audio/vmath"
)

// ErrNotInitialized is returned by operations that need Init to have run
var ErrNotInitialized = errors.New("audio service not initialized")

// Options are the optional collaborators of the service
type Options struct {
	Logger   *slog.Logger
	Clock    clock.Provider
	Rand     *rand.Rand
	Recorder sfx.Recorder
	// Speaker defaults to the beep speaker
	Speaker Speaker
	// Sink receives the mixed output in silent mode
	Sink io.Writer
}

// AudioService owns the runtime audio graph
// Handles graceful degradation when no output device is available by draining the mix silently
type AudioService struct {
	cfg      *config.Config
	registry RegistrySource
	opts     Options
	logger   *slog.Logger

	mixer      *mixer.Controller
	dispatcher *sfx.Dispatcher
	music      *music.Player
	ambient    *music.Ambient
	drain      *mixer.Drain

	silent     atomic.Bool
	speakerOn  bool
	running    atomic.Bool
	stopOnce   sync.Once
	cancel     context.CancelFunc
	group      *errgroup.Group
	sampleRate beep.SampleRate
}

// NewService creates an audio service reading content from registry
func NewService(cfg *config.Config, registry RegistrySource, opts Options) *AudioService {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewTimeProvider()
	}
	if opts.Speaker == nil {
		opts.Speaker = beepSpeaker{}
	}
	return &AudioService{
		cfg:        cfg,
		registry:   registry,
		opts:       opts,
		logger:     opts.Logger.With("module", "audio"),
		sampleRate: beep.SampleRate(cfg.Audio.SampleRate),
	}
}

// Name implements Service
func (s *AudioService) Name() string {
	return "audio"
}

// Dependencies implements Service
func (s *AudioService) Dependencies() []string {
	return []string{"registry"}
}

// Init implements Service
// args[0]: bool - mute state (true = silent output regardless of config)
func (s *AudioService) Init(args ...any) error {
	if len(args) > 0 {
		if muted, ok := args[0].(bool); ok && muted {
			s.silent.Store(true)
		}
	}
	if !s.cfg.Audio.Enabled {
		s.silent.Store(true)
	}

	set := s.registry.Set()
	if set == nil {
		return fmt.Errorf("%w: registry not loaded", ErrNotInitialized)
	}

	s.mixer = mixer.NewController(s.opts.Clock, s.opts.Logger)
	s.mixer.SetVolume(mixer.GroupMaster, s.cfg.Mixer.Master)
	s.mixer.SetVolume(mixer.GroupBGM, s.cfg.Mixer.BGM)
	s.mixer.SetVolume(mixer.GroupAmbient, s.cfg.Mixer.Ambient)
	s.mixer.SetVolume(mixer.GroupSFX, s.cfg.Mixer.SFX)
	for _, sc := range s.cfg.Mixer.Snapshots {
		snap, err := snapshotFromConfig(sc)
		if err != nil {
			return err
		}
		if err := s.mixer.AddSnapshot(snap); err != nil {
			return err
		}
	}

	sfxBus := s.mixer.Bus(mixer.GroupSFX)
	dispatcher, err := sfx.New(sfx.Options{
		Registry: set.Effects,
		Factory: device.BeepFactory(map[core.Category]device.Output{
			core.CategoryOverlay: sfxBus,
			core.CategoryWorld:   sfxBus,
		}),
		Config: sfx.Config{
			MaxOverlay:      s.cfg.SFX.MaxOverlay,
			MaxWorld:        s.cfg.SFX.MaxWorld,
			OverlayCapacity: s.cfg.SFX.OverlayCapacity,
			WorldCapacity:   s.cfg.SFX.WorldCapacity,
			PollInterval:    s.cfg.SFX.PollInterval,
			Strict:          s.cfg.SFX.Strict,
		},
		Clock:    s.opts.Clock,
		Rand:     s.opts.Rand,
		Logger:   s.opts.Logger,
		Recorder: s.opts.Recorder,
	})
	if err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}
	s.dispatcher = dispatcher

	s.music = music.NewPlayer(set.Music, s.mixer.Bus(mixer.GroupBGM), music.Config{
		Loop:           s.cfg.Music.Loop,
		Interval:       s.cfg.Music.Interval,
		ContinueWindow: s.cfg.Music.ContinueWindow,
		OnStart:        s.cfg.Music.OnStart,
		StartFade:      s.cfg.Music.Fade,
	}, s.opts.Clock, s.opts.Logger)
	s.ambient = music.NewAmbient(set.Ambient, s.mixer.Bus(mixer.GroupAmbient), s.cfg.Ambient.OnStart, s.opts.Logger)

	return nil
}

func snapshotFromConfig(sc config.SnapshotConfig) (mixer.Snapshot, error) {
	snap := mixer.Snapshot{Name: sc.Name, Levels: make(map[mixer.Group]float64, len(sc.Levels))}
	for name, db := range sc.Levels {
		g, err := mixer.ParseGroup(name)
		if err != nil {
			return mixer.Snapshot{}, fmt.Errorf("snapshot %q: %w", sc.Name, err)
		}
		snap.Levels[g] = db
	}
	return snap, nil
}

// Start implements Service
// Opens the speaker, falling back to silent drain on failure, then launches the tick loops
func (s *AudioService) Start() error {
	if s.dispatcher == nil {
		return ErrNotInitialized
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	if !s.silent.Load() {
		bufferSize := s.sampleRate.N(s.cfg.Audio.Buffer)
		if err := s.opts.Speaker.Init(s.sampleRate, bufferSize); err != nil {
			s.logger.Warn("speaker unavailable, running silent", "error", err)
			s.silent.Store(true)
		} else {
			s.opts.Speaker.Play(s.mixer.Master())
			s.speakerOn = true
		}
	}
	if s.silent.Load() {
		s.drain = mixer.NewDrain(s.mixer.Master(), s.sampleRate, constant.DrainInterval, s.opts.Sink)
		s.drain.Start()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	g, ctx := errgroup.WithContext(ctx)
	s.group = g
	g.Go(func() error {
		s.dispatcher.Run(ctx)
		return nil
	})
	g.Go(func() error {
		s.tickLoop(ctx)
		return nil
	})

	if err := s.music.Start(); err != nil {
		s.logger.Error("music on-start failed", "error", err)
	}
	if err := s.ambient.Start(); err != nil {
		s.logger.Error("ambient on-start failed", "error", err)
	}

	s.logger.Info("audio started", "silent", s.silent.Load(), "sample_rate", int(s.sampleRate))
	return nil
}

// tickLoop drives snapshot fades and music sequencing
func (s *AudioService) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Audio.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mixer.Tick()
			s.music.Tick()
			s.ambient.Tick()
		}
	}
}

// Stop implements Service
// Tears down in reverse: loops, dispatcher, players, output
func (s *AudioService) Stop() error {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
			_ = s.group.Wait()
		}
		if s.dispatcher != nil {
			s.dispatcher.Close()
		}
		if s.music != nil {
			s.music.Stop(0)
		}
		if s.ambient != nil {
			s.ambient.Stop()
		}
		if s.drain != nil {
			s.drain.Stop()
		}
		if s.speakerOn {
			s.opts.Speaker.Close()
		}
		s.running.Store(false)
		s.logger.Info("audio stopped")
	})
	return nil
}

// IsSilent reports whether output goes to the drain instead of a speaker
func (s *AudioService) IsSilent() bool {
	return s.silent.Load()
}

// IsRunning reports whether Start has run and Stop has not
func (s *AudioService) IsRunning() bool {
	return s.running.Load()
}

// Dispatcher returns the effect dispatcher, nil before Init
func (s *AudioService) Dispatcher() *sfx.Dispatcher {
	return s.dispatcher
}

// Mixer returns the mixer controller, nil before Init
func (s *AudioService) Mixer() *mixer.Controller {
	return s.mixer
}

// Music returns the background music player, nil before Init
func (s *AudioService) Music() *music.Player {
	return s.music
}

// Ambient returns the ambient player, nil before Init
func (s *AudioService) Ambient() *music.Ambient {
	return s.ambient
}

// Registry returns the content registries the service was built from
func (s *AudioService) Registry() *registry.Set {
	return s.registry.Set()
}

// Drain returns the silent-mode drain, nil when a speaker is in use
func (s *AudioService) Drain() *mixer.Drain {
	return s.drain
}

// Emitter binds an origin and position source to the service's dispatcher and mixer
func (s *AudioService) Emitter(origin string, position func() vmath.Vec3F) *Emitter {
	return NewEmitter(s.dispatcher, s.mixer, origin, position)
}
