package audio

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lixenwraith/vi-audio/config"
	"github.com/lixenwraith/vi-audio/core"
	"github.com/lixenwraith/vi-audio/mixer"
	"github.com/lixenwraith/vi-audio/registry"
	"github.com/lixenwraith/vi-audio/service"
	"github.com/lixenwraith/vi-audio/sfx"
	"github.com/lixenwraith/vi-audio/vmath"
)

type fakeSpeaker struct {
	mu         sync.Mutex
	err        error
	sampleRate beep.SampleRate
	bufferSize int
	played     beep.Streamer
	closed     int
}

func (f *fakeSpeaker) Init(sr beep.SampleRate, bufferSize int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sampleRate = sr
	f.bufferSize = bufferSize
	return nil
}

func (f *fakeSpeaker) Play(s beep.Streamer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = s
}

func (f *fakeSpeaker) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

type staticSource struct{ set *registry.Set }

func (s staticSource) Set() *registry.Set { return s.set }

func newHub(t *testing.T, cfg *config.Config, spk Speaker) (*service.Hub, *AudioService) {
	t.Helper()
	reg := NewRegistryService(cfg.Registry.Path, cfg.Audio.SampleRate, nil)
	svc := NewService(cfg, reg, Options{Speaker: spk})

	hub := service.NewHub()
	require.NoError(t, hub.Register(svc))
	require.NoError(t, hub.Register(reg))
	return hub, svc
}

func TestServiceSilentEndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := config.Default()
	cfg.Audio.Enabled = false
	cfg.Music.OnStart = "theme"
	cfg.Ambient.OnStart = "hum"
	spk := &fakeSpeaker{}
	hub, svc := newHub(t, cfg, spk)

	require.NoError(t, hub.InitAll())
	require.NoError(t, hub.StartAll())

	assert.True(t, svc.IsSilent())
	assert.True(t, svc.IsRunning())
	assert.Nil(t, spk.played)
	require.NotNil(t, svc.Drain())
	assert.Equal(t, "theme", svc.Music().Current())
	assert.Equal(t, "hum", svc.Ambient().Current())

	out, err := svc.Dispatcher().PlayOverlay("click")
	require.NoError(t, err)
	assert.Equal(t, sfx.OutcomePlayed, out)

	assert.Eventually(t, func() bool {
		return svc.Dispatcher().Stats(core.CategoryOverlay).Pool.InUse == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Positive(t, svc.Drain().Pulled())

	require.NoError(t, hub.StopAll())
	assert.False(t, svc.IsRunning())
	require.NoError(t, svc.Stop())

	_, err = svc.Dispatcher().PlayOverlay("click")
	assert.ErrorIs(t, err, sfx.ErrClosed)
	assert.Equal(t, 0, spk.closed)
}

func TestServiceSpeakerOutput(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := config.Default()
	spk := &fakeSpeaker{}
	hub, svc := newHub(t, cfg, spk)

	require.NoError(t, hub.InitAll())
	require.NoError(t, hub.StartAll())

	assert.False(t, svc.IsSilent())
	assert.Nil(t, svc.Drain())
	sr := beep.SampleRate(cfg.Audio.SampleRate)
	assert.Equal(t, sr, spk.sampleRate)
	assert.Equal(t, sr.N(cfg.Audio.Buffer), spk.bufferSize)
	require.Same(t, svc.Mixer().Master(), spk.played)

	out, err := svc.Dispatcher().PlayWorld("hit", "player", vmath.Vec3F{X: 1})
	require.NoError(t, err)
	assert.Equal(t, sfx.OutcomePlayed, out)

	// Pull the master bus as the speaker would
	buf := make([][2]float64, sr.N(200*time.Millisecond))
	spk.played.Stream(buf)

	assert.Eventually(t, func() bool {
		return svc.Dispatcher().Stats(core.CategoryWorld).Pool.InUse == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.StopAll())
	assert.Equal(t, 1, spk.closed)
}

func TestServiceSpeakerFailureFallsBackToSilent(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := config.Default()
	spk := &fakeSpeaker{err: errors.New("no output device")}
	hub, svc := newHub(t, cfg, spk)

	require.NoError(t, hub.InitAll())
	require.NoError(t, hub.StartAll())

	assert.True(t, svc.IsSilent())
	require.NotNil(t, svc.Drain())

	out, err := svc.Dispatcher().PlayOverlay("coin")
	require.NoError(t, err)
	assert.Equal(t, sfx.OutcomePlayed, out)

	require.NoError(t, hub.StopAll())
	assert.Equal(t, 0, spk.closed)
}

func TestServiceMutedArgument(t *testing.T) {
	defer goleak.VerifyNone(t)

	spk := &fakeSpeaker{}
	hub, svc := newHub(t, config.Default(), spk)

	require.NoError(t, hub.InitAll(true))
	require.NoError(t, hub.StartAll())
	assert.True(t, svc.IsSilent())
	assert.Nil(t, spk.played)
	require.NoError(t, hub.StopAll())
}

func TestServiceAppliesMixerConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Mixer.BGM = 0.5
	cfg.Mixer.Snapshots = []config.SnapshotConfig{
		{Name: "paused", Levels: map[string]float64{"sfx": -80, "bgm": -12}},
	}
	hub, svc := newHub(t, cfg, &fakeSpeaker{})
	require.NoError(t, hub.InitAll())

	assert.InDelta(t, 0.5, svc.Mixer().Volume(mixer.GroupBGM), 1e-9)
	assert.Equal(t, []string{"paused"}, svc.Mixer().Snapshots())

	require.NoError(t, svc.Mixer().TransitionTo("paused", 0))
	assert.Equal(t, 0.0, svc.Mixer().Volume(mixer.GroupSFX))
}

func TestServiceRejectsUnknownSnapshotGroup(t *testing.T) {
	cfg := config.Default()
	cfg.Mixer.Snapshots = []config.SnapshotConfig{
		{Name: "bad", Levels: map[string]float64{"voice": 0}},
	}
	hub, _ := newHub(t, cfg, &fakeSpeaker{})
	assert.ErrorIs(t, hub.InitAll(), mixer.ErrUnknownGroup)
}

func TestServiceLifecycleErrors(t *testing.T) {
	svc := NewService(config.Default(), staticSource{}, Options{Speaker: &fakeSpeaker{}})

	assert.ErrorIs(t, svc.Start(), ErrNotInitialized)
	assert.ErrorIs(t, svc.Init(), ErrNotInitialized)
	assert.Equal(t, "audio", svc.Name())
	assert.Equal(t, []string{"registry"}, svc.Dependencies())
	require.NoError(t, svc.Stop())
}

func TestServiceEmitter(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := config.Default()
	cfg.Audio.Enabled = false
	hub, svc := newHub(t, cfg, &fakeSpeaker{})
	require.NoError(t, hub.InitAll())
	require.NoError(t, hub.StartAll())
	defer func() { require.NoError(t, hub.StopAll()) }()

	e := svc.Emitter("enemy-1", func() vmath.Vec3F { return vmath.Vec3F{X: 3, Y: 4} })
	out, err := e.PlayWorld("alarm")
	require.NoError(t, err)
	assert.Equal(t, sfx.OutcomePlayed, out)

	// alarm keeps the instance already sounding for this origin
	out, err = e.PlayWorld("alarm")
	require.NoError(t, err)
	assert.Equal(t, sfx.OutcomeSuppressed, out)
	assert.True(t, svc.Dispatcher().Tracked(core.CategoryWorld, sfx.DuplicateKey{Origin: "enemy-1", Effect: "alarm"}))

	other := svc.Emitter("enemy-2", nil)
	out, err = other.PlayWorld("alarm")
	require.NoError(t, err)
	assert.Equal(t, sfx.OutcomePlayed, out)
}

func TestRegistryServiceBuiltin(t *testing.T) {
	reg := NewRegistryService("", 44100, nil)
	assert.Nil(t, reg.Set())
	assert.Equal(t, "registry", reg.Name())
	assert.Empty(t, reg.Dependencies())

	require.NoError(t, reg.Init())
	require.NoError(t, reg.Start())
	require.NoError(t, reg.Stop())

	set := reg.Set()
	require.NotNil(t, set)
	assert.Equal(t, []string{"alarm", "click", "coin", "explosion", "hit", "step"}, set.Effects.Names())
	assert.Equal(t, []string{"battle", "theme"}, set.Music.Names())
	assert.Equal(t, []string{"hum"}, set.Ambient.Names())

	hit, err := set.Effects.Lookup("hit")
	require.NoError(t, err)
	assert.Equal(t, core.PolicyReplaceWithNew, hit.Policy)
	assert.Len(t, hit.Alternates, 2)
}

func TestRegistryServiceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
effects:
  - name: beep
    policy: keep_old
    main: {tone: {freq: 440, duration: 50ms}}
`), 0o644))

	reg := NewRegistryService(path, 22050, nil)
	require.NoError(t, reg.Init())
	def, err := reg.Set().Effects.Lookup("beep")
	require.NoError(t, err)
	assert.Equal(t, core.PolicyKeepOld, def.Policy)
	assert.Equal(t, beep.SampleRate(22050), def.Main.Clip.Format().SampleRate)

	missing := NewRegistryService(filepath.Join(t.TempDir(), "absent.yaml"), 44100, nil)
	assert.Error(t, missing.Init())
	assert.Nil(t, missing.Set())
}
