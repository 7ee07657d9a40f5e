package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vi-audio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Audio.Enabled)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 10, cfg.SFX.MaxOverlay)
	assert.Equal(t, 30, cfg.SFX.MaxWorld)
	assert.Equal(t, 10, cfg.SFX.OverlayCapacity)
	assert.Equal(t, 10, cfg.SFX.WorldCapacity)
	assert.Equal(t, 50*time.Millisecond, cfg.SFX.PollInterval)
	assert.False(t, cfg.SFX.Strict)
	assert.True(t, cfg.Music.Loop)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
audio:
  enabled: false
sfx:
  max_overlay: 4
  max_world: 12
  poll_interval: 25ms
  strict: true
music:
  loop: false
  continue_window: 10s
  on_start: title
ambient:
  on_start: wind
mixer:
  bgm: 0.5
  snapshots:
    - name: paused
      levels: {sfx: -80, bgm: -12}
registry:
  path: assets/registry.yaml
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Audio.Enabled)
	assert.Equal(t, 4, cfg.SFX.MaxOverlay)
	assert.Equal(t, 12, cfg.SFX.MaxWorld)
	assert.Equal(t, 25*time.Millisecond, cfg.SFX.PollInterval)
	assert.True(t, cfg.SFX.Strict)
	assert.False(t, cfg.Music.Loop)
	assert.Equal(t, 10*time.Second, cfg.Music.ContinueWindow)
	assert.Equal(t, "title", cfg.Music.OnStart)
	assert.Equal(t, "wind", cfg.Ambient.OnStart)
	assert.InDelta(t, 0.5, cfg.Mixer.BGM, 1e-12)
	assert.InDelta(t, 1.0, cfg.Mixer.Master, 1e-12)
	require.Len(t, cfg.Mixer.Snapshots, 1)
	assert.Equal(t, "paused", cfg.Mixer.Snapshots[0].Name)
	assert.InDelta(t, -12.0, cfg.Mixer.Snapshots[0].Levels["bgm"], 1e-12)
	assert.Equal(t, "assets/registry.yaml", cfg.Registry.Path)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VI_AUDIO_SFX_MAX_WORLD", "7")
	t.Setenv("VI_AUDIO_SFX_POLL_INTERVAL", "10ms")
	t.Setenv("VI_AUDIO_LOG_LEVEL", "warn")

	path := writeConfig(t, "sfx:\n  max_world: 20\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.SFX.MaxWorld)
	assert.Equal(t, 10*time.Millisecond, cfg.SFX.PollInterval)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero overlay ceiling", "sfx:\n  max_overlay: 0\n"},
		{"negative world ceiling", "sfx:\n  max_world: -1\n"},
		{"zero poll", "sfx:\n  poll_interval: 0s\n"},
		{"volume above one", "mixer:\n  sfx: 1.5\n"},
		{"unnamed snapshot", "mixer:\n  snapshots:\n    - levels: {sfx: 0}\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeConfig(t, "sfx: [unterminated"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	logger, err = LogConfig{Level: "debug", Format: "text"}.NewLogger(&buf)
	require.NoError(t, err)
	logger.Debug("trace")
	assert.Contains(t, buf.String(), "msg=trace")

	_, err = LogConfig{Level: "nope"}.NewLogger(&buf)
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = LogConfig{Level: "info", Format: "xml"}.NewLogger(&buf)
	assert.ErrorIs(t, err, ErrInvalid)
}
