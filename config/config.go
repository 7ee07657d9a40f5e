// Package config loads runtime settings from YAML with VI_AUDIO_* environment overrides
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lixenwraith/vi-audio/constant"
)

// EnvPrefix prefixes environment overrides, e.g. VI_AUDIO_SFX_MAX_WORLD
const EnvPrefix = "VI_AUDIO"

// ErrInvalid reports a setting outside its allowed range
var ErrInvalid = errors.New("invalid config")

// Config is the full runtime configuration
type Config struct {
	Audio    AudioConfig    `mapstructure:"audio"`
	SFX      SFXConfig      `mapstructure:"sfx"`
	Music    MusicConfig    `mapstructure:"music"`
	Ambient  AmbientConfig  `mapstructure:"ambient"`
	Mixer    MixerConfig    `mapstructure:"mixer"`
	Registry RegistryConfig `mapstructure:"registry"`
	Log      LogConfig      `mapstructure:"log"`
}

// AudioConfig controls the output device and tick loop
type AudioConfig struct {
	// Enabled false runs silently, devices still complete via the drain
	Enabled    bool          `mapstructure:"enabled"`
	SampleRate int           `mapstructure:"sample_rate"`
	Buffer     time.Duration `mapstructure:"buffer"`
	Tick       time.Duration `mapstructure:"tick"`
}

// SFXConfig bounds the effect pools
type SFXConfig struct {
	MaxOverlay      int           `mapstructure:"max_overlay"`
	MaxWorld        int           `mapstructure:"max_world"`
	OverlayCapacity int           `mapstructure:"overlay_capacity"`
	WorldCapacity   int           `mapstructure:"world_capacity"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	Strict          bool          `mapstructure:"strict"`
}

// MusicConfig controls background music sequencing
type MusicConfig struct {
	Loop           bool          `mapstructure:"loop"`
	Interval       time.Duration `mapstructure:"interval"`
	ContinueWindow time.Duration `mapstructure:"continue_window"`
	Fade           time.Duration `mapstructure:"fade"`
	OnStart        string        `mapstructure:"on_start"`
}

// AmbientConfig controls the ambient bed
type AmbientConfig struct {
	OnStart string `mapstructure:"on_start"`
}

// MixerConfig holds initial linear group volumes and named snapshots
type MixerConfig struct {
	Master    float64          `mapstructure:"master"`
	BGM       float64          `mapstructure:"bgm"`
	Ambient   float64          `mapstructure:"ambient"`
	SFX       float64          `mapstructure:"sfx"`
	Snapshots []SnapshotConfig `mapstructure:"snapshots"`
}

// SnapshotConfig is a named set of group levels in dB
type SnapshotConfig struct {
	Name   string             `mapstructure:"name"`
	Levels map[string]float64 `mapstructure:"levels"`
}

// RegistryConfig locates the effect registry file
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig selects log level and handler
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// setDefaults registers every key so environment overrides apply to all of them
func setDefaults(v *viper.Viper) {
	v.SetDefault("audio.enabled", true)
	v.SetDefault("audio.sample_rate", constant.AudioSampleRate)
	v.SetDefault("audio.buffer", constant.AudioBufferSize)
	v.SetDefault("audio.tick", constant.TickInterval)

	v.SetDefault("sfx.max_overlay", constant.DefaultMaxOverlay)
	v.SetDefault("sfx.max_world", constant.DefaultMaxWorld)
	v.SetDefault("sfx.overlay_capacity", constant.DefaultOverlayCapacity)
	v.SetDefault("sfx.world_capacity", constant.DefaultWorldCapacity)
	v.SetDefault("sfx.poll_interval", constant.WatchPollInterval)
	v.SetDefault("sfx.strict", false)

	v.SetDefault("music.loop", true)
	v.SetDefault("music.interval", 2*time.Second)
	v.SetDefault("music.continue_window", 30*time.Second)
	v.SetDefault("music.fade", time.Second)
	v.SetDefault("music.on_start", "")

	v.SetDefault("ambient.on_start", "")

	v.SetDefault("mixer.master", 1.0)
	v.SetDefault("mixer.bgm", 0.8)
	v.SetDefault("mixer.ambient", 0.6)
	v.SetDefault("mixer.sfx", 1.0)

	v.SetDefault("registry.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Default returns the configuration with no file and no environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults always decode
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads path if it exists, applies VI_AUDIO_* overrides and validates
// An empty path or a missing file yields the defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting range
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Audio.SampleRate > 0, "audio.sample_rate %d", c.Audio.SampleRate)
	check(c.Audio.Buffer > 0, "audio.buffer %s", c.Audio.Buffer)
	check(c.Audio.Tick > 0, "audio.tick %s", c.Audio.Tick)

	check(c.SFX.MaxOverlay > 0, "sfx.max_overlay %d", c.SFX.MaxOverlay)
	check(c.SFX.MaxWorld > 0, "sfx.max_world %d", c.SFX.MaxWorld)
	check(c.SFX.OverlayCapacity >= 0, "sfx.overlay_capacity %d", c.SFX.OverlayCapacity)
	check(c.SFX.WorldCapacity >= 0, "sfx.world_capacity %d", c.SFX.WorldCapacity)
	check(c.SFX.PollInterval > 0, "sfx.poll_interval %s", c.SFX.PollInterval)

	check(c.Music.Interval >= 0, "music.interval %s", c.Music.Interval)
	check(c.Music.ContinueWindow >= 0, "music.continue_window %s", c.Music.ContinueWindow)
	check(c.Music.Fade >= 0, "music.fade %s", c.Music.Fade)

	for name, vol := range map[string]float64{
		"master":  c.Mixer.Master,
		"bgm":     c.Mixer.BGM,
		"ambient": c.Mixer.Ambient,
		"sfx":     c.Mixer.SFX,
	} {
		check(vol >= 0 && vol <= 1, "mixer.%s %g outside [0,1]", name, vol)
	}
	for i, s := range c.Mixer.Snapshots {
		check(s.Name != "", "mixer.snapshots[%d] has no name", i)
	}

	_, err := ParseLevel(c.Log.Level)
	check(err == nil, "log.level %q", c.Log.Level)
	check(c.Log.Format == "text" || c.Log.Format == "json", "log.format %q", c.Log.Format)

	return errors.Join(errs...)
}

// ParseLevel maps a level name to slog.Level
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return l, nil
}

// NewLogger builds the root logger writing to w
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log.level %q", ErrInvalid, c.Level)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch c.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: log.format %q", ErrInvalid, c.Format)
	}
}
