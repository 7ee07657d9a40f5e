package audio

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/vi-audio/constant"
	"github.com/lixenwraith/vi-audio/registry"
)

// RegistrySource provides the content registries
type RegistrySource interface {
	Set() *registry.Set
}

// RegistryService loads the content registries as a Service
// An empty path selects the built-in tone registry
type RegistryService struct {
	path   string
	format beep.Format
	logger *slog.Logger
	set    *registry.Set
}

// NewRegistryService creates a registry service reading path at sampleRate
func NewRegistryService(path string, sampleRate int, logger *slog.Logger) *RegistryService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RegistryService{
		path: path,
		format: beep.Format{
			SampleRate:  beep.SampleRate(sampleRate),
			NumChannels: constant.AudioChannels,
			Precision:   constant.AudioPrecision,
		},
		logger: logger.With("module", "registry"),
	}
}

// Name implements Service
func (s *RegistryService) Name() string {
	return "registry"
}

// Dependencies implements Service
func (s *RegistryService) Dependencies() []string {
	return nil
}

// Init implements Service, decoding every clip up front
func (s *RegistryService) Init(args ...any) error {
	var (
		set *registry.Set
		err error
	)
	if s.path == "" {
		set, err = BuiltinSet(s.format)
	} else {
		set, err = registry.Load(s.path, s.format)
	}
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	s.set = set
	s.logger.Info("registry loaded",
		"path", s.path,
		"effects", set.Effects.Len(),
		"music", set.Music.Len(),
		"ambient", set.Ambient.Len())
	return nil
}

// Start implements Service
func (s *RegistryService) Start() error {
	return nil
}

// Stop implements Service
func (s *RegistryService) Stop() error {
	return nil
}

// Set returns the loaded registries, nil before Init
func (s *RegistryService) Set() *registry.Set {
	return s.set
}
