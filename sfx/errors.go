package sfx

import (
	"errors"

	"github.com/lixenwraith/vi-audio/registry"
)

// Sentinel errors
var (
	// ErrUnknownEffect is returned for names missing from the registry
	ErrUnknownEffect = registry.ErrUnknownEffect
	ErrClosed        = errors.New("sfx dispatcher closed")
	ErrConfig        = errors.New("invalid sfx config")
)
