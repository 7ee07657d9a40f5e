// Package registry maps effect and track names to their authored playback data
// Registries are filled at load time and read-only during playback
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lixenwraith/vi-audio/clip"
	"github.com/lixenwraith/vi-audio/core"
)

// Sentinel errors
var (
	ErrUnknownEffect     = errors.New("unknown sound effect")
	ErrUnknownTrack      = errors.New("unknown track")
	ErrDuplicateName     = errors.New("duplicate registry name")
	ErrInvalidDefinition = errors.New("invalid definition")
)

// PitchRange is the additive jitter around unity pitch
type PitchRange struct {
	Min, Max float64
}

// Variant is one playable rendition of an effect
type Variant struct {
	Clip         *clip.Clip
	VolumeAdjust float64
	Pitch        PitchRange
}

// Volume returns the device volume for this variant
func (v Variant) Volume() float64 {
	return 1 + v.VolumeAdjust
}

// Definition describes a named effect
type Definition struct {
	Name       string
	Main       Variant
	Alternates []Variant
	Policy     core.Policy
}

// Validate checks the authoring constraints of a definition
func (d *Definition) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil definition", ErrInvalidDefinition)
	}
	if d.Name == "" {
		return fmt.Errorf("%w: empty effect name", ErrInvalidDefinition)
	}
	if d.Main.Clip == nil {
		return fmt.Errorf("%w: effect %q has no main clip", ErrInvalidDefinition, d.Name)
	}
	if err := validateVariant(d.Main); err != nil {
		return fmt.Errorf("%w: effect %q main: %v", ErrInvalidDefinition, d.Name, err)
	}
	for i, alt := range d.Alternates {
		if alt.Clip == nil {
			return fmt.Errorf("%w: effect %q alternate %d has no clip", ErrInvalidDefinition, d.Name, i)
		}
		if err := validateVariant(alt); err != nil {
			return fmt.Errorf("%w: effect %q alternate %d: %v", ErrInvalidDefinition, d.Name, i, err)
		}
	}
	switch d.Policy {
	case core.PolicyPlayAll, core.PolicyKeepOld, core.PolicyReplaceWithNew:
	default:
		return fmt.Errorf("%w: effect %q has %s", ErrInvalidDefinition, d.Name, d.Policy)
	}
	return nil
}

func validateVariant(v Variant) error {
	if v.VolumeAdjust < -1 || v.VolumeAdjust > 1 {
		return fmt.Errorf("volume adjust %.3f outside [-1,1]", v.VolumeAdjust)
	}
	if v.Pitch.Min > v.Pitch.Max {
		return fmt.Errorf("pitch range [%.3f,%.3f] inverted", v.Pitch.Min, v.Pitch.Max)
	}
	if 1+v.Pitch.Min <= 0 {
		return fmt.Errorf("pitch range min %.3f stops playback", v.Pitch.Min)
	}
	return nil
}

// Effects is the sound effect registry
type Effects struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewEffects creates a registry seeded with defs
func NewEffects(defs ...*Definition) (*Effects, error) {
	e := &Effects{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		if err := e.Register(d); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Register adds a validated definition
func (e *Effects) Register(d *Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.defs[d.Name]; exists {
		return fmt.Errorf("%w: effect %q", ErrDuplicateName, d.Name)
	}
	e.defs[d.Name] = d
	return nil
}

// Lookup returns the definition registered under name
func (e *Effects) Lookup(name string) (*Definition, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	d, ok := e.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, name)
	}
	return d, nil
}

// Names returns all registered effect names, sorted
func (e *Effects) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.defs))
	for name := range e.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered effects
func (e *Effects) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.defs)
}
