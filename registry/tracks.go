package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lixenwraith/vi-audio/clip"
)

// TrackInfo is a single-stream entry, used for background music and ambient loops
type TrackInfo struct {
	Name         string
	Clip         *clip.Clip
	VolumeAdjust float64
}

// Volume returns the playback volume of the track
func (t *TrackInfo) Volume() float64 {
	return 1 + t.VolumeAdjust
}

// Tracks is a name-keyed table of TrackInfo
// Kind labels errors ("music", "ambient")
type Tracks struct {
	kind   string
	mu     sync.RWMutex
	tracks map[string]*TrackInfo
}

// NewTracks creates an empty track table
func NewTracks(kind string) *Tracks {
	return &Tracks{
		kind:   kind,
		tracks: make(map[string]*TrackInfo),
	}
}

// Register adds a track
func (t *Tracks) Register(info *TrackInfo) error {
	if info == nil || info.Name == "" {
		return fmt.Errorf("%w: %s track without name", ErrInvalidDefinition, t.kind)
	}
	if info.Clip == nil {
		return fmt.Errorf("%w: %s track %q has no clip", ErrInvalidDefinition, t.kind, info.Name)
	}
	if info.VolumeAdjust < -1 || info.VolumeAdjust > 1 {
		return fmt.Errorf("%w: %s track %q volume adjust outside [-1,1]", ErrInvalidDefinition, t.kind, info.Name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.tracks[info.Name]; exists {
		return fmt.Errorf("%w: %s track %q", ErrDuplicateName, t.kind, info.Name)
	}
	t.tracks[info.Name] = info
	return nil
}

// Lookup returns the track registered under name
func (t *Tracks) Lookup(name string) (*TrackInfo, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, ok := t.tracks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownTrack, t.kind, name)
	}
	return info, nil
}

// Names returns registered track names, sorted
func (t *Tracks) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.tracks))
	for name := range t.tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tracks
func (t *Tracks) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.tracks)
}
