package mixer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lixenwraith/vi-audio/clock"
)

// Sentinel errors
var (
	ErrUnknownSnapshot = errors.New("unknown mix snapshot")
	ErrInvalidSnapshot = errors.New("invalid mix snapshot")
	ErrUnknownGroup    = errors.New("unknown mixer group")
)

// Group names a mixer bus
type Group int

const (
	GroupMaster Group = iota
	GroupBGM
	GroupAmbient
	GroupSFX
	GroupCount
)

var groupNames = [GroupCount]string{"master", "bgm", "ambient", "sfx"}

func (g Group) String() string {
	if g >= 0 && g < GroupCount {
		return groupNames[g]
	}
	return fmt.Sprintf("group(%d)", int(g))
}

// ParseGroup maps a group name back to its Group
func ParseGroup(s string) (Group, error) {
	for g, name := range groupNames {
		if name == s {
			return Group(g), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownGroup, s)
}

// Snapshot is a named set of group levels in dB
// Groups missing from Levels keep their level across a transition
type Snapshot struct {
	Name   string
	Levels map[Group]float64
}

// transition interpolates group levels between two points in time
type transition struct {
	from  [GroupCount]float64
	to    [GroupCount]float64
	start time.Time
	dur   time.Duration
}

// Controller owns the group buses and applies snapshots
type Controller struct {
	mu        sync.Mutex
	buses     [GroupCount]*Bus
	clock     clock.Provider
	logger    *slog.Logger
	snapshots map[string]Snapshot
	current   string
	fade      *transition
}

// NewController creates the bus graph with every group feeding master
func NewController(clk clock.Provider, logger *slog.Logger) *Controller {
	if clk == nil {
		clk = clock.NewTimeProvider()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Controller{
		clock:     clk,
		logger:    logger.With("module", "mixer"),
		snapshots: make(map[string]Snapshot),
	}
	for g := Group(0); g < GroupCount; g++ {
		c.buses[g] = NewBus(g.String())
	}
	for g := GroupMaster + 1; g < GroupCount; g++ {
		c.buses[GroupMaster].Play(c.buses[g])
	}
	return c
}

// Bus returns the bus for g, nil for an invalid group
func (c *Controller) Bus(g Group) *Bus {
	if g < 0 || g >= GroupCount {
		return nil
	}
	return c.buses[g]
}

// Master returns the bus carrying the final mix
func (c *Controller) Master() *Bus {
	return c.buses[GroupMaster]
}

// Volume returns the linear volume of g
func (c *Controller) Volume(g Group) float64 {
	b := c.Bus(g)
	if b == nil {
		return 0
	}
	return DecibelsToLinear(b.Decibels())
}

// SetVolume sets g from a linear volume in [0,1], cancelling any fade in progress
func (c *Controller) SetVolume(g Group, v float64) {
	b := c.Bus(g)
	if b == nil {
		return
	}
	v = max(0, min(1, v))

	c.mu.Lock()
	c.fade = nil
	c.mu.Unlock()

	b.SetDecibels(LinearToDecibels(v))
}

// AddSnapshot registers s for later transitions
func (c *Controller) AddSnapshot(s Snapshot) error {
	if s.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSnapshot)
	}
	for g := range s.Levels {
		if g < 0 || g >= GroupCount {
			return fmt.Errorf("%w: %q has invalid group %d", ErrInvalidSnapshot, s.Name, int(g))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[s.Name] = s
	return nil
}

// Snapshots returns registered snapshot names, sorted
func (c *Controller) Snapshots() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.snapshots))
	for name := range c.snapshots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TransitionTo moves toward snapshot name over fade, immediately when fade is zero
func (c *Controller) TransitionTo(name string, fade time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.snapshots[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSnapshot, name)
	}

	var from, to [GroupCount]float64
	for g := Group(0); g < GroupCount; g++ {
		from[g] = c.buses[g].Decibels()
		to[g] = from[g]
		if db, ok := s.Levels[g]; ok {
			to[g] = clampDecibels(db)
		}
	}

	c.current = name
	c.logger.Debug("snapshot transition", "snapshot", name, "fade", fade)

	if fade <= 0 {
		c.fade = nil
		c.apply(to)
		return nil
	}
	c.fade = &transition{from: from, to: to, start: c.clock.Now(), dur: fade}
	return nil
}

// Current returns the last snapshot transitioned to
func (c *Controller) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Fading reports whether a transition is in progress
func (c *Controller) Fading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fade != nil
}

// Tick advances a transition in progress
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fade == nil {
		return
	}

	t := float64(c.clock.Now().Sub(c.fade.start)) / float64(c.fade.dur)
	if t >= 1 {
		c.apply(c.fade.to)
		c.fade = nil
		return
	}
	if t < 0 {
		t = 0
	}

	var levels [GroupCount]float64
	for g := range levels {
		levels[g] = c.fade.from[g] + (c.fade.to[g]-c.fade.from[g])*t
	}
	c.apply(levels)
}

func (c *Controller) apply(levels [GroupCount]float64) {
	for g, db := range levels {
		c.buses[g].SetDecibels(db)
	}
}
