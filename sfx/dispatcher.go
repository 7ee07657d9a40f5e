// Package sfx dispatches named sound effects onto pooled playback devices
//
// Two pools exist, overlay (non-positional) and world (positioned, scoped to an origin).
// Duplicate triggers of a tracked effect are resolved before any device is acquired.
// A completion watch per playing device returns it to its pool once rendering ends.
package sfx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/lixenwraith/vi-audio/clock"
	"github.com/lixenwraith/vi-audio/constant"
	"github.com/lixenwraith/vi-audio/core"
	"github.com/lixenwraith/vi-audio/device"
	"github.com/lixenwraith/vi-audio/pool"
	"github.com/lixenwraith/vi-audio/registry"
	"github.com/lixenwraith/vi-audio/vmath"
)

// Registry resolves effect names
type Registry interface {
	Lookup(name string) (*registry.Definition, error)
}

// Config bounds the pools and the watch cadence, fixed at construction
type Config struct {
	MaxOverlay int
	MaxWorld   int
	// OverlayCapacity and WorldCapacity pre-size each pool, clamped to its ceiling
	OverlayCapacity int
	WorldCapacity   int
	PollInterval    time.Duration
	// Strict panics on unknown effects, for development builds
	Strict bool
}

// DefaultConfig returns the stock ceilings
func DefaultConfig() Config {
	return Config{
		MaxOverlay:      constant.DefaultMaxOverlay,
		MaxWorld:        constant.DefaultMaxWorld,
		OverlayCapacity: constant.DefaultOverlayCapacity,
		WorldCapacity:   constant.DefaultWorldCapacity,
		PollInterval:    constant.WatchPollInterval,
	}
}

// Options carries the dispatcher's dependencies
// Registry and Factory are required, the rest default
type Options struct {
	Registry Registry
	Factory  device.Factory
	Config   Config
	Clock    clock.Provider
	Rand     *rand.Rand
	Logger   *slog.Logger
	Recorder Recorder
}

// watch tracks one playing device until it stops rendering
type watch struct {
	handle  *pool.Handle[device.Device]
	key     DuplicateKey
	tracked bool
	due     time.Time
}

// lane is the per-category state: one pool, its duplicate map and its watches
type lane struct {
	cat     core.Category
	pool    *pool.Pool[device.Device]
	tracker *tracker
	watches map[uint64]*watch
}

// Stats is a per-category view of dispatcher state
type Stats struct {
	Pool    pool.Stats
	Watches int
	Tracked int
}

// Dispatcher plays effects from a registry on pooled devices
type Dispatcher struct {
	mu       sync.Mutex
	lanes    [core.CategoryCount]*lane
	registry Registry
	cfg      Config
	clock    clock.Provider
	rng      *rand.Rand
	logger   *slog.Logger
	recorder Recorder

	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// New creates a dispatcher with empty pools, devices are created on demand
func New(opts Options) (*Dispatcher, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("%w: nil registry", ErrConfig)
	}
	if opts.Factory == nil {
		return nil, fmt.Errorf("%w: nil device factory", ErrConfig)
	}
	cfg := opts.Config
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = constant.WatchPollInterval
	}

	d := &Dispatcher{
		registry: opts.Registry,
		cfg:      cfg,
		clock:    opts.Clock,
		rng:      opts.Rand,
		logger:   opts.Logger,
		recorder: opts.Recorder,
		done:     make(chan struct{}),
	}
	if d.clock == nil {
		d.clock = clock.NewTimeProvider()
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d.logger = d.logger.With("module", "sfx")
	if d.recorder == nil {
		d.recorder = nopRecorder{}
	}

	ceilings := [core.CategoryCount]int{
		core.CategoryOverlay: cfg.MaxOverlay,
		core.CategoryWorld:   cfg.MaxWorld,
	}
	capacities := [core.CategoryCount]int{
		core.CategoryOverlay: cfg.OverlayCapacity,
		core.CategoryWorld:   cfg.WorldCapacity,
	}
	for cat := core.Category(0); cat < core.CategoryCount; cat++ {
		p, err := newDevicePool(cat, ceilings[cat], capacities[cat], opts.Factory)
		if err != nil {
			for _, l := range d.lanes[:cat] {
				l.pool.Destroy()
			}
			return nil, fmt.Errorf("%w: %s pool: %v", ErrConfig, cat, err)
		}
		d.lanes[cat] = &lane{
			cat:     cat,
			pool:    p,
			tracker: newTracker(),
			watches: make(map[uint64]*watch),
		}
	}

	return d, nil
}

// newDevicePool binds device activation to the pool lifecycle
func newDevicePool(cat core.Category, max, capacity int, factory device.Factory) (*pool.Pool[device.Device], error) {
	return pool.New(pool.Config{Max: max, DefaultCapacity: capacity}, pool.Hooks[device.Device]{
		Create: func() (device.Device, error) {
			return factory(cat)
		},
		OnAcquire: func(dev device.Device) {
			dev.SetEnabled(true)
		},
		OnRelease: func(dev device.Device) {
			dev.Stop()
			dev.SetEnabled(false)
		},
		OnDestroy: func(dev device.Device) {
			dev.Close()
		},
	})
}

// PlayOverlay plays a non-positional effect
func (d *Dispatcher) PlayOverlay(name string) (Outcome, error) {
	return d.play(core.CategoryOverlay, DuplicateKey{Effect: name}, vmath.Vec3F{})
}

// PlayWorld plays an effect at pos with duplicate tracking scoped to origin
func (d *Dispatcher) PlayWorld(name, origin string, pos vmath.Vec3F) (Outcome, error) {
	return d.play(core.CategoryWorld, DuplicateKey{Origin: origin, Effect: name}, pos)
}

func (d *Dispatcher) play(cat core.Category, key DuplicateKey, pos vmath.Vec3F) (Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return OutcomeDropped, ErrClosed
	}

	def, err := d.registry.Lookup(key.Effect)
	if err != nil {
		d.recorder.UnknownEffect(cat)
		d.logger.Error("unknown sound effect", "effect", key.Effect, "category", cat.String(), "error", err)
		if d.cfg.Strict {
			panic(fmt.Sprintf("sfx: %v", err))
		}
		return OutcomeDropped, err
	}

	l := d.lanes[cat]
	tracked := def.Policy != core.PolicyPlayAll

	if tracked {
		if w, ok := l.tracker.get(key); ok {
			switch def.Policy {
			case core.PolicyKeepOld:
				d.recorder.Outcome(cat, OutcomeSuppressed)
				d.logger.Debug("duplicate suppressed", "effect", key.Effect, "origin", key.Origin)
				return OutcomeSuppressed, nil
			case core.PolicyReplaceWithNew:
				d.start(w.handle.Value(), def, pos)
				w.due = d.clock.Now().Add(d.cfg.PollInterval)
				d.recorder.Outcome(cat, OutcomeRetriggered)
				return OutcomeRetriggered, nil
			}
		}
	}

	h, err := l.pool.Acquire()
	if err != nil {
		d.recorder.Outcome(cat, OutcomeDropped)
		if errors.Is(err, pool.ErrExhausted) {
			d.logger.Debug("pool exhausted, effect dropped", "effect", key.Effect, "category", cat.String())
			return OutcomeDropped, nil
		}
		d.logger.Warn("device acquire failed", "effect", key.Effect, "category", cat.String(), "error", err)
		return OutcomeDropped, err
	}

	d.start(h.Value(), def, pos)

	w := &watch{
		handle:  h,
		key:     key,
		tracked: tracked,
		due:     d.clock.Now().Add(d.cfg.PollInterval),
	}
	l.watches[h.ID()] = w
	if tracked {
		l.tracker.put(key, w)
	}

	d.recorder.Outcome(cat, OutcomePlayed)
	d.recorder.InUse(cat, l.pool.Stats().InUse)
	return OutcomePlayed, nil
}

// start configures dev with a freshly drawn variant and (re)starts it
func (d *Dispatcher) start(dev device.Device, def *registry.Definition, pos vmath.Vec3F) {
	v := selectVariant(d.rng, def)
	dev.Configure(v.Clip, v.Volume(), jitterPitch(d.rng, v.Pitch), pos)
	dev.Start()
}

// Tick checks every due watch and reclaims devices that stopped rendering
// Returns the number of devices released
func (d *Dispatcher) Tick() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0
	}

	now := d.clock.Now()
	released := 0
	for _, l := range d.lanes {
		for id, w := range l.watches {
			if now.Before(w.due) {
				continue
			}
			if w.handle.Value().IsPlaying() {
				w.due = now.Add(d.cfg.PollInterval)
				continue
			}

			if w.tracked {
				l.tracker.remove(w.key, w)
			}
			delete(l.watches, id)
			if l.pool.Release(w.handle) {
				released++
				d.recorder.Released(l.cat)
			}
		}
		d.recorder.InUse(l.cat, l.pool.Stats().InUse)
	}
	return released
}

// Run ticks every poll interval until ctx is done or Close is called
func (d *Dispatcher) Run(ctx context.Context) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case <-ticker.C:
			d.Tick()
		}
	}
}

// Close cancels outstanding watches without releasing them, then destroys both pools
// Waits for Run to return, safe to call more than once
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.done)

	for _, l := range d.lanes {
		for id, w := range l.watches {
			w.handle.Value().Stop()
			delete(l.watches, id)
		}
		l.tracker.clear()
		l.pool.Destroy()
		d.recorder.InUse(l.cat, 0)
	}
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Debug("dispatcher closed")
}

// Stats returns a snapshot for cat
func (d *Dispatcher) Stats(cat core.Category) Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cat < 0 || cat >= core.CategoryCount {
		return Stats{}
	}
	l := d.lanes[cat]
	return Stats{
		Pool:    l.pool.Stats(),
		Watches: len(l.watches),
		Tracked: l.tracker.len(),
	}
}

// Positions returns the carried position of every playing instance in cat, oldest device first
func (d *Dispatcher) Positions(cat core.Category) []vmath.Vec3F {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cat < 0 || cat >= core.CategoryCount {
		return nil
	}
	l := d.lanes[cat]
	ids := make([]uint64, 0, len(l.watches))
	for id := range l.watches {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]vmath.Vec3F, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.watches[id].handle.Value().Position())
	}
	return out
}

// Tracked reports whether key currently has an audible tracked instance
func (d *Dispatcher) Tracked(cat core.Category, key DuplicateKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cat < 0 || cat >= core.CategoryCount {
		return false
	}
	_, ok := d.lanes[cat].tracker.get(key)
	return ok
}
