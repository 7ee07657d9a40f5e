// Package pool provides a bounded pool of reusable values
// Values are created lazily up to a ceiling; acquisition past the ceiling is refused rather than queued
package pool

import (
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors
var (
	// ErrExhausted reports every value up to the ceiling is in use
	// Callers treat it as admission control, not failure
	ErrExhausted = errors.New("pool exhausted")
	ErrDestroyed = errors.New("pool destroyed")
	ErrConfig    = errors.New("invalid pool config")
)

// Config bounds a pool
type Config struct {
	// Max is the ceiling on live values, free or in use
	Max int
	// DefaultCapacity pre-sizes internal storage, no values are created up front
	DefaultCapacity int
}

// Hooks are the lifecycle callbacks of pooled values
// Create is required, the rest are optional
type Hooks[T any] struct {
	Create    func() (T, error)
	OnAcquire func(T)
	OnRelease func(T)
	OnDestroy func(T)
}

// Handle is the pool's record of one value
// Only the pool mutates it; callers read Value and ID
type Handle[T any] struct {
	id    uint64
	value T
	inUse bool
	owner *Pool[T]
}

// Value returns the pooled value
func (h *Handle[T]) Value() T {
	return h.value
}

// ID returns a pool-unique identifier, stable for the handle's lifetime
func (h *Handle[T]) ID() uint64 {
	return h.id
}

// Stats is a point-in-time view of pool occupancy
type Stats struct {
	Live  int
	InUse int
	Free  int
	Max   int
}

// Pool hands out reusable values bounded by Config.Max
type Pool[T any] struct {
	mu        sync.Mutex
	cfg       Config
	hooks     Hooks[T]
	all       []*Handle[T]
	free      []*Handle[T]
	inUse     int
	nextID    uint64
	destroyed bool
}

// New creates an empty pool
func New[T any](cfg Config, hooks Hooks[T]) (*Pool[T], error) {
	if cfg.Max <= 0 {
		return nil, fmt.Errorf("%w: max %d", ErrConfig, cfg.Max)
	}
	if hooks.Create == nil {
		return nil, fmt.Errorf("%w: nil create hook", ErrConfig)
	}
	capacity := cfg.DefaultCapacity
	if capacity <= 0 || capacity > cfg.Max {
		capacity = cfg.Max
	}
	cfg.DefaultCapacity = capacity

	return &Pool[T]{
		cfg:   cfg,
		hooks: hooks,
		all:   make([]*Handle[T], 0, capacity),
		free:  make([]*Handle[T], 0, capacity),
	}, nil
}

// Acquire returns a free handle, creating one while below the ceiling
func (p *Pool[T]) Acquire() (*Handle[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return nil, ErrDestroyed
	}

	var h *Handle[T]
	if n := len(p.free); n > 0 {
		h = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
	} else {
		if len(p.all) >= p.cfg.Max {
			return nil, ErrExhausted
		}
		v, err := p.hooks.Create()
		if err != nil {
			return nil, fmt.Errorf("pool create: %w", err)
		}
		p.nextID++
		h = &Handle[T]{id: p.nextID, value: v, owner: p}
		p.all = append(p.all, h)
	}

	h.inUse = true
	p.inUse++
	if p.hooks.OnAcquire != nil {
		p.hooks.OnAcquire(h.value)
	}
	return h, nil
}

// Release returns h to the free set
// Releasing a free handle, a foreign handle, or into a destroyed pool is a no-op returning false
func (p *Pool[T]) Release(h *Handle[T]) bool {
	if h == nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed || h.owner != p || !h.inUse {
		return false
	}

	h.inUse = false
	p.inUse--
	if p.hooks.OnRelease != nil {
		p.hooks.OnRelease(h.value)
	}
	p.free = append(p.free, h)
	return true
}

// Destroy disposes every value, free or in use
// Later Acquire calls fail with ErrDestroyed
func (p *Pool[T]) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return
	}
	p.destroyed = true

	for _, h := range p.all {
		h.inUse = false
		if p.hooks.OnDestroy != nil {
			p.hooks.OnDestroy(h.value)
		}
	}
	p.all = nil
	p.free = nil
	p.inUse = 0
}

// Destroyed reports whether Destroy has run
func (p *Pool[T]) Destroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// Capacity returns the initial storage size, clamped to Max
func (p *Pool[T]) Capacity() int {
	return p.cfg.DefaultCapacity
}

// Stats returns current occupancy
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Live:  len(p.all),
		InUse: p.inUse,
		Free:  len(p.free),
		Max:   p.cfg.Max,
	}
}
