// Package slab provides a generic, index-based slot allocator.
//
// A Pool hands out fixed-size slots in bulk-allocated blocks and recycles
// released slots through a LIFO free list, amortizing allocation cost for
// node-churning containers. Slots are addressed by integer handles rather
// than raw pointers; handle 0 is reserved as the nil handle.
//
// # Concurrency Model
//
// Acquire, Release, Stats and Free are guarded by the pool's own mutex, so a
// single pool can serve many containers concurrently. At is lock-free: block
// storage is reached through an atomic pointer and blocks are only ever
// appended, so resolving a handle never contends with allocation. A slot's
// contents are owned by whoever holds its handle; the pool touches them only
// while the slot is on the free list.
package slab

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// Handle addresses a slot within a Pool. The zero Handle is Nil.
type Handle uint32

// Nil is the null handle. Resolving it panics.
const Nil Handle = 0

const (
	// DefaultBatchSize is the number of slots acquired per block.
	DefaultBatchSize = 1024

	// MaxBlocks bounds the number of blocks a pool may hold.
	MaxBlocks = 65536
)

// ErrMaxBlocksExceeded is returned when the pool cannot grow any further,
// either because MaxBlocks is reached or because another block would exhaust
// the 32-bit handle space.
var ErrMaxBlocksExceeded = errors.New("slab: max blocks exceeded")

// Stats is a point-in-time snapshot of pool usage.
type Stats struct {
	BlocksAllocated uint64 // historical: total blocks ever created
	ActiveBlocks    int    // current block count
	SlotsTotal      int    // slots across all active blocks
	SlotsFree       int    // slots on the free list
	SlotsLive       int    // slots currently acquired
	Acquires        uint64 // cumulative successful Acquire calls
	Releases        uint64 // cumulative Release calls
}

type slot[T any] struct {
	nextFree Handle
	val      T
}

// Pool is a slot allocator for values of type T.
//
// The zero Pool is not usable; create pools with New.
type Pool[T any] struct {
	mu     sync.Mutex
	batch  int
	free   Handle
	blocks atomic.Pointer[[][]slot[T]] // copy-on-grow; At loads without the lock
	stats  Stats
}

type config struct {
	batch int
}

// Option configures a Pool.
type Option func(*config)

// WithBatchSize sets the number of slots allocated per block.
// Values <= 0 fall back to DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.batch = n
		}
	}
}

// New creates an empty Pool. No memory is reserved until the first Acquire.
func New[T any](opts ...Option) *Pool[T] {
	cfg := config{batch: DefaultBatchSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pool[T]{batch: cfg.batch}
	p.blocks.Store(&[][]slot[T]{})
	return p
}

// BatchSize returns the number of slots allocated per block.
func (p *Pool[T]) BatchSize() int {
	return p.batch
}

// Acquire pops a zeroed slot off the free list, growing the pool by one
// block if the free list is empty. The returned pointer stays valid until
// the handle is released or the pool is freed.
func (p *Pool[T]) Acquire() (Handle, *T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.free == Nil {
		if err := p.grow(); err != nil {
			return Nil, nil, err
		}
	}

	h := p.free
	s := p.slotAt(h)
	p.free = s.nextFree
	s.nextFree = Nil

	p.stats.SlotsFree--
	p.stats.SlotsLive++
	p.stats.Acquires++

	return h, &s.val, nil
}

// Release zeroes the slot and pushes it onto the head of the free list.
// The handle must have come from Acquire on this pool and must not be used
// again after release.
func (p *Pool[T]) Release(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.slotAt(h)

	// Drop references held by the slot so the GC can collect them while the
	// slot sits on the free list.
	var zero T
	s.val = zero

	s.nextFree = p.free
	p.free = h

	p.stats.SlotsFree++
	p.stats.SlotsLive--
	p.stats.Releases++
}

// At resolves a handle to its slot value.
// It panics on the nil handle and on handles that outlived a Free.
func (p *Pool[T]) At(h Handle) *T {
	if h == Nil {
		panic("slab: nil handle")
	}
	blocks := *p.blocks.Load()
	g := int(h) - 1
	b := g / p.batch
	if b >= len(blocks) {
		panic("slab: stale handle")
	}
	return &blocks[b][g%p.batch].val
}

// slotAt resolves a handle to its slot, including free-list linkage.
// Callers must hold p.mu.
func (p *Pool[T]) slotAt(h Handle) *slot[T] {
	if h == Nil {
		panic("slab: nil handle")
	}
	blocks := *p.blocks.Load()
	g := int(h) - 1
	b := g / p.batch
	if b >= len(blocks) {
		panic("slab: stale handle")
	}
	return &blocks[b][g%p.batch]
}

// grow appends one block and threads its slots onto the free list.
// Callers must hold p.mu.
func (p *Pool[T]) grow() error {
	blocks := *p.blocks.Load()
	nb := len(blocks)
	if nb >= MaxBlocks {
		return ErrMaxBlocksExceeded
	}

	// Handles are 1-based global slot indices packed into a uint32; refuse
	// growth whose highest handle would not fit.
	if uint64(nb+1)*uint64(p.batch) > math.MaxUint32-1 {
		return ErrMaxBlocksExceeded
	}

	block := make([]slot[T], p.batch)

	base := Handle(uint64(nb)*uint64(p.batch) + 1)
	for i := 0; i < p.batch-1; i++ {
		block[i].nextFree = base + Handle(i) + 1 //nolint:gosec // bounded by batch
	}
	block[p.batch-1].nextFree = p.free
	p.free = base

	// Copy-on-grow keeps the old slice intact for concurrent At callers.
	next := make([][]slot[T], nb+1)
	copy(next, blocks)
	next[nb] = block
	p.blocks.Store(&next)

	p.stats.BlocksAllocated++
	p.stats.ActiveBlocks++
	p.stats.SlotsTotal += p.batch
	p.stats.SlotsFree += p.batch

	return nil
}

// Free releases every block and clears the free list, leaving the pool empty
// and ready to grow again on the next Acquire.
//
// WARNING: Free invalidates every outstanding handle. Do not call it while
// any container built on this pool is still alive; resolving a stale handle
// afterwards panics. No reference counting is performed.
func (p *Pool[T]) Free() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.blocks.Store(&[][]slot[T]{})
	p.free = Nil

	p.stats.ActiveBlocks = 0
	p.stats.SlotsTotal = 0
	p.stats.SlotsFree = 0
	p.stats.SlotsLive = 0
}

// Stats returns a snapshot of pool usage.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Pool[T]) String() string {
	stats := p.Stats()
	return fmt.Sprintf(
		"Pool{blocks: %d, slots: %d, free: %d, live: %d, acquires: %d, releases: %d}",
		stats.ActiveBlocks,
		stats.SlotsTotal,
		stats.SlotsFree,
		stats.SlotsLive,
		stats.Acquires,
		stats.Releases,
	)
}
