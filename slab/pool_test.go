package slab

import (
	"errors"
	"math"
	"math/bits"
	"sync"
	"testing"
)

type payload struct {
	id   int
	name string
}

func TestPool_New(t *testing.T) {
	t.Run("default batch size", func(t *testing.T) {
		p := New[payload]()
		if p.BatchSize() != DefaultBatchSize {
			t.Errorf("expected batch=%d, got %d", DefaultBatchSize, p.BatchSize())
		}
		if stats := p.Stats(); stats.ActiveBlocks != 0 {
			t.Errorf("expected no blocks before first acquire, got %d", stats.ActiveBlocks)
		}
	})

	t.Run("custom batch size", func(t *testing.T) {
		p := New[payload](WithBatchSize(16))
		if p.BatchSize() != 16 {
			t.Errorf("expected batch=16, got %d", p.BatchSize())
		}
	})

	t.Run("non-positive batch size falls back", func(t *testing.T) {
		p := New[payload](WithBatchSize(0))
		if p.BatchSize() != DefaultBatchSize {
			t.Errorf("expected batch=%d, got %d", DefaultBatchSize, p.BatchSize())
		}
	})
}

func TestPool_Acquire(t *testing.T) {
	t.Run("lazy first block", func(t *testing.T) {
		p := New[payload](WithBatchSize(8))

		h, v, err := p.Acquire()
		if err != nil {
			t.Fatalf("acquire failed: %v", err)
		}
		if h == Nil {
			t.Fatal("expected non-nil handle")
		}
		if v == nil {
			t.Fatal("expected slot pointer")
		}

		stats := p.Stats()
		if stats.ActiveBlocks != 1 {
			t.Errorf("expected 1 block, got %d", stats.ActiveBlocks)
		}
		if stats.SlotsFree != 7 {
			t.Errorf("expected 7 free slots, got %d", stats.SlotsFree)
		}
		if stats.SlotsLive != 1 {
			t.Errorf("expected 1 live slot, got %d", stats.SlotsLive)
		}
	})

	t.Run("returns zeroed slot", func(t *testing.T) {
		p := New[payload](WithBatchSize(4))

		h, v, err := p.Acquire()
		if err != nil {
			t.Fatalf("acquire failed: %v", err)
		}
		v.id = 42
		v.name = "dirty"
		p.Release(h)

		h2, v2, err := p.Acquire()
		if err != nil {
			t.Fatalf("acquire failed: %v", err)
		}
		if h2 != h {
			t.Errorf("expected LIFO reuse of handle %d, got %d", h, h2)
		}
		if v2.id != 0 || v2.name != "" {
			t.Errorf("slot not zeroed: %+v", *v2)
		}
	})

	t.Run("grows additional blocks", func(t *testing.T) {
		p := New[payload](WithBatchSize(4))

		seen := make(map[Handle]bool)
		for i := 0; i < 9; i++ {
			h, _, err := p.Acquire()
			if err != nil {
				t.Fatalf("acquire %d failed: %v", i, err)
			}
			if seen[h] {
				t.Fatalf("handle %d issued twice", h)
			}
			seen[h] = true
		}

		stats := p.Stats()
		if stats.ActiveBlocks != 3 {
			t.Errorf("expected 3 blocks for 9 slots of batch 4, got %d", stats.ActiveBlocks)
		}
		if stats.SlotsTotal != 12 {
			t.Errorf("expected 12 total slots, got %d", stats.SlotsTotal)
		}
	})

	t.Run("handle space exhausted", func(t *testing.T) {
		if bits.UintSize < 64 {
			t.Skip("batch sizes beyond the handle space need 64-bit int")
		}

		// A batch this large would push the first block's highest handle
		// past uint32; growth must refuse before allocating anything.
		var huge uint64 = math.MaxUint32
		p := New[payload](WithBatchSize(int(huge)))

		_, _, err := p.Acquire()
		if !errors.Is(err, ErrMaxBlocksExceeded) {
			t.Errorf("expected ErrMaxBlocksExceeded, got %v", err)
		}
		if got := p.Stats().ActiveBlocks; got != 0 {
			t.Errorf("expected no blocks after refused growth, got %d", got)
		}
	})

	t.Run("max blocks exceeded", func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipping block exhaustion in short mode")
		}

		p := New[payload](WithBatchSize(1))

		for i := 0; i < MaxBlocks; i++ {
			if _, _, err := p.Acquire(); err != nil {
				t.Fatalf("acquire %d failed: %v", i, err)
			}
		}
		if _, _, err := p.Acquire(); !errors.Is(err, ErrMaxBlocksExceeded) {
			t.Errorf("expected ErrMaxBlocksExceeded, got %v", err)
		}
	})
}

func TestPool_At(t *testing.T) {
	t.Run("resolves across blocks", func(t *testing.T) {
		p := New[payload](WithBatchSize(2))

		handles := make([]Handle, 6)
		for i := range handles {
			h, v, err := p.Acquire()
			if err != nil {
				t.Fatalf("acquire %d failed: %v", i, err)
			}
			v.id = i
			handles[i] = h
		}

		for i, h := range handles {
			if got := p.At(h).id; got != i {
				t.Errorf("handle %d: expected id=%d, got %d", h, i, got)
			}
		}
	})

	t.Run("nil handle panics", func(t *testing.T) {
		p := New[payload]()

		defer func() {
			if recover() == nil {
				t.Error("expected panic on nil handle")
			}
		}()
		p.At(Nil)
	})

	t.Run("stale handle panics after free", func(t *testing.T) {
		p := New[payload](WithBatchSize(2))

		h, _, err := p.Acquire()
		if err != nil {
			t.Fatalf("acquire failed: %v", err)
		}
		p.Free()

		defer func() {
			if recover() == nil {
				t.Error("expected panic on stale handle")
			}
		}()
		p.At(h)
	})
}

func TestPool_Release(t *testing.T) {
	p := New[payload](WithBatchSize(4))

	var handles []Handle
	for i := 0; i < 3; i++ {
		h, _, err := p.Acquire()
		if err != nil {
			t.Fatalf("acquire failed: %v", err)
		}
		handles = append(handles, h)
	}

	for _, h := range handles {
		p.Release(h)
	}

	stats := p.Stats()
	if stats.SlotsLive != 0 {
		t.Errorf("expected 0 live slots, got %d", stats.SlotsLive)
	}
	if stats.SlotsFree != 4 {
		t.Errorf("expected 4 free slots, got %d", stats.SlotsFree)
	}
	if stats.Releases != 3 {
		t.Errorf("expected 3 releases, got %d", stats.Releases)
	}

	// Released last, reused first.
	h, _, err := p.Acquire()
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if h != handles[2] {
		t.Errorf("expected LIFO reuse of %d, got %d", handles[2], h)
	}
}

func TestPool_Free(t *testing.T) {
	p := New[payload](WithBatchSize(4))

	for i := 0; i < 10; i++ {
		if _, _, err := p.Acquire(); err != nil {
			t.Fatalf("acquire failed: %v", err)
		}
	}

	p.Free()

	stats := p.Stats()
	if stats.ActiveBlocks != 0 || stats.SlotsTotal != 0 || stats.SlotsFree != 0 || stats.SlotsLive != 0 {
		t.Errorf("expected empty pool after free, got %+v", stats)
	}

	// The pool grows again on demand.
	h, _, err := p.Acquire()
	if err != nil {
		t.Fatalf("acquire after free failed: %v", err)
	}
	if h == Nil {
		t.Error("expected valid handle after free")
	}
	if got := p.Stats().ActiveBlocks; got != 1 {
		t.Errorf("expected 1 block after regrow, got %d", got)
	}
}

func TestPool_Concurrent(t *testing.T) {
	p := New[payload](WithBatchSize(64))

	const (
		workers = 8
		rounds  = 1000
	)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				h, v, err := p.Acquire()
				if err != nil {
					t.Errorf("acquire failed: %v", err)
					return
				}
				v.id = i
				if p.At(h).id != i {
					t.Errorf("slot corrupted for handle %d", h)
					return
				}
				p.Release(h)
			}
		}()
	}
	wg.Wait()

	stats := p.Stats()
	if stats.SlotsLive != 0 {
		t.Errorf("expected 0 live slots, got %d", stats.SlotsLive)
	}
	if stats.Acquires != workers*rounds {
		t.Errorf("expected %d acquires, got %d", workers*rounds, stats.Acquires)
	}
}
