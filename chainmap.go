package chainmap

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/chainmap/slab"
)

// DefaultCapacity is the bucket count used when New is given a
// non-positive capacity.
const DefaultCapacity = 1213

// HashFunc converts a key into a hash value. The bucket index is the hash
// modulo the table capacity.
type HashFunc[K any] func(key K) uint64

// CompareFunc is a three-way key comparison: negative if a sorts before b,
// zero if equal, positive if a sorts after b.
//
// It must impose a strict total order consistent across all keys, not merely
// test equality; chain order and early-exit search depend on it.
type CompareFunc[K any] func(a, b K) int

// DestroyFunc releases resources held by a data value the table owns.
type DestroyFunc[V any] func(data V)

// VisitFunc is invoked per entry by ForEach and DeleteIf. For ForEach a true
// result is counted; for DeleteIf a true result deletes the entry.
type VisitFunc[K, V any] func(key K, data V) bool

// Node is the unit of chain storage: a key, a data value, and a link to the
// next node in the bucket. Its fields are managed by the owning table;
// callers only name the type when sharing a slab pool between tables.
type Node[K, V any] struct {
	next slab.Handle
	key  K
	data V
}

// Table is a fixed-capacity hash table with separately chained buckets.
//
// A single mutex serializes all operations against one table; distinct
// tables never contend except on a shared pool, and then only for the
// duration of a node acquire or release. Lock order is always table first,
// pool second.
type Table[K, V any] struct {
	mu       sync.Mutex
	count    int
	capacity int
	buckets  []slab.Handle
	hash    HashFunc[K]
	cmp     CompareFunc[K]
	destroy DestroyFunc[V]
	pool    *slab.Pool[Node[K, V]]
	ownPool bool
	logger  *Logger
	metrics MetricsCollector
	closed  bool
}

// New creates a table with the given bucket count and key capabilities.
// A capacity <= 0 falls back to DefaultCapacity. hash and cmp are
// mandatory; everything else is configured through options.
func New[K, V any](capacity int, hash HashFunc[K], cmp CompareFunc[K], opts ...Option[K, V]) (*Table[K, V], error) {
	if hash == nil || cmp == nil {
		return nil, fmt.Errorf("%w: hash and compare functions are required", ErrInvalidArgument)
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	o := options[K, V]{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Table[K, V]{
		capacity: capacity,
		buckets:  make([]slab.Handle, capacity),
		hash:    hash,
		cmp:     cmp,
		destroy: o.destroy,
		pool:    o.pool,
		logger:  o.logger,
		metrics: o.metrics,
	}
	if t.pool == nil {
		t.pool = slab.New[Node[K, V]]()
		t.ownPool = true
	}

	t.logger.Debug("chainmap: table created",
		"capacity", capacity,
		"shared_pool", !t.ownPool,
	)

	return t, nil
}

// Count returns the number of live entries.
func (t *Table[K, V]) Count() (int, error) {
	if t == nil {
		return -1, ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return -1, ErrClosed
	}
	return t.count, nil
}

// IsEmpty reports whether the table holds no entries.
func (t *Table[K, V]) IsEmpty() (bool, error) {
	if t == nil {
		return false, ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false, ErrClosed
	}
	return t.count == 0, nil
}

// Capacity returns the fixed bucket count set at creation.
// It keeps reporting that count even after Close.
func (t *Table[K, V]) Capacity() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.capacity
}

// Find returns the data stored under key, or ErrNotFound.
func (t *Table[K, V]) Find(key K) (V, error) {
	var zero V
	if t == nil {
		return zero, ErrInvalidArgument
	}

	start := time.Now()
	data, err := t.find(key)
	t.metrics.RecordFind(time.Since(start), err)

	return data, err
}

func (t *Table[K, V]) find(key K) (V, error) {
	var zero V

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return zero, ErrClosed
	}

	h := t.buckets[t.bucketFor(key)]
	for h != slab.Nil {
		n := t.pool.At(h)
		c := t.cmp(n.key, key)
		if c < 0 {
			h = n.next
			continue
		}
		if c == 0 {
			return n.data, nil
		}
		// Chains are kept in ascending comparator order; past this point
		// no node can match.
		break
	}
	return zero, ErrNotFound
}

// Insert stores data under key, keeping the bucket chain in ascending
// comparator order. It returns ErrAlreadyExists if an equal key is present,
// leaving the existing entry and the count untouched.
func (t *Table[K, V]) Insert(key K, data V) error {
	if t == nil {
		return ErrInvalidArgument
	}

	start := time.Now()
	err := t.insert(key, data)
	t.metrics.RecordInsert(time.Since(start), err)

	return err
}

func (t *Table[K, V]) insert(key K, data V) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}

	slot := t.bucketFor(key)
	prev := slab.Nil
	h := t.buckets[slot]
	for h != slab.Nil {
		n := t.pool.At(h)
		c := t.cmp(n.key, key)
		if c < 0 {
			prev, h = h, n.next
			continue
		}
		if c == 0 {
			return ErrAlreadyExists
		}
		break
	}

	// The walk stopped at the insertion point: h is the first node sorting
	// after key (or Nil), prev its predecessor.
	nh, n, err := t.pool.Acquire()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	n.key = key
	n.data = data
	n.next = h
	if prev == slab.Nil {
		t.buckets[slot] = nh
	} else {
		t.pool.At(prev).next = nh
	}
	t.count++

	return nil
}

// Remove unlinks the entry stored under key and returns its data, or
// ErrNotFound. The destroy function is not invoked; ownership of the data
// returns to the caller.
func (t *Table[K, V]) Remove(key K) (V, error) {
	var zero V
	if t == nil {
		return zero, ErrInvalidArgument
	}

	start := time.Now()
	data, err := t.remove(key)
	t.metrics.RecordRemove(time.Since(start), err)

	return data, err
}

func (t *Table[K, V]) remove(key K) (V, error) {
	var zero V

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return zero, ErrClosed
	}

	slot := t.bucketFor(key)
	prev := slab.Nil
	h := t.buckets[slot]
	for h != slab.Nil {
		n := t.pool.At(h)
		c := t.cmp(n.key, key)
		if c < 0 {
			prev, h = h, n.next
			continue
		}
		if c == 0 {
			data := n.data
			if prev == slab.Nil {
				t.buckets[slot] = n.next
			} else {
				t.pool.At(prev).next = n.next
			}
			t.pool.Release(h)
			t.count--
			return data, nil
		}
		break
	}
	return zero, ErrNotFound
}

// DeleteIf visits every entry exactly once, in bucket order then chain
// order, deleting those for which pred returns true. Deleted entries are
// passed to the destroy function, if one was supplied. It returns the
// number of entries deleted.
func (t *Table[K, V]) DeleteIf(pred VisitFunc[K, V]) (int, error) {
	if t == nil || pred == nil {
		return 0, ErrInvalidArgument
	}

	start := time.Now()
	removed, err := t.deleteIf(pred)
	t.metrics.RecordDeleteIf(removed, time.Since(start))

	return removed, err
}

func (t *Table[K, V]) deleteIf(pred VisitFunc[K, V]) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, ErrClosed
	}

	removed := 0
	for i := range t.buckets {
		prev := slab.Nil
		h := t.buckets[i]
		for h != slab.Nil {
			n := t.pool.At(h)
			next := n.next
			if pred(n.key, n.data) {
				if t.destroy != nil {
					t.destroy(n.data)
				}
				if prev == slab.Nil {
					t.buckets[i] = next
				} else {
					t.pool.At(prev).next = next
				}
				t.pool.Release(h)
				t.count--
				removed++
			} else {
				prev = h
			}
			h = next
		}
	}
	return removed, nil
}

// ForEach visits every entry exactly once, in bucket order then chain
// order, without mutating the table. It returns the number of entries for
// which visit returned true.
func (t *Table[K, V]) ForEach(visit VisitFunc[K, V]) (int, error) {
	if t == nil || visit == nil {
		return 0, ErrInvalidArgument
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, ErrClosed
	}

	matched := 0
	for i := range t.buckets {
		for h := t.buckets[i]; h != slab.Nil; {
			n := t.pool.At(h)
			if visit(n.key, n.data) {
				matched++
			}
			h = n.next
		}
	}
	return matched, nil
}

// Reset removes every entry, leaving the table empty with its capacity
// unchanged. Entries are passed to the destroy function, if one was
// supplied, and their nodes returned to the pool.
func (t *Table[K, V]) Reset() error {
	if t == nil {
		return ErrInvalidArgument
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}

	t.drainLocked()
	t.logger.Debug("chainmap: table reset", "capacity", t.capacity)

	return nil
}

// Close removes every entry like Reset and then tears the table down.
// A table-owned pool is freed; an injected pool is left to its owner.
// Closing an already closed table is a no-op.
func (t *Table[K, V]) Close() error {
	if t == nil {
		return ErrInvalidArgument
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}

	t.drainLocked()
	t.buckets = nil
	t.closed = true
	if t.ownPool {
		t.pool.Free()
	}
	t.logger.Debug("chainmap: table closed")

	return nil
}

// drainLocked releases every entry and empties all buckets.
// Callers must hold t.mu.
func (t *Table[K, V]) drainLocked() {
	for i := range t.buckets {
		h := t.buckets[i]
		for h != slab.Nil {
			n := t.pool.At(h)
			next := n.next
			if t.destroy != nil {
				t.destroy(n.data)
			}
			t.pool.Release(h)
			h = next
		}
		t.buckets[i] = slab.Nil
	}
	t.count = 0
}

func (t *Table[K, V]) bucketFor(key K) uint64 {
	return t.hash(key) % uint64(t.capacity)
}
