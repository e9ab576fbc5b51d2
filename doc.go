// Package chainmap provides a generic, mutex-guarded hash table with
// separate chaining, backed by a pooled node allocator.
//
// Chainmap is a low-level building block for embedding inside larger systems
// (session caches, credential caches, registries) that bring their own key
// hashing and key comparison. The table never resizes: the bucket count is
// fixed at creation, and chains are kept in ascending comparator order so
// lookups can stop early.
//
// # Quick Start
//
//	t, err := chainmap.New[string, *Session](
//	    1024,
//	    keyhash.XXString,     // hash
//	    strings.Compare,      // three-way comparison
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Close()
//
//	err = t.Insert("sid-1", sess)    // chainmap.ErrAlreadyExists on duplicate
//	sess, err := t.Find("sid-1")     // chainmap.ErrNotFound if missing
//	sess, err = t.Remove("sid-1")
//
// # Comparison Contract
//
// The comparison function must impose a strict total order over all keys, not
// merely test equality. Chains are maintained in ascending comparator order
// and searches stop at the first key that compares greater; a comparator that
// returns inconsistent orderings will silently skip entries.
//
// # Ownership
//
// The table borrows key values and owns data values only when a destroy
// function is supplied via WithDestroy, in which case it invokes it for every
// entry removed by DeleteIf, Reset, or Close. Remove never invokes it: the
// removed data is returned and ownership hands back to the caller.
//
// # Node Pooling
//
// Nodes are drawn from a slab.Pool in blocks of slab.DefaultBatchSize and
// recycled on removal. By default each table owns a private pool that Close
// frees; tables holding entries of the same type can share one pool via
// WithPool, in which case the caller must keep the pool alive until every
// table using it has been closed.
package chainmap
