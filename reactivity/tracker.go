// Package reactivity implements the listener registry and write fan-out
// described in spec.md §4.C5: subscriptions are indexed by the longest
// common tuple prefix of their bounds, stored inside an auxiliary tuple
// database, so that "which listeners might care about this write" reduces
// to the same range-scan primitive the rest of the module already has.
package reactivity

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tuple-db/go-tupledb/storage"
	"github.com/tuple-db/go-tupledb/tuple"
)

// Callback is invoked with the subset of a committed write batch that
// falls inside a listener's bounds.
type Callback[V any] func(tuple.Writes[V])

// Unsubscribe removes a previously-registered listener. It is idempotent
// and safe to call concurrently with an in-flight Emit (spec.md §5: "a
// cancellation racing with an in-flight emit is allowed to receive or skip
// that emit, both legal").
type Unsubscribe func()

// listener is the record stored in the auxiliary tuple database, keyed by
// (boundsPrefixTuple, listenerID).
type listener[V any] struct {
	id       uint64
	bounds   tuple.ScanArgs
	callback Callback[V]
}

// Tracker indexes live subscriptions and computes, for any write batch, the
// bucketed set of callbacks to invoke.
//
// Grounded on spec.md §4.C5's prescription that the tracker be "stored
// inside the tracker as an auxiliary tuple database", so Tracker is built
// directly on storage.Memory and tuple/sorted, the same way the teacher's
// own Manifest is built on top of Table and fs.Filesys (see DESIGN.md).
type Tracker[V any] struct {
	mu     sync.Mutex
	store  *storage.Memory[listener[V]]
	nextID uint64
}

// New creates an empty reactivity Tracker.
func New[V any]() *Tracker[V] {
	return &Tracker[V]{store: storage.NewMemory[listener[V]]()}
}

// commonPrefix computes the boundsPrefixTuple for a ScanArgs: an explicit
// Prefix if given, else the longest common tuple prefix of the normalized
// lower and upper bounds; the empty Tuple for an unbounded listener.
func commonPrefix(bounds tuple.ScanArgs) tuple.Tuple {
	if bounds.Prefix != nil {
		return bounds.Prefix
	}
	norm := bounds.Normalize()
	lo, _, hasLo := norm.LowerBound()
	hi, _, hasHi := norm.UpperBound()
	if !hasLo || !hasHi {
		return tuple.Tuple{}
	}
	n := len(lo)
	if len(hi) < n {
		n = len(hi)
	}
	prefix := tuple.Tuple{}
	for i := 0; i < n; i++ {
		if tuple.Compare(lo[i], hi[i]) != 0 {
			break
		}
		prefix = append(prefix, lo[i])
	}
	return prefix
}

// Subscribe registers callback to be invoked with the subset of every
// future commit's writes that fall within bounds. The returned Unsubscribe
// removes the listener.
func (t *Tracker[V]) Subscribe(bounds tuple.ScanArgs, callback Callback[V]) Unsubscribe {
	id := atomic.AddUint64(&t.nextID, 1)
	prefix := commonPrefix(bounds)
	key := prefix.Append(tuple.Number(float64(id)))

	t.mu.Lock()
	_ = t.store.Commit(tuple.Writes[listener[V]]{Set: []tuple.KeyValuePair[listener[V]]{
		{Key: key, Value: listener[V]{id: id, bounds: bounds, callback: callback}},
	}})
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			_ = t.store.Commit(tuple.Writes[listener[V]]{Remove: []tuple.Tuple{key}})
			t.mu.Unlock()
		})
	}
}

// bucket accumulates the writes destined for one listener, in writes-batch
// order (set/remove partition preserved, per spec.md §5).
type bucket[V any] struct {
	listener listener[V]
	writes   tuple.Writes[V]
}

// computeReactivityEmits walks every prefix of every written key, from
// longest to empty, scanning the listeners registered at exactly that
// prefix, and buckets each write into every listener whose bounds actually
// contain the key (spec.md §4.C5).
func (t *Tracker[V]) computeReactivityEmits(writes tuple.Writes[V]) map[uint64]*bucket[V] {
	buckets := make(map[uint64]*bucket[V])

	bucketFor := func(l listener[V]) *bucket[V] {
		b, ok := buckets[l.id]
		if !ok {
			b = &bucket[V]{listener: l}
			buckets[l.id] = b
		}
		return b
	}

	visit := func(key tuple.Tuple, apply func(b *bucket[V])) {
		for n := len(key); n >= 0; n-- {
			prefix := key[:n]
			matches, err := t.store.Scan(tuple.ScanArgs{Prefix: prefix})
			if err != nil {
				continue
			}
			for _, kv := range matches {
				// A listener's stored key is exactly its boundsPrefixTuple
				// with one id element appended; a Prefix scan also returns
				// listeners registered at a longer prefix that happens to
				// start with this one, so restrict to keys registered at
				// exactly this prefix length to avoid visiting (and thus
				// notifying) the same listener more than once per key.
				if len(kv.Key) != n+1 {
					continue
				}
				l := kv.Value
				if !l.bounds.Contains(key) {
					continue
				}
				apply(bucketFor(l))
			}
		}
	}

	for _, kv := range writes.Set {
		entry := kv
		visit(entry.Key, func(b *bucket[V]) {
			b.writes.Set = append(b.writes.Set, entry)
		})
	}
	for _, k := range writes.Remove {
		key := k
		visit(key, func(b *bucket[V]) {
			b.writes.Remove = append(b.writes.Remove, key)
		})
	}

	return buckets
}

// Emit computes the per-listener buckets for writes and invokes each
// non-empty bucket's callback, in listener-registration order (ids
// increase monotonically, so sorting by id approximates registration
// order, which spec.md §5 leaves implementation-defined but requires
// stable).
func (t *Tracker[V]) Emit(writes tuple.Writes[V]) {
	if writes.IsEmpty() {
		return
	}
	t.mu.Lock()
	buckets := t.computeReactivityEmits(writes)
	t.mu.Unlock()

	ids := make([]uint64, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		b := buckets[id]
		if b.writes.IsEmpty() {
			continue
		}
		b.listener.callback(b.writes)
	}
}

// Close releases the tracker's internal storage.
func (t *Tracker[V]) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Close()
}
