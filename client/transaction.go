package client

import (
	"errors"
	"sync"

	"github.com/tuple-db/go-tupledb/subspace"
	"github.com/tuple-db/go-tupledb/tupledb"
	"github.com/tuple-db/go-tupledb/tuple"
	"github.com/tuple-db/go-tupledb/tuple/sorted"
)

// ErrTransactionClosed is returned by Commit or Cancel called on a
// transaction that has already committed or canceled. Set, Remove, Scan,
// Get and Exists do not check whether the transaction is closed and never
// return it.
var ErrTransactionClosed = errors.New("tupledb: transaction already committed or canceled")

// txBuffer holds the two buffered sorted structures a transaction
// accumulates locally before commit (spec.md §4.C8), shared by every
// subspace view derived from the same Transaction so that a write made
// through one view is visible to a read through another.
type txBuffer[V any] struct {
	mu     sync.Mutex
	set    []tuple.KeyValuePair[V]
	remove []tuple.Tuple
	done   bool
}

// Transaction is a buffered-write session with read-your-writes overlay
// and optimistic conflict detection at commit, scoped to a subspace
// prefix (spec.md §4.C8).
type Transaction[V any] struct {
	engine *tupledb.Engine[V]
	prefix tuple.Tuple
	txID   tupledb.TxID
	buffer *txBuffer[V]
}

// TxID returns the transaction's identifier, e.g. to hand to a nested
// Client.Transact call that should compose with it.
func (t *Transaction[V]) TxID() tupledb.TxID { return t.txID }

// Subspace returns a view of t scoped to an additional prefix, sharing
// the same buffer and transaction id.
func (t *Transaction[V]) Subspace(p tuple.Tuple) *Transaction[V] {
	return &Transaction[V]{
		engine: t.engine,
		prefix: subspace.Prepend(t.prefix, p),
		txID:   t.txID,
		buffer: t.buffer,
	}
}

// Set buffers t=v locally, canceling any pending Remove of the same key.
func (t *Transaction[V]) Set(key tuple.Tuple, value V) {
	abs := subspace.Prepend(t.prefix, key)
	t.buffer.mu.Lock()
	defer t.buffer.mu.Unlock()
	t.buffer.remove = sorted.RemoveTuple(t.buffer.remove, abs)
	t.buffer.set = sorted.Put(t.buffer.set, abs, value)
}

// Remove buffers the removal of key locally, canceling any pending Set of
// the same key.
func (t *Transaction[V]) Remove(key tuple.Tuple) {
	abs := subspace.Prepend(t.prefix, key)
	t.buffer.mu.Lock()
	defer t.buffer.mu.Unlock()
	t.buffer.set = sorted.Remove(t.buffer.set, abs)
	t.buffer.remove = sorted.PutTuple(t.buffer.remove, abs)
}

// Scan fetches a storage scan (through the engine, which logs the read
// against this transaction's id for conflict detection), then overlays
// the transaction's own buffered writes on top, re-applying limit and
// reverse after the overlay (spec.md §4.C8).
func (t *Transaction[V]) Scan(args tuple.ScanArgs) ([]tuple.KeyValuePair[V], error) {
	normalized := subspace.NormalizeScanArgs(t.prefix, args)
	unlimited := normalized
	unlimited.Limit = 0
	unlimited.Reverse = false

	pairs, err := t.engine.Scan(unlimited, &t.txID)
	if err != nil {
		return nil, err
	}

	merged := make([]tuple.KeyValuePair[V], len(pairs))
	copy(merged, pairs)

	t.buffer.mu.Lock()
	for _, kv := range t.buffer.set {
		if normalized.Contains(kv.Key) {
			merged = sorted.Put(merged, kv.Key, kv.Value)
		}
	}
	for _, k := range t.buffer.remove {
		if normalized.Contains(k) {
			merged = sorted.Remove(merged, k)
		}
	}
	t.buffer.mu.Unlock()

	if normalized.Reverse {
		for i, j := 0, len(merged)-1; i < j; i, j = i+1, j-1 {
			merged[i], merged[j] = merged[j], merged[i]
		}
	}
	if normalized.Limit > 0 && len(merged) > normalized.Limit {
		merged = merged[:normalized.Limit]
	}

	return subspace.RemovePrefixFromPairs(t.prefix, merged), nil
}

// Get returns the transaction's view of key: a buffered Set wins outright,
// a buffered Remove reports not-found outright, and only otherwise does it
// fall through to a storage scan of the single-point range [t, t] (logged
// against this transaction's id for conflict detection). A key already
// resolved locally therefore never touches storage or the conflict log
// (spec.md §4.C8).
func (t *Transaction[V]) Get(key tuple.Tuple) (v V, found bool, err error) {
	abs := subspace.Prepend(t.prefix, key)

	t.buffer.mu.Lock()
	if bv, ok := sorted.Get(t.buffer.set, abs); ok {
		t.buffer.mu.Unlock()
		return bv, true, nil
	}
	if sorted.SearchTuples(t.buffer.remove, abs).Found {
		t.buffer.mu.Unlock()
		return v, false, nil
	}
	t.buffer.mu.Unlock()

	pairs, err := t.engine.Scan(tuple.ScanArgs{Gte: abs, Lte: abs}, &t.txID)
	if err != nil {
		return v, false, err
	}
	switch len(pairs) {
	case 0:
		return v, false, nil
	case 1:
		return pairs[0].Value, true, nil
	default:
		return v, false, ErrGetExpectedSingle
	}
}

// Exists reports whether key is present once buffered writes are
// overlaid.
func (t *Transaction[V]) Exists(key tuple.Tuple) (bool, error) {
	_, found, err := t.Get(key)
	return found, err
}

// Commit submits the buffered writes to the engine under this
// transaction's id, which logs them, checks for conflicts against
// concurrently-committed writes intersecting this transaction's recorded
// reads, and — only on success — applies them to storage and fans them
// out to subscribers.
func (t *Transaction[V]) Commit() error {
	t.buffer.mu.Lock()
	if t.buffer.done {
		t.buffer.mu.Unlock()
		return ErrTransactionClosed
	}
	writes := tuple.Writes[V]{Set: t.buffer.set, Remove: t.buffer.remove}
	t.buffer.done = true
	t.buffer.mu.Unlock()

	return t.engine.Commit(writes, &t.txID)
}

// Cancel discards the transaction's buffered writes and its recorded
// reads in the concurrency log without ever touching storage.
func (t *Transaction[V]) Cancel() error {
	t.buffer.mu.Lock()
	if t.buffer.done {
		t.buffer.mu.Unlock()
		return ErrTransactionClosed
	}
	t.buffer.done = true
	t.buffer.mu.Unlock()

	t.engine.Cancel(t.txID)
	return nil
}
