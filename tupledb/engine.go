// Package tupledb implements the TupleDatabase engine (spec.md §4.C7): it
// composes a storage backend, a reactivity tracker, and a concurrency log
// behind a single exclusive lock, so the three stay linearizable with
// respect to each other.
package tupledb

import (
	"github.com/tuple-db/go-tupledb/conflict"
	"github.com/tuple-db/go-tupledb/reactivity"
	"github.com/tuple-db/go-tupledb/storage"
	"github.com/tuple-db/go-tupledb/tuple"

	"sync"
)

// TxID identifies an in-flight transaction against an Engine.
type TxID = conflict.TxID

// Engine binds storage, reactivity, and conflict detection into a single
// transactional, reactive database (spec.md §4.C7).
//
// Grounded on the teacher's db/db.go Database struct, which composes an
// fs, a log, and a manifest behind Get/Put/Delete/Close under its own
// mutex; here the composed parts are storage.Storage, reactivity.Tracker,
// and conflict.Log instead, and the compile-time interface assertion
// idiom (teacher's `var _ Store = &Database{}`) is reused verbatim below.
type Engine[V any] struct {
	mu sync.Mutex

	storage    storage.Storage[V]
	reactivity *reactivity.Tracker[V]
	conflict   *conflict.Log
}

// New creates an Engine over the given storage backend.
func New[V any](backend storage.Storage[V]) *Engine[V] {
	return &Engine[V]{
		storage:    backend,
		reactivity: reactivity.New[V](),
		conflict:   conflict.New(),
	}
}

// interfaceChecker exists purely so the compile-time assertion below
// documents Engine's intended surface without forcing every caller to
// depend on a separate exported interface type.
type interfaceChecker[V any] interface {
	Scan(args tuple.ScanArgs, txID *TxID) ([]tuple.KeyValuePair[V], error)
	Commit(writes tuple.Writes[V], txID *TxID) error
	Cancel(txID TxID)
	Subscribe(bounds tuple.ScanArgs, callback reactivity.Callback[V]) reactivity.Unsubscribe
	Close() error
}

var _ interfaceChecker[int] = (*Engine[int])(nil)

// NewTxID allocates a fresh transaction id scoped to this engine's
// concurrency log.
func (e *Engine[V]) NewTxID() TxID {
	return e.conflict.NewTxID()
}

// Scan reads from storage. If txID is non-nil, the read is logged against
// the concurrency log before being returned, so a later Commit on that
// transaction can detect a conflicting intervening write.
func (e *Engine[V]) Scan(args tuple.ScanArgs, txID *TxID) ([]tuple.KeyValuePair[V], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.storage.Scan(args)
	if err != nil {
		return nil, storage.Wrap("scan", err)
	}
	if txID != nil {
		e.conflict.Read(*txID, args)
	}
	return result, nil
}

// Commit applies writes to storage. If txID is non-nil, every written key
// is logged, the concurrency log's Commit is consulted for conflicts, and
// only on success does the batch reach storage; reactivity.Emit always
// runs last so subscribers see only committed state. The whole sequence
// runs under the engine's lock, so it is atomic with respect to every
// other engine call (spec.md §4.C7, §5).
func (e *Engine[V]) Commit(writes tuple.Writes[V], txID *TxID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if txID != nil {
		for _, kv := range writes.Set {
			e.conflict.Write(*txID, kv.Key)
		}
		for _, k := range writes.Remove {
			e.conflict.Write(*txID, k)
		}
		if err := e.conflict.Commit(*txID); err != nil {
			return err
		}
	}

	if err := e.storage.Commit(writes); err != nil {
		return storage.Wrap("commit", err)
	}

	e.reactivity.Emit(writes)
	return nil
}

// Cancel discards txID's buffered reads/writes from the concurrency log
// without ever touching storage.
func (e *Engine[V]) Cancel(txID TxID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conflict.Cancel(txID)
}

// Subscribe registers callback to be invoked with the subset of every
// future commit's writes that fall within bounds.
func (e *Engine[V]) Subscribe(bounds tuple.ScanArgs, callback reactivity.Callback[V]) reactivity.Unsubscribe {
	return e.reactivity.Subscribe(bounds, callback)
}

// Close flushes and releases the underlying storage and reactivity
// tracker.
func (e *Engine[V]) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.reactivity.Close(); err != nil {
		return err
	}
	return storage.Wrap("close", e.storage.Close())
}
