package storage

import (
	"sync"

	"github.com/tuple-db/go-tupledb/tuple"
	"github.com/tuple-db/go-tupledb/tuple/sorted"
)

// Memory is an in-memory Storage adapter backed by a sorted slice of
// (Tuple, V) pairs, searched and spliced via the tuple/sorted binary-search
// primitives (spec.md §4.C2).
//
// Grounded on the teacher's db/memdb/memdb.go, generalized from an
// unsorted []db.Entry with linear Get/Delete to a sorted array, since this
// module's Storage contract requires range Scan (the teacher's Memdb never
// needed one).
type Memory[V any] struct {
	mu      sync.RWMutex
	entries []tuple.KeyValuePair[V]
	closed  bool
}

// NewMemory creates an empty in-memory Storage adapter.
func NewMemory[V any]() *Memory[V] {
	return &Memory[V]{}
}

var _ Storage[int] = (*Memory[int])(nil)

// Scan implements Storage.
func (m *Memory[V]) Scan(args tuple.ScanArgs) ([]tuple.KeyValuePair[V], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sorted.Scan(m.entries, args), nil
}

// Commit implements Storage. All Sets are applied first, then all
// Removes, so a key listed in both ends up removed (the caller,
// client.Transaction, never actually produces both for the same key;
// Commit only needs to apply whatever it is given).
func (m *Memory[V]) Commit(writes tuple.Writes[V]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, kv := range writes.Set {
		m.entries = sorted.Put(m.entries, kv.Key, kv.Value)
	}
	for _, k := range writes.Remove {
		m.entries = sorted.Remove(m.entries, k)
	}
	return nil
}

// Close implements Storage.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = nil
	return nil
}
