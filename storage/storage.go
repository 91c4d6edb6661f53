// Package storage defines the minimal sorted-map contract a persistent or
// in-memory backend must implement (spec.md §4.C4), plus an in-memory
// reference adapter.
package storage

import (
	"github.com/tuple-db/go-tupledb/tuple"
)

// Storage is the adapter contract a backend implements: a sorted map over
// Tuple keys. Scan must return results in key-ascending order (before
// Reverse is applied), honoring bounds and Limit; Commit must apply a
// batch atomically with respect to concurrent Scans; Close releases
// resources.
type Storage[V any] interface {
	Scan(args tuple.ScanArgs) ([]tuple.KeyValuePair[V], error)
	Commit(writes tuple.Writes[V]) error
	Close() error
}

// StorageError wraps an error a backend returns from Scan/Commit/Close.
// Per spec.md §7, StorageError is propagated to the caller (the engine
// wraps whatever a backend returns in one more StorageError via Wrap) and
// is never retried by the core.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "tupledb storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// Wrap produces a *StorageError for op if err is non-nil, else nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
