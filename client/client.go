// Package client implements the Client & Transaction layer (spec.md
// §4.C8): a subspace-scoped façade over a tupledb.Engine, buffered
// read-your-writes transactions, and a retry-on-conflict wrapper.
package client

import (
	"github.com/tuple-db/go-tupledb/reactivity"
	"github.com/tuple-db/go-tupledb/subspace"
	"github.com/tuple-db/go-tupledb/tupledb"
	"github.com/tuple-db/go-tupledb/tuple"

	"errors"
)

// ErrGetExpectedSingle is returned by Get when the supplied tuple's
// single-point range somehow matched more than one stored key — it never
// should, given the storage invariant of no duplicate keys, but Get
// checks for it rather than silently returning an arbitrary match.
var ErrGetExpectedSingle = errors.New("tupledb: get matched more than one key")

// Client wraps an Engine with a subspace prefix. External callers see
// keys without the prefix; every call prepends it before reaching the
// engine.
//
// Grounded on the teacher's db/db.go Database, whose Get/Put/Delete sit
// directly atop fs+log+manifest; here the façade also threads a subspace
// prefix and a typed value parameter, generalized per spec.md §4.C8.
type Client[V any] struct {
	engine *tupledb.Engine[V]
	prefix tuple.Tuple
}

// New creates a Client over engine with an empty (root) subspace.
func New[V any](engine *tupledb.Engine[V]) *Client[V] {
	return &Client[V]{engine: engine}
}

// Subspace returns a new Client whose prefix is c's prefix with p
// appended; all its calls operate on that narrower keyspace.
func (c *Client[V]) Subspace(p tuple.Tuple) *Client[V] {
	return &Client[V]{engine: c.engine, prefix: subspace.Prepend(c.prefix, p)}
}

// Scan reads directly from the engine (no transaction, no conflict
// tracking) and strips the client's subspace prefix from the results.
func (c *Client[V]) Scan(args tuple.ScanArgs) ([]tuple.KeyValuePair[V], error) {
	normalized := subspace.NormalizeScanArgs(c.prefix, args)
	pairs, err := c.engine.Scan(normalized, nil)
	if err != nil {
		return nil, err
	}
	return subspace.RemovePrefixFromPairs(c.prefix, pairs), nil
}

// Get scans the single-point range [t, t] and returns its value if
// present.
func (c *Client[V]) Get(t tuple.Tuple) (v V, found bool, err error) {
	pairs, err := c.Scan(tuple.ScanArgs{Gte: t, Lte: t})
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

// Exists reports whether t is present.
func (c *Client[V]) Exists(t tuple.Tuple) (bool, error) {
	_, found, err := c.Get(t)
	return found, err
}

// Commit applies writes directly to the engine without transactional
// conflict tracking (no txID is threaded), translating keys into the
// client's subspace first.
func (c *Client[V]) Commit(writes tuple.Writes[V]) error {
	return c.engine.Commit(subspace.PrependToWrites(c.prefix, writes), nil)
}

// Cancel discards a transaction's buffered reads/writes from the engine's
// concurrency log directly, given its id.
func (c *Client[V]) Cancel(txID tupledb.TxID) {
	c.engine.Cancel(txID)
}

// Subscribe registers callback for writes whose keys, once stripped of
// the client's subspace prefix, fall within bounds.
func (c *Client[V]) Subscribe(bounds tuple.ScanArgs, callback reactivity.Callback[V]) reactivity.Unsubscribe {
	normalized := subspace.NormalizeScanArgs(c.prefix, bounds)
	prefix := c.prefix
	return c.engine.Subscribe(normalized, func(w tuple.Writes[V]) {
		callback(subspace.RemovePrefixFromWrites(prefix, w))
	})
}

// Transact starts a new Transaction scoped to this client's subspace. If
// txID is given, the transaction reuses that id (letting callers compose
// transactions across an existing txID); otherwise a fresh id is
// allocated from the engine.
func (c *Client[V]) Transact(txID ...tupledb.TxID) *Transaction[V] {
	id := c.engine.NewTxID()
	if len(txID) > 0 {
		id = txID[0]
	}
	return &Transaction[V]{
		engine: c.engine,
		prefix: c.prefix,
		txID:   id,
		buffer: &txBuffer[V]{},
	}
}

// Close releases the underlying engine.
func (c *Client[V]) Close() error {
	return c.engine.Close()
}
