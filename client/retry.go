package client

import (
	"errors"

	"github.com/tuple-db/go-tupledb/conflict"
)

// DefaultRetryAttempts is the default number of attempts TransactionalQuery
// makes before giving up (spec.md §4.C8: "up to N (default 5) attempts").
const DefaultRetryAttempts = 5

// TransactionalQuery runs fn against a fresh Transaction from c, retrying
// up to attempts times when fn or Commit fails with a
// conflict.ReadWriteConflictError. Any other error is returned
// immediately without retrying. On success, the transaction is committed
// before TransactionalQuery returns; on a non-retryable failure, or after
// exhausting attempts, the in-flight transaction is canceled.
func TransactionalQuery[V, R any](c *Client[V], attempts int, fn func(tx *Transaction[V]) (R, error)) (R, error) {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}

	var zero R
	var lastErr error
	for i := 0; i < attempts; i++ {
		tx := c.Transact()
		result, err := fn(tx)
		if err != nil {
			_ = tx.Cancel()
			if isConflict(err) {
				lastErr = err
				continue
			}
			return zero, err
		}
		if err := tx.Commit(); err != nil {
			c.engine.Cancel(tx.TxID())
			if isConflict(err) {
				lastErr = err
				continue
			}
			return zero, err
		}
		return result, nil
	}
	return zero, lastErr
}

// Transact is TransactionalQuery with the default attempt count.
func Transact[V, R any](c *Client[V], fn func(tx *Transaction[V]) (R, error)) (R, error) {
	return TransactionalQuery(c, DefaultRetryAttempts, fn)
}

// TransactInTx runs fn directly against an already-open transaction,
// without wrapping or retrying — per spec.md §4.C8, "if the caller already
// passed in a transaction instead of a client, the function is invoked
// directly without wrapping (transactions compose)".
func TransactInTx[V, R any](tx *Transaction[V], fn func(tx *Transaction[V]) (R, error)) (R, error) {
	return fn(tx)
}

func isConflict(err error) bool {
	var conflictErr *conflict.ReadWriteConflictError
	return errors.As(err, &conflictErr)
}
