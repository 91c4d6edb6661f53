// Package async wraps the synchronous tupledb.Engine with a
// cooperative-suspension façade, per spec.md §4.C9: "the async engine is
// typically a thin façade over a sync engine". Every operation returns a
// Future immediately and is actually executed, one at a time, by a single
// background goroutine — Go's equivalent of the single-threaded
// cooperative scheduler the spec describes for the source's promise-chain
// style async variant.
package async

import (
	"github.com/tuple-db/go-tupledb/reactivity"
	"github.com/tuple-db/go-tupledb/tupledb"
	"github.com/tuple-db/go-tupledb/tuple"
)

// Future is a pending result, completed exactly once by the engine's
// worker goroutine. Await blocks the calling goroutine until the result
// is ready; it may be called more than once and from more than one
// goroutine.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	complete := func(val T, err error) {
		f.val = val
		f.err = err
		close(f.done)
	}
	return f, complete
}

// Await blocks until the future completes and returns its result.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.val, f.err
}

type task func()

// Engine is the async façade over a *tupledb.Engine. All suspension
// points (spec.md §5: scan, commit, cancel, subscribe, close) are run by
// a single worker goroutine, so they execute one at a time in submission
// order without requiring the caller to hold any lock — the same
// linearizability the sync engine gets from its own mutex, reproduced
// here via a single-consumer channel instead (the teacher's db/wal.go
// dbLog is the pack's closest precedent for "one goroutine owns a
// resource exclusively"; see DESIGN.md).
type Engine[V any] struct {
	sync  *tupledb.Engine[V]
	tasks chan task
	stop  chan struct{}
}

// New starts the worker goroutine and returns an Engine façade over sync.
func New[V any](sync *tupledb.Engine[V]) *Engine[V] {
	e := &Engine[V]{
		sync:  sync,
		tasks: make(chan task),
		stop:  make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *Engine[V]) run() {
	for {
		select {
		case t := <-e.tasks:
			t()
		case <-e.stop:
			return
		}
	}
}

func (e *Engine[V]) submit(t task) {
	e.tasks <- t
}

// NewTxID allocates a fresh transaction id. Cheap and side-effect-free
// enough not to need scheduling through the worker.
func (e *Engine[V]) NewTxID() tupledb.TxID {
	return e.sync.NewTxID()
}

// Scan suspends until the underlying engine has serviced the read.
func (e *Engine[V]) Scan(args tuple.ScanArgs, txID *tupledb.TxID) *Future[[]tuple.KeyValuePair[V]] {
	f, complete := newFuture[[]tuple.KeyValuePair[V]]()
	e.submit(func() {
		result, err := e.sync.Scan(args, txID)
		complete(result, err)
	})
	return f
}

// Commit suspends until writes have been logged, committed to storage,
// and fanned out to subscribers. Subscriber callbacks registered through
// this Engine run synchronously on the worker goroutine as part of this
// call, which is the "cooperative" half of spec.md §4.C9's duality: they
// never run concurrently with another suspension point.
func (e *Engine[V]) Commit(writes tuple.Writes[V], txID *tupledb.TxID) *Future[struct{}] {
	f, complete := newFuture[struct{}]()
	e.submit(func() {
		err := e.sync.Commit(writes, txID)
		complete(struct{}{}, err)
	})
	return f
}

// Cancel suspends until txID's buffered reads/writes are discarded from
// the concurrency log.
func (e *Engine[V]) Cancel(txID tupledb.TxID) *Future[struct{}] {
	f, complete := newFuture[struct{}]()
	e.submit(func() {
		e.sync.Cancel(txID)
		complete(struct{}{}, nil)
	})
	return f
}

// Subscribe registers callback on the worker goroutine, returning a
// Future of the Unsubscribe handle.
func (e *Engine[V]) Subscribe(bounds tuple.ScanArgs, callback reactivity.Callback[V]) *Future[reactivity.Unsubscribe] {
	f, complete := newFuture[reactivity.Unsubscribe]()
	e.submit(func() {
		unsub := e.sync.Subscribe(bounds, callback)
		complete(unsub, nil)
	})
	return f
}

// Close flushes the underlying engine and stops the worker goroutine.
func (e *Engine[V]) Close() *Future[struct{}] {
	f, complete := newFuture[struct{}]()
	e.submit(func() {
		err := e.sync.Close()
		complete(struct{}{}, err)
		close(e.stop)
	})
	return f
}
