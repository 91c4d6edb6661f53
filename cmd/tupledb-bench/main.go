// Command tupledb-bench drives a fixed write workload against each
// storage backend in turn and reports throughput, grounded on the
// teacher's main.go/bench.go driver (same RandomKey/Value/FinishedSingleOp/
// Report shape) but parameterized over this module's three storage.Storage
// implementations instead of choosing between specious/leveldb/noop.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tuple-db/go-tupledb/storage"
	"github.com/tuple-db/go-tupledb/storage/leveldb"
	"github.com/tuple-db/go-tupledb/storage/walstore"
	"github.com/tuple-db/go-tupledb/tuple"
)

// opsPerRun mirrors the teacher's main.go hardcoded iteration count, scaled
// down since this runs against three backends in one process rather than
// one backend per invocation.
const opsPerRun = 100000

type backend struct {
	name  string
	store storage.Storage[string]
	close func()
}

func openBackends(dir string) ([]backend, error) {
	levelPath := filepath.Join(dir, "level.db")
	levelStore, err := leveldb.Open[string](levelPath)
	if err != nil {
		return nil, fmt.Errorf("opening leveldb backend: %w", err)
	}

	walPath := filepath.Join(dir, "wal.db")
	walFs, err := walstore.Dir(walPath)
	if err != nil {
		return nil, fmt.Errorf("opening walstore filesystem: %w", err)
	}
	walDb, err := walstore.Open[string](walFs)
	if err != nil {
		return nil, fmt.Errorf("opening walstore backend: %w", err)
	}

	return []backend{
		{name: "memory", store: storage.NewMemory[string](), close: func() {}},
		{name: "leveldb", store: levelStore, close: func() { _ = levelStore.Close() }},
		{name: "walstore", store: walDb, close: func() { _ = walDb.Close() }},
	}, nil
}

func run(b backend) error {
	g := newGenerator()
	s := newStats()
	for i := 0; i < opsPerRun; i++ {
		k, v := g.randomKey(), g.value()
		writes := tuple.Writes[string]{Set: []tuple.KeyValuePair[string]{{Key: k, Value: v}}}
		if err := b.store.Commit(writes); err != nil {
			return fmt.Errorf("%s: commit %d: %w", b.name, i, err)
		}
		s.finishOp(len(v))
	}
	s.report(b.name)
	return nil
}

func main() {
	dir, err := os.MkdirTemp("", "tupledb-bench-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	backends, err := openBackends(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, b := range backends {
		if err := run(b); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		b.close()
	}
}
