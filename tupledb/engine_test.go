package tupledb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuple-db/go-tupledb/conflict"
	"github.com/tuple-db/go-tupledb/storage"
	"github.com/tuple-db/go-tupledb/tuple"
)

func scoreKey(name string) tuple.Tuple {
	return tuple.Tuple{tuple.String("score"), tuple.String(name)}
}

func TestCommitWithoutTxIDJustWrites(t *testing.T) {
	e := New[int](storage.NewMemory[int]())
	require.NoError(t, e.Commit(tuple.Writes[int]{Set: []tuple.KeyValuePair[int]{{Key: scoreKey("chet"), Value: 1}}}, nil))

	got, err := e.Scan(tuple.ScanArgs{Prefix: tuple.Tuple{tuple.String("score")}}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Value)
}

func TestScanLogsReadAndCommitDetectsConflict(t *testing.T) {
	e := New[int](storage.NewMemory[int]())

	tx1 := e.NewTxID()
	bounds := tuple.ScanArgs{Gt: tuple.Tuple{tuple.String("score")}, Lte: tuple.Tuple{tuple.String("score"), tuple.MAX}}
	_, err := e.Scan(bounds, &tx1)
	require.NoError(t, err)

	tx2 := e.NewTxID()
	require.NoError(t, e.Commit(tuple.Writes[int]{Set: []tuple.KeyValuePair[int]{{Key: scoreKey("chet"), Value: 5}}}, &tx2))

	err = e.Commit(tuple.Writes[int]{Set: []tuple.KeyValuePair[int]{{Key: tuple.Tuple{tuple.String("total")}, Value: 3}}}, &tx1)
	require.Error(t, err)
	var conflictErr *conflict.ReadWriteConflictError
	assert.True(t, errors.As(err, &conflictErr))
}

func TestCancelDropsBufferedConflictEntries(t *testing.T) {
	e := New[int](storage.NewMemory[int]())

	tx1 := e.NewTxID()
	bounds := tuple.ScanArgs{Prefix: tuple.Tuple{tuple.String("score")}}
	_, err := e.Scan(bounds, &tx1)
	require.NoError(t, err)
	e.Cancel(tx1)

	tx2 := e.NewTxID()
	require.NoError(t, e.Commit(tuple.Writes[int]{Set: []tuple.KeyValuePair[int]{{Key: scoreKey("chet"), Value: 5}}}, &tx2))
}

func TestSubscribeFiresAfterCommit(t *testing.T) {
	e := New[int](storage.NewMemory[int]())

	var got tuple.Writes[int]
	calls := 0
	unsub := e.Subscribe(tuple.ScanArgs{Prefix: tuple.Tuple{tuple.String("score")}}, func(w tuple.Writes[int]) {
		calls++
		got = w
	})
	defer unsub()

	require.NoError(t, e.Commit(tuple.Writes[int]{Set: []tuple.KeyValuePair[int]{{Key: scoreKey("chet"), Value: 2}}}, nil))

	assert.Equal(t, 1, calls)
	require.Len(t, got.Set, 1)
	assert.Equal(t, 2, got.Set[0].Value)
}

func TestCloseReleasesStorage(t *testing.T) {
	e := New[int](storage.NewMemory[int]())
	require.NoError(t, e.Commit(tuple.Writes[int]{Set: []tuple.KeyValuePair[int]{{Key: scoreKey("chet"), Value: 1}}}, nil))
	require.NoError(t, e.Close())

	got, err := e.Scan(tuple.ScanArgs{}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
