package async

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuple-db/go-tupledb/storage"
	"github.com/tuple-db/go-tupledb/tupledb"
	"github.com/tuple-db/go-tupledb/tuple"
)

func key(s string) tuple.Tuple { return tuple.Tuple{tuple.String(s)} }

func TestCommitThenScanRoundTrips(t *testing.T) {
	e := New[int](tupledb.New[int](storage.NewMemory[int]()))
	defer func() { _, _ = e.Close().Await() }()

	_, err := e.Commit(tuple.Writes[int]{Set: []tuple.KeyValuePair[int]{{Key: key("a"), Value: 1}}}, nil).Await()
	require.NoError(t, err)

	got, err := e.Scan(tuple.ScanArgs{}, nil).Await()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Value)
}

func TestSubscribeFiresSynchronouslyWithinCommit(t *testing.T) {
	e := New[int](tupledb.New[int](storage.NewMemory[int]()))
	defer func() { _, _ = e.Close().Await() }()

	calls := 0
	unsub, err := e.Subscribe(tuple.ScanArgs{Prefix: key("a")}, func(tuple.Writes[int]) { calls++ }).Await()
	require.NoError(t, err)
	defer unsub()

	_, err = e.Commit(tuple.Writes[int]{Set: []tuple.KeyValuePair[int]{{Key: key("a").Append(tuple.String("b")), Value: 1}}}, nil).Await()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestCancelThenCommitByOtherTxSucceeds(t *testing.T) {
	e := New[int](tupledb.New[int](storage.NewMemory[int]()))
	defer func() { _, _ = e.Close().Await() }()

	tx1 := e.NewTxID()
	_, err := e.Scan(tuple.ScanArgs{Prefix: key("a")}, &tx1).Await()
	require.NoError(t, err)
	_, err = e.Cancel(tx1).Await()
	require.NoError(t, err)

	tx2 := e.NewTxID()
	_, err = e.Commit(tuple.Writes[int]{Set: []tuple.KeyValuePair[int]{{Key: key("a"), Value: 5}}}, &tx2).Await()
	require.NoError(t, err)
}

func TestOperationsCompleteInSubmissionOrder(t *testing.T) {
	e := New[int](tupledb.New[int](storage.NewMemory[int]()))
	defer func() { _, _ = e.Close().Await() }()

	futures := make([]*Future[struct{}], 0, 10)
	for i := 0; i < 10; i++ {
		futures = append(futures, e.Commit(tuple.Writes[int]{Set: []tuple.KeyValuePair[int]{{Key: key("a"), Value: i}}}, nil))
	}
	for _, f := range futures {
		_, err := f.Await()
		require.NoError(t, err)
	}

	got, err := e.Scan(tuple.ScanArgs{}, nil).Await()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].Value, "the last submitted commit for the same key wins")
}
