package conflict

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuple-db/go-tupledb/tuple"
)

func scoreKey(name string) tuple.Tuple {
	return tuple.Tuple{tuple.String("score"), tuple.String(name)}
}

func TestCommitConflictsWithWriteAfterRead(t *testing.T) {
	l := New()
	tx1 := l.NewTxID()
	tx2 := l.NewTxID()

	bounds := tuple.ScanArgs{Gt: tuple.Tuple{tuple.String("score")}, Lte: tuple.Tuple{tuple.String("score"), tuple.MAX}}
	l.Read(tx1, bounds)

	l.Write(tx2, scoreKey("chet"))
	require.NoError(t, l.Commit(tx2))

	l.Write(tx1, tuple.Tuple{tuple.String("total")})
	err := l.Commit(tx1)
	require.Error(t, err)
	var conflictErr *ReadWriteConflictError
	assert.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, tx1, conflictErr.TxID)
}

func TestCommitSucceedsWhenWritesAreDisjointFromReads(t *testing.T) {
	l := New()
	tx1 := l.NewTxID()
	tx2 := l.NewTxID()

	bounds := tuple.ScanArgs{Prefix: tuple.Tuple{tuple.String("score")}}
	l.Read(tx1, bounds)

	l.Write(tx2, tuple.Tuple{tuple.String("total")})
	require.NoError(t, l.Commit(tx2))

	l.Write(tx1, tuple.Tuple{tuple.String("total")})
	assert.NoError(t, l.Commit(tx1))
}

func TestCommitIgnoresWritesFromSameTransaction(t *testing.T) {
	l := New()
	tx1 := l.NewTxID()

	bounds := tuple.ScanArgs{Prefix: tuple.Tuple{tuple.String("score")}}
	l.Read(tx1, bounds)
	l.Write(tx1, scoreKey("chet"))
	assert.NoError(t, l.Commit(tx1))
}

func TestCommitIgnoresWriteBeforeRead(t *testing.T) {
	l := New()
	tx1 := l.NewTxID()
	tx2 := l.NewTxID()

	l.Write(tx2, scoreKey("chet"))
	require.NoError(t, l.Commit(tx2))

	bounds := tuple.ScanArgs{Prefix: tuple.Tuple{tuple.String("score")}}
	l.Read(tx1, bounds)
	assert.NoError(t, l.Commit(tx1))
}

func TestCancelDiscardsEntriesWithoutConflictCheck(t *testing.T) {
	l := New()
	tx1 := l.NewTxID()
	tx2 := l.NewTxID()

	bounds := tuple.ScanArgs{Prefix: tuple.Tuple{tuple.String("score")}}
	l.Read(tx1, bounds)
	l.Cancel(tx1)

	l.Write(tx2, scoreKey("chet"))
	require.NoError(t, l.Commit(tx2))

	assert.Equal(t, 0, l.Len())
}

func TestGCDropsWriteEntriesOnceNoLiveReadPredatesThem(t *testing.T) {
	l := New()
	tx1 := l.NewTxID()
	tx2 := l.NewTxID()

	l.Write(tx1, tuple.Tuple{tuple.String("a")})
	require.NoError(t, l.Commit(tx1))
	assert.Equal(t, 0, l.Len(), "no live reads at all: the write is collected immediately")

	tx3 := l.NewTxID()
	l.Read(tx3, tuple.ScanArgs{Prefix: tuple.Tuple{tuple.String("a")}})
	l.Write(tx2, tuple.Tuple{tuple.String("b")})
	require.NoError(t, l.Commit(tx2), "b is disjoint from tx3's bounds")
	assert.Equal(t, 2, l.Len(), "tx3's read entry and tx2's now-committed write are both still live")
	l.Cancel(tx3)
	assert.Equal(t, 0, l.Len(), "no live read remains, so tx2's write is finally collectible")
}
