package subspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tuple-db/go-tupledb/tuple"
)

func TestPrependAndStrip(t *testing.T) {
	p := tuple.Tuple{tuple.String("game"), tuple.String("g1")}
	k := tuple.Tuple{tuple.String("total")}
	full := Prepend(p, k)
	assert.True(t, full.Equal(tuple.Tuple{tuple.String("game"), tuple.String("g1"), tuple.String("total")}))
	assert.True(t, Strip(p, full).Equal(k))
}

func TestNormalizeScanArgsPrefixOnly(t *testing.T) {
	p := tuple.Tuple{tuple.String("ns")}
	args := tuple.ScanArgs{Prefix: tuple.Tuple{tuple.String("sub")}}
	out := NormalizeScanArgs(p, args)
	assert.True(t, out.Gte.Equal(tuple.Tuple{tuple.String("ns"), tuple.String("sub"), tuple.MIN}))
	assert.True(t, out.Lte.Equal(tuple.Tuple{tuple.String("ns"), tuple.String("sub"), tuple.MAX}))
}

func TestNormalizeScanArgsExplicitBounds(t *testing.T) {
	p := tuple.Tuple{tuple.String("ns")}
	args := tuple.ScanArgs{Gt: tuple.Tuple{tuple.String("a")}, Lte: tuple.Tuple{tuple.String("z")}, Limit: 5}
	out := NormalizeScanArgs(p, args)
	assert.True(t, out.Gt.Equal(tuple.Tuple{tuple.String("ns"), tuple.String("a")}))
	assert.True(t, out.Lte.Equal(tuple.Tuple{tuple.String("ns"), tuple.String("z")}))
	assert.Equal(t, 5, out.Limit)
}

func TestWritesRoundTrip(t *testing.T) {
	p := tuple.Tuple{tuple.String("ns")}
	w := tuple.Writes[string]{
		Set:    []tuple.KeyValuePair[string]{{Key: tuple.Tuple{tuple.String("a")}, Value: "1"}},
		Remove: []tuple.Tuple{{tuple.String("b")}},
	}
	prefixed := PrependToWrites(p, w)
	assert.True(t, prefixed.Set[0].Key.Equal(tuple.Tuple{tuple.String("ns"), tuple.String("a")}))
	back := RemovePrefixFromWrites(p, prefixed)
	assert.True(t, back.Set[0].Key.Equal(w.Set[0].Key))
	assert.True(t, back.Remove[0].Equal(w.Remove[0]))
}
