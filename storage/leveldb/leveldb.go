// Package leveldb is a storage.Storage backend over LevelDB, adapted from
// the teacher's leveldb/adapter.go: same options, write-options, and
// scratch-buffer-pool setup, but keyed by the order-preserving tuple
// codec instead of a fixed uint64, valued by gob-encoded V instead of a
// raw []byte, and with a range Scan the teacher's adapter never needed.
package leveldb

import (
	"bytes"
	"encoding/gob"
	"sync"

	"github.com/jmhodges/levigo"

	"github.com/tuple-db/go-tupledb/storage"
	"github.com/tuple-db/go-tupledb/tuple"
)

// Storage is a LevelDB-backed storage.Storage[V].
type Storage[V any] struct {
	db *levigo.DB
	wo *levigo.WriteOptions
	ro *levigo.ReadOptions

	// keyBufPool holds scratch buffers for tuple key encoding, the same
	// sync.Pool trick the teacher's Database.fromDbKey uses, generalized
	// from a fixed 8-byte slice to a growable buffer since tuple keys
	// vary in length.
	keyBufPool *sync.Pool
}

func newKeyBufPool() *sync.Pool {
	return &sync.Pool{New: func() interface{} { return new(bytes.Buffer) }}
}

func levelDbOpts() *levigo.Options {
	opts := levigo.NewOptions()
	opts.SetCreateIfMissing(true)
	opts.SetCompression(levigo.NoCompression)

	cache := levigo.NewLRUCache(0)
	opts.SetCache(cache)
	opts.SetWriteBufferSize(4 * 1024 * 1024)

	return opts
}

// Open creates or opens a LevelDB-backed Storage at path.
func Open[V any](path string) (*Storage[V], error) {
	db, err := levigo.Open(path, levelDbOpts())
	if err != nil {
		return nil, storage.Wrap("open", err)
	}
	return &Storage[V]{
		db:         db,
		wo:         levigo.NewWriteOptions(),
		ro:         levigo.NewReadOptions(),
		keyBufPool: newKeyBufPool(),
	}, nil
}

var _ storage.Storage[int] = (*Storage[int])(nil)

func (s *Storage[V]) encodeKey(t tuple.Tuple) []byte {
	buf := s.keyBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	buf.Write(tuple.Encode(t))
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	s.keyBufPool.Put(buf)
	return out
}

func encodeValue[V any](v V) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeValue[V any](data []byte) (V, error) {
	var v V
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v)
	return v, err
}

// Commit implements storage.Storage: applies writes as one LevelDB
// WriteBatch, atomic with respect to concurrent Scans.
func (s *Storage[V]) Commit(writes tuple.Writes[V]) error {
	batch := levigo.NewWriteBatch()
	defer batch.Close()

	for _, kv := range writes.Set {
		data, err := encodeValue(kv.Value)
		if err != nil {
			return storage.Wrap("commit", err)
		}
		batch.Put(s.encodeKey(kv.Key), data)
	}
	for _, k := range writes.Remove {
		batch.Delete(s.encodeKey(k))
	}

	if err := s.db.Write(s.wo, batch); err != nil {
		return storage.Wrap("commit", err)
	}
	return nil
}

// Scan implements storage.Storage by walking a LevelDB iterator from the
// encoded lower bound to the encoded upper bound — valid because the
// tuple codec is order-preserving, so LevelDB's native byte ordering
// agrees with tuple.CompareTuple.
func (s *Storage[V]) Scan(args tuple.ScanArgs) ([]tuple.KeyValuePair[V], error) {
	normalized := args.Normalize()

	it := s.db.NewIterator(s.ro)
	defer it.Close()

	if lo, excl, ok := normalized.LowerBound(); ok {
		it.Seek(s.encodeKey(lo))
		if excl && it.Valid() && bytes.Equal(it.Key(), s.encodeKey(lo)) {
			it.Next()
		}
	} else {
		it.SeekToFirst()
	}

	hi, hiExcl, hasHi := normalized.UpperBound()
	var hiBytes []byte
	if hasHi {
		hiBytes = s.encodeKey(hi)
	}

	var out []tuple.KeyValuePair[V]
	for ; it.Valid(); it.Next() {
		key := it.Key()
		if hasHi {
			c := bytes.Compare(key, hiBytes)
			if hiExcl && c >= 0 {
				break
			}
			if !hiExcl && c > 0 {
				break
			}
		}

		decodedKey, err := tuple.Decode(key)
		if err != nil {
			return nil, storage.Wrap("scan", err)
		}
		value, err := decodeValue[V](it.Value())
		if err != nil {
			return nil, storage.Wrap("scan", err)
		}
		out = append(out, tuple.KeyValuePair[V]{Key: decodedKey, Value: value})
	}
	if err := it.GetError(); err != nil {
		return nil, storage.Wrap("scan", err)
	}

	if normalized.Reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if normalized.Limit > 0 && len(out) > normalized.Limit {
		out = out[:normalized.Limit]
	}
	return out, nil
}

// Close implements storage.Storage.
func (s *Storage[V]) Close() error {
	s.wo.Close()
	s.ro.Close()
	s.db.Close()
	return nil
}
