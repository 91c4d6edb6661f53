// Package sorted implements binary-search primitives over in-memory sorted
// arrays of tuples and (tuple, value) pairs, and a range-scan operator
// built on top of them (spec.md §4.C2).
package sorted

import (
	"github.com/tuple-db/go-tupledb/tuple"
)

// SearchResult is the outcome of a binary search: either an exact match at
// Index (Found true), or the insertion position that preserves order
// (Found false).
type SearchResult struct {
	Index int
	Found bool
}

// Search performs binary search for key over a slice sorted ascending by
// tuple.CompareTuple, returning the matching index or an insertion point.
func Search[V any](entries []tuple.KeyValuePair[V], key tuple.Tuple) SearchResult {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := lo + (hi-lo)/2
		c := tuple.CompareTuple(entries[mid].Key, key)
		switch {
		case c == 0:
			return SearchResult{Index: mid, Found: true}
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return SearchResult{Index: lo, Found: false}
}

// SearchTuples is Search specialized to a plain sorted []tuple.Tuple (no
// associated value), used by transaction write buffers (spec.md §4.C2,
// §4.C8).
func SearchTuples(entries []tuple.Tuple, key tuple.Tuple) SearchResult {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := lo + (hi-lo)/2
		c := tuple.CompareTuple(entries[mid], key)
		switch {
		case c == 0:
			return SearchResult{Index: mid, Found: true}
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return SearchResult{Index: lo, Found: false}
}

// Get returns the value stored at key, if present.
func Get[V any](entries []tuple.KeyValuePair[V], key tuple.Tuple) (v V, ok bool) {
	r := Search(entries, key)
	if !r.Found {
		return v, false
	}
	return entries[r.Index].Value, true
}

// Exists reports whether key is present.
func Exists[V any](entries []tuple.KeyValuePair[V], key tuple.Tuple) bool {
	return Search(entries, key).Found
}

// Put inserts or updates the (key, value) pair, returning the updated
// slice. Runs in O(n) due to the splice, same as the teacher's table
// writer/manifest append pattern.
func Put[V any](entries []tuple.KeyValuePair[V], key tuple.Tuple, value V) []tuple.KeyValuePair[V] {
	r := Search(entries, key)
	if r.Found {
		entries[r.Index].Value = value
		return entries
	}
	entries = append(entries, tuple.KeyValuePair[V]{})
	copy(entries[r.Index+1:], entries[r.Index:])
	entries[r.Index] = tuple.KeyValuePair[V]{Key: key, Value: value}
	return entries
}

// Remove deletes key if present, returning the updated slice.
func Remove[V any](entries []tuple.KeyValuePair[V], key tuple.Tuple) []tuple.KeyValuePair[V] {
	r := Search(entries, key)
	if !r.Found {
		return entries
	}
	return append(entries[:r.Index], entries[r.Index+1:]...)
}

// PutTuple is Put specialized to a plain sorted []tuple.Tuple set.
func PutTuple(entries []tuple.Tuple, key tuple.Tuple) []tuple.Tuple {
	r := SearchTuples(entries, key)
	if r.Found {
		return entries
	}
	entries = append(entries, nil)
	copy(entries[r.Index+1:], entries[r.Index:])
	entries[r.Index] = key
	return entries
}

// RemoveTuple deletes key from a plain sorted []tuple.Tuple set if present.
func RemoveTuple(entries []tuple.Tuple, key tuple.Tuple) []tuple.Tuple {
	r := SearchTuples(entries, key)
	if !r.Found {
		return entries
	}
	return append(entries[:r.Index], entries[r.Index+1:]...)
}

// bounds computes the half-open index range [start, end) of entries that
// satisfy args' gt/gte/lt/lte bounds, via two binary searches.
func bounds[V any](entries []tuple.KeyValuePair[V], args tuple.ScanArgs) (start, end int) {
	args = args.Normalize()
	start, end = 0, len(entries)
	if lo, excl, ok := args.LowerBound(); ok {
		r := Search(entries, lo)
		start = r.Index
		if r.Found && excl {
			start++
		}
	}
	if hi, excl, ok := args.UpperBound(); ok {
		r := Search(entries, hi)
		end = r.Index
		if r.Found && !excl {
			end++
		}
	}
	if end < start {
		end = start
	}
	return start, end
}

// Scan returns the sub-slice of entries (already sorted ascending) that
// satisfies args, honoring Limit and Reverse. Limit is applied after
// reversal, per spec.md §9.
func Scan[V any](entries []tuple.KeyValuePair[V], args tuple.ScanArgs) []tuple.KeyValuePair[V] {
	start, end := bounds(entries, args)
	slice := entries[start:end]
	out := make([]tuple.KeyValuePair[V], len(slice))
	copy(out, slice)
	if args.Reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if args.Limit > 0 && len(out) > args.Limit {
		out = out[:args.Limit]
	}
	return out
}

// ScanTuples is Scan specialized to a plain sorted []tuple.Tuple set.
func ScanTuples(entries []tuple.Tuple, args tuple.ScanArgs) []tuple.Tuple {
	args = args.Normalize()
	start, end := 0, len(entries)
	if lo, excl, ok := args.LowerBound(); ok {
		r := SearchTuples(entries, lo)
		start = r.Index
		if r.Found && excl {
			start++
		}
	}
	if hi, excl, ok := args.UpperBound(); ok {
		r := SearchTuples(entries, hi)
		end = r.Index
		if r.Found && !excl {
			end++
		}
	}
	if end < start {
		end = start
	}
	slice := entries[start:end]
	out := make([]tuple.Tuple, len(slice))
	copy(out, slice)
	if args.Reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if args.Limit > 0 && len(out) > args.Limit {
		out = out[:args.Limit]
	}
	return out
}
