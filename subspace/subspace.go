// Package subspace implements the prefix-prepend/strip helpers that give
// clients and transactions a scoped, prefix-relative view of the database
// (spec.md §4.C3).
package subspace

import (
	"github.com/tuple-db/go-tupledb/tuple"
)

// Prepend returns p ++ t.
func Prepend(p, t tuple.Tuple) tuple.Tuple {
	return p.Append(t...)
}

// Strip returns t with prefix p removed. Panics if p is not a prefix of t:
// callers must only call this on tuples known to lie within the subspace.
func Strip(p, t tuple.Tuple) tuple.Tuple {
	if !t.HasPrefix(p) {
		panic("subspace: tuple does not have the expected prefix")
	}
	return t[len(p):].Clone()
}

// NormalizeScanArgs prepends p to every bound in args, per spec.md §4.C3:
// when only Prefix is given, it becomes Gte = p++prefix++[MIN],
// Lte = p++prefix++[MAX]; Limit and Reverse pass through unchanged. A side
// args leaves unbounded is bounded by Gte = p++[MIN] or Lte = p++[MAX], so
// the result never reaches outside the subspace.
func NormalizeScanArgs(p tuple.Tuple, args tuple.ScanArgs) tuple.ScanArgs {
	if len(p) == 0 {
		return args
	}
	out := tuple.ScanArgs{Limit: args.Limit, Reverse: args.Reverse}
	if args.Prefix != nil && args.Gt == nil && args.Gte == nil && args.Lt == nil && args.Lte == nil {
		out.Gte = Prepend(p, args.Prefix).Append(tuple.MIN)
		out.Lte = Prepend(p, args.Prefix).Append(tuple.MAX)
		return out
	}
	if args.Prefix != nil {
		out.Prefix = Prepend(p, args.Prefix)
	}
	if args.Gt != nil {
		out.Gt = Prepend(p, args.Gt)
	}
	if args.Gte != nil {
		out.Gte = Prepend(p, args.Gte)
	}
	if args.Lt != nil {
		out.Lt = Prepend(p, args.Lt)
	}
	if args.Lte != nil {
		out.Lte = Prepend(p, args.Lte)
	}
	if out.Gt == nil && out.Gte == nil {
		out.Gte = p.Append(tuple.MIN)
	}
	if out.Lt == nil && out.Lte == nil {
		out.Lte = p.Append(tuple.MAX)
	}
	return out
}

// RemovePrefixFromPairs strips p from the key of every pair, returning a
// new slice (pairs is not mutated). For an empty p, pairs itself is
// returned.
func RemovePrefixFromPairs[V any](p tuple.Tuple, pairs []tuple.KeyValuePair[V]) []tuple.KeyValuePair[V] {
	if len(p) == 0 {
		return pairs
	}
	out := make([]tuple.KeyValuePair[V], len(pairs))
	for i, kv := range pairs {
		out[i] = tuple.KeyValuePair[V]{Key: Strip(p, kv.Key), Value: kv.Value}
	}
	return out
}

// PrependToWrites prepends p to every key in w, returning a new Writes.
func PrependToWrites[V any](p tuple.Tuple, w tuple.Writes[V]) tuple.Writes[V] {
	if len(p) == 0 {
		return w
	}
	out := tuple.Writes[V]{
		Set:    make([]tuple.KeyValuePair[V], len(w.Set)),
		Remove: make([]tuple.Tuple, len(w.Remove)),
	}
	for i, kv := range w.Set {
		out.Set[i] = tuple.KeyValuePair[V]{Key: Prepend(p, kv.Key), Value: kv.Value}
	}
	for i, k := range w.Remove {
		out.Remove[i] = Prepend(p, k)
	}
	return out
}

// RemovePrefixFromWrites strips p from every key in w, returning a new
// Writes.
func RemovePrefixFromWrites[V any](p tuple.Tuple, w tuple.Writes[V]) tuple.Writes[V] {
	if len(p) == 0 {
		return w
	}
	out := tuple.Writes[V]{
		Set:    make([]tuple.KeyValuePair[V], len(w.Set)),
		Remove: make([]tuple.Tuple, len(w.Remove)),
	}
	for i, kv := range w.Set {
		out.Set[i] = tuple.KeyValuePair[V]{Key: Strip(p, kv.Key), Value: kv.Value}
	}
	for i, k := range w.Remove {
		out.Remove[i] = Strip(p, k)
	}
	return out
}
