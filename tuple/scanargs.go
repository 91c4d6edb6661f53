package tuple

// ScanArgs configures a range scan over a sorted sequence of tuple keys.
// All fields are optional; see spec.md §3 for the documented combinations.
type ScanArgs struct {
	// Prefix restricts results to keys having Prefix as a strict prefix.
	// Equivalent to Gte = Prefix++[MIN], Lte = Prefix++[MAX]. When any of
	// Gt/Gte/Lt/Lte is also set, Normalize (and every scan built on it)
	// ignores Prefix.
	Prefix Tuple
	Gt     Tuple
	Gte    Tuple
	Lt     Tuple
	Lte    Tuple
	// Limit caps the number of results returned; zero means unlimited.
	Limit int
	// Reverse returns results in descending order.
	Reverse bool
}

// hasBound reports whether t is non-nil, distinguishing an explicitly-set
// zero-length Tuple bound ([]Value{}) from "not set".
func hasBound(t Tuple) bool { return t != nil }

// Normalize expands Prefix (when set and no other bound is) into explicit
// Gte/Lte bounds, per spec.md §3: "A prefix P is equivalent to gte =
// P++[MIN], lte = P++[MAX]". Returns a copy; args is not mutated.
func (args ScanArgs) Normalize() ScanArgs {
	out := args
	if hasBound(args.Prefix) && !hasBound(args.Gt) && !hasBound(args.Gte) && !hasBound(args.Lt) && !hasBound(args.Lte) {
		out.Gte = args.Prefix.Append(MIN)
		out.Lte = args.Prefix.Append(MAX)
	}
	return out
}

// LowerBound returns the effective lower bound tuple and whether it is
// exclusive ("gt" rather than "gte"). A nil bound means unbounded below.
func (args ScanArgs) LowerBound() (bound Tuple, exclusive bool, ok bool) {
	if hasBound(args.Gt) {
		return args.Gt, true, true
	}
	if hasBound(args.Gte) {
		return args.Gte, false, true
	}
	return nil, false, false
}

// UpperBound returns the effective upper bound tuple and whether it is
// exclusive ("lt" rather than "lte"). A nil bound means unbounded above.
func (args ScanArgs) UpperBound() (bound Tuple, exclusive bool, ok bool) {
	if hasBound(args.Lt) {
		return args.Lt, true, true
	}
	if hasBound(args.Lte) {
		return args.Lte, false, true
	}
	return nil, false, false
}

// Contains reports whether key falls within the (normalized) bounds of
// args, ignoring Limit/Reverse.
func (args ScanArgs) Contains(key Tuple) bool {
	n := args.Normalize()
	if lo, excl, ok := n.LowerBound(); ok {
		c := CompareTuple(key, lo)
		if excl && c <= 0 {
			return false
		}
		if !excl && c < 0 {
			return false
		}
	}
	if hi, excl, ok := n.UpperBound(); ok {
		c := CompareTuple(key, hi)
		if excl && c >= 0 {
			return false
		}
		if !excl && c > 0 {
			return false
		}
	}
	return true
}
