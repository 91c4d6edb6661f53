package tuple

import "sort"

// typeRank gives the relative order of Value kinds, per spec: null < object
// < array < number < string < boolean, with MIN below everything and MAX
// above everything. Ident and String share the "string" rank; ties within
// that rank are broken in compareSameKind.
func typeRank(k Kind) int {
	switch k {
	case kindMin:
		return -1
	case KindNull:
		return 0
	case KindObject:
		return 1
	case KindArray:
		return 2
	case KindNumber:
		return 3
	case KindIdent, KindString:
		return 4
	case KindBool:
		return 5
	case kindMax:
		return 6
	default:
		panic("tuple: invalid Value kind")
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// Compare returns -1, 0, or 1 according to whether a sorts before, equal
// to, or after b, per the total order spec.md §4.C1 defines.
func Compare(a, b Value) int {
	if a.kind == kindMin && b.kind == kindMin {
		return 0
	}
	if a.kind == kindMax && b.kind == kindMax {
		return 0
	}
	ra, rb := typeRank(a.kind), typeRank(b.kind)
	if ra != rb {
		return sign(ra - rb)
	}
	return compareSameKind(a, b)
}

func compareSameKind(a, b Value) int {
	switch a.kind {
	case kindMin, kindMax, KindNull:
		return 0
	case KindNumber:
		return compareFloat(a.num, b.num)
	case KindIdent, KindString:
		if a.kind != b.kind {
			// idents sort before plain strings when the rank ties (see
			// DESIGN.md Open Question decisions).
			if a.kind == KindIdent {
				return -1
			}
			return 1
		}
		return compareString(a.str, b.str)
	case KindBool:
		if a.b == b.b {
			return 0
		}
		if !a.b {
			return -1
		}
		return 1
	case KindArray:
		return compareArray(a.arr, b.arr)
	case KindObject:
		return compareObject(a.obj, b.obj)
	default:
		panic("tuple: invalid Value kind")
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareArray(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return sign(len(a) - len(b))
}

// compareObject compares objects by entries sorted by key, then by value;
// shorter (fewer-entries, after the common keys compare equal) sorts first,
// matching the array tie-break rule.
func compareObject(a, b map[string]Value) int {
	ak := sortedKeys(a)
	bk := sortedKeys(b)
	n := len(ak)
	if len(bk) < n {
		n = len(bk)
	}
	for i := 0; i < n; i++ {
		if c := compareString(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := Compare(a[ak[i]], b[bk[i]]); c != 0 {
			return c
		}
	}
	return sign(len(ak) - len(bk))
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CompareTuple compares two Tuples element-wise; a shorter Tuple that is a
// prefix of a longer one sorts before it.
func CompareTuple(a, b Tuple) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return sign(len(a) - len(b))
}

// Less is a convenience predicate built on CompareTuple, suitable for
// sort.Slice.
func Less(a, b Tuple) bool {
	return CompareTuple(a, b) < 0
}
