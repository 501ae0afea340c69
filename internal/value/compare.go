package value

import "bytes"

// Ordering is the three-plus-one result of Compare (§3.1, §4.9 cmp_3way).
type Ordering uint8

const (
	Less Ordering = iota
	Equal
	Greater
	Unordered
)

// Compare implements §3.1's cross-type comparison rules: numeric
// comparison spans integer/real, lexicographic for strings, element-
// wise for arrays (unequal length compares by prefix then length),
// objects are unordered for relational comparison (equal iff keys and
// values match), and any other cross-type pairing is Unordered.
func Compare(a, b Value) Ordering {
	if a.IsInteger() && b.IsInteger() {
		return compareInt(a.AsInteger(), b.AsInteger())
	}
	if (a.IsInteger() || a.IsReal()) && (b.IsInteger() || b.IsReal()) {
		return compareFloat(numericOf(a), numericOf(b))
	}
	if a.Kind != b.Kind {
		return Unordered
	}
	switch a.Kind {
	case KNull:
		return Equal
	case KBoolean:
		return compareInt(boolToInt(a.AsBoolean()), boolToInt(b.AsBoolean()))
	case KString:
		return compareBytes(a.AsBytes(), b.AsBytes())
	case KArray:
		return compareArrays(a.AsArray(), b.AsArray())
	case KObject:
		if ObjectsEqual(a.AsObject(), b.AsObject()) {
			return Equal
		}
		return Unordered
	default:
		return Unordered
	}
}

func numericOf(v Value) float64 {
	if v.IsInteger() {
		return float64(v.AsInteger())
	}
	return v.AsReal()
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func compareInt(a, b int64) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

func compareFloat(a, b float64) Ordering {
	if a != a || b != b { // NaN on either side (§9 open question: preserved as Unordered)
		return Unordered
	}
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

func compareBytes(a, b []byte) Ordering {
	switch bytes.Compare(a, b) {
	case -1:
		return Less
	case 1:
		return Greater
	default:
		return Equal
	}
}

func compareArrays(a, b *ArrayData) Ordering {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	for i := 0; i < n; i++ {
		if ord := Compare(a.Get(i), b.Get(i)); ord != Equal {
			return ord
		}
	}
	return compareInt(int64(a.Len()), int64(b.Len()))
}

// Equals is equality per Compare == Equal, except it never needs to
// distinguish Unordered from not-equal: both count as "not equal".
func Equals(a, b Value) bool { return Compare(a, b) == Equal }

// ObjectsEqual implements §3.1: objects are equal iff keys and values
// match (order-independent, since objects are "unordered for
// relational comparison").
func ObjectsEqual(a, b *ObjectData) bool {
	if len(a.Keys) != len(b.Keys) {
		return false
	}
	for _, k := range a.Keys {
		bSlot, ok := b.Vals[k]
		if !ok || !Equals(a.Vals[k].Get(), bSlot.Get()) {
			return false
		}
	}
	return true
}

// Hash is for host-side maps keyed on Value identity/equality;
// grounded on vm.Value's
// Hash method in the teacher, extended to strings/arrays/objects.
func Hash(v Value) uint32 {
	switch v.Kind {
	case KNull:
		return 0
	case KBoolean:
		return uint32(v.Data)
	case KInteger, KReal:
		return uint32(v.Data ^ (v.Data >> 32))
	case KString:
		return hashBytes(v.AsBytes())
	case KArray:
		var h uint32 = 17
		a := v.AsArray()
		for i := 0; i < a.Len(); i++ {
			h = h*31 + Hash(a.Get(i))
		}
		return h
	case KObject:
		var h uint32
		o := v.AsObject()
		for _, k := range o.Keys {
			h += hashBytes([]byte(k)) ^ Hash(o.Vals[k].Get())
		}
		return h
	default:
		return 0
	}
}

func hashBytes(b []byte) uint32 {
	var h uint32 = 2166136261
	for _, c := range b {
		h ^= uint32(c)
		h *= 16777619
	}
	return h
}
