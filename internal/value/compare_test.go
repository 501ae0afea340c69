package value

import "testing"

func TestCompareNumeric(t *testing.T) {
	if Compare(Int(1), Int(2)) != Less {
		t.Fatalf("Int(1) vs Int(2) should be Less")
	}
	if Compare(Int(2), Real(2.0)) != Equal {
		t.Fatalf("Int(2) vs Real(2.0) should be Equal (cross-type numeric compare)")
	}
	if Compare(Real(3.5), Int(3)) != Greater {
		t.Fatalf("Real(3.5) vs Int(3) should be Greater")
	}
}

func TestCompareNaN(t *testing.T) {
	nan := Real(nanValue())
	if Compare(nan, Real(1.0)) != Unordered {
		t.Fatalf("NaN compared to anything should be Unordered")
	}
	if Compare(nan, nan) != Unordered {
		t.Fatalf("NaN compared to itself should be Unordered")
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestCompareCrossKind(t *testing.T) {
	if Compare(Str("1"), Int(1)) != Unordered {
		t.Fatalf("string vs integer should be Unordered")
	}
}

func TestCompareStrings(t *testing.T) {
	if Compare(Str("abc"), Str("abd")) != Less {
		t.Fatalf("lexicographic compare failed")
	}
}

func TestCompareArraysPrefixThenLength(t *testing.T) {
	a := Array([]Value{Int(1), Int(2)})
	b := Array([]Value{Int(1), Int(2), Int(3)})
	if Compare(a, b) != Less {
		t.Fatalf("shorter prefix-equal array should be Less")
	}
	c := Array([]Value{Int(1), Int(3)})
	if Compare(a, c) != Less {
		t.Fatalf("element-wise divergence should decide before length")
	}
}

func TestObjectsEqualOrderIndependent(t *testing.T) {
	a := Object([]string{"x", "y"}, map[string]Value{"x": Int(1), "y": Int(2)})
	b := Object([]string{"y", "x"}, map[string]Value{"y": Int(2), "x": Int(1)})
	if !ObjectsEqual(a.AsObject(), b.AsObject()) {
		t.Fatalf("objects with same keys/values in different insertion order should be equal")
	}
	if Compare(a, b) != Equal {
		t.Fatalf("Compare on equal objects should return Equal")
	}
}

func TestObjectsNotEqual(t *testing.T) {
	a := Object([]string{"x"}, map[string]Value{"x": Int(1)})
	b := Object([]string{"x"}, map[string]Value{"x": Int(2)})
	if ObjectsEqual(a.AsObject(), b.AsObject()) {
		t.Fatalf("objects with differing values should not be equal")
	}
	if Compare(a, b) != Unordered {
		t.Fatalf("unequal objects should compare Unordered, not Less/Greater")
	}
}

func TestHashStableAcrossEqualValues(t *testing.T) {
	a := Object([]string{"x", "y"}, map[string]Value{"x": Int(1), "y": Str("z")})
	b := Object([]string{"y", "x"}, map[string]Value{"y": Str("z"), "x": Int(1)})
	if Hash(a) != Hash(b) {
		t.Fatalf("equal objects (order-independent) must hash identically for map-key use (§6)")
	}
}

func TestHashArrayMatchesElements(t *testing.T) {
	a := Array([]Value{Int(1), Int(2)})
	b := Array([]Value{Int(1), Int(2)})
	if Hash(a) != Hash(b) {
		t.Fatalf("arrays with identical elements must hash identically")
	}
}
