package value

import "testing"

func TestScalarConstructors(t *testing.T) {
	if !Bool(true).AsBoolean() {
		t.Fatalf("Bool(true).AsBoolean() = false")
	}
	if Int(42).AsInteger() != 42 {
		t.Fatalf("Int(42).AsInteger() = %d", Int(42).AsInteger())
	}
	if Real(1.5).AsReal() != 1.5 {
		t.Fatalf("Real(1.5).AsReal() = %v", Real(1.5).AsReal())
	}
	if Str("hi").AsString() != "hi" {
		t.Fatalf("Str(%q).AsString() = %q", "hi", Str("hi").AsString())
	}
}

func TestTypeOf(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Null, "null"},
		{Bool(false), "boolean"},
		{Int(1), "integer"},
		{Real(1), "real"},
		{Str("s"), "string"},
		{Array(nil), "array"},
		{Object(nil, nil), "object"},
	}
	for _, c := range cases {
		if got := c.v.TypeOf(); got != c.want {
			t.Errorf("TypeOf(%v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestTest(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Null, false},
		{Bool(false), false},
		{Bool(true), true},
		{Int(0), false},
		{Int(1), true},
		{Real(0), false},
		{Str(""), false},
		{Str("x"), true},
		{Array(nil), false},
		{Array([]Value{Int(1)}), true},
		{Object(nil, nil), true},
	}
	for i, c := range cases {
		if got := c.v.Test(); got != c.want {
			t.Errorf("case %d: Test(%v) = %v, want %v", i, c.v, got, c.want)
		}
	}
}

func TestArrayAliasing(t *testing.T) {
	// §8 scenario 3: array elements are independently addressable
	// Variable slots, so writing through one alias is visible through
	// another reference to the same slot.
	a := Array([]Value{Int(1), Int(2)})
	slot := a.AsArray().Slots[0]
	slot.Write(Int(99))
	if got := a.AsArray().Get(0).AsInteger(); got != 99 {
		t.Fatalf("after aliased write, Get(0) = %d, want 99", got)
	}
}

func TestObjectCycle(t *testing.T) {
	a := Object([]string{"x"}, map[string]Value{"x": Null})
	b := Object([]string{"x"}, map[string]Value{"x": Null})
	aObj := a.AsObject()
	bObj := b.AsObject()
	aObj.SetSlot("x", bObj.Vals["x"])
	bObj.Vals["x"].Write(a)
	// a.x now aliases b's slot, and b.x holds a: a genuine cycle through
	// the Variable graph rather than a deep-copied tree.
	got, _ := aObj.Get("x")
	if !got.IsObject() {
		t.Fatalf("a.x should hold an object (the cycle back to b), got %v", got.TypeOf())
	}
}

func TestObjectInsertionOrder(t *testing.T) {
	o := NewObjectData()
	o.Set("b", Int(2))
	o.Set("a", Int(1))
	o.Set("b", Int(20))
	if len(o.Keys) != 2 {
		t.Fatalf("expected 2 keys after overwrite, got %d: %v", len(o.Keys), o.Keys)
	}
	if o.Keys[0] != "b" || o.Keys[1] != "a" {
		t.Fatalf("insertion order not preserved: %v", o.Keys)
	}
	v, _ := o.Get("b")
	if v.AsInteger() != 20 {
		t.Fatalf("overwrite should update the existing slot, got %d", v.AsInteger())
	}
}

func TestInspectCompactVsPretty(t *testing.T) {
	v := Array([]Value{Int(1), Str("x")})
	compact := v.Inspect(false)
	pretty := v.Inspect(true)
	if compact == pretty {
		t.Fatalf("compact and pretty forms should differ for a non-empty array")
	}
}

func TestMutReal(t *testing.T) {
	v := Int(5).MutReal()
	if !v.IsReal() || v.AsReal() != 5 {
		t.Fatalf("MutReal on integer should widen to real 5, got %v", v)
	}
	already := Real(2.5).MutReal()
	if !already.IsReal() || already.AsReal() != 2.5 {
		t.Fatalf("MutReal on real should be a no-op, got %v", already)
	}
}
