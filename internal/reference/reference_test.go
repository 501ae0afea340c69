package reference

import (
	"testing"

	"github.com/asteria-lang/asteria/internal/value"
)

type fixedPRNG struct{ n int }

func (p fixedPRNG) Intn(n int) int { return p.n % n }

func newVar(v value.Value, mutable bool) *value.Variable {
	vv := value.NewVariable()
	vv.Initialize(v, mutable)
	return vv
}

func TestTemporaryReadonly(t *testing.T) {
	r := Temporary(value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3)}))
	r.PushModifier(IndexModifier(1))
	got, err := r.DereferenceReadonly(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AsInteger() != 2 {
		t.Fatalf("got %v, want 2", got)
	}
}

func TestReadonlyNegativeIndexWraps(t *testing.T) {
	r := Temporary(value.Array([]value.Value{value.Int(10), value.Int(20), value.Int(30)}))
	r.PushModifier(IndexModifier(-1))
	got, err := r.DereferenceReadonly(nil)
	if err != nil || got.AsInteger() != 30 {
		t.Fatalf("got %v, %v, want 30, nil", got, err)
	}
}

func TestReadonlyOutOfBoundsIsNull(t *testing.T) {
	r := Temporary(value.Array([]value.Value{value.Int(1)}))
	r.PushModifier(IndexModifier(5))
	got, err := r.DereferenceReadonly(nil)
	if err != nil || !got.IsNull() {
		t.Fatalf("got %v, %v, want null, nil", got, err)
	}
	r2 := Temporary(value.Array([]value.Value{value.Int(1)}))
	r2.PushModifier(IndexModifier(-5))
	got2, err2 := r2.DereferenceReadonly(nil)
	if err2 != nil || !got2.IsNull() {
		t.Fatalf("got %v, %v, want null, nil", got2, err2)
	}
}

func TestReadonlyMissingKeyIsNull(t *testing.T) {
	r := Temporary(value.Object([]string{"a"}, map[string]value.Value{"a": value.Int(1)}))
	r.PushModifier(KeyModifier("b"))
	got, err := r.DereferenceReadonly(nil)
	if err != nil || !got.IsNull() {
		t.Fatalf("got %v, %v, want null, nil", got, err)
	}
}

func TestReadonlyIndexIntoNonArrayErrors(t *testing.T) {
	r := Temporary(value.Int(5))
	r.PushModifier(IndexModifier(0))
	_, err := r.DereferenceReadonly(nil)
	if err == nil {
		t.Fatalf("expected a type_mismatch error")
	}
}

func TestReadonlyHeadTailRandom(t *testing.T) {
	r := Temporary(value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3)}))
	r.PushModifier(HeadModifier())
	got, _ := r.DereferenceReadonly(nil)
	if got.AsInteger() != 1 {
		t.Fatalf("head: got %v, want 1", got)
	}

	r2 := Temporary(value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3)}))
	r2.PushModifier(TailModifier())
	got2, _ := r2.DereferenceReadonly(nil)
	if got2.AsInteger() != 3 {
		t.Fatalf("tail: got %v, want 3", got2)
	}

	r3 := Temporary(value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3)}))
	r3.PushModifier(RandomModifier())
	got3, _ := r3.DereferenceReadonly(fixedPRNG{1})
	if got3.AsInteger() != 2 {
		t.Fatalf("random: got %v, want 2", got3)
	}
}

func TestMutableWriteThroughVariableNoModifiers(t *testing.T) {
	v := newVar(value.Int(1), true)
	r := OfVariable(v)
	slot, err := r.DereferenceMutable(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slot.Write(value.Int(42))
	if v.Get().AsInteger() != 42 {
		t.Fatalf("write didn't land, got %v", v.Get())
	}
}

func TestMutableImmutableVariableErrors(t *testing.T) {
	v := newVar(value.Int(1), false)
	r := OfVariable(v)
	_, err := r.DereferenceMutable(nil)
	if err == nil {
		t.Fatalf("expected immutable_write error")
	}
}

func TestMutableTemporaryNoModifiersErrors(t *testing.T) {
	r := Temporary(value.Int(1))
	_, err := r.DereferenceMutable(nil)
	if err == nil {
		t.Fatalf("expected error writing through a bare temporary")
	}
}

func TestMutableTemporaryArrayElementIsWritable(t *testing.T) {
	r := Temporary(value.Array([]value.Value{value.Int(1), value.Int(2)}))
	r.PushModifier(IndexModifier(0))
	slot, err := r.DereferenceMutable(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slot.Write(value.Int(99))
	got, _ := r.DereferenceReadonly(nil)
	if got.AsInteger() != 99 {
		t.Fatalf("got %v, want 99", got)
	}
}

func TestMutableAutoVivifiesObjectKey(t *testing.T) {
	v := newVar(value.Object(nil, nil), true)
	r := OfVariable(v)
	r.PushModifier(KeyModifier("x"))
	slot, err := r.DereferenceMutable(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slot.Write(value.Int(7))
	got, ok := v.Get().AsObject().Get("x")
	if !ok || got.AsInteger() != 7 {
		t.Fatalf("key not created/written, got %v, %v", got, ok)
	}
}

func TestMutableExtendsArrayWithNulls(t *testing.T) {
	v := newVar(value.Array([]value.Value{value.Int(1)}), true)
	r := OfVariable(v)
	r.PushModifier(IndexModifier(3))
	slot, err := r.DereferenceMutable(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slot.Write(value.Int(5))
	arr := v.Get().AsArray()
	if arr.Len() != 4 {
		t.Fatalf("array should have been extended to length 4, got %d", arr.Len())
	}
	if !arr.Get(1).IsNull() || !arr.Get(2).IsNull() {
		t.Fatalf("intermediate slots should be null, got %v %v", arr.Get(1), arr.Get(2))
	}
	if arr.Get(3).AsInteger() != 5 {
		t.Fatalf("got %v, want 5", arr.Get(3))
	}
}

func TestMutableNegativeIndexBeyondLengthErrors(t *testing.T) {
	v := newVar(value.Array([]value.Value{value.Int(1)}), true)
	r := OfVariable(v)
	r.PushModifier(IndexModifier(-5))
	_, err := r.DereferenceMutable(nil)
	if err == nil {
		t.Fatalf("expected out_of_range error for a negative write index beyond -len")
	}
}

func TestMutableNestedPathVivifies(t *testing.T) {
	v := newVar(value.Object([]string{"a"}, map[string]value.Value{"a": value.Object(nil, nil)}), true)
	r := OfVariable(v)
	r.PushModifier(KeyModifier("a"))
	r.PushModifier(KeyModifier("b"))
	slot, err := r.DereferenceMutable(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slot.Write(value.Int(3))
	inner, _ := v.Get().AsObject().Get("a")
	b, ok := inner.AsObject().Get("b")
	if !ok || b.AsInteger() != 3 {
		t.Fatalf("nested key not written, got %v %v", b, ok)
	}
}

func TestUnsetObjectKey(t *testing.T) {
	v := newVar(value.Object([]string{"a"}, map[string]value.Value{"a": value.Int(1)}), true)
	r := OfVariable(v)
	r.PushModifier(KeyModifier("a"))
	prev, err := r.DereferenceUnset(nil)
	if err != nil || prev.AsInteger() != 1 {
		t.Fatalf("got %v, %v, want 1, nil", prev, err)
	}
	if _, ok := v.Get().AsObject().Get("a"); ok {
		t.Fatalf("key should have been removed")
	}
}

func TestUnsetArrayElementShiftsTail(t *testing.T) {
	v := newVar(value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3)}), true)
	r := OfVariable(v)
	r.PushModifier(IndexModifier(0))
	prev, err := r.DereferenceUnset(nil)
	if err != nil || prev.AsInteger() != 1 {
		t.Fatalf("got %v, %v, want 1, nil", prev, err)
	}
	arr := v.Get().AsArray()
	if arr.Len() != 2 || arr.Get(0).AsInteger() != 2 || arr.Get(1).AsInteger() != 3 {
		t.Fatalf("tail did not shift, got len=%d", arr.Len())
	}
}

func TestUnsetRequiresModifier(t *testing.T) {
	v := newVar(value.Int(1), true)
	r := OfVariable(v)
	_, err := r.DereferenceUnset(nil)
	if err == nil {
		t.Fatalf("expected bad_call error for dereference_unset with no modifiers")
	}
}

func TestSetVariableRetainsAndReleases(t *testing.T) {
	v1 := newVar(value.Int(1), true)
	v2 := newVar(value.Int(2), true)
	r := OfVariable(v1)
	if v1.RefCount() != 1 {
		t.Fatalf("v1 should have been retained, refcount=%d", v1.RefCount())
	}
	r.SetVariable(v2)
	if v1.RefCount() != 0 {
		t.Fatalf("v1 should have been released, refcount=%d", v1.RefCount())
	}
	if v2.RefCount() != 1 {
		t.Fatalf("v2 should have been retained, refcount=%d", v2.RefCount())
	}
}
