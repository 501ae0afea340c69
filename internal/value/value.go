// Package value implements Asteria's Value: a tagged union over nine
// variants (§3.1 of the runtime spec). Scalars (null, boolean, integer,
// real) are stored inline so they never allocate; strings, opaque
// handles, functions, arrays and objects are boxed behind Obj.
package value

import (
	"fmt"
	"math"
	"strings"
)

// Kind identifies which of the nine variants a Value holds.
type Kind uint8

const (
	KNull Kind = iota
	KBoolean
	KInteger
	KReal
	KString
	KOpaque
	KFunction
	KArray
	KObject
)

var kindNames = [...]string{
	KNull:     "null",
	KBoolean:  "boolean",
	KInteger:  "integer",
	KReal:     "real",
	KString:   "string",
	KOpaque:   "opaque",
	KFunction: "function",
	KArray:    "array",
	KObject:   "object",
}

// TypeName returns the canonical type name used by the `typeof` operator.
func (k Kind) TypeName() string { return kindNames[k] }

// Function is the callable contract a function Value wraps (§6).
// Invoke executes the callable, writing its result back through self.
type Function interface {
	Invoke(self *Ref, global any, args []Value) error
	Name() string
}

// Ref is a minimal write-back target used by Function.Invoke; the full
// Reference type lives in package reference and satisfies this via a
// thin adapter, keeping package value free of a dependency on it.
type Ref struct {
	Set func(Value)
}

// Opaque is a host-supplied object carried by the opaque variant.
type Opaque interface {
	OpaqueTypeName() string
}

// Value is the tagged union. Data holds the bit pattern for Boolean,
// Integer and Real; Obj holds the heap payload for String, Opaque,
// Function, Array and Object.
type Value struct {
	Kind Kind
	Data uint64
	Obj  any
}

// Null is the canonical null Value.
var Null = Value{Kind: KNull}

func Bool(b bool) Value {
	var d uint64
	if b {
		d = 1
	}
	return Value{Kind: KBoolean, Data: d}
}

func Int(i int64) Value { return Value{Kind: KInteger, Data: uint64(i)} }

func Real(f float64) Value { return Value{Kind: KReal, Data: math.Float64bits(f)} }

func Str(s string) Value { return Value{Kind: KString, Obj: []byte(s)} }

func Bytes(b []byte) Value { return Value{Kind: KString, Obj: b} }

func OpaqueVal(o Opaque) Value { return Value{Kind: KOpaque, Obj: o} }

func Func(f Function) Value { return Value{Kind: KFunction, Obj: f} }

// Array builds an array Value from plain Values, boxing each element
// in its own Variable slot (Mutable, already-initialized) so it is
// independently addressable by an array-index Modifier and individually
// GC-tracked. Use NewArrayData directly when slots must be shared
// (aliased) with an existing Variable.
func Array(elems []Value) Value {
	slots := make([]*Variable, len(elems))
	for i, e := range elems {
		v := NewVariable()
		v.Initialize(e, true)
		v.Retain()
		slots[i] = v
	}
	return Value{Kind: KArray, Obj: &ArrayData{Slots: slots}}
}

// Object builds an object Value from plain Values, boxing each field
// the same way Array does.
func Object(keys []string, vals map[string]Value) Value {
	o := NewObjectData()
	for _, k := range keys {
		o.Set(k, vals[k])
	}
	return Value{Kind: KObject, Obj: o}
}

// NewArrayData builds an ArrayData directly from existing (already
// retained by the caller) Variable slots, for cases that need to share
// slots with another Variable rather than copy their Values.
func NewArrayData(slots []*Variable) *ArrayData {
	return &ArrayData{Slots: slots}
}

// ArrayData is the boxed payload of an array Value: an ordered slice
// of Variable slots. Each slot is independently aliasable -- this is
// what lets `a.x = b; b.x = a` (§8 scenario 3) build a genuine
// reference cycle in the Variable graph instead of a deep-copied tree,
// per the arena/handle redesign spec.md §9 directs for a
// strict-ownership host language.
type ArrayData struct {
	Slots []*Variable
}

func (a *ArrayData) Len() int { return len(a.Slots) }

func (a *ArrayData) Get(i int) Value { return a.Slots[i].Get() }

// SetSlot rebinds index i to an existing Variable slot, releasing
// whatever slot previously occupied that index and retaining the new
// one (see Variable.Retain/Release, §4.2).
func (a *ArrayData) SetSlot(i int, slot *Variable) {
	if old := a.Slots[i]; old != nil {
		old.Release()
	}
	slot.Retain()
	a.Slots[i] = slot
}

// Append grows the array by one element, boxing v in a fresh retained
// slot (array head/tail modifier auto-vivification, §4.3).
func (a *ArrayData) Append(v Value) {
	slot := NewVariable()
	slot.Initialize(v, true)
	slot.Retain()
	a.Slots = append(a.Slots, slot)
}

// ObjectData is the boxed payload of an object Value: an insertion-
// ordered string->Variable mapping, preserving §3.1's ordering
// guarantee. Like ArrayData, fields are Variable slots, not raw
// Values, so field aliasing and GC cycle detection both work.
type ObjectData struct {
	Keys []string
	Vals map[string]*Variable
}

func NewObjectData() *ObjectData {
	return &ObjectData{Vals: make(map[string]*Variable)}
}

func (o *ObjectData) Get(key string) (Value, bool) {
	slot, ok := o.Vals[key]
	if !ok {
		return Null, false
	}
	return slot.Get(), true
}

// Set assigns a plain Value, boxing it in a fresh slot if the key is
// new, or overwriting the existing slot's Value if the key already
// exists (preserving any external aliasing of that slot).
func (o *ObjectData) Set(key string, v Value) {
	if slot, exists := o.Vals[key]; exists {
		slot.Write(v)
		return
	}
	o.Keys = append(o.Keys, key)
	slot := NewVariable()
	slot.Initialize(v, true)
	slot.Retain()
	o.Vals[key] = slot
}

// SetSlot binds key directly to an existing Variable slot (used when a
// Reference-backed assignment must alias rather than copy), releasing
// whatever slot previously occupied that key.
func (o *ObjectData) SetSlot(key string, slot *Variable) {
	if old, exists := o.Vals[key]; exists {
		old.Release()
	} else {
		o.Keys = append(o.Keys, key)
	}
	slot.Retain()
	o.Vals[key] = slot
}

func (o *ObjectData) Delete(key string) (Value, bool) {
	slot, ok := o.Vals[key]
	if !ok {
		return Null, false
	}
	v := slot.Get()
	slot.Release()
	delete(o.Vals, key)
	for i, k := range o.Keys {
		if k == key {
			o.Keys = append(o.Keys[:i], o.Keys[i+1:]...)
			break
		}
	}
	return v, true
}

func (o *ObjectData) Clone() *ObjectData {
	keys := make([]string, len(o.Keys))
	copy(keys, o.Keys)
	vals := make(map[string]*Variable, len(o.Vals))
	for k, slot := range o.Vals {
		clone := NewVariable()
		clone.Initialize(slot.Get(), true)
		clone.Retain()
		vals[k] = clone
	}
	return &ObjectData{Keys: keys, Vals: vals}
}

// Accessors. Callers must check Kind first via Is<X> or IsA(Kind):
// the scalar As<X> reinterpret Data whatever the Kind, and the boxed
// ones type-assert Obj and panic on the wrong Kind. This mirrors vm.Value's AsInt/AsFloat/AsBool
// convention from the teacher, generalized to all nine variants.

func (v Value) IsA(k Kind) bool { return v.Kind == k }
func (v Value) IsNull() bool    { return v.Kind == KNull }
func (v Value) IsBoolean() bool { return v.Kind == KBoolean }
func (v Value) IsInteger() bool { return v.Kind == KInteger }
func (v Value) IsReal() bool    { return v.Kind == KReal }
func (v Value) IsString() bool  { return v.Kind == KString }
func (v Value) IsOpaque() bool  { return v.Kind == KOpaque }
func (v Value) IsFunction() bool { return v.Kind == KFunction }
func (v Value) IsArray() bool   { return v.Kind == KArray }
func (v Value) IsObject() bool  { return v.Kind == KObject }

func (v Value) AsBoolean() bool     { return v.Data == 1 }
func (v Value) AsInteger() int64    { return int64(v.Data) }
func (v Value) AsReal() float64     { return math.Float64frombits(v.Data) }
func (v Value) AsBytes() []byte     { return v.Obj.([]byte) }
func (v Value) AsString() string    { return string(v.Obj.([]byte)) }
func (v Value) AsOpaque() Opaque    { return v.Obj.(Opaque) }
func (v Value) AsFunction() Function { return v.Obj.(Function) }
func (v Value) AsArray() *ArrayData { return v.Obj.(*ArrayData) }
func (v Value) AsObject() *ObjectData { return v.Obj.(*ObjectData) }

// TypeOf implements the `typeof` operator (§4.9): a canonical type name.
func (v Value) TypeOf() string { return v.Kind.TypeName() }

// Test implements §3.1's truthiness rule.
func (v Value) Test() bool {
	switch v.Kind {
	case KNull:
		return false
	case KBoolean:
		return v.AsBoolean()
	case KInteger:
		return v.AsInteger() != 0
	case KReal:
		return v.AsReal() != 0
	case KString:
		return len(v.AsBytes()) != 0
	case KArray:
		return v.AsArray().Len() != 0
	case KObject, KOpaque, KFunction:
		return true
	default:
		return false
	}
}

// MutReal returns an integer Value widened to real, per §4.1's
// mut_real (the result's tag is KReal); any other Value is returned
// unchanged. v itself is a copy and is not modified.
func (v Value) MutReal() Value {
	if v.Kind == KInteger {
		return Real(float64(v.AsInteger()))
	}
	return v
}

func (v Value) String() string { return v.Inspect(false) }

// Inspect renders a Value either compact (used for concatenation and
// program output) or pretty (indented, used for diagnostics) per §4.1.
func (v Value) Inspect(pretty bool) string {
	var sb strings.Builder
	v.writeInspect(&sb, pretty, 0)
	return sb.String()
}

func (v Value) writeInspect(sb *strings.Builder, pretty bool, depth int) {
	switch v.Kind {
	case KNull:
		sb.WriteString("null")
	case KBoolean:
		if v.AsBoolean() {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KInteger:
		sb.WriteString(fmt.Sprintf("%d", v.AsInteger()))
	case KReal:
		sb.WriteString(formatReal(v.AsReal()))
	case KString:
		sb.WriteString(fmt.Sprintf("%q", v.AsString()))
	case KOpaque:
		sb.WriteString(fmt.Sprintf("<opaque %s>", v.AsOpaque().OpaqueTypeName()))
	case KFunction:
		sb.WriteString(fmt.Sprintf("<function %s>", v.AsFunction().Name()))
	case KArray:
		writeArrayInspect(sb, v.AsArray(), pretty, depth)
	case KObject:
		writeObjectInspect(sb, v.AsObject(), pretty, depth)
	}
}

func formatReal(f float64) string {
	if math.IsNaN(f) {
		return "nan"
	}
	if math.IsInf(f, 1) {
		return "infinity"
	}
	if math.IsInf(f, -1) {
		return "-infinity"
	}
	return fmt.Sprintf("%g", f)
}
