// Package argreader implements Asteria's Argument Reader (§6): the
// overload-resolving parameter binder every host-exposed function
// (stdlib or embedder-supplied) uses to pull typed arguments out of a
// call's argument list, trying one overload signature after another
// until one matches or all are exhausted.
//
// Grounded on the teacher's callBuiltin argument unboxing
// (internal/vm/vm_calls.go) and each builtin's individual arity/type
// checks (internal/evaluator/builtins.go), generalized into the
// explicit start_overload/save_state/load_state/optional/required/
// end_overload/throw_no_matching_function_call surface spec.md names
// rather than one bespoke switch per builtin.
package argreader

import (
	"fmt"
	"strings"

	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/reference"
	"github.com/asteria-lang/asteria/internal/value"
)

// Reader walks a function call's argument list against a sequence of
// candidate overload signatures. One Reader is constructed per call;
// StartOverload/EndOverload bracket each attempt.
type Reader struct {
	name string
	args []value.Value

	pos int // next unconsumed argument index, within the current overload attempt

	attempts []attempt // one recorded signature per StartOverload..EndOverload span
	current  []string  // type names requested so far in the attempt in progress
}

type attempt struct {
	signature []string
	ok        bool
}

// New returns a Reader over a call's already-evaluated arguments. name
// is the function's name, used only to build the
// throw_no_matching_function_call message.
func New(name string, args []value.Value) *Reader {
	return &Reader{name: name, args: args}
}

// StartOverload begins a fresh overload attempt at the start of the
// argument list.
func (r *Reader) StartOverload() {
	r.pos = 0
	r.current = nil
}

// SaveState checkpoints the reader's cursor, returning a token
// LoadState can later rewind to -- lets a host function backtrack
// partway through a signature that turns out to be the wrong one.
func (r *Reader) SaveState() int { return r.pos }

// LoadState rewinds the cursor to a token previously returned by
// SaveState.
func (r *Reader) LoadState(tok int) { r.pos = tok }

func (r *Reader) next() (value.Value, bool) {
	if r.pos >= len(r.args) {
		return value.Value{}, false
	}
	v := r.args[r.pos]
	return v, true
}

func (r *Reader) record(typeName string) { r.current = append(r.current, typeName) }

// Optional reads the next argument as Kind k if present and
// null/matching; it does not advance the cursor or record a mismatch
// when the argument is absent or null -- those count as "no value",
// per spec.md's optional() contract.
func (r *Reader) optional(k value.Kind, out *value.Value) bool {
	v, ok := r.next()
	if !ok || v.IsNull() {
		return false
	}
	if !v.IsA(k) {
		return false
	}
	r.pos++
	*out = v
	r.record(k.TypeName())
	return true
}

// required reads the next argument as Kind k; absent, null, or
// wrong-typed all count as a signature mismatch.
func (r *Reader) required(k value.Kind, out *value.Value) bool {
	v, ok := r.next()
	if !ok || !v.IsA(k) {
		return false
	}
	r.pos++
	*out = v
	r.record(k.TypeName())
	return true
}

func (r *Reader) OptionalValue(out *value.Value) bool {
	v, ok := r.next()
	if !ok {
		return false
	}
	r.pos++
	*out = v
	r.record("value")
	return true
}

func (r *Reader) RequiredValue(out *value.Value) bool { return r.OptionalValue(out) }

func (r *Reader) OptionalBoolean(out *bool) bool {
	var v value.Value
	if !r.optional(value.KBoolean, &v) {
		return false
	}
	*out = v.AsBoolean()
	return true
}

func (r *Reader) RequiredBoolean(out *bool) bool {
	var v value.Value
	if !r.required(value.KBoolean, &v) {
		return false
	}
	*out = v.AsBoolean()
	return true
}

func (r *Reader) OptionalInteger(out *int64) bool {
	var v value.Value
	if !r.optional(value.KInteger, &v) {
		return false
	}
	*out = v.AsInteger()
	return true
}

func (r *Reader) RequiredInteger(out *int64) bool {
	var v value.Value
	if !r.required(value.KInteger, &v) {
		return false
	}
	*out = v.AsInteger()
	return true
}

func (r *Reader) OptionalReal(out *float64) bool {
	var v value.Value
	if !r.optional(value.KReal, &v) {
		return false
	}
	*out = v.AsReal()
	return true
}

func (r *Reader) RequiredReal(out *float64) bool {
	var v value.Value
	if !r.required(value.KReal, &v) {
		return false
	}
	*out = v.AsReal()
	return true
}

func (r *Reader) OptionalString(out *string) bool {
	var v value.Value
	if !r.optional(value.KString, &v) {
		return false
	}
	*out = v.AsString()
	return true
}

func (r *Reader) RequiredString(out *string) bool {
	var v value.Value
	if !r.required(value.KString, &v) {
		return false
	}
	*out = v.AsString()
	return true
}

func (r *Reader) OptionalOpaque(out *value.Opaque) bool {
	var v value.Value
	if !r.optional(value.KOpaque, &v) {
		return false
	}
	*out = v.AsOpaque()
	return true
}

func (r *Reader) RequiredOpaque(out *value.Opaque) bool {
	var v value.Value
	if !r.required(value.KOpaque, &v) {
		return false
	}
	*out = v.AsOpaque()
	return true
}

func (r *Reader) OptionalFunction(out *value.Function) bool {
	var v value.Value
	if !r.optional(value.KFunction, &v) {
		return false
	}
	*out = v.AsFunction()
	return true
}

func (r *Reader) RequiredFunction(out *value.Function) bool {
	var v value.Value
	if !r.required(value.KFunction, &v) {
		return false
	}
	*out = v.AsFunction()
	return true
}

func (r *Reader) OptionalArray(out **value.ArrayData) bool {
	var v value.Value
	if !r.optional(value.KArray, &v) {
		return false
	}
	*out = v.AsArray()
	return true
}

func (r *Reader) RequiredArray(out **value.ArrayData) bool {
	var v value.Value
	if !r.required(value.KArray, &v) {
		return false
	}
	*out = v.AsArray()
	return true
}

func (r *Reader) OptionalObject(out **value.ObjectData) bool {
	var v value.Value
	if !r.optional(value.KObject, &v) {
		return false
	}
	*out = v.AsObject()
	return true
}

func (r *Reader) RequiredObject(out **value.ObjectData) bool {
	var v value.Value
	if !r.required(value.KObject, &v) {
		return false
	}
	*out = v.AsObject()
	return true
}

// OptionalReference and RequiredReference hand back the argument
// wrapped as a reference.Reference rather than a bare Value -- useful
// when a host function wants to reuse reference-shaped helpers
// (dereferencing, modifiers) on a call argument. Invoke's contract
// (§6) already hands host functions dereferenced Values, not live
// Variables, so the Reference returned here is always a fresh
// Temporary: it gives a Reference-shaped read view, not a write-back
// alias into the caller's storage.
func (r *Reader) OptionalReference(out **reference.Reference) bool {
	v, ok := r.next()
	if !ok || v.IsNull() {
		return false
	}
	r.pos++
	*out = reference.Temporary(v)
	r.record("reference")
	return true
}

func (r *Reader) RequiredReference(out **reference.Reference) bool {
	v, ok := r.next()
	if !ok {
		return false
	}
	r.pos++
	*out = reference.Temporary(v)
	r.record("reference")
	return true
}

// EndOverload succeeds iff every parameter this attempt declared
// matched and no extra arguments remain.
func (r *Reader) EndOverload() bool {
	ok := r.pos == len(r.args)
	r.attempts = append(r.attempts, attempt{signature: append([]string(nil), r.current...), ok: ok})
	return ok
}

// EndOverloadVariadic succeeds like EndOverload but additionally
// collects every remaining unconsumed argument as the variadic tail,
// regardless of count (including zero).
func (r *Reader) EndOverloadVariadic() ([]value.Value, bool) {
	rest := append([]value.Value(nil), r.args[r.pos:]...)
	r.pos = len(r.args)
	r.attempts = append(r.attempts, attempt{signature: append([]string(nil), r.current...), ok: true})
	return rest, true
}

// ThrowNoMatchingFunctionCall raises a bad_call error listing every
// attempted overload signature alongside the actual argument types.
func (r *Reader) ThrowNoMatchingFunctionCall() *exception.Error {
	actual := make([]string, len(r.args))
	for i, v := range r.args {
		actual[i] = v.TypeOf()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "no matching overload for %s(%s); tried:", r.name, strings.Join(actual, ", "))
	for _, a := range r.attempts {
		fmt.Fprintf(&sb, "\n  (%s)", strings.Join(a.signature, ", "))
	}
	return exception.Newf(exception.BadCall, "%s", sb.String())
}
