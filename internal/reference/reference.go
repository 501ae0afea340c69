// Package reference implements Asteria's Reference (§3.3): a
// polymorphic handle denoting an uninitialized slot, a temporary
// Value, a shared Variable, or a pending tail call, optionally
// extended by a chain of Modifiers. Grounded on spec §3.3/§4.3
// directly; the teacher has no analog (funxy's VM addresses locals by
// stack slot and fields in place, with no separate reference type), so
// this is new code built to the spec's own contract.
package reference

import (
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/value"
)

// Kind identifies which of the four variants a Reference currently holds.
type Kind uint8

const (
	KUninitialized Kind = iota
	KTemporary
	KVariable
	KPTC
)

// ModifierKind enumerates the five access steps a Reference's modifier
// chain may carry (§3.3).
type ModifierKind uint8

const (
	MArrayIndex ModifierKind = iota
	MObjectKey
	MArrayHead
	MArrayTail
	MArrayRandom
)

// Modifier is one step of the chain appended to a Reference.
type Modifier struct {
	Kind  ModifierKind
	Index int64  // for MArrayIndex
	Key   string // for MObjectKey
}

func IndexModifier(i int64) Modifier { return Modifier{Kind: MArrayIndex, Index: i} }
func KeyModifier(k string) Modifier  { return Modifier{Kind: MObjectKey, Key: k} }
func HeadModifier() Modifier         { return Modifier{Kind: MArrayHead} }
func TailModifier() Modifier         { return Modifier{Kind: MArrayTail} }
func RandomModifier() Modifier       { return Modifier{Kind: MArrayRandom} }

// PRNG is the host pseudo-random source consulted by the array-random
// modifier (§4.9 "random modifier").
type PRNG interface {
	Intn(n int) int
}

// PTCMode selects how a pending tail call's result is consumed once the
// trampoline performs it (§4.6).
type PTCMode uint8

const (
	PTCByValue PTCMode = iota
	PTCByRef
	PTCVoid
)

// PTCArguments is the wrapper a tail-position call site constructs
// instead of calling synchronously (§4.6): call site location, mode,
// target function, and packed arguments. Defers is opaque to this
// package -- air.Closure.Invoke knows its concrete element type
// (context.DeferredExpr) and appends a scope's pending defers to it
// when the scope exits via a PTC result (§4.7).
type PTCArguments struct {
	Loc    exception.SourceLoc
	Mode   PTCMode
	Target value.Value
	Args   []value.Value
	Defers []any
}

// Reference is the tagged handle described by §3.3.
type Reference struct {
	kind      Kind
	temp      value.Value
	variable  *value.Variable
	ptc       *PTCArguments
	modifiers []Modifier
}

// New returns an uninitialized Reference.
func New() *Reference { return &Reference{kind: KUninitialized} }

// Temporary returns a Reference owning a Value (an rvalue).
func Temporary(v value.Value) *Reference { return &Reference{kind: KTemporary, temp: v} }

// OfVariable returns a Reference sharing a Variable (an lvalue),
// retaining it on the Reference's behalf as SetVariable does.
func OfVariable(v *value.Variable) *Reference {
	r := &Reference{kind: KVariable, variable: v}
	if v != nil {
		v.Retain()
	}
	return r
}

// OfPTC returns a Reference holding a pending tail call.
func OfPTC(p *PTCArguments) *Reference { return &Reference{kind: KPTC, ptc: p} }

func (r *Reference) Kind() Kind { return r.kind }

func (r *Reference) IsUninitialized() bool { return r.kind == KUninitialized }
func (r *Reference) IsTemporary() bool     { return r.kind == KTemporary }
func (r *Reference) IsVariable() bool      { return r.kind == KVariable }
func (r *Reference) IsPTC() bool           { return r.kind == KPTC }

// Variable returns the bound Variable; only valid when Kind() == KVariable.
func (r *Reference) Variable() *value.Variable { return r.variable }

// PTC returns the pending-call payload; only valid when Kind() == KPTC.
func (r *Reference) PTC() *PTCArguments { return r.ptc }

// Modifiers returns the current modifier chain (read-only view).
func (r *Reference) Modifiers() []Modifier { return r.modifiers }

// PushModifier appends a modifier to the chain (§4.3).
func (r *Reference) PushModifier(m Modifier) { r.modifiers = append(r.modifiers, m) }

// PopModifier removes and returns the last modifier, if any.
func (r *Reference) PopModifier() (Modifier, bool) {
	if len(r.modifiers) == 0 {
		return Modifier{}, false
	}
	m := r.modifiers[len(r.modifiers)-1]
	r.modifiers = r.modifiers[:len(r.modifiers)-1]
	return m, true
}

// SetTemporary resets the Reference to own Value v with no modifiers
// (§4.3).
func (r *Reference) SetTemporary(v value.Value) {
	r.kind = KTemporary
	r.temp = v
	r.variable = nil
	r.ptc = nil
	r.modifiers = nil
}

// SetVariable resets the Reference to share Variable v with no
// modifiers (§4.3). Retains v on the caller's behalf -- the previous
// binding, if any, is released.
func (r *Reference) SetVariable(v *value.Variable) {
	r.release()
	r.kind = KVariable
	r.variable = v
	r.temp = value.Null
	r.ptc = nil
	r.modifiers = nil
	if v != nil {
		v.Retain()
	}
}

// SetInvalid resets the Reference to uninitialized with no modifiers
// (§4.3).
func (r *Reference) SetInvalid() {
	r.release()
	r.kind = KUninitialized
	r.temp = value.Null
	r.variable = nil
	r.ptc = nil
	r.modifiers = nil
}

// SetPTC resets the Reference to hold a pending tail call.
func (r *Reference) SetPTC(p *PTCArguments) {
	r.release()
	r.kind = KPTC
	r.ptc = p
	r.temp = value.Null
	r.variable = nil
	r.modifiers = nil
}

func (r *Reference) release() {
	if r.kind == KVariable && r.variable != nil {
		r.variable.Release()
	}
}

// rootValue returns the Value the chain's root (ignoring modifiers)
// currently denotes, along with whether the root is backed by a
// mutable lvalue (a Variable, as opposed to a bare temporary).
func (r *Reference) rootValue() (value.Value, bool, *exception.Error) {
	switch r.kind {
	case KTemporary:
		return r.temp, false, nil
	case KVariable:
		if !r.variable.IsInitialized() {
			return value.Null, false, exception.Newf(exception.BypassedInit, "use of bypassed variable")
		}
		return r.variable.Get(), true, nil
	default:
		return value.Null, false, exception.Newf(exception.BadCall, "reference is not dereferenceable")
	}
}
