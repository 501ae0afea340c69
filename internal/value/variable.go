package value

// Variable is the heap cell described by §3.2: a Value plus
// mutability state and GC bookkeeping, and the unit of aliasing. It
// lives in package value (rather than a separate package) because
// array and object Values are themselves built out of *Variable
// slots (see ArrayData/ObjectData in value.go) -- Value and Variable are
// mutually recursive and Go has no forward package declarations, so
// splitting them across two packages would force an import cycle.
// DESIGN.md records this consolidation explicitly.
//
// Variables for named bindings are handed out by a gc.Collector
// (internal/gc), matching §3.8's "created by the GC's factory;
// destroyed by the GC"; NewVariable is exported so package gc can call
// it. The array/object constructors and mutators in value.go also call
// NewVariable directly for element slots, which the collector does not
// track.
type VarState uint8

const (
	Uninitialized VarState = iota
	Mutable
	Immutable
)

type Variable struct {
	val   Value
	state VarState

	// GC bookkeeping -- opaque outside the collector (§3.2).
	Generation uint8
	GCRef      uint32
	Tracked    bool

	// refCount is the true reference count named by §4.2's cycle
	// algorithm: the number of live holders of this Variable (Reference
	// Stack slots, Context locals, other Variables' slots). Retain/
	// Release maintain it; the collector compares it against the
	// fan-out-reconstructed gcref to tell "cyclically self-referential"
	// apart from "still externally held".
	refCount int32
}

// NewVariable creates an uninitialized Variable.
func NewVariable() *Variable {
	return &Variable{state: Uninitialized}
}

// Retain records a new live holder of v (a Reference binding to it, or
// another Variable's array/object slot pointing to it).
func (v *Variable) Retain() { v.refCount++ }

// Release records a holder of v going away (a Reference rebound or
// popped, or the slot that held v overwritten). Returns the remaining
// count.
func (v *Variable) Release() int32 {
	v.refCount--
	return v.refCount
}

// RefCount returns the true reference count (§4.2).
func (v *Variable) RefCount() int32 { return v.refCount }

func (v *Variable) State() VarState { return v.state }

func (v *Variable) IsInitialized() bool { return v.state != Uninitialized }

func (v *Variable) IsImmutable() bool { return v.state == Immutable }

// Get reads the current Value. Callers needing to distinguish
// "uninitialized read" (bypassed_init, §7) must check State() first.
func (v *Variable) Get() Value { return v.val }

// Initialize finalizes a freshly declared Variable with a Value and a
// mutability; per §3.2 this happens exactly once.
func (v *Variable) Initialize(val Value, mutable bool) {
	v.val = val
	if mutable {
		v.state = Mutable
	} else {
		v.state = Immutable
	}
}

// Write replaces the Value of an already-initialized mutable Variable.
// Returns false (immutable_write, §7) if the Variable is immutable.
func (v *Variable) Write(val Value) bool {
	if v.state == Immutable {
		return false
	}
	v.val = val
	if v.state == Uninitialized {
		v.state = Mutable
	}
	return true
}

// Sentinel replaces the Value with null and marks the Variable dead,
// used by the GC to break reference cycles before releasing a
// Variable (§4.2: "payloads replaced with a scalar sentinel").
func (v *Variable) Sentinel() {
	v.val = Null
	v.Tracked = false
}

// Children returns every Variable directly reachable from this
// Variable's current Value (its array elements / object fields, and,
// transitively, nothing else -- scalars and opaque/function payloads
// have no Variable children). Used by package gc's fan-out pass
// (§4.2) without gc needing to know about ArrayData/ObjectData's
// internal shape.
func (v *Variable) Children() []*Variable {
	return v.val.VariableChildren()
}

// VariableChildren returns the Variable slots a Value directly holds:
// an array's elements or an object's fields. Every other variant
// returns nil.
func (v Value) VariableChildren() []*Variable {
	switch v.Kind {
	case KArray:
		return v.AsArray().Slots
	case KObject:
		o := v.AsObject()
		out := make([]*Variable, 0, len(o.Keys))
		for _, k := range o.Keys {
			out = append(out, o.Vals[k])
		}
		return out
	default:
		return nil
	}
}
