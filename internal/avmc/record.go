// Package avmc implements Asteria's AVMC Queue (§3.7): a flat,
// append-only-then-frozen sequence of executable records produced by
// solidifying an AIR tree (internal/air). Grounded on
// internal/vm/chunk.go's Chunk (Code []byte + Constants []Object +
// Lines/Columns), generalized from a raw opcode byte stream dispatched
// through one global switch to a slice of Records each carrying its
// own Executor closure -- Go slices of structs already give the
// "stable addresses once appended, frozen after Finalize" property
// spec.md's no-move invariant names, without needing the teacher's
// manual byte-packing (see DESIGN.md).
package avmc

import (
	"github.com/asteria-lang/asteria/internal/context"
	"github.com/asteria-lang/asteria/internal/exception"
)

// Status is the result of executing one record (§4.5/glossary): next
// advances the enclosing Queue; every other value is propagated
// upward untranslated until some enclosing construct (if/while/for/
// function body) consumes and translates it.
type Status uint8

const (
	StatusNext Status = iota
	StatusReturnVoid
	StatusReturnRef
	StatusBreakUnspec
	StatusBreakWhile
	StatusBreakSwitch
	StatusBreakFor
	StatusContinueUnspec
	StatusContinueWhile
	StatusContinueFor
)

var statusNames = [...]string{
	StatusNext:           "next",
	StatusReturnVoid:     "return_void",
	StatusReturnRef:      "return_ref",
	StatusBreakUnspec:    "break_unspec",
	StatusBreakWhile:     "break_while",
	StatusBreakSwitch:    "break_switch",
	StatusBreakFor:       "break_for",
	StatusContinueUnspec: "continue_unspec",
	StatusContinueWhile:  "continue_while",
	StatusContinueFor:    "continue_for",
}

func (s Status) String() string { return statusNames[s] }

// IsBreak reports whether s is one of the break_* statuses.
func (s Status) IsBreak() bool {
	return s == StatusBreakUnspec || s == StatusBreakWhile || s == StatusBreakSwitch || s == StatusBreakFor
}

// IsContinue reports whether s is one of the continue_* statuses.
func (s Status) IsContinue() bool {
	return s == StatusContinueUnspec || s == StatusContinueWhile || s == StatusContinueFor
}

// Executor is the function pointer a Record carries (§3.7): it runs
// one AIR-derived step against the current executive context --
// reading/writing names via ctx, expression operands via ctx.Operands,
// call arguments via ctx.Alt -- and returns the status that drives the
// enclosing Queue.Run loop. A return_ref status leaves the returned
// Reference on top of ctx.Operands for the caller to collect.
type Executor func(ctx *context.ExecutiveContext, rec *Record) (Status, *exception.Error)

// Record is one entry of a Queue (§3.7): a 32-bit uparam opaque to the
// engine and meaningful only to its own Executor, an arbitrary side
// parameter blob (Sparam, in place of the teacher's byte-counted
// sparam -- Go's GC already manages its lifetime, so no destructor/
// relocator/enumerator callbacks are needed the way the original's
// manually-managed sparam blob requires), the Executor itself, and an
// optional source location for diagnostics.
type Record struct {
	Uparam   uint32
	Sparam   any
	Executor Executor
	Loc      exception.SourceLoc
}

// UparamBytes splits Uparam into its 4 constituent bytes, for
// executors that pack several small fields into one uparam the way
// the teacher's opcode operands do.
func (r *Record) UparamBytes() [4]byte {
	u := r.Uparam
	return [4]byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}
}
