// Package exception implements Asteria's structured runtime error and
// backtrace (§4.8, §7): every failure in the core becomes a
// Runtime_Error carrying a payload Value and an ordered list of Frames.
package exception

import (
	"fmt"
	"strings"

	"github.com/asteria-lang/asteria/internal/value"
)

// Kind enumerates the error semantics named in §7 (not type names).
type Kind uint8

const (
	TypeMismatch Kind = iota
	ArithmeticOverflow
	DivideByZero
	OutOfRange
	UndeclaredName
	BypassedInit
	ImmutableWrite
	BadCall
	BadVariadic
	AssertionFailed
	UserThrow
	RecursiveImport
	StackOverflow
	IOError
)

var kindNames = [...]string{
	TypeMismatch:       "type_mismatch",
	ArithmeticOverflow: "arithmetic_overflow",
	DivideByZero:       "divide_by_zero",
	OutOfRange:         "out_of_range",
	UndeclaredName:     "undeclared_name",
	BypassedInit:       "bypassed_init",
	ImmutableWrite:     "immutable_write",
	BadCall:            "bad_call",
	BadVariadic:        "bad_variadic",
	AssertionFailed:    "assertion_failed",
	UserThrow:          "user_throw",
	RecursiveImport:    "recursive_import",
	StackOverflow:      "stack_overflow",
	IOError:            "io_error",
}

func (k Kind) String() string { return kindNames[k] }

// SourceLoc is a file/line/column triple attached to frames.
type SourceLoc struct {
	File   string
	Line   int
	Column int
}

func (s SourceLoc) String() string { return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column) }

// FrameKind enumerates §4.8's eight frame kinds.
type FrameKind uint8

const (
	FrameNative FrameKind = iota
	FrameThrow
	FrameAssert
	FrameTry
	FrameCatch
	FrameCall
	FrameDefer
	FrameFunc
)

var frameKindNames = [...]string{
	FrameNative: "native",
	FrameThrow:  "throw",
	FrameAssert: "assert",
	FrameTry:    "try",
	FrameCatch:  "catch",
	FrameCall:   "call",
	FrameDefer:  "defer",
	FrameFunc:   "func",
}

func (k FrameKind) String() string { return frameKindNames[k] }

// Frame records one step of the unwind path (§4.8).
type Frame struct {
	Kind     FrameKind
	Loc      SourceLoc
	Value    value.Value // e.g. the thrown value re-captured at a try boundary
	HasValue bool
}

// Error is Asteria's Runtime_Error: a payload Value plus an ordered
// frame list, unwound and decorated as it propagates (§4.8, §7).
// Grounded on internal/evaluator/object_control.go's Error/StackFrame
// pair, generalized from a flat message+line/column to the full
// Kind+payload+multi-kind-frame model spec §7/§4.8 name.
type Error struct {
	Kind    Kind
	Payload value.Value
	Frames  []Frame
}

func New(kind Kind, payload value.Value) *Error {
	return &Error{Kind: kind, Payload: payload}
}

// Newf builds a Runtime_Error whose payload is a formatted string
// message, the common case for internally-raised (non-`throw`) errors.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, value.Str(fmt.Sprintf(format, args...)))
}

// PushFrame appends a frame to the unwind path, returning the Error so
// call sites can chain it: `return nil, err.PushFrame(...)`.
func (e *Error) PushFrame(f Frame) *Error {
	e.Frames = append(e.Frames, f)
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("runtime error: ")
	if e.Payload.IsString() {
		sb.WriteString(e.Payload.AsString())
	} else {
		sb.WriteString(e.Payload.Inspect(false))
	}
	for _, f := range e.Frames {
		sb.WriteString(fmt.Sprintf("\n  [%s] at %s", f.Kind, f.Loc))
	}
	return sb.String()
}

// Backtrace synthesizes the `__backtrace` local named in §4.8: an
// array of objects `{frame, file, line, column, value}`.
func (e *Error) Backtrace() value.Value {
	elems := make([]value.Value, len(e.Frames))
	for i, f := range e.Frames {
		fv := f.Value
		if !f.HasValue {
			fv = value.Null
		}
		elems[i] = value.Object(
			[]string{"frame", "file", "line", "column", "value"},
			map[string]value.Value{
				"frame":  value.Str(f.Kind.String()),
				"file":   value.Str(f.Loc.File),
				"line":   value.Int(int64(f.Loc.Line)),
				"column": value.Int(int64(f.Loc.Column)),
				"value":  fv,
			},
		)
	}
	return value.Array(elems)
}
