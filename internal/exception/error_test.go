package exception

import (
	"strings"
	"testing"

	"github.com/asteria-lang/asteria/internal/value"
)

func TestErrorMessage(t *testing.T) {
	e := Newf(DivideByZero, "division by zero")
	if !strings.HasPrefix(e.Error(), "runtime error: ") {
		t.Fatalf("Error() should start with the §7 literal prefix, got %q", e.Error())
	}
}

func TestBacktraceShape(t *testing.T) {
	e := New(UserThrow, value.Str("nope"))
	e.PushFrame(Frame{Kind: FrameThrow, Loc: SourceLoc{File: "a.as", Line: 3, Column: 5}, Value: value.Str("nope"), HasValue: true})
	e.PushFrame(Frame{Kind: FrameTry, Loc: SourceLoc{File: "a.as", Line: 1, Column: 1}})

	bt := e.Backtrace()
	if !bt.IsArray() || bt.AsArray().Len() != 2 {
		t.Fatalf("Backtrace() should be a 2-element array, got %v", bt)
	}
	first, _ := bt.AsArray().Get(0).AsObject().Get("frame")
	if first.AsString() != "throw" {
		t.Fatalf("first frame's \"frame\" key = %q, want \"throw\"", first.AsString())
	}
	second, _ := bt.AsArray().Get(1).AsObject().Get("value")
	if !second.IsNull() {
		t.Fatalf("a frame with no captured value should backtrace to null, got %v", second)
	}
}

func TestAssertionFailedPayload(t *testing.T) {
	e := New(AssertionFailed, value.Str("nope"))
	e.PushFrame(Frame{Kind: FrameAssert, Loc: SourceLoc{File: "a.as", Line: 1, Column: 1}})
	if !strings.Contains(e.Error(), "nope") {
		t.Fatalf("assertion error message should include the assertion message, got %q", e.Error())
	}
}
