package avmc

import (
	"testing"

	"github.com/asteria-lang/asteria/internal/context"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/gc"
	"github.com/asteria-lang/asteria/internal/value"
)

func pushIntExecutor(n int64) Executor {
	return func(ctx *context.ExecutiveContext, rec *Record) (Status, *exception.Error) {
		ctx.Operands.Push().SetTemporary(value.Int(n))
		return StatusNext, nil
	}
}

func TestRunAdvancesOnNext(t *testing.T) {
	q := NewQueue()
	q.Append(Record{Executor: pushIntExecutor(1)})
	q.Append(Record{Executor: pushIntExecutor(2)})
	q.Finalize()

	ctx := context.NewExecutiveRoot(context.NewGlobal(gc.NewCollector()))
	status, err := q.Run(ctx)
	if err != nil || status != StatusNext {
		t.Fatalf("got status=%v err=%v, want next, nil", status, err)
	}
	if ctx.Operands.Len() != 2 {
		t.Fatalf("expected both records to have run, got %d operands", ctx.Operands.Len())
	}
	v, _ := ctx.Operands.At(1).DereferenceReadonly(nil)
	if v.AsInteger() != 2 {
		t.Fatalf("top operand = %v, want 2", v)
	}
}

func TestRunStopsOnNonNextStatus(t *testing.T) {
	q := NewQueue()
	ran := false
	q.Append(Record{Executor: func(ctx *context.ExecutiveContext, rec *Record) (Status, *exception.Error) {
		return StatusBreakWhile, nil
	}})
	q.Append(Record{Executor: func(ctx *context.ExecutiveContext, rec *Record) (Status, *exception.Error) {
		ran = true
		return StatusNext, nil
	}})
	q.Finalize()

	ctx := context.NewExecutiveRoot(context.NewGlobal(gc.NewCollector()))
	status, err := q.Run(ctx)
	if err != nil || status != StatusBreakWhile {
		t.Fatalf("got status=%v err=%v, want break_while, nil", status, err)
	}
	if ran {
		t.Fatalf("execution should have stopped at the first non-next status")
	}
}

func TestRunPropagatesErrorWithFrame(t *testing.T) {
	q := NewQueue()
	loc := exception.SourceLoc{File: "a.as", Line: 4, Column: 2}
	q.Append(Record{Loc: loc, Executor: func(ctx *context.ExecutiveContext, rec *Record) (Status, *exception.Error) {
		return StatusNext, exception.Newf(exception.DivideByZero, "boom")
	}})
	q.Finalize()

	ctx := context.NewExecutiveRoot(context.NewGlobal(gc.NewCollector()))
	_, err := q.Run(ctx)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if len(err.Frames) != 1 || err.Frames[0].Loc != loc {
		t.Fatalf("expected a frame recording the failing record's location, got %+v", err.Frames)
	}
}

func TestAppendAfterFinalizePanics(t *testing.T) {
	q := NewQueue()
	q.Finalize()
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected Append after Finalize to panic")
		}
	}()
	q.Append(Record{})
}
