package context

import (
	"testing"

	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/gc"
	"github.com/asteria-lang/asteria/internal/value"
)

var exceptionLocA = exception.SourceLoc{File: "a.as", Line: 1, Column: 1}

func TestAnalyticLookupThroughParents(t *testing.T) {
	root := NewAnalyticContext()
	root.Declare("a")
	child := NewEnclosedAnalyticContext(root)
	child.Declare("b")

	if _, _, ok := child.Lookup("a"); !ok {
		t.Fatalf("expected to find 'a' through the parent chain")
	}
	slot, depth, ok := child.Lookup("b")
	if !ok || slot != 0 || depth != 0 {
		t.Fatalf("got slot=%d depth=%d ok=%v, want 0,0,true", slot, depth, ok)
	}
	if _, _, ok := child.Lookup("c"); ok {
		t.Fatalf("expected 'c' to be undeclared")
	}
}

func TestExecutiveLocalShadowing(t *testing.T) {
	gcoll := gc.NewCollector()
	g := NewGlobal(gcoll)
	root := NewExecutiveRoot(g)
	outer := root.DeclareLocal("x")
	outer.SetTemporary(value.Int(1))

	block := NewExecutiveBlock(root)
	inner := block.DeclareLocal("x")
	inner.SetTemporary(value.Int(2))

	r, ok := block.Named("x")
	if !ok {
		t.Fatalf("expected 'x' to be found")
	}
	v, _ := r.DereferenceReadonly(nil)
	if v.AsInteger() != 2 {
		t.Fatalf("shadowed lookup got %v, want 2", v)
	}
	ro, ok := root.Named("x")
	if !ok {
		t.Fatalf("expected 'x' to still be found in root")
	}
	vo, _ := ro.DereferenceReadonly(nil)
	if vo.AsInteger() != 1 {
		t.Fatalf("outer binding got overwritten, got %v, want 1", vo)
	}
}

func TestExecutiveBlockSharesOperandStack(t *testing.T) {
	g := NewGlobal(gc.NewCollector())
	root := NewExecutiveRoot(g)
	block := NewExecutiveBlock(root)
	if block.Operands != root.Operands {
		t.Fatalf("expected a block context to share its root's operand stack")
	}
}

func TestDefersRunInReverse(t *testing.T) {
	g := NewGlobal(gc.NewCollector())
	root := NewExecutiveRoot(g)
	root.PushDefer(exceptionLocA, "first")
	root.PushDefer(exceptionLocA, "second")
	root.PushDefer(exceptionLocA, "third")

	got := root.TakeDefers()
	order := []string{}
	for _, d := range got {
		order = append(order, d.Queue.(string))
	}
	want := []string{"third", "second", "first"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("defer order = %v, want %v", order, want)
		}
	}
	if len(root.Defers) != 0 {
		t.Fatalf("TakeDefers should detach the list")
	}
}

func TestRecursionSentry(t *testing.T) {
	g := NewGlobal(gc.NewCollector())
	g.MaxDepth = 2
	if err := g.Enter(); err != nil {
		t.Fatalf("unexpected error at depth 1: %v", err)
	}
	if err := g.Enter(); err != nil {
		t.Fatalf("unexpected error at depth 2: %v", err)
	}
	if err := g.Enter(); err == nil {
		t.Fatalf("expected stack_overflow at depth 3")
	}
	g.Leave()
	if g.Depth != 1 {
		t.Fatalf("Depth after Leave = %d, want 1", g.Depth)
	}
}
