package refstack

import (
	"testing"

	"github.com/asteria-lang/asteria/internal/value"
)

func TestPushPopBasic(t *testing.T) {
	s := New()
	r := s.Push()
	r.SetTemporary(value.Int(1))
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	popped := s.Pop()
	v, _ := popped.DereferenceReadonly(nil)
	if v.AsInteger() != 1 {
		t.Fatalf("popped value = %v, want 1", v)
	}
	if s.Len() != 0 {
		t.Fatalf("Len() after pop = %d, want 0", s.Len())
	}
}

func TestUsedLEInitializedLECapacity(t *testing.T) {
	s := New()
	for i := 0; i < 10; i++ {
		s.Push()
	}
	for i := 0; i < 4; i++ {
		s.Pop()
	}
	if s.used > s.initialized || s.initialized > s.Cap() {
		t.Fatalf("invariant violated: used=%d initialized=%d cap=%d", s.used, s.initialized, s.Cap())
	}
	if s.initialized < 10 {
		t.Fatalf("initialized extent should retain the high-water mark, got %d", s.initialized)
	}
}

func TestPushAfterPopReusesSlot(t *testing.T) {
	s := New()
	r1 := s.Push()
	r1.SetTemporary(value.Int(7))
	s.Pop()
	r2 := s.Push()
	if r1 != r2 {
		t.Fatalf("expected Push after Pop to reuse the same *Reference slot")
	}
	if !r2.IsUninitialized() {
		t.Fatalf("reused slot should be reset to uninitialized before reuse")
	}
}

func TestClearCacheShrinksInitializedToUsed(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.Push()
	}
	s.Truncate(2)
	s.ClearCache()
	if s.initialized != 2 {
		t.Fatalf("initialized after ClearCache = %d, want 2", s.initialized)
	}
}

func TestGrowsBeyondInitialCapacity(t *testing.T) {
	s := New()
	for i := 0; i < initialCapacity+10; i++ {
		s.Push()
	}
	if s.Len() != initialCapacity+10 {
		t.Fatalf("Len() = %d, want %d", s.Len(), initialCapacity+10)
	}
	if s.Cap() < s.Len() {
		t.Fatalf("Cap() = %d should be >= Len() = %d", s.Cap(), s.Len())
	}
}

func TestAtAndTop(t *testing.T) {
	s := New()
	s.Push().SetTemporary(value.Int(1))
	s.Push().SetTemporary(value.Int(2))
	s.Push().SetTemporary(value.Int(3))
	v, _ := s.Top().DereferenceReadonly(nil)
	if v.AsInteger() != 3 {
		t.Fatalf("Top() = %v, want 3", v)
	}
	v0, _ := s.At(0).DereferenceReadonly(nil)
	if v0.AsInteger() != 1 {
		t.Fatalf("At(0) = %v, want 1", v0)
	}
}
