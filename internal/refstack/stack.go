// Package refstack implements Asteria's Reference Stack (§3.4): the
// engine's operand stack of References. Grounded on
// internal/vm/vm.go's stack []Value / sp int / grow-by-increment
// pattern (push/pop/checkStack), generalized from Value slots to
// Reference slots and from a single sp counter to the spec's
// used/initialized/capacity split.
package refstack

import "github.com/asteria-lang/asteria/internal/reference"

// Initial capacity and growth increment, named after the teacher's
// InitialStackSize / StackGrowthIncrement.
const (
	initialCapacity = 256
	growthIncrement = 256
)

// Stack is a contiguous growable run of References. It distinguishes
// the *initialized extent* (slots holding a constructed *Reference,
// reusable without allocation) from the *used extent* (slots logically
// present): used <= initialized <= capacity (§3.4).
type Stack struct {
	slots       []*reference.Reference
	used        int
	initialized int
}

// New returns an empty Stack.
func New() *Stack {
	return &Stack{slots: make([]*reference.Reference, initialCapacity)}
}

// Len reports the used extent.
func (s *Stack) Len() int { return s.used }

// Cap reports the current capacity.
func (s *Stack) Cap() int { return len(s.slots) }

// Push grows the used extent by one, constructing a fresh Reference in
// the new slot only if it isn't already initialized from a prior
// push/pop cycle, and returns it for the caller to populate.
func (s *Stack) Push() *reference.Reference {
	s.growIfNeeded(s.used + 1)
	if s.used >= s.initialized {
		s.slots[s.used] = reference.New()
		s.initialized = s.used + 1
	} else {
		s.slots[s.used].SetInvalid()
	}
	r := s.slots[s.used]
	s.used++
	return r
}

// Top returns the slot at the top of the used extent without popping.
func (s *Stack) Top() *reference.Reference {
	if s.used == 0 {
		panic("refstack: Top of empty stack")
	}
	return s.slots[s.used-1]
}

// At returns the slot at index i from the bottom (0-based), within the
// used extent.
func (s *Stack) At(i int) *reference.Reference {
	if i < 0 || i >= s.used {
		panic("refstack: index out of range")
	}
	return s.slots[i]
}

// Pop shrinks the used extent by one and returns the popped slot.
// Per §3.4, the slot's cleanup is deferred -- it stays initialized and
// reusable by a later Push -- until ClearCache trims the initialized
// extent back down to the used extent.
func (s *Stack) Pop() *reference.Reference {
	if s.used == 0 {
		panic("refstack: Pop of empty stack")
	}
	s.used--
	return s.slots[s.used]
}

// Truncate shrinks the used extent to n, popping (s.used - n) slots
// without returning them (used for unwinding to a saved depth on
// error/break/continue).
func (s *Stack) Truncate(n int) {
	if n < 0 || n > s.used {
		panic("refstack: Truncate out of range")
	}
	s.used = n
}

// ClearCache releases any slot above the used extent, so a future
// growth cycle does not keep holding onto stale Reference/Variable
// bindings it no longer needs (§3.4's deferred-destructor point,
// adapted: Go's GC reclaims the Reference itself once its slot is nil
// and unreachable).
func (s *Stack) ClearCache() {
	for i := s.used; i < s.initialized; i++ {
		s.slots[i] = nil
	}
	s.initialized = s.used
}

func (s *Stack) growIfNeeded(n int) {
	if n <= len(s.slots) {
		return
	}
	growBy := growthIncrement
	if len(s.slots) > growBy {
		growBy = len(s.slots)
	}
	newSlots := make([]*reference.Reference, len(s.slots)+growBy)
	copy(newSlots, s.slots)
	s.slots = newSlots
}
