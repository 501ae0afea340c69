package gc

import "github.com/asteria-lang/asteria/internal/value"

// TrackedSet is a generation's set of live Variables, keyed by pointer
// identity. Grounded on internal/vm/globals_map.go's PersistentMap
// (pointer/string-keyed map idiom), simplified to a plain mutable map
// since a generation's tracked set has exactly one writer: the
// Collector that owns it (§5).
type TrackedSet map[*value.Variable]struct{}

func newTrackedSet() TrackedSet { return make(TrackedSet) }

func (s TrackedSet) insert(v *value.Variable) { s[v] = struct{}{} }

func (s TrackedSet) remove(v *value.Variable) { delete(s, v) }

func (s TrackedSet) has(v *value.Variable) bool {
	_, ok := s[v]
	return ok
}

func (s TrackedSet) len() int { return len(s) }
