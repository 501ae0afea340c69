// Package gc implements Asteria's generational tracing garbage
// collector (§4.2): three generations of tracked Variables, collected
// by a two-pass gcref reconstruction that tells a genuine cycle with
// no external holder apart from a Variable still reachable from
// outside the collected range.
package gc

import "github.com/asteria-lang/asteria/internal/value"

const numGenerations = 3

// Default thresholds, tuned the way the teacher tunes StackGrowthIncrement
// in internal/vm/vm.go: a round number good enough to exercise promotion
// in tests without being a language-visible contract (set_threshold lets
// a host override these).
const (
	defaultThreshold0 = 256
	defaultThreshold1 = 2048
	defaultThreshold2 = 16384
)

type generation struct {
	tracked   TrackedSet
	threshold int
}

// Collector owns the three generations and the allocation entry point.
// Grounded on spec §4.2 directly; no teacher analog (funxy relies on
// Go's own GC for its tree-walking evaluator and the register VM alike).
type Collector struct {
	gens       [numGenerations]*generation
	collecting bool
}

// NewCollector returns a Collector with the default generation
// thresholds.
func NewCollector() *Collector {
	c := &Collector{}
	thresholds := [numGenerations]int{defaultThreshold0, defaultThreshold1, defaultThreshold2}
	for i := range c.gens {
		c.gens[i] = &generation{tracked: newTrackedSet(), threshold: thresholds[i]}
	}
	return c
}

// Allocate yields a fresh uninitialized Variable tracked in generation
// 0 (§3.2, §4.2's create_variable). If the insertion pushes generation
// 0 over threshold, collection runs and cascades upward through any
// generation the resulting promotions overflow.
func (c *Collector) Allocate() *value.Variable {
	v := value.NewVariable()
	c.gens[0].tracked.insert(v)
	c.maybeCollect(0)
	return v
}

func (c *Collector) maybeCollect(gen int) {
	if c.gens[gen].tracked.len() <= c.gens[gen].threshold {
		return
	}
	c.Collect(gen)
	if gen+1 < numGenerations {
		c.maybeCollect(gen + 1)
	}
}

// CountTracked returns the number of Variables generation gen is
// currently tracking (count_tracked, §4.2's API list).
func (c *Collector) CountTracked(gen int) int { return c.gens[gen].tracked.len() }

// GetThreshold returns generation gen's allocation threshold.
func (c *Collector) GetThreshold(gen int) int { return c.gens[gen].threshold }

// SetThreshold sets generation gen's allocation threshold.
func (c *Collector) SetThreshold(gen int, n int) { c.gens[gen].threshold = n }

// Collect runs the two-pass gcref algorithm over generations 0..upToGen
// and returns the number of Variables freed (collect, §4.2's API list).
// Non-reentrant: a nested call (e.g. triggered by a finalizer during
// sweep) returns 0 without doing anything, per §4.2's reentrancy rule.
func (c *Collector) Collect(upToGen int) int {
	if c.collecting {
		return 0
	}
	c.collecting = true
	defer func() { c.collecting = false }()

	if upToGen >= numGenerations {
		upToGen = numGenerations - 1
	}

	// Stage: every Variable tracked in generations 0..upToGen, plus
	// everything transitively reachable from them (including Variables
	// owned by older, uncollected generations -- staged for fan-out
	// purposes only, never swept or promoted).
	staged := make(map[*value.Variable]struct{})
	var queue []*value.Variable
	for g := 0; g <= upToGen; g++ {
		for v := range c.gens[g].tracked {
			if _, seen := staged[v]; !seen {
				staged[v] = struct{}{}
				queue = append(queue, v)
			}
		}
	}
	for i := 0; i < len(queue); i++ {
		for _, child := range queue[i].Children() {
			if _, seen := staged[child]; !seen {
				staged[child] = struct{}{}
				queue = append(queue, child)
			}
		}
	}

	// Initialize gcref to 0 for every staged Variable. The original
	// collector this is grounded on (see DESIGN.md) gives tracked roots
	// a baseline of 1, to cancel out the reference the tracked set's
	// own rcptr entry contributes to use_count(). Our TrackedSet is a
	// plain map that never calls Variable.Retain() on insertion, so
	// RefCount() already excludes that bookkeeping reference -- no
	// baseline is needed here.
	gcref := make(map[*value.Variable]uint32, len(staged))
	for v := range staged {
		gcref[v] = 0
	}

	// Single fan-out pass: every staged Variable's children gain one
	// gcref contribution per edge pointing at them. After this, gcref[v]
	// is exactly the count of inbound edges v receives from *within*
	// the staged graph.
	for v := range staged {
		for _, child := range v.Children() {
			gcref[child]++
		}
	}

	// A Variable whose gcref is strictly less than its true reference
	// count has at least one holder outside the staged graph (a Context
	// local, a Reference Stack slot, or a container elsewhere) and is
	// definitely alive. Flood-fill from every such Variable so that
	// everything it keeps alive -- even a child whose own gcref equals
	// its refcount, because every one of its real references happens to
	// come from within the staged graph -- survives too.
	alive := make(map[*value.Variable]struct{}, len(staged))
	var aliveQueue []*value.Variable
	for v := range staged {
		if gcref[v] < uint32(v.RefCount()) {
			if _, marked := alive[v]; !marked {
				alive[v] = struct{}{}
				aliveQueue = append(aliveQueue, v)
			}
		}
	}
	for i := 0; i < len(aliveQueue); i++ {
		for _, child := range aliveQueue[i].Children() {
			if _, marked := alive[child]; !marked {
				alive[child] = struct{}{}
				aliveQueue = append(aliveQueue, child)
			}
		}
	}

	// Sweep: only Variables actually owned by a collected generation
	// can be freed or promoted; reachable-but-older Variables are left
	// untouched (they belong to a generation not in this collection's
	// range). Generations are swept oldest first, so a survivor promoted
	// from g into g+1 is not visited again by this same collection.
	freed := 0
	for g := upToGen; g >= 0; g-- {
		var sweep, survive []*value.Variable
		for v := range c.gens[g].tracked {
			if _, ok := alive[v]; ok {
				survive = append(survive, v)
			} else {
				sweep = append(sweep, v)
			}
		}
		for _, v := range sweep {
			v.Sentinel()
			c.gens[g].tracked.remove(v)
			freed++
		}
		for _, v := range survive {
			c.promote(g, v)
		}
	}
	return freed
}

// promote moves a surviving Variable from generation g to g+1, capped
// at the oldest generation.
func (c *Collector) promote(g int, v *value.Variable) {
	next := g + 1
	if next >= numGenerations {
		next = numGenerations - 1
	}
	if next == g {
		return
	}
	c.gens[g].tracked.remove(v)
	c.gens[next].tracked.insert(v)
	v.Generation = uint8(next)
}
