// Package context implements Asteria's Context (§3.5): an ordered
// name->Reference mapping with an optional parent, in two flavors --
// AnalyticContext for compile-time rebinding and ExecutiveContext for
// runtime execution. Grounded on internal/evaluator/environment.go's
// Environment (store map + outer pointer), generalized to Reference
// values, ordered names, and the executive-only extras §3.5 names
// (global pointer, operand/alt stacks, variadic record, defer list,
// call bookkeeping).
package context

import (
	"github.com/asteria-lang/asteria/internal/config"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/gc"
	"github.com/asteria-lang/asteria/internal/reference"
	"github.com/asteria-lang/asteria/internal/refstack"
	"github.com/asteria-lang/asteria/internal/value"
)

// Hooks lets a host observe function calls (§6's "global hooks");
// any non-nil error aborts the call. Grounded on the teacher's
// debugger Step()/breakpoint callback points (internal/vm/debugger.go)
// as the closest instrumentation analog.
type Hooks interface {
	OnCall(loc exception.SourceLoc, target value.Value) *exception.Error
	OnReturn(loc exception.SourceLoc, result value.Value) *exception.Error
	OnExcept(loc exception.SourceLoc, err *exception.Error) *exception.Error
}

// DeferredExpr is one entry of an ExecutiveContext's deferred
// expression list (§4.7): a source location plus the AIR queue to run
// on scope exit. Queue is opaque (any) rather than *avmc.Queue --
// internal/avmc imports this package for its Executor signature, so
// naming avmc.Queue here would close an import cycle. internal/air
// casts it back at the point of use.
type DeferredExpr struct {
	Loc   exception.SourceLoc
	Queue any
}

// Global is the single context.Global shared by every Context in a
// program run: GC, hooks, and the recursion sentry (§5).
type Global struct {
	GC       *gc.Collector
	Hooks    Hooks
	Depth    int
	MaxDepth int

	// Loader is the module loader (internal/modules.Loader), opaque
	// here for the same import-cycle reason as DeferredExpr.Queue --
	// import-call AIR nodes cast it back.
	Loader any

	// PRNG backs the `random`/array-random-modifier xops (§4.9); nil
	// disables them (random reference/element reads return null).
	PRNG reference.PRNG
}

// NewGlobal returns a Global wired to collector c with the default
// recursion sentry depth, grounded on the teacher's MaxFrameCount
// (internal/vm/vm.go).
func NewGlobal(c *gc.Collector) *Global {
	return &Global{GC: c, MaxDepth: config.MaxRecursionDepth}
}

// Enter increments the recursion sentry, returning a stack_overflow
// error if the sentry's MaxDepth is exceeded (§5).
func (g *Global) Enter() *exception.Error {
	g.Depth++
	if g.Depth > g.MaxDepth {
		g.Depth--
		return exception.Newf(exception.StackOverflow, "maximum recursion depth exceeded")
	}
	return nil
}

// Leave decrements the recursion sentry; paired with a successful Enter.
func (g *Global) Leave() { g.Depth-- }

// Context is the common name-lookup contract shared by AnalyticContext
// and ExecutiveContext (§3.5).
type Context interface {
	// HasName reports whether name is declared in this context or
	// anywhere in its parent chain.
	HasName(name string) bool
}

// AnalyticContext records name->slot bindings at compile time, used
// only during air.Optimizer.Rebind (§3.5) to resolve identifiers to
// fast local/bound references ahead of execution.
type AnalyticContext struct {
	parent *AnalyticContext
	slots  map[string]int
	names  []string
}

// NewAnalyticContext returns a root AnalyticContext with no parent.
func NewAnalyticContext() *AnalyticContext {
	return &AnalyticContext{slots: make(map[string]int)}
}

// NewEnclosedAnalyticContext returns an AnalyticContext nested inside parent.
func NewEnclosedAnalyticContext(parent *AnalyticContext) *AnalyticContext {
	return &AnalyticContext{parent: parent, slots: make(map[string]int)}
}

// Declare binds name to the next local slot index in this context,
// returning that index.
func (c *AnalyticContext) Declare(name string) int {
	idx := len(c.names)
	c.names = append(c.names, name)
	c.slots[name] = idx
	return idx
}

// Lookup finds name's slot index and the depth (0 = this context, 1 =
// parent, ...) at which it was declared.
func (c *AnalyticContext) Lookup(name string) (slot int, depth int, ok bool) {
	for ctx, d := c, 0; ctx != nil; ctx, d = ctx.parent, d+1 {
		if idx, found := ctx.slots[name]; found {
			return idx, d, true
		}
	}
	return 0, 0, false
}

func (c *AnalyticContext) HasName(name string) bool {
	_, _, ok := c.Lookup(name)
	return ok
}

func (c *AnalyticContext) Parent() *AnalyticContext { return c.parent }

// ExecutiveContext is the runtime name->Reference environment (§3.5):
// an outer-chain local map plus, when executive, the global pointer,
// operand/alt stacks, variadic-argument record, deferred-expression
// list and call bookkeeping.
type ExecutiveContext struct {
	parent *ExecutiveContext
	global *Global

	names  []string
	locals map[string]*reference.Reference

	// Operand stacks for the owning Frame. A block-scope child context
	// shares its enclosing function's stacks; only the function's own
	// root ExecutiveContext allocates them (non-nil here).
	Operands *refstack.Stack
	Alt      *refstack.Stack

	// Variadic holds the packed trailing arguments of a variadic call
	// (§4.6), bound to the parameter name by the callee's prologue.
	Variadic []value.Value

	// Defers is run in reverse on scope exit (§4.7), or moved onto a
	// PTC wrapper's own list if scope exit is via a tail call.
	Defers []DeferredExpr
}

// NewExecutiveRoot returns the outermost ExecutiveContext of a
// function invocation: it owns a fresh operand/alt stack pair.
func NewExecutiveRoot(global *Global) *ExecutiveContext {
	return &ExecutiveContext{
		global:   global,
		locals:   make(map[string]*reference.Reference),
		Operands: refstack.New(),
		Alt:      refstack.New(),
	}
}

// NewExecutiveBlock returns an ExecutiveContext nested inside parent
// for a block scope, sharing parent's operand/alt stacks and global.
func NewExecutiveBlock(parent *ExecutiveContext) *ExecutiveContext {
	return &ExecutiveContext{
		parent:   parent,
		global:   parent.global,
		locals:   make(map[string]*reference.Reference),
		Operands: parent.Operands,
		Alt:      parent.Alt,
	}
}

// NewExecutiveCall returns a fresh function-invocation root: its own
// operand/alt stacks (a call is a new frame, not a nested block), with
// lexical parent set to capturing for closure free-variable lookup.
func NewExecutiveCall(capturing *ExecutiveContext, global *Global) *ExecutiveContext {
	return &ExecutiveContext{
		parent:   capturing,
		global:   global,
		locals:   make(map[string]*reference.Reference),
		Operands: refstack.New(),
		Alt:      refstack.New(),
	}
}

func (c *ExecutiveContext) Global() *Global          { return c.global }
func (c *ExecutiveContext) Parent() *ExecutiveContext { return c.parent }

// DeclareLocal binds name to a fresh Reference in this context,
// shadowing any same-named binding in an outer scope, and returns it
// for the caller to populate (declare-variable / declare-reference,
// §3.6).
func (c *ExecutiveContext) DeclareLocal(name string) *reference.Reference {
	r := reference.New()
	if _, exists := c.locals[name]; !exists {
		c.names = append(c.names, name)
	}
	c.locals[name] = r
	return r
}

// BindVariable is a convenience wrapper over DeclareLocal for the
// common case of binding a name directly to a freshly allocated
// Variable (initialize-variable, §3.6): it retains the Variable on
// the binding's behalf (§4.2) so the GC can tell this local keeps it
// alive. A Reference the name previously held in this context is
// replaced in the map but not released.
func (c *ExecutiveContext) BindVariable(name string, v *value.Variable) {
	r := c.DeclareLocal(name)
	r.SetVariable(v)
}

// BindReference binds name directly to an existing Reference (an alias
// binding -- declare-reference/initialize-reference, §3.6), rather
// than materializing a fresh Variable the way BindVariable does.
func (c *ExecutiveContext) BindReference(name string, r *reference.Reference) {
	if _, exists := c.locals[name]; !exists {
		c.names = append(c.names, name)
	}
	c.locals[name] = r
}

// Named searches this context and its parent chain for name,
// returning the bound Reference.
func (c *ExecutiveContext) Named(name string) (*reference.Reference, bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if r, ok := ctx.locals[name]; ok {
			return r, true
		}
	}
	return nil, false
}

func (c *ExecutiveContext) HasName(name string) bool {
	_, ok := c.Named(name)
	return ok
}

// OwnNames returns the names declared directly in this context (not
// its parents), in declaration order -- used by the module loader to
// build a module's exported namespace object from its top-level
// bindings once the module body has run to completion.
func (c *ExecutiveContext) OwnNames() []string {
	return append([]string(nil), c.names...)
}

// PushDefer appends a deferred expression (§4.7); queue is the
// *avmc.Queue to run on scope exit, stashed as any to avoid an import
// cycle (see DeferredExpr).
func (c *ExecutiveContext) PushDefer(loc exception.SourceLoc, queue any) {
	c.Defers = append(c.Defers, DeferredExpr{Loc: loc, Queue: queue})
}

// TakeDefers detaches and returns this context's deferred list in
// reverse (last-registered-first) order, the order §4.7 requires them
// run on ordinary scope exit.
func (c *ExecutiveContext) TakeDefers() []DeferredExpr {
	n := len(c.Defers)
	out := make([]DeferredExpr, n)
	for i, d := range c.Defers {
		out[n-1-i] = d
	}
	c.Defers = nil
	return out
}
