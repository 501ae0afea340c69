package air

import (
	"github.com/asteria-lang/asteria/internal/avmc"
	"github.com/asteria-lang/asteria/internal/context"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/value"
)

// Closure is the value.Function a define-function node solidifies to
// (§3.6 "define function", §4.6): a parameter list, an AVMC body
// queue, and the lexical ExecutiveContext it closed over (the context
// the define-function node ran in). Grounded on internal/evaluator/object.go's
// Function (Parameters/Body/Env), replacing the tree-walking Body with
// a solidified *avmc.Queue.
type Closure struct {
	FuncName string
	Params   []string
	Variadic bool
	Body     *avmc.Queue
	Captured *context.ExecutiveContext
	Global   *context.Global
}

func (c *Closure) Name() string { return c.FuncName }

// Invoke runs the closure's body to completion, resolving any chain of
// tail calls (§4.6) with an internal loop rather than recursive Go
// calls -- each hop reuses the same Go stack frame, so a tail-recursive
// Asteria function runs in O(1) native stack regardless of call depth.
// Tail-call chaining through this loop only applies when the callee is
// itself a *Closure; a call to a host-defined value.Function falls
// back to one ordinary (non-tail) Invoke.
func (c *Closure) Invoke(self *value.Ref, globalAny any, args []value.Value) error {
	global := c.Global
	if g, ok := globalAny.(*context.Global); ok && g != nil {
		global = g
	}

	current := c
	curArgs := args
	var carriedDefers []context.DeferredExpr

	for {
		if err := global.Enter(); err != nil {
			return err
		}
		ctx := context.NewExecutiveCall(current.Captured, global)
		bindParams(ctx, global, current.Params, current.Variadic, curArgs)

		status, runErr := current.Body.Run(ctx)
		sceneDefers := ctx.TakeDefers()
		global.Leave()

		if runErr == nil && status == avmc.StatusReturnRef && ctx.Operands.Len() > 0 {
			top := ctx.Operands.Pop()
			if top.IsPTC() {
				ptc := top.PTC()
				carriedDefers = append(carriedDefers, sceneDefers...)
				ptc.Defers = append(ptc.Defers, defersToAny(sceneDefers)...)

				if next, ok := asClosure(ptc.Target); ok {
					current = next
					curArgs = ptc.Args
					continue
				}

				fn, ok := ptc.Target.Obj.(value.Function)
				if !ok {
					return exception.Newf(exception.BadCall, "tail call target is not a function").PushFrame(
						exception.Frame{Kind: exception.FrameCall, Loc: ptc.Loc})
				}
				var captured value.Value
				inner := &value.Ref{Set: func(v value.Value) { captured = v }}
				if ierr := fn.Invoke(inner, global, ptc.Args); ierr != nil {
					return ierr
				}
				if derr := runDeferChain(carriedDefers, global); derr != nil {
					return derr
				}
				self.Set(captured)
				return nil
			}

			v, derefErr := top.DereferenceReadonly(nil)
			if derefErr != nil {
				runErr = derefErr
			} else {
				if derr := runDeferChain(append(carriedDefers, sceneDefers...), global); derr != nil {
					return derr
				}
				self.Set(v)
				return nil
			}
		}

		if runErr != nil {
			if derr := runDeferChain(append(carriedDefers, sceneDefers...), global); derr != nil {
				return derr
			}
			return runErr
		}

		if derr := runDeferChain(append(carriedDefers, sceneDefers...), global); derr != nil {
			return derr
		}
		self.Set(value.Null)
		return nil
	}
}

func asClosure(v value.Value) (*Closure, bool) {
	if !v.IsFunction() {
		return nil, false
	}
	fn, ok := v.Obj.(value.Function)
	if !ok {
		return nil, false
	}
	cl, ok := fn.(*Closure)
	return cl, ok
}

func defersToAny(ds []context.DeferredExpr) []any {
	out := make([]any, len(ds))
	for i, d := range ds {
		out[i] = d
	}
	return out
}

// runDeferChain runs each deferred expression's queue in order (the
// list is already reversed into execute-last-registered-first order by
// context.TakeDefers). A defer's own error replaces any prior one --
// §4.7 only requires that the remaining defers still run, not that the
// superseded error survive.
func runDeferChain(ds []context.DeferredExpr, global *context.Global) *exception.Error {
	var last *exception.Error
	for _, d := range ds {
		q, ok := d.Queue.(*avmc.Queue)
		if !ok || q == nil {
			continue
		}
		ctx := context.NewExecutiveCall(nil, global)
		if _, err := q.Run(ctx); err != nil {
			last = err.PushFrame(exception.Frame{Kind: exception.FrameDefer, Loc: d.Loc})
		}
	}
	return last
}

func bindParams(ctx *context.ExecutiveContext, global *context.Global, params []string, variadic bool, args []value.Value) {
	n := len(params)
	for i, name := range params {
		if variadic && i == n-1 {
			rest := []value.Value{}
			if i < len(args) {
				rest = append(rest, args[i:]...)
			}
			ctx.Variadic = rest
			v := global.GC.Allocate()
			v.Initialize(value.Array(rest), true)
			ctx.BindVariable(name, v)
			return
		}
		var av value.Value = value.Null
		if i < len(args) {
			av = args[i]
		}
		v := global.GC.Allocate()
		v.Initialize(av, true)
		ctx.BindVariable(name, v)
	}
}
