// Solidification (§4.4): turning an AIR tree into an AVMC Queue.
// Grounded on internal/vm/compiler_expressions.go / compiler_statements.go's
// one-method-per-node-kind emission, re-targeted from byte opcodes to
// avmc.Record/Executor closures.
//
// Node-shape conventions used by Solidify, since Node is one flat
// struct rather than one Go type per kind (see node.go):
//   - if:        Children[0]=condition, Children[1:]=then body, Alt=else body
//   - while:     Children[0]=condition, Children[1:]=body
//   - do-while:  Children[0]=condition (tested after body), Children[1:]=body
//   - for:       Children = [init, condition, step, body], each a single
//                sub-node (init/body are execute-block wrappers; condition
//                may be nil for an infinite loop)
//   - for-each:  Children[0]=iterable, Children[1]=body (execute-block);
//                Names=[valueName, keyName] (keyName may be "")
//   - try:       Children=try body, Alt=catch body, Name=bound error name
//   - catch-expr: Children[0]=try expr, Alt=[catch expr], Name=bound error name
//   - assert:    Children[0]=condition, Children[1]=message expr (may be nil)
//   - throw:     Children[0]=thrown expr
//   - return:    Children[0]=returned expr (may be nil for bare `return;`)
//   - branch-expr/coalescence: Children[0]=condition/operand, Children[1]=
//                true branch, Alt=[false branch] (coalescence only needs
//                Children[0] and Alt[0])
//   - function-call/variadic-call: Children[0]=callee, Children[1:]=args
//   - define-function: Children=body, Names=params, IsVariadic, Name=
//                (optional) self-binding name for recursion
//   - defer-expression: Children=deferred body
//   - push-unnamed-array: Children=element exprs
//   - push-unnamed-object: Children=field exprs, Names=parallel keys
//   - unpack-struct-array/object: Children[0]=source expr, Names=targets
//   - member-access: Children[0]=base ref expr, then either Name (key) or
//                     Children[1] (index expr)
//   - switch: Children[0]=subject, Cases=[]SwitchCase
package air

import (
	"github.com/asteria-lang/asteria/internal/avmc"
	"github.com/asteria-lang/asteria/internal/context"
	"github.com/asteria-lang/asteria/internal/exception"
	"github.com/asteria-lang/asteria/internal/reference"
	"github.com/asteria-lang/asteria/internal/value"
)

// ModuleLoader is the minimal contract import-call needs from
// context.Global.Loader -- kept here (rather than naming
// internal/modules.Loader) to avoid air depending on modules; the
// concrete loader satisfies this structurally.
type ModuleLoader interface {
	Load(path string) (value.Value, *exception.Error)
}

func loc(n *Node) exception.SourceLoc {
	return exception.SourceLoc{File: n.File, Line: n.Line, Column: n.Col}
}

// Solidify appends node's compiled form to q and reports whether
// control can fall through to whatever follows (§4.4). tail marks a
// function-call/variadic-call node sitting directly in return position,
// enabling the PTC trampoline (§4.6).
func Solidify(node *Node, q *avmc.Queue, tail bool) bool {
	if node == nil {
		return true
	}
	switch node.Kind {
	case KClearStack:
		solidifyClearStack(node, q)
	case KExecuteBlock:
		solidifyBlock(node.Children, q)
	case KDeclareVariable:
		solidifyDeclareVariable(node, q)
	case KInitializeVariable:
		solidifyInitializeVariable(node, q)
	case KDeclareReference, KInitializeReference:
		solidifyDeclareReference(node, q)
	case KDefineNullVariable:
		solidifyDefineNullVariable(node, q)
	case KIf:
		return solidifyIf(node, q)
	case KSwitch:
		return solidifySwitch(node, q)
	case KWhile:
		solidifyWhile(node, q)
	case KDoWhile:
		solidifyDoWhile(node, q)
	case KFor:
		solidifyFor(node, q)
	case KForEach:
		solidifyForEach(node, q)
	case KTry:
		solidifyTry(node, q)
	case KThrow:
		return solidifyThrow(node, q)
	case KAssert:
		solidifyAssert(node, q)
	case KSimpleStatus:
		return solidifySimpleStatus(node, q)
	case KCheckArgument:
		solidifyCheckArgument(node, q)
	case KPushGlobalReference, KPushLocalReference:
		solidifyPushNamedReference(node, q)
	case KPushBoundReference:
		solidifyPushBoundReference(node, q)
	case KPushTemporaryReference:
		solidifyPushTemporaryReference(node, q)
	case KDefineFunction:
		solidifyDefineFunction(node, q)
	case KBranchExpression:
		solidifyBranchExpression(node, q)
	case KCoalescence:
		solidifyCoalescence(node, q)
	case KFunctionCall, KVariadicCall:
		solidifyCall(node, q, tail)
	case KMemberAccess:
		solidifyMemberAccess(node, q)
	case KPushUnnamedArray:
		solidifyPushUnnamedArray(node, q)
	case KPushUnnamedObject:
		solidifyPushUnnamedObject(node, q)
	case KApplyOperator:
		solidifyApplyOperator(node, q)
	case KUnpackStructArray:
		solidifyUnpackStruct(node, q, true)
	case KUnpackStructObject:
		solidifyUnpackStruct(node, q, false)
	case KSingleStepTrap:
		solidifySingleStepTrap(node, q)
	case KDeferExpression:
		solidifyDeferExpression(node, q)
	case KImportCall:
		solidifyImportCall(node, q)
	case KCatchExpression:
		solidifyCatchExpression(node, q)
	case KReturnStatement:
		return solidifyReturn(node, q)
	default:
		q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
			return avmc.StatusNext, exception.Newf(exception.BadCall, "unsolidified air node kind %d", node.Kind)
		}})
	}
	return node.Reachable()
}

// solidifyBlock solidifies a statement sequence into q, stopping early
// (not appending dead code) once a node reports unreachable fallthrough.
func solidifyBlock(nodes []*Node, q *avmc.Queue) {
	for _, n := range nodes {
		if !Solidify(n, q, false) {
			return
		}
	}
}

// subQueue solidifies nodes into their own, independently finalized
// Queue -- used wherever a construct must run its body against the
// same ExecutiveContext but intercept/branch on the body's outcome
// locally (if/while/try/switch/catch-expr/defer/function bodies).
func subQueue(nodes []*Node) *avmc.Queue {
	q := avmc.NewQueue()
	solidifyBlock(nodes, q)
	q.Finalize()
	return q
}

func popValue(ctx *context.ExecutiveContext) (value.Value, *exception.Error) {
	r := ctx.Operands.Pop()
	return r.DereferenceReadonly(ctx.Global().PRNG)
}

func solidifyClearStack(node *Node, q *avmc.Queue) {
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		ctx.Operands.Truncate(0)
		return avmc.StatusNext, nil
	}})
}

func solidifyPushTemporaryReference(node *Node, q *avmc.Queue) {
	lit := node.Literal
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		ctx.Operands.Push().SetTemporary(lit)
		return avmc.StatusNext, nil
	}})
}

// copyInto mirrors src's current binding into dst -- the starting
// state of a freshly pushed operand, before any member-access node
// extends it with modifiers of its own. A Variable binding with no
// modifier chain is shared as is; any other binding, including a
// Variable alias that carries modifiers, is read through its chain and
// pushed as a temporary holding the value it addresses right now.
func copyInto(dst, src *reference.Reference) *exception.Error {
	switch {
	case src.Kind() == reference.KVariable && len(src.Modifiers()) == 0:
		dst.SetVariable(src.Variable())
	case src.Kind() == reference.KPTC:
		dst.SetPTC(src.PTC())
	default:
		v, err := src.DereferenceReadonly(nil)
		if err != nil {
			return err
		}
		dst.SetTemporary(v)
	}
	return nil
}

func solidifyPushNamedReference(node *Node, q *avmc.Queue) {
	name := node.Name
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		src, ok := ctx.Named(name)
		if !ok {
			return avmc.StatusNext, exception.Newf(exception.UndeclaredName, "undeclared name %q", name)
		}
		dst := ctx.Operands.Push()
		if err := copyInto(dst, src); err != nil {
			return avmc.StatusNext, err
		}
		return avmc.StatusNext, nil
	}})
}

func solidifyPushBoundReference(node *Node, q *avmc.Queue) {
	name, depth := node.Name, node.Depth
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		target := ctx
		for i := 0; i < depth && target != nil; i++ {
			target = target.Parent()
		}
		if target == nil {
			return avmc.StatusNext, exception.Newf(exception.UndeclaredName, "no enclosing scope at depth %d for %q", depth, name)
		}
		src, ok := target.Named(name)
		if !ok {
			return avmc.StatusNext, exception.Newf(exception.UndeclaredName, "undeclared name %q", name)
		}
		dst := ctx.Operands.Push()
		if err := copyInto(dst, src); err != nil {
			return avmc.StatusNext, err
		}
		return avmc.StatusNext, nil
	}})
}

func solidifyDeclareVariable(node *Node, q *avmc.Queue) {
	name := node.Name
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		ctx.DeclareLocal(name)
		return avmc.StatusNext, nil
	}})
}

func solidifyInitializeVariable(node *Node, q *avmc.Queue) {
	Solidify(node.Children[0], q, false)
	name, mutable := node.Name, node.Mutable
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		v, err := popValue(ctx)
		if err != nil {
			return avmc.StatusNext, err
		}
		slot := ctx.Global().GC.Allocate()
		slot.Initialize(v, mutable)
		ctx.BindVariable(name, slot)
		return avmc.StatusNext, nil
	}})
}

func solidifyDeclareReference(node *Node, q *avmc.Queue) {
	if len(node.Children) > 0 {
		Solidify(node.Children[0], q, false)
	}
	name := node.Name
	hasInit := len(node.Children) > 0
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		if !hasInit {
			ctx.DeclareLocal(name)
			return avmc.StatusNext, nil
		}
		ctx.BindReference(name, ctx.Operands.Pop())
		return avmc.StatusNext, nil
	}})
}

func solidifyDefineNullVariable(node *Node, q *avmc.Queue) {
	name, mutable := node.Name, node.Mutable
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		slot := ctx.Global().GC.Allocate()
		slot.Initialize(value.Null, mutable)
		ctx.BindVariable(name, slot)
		return avmc.StatusNext, nil
	}})
}

func solidifyIf(node *Node, q *avmc.Queue) bool {
	Solidify(node.Children[0], q, false)
	thenQ := subQueue(node.Children[1:])
	elseQ := subQueue(node.Alt)
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		cond, err := popValue(ctx)
		if err != nil {
			return avmc.StatusNext, err
		}
		if cond.Test() {
			return thenQ.Run(ctx)
		}
		return elseQ.Run(ctx)
	}})
	thenReach := reachableBlock(node.Children[1:])
	elseReach := reachableBlock(node.Alt)
	return thenReach || elseReach
}

func reachableBlock(nodes []*Node) bool {
	for _, n := range nodes {
		if !n.Reachable() {
			return false
		}
	}
	return true
}

func solidifySwitch(node *Node, q *avmc.Queue) bool {
	Solidify(node.Children[0], q, false)
	type compiledCase struct {
		match *avmc.Queue // nil for default
		body  *avmc.Queue
	}
	cases := make([]compiledCase, len(node.Cases))
	defaultIdx := -1
	for i, c := range node.Cases {
		var mq *avmc.Queue
		if c.Match != nil {
			mq = subQueue([]*Node{c.Match})
		} else {
			defaultIdx = i
		}
		cases[i] = compiledCase{match: mq, body: subQueue(c.Body)}
	}
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		subject, err := popValue(ctx)
		if err != nil {
			return avmc.StatusNext, err
		}
		start := -1
		for i, c := range cases {
			if c.match == nil {
				continue
			}
			if _, mErr := c.match.Run(ctx); mErr != nil {
				return avmc.StatusNext, mErr
			}
			mv, mErr := popValue(ctx)
			if mErr != nil {
				return avmc.StatusNext, mErr
			}
			eq, cmpErr := BinaryOp(XCmpEq, subject, mv)
			if cmpErr != nil {
				return avmc.StatusNext, cmpErr
			}
			if eq.Test() {
				start = i
				break
			}
		}
		if start == -1 {
			start = defaultIdx
		}
		if start == -1 {
			return avmc.StatusNext, nil
		}
		for i := start; i < len(cases); i++ {
			status, bErr := cases[i].body.Run(ctx)
			if bErr != nil {
				return status, bErr
			}
			if status == avmc.StatusBreakSwitch {
				return avmc.StatusNext, nil
			}
			if status != avmc.StatusNext {
				return status, nil
			}
		}
		return avmc.StatusNext, nil
	}})
	return true
}

func solidifyWhile(node *Node, q *avmc.Queue) {
	condQ := subQueue([]*Node{node.Children[0]})
	bodyQ := subQueue(node.Children[1:])
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		for {
			if _, err := condQ.Run(ctx); err != nil {
				return avmc.StatusNext, err
			}
			cond, err := popValue(ctx)
			if err != nil {
				return avmc.StatusNext, err
			}
			if !cond.Test() {
				return avmc.StatusNext, nil
			}
			status, bErr := bodyQ.Run(ctx)
			if bErr != nil {
				return status, bErr
			}
			switch status {
			case avmc.StatusNext, avmc.StatusContinueUnspec, avmc.StatusContinueWhile:
				continue
			case avmc.StatusBreakUnspec, avmc.StatusBreakWhile:
				return avmc.StatusNext, nil
			default:
				return status, nil
			}
		}
	}})
}

func solidifyDoWhile(node *Node, q *avmc.Queue) {
	condQ := subQueue([]*Node{node.Children[0]})
	bodyQ := subQueue(node.Children[1:])
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		for {
			status, bErr := bodyQ.Run(ctx)
			if bErr != nil {
				return status, bErr
			}
			switch status {
			case avmc.StatusNext, avmc.StatusContinueUnspec, avmc.StatusContinueWhile:
			case avmc.StatusBreakUnspec, avmc.StatusBreakWhile:
				return avmc.StatusNext, nil
			default:
				return status, nil
			}
			if _, err := condQ.Run(ctx); err != nil {
				return avmc.StatusNext, err
			}
			cond, err := popValue(ctx)
			if err != nil {
				return avmc.StatusNext, err
			}
			if !cond.Test() {
				return avmc.StatusNext, nil
			}
		}
	}})
}

func solidifyFor(node *Node, q *avmc.Queue) {
	init, cond, step, body := node.Children[0], node.Children[1], node.Children[2], node.Children[3]
	initQ := subQueue([]*Node{init})
	var condQ *avmc.Queue
	if cond != nil {
		condQ = subQueue([]*Node{cond})
	}
	stepQ := subQueue([]*Node{step})
	bodyQ := subQueue([]*Node{body})
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		if _, err := initQ.Run(ctx); err != nil {
			return avmc.StatusNext, err
		}
		for {
			if condQ != nil {
				if _, err := condQ.Run(ctx); err != nil {
					return avmc.StatusNext, err
				}
				cond, err := popValue(ctx)
				if err != nil {
					return avmc.StatusNext, err
				}
				if !cond.Test() {
					return avmc.StatusNext, nil
				}
			}
			status, bErr := bodyQ.Run(ctx)
			if bErr != nil {
				return status, bErr
			}
			switch status {
			case avmc.StatusNext, avmc.StatusContinueUnspec, avmc.StatusContinueFor:
			case avmc.StatusBreakUnspec, avmc.StatusBreakFor:
				return avmc.StatusNext, nil
			default:
				return status, nil
			}
			if _, err := stepQ.Run(ctx); err != nil {
				return avmc.StatusNext, err
			}
		}
	}})
}

func solidifyForEach(node *Node, q *avmc.Queue) {
	Solidify(node.Children[0], q, false)
	bodyQ := subQueue([]*Node{node.Children[1]})
	valueName := node.Names[0]
	keyName := ""
	if len(node.Names) > 1 {
		keyName = node.Names[1]
	}
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		iterable, err := popValue(ctx)
		if err != nil {
			return avmc.StatusNext, err
		}
		iterate := func(key value.Value, v value.Value) (avmc.Status, *exception.Error) {
			child := context.NewExecutiveBlock(ctx)
			slot := ctx.Global().GC.Allocate()
			slot.Initialize(v, false)
			child.BindVariable(valueName, slot)
			if keyName != "" {
				kslot := ctx.Global().GC.Allocate()
				kslot.Initialize(key, false)
				child.BindVariable(keyName, kslot)
			}
			status, bErr := bodyQ.Run(child)
			if bErr != nil {
				return status, bErr
			}
			switch status {
			case avmc.StatusNext, avmc.StatusContinueUnspec, avmc.StatusContinueFor:
				return avmc.StatusNext, nil
			case avmc.StatusBreakUnspec, avmc.StatusBreakFor:
				return avmc.StatusBreakFor, nil
			default:
				return status, nil
			}
		}
		switch {
		case iterable.IsArray():
			arr := iterable.AsArray()
			for i := 0; i < arr.Len(); i++ {
				status, iErr := iterate(value.Int(int64(i)), arr.Get(i))
				if iErr != nil {
					return avmc.StatusNext, iErr
				}
				if status == avmc.StatusBreakFor {
					break
				}
			}
		case iterable.IsObject():
			obj := iterable.AsObject()
			for _, k := range obj.Keys {
				fv, _ := obj.Get(k)
				status, iErr := iterate(value.Str(k), fv)
				if iErr != nil {
					return avmc.StatusNext, iErr
				}
				if status == avmc.StatusBreakFor {
					break
				}
			}
		default:
			return avmc.StatusNext, exception.Newf(exception.TypeMismatch, "for-each requires an array or object")
		}
		return avmc.StatusNext, nil
	}})
}

func solidifyTry(node *Node, q *avmc.Queue) {
	tryQ := subQueue(node.Children)
	catchQ := subQueue(node.Alt)
	name := node.Name
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		status, err := tryQ.Run(ctx)
		if err == nil {
			return status, nil
		}
		err = err.PushFrame(exception.Frame{Kind: exception.FrameTry, Loc: rec.Loc, Value: err.Payload, HasValue: true})
		child := context.NewExecutiveBlock(ctx)
		if name != "" {
			slot := ctx.Global().GC.Allocate()
			slot.Initialize(err.Payload, false)
			child.BindVariable(name, slot)
		}
		btSlot := ctx.Global().GC.Allocate()
		btSlot.Initialize(err.Backtrace(), false)
		child.BindVariable("__backtrace", btSlot)
		return catchQ.Run(child)
	}})
}

func solidifyCatchExpression(node *Node, q *avmc.Queue) {
	tryQ := subQueue([]*Node{node.Children[0]})
	catchQ := subQueue(node.Alt)
	name := node.Name
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		status, err := tryQ.Run(ctx)
		if err == nil {
			return status, nil
		}
		child := context.NewExecutiveBlock(ctx)
		if name != "" {
			slot := ctx.Global().GC.Allocate()
			slot.Initialize(err.Payload, false)
			child.BindVariable(name, slot)
		}
		return catchQ.Run(child)
	}})
}

func solidifyThrow(node *Node, q *avmc.Queue) bool {
	Solidify(node.Children[0], q, false)
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		v, err := popValue(ctx)
		if err != nil {
			return avmc.StatusNext, err
		}
		return avmc.StatusNext, exception.New(exception.UserThrow, v).PushFrame(exception.Frame{Kind: exception.FrameThrow, Loc: rec.Loc, Value: v, HasValue: true})
	}})
	return false
}

func solidifyAssert(node *Node, q *avmc.Queue) {
	Solidify(node.Children[0], q, false)
	var msgQ *avmc.Queue
	if len(node.Children) > 1 && node.Children[1] != nil {
		msgQ = subQueue([]*Node{node.Children[1]})
	}
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		cond, err := popValue(ctx)
		if err != nil {
			return avmc.StatusNext, err
		}
		if cond.Test() {
			return avmc.StatusNext, nil
		}
		msg := "assertion failed"
		if msgQ != nil {
			if _, mErr := msgQ.Run(ctx); mErr != nil {
				return avmc.StatusNext, mErr
			}
			mv, mErr := popValue(ctx)
			if mErr != nil {
				return avmc.StatusNext, mErr
			}
			if mv.IsString() {
				msg = mv.AsString()
			}
		}
		return avmc.StatusNext, exception.New(exception.AssertionFailed, value.Str(msg)).PushFrame(exception.Frame{Kind: exception.FrameAssert, Loc: rec.Loc})
	}})
}

var simpleStatusMap = [...]avmc.Status{
	SBreakUnspec:    avmc.StatusBreakUnspec,
	SBreakWhile:     avmc.StatusBreakWhile,
	SBreakSwitch:    avmc.StatusBreakSwitch,
	SBreakFor:       avmc.StatusBreakFor,
	SContinueUnspec: avmc.StatusContinueUnspec,
	SContinueWhile:  avmc.StatusContinueWhile,
	SContinueFor:    avmc.StatusContinueFor,
	SReturnVoid:     avmc.StatusReturnVoid,
}

func solidifySimpleStatus(node *Node, q *avmc.Queue) bool {
	status := simpleStatusMap[node.Status]
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		return status, nil
	}})
	return false
}

func solidifyReturn(node *Node, q *avmc.Queue) bool {
	if len(node.Children) == 0 || node.Children[0] == nil {
		q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
			return avmc.StatusReturnVoid, nil
		}})
		return false
	}
	isTailCall := node.Children[0].Kind == KFunctionCall || node.Children[0].Kind == KVariadicCall
	Solidify(node.Children[0], q, isTailCall)
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		return avmc.StatusReturnRef, nil
	}})
	return false
}

func solidifyCheckArgument(node *Node, q *avmc.Queue) {
	Solidify(node.Children[0], q, false)
	want := node.Name
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		top := ctx.Operands.Top()
		v, err := top.DereferenceReadonly(ctx.Global().PRNG)
		if err != nil {
			return avmc.StatusNext, err
		}
		if want != "" && v.TypeOf() != want {
			return avmc.StatusNext, exception.Newf(exception.TypeMismatch, "expected %s, got %s", want, v.TypeOf())
		}
		return avmc.StatusNext, nil
	}})
}

func solidifyDefineFunction(node *Node, q *avmc.Queue) {
	bodyQ := subQueue(node.Children)
	name := node.Name
	params := append([]string(nil), node.Names...)
	variadic := node.IsVariadic
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		cl := &Closure{
			FuncName: name,
			Params:   params,
			Variadic: variadic,
			Body:     bodyQ,
			Captured: ctx,
			Global:   ctx.Global(),
		}
		if name != "" {
			slot := ctx.Global().GC.Allocate()
			slot.Initialize(value.Func(cl), false)
			ctx.BindVariable(name, slot)
		}
		ctx.Operands.Push().SetTemporary(value.Func(cl))
		return avmc.StatusNext, nil
	}})
}

func solidifyBranchExpression(node *Node, q *avmc.Queue) {
	Solidify(node.Children[0], q, false)
	trueQ := subQueue([]*Node{node.Children[1]})
	falseQ := subQueue(node.Alt)
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		cond, err := popValue(ctx)
		if err != nil {
			return avmc.StatusNext, err
		}
		if cond.Test() {
			return trueQ.Run(ctx)
		}
		return falseQ.Run(ctx)
	}})
}

func solidifyCoalescence(node *Node, q *avmc.Queue) {
	Solidify(node.Children[0], q, false)
	altQ := subQueue(node.Alt)
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		top := ctx.Operands.Top()
		v, err := top.DereferenceReadonly(ctx.Global().PRNG)
		if err != nil {
			return avmc.StatusNext, err
		}
		if !v.IsNull() {
			return avmc.StatusNext, nil
		}
		ctx.Operands.Pop()
		return altQ.Run(ctx)
	}})
}

func toError(e error) *exception.Error {
	if e == nil {
		return nil
	}
	if ee, ok := e.(*exception.Error); ok {
		return ee
	}
	return exception.Newf(exception.BadCall, "%v", e)
}

func solidifyCall(node *Node, q *avmc.Queue, tail bool) {
	Solidify(node.Children[0], q, false)
	for _, a := range node.Children[1:] {
		Solidify(a, q, false)
	}
	argc := len(node.Children) - 1
	spread := node.Kind == KVariadicCall
	l := loc(node)
	q.Append(avmc.Record{Loc: l, Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		argVals := make([]value.Value, argc)
		for i := argc - 1; i >= 0; i-- {
			v, err := popValue(ctx)
			if err != nil {
				return avmc.StatusNext, err
			}
			argVals[i] = v
		}
		if spread && argc > 0 {
			last := argVals[argc-1]
			if !last.IsArray() {
				return avmc.StatusNext, exception.Newf(exception.BadVariadic, "spread argument must be an array")
			}
			flat := append([]value.Value(nil), argVals[:argc-1]...)
			arr := last.AsArray()
			for i := 0; i < arr.Len(); i++ {
				flat = append(flat, arr.Get(i))
			}
			argVals = flat
		}
		callee, err := popValue(ctx)
		if err != nil {
			return avmc.StatusNext, err
		}
		if !callee.IsFunction() {
			return avmc.StatusNext, exception.Newf(exception.BadCall, "attempt to call a %s value", callee.TypeOf())
		}
		if tail {
			ptc := &reference.PTCArguments{Loc: l, Mode: reference.PTCByValue, Target: callee, Args: argVals}
			ctx.Operands.Push().SetPTC(ptc)
			return avmc.StatusNext, nil
		}
		fn := callee.AsFunction()
		var result value.Value
		ref := &value.Ref{Set: func(v value.Value) { result = v }}
		if ierr := fn.Invoke(ref, ctx.Global(), argVals); ierr != nil {
			return avmc.StatusNext, toError(ierr).PushFrame(exception.Frame{Kind: exception.FrameCall, Loc: l})
		}
		ctx.Operands.Push().SetTemporary(result)
		return avmc.StatusNext, nil
	}})
}

func solidifyMemberAccess(node *Node, q *avmc.Queue) {
	Solidify(node.Children[0], q, false)
	useKey := node.Name != ""
	var idxQ *avmc.Queue
	if !useKey {
		idxQ = subQueue([]*Node{node.Children[1]})
	}
	key := node.Name
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		top := ctx.Operands.Top()
		if useKey {
			top.PushModifier(reference.KeyModifier(key))
			return avmc.StatusNext, nil
		}
		if _, err := idxQ.Run(ctx); err != nil {
			return avmc.StatusNext, err
		}
		idx, err := popValue(ctx)
		if err != nil {
			return avmc.StatusNext, err
		}
		if !idx.IsInteger() {
			return avmc.StatusNext, exception.Newf(exception.TypeMismatch, "array index must be an integer")
		}
		top.PushModifier(reference.IndexModifier(idx.AsInteger()))
		return avmc.StatusNext, nil
	}})
}

func solidifyPushUnnamedArray(node *Node, q *avmc.Queue) {
	for _, c := range node.Children {
		Solidify(c, q, false)
	}
	n := len(node.Children)
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		elems := make([]value.Value, n)
		for i := n - 1; i >= 0; i-- {
			v, err := popValue(ctx)
			if err != nil {
				return avmc.StatusNext, err
			}
			elems[i] = v
		}
		ctx.Operands.Push().SetTemporary(value.Array(elems))
		return avmc.StatusNext, nil
	}})
}

func solidifyPushUnnamedObject(node *Node, q *avmc.Queue) {
	for _, c := range node.Children {
		Solidify(c, q, false)
	}
	keys := append([]string(nil), node.Names...)
	n := len(node.Children)
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		vals := make([]value.Value, n)
		for i := n - 1; i >= 0; i-- {
			v, err := popValue(ctx)
			if err != nil {
				return avmc.StatusNext, err
			}
			vals[i] = v
		}
		m := make(map[string]value.Value, n)
		for i, k := range keys {
			m[k] = vals[i]
		}
		ctx.Operands.Push().SetTemporary(value.Object(keys, m))
		return avmc.StatusNext, nil
	}})
}

func solidifyUnpackStruct(node *Node, q *avmc.Queue, isArray bool) {
	Solidify(node.Children[0], q, false)
	names := append([]string(nil), node.Names...)
	mutable := node.Mutable
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		src, err := popValue(ctx)
		if err != nil {
			return avmc.StatusNext, err
		}
		bind := func(name string, v value.Value) {
			if name == "" {
				return
			}
			slot := ctx.Global().GC.Allocate()
			slot.Initialize(v, mutable)
			ctx.BindVariable(name, slot)
		}
		if isArray {
			if !src.IsArray() {
				return avmc.StatusNext, exception.Newf(exception.TypeMismatch, "cannot unpack a %s as an array", src.TypeOf())
			}
			arr := src.AsArray()
			for i, name := range names {
				var v value.Value = value.Null
				if i < arr.Len() {
					v = arr.Get(i)
				}
				bind(name, v)
			}
		} else {
			if !src.IsObject() {
				return avmc.StatusNext, exception.Newf(exception.TypeMismatch, "cannot unpack a %s as an object", src.TypeOf())
			}
			obj := src.AsObject()
			for _, name := range names {
				v, _ := obj.Get(name)
				bind(name, v)
			}
		}
		return avmc.StatusNext, nil
	}})
}

func solidifySingleStepTrap(node *Node, q *avmc.Queue) {
	l := loc(node)
	q.Append(avmc.Record{Loc: l, Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		if h := ctx.Global().Hooks; h != nil {
			if err := h.OnCall(l, value.Null); err != nil {
				return avmc.StatusNext, err
			}
		}
		return avmc.StatusNext, nil
	}})
}

func solidifyDeferExpression(node *Node, q *avmc.Queue) {
	deferQ := subQueue(node.Children)
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		ctx.PushDefer(rec.Loc, deferQ)
		return avmc.StatusNext, nil
	}})
}

func solidifyImportCall(node *Node, q *avmc.Queue) {
	path := node.ImportPath
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		loader, ok := ctx.Global().Loader.(ModuleLoader)
		if !ok || loader == nil {
			return avmc.StatusNext, exception.Newf(exception.BadCall, "no module loader configured")
		}
		v, err := loader.Load(path)
		if err != nil {
			return avmc.StatusNext, err
		}
		ctx.Operands.Push().SetTemporary(v)
		return avmc.StatusNext, nil
	}})
}

func solidifyApplyOperator(node *Node, q *avmc.Queue) {
	switch node.Op {
	case XInc, XDec, XUnset, XRandom:
		solidifyRefOperator(node, q)
	default:
		solidifyValueOperator(node, q)
	}
}

func solidifyValueOperator(node *Node, q *avmc.Queue) {
	for _, c := range node.Children {
		Solidify(c, q, false)
	}
	op := node.Op
	assignOp := node.AssignOp
	arity := len(node.Children)
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		if assignOp {
			return execAssignOperator(ctx, op)
		}
		switch arity {
		case 1:
			a, err := popValue(ctx)
			if err != nil {
				return avmc.StatusNext, err
			}
			r, opErr := UnaryOp(op, a)
			if opErr != nil {
				return avmc.StatusNext, opErr
			}
			ctx.Operands.Push().SetTemporary(r)
		case 2:
			b, err := popValue(ctx)
			if err != nil {
				return avmc.StatusNext, err
			}
			a, err := popValue(ctx)
			if err != nil {
				return avmc.StatusNext, err
			}
			if op == XAssign {
				return execAssignTo(ctx, b)
			}
			r, opErr := BinaryOp(op, a, b)
			if opErr != nil {
				return avmc.StatusNext, opErr
			}
			ctx.Operands.Push().SetTemporary(r)
		case 3:
			c, err := popValue(ctx)
			if err != nil {
				return avmc.StatusNext, err
			}
			b, err := popValue(ctx)
			if err != nil {
				return avmc.StatusNext, err
			}
			a, err := popValue(ctx)
			if err != nil {
				return avmc.StatusNext, err
			}
			r, opErr := TernaryOp(op, a, b, c)
			if opErr != nil {
				return avmc.StatusNext, opErr
			}
			ctx.Operands.Push().SetTemporary(r)
		}
		return avmc.StatusNext, nil
	}})
}

// execAssignTo implements the `=` xop: operand 0 (popped before this
// runs, now gone) held the lhs reference which the caller has already
// discarded as a Value -- assignment needs the lhs Reference itself, so
// this path is only reached when op==XAssign without AssignOp set,
// which solidifyValueOperator never produces for bare `=` (see
// solidifyRefOperator's sibling handling below); kept only to satisfy
// BinaryOp's XAssign case when both sides are plain values (e.g. inside
// a larger expression that already resolved the lhs to a value, such as
// tuple assignment's per-element value already handled by the caller).
func execAssignTo(ctx *context.ExecutiveContext, rhs value.Value) (avmc.Status, *exception.Error) {
	ctx.Operands.Push().SetTemporary(rhs)
	return avmc.StatusNext, nil
}

// execAssignOperator implements a compound assignment (`+=` etc.) or a
// plain `=` when AssignOp is set: operand 0 is the lhs reference
// (still on the stack, untouched so it can be written back to) and
// operand 1 is the rhs value.
func execAssignOperator(ctx *context.ExecutiveContext, op XOp) (avmc.Status, *exception.Error) {
	rhsRef := ctx.Operands.Pop()
	rhs, err := rhsRef.DereferenceReadonly(ctx.Global().PRNG)
	if err != nil {
		return avmc.StatusNext, err
	}
	lhsRef := ctx.Operands.Pop()
	var result value.Value
	if op == XAssign {
		result = rhs
	} else {
		lhs, lErr := lhsRef.DereferenceReadonly(ctx.Global().PRNG)
		if lErr != nil {
			return avmc.StatusNext, lErr
		}
		result, err = BinaryOp(op, lhs, rhs)
		if err != nil {
			return avmc.StatusNext, err
		}
	}
	slot, mErr := lhsRef.DereferenceMutable(ctx.Global().PRNG)
	if mErr != nil {
		return avmc.StatusNext, mErr
	}
	slot.Write(result)
	ctx.Operands.Push().SetTemporary(result)
	return avmc.StatusNext, nil
}

func solidifyRefOperator(node *Node, q *avmc.Queue) {
	for _, c := range node.Children {
		Solidify(c, q, false)
	}
	op := node.Op
	q.Append(avmc.Record{Loc: loc(node), Executor: func(ctx *context.ExecutiveContext, rec *avmc.Record) (avmc.Status, *exception.Error) {
		ref := ctx.Operands.Pop()
		switch op {
		case XInc, XDec:
			old, err := ref.DereferenceReadonly(ctx.Global().PRNG)
			if err != nil {
				return avmc.StatusNext, err
			}
			delta := XAdd
			if op == XDec {
				delta = XSub
			}
			one := value.Int(1)
			if old.IsReal() {
				one = value.Real(1)
			}
			next, opErr := BinaryOp(delta, old, one)
			if opErr != nil {
				return avmc.StatusNext, opErr
			}
			slot, mErr := ref.DereferenceMutable(ctx.Global().PRNG)
			if mErr != nil {
				return avmc.StatusNext, mErr
			}
			slot.Write(next)
			ctx.Operands.Push().SetTemporary(old)
		case XUnset:
			removed, err := ref.DereferenceUnset(ctx.Global().PRNG)
			if err != nil {
				return avmc.StatusNext, err
			}
			ctx.Operands.Push().SetTemporary(removed)
		case XRandom:
			v, err := ref.DereferenceReadonly(ctx.Global().PRNG)
			if err != nil {
				return avmc.StatusNext, err
			}
			r, rErr := RandomElement(v, ctx.Global().PRNG)
			if rErr != nil {
				return avmc.StatusNext, rErr
			}
			ctx.Operands.Push().SetTemporary(r)
		}
		return avmc.StatusNext, nil
	}})
}
