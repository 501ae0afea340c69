// Optimizer.Rebind (§6): lowers a parsed internal/ast.Node tree into
// the resolved internal/air.Node tree Solidify consumes, resolving
// each identifier to a local/bound/global push-reference kind ahead of
// execution the way the teacher's internal/vm pre-resolves AST
// identifiers to stack slots before interpreting -- here against
// context.AnalyticContext rather than a slot table, since Reference
// (§3.2) is the unit AIR pushes rather than a raw stack cell.
//
// AnalyticContext nesting mirrors exactly the points solidify.go
// allocates a new context.ExecutiveContext at runtime: a function
// body (Closure.Invoke's NewExecutiveCall), a for-each iteration body,
// and a try/catch-expression catch body (both NewExecutiveBlock). An
// if/while/do-while/for/switch body runs in the *same* ExecutiveContext
// as its enclosing statement (solidifyIf et al. call Run(ctx), not a
// child context) -- so those bodies share their enclosing
// AnalyticContext too, rather than nesting one of their own. Getting
// this mapping wrong would desync Bound-reference Depth from the
// runtime parent-chain walk solidifyPushBoundReference performs.
package air

import (
	"github.com/asteria-lang/asteria/internal/ast"
	"github.com/asteria-lang/asteria/internal/context"
)

// Optimizer performs the AST->AIR lowering and name-resolution pass
// SPEC_FULL.md's module table calls the Optimizer (reload/rebind).
type Optimizer struct{}

// Reload lowers a freshly parsed compilation unit into a single
// execute-block AIR node, ready for Solidify, under a fresh top-level
// AnalyticContext (an empty scope: every name not declared by the
// program itself resolves as a global reference, which at runtime
// reaches whatever the host bound into the root ExecutiveContext --
// stdlib entries, imported module exports, and so on).
func (o *Optimizer) Reload(prog *ast.Program) *Node {
	actx := context.NewAnalyticContext()
	return o.Rebind(prog.Statements, actx)
}

// Rebind lowers a statement list sharing a single AnalyticContext
// scope (no new scope is opened for the list itself -- callers that
// need one, e.g. a function body, must pass an already-enclosed actx).
func (o *Optimizer) Rebind(stmts []*ast.Node, actx *context.AnalyticContext) *Node {
	return &Node{Kind: KExecuteBlock, Children: lowerStmts(stmts, actx)}
}

func lowerStmts(nodes []*ast.Node, actx *context.AnalyticContext) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, lowerOne(n, actx))
	}
	return out
}

func lowerChildren(nodes []*ast.Node, actx *context.AnalyticContext) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = lowerOne(n, actx)
	}
	return out
}

func lowerOne(n *ast.Node, actx *context.AnalyticContext) *Node {
	if n == nil {
		return nil
	}
	base := Node{File: n.File, Line: n.Line, Col: n.Col}
	switch n.Kind {
	case ast.KBlock:
		base.Kind = KExecuteBlock
		base.Children = lowerStmts(n.Children, actx)
		return &base

	case ast.KIdentifier:
		_, depth, ok := actx.Lookup(n.Name)
		base.Name = n.Name
		if !ok {
			base.Kind = KPushGlobalReference
		} else if depth == 0 {
			base.Kind = KPushLocalReference
		} else {
			base.Kind = KPushBoundReference
			base.Depth = depth
		}
		return &base

	case ast.KLiteral:
		base.Kind = KPushTemporaryReference
		base.Literal = n.Literal
		return &base

	case ast.KDeclareVariable:
		actx.Declare(n.Name)
		base.Kind = KDeclareVariable
		base.Name = n.Name
		return &base

	case ast.KInitializeVariable:
		init := lowerOne(n.Children[0], actx)
		actx.Declare(n.Name)
		base.Kind = KInitializeVariable
		base.Name, base.Mutable = n.Name, n.Mutable
		base.Children = []*Node{init}
		return &base

	case ast.KDeclareReference, ast.KInitializeReference:
		var kids []*Node
		if len(n.Children) > 0 {
			kids = []*Node{lowerOne(n.Children[0], actx)}
		}
		actx.Declare(n.Name)
		base.Kind = KDeclareReference
		if n.Kind == ast.KInitializeReference {
			base.Kind = KInitializeReference
		}
		base.Name = n.Name
		base.Children = kids
		return &base

	case ast.KDefineNullVariable:
		actx.Declare(n.Name)
		base.Kind = KDefineNullVariable
		base.Name, base.Mutable = n.Name, n.Mutable
		return &base

	case ast.KIf:
		cond := lowerOne(n.Children[0], actx)
		then := lowerStmts(n.Children[1:], actx)
		alt := lowerStmts(n.Alt, actx)
		base.Kind = KIf
		base.Children = append([]*Node{cond}, then...)
		base.Alt = alt
		return &base

	case ast.KSwitch:
		subject := lowerOne(n.Children[0], actx)
		cases := make([]SwitchCase, len(n.Cases))
		for i, c := range n.Cases {
			var m *Node
			if c.Match != nil {
				m = lowerOne(c.Match, actx)
			}
			cases[i] = SwitchCase{Match: m, Body: lowerStmts(c.Body, actx)}
		}
		base.Kind = KSwitch
		base.Children = []*Node{subject}
		base.Cases = cases
		return &base

	case ast.KWhile:
		cond := lowerOne(n.Children[0], actx)
		body := lowerStmts(n.Children[1:], actx)
		base.Kind = KWhile
		base.Children = append([]*Node{cond}, body...)
		return &base

	case ast.KDoWhile:
		cond := lowerOne(n.Children[0], actx)
		body := lowerStmts(n.Children[1:], actx)
		base.Kind = KDoWhile
		base.Children = append([]*Node{cond}, body...)
		return &base

	case ast.KFor:
		init := lowerOne(n.Children[0], actx)
		var cond *Node
		if n.Children[1] != nil {
			cond = lowerOne(n.Children[1], actx)
		}
		step := lowerOne(n.Children[2], actx)
		body := lowerOne(n.Children[3], actx) // shares actx: no new scope
		base.Kind = KFor
		base.Children = []*Node{init, cond, step, body}
		return &base

	case ast.KForEach:
		iterable := lowerOne(n.Children[0], actx)
		bodyActx := context.NewEnclosedAnalyticContext(actx)
		for _, name := range n.Names {
			bodyActx.Declare(name)
		}
		bodyAst := n.Children[1]
		body := &Node{Kind: KExecuteBlock, Children: lowerStmts(bodyAst.Children, bodyActx)}
		base.Kind = KForEach
		base.Children = []*Node{iterable, body}
		base.Names = n.Names
		return &base

	case ast.KTry:
		tryBody := lowerStmts(n.Children, actx) // shares actx
		catchActx := context.NewEnclosedAnalyticContext(actx)
		if n.Name != "" {
			catchActx.Declare(n.Name)
		}
		catchActx.Declare("__backtrace")
		catchBody := lowerStmts(n.Alt, catchActx)
		base.Kind = KTry
		base.Name = n.Name
		base.Children = tryBody
		base.Alt = catchBody
		return &base

	case ast.KCatchExpression:
		tryExpr := lowerOne(n.Children[0], actx)
		catchActx := context.NewEnclosedAnalyticContext(actx)
		if n.Name != "" {
			catchActx.Declare(n.Name)
		}
		catchAlt := lowerStmts(n.Alt, catchActx)
		base.Kind = KCatchExpression
		base.Name = n.Name
		base.Children = []*Node{tryExpr}
		base.Alt = catchAlt
		return &base

	case ast.KThrow:
		base.Kind = KThrow
		base.Children = []*Node{lowerOne(n.Children[0], actx)}
		return &base

	case ast.KAssert:
		base.Kind = KAssert
		base.Children = lowerChildren(n.Children, actx)
		return &base

	case ast.KSimpleStatus:
		base.Kind = KSimpleStatus
		base.Status = SimpleStatusKind(n.Status)
		return &base

	case ast.KReturn:
		base.Kind = KReturnStatement
		if len(n.Children) > 0 {
			base.Children = []*Node{lowerOne(n.Children[0], actx)}
		}
		return &base

	case ast.KCheckArgument:
		base.Kind = KCheckArgument
		base.Name = n.Name
		base.Children = []*Node{lowerOne(n.Children[0], actx)}
		return &base

	case ast.KDefineFunction:
		if n.Name != "" {
			actx.Declare(n.Name)
		}
		bodyActx := context.NewEnclosedAnalyticContext(actx)
		for _, p := range n.Names {
			bodyActx.Declare(p)
		}
		base.Kind = KDefineFunction
		base.Name = n.Name
		base.Names = n.Names
		base.IsVariadic = n.IsVariadic
		base.Children = lowerStmts(n.Children, bodyActx)
		return &base

	case ast.KBranchExpression:
		cond := lowerOne(n.Children[0], actx)
		then := lowerOne(n.Children[1], actx)
		els := lowerChildren(n.Alt, actx)
		base.Kind = KBranchExpression
		base.Children = []*Node{cond, then}
		base.Alt = els
		return &base

	case ast.KCoalescence:
		base.Kind = KCoalescence
		base.Children = []*Node{lowerOne(n.Children[0], actx)}
		base.Alt = lowerChildren(n.Alt, actx)
		return &base

	case ast.KCall, ast.KVariadicCall:
		base.Kind = KFunctionCall
		if n.Kind == ast.KVariadicCall {
			base.Kind = KVariadicCall
		}
		base.Children = lowerChildren(n.Children, actx)
		return &base

	case ast.KMemberAccess:
		base.Kind = KMemberAccess
		base.Name = n.Name
		base.Children = lowerChildren(n.Children, actx)
		return &base

	case ast.KPushUnnamedArray:
		base.Kind = KPushUnnamedArray
		base.Children = lowerChildren(n.Children, actx)
		return &base

	case ast.KPushUnnamedObject:
		base.Kind = KPushUnnamedObject
		base.Children = lowerChildren(n.Children, actx)
		base.Names = n.Names
		return &base

	case ast.KApplyOperator:
		base.Kind = KApplyOperator
		base.Op = XOp(n.Op)
		base.AssignOp = n.AssignOp
		base.Children = lowerChildren(n.Children, actx)
		return &base

	case ast.KUnpackStructArray, ast.KUnpackStructObject:
		base.Kind = KUnpackStructArray
		if n.Kind == ast.KUnpackStructObject {
			base.Kind = KUnpackStructObject
		}
		base.Children = []*Node{lowerOne(n.Children[0], actx)}
		base.Names = n.Names
		base.Mutable = n.Mutable
		for _, name := range n.Names {
			actx.Declare(name)
		}
		return &base

	case ast.KDeferExpression:
		base.Kind = KDeferExpression
		base.Children = lowerStmts(n.Children, actx)
		return &base

	case ast.KImportCall:
		base.Kind = KImportCall
		base.ImportPath = n.ImportPath
		return &base

	default:
		base.Kind = KSimpleStatus
		base.Status = SReturnVoid
		return &base
	}
}
