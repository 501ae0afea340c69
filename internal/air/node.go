// Package air implements Asteria's AIR Node (§3.6) and its
// solidification into an AVMC Queue (§4.4). Grounded on the *shape* of
// dispatch in internal/vm/compiler_expressions.go / compiler_statements.go
// (one compile method per AST node kind), re-expressed as data -- one
// Kind per spec §3.6 case -- rather than one Go type per AST node,
// because AIR sits a level below a true AST; closer to
// original_source/asteria/runtime/air_node.cpp's tagged variant.
package air

import (
	"github.com/asteria-lang/asteria/internal/value"
)

// Kind enumerates the ~40 AIR node cases named by spec §3.6.
type Kind uint8

const (
	KClearStack Kind = iota
	KExecuteBlock
	KDeclareVariable
	KInitializeVariable
	KIf
	KSwitch
	KWhile
	KDoWhile
	KFor
	KForEach
	KTry
	KThrow
	KAssert
	KSimpleStatus
	KCheckArgument
	KPushGlobalReference
	KPushLocalReference
	KPushBoundReference
	KPushTemporaryReference
	KDefineFunction
	KBranchExpression
	KCoalescence
	KFunctionCall
	KMemberAccess
	KPushUnnamedArray
	KPushUnnamedObject
	KApplyOperator
	KUnpackStructArray
	KUnpackStructObject
	KDefineNullVariable
	KSingleStepTrap
	KVariadicCall
	KDeferExpression
	KImportCall
	KDeclareReference
	KInitializeReference
	KCatchExpression
	KReturnStatement
)

// SimpleStatusKind distinguishes the bare control statuses
// simple-status carries (§3.6: "break/continue/return-void").
type SimpleStatusKind uint8

const (
	SBreakUnspec SimpleStatusKind = iota
	SBreakWhile
	SBreakSwitch
	SBreakFor
	SContinueUnspec
	SContinueWhile
	SContinueFor
	SReturnVoid
)

// SwitchCase is one `case value:`/`default:` arm of a switch node.
type SwitchCase struct {
	// Match is nil for the default arm.
	Match *Node
	Body  []*Node
}

// Node is the tagged sum described by §3.6. Only the fields relevant
// to Kind are populated by the constructor used for that kind; unused
// fields are left zero. This wide-struct representation (rather than
// one Go type per kind) mirrors the teacher's flat opcode+operand
// encoding while staying a native Go value instead of a byte stream.
type Node struct {
	Kind Kind
	File string
	Line int
	Col  int

	// Generic statement/expression sequence (block bodies, call
	// arguments, array/object elements, operator operands, ...).
	Children []*Node

	// Secondary bodies for two-armed constructs (if's else, try's
	// catch, do-while's condition placement is folded into Children).
	Alt []*Node

	Cases []SwitchCase

	Name  string   // identifier: variable/reference/member/function name
	Names []string // struct-unpack binding list, function parameter list

	Literal value.Value // literal Value for push-temporary-reference

	Depth int // push-local-reference's parent-chain walk count

	Op XOp // apply-operator's sub-opcode

	Status SimpleStatusKind

	Mutable    bool // declare-variable/initialize-variable mutability
	IsVariadic bool // define-function: last parameter collects the rest
	AssignOp   bool // apply-operator: write result back through operand 0

	ImportPath string // import-call's module path
}

// Reachable reports whether control can fall through this node to the
// following statement, per §4.4 ("false for throw, unconditional
// return, etc.").
func (n *Node) Reachable() bool {
	switch n.Kind {
	case KThrow, KReturnStatement:
		return false
	case KSimpleStatus:
		return false
	default:
		return true
	}
}
