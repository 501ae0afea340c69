// Package ast is the parser's output tree: a statement/expression
// grammar one level above internal/air.Node, with identifiers still
// unresolved (air.Node's three push-reference kinds collapse into one
// KIdentifier here; air.Optimizer.Rebind is what tells local apart
// from bound apart from global). Grounded on the same flat-node
// shape internal/air.Node uses rather than one Go type per
// production, since the parser and the lowering pass share most of
// that shape already.
package ast

import "github.com/asteria-lang/asteria/internal/value"

type Kind uint8

const (
	KBlock Kind = iota
	KIdentifier
	KLiteral
	KDeclareVariable
	KInitializeVariable
	KDeclareReference
	KInitializeReference
	KDefineNullVariable
	KIf
	KSwitch
	KWhile
	KDoWhile
	KFor
	KForEach
	KTry
	KCatchExpression
	KThrow
	KAssert
	KSimpleStatus
	KReturn
	KCheckArgument
	KDefineFunction
	KBranchExpression
	KCoalescence
	KCall
	KVariadicCall
	KMemberAccess
	KPushUnnamedArray
	KPushUnnamedObject
	KApplyOperator
	KUnpackStructArray
	KUnpackStructObject
	KDeferExpression
	KImportCall
)

// SimpleStatusKind mirrors air.SimpleStatusKind; kept as its own type
// so this package has no import of internal/air (rebind.go converts).
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

// SwitchCase is one `case`/`default` arm, mirrored from air.SwitchCase.
type SwitchCase struct {
	Match *Node // nil for default
	Body  []*Node
}

// XOp is the parser's own copy of air.XOp's values (same ordinal
// values deliberately, so rebind.go converts with a plain cast rather
// than a lookup table).
type XOp = uint8

// Node is the parse tree's flat node, deliberately shaped like
// air.Node (see its doc comment for the per-kind field convention);
// the two conventions match field-for-field except KIdentifier stands
// in for the three resolved push-reference kinds.
type Node struct {
	Kind Kind
	File string
	Line int
	Col  int

	Children []*Node
	Alt      []*Node
	Cases    []SwitchCase

	Name  string
	Names []string

	Literal value.Value

	Op       XOp
	Status   SimpleStatusKind
	Mutable  bool
	IsVariadic bool
	AssignOp bool

	ImportPath string
}

// Program is a parsed compilation unit: a sequence of top-level
// statements, equivalent to a single implicit KBlock.
type Program struct {
	Statements []*Node
}
