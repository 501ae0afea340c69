// Package parser builds an internal/ast.Node tree from the token
// stream internal/lexer produces -- a Pratt (precedence-climbing)
// expression parser plus a recursive-descent statement parser.
// Grounded on the *shape* of the teacher's internal/parser (a
// cur/peek token pair, one parse method per construct, a
// prefix/infix table keyed by token type) with its trait/generic/
// pattern-matching/type-annotation grammar cut -- Asteria's grammar
// (spec.md §3) is a plain dynamically-typed expression/statement
// language with none of that surface syntax to parse.
package parser

import (
	"fmt"

	"github.com/asteria-lang/asteria/internal/air"
	"github.com/asteria-lang/asteria/internal/ast"
	"github.com/asteria-lang/asteria/internal/lexer"
	"github.com/asteria-lang/asteria/internal/token"
	"github.com/asteria-lang/asteria/internal/value"
)

// precedence levels, lowest to highest.
const (
	_ int = iota
	LOWEST
	TERNARY
	COALESCE
	LOGICOR
	LOGICAND
	BITXOR
	EQUALS
	CMP3
	LESSGREATER
	SHIFT
	SUM
	PRODUCT
	PREFIX
	POSTFIX
	CALL
)

var precedences = map[token.TokenType]int{
	token.QUESTION:       TERNARY,
	token.NULL_COALESCE:  COALESCE,
	token.OR:             LOGICOR,
	token.AND:            LOGICAND,
	token.CARET:          BITXOR,
	token.EQ:             EQUALS,
	token.NOT_EQ:         EQUALS,
	token.CMP3:           CMP3,
	token.LT:             LESSGREATER,
	token.GT:             LESSGREATER,
	token.LTE:            LESSGREATER,
	token.GTE:            LESSGREATER,
	token.LSHIFT:         SHIFT,
	token.RSHIFT:         SHIFT,
	token.PLUS:           SUM,
	token.MINUS:          SUM,
	token.ASTERISK:       PRODUCT,
	token.SLASH:          PRODUCT,
	token.PERCENT:        PRODUCT,
	token.LPAREN:         CALL,
	token.DOT:            CALL,
	token.LBRACKET:       CALL,
	token.INCR:           POSTFIX,
	token.DECR:           POSTFIX,
	token.ASSIGN:         LOWEST,
	token.PLUS_ASSIGN:    LOWEST,
	token.MINUS_ASSIGN:   LOWEST,
	token.ASTERISK_ASSIGN: LOWEST,
	token.SLASH_ASSIGN:   LOWEST,
	token.PERCENT_ASSIGN: LOWEST,
}

var assignOps = map[token.TokenType]air.XOp{
	token.ASSIGN:          air.XAssign,
	token.PLUS_ASSIGN:     air.XAdd,
	token.MINUS_ASSIGN:    air.XSub,
	token.ASTERISK_ASSIGN: air.XMul,
	token.SLASH_ASSIGN:    air.XDiv,
	token.PERCENT_ASSIGN:  air.XMod,
}

var binaryOps = map[token.TokenType]air.XOp{
	token.PLUS:    air.XAdd,
	token.MINUS:   air.XSub,
	token.ASTERISK: air.XMul,
	token.SLASH:   air.XDiv,
	token.PERCENT: air.XMod,
	token.EQ:      air.XCmpEq,
	token.NOT_EQ:  air.XCmpNe,
	token.LT:      air.XCmpLt,
	token.GT:      air.XCmpGt,
	token.LTE:     air.XCmpLte,
	token.GTE:     air.XCmpGte,
	token.CMP3:    air.XCmp3Way,
	token.AND:     air.XAndB,
	token.OR:      air.XOrB,
	token.CARET:   air.XXorB,
	token.LSHIFT:  air.XSll,
	token.RSHIFT:  air.XSra,
}

type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	Errors []string
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) skipNewlines() {
	for p.curToken.Type == token.NEWLINE || p.curToken.Type == token.SEMICOLON {
		p.nextToken()
	}
}

func (p *Parser) curIs(tt token.TokenType) bool  { return p.curToken.Type == tt }
func (p *Parser) peekIs(tt token.TokenType) bool { return p.peekToken.Type == tt }

func (p *Parser) expect(tt token.TokenType) bool {
	if p.peekIs(tt) {
		p.nextToken()
		return true
	}
	p.Errors = append(p.Errors, fmt.Sprintf("line %d: expected %s, got %s", p.peekToken.Line, tt, p.peekToken.Type))
	return false
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) loc() (string, int, int) { return "", p.curToken.Line, p.curToken.Column }

// ParseProgram parses the whole token stream into a Program.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	p.skipNewlines()
	for !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.nextToken()
		p.skipNewlines()
	}
	return prog
}

func (p *Parser) parseExpression(precedence int) *ast.Node {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}
	for !p.peekIs(token.NEWLINE) && !p.peekIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		p.nextToken()
		left = p.parseInfix(left)
	}
	return left
}

func (p *Parser) parsePrefix() *ast.Node {
	file, line, col := p.loc()
	switch p.curToken.Type {
	case token.IDENT, token.IDENT_UPPER:
		return &ast.Node{Kind: ast.KIdentifier, Name: p.curToken.Lexeme, File: file, Line: line, Col: col}
	case token.INT:
		n, _ := p.curToken.Literal.(int64)
		return p.lit(value.Int(n))
	case token.FLOAT:
		f, _ := p.curToken.Literal.(float64)
		return p.lit(value.Real(f))
	case token.STRING, token.INTERP_STRING:
		return p.parseStringLiteral()
	case token.CHAR:
		c, _ := p.curToken.Literal.(int64)
		return p.lit(value.Int(c))
	case token.TRUE:
		return p.lit(value.Bool(true))
	case token.FALSE:
		return p.lit(value.Bool(false))
	case token.NULL:
		return p.lit(value.Null)
	case token.BANG:
		return p.parseUnary(air.XNotL)
	case token.MINUS:
		return p.parseUnary(air.XNeg)
	case token.PLUS:
		return p.parseUnary(air.XPos)
	case token.TILDE:
		return p.parseUnary(air.XNotB)
	case token.INCR:
		return p.parsePrefixIncDec(air.XInc)
	case token.DECR:
		return p.parsePrefixIncDec(air.XDec)
	case token.LPAREN:
		p.nextToken()
		e := p.parseExpression(LOWEST)
		if !p.expect(token.RPAREN) {
			return nil
		}
		return e
	case token.LBRACKET:
		return p.parseArrayLiteral()
	case token.LBRACE:
		return p.parseObjectLiteral()
	case token.FUNC:
		return p.parseFunctionLiteral()
	case token.IMPORT:
		return p.parseImportCall()
	default:
		p.Errors = append(p.Errors, fmt.Sprintf("line %d: unexpected token %s in expression", p.curToken.Line, p.curToken.Type))
		return nil
	}
}

func (p *Parser) parseUnary(op air.XOp) *ast.Node {
	_, line, col := p.loc()
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	return &ast.Node{Kind: ast.KApplyOperator, Op: uint8(op), Children: []*ast.Node{operand}, Line: line, Col: col}
}

func (p *Parser) parsePrefixIncDec(op air.XOp) *ast.Node {
	_, line, col := p.loc()
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	return &ast.Node{Kind: ast.KApplyOperator, Op: uint8(op), Children: []*ast.Node{operand}, Line: line, Col: col}
}

func (p *Parser) parseInfix(left *ast.Node) *ast.Node {
	if op, ok := assignOps[p.curToken.Type]; ok {
		_, line, col := p.loc()
		p.nextToken()
		right := p.parseExpression(LOWEST)
		return &ast.Node{Kind: ast.KApplyOperator, Op: uint8(op), AssignOp: true, Children: []*ast.Node{left, right}, Line: line, Col: col}
	}
	switch p.curToken.Type {
	case token.INCR:
		_, line, col := p.loc()
		return &ast.Node{Kind: ast.KApplyOperator, Op: uint8(air.XInc), Children: []*ast.Node{left}, Line: line, Col: col}
	case token.DECR:
		_, line, col := p.loc()
		return &ast.Node{Kind: ast.KApplyOperator, Op: uint8(air.XDec), Children: []*ast.Node{left}, Line: line, Col: col}
	case token.DOT:
		_, line, col := p.loc()
		if p.peekIs(token.IDENT) || p.peekIs(token.IDENT_UPPER) {
			p.nextToken()
		} else {
			p.Errors = append(p.Errors, fmt.Sprintf("line %d: expected field name after '.'", p.peekToken.Line))
			return nil
		}
		return &ast.Node{Kind: ast.KMemberAccess, Name: p.curToken.Lexeme, Children: []*ast.Node{left}, Line: line, Col: col}
	case token.LBRACKET:
		_, line, col := p.loc()
		p.nextToken()
		idx := p.parseExpression(LOWEST)
		if !p.expect(token.RBRACKET) {
			return nil
		}
		return &ast.Node{Kind: ast.KMemberAccess, Children: []*ast.Node{left, idx}, Line: line, Col: col}
	case token.LPAREN:
		return p.parseCall(left)
	case token.QUESTION:
		_, line, col := p.loc()
		p.nextToken()
		thenExpr := p.parseExpression(LOWEST)
		if !p.expect(token.COLON) {
			return nil
		}
		p.nextToken()
		elseExpr := p.parseExpression(TERNARY)
		return &ast.Node{Kind: ast.KBranchExpression, Children: []*ast.Node{left, thenExpr}, Alt: []*ast.Node{elseExpr}, Line: line, Col: col}
	case token.NULL_COALESCE:
		_, line, col := p.loc()
		p.nextToken()
		alt := p.parseExpression(COALESCE)
		return &ast.Node{Kind: ast.KCoalescence, Children: []*ast.Node{left}, Alt: []*ast.Node{alt}, Line: line, Col: col}
	default:
		op, ok := binaryOps[p.curToken.Type]
		if !ok {
			return left
		}
		_, line, col := p.loc()
		prec := p.peekPrecedenceFor(p.curToken.Type)
		p.nextToken()
		right := p.parseExpression(prec)
		return &ast.Node{Kind: ast.KApplyOperator, Op: uint8(op), Children: []*ast.Node{left, right}, Line: line, Col: col}
	}
}

func (p *Parser) peekPrecedenceFor(tt token.TokenType) int {
	if pr, ok := precedences[tt]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) parseCall(callee *ast.Node) *ast.Node {
	_, line, col := p.loc()
	args, spread := p.parseCallArgs()
	kind := ast.KCall
	if spread {
		kind = ast.KVariadicCall
	}
	children := append([]*ast.Node{callee}, args...)
	return &ast.Node{Kind: kind, Children: children, Line: line, Col: col}
}

func (p *Parser) parseCallArgs() ([]*ast.Node, bool) {
	var args []*ast.Node
	spread := false
	if p.peekIs(token.RPAREN) {
		p.nextToken()
		return args, spread
	}
	p.nextToken()
	if p.curIs(token.ELLIPSIS) {
		spread = true
		p.nextToken()
	}
	args = append(args, p.parseExpression(LOWEST))
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		if p.curIs(token.ELLIPSIS) {
			spread = true
			p.nextToken()
		}
		args = append(args, p.parseExpression(LOWEST))
	}
	if !p.expect(token.RPAREN) {
		return args, spread
	}
	return args, spread
}

func (p *Parser) parseArrayLiteral() *ast.Node {
	_, line, col := p.loc()
	var elems []*ast.Node
	if p.peekIs(token.RBRACKET) {
		p.nextToken()
		return &ast.Node{Kind: ast.KPushUnnamedArray, Line: line, Col: col}
	}
	p.nextToken()
	elems = append(elems, p.parseExpression(LOWEST))
	for p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		elems = append(elems, p.parseExpression(LOWEST))
	}
	if !p.expect(token.RBRACKET) {
		return nil
	}
	return &ast.Node{Kind: ast.KPushUnnamedArray, Children: elems, Line: line, Col: col}
}

func (p *Parser) parseObjectLiteral() *ast.Node {
	_, line, col := p.loc()
	var keys []string
	var vals []*ast.Node
	if p.peekIs(token.RBRACE) {
		p.nextToken()
		return &ast.Node{Kind: ast.KPushUnnamedObject, Line: line, Col: col}
	}
	p.nextToken()
	for {
		p.skipNewlines()
		if !(p.curIs(token.IDENT) || p.curIs(token.IDENT_UPPER) || p.curIs(token.STRING)) {
			p.Errors = append(p.Errors, fmt.Sprintf("line %d: expected object key", p.curToken.Line))
			return nil
		}
		key := p.curToken.Lexeme
		if p.curIs(token.STRING) {
			key, _ = p.curToken.Literal.(string)
		}
		if !p.expect(token.COLON) {
			return nil
		}
		p.nextToken()
		v := p.parseExpression(LOWEST)
		keys = append(keys, key)
		vals = append(vals, v)
		if p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	p.skipNewlines()
	if !p.expect(token.RBRACE) {
		return nil
	}
	return &ast.Node{Kind: ast.KPushUnnamedObject, Children: vals, Names: keys, Line: line, Col: col}
}

func (p *Parser) parseImportCall() *ast.Node {
	_, line, col := p.loc()
	if !p.expect(token.LPAREN) {
		return nil
	}
	if !p.expect(token.STRING) {
		return nil
	}
	path, _ := p.curToken.Literal.(string)
	if !p.expect(token.RPAREN) {
		return nil
	}
	return &ast.Node{Kind: ast.KImportCall, ImportPath: path, Line: line, Col: col}
}

// parseFunctionLiteral parses both `func name(params) { body }` (bound
// to name for recursive self-reference, per §4.5's closure-capture
// rule) and the anonymous `func(params) { body }` expression form.
func (p *Parser) parseFunctionLiteral() *ast.Node {
	_, line, col := p.loc()
	name := ""
	if p.peekIs(token.IDENT) {
		p.nextToken()
		name = p.curToken.Lexeme
	}
	if !p.expect(token.LPAREN) {
		return nil
	}
	params, variadic := p.parseParamList()
	if !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockBody()
	return &ast.Node{Kind: ast.KDefineFunction, Name: name, Names: params, IsVariadic: variadic, Children: body, Line: line, Col: col}
}

func (p *Parser) parseParamList() ([]string, bool) {
	var params []string
	variadic := false
	if p.peekIs(token.RPAREN) {
		p.nextToken()
		return params, variadic
	}
	p.nextToken()
	for {
		if p.curIs(token.ELLIPSIS) {
			variadic = true
			p.nextToken()
		}
		params = append(params, p.curToken.Lexeme)
		if p.peekIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	if !p.expect(token.RPAREN) {
		return params, variadic
	}
	return params, variadic
}

// parseBlockBody parses statements up to (and consuming) a closing '}'.
// curToken must be '{' on entry; curToken is '}' on return.
func (p *Parser) parseBlockBody() []*ast.Node {
	var stmts []*ast.Node
	p.nextToken()
	p.skipNewlines()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		s := p.parseStatement()
		if s != nil {
			stmts = append(stmts, s)
		}
		p.nextToken()
		p.skipNewlines()
	}
	return stmts
}

func (p *Parser) parseStringLiteral() *ast.Node {
	s, _ := p.curToken.Literal.(string)
	return p.lit(value.Str(s))
}

func (p *Parser) lit(v value.Value) *ast.Node {
	_, line, col := p.loc()
	return &ast.Node{Kind: ast.KLiteral, Literal: v, Line: line, Col: col}
}
