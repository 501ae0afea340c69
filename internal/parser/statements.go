package parser

import (
	"github.com/asteria-lang/asteria/internal/ast"
	"github.com/asteria-lang/asteria/internal/token"
)

// parseStatement dispatches on the current token to one of the
// statement-level productions, or falls through to a bare expression
// (covers assignment, calls, operator statements, and so on -- an
// expression is itself a valid ast.Node in a statement list, the same
// flat-tree convention internal/air.Node uses).
func (p *Parser) parseStatement() *ast.Node {
	switch p.curToken.Type {
	case token.VAR:
		return p.parseVarDecl(true)
	case token.CONST:
		return p.parseVarDecl(false)
	case token.REF:
		return p.parseRefDecl()
	case token.IF:
		return p.parseIf()
	case token.SWITCH:
		return p.parseSwitch()
	case token.WHILE:
		return p.parseWhile()
	case token.DO:
		return p.parseDoWhile()
	case token.FOR:
		return p.parseFor()
	case token.RETURN:
		return p.parseReturn()
	case token.BREAK:
		return p.parseSimpleStatus(ast.SBreakUnspec)
	case token.CONTINUE:
		return p.parseSimpleStatus(ast.SContinueUnspec)
	case token.TRY:
		return p.parseTry()
	case token.THROW:
		return p.parseThrow()
	case token.ASSERT:
		return p.parseAssert()
	case token.DEFER:
		return p.parseDefer()
	case token.LBRACE:
		return &ast.Node{Kind: ast.KBlock, Children: p.parseBlockBody()}
	case token.FUNC:
		if p.peekIs(token.IDENT) {
			return p.parseFunctionLiteral()
		}
		return p.parseExpression(LOWEST)
	default:
		return p.parseExpression(LOWEST)
	}
}

// parseVarDecl parses `var name = expr;` / `var name;` (mutable) or
// `const name = expr;` (immutable, initializer required).
func (p *Parser) parseVarDecl(mutable bool) *ast.Node {
	_, line, col := p.loc()
	if !p.expect(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	if !p.peekIs(token.ASSIGN) {
		if !mutable {
			p.Errors = append(p.Errors, "const declaration requires an initializer")
			return nil
		}
		return &ast.Node{Kind: ast.KDeclareVariable, Name: name, Line: line, Col: col}
	}
	p.nextToken() // '='
	p.nextToken()
	init := p.parseExpression(LOWEST)
	return &ast.Node{Kind: ast.KInitializeVariable, Name: name, Mutable: mutable, Children: []*ast.Node{init}, Line: line, Col: col}
}

// parseRefDecl parses `ref name = expr;` (binds name as an alias to
// the reference expr evaluates to, §3.6's declare-reference).
func (p *Parser) parseRefDecl() *ast.Node {
	_, line, col := p.loc()
	if !p.expect(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	if !p.peekIs(token.ASSIGN) {
		return &ast.Node{Kind: ast.KDeclareReference, Name: name, Line: line, Col: col}
	}
	p.nextToken()
	p.nextToken()
	init := p.parseExpression(LOWEST)
	return &ast.Node{Kind: ast.KDeclareReference, Name: name, Children: []*ast.Node{init}, Line: line, Col: col}
}

func (p *Parser) parseIf() *ast.Node {
	_, line, col := p.loc()
	if !p.expect(token.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expect(token.RPAREN) {
		return nil
	}
	if !p.expect(token.LBRACE) {
		return nil
	}
	then := p.parseBlockBody()
	var alt []*ast.Node
	if p.peekIs(token.ELSE) {
		p.nextToken()
		if p.peekIs(token.IF) {
			p.nextToken()
			alt = []*ast.Node{p.parseIf()}
		} else if p.expect(token.LBRACE) {
			alt = p.parseBlockBody()
		}
	}
	children := append([]*ast.Node{cond}, then...)
	return &ast.Node{Kind: ast.KIf, Children: children, Alt: alt, Line: line, Col: col}
}

func (p *Parser) parseWhile() *ast.Node {
	_, line, col := p.loc()
	if !p.expect(token.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expect(token.RPAREN) || !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockBody()
	return &ast.Node{Kind: ast.KWhile, Children: append([]*ast.Node{cond}, body...), Line: line, Col: col}
}

// parseSwitch parses `switch (subject) { case expr: stmts... case
// expr: stmts... default: stmts... }`, mirroring parseIf/parseWhile's
// paren-condition-then-brace-body shape. Each `case`/`default` arm's
// body runs to the next `case`/`default`/closing brace, and the parser
// adds no implicit break: solidifySwitch starts at the first matching
// arm (or default) and falls through into the following arms' bodies
// until one ends with break_switch.
func (p *Parser) parseSwitch() *ast.Node {
	_, line, col := p.loc()
	if !p.expect(token.LPAREN) {
		return nil
	}
	p.nextToken()
	subject := p.parseExpression(LOWEST)
	if !p.expect(token.RPAREN) || !p.expect(token.LBRACE) {
		return nil
	}

	p.nextToken()
	p.skipNewlines()
	var cases []ast.SwitchCase
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		var match *ast.Node
		if p.curIs(token.CASE) {
			p.nextToken()
			match = p.parseExpression(LOWEST)
		} else if !p.curIs(token.DEFAULT) {
			break
		}
		if !p.expect(token.COLON) {
			return nil
		}
		p.nextToken()
		p.skipNewlines()

		var body []*ast.Node
		for !p.curIs(token.CASE) && !p.curIs(token.DEFAULT) && !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			s := p.parseStatement()
			if s != nil {
				body = append(body, s)
			}
			p.nextToken()
			p.skipNewlines()
		}
		cases = append(cases, ast.SwitchCase{Match: match, Body: body})
	}

	return &ast.Node{Kind: ast.KSwitch, Children: []*ast.Node{subject}, Cases: cases, Line: line, Col: col}
}

func (p *Parser) parseDoWhile() *ast.Node {
	_, line, col := p.loc()
	if !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockBody()
	if !p.expect(token.WHILE) || !p.expect(token.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expect(token.RPAREN) {
		return nil
	}
	return &ast.Node{Kind: ast.KDoWhile, Children: append([]*ast.Node{cond}, body...), Line: line, Col: col}
}

// parseFor disambiguates `for (init; cond; step) { }` from
// `for name[, key] in expr { }` by the token right after `for`: a '('
// selects the classic form, anything else the for-each form.
func (p *Parser) parseFor() *ast.Node {
	_, line, col := p.loc()
	if p.peekIs(token.LPAREN) {
		return p.parseForClassic(line, col)
	}
	return p.parseForEach(line, col)
}

func (p *Parser) parseForClassic(line, col int) *ast.Node {
	if !p.expect(token.LPAREN) {
		return nil
	}
	p.nextToken()
	init := p.parseStatement()
	if !p.expect(token.SEMICOLON) {
		return nil
	}
	p.nextToken()
	var cond *ast.Node
	if !p.curIs(token.SEMICOLON) {
		cond = p.parseExpression(LOWEST)
		p.nextToken()
	}
	if !p.curIs(token.SEMICOLON) {
		p.Errors = append(p.Errors, "expected ';' in for clause")
	}
	p.nextToken()
	step := p.parseStatement()
	if !p.expect(token.RPAREN) || !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockBody()
	bodyBlock := &ast.Node{Kind: ast.KBlock, Children: body}
	return &ast.Node{Kind: ast.KFor, Children: []*ast.Node{init, cond, step, bodyBlock}, Line: line, Col: col}
}

func (p *Parser) parseForEach(line, col int) *ast.Node {
	if !p.expect(token.IDENT) {
		return nil
	}
	valueName := p.curToken.Lexeme
	keyName := ""
	if p.peekIs(token.COMMA) {
		p.nextToken()
		if !p.expect(token.IDENT) {
			return nil
		}
		keyName = p.curToken.Lexeme
	}
	if !p.expect(token.IN) {
		return nil
	}
	p.nextToken()
	iterable := p.parseExpression(LOWEST)
	if !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockBody()
	bodyBlock := &ast.Node{Kind: ast.KBlock, Children: body}
	names := []string{valueName}
	if keyName != "" {
		names = append(names, keyName)
	}
	return &ast.Node{Kind: ast.KForEach, Children: []*ast.Node{iterable, bodyBlock}, Names: names, Line: line, Col: col}
}

func (p *Parser) parseReturn() *ast.Node {
	_, line, col := p.loc()
	if p.peekIs(token.NEWLINE) || p.peekIs(token.SEMICOLON) || p.peekIs(token.RBRACE) {
		return &ast.Node{Kind: ast.KReturn, Line: line, Col: col}
	}
	p.nextToken()
	expr := p.parseExpression(LOWEST)
	return &ast.Node{Kind: ast.KReturn, Children: []*ast.Node{expr}, Line: line, Col: col}
}

func (p *Parser) parseSimpleStatus(status ast.SimpleStatusKind) *ast.Node {
	_, line, col := p.loc()
	return &ast.Node{Kind: ast.KSimpleStatus, Status: status, Line: line, Col: col}
}

func (p *Parser) parseTry() *ast.Node {
	_, line, col := p.loc()
	if !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockBody()
	if !p.expect(token.CATCH) {
		return nil
	}
	name := ""
	if p.peekIs(token.LPAREN) {
		p.nextToken()
		if p.expect(token.IDENT) {
			name = p.curToken.Lexeme
		}
		if !p.expect(token.RPAREN) {
			return nil
		}
	}
	if !p.expect(token.LBRACE) {
		return nil
	}
	catchBody := p.parseBlockBody()
	return &ast.Node{Kind: ast.KTry, Name: name, Children: body, Alt: catchBody, Line: line, Col: col}
}

func (p *Parser) parseThrow() *ast.Node {
	_, line, col := p.loc()
	p.nextToken()
	expr := p.parseExpression(LOWEST)
	return &ast.Node{Kind: ast.KThrow, Children: []*ast.Node{expr}, Line: line, Col: col}
}

func (p *Parser) parseAssert() *ast.Node {
	_, line, col := p.loc()
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	children := []*ast.Node{cond}
	if p.peekIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		children = append(children, p.parseExpression(LOWEST))
	}
	return &ast.Node{Kind: ast.KAssert, Children: children, Line: line, Col: col}
}

func (p *Parser) parseDefer() *ast.Node {
	_, line, col := p.loc()
	if p.peekIs(token.LBRACE) {
		p.nextToken()
		body := p.parseBlockBody()
		return &ast.Node{Kind: ast.KDeferExpression, Children: body, Line: line, Col: col}
	}
	p.nextToken()
	expr := p.parseExpression(LOWEST)
	return &ast.Node{Kind: ast.KDeferExpression, Children: []*ast.Node{expr}, Line: line, Col: col}
}
