package parser

import (
	"fmt"

	"github.com/orizon-lang/declview/internal/lexer"
	"github.com/orizon-lang/declview/internal/syntax"
)

type exprMode int

const (
	// exprTopLevel ends at a line break, ';' or an unbalanced closer
	exprTopLevel exprMode = iota
	// exprInList additionally ends at ',' and ')'
	exprInList
)

func (p *Parser) parseFile() {
	p.start(syntax.KindFile)

	if p.currentTokenIs(lexer.TokenPackage) {
		p.parsePackageDirective()
	}

	p.start(syntax.KindImportList)
	for p.currentTokenIs(lexer.TokenImport) {
		p.parseImportDirective()
	}
	p.b.Finish()

	for !p.currentTokenIs(lexer.TokenEOF) {
		switch {
		case p.currentTokenIs(lexer.TokenSemicolon):
			p.nextToken()
		case p.looksLikeDeclaration(true):
			p.parseDeclaration()
		default:
			p.recover("top level")
		}
	}

	p.b.Finish()
}

func (p *Parser) parsePackageDirective() {
	p.start(syntax.KindPackageDirective)
	p.nextToken() // 'package'
	p.parseQualifiedName("package directive")
	p.b.Finish()
}

func (p *Parser) parseImportDirective() {
	p.start(syntax.KindImportDirective)
	p.nextToken() // 'import'
	p.parseQualifiedName("import directive")
	if p.currentTokenIs(lexer.TokenDot) && p.peekTokenIs(lexer.TokenMul) {
		p.nextToken()
		p.nextToken()
	}
	if p.currentTokenIs(lexer.TokenAs) {
		p.nextToken()
		p.parseName("import alias")
	}
	p.b.Finish()
}

// parseQualifiedName consumes IDENT ('.' IDENT)* as plain tokens
func (p *Parser) parseQualifiedName(context string) {
	if !p.parseName(context) {
		return
	}
	for p.currentTokenIs(lexer.TokenDot) && isIdentLike(p.peek().Type) {
		p.nextToken()
		p.nextToken()
	}
}

func (p *Parser) parseName(context string) bool {
	tok := p.cur()
	if isIdentLike(tok.Type) {
		p.nextToken()
		return true
	}
	p.addError(tok.Span.Start, fmt.Sprintf("expected name, got %s", tok.Type), context)
	return false
}

// recover wraps unexpected tokens in an error node up to the next line
// that could start a declaration.
func (p *Parser) recover(context string) {
	tok := p.cur()
	p.addError(tok.Span.Start, fmt.Sprintf("unexpected %s", tok.Type), context)
	p.start(syntax.KindError)
	p.nextToken()
	for {
		t := p.cur().Type
		if t == lexer.TokenEOF || t == lexer.TokenRBrace {
			break
		}
		if p.newlineBefore() && p.looksLikeDeclaration(true) {
			break
		}
		if t == lexer.TokenLBrace {
			p.parseBlock()
			continue
		}
		p.nextToken()
	}
	p.b.Finish()
}

func (p *Parser) parseDeclaration() {
	cp := p.checkpoint()

	hasModifiers := false
	if p.currentTokenIs(lexer.TokenAt) || p.isModifierAt(p.curIndex()) {
		p.parseModifierList()
		hasModifiers = true
	}

	switch p.cur().Type {
	case lexer.TokenFunc:
		p.b.StartAt(cp, syntax.KindFunction)
		p.parseFunctionRest()
		p.b.Finish()
	case lexer.TokenClass, lexer.TokenInterface, lexer.TokenObject:
		p.b.StartAt(cp, syntax.KindClass)
		p.parseClassRest()
		p.b.Finish()
	default:
		tok := p.cur()
		p.addError(tok.Span.Start, fmt.Sprintf("expected declaration, got %s", tok.Type), "declaration")
		if hasModifiers {
			p.b.StartAt(cp, syntax.KindError)
			p.b.Finish()
		}
	}
}

func (p *Parser) parseModifierList() {
	p.start(syntax.KindModifierList)
	for {
		switch {
		case p.currentTokenIs(lexer.TokenAt):
			p.parseAnnotation()
		case p.isModifierAt(p.curIndex()):
			p.nextToken()
		default:
			p.b.Finish()
			return
		}
	}
}

func (p *Parser) parseAnnotation() {
	p.start(syntax.KindAnnotation)
	p.nextToken() // '@'
	if p.adjacent() {
		p.parseQualifiedName("annotation")
	} else {
		tok := p.cur()
		p.addError(tok.Span.Start, "annotation name must follow '@'", "annotation")
	}
	if p.currentTokenIs(lexer.TokenLParen) && p.adjacent() {
		p.parseValueArgumentList()
	}
	p.b.Finish()
}

// parseValueArgumentList keeps the arguments as a balanced token run
func (p *Parser) parseValueArgumentList() {
	p.start(syntax.KindValueArgumentList)
	p.nextToken() // '('
	depth := 1
	for depth > 0 {
		switch p.cur().Type {
		case lexer.TokenEOF:
			p.tokenError(lexer.TokenRParen, "value arguments")
			p.b.Finish()
			return
		case lexer.TokenLParen:
			depth++
		case lexer.TokenRParen:
			depth--
		}
		p.nextToken()
	}
	p.b.Finish()
}

// hasReceiver looks ahead from the current token for a '.' outside type
// arguments before the value parameter list and records its index.
func (p *Parser) hasReceiver() bool {
	depth := 0
	lastDot := -1
	for i := p.curIndex(); i < len(p.tokens); i = p.nextSig(i) {
		tt := p.tokens[i].Type
		switch {
		case tt == lexer.TokenLt:
			depth++
		case tt == lexer.TokenGt:
			depth--
		case tt == lexer.TokenDot:
			if depth == 0 {
				lastDot = i
			}
		case tt == lexer.TokenComma, tt == lexer.TokenQuestion, tt == lexer.TokenMul, isIdentLike(tt):
		default:
			p.receiverDot = lastDot
			return lastDot >= 0
		}
	}
	p.receiverDot = lastDot
	return lastDot >= 0
}

func (p *Parser) parseFunctionRest() {
	p.nextToken() // 'func'

	if p.currentTokenIs(lexer.TokenLt) {
		p.parseTypeParameterList()
	}

	if p.hasReceiver() {
		p.parseTypeReference()
		p.expect(lexer.TokenDot, "receiver")
	}
	p.receiverDot = -1

	p.parseName("function name")

	if p.currentTokenIs(lexer.TokenLt) {
		p.parseTypeParameterList()
	}

	if p.currentTokenIs(lexer.TokenLParen) {
		p.parseValueParameterList()
	} else {
		p.tokenError(lexer.TokenLParen, "function")
	}

	if p.currentTokenIs(lexer.TokenColon) {
		p.nextToken()
		p.parseTypeReference()
	}

	if p.currentTokenIs(lexer.TokenWhere) {
		p.parseTypeConstraintList()
	}

	switch p.cur().Type {
	case lexer.TokenLBrace:
		p.parseBlock()
	case lexer.TokenAssign:
		p.nextToken()
		p.parseExpression(exprTopLevel)
	}
}

func (p *Parser) parseClassRest() {
	p.nextToken() // 'class' | 'interface' | 'object'

	p.parseName("class name")

	if p.currentTokenIs(lexer.TokenLt) {
		p.parseTypeParameterList()
	}

	if p.currentTokenIs(lexer.TokenLParen) {
		p.parseValueParameterList()
	}

	if p.currentTokenIs(lexer.TokenColon) {
		p.nextToken()
		for {
			p.parseTypeReference()
			if p.currentTokenIs(lexer.TokenLParen) && p.adjacent() {
				p.parseValueArgumentList()
			}
			if !p.currentTokenIs(lexer.TokenComma) {
				break
			}
			p.nextToken()
		}
	}

	if p.currentTokenIs(lexer.TokenWhere) {
		p.parseTypeConstraintList()
	}

	if p.currentTokenIs(lexer.TokenLBrace) {
		p.parseClassBody()
	}
}

func (p *Parser) parseClassBody() {
	p.start(syntax.KindClassBody)
	p.nextToken() // '{'
	for {
		switch {
		case p.currentTokenIs(lexer.TokenRBrace):
			p.nextToken()
			p.b.Finish()
			return
		case p.currentTokenIs(lexer.TokenEOF):
			p.tokenError(lexer.TokenRBrace, "class body")
			p.b.Finish()
			return
		case p.currentTokenIs(lexer.TokenSemicolon):
			p.nextToken()
		case p.looksLikeDeclaration(true):
			p.parseDeclaration()
		default:
			p.recover("class body")
		}
	}
}

func (p *Parser) parseTypeParameterList() {
	p.start(syntax.KindTypeParameterList)
	p.nextToken() // '<'
	for !p.currentTokenIs(lexer.TokenGt) && !p.currentTokenIs(lexer.TokenEOF) {
		before := p.curIndex()
		p.start(syntax.KindTypeParameter)
		// variance or reified markers
		if isIdentLike(p.cur().Type) && isIdentLike(p.peek().Type) {
			p.nextToken()
		}
		p.parseName("type parameter")
		if p.currentTokenIs(lexer.TokenColon) {
			p.nextToken()
			p.parseTypeReference()
		}
		p.b.Finish()
		if p.currentTokenIs(lexer.TokenComma) {
			p.nextToken()
			continue
		}
		if p.curIndex() == before {
			break
		}
		if !p.currentTokenIs(lexer.TokenGt) {
			break
		}
	}
	p.expect(lexer.TokenGt, "type parameter list")
	p.b.Finish()
}

func (p *Parser) parseTypeConstraintList() {
	p.start(syntax.KindTypeConstraintList)
	p.nextToken() // 'where'
	for {
		p.start(syntax.KindTypeConstraint)
		p.parseName("type constraint")
		p.expect(lexer.TokenColon, "type constraint")
		p.parseTypeReference()
		p.b.Finish()
		if !p.currentTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}
	p.b.Finish()
}

func (p *Parser) parseValueParameterList() {
	p.start(syntax.KindValueParameterList)
	p.nextToken() // '('
	for !p.currentTokenIs(lexer.TokenRParen) && !p.currentTokenIs(lexer.TokenEOF) {
		before := p.curIndex()
		p.parseValueParameter()
		if p.currentTokenIs(lexer.TokenComma) {
			p.nextToken()
			continue
		}
		if !p.currentTokenIs(lexer.TokenRParen) {
			p.recoverInList()
		}
		if p.curIndex() == before {
			break
		}
	}
	p.expect(lexer.TokenRParen, "value parameter list")
	p.b.Finish()
}

// recoverInList skips tokens up to the next ',' or ')'
func (p *Parser) recoverInList() {
	tok := p.cur()
	p.addError(tok.Span.Start, fmt.Sprintf("unexpected %s in parameter list", tok.Type), "value parameter list")
	p.start(syntax.KindError)
	for {
		t := p.cur().Type
		if t == lexer.TokenComma || t == lexer.TokenRParen || t == lexer.TokenEOF || t == lexer.TokenLBrace {
			break
		}
		p.nextToken()
	}
	p.b.Finish()
	if p.currentTokenIs(lexer.TokenComma) {
		p.nextToken()
	}
}

func (p *Parser) parseValueParameter() {
	p.start(syntax.KindValueParameter)
	if p.currentTokenIs(lexer.TokenAt) || p.isModifierAt(p.curIndex()) {
		p.parseModifierList()
	}
	if (p.currentTokenIs(lexer.TokenVal) || p.currentTokenIs(lexer.TokenVar)) && isIdentLike(p.peek().Type) {
		p.nextToken()
	}
	p.parseName("value parameter")
	if p.expect(lexer.TokenColon, "value parameter") {
		p.parseTypeReference()
	}
	if p.currentTokenIs(lexer.TokenAssign) {
		p.nextToken()
		p.parseExpression(exprInList)
	}
	p.b.Finish()
}

// parseTypeReference parses a user type, a nullable type or a function type
func (p *Parser) parseTypeReference() {
	p.start(syntax.KindTypeReference)
	defer p.b.Finish()

	if p.currentTokenIs(lexer.TokenLParen) {
		p.nextToken()
		for !p.currentTokenIs(lexer.TokenRParen) && !p.currentTokenIs(lexer.TokenEOF) {
			before := p.curIndex()
			p.parseTypeReference()
			if p.currentTokenIs(lexer.TokenComma) {
				p.nextToken()
			} else if p.curIndex() == before || !p.currentTokenIs(lexer.TokenRParen) {
				break
			}
		}
		p.expect(lexer.TokenRParen, "function type")
		if p.expect(lexer.TokenArrow, "function type") {
			p.parseTypeReference()
		}
		return
	}

	if !p.parseName("type reference") {
		return
	}
	for {
		if p.currentTokenIs(lexer.TokenLt) {
			p.parseTypeArgumentList()
			continue
		}
		if p.currentTokenIs(lexer.TokenDot) && p.curIndex() != p.receiverDot && isIdentLike(p.peek().Type) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	if p.currentTokenIs(lexer.TokenQuestion) {
		p.nextToken()
	}
}

func (p *Parser) parseTypeArgumentList() {
	p.start(syntax.KindTypeArgumentList)
	p.nextToken() // '<'
	for !p.currentTokenIs(lexer.TokenGt) && !p.currentTokenIs(lexer.TokenEOF) {
		before := p.curIndex()
		if p.currentTokenIs(lexer.TokenMul) {
			p.nextToken()
		} else {
			p.parseTypeReference()
		}
		if p.currentTokenIs(lexer.TokenComma) {
			p.nextToken()
		} else if p.curIndex() == before || !p.currentTokenIs(lexer.TokenGt) {
			break
		}
	}
	p.expect(lexer.TokenGt, "type arguments")
	p.b.Finish()
}

// parseBlock parses a brace balanced body. Nested declarations become
// local declaration nodes, everything else stays a token run.
func (p *Parser) parseBlock() {
	p.start(syntax.KindBlock)
	p.nextToken() // '{'
	for {
		switch {
		case p.currentTokenIs(lexer.TokenRBrace):
			p.nextToken()
			p.b.Finish()
			return
		case p.currentTokenIs(lexer.TokenEOF):
			p.tokenError(lexer.TokenRBrace, "block")
			p.b.Finish()
			return
		case p.currentTokenIs(lexer.TokenLBrace):
			p.parseBlock()
		case p.looksLikeDeclaration(false):
			p.parseDeclaration()
		default:
			p.nextToken()
		}
	}
}

// parseExpression consumes an expression as a balanced token run
func (p *Parser) parseExpression(mode exprMode) {
	p.start(syntax.KindExpression)
	depth := 0
	consumed := 0
loop:
	for {
		tt := p.cur().Type
		if tt == lexer.TokenEOF {
			break
		}
		if depth == 0 {
			switch tt {
			case lexer.TokenRParen, lexer.TokenRBrace, lexer.TokenRBracket, lexer.TokenSemicolon:
				break loop
			case lexer.TokenComma:
				if mode == exprInList {
					break loop
				}
			}
			if mode == exprTopLevel && consumed > 0 && p.newlineBefore() {
				break loop
			}
		}
		switch tt {
		case lexer.TokenLParen, lexer.TokenLBrace, lexer.TokenLBracket:
			depth++
		case lexer.TokenRParen, lexer.TokenRBrace, lexer.TokenRBracket:
			depth--
		}
		p.nextToken()
		consumed++
	}
	if consumed == 0 {
		tok := p.cur()
		p.addError(tok.Span.Start, fmt.Sprintf("expected expression, got %s", tok.Type), "expression")
	}
	p.b.Finish()
}
