// Package parser implements the declview recursive descent parser.
// It produces a lossless concrete syntax tree; expression and statement
// bodies are kept as balanced token runs.
package parser

import (
	"fmt"
	"strings"

	"github.com/orizon-lang/declview/internal/lexer"
	"github.com/orizon-lang/declview/internal/syntax"
)

// Position locates a parse error.
type Position struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ParseError represents a parsing error with context
type ParseError struct {
	Position Position
	Message  string
	Context  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Parse error at %s: %s", e.Position.String(), e.Message)
}

// Parser represents the recursive descent parser
type Parser struct {
	tokens   []lexer.Token
	pos      int // index of the next unconsumed token, trivia included
	lastSig  int // index of the last consumed significant token
	b        *syntax.Builder
	errors   []error
	filename string

	// receiverDot is the token index of the '.' that separates a receiver
	// type from the function name, -1 when there is none.
	receiverDot int
}

// NewParser creates a new parser instance
func NewParser(text, filename string) *Parser {
	tokens, lexErrs := lexer.Tokenize(text)
	p := &Parser{
		tokens:      tokens,
		lastSig:     -1,
		b:           syntax.NewBuilder(text),
		filename:    filename,
		receiverDot: -1,
	}
	for _, le := range lexErrs {
		p.addError(le.Position, le.Message, "lexer")
	}
	return p
}

// ParseFile parses a whole source file.
func ParseFile(filename, text string) (*syntax.Node, []error) {
	p := NewParser(text, filename)
	return p.Parse()
}

// ParseDeclaration parses text that must hold exactly one declaration and
// returns the declaration node. The node is still attached to a file root.
func ParseDeclaration(text string) (*syntax.Node, error) {
	root, errs := ParseFile("", text)
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return nil, fmt.Errorf("%s", strings.Join(msgs, "; "))
	}

	var decls []*syntax.Node
	for _, c := range root.Children() {
		if c.Kind().IsDeclaration() {
			decls = append(decls, c)
		}
	}
	if len(decls) != 1 {
		return nil, fmt.Errorf("expected exactly one declaration, found %d", len(decls))
	}
	return decls[0], nil
}

// Parse parses the input and returns the tree
func (p *Parser) Parse() (*syntax.Node, []error) {
	p.parseFile()
	root, err := p.b.Root()
	if err != nil {
		p.errors = append(p.errors, err)
	}
	return root, p.errors
}

// skipTrivia hands whitespace and comments to the builder
func (p *Parser) skipTrivia() {
	for p.pos < len(p.tokens) && p.tokens[p.pos].Type.IsTrivia() {
		p.b.Trivia(p.tokens[p.pos])
		p.pos++
	}
}

// cur returns the current significant token
func (p *Parser) cur() lexer.Token {
	p.skipTrivia()
	return p.tokens[p.pos]
}

// curIndex returns the token index of the current significant token
func (p *Parser) curIndex() int {
	p.skipTrivia()
	return p.pos
}

// currentTokenIs checks if the current token is of the given type
func (p *Parser) currentTokenIs(tt lexer.TokenType) bool {
	return p.cur().Type == tt
}

// nextSig returns the index of the first significant token after index i
func (p *Parser) nextSig(i int) int {
	for j := i + 1; j < len(p.tokens); j++ {
		if !p.tokens[j].Type.IsTrivia() {
			return j
		}
	}
	return len(p.tokens) - 1
}

// peek returns the significant token following the current one
func (p *Parser) peek() lexer.Token {
	return p.tokens[p.nextSig(p.curIndex())]
}

// peekTokenIs checks if the peek token is of the given type
func (p *Parser) peekTokenIs(tt lexer.TokenType) bool {
	return p.peek().Type == tt
}

// nextToken consumes the current significant token into the open node
func (p *Parser) nextToken() {
	i := p.curIndex()
	if p.tokens[i].Type == lexer.TokenEOF {
		return
	}
	p.b.Token(p.tokens[i])
	p.lastSig = i
	p.pos = i + 1
}

// expect consumes the current token if it matches, recording an error otherwise
func (p *Parser) expect(tt lexer.TokenType, context string) bool {
	if p.currentTokenIs(tt) {
		p.nextToken()
		return true
	}
	p.tokenError(tt, context)
	return false
}

// tokenError records a token mismatch error
func (p *Parser) tokenError(expected lexer.TokenType, context string) {
	tok := p.cur()
	msg := fmt.Sprintf("expected %s, got %s", expected.String(), tok.Type.String())
	p.addError(tok.Span.Start, msg, context)
}

// addError adds an error to the parser's error list
func (p *Parser) addError(pos lexer.Position, message, context string) {
	p.errors = append(p.errors, &ParseError{
		Position: Position{File: p.filename, Line: pos.Line, Column: pos.Column, Offset: pos.Offset},
		Message:  message,
		Context:  context,
	})
}

// newlineBefore reports whether a line break separates the current token
// from the previously consumed one.
func (p *Parser) newlineBefore() bool {
	end := p.curIndex()
	for i := p.lastSig + 1; i < end; i++ {
		tok := p.tokens[i]
		if tok.Type == lexer.TokenNewline {
			return true
		}
		if tok.Type == lexer.TokenComment && strings.Contains(tok.Literal, "\n") {
			return true
		}
	}
	return false
}

// adjacent reports whether the current token directly follows the last
// consumed one without trivia in between.
func (p *Parser) adjacent() bool {
	return p.curIndex() == p.lastSig+1
}

func isIdentLike(tt lexer.TokenType) bool {
	return tt.IsIdentLike()
}

// modifierKeywords lists the keywords allowed in modifier lists
var modifierKeywords = map[lexer.TokenType]bool{
	lexer.TokenPub:        true,
	lexer.TokenAbstract:   true,
	lexer.TokenExternal:   true,
	lexer.TokenOverride:   true,
	lexer.TokenOpen:       true,
	lexer.TokenData:       true,
	lexer.TokenEnum:       true,
	lexer.TokenAnnotation: true,
	lexer.TokenInline:     true,
}

// isModifierAt reports whether the token at index i acts as a modifier,
// which requires something other than a name terminator to follow it.
func (p *Parser) isModifierAt(i int) bool {
	if !modifierKeywords[p.tokens[i].Type] {
		return false
	}
	next := p.tokens[p.nextSig(i)].Type
	switch next {
	case lexer.TokenColon, lexer.TokenComma, lexer.TokenRParen, lexer.TokenAssign,
		lexer.TokenDot, lexer.TokenLParen, lexer.TokenEOF:
		return false
	}
	return true
}

func isDeclarationKeyword(tt lexer.TokenType) bool {
	return tt == lexer.TokenFunc || tt == lexer.TokenClass ||
		tt == lexer.TokenInterface || tt == lexer.TokenObject
}

// looksLikeDeclaration scans past annotations and modifiers starting at the
// current token and reports whether a declaration keyword follows.
func (p *Parser) looksLikeDeclaration(allowObject bool) bool {
	i := p.curIndex()
	for {
		tt := p.tokens[i].Type
		switch {
		case tt == lexer.TokenAt:
			i = p.skipAnnotationAt(i)
		case p.isModifierAt(i):
			i = p.nextSig(i)
		case tt == lexer.TokenObject:
			return allowObject
		default:
			return isDeclarationKeyword(tt)
		}
	}
}

// skipAnnotationAt returns the index of the first significant token after
// the annotation starting at i, without consuming anything.
func (p *Parser) skipAnnotationAt(i int) int {
	i = p.nextSig(i) // '@'
	if !isIdentLike(p.tokens[i].Type) {
		return i
	}
	last := i
	i = p.nextSig(i)
	for p.tokens[i].Type == lexer.TokenDot && isIdentLike(p.tokens[p.nextSig(i)].Type) {
		last = p.nextSig(i)
		i = p.nextSig(last)
	}
	if p.tokens[i].Type == lexer.TokenLParen && i == last+1 {
		depth := 0
		for ; i < len(p.tokens)-1; i++ {
			switch p.tokens[i].Type {
			case lexer.TokenLParen:
				depth++
			case lexer.TokenRParen:
				depth--
				if depth == 0 {
					return p.nextSig(i)
				}
			}
		}
	}
	return i
}

// start opens a node after handing pending trivia to the enclosing node,
// so leading whitespace and comments never belong to the new node.
func (p *Parser) start(k syntax.Kind) {
	p.skipTrivia()
	p.b.Start(k)
}

func (p *Parser) checkpoint() syntax.Checkpoint {
	p.skipTrivia()
	return p.b.Checkpoint()
}
