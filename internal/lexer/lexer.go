// Package lexer implements the lossless declview lexical analyzer.
// Every byte of the input ends up in exactly one token, trivia included,
// so that the concrete syntax tree can reproduce the source text.
package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a token
type TokenType int

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

// IsTrivia reports whether the token carries no syntactic meaning.
func (tt TokenType) IsTrivia() bool {
	return tt == TokenWhitespace || tt == TokenNewline || tt == TokenComment
}

// IsIdentLike accepts identifiers and the soft keywords that may be used
// as names.
func (tt TokenType) IsIdentLike() bool {
	switch tt {
	case TokenIdentifier,
		TokenAs, TokenPub, TokenAbstract, TokenExternal, TokenOverride, TokenOpen,
		TokenData, TokenEnum, TokenAnnotation, TokenInline, TokenVal, TokenVar:
		return true
	}
	return false
}

// IsKeyword reports whether the token type is a reserved word.
func (tt TokenType) IsKeyword() bool {
	return tt >= TokenPackage && tt <= TokenFalse
}

// Token types
const (
	// 特殊トークン
	TokenEOF TokenType = iota
	TokenError
	TokenNewline
	TokenWhitespace
	TokenComment

	// リテラル
	TokenIdentifier
	TokenInteger
	TokenFloat
	TokenString
	TokenChar

	// キーワード
	TokenPackage
	TokenImport
	TokenAs
	TokenFunc
	TokenClass
	TokenInterface
	TokenObject
	TokenPub
	TokenAbstract
	TokenExternal
	TokenOverride
	TokenOpen
	TokenData
	TokenEnum
	TokenAnnotation
	TokenInline
	TokenWhere
	TokenVal
	TokenVar
	TokenReturn
	TokenIf
	TokenElse
	TokenNull
	TokenTrue
	TokenFalse

	// 演算子
	TokenPlus
	TokenMinus
	TokenMul
	TokenDiv
	TokenMod
	TokenAssign
	TokenEq
	TokenNe
	TokenLt
	TokenLe
	TokenGt
	TokenGe
	TokenAnd
	TokenOr
	TokenNot
	TokenArrow
	TokenFatArrow

	// 記号
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenSemicolon
	TokenComma
	TokenDot
	TokenColon
	TokenDoubleColon
	TokenQuestion
	TokenAt
	TokenHash
	TokenDollar
	TokenPipe
	TokenAmpersand
)

// Position represents a position in the source code
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset in source
}

// String returns line:column.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span represents a range in the source code
type Span struct {
	Start Position
	End   Position
}

// Token represents a lexical token with position information.
// Literal is always the exact source slice of the token.
type Token struct {
	Type    TokenType
	Literal string
	Span    Span
}

// Offset returns the byte offset of the first byte of the token.
func (t Token) Offset() int { return t.Span.Start.Offset }

// End returns the byte offset just past the token.
func (t Token) End() int { return t.Span.Start.Offset + len(t.Literal) }

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %q, Line: %d, Column: %d}",
		t.Type, t.Literal, t.Span.Start.Line, t.Span.Start.Column)
}

// tokenNames provides string representations for token types
var tokenNames = map[TokenType]string{
	TokenEOF:        "EOF",
	TokenError:      "ERROR",
	TokenNewline:    "NEWLINE",
	TokenWhitespace: "WHITESPACE",
	TokenComment:    "COMMENT",

	TokenIdentifier: "IDENTIFIER",
	TokenInteger:    "INTEGER",
	TokenFloat:      "FLOAT",
	TokenString:     "STRING",
	TokenChar:       "CHAR",

	TokenPackage:    "PACKAGE",
	TokenImport:     "IMPORT",
	TokenAs:         "AS",
	TokenFunc:       "FUNC",
	TokenClass:      "CLASS",
	TokenInterface:  "INTERFACE",
	TokenObject:     "OBJECT",
	TokenPub:        "PUB",
	TokenAbstract:   "ABSTRACT",
	TokenExternal:   "EXTERNAL",
	TokenOverride:   "OVERRIDE",
	TokenOpen:       "OPEN",
	TokenData:       "DATA",
	TokenEnum:       "ENUM",
	TokenAnnotation: "ANNOTATION",
	TokenInline:     "INLINE",
	TokenWhere:      "WHERE",
	TokenVal:        "VAL",
	TokenVar:        "VAR",
	TokenReturn:     "RETURN",
	TokenIf:         "IF",
	TokenElse:       "ELSE",
	TokenNull:       "NULL",
	TokenTrue:       "TRUE",
	TokenFalse:      "FALSE",

	TokenPlus:     "PLUS",
	TokenMinus:    "MINUS",
	TokenMul:      "MUL",
	TokenDiv:      "DIV",
	TokenMod:      "MOD",
	TokenAssign:   "ASSIGN",
	TokenEq:       "EQ",
	TokenNe:       "NE",
	TokenLt:       "LT",
	TokenLe:       "LE",
	TokenGt:       "GT",
	TokenGe:       "GE",
	TokenAnd:      "AND",
	TokenOr:       "OR",
	TokenNot:      "NOT",
	TokenArrow:    "ARROW",
	TokenFatArrow: "FAT_ARROW",

	TokenLParen:      "LPAREN",
	TokenRParen:      "RPAREN",
	TokenLBrace:      "LBRACE",
	TokenRBrace:      "RBRACE",
	TokenLBracket:    "LBRACKET",
	TokenRBracket:    "RBRACKET",
	TokenSemicolon:   "SEMICOLON",
	TokenComma:       "COMMA",
	TokenDot:         "DOT",
	TokenColon:       "COLON",
	TokenDoubleColon: "DOUBLE_COLON",
	TokenQuestion:    "QUESTION",
	TokenAt:          "AT",
	TokenHash:        "HASH",
	TokenDollar:      "DOLLAR",
	TokenPipe:        "PIPE",
	TokenAmpersand:   "AMPERSAND",
}

// keywords maps string keywords to their token types
var keywords = map[string]TokenType{
	"package":    TokenPackage,
	"import":     TokenImport,
	"as":         TokenAs,
	"func":       TokenFunc,
	"class":      TokenClass,
	"interface":  TokenInterface,
	"object":     TokenObject,
	"pub":        TokenPub,
	"abstract":   TokenAbstract,
	"external":   TokenExternal,
	"override":   TokenOverride,
	"open":       TokenOpen,
	"data":       TokenData,
	"enum":       TokenEnum,
	"annotation": TokenAnnotation,
	"inline":     TokenInline,
	"where":      TokenWhere,
	"val":        TokenVal,
	"var":        TokenVar,
	"return":     TokenReturn,
	"if":         TokenIf,
	"else":       TokenElse,
	"null":       TokenNull,
	"true":       TokenTrue,
	"false":      TokenFalse,
}

// LookupKeyword returns the keyword token type for word, if any.
func LookupKeyword(word string) (TokenType, bool) {
	tt, ok := keywords[word]
	return tt, ok
}

// Error describes a lexical problem. The offending bytes are still
// emitted as a TokenError so no input is lost.
type Error struct {
	Position Position
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Lexical error at %s: %s", e.Position, e.Message)
}

// Lexer represents the lexical analyzer
type Lexer struct {
	input        string
	filename     string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int  // line of ch
	lineStart    int  // offset of the first byte of the current line

	errors []*Error
}

// New creates a new lexer instance
func New(input string) *Lexer {
	return NewWithFilename(input, "")
}

// NewWithFilename creates a new lexer instance with filename for error reporting
func NewWithFilename(input, filename string) *Lexer {
	l := &Lexer{
		input:    input,
		filename: filename,
		line:     1,
	}
	l.readChar()
	return l
}

// Filename returns the name given at construction.
func (l *Lexer) Filename() string { return l.filename }

// Errors returns the lexical errors encountered so far.
func (l *Lexer) Errors() []*Error { return l.errors }

// Tokenize lexes the whole input. The result always ends with TokenEOF.
func Tokenize(input string) ([]Token, []*Error) {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return tokens, l.errors
}

// readChar reads the next character and advances position
func (l *Lexer) readChar() {
	if l.ch == '\n' && l.readPosition > 0 {
		l.line++
		l.lineStart = l.readPosition
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII NUL character represents "EOF"
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

// currentPosition returns the position of ch
func (l *Lexer) currentPosition() Position {
	return Position{Line: l.line, Column: l.position - l.lineStart + 1, Offset: l.position}
}

func (l *Lexer) addError(pos Position, format string, args ...any) {
	l.errors = append(l.errors, &Error{Position: pos, Message: fmt.Sprintf(format, args...)})
}

// NextToken scans the input and returns the next token
func (l *Lexer) NextToken() Token {
	start := l.currentPosition()

	if l.atEOF() {
		return Token{Type: TokenEOF, Span: Span{Start: start, End: start}}
	}

	switch l.ch {
	case ' ', '\t', '\r':
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
			l.readChar()
		}
		return l.tokenFrom(TokenWhitespace, start)
	case '\n':
		l.readChar()
		return l.tokenFrom(TokenNewline, start)
	case '/':
		if l.peekChar() == '/' || l.peekChar() == '*' {
			l.readComment(start)
			return l.tokenFrom(TokenComment, start)
		}
		return l.single(TokenDiv, start)
	case '"':
		if !l.readString() {
			l.addError(start, "unterminated string literal")
			return l.tokenFrom(TokenError, start)
		}
		return l.tokenFrom(TokenString, start)
	case '\'':
		if !l.readQuoted('\'') {
			l.addError(start, "unterminated character literal")
			return l.tokenFrom(TokenError, start)
		}
		return l.tokenFrom(TokenChar, start)
	case '=':
		switch l.peekChar() {
		case '=':
			return l.double(TokenEq, start)
		case '>':
			return l.double(TokenFatArrow, start)
		}
		return l.single(TokenAssign, start)
	case '!':
		if l.peekChar() == '=' {
			return l.double(TokenNe, start)
		}
		return l.single(TokenNot, start)
	case '<':
		if l.peekChar() == '=' {
			return l.double(TokenLe, start)
		}
		return l.single(TokenLt, start)
	case '>':
		// '>>' is never fused so that nested type arguments close one at a time.
		if l.peekChar() == '=' {
			return l.double(TokenGe, start)
		}
		return l.single(TokenGt, start)
	case '-':
		if l.peekChar() == '>' {
			return l.double(TokenArrow, start)
		}
		return l.single(TokenMinus, start)
	case '&':
		if l.peekChar() == '&' {
			return l.double(TokenAnd, start)
		}
		return l.single(TokenAmpersand, start)
	case '|':
		if l.peekChar() == '|' {
			return l.double(TokenOr, start)
		}
		return l.single(TokenPipe, start)
	case ':':
		if l.peekChar() == ':' {
			return l.double(TokenDoubleColon, start)
		}
		return l.single(TokenColon, start)
	case '+':
		return l.single(TokenPlus, start)
	case '*':
		return l.single(TokenMul, start)
	case '%':
		return l.single(TokenMod, start)
	case '(':
		return l.single(TokenLParen, start)
	case ')':
		return l.single(TokenRParen, start)
	case '{':
		return l.single(TokenLBrace, start)
	case '}':
		return l.single(TokenRBrace, start)
	case '[':
		return l.single(TokenLBracket, start)
	case ']':
		return l.single(TokenRBracket, start)
	case ';':
		return l.single(TokenSemicolon, start)
	case ',':
		return l.single(TokenComma, start)
	case '.':
		return l.single(TokenDot, start)
	case '?':
		return l.single(TokenQuestion, start)
	case '@':
		return l.single(TokenAt, start)
	case '#':
		return l.single(TokenHash, start)
	case '$':
		return l.single(TokenDollar, start)
	}

	if isLetter(l.ch) || l.ch == '_' || l.isUnicodeLetter() {
		l.readIdentifier()
		tok := l.tokenFrom(TokenIdentifier, start)
		if kw, ok := keywords[tok.Literal]; ok {
			tok.Type = kw
		}
		return tok
	}
	if isDigit(l.ch) {
		return l.tokenFrom(l.readNumber(), start)
	}

	// Unknown byte sequence: consume one full rune.
	_, size := utf8.DecodeRuneInString(l.input[l.position:])
	for i := 0; i < size; i++ {
		l.readChar()
	}
	tok := l.tokenFrom(TokenError, start)
	l.addError(start, "unexpected character %q", tok.Literal)
	return tok
}

func (l *Lexer) single(tt TokenType, start Position) Token {
	l.readChar()
	return l.tokenFrom(tt, start)
}

func (l *Lexer) double(tt TokenType, start Position) Token {
	l.readChar()
	l.readChar()
	return l.tokenFrom(tt, start)
}

// tokenFrom creates a token spanning start up to the current position
func (l *Lexer) tokenFrom(tt TokenType, start Position) Token {
	return Token{
		Type:    tt,
		Literal: l.input[start.Offset:l.position],
		Span:    Span{Start: start, End: l.currentPosition()},
	}
}

func (l *Lexer) isUnicodeLetter() bool {
	if l.ch < 0x80 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.position:])
	return unicode.IsLetter(r)
}

// readIdentifier reads an ASCII or Unicode identifier
func (l *Lexer) readIdentifier() {
	for {
		switch {
		case isLetter(l.ch) || isDigit(l.ch) || l.ch == '_':
			l.readChar()
		case l.ch >= 0x80:
			r, size := utf8.DecodeRuneInString(l.input[l.position:])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return
			}
			for i := 0; i < size; i++ {
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *Lexer) readNumber() TokenType {
	tt := TokenInteger
	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		tt = TokenFloat
		l.readChar()
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	// numeric suffixes such as 1L or 2.0f
	for isLetter(l.ch) {
		l.readChar()
	}
	return tt
}

// readString consumes a double quoted string; reports whether it was terminated
func (l *Lexer) readString() bool {
	return l.readQuoted('"')
}

func (l *Lexer) readQuoted(quote byte) bool {
	l.readChar() // 開始の引用符をスキップ
	for {
		switch l.ch {
		case quote:
			l.readChar()
			return true
		case '\\':
			l.readChar() // エスケープ文字をスキップ
			if l.atEOF() {
				return false
			}
			l.readChar()
		case '\n':
			return false
		default:
			if l.atEOF() {
				return false
			}
			l.readChar()
		}
	}
}

func (l *Lexer) readComment(start Position) {
	if l.peekChar() == '/' {
		// シングルラインコメント
		for l.ch != '\n' && !l.atEOF() {
			l.readChar()
		}
		return
	}
	// マルチラインコメント
	l.readChar()
	l.readChar()
	for {
		if l.atEOF() {
			l.addError(start, "unterminated block comment")
			return
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return
		}
		l.readChar()
	}
}

// isLetter checks if character is ASCII letter
func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

// isDigit checks if character is ASCII digit
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
