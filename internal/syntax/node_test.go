package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/declview/internal/lexer"
)

// build assembles a function node with an optional expression body.
func build(t *testing.T, src string) *Node {
	t.Helper()
	tokens, errs := lexer.Tokenize(src)
	require.Empty(t, errs)

	b := NewBuilder(src)
	b.Start(KindFile)
	fnStarted := false
	wantExpr := false
	inExpr := false
	for _, tok := range tokens {
		switch {
		case tok.Type == lexer.TokenEOF:
		case tok.Type.IsTrivia():
			b.Trivia(tok)
		case tok.Type == lexer.TokenFunc:
			b.Start(KindFunction)
			fnStarted = true
			b.Token(tok)
		case tok.Type == lexer.TokenAssign:
			b.Token(tok)
			wantExpr = true
		default:
			if wantExpr {
				b.Start(KindExpression)
				wantExpr = false
				inExpr = true
			}
			b.Token(tok)
		}
	}
	if inExpr {
		b.Finish()
	}
	if fnStarted {
		b.Finish()
	}
	b.Finish()

	root, err := b.Root()
	require.NoError(t, err)
	return root
}

func TestBuilder_TriviaPlacement(t *testing.T) {
	src := "  // c\nfunc f = 1  \n"
	root := build(t, src)

	assert.Equal(t, src, root.Text())
	fn := root.FirstChildOfKind(KindFunction)
	require.NotNil(t, fn)
	assert.Equal(t, "func f = 1", fn.Text())
	assert.Equal(t, 7, fn.TextOffset())

	expr := fn.FirstChildOfKind(KindExpression)
	require.NotNil(t, expr)
	assert.Equal(t, "1", expr.Text())
	assert.Same(t, fn, expr.Parent())
	assert.Same(t, root, expr.Root())
}

func TestBuilder_Checkpoint(t *testing.T) {
	src := "@A func f"
	tokens, _ := lexer.Tokenize(src)

	b := NewBuilder(src)
	b.Start(KindFile)
	cp := b.Checkpoint()
	b.Start(KindModifierList)
	b.Token(tokens[0]) // @
	b.Token(tokens[1]) // A
	b.Finish()
	b.Trivia(tokens[2])
	b.StartAt(cp, KindFunction)
	b.Token(tokens[3])
	b.Trivia(tokens[4])
	b.Token(tokens[5])
	b.Finish()
	b.Finish()

	root, err := b.Root()
	require.NoError(t, err)

	fn := root.FirstChildOfKind(KindFunction)
	require.NotNil(t, fn)
	assert.Equal(t, src, fn.Text())
	mods := fn.FirstChildOfKind(KindModifierList)
	require.NotNil(t, mods)
	assert.Same(t, fn, mods.Parent())
	assert.Equal(t, "@A", mods.Text())
}

func TestNavigation(t *testing.T) {
	root := build(t, "func f = 1")
	fn := root.FirstChildOfKind(KindFunction)

	eq := fn.FirstToken(lexer.TokenAssign)
	require.NotNil(t, eq)
	assert.Equal(t, 7, eq.TextOffset())

	expr := NextSiblingOfKind(eq, KindExpression)
	require.NotNil(t, expr)
	assert.Nil(t, NextSiblingOfKind(expr, KindExpression))

	sig := NextSignificantSibling(fn.FirstToken(lexer.TokenFunc))
	require.NotNil(t, sig)
	assert.Equal(t, "f", sig.Text())

	assert.Equal(t, "func", fn.FirstSignificantToken().Text())
	assert.Nil(t, fn.FirstChildOfKind(KindBlock))
	assert.Equal(t, expr, fn.FirstChildOfKinds(KindBlock, KindExpression))
	assert.Equal(t, "func f = 1", fn.SignificantText())
}

func TestWalk_SkipsSubtrees(t *testing.T) {
	root := build(t, "func f = 1")
	var kinds []Kind
	Walk(root, func(n *Node) bool {
		if n.IsToken() {
			return false
		}
		kinds = append(kinds, n.Kind())
		return n.Kind() != KindFunction
	})
	assert.Equal(t, []Kind{KindFile, KindFunction}, kinds)
}

func TestDump(t *testing.T) {
	root := build(t, "func f")
	dump := Dump(root)
	assert.Contains(t, dump, "FILE\n  FUN\n    FUNC func\n")
}
