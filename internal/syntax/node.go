package syntax

import (
	"strings"

	"github.com/orizon-lang/declview/internal/lexer"
)

// Node is a node of the concrete syntax tree. Leaves carry a token, inner
// nodes carry children. The tree is lossless: the concatenated text of all
// leaves equals the parsed source.
type Node struct {
	kind     Kind
	token    lexer.Token
	children []*Node
	parent   *Node
	start    int
	end      int
	source   string
}

// Kind returns the node kind. Leaves report KindToken.
func (n *Node) Kind() Kind { return n.kind }

// IsToken reports whether the node is a leaf.
func (n *Node) IsToken() bool { return n.kind == KindToken }

// Token returns the token of a leaf. Inner nodes return the zero token.
func (n *Node) Token() lexer.Token { return n.token }

// TokenType returns the token type of a leaf and TokenEOF for inner nodes.
func (n *Node) TokenType() lexer.TokenType {
	if n.kind != KindToken {
		return lexer.TokenEOF
	}
	return n.token.Type
}

// Is reports whether n is a leaf of token type tt.
func (n *Node) Is(tt lexer.TokenType) bool {
	return n != nil && n.kind == KindToken && n.token.Type == tt
}

// Parent returns the enclosing node, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns all children, tokens and trivia included.
func (n *Node) Children() []*Node { return n.children }

// TextOffset returns the absolute offset of the first byte of the node.
func (n *Node) TextOffset() int { return n.start }

// EndOffset returns the absolute offset just past the node.
func (n *Node) EndOffset() int { return n.end }

// Text returns the exact source text covered by the node.
func (n *Node) Text() string { return n.source[n.start:n.end] }

// Source returns the whole text the tree was built from.
func (n *Node) Source() string { return n.source }

// Root returns the topmost ancestor.
func (n *Node) Root() *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// FirstChildOfKind returns the first inner child of kind k.
func (n *Node) FirstChildOfKind(k Kind) *Node {
	for _, c := range n.children {
		if c.kind == k {
			return c
		}
	}
	return nil
}

// FirstChildOfKinds returns the first inner child whose kind is any of ks.
func (n *Node) FirstChildOfKinds(ks ...Kind) *Node {
	for _, c := range n.children {
		for _, k := range ks {
			if c.kind == k {
				return c
			}
		}
	}
	return nil
}

// ChildrenOfKind returns every inner child of kind k in source order.
func (n *Node) ChildrenOfKind(k Kind) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.kind == k {
			out = append(out, c)
		}
	}
	return out
}

// FirstToken returns the first direct leaf child of token type tt.
func (n *Node) FirstToken(tt lexer.TokenType) *Node {
	for _, c := range n.children {
		if c.Is(tt) {
			return c
		}
	}
	return nil
}

// FirstSignificantToken returns the first non-trivia leaf in the subtree.
func (n *Node) FirstSignificantToken() *Node {
	if n.kind == KindToken {
		if n.token.Type.IsTrivia() {
			return nil
		}
		return n
	}
	for _, c := range n.children {
		if t := c.FirstSignificantToken(); t != nil {
			return t
		}
	}
	return nil
}

// Index returns the position of n among its parent's children, -1 for roots.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// NextSibling returns the next child of the parent, trivia included.
func (n *Node) NextSibling() *Node {
	i := n.Index()
	if i < 0 || i+1 >= len(n.parent.children) {
		return nil
	}
	return n.parent.children[i+1]
}

// NextSiblingOfKind returns the first following sibling of kind k.
func NextSiblingOfKind(n *Node, k Kind) *Node {
	if n == nil {
		return nil
	}
	for s := n.NextSibling(); s != nil; s = s.NextSibling() {
		if s.kind == k {
			return s
		}
	}
	return nil
}

// NextSignificantSibling skips trivia siblings.
func NextSignificantSibling(n *Node) *Node {
	if n == nil {
		return nil
	}
	for s := n.NextSibling(); s != nil; s = s.NextSibling() {
		if s.kind != KindToken || !s.token.Type.IsTrivia() {
			return s
		}
	}
	return nil
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the subtree of the visited node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.children {
		Walk(c, fn)
	}
}

// SignificantText returns the node text with trivia collapsed: comments are
// dropped and runs of whitespace become a single space.
func (n *Node) SignificantText() string {
	var sb strings.Builder
	pendingSpace := false
	Walk(n, func(c *Node) bool {
		if c.kind != KindToken {
			return true
		}
		if c.token.Type.IsTrivia() {
			pendingSpace = sb.Len() > 0
			return false
		}
		if pendingSpace {
			sb.WriteByte(' ')
			pendingSpace = false
		}
		sb.WriteString(c.token.Literal)
		return false
	})
	return sb.String()
}

// Dump renders the tree structure, one node per line, for debugging and tests.
func Dump(n *Node) string {
	var sb strings.Builder
	var rec func(*Node, int)
	rec = func(n *Node, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		if n.kind == KindToken {
			sb.WriteString(n.token.Type.String())
			sb.WriteString(" ")
			sb.WriteString(strings.ReplaceAll(n.token.Literal, "\n", `\n`))
		} else {
			sb.WriteString(n.kind.String())
		}
		sb.WriteByte('\n')
		for _, c := range n.children {
			rec(c, depth+1)
		}
	}
	rec(n, 0)
	return sb.String()
}
