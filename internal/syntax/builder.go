package syntax

import (
	"fmt"

	"github.com/orizon-lang/declview/internal/lexer"
)

// Builder assembles a tree from a token stream. Trivia is buffered and
// attached to whichever node is open when the next node or significant
// token starts, so leading trivia of a node belongs to its parent.
type Builder struct {
	source  string
	stack   []*Node
	pending []lexer.Token
	cursor  int
	root    *Node
}

// Checkpoint marks a position in the currently open node that a later
// StartAt can wrap from.
type Checkpoint struct {
	parent *Node
	index  int
}

// NewBuilder creates a builder for text.
func NewBuilder(source string) *Builder {
	return &Builder{source: source}
}

func (b *Builder) top() *Node {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

// Start opens a node of kind k as a child of the current node.
func (b *Builder) Start(k Kind) {
	if len(b.stack) > 0 {
		b.flush()
	}
	n := &Node{kind: k, start: b.cursor, end: b.cursor, source: b.source}
	if parent := b.top(); parent != nil {
		n.parent = parent
		parent.children = append(parent.children, n)
	} else if b.root == nil {
		b.root = n
	} else {
		panic("syntax: Start called after the root was finished")
	}
	b.stack = append(b.stack, n)
}

// Checkpoint records the current child position of the open node.
func (b *Builder) Checkpoint() Checkpoint {
	b.flush()
	parent := b.top()
	if parent == nil {
		return Checkpoint{}
	}
	return Checkpoint{parent: parent, index: len(parent.children)}
}

// StartAt opens a node of kind k that adopts every child added to the
// checkpoint's node since the checkpoint was taken.
func (b *Builder) StartAt(cp Checkpoint, k Kind) {
	parent := b.top()
	if parent == nil || parent != cp.parent {
		panic("syntax: checkpoint does not belong to the open node")
	}
	b.flush()
	adopted := append([]*Node(nil), parent.children[cp.index:]...)
	n := &Node{kind: k, parent: parent, children: adopted, source: b.source}
	if len(adopted) > 0 {
		n.start = adopted[0].start
	} else {
		n.start = b.cursor
	}
	n.end = b.cursor
	for _, c := range adopted {
		c.parent = n
	}
	parent.children = append(parent.children[:cp.index], n)
	b.stack = append(b.stack, n)
}

// Token appends a significant token to the current node.
func (b *Builder) Token(tok lexer.Token) {
	if tok.Type.IsTrivia() {
		b.Trivia(tok)
		return
	}
	b.flush()
	b.leaf(tok)
}

// Trivia buffers a whitespace or comment token.
func (b *Builder) Trivia(tok lexer.Token) {
	b.pending = append(b.pending, tok)
}

// Finish closes the current node. Buffered trivia is left for the next
// sibling or the parent.
func (b *Builder) Finish() {
	if len(b.stack) == 0 {
		panic("syntax: Finish without Start")
	}
	n := b.top()
	b.stack = b.stack[:len(b.stack)-1]
	if len(n.children) > 0 {
		n.start = n.children[0].start
		n.end = n.children[len(n.children)-1].end
	}
	if n.parent == nil {
		// the root owns every remaining byte
		b.stack = append(b.stack, n)
		b.flush()
		b.stack = b.stack[:len(b.stack)-1]
		n.start = 0
		if len(n.children) > 0 {
			n.end = n.children[len(n.children)-1].end
		}
	}
}

// Root returns the finished tree.
func (b *Builder) Root() (*Node, error) {
	if b.root == nil {
		return nil, fmt.Errorf("syntax: no root node")
	}
	if len(b.stack) != 0 {
		return nil, fmt.Errorf("syntax: %d unfinished node(s)", len(b.stack))
	}
	return b.root, nil
}

func (b *Builder) flush() {
	if len(b.pending) == 0 {
		return
	}
	pending := b.pending
	b.pending = nil
	for _, tok := range pending {
		b.leaf(tok)
	}
}

func (b *Builder) leaf(tok lexer.Token) {
	parent := b.top()
	if parent == nil {
		panic("syntax: token outside of any node")
	}
	n := &Node{
		kind:   KindToken,
		token:  tok,
		parent: parent,
		start:  tok.Offset(),
		end:    tok.End(),
		source: b.source,
	}
	parent.children = append(parent.children, n)
	b.cursor = n.end
	for _, open := range b.stack {
		if open.end < n.end {
			open.end = n.end
		}
	}
}
