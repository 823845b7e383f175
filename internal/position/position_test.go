package position

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boxSource = "@Macro\nclass Box(val v: Int) {\n\tfunc get(): Int = v\n}"

func TestPositionAndSpanStrings(t *testing.T) {
	p := Position{Filename: "src/box.oriz", Line: 2, Column: 7, Offset: 13}
	assert.Equal(t, "box.oriz:2:7", p.String())
	assert.Equal(t, "2:7", Position{Line: 2, Column: 7}.String())

	single := Span{Start: p, End: Position{Filename: "src/box.oriz", Line: 2, Column: 10, Offset: 16}}
	assert.Equal(t, "box.oriz:2:7-10", single.String())

	multi := Span{Start: p, End: Position{Filename: "src/box.oriz", Line: 4, Column: 2, Offset: 60}}
	assert.Equal(t, "box.oriz:2:7-4:2", multi.String())
	assert.Equal(t, 47, multi.Length())
}

func TestSpanRelations(t *testing.T) {
	sf := NewSourceFile("box.oriz", boxSource)
	class := sf.SpanFromOffsets(7, len(boxSource))
	get := sf.SpanFromOffsets(32, 51)
	macro := sf.SpanFromOffsets(0, 6)

	assert.True(t, class.Contains(get.Start))
	assert.False(t, class.Contains(macro.Start))
	assert.True(t, class.Overlaps(get))
	assert.False(t, class.Overlaps(macro))

	u := macro.Union(class)
	assert.Equal(t, 0, u.Start.Offset)
	assert.Equal(t, len(boxSource), u.End.Offset)

	other := NewSourceFile("other.oriz", boxSource).SpanFromOffsets(0, 6)
	assert.Equal(t, macro, macro.Union(other))
	assert.False(t, macro.Overlaps(other))
}

func TestSourceFile_Offsets(t *testing.T) {
	sf := NewSourceFile("box.oriz", boxSource)
	assert.Equal(t, "class Box(val v: Int) {", sf.GetLine(2))
	assert.Equal(t, "", sf.GetLine(0))
	assert.Equal(t, "", sf.GetLine(9))

	tests := []struct {
		offset int
		line   int
		column int
	}{
		{0, 1, 1},
		{6, 1, 7},
		{7, 2, 1},
		{32, 3, 2},
		{len(boxSource), 4, 2},
	}
	for _, tt := range tests {
		pos := sf.PositionFromOffset(tt.offset)
		assert.Equal(t, tt.line, pos.Line, "offset %d", tt.offset)
		assert.Equal(t, tt.column, pos.Column, "offset %d", tt.offset)
		assert.Equal(t, tt.offset, sf.OffsetFromPosition(pos), "offset %d", tt.offset)
	}

	assert.Equal(t, Position{}, sf.PositionFromOffset(-1))
	assert.Equal(t, Position{}, sf.PositionFromOffset(len(boxSource)+1))
	assert.Equal(t, -1, sf.OffsetFromPosition(Position{}))

	span := sf.SpanFromOffsets(13, 16)
	assert.Equal(t, "Box", sf.GetSpanText(span))
	assert.Equal(t, "", NewSourceFile("other.oriz", boxSource).GetSpanText(span))
}

func TestSourceMap_Concurrent(t *testing.T) {
	sm := NewSourceMap()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a'+i)) + ".oriz"
			sm.AddFile(name, boxSource)
			assert.NotNil(t, sm.GetFile(name))
		}(i)
	}
	wg.Wait()
	require.Len(t, sm.GetFiles(), 8)

	span := sm.GetFile("a.oriz").SpanFromOffsets(1, 6)
	assert.Equal(t, "Macro", sm.GetSpanText(span))
	assert.Equal(t, "@Macro", sm.GetLine(span.Start))
	assert.Equal(t, "", sm.GetSpanText(Span{Start: Position{Filename: "missing.oriz"}}))
}

func TestExcerpt(t *testing.T) {
	sf := NewSourceFile("box.oriz", "@Macro\nclass Box(val v: Int) {\n\tfunc get() = v\n}\n")

	out := Excerpt(sf.Lines[1:2], 2, sf.SpanFromOffsets(13, 16))
	assert.Equal(t, "   2 | class Box(val v: Int) {\n     |       ^^^\n", out)

	// A span over several lines gets a caret line under each of them.
	start := strings.Index(sf.Content, "Box")
	end := strings.Index(sf.Content, "get")
	out = Excerpt(sf.Lines[1:3], 2, sf.SpanFromOffsets(start, end))
	assert.Equal(t,
		"   2 | class Box(val v: Int) {\n"+
			"     |       "+strings.Repeat("^", 17)+"\n"+
			"   3 | \tfunc get() = v\n"+
			"     | ^^^^^^\n",
		out)

	// Lines outside the span get no caret line; an empty span gets one caret.
	out = Excerpt(sf.Lines[0:2], 1, sf.SpanFromOffsets(13, 13))
	assert.Equal(t, "   1 | @Macro\n   2 | class Box(val v: Int) {\n     |       ^\n", out)
}
