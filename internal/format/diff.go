package format

import (
	"fmt"
	"sort"
	"strings"
)

// Edit replaces the bytes [Start, End) of a text with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// DiffOptions controls diff generation.
type DiffOptions struct {
	Context int // Number of unchanged lines shown around a change
}

// DefaultDiffOptions returns default diff options.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{Context: 3}
}

// NormalizeEdits orders edits by start offset. An edit that begins inside
// an earlier kept edit is dropped, so an enclosing edit wins over the
// edits it contains.
func NormalizeEdits(edits []Edit) []Edit {
	sorted := make([]Edit, 0, len(edits))
	for _, e := range edits {
		if e.Start >= 0 && e.End >= e.Start {
			sorted = append(sorted, e)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	out := sorted[:0]
	last := 0
	for _, e := range sorted {
		if e.Start < last {
			continue
		}
		out = append(out, e)
		last = e.End
	}
	return out
}

// Apply returns text with edits applied.
func Apply(text string, edits []Edit) string {
	var b strings.Builder
	last := 0
	for _, e := range NormalizeEdits(edits) {
		if e.End > len(text) {
			break
		}
		b.WriteString(text[last:e.Start])
		b.WriteString(e.Text)
		last = e.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// lineTable indexes the lines of a text by byte offset.
type lineTable struct {
	text   string
	starts []int
}

func newLineTable(text string) *lineTable {
	t := &lineTable{text: text, starts: []int{0}}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && i+1 < len(text) {
			t.starts = append(t.starts, i+1)
		}
	}
	return t
}

func (t *lineTable) count() int { return len(t.starts) }

// lineOf returns the 0-based line holding offset.
func (t *lineTable) lineOf(offset int) int {
	return sort.Search(len(t.starts), func(i int) bool { return t.starts[i] > offset }) - 1
}

// end returns the offset just past the content of line i, before its
// newline.
func (t *lineTable) end(i int) int {
	if i+1 < len(t.starts) {
		return t.starts[i+1] - 1
	}
	if strings.HasSuffix(t.text, "\n") {
		return len(t.text) - 1
	}
	return len(t.text)
}

func (t *lineTable) line(i int) string { return t.text[t.starts[i]:t.end(i)] }

// change is a run of written lines [first, last] and the lines that
// replace them.
type change struct {
	first, last int
	lines       []string
}

func collectChanges(t *lineTable, edits []Edit) []change {
	type group struct {
		first, last int
		edits       []Edit
	}
	var groups []group
	for _, e := range edits {
		first := t.lineOf(e.Start)
		last := first
		if e.End > e.Start {
			last = t.lineOf(e.End - 1)
		}
		if n := len(groups); n > 0 && first <= groups[n-1].last {
			g := &groups[n-1]
			g.last = max(g.last, last)
			g.edits = append(g.edits, e)
			continue
		}
		groups = append(groups, group{first: first, last: last, edits: []Edit{e}})
	}

	changes := make([]change, 0, len(groups))
	for _, g := range groups {
		var b strings.Builder
		pos := t.starts[g.first]
		for _, e := range g.edits {
			b.WriteString(t.text[pos:e.Start])
			b.WriteString(e.Text)
			pos = e.End
		}
		b.WriteString(t.text[pos:t.end(g.last)])
		changes = append(changes, change{
			first: g.first,
			last:  g.last,
			lines: strings.Split(b.String(), "\n"),
		})
	}
	return changes
}

// Unified renders the edits of a written text as a unified diff between
// the written and the expanded text. Each hunk is built around the lines
// an edit touches. It returns the empty string when edits is empty.
func Unified(filename, text string, edits []Edit, options DiffOptions) string {
	edits = NormalizeEdits(edits)
	if len(edits) == 0 || edits[len(edits)-1].End > len(text) {
		return ""
	}
	ctx := max(options.Context, 0)
	t := newLineTable(text)
	changes := collectChanges(t, edits)

	var out strings.Builder
	fmt.Fprintf(&out, "--- %s\t(written)\n", filename)
	fmt.Fprintf(&out, "+++ %s\t(expanded)\n", filename)

	delta := 0
	for i := 0; i < len(changes); {
		j := i
		for j+1 < len(changes) && changes[j+1].first-changes[j].last-1 <= 2*ctx {
			j++
		}

		start := max(changes[i].first-ctx, 0)
		end := min(changes[j].last+ctx, t.count()-1)

		var body strings.Builder
		added, removed := 0, 0
		line := start
		for _, c := range changes[i : j+1] {
			for ; line < c.first; line++ {
				body.WriteString(" " + t.line(line) + "\n")
			}
			for ; line <= c.last; line++ {
				body.WriteString("-" + t.line(line) + "\n")
				removed++
			}
			for _, l := range c.lines {
				body.WriteString("+" + l + "\n")
				added++
			}
		}
		for ; line <= end; line++ {
			body.WriteString(" " + t.line(line) + "\n")
		}

		oldCount := end - start + 1
		newCount := oldCount - removed + added
		fmt.Fprintf(&out, "@@ -%d,%d +%d,%d @@\n", start+1, oldCount, start+1+delta, newCount)
		out.WriteString(body.String())

		delta += added - removed
		i = j + 1
	}
	return out.String()
}
