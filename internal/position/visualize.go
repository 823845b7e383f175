package position

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Excerpt renders lines, the first of which is line number first, with a
// line number gutter. Every line span covers is followed by a caret line
// under the covered columns. Tabs before the carets are kept so the carets
// line up with the text above.
func Excerpt(lines []string, first int, span Span) string {
	var out strings.Builder
	for i, line := range lines {
		n := first + i
		fmt.Fprintf(&out, "%4d | %s\n", n, line)
		if n < span.Start.Line || n > span.End.Line {
			continue
		}

		from, to := 1, utf8.RuneCountInString(line)+1
		if n == span.Start.Line {
			from = span.Start.Column
		}
		if n == span.End.Line {
			to = span.End.Column
		}
		out.WriteString("     | ")
		writeCarets(&out, line, from, to)
		out.WriteString("\n")
	}
	return out.String()
}

// writeCarets writes the padding up to column from and at least one caret.
func writeCarets(out *strings.Builder, line string, from, to int) {
	runes := []rune(line)
	for col := 1; col < from; col++ {
		if col <= len(runes) && runes[col-1] == '\t' {
			out.WriteByte('\t')
		} else {
			out.WriteByte(' ')
		}
	}
	out.WriteString(strings.Repeat("^", max(1, to-from)))
}
