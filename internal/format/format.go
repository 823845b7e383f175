// Package format normalizes generated declview source text before it is
// parsed back into a tree.
package format

import (
	"bytes"
	"strings"
)

// Options controls formatting style.
type Options struct {
	// PreserveNewlineStyle: when true, CRLF in input keeps CRLF in output; else LF.
	PreserveNewlineStyle bool
}

// DefaultOptions returns sane defaults.
func DefaultOptions() Options {
	return Options{PreserveNewlineStyle: true}
}

// FormatBytes formats source bytes and returns formatted bytes.
func FormatBytes(in []byte, opts Options) []byte {
	return []byte(FormatText(string(in), opts))
}

// FormatText applies minimal, safe formatting:.
// - trims trailing spaces/tabs on each line
// - ensures exactly one trailing newline.
// - preserves CRLF vs LF depending on options and input.
func FormatText(text string, opts Options) string {
	// Decide newline style.
	useCRLF := opts.PreserveNewlineStyle && strings.Contains(text, "\r\n")

	// Normalize to \n for processing.
	norm := strings.ReplaceAll(text, "\r\n", "\n")
	norm = strings.ReplaceAll(norm, "\r", "\n")

	if norm == "" {
		if useCRLF {
			return "\r\n"
		}

		return "\n"
	}

	lines := strings.Split(norm, "\n")
	// Drop final empty due to trailing newline; we'll re-add exactly one later.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	sep := "\n"
	if useCRLF {
		sep = "\r\n"
	}

	var buf bytes.Buffer

	for i, ln := range lines {
		if i > 0 {
			buf.WriteString(sep)
		}

		buf.WriteString(ln)
	}

	buf.WriteString(sep)

	return buf.String()
}

// Indent prefixes every non-empty line of text with prefix.
func Indent(text, prefix string) string {
	if text == "" || prefix == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = prefix + ln
	}
	return strings.Join(lines, "\n")
}

// Dedent removes the longest common leading whitespace of all non-empty lines.
func Dedent(text string) string {
	lines := strings.Split(text, "\n")
	common := -1
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		n := len(ln) - len(strings.TrimLeft(ln, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	if common <= 0 {
		return text
	}
	for i, ln := range lines {
		if len(ln) >= common {
			lines[i] = ln[common:]
		} else {
			lines[i] = strings.TrimLeft(ln, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
