package format

import (
	"strings"
	"testing"
)

func TestFormatText_TrailingSpaceAndNewline_LF(t *testing.T) {
	in := "a  \n b\t\t  \n"
	got := FormatText(in, Options{PreserveNewlineStyle: false})
	want := "a\n b\n"
	if got != want {
		t.Fatalf("LF trim failed: got=%q want=%q", got, want)
	}
}

func TestFormatText_EnsureTrailingNewline_WhenMissing(t *testing.T) {
	in := "no-newline"
	got := FormatText(in, Options{PreserveNewlineStyle: false})
	want := "no-newline\n"
	if got != want {
		t.Fatalf("ensure trailing newline failed: got=%q want=%q", got, want)
	}
}

func TestFormatText_PreserveCRLF_OnFiles(t *testing.T) {
	in := "x  \r\ny\t \r\n"
	got := FormatText(in, Options{PreserveNewlineStyle: true})
	want := "x\r\ny\r\n"
	if got != want {
		t.Fatalf("CRLF preservation failed: got=%q want=%q", got, want)
	}
}

func TestFormatText_EmptyInput_ProducesSingleNewline(t *testing.T) {
	got := FormatText("", Options{PreserveNewlineStyle: false})
	want := "\n"
	if got != want {
		t.Fatalf("empty input formatting failed: got=%q want=%q", got, want)
	}
}

func TestIndent_SkipsBlankLines(t *testing.T) {
	got := Indent("a\n\n  b", "  ")
	want := "  a\n\n    b"
	if got != want {
		t.Fatalf("indent failed: got=%q want=%q", got, want)
	}
}

func TestDedent_RemovesCommonPrefix(t *testing.T) {
	got := Dedent("    func f() {\n      x\n    }")
	want := "func f() {\n  x\n}"
	if got != want {
		t.Fatalf("dedent failed: got=%q want=%q", got, want)
	}
}

func TestUnified_ReportsExpansion(t *testing.T) {
	text := "package a\n\n@Memo\nfunc f() = 1\n\nfunc g() = 2\n"
	start := strings.Index(text, "@Memo")
	end := strings.Index(text, "= 1") + len("= 1")
	edits := []Edit{{Start: start, End: end, Text: "@Generated\nfunc f() = 1"}}

	got := Unified("a.oriz", text, edits, DefaultDiffOptions())
	want := "--- a.oriz\t(written)\n" +
		"+++ a.oriz\t(expanded)\n" +
		"@@ -1,6 +1,6 @@\n" +
		" package a\n" +
		" \n" +
		"-@Memo\n" +
		"-func f() = 1\n" +
		"+@Generated\n" +
		"+func f() = 1\n" +
		" \n" +
		" func g() = 2\n"
	if got != want {
		t.Fatalf("unified diff mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestUnified_SeparateHunksShiftNewStart(t *testing.T) {
	text := "a\n@M\nf1\nb\nc\nd\ne\n@M\nf2\ng\n"
	first := strings.Index(text, "@M")
	second := strings.LastIndex(text, "@M")
	edits := []Edit{
		{Start: second, End: second + len("@M\nf2"), Text: "f2"},
		{Start: first, End: first + len("@M\nf1"), Text: "@G\n@X\nf1"},
	}

	got := Unified("b.oriz", text, edits, DiffOptions{Context: 1})
	want := "--- b.oriz\t(written)\n" +
		"+++ b.oriz\t(expanded)\n" +
		"@@ -1,4 +1,5 @@\n" +
		" a\n-@M\n-f1\n+@G\n+@X\n+f1\n b\n" +
		"@@ -7,4 +8,3 @@\n" +
		" e\n-@M\n-f2\n+f2\n g\n"
	if got != want {
		t.Fatalf("unified diff mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestUnified_NoChanges(t *testing.T) {
	if diff := Unified("a.oriz", "x\n", nil, DefaultDiffOptions()); diff != "" {
		t.Fatalf("expected empty diff, got:\n%s", diff)
	}
}

func TestApply_OuterEditWins(t *testing.T) {
	text := "class B {\n  func m()\n}\n"
	inner := strings.Index(text, "func m()")
	edits := []Edit{
		{Start: inner, End: inner + len("func m()"), Text: "func n()"},
		{Start: 0, End: len(text) - 1, Text: "class C"},
	}

	if got := Apply(text, edits); got != "class C\n" {
		t.Fatalf("apply failed: got=%q", got)
	}
	if got := NormalizeEdits(edits); len(got) != 1 || got[0].Start != 0 {
		t.Fatalf("expected only the enclosing edit, got %+v", got)
	}
}
