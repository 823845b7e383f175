package macro

import (
	"strings"

	"github.com/orizon-lang/declview/internal/stub"
)

// FullName resolves a written annotation name against imports. The first
// segment of the name is matched against the imported names: one match
// gives the import path, none leaves the name as written, and several make
// the name ambiguous.
func FullName(written string, imports []stub.Import) (string, bool) {
	if written == "" {
		return "", false
	}
	head, rest := written, ""
	if i := strings.IndexByte(written, '.'); i >= 0 {
		head, rest = written[:i], written[i:]
	}
	var matches []string
	for _, imp := range imports {
		if imp.AllUnder {
			continue
		}
		if importedName(imp) == head {
			matches = append(matches, imp.Path)
		}
	}
	switch len(matches) {
	case 0:
		return written, true
	case 1:
		return matches[0] + rest, true
	default:
		return "", false
	}
}

func importedName(imp stub.Import) string {
	if imp.Alias != "" {
		return imp.Alias
	}
	if i := strings.LastIndexByte(imp.Path, '.'); i >= 0 {
		return imp.Path[i+1:]
	}
	return imp.Path
}
