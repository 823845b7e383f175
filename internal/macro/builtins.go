package macro

import (
	"fmt"

	"github.com/orizon-lang/declview/internal/meta"
)

const builtinSource = "builtin"

func registerBuiltins(e *Engine) {
	for name, fn := range map[string]Func{
		"builtin.generated": generatedMacro,
		"builtin.noop":      noopMacro,
	} {
		// Names are fixed and the registry is empty here.
		_ = e.RegisterMacro(&Definition{Name: name, Source: builtinSource, Fn: fn})
	}
}

// generatedMacro replaces the declaration by a copy annotated @Generated,
// with the macro arguments as the annotation arguments.
func generatedMacro(inv *Invocation) (meta.Node, error) {
	ann := meta.Annotation{Name: "Generated", Args: inv.Args, HasArgs: inv.HasArgs}
	switch n := inv.Node.(type) {
	case *meta.Func:
		out := *n
		out.Annotations = withoutMacro(n.Annotations, inv.Name)
		out.Annotations.Annotations = append([]meta.Annotation{ann}, out.Annotations.Annotations...)
		return &out, nil
	case *meta.Structured:
		out := *n
		out.Annotations = withoutMacro(n.Annotations, inv.Name)
		out.Annotations.Annotations = append([]meta.Annotation{ann}, out.Annotations.Annotations...)
		return &out, nil
	default:
		return nil, fmt.Errorf("unsupported node %T", inv.Node)
	}
}

func noopMacro(*Invocation) (meta.Node, error) { return nil, nil }

// withoutMacro drops annotations naming the macro so the replacement does
// not trigger it again.
func withoutMacro(a meta.Annotations, name string) meta.Annotations {
	out := meta.Annotations{Modifiers: append([]meta.Modifier(nil), a.Modifiers...)}
	for _, ann := range a.Annotations {
		if ann.Name == name || shortName(ann.Name) == shortName(name) {
			continue
		}
		out.Annotations = append(out.Annotations, ann)
	}
	return out
}

func shortName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
