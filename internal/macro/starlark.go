package macro

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/orizon-lang/declview/internal/meta"
)

const invocationLocal = "declview.invocation"

// predeclared are the globals every macro file sees.
func predeclared() starlark.StringDict {
	return starlark.StringDict{
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
		"expand": starlark.NewBuiltin("expand", expandBuiltin),
	}
}

// starlarkMacro adapts a Starlark function to a Func. The function is
// called with the declaration dict and, when it declares a parameter
// named args, the annotation arguments. It returns a dict or None.
func starlarkMacro(e *Engine, name string, fn starlark.Callable) Func {
	wantsArgs := false
	if f, ok := fn.(*starlark.Function); ok {
		for i := 0; i < f.NumParams(); i++ {
			if p, _ := f.Param(i); p == "args" {
				wantsArgs = true
			}
		}
	}
	return func(inv *Invocation) (meta.Node, error) {
		d, ok := inv.Node.(meta.Decl)
		if !ok {
			return nil, fmt.Errorf("unsupported node %T", inv.Node)
		}
		node, err := declToStarlark(d)
		if err != nil {
			return nil, err
		}

		var kwargs []starlark.Tuple
		if wantsArgs {
			var args starlark.Value = starlark.None
			if inv.HasArgs {
				args = starlark.String(inv.Args)
			}
			kwargs = append(kwargs, starlark.Tuple{starlark.String("args"), args})
		}

		thread := &starlark.Thread{
			Name: "macro:" + name,
			Print: func(_ *starlark.Thread, msg string) {
				e.logger.Debug("macro output", "macro", name, "msg", msg)
			},
		}
		thread.SetLocal(invocationLocal, inv)

		v, err := starlark.Call(thread, fn, starlark.Tuple{node}, kwargs)
		if err != nil {
			return nil, err
		}
		return starlarkToDecl(v)
	}
}

// expandBuiltin implements expand(name, node) for nested expansion.
func expandBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var node starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &name, &node); err != nil {
		return nil, err
	}
	inv, ok := thread.Local(invocationLocal).(*Invocation)
	if !ok {
		return nil, fmt.Errorf("%s: only callable while a macro runs", b.Name())
	}
	d, err := starlarkToDecl(node)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	if d == nil {
		return nil, fmt.Errorf("%s: node must be a dict", b.Name())
	}
	out, err := inv.Expand(name, d)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return starlark.None, nil
	}
	od, ok := out.(meta.Decl)
	if !ok {
		return nil, fmt.Errorf("%s: macro %s returned %T", b.Name(), name, out)
	}
	return declToStarlark(od)
}

func declToStarlark(d meta.Decl) (starlark.Value, error) {
	m, err := meta.ToMap(d)
	if err != nil {
		return nil, err
	}
	return GoToStarlark(m)
}

// starlarkToDecl returns nil for None.
func starlarkToDecl(v starlark.Value) (meta.Decl, error) {
	if v == starlark.None {
		return nil, nil
	}
	if _, ok := v.(*starlark.Dict); !ok {
		return nil, fmt.Errorf("macro must return a dict or None, got %s", v.Type())
	}
	g, err := ToGo(v)
	if err != nil {
		return nil, err
	}
	return meta.FromMap(g.(map[string]any))
}

// GoToStarlark converts a Go value to a Starlark value.
// Supported types: string, int, int64, float64, bool, []string, []any, map[string]any
func GoToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case string:
		return starlark.String(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float64:
		return starlark.Float(val), nil
	case bool:
		return starlark.Bool(val), nil
	case []string:
		list := make([]starlark.Value, len(val))
		for i, s := range val {
			list[i] = starlark.String(s)
		}
		return starlark.NewList(list), nil
	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil
	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, v := range val {
			sv, err := GoToStarlark(v)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToGo converts a Starlark value back to a Go value.
// Returns: string, int64, float64, bool, []any, map[string]any, or nil
func ToGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.String:
		return string(val), nil
	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			return val.String(), nil
		}
		return i64, nil
	case starlark.Float:
		return float64(val), nil
	case starlark.Bool:
		return bool(val), nil
	case *starlark.List:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil
	case starlark.Tuple:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("tuple index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil
	case *starlark.Dict:
		result := make(map[string]any)
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string, got %T", item[0])
			}
			gv, err := ToGo(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", key, err)
			}
			result[string(key)] = gv
		}
		return result, nil
	case *starlarkstruct.Struct:
		d := make(starlark.StringDict)
		val.ToStringDict(d)
		result := make(map[string]any, len(d))
		for k, fv := range d {
			gv, err := ToGo(fv)
			if err != nil {
				return nil, fmt.Errorf("struct field %q: %w", k, err)
			}
			result[k] = gv
		}
		return result, nil
	default:
		return val.String(), nil
	}
}
